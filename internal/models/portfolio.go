// Package models defines the portfolio entity shapes exchanged with the
// upstream API. Identifiers are assigned by the backend; this service never
// generates them.
package models

import "time"

// BlogPost is a blog entry. Content is opaque editor markup.
type BlogPost struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Content     string    `json:"content"`
	Thumbnail   string    `json:"thumbnail"`
	Author      string    `json:"author"`
	Category    string    `json:"category"`
	Tags        []string  `json:"tags"`
	IsPublished bool      `json:"isPublished"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// RepoURL holds the split repository links of a project.
type RepoURL struct {
	Frontend string `json:"frontend,omitempty"`
	Backend  string `json:"backend,omitempty"`
}

// Project is a portfolio project. The list-valued fields are edited as
// comma-separated text and split at the form boundary.
type Project struct {
	ID            string    `json:"_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	LiveURL       string    `json:"liveUrl,omitempty"`
	GithubRepoURL RepoURL   `json:"githubRepoUrl"`
	Features      []string  `json:"features"`
	Technologies  []string  `json:"technologies"`
	Improvements  []string  `json:"improvements,omitempty"`
	Challenges    []string  `json:"challenges,omitempty"`
	Category      string    `json:"category,omitempty"`
	Thumbnail     string    `json:"thumbnail,omitempty"`
	Order         int       `json:"order,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Skill categories accepted by the backend.
const (
	SkillTechnical = "technical"
	SkillSoft      = "soft"
)

// Skill is a single skill entry.
type Skill struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Icon     string `json:"icon,omitempty"`
	Order    int    `json:"order"`
}

// Experience is a work history entry. When Current is true the To field is
// suppressed.
type Experience struct {
	ID          string     `json:"_id"`
	Title       string     `json:"title"`
	Company     string     `json:"company"`
	Location    string     `json:"location,omitempty"`
	From        *time.Time `json:"from,omitempty"`
	To          *time.Time `json:"to,omitempty"`
	Current     bool       `json:"current,omitempty"`
	Description string     `json:"description,omitempty"`
	CompanyLogo string     `json:"companyLogo,omitempty"`
	Order       int        `json:"order,omitempty"`
}

// Contact is an inbound contact message. Read-only and deletable; there is
// no update operation.
type Contact struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// SessionUser is the identity derived from a verified session credential.
// It is never locally mutable.
type SessionUser struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}
