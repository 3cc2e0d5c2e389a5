package api

import "github.com/hversson/atrium/internal/audit"

// DeleteIntent is the delete confirmation payload: a one-shot token plus
// the human-readable label the confirmation dialog shows.
type DeleteIntent struct {
	Token string `json:"token"`
	Label string `json:"label"`
}

// StagingState reports a staging session back to the browser. Files and
// Previews are position-aligned.
type StagingState struct {
	Session  string         `json:"session"`
	Files    []StagedEntry  `json:"files"`
	Previews []string       `json:"previews"`
}

// StagedEntry is one staged file's metadata.
type StagedEntry struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// AuditPage is a window of the audit trail.
type AuditPage struct {
	Entries []audit.Entry `json:"entries"`
	Total   int           `json:"total"`
}

// LoginRedirect tells the browser where to go after a successful login.
type LoginRedirect struct {
	RedirectTo string `json:"redirectTo"`
}
