package forms

import (
	"net/url"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// DateLayout is the wire format for date fields.
const DateLayout = "2006-01-02"

// Decoder turns submitted form values into the object serialized as the
// "data" part of an upstream mutation.
type Decoder func(values url.Values) (map[string]any, error)

// ContentCleaner normalizes rich text markup before it is forwarded
// upstream. The editor widget behind it is an external collaborator; this is
// the only surface the form layer sees.
type ContentCleaner interface {
	Clean(markup string) string
}

func checked(v string) bool {
	return v == "on" || v == "true" || v == "1"
}

func intField(v string) int {
	n, _ := strconv.Atoi(v)
	return n
}

// Blog returns the decoder for blog post forms. Tags are comma-separated;
// content passes through the cleaner.
func Blog(cleaner ContentCleaner) Decoder {
	return func(values url.Values) (map[string]any, error) {
		f := struct {
			Title    string
			Slug     string
			Content  string
			Author   string
			Category string
		}{
			Title:    values.Get("title"),
			Slug:     values.Get("slug"),
			Content:  values.Get("content"),
			Author:   values.Get("author"),
			Category: values.Get("category"),
		}
		if err := validation.ValidateStruct(&f,
			validation.Field(&f.Title, validation.Required),
			validation.Field(&f.Slug, validation.Required),
			validation.Field(&f.Content, validation.Required),
			validation.Field(&f.Author, validation.Required),
			validation.Field(&f.Category, validation.Required),
		); err != nil {
			return nil, err
		}
		return map[string]any{
			"title":       f.Title,
			"slug":        f.Slug,
			"content":     cleaner.Clean(f.Content),
			"author":      f.Author,
			"category":    f.Category,
			"tags":        SplitList(values.Get("tags")),
			"isPublished": checked(values.Get("isPublished")),
		}, nil
	}
}

// Project decodes project forms. The separate frontend/backend URL inputs are
// reassembled into a single githubRepoUrl object.
func Project() Decoder {
	return func(values url.Values) (map[string]any, error) {
		f := struct {
			Title       string
			Description string
		}{
			Title:       values.Get("title"),
			Description: values.Get("description"),
		}
		if err := validation.ValidateStruct(&f,
			validation.Field(&f.Title, validation.Required),
			validation.Field(&f.Description, validation.Required),
		); err != nil {
			return nil, err
		}
		data := map[string]any{
			"title":       f.Title,
			"description": f.Description,
			"githubRepoUrl": map[string]any{
				"frontend": values.Get("frontendUrl"),
				"backend":  values.Get("backendUrl"),
			},
			"features":     SplitList(values.Get("features")),
			"technologies": SplitList(values.Get("technologies")),
			"improvements": SplitList(values.Get("improvements")),
			"challenges":   SplitList(values.Get("challenges")),
		}
		if v := values.Get("liveUrl"); v != "" {
			data["liveUrl"] = v
		}
		if v := values.Get("category"); v != "" {
			data["category"] = v
		}
		if v := values.Get("order"); v != "" {
			data["order"] = intField(v)
		}
		return data, nil
	}
}

// Skill decodes skill forms. Category is restricted to the backend enum.
func Skill() Decoder {
	return func(values url.Values) (map[string]any, error) {
		f := struct {
			Name     string
			Category string
		}{
			Name:     values.Get("name"),
			Category: values.Get("category"),
		}
		if err := validation.ValidateStruct(&f,
			validation.Field(&f.Name, validation.Required),
			validation.Field(&f.Category, validation.Required, validation.In("technical", "soft")),
		); err != nil {
			return nil, err
		}
		data := map[string]any{
			"name":     f.Name,
			"category": f.Category,
		}
		if v := values.Get("order"); v != "" {
			data["order"] = intField(v)
		}
		return data, nil
	}
}

// Experience decodes work experience forms. A checked "current" box nulls
// the "to" date no matter what stale value the input still holds.
func Experience() Decoder {
	return func(values url.Values) (map[string]any, error) {
		f := struct {
			Title   string
			Company string
			From    string
			To      string
		}{
			Title:   values.Get("title"),
			Company: values.Get("company"),
			From:    values.Get("from"),
			To:      values.Get("to"),
		}
		current := checked(values.Get("current"))
		if err := validation.ValidateStruct(&f,
			validation.Field(&f.Title, validation.Required),
			validation.Field(&f.Company, validation.Required),
			validation.Field(&f.From, validation.Required, validation.Date(DateLayout)),
			// A checked "current" box discards To entirely, so whatever stale
			// text the disabled input still holds must not block the submit.
			validation.Field(&f.To, validation.When(!current, validation.Date(DateLayout).Error("must be a valid date"))),
		); err != nil {
			return nil, err
		}
		data := map[string]any{
			"title":   f.Title,
			"company": f.Company,
			"from":    f.From,
			"current": current,
		}
		if current || f.To == "" {
			data["to"] = nil
		} else {
			data["to"] = f.To
		}
		if v := values.Get("location"); v != "" {
			data["location"] = v
		}
		if v := values.Get("description"); v != "" {
			data["description"] = v
		}
		if v := values.Get("order"); v != "" {
			data["order"] = intField(v)
		}
		return data, nil
	}
}
