package api

import (
	"encoding/json"

	"github.com/hversson/atrium/internal/forms"
	"github.com/hversson/atrium/internal/upstream"
)

// ResourceSpec wires one portfolio collection into the generic handler set:
// the upstream descriptor, the route segment, the form decoder, and which
// entity fields make a human-readable label for the delete confirmation.
type ResourceSpec struct {
	upstream.Resource
	Slug        string
	Decoder     forms.Decoder
	LabelFields []string
	Mutable     bool // contact messages are read-only + deletable
}

// Specs returns every managed resource. This is the single place a new
// resource type gets registered.
func Specs(cleaner forms.ContentCleaner) []ResourceSpec {
	return []ResourceSpec{
		{
			Resource:    upstream.Blog,
			Slug:        "blog",
			Decoder:     forms.Blog(cleaner),
			LabelFields: []string{"title"},
			Mutable:     true,
		},
		{
			Resource:    upstream.Project,
			Slug:        "project",
			Decoder:     forms.Project(),
			LabelFields: []string{"title"},
			Mutable:     true,
		},
		{
			Resource:    upstream.Skill,
			Slug:        "skill",
			Decoder:     forms.Skill(),
			LabelFields: []string{"name"},
			Mutable:     true,
		},
		{
			Resource:    upstream.Experience,
			Slug:        "experience",
			Decoder:     forms.Experience(),
			LabelFields: []string{"title", "company"},
			Mutable:     true,
		},
		{
			Resource:    upstream.Contact,
			Slug:        "contact",
			Decoder:     nil,
			LabelFields: []string{"subject", "name"},
			Mutable:     false,
		},
	}
}

// entityLabel pulls the first non-empty label field out of a raw entity.
func entityLabel(data json.RawMessage, fields []string) string {
	var entity map[string]any
	if err := json.Unmarshal(data, &entity); err != nil {
		return ""
	}
	for _, f := range fields {
		if v, ok := entity[f].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// entityID pulls the backend-assigned identifier out of a raw entity.
func entityID(data json.RawMessage) string {
	var entity struct {
		ID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &entity); err != nil {
		return ""
	}
	return entity.ID
}
