// Package forms decodes browser form submissions into the JSON payloads the
// upstream API expects. List-valued fields arrive as comma-separated text
// and are split here; the inverse join separator is ", ".
package forms

import "strings"

// SplitList splits a comma-separated field into a trimmed list. Empty input
// normalizes to an empty list, never a list holding one empty string.
// Interior empty items (from stray commas) are dropped for the same reason.
func SplitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		item := strings.TrimSpace(part)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

// JoinList is the inverse of SplitList, used when pre-populating an edit
// form from an existing entity.
func JoinList(items []string) string {
	return strings.Join(items, ", ")
}
