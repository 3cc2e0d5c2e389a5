// Package richtext normalizes the opaque markup produced by the blog
// content editor. The editor itself lives in the browser; the service only
// sees its serialized output and enforces which marks, blocks, and image
// attributes are allowed to reach the upstream API.
package richtext

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer cleans editor markup. It is the only surface the rest of the
// application sees of the editor integration.
type Sanitizer interface {
	Clean(markup string) string
}

// Policy is the bluemonday-backed Sanitizer matching the editor toolbar:
// heading levels, inline marks, lists, blockquote, code block, text
// alignment, highlight color, font size, links, and images with alignment
// and size attributes.
type Policy struct {
	p *bluemonday.Policy
}

var (
	alignValues = regexp.MustCompile(`^(left|center|right)$`)
	sizeValues  = regexp.MustCompile(`^(small|medium|large|custom)$`)
	pixelValue  = regexp.MustCompile(`^\d{1,4}$`)
)

// NewPolicy builds the editor sanitization policy.
func NewPolicy() *Policy {
	p := bluemonday.NewPolicy()

	p.AllowElements("p", "br", "h1", "h2", "h3", "h4", "h5", "h6")
	p.AllowElements("strong", "b", "em", "i", "s", "del", "code", "pre")
	p.AllowElements("ul", "ol", "li", "blockquote")

	// Highlight mark with an optional color.
	p.AllowAttrs("data-color").OnElements("mark")
	p.AllowElements("mark")

	// Font size and text alignment are persisted as inline styles.
	p.AllowAttrs("style").OnElements("p", "h1", "h2", "h3", "h4", "h5", "h6", "span", "mark")
	p.AllowStyles("font-size", "text-align", "background-color", "color").Globally()

	// Links.
	p.AllowAttrs("href", "title").OnElements("a")
	p.AllowStandardURLs()
	p.RequireNoFollowOnLinks(false)

	// Images carry alignment and size presets as data attributes.
	p.AllowAttrs("src", "alt").OnElements("img")
	p.AllowAttrs("width", "height").Matching(pixelValue).OnElements("img")
	p.AllowAttrs("data-align").Matching(alignValues).OnElements("img")
	p.AllowAttrs("data-size").Matching(sizeValues).OnElements("img")

	return &Policy{p: p}
}

// Clean returns the markup with everything outside the editor's capability
// set stripped.
func (s *Policy) Clean(markup string) string {
	return s.p.Sanitize(markup)
}
