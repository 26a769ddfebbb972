// Package security provides input sanitisation for user-supplied text.
//
// Event titles, descriptions and locations arrive through the admin API
// and are often pasted from rich-text editors. They are rendered into
// iCalendar properties and JSON responses as plain text, so any markup
// must be stripped before storage.
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer strips markup from a string, returning plain text.
type TextSanitizer interface {
	// Sanitize removes every HTML tag and resolves entities. Empty input
	// returns empty output, and the function is idempotent.
	Sanitize(raw string) string
}

type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer creates a sanitizer with a strict policy: no tags or
// attributes survive.
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{policy: bluemonday.StrictPolicy()}
}

// Sanitize strips all markup and unescapes entities so the result is
// safe to embed in iCalendar text properties.
func (s *textSanitizer) Sanitize(raw string) string {
	stripped := s.policy.Sanitize(raw)
	return strings.TrimSpace(html.UnescapeString(stripped))
}
