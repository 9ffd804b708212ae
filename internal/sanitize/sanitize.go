// Package sanitize strips markup from user-supplied text before it is stored.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// StrictPolicy removes all HTML tags and attributes.
	StrictPolicy = bluemonday.StrictPolicy()

	// UGCPolicy keeps basic formatting and drops scripts, frames and handlers.
	UGCPolicy = bluemonday.UGCPolicy()
)

// Text strips all HTML and trims surrounding whitespace. Entities produced by
// the policy are decoded again since responses are JSON, not HTML.
// Use for names, locations, comments and chat content.
func Text(input string) string {
	return strings.TrimSpace(html.UnescapeString(StrictPolicy.Sanitize(input)))
}

// HTML keeps safe formatting tags. Use for event descriptions.
func HTML(input string) string {
	return strings.TrimSpace(UGCPolicy.Sanitize(input))
}

// TextPtr sanitizes an optional field, leaving nil untouched
func TextPtr(input *string) *string {
	if input == nil {
		return nil
	}
	out := Text(*input)
	return &out
}
