// Package sanitize strips markup from free text typed by staff.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var policy = bluemonday.StrictPolicy()

// Text removes every HTML element and trims surrounding space. The result is
// plain text: entities the policy escapes are decoded again.
func Text(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(policy.Sanitize(s)))
}

// JoinNotes sanitises each note, drops empty ones and joins them with ", "
func JoinNotes(notes []string) string {
	out := make([]string, 0, len(notes))
	for _, n := range notes {
		if clean := Text(n); clean != "" {
			out = append(out, clean)
		}
	}
	return strings.Join(out, ", ")
}
