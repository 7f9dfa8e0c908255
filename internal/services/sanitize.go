package services

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// textPolicy strips all markup from short user text (titles, messages).
	textPolicy = bluemonday.StrictPolicy()
	// richPolicy keeps safe formatting in long-form text (descriptions, comments).
	richPolicy = bluemonday.UGCPolicy()
)

// cleanText sanitizes s and trims surrounding space. Entities produced by the
// policy are unescaped so plain text round-trips unchanged.
func cleanText(s string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(s)))
}

func cleanRich(s string) string {
	return strings.TrimSpace(richPolicy.Sanitize(s))
}
