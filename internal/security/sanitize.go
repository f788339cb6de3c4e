package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// PlainText strips all markup from free-text form input and trims it. The
// result is plain text, so entities are decoded again for html/template to
// escape once on output.
func PlainText(s string) string {
	text := html.UnescapeString(strictPolicy.Sanitize(s))
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.TrimSpace(text)
}
