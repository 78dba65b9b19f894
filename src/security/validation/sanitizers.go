// backend/src/security/validation/sanitizers.go
package validation

import (
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

var strictHTMLPolicy = bluemonday.StrictPolicy()

const maxSanitizePasses = 5

// SanitizeText removes all HTML tags and attributes from an input string
// before it is stored. Entities are decoded so names like "Smith & Sons"
// survive, and the decoded text is sanitised again until it stops changing.
func SanitizeText(s string) string {
	current := s
	for i := 0; i < maxSanitizePasses; i++ {
		next := html.UnescapeString(strictHTMLPolicy.Sanitize(current))
		if next == current {
			return next
		}
		current = next
	}
	// Still changing: keep the escaped form.
	return strictHTMLPolicy.Sanitize(current)
}

// StripUnprintable removes non-printable characters, allowing common whitespace
// like space, tab, newline, and carriage return.
func StripUnprintable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\t' || r == '\n' || r == '\r' {
			return r
		}
		return -1
	}, s)
}

// CleanField is the normalisation applied to every free-text field persisted.
func CleanField(s string) string {
	return strings.TrimSpace(StripUnprintable(SanitizeText(StripUnprintable(s))))
}
