// backend/src/security/validation/content_scanner.go
package validation

import (
	"fmt"
	"html"
	"regexp"

	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/logger"
)

// Common XSS vectors. Contextual output encoding is the primary defense.
var xssPatternsRegex = regexp.MustCompile(
	`(?i)<script|onerror=|onmouseover=|onfocus=|onload=|javascript:|vbscript:|<iframe|<object|<embed|<applet|<style|<link|<img\s+src\s*=\s*['"]?\s*(javascript|data):`,
)

func truncateForLog(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}

// CheckXSSPatterns detects basic XSS patterns, including entity-encoded ones.
func CheckXSSPatterns(s, fieldName, contextID string) error {
	if xssPatternsRegex.MatchString(s) || xssPatternsRegex.MatchString(html.UnescapeString(s)) {
		errMsg := fmt.Sprintf("potential XSS pattern detected in field '%s'", fieldName)
		logger.L.Warn(errMsg, "contextID", contextID, "contentPreview", truncateForLog(s, 50))
		return fmt.Errorf("%w: %s", ErrValidationFailed, errMsg)
	}
	return nil
}
