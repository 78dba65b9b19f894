// backend/src/security/validation/file_validation.go
package validation

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/logger"
)

// AllowedClientContentTypes is a map for quick lookup of allowed client-declared MIME types.
var AllowedClientContentTypes = map[string]bool{
	"application/pdf":          true,
	"image/png":                true,
	"image/jpeg":               true,
	"text/csv":                 true,
	"application/csv":          true,
	"text/plain":               true,
	"application/vnd.ms-excel": true,
	"application/octet-stream": false,
}

// allowedDetectedTypes are the sniffed types accepted for tax documents.
var allowedDetectedTypes = map[string]bool{
	"application/pdf": true,
	"image/png":       true,
	"image/jpeg":      true,
	"text/plain":      true,
	"text/csv":        true,
}

// ValidateClientContentType checks the Content-Type header provided by the client.
func ValidateClientContentType(contentType string) error {
	normalized := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if allowed, exists := AllowedClientContentTypes[normalized]; !exists || !allowed {
		logger.L.Warn("Disallowed client-declared Content-Type", "contentType", contentType)
		return fmt.Errorf("%w: client-declared file type '%s' is not allowed", ErrValidationFailed, contentType)
	}
	return nil
}

// ValidateFileSize rejects empty files and files above maxBytes.
func ValidateFileSize(size, maxBytes int64) error {
	if size <= 0 {
		return fmt.Errorf("%w: file is empty", ErrValidationFailed)
	}
	if maxBytes > 0 && size > maxBytes {
		return fmt.Errorf("%w: file size %d exceeds limit of %d bytes", ErrValidationFailed, size, maxBytes)
	}
	return nil
}

// ValidateDocumentContent sniffs the first KB of an uploaded document and
// returns the detected MIME type. The reader is rewound afterwards.
func ValidateDocumentContent(file io.ReadSeeker) (string, error) {
	if file == nil {
		return "", fmt.Errorf("%w: file is nil", ErrValidationFailed)
	}

	buffer := make([]byte, 1024)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read file for content type checking: %w", err)
	}
	if _, seekErr := file.Seek(0, io.SeekStart); seekErr != nil {
		return "", fmt.Errorf("failed to reset file read pointer: %w", seekErr)
	}
	if n == 0 {
		return "", fmt.Errorf("%w: file is empty", ErrValidationFailed)
	}

	detected := strings.ToLower(strings.Split(http.DetectContentType(buffer[:n]), ";")[0])

	// Text types must really be text.
	if strings.HasPrefix(detected, "text/") && bytes.IndexByte(buffer[:n], 0) != -1 {
		logger.L.Warn("File rejected: binary content in text upload")
		return "application/octet-stream", fmt.Errorf("%w: file appears to be binary, not text", ErrValidationFailed)
	}

	if !allowedDetectedTypes[detected] {
		logger.L.Warn("Disallowed detected file content type", "detectedContentType", detected)
		return detected, fmt.Errorf("%w: detected file content type '%s' is not allowed", ErrValidationFailed, detected)
	}

	logger.L.Debug("File content type validated", "detectedContentType", detected)
	return detected, nil
}
