// backend/src/utils/http.go
package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/logger"
)

// SendJSONError writes {"error": message} with the given status.
func SendJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		logger.L.Error("Failed to encode JSON error response", "error", err)
	}
}

// WriteJSON encodes payload as the response body.
func WriteJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.L.Error("Failed to encode JSON response", "error", err)
	}
}

// GenerateETag hashes the JSON encoding of data.
func GenerateETag(data interface{}) (string, error) {
	encoded, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to marshal data for ETag: %w", err)
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:]), nil
}

// WriteJSONWithETag serves payload with an ETag, answering 304 when the
// client already holds the current representation.
func WriteJSONWithETag(w http.ResponseWriter, r *http.Request, payload interface{}) {
	etag, err := GenerateETag(payload)
	if err != nil {
		logger.FromContext(r.Context()).Warn("Proceeding without ETag", "error", err)
		WriteJSON(w, http.StatusOK, payload)
		return
	}
	quoted := fmt.Sprintf("\"%s\"", etag)
	w.Header().Set("ETag", quoted)
	w.Header().Set("Cache-Control", "no-cache")
	for _, candidate := range strings.Split(r.Header.Get("If-None-Match"), ",") {
		if strings.TrimSpace(candidate) == quoted {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}
	WriteJSON(w, http.StatusOK, payload)
}
