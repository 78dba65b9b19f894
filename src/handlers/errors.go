// backend/src/handlers/errors.go
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/logger"
	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/security"
	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/security/validation"
	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/services"
	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/utils"
)

func statusForError(err error) int {
	switch {
	case errors.Is(err, validation.ErrValidationFailed),
		errors.Is(err, security.ErrInvalidState):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrClientNotFound),
		errors.Is(err, services.ErrAdvisoryNotFound),
		errors.Is(err, services.ErrIntegrationNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrIntegrationUnavailable):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// sendServiceError maps a service error to a status. Internal errors are
// logged and hidden from the caller.
func sendServiceError(w http.ResponseWriter, r *http.Request, err error, action string) {
	status := statusForError(err)
	ctxLogger := logger.FromContext(r.Context())
	if status == http.StatusInternalServerError {
		ctxLogger.Error("Request failed", "action", action, "error", err)
		utils.SendJSONError(w, fmt.Sprintf("Failed to %s", action), status)
		return
	}
	ctxLogger.Warn("Request rejected", "action", action, "status", status, "error", err)
	utils.SendJSONError(w, err.Error(), status)
}

func clientIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid client id %q", validation.ErrValidationFailed, raw)
	}
	return id, nil
}
