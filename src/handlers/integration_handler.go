// backend/src/handlers/integration_handler.go
package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/security/validation"
	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/services"
	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/utils"
)

type IntegrationHandler struct {
	integrationService services.IntegrationService
	clientService      services.ClientService
}

func NewIntegrationHandler(integrationService services.IntegrationService, clientService services.ClientService) *IntegrationHandler {
	return &IntegrationHandler{integrationService: integrationService, clientService: clientService}
}

func (h *IntegrationHandler) HandleCatalog(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, h.integrationService.Catalog())
}

// HandleConnect returns the provider consent URL for ?client_id=.
func (h *IntegrationHandler) HandleConnect(w http.ResponseWriter, r *http.Request) {
	softwareID := chi.URLParam(r, "id")
	raw := r.URL.Query().Get("client_id")
	clientID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || clientID <= 0 {
		sendServiceError(w, r, fmt.Errorf("%w: invalid client_id %q", validation.ErrValidationFailed, raw), "connect integration")
		return
	}
	if _, err := h.clientService.Get(r.Context(), clientID); err != nil {
		sendServiceError(w, r, err, "connect integration")
		return
	}
	authURL, err := h.integrationService.AuthURL(softwareID, clientID)
	if err != nil {
		sendServiceError(w, r, err, "connect integration")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"auth_url": authURL})
}

func (h *IntegrationHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	softwareID := chi.URLParam(r, "id")
	q := r.URL.Query()
	if providerErr := q.Get("error"); providerErr != "" {
		utils.SendJSONError(w, fmt.Sprintf("Authorization was not granted: %s", providerErr), http.StatusBadRequest)
		return
	}
	code := q.Get("code")
	if code == "" {
		utils.SendJSONError(w, "Authorization code is required", http.StatusBadRequest)
		return
	}
	conn, err := h.integrationService.Complete(r.Context(), softwareID, code, q.Get("state"))
	if err != nil {
		sendServiceError(w, r, err, "complete integration")
		return
	}
	utils.WriteJSON(w, http.StatusOK, conn)
}
