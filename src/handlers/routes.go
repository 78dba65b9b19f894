// backend/src/handlers/routes.go
package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/logger"
	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/utils"
)

// Handlers groups everything mounted under /api.
type Handlers struct {
	DB          *sql.DB
	Regions     *RegionHandler
	Advisory    *AdvisoryHandler
	Clients     *ClientHandler
	Integration *IntegrationHandler
}

func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.DB.PingContext(ctx); err != nil {
			logger.FromContext(r.Context()).Error("Health check database ping failed", "error", err)
			utils.SendJSONError(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// NewRouter mounts the API routes. Extra middleware runs after the recoverer
// and the contextual logger.
func NewRouter(h *Handlers, extra ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(ContextualLoggerMiddleware)
	for _, mw := range extra {
		r.Use(mw)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.handleHealth)

		r.Route("/regions", func(r chi.Router) {
			r.Get("/", h.Regions.HandleListRegions)
			r.Get("/estimate", h.Regions.HandleEstimate)
			r.Get("/deductions", h.Regions.HandleDeductions)
		})

		r.Post("/advisory", h.Advisory.HandleGenerate)
		r.Post("/individual/advisory", h.Advisory.HandleIndividualFiling)

		r.Route("/clients", func(r chi.Router) {
			r.Get("/", h.Clients.HandleListClients)
			r.Post("/", h.Clients.HandleCreateClient)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.Clients.HandleGetClient)
				r.Post("/documents", h.Clients.HandleUploadDocument)
				r.Post("/document-requests", h.Clients.HandleRequestDocument)
				r.Post("/advisory", h.Clients.HandleGenerateAdvisory)
				r.Get("/advisory", h.Clients.HandleGetAdvisory)
				r.Get("/integrations", h.Clients.HandleListConnections)
			})
		})

		r.Route("/integrations", func(r chi.Router) {
			r.Get("/", h.Integration.HandleCatalog)
			r.Get("/{id}/connect", h.Integration.HandleConnect)
			r.Get("/{id}/callback", h.Integration.HandleCallback)
		})
	})
	return r
}
