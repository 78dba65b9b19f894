// backend/src/handlers/client_handler.go
package handlers

import (
	"fmt"
	"net/http"

	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/logger"
	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/models"
	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/services"
	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/utils"
)

// multipartOverhead is allowed on top of the file limit for form fields and boundaries.
const multipartOverhead = 64 << 10

type ClientHandler struct {
	clientService      services.ClientService
	integrationService services.IntegrationService
	maxUploadBytes     int64
}

func NewClientHandler(clientService services.ClientService, integrationService services.IntegrationService, maxUploadBytes int64) *ClientHandler {
	return &ClientHandler{
		clientService:      clientService,
		integrationService: integrationService,
		maxUploadBytes:     maxUploadBytes,
	}
}

func (h *ClientHandler) HandleListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.clientService.List(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		sendServiceError(w, r, err, "list clients")
		return
	}
	utils.WriteJSON(w, http.StatusOK, clients)
}

func (h *ClientHandler) HandleCreateClient(w http.ResponseWriter, r *http.Request) {
	var req models.NewClientRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		sendServiceError(w, r, err, "create client")
		return
	}
	client, err := h.clientService.Create(r.Context(), req)
	if err != nil {
		sendServiceError(w, r, err, "create client")
		return
	}
	utils.WriteJSON(w, http.StatusCreated, client)
}

func (h *ClientHandler) HandleGetClient(w http.ResponseWriter, r *http.Request) {
	id, err := clientIDParam(r)
	if err != nil {
		sendServiceError(w, r, err, "get client")
		return
	}
	client, err := h.clientService.Get(r.Context(), id)
	if err != nil {
		sendServiceError(w, r, err, "get client")
		return
	}
	utils.WriteJSON(w, http.StatusOK, client)
}

type documentRequest struct {
	Name string `json:"name"`
}

func (h *ClientHandler) HandleRequestDocument(w http.ResponseWriter, r *http.Request) {
	id, err := clientIDParam(r)
	if err != nil {
		sendServiceError(w, r, err, "request document")
		return
	}
	var req documentRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		sendServiceError(w, r, err, "request document")
		return
	}
	client, err := h.clientService.RequestDocument(r.Context(), id, req.Name)
	if err != nil {
		sendServiceError(w, r, err, "request document")
		return
	}
	utils.WriteJSON(w, http.StatusOK, client)
}

// HandleUploadDocument accepts a multipart form with a "file" part and an
// optional "name" naming the checklist item it satisfies.
func (h *ClientHandler) HandleUploadDocument(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())
	id, err := clientIDParam(r)
	if err != nil {
		sendServiceError(w, r, err, "upload document")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		ctxLogger.Warn("Failed to parse multipart form or request too large", "clientID", id, "error", err, "limit", h.maxUploadBytes)
		utils.SendJSONError(w, fmt.Sprintf("Failed to process upload or file too large (max %d MB)", h.maxUploadBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		ctxLogger.Warn("Failed to retrieve file from request", "clientID", id, "error", err)
		utils.SendJSONError(w, "Failed to retrieve file from request. Ensure 'file' field is used.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	client, err := h.clientService.MarkDocumentUploaded(r.Context(), id, services.DocumentUpload{
		Name:        r.FormValue("name"),
		Filename:    fileHeader.Filename,
		SizeBytes:   fileHeader.Size,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Content:     file,
	})
	if err != nil {
		sendServiceError(w, r, err, "upload document")
		return
	}
	utils.WriteJSON(w, http.StatusOK, client)
}

func (h *ClientHandler) HandleGenerateAdvisory(w http.ResponseWriter, r *http.Request) {
	id, err := clientIDParam(r)
	if err != nil {
		sendServiceError(w, r, err, "generate advisory")
		return
	}
	result, err := h.clientService.GenerateAdvisory(r.Context(), id)
	if err != nil {
		sendServiceError(w, r, err, "generate advisory")
		return
	}
	utils.WriteJSON(w, http.StatusOK, result)
}

func (h *ClientHandler) HandleGetAdvisory(w http.ResponseWriter, r *http.Request) {
	id, err := clientIDParam(r)
	if err != nil {
		sendServiceError(w, r, err, "get advisory")
		return
	}
	if _, err := h.clientService.Get(r.Context(), id); err != nil {
		sendServiceError(w, r, err, "get advisory")
		return
	}
	result, err := h.clientService.LatestAdvisory(r.Context(), id)
	if err != nil {
		sendServiceError(w, r, err, "get advisory")
		return
	}
	utils.WriteJSON(w, http.StatusOK, result)
}

func (h *ClientHandler) HandleListConnections(w http.ResponseWriter, r *http.Request) {
	id, err := clientIDParam(r)
	if err != nil {
		sendServiceError(w, r, err, "list integrations")
		return
	}
	conns, err := h.integrationService.Connections(r.Context(), id)
	if err != nil {
		sendServiceError(w, r, err, "list integrations")
		return
	}
	utils.WriteJSON(w, http.StatusOK, conns)
}
