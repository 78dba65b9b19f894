// backend/src/services/interfaces.go
package services

import (
	"context"
	"errors"
	"io"

	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/models"
)

// Define common service errors
var (
	ErrClientNotFound          = errors.New("client not found")
	ErrAdvisoryNotFound        = errors.New("no advisory generated for client")
	ErrCompletionNotConfigured = errors.New("completion service API key not configured")
	ErrNoCompletion            = errors.New("completion service returned no choices")
	ErrIntegrationNotFound     = errors.New("accounting software not found")
	ErrIntegrationUnavailable  = errors.New("accounting software integration not available")
)

// CompletionRequest is the text-in side of the external completion contract.
type CompletionRequest struct {
	SystemInstruction string
	Prompt            string
	MaxTokens         int
	Temperature       float64
}

// CompletionClient sends one prompt to a text-generation service and returns
// the text of the first completion.
type CompletionClient interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// AdvisoryService composes tax suggestions. Generate never fails: service
// outages are replaced by FallbackSuggestion.
type AdvisoryService interface {
	Generate(ctx context.Context, profile models.ClientTaxProfile) models.TaxAdvisoryResult
}

// ClientService manages the firm's client roster.
type ClientService interface {
	List(ctx context.Context, search string) ([]models.Client, error)
	Get(ctx context.Context, id int64) (*models.Client, error)
	Create(ctx context.Context, req models.NewClientRequest) (*models.Client, error)
	RequestDocument(ctx context.Context, id int64, name string) (*models.Client, error)
	MarkDocumentUploaded(ctx context.Context, id int64, upload DocumentUpload) (*models.Client, error)
	GenerateAdvisory(ctx context.Context, id int64) (*models.TaxAdvisoryResult, error)
	LatestAdvisory(ctx context.Context, id int64) (*models.TaxAdvisoryResult, error)
}

// DocumentUpload describes a received file. The content is inspected for type
// only, never parsed.
type DocumentUpload struct {
	Name        string
	Filename    string
	SizeBytes   int64
	ContentType string
	Content     io.ReadSeeker
}

// IntegrationService exposes the accounting-software catalog and OAuth handshake.
type IntegrationService interface {
	Catalog() []models.AccountingSoftware
	AuthURL(softwareID string, clientID int64) (string, error)
	Complete(ctx context.Context, softwareID, code, state string) (*models.IntegrationConnection, error)
	Connections(ctx context.Context, clientID int64) ([]models.IntegrationConnection, error)
}
