// backend/src/models/advisory.go
package models

import "time"

// EntityType is the tax-filing entity of a client. Values other than the two
// constants are accepted on the wire and treated as Business when rendering.
type EntityType string

const (
	EntityIndividual EntityType = "Individual"
	EntityBusiness   EntityType = "Business"
)

// ClientTaxProfile is the input of one advisory request.
type ClientTaxProfile struct {
	ClientName         string     `json:"client_name"`
	TaxEntityType      EntityType `json:"tax_entity_type"`
	Region             string     `json:"region"`
	AnnualIncome       string     `json:"annual_income,omitempty"` // optional decimal string
	AvailableDocuments []string   `json:"available_documents"`
}

// TaxAdvisoryResult is created fresh for every advisory request and handed to the caller.
type TaxAdvisoryResult struct {
	ID                          string    `json:"id"`
	EstimatedRate               float64   `json:"estimated_rate"`
	EstimatedLiabilityFormatted string    `json:"estimated_liability_formatted"`
	PromptText                  string    `json:"prompt_text"`
	FullResponseText            string    `json:"full_response_text"`
	SummaryText                 string    `json:"summary_text"`
	Fallback                    bool      `json:"fallback"`
	GeneratedAt                 time.Time `json:"generated_at"`
}
