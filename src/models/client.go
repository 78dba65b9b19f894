package models

import "time"

// Client statuses shown on the firm dashboard.
const (
	StatusNewClient        = "New Client"
	StatusDocumentsPending = "Documents Pending"
	StatusReadyForReview   = "Ready for Review"
	StatusDraftGenerated   = "Draft Generated"
	StatusCompleted        = "Completed"
)

// Client is a firm's client record with its document checklist.
type Client struct {
	ID             int64              `json:"id"`
	Name           string             `json:"name"`
	Email          string             `json:"email"`
	Phone          string             `json:"phone"`
	Status         string             `json:"status"`
	TaxType        EntityType         `json:"tax_type"`
	Region         string             `json:"region"`
	AnnualIncome   string             `json:"annual_income,omitempty"`
	Notes          string             `json:"notes"`
	Documents      []Document         `json:"documents"`
	LatestAdvisory *TaxAdvisoryResult `json:"latest_advisory,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
}

// Document is one item of a client's document checklist.
type Document struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Uploaded    bool       `json:"uploaded"`
	UploadedAt  *time.Time `json:"uploaded_at,omitempty"`
	SizeBytes   int64      `json:"size_bytes,omitempty"`
	ContentType string     `json:"content_type,omitempty"`
}

// UploadedDocumentNames returns the names of the uploaded checklist items in order.
func (c *Client) UploadedDocumentNames() []string {
	names := []string{}
	for _, d := range c.Documents {
		if d.Uploaded {
			names = append(names, d.Name)
		}
	}
	return names
}

// NewClientRequest is the payload for adding a client to the roster.
type NewClientRequest struct {
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone"`
	TaxType      EntityType `json:"tax_type"`
	Region       string     `json:"region"`
	AnnualIncome string     `json:"annual_income"`
	Notes        string     `json:"notes"`
}

// IndividualFilingRequest is the individual filer wizard form.
type IndividualFilingRequest struct {
	FullName     string   `json:"full_name"`
	Email        string   `json:"email"`
	Phone        string   `json:"phone"`
	Region       string   `json:"region"`
	IncomeType   string   `json:"income_type"`
	AnnualIncome string   `json:"annual_income"`
	Documents    []string `json:"documents"`
}
