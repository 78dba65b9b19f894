package models

import "time"

// AccountingSoftware is one entry of the integrations catalog.
type AccountingSoftware struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
	IsAvailable bool   `json:"isAvailable"`
}

// IntegrationConnection records a completed OAuth handshake. Tokens are not stored.
type IntegrationConnection struct {
	ID          int64      `json:"id"`
	SoftwareID  string     `json:"software_id"`
	ClientID    int64      `json:"client_id"`
	ConnectedAt time.Time  `json:"connected_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}
