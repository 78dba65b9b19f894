package model

import (
	"context"
	"database/sql"

	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/models"
)

// InsertAdvisory attaches an advisory result to a client.
func InsertAdvisory(ctx context.Context, db *sql.DB, clientID int64, r models.TaxAdvisoryResult) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO tax_advisories
			(id, client_id, estimated_rate, estimated_liability, prompt_text, full_response_text, summary_text, fallback, generated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, clientID, r.EstimatedRate, r.EstimatedLiabilityFormatted, r.PromptText, r.FullResponseText, r.SummaryText, r.Fallback, r.GeneratedAt)
	return err
}

// GetLatestAdvisory returns the most recent advisory of a client, or sql.ErrNoRows.
func GetLatestAdvisory(ctx context.Context, db *sql.DB, clientID int64) (*models.TaxAdvisoryResult, error) {
	var r models.TaxAdvisoryResult
	err := db.QueryRowContext(ctx, `
		SELECT id, estimated_rate, estimated_liability, prompt_text, full_response_text, summary_text, fallback, generated_at
		FROM tax_advisories WHERE client_id = ?
		ORDER BY generated_at DESC, rowid DESC LIMIT 1`, clientID).
		Scan(&r.ID, &r.EstimatedRate, &r.EstimatedLiabilityFormatted, &r.PromptText, &r.FullResponseText, &r.SummaryText, &r.Fallback, &r.GeneratedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
