package model

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/models"
)

const clientColumns = `id, name, email, phone, status, tax_type, region, annual_income, notes, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(row rowScanner) (models.Client, error) {
	var c models.Client
	var taxType string
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Status, &taxType, &c.Region, &c.AnnualIncome, &c.Notes, &c.CreatedAt)
	c.TaxType = models.EntityType(taxType)
	return c, err
}

// ListClients returns every client ordered by ID, with document checklists loaded.
func ListClients(ctx context.Context, db *sql.DB) ([]models.Client, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+clientColumns+` FROM clients ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	clients := []models.Client{}
	ids := []int64{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
		ids = append(ids, c.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	docs, err := GetDocumentsByClientIDs(ctx, db, ids)
	if err != nil {
		return nil, err
	}
	for i := range clients {
		clients[i].Documents = docs[clients[i].ID]
		if clients[i].Documents == nil {
			clients[i].Documents = []models.Document{}
		}
	}
	return clients, nil
}

// GetClientByID returns sql.ErrNoRows when the client does not exist.
func GetClientByID(ctx context.Context, db *sql.DB, id int64) (*models.Client, error) {
	c, err := scanClient(db.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}
	docs, err := GetDocumentsByClientIDs(ctx, db, []int64{id})
	if err != nil {
		return nil, err
	}
	c.Documents = docs[id]
	if c.Documents == nil {
		c.Documents = []models.Document{}
	}
	return &c, nil
}

// InsertClient stores a new client and returns its ID.
func InsertClient(ctx context.Context, db *sql.DB, c *models.Client) (int64, error) {
	res, err := db.ExecContext(ctx, `
		INSERT INTO clients (name, email, phone, status, tax_type, region, annual_income, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Name, c.Email, c.Phone, c.Status, string(c.TaxType), c.Region, c.AnnualIncome, c.Notes, c.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// UpdateClientStatus sets the dashboard status of a client.
func UpdateClientStatus(ctx context.Context, db *sql.DB, id int64, status string) error {
	_, err := db.ExecContext(ctx, `UPDATE clients SET status = ? WHERE id = ?`, status, id)
	return err
}

// GetDocumentsByClientIDs loads checklists keyed by client ID, in insertion order.
func GetDocumentsByClientIDs(ctx context.Context, db *sql.DB, ids []int64) (map[int64][]models.Document, error) {
	docs := make(map[int64][]models.Document)
	if len(ids) == 0 {
		return docs, nil
	}
	query := `SELECT id, client_id, name, uploaded, uploaded_at, size_bytes, content_type
		FROM client_documents WHERE client_id IN (?` + strings.Repeat(",?", len(ids)-1) + `) ORDER BY id ASC`
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var d models.Document
		var clientID int64
		var uploadedAt sql.NullTime
		if err := rows.Scan(&d.ID, &clientID, &d.Name, &d.Uploaded, &uploadedAt, &d.SizeBytes, &d.ContentType); err != nil {
			return nil, err
		}
		if uploadedAt.Valid {
			t := uploadedAt.Time
			d.UploadedAt = &t
		}
		docs[clientID] = append(docs[clientID], d)
	}
	return docs, rows.Err()
}

// InsertPendingDocument adds a checklist item that has not been uploaded yet.
// Existing items with the same name are left untouched.
func InsertPendingDocument(ctx context.Context, db *sql.DB, clientID int64, name string) error {
	_, err := db.ExecContext(ctx, `INSERT OR IGNORE INTO client_documents (client_id, name) VALUES (?, ?)`, clientID, name)
	return err
}

// MarkDocumentUploaded creates the checklist item if needed and flags it as uploaded.
func MarkDocumentUploaded(ctx context.Context, db *sql.DB, clientID int64, name string, size int64, contentType string, at time.Time) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO client_documents (client_id, name, uploaded, uploaded_at, size_bytes, content_type)
		VALUES (?, ?, 1, ?, ?, ?)
		ON CONFLICT (client_id, name) DO UPDATE SET
			uploaded = 1,
			uploaded_at = excluded.uploaded_at,
			size_bytes = excluded.size_bytes,
			content_type = excluded.content_type`,
		clientID, name, at, size, contentType)
	return err
}
