package model

import (
	"context"
	"database/sql"

	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/models"
)

// InsertIntegrationConnection records a completed OAuth handshake.
func InsertIntegrationConnection(ctx context.Context, db *sql.DB, conn *models.IntegrationConnection) (int64, error) {
	var expires sql.NullTime
	if conn.ExpiresAt != nil {
		expires = sql.NullTime{Time: *conn.ExpiresAt, Valid: true}
	}
	res, err := db.ExecContext(ctx, `
		INSERT INTO integration_connections (software_id, client_id, connected_at, expires_at)
		VALUES (?, ?, ?, ?)`,
		conn.SoftwareID, conn.ClientID, conn.ConnectedAt, expires)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListIntegrationConnections returns a client's connections, newest first.
func ListIntegrationConnections(ctx context.Context, db *sql.DB, clientID int64) ([]models.IntegrationConnection, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, software_id, client_id, connected_at, expires_at
		FROM integration_connections WHERE client_id = ? ORDER BY connected_at DESC, id DESC`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	conns := []models.IntegrationConnection{}
	for rows.Next() {
		var c models.IntegrationConnection
		var expires sql.NullTime
		if err := rows.Scan(&c.ID, &c.SoftwareID, &c.ClientID, &c.ConnectedAt, &expires); err != nil {
			return nil, err
		}
		if expires.Valid {
			t := expires.Time
			c.ExpiresAt = &t
		}
		conns = append(conns, c)
	}
	return conns, rows.Err()
}
