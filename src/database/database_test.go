package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/logger"
)

func init() {
	logger.InitLogger("error")
}

func TestMigrateSeedsSampleRoster(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "migrate.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db), "re-running is a no-op")

	var clients, documents, uploaded int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM clients`).Scan(&clients))
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM client_documents`).Scan(&documents))
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM client_documents WHERE uploaded = 1`).Scan(&uploaded))
	assert.Equal(t, 5, clients)
	assert.Equal(t, 18, documents)
	assert.Equal(t, 13, uploaded)

	var fk int
	require.NoError(t, db.QueryRow(`PRAGMA foreign_keys`).Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestMigrateNilDB(t *testing.T) {
	assert.Error(t, Migrate(nil))
}
