package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/database"
	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/logger"
)

func init() {
	logger.InitLogger("error")
}

// setupTestDB opens a migrated database seeded with the sample roster.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })
	return db
}

// stubCompletion is a CompletionClient returning canned output.
type stubCompletion struct {
	mu       sync.Mutex
	text     string
	err      error
	requests []CompletionRequest
}

func (s *stubCompletion) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if s.err != nil {
		return "", s.err
	}
	return s.text, nil
}

func (s *stubCompletion) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}
