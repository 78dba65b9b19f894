package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/logger"
	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/regions"
)

func init() {
	logger.InitLogger("error")
}

func TestPrintRegions(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printRegions(&out, regions.Default))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, 9)
	assert.Contains(t, out.String(), "Singapore")
	assert.Contains(t, out.String(), "en-SG")
	assert.Contains(t, out.String(), "37.0%")
}

func TestPrintEstimate(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printEstimate(&out, regions.Default, "US - California", "100,000"))
	assert.Contains(t, out.String(), "Estimated rate:      22.0%")
	assert.Contains(t, out.String(), "Estimated liability: $22,000")

	out.Reset()
	require.NoError(t, printEstimate(&out, regions.Default, "Atlantis", "1000"))
	assert.Contains(t, out.String(), "not in the table")
	assert.Contains(t, out.String(), "20.0%")

	assert.Error(t, printEstimate(&out, regions.Default, "Singapore", "lots"))
}

func TestCORSMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := corsMiddleware([]string{"http://localhost:5173"})(next)

	req := httptest.NewRequest(http.MethodGet, "/api/regions", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	req = httptest.NewRequest(http.MethodOptions, "/api/regions", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.StatusOK, rec.Code)
}
