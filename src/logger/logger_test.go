package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in     string
		want   slog.Level
		wantOK bool
	}{
		{"debug", slog.LevelDebug, true},
		{" WARN ", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"verbose", slog.LevelInfo, false},
	}
	for _, tt := range tests {
		got, ok := ParseLevel(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.wantOK, ok, tt.in)
	}
}

func TestInitLoggerWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	InitLoggerWithWriter("info", &buf)
	defer InitLoggerWithWriter("error", &bytes.Buffer{})

	L.Debug("hidden")
	L.Info("visible", "clientID", 7)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "visible", entry["msg"])
	assert.Equal(t, float64(7), entry["clientID"])
	assert.NotContains(t, buf.String(), "hidden")
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	scoped := slog.New(slog.NewJSONHandler(&buf, nil)).With("requestID", "abc")

	ctx := ToContext(context.Background(), scoped)
	FromContext(ctx).Info("hello")
	assert.Contains(t, buf.String(), `"requestID":"abc"`)

	assert.Equal(t, L, FromContext(context.Background()))
}
