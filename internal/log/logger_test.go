package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestLoggerStampsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf, JSON: true, Component: ComponentRecords})

	logger.Info("record created", NewFields().WithRecord("u1", "expense", "r1", 1200).Args()...)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, ComponentRecords, entry[FieldComponent])
	assert.Equal(t, "u1", entry[FieldUserID])
	assert.Equal(t, "r1", entry[FieldRecordID])
	assert.EqualValues(t, 1200, entry[FieldAmountPaise])
}

func TestLogError(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf, JSON: true})

	LogError(context.Background(), logger, "store failed", errors.New("disk full"), ErrorTypeDatabase, OpCreate, nil)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "disk full", entry[FieldError])
	assert.Equal(t, ErrorTypeDatabase, entry[FieldErrorType])
	assert.Equal(t, OpCreate, entry[FieldOperation])
	assert.Equal(t, "ERROR", entry["level"])
}

func TestMiddlewareCarriesLogger(t *testing.T) {
	logger := Discard().WithComponent(ComponentHTTP)
	var got *Logger
	h := Middleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotNil(t, got)
	assert.Equal(t, ComponentHTTP, got.Component())
}

func TestFromContextFallback(t *testing.T) {
	assert.Equal(t, "unknown", FromContext(context.Background()).Component())
}
