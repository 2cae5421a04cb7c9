package obs_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/calculadora/internal/obs"
)

func TestRequestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	logger := obs.NewLoggerTo(&buf, "json", "info")

	r := chi.NewRouter()
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Post("/api/v1/calculator/items", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/calculator/items", nil)
	req.Header.Set("Idempotency-Key", "abc")
	r.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "http_request", entry["message"])
	require.Equal(t, "error", entry["level"])
	require.Equal(t, "/api/v1/calculator/items", entry["route"])
	require.Equal(t, float64(500), entry["status"])
	require.Equal(t, float64(4), entry["bytes"])
	require.Equal(t, "abc", entry["idempotency_key"])
}

func TestNewLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := obs.NewLoggerTo(&buf, "json", "warn")
	logger.Info().Msg("hidden")
	require.Zero(t, buf.Len())
	logger.Warn().Msg("shown")
	require.Contains(t, buf.String(), "shown")

	buf.Reset()
	fallback := obs.NewLoggerTo(&buf, "console", "nonsense")
	fallback.Debug().Msg("hidden")
	fallback.Info().Msg("visible")
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "visible")
}
