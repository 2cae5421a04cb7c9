package security

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func echoBody(t *testing.T, captured *string) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		*captured = string(data)
		w.WriteHeader(http.StatusOK)
	})
}

func TestBodyLimitPassesCalculatorPayload(t *testing.T) {
	payload := `{"productId":"ps5","quantity":"2","discount":"15"}`
	var captured string
	handler := BodyLimit{Max: int64(len(payload))}.Middleware(echoBody(t, &captured))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/calculator/items", strings.NewReader(payload)))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, payload, captured)
}

func TestBodyLimitRejectsOversizedStream(t *testing.T) {
	called := false
	handler := BodyLimit{Max: 16}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/calculator/form", strings.NewReader(`{"quantity":"99999999999999999999"}`))
	req.ContentLength = -1
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	require.False(t, called)
}

func TestBodyLimitRejectsDeclaredLength(t *testing.T) {
	handler := BodyLimit{Max: 5}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/calculator/select", strings.NewReader("{}"))
	req.ContentLength = 100
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestBodyLimitSkipsBodylessRequests(t *testing.T) {
	var captured string
	handler := BodyLimit{Max: 1}.Middleware(echoBody(t, &captured))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/api/v1/calculator/items", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Empty(t, captured)
}

func TestBodyLimitErrorEnvelope(t *testing.T) {
	handler := BodyLimit{Max: 2}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/calculator/select", strings.NewReader(`{"productId":"ps5"}`)))
	require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)

	var body struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "PAYLOAD_TOO_LARGE", body.Error.Code)
	require.EqualValues(t, 2, body.Error.Details["maxBytes"])
}
