package common

import (
	"encoding/json"
	"errors"
	"net/http"
)

// ErrorBody represents a consistent error payload returned by the API.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// JSON writes the provided value to the response writer as JSON.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Data wraps v in the success envelope. A nil meta is omitted.
func Data(w http.ResponseWriter, status int, v any, meta map[string]any) {
	body := map[string]any{"data": v}
	if meta != nil {
		body["meta"] = meta
	}
	JSON(w, status, body)
}

// JSONError renders an error response using the canonical error shape.
func JSONError(w http.ResponseWriter, status int, code, message string, details any) {
	JSON(w, status, map[string]any{
		"error": ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// WriteError renders err. AppErrors keep their code and status, anything else is a 500.
func WriteError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
		return
	}
	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusBadRequest
	}
	code := appErr.Code
	if code == "" {
		code = "BAD_REQUEST"
	}
	details := appErr.Details
	var syntaxErr *json.SyntaxError
	if details == nil && errors.As(appErr.Err, &syntaxErr) {
		details = map[string]any{"offset": syntaxErr.Offset}
	}
	JSONError(w, status, code, appErr.Message, details)
}
