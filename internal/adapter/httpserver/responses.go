package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/fairyhunter13/techtrends/internal/domain"
)

type errorEnvelope struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorStatus maps the error taxonomy onto an HTTP status and a stable code.
// Store failures surface as plain 500s.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "VALIDATION_FAILED"
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest, "INVALID_ARGUMENT"
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusInternalServerError, "STORE_UNAVAILABLE"
	case errors.Is(err, domain.ErrSchemaMissing):
		return http.StatusInternalServerError, "SCHEMA_MISSING"
	case errors.Is(err, domain.ErrQuery):
		return http.StatusInternalServerError, "QUERY_FAILED"
	}
	return http.StatusInternalServerError, "INTERNAL"
}

// writeError reports err as a JSON envelope. Server-side failures are logged
// and answered with the generic status text; the error itself stays in the log.
func writeError(w http.ResponseWriter, r *http.Request, err error, details interface{}) {
	code, codeStr := errorStatus(err)
	msg := err.Error()
	if code >= http.StatusInternalServerError {
		LoggerFrom(r).Error("request failed", slog.String("code", codeStr), slog.Any("error", err))
		msg = http.StatusText(code)
	}
	writeJSON(w, code, errorEnvelope{Error: apiError{Code: codeStr, Message: msg, Details: details}})
}

// renderError is the HTML counterpart of writeError. The error text is
// logged but never shown to the reader.
func renderError(w http.ResponseWriter, r *http.Request, err error) {
	code, codeStr := errorStatus(err)
	LoggerFrom(r).Error("page failed", slog.String("code", codeStr), slog.Any("error", err))
	render(w, r, code, pageError, pageData{Status: code, StatusText: http.StatusText(code)})
}
