package errors

import (
	"encoding/json"
	"net/http"
)

type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

const (
	ErrCodeInvalidInput  = "INVALID_INPUT"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeUpstreamError = "UPSTREAM_ERROR"
	ErrCodeInternal      = "INTERNAL_ERROR"
)

func WriteError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    code,
		Details: details,
	})
}

// WriteKind writes the envelope for err's kind. Only validation messages are
// echoed back; everything else gets a fixed message.
func WriteKind(w http.ResponseWriter, err error) {
	switch KindOf(err) {
	case KindValidation:
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidInput, MessageOf(err), nil)
	case KindAuth:
		WriteError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "Authorization with Zoom failed", nil)
	case KindUpstream:
		WriteError(w, http.StatusBadGateway, ErrCodeUpstreamError, "Zoom API request failed", nil)
	default:
		WriteError(w, http.StatusInternalServerError, ErrCodeInternal, "Internal server error", nil)
	}
}
