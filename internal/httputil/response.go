package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	apperrors "github.com/trailhead/tours-server-go/internal/errors"
)

// Envelope is the uniform response shape: "success" for 2xx, "fail" for
// 4xx, "error" for 5xx.
type Envelope struct {
	Status  string `json:"status"`
	Results *int   `json:"results,omitempty"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Code    any    `json:"code,omitempty"`
	Detail  any    `json:"detail,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// WriteData writes a success envelope.
func WriteData(w http.ResponseWriter, status int, data any) {
	WriteJSON(w, status, Envelope{Status: "success", Data: data})
}

// WriteList writes a success envelope carrying a result count.
func WriteList(w http.ResponseWriter, status int, count int, data any) {
	WriteJSON(w, status, Envelope{Status: "success", Results: &count, Data: data})
}

// Normalizer maps internal failures to client responses. Development mode
// includes internal detail; in production, non-operational errors are
// replaced with a generic message.
type Normalizer struct {
	Development bool
}

func (n *Normalizer) WriteError(w http.ResponseWriter, err error) {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		appErr = apperrors.Internal("Something went wrong. Please try again").WithCause(err)
	}

	status := statusFromCode(appErr.Code)
	resp := Envelope{
		Status:  statusWord(status),
		Message: appErr.Message,
		Code:    appErr.Code,
	}

	if !apperrors.IsOperational(appErr) {
		log.Error().Err(err).Str("code", string(appErr.Code)).Msg("unexpected error")
		if !n.Development {
			resp.Message = "Something went wrong. Please try again"
		}
	}

	if n.Development {
		resp.Detail = err.Error()
		if appErr.Details != nil {
			resp.Detail = appErr.Details
		}
	} else if apperrors.IsOperational(appErr) && appErr.Details != nil {
		resp.Detail = appErr.Details
	}

	WriteJSON(w, status, resp)
}

func statusWord(status int) string {
	if status >= 500 {
		return "error"
	}
	return "fail"
}

// statusFromCode maps ErrorCode to HTTP status code
func statusFromCode(code apperrors.ErrorCode) int {
	switch code {
	// 400 Bad Request
	case apperrors.ErrCodeValidation,
		apperrors.ErrCodeInvalidInput,
		apperrors.ErrCodeMissingRequired,
		apperrors.ErrCodeDuplicateKey,
		apperrors.ErrCodePageOutOfRange:
		return http.StatusBadRequest

	// 401 Unauthorized
	case apperrors.ErrCodeUnauthorized,
		apperrors.ErrCodeInvalidToken,
		apperrors.ErrCodeTokenExpired:
		return http.StatusUnauthorized

	// 403 Forbidden
	case apperrors.ErrCodeForbidden:
		return http.StatusForbidden

	// 404 Not Found
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound

	// 409 Conflict
	case apperrors.ErrCodeConflict:
		return http.StatusConflict

	// 429 Too Many Requests
	case apperrors.ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests

	// 500 Internal Server Error
	case apperrors.ErrCodeDeliveryFailed,
		apperrors.ErrCodeInternal,
		apperrors.ErrCodeDatabase:
		return http.StatusInternalServerError

	default:
		return http.StatusInternalServerError
	}
}
