package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/trailhead/tours-server-go/internal/errors"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestWriteList(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteList(rec, http.StatusOK, 3, []string{"a", "b", "c"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decode(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, float64(3), body["results"])
}

func TestWriteData(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteData(rec, http.StatusCreated, map[string]string{"id": "1"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "success", body["status"])
	_, hasResults := body["results"]
	assert.False(t, hasResults)
}

func TestWriteError(t *testing.T) {
	t.Run("operational errors keep their message", func(t *testing.T) {
		norm := &Normalizer{Development: false}
		rec := httptest.NewRecorder()

		norm.WriteError(rec, apperrors.NotFound("tour"))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "fail", body["status"])
		assert.Equal(t, "No tour found with that ID", body["message"])
		assert.Equal(t, "NOT_FOUND", body["code"])
	})

	t.Run("4xx is fail, 5xx is error", func(t *testing.T) {
		norm := &Normalizer{Development: true}

		rec := httptest.NewRecorder()
		norm.WriteError(rec, apperrors.ValidationError("bad input"))
		assert.Equal(t, "fail", decode(t, rec)["status"])

		rec = httptest.NewRecorder()
		norm.WriteError(rec, apperrors.Internal("boom"))
		assert.Equal(t, "error", decode(t, rec)["status"])
	})

	t.Run("non-operational errors hide detail in production", func(t *testing.T) {
		norm := &Normalizer{Development: false}
		rec := httptest.NewRecorder()

		norm.WriteError(rec, apperrors.Database(errors.New("pq: connection refused at 10.0.0.1")))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "Something went wrong. Please try again", body["message"])
		assert.NotContains(t, rec.Body.String(), "10.0.0.1")
	})

	t.Run("development mode includes detail", func(t *testing.T) {
		norm := &Normalizer{Development: true}
		rec := httptest.NewRecorder()

		norm.WriteError(rec, apperrors.Database(errors.New("pq: connection refused")))

		body := decode(t, rec)
		assert.Contains(t, body["detail"], "connection refused")
	})

	t.Run("plain errors are wrapped as internal", func(t *testing.T) {
		norm := &Normalizer{Development: false}
		rec := httptest.NewRecorder()

		norm.WriteError(rec, errors.New("something leaked"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "error", body["status"])
		assert.NotContains(t, rec.Body.String(), "something leaked")
	})

	t.Run("status mapping per code", func(t *testing.T) {
		tests := []struct {
			err    error
			status int
		}{
			{apperrors.ValidationError("x"), http.StatusBadRequest},
			{apperrors.DuplicateKey("x"), http.StatusBadRequest},
			{apperrors.PageOutOfRange(9), http.StatusBadRequest},
			{apperrors.Unauthorized("x"), http.StatusUnauthorized},
			{apperrors.TokenExpired(), http.StatusUnauthorized},
			{apperrors.Forbidden("x"), http.StatusForbidden},
			{apperrors.NotFound("tour"), http.StatusNotFound},
			{apperrors.RateLimitExceeded(), http.StatusTooManyRequests},
			{apperrors.DeliveryFailed(errors.New("smtp")), http.StatusInternalServerError},
		}

		norm := &Normalizer{Development: true}
		for _, tt := range tests {
			rec := httptest.NewRecorder()
			norm.WriteError(rec, tt.err)
			assert.Equal(t, tt.status, rec.Code, tt.err.Error())
		}
	})
}
