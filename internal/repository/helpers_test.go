package repository

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/trailhead/tours-server-go/internal/errors"
)

func TestHandleNotFound(t *testing.T) {
	t.Run("no rows becomes nil without error", func(t *testing.T) {
		value := 42
		result, err := HandleNotFound(&value, sql.ErrNoRows)
		require.NoError(t, err)
		assert.Nil(t, result)
	})

	t.Run("other errors pass through", func(t *testing.T) {
		value := 42
		boom := errors.New("boom")
		result, err := HandleNotFound(&value, boom)
		assert.Equal(t, boom, err)
		assert.Nil(t, result)
	})

	t.Run("success returns the result", func(t *testing.T) {
		value := 42
		result, err := HandleNotFound(&value, nil)
		require.NoError(t, err)
		assert.Equal(t, 42, *result)
	})
}

func TestMapError(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, MapError(nil, "tour"))
	})

	t.Run("no rows is not found", func(t *testing.T) {
		err := MapError(sql.ErrNoRows, "tour")
		assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
		assert.Contains(t, err.Error(), "No tour found")
	})

	t.Run("unique violation names the offending value", func(t *testing.T) {
		pqErr := &pq.Error{
			Code:   "23505",
			Detail: "Key (name)=(The Forest Hiker) already exists.",
		}

		err := MapError(pqErr, "tour")
		assert.Equal(t, apperrors.ErrCodeDuplicateKey, apperrors.GetCode(err))
		assert.Contains(t, err.Error(), "The Forest Hiker")
	})

	t.Run("unique violation without detail keeps a placeholder", func(t *testing.T) {
		err := MapError(&pq.Error{Code: "23505"}, "tour")
		assert.Equal(t, apperrors.ErrCodeDuplicateKey, apperrors.GetCode(err))
		assert.Contains(t, err.Error(), "that value")
	})

	t.Run("foreign key violation is a validation failure", func(t *testing.T) {
		err := MapError(&pq.Error{Code: "23503"}, "review")
		assert.Equal(t, apperrors.ErrCodeValidation, apperrors.GetCode(err))
	})

	t.Run("check and not-null violations are validation failures", func(t *testing.T) {
		assert.Equal(t, apperrors.ErrCodeValidation, apperrors.GetCode(MapError(&pq.Error{Code: "23514"}, "tour")))
		assert.Equal(t, apperrors.ErrCodeValidation, apperrors.GetCode(MapError(&pq.Error{Code: "23502"}, "tour")))
	})

	t.Run("malformed identifier is not found", func(t *testing.T) {
		err := MapError(&pq.Error{Code: "22P02"}, "tour")
		assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
	})

	t.Run("everything else is a database error", func(t *testing.T) {
		err := MapError(errors.New("connection reset"), "tour")
		assert.Equal(t, apperrors.ErrCodeDatabase, apperrors.GetCode(err))
		assert.False(t, apperrors.IsOperational(err))
	})
}
