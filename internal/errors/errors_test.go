package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError(t *testing.T) {
	t.Run("Error returns formatted string", func(t *testing.T) {
		err := New(ErrCodeNotFound, "No tour found with that ID")
		assert.Equal(t, "NOT_FOUND: No tour found with that ID", err.Error())
	})

	t.Run("Error with cause includes cause", func(t *testing.T) {
		cause := errors.New("database connection failed")
		err := Wrap(ErrCodeDatabase, "Database error", cause)
		assert.Contains(t, err.Error(), "DATABASE_ERROR")
		assert.Contains(t, err.Error(), "database connection failed")
	})

	t.Run("WithCause adds cause to error", func(t *testing.T) {
		cause := errors.New("original error")
		err := New(ErrCodeInternal, "Something went wrong").WithCause(cause)
		assert.Equal(t, cause, err.Unwrap())
	})

	t.Run("WithDetails adds details to error", func(t *testing.T) {
		details := map[string]string{"field": "email", "reason": "invalid format"}
		err := New(ErrCodeValidation, "Validation failed").WithDetails(details)
		assert.Equal(t, details, err.Details)
	})
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name         string
		constructor  func() *AppError
		expectedCode ErrorCode
	}{
		{"Unauthorized", func() *AppError { return Unauthorized("test") }, ErrCodeUnauthorized},
		{"Forbidden", func() *AppError { return Forbidden("test") }, ErrCodeForbidden},
		{"InvalidToken", func() *AppError { return InvalidToken("test") }, ErrCodeInvalidToken},
		{"TokenExpired", func() *AppError { return TokenExpired() }, ErrCodeTokenExpired},
		{"NotFound", func() *AppError { return NotFound("tour") }, ErrCodeNotFound},
		{"DuplicateKey", func() *AppError { return DuplicateKey("The Forest Hiker") }, ErrCodeDuplicateKey},
		{"ValidationError", func() *AppError { return ValidationError("test") }, ErrCodeValidation},
		{"InvalidInput", func() *AppError { return InvalidInput("email", "invalid") }, ErrCodeInvalidInput},
		{"MissingRequired", func() *AppError { return MissingRequired("email") }, ErrCodeMissingRequired},
		{"PageOutOfRange", func() *AppError { return PageOutOfRange(9) }, ErrCodePageOutOfRange},
		{"RateLimitExceeded", func() *AppError { return RateLimitExceeded() }, ErrCodeRateLimitExceeded},
		{"DeliveryFailed", func() *AppError { return DeliveryFailed(errors.New("smtp refused")) }, ErrCodeDeliveryFailed},
		{"Internal", func() *AppError { return Internal("test") }, ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.constructor()
			assert.Equal(t, tt.expectedCode, err.Code)
			assert.NotEmpty(t, err.Message)
		})
	}
}

func TestMessages(t *testing.T) {
	t.Run("NotFound names the resource", func(t *testing.T) {
		assert.Equal(t, "No tour found with that ID", NotFound("tour").Message)
	})

	t.Run("DuplicateKey names the value", func(t *testing.T) {
		err := DuplicateKey("The Forest Hiker")
		assert.Contains(t, err.Message, "The Forest Hiker")
		assert.Contains(t, err.Message, "Duplicate field value")
	})
}

func TestHelpers(t *testing.T) {
	t.Run("IsAppError and AsAppError", func(t *testing.T) {
		appErr := NotFound("user")
		assert.True(t, IsAppError(appErr))
		assert.False(t, IsAppError(errors.New("plain")))

		got, ok := AsAppError(appErr)
		assert.True(t, ok)
		assert.Equal(t, appErr, got)
	})

	t.Run("GetCode on plain errors", func(t *testing.T) {
		assert.Equal(t, ErrCodeInternal, GetCode(errors.New("plain")))
		assert.Equal(t, ErrCodeNotFound, GetCode(NotFound("user")))
	})

	t.Run("IsOperational splits expected from unexpected", func(t *testing.T) {
		assert.True(t, IsOperational(NotFound("user")))
		assert.True(t, IsOperational(ValidationError("bad")))
		assert.False(t, IsOperational(Internal("boom")))
		assert.False(t, IsOperational(Database(errors.New("down"))))
		assert.False(t, IsOperational(errors.New("plain")))
	})
}
