package repository

import (
	"database/sql"
	"errors"
	"regexp"

	"github.com/lib/pq"

	apperrors "github.com/trailhead/tours-server-go/internal/errors"
)

// HandleNotFound processes a database query result, converting sql.ErrNoRows
// to a nil result without error. This is a common pattern for Find* operations
// where a missing row is not an error condition.
//
// Usage:
//
//	var item model.Item
//	err := r.db.GetContext(ctx, &item, query, args...)
//	return HandleNotFound(&item, err)
func HandleNotFound[T any](result *T, err error) (*T, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// duplicateDetailRegex pulls the offending value out of a unique-violation
// detail like `Key (email)=(x@y.example) already exists.`
var duplicateDetailRegex = regexp.MustCompile(`\)=\((.+)\)`)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgNotNullViolation    = "23502"
	pgInvalidTextRep      = "22P02"
)

// MapError normalizes storage-layer failures to the application taxonomy:
// unique violations become DuplicateKey naming the offending value,
// constraint violations become validation failures, malformed identifiers
// become NotFound, and anything else stays an internal database error.
func MapError(err error, resource string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NotFound(resource)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pgUniqueViolation:
			value := "that value"
			if m := duplicateDetailRegex.FindStringSubmatch(pqErr.Detail); m != nil {
				value = m[1]
			}
			return apperrors.DuplicateKey(value).WithCause(err)
		case pgForeignKeyViolation:
			return apperrors.ValidationError("Referenced " + resource + " does not exist").WithCause(err)
		case pgCheckViolation, pgNotNullViolation:
			return apperrors.ValidationError("Invalid " + resource + " data").WithCause(err)
		case pgInvalidTextRep:
			return apperrors.NotFound(resource).WithCause(err)
		}
	}

	return apperrors.Database(err)
}
