package repository

import (
	"context"

	"github.com/trailhead/tours-server-go/internal/database"
	"github.com/trailhead/tours-server-go/internal/query"
	"github.com/trailhead/tours-server-go/internal/util"
)

// Collection is the store handle the generic handlers operate on. T is the
// document type, C and U the typed create and update parameter shapes.
type Collection[T any, C any, U any] interface {
	// Resource is the singular name used in client-facing messages.
	Resource() string
	Spec() query.Spec
	FindAll(ctx context.Context, plan *query.Plan) ([]T, error)
	Count(ctx context.Context, plan *query.Plan) (int, error)
	FindByID(ctx context.Context, id string) (*T, error)
	Create(ctx context.Context, params C) (*T, error)
	UpdateByID(ctx context.Context, id string, params U) (*T, error)
	// DeleteByID reports whether a document actually matched.
	DeleteByID(ctx context.Context, id string) (bool, error)
}

// collection is the sqlx-backed plumbing shared by the entity repositories:
// plan execution, counting, id lookup and deletion. Creation and update
// stay per-entity because their SQL names explicit columns.
type collection[T any] struct {
	db       database.DBTX
	resource string
	spec     query.Spec
	// readFilter is a SQL condition appended to every single fetch, so
	// rows hidden from listings (deactivated accounts, secret tours) stay
	// hidden when addressed by id.
	readFilter string
}

func (c *collection[T]) Resource() string {
	return c.resource
}

func (c *collection[T]) Spec() query.Spec {
	return c.spec
}

func (c *collection[T]) FindAll(ctx context.Context, plan *query.Plan) ([]T, error) {
	var docs []T
	if err := c.db.SelectContext(ctx, &docs, plan.SelectSQL(), plan.Args...); err != nil {
		return nil, MapError(err, c.resource)
	}
	return docs, nil
}

func (c *collection[T]) Count(ctx context.Context, plan *query.Plan) (int, error) {
	var count int
	if err := c.db.GetContext(ctx, &count, plan.CountSQL(), plan.Args...); err != nil {
		return 0, MapError(err, c.resource)
	}
	return count, nil
}

func (c *collection[T]) FindByID(ctx context.Context, id string) (*T, error) {
	// A structurally invalid identifier cannot match anything; treating it
	// as a non-match avoids leaking storage internals.
	if !util.IsValidUUID(id) {
		return nil, nil
	}
	q := "SELECT * FROM " + c.spec.Table + " WHERE " + c.spec.IDColumn + " = $1"
	if c.readFilter != "" {
		q += " AND " + c.readFilter
	}
	var doc T
	err := c.db.GetContext(ctx, &doc, q, id)
	return HandleNotFound(&doc, err)
}

func (c *collection[T]) DeleteByID(ctx context.Context, id string) (bool, error) {
	if !util.IsValidUUID(id) {
		return false, nil
	}
	res, err := c.db.ExecContext(ctx,
		"DELETE FROM "+c.spec.Table+" WHERE "+c.spec.IDColumn+" = $1", id)
	if err != nil {
		return false, MapError(err, c.resource)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, MapError(err, c.resource)
	}
	return n > 0, nil
}
