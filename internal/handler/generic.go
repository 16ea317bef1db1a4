// The Resource type is the generic CRUD handler factory: bind it to a
// collection handle once and mount the five operations on any router.
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/trailhead/tours-server-go/internal/errors"
	"github.com/trailhead/tours-server-go/internal/httputil"
	"github.com/trailhead/tours-server-go/internal/query"
	"github.com/trailhead/tours-server-go/internal/repository"
)

// Validator is implemented by parameter types that carry their own
// creation/update rules.
type Validator interface {
	Validate() error
}

// Resource is a CRUD handler set over one collection. T is the document
// type, C and U the create/update parameter shapes.
type Resource[T any, C any, U any] struct {
	coll repository.Collection[T, C, U]
	norm *httputil.Normalizer

	// param is the URL parameter naming the identifier, "id" by default.
	param string

	// base contributes fixed query conditions, e.g. nested-route scoping.
	base func(r *http.Request) []query.Fixed
	// beforeCreate fills creation params from request context, e.g. the
	// authenticated author on nested creation.
	beforeCreate func(r *http.Request, params *C) error
	// include attaches related data on single fetches.
	include func(ctx context.Context, doc *T) error
	// afterWrite runs after a successful create or update, e.g. aggregate
	// recomputation.
	afterWrite func(ctx context.Context, doc *T) error
	// afterDelete runs after a successful delete with the prefetched doc.
	afterDelete func(ctx context.Context, doc *T) error
}

func NewResource[T any, C any, U any](coll repository.Collection[T, C, U], norm *httputil.Normalizer) *Resource[T, C, U] {
	return &Resource[T, C, U]{coll: coll, norm: norm, param: "id"}
}

// WithParam renames the identifier URL parameter, so nested mounts can keep
// their own "id" free.
func (h *Resource[T, C, U]) WithParam(name string) *Resource[T, C, U] {
	h.param = name
	return h
}

func (h *Resource[T, C, U]) WithBase(base func(r *http.Request) []query.Fixed) *Resource[T, C, U] {
	h.base = base
	return h
}

func (h *Resource[T, C, U]) WithBeforeCreate(fn func(r *http.Request, params *C) error) *Resource[T, C, U] {
	h.beforeCreate = fn
	return h
}

func (h *Resource[T, C, U]) WithInclude(fn func(ctx context.Context, doc *T) error) *Resource[T, C, U] {
	h.include = fn
	return h
}

func (h *Resource[T, C, U]) WithAfterWrite(fn func(ctx context.Context, doc *T) error) *Resource[T, C, U] {
	h.afterWrite = fn
	return h
}

func (h *Resource[T, C, U]) WithAfterDelete(fn func(ctx context.Context, doc *T) error) *Resource[T, C, U] {
	h.afterDelete = fn
	return h
}

// GetAll lists documents through the query builder: filter, sort, field
// selection and pagination compose in that order. An empty result is
// success; an explicitly requested page beyond the collection is not.
func (h *Resource[T, C, U]) GetAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	desc, err := query.Parse(r.URL.Query())
	if err != nil {
		h.norm.WriteError(w, err)
		return
	}

	b := query.New(h.coll.Spec(), desc)
	if h.base != nil {
		for _, f := range h.base(r) {
			b.Where(f.Column, f.Op, f.Value)
		}
	}
	plan, err := b.Filter().Sort().LimitFields().Paginate().Build()
	if err != nil {
		h.norm.WriteError(w, err)
		return
	}

	if plan.Paged && plan.Offset > 0 {
		total, err := h.coll.Count(ctx, plan)
		if err != nil {
			h.norm.WriteError(w, err)
			return
		}
		if plan.Offset >= total {
			h.norm.WriteError(w, apperrors.PageOutOfRange(plan.Page))
			return
		}
	}

	docs, err := h.coll.FindAll(ctx, plan)
	if err != nil {
		h.norm.WriteError(w, err)
		return
	}
	if docs == nil {
		docs = []T{}
	}

	httputil.WriteList(w, http.StatusOK, len(docs), docs)
}

// GetOne fetches a document by identifier, attaching related data when an
// include is configured. A structurally invalid identifier is NotFound.
func (h *Resource[T, C, U]) GetOne(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, h.param)

	doc, err := h.coll.FindByID(ctx, id)
	if err != nil {
		h.norm.WriteError(w, err)
		return
	}
	if doc == nil {
		h.norm.WriteError(w, apperrors.NotFound(h.coll.Resource()))
		return
	}

	if h.include != nil {
		if err := h.include(ctx, doc); err != nil {
			h.norm.WriteError(w, err)
			return
		}
	}

	httputil.WriteData(w, http.StatusOK, doc)
}

// CreateOne decodes typed creation params, validates them and inserts.
func (h *Resource[T, C, U]) CreateOne(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var params C
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		h.norm.WriteError(w, apperrors.ValidationError("Invalid JSON body").WithCause(err))
		return
	}

	if h.beforeCreate != nil {
		if err := h.beforeCreate(r, &params); err != nil {
			h.norm.WriteError(w, err)
			return
		}
	}

	if v, ok := any(&params).(Validator); ok {
		if err := v.Validate(); err != nil {
			h.norm.WriteError(w, err)
			return
		}
	}

	doc, err := h.coll.Create(ctx, params)
	if err != nil {
		h.norm.WriteError(w, err)
		return
	}

	if h.afterWrite != nil {
		if err := h.afterWrite(ctx, doc); err != nil {
			h.norm.WriteError(w, err)
			return
		}
	}

	httputil.WriteData(w, http.StatusCreated, doc)
}

// UpdateOne applies a partial update, re-running the creation rules on the
// fields present, and returns the post-update representation.
func (h *Resource[T, C, U]) UpdateOne(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, h.param)

	var params U
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		h.norm.WriteError(w, apperrors.ValidationError("Invalid JSON body").WithCause(err))
		return
	}

	if v, ok := any(&params).(Validator); ok {
		if err := v.Validate(); err != nil {
			h.norm.WriteError(w, err)
			return
		}
	}

	doc, err := h.coll.UpdateByID(ctx, id, params)
	if err != nil {
		h.norm.WriteError(w, err)
		return
	}
	if doc == nil {
		h.norm.WriteError(w, apperrors.NotFound(h.coll.Resource()))
		return
	}

	if h.afterWrite != nil {
		if err := h.afterWrite(ctx, doc); err != nil {
			h.norm.WriteError(w, err)
			return
		}
	}

	httputil.WriteData(w, http.StatusOK, doc)
}

// DeleteOne removes a document; deleting nothing is NotFound, never a
// silent success.
func (h *Resource[T, C, U]) DeleteOne(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, h.param)

	var prefetched *T
	if h.afterDelete != nil {
		doc, err := h.coll.FindByID(ctx, id)
		if err != nil {
			h.norm.WriteError(w, err)
			return
		}
		if doc == nil {
			h.norm.WriteError(w, apperrors.NotFound(h.coll.Resource()))
			return
		}
		prefetched = doc
	}

	deleted, err := h.coll.DeleteByID(ctx, id)
	if err != nil {
		h.norm.WriteError(w, err)
		return
	}
	if !deleted {
		h.norm.WriteError(w, apperrors.NotFound(h.coll.Resource()))
		return
	}

	if h.afterDelete != nil {
		if err := h.afterDelete(ctx, prefetched); err != nil {
			h.norm.WriteError(w, err)
			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}
