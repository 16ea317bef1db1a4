package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/trailhead/tours-server-go/internal/errors"
	"github.com/trailhead/tours-server-go/internal/httputil"
	"github.com/trailhead/tours-server-go/internal/query"
)

type item struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price int    `json:"price"`
}

type createItemParams struct {
	Name  string `json:"name"`
	Price int    `json:"price"`
}

func (p *createItemParams) Validate() error {
	if p.Name == "" {
		return apperrors.MissingRequired("name")
	}
	return nil
}

type updateItemParams struct {
	Name  *string `json:"name"`
	Price *int    `json:"price"`
}

var itemSpec = query.Spec{
	Table:    "items",
	IDColumn: "id",
	Columns: []query.Column{
		{Field: "id", Column: "id"},
		{Field: "name", Column: "name"},
		{Field: "price", Column: "price"},
	},
	DefaultSort: []query.SortField{{Field: "name"}},
}

type mockCollection struct {
	findAllFunc    func(ctx context.Context, plan *query.Plan) ([]item, error)
	countFunc      func(ctx context.Context, plan *query.Plan) (int, error)
	findByIDFunc   func(ctx context.Context, id string) (*item, error)
	createFunc     func(ctx context.Context, params createItemParams) (*item, error)
	updateByIDFunc func(ctx context.Context, id string, params updateItemParams) (*item, error)
	deleteByIDFunc func(ctx context.Context, id string) (bool, error)
}

func (m *mockCollection) Resource() string { return "item" }

func (m *mockCollection) Spec() query.Spec { return itemSpec }

func (m *mockCollection) FindAll(ctx context.Context, plan *query.Plan) ([]item, error) {
	if m.findAllFunc != nil {
		return m.findAllFunc(ctx, plan)
	}
	return nil, nil
}

func (m *mockCollection) Count(ctx context.Context, plan *query.Plan) (int, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx, plan)
	}
	return 0, nil
}

func (m *mockCollection) FindByID(ctx context.Context, id string) (*item, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockCollection) Create(ctx context.Context, params createItemParams) (*item, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, params)
	}
	return nil, nil
}

func (m *mockCollection) UpdateByID(ctx context.Context, id string, params updateItemParams) (*item, error) {
	if m.updateByIDFunc != nil {
		return m.updateByIDFunc(ctx, id, params)
	}
	return nil, nil
}

func (m *mockCollection) DeleteByID(ctx context.Context, id string) (bool, error) {
	if m.deleteByIDFunc != nil {
		return m.deleteByIDFunc(ctx, id)
	}
	return false, nil
}

func newItemResource(coll *mockCollection) *Resource[item, createItemParams, updateItemParams] {
	return NewResource[item, createItemParams, updateItemParams](coll, &httputil.Normalizer{Development: true})
}

func mountItemRoutes(h *Resource[item, createItemParams, updateItemParams]) chi.Router {
	r := chi.NewRouter()
	r.Get("/items", h.GetAll)
	r.Post("/items", h.CreateOne)
	r.Get("/items/{id}", h.GetOne)
	r.Patch("/items/{id}", h.UpdateOne)
	r.Delete("/items/{id}", h.DeleteOne)
	return r
}

func do(t *testing.T, router chi.Router, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func envelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestGetAll(t *testing.T) {
	t.Run("lists with a result count", func(t *testing.T) {
		coll := &mockCollection{findAllFunc: func(ctx context.Context, plan *query.Plan) ([]item, error) {
			return []item{{ID: "1", Name: "a"}, {ID: "2", Name: "b"}}, nil
		}}
		router := mountItemRoutes(newItemResource(coll))

		rec := do(t, router, http.MethodGet, "/items", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		body := envelope(t, rec)
		assert.Equal(t, "success", body["status"])
		assert.Equal(t, float64(2), body["results"])
	})

	t.Run("empty collection is an empty list, not an error", func(t *testing.T) {
		router := mountItemRoutes(newItemResource(&mockCollection{}))

		rec := do(t, router, http.MethodGet, "/items", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		body := envelope(t, rec)
		assert.Equal(t, float64(0), body["results"])
		assert.Equal(t, []any{}, body["data"])
	})

	t.Run("explicit page past the end fails", func(t *testing.T) {
		coll := &mockCollection{
			countFunc: func(ctx context.Context, plan *query.Plan) (int, error) { return 7, nil },
		}
		router := mountItemRoutes(newItemResource(coll))

		rec := do(t, router, http.MethodGet, "/items?page=3&limit=5", "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := envelope(t, rec)
		assert.Equal(t, "fail", body["status"])
		assert.Equal(t, string(apperrors.ErrCodePageOutOfRange), body["code"])
	})

	t.Run("page one of an empty collection still succeeds", func(t *testing.T) {
		router := mountItemRoutes(newItemResource(&mockCollection{}))

		rec := do(t, router, http.MethodGet, "/items?page=1", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unknown filter field fails", func(t *testing.T) {
		router := mountItemRoutes(newItemResource(&mockCollection{}))

		rec := do(t, router, http.MethodGet, "/items?secret=1", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("base conditions reach the plan", func(t *testing.T) {
		var gotPlan *query.Plan
		coll := &mockCollection{findAllFunc: func(ctx context.Context, plan *query.Plan) ([]item, error) {
			gotPlan = plan
			return nil, nil
		}}
		h := newItemResource(coll).WithBase(func(_ *http.Request) []query.Fixed {
			return []query.Fixed{{Column: "owner_id", Op: query.OpEq, Value: "u-1"}}
		})
		router := mountItemRoutes(h)

		rec := do(t, router, http.MethodGet, "/items", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, gotPlan)
		assert.Equal(t, "owner_id = $1", gotPlan.Where[0])
		assert.Equal(t, []any{"u-1"}, gotPlan.Args)
	})
}

func TestGetOne(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		coll := &mockCollection{findByIDFunc: func(ctx context.Context, id string) (*item, error) {
			return &item{ID: id, Name: "a"}, nil
		}}
		router := mountItemRoutes(newItemResource(coll))

		rec := do(t, router, http.MethodGet, "/items/some-id", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		body := envelope(t, rec)
		assert.Equal(t, "success", body["status"])
	})

	t.Run("nil document is not found", func(t *testing.T) {
		router := mountItemRoutes(newItemResource(&mockCollection{}))

		rec := do(t, router, http.MethodGet, "/items/nonexistent", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
		body := envelope(t, rec)
		assert.Equal(t, "No item found with that ID", body["message"])
	})

	t.Run("include hook runs on the fetched document", func(t *testing.T) {
		coll := &mockCollection{findByIDFunc: func(ctx context.Context, id string) (*item, error) {
			return &item{ID: id, Name: "a"}, nil
		}}
		included := false
		h := newItemResource(coll).WithInclude(func(ctx context.Context, doc *item) error {
			included = true
			return nil
		})
		router := mountItemRoutes(h)

		do(t, router, http.MethodGet, "/items/some-id", "")
		assert.True(t, included)
	})
}

func TestCreateOne(t *testing.T) {
	t.Run("creates and returns 201", func(t *testing.T) {
		coll := &mockCollection{createFunc: func(ctx context.Context, params createItemParams) (*item, error) {
			return &item{ID: "new", Name: params.Name, Price: params.Price}, nil
		}}
		router := mountItemRoutes(newItemResource(coll))

		rec := do(t, router, http.MethodPost, "/items", `{"name":"a","price":10}`)

		assert.Equal(t, http.StatusCreated, rec.Code)
		body := envelope(t, rec)
		assert.Equal(t, "success", body["status"])
	})

	t.Run("validation failure is a 400", func(t *testing.T) {
		router := mountItemRoutes(newItemResource(&mockCollection{}))

		rec := do(t, router, http.MethodPost, "/items", `{"price":10}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed json is a 400", func(t *testing.T) {
		router := mountItemRoutes(newItemResource(&mockCollection{}))

		rec := do(t, router, http.MethodPost, "/items", `{"name":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("duplicate key surfaces the offending value", func(t *testing.T) {
		coll := &mockCollection{createFunc: func(ctx context.Context, params createItemParams) (*item, error) {
			return nil, apperrors.DuplicateKey("a")
		}}
		router := mountItemRoutes(newItemResource(coll))

		rec := do(t, router, http.MethodPost, "/items", `{"name":"a"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := envelope(t, rec)
		assert.Contains(t, body["message"], "Duplicate field value: a")
	})

	t.Run("beforeCreate fills params before validation", func(t *testing.T) {
		coll := &mockCollection{createFunc: func(ctx context.Context, params createItemParams) (*item, error) {
			return &item{ID: "new", Name: params.Name}, nil
		}}
		h := newItemResource(coll).WithBeforeCreate(func(r *http.Request, params *createItemParams) error {
			params.Name = "filled"
			return nil
		})
		router := mountItemRoutes(h)

		rec := do(t, router, http.MethodPost, "/items", `{}`)
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("afterWrite hook runs on the created document", func(t *testing.T) {
		coll := &mockCollection{createFunc: func(ctx context.Context, params createItemParams) (*item, error) {
			return &item{ID: "new", Name: params.Name}, nil
		}}
		var written *item
		h := newItemResource(coll).WithAfterWrite(func(ctx context.Context, doc *item) error {
			written = doc
			return nil
		})
		router := mountItemRoutes(h)

		do(t, router, http.MethodPost, "/items", `{"name":"a"}`)
		require.NotNil(t, written)
		assert.Equal(t, "new", written.ID)
	})
}

func TestUpdateOne(t *testing.T) {
	t.Run("updates and returns the new representation", func(t *testing.T) {
		coll := &mockCollection{updateByIDFunc: func(ctx context.Context, id string, params updateItemParams) (*item, error) {
			return &item{ID: id, Name: *params.Name}, nil
		}}
		router := mountItemRoutes(newItemResource(coll))

		rec := do(t, router, http.MethodPatch, "/items/some-id", `{"name":"renamed"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		body := envelope(t, rec)
		data := body["data"].(map[string]any)
		assert.Equal(t, "renamed", data["name"])
	})

	t.Run("nil result is not found", func(t *testing.T) {
		router := mountItemRoutes(newItemResource(&mockCollection{}))

		rec := do(t, router, http.MethodPatch, "/items/nonexistent", `{"name":"x"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestDeleteOne(t *testing.T) {
	t.Run("deletes and returns 204 with no body", func(t *testing.T) {
		coll := &mockCollection{deleteByIDFunc: func(ctx context.Context, id string) (bool, error) {
			return true, nil
		}}
		router := mountItemRoutes(newItemResource(coll))

		rec := do(t, router, http.MethodDelete, "/items/some-id", "")

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Body.String())
	})

	t.Run("deleting nothing is not found, never a silent success", func(t *testing.T) {
		router := mountItemRoutes(newItemResource(&mockCollection{}))

		rec := do(t, router, http.MethodDelete, "/items/nonexistent", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
		body := envelope(t, rec)
		assert.Equal(t, "No item found with that ID", body["message"])
	})

	t.Run("afterDelete receives the prefetched document", func(t *testing.T) {
		coll := &mockCollection{
			findByIDFunc: func(ctx context.Context, id string) (*item, error) {
				return &item{ID: id, Name: "doomed"}, nil
			},
			deleteByIDFunc: func(ctx context.Context, id string) (bool, error) {
				return true, nil
			},
		}
		var deleted *item
		h := newItemResource(coll).WithAfterDelete(func(ctx context.Context, doc *item) error {
			deleted = doc
			return nil
		})
		router := mountItemRoutes(h)

		rec := do(t, router, http.MethodDelete, "/items/some-id", "")

		assert.Equal(t, http.StatusNoContent, rec.Code)
		require.NotNil(t, deleted)
		assert.Equal(t, "doomed", deleted.Name)
	})
}
