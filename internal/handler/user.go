package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/trailhead/tours-server-go/internal/errors"
	"github.com/trailhead/tours-server-go/internal/httputil"
	"github.com/trailhead/tours-server-go/internal/middleware"
	"github.com/trailhead/tours-server-go/internal/model"
	"github.com/trailhead/tours-server-go/internal/query"
	"github.com/trailhead/tours-server-go/internal/repository"
	"github.com/trailhead/tours-server-go/internal/service"
)

type UserHandler struct {
	resource *Resource[model.User, model.CreateUserParams, model.UpdateUserParams]
	users    *service.UserService
	authmw   *middleware.AuthMiddleware
	norm     *httputil.Normalizer
}

func NewUserHandler(
	users repository.UserRepository,
	svc *service.UserService,
	authmw *middleware.AuthMiddleware,
	norm *httputil.Normalizer,
) *UserHandler {
	resource := NewResource[model.User, model.CreateUserParams, model.UpdateUserParams](users, norm).
		WithBase(func(_ *http.Request) []query.Fixed {
			return []query.Fixed{{Column: "active", Op: query.OpEq, Value: true}}
		})

	return &UserHandler{resource: resource, users: svc, authmw: authmw, norm: norm}
}

func (h *UserHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(h.authmw.Protect)

	r.Route("/me", func(r chi.Router) {
		r.Get("/", h.GetMe)
		r.Patch("/", h.UpdateMe)
		r.Delete("/", h.DeleteMe)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.authmw.RequireRoles(model.RoleAdmin))

		r.Get("/", h.resource.GetAll)
		r.Post("/", h.CreateNotSupported)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.resource.GetOne)
			r.Patch("/", h.resource.UpdateOne)
			r.Delete("/", h.resource.DeleteOne)
		})
	})

	return r
}

// GET /users/me
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetPrincipal(r.Context())
	if user == nil {
		h.norm.WriteError(w, apperrors.Unauthorized("You are not logged in. Please log in to get access"))
		return
	}
	httputil.WriteData(w, http.StatusOK, user)
}

// PATCH /users/me
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetPrincipal(r.Context())
	if user == nil {
		h.norm.WriteError(w, apperrors.Unauthorized("You are not logged in. Please log in to get access"))
		return
	}

	var params service.UpdateMeParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		h.norm.WriteError(w, apperrors.ValidationError("Invalid JSON body").WithCause(err))
		return
	}

	updated, err := h.users.UpdateMe(r.Context(), user.ID, params)
	if err != nil {
		h.norm.WriteError(w, err)
		return
	}
	httputil.WriteData(w, http.StatusOK, updated)
}

// DELETE /users/me
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetPrincipal(r.Context())
	if user == nil {
		h.norm.WriteError(w, apperrors.Unauthorized("You are not logged in. Please log in to get access"))
		return
	}

	if err := h.users.DeleteMe(r.Context(), user.ID); err != nil {
		h.norm.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateNotSupported points admins at the signup flow, which is the only
// path that hashes a credential.
func (h *UserHandler) CreateNotSupported(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusInternalServerError, httputil.Envelope{
		Status:  "error",
		Message: "This route is not defined. Please use /auth/signup instead",
	})
}
