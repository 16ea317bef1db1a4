package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/trailhead/tours-server-go/internal/errors"
	"github.com/trailhead/tours-server-go/internal/httputil"
	"github.com/trailhead/tours-server-go/internal/middleware"
	"github.com/trailhead/tours-server-go/internal/model"
	"github.com/trailhead/tours-server-go/internal/query"
	"github.com/trailhead/tours-server-go/internal/repository"
)

type ReviewHandler struct {
	resource *Resource[model.Review, model.CreateReviewParams, model.UpdateReviewParams]
	authmw   *middleware.AuthMiddleware
}

func NewReviewHandler(
	reviews repository.ReviewRepository,
	tours repository.TourRepository,
	authmw *middleware.AuthMiddleware,
	norm *httputil.Normalizer,
) *ReviewHandler {
	recalc := func(ctx context.Context, review *model.Review) error {
		return tours.RecalcRatings(ctx, review.TourID)
	}

	resource := NewResource[model.Review, model.CreateReviewParams, model.UpdateReviewParams](reviews, norm).
		WithBase(func(r *http.Request) []query.Fixed {
			if tourID := chi.URLParam(r, "tourID"); tourID != "" {
				return []query.Fixed{{Column: "r.tour_id", Op: query.OpEq, Value: tourID}}
			}
			return nil
		}).
		WithBeforeCreate(func(r *http.Request, params *model.CreateReviewParams) error {
			if params.TourID == "" {
				params.TourID = chi.URLParam(r, "tourID")
			}
			principal := middleware.GetPrincipal(r.Context())
			if principal == nil {
				return apperrors.Unauthorized("You are not logged in. Please log in to get access")
			}
			params.UserID = principal.ID
			return nil
		}).
		WithAfterWrite(recalc).
		WithAfterDelete(recalc)

	return &ReviewHandler{resource: resource, authmw: authmw}
}

// Routes is mounted both at /reviews and nested under /tours/{tourID}/reviews;
// the nested mount scopes listing and creation to the parent tour.
func (h *ReviewHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(h.authmw.Protect)

	r.Get("/", h.resource.GetAll)
	r.With(h.authmw.RequireRoles(model.RoleUser)).Post("/", h.resource.CreateOne)

	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.resource.GetOne)
		r.With(h.authmw.RequireRoles(model.RoleUser, model.RoleAdmin)).Patch("/", h.resource.UpdateOne)
		r.With(h.authmw.RequireRoles(model.RoleUser, model.RoleAdmin)).Delete("/", h.resource.DeleteOne)
	})

	return r
}
