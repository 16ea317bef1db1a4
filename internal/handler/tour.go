package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/trailhead/tours-server-go/internal/errors"
	"github.com/trailhead/tours-server-go/internal/httputil"
	"github.com/trailhead/tours-server-go/internal/middleware"
	"github.com/trailhead/tours-server-go/internal/model"
	"github.com/trailhead/tours-server-go/internal/query"
	"github.com/trailhead/tours-server-go/internal/repository"
	"github.com/trailhead/tours-server-go/internal/service"
)

// reviewPreviewLimit caps how many reviews ride along on a single tour fetch.
const reviewPreviewLimit = 20

type TourHandler struct {
	resource *Resource[model.Tour, model.CreateTourParams, model.UpdateTourParams]
	tours    *service.TourService
	authmw   *middleware.AuthMiddleware
	norm     *httputil.Normalizer

	// publicReads leaves listing and single fetches open; writes are always
	// protected.
	publicReads bool
}

func NewTourHandler(
	tours repository.TourRepository,
	reviews repository.ReviewRepository,
	svc *service.TourService,
	authmw *middleware.AuthMiddleware,
	norm *httputil.Normalizer,
	publicReads bool,
) *TourHandler {
	resource := NewResource[model.Tour, model.CreateTourParams, model.UpdateTourParams](tours, norm).
		WithParam("tourID").
		WithBase(func(_ *http.Request) []query.Fixed {
			return []query.Fixed{{Column: "secret_tour", Op: query.OpEq, Value: false}}
		}).
		WithInclude(func(ctx context.Context, tour *model.Tour) error {
			list, err := reviews.FindByTour(ctx, tour.ID, reviewPreviewLimit)
			if err != nil {
				return err
			}
			tour.Reviews = list
			return nil
		})

	return &TourHandler{
		resource:    resource,
		tours:       svc,
		authmw:      authmw,
		norm:        norm,
		publicReads: publicReads,
	}
}

func (h *TourHandler) Routes(reviewRoutes chi.Router) chi.Router {
	r := chi.NewRouter()

	read := func(fn http.HandlerFunc) http.HandlerFunc {
		if h.publicReads {
			return fn
		}
		return func(w http.ResponseWriter, req *http.Request) {
			h.authmw.Protect(fn).ServeHTTP(w, req)
		}
	}

	r.Get("/", read(h.resource.GetAll))
	r.Get("/top-5-cheap", read(h.TopFiveCheap))
	r.Get("/stats", read(h.Stats))
	r.Get("/within/{distance}/center/{latlng}/unit/{unit}", read(h.ToursWithin))
	r.Get("/distances/{latlng}/unit/{unit}", read(h.Distances))

	r.With(h.authmw.Protect, h.authmw.RequireRoles(model.RoleAdmin, model.RoleLeadGuide, model.RoleGuide)).
		Get("/monthly-plan/{year}", h.MonthlyPlan)

	r.With(h.authmw.Protect, h.authmw.RequireRoles(model.RoleAdmin, model.RoleLeadGuide)).
		Post("/", h.resource.CreateOne)

	r.Route("/{tourID}", func(r chi.Router) {
		r.Get("/", read(h.resource.GetOne))

		r.With(h.authmw.Protect, h.authmw.RequireRoles(model.RoleAdmin, model.RoleLeadGuide)).
			Patch("/", h.resource.UpdateOne)
		r.With(h.authmw.Protect, h.authmw.RequireRoles(model.RoleAdmin, model.RoleLeadGuide)).
			Delete("/", h.resource.DeleteOne)

		r.Mount("/reviews", reviewRoutes)
	})

	return r
}

// TopFiveCheap is the preset alias: best-rated, cheapest first, trimmed
// fields. Caller-supplied query values are replaced wholesale.
func (h *TourHandler) TopFiveCheap(w http.ResponseWriter, r *http.Request) {
	r.URL.RawQuery = "limit=5&sort=-ratingsAverage,price&fields=name,price,ratingsAverage,summary,difficulty"
	h.resource.GetAll(w, r)
}

// GET /tours/stats
func (h *TourHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.tours.Stats(r.Context())
	if err != nil {
		h.norm.WriteError(w, err)
		return
	}
	httputil.WriteData(w, http.StatusOK, stats)
}

// GET /tours/within/{distance}/center/{latlng}/unit/{unit}
func (h *TourHandler) ToursWithin(w http.ResponseWriter, r *http.Request) {
	lat, lng, err := parseLatLng(chi.URLParam(r, "latlng"))
	if err != nil {
		h.norm.WriteError(w, err)
		return
	}
	distance, convErr := strconv.ParseFloat(chi.URLParam(r, "distance"), 64)
	if convErr != nil {
		h.norm.WriteError(w, apperrors.InvalidInput("distance", "must be a number"))
		return
	}

	tours, err := h.tours.ToursWithin(r.Context(), lat, lng, distance, chi.URLParam(r, "unit"))
	if err != nil {
		h.norm.WriteError(w, err)
		return
	}
	if tours == nil {
		tours = []model.Tour{}
	}
	httputil.WriteList(w, http.StatusOK, len(tours), tours)
}

// GET /tours/distances/{latlng}/unit/{unit}
func (h *TourHandler) Distances(w http.ResponseWriter, r *http.Request) {
	lat, lng, err := parseLatLng(chi.URLParam(r, "latlng"))
	if err != nil {
		h.norm.WriteError(w, err)
		return
	}

	distances, err := h.tours.Distances(r.Context(), lat, lng, chi.URLParam(r, "unit"))
	if err != nil {
		h.norm.WriteError(w, err)
		return
	}
	httputil.WriteData(w, http.StatusOK, distances)
}

// parseLatLng splits a "lat,lng" path segment into coordinates.
func parseLatLng(raw string) (float64, float64, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return 0, 0, apperrors.ValidationError("Please provide latitude and longitude in the format lat,lng")
	}
	lat, errLat := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lng, errLng := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if errLat != nil || errLng != nil || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return 0, 0, apperrors.ValidationError("Please provide latitude and longitude in the format lat,lng")
	}
	return lat, lng, nil
}

// GET /tours/monthly-plan/{year}
func (h *TourHandler) MonthlyPlan(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		h.norm.WriteError(w, apperrors.ValidationError("Year must be a number"))
		return
	}

	plan, err := h.tours.MonthlyPlan(r.Context(), year)
	if err != nil {
		h.norm.WriteError(w, err)
		return
	}
	httputil.WriteData(w, http.StatusOK, plan)
}
