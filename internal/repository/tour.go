package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/trailhead/tours-server-go/internal/database"
	"github.com/trailhead/tours-server-go/internal/model"
	"github.com/trailhead/tours-server-go/internal/query"
)

type TourRepository interface {
	Collection[model.Tour, model.CreateTourParams, model.UpdateTourParams]
	RecalcRatings(ctx context.Context, tourID string) error
	Stats(ctx context.Context) ([]model.TourStats, error)
	MonthlyPlan(ctx context.Context, year int) ([]model.MonthlyPlanEntry, error)
	FindWithin(ctx context.Context, lat, lng, radiusKm float64) ([]model.Tour, error)
	Distances(ctx context.Context, lat, lng float64) ([]model.TourDistance, error)
}

var TourSpec = query.Spec{
	Table:    "tours",
	IDColumn: "id",
	Columns: []query.Column{
		{Field: "id", Column: "id"},
		{Field: "name", Column: "name"},
		{Field: "slug", Column: "slug"},
		{Field: "duration", Column: "duration"},
		{Field: "maxGroupSize", Column: "max_group_size"},
		{Field: "difficulty", Column: "difficulty"},
		{Field: "ratingsAverage", Column: "ratings_average"},
		{Field: "ratingsQuantity", Column: "ratings_quantity"},
		{Field: "price", Column: "price"},
		{Field: "priceDiscount", Column: "price_discount"},
		{Field: "summary", Column: "summary"},
		{Field: "description", Column: "description"},
		{Field: "imageCover", Column: "image_cover"},
		{Field: "images", Column: "images"},
		{Field: "startDates", Column: "start_dates"},
		{Field: "startLat", Column: "start_lat"},
		{Field: "startLng", Column: "start_lng"},
		{Field: "createdAt", Column: "created_at"},
		{Field: "rowVersion", Column: "row_version"},
	},
	Bookkeeping: "rowVersion",
	DefaultSort: []query.SortField{{Field: "createdAt", Desc: true}},
}

type tourRepo struct {
	collection[model.Tour]
}

func NewTourRepository(db database.DBTX) TourRepository {
	return &tourRepo{collection[model.Tour]{db: db, resource: "tour", spec: TourSpec, readFilter: "NOT secret_tour"}}
}

func (r *tourRepo) Create(ctx context.Context, params model.CreateTourParams) (*model.Tour, error) {
	var tour model.Tour
	err := r.db.GetContext(ctx, &tour, `
		INSERT INTO tours (
			id, name, slug, duration, max_group_size, difficulty, price,
			price_discount, summary, description, image_cover, images,
			start_dates, secret_tour, start_lat, start_lng
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING *
	`, uuid.NewString(), params.Name, params.Slugify(), params.Duration,
		params.MaxGroupSize, params.Difficulty, params.Price, params.PriceDiscount,
		params.Summary, params.Description, params.ImageCover,
		pq.Array(params.Images), pq.Array(params.StartDates), params.SecretTour,
		params.StartLat, params.StartLng)
	if err != nil {
		return nil, MapError(err, "tour")
	}
	return &tour, nil
}

func (r *tourRepo) UpdateByID(ctx context.Context, id string, params model.UpdateTourParams) (*model.Tour, error) {
	var images, startDates any
	if params.Images != nil {
		images = pq.Array(*params.Images)
	}
	if params.StartDates != nil {
		startDates = pq.Array(*params.StartDates)
	}

	var tour model.Tour
	err := r.db.GetContext(ctx, &tour, `
		UPDATE tours SET
			name = COALESCE($2, name),
			duration = COALESCE($3, duration),
			max_group_size = COALESCE($4, max_group_size),
			difficulty = COALESCE($5, difficulty),
			price = COALESCE($6, price),
			price_discount = COALESCE($7, price_discount),
			summary = COALESCE($8, summary),
			description = COALESCE($9, description),
			image_cover = COALESCE($10, image_cover),
			images = COALESCE($11, images),
			start_dates = COALESCE($12, start_dates),
			secret_tour = COALESCE($13, secret_tour),
			start_lat = COALESCE($14, start_lat),
			start_lng = COALESCE($15, start_lng),
			row_version = row_version + 1
		WHERE id = $1
		RETURNING *
	`, id, params.Name, params.Duration, params.MaxGroupSize, params.Difficulty,
		params.Price, params.PriceDiscount, params.Summary, params.Description,
		params.ImageCover, images, startDates, params.SecretTour,
		params.StartLat, params.StartLng)
	updated, err := HandleNotFound(&tour, err)
	if err != nil {
		return nil, MapError(err, "tour")
	}
	return updated, nil
}

// RecalcRatings recomputes the review aggregates of a tour. Invoked by the
// review flows as an explicit post-write step.
func (r *tourRepo) RecalcRatings(ctx context.Context, tourID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE tours SET
			ratings_quantity = agg.quantity,
			ratings_average = agg.average,
			row_version = row_version + 1
		FROM (
			SELECT COUNT(*) AS quantity, COALESCE(AVG(rating), 4.6) AS average
			FROM reviews WHERE tour_id = $1
		) AS agg
		WHERE id = $1
	`, tourID)
	return MapError(err, "tour")
}

// Stats aggregates well-rated tours per difficulty, cheapest group first.
func (r *tourRepo) Stats(ctx context.Context) ([]model.TourStats, error) {
	var stats []model.TourStats
	err := r.db.SelectContext(ctx, &stats, `
		SELECT
			difficulty,
			COUNT(*)                        AS num_tours,
			COALESCE(SUM(ratings_quantity), 0) AS num_ratings,
			COALESCE(AVG(ratings_average), 0)  AS avg_rating,
			COALESCE(AVG(price), 0)            AS avg_price,
			COALESCE(MIN(price), 0)            AS min_price,
			COALESCE(MAX(price), 0)            AS max_price
		FROM tours
		WHERE ratings_average >= 4.5 AND NOT secret_tour
		GROUP BY difficulty
		HAVING difficulty <> 'easy'
		ORDER BY avg_price ASC
	`)
	if err != nil {
		return nil, MapError(err, "tour")
	}
	return stats, nil
}

// MonthlyPlan unwinds each tour's start dates and counts starts per month
// of the given year, busiest months first.
func (r *tourRepo) MonthlyPlan(ctx context.Context, year int) ([]model.MonthlyPlanEntry, error) {
	from := fmt.Sprintf("%d-01-01", year)
	to := fmt.Sprintf("%d-12-31", year)

	var plan []model.MonthlyPlanEntry
	err := r.db.SelectContext(ctx, &plan, `
		SELECT
			EXTRACT(MONTH FROM start_date)::int AS month,
			COUNT(*)                            AS num_tour_starts,
			ARRAY_AGG(name ORDER BY name)       AS tours
		FROM tours, UNNEST(start_dates) AS start_date
		WHERE start_date >= $1::date AND start_date <= $2::date
		  AND NOT secret_tour
		GROUP BY month
		ORDER BY num_tour_starts DESC, month ASC
		LIMIT 6
	`, from, to)
	if err != nil {
		return nil, MapError(err, "tour")
	}
	return plan, nil
}

// haversineSQL computes great-circle kilometers between a tour's start
// location and the reference point carried in $1 (lat) and $2 (lng).
const haversineSQL = `6371 * acos(
	least(1.0,
		cos(radians($1)) * cos(radians(start_lat)) * cos(radians(start_lng) - radians($2))
		+ sin(radians($1)) * sin(radians(start_lat))
	))`

// FindWithin lists non-secret tours whose start location falls inside the
// given radius of the reference point.
func (r *tourRepo) FindWithin(ctx context.Context, lat, lng, radiusKm float64) ([]model.Tour, error) {
	var tours []model.Tour
	err := r.db.SelectContext(ctx, &tours, `
		SELECT * FROM tours
		WHERE start_lat IS NOT NULL AND NOT secret_tour
		  AND `+haversineSQL+` <= $3
		ORDER BY name
	`, lat, lng, radiusKm)
	if err != nil {
		return nil, MapError(err, "tour")
	}
	return tours, nil
}

// Distances reports every located tour's distance from the reference point,
// nearest first, in kilometers.
func (r *tourRepo) Distances(ctx context.Context, lat, lng float64) ([]model.TourDistance, error) {
	var distances []model.TourDistance
	err := r.db.SelectContext(ctx, &distances, `
		SELECT id, name, `+haversineSQL+` AS distance
		FROM tours
		WHERE start_lat IS NOT NULL AND NOT secret_tour
		ORDER BY distance ASC
	`, lat, lng)
	if err != nil {
		return nil, MapError(err, "tour")
	}
	return distances, nil
}
