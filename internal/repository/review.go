package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/trailhead/tours-server-go/internal/database"
	"github.com/trailhead/tours-server-go/internal/model"
	"github.com/trailhead/tours-server-go/internal/query"
	"github.com/trailhead/tours-server-go/internal/util"
)

type ReviewRepository interface {
	Collection[model.Review, model.CreateReviewParams, model.UpdateReviewParams]
	FindByTour(ctx context.Context, tourID string, limit int) ([]model.Review, error)
}

// ReviewSpec queries the join of reviews with their author and tour, so
// list responses carry the author name/photo and tour name without a second
// round trip.
var ReviewSpec = query.Spec{
	Table:    "reviews r LEFT JOIN users u ON u.id = r.user_id LEFT JOIN tours t ON t.id = r.tour_id",
	IDColumn: "r.id",
	Columns: []query.Column{
		{Field: "id", Column: "r.id"},
		{Field: "tour", Column: "r.tour_id"},
		{Field: "user", Column: "r.user_id"},
		{Field: "review", Column: "r.review"},
		{Field: "rating", Column: "r.rating"},
		{Field: "createdAt", Column: "r.created_at"},
		{Field: "userName", Column: "u.name AS user_name"},
		{Field: "userPhoto", Column: "u.photo AS user_photo"},
		{Field: "tourName", Column: "t.name AS tour_name"},
	},
	DefaultSort: []query.SortField{{Field: "createdAt", Desc: true}},
}

type reviewRepo struct {
	collection[model.Review]
}

func NewReviewRepository(db database.DBTX) ReviewRepository {
	return &reviewRepo{collection[model.Review]{db: db, resource: "review", spec: ReviewSpec}}
}

const reviewSelect = `
	SELECT r.id, r.tour_id, r.user_id, r.review, r.rating, r.created_at,
	       u.name AS user_name, u.photo AS user_photo, t.name AS tour_name
	FROM reviews r
	LEFT JOIN users u ON u.id = r.user_id
	LEFT JOIN tours t ON t.id = r.tour_id
`

func (r *reviewRepo) FindByID(ctx context.Context, id string) (*model.Review, error) {
	if !util.IsValidUUID(id) {
		return nil, nil
	}
	var review model.Review
	err := r.db.GetContext(ctx, &review, reviewSelect+` WHERE r.id = $1`, id)
	return HandleNotFound(&review, err)
}

func (r *reviewRepo) FindByTour(ctx context.Context, tourID string, limit int) ([]model.Review, error) {
	var reviews []model.Review
	err := r.db.SelectContext(ctx, &reviews,
		reviewSelect+` WHERE r.tour_id = $1 ORDER BY r.created_at DESC LIMIT $2`,
		tourID, limit)
	if err != nil {
		return nil, MapError(err, "review")
	}
	return reviews, nil
}

func (r *reviewRepo) Create(ctx context.Context, params model.CreateReviewParams) (*model.Review, error) {
	var id string
	err := r.db.GetContext(ctx, &id, `
		INSERT INTO reviews (id, tour_id, user_id, review, rating)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, uuid.NewString(), params.TourID, params.UserID, params.Review, params.Rating)
	if err != nil {
		return nil, MapError(err, "review")
	}
	return r.FindByID(ctx, id)
}

func (r *reviewRepo) UpdateByID(ctx context.Context, id string, params model.UpdateReviewParams) (*model.Review, error) {
	if !util.IsValidUUID(id) {
		return nil, nil
	}
	var updatedID string
	err := r.db.GetContext(ctx, &updatedID, `
		UPDATE reviews SET
			review = COALESCE($2, review),
			rating = COALESCE($3, rating)
		WHERE id = $1
		RETURNING id
	`, id, params.Review, params.Rating)
	found, err := HandleNotFound(&updatedID, err)
	if err != nil {
		return nil, MapError(err, "review")
	}
	if found == nil {
		return nil, nil
	}
	return r.FindByID(ctx, id)
}

func (r *reviewRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	if !util.IsValidUUID(id) {
		return false, nil
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return false, MapError(err, "review")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, MapError(err, "review")
	}
	return n > 0, nil
}
