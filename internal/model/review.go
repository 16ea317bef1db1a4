package model

import (
	"time"

	apperrors "github.com/trailhead/tours-server-go/internal/errors"
)

// Review belongs to a tour and an author. Reads join the author's name and
// photo and the tour name.
type Review struct {
	ID        string    `db:"id" json:"id"`
	TourID    string    `db:"tour_id" json:"tourId"`
	UserID    string    `db:"user_id" json:"userId"`
	Review    string    `db:"review" json:"review"`
	Rating    int       `db:"rating" json:"rating"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`

	UserName  *string `db:"user_name" json:"userName,omitempty"`
	UserPhoto *string `db:"user_photo" json:"userPhoto,omitempty"`
	TourName  *string `db:"tour_name" json:"tourName,omitempty"`
}

type CreateReviewParams struct {
	TourID string `json:"tourId"`
	UserID string `json:"userId"`
	Review string `json:"review"`
	Rating int    `json:"rating"`
}

func (p *CreateReviewParams) Validate() error {
	if p.TourID == "" {
		return apperrors.ValidationError("Review must belong to a tour")
	}
	if p.UserID == "" {
		return apperrors.ValidationError("Review must be created by a user")
	}
	if len(p.Review) < 10 || len(p.Review) > 500 {
		return apperrors.ValidationError("Review should contain between 10 and 500 characters")
	}
	if p.Rating < 1 || p.Rating > 5 {
		return apperrors.ValidationError("Rating must be between 1 and 5")
	}
	return nil
}

type UpdateReviewParams struct {
	Review *string `json:"review"`
	Rating *int    `json:"rating"`
}

func (p *UpdateReviewParams) Validate() error {
	if p.Review != nil && (len(*p.Review) < 10 || len(*p.Review) > 500) {
		return apperrors.ValidationError("Review should contain between 10 and 500 characters")
	}
	if p.Rating != nil && (*p.Rating < 1 || *p.Rating > 5) {
		return apperrors.ValidationError("Rating must be between 1 and 5")
	}
	return nil
}
