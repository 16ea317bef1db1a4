package model

import (
	"strings"
	"time"

	"github.com/lib/pq"

	apperrors "github.com/trailhead/tours-server-go/internal/errors"
)

type Tour struct {
	ID              string         `db:"id" json:"id"`
	Name            string         `db:"name" json:"name"`
	Slug            string         `db:"slug" json:"slug,omitempty"`
	Duration        int            `db:"duration" json:"duration"`
	MaxGroupSize    int            `db:"max_group_size" json:"maxGroupSize"`
	Difficulty      Difficulty     `db:"difficulty" json:"difficulty"`
	RatingsAverage  float64        `db:"ratings_average" json:"ratingsAverage"`
	RatingsQuantity int            `db:"ratings_quantity" json:"ratingsQuantity"`
	Price           float64        `db:"price" json:"price"`
	PriceDiscount   *float64       `db:"price_discount" json:"priceDiscount,omitempty"`
	Summary         string         `db:"summary" json:"summary"`
	Description     *string        `db:"description" json:"description,omitempty"`
	ImageCover      string         `db:"image_cover" json:"imageCover,omitempty"`
	Images          pq.StringArray `db:"images" json:"images,omitempty"`
	StartDates      pq.StringArray `db:"start_dates" json:"startDates,omitempty"`
	SecretTour      bool           `db:"secret_tour" json:"-"`
	StartLat        *float64       `db:"start_lat" json:"startLat,omitempty"`
	StartLng        *float64       `db:"start_lng" json:"startLng,omitempty"`
	CreatedAt       time.Time      `db:"created_at" json:"createdAt"`
	// RowVersion is internal bookkeeping and excluded from default projections.
	RowVersion int `db:"row_version" json:"-"`

	// Reviews is populated on single-tour fetches only.
	Reviews []Review `db:"-" json:"reviews,omitempty"`
}

type CreateTourParams struct {
	Name          string      `json:"name"`
	Duration      int         `json:"duration"`
	MaxGroupSize  int         `json:"maxGroupSize"`
	Difficulty    Difficulty  `json:"difficulty"`
	Price         float64     `json:"price"`
	PriceDiscount *float64    `json:"priceDiscount"`
	Summary       string      `json:"summary"`
	Description   *string     `json:"description"`
	ImageCover    string      `json:"imageCover"`
	Images        []string    `json:"images"`
	StartDates    []time.Time `json:"startDates"`
	SecretTour    bool        `json:"secretTour"`
	StartLat      *float64    `json:"startLat"`
	StartLng      *float64    `json:"startLng"`
}

func (p *CreateTourParams) Validate() error {
	if p.Name == "" {
		return apperrors.ValidationError("A tour must have a name")
	}
	if len(p.Name) < 10 || len(p.Name) > 40 {
		return apperrors.ValidationError("A tour name must have between 10 and 40 characters")
	}
	if p.Duration <= 0 {
		return apperrors.ValidationError("A tour must have a duration")
	}
	if p.MaxGroupSize <= 0 {
		return apperrors.ValidationError("A tour must have a group size")
	}
	if !p.Difficulty.Valid() {
		return apperrors.ValidationError("Difficulty is either: easy, medium, difficult")
	}
	if p.Price <= 0 {
		return apperrors.ValidationError("A tour must have a price")
	}
	if p.PriceDiscount != nil && *p.PriceDiscount >= p.Price {
		return apperrors.ValidationError("Discount price should be below regular price")
	}
	if p.Summary == "" {
		return apperrors.ValidationError("A tour must have a summary")
	}
	if p.ImageCover == "" {
		return apperrors.ValidationError("A tour must have a cover image")
	}
	if (p.StartLat == nil) != (p.StartLng == nil) {
		return apperrors.ValidationError("A start location needs both a latitude and a longitude")
	}
	if p.StartLat != nil && (*p.StartLat < -90 || *p.StartLat > 90 || *p.StartLng < -180 || *p.StartLng > 180) {
		return apperrors.ValidationError("Start location coordinates are out of range")
	}
	return nil
}

// Slugify derives the URL slug from the tour name.
func (p *CreateTourParams) Slugify() string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(p.Name)), " ", "-")
}

type UpdateTourParams struct {
	Name          *string      `json:"name"`
	Duration      *int         `json:"duration"`
	MaxGroupSize  *int         `json:"maxGroupSize"`
	Difficulty    *Difficulty  `json:"difficulty"`
	Price         *float64     `json:"price"`
	PriceDiscount *float64     `json:"priceDiscount"`
	Summary       *string      `json:"summary"`
	Description   *string      `json:"description"`
	ImageCover    *string      `json:"imageCover"`
	Images        *[]string    `json:"images"`
	StartDates    *[]time.Time `json:"startDates"`
	SecretTour    *bool        `json:"secretTour"`
	StartLat      *float64     `json:"startLat"`
	StartLng      *float64     `json:"startLng"`
}

// Validate re-runs the creation rules on whichever fields are present.
func (p *UpdateTourParams) Validate() error {
	if p.Name != nil && (len(*p.Name) < 10 || len(*p.Name) > 40) {
		return apperrors.ValidationError("A tour name must have between 10 and 40 characters")
	}
	if p.Duration != nil && *p.Duration <= 0 {
		return apperrors.ValidationError("A tour must have a duration")
	}
	if p.MaxGroupSize != nil && *p.MaxGroupSize <= 0 {
		return apperrors.ValidationError("A tour must have a group size")
	}
	if p.Difficulty != nil && !p.Difficulty.Valid() {
		return apperrors.ValidationError("Difficulty is either: easy, medium, difficult")
	}
	if p.Price != nil && *p.Price <= 0 {
		return apperrors.ValidationError("A tour must have a price")
	}
	if p.PriceDiscount != nil && p.Price != nil && *p.PriceDiscount >= *p.Price {
		return apperrors.ValidationError("Discount price should be below regular price")
	}
	return nil
}

// TourStats is one aggregate row of the per-difficulty stats report.
type TourStats struct {
	Difficulty Difficulty `db:"difficulty" json:"difficulty"`
	NumTours   int        `db:"num_tours" json:"numTours"`
	NumRatings int        `db:"num_ratings" json:"numRatings"`
	AvgRating  float64    `db:"avg_rating" json:"avgRating"`
	AvgPrice   float64    `db:"avg_price" json:"avgPrice"`
	MinPrice   float64    `db:"min_price" json:"minPrice"`
	MaxPrice   float64    `db:"max_price" json:"maxPrice"`
}

// MonthlyPlanEntry counts tour starts for one month of a year.
type MonthlyPlanEntry struct {
	Month         int            `db:"month" json:"month"`
	NumTourStarts int            `db:"num_tour_starts" json:"numTourStarts"`
	Tours         pq.StringArray `db:"tours" json:"tours"`
}

// TourDistance pairs a tour with its distance from a reference point.
type TourDistance struct {
	ID       string  `db:"id" json:"id"`
	Name     string  `db:"name" json:"name"`
	Distance float64 `db:"distance" json:"distance"`
}
