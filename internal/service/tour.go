package service

import (
	"context"

	apperrors "github.com/trailhead/tours-server-go/internal/errors"
	"github.com/trailhead/tours-server-go/internal/model"
	"github.com/trailhead/tours-server-go/internal/repository"
)

type TourService struct {
	tours repository.TourRepository
}

func NewTourService(tours repository.TourRepository) *TourService {
	return &TourService{tours: tours}
}

// Stats reports per-difficulty aggregates over well-rated tours.
func (s *TourService) Stats(ctx context.Context) ([]model.TourStats, error) {
	return s.tours.Stats(ctx)
}

// MonthlyPlan counts tour starts per month of a year.
func (s *TourService) MonthlyPlan(ctx context.Context, year int) ([]model.MonthlyPlanEntry, error) {
	if year < 1900 || year > 2200 {
		return nil, apperrors.InvalidInput("year", "must be a four-digit year")
	}
	return s.tours.MonthlyPlan(ctx, year)
}

const milesPerKm = 0.621371

// ToursWithin lists tours starting within the given radius of a point.
// Radius is in the requested unit, "mi" or "km".
func (s *TourService) ToursWithin(ctx context.Context, lat, lng, radius float64, unit string) ([]model.Tour, error) {
	if radius <= 0 {
		return nil, apperrors.InvalidInput("distance", "must be a positive number")
	}
	radiusKm, err := toKilometers(radius, unit)
	if err != nil {
		return nil, err
	}
	return s.tours.FindWithin(ctx, lat, lng, radiusKm)
}

// Distances reports each tour's distance from a point in the requested
// unit, nearest first.
func (s *TourService) Distances(ctx context.Context, lat, lng float64, unit string) ([]model.TourDistance, error) {
	distances, err := s.tours.Distances(ctx, lat, lng)
	if err != nil {
		return nil, err
	}
	if unit == "mi" {
		for i := range distances {
			distances[i].Distance *= milesPerKm
		}
	} else if unit != "km" {
		return nil, apperrors.InvalidInput("unit", "must be mi or km")
	}
	return distances, nil
}

func toKilometers(distance float64, unit string) (float64, error) {
	switch unit {
	case "km":
		return distance, nil
	case "mi":
		return distance / milesPerKm, nil
	default:
		return 0, apperrors.InvalidInput("unit", "must be mi or km")
	}
}
