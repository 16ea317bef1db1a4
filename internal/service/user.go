package service

import (
	"context"

	"github.com/trailhead/tours-server-go/internal/audit"
	apperrors "github.com/trailhead/tours-server-go/internal/errors"
	"github.com/trailhead/tours-server-go/internal/model"
	"github.com/trailhead/tours-server-go/internal/repository"
)

type UserService struct {
	users repository.UserRepository
}

func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users}
}

// UpdateMeParams is the self-service whitelist: only name and email.
// Password updates have their own route; anything password-shaped here is
// rejected rather than ignored.
type UpdateMeParams struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

func (s *UserService) UpdateMe(ctx context.Context, userID string, params UpdateMeParams) (*model.User, error) {
	if params.Password != nil {
		return nil, apperrors.ValidationError("This route is not for password updates. Please use /auth/update-password")
	}

	update := model.UpdateUserParams{Name: params.Name, Email: params.Email}
	if err := update.Validate(); err != nil {
		return nil, err
	}

	user, err := s.users.UpdateByID(ctx, userID, update)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NotFound("user")
	}
	return user, nil
}

// DeleteMe soft-deletes: the account is marked inactive and vanishes from
// reads, but the row stays.
func (s *UserService) DeleteMe(ctx context.Context, userID string) error {
	user, err := s.users.Deactivate(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return apperrors.NotFound("user")
	}

	audit.Log(audit.Event{Type: audit.EventAccountDelete, UserID: userID})
	return nil
}
