package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/trailhead/tours-server-go/internal/audit"
	apperrors "github.com/trailhead/tours-server-go/internal/errors"
	"github.com/trailhead/tours-server-go/internal/mail"
	"github.com/trailhead/tours-server-go/internal/model"
	"github.com/trailhead/tours-server-go/internal/token"
	"github.com/trailhead/tours-server-go/internal/util"
)

const minPasswordLength = 8

// AuthUserStore is the slice of the user repository the auth flows need.
type AuthUserStore interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByResetTokenHash(ctx context.Context, hash string) (*model.User, error)
	Create(ctx context.Context, params model.CreateUserParams) (*model.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string, changedAt time.Time) (*model.User, error)
	SetResetToken(ctx context.Context, id, hash string, expiresAt time.Time) error
	ClearResetToken(ctx context.Context, id string) error
}

type AuthService struct {
	users      AuthUserStore
	tokens     *token.Service
	mailer     mail.Mailer
	bcryptCost int
}

func NewAuthService(users AuthUserStore, tokens *token.Service, mailer mail.Mailer, bcryptCost int) *AuthService {
	return &AuthService{
		users:      users,
		tokens:     tokens,
		mailer:     mailer,
		bcryptCost: bcryptCost,
	}
}

// AuthResult bundles the principal and a fresh session token.
type AuthResult struct {
	User  *model.User
	Token string
}

type SignupParams struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Signup creates an account from an explicit field whitelist and logs the
// user in. The password is hashed before anything touches the store.
func (s *AuthService) Signup(ctx context.Context, params SignupParams) (*AuthResult, error) {
	if err := validatePassword(params.Password); err != nil {
		return nil, err
	}

	role := model.Role(params.Role)
	if role == "" {
		role = model.RoleUser
	}

	createParams := model.CreateUserParams{
		Name:  params.Name,
		Email: strings.ToLower(strings.TrimSpace(params.Email)),
		Role:  role,
	}

	hash, err := util.HashPassword(params.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	createParams.PasswordHash = hash

	if err := createParams.Validate(); err != nil {
		return nil, err
	}

	user, err := s.users.Create(ctx, createParams)
	if err != nil {
		return nil, err
	}

	signed, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	audit.Log(audit.Event{Type: audit.EventSignup, UserID: user.ID, Email: user.Email})

	return &AuthResult{User: user, Token: signed}, nil
}

// Login verifies credentials and issues a session token. Wrong email and
// wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if email == "" || password == "" {
		return nil, apperrors.ValidationError("Please provide email and password")
	}

	user, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}

	if user == nil || !util.CheckPasswordHash(password, user.PasswordHash) {
		audit.Log(audit.Event{Type: audit.EventLoginFailure, Email: email})
		return nil, apperrors.Unauthorized("Incorrect email or password")
	}

	signed, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	audit.Log(audit.Event{Type: audit.EventLoginSuccess, UserID: user.ID, Email: user.Email})

	return &AuthResult{User: user, Token: signed}, nil
}

// ForgotPassword issues a reset token, persists only its hash, and mails
// the plain token. A failed delivery rolls the token back so no dangling
// valid token nobody received survives.
func (s *AuthService) ForgotPassword(ctx context.Context, email, resetURLBase string) error {
	user, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return err
	}
	if user == nil {
		return apperrors.New(apperrors.ErrCodeNotFound, "There is no user with that email address")
	}

	reset, err := s.tokens.IssueResetToken()
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}

	if err := s.users.SetResetToken(ctx, user.ID, reset.Hash, reset.ExpiresAt); err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/%s", strings.TrimRight(resetURLBase, "/"), reset.Plain)
	msg := mail.Message{
		To:      user.Email,
		Subject: "Your password reset token (valid for 10 minutes)",
		Body: fmt.Sprintf(
			"Forgot your password? Submit a PATCH request with your new password to: %s\nIf you didn't forget your password, please ignore this email.",
			resetURL),
	}

	if err := s.mailer.Send(ctx, msg); err != nil {
		if clearErr := s.users.ClearResetToken(ctx, user.ID); clearErr != nil {
			log.Error().Err(clearErr).Str("userId", user.ID).Msg("failed to roll back reset token")
		}
		if apperrors.IsAppError(err) {
			return err
		}
		return apperrors.DeliveryFailed(err)
	}

	audit.Log(audit.Event{Type: audit.EventPasswordForgot, UserID: user.ID, Email: user.Email})

	return nil
}

// ResetPassword consumes a reset token. The password-changed timestamp is
// set one second in the past so the session token issued right after is not
// rejected by the changed-after check.
func (s *AuthService) ResetPassword(ctx context.Context, plainToken, newPassword string) (*AuthResult, error) {
	if err := validatePassword(newPassword); err != nil {
		return nil, err
	}

	user, err := s.users.FindByResetTokenHash(ctx, util.HashToken(plainToken))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.ValidationError("Token is invalid or has expired")
	}

	hash, err := util.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	updated, err := s.users.UpdatePassword(ctx, user.ID, hash, time.Now().Add(-time.Second))
	if err != nil {
		return nil, err
	}

	signed, err := s.tokens.Issue(updated.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	audit.Log(audit.Event{Type: audit.EventPasswordReset, UserID: updated.ID, Email: updated.Email})

	return &AuthResult{User: updated, Token: signed}, nil
}

// UpdatePassword changes the password of a logged-in user after verifying
// the current one.
func (s *AuthService) UpdatePassword(ctx context.Context, userID, currentPassword, newPassword string) (*AuthResult, error) {
	if currentPassword == "" || newPassword == "" {
		return nil, apperrors.ValidationError("Please provide your current and new password")
	}
	if err := validatePassword(newPassword); err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.Unauthorized("The user belonging to this token no longer exists")
	}

	if !util.CheckPasswordHash(currentPassword, user.PasswordHash) {
		return nil, apperrors.ValidationError("Your current password is not correct")
	}
	if currentPassword == newPassword {
		return nil, apperrors.ValidationError("New password should be different from the old one")
	}

	hash, err := util.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	updated, err := s.users.UpdatePassword(ctx, user.ID, hash, time.Now().Add(-time.Second))
	if err != nil {
		return nil, err
	}

	signed, err := s.tokens.Issue(updated.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	audit.Log(audit.Event{Type: audit.EventPasswordChange, UserID: updated.ID, Email: updated.Email})

	return &AuthResult{User: updated, Token: signed}, nil
}

func validatePassword(password string) error {
	if password == "" {
		return apperrors.MissingRequired("password")
	}
	if len(password) < minPasswordLength {
		return apperrors.ValidationError("Password must be at least 8 characters")
	}
	return nil
}
