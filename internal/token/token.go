// Package token issues and verifies the two token kinds of the auth
// lifecycle: signed stateless session tokens, and random single-use
// password-reset tokens stored only as one-way hashes.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/trailhead/tours-server-go/internal/config"
	apperrors "github.com/trailhead/tours-server-go/internal/errors"
	"github.com/trailhead/tours-server-go/internal/util"
)

// Claims is the verified payload of a session token.
type Claims struct {
	UserID   string
	IssuedAt time.Time
}

// Service signs and verifies session tokens with a server secret and a
// fixed time-to-live.
type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewService(secret string, ttl time.Duration) *Service {
	return &Service{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue encodes the principal id and the current time into a signed token.
func (s *Service) Issue(userID string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, shape and expiry. All failures surface as an
// authentication condition, never as a generic internal error.
func (s *Service) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.TokenExpired()
		}
		return nil, apperrors.InvalidToken("Invalid token. Please log in again").WithCause(err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid || claims.Subject == "" || claims.IssuedAt == nil {
		return nil, apperrors.InvalidToken("Invalid token. Please log in again")
	}

	return &Claims{
		UserID:   claims.Subject,
		IssuedAt: claims.IssuedAt.Time,
	}, nil
}

// ResetToken carries the plain token sent out-of-band and the hash that
// gets persisted instead.
type ResetToken struct {
	Plain     string
	Hash      string
	ExpiresAt time.Time
}

// IssueResetToken creates a fresh high-entropy reset token valid for ten
// minutes.
func (s *Service) IssueResetToken() (*ResetToken, error) {
	plain, err := util.GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("generate reset token: %w", err)
	}
	return &ResetToken{
		Plain:     plain,
		Hash:      util.HashToken(plain),
		ExpiresAt: s.now().Add(config.ResetTokenTTL),
	}, nil
}
