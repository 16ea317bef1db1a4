package model

import (
	"strings"
	"time"

	apperrors "github.com/trailhead/tours-server-go/internal/errors"
)

// User is the principal behind an authenticated request. The password hash
// and reset-token fields never serialize outward; the reset-token hash and
// its expiry are always both set or both cleared.
type User struct {
	ID                string     `db:"id" json:"id"`
	Name              string     `db:"name" json:"name"`
	Email             string     `db:"email" json:"email"`
	Role              Role       `db:"role" json:"role"`
	Active            bool       `db:"active" json:"-"`
	Photo             *string    `db:"photo" json:"photo,omitempty"`
	PasswordHash      string     `db:"password_hash" json:"-"`
	PasswordChangedAt *time.Time `db:"password_changed_at" json:"-"`
	ResetTokenHash    *string    `db:"reset_token_hash" json:"-"`
	ResetTokenExpires *time.Time `db:"reset_token_expires_at" json:"-"`
	CreatedAt         time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updatedAt"`
}

// ChangedPasswordAfter reports whether the password was changed after the
// given token-issuance time. Tokens issued before a change are rejected.
func (u *User) ChangedPasswordAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return u.PasswordChangedAt.After(issuedAt)
}

type CreateUserParams struct {
	Name         string
	Email        string
	PasswordHash string
	Role         Role
}

func (p *CreateUserParams) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return apperrors.MissingRequired("name")
	}
	if p.Email == "" {
		return apperrors.MissingRequired("email")
	}
	if !strings.Contains(p.Email, "@") {
		return apperrors.InvalidInput("email", "not a valid email address")
	}
	if !p.Role.Valid() {
		return apperrors.InvalidInput("role", "must be one of user, guide, lead-guide, admin")
	}
	return nil
}

type UpdateUserParams struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Role  *Role   `json:"role"`
	Photo *string `json:"photo"`
}

func (p *UpdateUserParams) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return apperrors.MissingRequired("name")
	}
	if p.Email != nil {
		// Emails are stored lowercase; normalizing here keeps the unique
		// index case-insensitive on every write path.
		normalized := strings.ToLower(strings.TrimSpace(*p.Email))
		p.Email = &normalized
		if !strings.Contains(normalized, "@") {
			return apperrors.InvalidInput("email", "not a valid email address")
		}
	}
	if p.Role != nil && !p.Role.Valid() {
		return apperrors.InvalidInput("role", "must be one of user, guide, lead-guide, admin")
	}
	return nil
}
