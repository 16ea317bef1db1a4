package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/trailhead/tours-server-go/internal/database"
	"github.com/trailhead/tours-server-go/internal/model"
	"github.com/trailhead/tours-server-go/internal/query"
)

type UserRepository interface {
	Collection[model.User, model.CreateUserParams, model.UpdateUserParams]
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByResetTokenHash(ctx context.Context, hash string) (*model.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string, changedAt time.Time) (*model.User, error)
	SetResetToken(ctx context.Context, id, hash string, expiresAt time.Time) error
	ClearResetToken(ctx context.Context, id string) error
	Deactivate(ctx context.Context, id string) (*model.User, error)
	ClearExpiredResetTokens(ctx context.Context) (int64, error)
}

// UserSpec is the queryable-collection description for users. The password
// and reset-token columns are deliberately unmapped so they can never be
// filtered, sorted or projected.
var UserSpec = query.Spec{
	Table:    "users",
	IDColumn: "id",
	Columns: []query.Column{
		{Field: "id", Column: "id"},
		{Field: "name", Column: "name"},
		{Field: "email", Column: "email"},
		{Field: "role", Column: "role"},
		{Field: "photo", Column: "photo"},
		{Field: "createdAt", Column: "created_at"},
		{Field: "updatedAt", Column: "updated_at"},
	},
	Bookkeeping: "updatedAt",
	DefaultSort: []query.SortField{{Field: "createdAt", Desc: true}},
}

type userRepo struct {
	collection[model.User]
}

func NewUserRepository(db database.DBTX) UserRepository {
	return &userRepo{collection[model.User]{db: db, resource: "user", spec: UserSpec, readFilter: "active"}}
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		SELECT * FROM users WHERE email = $1 AND active
	`, email)
	return HandleNotFound(&user, err)
}

func (r *userRepo) FindByResetTokenHash(ctx context.Context, hash string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		SELECT * FROM users
		WHERE reset_token_hash = $1 AND reset_token_expires_at > NOW() AND active
	`, hash)
	return HandleNotFound(&user, err)
}

func (r *userRepo) Create(ctx context.Context, params model.CreateUserParams) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		INSERT INTO users (id, name, email, role, password_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *
	`, uuid.NewString(), params.Name, params.Email, params.Role, params.PasswordHash)
	if err != nil {
		return nil, MapError(err, "user")
	}
	return &user, nil
}

func (r *userRepo) UpdateByID(ctx context.Context, id string, params model.UpdateUserParams) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		UPDATE users SET
			name = COALESCE($2, name),
			email = COALESCE($3, email),
			role = COALESCE($4, role),
			photo = COALESCE($5, photo),
			updated_at = $6
		WHERE id = $1
		RETURNING *
	`, id, params.Name, params.Email, params.Role, params.Photo, time.Now())
	updated, err := HandleNotFound(&user, err)
	if err != nil {
		return nil, MapError(err, "user")
	}
	return updated, nil
}

// UpdatePassword sets a new credential hash. changedAt is deliberately a
// moment strictly before token issuance so a token minted right after the
// save is not rejected.
func (r *userRepo) UpdatePassword(ctx context.Context, id, passwordHash string, changedAt time.Time) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		UPDATE users SET
			password_hash = $2,
			password_changed_at = $3,
			reset_token_hash = NULL,
			reset_token_expires_at = NULL,
			updated_at = NOW()
		WHERE id = $1
		RETURNING *
	`, id, passwordHash, changedAt)
	if err != nil {
		return nil, MapError(err, "user")
	}
	return &user, nil
}

func (r *userRepo) SetResetToken(ctx context.Context, id, hash string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET reset_token_hash = $2, reset_token_expires_at = $3, updated_at = NOW()
		WHERE id = $1
	`, id, hash, expiresAt)
	return MapError(err, "user")
}

func (r *userRepo) ClearResetToken(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET reset_token_hash = NULL, reset_token_expires_at = NULL, updated_at = NOW()
		WHERE id = $1
	`, id)
	return MapError(err, "user")
}

// Deactivate soft-deletes: the account disappears from reads but the row
// stays.
func (r *userRepo) Deactivate(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, `
		UPDATE users SET active = FALSE, updated_at = NOW()
		WHERE id = $1
		RETURNING *
	`, id)
	return HandleNotFound(&user, err)
}

func (r *userRepo) ClearExpiredResetTokens(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET reset_token_hash = NULL, reset_token_expires_at = NULL
		WHERE reset_token_expires_at IS NOT NULL AND reset_token_expires_at <= NOW()
	`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
