package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	apperrors "github.com/trailhead/tours-server-go/internal/errors"
	"github.com/trailhead/tours-server-go/internal/httputil"
	"github.com/trailhead/tours-server-go/internal/model"
	"github.com/trailhead/tours-server-go/internal/token"
)

type contextKey string

const PrincipalContextKey contextKey = "principal"

// SessionCookieName is the cookie carrying the session token when the
// carrier is "cookie".
const SessionCookieName = "jwt"

// GetPrincipal returns the authenticated user attached to the request
// context, or nil on unauthenticated requests.
func GetPrincipal(ctx context.Context) *model.User {
	if user, ok := ctx.Value(PrincipalContextKey).(*model.User); ok {
		return user
	}
	return nil
}

// PrincipalStore is the narrow lookup the middleware needs.
type PrincipalStore interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

type AuthMiddleware struct {
	tokens  *token.Service
	users   PrincipalStore
	carrier string
	norm    *httputil.Normalizer
}

func NewAuthMiddleware(tokens *token.Service, users PrincipalStore, carrier string, norm *httputil.Normalizer) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users, carrier: carrier, norm: norm}
}

// Protect authenticates the request: extract token, verify, resolve the
// principal, reject tokens issued before the last password change, then
// attach the principal to the request context.
func (m *AuthMiddleware) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := m.extractToken(r)
		if tok == "" {
			m.norm.WriteError(w, apperrors.Unauthorized("You are not logged in. Please log in to get access"))
			return
		}

		claims, err := m.tokens.Verify(tok)
		if err != nil {
			m.norm.WriteError(w, err)
			return
		}

		user, err := m.users.FindByID(r.Context(), claims.UserID)
		if err != nil {
			log.Error().Err(err).Msg("auth middleware: principal lookup failed")
			m.norm.WriteError(w, apperrors.Database(err))
			return
		}

		if user == nil || !user.Active {
			m.norm.WriteError(w, apperrors.Unauthorized("The user belonging to this token no longer exists"))
			return
		}

		if user.ChangedPasswordAfter(claims.IssuedAt) {
			m.norm.WriteError(w, apperrors.Unauthorized("Password was recently changed. Please log in again"))
			return
		}

		ctx := context.WithValue(r.Context(), PrincipalContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) extractToken(r *http.Request) string {
	if m.carrier == "cookie" {
		if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
			return cookie.Value
		}
		return ""
	}

	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// RequireRoles is the composable role-restriction step. It must run after
// Protect; a missing principal is a programming error and rejects.
func (m *AuthMiddleware) RequireRoles(roles ...model.Role) func(http.Handler) http.Handler {
	allowed := make(map[model.Role]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetPrincipal(r.Context())
			if user == nil {
				m.norm.WriteError(w, apperrors.Unauthorized("You are not logged in. Please log in to get access"))
				return
			}
			if !allowed[user.Role] {
				m.norm.WriteError(w, apperrors.Forbidden("You do not have permission to perform this action"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
