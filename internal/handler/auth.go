package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/trailhead/tours-server-go/internal/errors"
	"github.com/trailhead/tours-server-go/internal/httputil"
	"github.com/trailhead/tours-server-go/internal/middleware"
	"github.com/trailhead/tours-server-go/internal/service"
)

type AuthHandler struct {
	auth          *service.AuthService
	authmw        *middleware.AuthMiddleware
	norm          *httputil.Normalizer
	carrier       string
	cookieTTL     time.Duration
	secureCookies bool
}

func NewAuthHandler(
	auth *service.AuthService,
	authmw *middleware.AuthMiddleware,
	norm *httputil.Normalizer,
	carrier string,
	cookieTTL time.Duration,
	secureCookies bool,
) *AuthHandler {
	return &AuthHandler{
		auth:          auth,
		authmw:        authmw,
		norm:          norm,
		carrier:       carrier,
		cookieTTL:     cookieTTL,
		secureCookies: secureCookies,
	}
}

func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/signup", h.Signup)
	r.Post("/login", h.Login)
	r.Post("/forgot-password", h.ForgotPassword)
	r.Patch("/reset-password/{token}", h.ResetPassword)

	r.With(h.authmw.Protect).Patch("/update-password", h.UpdatePassword)

	return r
}

// sendToken writes the logged-in envelope, setting the session cookie when
// that is the configured carrier.
func (h *AuthHandler) sendToken(w http.ResponseWriter, status int, result *service.AuthResult) {
	if h.carrier == "cookie" {
		setSessionCookie(w, result.Token, h.cookieTTL, h.secureCookies)
	}

	writeJSON(w, status, map[string]any{
		"status": "success",
		"token":  result.Token,
		"data":   map[string]any{"user": result.User},
	})
}

// POST /auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var params service.SignupParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		h.norm.WriteError(w, apperrors.ValidationError("Invalid JSON body").WithCause(err))
		return
	}

	result, err := h.auth.Signup(r.Context(), params)
	if err != nil {
		h.norm.WriteError(w, err)
		return
	}

	h.sendToken(w, http.StatusCreated, result)
}

// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.norm.WriteError(w, apperrors.ValidationError("Invalid JSON body").WithCause(err))
		return
	}

	result, err := h.auth.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		h.norm.WriteError(w, err)
		return
	}

	h.sendToken(w, http.StatusOK, result)
}

// POST /auth/forgot-password
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.norm.WriteError(w, apperrors.ValidationError("Invalid JSON body").WithCause(err))
		return
	}

	scheme := "https"
	if r.TLS == nil {
		scheme = "http"
	}
	resetURLBase := fmt.Sprintf("%s://%s/api/v1/auth/reset-password", scheme, r.Host)

	if err := h.auth.ForgotPassword(r.Context(), body.Email, resetURLBase); err != nil {
		h.norm.WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Token sent to email",
	})
}

// PATCH /auth/reset-password/{token}
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.norm.WriteError(w, apperrors.ValidationError("Invalid JSON body").WithCause(err))
		return
	}

	result, err := h.auth.ResetPassword(r.Context(), chi.URLParam(r, "token"), body.Password)
	if err != nil {
		h.norm.WriteError(w, err)
		return
	}

	h.sendToken(w, http.StatusOK, result)
}

// PATCH /auth/update-password
func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetPrincipal(r.Context())
	if user == nil {
		h.norm.WriteError(w, apperrors.Unauthorized("You are not logged in. Please log in to get access"))
		return
	}

	var body struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.norm.WriteError(w, apperrors.ValidationError("Invalid JSON body").WithCause(err))
		return
	}

	result, err := h.auth.UpdatePassword(r.Context(), user.ID, body.CurrentPassword, body.NewPassword)
	if err != nil {
		h.norm.WriteError(w, err)
		return
	}

	h.sendToken(w, http.StatusOK, result)
}
