package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lmsplatform/backend/internal/models"
	"github.com/lmsplatform/backend/libs/handlers"
	"go.uber.org/zap"
)

// AuthService is the interface that wraps methods for registration and login
type AuthService interface {
	// Method Register creates a new account.
	//
	// If the email is taken, an error wrapping models.ErrConflict will be returned together with nil.
	// If the request is invalid, an error wrapping models.ErrValidation will be returned together with nil.
	Register(ctx context.Context, req *models.RegisterRequest) (*models.UserResponse, error)
	// Method Login checks credentials and issues an access token.
	//
	// If the credentials are wrong, an error wrapping models.ErrUnauthorized will be returned together with nil.
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)
	// Method GetUserByEmail returns the public view of a user.
	//
	// If user not found, an error wrapping models.ErrNotFound will be returned together with nil.
	GetUserByEmail(ctx context.Context, email string) (*models.UserResponse, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	handlers.BaseHandler
	authService AuthService
	tokenTTL    time.Duration
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService AuthService, logger *zap.Logger, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		BaseHandler: handlers.BaseHandler{Logger: logger},
		authService: authService,
		tokenTTL:    tokenTTL,
	}
}

// RegisterRoutes registers auth routes; user lookup requires authentication
func (h *AuthHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.With(authMiddleware).Get("/user", h.GetUserByEmail)
	})
}

// Register handles POST /auth/register
// @Summary Register a new user
// @Description Create a student or teacher account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.RegisterRequest true "Registration data"
// @Success 201 {object} models.UserResponse "Created user"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 409 {object} map[string]string "Email already registered"
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		respondServiceError(&h.BaseHandler, w, r, err, "register user")
		return
	}

	h.RespondJSON(w, http.StatusCreated, user)
}

// Login handles POST /auth/login
// @Summary Log in
// @Description Check credentials and issue an access token, also set as the access_token cookie
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Credentials"
// @Success 200 {object} models.LoginResponse "Access token"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 401 {object} map[string]string "Invalid credentials"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		respondServiceError(&h.BaseHandler, w, r, err, "log in")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    resp.AccessToken,
		Path:     "/",
		MaxAge:   int(h.tokenTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	h.RespondJSON(w, http.StatusOK, resp)
}

// GetUserByEmail handles GET /auth/user?email=
// @Summary Get user by email
// @Tags auth
// @Produce json
// @Param email query string true "Email"
// @Success 200 {object} models.UserResponse "User"
// @Failure 400 {object} map[string]string "Missing email"
// @Failure 404 {object} map[string]string "User not found"
// @Security ApiKeyAuth
// @Router /auth/user [get]
func (h *AuthHandler) GetUserByEmail(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		h.RespondError(w, http.StatusBadRequest, "email is required")
		return
	}

	user, err := h.authService.GetUserByEmail(r.Context(), email)
	if err != nil {
		respondServiceError(&h.BaseHandler, w, r, err, "get user")
		return
	}

	h.RespondJSON(w, http.StatusOK, user)
}
