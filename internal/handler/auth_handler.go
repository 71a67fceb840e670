package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/gatekeep/gatekeep/internal/domain"
	"github.com/gatekeep/gatekeep/internal/metrics"
	"github.com/gatekeep/gatekeep/internal/service"
)

// AuthHandler handles registration and login requests.
type AuthHandler struct {
	auth        *service.AuthService
	tokens      *service.TokenService
	metrics     *metrics.Metrics
	passwordMin int
	passwordMax int
	logger      zerolog.Logger
}

// AuthHandlerConfig contains configuration for the auth handler.
type AuthHandlerConfig struct {
	AuthService  *service.AuthService
	TokenService *service.TokenService
	Metrics      *metrics.Metrics
	PasswordMin  int
	PasswordMax  int
	Logger       zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(cfg AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		auth:        cfg.AuthService,
		tokens:      cfg.TokenService,
		metrics:     cfg.Metrics,
		passwordMin: cfg.PasswordMin,
		passwordMax: cfg.PasswordMax,
		logger:      cfg.Logger.With().Str("handler", "auth").Logger(),
	}
}

// registerRequest is the body of POST /api/auth/register.
type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginRequest is the body of POST /api/auth/login.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse is the body of a successful login.
type loginResponse struct {
	Token string `json:"token"`
}

// RegisterRoutes registers the auth routes. The /me route requires a
// bearer token and is mounted behind the authenticator middleware.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/api/auth/register", h.handleRegister)
	r.Post("/api/auth/login", h.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(Authenticator(h.tokens))
		r.Get("/api/auth/me", h.handleMe)
	})
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.metrics.RegisterAttempts.WithLabelValues("invalid").Inc()
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if msg := h.validateRegister(req); msg != "" {
		h.metrics.RegisterAttempts.WithLabelValues("invalid").Inc()
		writeMessage(w, http.StatusBadRequest, msg)
		return
	}

	_, err := h.auth.Register(r.Context(), service.RegisterInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUsernameTaken):
			h.metrics.RegisterAttempts.WithLabelValues("taken").Inc()
			writeMessage(w, http.StatusBadRequest, "Username already exists")
		case errors.Is(err, service.ErrInvalidInput):
			h.metrics.RegisterAttempts.WithLabelValues("invalid").Inc()
			writeMessage(w, http.StatusBadRequest, "Username and password are required")
		default:
			h.metrics.RegisterAttempts.WithLabelValues("error").Inc()
			h.logger.Error().Err(err).Msg("registration failed")
			writeStatus(w, http.StatusInternalServerError)
		}
		return
	}

	h.metrics.RegisterAttempts.WithLabelValues("created").Inc()

	// A created account carries no identity or token in the response;
	// the client logs in explicitly.
	writeStatus(w, http.StatusCreated)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// A body that doesn't decode is a malformed request, not a failed
		// credential check; keep it out of the denied count.
		h.metrics.LoginAttempts.WithLabelValues("invalid").Inc()
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	identity, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			h.metrics.LoginAttempts.WithLabelValues("denied").Inc()
			writeStatus(w, http.StatusUnauthorized)
			return
		}
		h.metrics.LoginAttempts.WithLabelValues("error").Inc()
		h.logger.Error().Err(err).Msg("login failed")
		writeStatus(w, http.StatusInternalServerError)
		return
	}

	token, err := h.tokens.Issue(identity)
	if err != nil {
		h.metrics.LoginAttempts.WithLabelValues("error").Inc()
		h.logger.Error().Err(err).Msg("token issuance failed")
		writeStatus(w, http.StatusInternalServerError)
		return
	}

	h.metrics.LoginAttempts.WithLabelValues("success").Inc()
	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeStatus(w, http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, identity)
}

// validateRegister checks request shape before the service runs.
// Returns an empty string if the request is valid.
func (h *AuthHandler) validateRegister(req registerRequest) string {
	if domain.NormalizeUsername(req.Username) == "" {
		return "Username is required"
	}
	// Length bounds count characters, not bytes, so multibyte passwords
	// are measured the way users type them.
	if n := utf8.RuneCountInString(req.Password); n < h.passwordMin || n > h.passwordMax {
		return fmt.Sprintf("You must specify password between %d and %d characters", h.passwordMin, h.passwordMax)
	}
	return ""
}
