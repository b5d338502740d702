// Package handler exposes the login and logout endpoints.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	authservice "rollcall/internal/auth/service"
	"rollcall/internal/platform/middleware"
	"rollcall/internal/transport/http/shared"
	dErrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/requestcontext"
)

// Service defines the interface for authentication operations.
type Service interface {
	Login(ctx context.Context, role, username, password string) (*authservice.LoginResult, error)
	Logout(ctx context.Context, tokenString string) error
}

// Handler handles authentication endpoints.
type Handler struct {
	logger            *slog.Logger
	auth              Service
	validator         middleware.TokenValidator
	revocationChecker middleware.TokenRevocationChecker
}

// New creates a new auth Handler.
func New(auth Service, validator middleware.TokenValidator, revocationChecker middleware.TokenRevocationChecker, logger *slog.Logger) *Handler {
	return &Handler{
		logger:            logger,
		auth:              auth,
		validator:         validator,
		revocationChecker: revocationChecker,
	}
}

// Register registers the auth routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)
	r.Group(func(protected chi.Router) {
		protected.Use(middleware.RequireAuth(h.validator, h.revocationChecker, h.logger))
		protected.Post("/auth/logout", h.handleLogout)
	})
}

type loginRequest struct {
	Role     string `json:"role"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token   string `json:"token"`
	Role    string `json:"role"`
	Subject string `json:"subject"`
	Name    string `json:"name"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid login request",
			"request_id", requestID,
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	result, err := h.auth.Login(ctx, req.Role, req.Username, req.Password)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "login failed",
				"request_id", requestID,
				"error", err.Error(),
			)
		} else {
			h.logger.WarnContext(ctx, "login rejected",
				"request_id", requestID,
				"role", req.Role,
			)
		}
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, loginResponse{
		Token:   result.Token,
		Role:    result.Caller.Role(),
		Subject: result.Subject.String(),
		Name:    result.Name,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token := middleware.GetRawToken(ctx)
	if token == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}
	if err := h.auth.Logout(ctx, token); err != nil {
		h.logger.ErrorContext(ctx, "logout failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
