package authhandler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"evalsheet/internal/domain/auth"
	"evalsheet/internal/transport/http/api"
	"evalsheet/internal/transport/http/middleware"
)

type Handler struct {
	Service *auth.Service
}

func NewHandler(service *auth.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)
	r.Post("/auth/logout", h.handleLogout)
	r.Post("/auth/refresh", h.handleRefresh)
	r.With(middleware.RequireAuth).Post("/auth/mfa/setup", h.handleMFASetup)
	r.With(middleware.RequireAuth).Post("/auth/mfa/enable", h.handleMFAEnable)
	r.With(middleware.RequireAuth).Post("/auth/mfa/disable", h.handleMFADisable)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	MFACode  string `json:"mfaCode"`
}

type mfaCodeRequest struct {
	Code string `json:"code"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload loginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	result, err := h.Service.Login(r.Context(), payload.Email, payload.Password, payload.MFACode)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrMFARequired):
			api.Fail(w, http.StatusUnauthorized, "mfa_required", "mfa code required", requestID)
		case errors.Is(err, auth.ErrMFAInvalid):
			api.Fail(w, http.StatusUnauthorized, "mfa_invalid", "invalid mfa code", requestID)
		case errors.Is(err, auth.ErrInvalidCredentials):
			api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", requestID)
		default:
			api.Fail(w, http.StatusInternalServerError, "login_failed", "failed to log in", requestID)
		}
		return
	}

	api.Success(w, map[string]any{
		"token": result.Token,
		"user": map[string]any{
			"id":    result.User.ID,
			"name":  result.User.Name,
			"email": result.User.Email,
			"roles": result.User.Roles,
		},
	}, requestID)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	if user, ok := middleware.GetUser(r.Context()); ok {
		h.Service.Logout(r.Context(), &auth.Claims{UserID: user.UserID, SessionID: user.SessionID})
	}
	api.Success(w, map[string]string{"status": "logged_out"}, requestID)
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok || user.SessionID == "" {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	token, err := h.Service.Refresh(r.Context(), &auth.Claims{UserID: user.UserID, SessionID: user.SessionID})
	if err != nil {
		if errors.Is(err, auth.ErrSessionExpired) {
			api.Fail(w, http.StatusUnauthorized, "unauthorized", "session expired", requestID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "session_error", "failed to rotate session", requestID)
		return
	}
	api.Success(w, map[string]string{"token": token}, requestID)
}

func (h *Handler) handleMFASetup(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	secret, url, err := h.Service.SetupMFA(r.Context(), user.UserID, user.UserID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "mfa_setup_failed", "failed to generate mfa secret", requestID)
		return
	}
	api.Success(w, map[string]string{"secret": secret, "otpauthUrl": url}, requestID)
}

func (h *Handler) handleMFAEnable(w http.ResponseWriter, r *http.Request) {
	h.setMFA(w, r, true)
}

func (h *Handler) handleMFADisable(w http.ResponseWriter, r *http.Request) {
	h.setMFA(w, r, false)
}

func (h *Handler) setMFA(w http.ResponseWriter, r *http.Request, enabled bool) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload mfaCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	var err error
	if enabled {
		err = h.Service.EnableMFA(r.Context(), user.UserID, payload.Code)
	} else {
		err = h.Service.DisableMFA(r.Context(), user.UserID, payload.Code)
	}
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrMFANotConfigured):
			api.Fail(w, http.StatusBadRequest, "mfa_missing", "mfa setup required", requestID)
		case errors.Is(err, auth.ErrMFAInvalid):
			api.Fail(w, http.StatusBadRequest, "mfa_invalid", "invalid mfa code", requestID)
		default:
			api.Fail(w, http.StatusInternalServerError, "mfa_update_failed", "failed to update mfa", requestID)
		}
		return
	}
	status := "disabled"
	if enabled {
		status = "enabled"
	}
	api.Success(w, map[string]string{"status": status}, requestID)
}
