// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package web exposes the session lifecycle and candidate endpoints over
// HTTP. Access tokens travel in the Authorization header; refresh tokens
// travel only in an HttpOnly cookie so script never sees them.
package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gatehouse/gatehouse/internal/access"
	"github.com/gatehouse/gatehouse/internal/auth"
	"github.com/gatehouse/gatehouse/internal/candidate"
	"github.com/gatehouse/gatehouse/internal/observability"
	"github.com/gatehouse/gatehouse/pkg/errutil"
)

// refreshCookieName is the cookie carrying the refresh token.
const refreshCookieName = "refreshToken"

// roleHeader carries the caller's role for the candidate endpoints.
const roleHeader = "X-Role"

// maxBodyBytes bounds request bodies; credential payloads are tiny.
const maxBodyBytes = 1 << 16

type identityContextKey struct{}

// Handler routes the HTTP API.
type Handler struct {
	auth       *auth.Service
	candidates candidate.Repository
	roles      *access.RoleTable
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewHandler creates a Handler. metrics may be nil when the observability
// server is disabled.
func NewHandler(authService *auth.Service, candidates candidate.Repository, roles *access.RoleTable, metrics *observability.Metrics, logger *slog.Logger) *Handler {
	return &Handler{
		auth:       authService,
		candidates: candidates,
		roles:      roles,
		metrics:    metrics,
		logger:     logger,
	}
}

// Routes builds the request mux.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /register", h.handleRegister)
	mux.HandleFunc("POST /login", h.handleLogin)
	mux.HandleFunc("POST /refresh", h.handleRefresh)
	mux.HandleFunc("POST /logout", h.handleLogout)
	mux.Handle("POST /2fa/setup", h.requireBearer(h.handleSetup2FA))
	mux.Handle("POST /2fa/verify", h.requireBearer(h.handleVerify2FA))
	mux.Handle("GET /candidates", h.requireRole("read", "candidate", h.handleListCandidates))
	mux.Handle("POST /candidates", h.requireRole("create", "candidate", h.handleCreateCandidate))

	return mux
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	TOTPCode string `json:"totpCode"`
}

// handleRegister creates a principal from a username and password.
func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !h.decode(w, r, &req) {
		return
	}

	_, err := h.auth.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		switch errutil.ErrorCode(err) {
		case "AUTH_MISSING_FIELDS", "AUTH_INVALID_USERNAME":
			h.countRegistration("invalid")
			h.sendError(w, http.StatusBadRequest, err)
		case "AUTH_DUPLICATE_USERNAME":
			h.countRegistration("duplicate")
			h.sendError(w, http.StatusConflict, err)
		default:
			h.countRegistration("error")
			h.sendInternalError(w, r, err)
		}
		return
	}

	h.countRegistration("success")
	w.WriteHeader(http.StatusCreated)
}

// handleLogin authenticates and issues a token pair. The access token is
// returned in the body; the refresh token is set as an HttpOnly cookie.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !h.decode(w, r, &req) {
		return
	}

	pair, err := h.auth.Login(r.Context(), req.Username, req.Password, req.TOTPCode)
	if err != nil {
		switch errutil.ErrorCode(err) {
		case "AUTH_INVALID_CREDENTIALS", "AUTH_INVALID_TOTP":
			h.countLogin("denied")
			h.sendError(w, http.StatusUnauthorized, err)
		default:
			h.countLogin("error")
			h.sendInternalError(w, r, err)
		}
		return
	}

	http.SetCookie(w, refreshCookie(pair.RefreshToken))
	h.countLogin("success")
	h.sendJSON(w, http.StatusOK, map[string]string{"accessToken": pair.AccessToken})
}

// handleRefresh mints a new access token for a live session. A missing cookie
// is 401; a token that fails verification or the stored-hash comparison is
// 403.
func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil {
		h.countRefresh("missing")
		h.sendErrorMessage(w, http.StatusUnauthorized, "AUTH_NO_SESSION", "refresh token cookie is required")
		return
	}

	accessToken, err := h.auth.Refresh(r.Context(), cookie.Value)
	if err != nil {
		switch errutil.ErrorCode(err) {
		case "TOKEN_EXPIRED", "TOKEN_INVALID", "AUTH_SESSION_REVOKED":
			h.countRefresh("revoked")
			h.sendError(w, http.StatusForbidden, err)
		default:
			h.countRefresh("error")
			h.sendInternalError(w, r, err)
		}
		return
	}

	h.countRefresh("success")
	h.sendJSON(w, http.StatusOK, map[string]string{"accessToken": accessToken})
}

// handleLogout revokes the session and clears the cookie. Always 204; logging
// out without a session is defined behavior.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	var token string
	if cookie, err := r.Cookie(refreshCookieName); err == nil {
		token = cookie.Value
	}

	if err := h.auth.Logout(r.Context(), token); err != nil {
		// Store failure: the cookie is still cleared so the client ends up
		// logged out either way.
		errutil.LogError(h.logger, "failed to clear session on logout", err)
	}

	http.SetCookie(w, clearedRefreshCookie())
	if h.metrics != nil {
		h.metrics.LogoutsTotal.Inc()
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSetup2FA generates a TOTP secret for the authenticated principal
// without persisting it.
func (h *Handler) handleSetup2FA(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r)

	secret, err := h.auth.Setup2FA(identity.Username)
	if err != nil {
		h.countEnrollment("error")
		h.sendInternalError(w, r, err)
		return
	}

	h.sendJSON(w, http.StatusOK, map[string]string{"secret": secret})
}

type verify2FARequest struct {
	Secret   string `json:"secret"`
	TOTPCode string `json:"totpCode"`
}

// handleVerify2FA completes enrollment: the code proves the client holds a
// working authenticator for the submitted secret.
func (h *Handler) handleVerify2FA(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r)

	var req verify2FARequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.auth.Confirm2FA(r.Context(), identity, req.Secret, req.TOTPCode); err != nil {
		if errutil.ErrorCode(err) == "AUTH_INVALID_TOTP" {
			h.countEnrollment("invalid")
			h.sendError(w, http.StatusBadRequest, err)
			return
		}
		h.countEnrollment("error")
		h.sendInternalError(w, r, err)
		return
	}

	h.countEnrollment("success")
	w.WriteHeader(http.StatusOK)
}

// handleListCandidates returns all candidates.
func (h *Handler) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.candidates.List(r.Context())
	if err != nil {
		h.sendInternalError(w, r, err)
		return
	}

	out := make([]candidateResponse, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, candidateResponse{
			ID:   c.ID.String(),
			Name: c.Name,
		})
	}
	h.sendJSON(w, http.StatusOK, out)
}

type candidateResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type createCandidateRequest struct {
	Name string `json:"name"`
}

// handleCreateCandidate stores a new candidate.
func (h *Handler) handleCreateCandidate(w http.ResponseWriter, r *http.Request) {
	var req createCandidateRequest
	if !h.decode(w, r, &req) {
		return
	}

	c, err := candidate.New(req.Name)
	if err != nil {
		h.sendError(w, http.StatusBadRequest, err)
		return
	}

	if err := h.candidates.Create(r.Context(), c); err != nil {
		h.sendInternalError(w, r, err)
		return
	}

	h.sendJSON(w, http.StatusCreated, candidateResponse{ID: c.ID.String(), Name: c.Name})
}

// requireBearer authenticates the Authorization header. An absent header is
// 401; a token that fails verification is 403.
func (h *Handler) requireBearer(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			h.sendErrorMessage(w, http.StatusUnauthorized, "AUTH_NO_TOKEN", "authorization header is required")
			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			h.sendErrorMessage(w, http.StatusForbidden, "TOKEN_INVALID", "authorization header must use the Bearer scheme")
			return
		}

		identity, err := h.auth.Authenticate(token)
		if err != nil {
			h.sendError(w, http.StatusForbidden, err)
			return
		}

		ctx := withIdentity(r.Context(), identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRole gates a handler on the caller's X-Role header.
func (h *Handler) requireRole(action, resource string, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role := r.Header.Get(roleHeader)
		if !h.roles.Check(role, action, resource) {
			h.sendErrorMessage(w, http.StatusForbidden, "ACCESS_DENIED", "role does not permit this action")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// decode reads a JSON body into dst, answering 400 on malformed input.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.sendErrorMessage(w, http.StatusBadRequest, "REQUEST_INVALID", "request body must be valid JSON")
		return false
	}
	return true
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (h *Handler) sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// sendError answers with the error's code and message.
func (h *Handler) sendError(w http.ResponseWriter, status int, err error) {
	h.sendJSON(w, status, errorResponse{
		Error:   errutil.ErrorCode(err),
		Message: publicMessage(err),
	})
}

func (h *Handler) sendErrorMessage(w http.ResponseWriter, status int, code, message string) {
	h.sendJSON(w, status, errorResponse{Error: code, Message: message})
}

// sendInternalError logs the error and answers with a generic 500 so store
// details never leak to clients.
func (h *Handler) sendInternalError(w http.ResponseWriter, r *http.Request, err error) {
	errutil.LogError(h.logger, "request failed", err)
	h.sendErrorMessage(w, http.StatusInternalServerError, "INTERNAL", "internal server error")
}

// publicMessage returns the error's message. Only errors that already carry a
// client-facing code reach this path; store failures go through
// sendInternalError instead.
func publicMessage(err error) string {
	return err.Error()
}

func (h *Handler) countRegistration(status string) {
	if h.metrics != nil {
		h.metrics.RegistrationsTotal.WithLabelValues(status).Inc()
	}
}

func (h *Handler) countLogin(status string) {
	if h.metrics != nil {
		h.metrics.LoginsTotal.WithLabelValues(status).Inc()
	}
}

func (h *Handler) countRefresh(status string) {
	if h.metrics != nil {
		h.metrics.RefreshesTotal.WithLabelValues(status).Inc()
	}
}

func (h *Handler) countEnrollment(status string) {
	if h.metrics != nil {
		h.metrics.EnrollmentsTotal.WithLabelValues(status).Inc()
	}
}
