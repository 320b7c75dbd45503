// Package authapi wires HTTP auth endpoints to identity/session services.
package authapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"reel/cmd/identity"
	"reel/cmd/internal/auth/guard"
	"reel/cmd/internal/auth/session"
	"reel/cmd/internal/media"
)

// Handler serves registration, login, refresh, logout and /me.
type Handler struct {
	log *slog.Logger
	cfg Config

	store    identity.Store
	sessions *session.Manager
	guard    *guard.Guard

	// media is optional; avatar and cover uploads 400 without it.
	media media.Store
}

// NewHandler constructs an auth Handler over the given identity store.
func NewHandler(log *slog.Logger, cfg Config, sessCfg session.Config, store identity.Store) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	if store == nil {
		return nil, errors.New("authapi: nil identity store")
	}

	codec, err := session.NewCodec(sessCfg)
	if err != nil {
		return nil, err
	}

	return &Handler{
		log:      log,
		cfg:      cfg,
		store:    store,
		sessions: session.NewManager(codec, store),
		guard:    guard.New(codec, store),
	}, nil
}

// Register wires auth routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("/auth/register", h.handleRegister)
	mux.HandleFunc("/auth/login", h.handleLogin)
	mux.HandleFunc("/auth/refresh", h.handleRefresh)
	mux.HandleFunc("/auth/logout", h.handleLogout)
	mux.HandleFunc("/me", h.handleMe)
	mux.HandleFunc("/me/password", h.handleChangePassword)
	mux.HandleFunc("/me/avatar", h.handleAvatarUpload)
	mux.HandleFunc("/me/cover", h.handleCoverUpload)
}

// UseMediaStore enables avatar and cover uploads.
func (h *Handler) UseMediaStore(m media.Store) {
	if h != nil {
		h.media = m
	}
}

// Guard returns the request guard backed by this handler's codec and store.
func (h *Handler) Guard() *guard.Guard {
	if h == nil {
		return nil
	}
	return h.guard
}

// ---- handlers ----

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req registerRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Email) == "" ||
		strings.TrimSpace(req.FullName) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "username, email, full_name and password are required")
		return
	}

	user, err := h.store.CreateUser(r.Context(), identity.CreateUserInput{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		Password: req.Password,
		Now:      time.Now().UTC(),
	})
	if err != nil {
		switch {
		case identity.IsConflict(err):
			writeError(w, http.StatusConflict, "conflict", "username or email already taken")
		case identity.IsInvalidInput(err):
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid registration input")
		default:
			h.log.Error("register failed", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{User: toUserResponse(user)})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	identifier := strings.TrimSpace(req.Identifier)
	if identifier == "" && req.Username != nil {
		identifier = strings.TrimSpace(*req.Username)
	}
	if identifier == "" && req.Email != nil {
		identifier = strings.TrimSpace(*req.Email)
	}
	if identifier == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "identifier and password are required")
		return
	}

	issued, err := h.sessions.Login(r.Context(), time.Now().UTC(), identifier, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
			return
		}
		h.log.Error("login failed", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	h.setSessionCookies(w, issued)
	writeJSON(w, http.StatusOK, loginResponse{
		User:    toUserResponse(issued.User),
		Session: toSessionResponse(issued),
	})
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	// A token in the body wins over the cookie; a stale cookie must not
	// shadow the token the caller actually sent.
	var refreshToken string
	if r.ContentLength != 0 {
		var req refreshRequest
		if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
			return
		}
		refreshToken = strings.TrimSpace(req.RefreshToken)
	}
	if refreshToken == "" {
		if fromCookie, ok := h.refreshTokenFromCookie(r); ok {
			refreshToken = fromCookie
		}
	}
	if refreshToken == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "refresh_token is required")
		return
	}

	issued, err := h.sessions.Refresh(r.Context(), time.Now().UTC(), refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrTokenExpired):
			writeError(w, http.StatusUnauthorized, "token_expired", "refresh token expired")
		case errors.Is(err, session.ErrTokenInvalid):
			writeError(w, http.StatusUnauthorized, "token_invalid", "invalid refresh token")
		default:
			h.log.Error("refresh failed", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		}
		return
	}

	h.setSessionCookies(w, issued)
	writeJSON(w, http.StatusOK, refreshResponse{Session: toSessionResponse(issued)})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	if err := h.sessions.Logout(r.Context(), time.Now().UTC(), user.ID); err != nil {
		h.log.Error("logout failed", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	h.clearSessionCookies(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, meResponse{User: toUserResponse(user)})
}

func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request) (identity.User, bool) {
	tok, ok := guard.AccessTokenFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_token", "authentication required")
		return identity.User{}, false
	}

	user, err := h.guard.Authenticate(r.Context(), tok)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrTokenExpired):
			writeError(w, http.StatusUnauthorized, "token_expired", "access token expired")
		case errors.Is(err, session.ErrTokenInvalid):
			writeError(w, http.StatusUnauthorized, "token_invalid", "invalid access token")
		default:
			h.log.Error("authenticate failed", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		}
		return identity.User{}, false
	}
	return user, true
}

func toSessionResponse(issued session.Issued) sessionResponse {
	return sessionResponse{
		AccessToken:      issued.AccessToken,
		AccessExpiresAt:  issued.AccessExp,
		RefreshToken:     issued.RefreshToken,
		RefreshExpiresAt: issued.RefreshExp,
	}
}
