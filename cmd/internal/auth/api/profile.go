package authapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"reel/cmd/identity"
	"reel/cmd/internal/media"
)

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// handleChangePassword rotates the account password. The current password is
// re-verified even though the caller already holds a valid access token.
func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	if req.OldPassword == "" || req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "old_password and new_password are required")
		return
	}

	if _, err := h.store.VerifyCredentials(r.Context(), user.Username, req.OldPassword); err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "current password is wrong")
			return
		}
		h.log.Error("change password verify failed", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	hash, err := identity.HashPassword(req.NewPassword)
	if err != nil {
		if identity.IsInvalidInput(err) {
			writeError(w, http.StatusBadRequest, "invalid_request", "new password rejected by policy")
			return
		}
		h.log.Error("change password hash failed", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	if err := h.store.UpdatePassword(r.Context(), user.ID, hash, time.Now().UTC()); err != nil {
		h.log.Error("change password update failed", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAvatarUpload(w http.ResponseWriter, r *http.Request) {
	h.handleImageUpload(w, r, "avatar", media.PrefixAvatars, h.store.UpdateAvatar)
}

func (h *Handler) handleCoverUpload(w http.ResponseWriter, r *http.Request) {
	h.handleImageUpload(w, r, "cover", media.PrefixCovers, h.store.UpdateCover)
}

// handleImageUpload stores a multipart image (form field named field) and
// persists its public URL through save. Responds with the refreshed user.
func (h *Handler) handleImageUpload(w http.ResponseWriter, r *http.Request, field, prefix string,
	save func(ctx context.Context, userID, url string, now time.Time) error) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h.media == nil {
		writeError(w, http.StatusBadRequest, "uploads_disabled", "media uploads are not configured")
		return
	}

	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid multipart form")
		return
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", field+" file is required")
		return
	}
	defer func() { _ = file.Close() }()

	obj, err := h.media.Upload(r.Context(), media.UploadInput{
		Key:         media.ObjectKey(prefix, user.ID, header.Filename),
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Reader:      file,
	})
	if err != nil {
		h.log.Error("image upload failed", "field", field, "err", err)
		writeError(w, http.StatusBadGateway, "upload_failed", "media storage unavailable")
		return
	}

	if err := save(r.Context(), user.ID, obj.URL, time.Now().UTC()); err != nil {
		h.log.Error("image url update failed", "field", field, "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	updated, err := h.store.GetUserByID(r.Context(), user.ID)
	if err != nil {
		h.log.Error("reload user failed", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, meResponse{User: toUserResponse(updated)})
}
