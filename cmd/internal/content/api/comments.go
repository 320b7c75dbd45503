package contentapi

import (
	"net/http"
	"strings"
	"time"

	"reel/cmd/internal/auth/guard"
)

func (h *Handler) handleCommentAdd(w http.ResponseWriter, r *http.Request) {
	user := mustUser(r)

	var req commentRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	if strings.TrimSpace(req.Body) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "body is required")
		return
	}

	comment, err := h.store.AddComment(r.Context(), r.PathValue("id"), user.ID, req.Body, time.Now().UTC())
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCommentResponse(comment))
}

func (h *Handler) handleCommentList(w http.ResponseWriter, r *http.Request) {
	comments, err := h.store.ListComments(r.Context(), r.PathValue("id"), pageFromQuery(r))
	if err != nil {
		h.writeStoreError(w, err)
		return
	}

	out := make([]commentResponse, 0, len(comments))
	for _, c := range comments {
		out = append(out, toCommentResponse(c))
	}
	writeJSON(w, http.StatusOK, map[string]any{"comments": out})
}

func (h *Handler) handleCommentUpdate(w http.ResponseWriter, r *http.Request) {
	user := mustUser(r)
	commentID := r.PathValue("id")

	comment, err := h.store.GetComment(r.Context(), commentID)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	if err := guard.RequireOwnerID(user, comment.OwnerID); err != nil {
		writeError(w, http.StatusForbidden, "forbidden", "not the comment owner")
		return
	}

	var req commentRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	updated, err := h.store.UpdateComment(r.Context(), commentID, req.Body, time.Now().UTC())
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCommentResponse(updated))
}

func (h *Handler) handleCommentDelete(w http.ResponseWriter, r *http.Request) {
	user := mustUser(r)
	commentID := r.PathValue("id")

	comment, err := h.store.GetComment(r.Context(), commentID)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}

	if err := guard.RequireOwnerID(user, comment.OwnerID); err != nil {
		writeError(w, http.StatusForbidden, "forbidden", "not the comment owner")
		return
	}

	if err := h.store.DeleteComment(r.Context(), commentID); err != nil {
		h.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
