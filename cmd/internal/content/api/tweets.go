package contentapi

import (
	"net/http"
	"strings"
	"time"

	"reel/cmd/internal/auth/guard"
)

func (h *Handler) handleTweetCreate(w http.ResponseWriter, r *http.Request) {
	user := mustUser(r)

	var req tweetRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	if strings.TrimSpace(req.Body) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "body is required")
		return
	}

	tweet, err := h.store.CreateTweet(r.Context(), user.ID, req.Body, time.Now().UTC())
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTweetResponse(tweet))
}

func (h *Handler) handleTweetListByOwner(w http.ResponseWriter, r *http.Request) {
	tweets, err := h.store.ListTweetsByOwner(r.Context(), r.PathValue("id"), pageFromQuery(r))
	if err != nil {
		h.writeStoreError(w, err)
		return
	}

	out := make([]tweetResponse, 0, len(tweets))
	for _, t := range tweets {
		out = append(out, toTweetResponse(t))
	}
	writeJSON(w, http.StatusOK, map[string]any{"tweets": out})
}

func (h *Handler) handleTweetUpdate(w http.ResponseWriter, r *http.Request) {
	user := mustUser(r)
	tweetID := r.PathValue("id")

	tweet, err := h.store.GetTweet(r.Context(), tweetID)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	if err := guard.RequireOwnerID(user, tweet.OwnerID); err != nil {
		writeError(w, http.StatusForbidden, "forbidden", "not the tweet owner")
		return
	}

	var req tweetRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	updated, err := h.store.UpdateTweet(r.Context(), tweetID, req.Body, time.Now().UTC())
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTweetResponse(updated))
}

func (h *Handler) handleTweetDelete(w http.ResponseWriter, r *http.Request) {
	user := mustUser(r)
	tweetID := r.PathValue("id")

	tweet, err := h.store.GetTweet(r.Context(), tweetID)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	if err := guard.RequireOwnerID(user, tweet.OwnerID); err != nil {
		writeError(w, http.StatusForbidden, "forbidden", "not the tweet owner")
		return
	}

	if err := h.store.DeleteTweet(r.Context(), tweetID); err != nil {
		h.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
