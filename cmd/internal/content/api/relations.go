package contentapi

import (
	"net/http"
	"time"

	"reel/cmd/internal/relation"
)

// subjectToggle returns a handler that flips the caller's like on one
// subject kind and reports the resulting state.
func (h *Handler) subjectToggle(kind relation.SubjectKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := mustUser(r)
		subjectID := r.PathValue("id")

		outcome, err := h.relations.ToggleLike(r.Context(), user.ID, kind, subjectID, time.Now().UTC())
		if err != nil {
			h.writeStoreError(w, err)
			return
		}

		count, err := h.relations.CountLikes(r.Context(), kind, subjectID)
		if err != nil {
			h.writeStoreError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toggleResponse{Outcome: string(outcome), Count: count})
	}
}

func (h *Handler) handleLikedVideos(w http.ResponseWriter, r *http.Request) {
	user := mustUser(r)

	videos, err := h.relations.ListLikedVideos(r.Context(), user.ID, pageFromQuery(r))
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"videos": toVideoResponses(videos)})
}

func (h *Handler) handleSubscribeToggle(w http.ResponseWriter, r *http.Request) {
	user := mustUser(r)
	channelID := r.PathValue("id")

	outcome, err := h.relations.ToggleSubscription(r.Context(), user.ID, channelID, time.Now().UTC())
	if err != nil {
		h.writeStoreError(w, err)
		return
	}

	count, err := h.relations.CountSubscribers(r.Context(), channelID)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toggleResponse{Outcome: string(outcome), Count: count})
}

func (h *Handler) handleSubscriberList(w http.ResponseWriter, r *http.Request) {
	users, err := h.relations.ListSubscribers(r.Context(), r.PathValue("id"), pageFromQuery(r))
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"subscribers": toChannelResponses(users)})
}

func (h *Handler) handleSubscribedChannels(w http.ResponseWriter, r *http.Request) {
	user := mustUser(r)

	channels, err := h.relations.ListSubscribedChannels(r.Context(), user.ID, pageFromQuery(r))
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"channels": toChannelResponses(channels)})
}

// handleDashboardStats aggregates the caller's channel totals.
func (h *Handler) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	user := mustUser(r)
	ctx := r.Context()

	videoStats, err := h.store.ChannelVideoStats(ctx, user.ID)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}

	likes, err := h.relations.ChannelLikeTotal(ctx, user.ID)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}

	subs, err := h.relations.CountSubscribers(ctx, user.ID)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dashboardStatsResponse{
		VideoCount:  videoStats.TotalVideos,
		TotalViews:  videoStats.TotalViews,
		TotalLikes:  likes,
		Subscribers: subs,
	})
}
