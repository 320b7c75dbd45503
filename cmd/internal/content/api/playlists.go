package contentapi

import (
	"net/http"
	"strings"
	"time"

	"reel/cmd/identity"
	"reel/cmd/internal/auth/guard"
	"reel/cmd/internal/content"
)

func (h *Handler) handlePlaylistCreate(w http.ResponseWriter, r *http.Request) {
	user := mustUser(r)

	var req createPlaylistRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "name is required")
		return
	}

	playlist, err := h.store.CreatePlaylist(r.Context(), user.ID, req.Name, req.Description, time.Now().UTC())
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPlaylistResponse(playlist))
}

func (h *Handler) handlePlaylistGet(w http.ResponseWriter, r *http.Request) {
	playlist, err := h.store.GetPlaylist(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlaylistResponse(playlist))
}

func (h *Handler) handlePlaylistListByOwner(w http.ResponseWriter, r *http.Request) {
	playlists, err := h.store.ListPlaylistsByOwner(r.Context(), r.PathValue("id"), pageFromQuery(r))
	if err != nil {
		h.writeStoreError(w, err)
		return
	}

	out := make([]playlistResponse, 0, len(playlists))
	for _, p := range playlists {
		out = append(out, toPlaylistResponse(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"playlists": out})
}

func (h *Handler) handlePlaylistUpdate(w http.ResponseWriter, r *http.Request) {
	user := mustUser(r)

	playlist, ok := h.ownedPlaylist(w, r, user)
	if !ok {
		return
	}

	var req updatePlaylistRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	updated, err := h.store.UpdatePlaylist(r.Context(), playlist.ID, req.Name, req.Description, time.Now().UTC())
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlaylistResponse(updated))
}

func (h *Handler) handlePlaylistDelete(w http.ResponseWriter, r *http.Request) {
	user := mustUser(r)

	playlist, ok := h.ownedPlaylist(w, r, user)
	if !ok {
		return
	}

	if err := h.store.DeletePlaylist(r.Context(), playlist.ID); err != nil {
		h.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handlePlaylistAddVideo(w http.ResponseWriter, r *http.Request) {
	user := mustUser(r)

	playlist, ok := h.ownedPlaylist(w, r, user)
	if !ok {
		return
	}

	if err := h.store.AddPlaylistVideo(r.Context(), playlist.ID, r.PathValue("videoID"), time.Now().UTC()); err != nil {
		h.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handlePlaylistRemoveVideo(w http.ResponseWriter, r *http.Request) {
	user := mustUser(r)

	playlist, ok := h.ownedPlaylist(w, r, user)
	if !ok {
		return
	}

	if err := h.store.RemovePlaylistVideo(r.Context(), playlist.ID, r.PathValue("videoID")); err != nil {
		h.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handlePlaylistVideos(w http.ResponseWriter, r *http.Request) {
	videos, err := h.store.ListPlaylistVideos(r.Context(), r.PathValue("id"), pageFromQuery(r))
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"videos": toVideoResponses(videos)})
}

// ownedPlaylist loads the playlist from the path and enforces ownership,
// writing the error response on failure.
func (h *Handler) ownedPlaylist(w http.ResponseWriter, r *http.Request, user identity.User) (content.Playlist, bool) {
	playlist, err := h.store.GetPlaylist(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeStoreError(w, err)
		return content.Playlist{}, false
	}
	if guard.RequireOwnerID(user, playlist.OwnerID) != nil {
		writeError(w, http.StatusForbidden, "forbidden", "not the playlist owner")
		return content.Playlist{}, false
	}
	return playlist, true
}
