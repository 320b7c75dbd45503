package contentapi

import (
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"reel/cmd/internal/auth/guard"
	"reel/cmd/internal/content"
	"reel/cmd/internal/media"
)

// handleVideoCreate publishes a video. The request is either JSON metadata
// referencing already-hosted media, or a multipart form carrying the video
// file (field "video", optional "thumbnail") which is stored first.
func (h *Handler) handleVideoCreate(w http.ResponseWriter, r *http.Request) {
	user := mustUser(r)

	in := content.CreateVideoInput{OwnerID: user.ID, Now: time.Now().UTC()}

	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		if !h.fillFromMultipart(w, r, &in) {
			return
		}
	} else {
		var req createVideoRequest
		if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
			return
		}
		in.Title = req.Title
		in.Description = req.Description
		in.VideoURL = req.VideoURL
		in.ThumbnailURL = req.ThumbnailURL
		in.DurationSec = req.DurationSec
		in.Published = req.Published
	}

	if strings.TrimSpace(in.Title) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "title is required")
		return
	}

	video, err := h.store.CreateVideo(r.Context(), in)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toVideoResponse(video))
}

// fillFromMultipart stores uploaded media and fills in from the form. It
// writes the error response itself and reports whether to continue.
func (h *Handler) fillFromMultipart(w http.ResponseWriter, r *http.Request, in *content.CreateVideoInput) bool {
	if h.media == nil {
		writeError(w, http.StatusBadRequest, "uploads_disabled", "media uploads are not configured")
		return false
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid multipart form")
		return false
	}

	in.Title = r.FormValue("title")
	in.Description = r.FormValue("description")
	in.Published = r.FormValue("published") == "true"

	file, header, err := r.FormFile("video")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "video file is required")
		return false
	}
	defer func() { _ = file.Close() }()

	id, err := newUploadID()
	if err != nil {
		h.log.Error("upload id", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return false
	}

	obj, err := h.media.Upload(r.Context(), media.UploadInput{
		Key:         media.ObjectKey(media.PrefixVideos, id, header.Filename),
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Reader:      file,
	})
	if err != nil {
		h.log.Error("video upload failed", "err", err)
		writeError(w, http.StatusBadGateway, "upload_failed", "media storage unavailable")
		return false
	}
	in.VideoURL = obj.URL

	if thumbURL, ok := h.uploadOptional(w, r, id, "thumbnail", media.PrefixThumbnails); !ok {
		return false
	} else {
		in.ThumbnailURL = thumbURL
	}
	return true
}

// uploadOptional stores an optional form file and returns its URL, or ""
// when the field is absent.
func (h *Handler) uploadOptional(w http.ResponseWriter, r *http.Request, id, field, prefix string) (string, bool) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return "", true
		}
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid "+field+" upload")
		return "", false
	}
	defer func(f multipart.File) { _ = f.Close() }(file)

	obj, err := h.media.Upload(r.Context(), media.UploadInput{
		Key:         media.ObjectKey(prefix, id, header.Filename),
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Reader:      file,
	})
	if err != nil {
		h.log.Error("upload failed", "field", field, "err", err)
		writeError(w, http.StatusBadGateway, "upload_failed", "media storage unavailable")
		return "", false
	}
	return obj.URL, true
}

func (h *Handler) handleVideoGet(w http.ResponseWriter, r *http.Request) {
	video, err := h.store.GetVideo(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toVideoResponse(video))
}

func (h *Handler) handleVideoList(w http.ResponseWriter, r *http.Request) {
	f := content.VideoFilter{
		OwnerID:       strings.TrimSpace(r.URL.Query().Get("owner_id")),
		PublishedOnly: r.URL.Query().Get("published") == "true",
	}

	videos, err := h.store.ListVideos(r.Context(), f, pageFromQuery(r))
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"videos": toVideoResponses(videos)})
}

func (h *Handler) handleVideoUpdate(w http.ResponseWriter, r *http.Request) {
	user := mustUser(r)
	videoID := r.PathValue("id")

	video, err := h.store.GetVideo(r.Context(), videoID)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	if err := guard.RequireOwnerID(user, video.OwnerID); err != nil {
		writeError(w, http.StatusForbidden, "forbidden", "not the video owner")
		return
	}

	var req updateVideoRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	updated, err := h.store.UpdateVideo(r.Context(), videoID, content.UpdateVideoInput{
		Title:        req.Title,
		Description:  req.Description,
		ThumbnailURL: req.ThumbnailURL,
		Published:    req.Published,
		Now:          time.Now().UTC(),
	})
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toVideoResponse(updated))
}

func (h *Handler) handleVideoDelete(w http.ResponseWriter, r *http.Request) {
	user := mustUser(r)
	videoID := r.PathValue("id")

	video, err := h.store.GetVideo(r.Context(), videoID)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	if err := guard.RequireOwnerID(user, video.OwnerID); err != nil {
		writeError(w, http.StatusForbidden, "forbidden", "not the video owner")
		return
	}

	if err := h.store.DeleteVideo(r.Context(), videoID); err != nil {
		h.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleVideoViews(w http.ResponseWriter, r *http.Request) {
	if err := h.store.IncrementViews(r.Context(), r.PathValue("id")); err != nil {
		h.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
