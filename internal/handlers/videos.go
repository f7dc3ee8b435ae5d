package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/tubegrab/backend/internal/logging"
	"github.com/tubegrab/backend/internal/videos"
)

// VideoHandler resolves metadata for pasted video URLs.
type VideoHandler struct {
	Metadata MetadataProvider
}

type lookupRequest struct {
	URL string `json:"url"`
}

type lookupResponse struct {
	VideoID      string `json:"videoId"`
	Title        string `json:"title"`
	Author       string `json:"author"`
	Duration     string `json:"duration"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

// Lookup handles POST /api/v1/videos/lookup. It validates the URL and
// returns the video's descriptive metadata.
func (h VideoHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Metadata == nil {
		logger.Error("metadata provider unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "video lookup unavailable"})
		return
	}

	var req lookupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid lookup payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.URL = strings.TrimSpace(req.URL)
	videoID, err := videos.ExtractVideoID(req.URL)
	if err != nil {
		logger.Warn("unsupported video url", "url", req.URL)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "unsupported video url"})
		return
	}

	metadata, err := h.Metadata.Lookup(ctx, req.URL)
	if err != nil {
		if errors.Is(err, videos.ErrProviderUnavailable) {
			logger.Error("metadata provider unavailable", "error", err)
			respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "video lookup unavailable"})
			return
		}
		logger.Warn("metadata lookup failed", "url", req.URL, "error", err)
		respondJSON(ctx, w, http.StatusBadGateway, map[string]string{"error": "could not fetch video information"})
		return
	}

	thumbnail := metadata.Thumbnail
	if thumbnail == "" {
		thumbnail = videos.ThumbnailURL(videoID)
	}

	respondJSON(ctx, w, http.StatusOK, lookupResponse{
		VideoID:      videoID,
		Title:        metadata.Title,
		Author:       metadata.Author,
		Duration:     metadata.Duration,
		ThumbnailURL: thumbnail,
	})
}
