package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/tubegrab/backend/internal/downloads"
	"github.com/tubegrab/backend/internal/logging"
	"github.com/tubegrab/backend/internal/models"
	"github.com/tubegrab/backend/internal/videos"
)

// DownloadHandler triggers extraction jobs and records their outcome.
type DownloadHandler struct {
	Downloads Downloader
	Metadata  MetadataProvider
	Sessions  SessionManager
}

type createDownloadRequest struct {
	URL     string `json:"url"`
	Format  string `json:"format"`
	Quality string `json:"quality"`
}

type historyRecordPayload struct {
	ID           string    `json:"id"`
	VideoID      string    `json:"videoId"`
	SourceURL    string    `json:"sourceUrl"`
	Title        string    `json:"title"`
	Author       string    `json:"author"`
	Duration     string    `json:"duration"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	Format       string    `json:"format"`
	Quality      string    `json:"quality,omitempty"`
	DownloadURL  string    `json:"downloadUrl"`
	FileSize     int64     `json:"fileSize,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

type createDownloadResponse struct {
	Record historyRecordPayload `json:"record"`
}

// Create handles POST /api/v1/downloads. The caller's bearer token gates
// the request before the extraction job is invoked.
func (h DownloadHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Downloads == nil || h.Metadata == nil {
		logger.Error("download dependencies unavailable", "hasDownloads", h.Downloads != nil, "hasMetadata", h.Metadata != nil)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "download service unavailable"})
		return
	}

	var req createDownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid download payload", "error", err)
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

	selection, err := models.Selection{
		Format:  models.Format(req.Format),
		Quality: models.Quality(req.Quality),
	}.Normalize()
	if err != nil {
		logger.Warn("invalid format selection", "format", req.Format, "quality", req.Quality, "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	metadata, err := h.Metadata.Lookup(ctx, req.URL)
	if err != nil {
		logger.Warn("metadata lookup failed", "url", req.URL, "error", err)
		respondJSON(ctx, w, http.StatusBadGateway, map[string]string{"error": "could not fetch video information"})
		return
	}

	record, err := h.Downloads.Execute(ctx, downloads.Request{
		Owner:     identify(ctx, h.Sessions, r),
		SourceURL: req.URL,
		VideoID:   videoID,
		Selection: selection,
	}, metadata)
	if err != nil {
		switch {
		case errors.Is(err, downloads.ErrUnauthorized):
			logger.Warn("download without identity", "url", req.URL)
			respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "sign in to download content"})
		default:
			logger.Error("download failed", "url", req.URL, "error", err)
			respondJSON(ctx, w, http.StatusBadGateway, map[string]string{"error": "download failed, please try again"})
		}
		return
	}

	respondJSON(ctx, w, http.StatusCreated, createDownloadResponse{Record: recordPayload(record)})
}

func recordPayload(record models.HistoryRecord) historyRecordPayload {
	return historyRecordPayload{
		ID:           record.ID,
		VideoID:      record.VideoID,
		SourceURL:    record.SourceURL,
		Title:        record.Title,
		Author:       record.Author,
		Duration:     record.Duration,
		ThumbnailURL: record.ThumbnailURL,
		Format:       string(record.Format),
		Quality:      string(record.Quality),
		DownloadURL:  record.DownloadURL,
		FileSize:     record.FileSize,
		CreatedAt:    record.CreatedAt,
	}
}
