package downloads

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tubegrab/backend/internal/extract"
	"github.com/tubegrab/backend/internal/logging"
	"github.com/tubegrab/backend/internal/models"
	"github.com/tubegrab/backend/internal/videos"
)

var (
	// ErrUnauthorized indicates a download was requested without an identity.
	// The extraction job is never invoked in that case.
	ErrUnauthorized = errors.New("download requires an authenticated identity")
	// ErrDownloadFailed indicates the extraction job or the history write
	// failed after being invoked. No partial record is left behind.
	ErrDownloadFailed = errors.New("download failed")
)

// Request captures a user's intent to materialize a video as a file.
type Request struct {
	Owner     string
	SourceURL string
	VideoID   string
	Selection models.Selection
}

// HistoryStore persists completed downloads scoped to their owner.
type HistoryStore interface {
	Create(ctx context.Context, record models.HistoryRecord) error
	ListForOwner(ctx context.Context, ownerID string) ([]models.HistoryRecord, error)
	Delete(ctx context.Context, ownerID, recordID string) error
	ClearForOwner(ctx context.Context, ownerID string) error
}

// Service coordinates a download request: identity gate, extraction job,
// and the all-or-nothing history write.
type Service struct {
	Extractor extract.Extractor
	History   HistoryStore

	// AnonymousOwner, when non-empty, is substituted for requests that
	// carry no identity instead of rejecting them.
	AnonymousOwner string

	NowFunc func() time.Time
	IDFunc  func() string
}

// NewService wires the orchestrator with its collaborators.
func NewService(extractor extract.Extractor, history HistoryStore) *Service {
	return &Service{Extractor: extractor, History: history}
}

// Execute runs the download lifecycle for a single request and returns the
// newly created history record. Failures after the identity gate are
// reported as ErrDownloadFailed wrapping the underlying cause; record
// creation is all-or-nothing.
func (s *Service) Execute(ctx context.Context, req Request, metadata videos.Metadata) (models.HistoryRecord, error) {
	if s == nil || s.Extractor == nil || s.History == nil {
		return models.HistoryRecord{}, fmt.Errorf("%w: service not configured", ErrDownloadFailed)
	}

	owner := req.Owner
	if owner == "" {
		if s.AnonymousOwner == "" {
			return models.HistoryRecord{}, ErrUnauthorized
		}
		owner = s.AnonymousOwner
	}

	selection, err := req.Selection.Normalize()
	if err != nil {
		return models.HistoryRecord{}, fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	}

	ctx, span := logging.StartSpan(ctx, "downloads.execute")
	defer span.End()

	result, err := s.Extractor.Extract(ctx, extract.Request{
		SourceURL: req.SourceURL,
		Selection: selection,
		Owner:     owner,
	})
	if err != nil {
		return models.HistoryRecord{}, fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	}

	if result.DownloadURL == "" {
		return models.HistoryRecord{}, fmt.Errorf("%w: %w", ErrDownloadFailed, extract.ErrNoDownloadURL)
	}

	record := models.HistoryRecord{
		ID:           s.newID(),
		OwnerID:      owner,
		VideoID:      req.VideoID,
		SourceURL:    req.SourceURL,
		Title:        firstNonEmpty(result.Title, metadata.Title),
		Author:       metadata.Author,
		Duration:     firstNonEmpty(result.Duration, metadata.Duration),
		ThumbnailURL: firstNonEmpty(result.Thumbnail, metadata.Thumbnail),
		Format:       selection.Format,
		Quality:      selection.Quality,
		DownloadURL:  result.DownloadURL,
		FileSize:     result.FileSize,
		CreatedAt:    s.now(),
	}

	if err := s.History.Create(ctx, record); err != nil {
		return models.HistoryRecord{}, fmt.Errorf("%w: persist history record: %w", ErrDownloadFailed, err)
	}

	return record, nil
}

func (s *Service) now() time.Time {
	if s.NowFunc != nil {
		return s.NowFunc()
	}
	return time.Now().UTC()
}

func (s *Service) newID() string {
	if s.IDFunc != nil {
		return s.IDFunc()
	}
	return uuid.NewString()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
