package downloads

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tubegrab/backend/internal/extract"
	"github.com/tubegrab/backend/internal/models"
	"github.com/tubegrab/backend/internal/videos"
)

type stubExtractor struct {
	result  extract.Result
	err     error
	calls   int
	lastReq extract.Request
}

func (s *stubExtractor) Extract(ctx context.Context, req extract.Request) (extract.Result, error) {
	s.calls++
	s.lastReq = req
	if s.err != nil {
		return extract.Result{}, s.err
	}
	return s.result, nil
}

type stubHistory struct {
	records   []models.HistoryRecord
	createErr error
}

func (s *stubHistory) Create(ctx context.Context, record models.HistoryRecord) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.records = append(s.records, record)
	return nil
}

func (s *stubHistory) ListForOwner(ctx context.Context, ownerID string) ([]models.HistoryRecord, error) {
	var out []models.HistoryRecord
	for _, r := range s.records {
		if r.OwnerID == ownerID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *stubHistory) Delete(ctx context.Context, ownerID, recordID string) error {
	kept := s.records[:0]
	for _, r := range s.records {
		if r.OwnerID == ownerID && r.ID == recordID {
			continue
		}
		kept = append(kept, r)
	}
	s.records = kept
	return nil
}

func (s *stubHistory) ClearForOwner(ctx context.Context, ownerID string) error {
	kept := s.records[:0]
	for _, r := range s.records {
		if r.OwnerID == ownerID {
			continue
		}
		kept = append(kept, r)
	}
	s.records = kept
	return nil
}

func newTestService(extractor *stubExtractor, history *stubHistory) *Service {
	svc := NewService(extractor, history)
	svc.NowFunc = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	svc.IDFunc = func() string { return "record-1" }
	return svc
}

func TestServiceExecute(t *testing.T) {
	extractor := &stubExtractor{result: extract.Result{
		DownloadURL: "https://media.example.com/v.mp4",
		Title:       "Resolved Title",
		Duration:    "3:32",
		FileSize:    2048,
	}}
	history := &stubHistory{}
	svc := newTestService(extractor, history)

	record, err := svc.Execute(context.Background(), Request{
		Owner:     "user-1",
		SourceURL: "https://youtu.be/dQw4w9WgXcQ",
		VideoID:   "dQw4w9WgXcQ",
		Selection: models.Selection{Format: models.FormatVideo, Quality: models.Quality720p},
	}, videos.Metadata{Title: "Meta Title", Author: "Channel", Thumbnail: "thumb.jpg"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if len(history.records) != 1 {
		t.Fatalf("expected exactly one record, got %d", len(history.records))
	}
	if record.ID != "record-1" || record.OwnerID != "user-1" || record.VideoID != "dQw4w9WgXcQ" {
		t.Fatalf("unexpected record identity: %+v", record)
	}
	if record.Title != "Resolved Title" {
		t.Fatalf("expected extraction title to win, got %q", record.Title)
	}
	if record.Author != "Channel" || record.ThumbnailURL != "thumb.jpg" {
		t.Fatalf("expected metadata fallbacks applied: %+v", record)
	}
	if record.DownloadURL != "https://media.example.com/v.mp4" || record.FileSize != 2048 {
		t.Fatalf("unexpected download fields: %+v", record)
	}
	if extractor.lastReq.Owner != "user-1" {
		t.Fatalf("expected owner forwarded to extractor, got %q", extractor.lastReq.Owner)
	}
}

func TestServiceExecuteAudioHasNoQuality(t *testing.T) {
	extractor := &stubExtractor{result: extract.Result{DownloadURL: "https://media.example.com/a.mp3"}}
	history := &stubHistory{}
	svc := newTestService(extractor, history)

	record, err := svc.Execute(context.Background(), Request{
		Owner:     "user-1",
		SourceURL: "https://youtu.be/dQw4w9WgXcQ",
		VideoID:   "dQw4w9WgXcQ",
		Selection: models.Selection{Format: models.FormatAudio, Quality: models.Quality1080p},
	}, videos.Metadata{})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if record.Format != models.FormatAudio || record.Quality != "" {
		t.Fatalf("expected audio record without quality, got %+v", record)
	}
	if extractor.lastReq.Selection.Quality != "" {
		t.Fatalf("expected normalized selection forwarded, got %+v", extractor.lastReq.Selection)
	}
}

func TestServiceExecuteUnauthorized(t *testing.T) {
	extractor := &stubExtractor{result: extract.Result{DownloadURL: "https://media.example.com/v.mp4"}}
	history := &stubHistory{}
	svc := newTestService(extractor, history)

	_, err := svc.Execute(context.Background(), Request{
		SourceURL: "https://youtu.be/dQw4w9WgXcQ",
		VideoID:   "dQw4w9WgXcQ",
		Selection: models.Selection{Format: models.FormatVideo, Quality: models.Quality720p},
	}, videos.Metadata{})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if extractor.calls != 0 {
		t.Fatalf("extractor must not run for unauthorized requests, got %d calls", extractor.calls)
	}
	if len(history.records) != 0 {
		t.Fatalf("expected no records persisted, got %d", len(history.records))
	}
}

func TestServiceExecuteAnonymousOwner(t *testing.T) {
	extractor := &stubExtractor{result: extract.Result{DownloadURL: "https://media.example.com/v.mp4"}}
	history := &stubHistory{}
	svc := newTestService(extractor, history)
	svc.AnonymousOwner = "guest"

	record, err := svc.Execute(context.Background(), Request{
		SourceURL: "https://youtu.be/dQw4w9WgXcQ",
		VideoID:   "dQw4w9WgXcQ",
		Selection: models.Selection{Format: models.FormatVideo, Quality: models.Quality720p},
	}, videos.Metadata{})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if record.OwnerID != "guest" {
		t.Fatalf("expected anonymous owner substituted, got %q", record.OwnerID)
	}
}

func TestServiceExecuteInvalidSelection(t *testing.T) {
	extractor := &stubExtractor{result: extract.Result{DownloadURL: "https://media.example.com/v.mp4"}}
	history := &stubHistory{}
	svc := newTestService(extractor, history)

	_, err := svc.Execute(context.Background(), Request{
		Owner:     "user-1",
		SourceURL: "https://youtu.be/dQw4w9WgXcQ",
		VideoID:   "dQw4w9WgXcQ",
		Selection: models.Selection{Format: models.FormatVideo},
	}, videos.Metadata{})
	if !errors.Is(err, ErrDownloadFailed) {
		t.Fatalf("expected ErrDownloadFailed, got %v", err)
	}
	if extractor.calls != 0 {
		t.Fatalf("extractor must not run for invalid selections, got %d calls", extractor.calls)
	}
}

func TestServiceExecuteExtractorFailure(t *testing.T) {
	extractor := &stubExtractor{err: errors.New("yt-dlp exited 1")}
	history := &stubHistory{}
	svc := newTestService(extractor, history)

	_, err := svc.Execute(context.Background(), Request{
		Owner:     "user-1",
		SourceURL: "https://youtu.be/dQw4w9WgXcQ",
		VideoID:   "dQw4w9WgXcQ",
		Selection: models.Selection{Format: models.FormatVideo, Quality: models.Quality720p},
	}, videos.Metadata{})
	if !errors.Is(err, ErrDownloadFailed) {
		t.Fatalf("expected ErrDownloadFailed, got %v", err)
	}
	if len(history.records) != 0 {
		t.Fatalf("expected no records persisted after extraction failure, got %d", len(history.records))
	}
}

func TestServiceExecuteHistoryFailure(t *testing.T) {
	extractor := &stubExtractor{result: extract.Result{DownloadURL: "https://media.example.com/v.mp4"}}
	history := &stubHistory{createErr: errors.New("connection refused")}
	svc := newTestService(extractor, history)

	_, err := svc.Execute(context.Background(), Request{
		Owner:     "user-1",
		SourceURL: "https://youtu.be/dQw4w9WgXcQ",
		VideoID:   "dQw4w9WgXcQ",
		Selection: models.Selection{Format: models.FormatVideo, Quality: models.Quality720p},
	}, videos.Metadata{})
	if !errors.Is(err, ErrDownloadFailed) {
		t.Fatalf("expected ErrDownloadFailed, got %v", err)
	}
	if len(history.records) != 0 {
		t.Fatalf("expected no records persisted, got %d", len(history.records))
	}
}

func TestServiceExecuteMissingDownloadURL(t *testing.T) {
	extractor := &stubExtractor{result: extract.Result{Title: "No Link"}}
	history := &stubHistory{}
	svc := newTestService(extractor, history)

	_, err := svc.Execute(context.Background(), Request{
		Owner:     "user-1",
		SourceURL: "https://youtu.be/dQw4w9WgXcQ",
		VideoID:   "dQw4w9WgXcQ",
		Selection: models.Selection{Format: models.FormatVideo, Quality: models.Quality720p},
	}, videos.Metadata{})
	if !errors.Is(err, ErrDownloadFailed) {
		t.Fatalf("expected ErrDownloadFailed, got %v", err)
	}
	if !errors.Is(err, extract.ErrNoDownloadURL) {
		t.Fatalf("expected ErrNoDownloadURL cause, got %v", err)
	}
}
