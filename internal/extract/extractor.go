package extract

import (
	"context"
	"errors"
	"io"

	"github.com/tubegrab/backend/internal/models"
)

var (
	// ErrExtractorUnavailable indicates no extraction backend is configured.
	ErrExtractorUnavailable = errors.New("extraction backend unavailable")
	// ErrNoDownloadURL indicates the job completed without producing a
	// resolvable download link.
	ErrNoDownloadURL = errors.New("extraction produced no download url")
)

// Request describes a single extraction job: turn the source URL into a
// downloadable artifact for the selected format.
type Request struct {
	SourceURL string
	Selection models.Selection
	Owner     string
}

// Result is the outcome of a successful extraction. DownloadURL is
// resolvable at the time the job completes; Title, Thumbnail and Duration
// echo the media details when the backend reports them and may be empty.
type Result struct {
	DownloadURL string
	Title       string
	Thumbnail   string
	Duration    string
	FileSize    int64
}

// Extractor runs a potentially slow, failable extraction job. The call is
// opaque to callers: it is awaited to completion or failure, never
// retried automatically, and cannot be aborted once dispatched.
type Extractor interface {
	Extract(ctx context.Context, req Request) (Result, error)
}

// AssetStorage persists extracted media files and returns a public
// location for each stored object.
type AssetStorage interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}
