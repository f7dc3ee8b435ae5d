package videos

import "context"

// Metadata captures the descriptive details shown to a user before they
// commit to a download. Duration is a human-readable display string, not
// a numeric value.
type Metadata struct {
	Title     string
	Author    string
	Duration  string
	Thumbnail string
}

// Provider returns metadata for the supplied video URL. A failed lookup is
// reported with an error wrapping ErrMetadataUnavailable; callers discard
// stale results themselves when a newer lookup has since started.
type Provider interface {
	Lookup(ctx context.Context, url string) (Metadata, error)
}
