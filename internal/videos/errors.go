package videos

import "errors"

var (
	// ErrInvalidURL indicates the input does not match a supported video URL shape.
	ErrInvalidURL = errors.New("unrecognized video url")
	// ErrProviderUnavailable indicates the metadata provider is not configured.
	ErrProviderUnavailable = errors.New("video metadata provider unavailable")
	// ErrMetadataUnavailable indicates the metadata lookup failed; callers must
	// not proceed to format selection or download.
	ErrMetadataUnavailable = errors.New("video metadata unavailable")
)
