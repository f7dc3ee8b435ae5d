package models

import (
	"fmt"
	"time"
)

// User represents an account within the TubeGrab platform.
type User struct {
	ID        string
	Email     string
	Password  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Format selects the kind of artifact the extraction job produces.
type Format string

const (
	FormatVideo Format = "video"
	FormatAudio Format = "audio"
)

// Quality constrains the resolution of a video download. It has no
// meaning for audio downloads.
type Quality string

const (
	Quality1080p Quality = "1080p"
	Quality720p  Quality = "720p"
	Quality480p  Quality = "480p"
	Quality360p  Quality = "360p"
)

var videoQualities = map[Quality]struct{}{
	Quality1080p: {},
	Quality720p:  {},
	Quality480p:  {},
	Quality360p:  {},
}

// Selection pairs a format with an optional quality. Normalize enforces
// the invariant that quality is present for video and absent for audio,
// so an "audio at 720p" selection cannot reach the extraction job.
type Selection struct {
	Format  Format
	Quality Quality
}

// Normalize validates the selection, clearing quality for audio and
// requiring a known quality for video.
func (s Selection) Normalize() (Selection, error) {
	switch s.Format {
	case FormatAudio:
		s.Quality = ""
		return s, nil
	case FormatVideo:
		if s.Quality == "" {
			return Selection{}, fmt.Errorf("quality is required for video downloads")
		}
		if _, ok := videoQualities[s.Quality]; !ok {
			return Selection{}, fmt.Errorf("unknown quality %q", s.Quality)
		}
		return s, nil
	default:
		return Selection{}, fmt.Errorf("unknown format %q", s.Format)
	}
}

// HistoryRecord is the durable outcome of a completed download. Records
// are created once by the download orchestrator and never mutated.
type HistoryRecord struct {
	ID           string
	OwnerID      string
	VideoID      string
	SourceURL    string
	Title        string
	Author       string
	Duration     string
	ThumbnailURL string
	Format       Format
	Quality      Quality
	DownloadURL  string
	FileSize     int64
	CreatedAt    time.Time
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
