package videos

import "regexp"

// videoIDPattern locates one of the known YouTube URL markers and captures
// the identifier segment that follows, up to a query or fragment delimiter.
var videoIDPattern = regexp.MustCompile(`(youtu\.be/|/v/|/u/\w/|/embed/|/shorts/|watch\?v=|&v=)([^#&?/]*)`)

// videoIDCharset matches the alphabet YouTube uses for video identifiers.
var videoIDCharset = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ExtractVideoID derives the canonical 11-character video identifier from a
// user-supplied URL. It recognizes watch-page, short-link, embed, shorts and
// legacy /v/ and /u/ URL shapes. Any string without a recognized marker, or
// whose captured segment is not exactly 11 identifier characters, yields
// ErrInvalidURL. The function is pure and performs no network access.
func ExtractVideoID(raw string) (string, error) {
	match := videoIDPattern.FindStringSubmatch(raw)
	if match == nil {
		return "", ErrInvalidURL
	}

	id := match[2]
	if !videoIDCharset.MatchString(id) {
		return "", ErrInvalidURL
	}

	return id, nil
}

// ThumbnailURL returns the canonical thumbnail location for a video id.
func ThumbnailURL(videoID string) string {
	return "https://i.ytimg.com/vi/" + videoID + "/maxresdefault.jpg"
}
