package media

import (
	"fmt"
	"net/url"
	"strings"
)

const youtubeWatchURL = "https://www.youtube.com/watch?v=%s"

// YouTubeCanonicalizer rewrites YouTube watch and short-link URLs to the
// canonical watch form.
type YouTubeCanonicalizer struct{}

// NewYouTubeCanonicalizer creates a new YouTube canonicalizer
func NewYouTubeCanonicalizer() *YouTubeCanonicalizer {
	return &YouTubeCanonicalizer{}
}

// Platform returns the platform for this canonicalizer
func (c *YouTubeCanonicalizer) Platform() Platform {
	return PlatformYouTube
}

// Canonicalize rewrites URLs carrying a v parameter and youtu.be short links
func (c *YouTubeCanonicalizer) Canonicalize(u *url.URL) (string, bool) {
	if videoID := u.Query().Get("v"); videoID != "" {
		return fmt.Sprintf(youtubeWatchURL, url.QueryEscape(videoID)), true
	}

	if normalizeHost(u.Hostname()) == "youtu.be" {
		segments := splitPath(u.Path)
		if len(segments) == 0 {
			return "", false
		}
		return fmt.Sprintf(youtubeWatchURL, url.QueryEscape(segments[len(segments)-1])), true
	}

	return "", false
}

// YouTubeVideoID extracts the video ID from a YouTube URL. It returns an
// empty string when the URL is not a YouTube video URL.
func YouTubeVideoID(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}

	host := normalizeHost(parsed.Hostname())

	var videoID string
	switch host {
	case "youtu.be":
		// Short URL format: youtu.be/VIDEO_ID
		videoID = strings.TrimPrefix(parsed.Path, "/")

	case "youtube.com", "music.youtube.com":
		path := parsed.Path
		switch {
		case strings.HasPrefix(path, "/watch"):
			videoID = parsed.Query().Get("v")
		case strings.HasPrefix(path, "/embed/"):
			videoID = strings.TrimPrefix(path, "/embed/")
		case strings.HasPrefix(path, "/shorts/"):
			videoID = strings.TrimPrefix(path, "/shorts/")
		case strings.HasPrefix(path, "/v/"):
			videoID = strings.TrimPrefix(path, "/v/")
		case strings.HasPrefix(path, "/live/"):
			videoID = strings.TrimPrefix(path, "/live/")
		}
	}

	// Drop trailing path segments
	if idx := strings.Index(videoID, "/"); idx != -1 {
		videoID = videoID[:idx]
	}

	return videoID
}

// ThumbnailURL returns a preview image URL for the video, or an empty string
// when the platform has no static thumbnail scheme.
func ThumbnailURL(rawURL string) string {
	if Classify(rawURL) != PlatformYouTube {
		return ""
	}

	videoID := YouTubeVideoID(rawURL)
	if videoID == "" {
		return ""
	}

	return fmt.Sprintf("https://img.youtube.com/vi/%s/maxresdefault.jpg", url.PathEscape(videoID))
}

// normalizeHost lowercases a host and strips the www. and m. prefixes
func normalizeHost(host string) string {
	host = strings.ToLower(host)
	host = strings.TrimPrefix(host, "www.")
	host = strings.TrimPrefix(host, "m.")
	return host
}

// splitPath splits a URL path into non-empty segments
func splitPath(path string) []string {
	parts := strings.Split(path, "/")
	segments := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			segments = append(segments, p)
		}
	}
	return segments
}
