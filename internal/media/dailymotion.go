package media

import (
	"fmt"
	"net/url"
)

// DailymotionCanonicalizer rewrites dai.ly short links and /video/ paths to
// the canonical Dailymotion video URL.
type DailymotionCanonicalizer struct{}

// NewDailymotionCanonicalizer creates a new Dailymotion canonicalizer
func NewDailymotionCanonicalizer() *DailymotionCanonicalizer {
	return &DailymotionCanonicalizer{}
}

// Platform returns the platform for this canonicalizer
func (c *DailymotionCanonicalizer) Platform() Platform {
	return PlatformDailymotion
}

// Canonicalize extracts the video ID and rebuilds the URL
func (c *DailymotionCanonicalizer) Canonicalize(u *url.URL) (string, bool) {
	segments := splitPath(u.Path)
	if len(segments) == 0 {
		return "", false
	}

	var videoID string
	if normalizeHost(u.Hostname()) == "dai.ly" {
		// Short URL format: dai.ly/VIDEO_ID
		videoID = segments[len(segments)-1]
	} else {
		for i, segment := range segments {
			if segment == "video" && i+1 < len(segments) {
				videoID = segments[i+1]
				break
			}
		}
	}

	if videoID == "" {
		return "", false
	}

	return fmt.Sprintf("https://www.dailymotion.com/video/%s", url.PathEscape(videoID)), true
}
