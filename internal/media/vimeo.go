package media

import (
	"fmt"
	"net/url"
	"regexp"
)

// VimeoCanonicalizer rewrites Vimeo URLs ending in a numeric video ID
type VimeoCanonicalizer struct {
	// videoIDPattern matches numeric Vimeo video IDs
	videoIDPattern *regexp.Regexp
}

// NewVimeoCanonicalizer creates a new Vimeo canonicalizer
func NewVimeoCanonicalizer() *VimeoCanonicalizer {
	return &VimeoCanonicalizer{
		videoIDPattern: regexp.MustCompile(`^\d+$`),
	}
}

// Platform returns the platform for this canonicalizer
func (c *VimeoCanonicalizer) Platform() Platform {
	return PlatformVimeo
}

// Canonicalize rewrites the URL when its last path segment is purely numeric.
// Anything else (channels, showcases, trailing slugs) passes through.
func (c *VimeoCanonicalizer) Canonicalize(u *url.URL) (string, bool) {
	segments := splitPath(u.Path)
	if len(segments) == 0 {
		return "", false
	}

	videoID := segments[len(segments)-1]
	if !c.videoIDPattern.MatchString(videoID) {
		return "", false
	}

	return fmt.Sprintf("https://vimeo.com/%s", videoID), true
}
