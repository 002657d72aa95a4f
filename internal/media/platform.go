package media

import "strings"

// Platform identifies the media platform a URL belongs to
type Platform string

const (
	PlatformYouTube     Platform = "youtube"
	PlatformVimeo       Platform = "vimeo"
	PlatformDailymotion Platform = "dailymotion"
	PlatformFacebook    Platform = "facebook"
	PlatformTwitch      Platform = "twitch"
	PlatformSoundCloud  Platform = "soundcloud"
	PlatformFile        Platform = "file"
	PlatformUnknown     Platform = "unknown"
)

// hostRule maps domain fragments to a platform. Order is classification priority.
type hostRule struct {
	platform  Platform
	fragments []string
}

var hostRules = []hostRule{
	{PlatformYouTube, []string{"youtube.com", "youtu.be"}},
	{PlatformVimeo, []string{"vimeo.com"}},
	{PlatformDailymotion, []string{"dailymotion.com", "dai.ly"}},
	{PlatformFacebook, []string{"facebook.com", "fb.watch"}},
	{PlatformTwitch, []string{"twitch.tv"}},
	{PlatformSoundCloud, []string{"soundcloud.com"}},
}

var (
	videoExtensions = []string{".mp4", ".webm", ".ogg"}
	audioExtensions = []string{".mp3", ".wav", ".m4a"}
)

// Classify returns the platform for a URL. It never fails: empty or
// unrecognized input yields PlatformUnknown.
func Classify(rawURL string) Platform {
	if rawURL == "" {
		return PlatformUnknown
	}

	lower := strings.ToLower(rawURL)

	for _, rule := range hostRules {
		for _, fragment := range rule.fragments {
			if strings.Contains(lower, fragment) {
				return rule.platform
			}
		}
	}

	if hasAnyExtension(lower, videoExtensions) || hasAnyExtension(lower, audioExtensions) {
		return PlatformFile
	}

	return PlatformUnknown
}

// Platforms returns the supported platforms in classification priority order
func Platforms() []Platform {
	platforms := make([]Platform, 0, len(hostRules)+1)
	for _, rule := range hostRules {
		platforms = append(platforms, rule.platform)
	}
	return append(platforms, PlatformFile)
}

// IsSupported reports whether p is a known platform other than PlatformUnknown
func (p Platform) IsSupported() bool {
	for _, supported := range Platforms() {
		if p == supported {
			return true
		}
	}
	return false
}

// hasAnyExtension reports whether lower ends with one of exts, or carries one
// of them directly before a query string.
func hasAnyExtension(lower string, exts []string) bool {
	for _, ext := range exts {
		if strings.HasSuffix(lower, ext) || strings.Contains(lower, ext+"?") {
			return true
		}
	}
	return false
}

// VideoExtensions returns the direct-file extensions rendered as video
func VideoExtensions() []string {
	return append([]string(nil), videoExtensions...)
}

// AudioExtensions returns the direct-file extensions rendered as audio
func AudioExtensions() []string {
	return append([]string(nil), audioExtensions...)
}
