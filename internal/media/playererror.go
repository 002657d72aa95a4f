package media

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

const failurePrefix = "Failed to load video. "

// PlayerFailure is a playback failure reported by an embedded player.
// Code is the platform-specific numeric code, nil when absent.
type PlayerFailure struct {
	Platform Platform `json:"platform"`
	Code     *int     `json:"code,omitempty"`
}

// DiagnosticMessage is a user-facing explanation of a playback failure
type DiagnosticMessage struct {
	Text        string   `json:"text"`
	Suggestions []string `json:"suggestions"`
}

// YouTube IFrame API error codes
const (
	youtubeInvalidParam    = 2
	youtubeHTML5Error      = 5
	youtubeNotFound        = 100
	youtubeNotEmbeddable   = 101
	youtubeNotEmbeddableV2 = 150
)

var platformFailureText = map[Platform]string{
	PlatformVimeo:       "Vimeo video playback error. The video may be private or have embedding disabled.",
	PlatformDailymotion: "Dailymotion video playback error. The video may be private or region-restricted.",
	PlatformFacebook:    "Facebook video playback error. The video may be private or have restricted sharing settings.",
	PlatformTwitch:      "Twitch video playback error. The stream may be offline or the video may be subscriber-only.",
	PlatformSoundCloud:  "SoundCloud audio playback error. The track may be private or region-restricted.",
	PlatformFile:        "Media file playback error. The file may be corrupted, in an unsupported format, or the server may not allow direct access.",
}

const genericFailureText = "Please check the video URL or try a different browser."

var troubleshootingSuggestions = []string{
	"Make sure the URL format is correct for the platform:",
	"  • YouTube: https://www.youtube.com/watch?v=VIDEO_ID",
	"  • Vimeo: https://vimeo.com/VIDEO_ID",
	"  • Dailymotion: https://www.dailymotion.com/video/VIDEO_ID",
	"  • Direct files: Link ending with .mp4, .webm, or .ogg",
	"Check if the video is available in your region",
	"Ensure the video allows embedding (some creators restrict this)",
	"Try opening the URL directly in a browser to confirm it works",
}

// Translate maps a player failure to a diagnostic message. It never fails:
// missing fields fall back to the generic explanation.
func Translate(f PlayerFailure) DiagnosticMessage {
	return DiagnosticMessage{
		Text:        failurePrefix + failureText(f),
		Suggestions: TroubleshootingSuggestions(),
	}
}

// TroubleshootingSuggestions returns the static troubleshooting list
func TroubleshootingSuggestions() []string {
	suggestions := make([]string, len(troubleshootingSuggestions))
	copy(suggestions, troubleshootingSuggestions)
	return suggestions
}

func failureText(f PlayerFailure) string {
	if f.Platform == PlatformYouTube {
		return youtubeFailureText(f.Code)
	}
	if text, ok := platformFailureText[f.Platform]; ok {
		return text
	}
	return genericFailureText
}

func youtubeFailureText(code *int) string {
	if code == nil {
		return "YouTube player error (unknown). Please try a different video."
	}

	switch *code {
	case youtubeNotEmbeddable, youtubeNotEmbeddableV2:
		return "This video cannot be played because embedding has been disabled by the owner."
	case youtubeInvalidParam:
		return "Invalid YouTube video ID or URL format."
	case youtubeHTML5Error:
		return "This YouTube video cannot be played in your browser."
	case youtubeNotFound:
		return "This YouTube video has been removed or is private."
	case 0:
		return "YouTube player error (unknown). Please try a different video."
	default:
		return fmt.Sprintf("YouTube player error (%d). Please try a different video.", *code)
	}
}

// FailureFromEvent builds a PlayerFailure from a player error event payload.
// The payload is opaque: a bare number, an object with a numeric "data"
// field, any other JSON value, or nothing. An absent payload carries no
// platform information and yields the generic failure.
func FailureFromEvent(rawURL string, payload json.RawMessage) PlayerFailure {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return PlayerFailure{Platform: PlatformUnknown}
	}

	failure := PlayerFailure{Platform: Classify(rawURL)}

	var code float64
	if err := json.Unmarshal(trimmed, &code); err == nil {
		failure.Code = codeFrom(code)
		return failure
	}

	var object struct {
		Data *float64 `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &object); err == nil && object.Data != nil {
		failure.Code = codeFrom(*object.Data)
	}

	return failure
}

// codeFrom accepts only integral codes that fit an int32. Anything else is
// not a real player code and is treated as absent.
func codeFrom(v float64) *int {
	if v != math.Trunc(v) || v < math.MinInt32 || v > math.MaxInt32 {
		return nil
	}
	return intPtr(int(v))
}

func intPtr(v int) *int {
	return &v
}
