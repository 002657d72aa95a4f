package media

import (
	"net/url"
	"strings"
)

// Validation error messages surfaced directly to users
const (
	ErrURLRequired         = "URL is required"
	ErrInvalidURLFormat    = "Invalid URL format"
	ErrUnsupportedPlatform = "Unsupported video platform. Please use YouTube, Vimeo, Dailymotion, Facebook, Twitch, SoundCloud, or a direct media file link (.mp4, .webm, .ogg, .mp3, .wav, .m4a)."
)

// ValidationResult contains the result of URL validation
type ValidationResult struct {
	Valid         bool     `json:"valid"`
	NormalizedURL string   `json:"normalized_url"`
	Platform      Platform `json:"platform"`
	Error         string   `json:"error,omitempty"`
}

// Normalizer validates URLs and rewrites them into canonical form
type Normalizer struct {
	registry *Registry
}

// NewNormalizer creates a normalizer backed by the given canonicalizer registry
func NewNormalizer(registry *Registry) *Normalizer {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Normalizer{registry: registry}
}

var defaultNormalizer = NewNormalizer(DefaultRegistry())

// ValidateAndFix validates rawURL with the built-in canonicalizers
func ValidateAndFix(rawURL string) ValidationResult {
	return defaultNormalizer.ValidateAndFix(rawURL)
}

// ValidateAndFix checks that rawURL is a well-formed absolute URL on a
// supported platform, repairing a missing scheme and rewriting known
// malformed variants to canonical form. Applying it to its own
// NormalizedURL yields the same result.
func (n *Normalizer) ValidateAndFix(rawURL string) ValidationResult {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return invalid(rawURL, ErrURLRequired)
	}

	if _, ok := parseAbsolute(trimmed); !ok {
		if strings.HasPrefix(strings.ToLower(trimmed), "http") {
			return invalid(rawURL, ErrInvalidURLFormat)
		}

		withScheme := "https://" + trimmed
		if _, ok := parseAbsolute(withScheme); !ok {
			return invalid(rawURL, ErrInvalidURLFormat)
		}
		return n.ValidateAndFix(withScheme)
	}

	return n.classifyAndCanonicalize(trimmed)
}

func (n *Normalizer) classifyAndCanonicalize(trimmed string) ValidationResult {
	platform := Classify(trimmed)
	if platform == PlatformUnknown {
		return ValidationResult{
			Valid:         false,
			NormalizedURL: trimmed,
			Platform:      PlatformUnknown,
			Error:         ErrUnsupportedPlatform,
		}
	}

	normalized := trimmed
	if parsed, ok := parseAbsolute(trimmed); ok {
		if canonical, rewritten := n.registry.Canonicalize(platform, parsed); rewritten {
			normalized = canonical
		}
	}

	return ValidationResult{
		Valid:         true,
		NormalizedURL: normalized,
		Platform:      platform,
	}
}

func invalid(rawURL, message string) ValidationResult {
	return ValidationResult{
		Valid:         false,
		NormalizedURL: rawURL,
		Platform:      PlatformUnknown,
		Error:         message,
	}
}

// parseAbsolute parses s strictly: it must carry both a scheme and a host
func parseAbsolute(s string) (*url.URL, bool) {
	parsed, err := url.Parse(s)
	if err != nil {
		return nil, false
	}
	if parsed.Scheme == "" || parsed.Hostname() == "" {
		return nil, false
	}
	return parsed, true
}
