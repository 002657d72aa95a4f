package media

import (
	"net/url"
	"strings"
	"testing"
)

func TestValidateAndFix(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		valid      bool
		normalized string
		platform   Platform
		err        string
	}{
		{
			name:       "empty",
			input:      "",
			normalized: "",
			platform:   PlatformUnknown,
			err:        ErrURLRequired,
		},
		{
			name:       "whitespace only",
			input:      "   \t",
			normalized: "   \t",
			platform:   PlatformUnknown,
			err:        ErrURLRequired,
		},
		{
			name:       "missing scheme is repaired",
			input:      "youtube.com/watch?v=abc123",
			valid:      true,
			normalized: "https://www.youtube.com/watch?v=abc123",
			platform:   PlatformYouTube,
		},
		{
			name:       "youtube short link",
			input:      "https://youtu.be/abc123",
			valid:      true,
			normalized: "https://www.youtube.com/watch?v=abc123",
			platform:   PlatformYouTube,
		},
		{
			name:       "youtube short link with timestamp",
			input:      "https://youtu.be/abc123?t=42",
			valid:      true,
			normalized: "https://www.youtube.com/watch?v=abc123",
			platform:   PlatformYouTube,
		},
		{
			name:       "youtube short link with explicit port",
			input:      "https://youtu.be:443/abc123",
			valid:      true,
			normalized: "https://www.youtube.com/watch?v=abc123",
			platform:   PlatformYouTube,
		},
		{
			name:       "dailymotion short link with explicit port",
			input:      "https://dai.ly:443/x8abc",
			valid:      true,
			normalized: "https://www.dailymotion.com/video/x8abc",
			platform:   PlatformDailymotion,
		},
		{
			name:       "youtube mobile watch",
			input:      "https://m.youtube.com/watch?v=abc123&feature=share",
			valid:      true,
			normalized: "https://www.youtube.com/watch?v=abc123",
			platform:   PlatformYouTube,
		},
		{
			name:       "youtube embed passes through",
			input:      "https://www.youtube.com/embed/abc123",
			valid:      true,
			normalized: "https://www.youtube.com/embed/abc123",
			platform:   PlatformYouTube,
		},
		{
			name:       "vimeo numeric id",
			input:      "https://vimeo.com/channels/staffpicks/76979871",
			valid:      true,
			normalized: "https://vimeo.com/76979871",
			platform:   PlatformVimeo,
		},
		{
			name:       "vimeo non numeric trailing segment",
			input:      "https://vimeo.com/76979871/extra",
			valid:      true,
			normalized: "https://vimeo.com/76979871/extra",
			platform:   PlatformVimeo,
		},
		{
			name:       "dailymotion video path with query",
			input:      "https://www.dailymotion.com/video/x7tgad0?playlist=x6hynp",
			valid:      true,
			normalized: "https://www.dailymotion.com/video/x7tgad0",
			platform:   PlatformDailymotion,
		},
		{
			name:       "dailymotion short link",
			input:      "https://dai.ly/x7tgad0",
			valid:      true,
			normalized: "https://www.dailymotion.com/video/x7tgad0",
			platform:   PlatformDailymotion,
		},
		{
			name:       "facebook passes through",
			input:      "https://www.facebook.com/watch/?v=10153231379946729",
			valid:      true,
			normalized: "https://www.facebook.com/watch/?v=10153231379946729",
			platform:   PlatformFacebook,
		},
		{
			name:       "direct file",
			input:      "https://example.com/video.mp4",
			valid:      true,
			normalized: "https://example.com/video.mp4",
			platform:   PlatformFile,
		},
		{
			name:       "surrounding whitespace trimmed",
			input:      "  https://vimeo.com/123  ",
			valid:      true,
			normalized: "https://vimeo.com/123",
			platform:   PlatformVimeo,
		},
		{
			name:       "unsupported host",
			input:      "https://example.com/page",
			normalized: "https://example.com/page",
			platform:   PlatformUnknown,
			err:        ErrUnsupportedPlatform,
		},
		{
			name:       "unsupported host without scheme",
			input:      "example.com/page",
			normalized: "https://example.com/page",
			platform:   PlatformUnknown,
			err:        ErrUnsupportedPlatform,
		},
		{
			name:       "broken http prefix",
			input:      "http//youtube.com/watch?v=abc",
			normalized: "http//youtube.com/watch?v=abc",
			platform:   PlatformUnknown,
			err:        ErrInvalidURLFormat,
		},
		{
			name:       "scheme without host",
			input:      "http://",
			normalized: "http://",
			platform:   PlatformUnknown,
			err:        ErrInvalidURLFormat,
		},
		{
			name:       "spaces in host",
			input:      "not a url at all",
			normalized: "not a url at all",
			platform:   PlatformUnknown,
			err:        ErrInvalidURLFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateAndFix(tt.input)

			if got.Valid != tt.valid {
				t.Errorf("Valid = %v, want %v", got.Valid, tt.valid)
			}
			if got.NormalizedURL != tt.normalized {
				t.Errorf("NormalizedURL = %q, want %q", got.NormalizedURL, tt.normalized)
			}
			if got.Platform != tt.platform {
				t.Errorf("Platform = %q, want %q", got.Platform, tt.platform)
			}
			if got.Error != tt.err {
				t.Errorf("Error = %q, want %q", got.Error, tt.err)
			}
		})
	}
}

func TestValidateAndFix_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"youtube.com/watch?v=abc123",
		"https://youtu.be/abc123?t=42",
		"https://www.youtube.com/watch?v=a%2Fb",
		"https://youtu.be/a b",
		"https://vimeo.com/channels/staffpicks/76979871",
		"https://vimeo.com/76979871/extra",
		"https://dai.ly/x7tgad0",
		"https://www.dailymotion.com/video/x7 tgad0",
		"https://soundcloud.com/artist/track",
		"https://www.twitch.tv/videos/123",
		"https://example.com/video.mp4",
		"https://example.com/page",
		"example.com/page",
		"not a url at all",
		"http//broken",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			once := ValidateAndFix(input)
			twice := ValidateAndFix(once.NormalizedURL)

			if once.NormalizedURL != twice.NormalizedURL {
				t.Errorf("NormalizedURL changed on second pass: %q -> %q", once.NormalizedURL, twice.NormalizedURL)
			}
			if once.Valid != twice.Valid {
				t.Errorf("Valid changed on second pass: %v -> %v", once.Valid, twice.Valid)
			}
		})
	}
}

func TestValidateAndFix_UnsupportedMessageListsPlatforms(t *testing.T) {
	got := ValidateAndFix("https://example.com/page")
	for _, name := range []string{"YouTube", "Vimeo", "Dailymotion", "Facebook", "Twitch", "SoundCloud", ".mp4", ".m4a"} {
		if !strings.Contains(got.Error, name) {
			t.Errorf("unsupported message missing %q", name)
		}
	}
}

type facebookReelCanonicalizer struct{}

func (facebookReelCanonicalizer) Platform() Platform { return PlatformFacebook }

func (facebookReelCanonicalizer) Canonicalize(u *url.URL) (string, bool) {
	segments := splitPath(u.Path)
	if len(segments) == 2 && segments[0] == "reel" {
		return "https://www.facebook.com/reel/" + segments[1], true
	}
	return "", false
}

func TestNormalizer_CustomRegistry(t *testing.T) {
	registry := NewRegistry()
	registry.Register(facebookReelCanonicalizer{})
	n := NewNormalizer(registry)

	got := n.ValidateAndFix("https://m.facebook.com/reel/42")
	if got.NormalizedURL != "https://www.facebook.com/reel/42" {
		t.Errorf("NormalizedURL = %q", got.NormalizedURL)
	}

	// Without a YouTube canonicalizer short links pass through unchanged
	got = n.ValidateAndFix("https://youtu.be/abc123")
	if !got.Valid || got.NormalizedURL != "https://youtu.be/abc123" {
		t.Errorf("expected pass-through, got %+v", got)
	}
}

func TestRegistry_RegisterReplaces(t *testing.T) {
	r := NewRegistry()
	r.Register(NewVimeoCanonicalizer())
	r.Register(NewYouTubeCanonicalizer())
	r.Register(NewVimeoCanonicalizer())

	platforms := r.Platforms()
	if len(platforms) != 2 || platforms[0] != PlatformVimeo || platforms[1] != PlatformYouTube {
		t.Errorf("Platforms() = %v", platforms)
	}

	if _, ok := r.Canonicalize(PlatformTwitch, &url.URL{Path: "/videos/1"}); ok {
		t.Error("unregistered platform should not rewrite")
	}
}

func TestNewNormalizer_NilRegistry(t *testing.T) {
	n := NewNormalizer(nil)
	got := n.ValidateAndFix("https://vimeo.com/123")
	if !got.Valid {
		t.Errorf("expected valid result, got %+v", got)
	}
}
