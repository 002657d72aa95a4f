package media

import (
	"net/url"
	"path"
	"strings"
)

// PlaybackState is the transient player state mirrored into a config bundle
type PlaybackState struct {
	Playing bool `json:"playing"`
	Muted   bool `json:"muted"`
}

// PlayerEnvironment carries page-level values some embedded players need.
// Callers supply it from configuration; nothing here reads process state.
type PlayerEnvironment struct {
	Origin        string
	Hostname      string
	FacebookAppID string
}

// PlaybackConfig is a platform-specific player options bundle. Exactly one
// concrete type exists per platform.
type PlaybackConfig interface {
	Platform() Platform
}

// RenderMode selects how a direct media file is rendered
type RenderMode string

const (
	RenderAuto  RenderMode = "auto"
	RenderVideo RenderMode = "video"
	RenderAudio RenderMode = "audio"
)

type YouTubeConfig struct {
	PlayerVars YouTubePlayerVars `json:"playerVars"`
}

type YouTubePlayerVars struct {
	ShowInfo       int    `json:"showinfo"`
	Origin         string `json:"origin,omitempty"`
	Autoplay       int    `json:"autoplay"`
	Mute           int    `json:"mute"`
	IVLoadPolicy   int    `json:"iv_load_policy"`
	ModestBranding int    `json:"modestbranding"`
	EnableJSAPI    int    `json:"enablejsapi"`
	Rel            int    `json:"rel"`
	FS             int    `json:"fs"`
	CCLoadPolicy   int    `json:"cc_load_policy"`
	HL             string `json:"hl"`
	PlaysInline    int    `json:"playsinline"`
	Controls       int    `json:"controls"`
	DisableKB      int    `json:"disablekb"`
	Loop           int    `json:"loop"`
	Start          int    `json:"start"`
	End            int    `json:"end"`
}

func (YouTubeConfig) Platform() Platform { return PlatformYouTube }

type VimeoConfig struct {
	PlayerOptions VimeoPlayerOptions `json:"playerOptions"`
}

type VimeoPlayerOptions struct {
	Autoplay   bool   `json:"autoplay"`
	Muted      bool   `json:"muted"`
	Controls   bool   `json:"controls"`
	Responsive bool   `json:"responsive"`
	DNT        bool   `json:"dnt"`
	Speed      bool   `json:"speed"`
	Keyboard   bool   `json:"keyboard"`
	PIP        bool   `json:"pip"`
	Title      bool   `json:"title"`
	Byline     bool   `json:"byline"`
	Portrait   bool   `json:"portrait"`
	Loop       bool   `json:"loop"`
	Autopause  bool   `json:"autopause"`
	Quality    string `json:"quality"`
}

func (VimeoConfig) Platform() Platform { return PlatformVimeo }

type DailymotionConfig struct {
	Params DailymotionParams `json:"params"`
}

type DailymotionParams struct {
	Controls          bool   `json:"controls"`
	Autoplay          bool   `json:"autoplay"`
	Mute              bool   `json:"mute"`
	QueueEnable       bool   `json:"queue-enable"`
	SharingEnable     bool   `json:"sharing-enable"`
	UIHighlight       string `json:"ui-highlight"`
	UILogo            bool   `json:"ui-logo"`
	UIStartScreenInfo bool   `json:"ui-start-screen-info"`
	UITheme           string `json:"ui-theme"`
	Quality           string `json:"quality"`
}

func (DailymotionConfig) Platform() Platform { return PlatformDailymotion }

type FacebookConfig struct {
	AppID      string             `json:"appId"`
	Version    string             `json:"version"`
	PlayerID   string             `json:"playerId"`
	Attributes FacebookAttributes `json:"attributes"`
}

type FacebookAttributes struct {
	Width           string `json:"data-width"`
	Height          string `json:"data-height"`
	Autoplay        bool   `json:"data-autoplay"`
	AllowFullscreen bool   `json:"data-allowfullscreen"`
	ShowText        bool   `json:"data-show-text"`
}

func (FacebookConfig) Platform() Platform { return PlatformFacebook }

type TwitchConfig struct {
	Options TwitchOptions `json:"options"`
}

type TwitchOptions struct {
	Width      string   `json:"width"`
	Height     string   `json:"height"`
	Channel    string   `json:"channel"`
	Video      string   `json:"video"`
	Collection string   `json:"collection"`
	Autoplay   bool     `json:"autoplay"`
	Muted      bool     `json:"muted"`
	Time       string   `json:"time"`
	Parent     []string `json:"parent"`
}

func (TwitchConfig) Platform() Platform { return PlatformTwitch }

type SoundCloudConfig struct {
	Options SoundCloudOptions `json:"options"`
}

type SoundCloudOptions struct {
	AutoPlay      bool `json:"auto_play"`
	Visual        bool `json:"visual"`
	ShowArtwork   bool `json:"show_artwork"`
	ShowPlaycount bool `json:"show_playcount"`
	ShowUser      bool `json:"show_user"`
	ShowComments  bool `json:"show_comments"`
	ShowTeaser    bool `json:"show_teaser"`
	Buying        bool `json:"buying"`
	Liking        bool `json:"liking"`
	Download      bool `json:"download"`
	Sharing       bool `json:"sharing"`
	SingleActive  bool `json:"single_active"`
}

func (SoundCloudConfig) Platform() Platform { return PlatformSoundCloud }

type FileConfig struct {
	Attributes FileAttributes `json:"attributes"`
	Mode       RenderMode     `json:"mode"`
	ForceVideo bool           `json:"forceVideo"`
	ForceAudio bool           `json:"forceAudio"`
	Tracks     []FileTrack    `json:"tracks"`
}

type FileAttributes struct {
	ControlsList string `json:"controlsList"`
	AutoPlay     bool   `json:"autoPlay"`
	Muted        bool   `json:"muted"`
	PlaysInline  bool   `json:"playsInline"`
	Preload      string `json:"preload"`
	CrossOrigin  string `json:"crossOrigin"`
	Controls     bool   `json:"controls"`
	Loop         bool   `json:"loop"`
}

// FileTrack is a text track (captions, subtitles) attached to a media file
type FileTrack struct {
	Kind    string `json:"kind"`
	Src     string `json:"src"`
	SrcLang string `json:"srcLang"`
	Default bool   `json:"default,omitempty"`
}

func (FileConfig) Platform() Platform { return PlatformFile }

// InertConfig is returned for unsupported platforms; players ignore it
type InertConfig struct{}

func (InertConfig) Platform() Platform { return PlatformUnknown }

// ConfigFor selects the player configuration for platform p. rawURL is only
// consulted for direct files, where it decides between audio and video
// rendering. It never fails.
func ConfigFor(p Platform, rawURL string, state PlaybackState, env PlayerEnvironment) PlaybackConfig {
	switch p {
	case PlatformYouTube:
		return YouTubeConfig{PlayerVars: YouTubePlayerVars{
			ShowInfo:       1,
			Origin:         env.Origin,
			Autoplay:       boolToInt(state.Playing),
			Mute:           boolToInt(state.Muted),
			IVLoadPolicy:   3,
			ModestBranding: 1,
			EnableJSAPI:    1,
			Rel:            0,
			FS:             1,
			CCLoadPolicy:   1,
			HL:             "en",
			PlaysInline:    1,
			Controls:       1,
		}}

	case PlatformVimeo:
		return VimeoConfig{PlayerOptions: VimeoPlayerOptions{
			Autoplay:   state.Playing,
			Muted:      state.Muted,
			Controls:   true,
			Responsive: true,
			DNT:        true,
			Speed:      true,
			Keyboard:   true,
			PIP:        true,
			Title:      true,
			Byline:     true,
			Autopause:  true,
			Quality:    "auto",
		}}

	case PlatformDailymotion:
		return DailymotionConfig{Params: DailymotionParams{
			Controls:    true,
			Autoplay:    state.Playing,
			Mute:        state.Muted,
			UIHighlight: "667eea",
			UITheme:     "dark",
			Quality:     "auto",
		}}

	case PlatformFacebook:
		return FacebookConfig{
			AppID:    env.FacebookAppID,
			Version:  "v2.5",
			PlayerID: "facebook-player",
			Attributes: FacebookAttributes{
				Width:           "100%",
				Height:          "100%",
				Autoplay:        state.Playing,
				AllowFullscreen: true,
			},
		}

	case PlatformTwitch:
		parent := []string{}
		if env.Hostname != "" {
			parent = append(parent, env.Hostname)
		}
		return TwitchConfig{Options: TwitchOptions{
			Width:    "100%",
			Height:   "100%",
			Autoplay: state.Playing,
			Muted:    state.Muted,
			Time:     "0h0m0s",
			Parent:   parent,
		}}

	case PlatformSoundCloud:
		return SoundCloudConfig{Options: SoundCloudOptions{
			AutoPlay:     state.Playing,
			Visual:       true,
			ShowArtwork:  true,
			SingleActive: true,
		}}

	case PlatformFile:
		mode := FileRenderMode(rawURL)
		return FileConfig{
			Attributes: FileAttributes{
				ControlsList: "nodownload",
				AutoPlay:     state.Playing,
				Muted:        state.Muted,
				PlaysInline:  true,
				Preload:      "metadata",
				CrossOrigin:  "anonymous",
				Controls:     true,
			},
			Mode:       mode,
			ForceVideo: mode == RenderVideo,
			ForceAudio: mode == RenderAudio,
			Tracks:     []FileTrack{},
		}

	default:
		return InertConfig{}
	}
}

// FileRenderMode decides audio or video rendering from the URL's extension.
// The path extension wins; otherwise the first extension found before a
// query string or at the end of the string is used.
func FileRenderMode(rawURL string) RenderMode {
	if parsed, err := url.Parse(strings.TrimSpace(rawURL)); err == nil {
		if mode, ok := modeForExtension(strings.ToLower(path.Ext(parsed.Path))); ok {
			return mode
		}
	}

	lower := strings.ToLower(rawURL)
	switch {
	case hasAnyExtension(lower, audioExtensions):
		return RenderAudio
	case hasAnyExtension(lower, videoExtensions):
		return RenderVideo
	default:
		return RenderAuto
	}
}

func modeForExtension(ext string) (RenderMode, bool) {
	for _, audio := range audioExtensions {
		if ext == audio {
			return RenderAudio, true
		}
	}
	for _, video := range videoExtensions {
		if ext == video {
			return RenderVideo, true
		}
	}
	return "", false
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
