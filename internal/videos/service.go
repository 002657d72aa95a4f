package videos

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/openvideohub/videohub/internal/cache"
	apperrors "github.com/openvideohub/videohub/internal/errors"
	"github.com/openvideohub/videohub/internal/logger"
	"github.com/openvideohub/videohub/internal/media"
	"github.com/openvideohub/videohub/internal/videoapi"
	"github.com/openvideohub/videohub/internal/websocket"
)

// Form validation messages shown to users
const (
	ErrTitleRequired       = "Title is required"
	ErrDescriptionRequired = "Description is required"
	ErrVideoURLRequired    = "Video URL is required"
	ErrNoEditableFields    = "At least one field must have content"
	ErrCommentRequired     = "Comment content is required"
	ErrTitleTooLong        = "Title must be at most 100 characters"
	ErrDescriptionTooLong  = "Description must be at most 500 characters"

	maxTitleLength       = 100
	maxDescriptionLength = 500
	maxCommentLength     = 1000
)

// API is the remote video store
type API interface {
	CreateVideo(ctx context.Context, req videoapi.CreateVideoRequest) (*videoapi.Video, error)
	ListVideos(ctx context.Context, userID string) ([]videoapi.Video, error)
	GetVideo(ctx context.Context, videoID, userID string) (*videoapi.Video, error)
	EditVideo(ctx context.Context, req videoapi.EditVideoRequest) error
	CreateComment(ctx context.Context, req videoapi.CreateCommentRequest) (*videoapi.Comment, error)
	ListComments(ctx context.Context, videoID string) ([]videoapi.Comment, error)
}

// Cache holds recent API reads
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) bool
	SetJSON(ctx context.Context, key string, v any) error
	Delete(ctx context.Context, keys ...string) error
}

// Publisher pushes live comment events to viewers
type Publisher interface {
	Publish(ctx context.Context, event *websocket.CommentEvent) error
}

// VideoView is a video enriched with what the player needs to render it
type VideoView struct {
	videoapi.Video
	Platform     media.Platform `json:"platform"`
	ThumbnailURL string         `json:"thumbnail_url,omitempty"`
	Playable     bool           `json:"playable"`
}

// VideoForm is the user-editable part of a video
type VideoForm struct {
	UserID      string `json:"user_id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	VideoURL    string `json:"video_url"`
}

// CommentForm is a new comment
type CommentForm struct {
	UserID  string `json:"user_id,omitempty"`
	Content string `json:"content"`
}

// Service implements the video library on top of the remote API
type Service struct {
	api           API
	cache         Cache
	publisher     Publisher
	normalizer    *media.Normalizer
	defaultUserID string
	log           *logger.Logger
}

// NewService creates a video service. cache and publisher may be nil.
func NewService(api API, c Cache, publisher Publisher, defaultUserID string, log *logger.Logger) *Service {
	if c == nil {
		c = noopCache{}
	}
	if log == nil {
		log = logger.Default()
	}
	return &Service{
		api:           api,
		cache:         c,
		publisher:     publisher,
		normalizer:    media.NewNormalizer(media.DefaultRegistry()),
		defaultUserID: defaultUserID,
		log:           log.WithComponent("videos"),
	}
}

func (s *Service) userOrDefault(userID string) string {
	if u := strings.TrimSpace(userID); u != "" {
		return u
	}
	return s.defaultUserID
}

// List returns the user's videos that carry a URL, newest API order kept.
// A non-empty query keeps only videos whose title or description contains
// every query word, ignoring case and accents.
func (s *Service) List(ctx context.Context, userID, query string) ([]VideoView, error) {
	userID = s.userOrDefault(userID)

	var videos []videoapi.Video
	if !s.cache.GetJSON(ctx, cache.VideoListKey(userID), &videos) {
		fetched, err := s.api.ListVideos(ctx, userID)
		if err != nil {
			return nil, err
		}
		videos = fetched
		s.cache.SetJSON(ctx, cache.VideoListKey(userID), videos)
	}

	terms := strings.Fields(Fold(query))
	views := make([]VideoView, 0, len(videos))
	for _, v := range videos {
		if strings.TrimSpace(v.VideoURL) == "" {
			continue
		}
		if len(terms) > 0 && !matchesAll(Fold(v.Title+" "+v.Description), terms) {
			continue
		}
		views = append(views, s.view(v))
	}
	return views, nil
}

// Get returns one video
func (s *Service) Get(ctx context.Context, videoID, userID string) (*VideoView, error) {
	userID = s.userOrDefault(userID)

	var video videoapi.Video
	if !s.cache.GetJSON(ctx, cache.VideoKey(videoID), &video) {
		fetched, err := s.api.GetVideo(ctx, videoID, userID)
		if err != nil {
			return nil, err
		}
		video = *fetched
		s.cache.SetJSON(ctx, cache.VideoKey(videoID), video)
	}

	view := s.view(video)
	return &view, nil
}

// Create validates the form, normalizes the URL and stores the video
func (s *Service) Create(ctx context.Context, form VideoForm) (*VideoView, error) {
	title := strings.TrimSpace(form.Title)
	description := strings.TrimSpace(form.Description)
	rawURL := strings.TrimSpace(form.VideoURL)

	switch {
	case title == "":
		return nil, apperrors.ValidationError(ErrTitleRequired)
	case description == "":
		return nil, apperrors.ValidationError(ErrDescriptionRequired)
	case rawURL == "":
		return nil, apperrors.ValidationError(ErrVideoURLRequired)
	}
	if err := checkLengths(title, description); err != nil {
		return nil, err
	}

	result := s.normalizer.ValidateAndFix(rawURL)
	if !result.Valid {
		return nil, apperrors.InvalidVideoURL(result.Error)
	}

	req := videoapi.CreateVideoRequest{
		UserID:      s.userOrDefault(form.UserID),
		Title:       title,
		Description: description,
		VideoURL:    result.NormalizedURL,
	}

	created, err := s.api.CreateVideo(ctx, req)
	if err != nil {
		return nil, err
	}
	s.cache.Delete(ctx, cache.VideoListKey(req.UserID))

	if created == nil {
		created = &videoapi.Video{
			UserID:      req.UserID,
			Title:       req.Title,
			Description: req.Description,
			VideoURL:    req.VideoURL,
		}
	}

	s.log.Info(ctx, "video created", map[string]interface{}{
		"user_id":  req.UserID,
		"platform": result.Platform,
	})

	view := s.view(*created)
	return &view, nil
}

// Edit updates the non-empty fields of the form
func (s *Service) Edit(ctx context.Context, videoID string, form VideoForm) (*VideoView, error) {
	req := videoapi.EditVideoRequest{
		VideoID:     videoID,
		Title:       strings.TrimSpace(form.Title),
		Description: strings.TrimSpace(form.Description),
		VideoURL:    strings.TrimSpace(form.VideoURL),
	}

	if req.Title == "" && req.Description == "" && req.VideoURL == "" {
		return nil, apperrors.ValidationError(ErrNoEditableFields)
	}
	if err := checkLengths(req.Title, req.Description); err != nil {
		return nil, err
	}

	if req.VideoURL != "" {
		result := s.normalizer.ValidateAndFix(req.VideoURL)
		if !result.Valid {
			return nil, apperrors.InvalidVideoURL(result.Error)
		}
		req.VideoURL = result.NormalizedURL
	}

	if err := s.api.EditVideo(ctx, req); err != nil {
		return nil, err
	}

	userID := s.userOrDefault(form.UserID)
	s.cache.Delete(ctx, cache.VideoKey(videoID), cache.VideoListKey(userID))

	return s.Get(ctx, videoID, userID)
}

// Comments returns the comments on a video
func (s *Service) Comments(ctx context.Context, videoID string) ([]videoapi.Comment, error) {
	var comments []videoapi.Comment
	if s.cache.GetJSON(ctx, cache.CommentsKey(videoID), &comments) {
		return comments, nil
	}

	comments, err := s.api.ListComments(ctx, videoID)
	if err != nil {
		return nil, err
	}
	s.cache.SetJSON(ctx, cache.CommentsKey(videoID), comments)
	return comments, nil
}

// AddComment posts a comment and pushes it to live viewers
func (s *Service) AddComment(ctx context.Context, videoID string, form CommentForm) (*videoapi.Comment, error) {
	content := strings.TrimSpace(form.Content)
	if content == "" {
		return nil, apperrors.ValidationError(ErrCommentRequired)
	}
	if utf8.RuneCountInString(content) > maxCommentLength {
		return nil, apperrors.ValidationError("Comment must be at most 1000 characters")
	}

	comment, err := s.api.CreateComment(ctx, videoapi.CreateCommentRequest{
		VideoID: videoID,
		UserID:  s.userOrDefault(form.UserID),
		Content: content,
	})
	if err != nil {
		return nil, err
	}
	if comment.VideoID == "" {
		comment.VideoID = videoID
	}
	s.cache.Delete(ctx, cache.CommentsKey(videoID))

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, websocket.NewCommentEvent(videoID, *comment)); err != nil {
			s.log.Warn(ctx, "failed to publish comment", map[string]interface{}{
				"video_id": videoID,
				"error":    err.Error(),
			})
		}
	}

	return comment, nil
}

func (s *Service) view(v videoapi.Video) VideoView {
	result := s.normalizer.ValidateAndFix(v.VideoURL)
	return VideoView{
		Video:        v,
		Platform:     media.Classify(v.VideoURL),
		ThumbnailURL: media.ThumbnailURL(v.VideoURL),
		Playable:     result.Valid,
	}
}

func checkLengths(title, description string) error {
	if utf8.RuneCountInString(title) > maxTitleLength {
		return apperrors.ValidationError(ErrTitleTooLong)
	}
	if utf8.RuneCountInString(description) > maxDescriptionLength {
		return apperrors.ValidationError(ErrDescriptionTooLong)
	}
	return nil
}

// Fold lowercases s and strips accents, so "Résumé" and "resume" compare equal
func Fold(s string) string {
	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)), // Mn: Mark, Nonspacing
		norm.NFC,
	)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

func matchesAll(haystack string, terms []string) bool {
	for _, term := range terms {
		if !strings.Contains(haystack, term) {
			return false
		}
	}
	return true
}

type noopCache struct{}

func (noopCache) GetJSON(context.Context, string, any) bool  { return false }
func (noopCache) SetJSON(context.Context, string, any) error { return nil }
func (noopCache) Delete(context.Context, ...string) error    { return nil }
