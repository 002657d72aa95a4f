package uploads

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"regexp"
	"strings"
	"time"

	apperrors "github.com/openvideohub/videohub/internal/errors"
	"github.com/openvideohub/videohub/internal/logger"
	"github.com/openvideohub/videohub/internal/media"
	"github.com/openvideohub/videohub/internal/metrics"
	"github.com/openvideohub/videohub/internal/storage"
)

const (
	formField     = "file"
	maxMemory     = 32 << 20
	defaultMIME   = "application/octet-stream"
	multipartSlop = 1 << 20

	// LinkPrefix is where stored uploads are resolved
	LinkPrefix = "/api/v1/uploads/"
)

// objectName is a stored upload as it appears in its link: the SHA-256
// content hash followed by the lowercased extension.
var objectName = regexp.MustCompile(`^([0-9a-f]{64})(\.[a-z0-9]+)$`)

// ObjectStore writes upload content
type ObjectStore interface {
	Store(ctx context.Context, body io.ReadSeeker, size int64, filename, contentType string) (*storage.UploadResult, error)
}

// Objects looks up stored uploads and issues time-limited links to them
type Objects interface {
	ObjectExists(ctx context.Context, key string) (bool, error)
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

var _ Objects = (*storage.Client)(nil)

// Handler accepts direct media file uploads. Clients get a permanent link
// on this server; each request for it is redirected to a freshly presigned
// object URL, so a video saved with the link keeps playing after any single
// presigned URL has expired.
type Handler struct {
	store    ObjectStore
	objects  Objects
	baseURL  string
	maxBytes int64
	expiry   time.Duration
	metrics  *metrics.Metrics
	log      *logger.Logger
}

func NewHandler(store ObjectStore, objects Objects, baseURL string, maxBytes int64, expiry time.Duration, m *metrics.Metrics, log *logger.Logger) *Handler {
	if m == nil {
		m = metrics.Default()
	}
	if log == nil {
		log = logger.Default()
	}
	return &Handler{
		store:    store,
		objects:  objects,
		baseURL:  strings.TrimRight(baseURL, "/"),
		maxBytes: maxBytes,
		expiry:   expiry,
		metrics:  m,
		log:      log.WithComponent("uploads"),
	}
}

// UploadResponse describes a stored upload
type UploadResponse struct {
	URL          string         `json:"url"`
	Platform     media.Platform `json:"platform"`
	StorageKey   string         `json:"storage_key"`
	ContentHash  string         `json:"content_hash"`
	Size         int64          `json:"size"`
	Filename     string         `json:"filename"`
	Deduplicated bool           `json:"deduplicated"`
}

// Upload handles POST /api/v1/uploads
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartSlop)

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.metrics.Inc(metrics.FamilyUploads, "outcome", "too_large")
			return apperrors.PayloadTooLarge("upload exceeds the size limit")
		}
		return apperrors.BadRequest("expected a multipart form")
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(formField)
	if err != nil {
		return apperrors.ValidationError("file is required")
	}
	defer file.Close()

	if header.Size > h.maxBytes {
		h.metrics.Inc(metrics.FamilyUploads, "outcome", "too_large")
		return apperrors.PayloadTooLarge("upload exceeds the size limit")
	}

	filename := path.Base(strings.ReplaceAll(header.Filename, "\\", "/"))
	if media.Classify(filename) != media.PlatformFile {
		h.metrics.Inc(metrics.FamilyUploads, "outcome", "unsupported")
		return apperrors.UnsupportedMedia("unsupported file type").WithDetails(map[string]any{
			"video_extensions": media.VideoExtensions(),
			"audio_extensions": media.AudioExtensions(),
		})
	}

	result, err := h.store.Store(ctx, file, header.Size, filename, contentType(header.Header.Get("Content-Type"), filename))
	if err != nil {
		h.metrics.Inc(metrics.FamilyUploads, "outcome", "error")
		if _, ok := apperrors.AsAppError(err); ok {
			return err
		}
		return apperrors.StorageError("failed to store upload").WithCause(err)
	}

	validation := media.ValidateAndFix(h.Link(result.ContentHash, filename))
	if !validation.Valid || validation.Platform != media.PlatformFile {
		h.metrics.Inc(metrics.FamilyUploads, "outcome", "error")
		return apperrors.InternalError("upload link is not a playable file URL")
	}

	outcome := "stored"
	if !result.IsNew {
		outcome = "deduplicated"
	}
	h.metrics.Inc(metrics.FamilyUploads, "outcome", outcome)
	h.log.Info(ctx, "upload "+outcome, map[string]interface{}{
		"storage_key": result.StorageKey,
		"size":        result.Size,
		"filename":    filename,
	})

	apperrors.WriteJSON(w, apperrors.GetRequestID(ctx), http.StatusCreated, UploadResponse{
		URL:          validation.NormalizedURL,
		Platform:     validation.Platform,
		StorageKey:   result.StorageKey,
		ContentHash:  result.ContentHash,
		Size:         result.Size,
		Filename:     filename,
		Deduplicated: !result.IsNew,
	})
	return nil
}

// Link is the permanent URL of an upload with the given content hash
func (h *Handler) Link(contentHash, filename string) string {
	return h.baseURL + LinkPrefix + contentHash + strings.ToLower(path.Ext(filename))
}

// Resolve handles GET /api/v1/uploads/{object}, redirecting to a presigned
// link that is valid for the configured expiry.
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	match := objectName.FindStringSubmatch(r.PathValue("object"))
	if match == nil || media.Classify(match[0]) != media.PlatformFile {
		return apperrors.NotFound("upload")
	}
	key := storage.ContentKey(match[1], match[0])

	exists, err := h.objects.ObjectExists(ctx, key)
	if err != nil {
		return apperrors.StorageError("failed to look up upload").WithCause(err)
	}
	if !exists {
		return apperrors.NotFound("upload")
	}

	link, err := h.objects.PresignedURL(ctx, key, h.expiry)
	if err != nil {
		return apperrors.StorageError("failed to create upload link").WithCause(err)
	}

	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, link, http.StatusTemporaryRedirect)
	return nil
}

var mediaTypes = map[string]string{
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".ogg":  "video/ogg",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".m4a":  "audio/mp4",
}

// contentType prefers the declared part type and falls back to the extension
func contentType(declared, filename string) string {
	if declared != "" && declared != defaultMIME {
		return declared
	}
	ext := strings.ToLower(path.Ext(filename))
	if t, ok := mediaTypes[ext]; ok {
		return t
	}
	if byExt := mime.TypeByExtension(ext); byExt != "" {
		return byExt
	}
	return defaultMIME
}
