package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	apperrors "github.com/openvideohub/videohub/internal/errors"
)

// UploadResult contains the result of an upload operation
type UploadResult struct {
	StorageKey  string `json:"storage_key"`
	ContentHash string `json:"content_hash"`
	Size        int64  `json:"size"`
	IsNew       bool   `json:"is_new"` // false if the content was already stored
}

// S3Storage stores uploaded media content-addressed by SHA-256, so the same
// bytes are only ever written once.
type S3Storage struct {
	client *s3.Client
	bucket string
	retry  *apperrors.RetryConfig
}

// NewS3Storage creates a new S3Storage instance. endpoint is a full URL and
// may point at MinIO.
func NewS3Storage(cfg *Config, endpoint string) *S3Storage {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  awscreds.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true, // Required for MinIO
	}
	if endpoint != "" {
		opts.BaseEndpoint = aws.String(endpoint)
	}

	return &S3Storage{
		client: s3.New(opts),
		bucket: cfg.Bucket,
		retry:  apperrors.StorageRetryConfig(),
	}
}

// SetRetryConfig replaces the retry policy used for writes
func (s *S3Storage) SetRetryConfig(cfg *apperrors.RetryConfig) {
	s.retry = cfg
}

// HashContent returns the hex SHA-256 of r and the number of bytes read
func HashContent(r io.Reader) (string, int64, error) {
	h := sha256.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", n, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// ContentKey returns the object key for content with the given hash. The
// extension is kept so links to the object still look like media files.
func ContentKey(contentHash, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("uploads/%s/%s%s", contentHash[:2], contentHash, ext)
}

// Store uploads body under its content key unless an object with that key
// already exists. body is rewound before every attempt.
func (s *S3Storage) Store(ctx context.Context, body io.ReadSeeker, size int64, filename, contentType string) (*UploadResult, error) {
	if _, err := body.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind upload: %w", err)
	}
	contentHash, n, err := HashContent(body)
	if err != nil {
		return nil, fmt.Errorf("failed to hash upload: %w", err)
	}
	if size <= 0 {
		size = n
	}

	key := ContentKey(contentHash, filename)
	result := &UploadResult{StorageKey: key, ContentHash: contentHash, Size: size}

	exists, err := s.Exists(ctx, key)
	if err != nil {
		return nil, apperrors.StorageError("failed to check existing upload").WithCause(err)
	}
	if exists {
		return result, nil
	}

	err = apperrors.Retry(ctx, s.retry, func(ctx context.Context) error {
		if _, err := body.Seek(0, io.SeekStart); err != nil {
			return err
		}
		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(s.bucket),
			Key:           aws.String(key),
			Body:          body,
			ContentLength: aws.Int64(size),
			ContentType:   aws.String(contentType),
		})
		return err
	})
	if err != nil {
		return nil, apperrors.StorageError("failed to store upload").WithCause(err)
	}

	result.IsNew = true
	return result, nil
}

// Exists checks if an object exists under key
func (s *S3Storage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFoundError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check existence: %w", err)
	}
	return true, nil
}

// isNotFoundError checks if the error indicates the object was not found
func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	return strings.Contains(err.Error(), "NotFound") ||
		strings.Contains(err.Error(), "NoSuchKey") ||
		strings.Contains(err.Error(), "404")
}

// Delete removes an object
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}
