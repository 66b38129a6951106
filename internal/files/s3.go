package files

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

// Store uploads and fetches user files (pet photos, medical record documents)
// from S3-compatible object storage. Objects are keyed by household so one
// household can never address another's files.
type Store struct {
	cfg    S3Config
	client s3Client
}

// NewStore creates a file store. With incomplete credentials the store is
// disabled and uploads fail with a clear error.
func NewStore(cfg S3Config) *Store {
	st := &Store{cfg: cfg}
	if cfg.Bucket != "" && cfg.AccessKey != "" && cfg.SecretKey != "" {
		st.client = newS3Client(cfg)
	}
	return st
}

func newS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Enabled reports whether object storage is configured.
func (s *Store) Enabled() bool {
	return s.client != nil
}

// Key builds the object key for a file in a household folder, e.g.
// "42/pets/rex.jpg".
func Key(householdID int64, folder, name string) string {
	return fmt.Sprintf("%d/%s/%s", householdID, folder, path.Base(name))
}

// Upload stores a file and returns its object key.
func (s *Store) Upload(ctx context.Context, householdID int64, folder, name string, data []byte) (string, error) {
	if !s.Enabled() {
		return "", fmt.Errorf("file storage not configured")
	}

	key := Key(householdID, folder, name)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(ContentType(name)),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return key, nil
}

// Fetch reads a stored object. The caller owns closing the reader.
func (s *Store) Fetch(ctx context.Context, key string) (io.ReadCloser, string, error) {
	if !s.Enabled() {
		return nil, "", fmt.Errorf("file storage not configured")
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, "", fmt.Errorf("fetch %s: %w", key, err)
	}

	contentType := ContentType(key)
	if out.ContentType != nil && *out.ContentType != "" {
		contentType = *out.ContentType
	}
	return out.Body, contentType, nil
}

// Delete removes a stored object. Missing objects are not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if !s.Enabled() {
		return fmt.Errorf("file storage not configured")
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// BelongsTo reports whether an object key lives under a household's folder.
// Download handlers check this before proxying a fetch.
func BelongsTo(key string, householdID int64) bool {
	return strings.HasPrefix(key, fmt.Sprintf("%d/", householdID))
}

// ContentType maps a file extension to a MIME type, defaulting to an opaque
// octet stream.
func ContentType(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".pdf":
		return "application/pdf"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
