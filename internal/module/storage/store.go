package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/noteshare/server/internal/shared/config"
	"github.com/noteshare/server/internal/utils/metrics"
)

// ObjectInfo holds object metadata.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified *time.Time
}

// PresignedURL represents a presigned URL response.
type PresignedURL struct {
	URL       string
	Method    string
	ExpiresAt time.Time
}

// ObjectStore is the interface for attachment blob storage.
type ObjectStore interface {
	// Upload stores an object and returns its key.
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error

	// Download retrieves an object.
	Download(ctx context.Context, key string) (io.ReadCloser, int64, error)

	// Delete removes an object. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether an object is present.
	Exists(ctx context.Context, key string) (bool, error)

	// PresignDownload generates a short-lived download URL.
	PresignDownload(ctx context.Context, key string, expiry time.Duration) (*PresignedURL, error)

	// PublicURL returns the client-facing URL for an object key.
	PublicURL(key string) string
}

// S3Store implements ObjectStore on an S3-compatible bucket.
type S3Store struct {
	client        *s3.Client
	presigner     *s3.PresignClient
	bucket        string
	publicBaseURL string
	metrics       *metrics.Metrics
}

// NewS3Store creates a new S3-backed object store.
func NewS3Store(cfg *config.StorageConfig, m *metrics.Metrics) (*S3Store, error) {
	if cfg.Endpoint == "" || cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" || cfg.Bucket == "" {
		return nil, ErrIncompleteConfig
	}

	// Create credentials provider
	creds := credentials.NewStaticCredentialsProvider(
		cfg.AccessKeyID,
		cfg.SecretAccessKey,
		"",
	)

	// S3-compatible stores like R2 use "auto", the SDK still needs a value
	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	// Load AWS config
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithCredentialsProvider(creds),
		awsconfig.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	// Create S3 client with custom endpoint
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})

	return &S3Store{
		client:        client,
		presigner:     s3.NewPresignClient(client),
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimSuffix(cfg.PublicBaseURL, "/"),
		metrics:       m,
	}, nil
}

// Upload stores an object.
func (s *S3Store) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	start := time.Now()

	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	_, err := s.client.PutObject(ctx, input)
	s.record("upload", err, start)
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}

	return nil
}

// Download retrieves an object.
func (s *S3Store) Download(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	start := time.Now()

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	s.record("download", err, start)
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, 0, ErrObjectNotFound
		}
		return nil, 0, fmt.Errorf("get object: %w", err)
	}

	size := int64(0)
	if result.ContentLength != nil {
		size = *result.ContentLength
	}

	return result.Body, size, nil
}

// Delete removes an object. Deleting a missing object succeeds, which keeps
// attachment cleanup retryable.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	start := time.Now()

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			err = nil
		}
	}
	s.record("delete", err, start)
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}

	return nil
}

// Exists reports whether an object is present.
func (s *S3Store) Exists(ctx context.Context, key string) (bool, error) {
	start := time.Now()

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		var nf *types.NotFound
		if errors.As(err, &nsk) || errors.As(err, &nf) {
			s.record("head", nil, start)
			return false, nil
		}
		s.record("head", err, start)
		return false, fmt.Errorf("head object: %w", err)
	}

	s.record("head", nil, start)
	return true, nil
}

// PresignDownload generates a presigned URL for downloading an object.
func (s *S3Store) PresignDownload(ctx context.Context, key string, expiry time.Duration) (*PresignedURL, error) {
	start := time.Now()

	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = expiry
	})
	s.record("presign", err, start)
	if err != nil {
		return nil, fmt.Errorf("presign get: %w", err)
	}

	return &PresignedURL{
		URL:       req.URL,
		Method:    req.Method,
		ExpiresAt: time.Now().Add(expiry),
	}, nil
}

// PublicURL returns the client-facing URL for an object key.
func (s *S3Store) PublicURL(key string) string {
	if s.publicBaseURL == "" {
		return key
	}
	return s.publicBaseURL + "/" + strings.TrimPrefix(key, "/")
}

func (s *S3Store) record(op string, err error, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordStorageOp(op, err, time.Since(start))
	}
}

// Compile-time check
var _ ObjectStore = (*S3Store)(nil)
