package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/starford/offcuts/internal/apperr"
)

// S3Config holds connection settings for an S3-compatible bucket.
type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	PathStyle bool
}

// S3 implements Provider on an S3-compatible object store.
type S3 struct {
	cl     *minio.Client
	bucket string
}

var _ Provider = (*S3)(nil)

// NewS3 connects to the store and creates the bucket when it does not exist.
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	opts := &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	}
	if cfg.PathStyle {
		opts.BucketLookup = minio.BucketLookupPath
	}
	cl, err := minio.New(cfg.Endpoint, opts)
	if err != nil {
		return nil, fmt.Errorf("storage: s3 client: %w", err)
	}

	exists, err := cl.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("storage: s3 bucket check: %w", err)
	}
	if !exists {
		if err := cl.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("storage: s3 make bucket: %w", err)
		}
	}
	return &S3{cl: cl, bucket: cfg.Bucket}, nil
}

// Put uploads the object.
func (s *S3) Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) error {
	if !ValidName(name) {
		return fmt.Errorf("%w: object name %q", apperr.ErrInvalidInput, name)
	}
	if _, err := s.cl.PutObject(ctx, s.bucket, name, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return fmt.Errorf("storage: s3 put %s: %w", name, err)
	}
	return nil
}

// Open stats the object and streams it.
func (s *S3) Open(ctx context.Context, name string) (io.ReadCloser, Object, error) {
	if !ValidName(name) {
		return nil, Object{}, fmt.Errorf("%w: object name %q", apperr.ErrInvalidInput, name)
	}
	info, err := s.cl.StatObject(ctx, s.bucket, name, minio.StatObjectOptions{})
	if err != nil {
		return nil, Object{}, s.fault("stat", name, err)
	}
	obj, err := s.cl.GetObject(ctx, s.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, Object{}, s.fault("get", name, err)
	}
	return obj, Object{
		Name:        name,
		ContentType: info.ContentType,
		Size:        info.Size,
		ModTime:     info.LastModified,
	}, nil
}

// Delete removes the object.
func (s *S3) Delete(ctx context.Context, name string) error {
	if !ValidName(name) {
		return fmt.Errorf("%w: object name %q", apperr.ErrInvalidInput, name)
	}
	if err := s.cl.RemoveObject(ctx, s.bucket, name, minio.RemoveObjectOptions{}); err != nil {
		return s.fault("delete", name, err)
	}
	return nil
}

func (s *S3) fault(op, name string, err error) error {
	if minio.ToErrorResponse(err).StatusCode == http.StatusNotFound {
		return fmt.Errorf("storage: s3 %s %s: %w", op, name, apperr.ErrNotFound)
	}
	return fmt.Errorf("storage: s3 %s %s: %w", op, name, err)
}
