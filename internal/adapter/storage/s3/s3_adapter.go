package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Abdurahmanit/rental-listing-service/internal/platform/logger"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// ErrForeignLocator is returned when a locator does not live under the public endpoint.
var ErrForeignLocator = errors.New("locator is not under the storage public endpoint")

// Options configures the S3-compatible client. PublicEndpoint is the base URL under which
// the bucket's objects are publicly reachable (for R2, the bucket's public domain).
type Options struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Region          string
	UseSSL          bool
	PublicEndpoint  string
}

type S3Storage struct {
	client         *minio.Client
	bucket         string
	publicEndpoint string
	logger         *logger.Logger
}

func NewS3Storage(opts Options, log *logger.Logger) (*S3Storage, error) {
	log.Info("Initializing S3 storage",
		zap.String("endpoint", opts.Endpoint),
		zap.String("bucket", opts.Bucket),
		zap.Bool("use_ssl", opts.UseSSL))

	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKeyID, opts.SecretAccessKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client for endpoint %s: %w", opts.Endpoint, err)
	}

	public := strings.TrimRight(opts.PublicEndpoint, "/")
	if public == "" {
		public = fmt.Sprintf("%s/%s", client.EndpointURL().String(), opts.Bucket)
	}

	return &S3Storage{
		client:         client,
		bucket:         opts.Bucket,
		publicEndpoint: public,
		logger:         log.Named("s3"),
	}, nil
}

// EnsureBucket creates the bucket unless it already exists.
func (s *S3Storage) EnsureBucket(ctx context.Context) error {
	err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
	if err == nil {
		s.logger.Info("Bucket created", zap.String("bucket", s.bucket))
		return nil
	}
	exists, errExists := s.client.BucketExists(ctx, s.bucket)
	if errExists == nil && exists {
		s.logger.Info("Bucket already exists", zap.String("bucket", s.bucket))
		return nil
	}
	return fmt.Errorf("failed to make/verify bucket %s: %w", s.bucket, errors.Join(err, errExists))
}

// Put stores data under a fresh "<uuid>-<name>" key with public-read ACL and returns its public locator.
func (s *S3Storage) Put(ctx context.Context, data []byte, contentType, originalName string) (string, error) {
	key := objectKey(originalName)

	info, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: map[string]string{"x-amz-acl": "public-read"},
	})
	if err != nil {
		s.logger.Error("PutObject failed", zap.String("key", key), zap.Error(err))
		return "", fmt.Errorf("failed to upload object %s to bucket %s: %w", key, s.bucket, err)
	}

	s.logger.Debug("Object uploaded",
		zap.String("key", info.Key),
		zap.String("etag", info.ETag),
		zap.Int64("size", info.Size))
	return s.locatorFor(key), nil
}

// Delete removes the object a locator points to. Deleting a missing object is not an error.
func (s *S3Storage) Delete(ctx context.Context, locator string) error {
	key, ok := s.keyFromLocator(locator)
	if !ok {
		return fmt.Errorf("%w: %q", ErrForeignLocator, locator)
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		s.logger.Error("RemoveObject failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to delete object %s from bucket %s: %w", key, s.bucket, err)
	}
	s.logger.Debug("Object deleted", zap.String("key", key))
	return nil
}

func objectKey(originalName string) string {
	name := filepath.Base(strings.ReplaceAll(originalName, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "file"
	}
	return fmt.Sprintf("%s-%s", uuid.New().String(), name)
}

func (s *S3Storage) locatorFor(key string) string {
	return s.publicEndpoint + "/" + key
}

// keyFromLocator only accepts locators this storage handed out.
func (s *S3Storage) keyFromLocator(locator string) (string, bool) {
	key, ok := strings.CutPrefix(locator, s.publicEndpoint+"/")
	if !ok || key == "" || strings.Contains(key, "/") {
		return "", false
	}
	return key, true
}
