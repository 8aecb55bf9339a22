package blob

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/gravadigital/eventmaster-api/internal/config"
	"github.com/gravadigital/eventmaster-api/internal/domain/common"
	"github.com/gravadigital/eventmaster-api/internal/logger"
)

const publicReadPolicy = `{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`

// MinioStore keeps objects in an S3 compatible bucket.
type MinioStore struct {
	client  *minio.Client
	bucket  string
	baseURL string
	log     *log.Logger
}

// NewMinioStore connects to the configured endpoint and makes sure the
// bucket exists and is publicly readable.
func NewMinioStore(ctx context.Context, cfg *config.Config) (*MinioStore, error) {
	log := logger.Integration("minio")

	client, err := minio.New(cfg.Storage.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
		Secure: cfg.Storage.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	baseURL := strings.TrimRight(cfg.Storage.PublicBaseURL, "/")
	if baseURL == "" {
		scheme := "http"
		if cfg.Storage.UseSSL {
			scheme = "https"
		}
		baseURL = fmt.Sprintf("%s://%s/%s", scheme, cfg.Storage.Endpoint, cfg.Storage.Bucket)
	}

	s := &MinioStore{client: client, bucket: cfg.Storage.Bucket, baseURL: baseURL, log: log}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, err
	}

	log.Info("Blob store ready", "endpoint", cfg.Storage.Endpoint, "bucket", s.bucket)
	return s, nil
}

func (s *MinioStore) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return common.Unavailable("check bucket", err)
	}
	if exists {
		return nil
	}

	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return common.Unavailable("create bucket", err)
	}
	if err := s.client.SetBucketPolicy(ctx, s.bucket, fmt.Sprintf(publicReadPolicy, s.bucket)); err != nil {
		s.log.Warn("Failed to set public read policy", "bucket", s.bucket, "error", err)
	}
	s.log.Info("Bucket created", "bucket", s.bucket)
	return nil
}

func (s *MinioStore) Upload(ctx context.Context, data []byte, contentType string) (string, error) {
	key := ObjectKey(contentType, time.Now())

	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		s.log.Error("Failed to upload object", "key", key, "error", err)
		return "", common.Unavailable("upload object", err)
	}

	s.log.Info("Object uploaded", "key", key, "size", len(data))
	return s.baseURL + "/" + key, nil
}

func (s *MinioStore) Delete(ctx context.Context, url string) error {
	if !s.Owns(url) {
		return ErrForeignURL
	}
	key := strings.TrimPrefix(url, s.baseURL+"/")

	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		s.log.Error("Failed to delete object", "key", key, "error", err)
		return common.Unavailable("delete object", err)
	}

	s.log.Info("Object deleted", "key", key)
	return nil
}

func (s *MinioStore) Owns(url string) bool {
	return strings.HasPrefix(url, s.baseURL+"/")
}
