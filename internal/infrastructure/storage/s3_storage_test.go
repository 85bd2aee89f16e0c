package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestS3(t *testing.T, cfg *config.StorageConfig) *S3ObjectStorage {
	t.Helper()
	s, err := NewS3ObjectStorage(context.Background(), cfg, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	return s
}

func minioConfig() *config.StorageConfig {
	return &config.StorageConfig{
		Bucket:          "products",
		AccessKeyID:     "test-key",
		SecretAccessKey: "test-secret",
		Endpoint:        "http://localhost:9000/",
		UsePathStyle:    true,
	}
}

func TestNewS3ObjectStorage_Validation(t *testing.T) {
	_, err := NewS3ObjectStorage(context.Background(), nil)
	assert.ErrorContains(t, err, "configuration is required")

	_, err = NewS3ObjectStorage(context.Background(), &config.StorageConfig{})
	assert.ErrorContains(t, err, "bucket is required")
}

func TestNewS3ObjectStorage_Defaults(t *testing.T) {
	s := newTestS3(t, minioConfig())
	assert.Equal(t, "products", s.Bucket())
	assert.Equal(t, defaultPresignExpiry, s.presignExpiry)
	assert.Equal(t, "http://localhost:9000/products/images/a.png", s.PublicURL("/images/a.png"))

	aws := newTestS3(t, &config.StorageConfig{Bucket: "shop", Region: "eu-west-1", AccessKeyID: "k", SecretAccessKey: "s"})
	assert.Equal(t, "https://shop.s3.eu-west-1.amazonaws.com/x.jpg", aws.PublicURL("x.jpg"))

	cdn := minioConfig()
	cdn.PublicBaseURL = "https://cdn.example.com/"
	assert.Equal(t, "https://cdn.example.com/x.jpg", newTestS3(t, cdn).PublicURL("x.jpg"))
}

func TestS3ObjectStorage_Presign(t *testing.T) {
	s := newTestS3(t, minioConfig())
	ctx := context.Background()

	upload, expiresAt, err := s.PresignUpload(ctx, "products/p1/img.png", "image/png", 5*time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(upload, "http://localhost:9000/products/products/p1/img.png?"))
	assert.Contains(t, upload, "X-Amz-Signature=")
	assert.Contains(t, upload, "X-Amz-Expires=300")
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), expiresAt, 5*time.Second)

	download, _, err := s.PresignDownload(ctx, "invoices/ORD-1.pdf", 0)
	require.NoError(t, err)
	assert.Contains(t, download, "X-Amz-Expires=900")
}

func TestS3ObjectStorage_EmptyKey(t *testing.T) {
	s := newTestS3(t, minioConfig())
	ctx := context.Background()

	_, _, err := s.PresignUpload(ctx, "", "image/png", 0)
	assert.ErrorIs(t, err, ErrEmptyKey)
	_, _, err = s.PresignDownload(ctx, "", 0)
	assert.ErrorIs(t, err, ErrEmptyKey)
	_, err = s.Exists(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyKey)
	assert.ErrorIs(t, s.Delete(ctx, ""), ErrEmptyKey)
	assert.ErrorIs(t, s.Upload(ctx, "", nil, "application/pdf"), ErrEmptyKey)
}
