package storage

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MirrorConfig describes an S3 compatible bucket that receives copies of
// uploads and outputs.
type MirrorConfig struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
}

// Enabled reports whether enough settings are present to build a mirror.
func (c MirrorConfig) Enabled() bool {
	return strings.TrimSpace(c.Endpoint) != "" && strings.TrimSpace(c.Bucket) != ""
}

// Mirror copies local artifacts to object storage.
type Mirror struct {
	client *minio.Client
	bucket string
}

// NewMirror connects to the endpoint and makes sure the bucket exists.
func NewMirror(ctx context.Context, cfg MirrorConfig) (*Mirror, error) {
	if !cfg.Enabled() {
		return nil, errors.New("storage: mirror endpoint and bucket are required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, errors.New("storage: mirror credentials are required")
	}

	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL
	if u, err := url.Parse(cfg.Endpoint); err == nil && u.Host != "" {
		endpoint = u.Host
		if u.Scheme == "https" {
			useSSL = true
		}
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: create mirror client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("storage: check mirror bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("storage: create mirror bucket: %w", err)
		}
	}
	return &Mirror{client: client, bucket: cfg.Bucket}, nil
}

// Upload copies the file at path to objectKey.
func (m *Mirror) Upload(ctx context.Context, objectKey, path string) error {
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := m.client.FPutObject(ctx, m.bucket, objectKey, path, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("storage: mirror put %s: %w", objectKey, err)
	}
	return nil
}

// Remove deletes objectKey from the bucket.
func (m *Mirror) Remove(ctx context.Context, objectKey string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, objectKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("storage: mirror remove %s: %w", objectKey, err)
	}
	return nil
}
