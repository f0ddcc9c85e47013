// Package minio mirrors log files to a MinIO (or any S3 compatible) server through minio-go.
package minio

import (
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/afero"

	"github.com/challenge-infra/submission-runner/internal/logger"
	"github.com/challenge-infra/submission-runner/storage"
)

var zlog = logger.New("storage.minio")

// Config holds object storage settings for MinIO.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	Prefix    string
}

// Storage implements storage.LogMirror using the MinIO client.
type Storage struct {
	client *minio.Client
	fs     afero.Fs
	bucket string
	prefix string
}

// New validates cfg and creates the client. No request is made until the first Store.
func New(cfg Config, fs afero.Fs) (*Storage, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if cfg.AccessKey == "" {
		return nil, fmt.Errorf("minio accessKey is required")
	}
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("minio secretKey is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio bucket is required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client failed: %w", err)
	}
	return &Storage{client: client, fs: fs, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// Key returns the object key a local file is mirrored to.
func (s *Storage) Key(localPath, folder string) string {
	return storage.ObjectKey(s.prefix, folder, localPath)
}

// Store uploads localPath, replacing any earlier copy of it.
func (s *Storage) Store(ctx context.Context, localPath string, folder string) error {
	file, err := s.fs.Open(localPath)
	if err != nil {
		return fmt.Errorf("open %s failed: %w", localPath, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat %s failed: %w", localPath, err)
	}

	key := s.Key(localPath, folder)
	zlog.Sugar().Debugf("uploading %s to minio://%s/%s", localPath, s.bucket, key)
	_, err = s.client.PutObject(ctx, s.bucket, key, file, info.Size(), minio.PutObjectOptions{
		ContentType: "text/plain",
	})
	if err != nil {
		return fmt.Errorf("minio put object failed: %w", err)
	}
	return nil
}

var _ storage.LogMirror = (*Storage)(nil)
