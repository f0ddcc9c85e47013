package backend

import (
	"fmt"

	"github.com/spf13/afero"

	"github.com/challenge-infra/submission-runner/internal/config"
	"github.com/challenge-infra/submission-runner/storage"
	"github.com/challenge-infra/submission-runner/storage/minio"
	"github.com/challenge-infra/submission-runner/storage/s3"
)

// NewMirror builds the log mirror selected by storage.backend.
func NewMirror(cfg config.Storage, fs afero.Fs) (storage.LogMirror, error) {
	switch cfg.Backend {
	case "s3", "":
		awsConfig, err := s3.GetAWSDefaultConfig(cfg.AccessKey, cfg.SecretKey)
		if err != nil {
			return nil, fmt.Errorf("unable to load aws config: %w", err)
		}
		return s3.NewClient(awsConfig, fs, cfg.Bucket, cfg.Prefix, s3.WithEndpoint(cfg.Endpoint))
	case "minio":
		return minio.New(minio.Config{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			UseSSL:    cfg.UseSSL,
			Bucket:    cfg.Bucket,
			Prefix:    cfg.Prefix,
		}, fs)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
