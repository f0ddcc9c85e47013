package s3

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	s3Manager "github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/afero"

	"github.com/challenge-infra/submission-runner/storage"
)

// S3Storage mirrors log files into a single bucket. Local files are read through fs so that an
// in-memory filesystem can stand in for the disk.
type S3Storage struct {
	*s3.Client
	fs       afero.Fs
	uploader *s3Manager.Uploader
	bucket   string
	prefix   string
}

// NewClient creates a new S3Storage which includes a S3-SDK client.
func NewClient(config aws.Config, fs afero.Fs, bucket, prefix string, optFns ...func(*s3.Options)) (*S3Storage, error) {
	if bucket == "" {
		return nil, fmt.Errorf("invalid s3 storage params: bucket cannot be empty")
	}
	if !hasValidCredentials(config) {
		return nil, fmt.Errorf("invalid credentials")
	}

	s3Client := s3.NewFromConfig(config, optFns...)
	return &S3Storage{
		Client:   s3Client,
		fs:       fs,
		uploader: s3Manager.NewUploader(s3Client),
		bucket:   bucket,
		prefix:   sanitizeKey(prefix),
	}, nil
}

// Key returns the object key a local file is mirrored to.
func (s *S3Storage) Key(localPath, folder string) string {
	return storage.ObjectKey(s.prefix, folder, localPath)
}

// Size returns the size of the mirrored copy of localPath.
func (s *S3Storage) Size(ctx context.Context, localPath, folder string) (uint64, error) {
	output, err := s.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.Key(localPath, folder)),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get object size: %v", err)
	}

	return uint64(aws.ToInt64(output.ContentLength)), nil
}

// Compile time interface check
var _ storage.LogMirror = (*S3Storage)(nil)
