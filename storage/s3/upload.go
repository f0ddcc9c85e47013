package s3

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Store uploads the local file at localPath to <prefix>/<folder>/<basename>, replacing any
// earlier copy.
//
// Warning: the file is read through the S3Storage filesystem, be careful if managing files
// with `os` (the caller might be using an in-memory one)
func (s *S3Storage) Store(ctx context.Context, localPath string, folder string) error {
	file, err := s.fs.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open file: %v", err)
	}
	defer file.Close()

	key := s.Key(localPath, folder)
	zlog.Sugar().Debugf("Uploading %s to s3://%s/%s", localPath, s.bucket, key)
	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String("text/plain"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload file to S3: %v", err)
	}

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat file: %v", err)
	}
	remote, err := s.Size(ctx, localPath, folder)
	if err != nil {
		return err
	}
	return checkUploadSize(key, info.Size(), remote)
}

// checkUploadSize fails when the mirrored object does not hold the bytes that were read.
func checkUploadSize(key string, local int64, remote uint64) error {
	if local < 0 || uint64(local) != remote {
		return fmt.Errorf("upload of %s incomplete: %d bytes stored, %d expected", key, remote, local)
	}
	return nil
}
