// Package storage mirrors log artifacts to remote object storage such as AWS S3 or MinIO.
package storage

import (
	"context"
	"path"
	"path/filepath"
)

// LogMirror copies a local log artifact to remote storage under the owning folder.
//
// Mirroring is best effort: callers log a returned error and carry on.
type LogMirror interface {
	Store(ctx context.Context, localPath string, folder string) error
}

// ObjectKey builds the remote key for a local file: prefix/folder/basename.
func ObjectKey(prefix, folder, localPath string) string {
	return path.Join(prefix, folder, filepath.Base(localPath))
}
