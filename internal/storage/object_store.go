// Package storage abstracts the cloud object stores release artifacts are
// published to. Implementations cover S3 compatible services and a local
// filesystem store used in tests.
package storage

import (
	"context"
	"fmt"
	"time"
)

// cacheControlMaxAge is how long release endpoints may cache an object.
const cacheControlMaxAge = 4 * time.Hour

// Object is one stored artifact.
type Object struct {
	Key  string
	Size int64
	ETag string
}

// UploadOptions carry the metadata set on uploaded objects.
type UploadOptions struct {
	ContentType  string
	CacheControl string
}

// ObjectStore is the narrow interface the upload orchestrator talks to.
type ObjectStore interface {
	// Upload puts a local file at the given key.
	Upload(ctx context.Context, bucket, key, localPath string, opts UploadOptions) error

	// ListObjects returns all objects under a key prefix.
	ListObjects(ctx context.Context, bucket, prefix string) ([]Object, error)

	// CopyObject copies an object within a bucket without downloading it.
	CopyObject(ctx context.Context, bucket, sourceKey, destKey string) error
}

// DefaultCacheControl is the Cache-Control header set on release uploads.
func DefaultCacheControl() string {
	return fmt.Sprintf("public, max-age=%d", int(cacheControlMaxAge.Seconds()))
}
