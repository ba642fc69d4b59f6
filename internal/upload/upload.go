package upload

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/willdurand/scriptworker-scripts/internal/platform"
	"github.com/willdurand/scriptworker-scripts/internal/storage"
)

// Target is one cloud bucket artifacts are published to. FailTaskOnError
// selects the failure policy: a fail-fast target aborts the task on the
// first upload error, a best-effort target only logs its failures.
type Target struct {
	Cloud           string
	Bucket          string
	Store           storage.ObjectStore
	FailTaskOnError bool
}

// Artifact is one local file with the destination keys it is published under.
type Artifact struct {
	LocalPath    string
	Destinations []string
}

// Publish uploads every artifact to every target, one goroutine per target,
// and joins them at a single point. It returns the first error of a
// fail-fast target; best-effort failures are logged and swallowed.
func Publish(ctx context.Context, targets []Target, artifacts []Artifact) error {
	var wg sync.WaitGroup
	errs := make([]error, len(targets))

	for i, target := range targets {
		wg.Add(1)
		go func(i int, target Target) {
			defer wg.Done()
			errs[i] = publishToTarget(ctx, target, artifacts)
		}(i, target)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func publishToTarget(ctx context.Context, target Target, artifacts []Artifact) error {
	for _, artifact := range artifacts {
		opts := storage.UploadOptions{
			ContentType:  platform.MIMEType(artifact.LocalPath),
			CacheControl: storage.DefaultCacheControl(),
		}

		for _, dest := range artifact.Destinations {
			err := target.Store.Upload(ctx, target.Bucket, dest, artifact.LocalPath, opts)
			if err == nil {
				continue
			}
			if target.FailTaskOnError {
				return fmt.Errorf("upload to %s failed: %w", target.Cloud, err)
			}
			slog.Warn("Best-effort upload failed", "cloud", target.Cloud, "bucket", target.Bucket, "key", dest, "error", err)
		}
	}
	return nil
}
