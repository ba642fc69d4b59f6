package upload_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/willdurand/scriptworker-scripts/internal/storage"
	"github.com/willdurand/scriptworker-scripts/internal/upload"
)

func seedCandidates(t *testing.T, store storage.ObjectStore, bucket string, keys map[string]string) {
	ctx := context.Background()
	for key, content := range keys {
		require.NoError(t, store.Upload(ctx, bucket, key, writeArtifact(t, "seed", content), storage.UploadOptions{}))
	}
}

func TestPushToReleasesCopiesAndFilters(t *testing.T) {
	ctx := context.Background()
	store := newLocalStore(t)

	seedCandidates(t, store, "prod", map[string]string{
		"pub/firefox/candidates/99.0-candidates/build2/linux-x86_64/en-US/firefox-99.0.tar.bz2":     "installer",
		"pub/firefox/candidates/99.0-candidates/build2/linux-x86_64/en-US/firefox-99.0.txt":         "build info",
		"pub/firefox/candidates/99.0-candidates/build2/logs/build.log":                              "log",
		"pub/firefox/candidates/99.0-candidates/build2/partner-repacks/acme/v1/win64/setup.exe":     "acme repack",
		"pub/firefox/candidates/99.0-candidates/build2/partner-repacks/other/v1/win64/setup.exe":    "other repack",
		"pub/firefox/candidates/99.0-candidates/build2/jsshell-linux-x86_64.zip":                    "jsshell",
		"pub/firefox/candidates/99.0-candidates/build2/linux-x86_64/en-US/firefox-99.0.zip":         "zip",
		"pub/firefox/candidates/99.0-candidates/build2/linux-x86_64/en-US/firefox-99.0.json":        "metadata",
	})

	copied, err := upload.PushToReleases(ctx, store, "prod", "firefox", "99.0", 2, []string{"acme"})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"pub/firefox/candidates/99.0-candidates/build2/linux-x86_64/en-US/firefox-99.0.tar.bz2": "pub/firefox/releases/99.0/linux-x86_64/en-US/firefox-99.0.tar.bz2",
		"pub/firefox/candidates/99.0-candidates/build2/jsshell-linux-x86_64.zip":                "pub/firefox/releases/99.0/jsshell-linux-x86_64.zip",
		"pub/firefox/candidates/99.0-candidates/build2/partner-repacks/acme/v1/win64/setup.exe": "pub/firefox/releases/partners/acme/99.0/win64/setup.exe",
	}, copied)

	objects, err := store.ListObjects(ctx, "prod", "pub/firefox/releases/")
	require.NoError(t, err)
	assert.Len(t, objects, 3)
}

func TestPushToReleasesSkipsIdenticalDestination(t *testing.T) {
	ctx := context.Background()
	store := newLocalStore(t)

	seedCandidates(t, store, "prod", map[string]string{
		"pub/firefox/candidates/99.0-candidates/build1/linux-x86_64/en-US/firefox-99.0.tar.bz2": "installer",
		"pub/firefox/releases/99.0/linux-x86_64/en-US/firefox-99.0.tar.bz2":                     "installer",
	})

	copied, err := upload.PushToReleases(ctx, store, "prod", "firefox", "99.0", 1, nil)
	require.NoError(t, err)
	assert.Empty(t, copied)
}

func TestPushToReleasesRejectsContentConflict(t *testing.T) {
	ctx := context.Background()
	store := newLocalStore(t)

	seedCandidates(t, store, "prod", map[string]string{
		"pub/firefox/candidates/99.0-candidates/build1/linux-x86_64/en-US/firefox-99.0.tar.bz2": "new installer",
		"pub/firefox/releases/99.0/linux-x86_64/en-US/firefox-99.0.tar.bz2":                     "old installer",
	})

	_, err := upload.PushToReleases(ctx, store, "prod", "firefox", "99.0", 1, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "different content")
}

func TestPushToReleasesRequiresCandidates(t *testing.T) {
	store := newLocalStore(t)

	_, err := upload.PushToReleases(context.Background(), store, "prod", "firefox", "99.0", 1, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no candidates found")
}
