package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/willdurand/scriptworker-scripts/internal/storage"
)

func setupTestObjectStore(t *testing.T) *storage.LocalObjectStore {
	store, err := storage.NewLocalObjectStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func writeArtifact(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0666))
	return path
}

func TestLocalUploadAndList(t *testing.T) {
	ctx := context.Background()
	store := setupTestObjectStore(t)

	installer := writeArtifact(t, "target.tar.bz2", "installer bytes")
	mar := writeArtifact(t, "target.complete.mar", "mar bytes")

	require.NoError(t, store.Upload(ctx, "net-mozaws-stage", "pub/firefox/nightly/target.tar.bz2", installer, storage.UploadOptions{}))
	require.NoError(t, store.Upload(ctx, "net-mozaws-stage", "pub/firefox/nightly/target.complete.mar", mar, storage.UploadOptions{}))

	objects, err := store.ListObjects(ctx, "net-mozaws-stage", "pub/firefox/")
	require.NoError(t, err)
	require.Len(t, objects, 2)

	assert.Equal(t, "pub/firefox/nightly/target.complete.mar", objects[0].Key)
	assert.Equal(t, int64(len("mar bytes")), objects[0].Size)
	assert.NotEmpty(t, objects[0].ETag)
	assert.Equal(t, "pub/firefox/nightly/target.tar.bz2", objects[1].Key)
}

func TestLocalListPrefixFiltering(t *testing.T) {
	ctx := context.Background()
	store := setupTestObjectStore(t)

	artifact := writeArtifact(t, "target.txt", "logs")
	require.NoError(t, store.Upload(ctx, "bucket", "pub/firefox/candidates/target.txt", artifact, storage.UploadOptions{}))
	require.NoError(t, store.Upload(ctx, "bucket", "pub/devedition/candidates/target.txt", artifact, storage.UploadOptions{}))

	objects, err := store.ListObjects(ctx, "bucket", "pub/devedition/")
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, "pub/devedition/candidates/target.txt", objects[0].Key)

	objects, err = store.ListObjects(ctx, "bucket", "pub/thunderbird/")
	require.NoError(t, err)
	assert.Empty(t, objects)
}

func TestLocalCopyObject(t *testing.T) {
	ctx := context.Background()
	store := setupTestObjectStore(t)

	artifact := writeArtifact(t, "target.dmg", "dmg bytes")
	require.NoError(t, store.Upload(ctx, "bucket", "pub/firefox/candidates/99.0-candidates/build2/target.dmg", artifact, storage.UploadOptions{}))
	require.NoError(t, store.CopyObject(ctx, "bucket", "pub/firefox/candidates/99.0-candidates/build2/target.dmg", "pub/firefox/releases/99.0/target.dmg"))

	objects, err := store.ListObjects(ctx, "bucket", "pub/firefox/releases/")
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, "pub/firefox/releases/99.0/target.dmg", objects[0].Key)

	// identical content yields identical etags
	sources, err := store.ListObjects(ctx, "bucket", "pub/firefox/candidates/")
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, sources[0].ETag, objects[0].ETag)
}

func TestLocalListMissingBucket(t *testing.T) {
	store := setupTestObjectStore(t)

	objects, err := store.ListObjects(context.Background(), "no-such-bucket", "")
	require.NoError(t, err)
	assert.Empty(t, objects)
}
