package database_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/willdurand/scriptworker-scripts/internal/database"
	"gorm.io/gorm"
)

func setupTestDatabase(t *testing.T) *gorm.DB {
	db, err := database.NewDatabase("sqlite://" + filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	return db
}

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()
	db := setupTestDatabase(t)

	// At intake only the task identity is known; the action and product are
	// resolved by the worker.
	run := &database.PublishRun{
		TaskId:      "eSzfNqMZT_mSiQQXu8hyqg",
		Version:     "100.0",
		BuildNumber: 1,
	}
	require.NoError(t, database.CreateRun(ctx, db, run))
	require.NotEqual(t, uuid.Nil, run.Id)

	got, err := database.GetRun(ctx, db, run.Id)
	require.NoError(t, err)
	assert.Equal(t, database.RunQueued, got.Status)
	assert.Empty(t, got.Action)
	assert.False(t, got.CompletedAt.Valid)

	require.NoError(t, database.RecordRunResult(ctx, db, run.Id, "push-to-candidates", "firefox", []byte(`{"en-US":{}}`)))
	require.NoError(t, database.UpdateRunStatus(ctx, db, run.Id, database.RunCompleted, ""))

	got, err = database.GetRun(ctx, db, run.Id)
	require.NoError(t, err)
	assert.Equal(t, database.RunCompleted, got.Status)
	assert.True(t, got.CompletedAt.Valid)
	assert.Equal(t, "push-to-candidates", got.Action)
	assert.Equal(t, "firefox", got.Product)
	assert.JSONEq(t, `{"en-US":{}}`, string(got.Manifest))
}

func TestRunFailureRecordsError(t *testing.T) {
	ctx := context.Background()
	db := setupTestDatabase(t)

	run := &database.PublishRun{TaskId: "eSzfNqMZT_mSiQQXu8hyqg", Action: "push-to-nightly"}
	require.NoError(t, database.CreateRun(ctx, db, run))
	require.NoError(t, database.UpdateRunStatus(ctx, db, run.Id, database.RunFailed, "locale mismatch"))

	got, err := database.GetRun(ctx, db, run.Id)
	require.NoError(t, err)
	assert.Equal(t, database.RunFailed, got.Status)
	assert.Equal(t, "locale mismatch", got.Error)
}

func TestRecentRunsOrderAndLimit(t *testing.T) {
	ctx := context.Background()
	db := setupTestDatabase(t)

	for i := 0; i < 5; i++ {
		run := &database.PublishRun{TaskId: "eSzfNqMZT_mSiQQXu8hyqg", Action: "push-to-nightly"}
		require.NoError(t, database.CreateRun(ctx, db, run))
	}

	runs, err := database.RecentRuns(ctx, db, 3)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}

func TestGetRunMissing(t *testing.T) {
	db := setupTestDatabase(t)

	_, err := database.GetRun(context.Background(), db, uuid.New())
	require.Error(t, err)
}
