package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func CreateRun(ctx context.Context, db *gorm.DB, run *PublishRun) error {
	if run.Id == uuid.Nil {
		run.Id = uuid.New()
	}
	if run.Status == "" {
		run.Status = RunQueued
	}
	run.StartedAt = time.Now().UTC()

	if err := db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("error creating publish run: %w", err)
	}
	return nil
}

func UpdateRunStatus(ctx context.Context, db *gorm.DB, runId uuid.UUID, status, errMsg string) error {
	updates := map[string]any{"status": status, "error": errMsg}
	if status == RunCompleted || status == RunFailed {
		updates["completed_at"] = time.Now().UTC()
	}

	if err := db.WithContext(ctx).Model(&PublishRun{Id: runId}).Updates(updates).Error; err != nil {
		slog.Error("error updating publish run status", "run_id", runId, "status", status, "error", err)
		return err
	}
	return nil
}

// RecordRunResult stores what a completed run resolved: the action derived
// from the task's scopes, the product, and the destination manifest. These
// are only known once the worker has processed the task, not at intake.
func RecordRunResult(ctx context.Context, db *gorm.DB, runId uuid.UUID, action, product string, manifest []byte) error {
	updates := map[string]any{"action": action, "product": product}
	if manifest != nil {
		updates["manifest"] = datatypes.JSON(manifest)
	}

	if err := db.WithContext(ctx).Model(&PublishRun{Id: runId}).Updates(updates).Error; err != nil {
		return fmt.Errorf("error recording run result: %w", err)
	}
	return nil
}

func GetRun(ctx context.Context, db *gorm.DB, runId uuid.UUID) (*PublishRun, error) {
	var run PublishRun
	if err := db.WithContext(ctx).First(&run, "id = ?", runId).Error; err != nil {
		return nil, fmt.Errorf("error getting publish run %s: %w", runId, err)
	}
	return &run, nil
}

func RecentRuns(ctx context.Context, db *gorm.DB, limit int) ([]PublishRun, error) {
	var runs []PublishRun
	err := db.WithContext(ctx).
		Order("started_at desc").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("error listing publish runs: %w", err)
	}
	return runs, nil
}
