package database

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	RunQueued    string = "QUEUED"
	RunRunning   string = "RUNNING"
	RunCompleted string = "COMPLETED"
	RunFailed    string = "FAILED"
)

// PublishRun is one processed publish task: what was pushed, where, and how
// it ended.
type PublishRun struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	TaskId      string `gorm:"size:22;index"`
	Action      string `gorm:"size:40;not null"`
	Product     string
	Version     string
	BuildNumber int

	Status string `gorm:"size:20;not null"`
	Error  string

	// Resolved destination manifest, recorded for auditing.
	Manifest datatypes.JSON

	StartedAt   time.Time
	CompletedAt sql.NullTime
}
