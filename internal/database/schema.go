package database

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

const (
	JobQueued    string = "QUEUED"
	JobRunning   string = "RUNNING"
	JobCompleted string = "COMPLETED"
	JobFailed    string = "FAILED"
)

// FineTuneJob tracks one submission to the hosted fine-tuning provider.
type FineTuneJob struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	JobId     string `gorm:"index"`
	FileId    string
	BaseModel string `gorm:"not null"`
	ModelId   sql.NullString

	Status         string `gorm:"size:20;not null"`
	Error          sql.NullString
	Examples       int
	CreationTime   time.Time
	CompletionTime sql.NullTime
}

type EvaluationRun struct {
	Id      uuid.UUID `gorm:"type:uuid;primaryKey"`
	ModelId string    `gorm:"not null;index"`

	Count     int
	Precision float64
	Recall    float64
	F1        float64

	CreationTime time.Time
}
