package migration_0

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FineTuneJob struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	JobId     string `gorm:"index"`
	FileId    string
	BaseModel string `gorm:"not null"`
	ModelId   sql.NullString

	Status         string `gorm:"size:20;not null"`
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

func Migration(db *gorm.DB) error {
	return db.AutoMigrate(&FineTuneJob{}, &EvaluationRun{})
}
