package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func CreateFineTuneJob(ctx context.Context, db *gorm.DB, baseModel string, examples int) (*FineTuneJob, error) {
	job := FineTuneJob{
		Id:           uuid.New(),
		BaseModel:    baseModel,
		Status:       JobQueued,
		Examples:     examples,
		CreationTime: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(&job).Error; err != nil {
		return nil, fmt.Errorf("error creating fine-tune job record: %w", err)
	}
	return &job, nil
}

// SetFineTuneJobSubmitted stores the provider's identifiers and marks the job running.
func SetFineTuneJobSubmitted(ctx context.Context, db *gorm.DB, id uuid.UUID, fileId, jobId string) error {
	updates := map[string]any{"file_id": fileId, "job_id": jobId, "status": JobRunning}
	if err := db.WithContext(ctx).Model(&FineTuneJob{Id: id}).Updates(updates).Error; err != nil {
		slog.Error("error updating fine-tune job", "id", id, "job_id", jobId, "error", err)
		return err
	}
	return nil
}

func SetFineTuneJobCompleted(ctx context.Context, db *gorm.DB, id uuid.UUID, modelId string) error {
	updates := map[string]any{
		"status":          JobCompleted,
		"model_id":        sql.NullString{String: modelId, Valid: true},
		"completion_time": time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Model(&FineTuneJob{Id: id}).Updates(updates).Error; err != nil {
		slog.Error("error updating fine-tune job", "id", id, "status", JobCompleted, "error", err)
		return err
	}
	return nil
}

func SetFineTuneJobFailed(ctx context.Context, db *gorm.DB, id uuid.UUID, jobErr error) error {
	updates := map[string]any{
		"status":          JobFailed,
		"error":           sql.NullString{String: jobErr.Error(), Valid: true},
		"completion_time": time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Model(&FineTuneJob{Id: id}).Updates(updates).Error; err != nil {
		slog.Error("error updating fine-tune job", "id", id, "status", JobFailed, "error", err)
		return err
	}
	return nil
}

// LatestTrainedModel returns the model produced by the most recently completed
// job, or "" if there is none.
func LatestTrainedModel(ctx context.Context, db *gorm.DB) (string, error) {
	var job FineTuneJob
	err := db.WithContext(ctx).
		Where("status = ? AND model_id IS NOT NULL", JobCompleted).
		Order("completion_time DESC").
		First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("error querying latest trained model: %w", err)
	}
	return job.ModelId.String, nil
}

func SaveEvaluationRun(ctx context.Context, db *gorm.DB, modelId string, count int, precision, recall, f1 float64) (*EvaluationRun, error) {
	run := EvaluationRun{
		Id:           uuid.New(),
		ModelId:      modelId,
		Count:        count,
		Precision:    precision,
		Recall:       recall,
		F1:           f1,
		CreationTime: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(&run).Error; err != nil {
		return nil, fmt.Errorf("error saving evaluation run: %w", err)
	}
	return &run, nil
}

func ListEvaluationRuns(ctx context.Context, db *gorm.DB, modelId string) ([]EvaluationRun, error) {
	var runs []EvaluationRun
	query := db.WithContext(ctx).Order("creation_time DESC")
	if modelId != "" {
		query = query.Where("model_id = ?", modelId)
	}
	if err := query.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("error listing evaluation runs: %w", err)
	}
	return runs, nil
}
