package finetune

import (
	"context"
	"fmt"
	"log/slog"

	"exemplar-tuner/internal/database"
	"exemplar-tuner/internal/dataset"
	"exemplar-tuner/internal/provider"
	"exemplar-tuner/internal/storage"

	"gorm.io/gorm"
)

// Provider is the hosted fine-tuning boundary.
type Provider interface {
	JobGetter
	UploadFile(ctx context.Context, path string) (string, error)
	StartJob(ctx context.Context, fileID, baseModel string) (string, error)
}

var _ Provider = (*provider.Client)(nil)

// Pipeline takes the raw dataset all the way to a fine-tuned model id.
type Pipeline struct {
	Store     storage.ObjectStore
	Provider  Provider
	Waiter    *Waiter
	DB        *gorm.DB // optional; jobs are recorded when set
	InputPath string
	BaseModel string
	SplitOpts dataset.SplitOpts
}

// PrepareAndUpload splits and formats the dataset, then uploads the formatted
// training file. It returns the provider file id and the number of examples.
func (p *Pipeline) PrepareAndUpload(ctx context.Context) (string, int, error) {
	if _, err := dataset.SplitFile(ctx, p.Store, p.InputPath, p.SplitOpts); err != nil {
		return "", 0, fmt.Errorf("error splitting data: %w", err)
	}

	examples, err := dataset.SaveFormatted(ctx, p.Store, dataset.TrainKey, dataset.FormattedTrainKey)
	if err != nil {
		return "", 0, fmt.Errorf("error formatting training data: %w", err)
	}

	path, err := p.Store.LocalPath(dataset.FormattedTrainKey)
	if err != nil {
		return "", 0, err
	}

	fileID, err := p.Provider.UploadFile(ctx, path)
	if err != nil {
		return "", 0, fmt.Errorf("error uploading training file: %w", err)
	}
	slog.Info("training file uploaded", "file_id", fileID, "examples", examples)

	return fileID, examples, nil
}

// Run executes split, format, upload, job submission and the wait for the trained
// model. Any step's error is returned to the caller.
func (p *Pipeline) Run(ctx context.Context) (string, error) {
	fileID, examples, err := p.PrepareAndUpload(ctx)
	if err != nil {
		return "", err
	}

	rec, err := p.recordCreate(ctx, examples)
	if err != nil {
		return "", err
	}

	jobID, err := p.Provider.StartJob(ctx, fileID, p.BaseModel)
	if err != nil {
		rec.failed(ctx, err)
		return "", fmt.Errorf("error starting fine-tuning: %w", err)
	}
	slog.Info("fine-tuning started", "job_id", jobID)
	rec.submitted(ctx, fileID, jobID)

	modelID, err := p.Waiter.Wait(ctx, jobID)
	if err != nil {
		rec.failed(ctx, err)
		return "", fmt.Errorf("error waiting for fine-tuning job %s: %w", jobID, err)
	}
	rec.completed(ctx, modelID)

	slog.Info("fine-tuned model ready", "model_id", modelID)
	return modelID, nil
}

type jobRecord struct {
	db  *gorm.DB
	job *database.FineTuneJob
}

func (p *Pipeline) recordCreate(ctx context.Context, examples int) (*jobRecord, error) {
	if p.DB == nil {
		return &jobRecord{}, nil
	}
	job, err := database.CreateFineTuneJob(ctx, p.DB, p.BaseModel, examples)
	if err != nil {
		return nil, err
	}
	return &jobRecord{db: p.DB, job: job}, nil
}

// Bookkeeping failures after submission are logged only; the provider job is the
// source of truth.
func (r *jobRecord) submitted(ctx context.Context, fileID, jobID string) {
	if r.job != nil {
		database.SetFineTuneJobSubmitted(ctx, r.db, r.job.Id, fileID, jobID) //nolint:errcheck
	}
}

func (r *jobRecord) completed(ctx context.Context, modelID string) {
	if r.job != nil {
		database.SetFineTuneJobCompleted(ctx, r.db, r.job.Id, modelID) //nolint:errcheck
	}
}

func (r *jobRecord) failed(ctx context.Context, err error) {
	if r.job != nil {
		database.SetFineTuneJobFailed(context.WithoutCancel(ctx), r.db, r.job.Id, err) //nolint:errcheck
	}
}
