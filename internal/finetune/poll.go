package finetune

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"exemplar-tuner/internal/provider"
)

const DefaultPollInterval = 30 * time.Second

var (
	ErrJobFailed   = errors.New("fine-tuning job failed")
	ErrWaitTimeout = errors.New("timed out waiting for fine-tuning job")
)

type JobGetter interface {
	GetJob(ctx context.Context, jobID string) (provider.JobStatus, error)
}

// Poll performs a single status check. It reports ready once the job has produced
// a model id, and returns ErrJobFailed if the job ended without one.
func Poll(ctx context.Context, jobs JobGetter, jobID string) (string, bool, error) {
	status, err := jobs.GetJob(ctx, jobID)
	if err != nil {
		return "", false, fmt.Errorf("error checking fine-tuning job %s: %w", jobID, err)
	}

	if status.ModelID != "" {
		return status.ModelID, true, nil
	}

	// A job that ended without producing a model will never produce one.
	if status.Terminal() {
		msg := status.Error
		if msg == "" {
			msg = "no error reported"
		}
		return "", false, fmt.Errorf("%w: job %s is %s: %s", ErrJobFailed, jobID, status.Status, msg)
	}

	return "", false, nil
}

// Waiter blocks until a fine-tuning job yields a model. Each attempt first sleeps
// for Interval. A MaxWait of zero waits indefinitely.
type Waiter struct {
	Jobs     JobGetter
	Interval time.Duration
	MaxWait  time.Duration
	Clock    Clock
}

func (w *Waiter) Wait(ctx context.Context, jobID string) (string, error) {
	clock := w.Clock
	if clock == nil {
		clock = RealClock()
	}
	interval := w.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	slog.Info("waiting for fine-tuning to complete", "job_id", jobID, "interval", interval, "max_wait", w.MaxWait)

	start := clock.Now()
	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-clock.After(interval):
		}

		modelID, ready, err := Poll(ctx, w.Jobs, jobID)
		switch {
		case err != nil && (errors.Is(err, ErrJobFailed) || !provider.IsTransient(err)):
			slog.Error("fine-tuning job did not complete", "job_id", jobID, "attempt", attempt, "error", err)
			return "", err
		case err != nil:
			slog.Warn("transient error checking fine-tuning job, will poll again", "job_id", jobID, "attempt", attempt, "error", err)
		case ready:
			slog.Info("fine-tuning completed", "job_id", jobID, "model_id", modelID, "attempts", attempt)
			return modelID, nil
		}

		if w.MaxWait > 0 && clock.Now().Sub(start) >= w.MaxWait {
			return "", fmt.Errorf("%w: job %s not ready after %v", ErrWaitTimeout, jobID, w.MaxWait)
		}
	}
}
