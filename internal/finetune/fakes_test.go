package finetune

import (
	"context"
	"errors"
	"sync"
	"time"

	"exemplar-tuner/internal/provider"
)

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 7, 18, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	c.sleeps = append(c.sleeps, d)

	ch := make(chan time.Time, 1)
	ch <- c.now
	return ch
}

type jobResult struct {
	status provider.JobStatus
	err    error
}

// fakeProvider replays scripted job statuses; once the script runs out the last
// entry repeats.
type fakeProvider struct {
	uploadErr error
	startErr  error
	statuses  []jobResult

	uploaded []string
	started  []string
	polls    int
}

func (f *fakeProvider) UploadFile(ctx context.Context, path string) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.uploaded = append(f.uploaded, path)
	return "file-123", nil
}

func (f *fakeProvider) StartJob(ctx context.Context, fileID, baseModel string) (string, error) {
	if f.startErr != nil {
		return "", f.startErr
	}
	f.started = append(f.started, fileID+"|"+baseModel)
	return "job-456", nil
}

func (f *fakeProvider) GetJob(ctx context.Context, jobID string) (provider.JobStatus, error) {
	if len(f.statuses) == 0 {
		return provider.JobStatus{}, errors.New("no scripted status")
	}
	idx := min(f.polls, len(f.statuses)-1)
	f.polls++
	res := f.statuses[idx]
	res.status.ID = jobID
	return res.status, res.err
}

func running() jobResult {
	return jobResult{status: provider.JobStatus{Status: provider.JobRunning}}
}

func succeeded(model string) jobResult {
	return jobResult{status: provider.JobStatus{Status: provider.JobSucceeded, ModelID: model}}
}
