package evaluation

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"exemplar-tuner/internal/dataset"
	"exemplar-tuner/internal/provider"
	"exemplar-tuner/internal/storage"

	"github.com/schollz/progressbar/v3"
)

const GeneratedAnswersKey = "generated_test_answers.json"

// Generator produces one answer from a model for a prompt.
type Generator interface {
	Generate(ctx context.Context, modelID, prompt string) (string, error)
}

var _ Generator = (*provider.Client)(nil)

// GeneratedAnswer pairs a model answer with the reference answer for one test record.
type GeneratedAnswer struct {
	QuestionID      dataset.QuestionID `json:"question_id"`
	GeneratedAnswer string             `json:"generated_answer"`
	ActualAnswer    string             `json:"actual_answer"`
}

type GenerateOpts struct {
	TestKey string
	OutKey  string

	// Progress receives the progress bar; defaults to stderr.
	Progress io.Writer
}

func DefaultGenerateOpts() GenerateOpts {
	return GenerateOpts{TestKey: dataset.TestKey, OutKey: GeneratedAnswersKey, Progress: os.Stderr}
}

// GenerateAnswers asks the model for an answer to every test record, in order,
// and saves the answers alongside the references. Any failed generation aborts
// the run before anything is written.
func GenerateAnswers(ctx context.Context, gen Generator, store storage.ObjectStore, modelID string, opts GenerateOpts) ([]GeneratedAnswer, error) {
	records, err := dataset.ReadRecords(ctx, store, opts.TestKey)
	if err != nil {
		return nil, err
	}

	// A failed run must not leave the previous run's answers behind to be scored.
	if err := removeStale(ctx, store, opts.OutKey); err != nil {
		return nil, err
	}

	progress := opts.Progress
	if progress == nil {
		progress = io.Discard
	}
	bar := progressbar.NewOptions(len(records),
		progressbar.OptionSetWriter(progress),
		progressbar.OptionSetDescription("generating answers"),
		progressbar.OptionSetWidth(30),
		progressbar.OptionClearOnFinish(),
	)

	answers := make([]GeneratedAnswer, 0, len(records))
	for _, rec := range records {
		answer, err := gen.Generate(ctx, modelID, rec.Prompt())
		if err != nil {
			return nil, fmt.Errorf("error generating answer for question %s: %w", rec.QuestionID, err)
		}

		answers = append(answers, GeneratedAnswer{
			QuestionID:      rec.QuestionID,
			GeneratedAnswer: dataset.StripQuotes(answer),
			ActualAnswer:    dataset.StripQuotes(rec.Answer),
		})
		slog.Debug("generated answer", "question_id", rec.QuestionID.String())
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	buf := new(bytes.Buffer)
	if err := dataset.WriteLines(buf, answers); err != nil {
		return nil, fmt.Errorf("error encoding generated answers: %w", err)
	}
	if err := store.PutObject(ctx, opts.OutKey, buf); err != nil {
		return nil, fmt.Errorf("error saving generated answers: %w", err)
	}

	slog.Info("generated answers saved", "key", opts.OutKey, "count", len(answers))
	return answers, nil
}

func ReadAnswers(ctx context.Context, store storage.ObjectStore, key string) ([]GeneratedAnswer, error) {
	r, err := store.GetObject(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("error opening %s: %w", key, err)
	}
	defer r.Close()

	answers, err := dataset.ReadLines[GeneratedAnswer](r)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", key, err)
	}
	return answers, nil
}

func removeStale(ctx context.Context, store storage.ObjectStore, key string) error {
	exists, err := store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("error checking %s: %w", key, err)
	}
	if !exists {
		return nil
	}
	slog.Info("removing answers from previous run", "key", key)
	if err := store.DeleteObject(ctx, key); err != nil {
		return fmt.Errorf("error removing %s: %w", key, err)
	}
	return nil
}
