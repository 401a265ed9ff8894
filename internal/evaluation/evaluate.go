package evaluation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"exemplar-tuner/internal/database"
	"exemplar-tuner/internal/scoring"
	"exemplar-tuner/internal/storage"

	"gorm.io/gorm"
)

type Scorer interface {
	Score(ctx context.Context, references, candidates []string) (scoring.Scores, error)
}

var _ Scorer = (*scoring.Scorer)(nil)

type Result struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Count     int     `json:"count"`

	// Time is set for runs loaded from history.
	Time time.Time `json:"-"`
}

func (r Result) String() string {
	return fmt.Sprintf("precision=%.4f recall=%.4f f1=%.4f (n=%d)", r.Precision, r.Recall, r.F1, r.Count)
}

// EvaluateAnswers scores a saved answers file, averaging over all rows.
func EvaluateAnswers(ctx context.Context, scorer Scorer, store storage.ObjectStore, key string) (Result, error) {
	answers, err := ReadAnswers(ctx, store, key)
	if err != nil {
		return Result{}, err
	}

	references := make([]string, 0, len(answers))
	candidates := make([]string, 0, len(answers))
	for _, a := range answers {
		references = append(references, a.ActualAnswer)
		candidates = append(candidates, a.GeneratedAnswer)
	}

	scores, err := scorer.Score(ctx, references, candidates)
	if err != nil {
		return Result{}, fmt.Errorf("error scoring answers: %w", err)
	}

	return Result{Precision: scores.Precision, Recall: scores.Recall, F1: scores.F1, Count: len(answers)}, nil
}

// Pipeline generates answers for the test split with a model and scores them.
type Pipeline struct {
	Store     storage.ObjectStore
	Generator Generator
	Scorer    Scorer
	DB        *gorm.DB // optional; runs are recorded when set
	Opts      GenerateOpts
}

const historyLimit = 5

func (p *Pipeline) Run(ctx context.Context, modelID string) (Result, error) {
	if _, err := GenerateAnswers(ctx, p.Generator, p.Store, modelID, p.Opts); err != nil {
		return Result{}, err
	}

	result, err := EvaluateAnswers(ctx, p.Scorer, p.Store, p.Opts.OutKey)
	if err != nil {
		return Result{}, err
	}
	slog.Info("evaluation completed", "model_id", modelID, "precision", result.Precision, "recall", result.Recall, "f1", result.F1, "count", result.Count)

	if p.DB != nil {
		if _, err := database.SaveEvaluationRun(ctx, p.DB, modelID, result.Count, result.Precision, result.Recall, result.F1); err != nil {
			return result, err
		}
	}

	return result, nil
}

// History returns the most recent recorded runs for the model, newest first.
func (p *Pipeline) History(ctx context.Context, modelID string) ([]Result, error) {
	if p.DB == nil {
		return nil, nil
	}

	runs, err := database.ListEvaluationRuns(ctx, p.DB, modelID)
	if err != nil {
		return nil, err
	}

	history := make([]Result, 0, min(len(runs), historyLimit))
	for _, run := range runs[:min(len(runs), historyLimit)] {
		history = append(history, Result{Precision: run.Precision, Recall: run.Recall, F1: run.F1, Count: run.Count, Time: run.CreationTime})
	}
	return history, nil
}
