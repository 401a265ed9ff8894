package scoring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"exemplar-tuner/internal/utils"
)

const (
	DefaultBatchSize   = 64
	DefaultConcurrency = 4
)

var ErrLengthMismatch = errors.New("references and candidates differ in length")

// Embedder turns texts into contextual embedding vectors, one per text, in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

type Scores struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// Scorer computes a BERTScore-style semantic similarity between candidate and
// reference texts. Texts are split into sentence segments; each candidate segment
// is greedily matched to its most similar reference segment (precision) and each
// reference segment to its most similar candidate segment (recall).
type Scorer struct {
	Embedder    Embedder
	BatchSize   int
	Concurrency int
}

func NewScorer(embedder Embedder, concurrency int) *Scorer {
	return &Scorer{Embedder: embedder, BatchSize: DefaultBatchSize, Concurrency: concurrency}
}

// Score averages the per-pair scores over the corpus.
func (s *Scorer) Score(ctx context.Context, references, candidates []string) (Scores, error) {
	pairs, err := s.ScorePairs(ctx, references, candidates)
	if err != nil {
		return Scores{}, err
	}
	if len(pairs) == 0 {
		return Scores{}, errors.New("no answers to score")
	}

	var total Scores
	for _, p := range pairs {
		total.Precision += p.Precision
		total.Recall += p.Recall
		total.F1 += p.F1
	}
	n := float64(len(pairs))
	return Scores{Precision: total.Precision / n, Recall: total.Recall / n, F1: total.F1 / n}, nil
}

func (s *Scorer) ScorePairs(ctx context.Context, references, candidates []string) ([]Scores, error) {
	if len(references) != len(candidates) {
		return nil, fmt.Errorf("%w: %d references, %d candidates", ErrLengthMismatch, len(references), len(candidates))
	}

	refSegments := make([][]string, len(references))
	candSegments := make([][]string, len(candidates))
	for i := range references {
		refSegments[i] = Segment(references[i])
		candSegments[i] = Segment(candidates[i])
	}

	vectors, err := s.embedAll(ctx, append(refSegments, candSegments...))
	if err != nil {
		return nil, err
	}

	scores := make([]Scores, len(references))
	for i := range references {
		scores[i] = greedyMatch(lookup(vectors, candSegments[i]), lookup(vectors, refSegments[i]))
	}
	return scores, nil
}

// embedAll embeds every distinct segment once, batching requests and running
// batches in parallel.
func (s *Scorer) embedAll(ctx context.Context, texts [][]string) (map[string][]float64, error) {
	seen := make(map[string]struct{})
	var unique []string
	for _, segments := range texts {
		for _, seg := range segments {
			if _, ok := seen[seg]; !ok {
				seen[seg] = struct{}{}
				unique = append(unique, seg)
			}
		}
	}

	batchSize := s.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	concurrency := s.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	var batches [][]string
	for start := 0; start < len(unique); start += batchSize {
		batches = append(batches, unique[start:min(start+batchSize, len(unique))])
	}

	slog.Info("embedding segments", "segments", len(unique), "batches", len(batches))

	// The first failed batch cancels the rest.
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	worker := func(ctx context.Context, batch []string) ([][]float64, error) {
		vectors, err := s.Embedder.Embed(ctx, batch)
		if err == nil && len(vectors) != len(batch) {
			err = fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(batch))
		}
		if err != nil {
			cancel(err)
			return nil, err
		}
		return vectors, nil
	}

	results := utils.RunInPool(ctx, worker, batches, concurrency)
	if err := utils.FirstError(results); err != nil {
		if cause := context.Cause(ctx); cause != nil {
			err = cause
		}
		return nil, fmt.Errorf("error embedding answers: %w", err)
	}

	vectors := make(map[string][]float64, len(unique))
	for i, res := range results {
		for j, v := range res.Result {
			vectors[batches[i][j]] = normalize(v)
		}
	}
	return vectors, nil
}

func lookup(vectors map[string][]float64, segments []string) [][]float64 {
	out := make([][]float64, 0, len(segments))
	for _, seg := range segments {
		out = append(out, vectors[seg])
	}
	return out
}

func greedyMatch(candidate, reference [][]float64) Scores {
	if len(candidate) == 0 || len(reference) == 0 {
		return Scores{}
	}

	precision := meanMaxSimilarity(candidate, reference)
	recall := meanMaxSimilarity(reference, candidate)

	var f1 float64
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}
	return Scores{Precision: precision, Recall: recall, F1: f1}
}

func meanMaxSimilarity(from, to [][]float64) float64 {
	var total float64
	for _, a := range from {
		best := math.Inf(-1)
		for _, b := range to {
			best = math.Max(best, dot(a, b))
		}
		total += best
	}
	return total / float64(len(from))
}

func dot(a, b []float64) float64 {
	n := min(len(a), len(b))
	var sum float64
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

func normalize(v []float64) []float64 {
	norm := math.Sqrt(dot(v, v))
	out := make([]float64, len(v))
	if norm == 0 {
		return out
	}
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}
