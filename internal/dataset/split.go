package dataset

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"

	"exemplar-tuner/internal/storage"
)

const (
	TrainKey   = "train_data.json"
	TestKey    = "test_data.json"
	HoldoutKey = "holdout_data.json"
)

type SplitOpts struct {
	// TestSize is the fraction of records kept out of training.
	TestSize float64
	// HoldoutSize is the fraction of the held out records reserved as holdout
	// rather than test.
	HoldoutSize float64
	Seed        int64
}

func DefaultSplitOpts() SplitOpts {
	return SplitOpts{TestSize: 0.3, HoldoutSize: 0.3, Seed: 100}
}

type Split struct {
	Train   []Record
	Test    []Record
	Holdout []Record
}

// SplitRecords partitions the records into train, test and holdout. The first cut
// keeps ceil(TestSize*n) records out of training, the second cut moves
// ceil(HoldoutSize*m) of those into holdout. The result only depends on the input
// order and the seed.
func SplitRecords(records []Record, opts SplitOpts) Split {
	if len(records) == 0 {
		return Split{}
	}

	rng := rand.New(rand.NewSource(opts.Seed))

	train, rest := shuffleSplit(records, opts.TestSize, rng)
	test, holdout := shuffleSplit(rest, opts.HoldoutSize, rng)

	return Split{Train: train, Test: test, Holdout: holdout}
}

func shuffleSplit[T any](data []T, testSize float64, rng *rand.Rand) ([]T, []T) {
	nTest := min(int(math.Ceil(testSize*float64(len(data)))), len(data))
	nTrain := len(data) - nTest

	perm := rng.Perm(len(data))

	train := make([]T, 0, nTrain)
	test := make([]T, 0, nTest)

	for _, i := range perm[:nTrain] {
		train = append(train, data[i])
	}
	for _, i := range perm[nTrain:] {
		test = append(test, data[i])
	}

	return train, test
}

// SplitFile loads the dataset at path, splits it and writes the three subsets to
// the store as newline delimited records. An empty dataset produces three empty
// files.
func SplitFile(ctx context.Context, store storage.ObjectStore, path string, opts SplitOpts) (Split, error) {
	input, err := os.Open(path)
	if err != nil {
		return Split{}, fmt.Errorf("error opening dataset: %w", err)
	}
	defer input.Close()

	records, err := LoadRecords(input)
	if err != nil {
		return Split{}, fmt.Errorf("error loading dataset '%s': %w", path, err)
	}

	split := SplitRecords(records, opts)

	outputs := []struct {
		key     string
		records []Record
	}{
		{TrainKey, split.Train},
		{TestKey, split.Test},
		{HoldoutKey, split.Holdout},
	}
	for _, out := range outputs {
		if err := SaveRecords(ctx, store, out.key, out.records); err != nil {
			return Split{}, err
		}
	}

	if len(records) == 0 {
		slog.Info("input data is empty, created empty train, test, and holdout files")
	} else {
		slog.Info("data split completed", "train", len(split.Train), "test", len(split.Test), "holdout", len(split.Holdout))
	}

	return split, nil
}

func SaveRecords(ctx context.Context, store storage.ObjectStore, key string, records []Record) error {
	buf := new(bytes.Buffer)
	if err := WriteLines(buf, records); err != nil {
		return fmt.Errorf("error encoding %s: %w", key, err)
	}
	if err := store.PutObject(ctx, key, buf); err != nil {
		return fmt.Errorf("error saving %s: %w", key, err)
	}
	return nil
}

func ReadRecords(ctx context.Context, store storage.ObjectStore, key string) ([]Record, error) {
	r, err := store.GetObject(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("error opening %s: %w", key, err)
	}
	defer r.Close()

	records, err := ReadLines[Record](r)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", key, err)
	}
	return records, nil
}
