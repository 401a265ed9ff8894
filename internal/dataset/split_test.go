package dataset

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"exemplar-tuner/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitRecordsPartitions(t *testing.T) {
	for _, n := range []int{1, 2, 3, 7, 10, 33, 100} {
		records := makeRecords(n)
		split := SplitRecords(records, DefaultSplitOpts())

		all := append(append(ids(split.Train), ids(split.Test)...), ids(split.Holdout)...)
		assert.ElementsMatch(t, ids(records), all, "n=%d", n)

		seen := make(map[string]bool)
		for _, id := range all {
			assert.False(t, seen[id], "record %s appears in more than one split", id)
			seen[id] = true
		}
	}
}

func TestSplitRecordsSizes(t *testing.T) {
	split := SplitRecords(makeRecords(100), DefaultSplitOpts())

	// 30 held out, of which ceil(0.3*30) = 9 go to holdout.
	assert.Len(t, split.Train, 70)
	assert.Len(t, split.Test, 21)
	assert.Len(t, split.Holdout, 9)

	split = SplitRecords(makeRecords(10), SplitOpts{TestSize: 0.25, HoldoutSize: 0.5, Seed: 1})
	assert.Len(t, split.Train, 7)
	assert.Len(t, split.Test, 1)
	assert.Len(t, split.Holdout, 2)
}

func TestSplitRecordsReproducible(t *testing.T) {
	records := makeRecords(50)

	a := SplitRecords(records, DefaultSplitOpts())
	b := SplitRecords(records, DefaultSplitOpts())
	assert.Equal(t, ids(a.Train), ids(b.Train))
	assert.Equal(t, ids(a.Test), ids(b.Test))
	assert.Equal(t, ids(a.Holdout), ids(b.Holdout))

	opts := DefaultSplitOpts()
	opts.Seed = 7
	c := SplitRecords(records, opts)
	assert.NotEqual(t, ids(a.Train), ids(c.Train))
}

func TestSplitRecordsEmpty(t *testing.T) {
	split := SplitRecords(nil, DefaultSplitOpts())
	assert.Empty(t, split.Train)
	assert.Empty(t, split.Test)
	assert.Empty(t, split.Holdout)
}

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func readAll(t *testing.T, store storage.ObjectStore, key string) string {
	t.Helper()
	r, err := store.GetObject(context.Background(), key)
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(data)
}

func TestSplitFile(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	data, err := json.Marshal(makeRecords(20))
	require.NoError(t, err)
	input := writeInput(t, string(data))

	split, err := SplitFile(ctx, store, input, DefaultSplitOpts())
	require.NoError(t, err)
	assert.Len(t, split.Train, 14)

	train, err := ReadRecords(ctx, store, TrainKey)
	require.NoError(t, err)
	assert.Equal(t, ids(split.Train), ids(train))

	test, err := ReadRecords(ctx, store, TestKey)
	require.NoError(t, err)
	assert.Equal(t, ids(split.Test), ids(test))

	holdout, err := ReadRecords(ctx, store, HoldoutKey)
	require.NoError(t, err)
	assert.Equal(t, ids(split.Holdout), ids(holdout))

	lines := strings.Split(strings.TrimSpace(readAll(t, store, TrainKey)), "\n")
	assert.Len(t, lines, 14)
}

func TestSplitFileEmptyInput(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	_, err := SplitFile(ctx, store, writeInput(t, "[]"), DefaultSplitOpts())
	require.NoError(t, err)

	for _, key := range []string{TrainKey, TestKey, HoldoutKey} {
		exists, err := store.Exists(ctx, key)
		require.NoError(t, err)
		assert.True(t, exists, key)
		assert.Empty(t, readAll(t, store, key), key)
	}
}

func TestSplitFileMissingInput(t *testing.T) {
	store := newStore(t)

	_, err := SplitFile(context.Background(), store, filepath.Join(t.TempDir(), "missing.json"), DefaultSplitOpts())
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestSplitFileMalformedInput(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	_, err := SplitFile(ctx, store, writeInput(t, "{broken"), DefaultSplitOpts())
	assert.Error(t, err)

	exists, err := store.Exists(ctx, TrainKey)
	require.NoError(t, err)
	assert.False(t, exists)
}
