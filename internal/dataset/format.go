package dataset

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"exemplar-tuner/internal/storage"
)

const (
	FormattedTrainKey = "formatted_train_data.jsonl"

	TrainingSystemPrompt = "You are an expert educator."
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Example is one chat-formatted fine-tuning example.
type Example struct {
	Messages []Message `json:"messages"`
}

func FormatExample(r Record) Example {
	return Example{
		Messages: []Message{
			{Role: "system", Content: TrainingSystemPrompt},
			{Role: "user", Content: r.TrainingPrompt()},
			{Role: "assistant", Content: StripQuotes(r.Answer)},
		},
	}
}

func FormatExamples(records []Record) []Example {
	examples := make([]Example, 0, len(records))
	for _, r := range records {
		examples = append(examples, FormatExample(r))
	}
	return examples
}

// SaveFormatted reads the train split under trainKey and writes one example per
// line, in order, under outKey. It returns the number of examples written.
func SaveFormatted(ctx context.Context, store storage.ObjectStore, trainKey, outKey string) (int, error) {
	records, err := ReadRecords(ctx, store, trainKey)
	if err != nil {
		return 0, err
	}

	buf := new(bytes.Buffer)
	if err := WriteLines(buf, FormatExamples(records)); err != nil {
		return 0, fmt.Errorf("error encoding formatted examples: %w", err)
	}

	if err := store.PutObject(ctx, outKey, buf); err != nil {
		return 0, fmt.Errorf("error saving %s: %w", outKey, err)
	}

	slog.Info("data formatted and saved", "key", outKey, "examples", len(records))

	return len(records), nil
}
