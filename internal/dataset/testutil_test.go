package dataset

import (
	"encoding/json"
	"fmt"
	"testing"

	"exemplar-tuner/internal/storage"

	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *storage.LocalObjectStore {
	t.Helper()
	store, err := storage.NewLocalObjectStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func makeRecords(n int) []Record {
	records := make([]Record, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, Record{
			TaskContent: fmt.Sprintf("context %d", i),
			Question:    fmt.Sprintf("question %d", i),
			QuestionID:  newQuestionID(fmt.Sprintf("q-%d", i)),
			Rubric:      newRubric("accurate", "concise"),
			Answer:      fmt.Sprintf(`"answer %d"`, i),
		})
	}
	return records
}

func ids(records []Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.QuestionID.String())
	}
	return out
}

func newQuestionID(id string) QuestionID {
	b, _ := json.Marshal(id)
	return QuestionID{raw: b}
}

// newRubric encodes the items the way the source dataset does: a JSON string
// holding the object.
func newRubric(items ...string) Rubric {
	body, _ := json.Marshal(rubricBody{Items: items})
	raw, _ := json.Marshal(string(body))
	return Rubric{Items: items, raw: raw, parsed: true}
}
