package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Record is one labeled question/answer example from the source dataset.
type Record struct {
	TaskContent string     `json:"task_content"`
	Question    string     `json:"question"`
	QuestionID  QuestionID `json:"question_id"`
	Rubric      Rubric     `json:"rubric"`
	Answer      string     `json:"answer"`
}

// QuestionID keeps the identifier exactly as it appeared in the source file, which
// may be either a number or a string.
type QuestionID struct {
	raw json.RawMessage
}

func (q QuestionID) String() string {
	if len(q.raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(q.raw, &s); err == nil {
		return s
	}
	return string(q.raw)
}

func (q QuestionID) MarshalJSON() ([]byte, error) {
	if len(q.raw) == 0 {
		return []byte("null"), nil
	}
	return q.raw, nil
}

func (q *QuestionID) UnmarshalJSON(data []byte) error {
	q.raw = append(q.raw[:0], bytes.TrimSpace(data)...)
	return nil
}

// Rubric is the scoring criteria for a question. The source stores it as a JSON
// encoded string holding an object with an "items" list; the object itself is also
// accepted. The original encoding is preserved when the record is written back.
type Rubric struct {
	Items  []string
	raw    json.RawMessage
	// parsed is set when the rubric decoded to an object, even one with no items.
	parsed bool
}

type rubricBody struct {
	Items []string `json:"items"`
}

func (r Rubric) MarshalJSON() ([]byte, error) {
	if len(r.raw) == 0 {
		return []byte("null"), nil
	}
	return r.raw, nil
}

func (r *Rubric) UnmarshalJSON(data []byte) error {
	r.raw = append(r.raw[:0], bytes.TrimSpace(data)...)
	r.Items = nil
	r.parsed = false

	if len(r.raw) == 0 || string(r.raw) == "null" {
		return nil
	}

	body := []byte(r.raw)
	if r.raw[0] == '"' {
		var encoded string
		if err := json.Unmarshal(r.raw, &encoded); err != nil {
			return fmt.Errorf("invalid rubric string: %w", err)
		}
		body = []byte(encoded)
	}

	var parsed rubricBody
	if err := json.Unmarshal(body, &parsed); err == nil {
		r.Items = parsed.Items
		r.parsed = true
	}
	return nil
}

// Text renders the rubric items for an evaluation prompt. Unparseable rubrics are
// passed through as their raw text.
func (r Rubric) Text() string {
	if r.parsed {
		return strings.Join(r.Items, ", ")
	}
	return r.Raw()
}

// Raw is the rubric exactly as the source stored it, with the outer JSON string
// encoding removed.
func (r Rubric) Raw() string {
	if len(r.raw) == 0 || string(r.raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(r.raw, &s); err == nil {
		return s
	}
	return string(r.raw)
}

// BuildPrompt is the user turn of training examples and evaluation requests.
func BuildPrompt(context, question, rubric string) string {
	return fmt.Sprintf("Context: %s\n\nQuestion: %s\n\nRubric: %s", context, question, rubric)
}

// BuildInteractivePrompt is the prompt for a single answer typed in at the menu.
func BuildInteractivePrompt(context, question, rubric string) string {
	return fmt.Sprintf("Context: %s\nQuestion: %s\nRubric: %s", context, question, rubric)
}

// Prompt is the evaluation prompt, with the rubric rendered as its items.
func (r Record) Prompt() string {
	return BuildPrompt(r.TaskContent, r.Question, r.Rubric.Text())
}

// TrainingPrompt is the fine-tuning user turn, carrying the rubric as stored.
func (r Record) TrainingPrompt() string {
	return BuildPrompt(r.TaskContent, r.Question, r.Rubric.Raw())
}

// StripQuotes removes any double quotes wrapping an answer.
func StripQuotes(s string) string {
	return strings.Trim(s, `"`)
}
