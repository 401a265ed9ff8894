package driver

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"exemplar-tuner/internal/evaluation"

	"github.com/chzyer/readline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedInput struct {
	lines   []any // string or error
	prompts []string
}

func script(lines ...any) *scriptedInput {
	return &scriptedInput{lines: lines}
}

func (s *scriptedInput) SetPrompt(prompt string) {
	s.prompts = append(s.prompts, prompt)
}

func (s *scriptedInput) Readline() (string, error) {
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	next := s.lines[0]
	s.lines = s.lines[1:]
	if err, ok := next.(error); ok {
		return "", err
	}
	return next.(string), nil
}

type fakeGenerator struct {
	modelID string
	prompt  string
	err     error
}

func (f *fakeGenerator) Generate(ctx context.Context, modelID, prompt string) (string, error) {
	f.modelID, f.prompt = modelID, prompt
	return "An exemplar answer.", f.err
}

type fakeTuner struct {
	modelID string
	err     error
	calls   int
}

func (f *fakeTuner) Run(ctx context.Context) (string, error) {
	f.calls++
	return f.modelID, f.err
}

type fakeEvaluator struct {
	modelIDs   []string
	err        error
	history    []evaluation.Result
	historyErr error
}

func (f *fakeEvaluator) History(ctx context.Context, modelID string) ([]evaluation.Result, error) {
	return f.history, f.historyErr
}

func (f *fakeEvaluator) Run(ctx context.Context, modelID string) (evaluation.Result, error) {
	f.modelIDs = append(f.modelIDs, modelID)
	return evaluation.Result{Precision: 0.9, Recall: 0.8, F1: 0.85, Count: 21}, f.err
}

type harness struct {
	driver    *Driver
	out       *bytes.Buffer
	generator *fakeGenerator
	tuner     *fakeTuner
	evaluator *fakeEvaluator
}

func newHarness(in *scriptedInput) *harness {
	h := &harness{
		out:       new(bytes.Buffer),
		generator: &fakeGenerator{},
		tuner:     &fakeTuner{modelID: "ft:tuned"},
		evaluator: &fakeEvaluator{},
	}
	h.driver = &Driver{
		In:        in,
		Out:       h.out,
		Session:   NewSession("ft:default"),
		Generator: h.generator,
		FineTuner: h.tuner,
		Evaluator: h.evaluator,
	}
	return h
}

func TestSessionCurrentModel(t *testing.T) {
	s := NewSession("ft:default")
	assert.Equal(t, "ft:default", s.CurrentModel())

	s.ModelID = "ft:tuned"
	assert.Equal(t, "ft:tuned", s.CurrentModel())
}

func TestRunExit(t *testing.T) {
	in := script("4")
	h := newHarness(in)

	require.NoError(t, h.driver.Run(context.Background()))

	out := h.out.String()
	assert.Contains(t, out, "Welcome to the Exemplar Answer Generator!")
	assert.Contains(t, out, "Main Options:")
	assert.Contains(t, out, "4. Exit")
	assert.Contains(t, out, "Exiting the program.")
	assert.Equal(t, []string{choicePrompt}, in.prompts)
}

func TestRunEOFExits(t *testing.T) {
	h := newHarness(script())
	require.NoError(t, h.driver.Run(context.Background()))
	assert.Contains(t, h.out.String(), "Exiting the program.")
}

func TestRunInvalidChoice(t *testing.T) {
	h := newHarness(script("7", "abc", "4"))

	require.NoError(t, h.driver.Run(context.Background()))
	assert.Equal(t, 2, bytes.Count(h.out.Bytes(), []byte(invalidChoice)))
}

func TestRunInterruptAtMenuClearsLine(t *testing.T) {
	h := newHarness(script(readline.ErrInterrupt, "4"))

	require.NoError(t, h.driver.Run(context.Background()))
	assert.NotContains(t, h.out.String(), invalidChoice)
}

func TestGenerateUsesDefaultModel(t *testing.T) {
	h := newHarness(script("1", "Photosynthesis", "What do plants need?", "mentions light", "4"))

	require.NoError(t, h.driver.Run(context.Background()))

	assert.Equal(t, "ft:default", h.generator.modelID)
	assert.Equal(t, "Context: Photosynthesis\nQuestion: What do plants need?\nRubric: mentions light", h.generator.prompt)
	assert.Contains(t, h.out.String(), "Generated exemplar answer: An exemplar answer.")
}

func TestTuneThenGenerateUsesTunedModel(t *testing.T) {
	h := newHarness(script("2", "1", "c", "q", "r", "3", "4"))

	require.NoError(t, h.driver.Run(context.Background()))

	assert.Equal(t, 1, h.tuner.calls)
	assert.Equal(t, "ft:tuned", h.driver.Session.ModelID)
	assert.Equal(t, "ft:tuned", h.generator.modelID)
	assert.Equal(t, []string{"ft:tuned"}, h.evaluator.modelIDs)
	assert.Contains(t, h.out.String(), "Fine-tuning completed. Fine-tuned model ID: ft:tuned")
}

func TestEvaluatePrintsScores(t *testing.T) {
	h := newHarness(script("3", "4"))

	require.NoError(t, h.driver.Run(context.Background()))

	out := h.out.String()
	assert.Equal(t, []string{"ft:default"}, h.evaluator.modelIDs)
	assert.Contains(t, out, "Precision: 0.9000")
	assert.Contains(t, out, "Recall: 0.8000")
	assert.Contains(t, out, "F1: 0.8500")
}

func TestEvaluatePrintsHistory(t *testing.T) {
	h := newHarness(script("3", "4"))
	h.evaluator.history = []evaluation.Result{
		{Precision: 0.9, Recall: 0.8, F1: 0.85, Count: 21, Time: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
		{Precision: 0.7, Recall: 0.6, F1: 0.65, Count: 21, Time: time.Date(2026, 1, 1, 3, 4, 5, 0, time.UTC)},
	}

	require.NoError(t, h.driver.Run(context.Background()))

	out := h.out.String()
	assert.Contains(t, out, "Recent runs for this model:")
	assert.Contains(t, out, "precision=0.7000 recall=0.6000 f1=0.6500 (n=21)")
}

func TestEvaluateHistoryErrorIsNotFatal(t *testing.T) {
	h := newHarness(script("3", "4"))
	h.evaluator.historyErr = errors.New("database locked")

	require.NoError(t, h.driver.Run(context.Background()))
	assert.NotContains(t, h.out.String(), "Recent runs")
	assert.Contains(t, h.out.String(), "Exiting the program.")
}

func TestActionErrorEndsRun(t *testing.T) {
	h := newHarness(script("2", "4"))
	h.tuner.err = errors.New("upload failed: file not found")

	err := h.driver.Run(context.Background())
	require.ErrorContains(t, err, "file not found")
	assert.NotContains(t, h.out.String(), "Exiting the program.")
	assert.Empty(t, h.driver.Session.ModelID)
}

func TestGenerateErrorEndsRun(t *testing.T) {
	h := newHarness(script("1", "c", "q", "r", "4"))
	h.generator.err = errors.New("model not found")

	err := h.driver.Run(context.Background())
	require.ErrorContains(t, err, "model not found")
}

func TestInterruptDuringGenerateReturnsToMenu(t *testing.T) {
	h := newHarness(script("1", "c", readline.ErrInterrupt, "4"))

	require.NoError(t, h.driver.Run(context.Background()))
	assert.Empty(t, h.generator.prompt)
	assert.Contains(t, h.out.String(), "Cancelled.")
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h := newHarness(script("4"))
	assert.ErrorIs(t, h.driver.Run(ctx), context.Canceled)
}
