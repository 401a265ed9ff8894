package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"exemplar-tuner/internal/dataset"
	"exemplar-tuner/internal/evaluation"
	"exemplar-tuner/internal/finetune"

	"github.com/chzyer/readline"
)

const (
	welcomeBanner = "\nWelcome to the Exemplar Answer Generator!\n" +
		"This tool is designed to help generate high-quality exemplar answers for educational tasks using a fine-tuned AI model."

	mainMenu = "\nMain Options:\n" +
		"1. Generate an answer with the fine-tuned model\n" +
		"2. Start Tuning a new model\n" +
		"3. Evaluate model\n" +
		"4. Exit"

	choicePrompt  = "Enter the number of your choice: "
	invalidChoice = "Invalid choice. Please enter a number from 1 to 4."
	exitMessage   = "Exiting the program."
)

// LineReader is the interactive input source. *readline.Instance satisfies it.
type LineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
}

var _ LineReader = (*readline.Instance)(nil)

type FineTuner interface {
	Run(ctx context.Context) (string, error)
}

type Evaluator interface {
	Run(ctx context.Context, modelID string) (evaluation.Result, error)
	History(ctx context.Context, modelID string) ([]evaluation.Result, error)
}

var (
	_ FineTuner = (*finetune.Pipeline)(nil)
	_ Evaluator = (*evaluation.Pipeline)(nil)
)

// errExit ends the menu loop without an error.
var errExit = errors.New("exit")

// errAborted abandons the current action and returns to the menu.
var errAborted = errors.New("aborted")

type Driver struct {
	In        LineReader
	Out       io.Writer
	Session   *Session
	Generator evaluation.Generator
	FineTuner FineTuner
	Evaluator Evaluator

	// Interrupts cancels long running actions on Ctrl+C instead of killing the
	// process. Disabled in tests.
	Interrupts bool
}

// Run shows the menu until the user exits. An error from any action ends the
// loop and is returned.
func (d *Driver) Run(ctx context.Context) error {
	fmt.Fprintln(d.Out, welcomeBanner)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Fprintln(d.Out, mainMenu)

		choice, err := d.readLine(choicePrompt)
		if errors.Is(err, errAborted) {
			continue
		}
		if errors.Is(err, errExit) {
			fmt.Fprintln(d.Out, exitMessage)
			return nil
		}
		if err != nil {
			return err
		}

		var action func(context.Context) error
		switch strings.TrimSpace(choice) {
		case "1":
			action = d.generate
		case "2":
			action = d.tune
		case "3":
			action = d.evaluate
		case "4":
			fmt.Fprintln(d.Out, exitMessage)
			return nil
		default:
			fmt.Fprintln(d.Out, invalidChoice)
			continue
		}

		err = d.dispatch(ctx, action)
		switch {
		case errors.Is(err, errExit):
			fmt.Fprintln(d.Out, exitMessage)
			return nil
		case errors.Is(err, errAborted):
			fmt.Fprintln(d.Out, "Cancelled.")
		case err != nil:
			return err
		}
	}
}

func (d *Driver) dispatch(ctx context.Context, action func(context.Context) error) error {
	if !d.Interrupts {
		return action(ctx)
	}

	actx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	err := action(actx)
	if err != nil && actx.Err() != nil && ctx.Err() == nil {
		slog.Info("action interrupted", "error", err)
		return errAborted
	}
	return err
}

// readLine maps Ctrl+C to errAborted and EOF to errExit.
func (d *Driver) readLine(prompt string) (string, error) {
	d.In.SetPrompt(prompt)
	line, err := d.In.Readline()
	switch {
	case errors.Is(err, readline.ErrInterrupt):
		return "", errAborted
	case errors.Is(err, io.EOF):
		return "", errExit
	case err != nil:
		return "", fmt.Errorf("error reading input: %w", err)
	}
	return line, nil
}

func (d *Driver) ask(label string) (string, error) {
	fmt.Fprintln(d.Out, label)
	line, err := d.readLine("")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (d *Driver) generate(ctx context.Context) error {
	taskContext, err := d.ask("Enter the context for the answer generation:")
	if err != nil {
		return err
	}
	question, err := d.ask("Enter the question for the answer generation:")
	if err != nil {
		return err
	}
	rubric, err := d.ask("Enter the rubric for the answer generation:")
	if err != nil {
		return err
	}

	modelID := d.Session.CurrentModel()
	answer, err := d.Generator.Generate(ctx, modelID, dataset.BuildInteractivePrompt(taskContext, question, rubric))
	if err != nil {
		return fmt.Errorf("error generating answer with model %s: %w", modelID, err)
	}

	fmt.Fprintf(d.Out, "\n\nGenerated exemplar answer: %s\n", answer)
	return nil
}

func (d *Driver) tune(ctx context.Context) error {
	fmt.Fprintln(d.Out, "Waiting for fine-tuning to complete...")

	modelID, err := d.FineTuner.Run(ctx)
	if err != nil {
		return err
	}
	d.Session.ModelID = modelID

	fmt.Fprintf(d.Out, "Fine-tuning completed. Fine-tuned model ID: %s\n", modelID)
	return nil
}

func (d *Driver) evaluate(ctx context.Context) error {
	modelID := d.Session.CurrentModel()
	fmt.Fprintf(d.Out, "Evaluating model %s...\n", modelID)

	result, err := d.Evaluator.Run(ctx, modelID)
	if err != nil {
		return err
	}

	fmt.Fprintln(d.Out, "\nEvaluation Results:")
	fmt.Fprintf(d.Out, "Precision: %.4f\nRecall: %.4f\nF1: %.4f\nAnswers scored: %d\n", result.Precision, result.Recall, result.F1, result.Count)

	history, err := d.Evaluator.History(ctx, modelID)
	if err != nil {
		slog.Warn("could not load evaluation history", "model_id", modelID, "error", err)
		return nil
	}
	if len(history) > 0 {
		fmt.Fprintln(d.Out, "\nRecent runs for this model:")
		for _, run := range history {
			fmt.Fprintf(d.Out, "  %s  %s\n", run.Time.Local().Format(time.DateTime), run)
		}
	}
	return nil
}
