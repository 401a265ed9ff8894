package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"exemplar-tuner/cmd"
	"exemplar-tuner/internal/config"
	"exemplar-tuner/internal/dataset"
	"exemplar-tuner/internal/driver"
	"exemplar-tuner/internal/evaluation"
	"exemplar-tuner/internal/finetune"
	"exemplar-tuner/internal/storage"

	"github.com/chzyer/readline"
)

func main() {
	cmd.LoadEnvFile()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if err := os.MkdirAll(cfg.DataDir, os.ModePerm); err != nil {
		log.Fatalf("error creating data directory: %v", err)
	}

	f, err := os.OpenFile(filepath.Join(cfg.DataDir, "exemplar.log"), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer f.Close()

	log.SetOutput(io.MultiWriter(f, os.Stderr))

	slog.Info("starting exemplar tuner", "data_dir", cfg.DataDir, "input_file", cfg.InputFile, "base_model", cfg.BaseModel, "scorer", cfg.Scorer)

	store, err := storage.NewLocalObjectStore(cfg.DataDir)
	if err != nil {
		log.Fatalf("failed to create storage: %v", err)
	}

	db := cmd.OpenDatabase(cfg.StateDB)

	client := cmd.NewProviderClient(cfg)

	inputPath := cfg.InputFile
	if !filepath.IsAbs(inputPath) {
		inputPath = filepath.Join(cfg.DataDir, inputPath)
	}

	tuner := &finetune.Pipeline{
		Store:    store,
		Provider: client,
		Waiter: &finetune.Waiter{
			Jobs:     client,
			Interval: cfg.PollInterval,
			MaxWait:  cfg.MaxWait,
			Clock:    finetune.RealClock(),
		},
		DB:        db,
		InputPath: inputPath,
		BaseModel: cfg.BaseModel,
		SplitOpts: dataset.SplitOpts{
			TestSize:    cfg.TestSize,
			HoldoutSize: cfg.HoldoutSize,
			Seed:        cfg.SplitSeed,
		},
	}

	evaluator := &evaluation.Pipeline{
		Store:     store,
		Generator: client,
		Scorer:    cmd.NewScorer(cfg, client),
		DB:        db,
		Opts:      evaluation.DefaultGenerateOpts(),
	}

	rl, err := readline.NewEx(&readline.Config{
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		HistoryFile:     filepath.Join(cfg.DataDir, ".exemplar_history"),
		HistoryLimit:    500,
	})
	if err != nil {
		log.Fatalf("error initializing readline: %v", err)
	}
	defer rl.Close()

	ctx := context.Background()

	d := &driver.Driver{
		In:         rl,
		Out:        rl.Stdout(),
		Session:    cmd.NewSession(ctx, cfg, db),
		Generator:  client,
		FineTuner:  tuner,
		Evaluator:  evaluator,
		Interrupts: true,
	}

	if err := d.Run(ctx); err != nil {
		slog.Error("exiting with error", "error", err)
		rl.Close()
		f.Close()
		os.Exit(1)
	}
}
