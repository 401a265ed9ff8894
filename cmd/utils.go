package cmd

import (
	"context"
	"flag"
	"log"
	"log/slog"

	"exemplar-tuner/internal/config"
	"exemplar-tuner/internal/database"
	"exemplar-tuner/internal/driver"
	"exemplar-tuner/internal/provider"
	"exemplar-tuner/internal/scoring"

	"gorm.io/gorm"
)

// LoadEnvFile loads the dotfile named by the -env flag, or a .env in the working
// directory when the flag is not given.
func LoadEnvFile() {
	var configPath string

	flag.StringVar(&configPath, "env", "", "path to load env from")
	flag.Parse()

	if configPath != "" {
		log.Printf("loading env from file %s", configPath)
	}
	if err := config.LoadDotEnv(configPath); err != nil {
		log.Fatalf("%v", err)
	}
}

func OpenDatabase(path string) *gorm.DB {
	db, err := database.NewDatabase(path)
	if err != nil {
		log.Fatalf("Failed to open state database: %v", err)
	}
	return db
}

func NewProviderClient(cfg *config.Config) *provider.Client {
	return provider.NewClient(provider.Config{
		APIKey:         cfg.OpenAIAPIKey,
		BaseURL:        cfg.OpenAIBaseURL,
		MaxTokens:      cfg.MaxTokens,
		Temperature:    cfg.Temperature,
		EmbeddingModel: cfg.EmbeddingModel,
	})
}

// NewScorer picks the embedding backend for evaluation.
func NewScorer(cfg *config.Config, client *provider.Client) *scoring.Scorer {
	var embedder scoring.Embedder
	switch cfg.Scorer {
	case "ollama":
		slog.Info("using ollama embeddings for scoring", "url", cfg.OllamaURL, "model", cfg.OllamaEmbeddingModel)
		embedder = scoring.NewOllamaEmbedder(cfg.OllamaURL, cfg.OllamaEmbeddingModel)
	default:
		slog.Info("using openai embeddings for scoring", "model", cfg.EmbeddingModel)
		embedder = client
	}
	return scoring.NewScorer(embedder, cfg.ScorerConcurrency)
}

// NewSession starts from the last trained model when resuming is enabled.
func NewSession(ctx context.Context, cfg *config.Config, db *gorm.DB) *driver.Session {
	session := driver.NewSession(cfg.DefaultModelID)
	if !cfg.ResumeLastModel {
		return session
	}

	modelID, err := database.LatestTrainedModel(ctx, db)
	if err != nil {
		slog.Warn("could not look up last trained model, using default", "error", err)
		return session
	}
	if modelID != "" {
		slog.Info("resuming with last trained model", "model_id", modelID)
		session.ModelID = modelID
	}
	return session
}
