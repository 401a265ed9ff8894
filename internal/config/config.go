package config

import (
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`

	DataDir   string `env:"DATA_DIR" envDefault:"."`
	InputFile string `env:"INPUT_FILE" envDefault:"cura-llm-training-data.json"`
	StateDB   string `env:"STATE_DB"`

	BaseModel       string `env:"BASE_MODEL" envDefault:"gpt-4o-mini-2024-07-18"`
	DefaultModelID  string `env:"DEFAULT_MODEL_ID" envDefault:"ft:gpt-4o-mini-2024-07-18:personal::AMkfu4yb"`
	ResumeLastModel bool   `env:"RESUME_LAST_MODEL" envDefault:"false"`

	TestSize    float64 `env:"TEST_SIZE" envDefault:"0.3"`
	HoldoutSize float64 `env:"HOLDOUT_SIZE" envDefault:"0.3"`
	SplitSeed   int64   `env:"SPLIT_SEED" envDefault:"100"`

	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"30s"`
	MaxWait      time.Duration `env:"MAX_WAIT" envDefault:"0s"` // 0 waits forever

	MaxTokens   int64   `env:"MAX_TOKENS" envDefault:"500"`
	Temperature float64 `env:"TEMPERATURE" envDefault:"0.7"`

	Scorer               string `env:"SCORER" envDefault:"openai"`
	EmbeddingModel       string `env:"EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	OllamaURL            string `env:"OLLAMA_URL" envDefault:"http://localhost:11434"`
	OllamaEmbeddingModel string `env:"OLLAMA_EMBEDDING_MODEL" envDefault:"nomic-embed-text"`
	ScorerConcurrency    int    `env:"SCORER_CONCURRENCY" envDefault:"4"`
}

// LoadDotEnv loads variables from the given dotfile. With no path, a .env in the
// working directory is loaded if there is one.
func LoadDotEnv(path string) error {
	if path == "" {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found or error loading, continuing with environment variables")
		}
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("error loading env file '%s': %w", path, err)
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.StateDB == "" {
		cfg.StateDB = filepath.Join(cfg.DataDir, "exemplar.db")
	}

	if cfg.OpenAIAPIKey == "" {
		log.Println("Warning: OPENAI_API_KEY is not set, provider calls will fail")
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.TestSize <= 0 || c.TestSize >= 1 {
		return fmt.Errorf("TEST_SIZE must be in (0, 1), got %v", c.TestSize)
	}
	if c.HoldoutSize <= 0 || c.HoldoutSize >= 1 {
		return fmt.Errorf("HOLDOUT_SIZE must be in (0, 1), got %v", c.HoldoutSize)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive, got %v", c.PollInterval)
	}
	if c.MaxWait < 0 {
		return fmt.Errorf("MAX_WAIT must not be negative, got %v", c.MaxWait)
	}
	switch c.Scorer {
	case "openai", "ollama":
	default:
		return fmt.Errorf("SCORER must be 'openai' or 'ollama', got '%s'", c.Scorer)
	}
	if c.ScorerConcurrency < 1 {
		return fmt.Errorf("SCORER_CONCURRENCY must be at least 1, got %d", c.ScorerConcurrency)
	}
	return nil
}
