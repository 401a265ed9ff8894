package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	ExemplarSystemPrompt = "You are an expert educator creating high-quality exemplar answers based on rubrics and educational context."

	DefaultMaxTokens      = 500
	DefaultTemperature    = 0.7
	DefaultEmbeddingModel = "text-embedding-3-small"
)

// Fine-tuning job states reported by the provider.
const (
	JobQueued    = "queued"
	JobRunning   = "running"
	JobSucceeded = "succeeded"
	JobFailed    = "failed"
	JobCancelled = "cancelled"
)

type JobStatus struct {
	ID      string
	Status  string
	ModelID string
	Error   string
}

func (s JobStatus) Terminal() bool {
	return s.Status == JobSucceeded || s.Status == JobFailed || s.Status == JobCancelled
}

type Config struct {
	APIKey         string
	BaseURL        string
	MaxTokens      int64
	Temperature    float64
	EmbeddingModel string
}

type Client struct {
	client         openai.Client
	maxTokens      int64
	temp           float64
	embeddingModel string
}

func NewClient(cfg Config) *Client {
	opts := []option.RequestOption{
		option.WithMaxRetries(0),
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = DefaultEmbeddingModel
	}

	return &Client{
		client:         openai.NewClient(opts...),
		maxTokens:      cfg.MaxTokens,
		temp:           cfg.Temperature,
		embeddingModel: cfg.EmbeddingModel,
	}
}

// UploadFile sends a training file to the provider and returns its file id.
func (c *Client) UploadFile(ctx context.Context, path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("error opening training file: %w", err)
	}
	defer file.Close()

	res, err := c.client.Files.New(ctx, openai.FileNewParams{
		File:    file,
		Purpose: openai.FilePurposeFineTune,
	})
	if err != nil {
		slog.Error("openai error: file upload failed", "path", path, "error", err)
		return "", wrapError("upload file", err)
	}

	return res.ID, nil
}

// StartJob submits a fine-tuning job for the uploaded file and returns the job id.
func (c *Client) StartJob(ctx context.Context, fileID, baseModel string) (string, error) {
	res, err := c.client.FineTuning.Jobs.New(ctx, openai.FineTuningJobNewParams{
		Model:        openai.FineTuningJobNewParamsModel(baseModel),
		TrainingFile: fileID,
	})
	if err != nil {
		slog.Error("openai error: fine-tuning job creation failed", "file_id", fileID, "base_model", baseModel, "error", err)
		return "", wrapError("start fine-tuning job", err)
	}

	return res.ID, nil
}

// GetJob is a single status check. ModelID is empty until the job has produced a
// model.
func (c *Client) GetJob(ctx context.Context, jobID string) (JobStatus, error) {
	job, err := c.client.FineTuning.Jobs.Get(ctx, jobID)
	if err != nil {
		slog.Error("openai error: fine-tuning job lookup failed", "job_id", jobID, "error", err)
		return JobStatus{}, wrapError("get fine-tuning job", err)
	}

	return JobStatus{
		ID:      job.ID,
		Status:  string(job.Status),
		ModelID: job.FineTunedModel,
		Error:   job.Error.Message,
	}, nil
}

// Generate asks the model for one exemplar answer to the prompt.
func (c *Client) Generate(ctx context.Context, modelID, prompt string) (string, error) {
	res, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(modelID),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(ExemplarSystemPrompt),
			openai.UserMessage(prompt),
		},
		MaxTokens:   openai.Int(c.maxTokens),
		Temperature: openai.Float(c.temp),
	})
	if err != nil {
		slog.Error("openai error: chat completions failed", "model", modelID, "error", err)
		return "", wrapError("generate answer", err)
	}

	if len(res.Choices) == 0 {
		err := errors.New("response contained no choices")
		slog.Error("openai error: chat completions failed", "model", modelID, "error", err)
		return "", &Error{Op: "generate answer", Kind: Permanent, Message: err.Error(), Cause: err}
	}

	return res.Choices[0].Message.Content, nil
}

// Embed returns one embedding per text, in input order.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	res, err := c.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: openai.EmbeddingModel(c.embeddingModel),
	})
	if err != nil {
		slog.Error("openai error: embeddings failed", "model", c.embeddingModel, "error", err)
		return nil, wrapError("embed", err)
	}

	if len(res.Data) != len(texts) {
		err := fmt.Errorf("expected %d embeddings, got %d", len(texts), len(res.Data))
		return nil, &Error{Op: "embed", Kind: Permanent, Message: err.Error(), Cause: err}
	}

	data := res.Data
	sort.Slice(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	out := make([][]float64, len(data))
	for i, d := range data {
		out[i] = d.Embedding
	}
	return out, nil
}
