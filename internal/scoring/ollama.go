package scoring

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultOllamaURL   = "http://localhost:11434"
	DefaultOllamaModel = "nomic-embed-text"
)

// OllamaEmbedder computes embeddings with a locally served Ollama model.
type OllamaEmbedder struct {
	client *resty.Client
	model  string
}

var _ Embedder = (*OllamaEmbedder)(nil)

func NewOllamaEmbedder(baseURL, model string) *OllamaEmbedder {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	if model == "" {
		model = DefaultOllamaModel
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(120*time.Second).
		SetHeader("Content-Type", "application/json")

	return &OllamaEmbedder{client: client, model: model}
}

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float64 `json:"embeddings"`
}

type ollamaError struct {
	Error string `json:"error"`
}

func (o *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var result ollamaEmbedResponse
	var apiErr ollamaError

	resp, err := o.client.R().
		SetContext(ctx).
		SetBody(ollamaEmbedRequest{Model: o.model, Input: texts}).
		SetResult(&result).
		SetError(&apiErr).
		Post("/api/embed")
	if err != nil {
		return nil, fmt.Errorf("ollama embed request failed: %w", err)
	}

	if resp.IsError() {
		msg := apiErr.Error
		if msg == "" {
			msg = resp.String()
		}
		return nil, fmt.Errorf("ollama returned status %d: %s", resp.StatusCode(), msg)
	}

	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama returned %d embeddings for %d texts", len(result.Embeddings), len(texts))
	}

	return result.Embeddings, nil
}
