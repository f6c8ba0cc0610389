package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"

	"github.com/jdigiovanni4/rag-utility-doc-processor/pkg/config"
)

// EmbedderConfig represents the configuration for an embedding provider.
type EmbedderConfig struct {
	APIKey    string
	Model     string
	BatchSize int
	RateLimit float64 // embedding requests per second
}

// embeddingClient is the slice of the OpenAI client the embedder needs.
// Tests substitute a fake.
type embeddingClient interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// Embedder converts texts into fixed-dimension vectors. Inputs longer than
// the batch size are chunked internally and reassembled in input order, so
// callers never special-case size.
type Embedder struct {
	config  EmbedderConfig
	client  embeddingClient
	limiter *rate.Limiter
}

// NewEmbedder creates an Embedder backed by the OpenAI embeddings API.
func NewEmbedder(cfg EmbedderConfig) (*Embedder, error) {
	if cfg.APIKey == "" {
		return nil, config.ErrMissingAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}

	client, err := openai.New(
		openai.WithToken(cfg.APIKey),
		openai.WithEmbeddingModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embeddings client: %w", err)
	}

	return NewEmbedderWithClient(cfg, client), nil
}

// NewEmbedderWithClient creates an Embedder with an explicit client.
func NewEmbedderWithClient(cfg EmbedderConfig, client embeddingClient) *Embedder {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 2
	}

	return &Embedder{
		config:  cfg,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
	}
}

// Embed returns one vector per input text, in input order. A remote failure
// or a length mismatch fails the whole call; there are no partial results
// and no local retries.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += e.config.BatchSize {
		end := i + e.config.BatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[i:end]

		if err := e.limiter.Wait(ctx); err != nil {
			return nil, &ProviderError{Op: "rate limit wait", Err: err}
		}

		embeddings, err := e.client.CreateEmbedding(ctx, batch)
		if err != nil {
			return nil, &ProviderError{Op: "create embedding", Err: err}
		}
		if len(embeddings) != len(batch) {
			return nil, &ProviderError{
				Op:  "create embedding",
				Err: fmt.Errorf("got %d embeddings for %d texts", len(embeddings), len(batch)),
			}
		}

		vectors = append(vectors, embeddings...)
	}

	return vectors, nil
}
