package provider

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/daybook-dev/daybook/domain/memory"
)

// Default OpenAI settings.
const (
	DefaultOpenAIModel   = "text-embedding-3-small"
	defaultMaxRetries    = 5
	defaultInitialDelay  = 2 * time.Second
	defaultBackoffFactor = 2.0
	openAIModelRevision  = 1
)

// OpenAIGenerator produces embeddings through the OpenAI API, asking the
// API for memory.Dimensions-wide vectors directly.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
	retry  retryPolicy
	ready  atomic.Bool
}

// OpenAIOption is a functional option for OpenAIGenerator.
type OpenAIOption func(*OpenAIGenerator)

// WithOpenAIModel sets the embedding model.
func WithOpenAIModel(model string) OpenAIOption {
	return func(g *OpenAIGenerator) { g.model = model }
}

// WithMaxRetries sets the maximum retry count.
func WithMaxRetries(n int) OpenAIOption {
	return func(g *OpenAIGenerator) { g.retry.maxRetries = n }
}

// WithInitialDelay sets the initial retry delay.
func WithInitialDelay(d time.Duration) OpenAIOption {
	return func(g *OpenAIGenerator) { g.retry.initialDelay = d }
}

// WithBackoffFactor sets the retry backoff multiplier.
func WithBackoffFactor(f float64) OpenAIOption {
	return func(g *OpenAIGenerator) { g.retry.backoffFactor = f }
}

// NewOpenAIGenerator creates an OpenAIGenerator with the given API key.
func NewOpenAIGenerator(apiKey string, opts ...OpenAIOption) *OpenAIGenerator {
	g := &OpenAIGenerator{
		client: openai.NewClient(apiKey),
		model:  DefaultOpenAIModel,
		retry: retryPolicy{
			maxRetries:    defaultMaxRetries,
			initialDelay:  defaultInitialDelay,
			backoffFactor: defaultBackoffFactor,
		},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// NewOpenAIGeneratorWithConfig creates an OpenAIGenerator from a full
// client config, for custom base URLs.
func NewOpenAIGeneratorWithConfig(cfg openai.ClientConfig, opts ...OpenAIOption) *OpenAIGenerator {
	g := NewOpenAIGenerator("", opts...)
	g.client = openai.NewClientWithConfig(cfg)
	return g
}

// Initialize verifies the API is reachable by listing models. Idempotent.
func (g *OpenAIGenerator) Initialize(ctx context.Context) error {
	if g.ready.Load() {
		return nil
	}
	err := g.retry.do(ctx, func() error {
		_, err := g.client.ListModels(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: %v", memory.ErrInitialization, err)
	}
	g.ready.Store(true)
	return nil
}

// Status reports readiness.
func (g *OpenAIGenerator) Status() Status {
	return Status{
		Ready:        g.ready.Load(),
		Device:       "api",
		Model:        g.model,
		ModelVersion: memory.FormatModelVersion(g.model, openAIModelRevision),
	}
}

// Embed produces one embedding.
func (g *OpenAIGenerator) Embed(ctx context.Context, text string) (Result, error) {
	results, err := g.EmbedBatch(ctx, []string{text})
	if err != nil {
		return Result{}, err
	}
	return results[0], nil
}

// EmbedBatch produces one embedding per text in a single API call.
func (g *OpenAIGenerator) EmbedBatch(ctx context.Context, texts []string) ([]Result, error) {
	if err := validateTexts(texts); err != nil {
		return nil, err
	}
	if !g.ready.Load() {
		if err := g.Initialize(ctx); err != nil {
			return nil, err
		}
	}

	started := time.Now()
	req := openai.EmbeddingRequest{
		Model:      openai.EmbeddingModel(g.model),
		Input:      texts,
		Dimensions: memory.Dimensions,
	}

	var resp openai.EmbeddingResponse
	err := g.retry.do(ctx, func() error {
		var callErr error
		resp, callErr = g.client.CreateEmbeddings(ctx, req)
		return callErr
	})
	if err != nil {
		return nil, wrapOpenAIError("embedding", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, NewProviderError("embedding", 0,
			fmt.Sprintf("got %d vectors for %d texts", len(resp.Data), len(texts)), nil)
	}

	elapsed := time.Since(started)
	version := memory.FormatModelVersion(g.model, openAIModelRevision)
	results := make([]Result, len(resp.Data))
	for i, data := range resp.Data {
		raw := make([]float64, len(data.Embedding))
		for j, v := range data.Embedding {
			raw[j] = float64(v)
		}
		results[i] = Result{
			Vector:         fitDimensions(raw),
			ModelVersion:   version,
			Timestamp:      time.Now().UTC(),
			ProcessingTime: elapsed,
		}
	}
	return results, nil
}

// Close is a no-op; the HTTP client holds no persistent resources.
func (g *OpenAIGenerator) Close() error {
	return nil
}

// wrapOpenAIError wraps an OpenAI error into a ProviderError.
func wrapOpenAIError(operation string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return NewProviderError(operation, apiErr.HTTPStatusCode, apiErr.Message, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return NewProviderError(operation, reqErr.HTTPStatusCode, reqErr.Error(), err)
	}
	return NewProviderError(operation, 0, err.Error(), err)
}

var _ Generator = (*OpenAIGenerator)(nil)
