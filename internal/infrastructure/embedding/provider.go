// Package embedding implements the vector-embedding provider on top of the
// OpenAI embeddings API via langchaingo, with retry, a concurrency cap, and
// request pacing handled inside the provider so callers never see transient
// failures.
package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"NewsRadar/internal/ports"
)

const (
	defaultModel             = "text-embedding-3-small"
	defaultBatchSize         = 20
	defaultMaxRetries        = 5
	defaultMaxConcurrency    = 2
	defaultRequestsPerSecond = 2.0
	baseBackoff              = 500 * time.Millisecond
)

// Config carries the provider knobs surfaced through application config.
type Config struct {
	APIKey            string
	Model             string
	BatchSize         int
	MaxRetries        int
	MaxConcurrency    int64
	RequestsPerSecond float64
}

func (c *Config) applyDefaults() {
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = defaultMaxRetries
	}
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = defaultMaxConcurrency
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = defaultRequestsPerSecond
	}
}

// Provider adapts a langchaingo embedder to the pipeline's contract.
type Provider struct {
	embedder   embeddings.Embedder
	maxRetries uint64
	sem        *semaphore.Weighted
	limiter    *rate.Limiter
	logger     *slog.Logger
}

var _ ports.EmbeddingProvider = (*Provider)(nil)

// New constructs an OpenAI-backed provider from config.
func New(cfg Config, logger *slog.Logger) (*Provider, error) {
	cfg.applyDefaults()

	opts := []openai.Option{openai.WithEmbeddingModel(cfg.Model)}
	if cfg.APIKey != "" {
		opts = append(opts, openai.WithToken(cfg.APIKey))
	}
	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("init openai client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(client,
		embeddings.WithBatchSize(cfg.BatchSize),
		embeddings.WithStripNewLines(true),
	)
	if err != nil {
		return nil, fmt.Errorf("construct embedder: %w", err)
	}

	return &Provider{
		embedder:   embedder,
		maxRetries: uint64(cfg.MaxRetries),
		sem:        semaphore.NewWeighted(cfg.MaxConcurrency),
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		logger:     logger,
	}, nil
}

// EmbedBatch embeds texts preserving input order. Transient failures are
// retried with exponential backoff; exhausted retries propagate.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var vectors [][]float32
	err := p.throttled(ctx, func(ctx context.Context) error {
		got, err := p.embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			return retry.RetryableError(err)
		}
		if len(got) != len(texts) {
			return fmt.Errorf("provider returned %d vectors for %d texts", len(got), len(texts))
		}
		vectors = got
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("embed batch of %d: %w", len(texts), err)
	}
	return vectors, nil
}

// EmbedOne embeds a single text, typically the run's topic seed.
func (p *Provider) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	var vector []float32
	err := p.throttled(ctx, func(ctx context.Context) error {
		got, err := p.embedder.EmbedQuery(ctx, text)
		if err != nil {
			return retry.RetryableError(err)
		}
		vector = got
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("embed text: %w", err)
	}
	return vector, nil
}

// throttled runs call under the concurrency semaphore, rate limiter, and
// retry policy.
func (p *Provider) throttled(ctx context.Context, call func(context.Context) error) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire embed slot: %w", err)
	}
	defer p.sem.Release(1)

	backoff := retry.WithMaxRetries(p.maxRetries, retry.NewExponential(baseBackoff))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := p.limiter.Wait(ctx); err != nil {
			return err
		}
		err := call(ctx)
		if err != nil && p.logger != nil {
			p.logger.Debug("embedding call failed", "error", err)
		}
		return err
	})
}
