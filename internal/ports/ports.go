package ports

import (
	"context"
	"time"

	"NewsRadar/internal/domain"
)

// Fetcher pulls raw items for a single source. Implementations own their
// transport-level timeouts.
type Fetcher interface {
	Type() domain.SourceType
	Fetch(ctx context.Context, src domain.Source) ([]domain.RawItem, error)
}

// ItemSource aggregates raw items across all configured sources. Fetch
// failures are isolated per source and never surface to the caller.
type ItemSource interface {
	FetchAll(ctx context.Context, sources []domain.Source) []domain.RawItem
}

// Ledger owns the append-only per-source seen and sent logs. Both logs are
// partitioned by source id, so the same URL appearing under two sources is
// tracked twice; cross-source duplicates are intentionally not caught.
type Ledger interface {
	RecordSeen(article domain.CleanArticle) error
	WasSeen(sourceID, id string) bool
	RecordSent(article domain.CleanArticle) error
	WasSentRecently(sourceID, id string, maxAgeDays int) bool
	LoadEmbeddingsForSource(sourceID string) [][]float32
}

// EmbeddingProvider computes dense vectors for texts. Implementations retry
// and throttle internally; errors surface only once retries are exhausted.
// EmbedBatch preserves input order.
type EmbeddingProvider interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	EmbedOne(ctx context.Context, text string) ([]float32, error)
}

// KeywordGate is a pure lexical include/exclude predicate over article text.
type KeywordGate interface {
	IsRelevant(title, description string) bool
}

// SnapshotWriter persists the per-run output files, named by run timestamp.
type SnapshotWriter interface {
	WriteRaw(stamp time.Time, articles []domain.CleanArticle) (string, error)
	WriteClean(stamp time.Time, articles []domain.CleanArticle) (string, error)
}

// Notifier delivers a digest of selected articles downstream.
type Notifier interface {
	PublishDigest(ctx context.Context, articles []domain.CleanArticle) error
}

// Scheduler controls when pipeline runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
