// Package fetch drives the fetch stage: it resolves each configured source
// to a fetcher by type and aggregates their items with per-source failure
// isolation and a politeness delay between sources.
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"NewsRadar/internal/domain"
	"NewsRadar/internal/ports"
)

const defaultRobotsDelay = 2 * time.Second

// Registry maps source types to fetcher implementations.
type Registry struct {
	fetchers map[domain.SourceType]ports.Fetcher
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{fetchers: map[domain.SourceType]ports.Fetcher{}}
}

// Register adds or replaces the fetcher for its source type.
func (r *Registry) Register(f ports.Fetcher) {
	if r.fetchers == nil {
		r.fetchers = map[domain.SourceType]ports.Fetcher{}
	}
	r.fetchers[f.Type()] = f
}

// Resolve returns the fetcher for a source type or an error if none is
// registered.
func (r *Registry) Resolve(t domain.SourceType) (ports.Fetcher, error) {
	if f, ok := r.fetchers[t]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("no fetcher registered for source type %q", t)
}

// Stage walks the configured sources in order. Sources are deliberately
// serialized, not parallelized, to avoid hammering the origins.
type Stage struct {
	registry *Registry
	logger   *slog.Logger
	sleep    func(time.Duration)
}

var _ ports.ItemSource = (*Stage)(nil)

// NewStage wires the registry into the fetch stage.
func NewStage(registry *Registry, logger *slog.Logger) *Stage {
	return &Stage{registry: registry, logger: logger, sleep: time.Sleep}
}

// FetchAll invokes each source's fetcher in order. A fetcher failure is
// logged and contributes zero items; it never aborts the stage. Between
// sources the stage sleeps the source's robots delay.
func (s *Stage) FetchAll(ctx context.Context, sources []domain.Source) []domain.RawItem {
	var items []domain.RawItem

	for i, src := range sources {
		fetched := s.fetchOne(ctx, src)
		s.logger.Info("source fetched", "source", src.ID, "items", len(fetched))
		items = append(items, fetched...)

		if i < len(sources)-1 {
			s.sleep(robotsDelay(src))
		}
	}

	s.logger.Info("fetch stage done", "sources", len(sources), "items", len(items))
	return items
}

func (s *Stage) fetchOne(ctx context.Context, src domain.Source) []domain.RawItem {
	fetcher, err := s.registry.Resolve(src.Type)
	if err != nil {
		s.logger.Warn("skipping source", "source", src.ID, "error", err)
		return nil
	}

	items, err := fetcher.Fetch(ctx, src)
	if err != nil {
		s.logger.Warn("fetch failed, treating as empty", "source", src.ID, "url", src.URL, "error", err)
		return nil
	}

	for i := range items {
		if items[i].SourceID == "" {
			items[i].SourceID = src.ID
		}
	}
	return items
}

func robotsDelay(src domain.Source) time.Duration {
	if src.RobotsDelay > 0 {
		return time.Duration(src.RobotsDelay) * time.Second
	}
	return defaultRobotsDelay
}
