// Package rss fetches feed-type sources via gofeed (RSS, Atom, JSON Feed).
package rss

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmcdole/gofeed"

	"NewsRadar/internal/domain"
	"NewsRadar/internal/ports"
)

// Fetcher pulls items from a feed URL.
type Fetcher struct {
	parser *gofeed.Parser
	logger *slog.Logger
}

var _ ports.Fetcher = (*Fetcher)(nil)

// New builds a feed fetcher with a bounded request timeout.
func New(logger *slog.Logger) *Fetcher {
	parser := gofeed.NewParser()
	parser.UserAgent = "NewsRadar/1.0"
	return &Fetcher{parser: parser, logger: logger}
}

// Type identifies the fetcher inside the registry.
func (f *Fetcher) Type() domain.SourceType {
	return domain.SourceRSS
}

// Fetch parses the source's feed and maps its items to raw articles.
func (f *Fetcher) Fetch(ctx context.Context, src domain.Source) ([]domain.RawItem, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	feed, err := f.parser.ParseURLWithContext(src.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", src.URL, err)
	}

	items := make([]domain.RawItem, 0, len(feed.Items))
	for _, it := range feed.Items {
		if it == nil || it.Link == "" {
			continue
		}
		items = append(items, domain.RawItem{
			SourceID:    src.ID,
			Title:       it.Title,
			URL:         it.Link,
			PubDate:     it.Published,
			Description: it.Description,
		})
	}

	f.logger.Debug("feed parsed", "source", src.ID, "items", len(items))
	return items, nil
}
