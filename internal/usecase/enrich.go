package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"NewsRadar/internal/domain"
	"NewsRadar/internal/ports"
)

const (
	defaultEnrichBatchSize = 20
	teaserWords            = 60
)

// Enricher makes sure every article carries an embedding, computing missing
// ones in batches and caching each enriched article into the seen ledger as
// soon as its vector arrives. A crash mid-way leaves earlier batches durably
// cached, so a retry run does not re-pay provider cost for them.
type Enricher struct {
	provider  ports.EmbeddingProvider
	ledger    ports.Ledger
	batchSize int
	logger    *slog.Logger
}

// NewEnricher wires the provider and ledger; batchSize <= 0 gets a default.
func NewEnricher(provider ports.EmbeddingProvider, store ports.Ledger, batchSize int, logger *slog.Logger) *Enricher {
	if batchSize <= 0 {
		batchSize = defaultEnrichBatchSize
	}
	return &Enricher{provider: provider, ledger: store, batchSize: batchSize, logger: logger}
}

// EnsureEmbeddings fills missing embeddings in place and returns the same
// slice. Articles already carrying a vector are never re-sent to the
// provider. On a provider error the articles enriched so far keep their
// vectors and the error is returned for the caller to decide on.
func (e *Enricher) EnsureEmbeddings(ctx context.Context, articles []domain.CleanArticle) ([]domain.CleanArticle, error) {
	var missing []int
	for i, art := range articles {
		if len(art.Embedding) == 0 {
			missing = append(missing, i)
		}
	}
	if len(missing) == 0 {
		return articles, nil
	}

	e.logger.Info("enriching embeddings", "missing", len(missing), "total", len(articles))

	for start := 0; start < len(missing); start += e.batchSize {
		end := min(start+e.batchSize, len(missing))
		batch := missing[start:end]

		texts := make([]string, len(batch))
		for i, idx := range batch {
			texts[i] = embedText(articles[idx])
		}

		vectors, err := e.provider.EmbedBatch(ctx, texts)
		if err != nil {
			return articles, fmt.Errorf("enrich batch starting at %d: %w", start, err)
		}

		for i, idx := range batch {
			articles[idx].Embedding = vectors[i]
			if err := e.ledger.RecordSeen(articles[idx]); err != nil {
				e.logger.Warn("caching enriched article failed", "id", articles[idx].ID, "error", err)
			}
		}
	}

	return articles, nil
}

// embedText builds the provider input: title plus a teaser of the
// description.
func embedText(art domain.CleanArticle) string {
	return art.Title + "\n\n" + teaser(art.Description)
}

// teaser strips markup from the description, collapses whitespace, and keeps
// the first 60 words.
func teaser(description string) string {
	if description == "" {
		return ""
	}

	text := description
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(description)); err == nil {
		text = doc.Text()
	}

	words := strings.Fields(text)
	if len(words) > teaserWords {
		words = words[:teaserWords]
	}
	return strings.Join(words, " ")
}
