package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"NewsRadar/internal/domain"
	"NewsRadar/internal/ports"
	"NewsRadar/internal/vector"
)

const (
	defaultPerSourceCap   = 7
	defaultTopN           = 50
	defaultSentMaxAgeDays = 30
)

// PipelineDeps wires the collaborators into the orchestration pipeline.
type PipelineDeps struct {
	Sources  []domain.Source
	Source   ports.ItemSource
	Ledger   ports.Ledger
	Gate     ports.KeywordGate
	Enricher *Enricher
	Scorer   *Scorer
	Snapshot ports.SnapshotWriter
	Notifier ports.Notifier // optional; nil disables delivery
	Logger   *slog.Logger

	PerSourceCap     int
	TopN             int
	NearDupThreshold float64
	SentMaxAgeDays   int
	Now              func() time.Time
}

// Pipeline runs one ingestion batch: fetch, normalize and dedup, keyword
// gate with a per-source cap, enrich, score, near-duplicate filter, rank,
// persist, commit to the ledger, and deliver. Strictly sequential; a crash
// mid-run means a full re-run, which the dedup stage makes idempotent.
type Pipeline struct {
	sources  []domain.Source
	source   ports.ItemSource
	ledger   ports.Ledger
	gate     ports.KeywordGate
	enricher *Enricher
	scorer   *Scorer
	snapshot ports.SnapshotWriter
	notifier ports.Notifier
	logger   *slog.Logger

	perSourceCap     int
	topN             int
	nearDupThreshold float64
	sentMaxAgeDays   int
	now              func() time.Time
}

// NewPipeline constructs the orchestrator, applying defaults for unset
// bounds.
func NewPipeline(deps PipelineDeps) *Pipeline {
	p := &Pipeline{
		sources:          deps.Sources,
		source:           deps.Source,
		ledger:           deps.Ledger,
		gate:             deps.Gate,
		enricher:         deps.Enricher,
		scorer:           deps.Scorer,
		snapshot:         deps.Snapshot,
		notifier:         deps.Notifier,
		logger:           deps.Logger,
		perSourceCap:     deps.PerSourceCap,
		topN:             deps.TopN,
		nearDupThreshold: deps.NearDupThreshold,
		sentMaxAgeDays:   deps.SentMaxAgeDays,
		now:              deps.Now,
	}
	if p.perSourceCap <= 0 {
		p.perSourceCap = defaultPerSourceCap
	}
	if p.topN <= 0 {
		p.topN = defaultTopN
	}
	if p.nearDupThreshold <= 0 {
		p.nearDupThreshold = vector.DefaultNearDupThreshold
	}
	if p.sentMaxAgeDays <= 0 {
		p.sentMaxAgeDays = defaultSentMaxAgeDays
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p
}

// Run executes one batch. It returns an error only when the run cannot
// produce output at all; every per-source and per-article failure is
// isolated so partial data still lands.
func (p *Pipeline) Run(ctx context.Context) error {
	start := p.now()

	raw := p.source.FetchAll(ctx, p.sources)
	p.logger.Info("articles fetched", "count", len(raw))

	fetched := p.normalizeAndDedup(raw)
	p.logger.Info("new articles after dedup", "count", len(fetched), "dropped", len(raw)-len(fetched))

	capped := p.gateAndCap(fetched)
	p.logger.Info("keyword gate and cap retained", "kept", len(capped), "of", len(fetched))

	enriched, err := p.enricher.EnsureEmbeddings(ctx, capped)
	if err != nil {
		// articles that did get vectors score normally, the rest fall back
		p.logger.Error("enrichment incomplete, continuing with partial embeddings", "error", err)
	}

	p.scorer.ScoreAll(ctx, enriched)

	unique := p.filterNearDuplicates(enriched)

	selected := rankAndSelect(unique, p.topN)
	p.logger.Info("selected top articles", "count", len(selected))

	if _, err := p.snapshot.WriteRaw(start, fetched); err != nil {
		return fmt.Errorf("write raw snapshot: %w", err)
	}
	if _, err := p.snapshot.WriteClean(start, selected); err != nil {
		return fmt.Errorf("write clean snapshot: %w", err)
	}

	for _, art := range selected {
		if err := p.ledger.RecordSeen(art); err != nil {
			p.logger.Error("recording seen failed", "id", art.ID, "error", err)
		}
	}

	p.deliver(ctx, selected)

	p.logger.Info("run complete", "duration", p.now().Sub(start).String(), "selected", len(selected))
	return nil
}

// normalizeAndDedup assigns identity and drops everything the seen ledger
// already knows for that source.
func (p *Pipeline) normalizeAndDedup(raw []domain.RawItem) []domain.CleanArticle {
	out := make([]domain.CleanArticle, 0, len(raw))
	for _, item := range raw {
		art, err := normalizeItem(item, p.now())
		if err != nil {
			p.logger.Debug("dropping unnormalizable item", "source", item.SourceID, "error", err)
			continue
		}
		if p.ledger.WasSeen(art.SourceID, art.ID) {
			continue
		}
		out = append(out, art)
	}
	return out
}

// gateAndCap applies the keyword predicate and keeps at most perSourceCap
// articles per source, in fetch order. The cap runs before scoring, so
// first-fetched wins, not highest-scored.
func (p *Pipeline) gateAndCap(articles []domain.CleanArticle) []domain.CleanArticle {
	counts := map[string]int{}
	out := make([]domain.CleanArticle, 0, len(articles))
	for _, art := range articles {
		if !p.gate.IsRelevant(art.Title, art.Description) {
			continue
		}
		if counts[art.SourceID] >= p.perSourceCap {
			continue
		}
		counts[art.SourceID]++
		out = append(out, art)
	}
	return out
}

// filterNearDuplicates drops candidates semantically duplicating something
// already delivered for the same source. Articles without an embedding pass
// through: they cannot be judged.
func (p *Pipeline) filterNearDuplicates(articles []domain.CleanArticle) []domain.CleanArticle {
	priors := map[string][][]float32{}
	out := make([]domain.CleanArticle, 0, len(articles))
	for _, art := range articles {
		if len(art.Embedding) == 0 {
			out = append(out, art)
			continue
		}
		prior, ok := priors[art.SourceID]
		if !ok {
			prior = p.ledger.LoadEmbeddingsForSource(art.SourceID)
			priors[art.SourceID] = prior
		}
		if vector.IsNearDuplicate(art.Embedding, prior, p.nearDupThreshold) {
			p.logger.Info("dropping near-duplicate", "id", art.ID, "source", art.SourceID, "title", art.Title)
			continue
		}
		out = append(out, art)
	}
	return out
}

// rankAndSelect sorts descending by score and truncates to topN. The sort is
// stable: ties keep their fetch/cap order.
func rankAndSelect(articles []domain.CleanArticle, topN int) []domain.CleanArticle {
	ranked := make([]domain.CleanArticle, len(articles))
	copy(ranked, articles)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}

// deliver posts the digest downstream, skipping articles sent within the
// recency window, and records each delivery in the sent ledger.
func (p *Pipeline) deliver(ctx context.Context, selected []domain.CleanArticle) {
	if p.notifier == nil {
		return
	}

	var outgoing []domain.CleanArticle
	for _, art := range selected {
		if p.ledger.WasSentRecently(art.SourceID, art.ID, p.sentMaxAgeDays) {
			continue
		}
		outgoing = append(outgoing, art)
	}
	if len(outgoing) == 0 {
		return
	}

	if err := p.notifier.PublishDigest(ctx, outgoing); err != nil {
		p.logger.Error("digest delivery failed", "count", len(outgoing), "error", err)
		return
	}

	for _, art := range outgoing {
		if err := p.ledger.RecordSent(art); err != nil {
			p.logger.Error("recording sent failed", "id", art.ID, "error", err)
		}
	}
	p.logger.Info("digest delivered", "count", len(outgoing))
}
