package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsRadar/internal/domain"
	"NewsRadar/internal/ledger"
)

func rawItems(sourceID string, n int) []domain.RawItem {
	items := make([]domain.RawItem, n)
	for i := range items {
		items[i] = domain.RawItem{
			SourceID:    sourceID,
			Title:       fmt.Sprintf("%s article %02d", sourceID, i),
			URL:         fmt.Sprintf("https://%s.example.com/posts/%d", sourceID, i),
			Description: "relevant text",
		}
	}
	return items
}

func newTestPipeline(deps PipelineDeps) *Pipeline {
	if deps.Ledger == nil {
		deps.Ledger = newFakeLedger()
	}
	if deps.Gate == nil {
		deps.Gate = gateFunc(acceptAll)
	}
	provider := newFakeProvider()
	if deps.Enricher == nil {
		deps.Enricher = NewEnricher(provider, deps.Ledger, 0, discardLogger())
	}
	if deps.Scorer == nil {
		deps.Scorer = NewScorer(provider, "seed", 0, 0, discardLogger())
	}
	if deps.Snapshot == nil {
		deps.Snapshot = &fakeSnapshot{}
	}
	if deps.Logger == nil {
		deps.Logger = discardLogger()
	}
	return NewPipeline(deps)
}

func TestPerSourceCap(t *testing.T) {
	t.Parallel()

	snap := &fakeSnapshot{}
	pipeline := newTestPipeline(PipelineDeps{
		Source:   &fakeSource{items: rawItems("blog", 10)},
		Snapshot: snap,
	})

	require.NoError(t, pipeline.Run(context.Background()))

	require.Len(t, snap.clean, 1)
	selected := snap.clean[0]
	require.Len(t, selected, 7, "cap of 7 applied before scoring")
	for i, art := range selected {
		assert.Equal(t, fmt.Sprintf("blog article %02d", i), art.Title, "first seven in fetch order")
	}

	// the raw snapshot keeps the full pre-cap fetched set
	require.Len(t, snap.raw, 1)
	assert.Len(t, snap.raw[0], 10)
}

func TestKeywordGateFiltersBeforeCap(t *testing.T) {
	t.Parallel()

	items := rawItems("blog", 4)
	items[1].Description = "irrelevant"
	items[3].Description = "irrelevant"

	snap := &fakeSnapshot{}
	pipeline := newTestPipeline(PipelineDeps{
		Source:   &fakeSource{items: items},
		Gate:     gateFunc(func(_, desc string) bool { return desc == "relevant text" }),
		Snapshot: snap,
	})

	require.NoError(t, pipeline.Run(context.Background()))
	require.Len(t, snap.clean[0], 2)
}

func TestRankAndSelect(t *testing.T) {
	t.Parallel()

	articles := make([]domain.CleanArticle, 60)
	for i := range articles {
		articles[i].ID = fmt.Sprintf("a%02d", i)
		articles[i].Score = float64(i % 30) // pairs of equal scores
	}

	top := rankAndSelect(articles, 50)
	require.Len(t, top, 50)

	for i := 1; i < len(top); i++ {
		assert.GreaterOrEqual(t, top[i-1].Score, top[i].Score, "descending order")
		if top[i-1].Score == top[i].Score {
			assert.Less(t, top[i-1].ID, top[i].ID, "ties keep input order")
		}
	}

	// the ten lowest scores (0-4 twice) are the ones cut
	for _, art := range top {
		assert.GreaterOrEqual(t, art.Score, 5.0)
	}
}

func TestSecondRunDropsAllSeen(t *testing.T) {
	t.Parallel()

	store, err := ledger.New(t.TempDir(), discardLogger())
	require.NoError(t, err)

	snap := &fakeSnapshot{}
	provider := newFakeProvider()
	pipeline := newTestPipeline(PipelineDeps{
		Source:   &fakeSource{items: rawItems("blog", 5)},
		Ledger:   store,
		Enricher: NewEnricher(provider, store, 0, discardLogger()),
		Scorer:   NewScorer(provider, "seed", 0, 0, discardLogger()),
		Snapshot: snap,
	})

	require.NoError(t, pipeline.Run(context.Background()))
	require.Len(t, snap.clean[0], 5)

	// identical fetch results: normalize+dedup drops 100% of items
	require.NoError(t, pipeline.Run(context.Background()))
	assert.Empty(t, snap.raw[1])
	assert.Empty(t, snap.clean[1])
}

func TestNearDuplicatesDropped(t *testing.T) {
	t.Parallel()

	store := newFakeLedger()
	// something very close to the default vector was already delivered
	store.sentVectors["blog"] = [][]float32{{0.999, 0.001}}

	snap := &fakeSnapshot{}
	pipeline := newTestPipeline(PipelineDeps{
		Source:   &fakeSource{items: rawItems("blog", 3)},
		Ledger:   store,
		Snapshot: snap,
	})

	require.NoError(t, pipeline.Run(context.Background()))

	// every candidate embeds to {1,0}, all near-duplicates of the prior vector
	assert.Empty(t, snap.clean[0])
	assert.Len(t, snap.raw[0], 3, "raw snapshot still carries the fetched set")
}

func TestDeliverySkipsRecentlySent(t *testing.T) {
	t.Parallel()

	store := newFakeLedger()
	items := rawItems("blog", 3)
	recentID := ledger.ComputeIdentifier(items[1].URL)
	store.sentRecent["blog/"+recentID] = true

	notifier := &fakeNotifier{}
	pipeline := newTestPipeline(PipelineDeps{
		Source:   &fakeSource{items: items},
		Ledger:   store,
		Notifier: notifier,
	})

	require.NoError(t, pipeline.Run(context.Background()))

	require.Len(t, notifier.digests, 1)
	require.Len(t, notifier.digests[0], 2)
	for _, art := range notifier.digests[0] {
		assert.NotEqual(t, recentID, art.ID)
	}

	// delivered articles land in the sent ledger
	assert.Len(t, store.sentRecords, 2)
}

func TestDeliveryFailureDoesNotMarkSent(t *testing.T) {
	t.Parallel()

	store := newFakeLedger()
	notifier := &fakeNotifier{err: errors.New("telegram down")}
	pipeline := newTestPipeline(PipelineDeps{
		Source:   &fakeSource{items: rawItems("blog", 2)},
		Ledger:   store,
		Notifier: notifier,
	})

	require.NoError(t, pipeline.Run(context.Background()), "delivery failure never fails the run")
	assert.Empty(t, store.sentRecords)
}

func TestEnrichmentFailureStillWritesSnapshots(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	provider.batchErr = errors.New("provider down")
	store := newFakeLedger()

	snap := &fakeSnapshot{}
	pipeline := newTestPipeline(PipelineDeps{
		Source:   &fakeSource{items: rawItems("blog", 4)},
		Ledger:   store,
		Enricher: NewEnricher(provider, store, 0, discardLogger()),
		Scorer:   NewScorer(provider, "seed", 0, 0, discardLogger()),
		Snapshot: snap,
	})

	require.NoError(t, pipeline.Run(context.Background()), "partial data preferred over aborting")
	require.Len(t, snap.clean, 1)
	assert.Len(t, snap.clean[0], 4, "unembedded articles still selected")
}

func TestSelectedArticlesMarkedSeen(t *testing.T) {
	t.Parallel()

	store := newFakeLedger()
	pipeline := newTestPipeline(PipelineDeps{
		Source: &fakeSource{items: rawItems("blog", 2)},
		Ledger: store,
	})

	require.NoError(t, pipeline.Run(context.Background()))

	for _, item := range rawItems("blog", 2) {
		assert.True(t, store.WasSeen("blog", ledger.ComputeIdentifier(item.URL)))
	}
}
