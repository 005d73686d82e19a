package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsRadar/internal/domain"
)

func TestEnsureEmbeddingsSkipsAlreadyEmbedded(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	store := newFakeLedger()
	enricher := NewEnricher(provider, store, 0, discardLogger())

	articles := []domain.CleanArticle{
		{ID: "cached", Title: "cached", Embedding: []float32{9, 9}},
		{ID: "fresh", Title: "fresh", Description: "body text"},
	}

	out, err := enricher.EnsureEmbeddings(context.Background(), articles)
	require.NoError(t, err)

	require.Len(t, provider.batchCalls, 1)
	require.Len(t, provider.batchCalls[0], 1, "only the missing article goes to the provider")
	assert.Equal(t, "fresh\n\nbody text", provider.batchCalls[0][0])

	assert.Equal(t, []float32{9, 9}, out[0].Embedding, "existing vector untouched")
	assert.NotEmpty(t, out[1].Embedding)

	// only the freshly enriched article is cached into the seen ledger
	require.Len(t, store.seenRecords, 1)
	assert.Equal(t, "fresh", store.seenRecords[0].ID)
	assert.NotEmpty(t, store.seenRecords[0].Embedding)
}

func TestEnsureEmbeddingsNoMissing(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	enricher := NewEnricher(provider, newFakeLedger(), 0, discardLogger())

	articles := []domain.CleanArticle{{ID: "a", Embedding: []float32{1}}}
	_, err := enricher.EnsureEmbeddings(context.Background(), articles)
	require.NoError(t, err)
	assert.Empty(t, provider.batchCalls, "provider never called")
}

func TestEnsureEmbeddingsCachesPerBatch(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	provider.batchErr = errors.New("quota exhausted")
	provider.failFrom = 1 // first batch succeeds, second fails
	store := newFakeLedger()
	enricher := NewEnricher(provider, store, 2, discardLogger())

	articles := []domain.CleanArticle{
		{ID: "a", Title: "a"},
		{ID: "b", Title: "b"},
		{ID: "c", Title: "c"},
	}

	out, err := enricher.EnsureEmbeddings(context.Background(), articles)
	require.Error(t, err)

	// first batch of two is durably cached despite the failure
	assert.NotEmpty(t, out[0].Embedding)
	assert.NotEmpty(t, out[1].Embedding)
	assert.Empty(t, out[2].Embedding)
	assert.Len(t, store.seenRecords, 2)
}
