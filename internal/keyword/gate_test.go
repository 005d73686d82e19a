package keyword

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultGate(t *testing.T) {
	t.Parallel()
	gate := NewGate(nil, nil)

	assert.True(t, gate.IsRelevant("New LLM beats benchmarks", ""))
	assert.True(t, gate.IsRelevant("Boring title", "How our chatbot cut churn"))
	assert.False(t, gate.IsRelevant("Weekend cooking", "A new recipe collection"))
	assert.False(t, gate.IsRelevant("Quarterly roundup", "Nothing of note"))
}

func TestExcludeWinsOverInclude(t *testing.T) {
	t.Parallel()
	gate := NewGate(nil, nil)

	// include term present, but the exclude term vetoes the article
	assert.False(t, gate.IsRelevant("AI webinar: register now", "machine learning deep dive"))
}

func TestCaseInsensitive(t *testing.T) {
	t.Parallel()
	gate := NewGate([]string{"Embedding"}, []string{"Crypto"})

	assert.True(t, gate.IsRelevant("EMBEDDING pipelines at scale", ""))
	assert.False(t, gate.IsRelevant("embedding CRYPTO assets", ""))
}

func TestCustomTermLists(t *testing.T) {
	t.Parallel()
	gate := NewGate([]string{"kubernetes"}, []string{"webinar"})

	assert.True(t, gate.IsRelevant("Kubernetes at the edge", ""))
	assert.False(t, gate.IsRelevant("AI everywhere", ""), "default includes no longer apply")
}
