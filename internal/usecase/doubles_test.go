package usecase

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"NewsRadar/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeProvider returns canned vectors keyed by input text; unknown texts get
// defaultVec so pipelines can run without wiring every article.
type fakeProvider struct {
	mu         sync.Mutex
	seed       []float32
	seedErr    error
	vectors    map[string][]float32
	defaultVec []float32
	batchErr   error
	failFrom   int // fail batch calls with index >= failFrom when batchErr set
	batchCalls [][]string
	queries    []string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		seed:       []float32{1, 0},
		defaultVec: []float32{1, 0},
		vectors:    map[string][]float32{},
		failFrom:   0,
	}
}

func (f *fakeProvider) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	call := len(f.batchCalls)
	f.batchCalls = append(f.batchCalls, append([]string(nil), texts...))
	if f.batchErr != nil && call >= f.failFrom {
		return nil, f.batchErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if v, ok := f.vectors[t]; ok {
			out[i] = v
		} else {
			out[i] = f.defaultVec
		}
	}
	return out, nil
}

func (f *fakeProvider) EmbedOne(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, text)
	if f.seedErr != nil {
		return nil, f.seedErr
	}
	return f.seed, nil
}

// fakeLedger keeps seen/sent state in memory.
type fakeLedger struct {
	seen        map[string]map[string]bool
	seenRecords []domain.CleanArticle
	sentRecent  map[string]bool // key sourceID+"/"+id
	sentRecords []domain.CleanArticle
	sentVectors map[string][][]float32
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		seen:        map[string]map[string]bool{},
		sentRecent:  map[string]bool{},
		sentVectors: map[string][][]float32{},
	}
}

func (l *fakeLedger) RecordSeen(article domain.CleanArticle) error {
	if l.seen[article.SourceID] == nil {
		l.seen[article.SourceID] = map[string]bool{}
	}
	l.seen[article.SourceID][article.ID] = true
	l.seenRecords = append(l.seenRecords, article)
	return nil
}

func (l *fakeLedger) WasSeen(sourceID, id string) bool {
	return l.seen[sourceID][id]
}

func (l *fakeLedger) RecordSent(article domain.CleanArticle) error {
	l.sentRecords = append(l.sentRecords, article)
	return nil
}

func (l *fakeLedger) WasSentRecently(sourceID, id string, _ int) bool {
	return l.sentRecent[sourceID+"/"+id]
}

func (l *fakeLedger) LoadEmbeddingsForSource(sourceID string) [][]float32 {
	return l.sentVectors[sourceID]
}

// fakeSource replays a fixed item list.
type fakeSource struct {
	items []domain.RawItem
}

func (s *fakeSource) FetchAll(context.Context, []domain.Source) []domain.RawItem {
	out := make([]domain.RawItem, len(s.items))
	copy(out, s.items)
	return out
}

// gateFunc adapts a predicate to the KeywordGate port.
type gateFunc func(title, description string) bool

func (g gateFunc) IsRelevant(title, description string) bool { return g(title, description) }

func acceptAll(string, string) bool { return true }

// fakeSnapshot records what would be written.
type fakeSnapshot struct {
	raw   [][]domain.CleanArticle
	clean [][]domain.CleanArticle
}

func (s *fakeSnapshot) WriteRaw(_ time.Time, articles []domain.CleanArticle) (string, error) {
	s.raw = append(s.raw, append([]domain.CleanArticle(nil), articles...))
	return "raw.jsonl", nil
}

func (s *fakeSnapshot) WriteClean(_ time.Time, articles []domain.CleanArticle) (string, error) {
	s.clean = append(s.clean, append([]domain.CleanArticle(nil), articles...))
	return "clean.jsonl", nil
}

// fakeNotifier captures delivered digests.
type fakeNotifier struct {
	digests [][]domain.CleanArticle
	err     error
}

func (n *fakeNotifier) PublishDigest(_ context.Context, articles []domain.CleanArticle) error {
	if n.err != nil {
		return n.err
	}
	n.digests = append(n.digests, append([]domain.CleanArticle(nil), articles...))
	return nil
}
