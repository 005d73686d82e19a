package fetch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsRadar/internal/domain"
)

type stubFetcher struct {
	kind  domain.SourceType
	items []domain.RawItem
	err   error
	calls int
}

func (f *stubFetcher) Type() domain.SourceType { return f.kind }

func (f *stubFetcher) Fetch(_ context.Context, src domain.Source) ([]domain.RawItem, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.RawItem, len(f.items))
	copy(out, f.items)
	return out, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	rss := &stubFetcher{kind: domain.SourceRSS}
	reg.Register(rss)

	got, err := reg.Resolve(domain.SourceRSS)
	require.NoError(t, err)
	assert.Same(t, rss, got)

	_, err = reg.Resolve(domain.SourceDyn)
	assert.Error(t, err)
}

func TestFetchAllIsolatesFailures(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register(&stubFetcher{kind: domain.SourceRSS, err: errors.New("boom")})
	reg.Register(&stubFetcher{kind: domain.SourceHTML, items: []domain.RawItem{
		{Title: "a", URL: "https://example.com/a"},
		{Title: "b", URL: "https://example.com/b"},
	}})

	stage := NewStage(reg, discardLogger())
	stage.sleep = func(time.Duration) {}

	items := stage.FetchAll(context.Background(), []domain.Source{
		{ID: "broken", Type: domain.SourceRSS, URL: "https://down.example.com/feed"},
		{ID: "blog", Type: domain.SourceHTML, URL: "https://example.com"},
		{ID: "unknown-type", Type: domain.SourceType("ftp")},
	})

	require.Len(t, items, 2)
	assert.Equal(t, "blog", items[0].SourceID, "stage fills in missing source ids")
	assert.Equal(t, "blog", items[1].SourceID)
}

func TestFetchAllSleepsBetweenSources(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register(&stubFetcher{kind: domain.SourceRSS})

	var delays []time.Duration
	stage := NewStage(reg, discardLogger())
	stage.sleep = func(d time.Duration) { delays = append(delays, d) }

	stage.FetchAll(context.Background(), []domain.Source{
		{ID: "one", Type: domain.SourceRSS, RobotsDelay: 5},
		{ID: "two", Type: domain.SourceRSS},
		{ID: "three", Type: domain.SourceRSS},
	})

	// no sleep after the final source
	require.Len(t, delays, 2)
	assert.Equal(t, 5*time.Second, delays[0])
	assert.Equal(t, defaultRobotsDelay, delays[1])
}
