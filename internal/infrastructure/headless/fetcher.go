// Package headless fetches JS-rendered sources by driving a headless Chrome
// instance through chromedp.
package headless

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"NewsRadar/internal/domain"
	"NewsRadar/internal/ports"
)

// cap on extracted elements per page; listing pages repeat far beyond what
// the per-source cap would ever keep
const maxItemsPerPage = 15

// extractScript pulls the first article elements after the page has
// rendered. Shape must match extractedItem; the slice bound mirrors
// maxItemsPerPage.
const extractScript = `
Array.from(document.querySelectorAll('article')).slice(0, 15).map(el => {
	const a = el.querySelector('a');
	const t = el.querySelector('time');
	const p = el.querySelector('p');
	return {
		title: a && a.textContent ? a.textContent.trim() : '',
		url: a ? (a.getAttribute('href') || '') : '',
		pubDate: t ? (t.getAttribute('datetime') || '') : '',
		description: p && p.textContent ? p.textContent.trim() : ''
	};
})`

type extractedItem struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	PubDate     string `json:"pubDate"`
	Description string `json:"description"`
}

// Fetcher renders a page in headless Chrome and extracts article elements.
type Fetcher struct {
	timeout time.Duration
	logger  *slog.Logger
}

var _ ports.Fetcher = (*Fetcher)(nil)

// New builds a headless fetcher with the given page timeout; zero means 15s.
func New(timeout time.Duration, logger *slog.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Fetcher{timeout: timeout, logger: logger}
}

// Type identifies the fetcher inside the registry.
func (f *Fetcher) Type() domain.SourceType {
	return domain.SourceDyn
}

// Fetch navigates to the source URL, waits for the document to render, and
// extracts up to maxItemsPerPage articles. The browser is torn down before
// returning.
func (f *Fetcher) Fetch(ctx context.Context, src domain.Source) ([]domain.RawItem, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, chromedp.DefaultExecAllocatorOptions[:]...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	runCtx, cancelRun := context.WithTimeout(browserCtx, f.timeout)
	defer cancelRun()

	base, err := url.Parse(src.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid source url %s: %w", src.URL, err)
	}

	var extracted []extractedItem
	err = chromedp.Run(runCtx,
		chromedp.Navigate(src.URL),
		chromedp.WaitReady("body"),
		chromedp.Evaluate(extractScript, &extracted),
	)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", src.URL, err)
	}

	items := make([]domain.RawItem, 0, len(extracted))
	for _, e := range extracted {
		if strings.TrimSpace(e.URL) == "" {
			continue
		}
		resolved, err := base.Parse(e.URL)
		if err != nil {
			continue
		}
		items = append(items, domain.RawItem{
			SourceID:    src.ID,
			Title:       e.Title,
			URL:         resolved.String(),
			PubDate:     e.PubDate,
			Description: e.Description,
		})
		if len(items) == maxItemsPerPage {
			break
		}
	}

	f.logger.Debug("rendered page extracted", "source", src.ID, "items", len(items))
	return items, nil
}
