// Package scrape fetches static HTML sources with selector-driven
// extraction and a link-scan fallback for pages where the selectors find
// nothing.
package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"NewsRadar/internal/domain"
	"NewsRadar/internal/ports"
)

// Selector defaults assume a conventional article listing; per-source
// overrides come from config.
var defaultSelectors = domain.Selectors{
	Item:    "article",
	Link:    "article a",
	Title:   "article a",
	Date:    "article time",
	Excerpt: "article p",
}

// Pages smaller than this with zero selector hits are assumed genuinely
// empty; larger ones trigger the fallback link scan.
const fallbackMinPageBytes = 5000

// minimum link-text length for the fallback to treat an anchor as a headline
const fallbackMinTitleLen = 20

// Fetcher scrapes article listings out of server-rendered pages.
type Fetcher struct {
	client *http.Client
	logger *slog.Logger
}

var _ ports.Fetcher = (*Fetcher)(nil)

// New wires an HTTP client; a nil client gets a 30s-timeout default.
func New(client *http.Client, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Fetcher{client: client, logger: logger}
}

// Type identifies the fetcher inside the registry.
func (f *Fetcher) Type() domain.SourceType {
	return domain.SourceHTML
}

// Fetch downloads the source page and extracts raw items via its selectors.
func (f *Fetcher) Fetch(ctx context.Context, src domain.Source) ([]domain.RawItem, error) {
	doc, err := f.fetchDocument(ctx, src.URL)
	if err != nil {
		return nil, err
	}

	selectors := mergeSelectors(src.Selectors)
	base, err := url.Parse(src.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid source url %s: %w", src.URL, err)
	}

	items := extractItems(doc, selectors, base, src.ID)

	if len(items) == 0 && docSize(doc) > fallbackMinPageBytes {
		f.logger.Warn("no items via selectors, falling back to link scan", "source", src.ID)
		items = scanLinks(doc, base, src.ID, src.URL)
	}

	return items, nil
}

func (f *Fetcher) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "NewsRadar/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return doc, nil
}

func extractItems(doc *goquery.Document, sel domain.Selectors, base *url.URL, sourceID string) []domain.RawItem {
	var items []domain.RawItem

	doc.Find(sel.Item).Each(func(_ int, el *goquery.Selection) {
		link := el.Find(relativeSelector(sel.Item, sel.Link)).First()
		href, _ := link.Attr("href")
		if href == "" {
			return
		}
		resolved, err := base.Parse(href)
		if err != nil {
			return
		}

		title := strings.TrimSpace(el.Find(relativeSelector(sel.Item, sel.Title)).First().Text())

		var pubDate string
		if strings.TrimSpace(sel.Date) != "" {
			dateEl := el.Find(relativeSelector(sel.Item, sel.Date)).First()
			if dt, ok := dateEl.Attr("datetime"); ok {
				pubDate = dt
			} else {
				pubDate = strings.TrimSpace(dateEl.Text())
			}
		}

		excerpt := strings.TrimSpace(el.Find(relativeSelector(sel.Item, sel.Excerpt)).Text())

		items = append(items, domain.RawItem{
			SourceID:    sourceID,
			Title:       title,
			URL:         resolved.String(),
			PubDate:     pubDate,
			Description: excerpt,
		})
	})

	return items
}

// scanLinks falls back to same-domain anchors with headline-length text.
func scanLinks(doc *goquery.Document, base *url.URL, sourceID, baseURL string) []domain.RawItem {
	var items []domain.RawItem
	seen := map[string]struct{}{}

	doc.Find("a[href]").Each(func(_ int, el *goquery.Selection) {
		href, _ := el.Attr("href")
		text := strings.TrimSpace(el.Text())
		if len(text) <= fallbackMinTitleLen || !strings.HasPrefix(href, baseURL) {
			return
		}
		resolved, err := base.Parse(href)
		if err != nil {
			return
		}
		full := resolved.String()
		if _, ok := seen[full]; ok {
			return
		}
		seen[full] = struct{}{}
		items = append(items, domain.RawItem{
			SourceID: sourceID,
			Title:    text,
			URL:      full,
		})
	})

	return items
}

// relativeSelector strips the item prefix so child lookups stay scoped to the
// matched element (config selectors are written page-global, e.g. "article a").
func relativeSelector(item, child string) string {
	trimmed := strings.TrimSpace(strings.TrimPrefix(child, item))
	if trimmed == "" || trimmed == child {
		return child
	}
	return trimmed
}

func mergeSelectors(override *domain.Selectors) domain.Selectors {
	sel := defaultSelectors
	if override == nil {
		return sel
	}
	if override.Item != "" {
		sel.Item = override.Item
	}
	if override.Link != "" {
		sel.Link = override.Link
	}
	if override.Title != "" {
		sel.Title = override.Title
	}
	if override.Date != "" {
		sel.Date = override.Date
	}
	if override.Excerpt != "" {
		sel.Excerpt = override.Excerpt
	}
	return sel
}

func docSize(doc *goquery.Document) int {
	html, err := doc.Html()
	if err != nil {
		return 0
	}
	return len(html)
}
