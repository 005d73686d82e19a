package usecase

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"NewsRadar/internal/domain"
	"NewsRadar/internal/ledger"
)

// normalizeItem turns a raw item into the canonical article record: identity
// from the URL, publisher from the hostname, publication time normalized to
// ISO-8601 with the ingestion time as fallback.
func normalizeItem(item domain.RawItem, now time.Time) (domain.CleanArticle, error) {
	parsed, err := url.Parse(item.URL)
	if err != nil || parsed.Hostname() == "" {
		return domain.CleanArticle{}, fmt.Errorf("unusable article url %q", item.URL)
	}

	dateISO := now.UTC().Format(time.RFC3339)
	if item.PubDate != "" {
		if t, err := dateparse.ParseAny(item.PubDate); err == nil {
			dateISO = t.UTC().Format(time.RFC3339)
		}
	}

	return domain.CleanArticle{
		ID:          ledger.ComputeIdentifier(item.URL),
		SourceID:    item.SourceID,
		Title:       item.Title,
		URL:         item.URL,
		PubDate:     item.PubDate,
		Description: item.Description,
		Publisher:   strings.TrimPrefix(parsed.Hostname(), "www."),
		DateISO:     dateISO,
		Score:       0,
		Starred:     false,
	}, nil
}
