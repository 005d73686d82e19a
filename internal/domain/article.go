package domain

// SourceType selects the fetch strategy used for a source.
type SourceType string

const (
	SourceRSS  SourceType = "rss"
	SourceHTML SourceType = "html"
	SourceDyn  SourceType = "dyn"
)

// Selectors override the CSS queries used to extract items from an HTML-type
// source. Empty fields fall back to the scraper defaults.
type Selectors struct {
	Item    string
	Link    string
	Title   string
	Date    string
	Excerpt string
}

// Source describes one configured content origin.
type Source struct {
	ID          string
	Name        string
	Type        SourceType
	URL         string
	RobotsDelay int // politeness delay in seconds before the next source
	Selectors   *Selectors
}

// RawItem is an article as emitted by a fetcher: no identity, no
// normalization, never persisted.
type RawItem struct {
	SourceID    string
	Title       string
	URL         string
	PubDate     string // loosely formatted, possibly empty
	Description string
}

// CleanArticle is the canonical enriched record flowing through the pipeline
// and into the ledgers. JSON field names are the ledger wire format.
type CleanArticle struct {
	ID          string    `json:"id"`
	SourceID    string    `json:"sourceId"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	PubDate     string    `json:"pubDate,omitempty"`
	Description string    `json:"description,omitempty"`
	Publisher   string    `json:"publisher"`
	DateISO     string    `json:"dateISO"`
	Score       float64   `json:"score"`
	Starred     bool      `json:"star"`
	Embedding   []float32 `json:"embedding,omitempty"`
}

// StripEmbedding returns a copy without the embedding vector, for snapshot
// output where the vectors would dominate the file.
func (a CleanArticle) StripEmbedding() CleanArticle {
	a.Embedding = nil
	return a
}

// LedgerEntry is one line of a seen or sent log. SentAt is set only in the
// sent ledger.
type LedgerEntry struct {
	CleanArticle
	SentAt string `json:"sentAt,omitempty"`
}

// ScoreOutcome reports how an article's score was produced, so callers can
// tell a computed value from the neutral fallback.
type ScoreOutcome struct {
	Score     float64
	Defaulted bool
	Reason    string
}
