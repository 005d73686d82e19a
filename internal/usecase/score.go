package usecase

import (
	"context"
	"log/slog"
	"math"
	"time"

	"NewsRadar/internal/domain"
	"NewsRadar/internal/ports"
	"NewsRadar/internal/vector"
)

const (
	// DefaultSeedText describes the topic of interest; its embedding is the
	// seed vector every article is scored against.
	DefaultSeedText = "customer success service support retention churn AI automation chatbot"

	// neutral score substituted whenever a similarity cannot be computed
	defaultScore = 5.0

	defaultScoreBatchSize  = 5
	defaultScoreBatchPause = 2 * time.Second
)

// Scorer assigns each article a 0-10 relevance score from the cosine
// similarity between its embedding and the run's seed vector. Scoring never
// aborts the batch: per-article failures fall back to a neutral score, and a
// seed failure falls back for every article.
type Scorer struct {
	provider  ports.EmbeddingProvider
	seedText  string
	batchSize int
	pause     time.Duration
	sleep     func(time.Duration)
	logger    *slog.Logger
}

// NewScorer builds a scorer; zero values select the defaults.
func NewScorer(provider ports.EmbeddingProvider, seedText string, batchSize int, pause time.Duration, logger *slog.Logger) *Scorer {
	if seedText == "" {
		seedText = DefaultSeedText
	}
	if batchSize <= 0 {
		batchSize = defaultScoreBatchSize
	}
	if pause < 0 {
		pause = defaultScoreBatchPause
	}
	return &Scorer{
		provider:  provider,
		seedText:  seedText,
		batchSize: batchSize,
		pause:     pause,
		sleep:     time.Sleep,
		logger:    logger,
	}
}

// ScoreAll scores articles in place and reports one outcome per article, in
// input order, so callers can tell computed scores from fallbacks. Articles
// without an embedding are left untouched.
func (s *Scorer) ScoreAll(ctx context.Context, articles []domain.CleanArticle) []domain.ScoreOutcome {
	outcomes := make([]domain.ScoreOutcome, len(articles))
	if len(articles) == 0 {
		return outcomes
	}

	seed, err := s.provider.EmbedOne(ctx, s.seedText)
	if err != nil {
		s.logger.Error("seed embedding failed, applying neutral scores", "error", err)
		for i := range articles {
			articles[i].Score = defaultScore
			outcomes[i] = domain.ScoreOutcome{Score: defaultScore, Defaulted: true, Reason: "seed embedding failed"}
		}
		return outcomes
	}

	for start := 0; start < len(articles); start += s.batchSize {
		end := min(start+s.batchSize, len(articles))
		for i := start; i < end; i++ {
			outcomes[i] = s.scoreOne(&articles[i], seed)
		}
		// pacing between groups; a throughput courtesy, not correctness
		if end < len(articles) && s.pause > 0 {
			s.sleep(s.pause)
		}
	}

	return outcomes
}

func (s *Scorer) scoreOne(art *domain.CleanArticle, seed []float32) domain.ScoreOutcome {
	if len(art.Embedding) == 0 {
		s.logger.Warn("article missing embedding, skipping score", "id", art.ID)
		return domain.ScoreOutcome{Score: art.Score, Defaulted: true, Reason: "missing embedding"}
	}

	sim, err := vector.Cosine(seed, art.Embedding)
	if err != nil {
		s.logger.Warn("scoring failed, applying neutral score", "id", art.ID, "error", err)
		art.Score = defaultScore
		return domain.ScoreOutcome{Score: defaultScore, Defaulted: true, Reason: err.Error()}
	}

	// rescale cosine [-1, +1] onto [0, 10], two decimal places
	art.Score = math.Round((sim+1)*5*100) / 100
	return domain.ScoreOutcome{Score: art.Score}
}
