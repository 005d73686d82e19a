package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"NewsRadar/internal/domain"
)

const (
	defaultTimezone = "UTC"
	defaultDataDir  = "data"

	configPathEnv    = "NEWSRADAR_CONFIG"
	dataDirEnv       = "NEWSRADAR_DATA_DIR"
	openAIKeyEnv     = "OPENAI_API_KEY"
	telegramTokenEnv = "TELEGRAM_BOT_TOKEN"
	telegramChatEnv  = "TELEGRAM_CHAT_ID"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Data      DataConfig      `yaml:"data"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Scoring   ScoringConfig   `yaml:"scoring"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Keywords  KeywordConfig   `yaml:"keywords"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Sources   []SourceConfig  `yaml:"sources"`
}

// LoggingConfig selects the console log level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DataConfig roots the ledger and snapshot directories.
type DataConfig struct {
	Dir string `yaml:"dir"`
}

// EmbeddingConfig describes the vector-embedding provider.
type EmbeddingConfig struct {
	Model             string  `yaml:"model"`
	APIKey            string  `yaml:"apiKey"`
	BatchSize         int     `yaml:"batchSize"`
	MaxRetries        int     `yaml:"maxRetries"`
	MaxConcurrency    int64   `yaml:"maxConcurrency"`
	RequestsPerSecond float64 `yaml:"requestsPerSecond"`
}

// ScoringConfig tunes the relevance scorer.
type ScoringConfig struct {
	SeedText          string `yaml:"seedText"`
	BatchSize         int    `yaml:"batchSize"`
	BatchPauseSeconds int    `yaml:"batchPauseSeconds"`
}

// PipelineConfig bounds the funnel.
type PipelineConfig struct {
	PerSourceCap     int     `yaml:"perSourceCap"`
	TopN             int     `yaml:"topN"`
	NearDupThreshold float64 `yaml:"nearDupThreshold"`
	SentMaxAgeDays   int     `yaml:"sentMaxAgeDays"`
}

// SchedulerConfig defines when daemon-mode runs execute.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// KeywordConfig overrides the built-in relevance term lists.
type KeywordConfig struct {
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
}

// TelegramConfig wires the optional digest delivery channel.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// SelectorConfig overrides the CSS queries for an HTML-type source. Empty
// fields keep the scraper defaults (article / article a / article time /
// article p).
type SelectorConfig struct {
	Item    string `yaml:"item"`
	Link    string `yaml:"link"`
	Title   string `yaml:"title"`
	Date    string `yaml:"date"`
	Excerpt string `yaml:"excerpt"`
}

// SourceConfig describes a single content source.
type SourceConfig struct {
	ID          string          `yaml:"id"`
	Name        string          `yaml:"name"`
	Type        string          `yaml:"type"` // rss | html | dyn
	URL         string          `yaml:"url"`
	RobotsDelay int             `yaml:"robotsDelay"` // seconds
	Selectors   *SelectorConfig `yaml:"selectors"`
}

// Domain converts the config descriptor into the pipeline's source type.
func (s SourceConfig) Domain() domain.Source {
	src := domain.Source{
		ID:          s.ID,
		Name:        s.Name,
		Type:        domain.SourceType(s.Type),
		URL:         s.URL,
		RobotsDelay: s.RobotsDelay,
	}
	if s.Selectors != nil {
		src.Selectors = &domain.Selectors{
			Item:    s.Selectors.Item,
			Link:    s.Selectors.Link,
			Title:   s.Selectors.Title,
			Date:    s.Selectors.Date,
			Excerpt: s.Selectors.Excerpt,
		}
	}
	return src
}

// DomainSources converts every configured source.
func (c Config) DomainSources() []domain.Source {
	out := make([]domain.Source, 0, len(c.Sources))
	for _, s := range c.Sources {
		out = append(out, s.Domain())
	}
	return out
}

// Load reads YAML configuration (if present) and applies environment
// overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(dataDirEnv); v != "" {
		c.Data.Dir = v
	}
	if v := os.Getenv(openAIKeyEnv); v != "" {
		c.Embedding.APIKey = v
	}
	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatEnv); v != "" {
		c.Telegram.ChatID = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.Data.Dir != "" {
		base.Data.Dir = override.Data.Dir
	}

	if override.Embedding.Model != "" {
		base.Embedding.Model = override.Embedding.Model
	}
	if override.Embedding.APIKey != "" {
		base.Embedding.APIKey = override.Embedding.APIKey
	}
	if override.Embedding.BatchSize > 0 {
		base.Embedding.BatchSize = override.Embedding.BatchSize
	}
	if override.Embedding.MaxRetries > 0 {
		base.Embedding.MaxRetries = override.Embedding.MaxRetries
	}
	if override.Embedding.MaxConcurrency > 0 {
		base.Embedding.MaxConcurrency = override.Embedding.MaxConcurrency
	}
	if override.Embedding.RequestsPerSecond > 0 {
		base.Embedding.RequestsPerSecond = override.Embedding.RequestsPerSecond
	}

	if override.Scoring.SeedText != "" {
		base.Scoring.SeedText = override.Scoring.SeedText
	}
	if override.Scoring.BatchSize > 0 {
		base.Scoring.BatchSize = override.Scoring.BatchSize
	}
	if override.Scoring.BatchPauseSeconds > 0 {
		base.Scoring.BatchPauseSeconds = override.Scoring.BatchPauseSeconds
	}

	if override.Pipeline.PerSourceCap > 0 {
		base.Pipeline.PerSourceCap = override.Pipeline.PerSourceCap
	}
	if override.Pipeline.TopN > 0 {
		base.Pipeline.TopN = override.Pipeline.TopN
	}
	if override.Pipeline.NearDupThreshold > 0 {
		base.Pipeline.NearDupThreshold = override.Pipeline.NearDupThreshold
	}
	if override.Pipeline.SentMaxAgeDays > 0 {
		base.Pipeline.SentMaxAgeDays = override.Pipeline.SentMaxAgeDays
	}

	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if len(override.Keywords.Include) > 0 {
		base.Keywords.Include = override.Keywords.Include
	}
	if len(override.Keywords.Exclude) > 0 {
		base.Keywords.Exclude = override.Keywords.Exclude
	}

	if override.Telegram.BotToken != "" {
		base.Telegram.BotToken = override.Telegram.BotToken
	}
	if override.Telegram.ChatID != "" {
		base.Telegram.ChatID = override.Telegram.ChatID
	}

	if len(override.Sources) > 0 {
		base.Sources = override.Sources
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Data:    DataConfig{Dir: defaultDataDir},
		Embedding: EmbeddingConfig{
			Model:             "text-embedding-3-small",
			BatchSize:         20,
			MaxRetries:        5,
			MaxConcurrency:    2,
			RequestsPerSecond: 2,
		},
		Scoring: ScoringConfig{
			BatchSize:         5,
			BatchPauseSeconds: 2,
		},
		Pipeline: PipelineConfig{
			PerSourceCap:     7,
			TopN:             50,
			NearDupThreshold: 0.92,
			SentMaxAgeDays:   30,
		},
		Scheduler: SchedulerConfig{CronExpression: "0 6 * * *", Timezone: defaultTimezone, location: tz},
		Sources: []SourceConfig{
			{
				ID:   "hn-frontpage",
				Name: "Hacker News frontpage",
				Type: "rss",
				URL:  "https://news.ycombinator.com/rss",
			},
		},
	}
}
