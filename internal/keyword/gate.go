// Package keyword implements the lexical relevance gate applied before
// embedding: a static include/exclude term match over title and description.
package keyword

import (
	"strings"

	"NewsRadar/internal/ports"
)

var defaultIncludes = []string{
	"ai", "artificial intelligence", "generative", "genai", "llm", "large language model",
	"chatgpt", "openai", "gpt-4o", "vector search", "embedding", "rag", "prompt", "hallucinat",
	"machine learning", "ml", "deep learning", "nlp", "natural language", "speech analytics",
	"automation", "automated", "workflow", "bot", "chatbot", "voicebot", "virtual agent", "ivr",
	"self-service", "knowledge base", "deflection", "onboarding", "adoption", "activation",
	"renewal", "churn", "retention", "upsell", "expansion", "health score", "success plan",
	"ticket", "case", "support", "help desk", "service cloud", "contact center", "call center",
	"agent assist", "csat", "nps", "sentiment", "customer journey", "experience orchestration",
	"predictive", "forecast", "propensity", "segmentation", "customer insights",
	"usage analytics", "usage data",
}

var defaultExcludes = []string{
	"job posting", "we are hiring", "career", "recruit", "join our team", "open role",
	"webinar", "register now", "conference", "summit", "event recap", "virtual event",
	"expo", "agenda", "booth", "fireside chat", "discount", "promotion", "coupon",
	"black friday", "cyber monday", "deal", "bundle", "giveaway", "earnings call", "ipo",
	"quarterly results", "shareholder", "stock price", "funding round", "series a", "vc",
	"acquired", "acquisition", "leadership update", "press release", "board of directors",
	"corporate governance", "partnership announcement", "devops", "observability", "finops",
	"zero trust", "sase", "blockchain", "crypto", "recipe", "gift guide", "holiday shopping",
	"lifestyle", "fitness", "celebrity",
}

// Gate rejects any article matching an exclude term, then accepts only those
// matching at least one include term. Matching is case-insensitive substring
// search; it carries no state and has no side effects.
type Gate struct {
	includes []string
	excludes []string
}

var _ ports.KeywordGate = (*Gate)(nil)

// NewGate builds a gate from the given term lists; empty lists fall back to
// the built-in defaults.
func NewGate(includes, excludes []string) *Gate {
	if len(includes) == 0 {
		includes = defaultIncludes
	}
	if len(excludes) == 0 {
		excludes = defaultExcludes
	}
	return &Gate{
		includes: lowerAll(includes),
		excludes: lowerAll(excludes),
	}
}

// IsRelevant reports whether the article text passes the gate.
func (g *Gate) IsRelevant(title, description string) bool {
	text := strings.ToLower(title + " " + description)
	for _, term := range g.excludes {
		if strings.Contains(text, term) {
			return false
		}
	}
	for _, term := range g.includes {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

func lowerAll(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.TrimSpace(strings.ToLower(t)); t != "" {
			out = append(out, t)
		}
	}
	return out
}
