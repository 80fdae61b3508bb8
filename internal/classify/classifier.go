// Package classify turns raw complaint text into a structured classification,
// preferring the AI backend and degrading to deterministic keyword rules on
// any failure. Classification always returns a result.
package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"CityWatch/internal/domain"
	"CityWatch/internal/ports"
)

// Classifier wraps the AI backend with a bounded result cache and the keyword
// fallback.
type Classifier struct {
	backend ports.ChatBackend
	model   string
	cache   *resultCache
	logger  *slog.Logger
}

// New builds a classifier. A nil backend means every call takes the fallback
// path (the service runs without an API key).
func New(backend ports.ChatBackend, model string, ttl time.Duration, capacity int, logger *slog.Logger) *Classifier {
	return &Classifier{
		backend: backend,
		model:   model,
		cache:   newResultCache(ttl, capacity),
		logger:  logger,
	}
}

// Classify returns a classification for the text. Cached per (model, text)
// pair; the backend is consulted at most once per distinct pair within the
// cache TTL.
func (c *Classifier) Classify(ctx context.Context, text string) domain.ClassificationResult {
	key := cacheKey(c.model, text)
	if res, ok := c.cache.get(key); ok {
		return res
	}

	res := c.classifyOnce(ctx, text)
	c.cache.put(key, res)
	return res
}

func (c *Classifier) classifyOnce(ctx context.Context, text string) domain.ClassificationResult {
	if c.backend == nil {
		return keywordClassify(text)
	}

	raw, err := c.backend.Complete(ctx, systemPrompt(), userPrompt(text))
	if err != nil {
		c.warn("ai backend failed, using keyword fallback", "error", err)
		return keywordClassify(text)
	}

	res, err := parseResponse(raw, text)
	if err != nil {
		c.warn("ai response unusable, using keyword fallback", "error", err)
		return keywordClassify(text)
	}
	return res
}

type aiResponse struct {
	Relevant      bool   `json:"relevant"`
	Category      string `json:"category"`
	Address       string `json:"address"`
	Summary       string `json:"summary"`
	LocationHints string `json:"location_hints"`
}

func parseResponse(raw, sourceText string) (domain.ClassificationResult, error) {
	payload := extractJSON(raw)
	if payload == "" {
		return domain.ClassificationResult{}, fmt.Errorf("no JSON object in response")
	}

	var parsed aiResponse
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return domain.ClassificationResult{}, fmt.Errorf("decode response: %w", err)
	}

	category := domain.NormalizeOptional(parsed.Category)
	if category == "" || !domain.KnownCategory(category) {
		category = domain.CategoryOther
	}

	summary := domain.NormalizeOptional(parsed.Summary)
	if summary == "" || isVerbatimCopy(summary, sourceText) {
		summary = fallbackSummary(category, sourceText)
	}

	return domain.ClassificationResult{
		Relevant:      parsed.Relevant,
		Category:      category,
		AddressHint:   domain.NormalizeOptional(parsed.Address),
		Summary:       truncateSummary(summary),
		LocationHints: domain.NormalizeOptional(parsed.LocationHints),
		Method:        domain.MethodAI,
	}, nil
}

// extractJSON pulls the first JSON object out of a completion, tolerating
// markdown code fences around it.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if i := strings.Index(s, "```"); i >= 0 {
		s = s[i+3:]
		s = strings.TrimPrefix(s, "json")
		if j := strings.Index(s, "```"); j >= 0 {
			s = s[:j]
		}
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

// isVerbatimCopy rejects AI summaries that merely quote the source text; the
// persisted summary must be a paraphrase.
func isVerbatimCopy(summary, source string) bool {
	s := strings.ToLower(strings.TrimSpace(summary))
	if len(s) < 40 {
		return false
	}
	return strings.Contains(strings.ToLower(source), s)
}

func systemPrompt() string {
	return "You classify public reports of municipal problems. " +
		"Answer with a single JSON object with fields: " +
		`"relevant" (bool), "category" (one of: ` + strings.Join(append(domain.Categories, domain.CategoryOther), ", ") + `), ` +
		`"address" (string or null), "summary" (a paraphrase under 120 characters, never copy the report text), ` +
		`"location_hints" (string or null). No prose outside the JSON.`
}

func userPrompt(text string) string {
	return "Report:\n" + text
}

func (c *Classifier) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
