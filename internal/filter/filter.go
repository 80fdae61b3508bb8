// Package filter is a cheap pre-filter that rejects obvious advertising before
// any AI call is spent. False negatives are acceptable; the AI relevance flag
// is the authoritative second check.
package filter

import (
	"regexp"
	"strings"

	"CityWatch/internal/domain"
)

var urlPattern = regexp.MustCompile(`https?://\S+`)

// Weak advertising markers; two or more hits reject the message.
var adKeywords = []string{
	"discount",
	"sale",
	"order now",
	"giveaway",
	"subscribe",
	"best price",
	"limited offer",
	"cashback",
	"earn money",
	"click the link",
	"casino",
}

// A single hit on these rejects outright.
var strongAdKeywords = []string{
	"promo code",
	"free delivery",
	"promocode",
}

// Words that mark an actionable complaint even when the classifier is unsure.
var complaintMarkers = []string{
	"pothole",
	"broken",
	"not working",
	"no power",
	"outage",
	"no water",
	"no heating",
	"leak",
	"garbage",
	"trash",
	"flood",
	"dangerous",
	"danger",
	"please fix",
	"complaint",
	"dirty",
	"collapsed",
	"stray dog",
}

// Filter applies the relevance heuristics.
type Filter struct {
	minLength int
}

// New builds a filter; minLength of 0 falls back to 20 characters.
func New(minLength int) *Filter {
	if minLength <= 0 {
		minLength = 20
	}
	return &Filter{minLength: minLength}
}

// LooksLikeSpam rejects text that is too short, advertising-heavy, or link
// spam.
func (f *Filter) LooksLikeSpam(text string) bool {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < f.minLength {
		return true
	}

	lower := strings.ToLower(trimmed)
	for _, kw := range strongAdKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}

	hits := 0
	for _, kw := range adKeywords {
		if strings.Contains(lower, kw) {
			hits++
			if hits >= 2 {
				return true
			}
		}
	}

	return len(urlPattern.FindAllString(trimmed, -1)) >= 3
}

// IsRelevant accepts a classified message when the assigned category is in the
// fixed relevant set, or when any complaint marker appears in the raw text.
func (f *Filter) IsRelevant(res domain.ClassificationResult, text string) bool {
	if res.Relevant && res.Category != domain.CategoryOther && domain.KnownCategory(res.Category) {
		return true
	}
	return HasComplaintMarker(text)
}

// HasComplaintMarker reports whether the text carries any complaint keyword.
func HasComplaintMarker(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range complaintMarkers {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
