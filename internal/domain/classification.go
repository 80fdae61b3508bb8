package domain

import "strings"

// ClassifyMethod records which path produced a classification.
type ClassifyMethod string

const (
	MethodAI              ClassifyMethod = "ai"
	MethodKeywordFallback ClassifyMethod = "keyword-fallback"
)

// ClassificationResult is produced once per distinct (text, model) pair.
type ClassificationResult struct {
	Relevant      bool
	Category      string
	AddressHint   string
	Summary       string
	LocationHints string
	Method        ClassifyMethod
}

// CategoryOther is the catch-all bucket for text that matches no known category.
const CategoryOther = "Other"

// Categories is the fixed set of problem categories the classifier may assign,
// excluding CategoryOther.
var Categories = []string{
	"Roads",
	"Sidewalks",
	"Lighting",
	"Garbage",
	"Illegal Dumping",
	"Snow Removal",
	"Landscaping",
	"Trees",
	"Playgrounds",
	"Courtyards",
	"Water Supply",
	"Sewerage",
	"Heating",
	"Electricity",
	"Housing Maintenance",
	"Building Facades",
	"Public Transport",
	"Bus Stops",
	"Parking",
	"Road Signs",
	"Traffic Lights",
	"Fences",
	"Open Hatches",
	"Stray Animals",
	"Pest Control",
	"Flooding",
	"Noise",
}

var categorySet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Categories)+1)
	for _, c := range Categories {
		m[c] = struct{}{}
	}
	m[CategoryOther] = struct{}{}
	return m
}()

// KnownCategory reports whether name is one of the fixed categories.
func KnownCategory(name string) bool {
	_, ok := categorySet[name]
	return ok
}

// NormalizeOptional maps null-like string values the AI backend is known to
// emit ("none", "-", "null", empty) to a true absent value.
func NormalizeOptional(s string) string {
	t := strings.TrimSpace(s)
	switch strings.ToLower(t) {
	case "", "-", "none", "null", "n/a", "unknown":
		return ""
	}
	return t
}
