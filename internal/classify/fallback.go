package classify

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"CityWatch/internal/domain"
	"CityWatch/internal/filter"
)

// Deterministic keyword-to-category rules, applied when the AI backend is
// unavailable or its answer cannot be parsed. First match wins.
var categoryRules = []struct {
	category string
	words    []string
}{
	{"Roads", []string{"pothole", "road", "asphalt", "pavement", "roadway"}},
	{"Sidewalks", []string{"sidewalk", "footpath", "curb"}},
	{"Lighting", []string{"street light", "streetlight", "lamp", "lighting", "dark street"}},
	{"Garbage", []string{"garbage", "trash", "waste bin", "dumpster", "rubbish"}},
	{"Illegal Dumping", []string{"illegal dump", "dumped", "dumping"}},
	{"Snow Removal", []string{"snow", "ice on", "icy", "icicle"}},
	{"Water Supply", []string{"no water", "water pressure", "water supply", "cold water"}},
	{"Sewerage", []string{"sewer", "sewage", "drain clog"}},
	{"Heating", []string{"no heating", "heating", "radiator", "cold apartment"}},
	{"Electricity", []string{"no power", "power outage", "blackout", "electricity"}},
	{"Flooding", []string{"flood", "flooded", "standing water"}},
	{"Open Hatches", []string{"open hatch", "manhole", "missing cover"}},
	{"Trees", []string{"fallen tree", "tree branch", "dead tree"}},
	{"Playgrounds", []string{"playground", "swing", "slide broken"}},
	{"Stray Animals", []string{"stray dog", "stray animal", "pack of dogs"}},
	{"Traffic Lights", []string{"traffic light", "traffic signal"}},
	{"Road Signs", []string{"road sign", "missing sign"}},
	{"Public Transport", []string{"bus route", "bus late", "tram", "trolleybus"}},
	{"Bus Stops", []string{"bus stop", "shelter"}},
	{"Housing Maintenance", []string{"roof leak", "elevator", "stairwell", "entrance door"}},
	{"Noise", []string{"noise", "loud music", "construction noise"}},
}

const summaryMaxLen = 120

// keywordClassify produces a classification without any external call. It
// never fails.
func keywordClassify(text string) domain.ClassificationResult {
	lower := strings.ToLower(text)

	category := domain.CategoryOther
	for _, rule := range categoryRules {
		matched := false
		for _, w := range rule.words {
			if strings.Contains(lower, w) {
				matched = true
				break
			}
		}
		if matched {
			category = rule.category
			break
		}
	}

	relevant := category != domain.CategoryOther || filter.HasComplaintMarker(text)

	return domain.ClassificationResult{
		Relevant: relevant,
		Category: category,
		Summary:  fallbackSummary(category, text),
		Method:   domain.MethodKeywordFallback,
	}
}

// fallbackSummary builds a generated summary so the record never carries the
// source text verbatim.
func fallbackSummary(category, text string) string {
	prefix := strings.Join(strings.Fields(text), " ")
	head := fmt.Sprintf("Problem: %s, ", category)
	room := summaryMaxLen - utf8.RuneCountInString(head)
	if utf8.RuneCountInString(prefix) > room {
		runes := []rune(prefix)
		prefix = string(runes[:room-1]) + "…"
	}
	return head + prefix
}

func truncateSummary(s string) string {
	if utf8.RuneCountInString(s) <= summaryMaxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:summaryMaxLen-1]) + "…"
}
