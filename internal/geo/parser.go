package geo

import (
	"fmt"
	"regexp"
	"strings"
)

// ParsedAddress is a street/building pair extracted from free text.
type ParsedAddress struct {
	Street   string
	Building string
}

var (
	// "big pothole on Lenina street 15", "Mira avenue, 7a"
	suffixStreetExpr = regexp.MustCompile(
		`\b([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)\s+(?:[Ss]treet|[Aa]venue|[Ll]ane|[Bb]oulevard|[Mm]icrodistrict|[Ss]t\.|[Aa]ve\.|[Bb]lvd\.)\s*,?\s*(\d+[a-zA-Z]?)?`)

	// "ul. Lenina 15", "prospekt Pobedy 3"
	prefixStreetExpr = regexp.MustCompile(
		`\b(?:ul\.|ulitsa|prospekt|pereulok|proezd)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)\s*,?\s*(\d+[a-zA-Z]?)?`)

	intersectionExpr = regexp.MustCompile(
		`\b(?:[Cc]rossing|[Ii]ntersection|[Cc]orner)\s+of\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)\s+and\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)`)
)

// ParseAddress extracts the first street/building mention from text.
func ParseAddress(text string) (ParsedAddress, bool) {
	for _, expr := range []*regexp.Regexp{prefixStreetExpr, suffixStreetExpr} {
		m := expr.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		street := strings.TrimSpace(m[1])
		if street == "" {
			continue
		}
		return ParsedAddress{Street: street, Building: strings.TrimSpace(m[2])}, true
	}
	return ParsedAddress{}, false
}

// ParseIntersection recognizes "crossing of X and Y" phrasing.
func ParseIntersection(text string) (a, b string, ok bool) {
	m := intersectionExpr.FindStringSubmatch(text)
	if m == nil {
		return "", "", false
	}
	return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), true
}

// Format renders the parsed address in the canonical local form,
// e.g. "ul. Lenina 15, Nizhnevartovsk".
func (p ParsedAddress) Format(city string) string {
	addr := "ul. " + p.Street
	if p.Building != "" {
		addr += " " + p.Building
	}
	if city != "" {
		addr = fmt.Sprintf("%s, %s", addr, city)
	}
	return addr
}
