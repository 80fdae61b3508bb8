package orgs

import (
	"regexp"
	"strings"
)

var (
	streetPrefixExpr  = regexp.MustCompile(`(?i)^(ul\.|ulitsa|prospekt|pereulok|proezd|street|st\.|avenue|ave\.|boulevard|blvd\.)\s+`)
	buildingExpr      = regexp.MustCompile(`\b(\d+[a-zA-Z]?)\b`)
	buildingDigitExpr = regexp.MustCompile(`\d+`)
)

// Match scans the registry for the organization serving the given resolved
// address. Street comparison is containment in either direction on normalized
// names; an exact building hit wins over a street-only hit.
func (r *Registry) Match(address string) (Organization, bool) {
	if r == nil || address == "" {
		return Organization{}, false
	}

	street, building := splitAddress(address)
	if street == "" {
		return Organization{}, false
	}

	var streetOnly *Organization
	for i := range r.orgs {
		org := &r.orgs[i]
		for _, seg := range org.Streets {
			if !streetsMatch(street, normalizeStreet(seg.Street)) {
				continue
			}
			if building != "" && buildingListed(seg.Buildings, building) {
				return *org, true
			}
			if streetOnly == nil {
				streetOnly = org
			}
		}
	}

	if streetOnly != nil {
		return *streetOnly, true
	}
	return Organization{}, false
}

// splitAddress extracts a normalized street name and the building number from
// an address like "ul. Lenina 15, Nizhnevartovsk".
func splitAddress(address string) (street, building string) {
	head := address
	if i := strings.Index(head, ","); i >= 0 {
		head = head[:i]
	}

	if m := buildingExpr.FindString(head); m != "" {
		building = m
		head = strings.Replace(head, m, "", 1)
	}
	return normalizeStreet(head), building
}

// normalizeStreet strips type prefixes and collapses whitespace.
func normalizeStreet(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	s = streetPrefixExpr.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}

func streetsMatch(query, registered string) bool {
	if query == "" || registered == "" {
		return false
	}
	return strings.Contains(query, registered) || strings.Contains(registered, query)
}

// buildingListed first tries the exact number, then a secondary numeric-only
// attempt with letter suffixes stripped ("15a" matches "15").
func buildingListed(listed []string, building string) bool {
	lower := strings.ToLower(building)
	for _, b := range listed {
		if strings.ToLower(b) == lower {
			return true
		}
	}

	digits := buildingDigitExpr.FindString(building)
	if digits == "" {
		return false
	}
	for _, b := range listed {
		if buildingDigitExpr.FindString(b) == digits {
			return true
		}
	}
	return false
}
