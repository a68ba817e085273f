package coach

import "strings"

// blockedOilTerms rejects joke input ("motor oil", "frog") that would otherwise
// be echoed back in a suggestion.
var blockedOilTerms = []string{"shoe", "frog", "machine", "motor"}

// relatedOils pairs an oil with two companions worth trying next.
// Checked in order; the first contained key wins.
var relatedOils = []struct {
	key  string
	pair [2]string
}{
	{"eucalyptus", [2]string{"Birch", "Pine"}},
	{"birch", [2]string{"Pine", "Cedar"}},
	{"pine", [2]string{"Birch", "Spruce"}},
	{"peppermint", [2]string{"Eucalyptus", "Menthol"}},
	{"lavender", [2]string{"Chamomile", "Cedar"}},
	{"cedar", [2]string{"Juniper", "Pine"}},
	{"tar", [2]string{"Birch", "Juniper"}},
}

var defaultRelatedOils = [2]string{"Birch", "Pine"}

// NormalizeOil trims and lowercases free-text oil input.
func NormalizeOil(oil string) string {
	return strings.ToLower(strings.TrimSpace(oil))
}

// ValidOil reports whether the oil input names something usable.
// Empty input, "none" and anything on the blocklist count as no oil.
func ValidOil(oil string) bool {
	n := NormalizeOil(oil)
	if n == "" || n == "none" {
		return false
	}
	for _, bad := range blockedOilTerms {
		if strings.Contains(n, bad) {
			return false
		}
	}
	return true
}

// RelatedOils returns two oils to suggest after the given one.
func RelatedOils(oil string) (string, string) {
	n := NormalizeOil(oil)
	for _, r := range relatedOils {
		if strings.Contains(n, r.key) {
			return r.pair[0], r.pair[1]
		}
	}
	return defaultRelatedOils[0], defaultRelatedOils[1]
}
