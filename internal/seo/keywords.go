package seo

import (
	"hash/fnv"
	"math/rand"
	"strings"
)

// KeywordSuggestion carries simulated metrics for a related keyword. A real
// deployment would source these from a keyword-planner API; the simulated
// values are deterministic per seed keyword so repeated calls agree.
type KeywordSuggestion struct {
	Keyword      string  `json:"keyword"`
	SearchVolume int     `json:"search_volume"`
	Difficulty   int     `json:"difficulty"`
	CPC          float64 `json:"cpc"`
}

var keywordModifiers = []string{
	"best", "how to", "top", "cheap", "free", "online",
	"near me", "guide", "tools", "software", "services", "tips",
}

// SuggestKeywords returns up to limit related-keyword suggestions for the
// seed keyword.
func SuggestKeywords(seed string, limit int) []KeywordSuggestion {
	seed = strings.ToLower(strings.TrimSpace(seed))
	if seed == "" {
		return nil
	}
	if limit <= 0 || limit > len(keywordModifiers) {
		limit = len(keywordModifiers)
	}

	h := fnv.New64a()
	h.Write([]byte(seed))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	suggestions := make([]KeywordSuggestion, 0, limit)
	for _, modifier := range keywordModifiers[:limit] {
		keyword := modifier + " " + seed
		if modifier == "near me" || modifier == "guide" || modifier == "tools" ||
			modifier == "software" || modifier == "services" || modifier == "tips" {
			keyword = seed + " " + modifier
		}
		suggestions = append(suggestions, KeywordSuggestion{
			Keyword:      keyword,
			SearchVolume: 100 + rng.Intn(9900),
			Difficulty:   1 + rng.Intn(100),
			CPC:          float64(rng.Intn(500)) / 100,
		})
	}
	return suggestions
}
