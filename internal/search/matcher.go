// Package search holds the pure matching and query-building core of the
// search service. It has no I/O; adapters compile its query model into the
// backing stores.
package search

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Config controls how tolerant fuzzy matching is. MaxDistance caps the
// absolute edit distance, Threshold is the minimum similarity in [0,1].
// Both gates must pass for a fuzzy match.
type Config struct {
	CaseSensitive bool
	MaxDistance   int
	Threshold     float64
}

// Preset tolerance profiles, from strictest to loosest.
var (
	ProfileExact   = Config{MaxDistance: 0, Threshold: 1.0}
	ProfileStrict  = Config{MaxDistance: 1, Threshold: 0.8}
	ProfileDefault = Config{MaxDistance: 2, Threshold: 0.6}
	ProfileRelaxed = Config{MaxDistance: 3, Threshold: 0.4}
)

// MatchResult reports the outcome of matching a query against one target.
type MatchResult struct {
	Matched  bool
	Distance int
	Score    float64
}

// Match is one scored hit from FindMatches.
type Match struct {
	Value    string
	Index    int
	Distance int
	Score    float64
}

// Matcher performs fuzzy string matching under a tolerance config.
type Matcher struct {
	cfg Config
}

// NewMatcher creates a matcher with the given tolerance config.
func NewMatcher(cfg Config) *Matcher {
	return &Matcher{cfg: cfg}
}

// Config returns the matcher's tolerance config.
func (m *Matcher) Config() Config {
	return m.cfg
}

// Distance returns the Levenshtein edit distance between a and b,
// case-folded unless the matcher is case sensitive.
func (m *Matcher) Distance(a, b string) int {
	return levenshtein.ComputeDistance(m.fold(a), m.fold(b))
}

// Similarity returns a normalized similarity in [0,1]: 1 minus the edit
// distance over the longer rune length. Two empty strings are identical.
func (m *Matcher) Similarity(a, b string) float64 {
	a, b = m.fold(a), m.fold(b)
	la, lb := len([]rune(a)), len([]rune(b))
	if la == 0 && lb == 0 {
		return 1.0
	}
	if la == 0 || lb == 0 {
		return 0.0
	}
	longer := la
	if lb > longer {
		longer = lb
	}
	d := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(d)/float64(longer)
}

// IsMatch matches query against target: a match needs the edit distance
// within MaxDistance and the similarity at or above Threshold. Identical
// strings score 1.0.
func (m *Matcher) IsMatch(query, target string) MatchResult {
	q, t := m.fold(query), m.fold(target)
	if q == t {
		return MatchResult{Matched: true, Distance: 0, Score: 1.0}
	}

	d := levenshtein.ComputeDistance(q, t)
	sim := m.Similarity(q, t)
	matched := d <= m.cfg.MaxDistance && sim >= m.cfg.Threshold
	return MatchResult{Matched: matched, Distance: d, Score: sim}
}

// FindMatches returns every target that matches query, ordered best first:
// score descending, then shorter target, then original position.
func (m *Matcher) FindMatches(query string, targets []string) []Match {
	var matches []Match
	for i, target := range targets {
		r := m.IsMatch(query, target)
		if !r.Matched {
			continue
		}
		matches = append(matches, Match{
			Value:    target,
			Index:    i,
			Distance: r.Distance,
			Score:    r.Score,
		})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		if len(matches[i].Value) != len(matches[j].Value) {
			return len(matches[i].Value) < len(matches[j].Value)
		}
		return matches[i].Index < matches[j].Index
	})
	return matches
}

// Suggest ranks dictionary entries as completions of the given input.
// Prefix completions outrank fuzzy corrections. An empty input yields nil.
func (m *Matcher) Suggest(input string, dictionary []string, limit int) []string {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil
	}
	if limit <= 0 {
		limit = 5
	}

	q := m.fold(input)
	type candidate struct {
		value string
		score float64
	}
	var ranked []candidate
	seen := make(map[string]struct{}, len(dictionary))

	for _, entry := range dictionary {
		folded := m.fold(entry)
		if _, dup := seen[folded]; dup {
			continue
		}
		var score float64
		switch {
		case folded == q:
			score = 1.0
		case strings.HasPrefix(folded, q):
			// Tighter completions rank higher within the prefix tier.
			score = 0.9 + 0.1*float64(len([]rune(q)))/float64(len([]rune(folded)))
		default:
			r := m.IsMatch(q, folded)
			if !r.Matched {
				continue
			}
			score = r.Score
		}
		seen[folded] = struct{}{}
		ranked = append(ranked, candidate{value: entry, score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].value < ranked[j].value
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]string, len(ranked))
	for i, c := range ranked {
		out[i] = c.value
	}
	return out
}

// Highlight wraps every occurrence of query inside text with the given tag,
// matching case-insensitively but preserving the original text. An empty
// tag defaults to "mark".
func (m *Matcher) Highlight(query, text, tag string) string {
	query = strings.TrimSpace(query)
	if query == "" || text == "" {
		return text
	}
	if tag == "" {
		tag = "mark"
	}
	openTag, closeTag := "<"+tag+">", "</"+tag+">"

	haystack := m.fold(text)
	needle := m.fold(query)
	if len(haystack) != len(text) {
		// Case folding shifted byte offsets; match exact case instead
		// of slicing text at the wrong boundaries.
		haystack = text
		needle = query
	}

	var b strings.Builder
	offset := 0
	for {
		i := strings.Index(haystack[offset:], needle)
		if i < 0 {
			break
		}
		start := offset + i
		end := start + len(needle)
		b.WriteString(text[offset:start])
		b.WriteString(openTag)
		b.WriteString(text[start:end])
		b.WriteString(closeTag)
		offset = end
	}
	b.WriteString(text[offset:])
	return b.String()
}

func (m *Matcher) fold(s string) string {
	if m.cfg.CaseSensitive {
		return s
	}
	return strings.ToLower(s)
}
