package survey

import (
	"strings"
	"unicode"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/text/unicode/norm"
)

// DefaultFuzzyThreshold is the minimum similarity ratio for a fuzzy match.
const DefaultFuzzyThreshold = 0.85

// MatchMethod records how a label found its column.
type MatchMethod string

const (
	// MatchExact means the normalized label equals a normalized column name.
	MatchExact MatchMethod = "exact"
	// MatchFuzzy means the best similarity ratio cleared the threshold.
	MatchFuzzy MatchMethod = "fuzzy"
)

// Match binds a catalog label to a concrete table column.
type Match struct {
	Label  string      `json:"label"`
	Column string      `json:"column"`
	Method MatchMethod `json:"method"`
	Score  float64     `json:"score"`
}

// Resolution is the outcome of matching labels against a column set.
// Matches holds one entry per concrete column, in catalog order. Shadowed
// holds labels whose column was already claimed by an earlier label.
type Resolution struct {
	Matches  []Match
	Shadowed []Match
	Missing  []string
}

// Columns returns the resolved columns in catalog order.
func (r Resolution) Columns() []string {
	out := make([]string, len(r.Matches))
	for i, m := range r.Matches {
		out[i] = m.Column
	}
	return out
}

var labelPunctuation = map[rune]struct{}{
	'.': {}, ',': {}, '?': {}, '!': {}, ':': {}, ';': {}, '(': {}, ')': {}, '[': {}, ']': {},
	'"': {}, '\'': {}, '`': {}, '\u2019': {}, '\u2018': {}, '\u201c': {}, '\u201d': {}, '*': {}, '\ufeff': {},
}

// NormalizeLabel builds the comparison key for catalog labels and column
// names: lower case, "&" spelled out, "/" as space, punctuation stripped,
// dash variants unified, whitespace collapsed.
func NormalizeLabel(s string) string {
	if s == "" {
		return ""
	}
	lowered := strings.ToLower(norm.NFKC.String(s))
	var builder strings.Builder
	builder.Grow(len(lowered))
	for _, r := range lowered {
		switch {
		case r == '&':
			builder.WriteString(" dan ")
		case r == '/' || unicode.IsSpace(r):
			builder.WriteRune(' ')
		case r == '-' || (r >= '\u2010' && r <= '\u2015') || r == '\u2212':
			builder.WriteRune('-')
		default:
			if _, strip := labelPunctuation[r]; strip {
				continue
			}
			builder.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(builder.String()), " ")
}

// Matcher resolves catalog labels to table columns.
type Matcher struct {
	threshold float64
}

// NewMatcher builds a matcher; a non-positive threshold selects the default.
func NewMatcher(threshold float64) Matcher {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultFuzzyThreshold
	}
	return Matcher{threshold: threshold}
}

// Threshold reports the fuzzy cut-off in use.
func (m Matcher) Threshold() float64 {
	if m.threshold <= 0 {
		return DefaultFuzzyThreshold
	}
	return m.threshold
}

// ResolveColumns resolves with the default threshold and returns the
// deduplicated resolved columns and the unmatched labels, both in catalog
// order.
func ResolveColumns(labels, columns []string) ([]string, []string) {
	res := NewMatcher(DefaultFuzzyThreshold).Resolve(labels, columns)
	return res.Columns(), res.Missing
}

type columnKey struct {
	normalized string
	runes      []string
	original   string
}

// Resolve matches each label in order. Exact normalized matches win; the
// fuzzy fallback takes the single best ratio at or above the threshold.
// A column is claimed by the first label that reaches it.
func (m Matcher) Resolve(labels, columns []string) Resolution {
	byKey := make(map[string]string, len(columns))
	keys := make([]columnKey, 0, len(columns))
	for _, col := range columns {
		key := NormalizeLabel(col)
		if _, seen := byKey[key]; seen {
			continue
		}
		byKey[key] = col
		keys = append(keys, columnKey{normalized: key, runes: splitRunes(key), original: col})
	}

	res := Resolution{
		Matches:  make([]Match, 0, len(labels)),
		Missing:  make([]string, 0),
		Shadowed: make([]Match, 0),
	}
	claimed := make(map[string]struct{}, len(labels))
	for _, label := range labels {
		key := NormalizeLabel(label)
		match, ok := Match{}, false
		if key == "" {
			res.Missing = append(res.Missing, label)
			continue
		}
		if col, exact := byKey[key]; exact {
			match, ok = Match{Label: label, Column: col, Method: MatchExact, Score: 1}, true
		} else if col, score, fuzzy := m.closest(key, keys); fuzzy {
			match, ok = Match{Label: label, Column: col, Method: MatchFuzzy, Score: score}, true
		}
		if !ok {
			res.Missing = append(res.Missing, label)
			continue
		}
		if _, taken := claimed[match.Column]; taken {
			res.Shadowed = append(res.Shadowed, match)
			continue
		}
		claimed[match.Column] = struct{}{}
		res.Matches = append(res.Matches, match)
	}
	return res
}

func (m Matcher) closest(key string, candidates []columnKey) (string, float64, bool) {
	if key == "" {
		return "", 0, false
	}
	threshold := m.Threshold()
	target := splitRunes(key)
	var (
		best      string
		bestScore float64
		found     bool
	)
	for _, cand := range candidates {
		if cand.normalized == "" {
			continue
		}
		matcher := difflib.NewMatcher(cand.runes, target)
		if matcher.RealQuickRatio() < threshold || matcher.QuickRatio() < threshold {
			continue
		}
		score := matcher.Ratio()
		if score >= threshold && score > bestScore {
			best, bestScore, found = cand.original, score, true
		}
	}
	return best, bestScore, found
}

func splitRunes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
