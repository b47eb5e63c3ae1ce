package survey

import (
	"fmt"
	"sort"
)

// Question detail orderings.
const (
	SortDescending = "desc"
	SortAscending  = "asc"
	SortCatalog    = "catalog"
)

// CategoryScore is the mean of per-question means for one category. Mean is
// nil when no resolved column holds a value.
type CategoryScore struct {
	Category        string   `json:"category"`
	Mean            *float64 `json:"mean"`
	ResolvedColumns int      `json:"resolvedColumns"`
	MissingLabels   []string `json:"missingLabels,omitempty"`
}

// QuestionScore is the mean of one resolved question column, keyed by the
// catalog label.
type QuestionScore struct {
	Label     string      `json:"label"`
	Column    string      `json:"column"`
	Method    MatchMethod `json:"method"`
	Mean      *float64    `json:"mean"`
	Responses int         `json:"responses"`
}

// Aggregator computes means over a table using a column matcher.
type Aggregator struct {
	matcher Matcher
}

// NewAggregator constructs an aggregator.
func NewAggregator(matcher Matcher) Aggregator {
	return Aggregator{matcher: matcher}
}

// CategoryMeans filters the table and scores every catalog category in
// order. Categories without resolvable columns are kept with a nil mean.
func (a Aggregator) CategoryMeans(t *Table, catalog Catalog, filters Filters) []CategoryScore {
	filtered := t.Filter(filters)
	out := make([]CategoryScore, 0, catalog.Len())
	for _, cat := range catalog.Categories() {
		res := a.matcher.Resolve(cat.Questions, filtered.Columns)
		score := CategoryScore{
			Category:        cat.Name,
			ResolvedColumns: len(res.Matches),
			MissingLabels:   res.Missing,
		}
		if len(res.Missing) == 0 {
			score.MissingLabels = nil
		}
		var (
			sum     float64
			defined int
		)
		for _, m := range res.Matches {
			mean, _, ok := columnMean(filtered, m.Column)
			if !ok {
				continue
			}
			sum += mean
			defined++
		}
		if defined > 0 {
			score.Mean = floatPtr(sum / float64(defined))
		}
		out = append(out, score)
	}
	return out
}

// QuestionMeans filters the table and scores each resolved label in catalog
// order. Unresolved labels are returned separately.
func (a Aggregator) QuestionMeans(t *Table, labels []string, filters Filters) ([]QuestionScore, []string) {
	filtered := t.Filter(filters)
	res := a.matcher.Resolve(labels, filtered.Columns)
	out := make([]QuestionScore, 0, len(res.Matches))
	for _, m := range res.Matches {
		score := QuestionScore{Label: m.Label, Column: m.Column, Method: m.Method}
		mean, n, ok := columnMean(filtered, m.Column)
		score.Responses = n
		if ok {
			score.Mean = floatPtr(mean)
		}
		out = append(out, score)
	}
	return out, res.Missing
}

// SortQuestionScores orders scores in place. Nil means sort last under both
// mean orderings; ties keep catalog order.
func SortQuestionScores(scores []QuestionScore, order string) error {
	switch order {
	case "", SortDescending:
		sort.SliceStable(scores, func(i, j int) bool { return meanBefore(scores[i].Mean, scores[j].Mean, true) })
	case SortAscending:
		sort.SliceStable(scores, func(i, j int) bool { return meanBefore(scores[i].Mean, scores[j].Mean, false) })
	case SortCatalog:
	default:
		return fmt.Errorf("unknown sort order %q", order)
	}
	return nil
}

func meanBefore(a, b *float64, desc bool) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	case desc:
		return *a > *b
	default:
		return *a < *b
	}
}

// columnMean averages the present numeric cells of a column.
func columnMean(t *Table, column string) (float64, int, bool) {
	idx, ok := t.ColumnIndex(column)
	if !ok {
		return 0, 0, false
	}
	var (
		sum float64
		n   int
	)
	for _, row := range t.Rows {
		if idx >= len(row) {
			continue
		}
		cell := row[idx]
		if !cell.Present || !cell.Numeric {
			continue
		}
		sum += cell.Number
		n++
	}
	if n == 0 {
		return 0, 0, false
	}
	return sum / float64(n), n, true
}

func floatPtr(v float64) *float64 {
	return &v
}
