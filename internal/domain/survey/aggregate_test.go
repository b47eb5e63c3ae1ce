package survey

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const scoresCSV = "Jenis Kelamin,Harga terjangkau.,Menu cukup bervariasi.,Toilet bersih,Tersedia P3K\n" +
	"L,3,1,,\n" +
	"P,5,,4,\n"

func scoresCatalog(t *testing.T) Catalog {
	t.Helper()
	catalog, err := NewCatalog([]Category{
		{Name: "Kantin", Questions: []string{"Harga terjangkau.", "Menu cukup bervariasi."}},
		{Name: "Kebersihan", Questions: []string{"Toilet bersih", "Tersedia P3K"}},
		{Name: "Parkir", Questions: []string{"Parkir memadai & aman"}},
	})
	require.NoError(t, err)
	return catalog
}

func scoresTable(t *testing.T) *Table {
	t.Helper()
	table, _, err := newTestLoader().Parse([]byte(scoresCSV), scoresCatalog(t))
	require.NoError(t, err)
	return table
}

func TestCategoryMeansMeanOfMeans(t *testing.T) {
	scores := NewAggregator(NewMatcher(DefaultFuzzyThreshold)).CategoryMeans(scoresTable(t), scoresCatalog(t), nil)
	require.Len(t, scores, 3)

	kantin := scores[0]
	require.Equal(t, "Kantin", kantin.Category)
	require.Equal(t, 2, kantin.ResolvedColumns)
	require.NotNil(t, kantin.Mean)
	// (mean(3,5) + mean(1)) / 2
	require.InDelta(t, 2.5, *kantin.Mean, 1e-9)

	kebersihan := scores[1]
	require.Equal(t, 2, kebersihan.ResolvedColumns)
	require.NotNil(t, kebersihan.Mean)
	require.Equal(t, 4.0, *kebersihan.Mean)

	parkir := scores[2]
	require.Equal(t, "Parkir", parkir.Category)
	require.Nil(t, parkir.Mean)
	require.Zero(t, parkir.ResolvedColumns)
	require.Equal(t, []string{"Parkir memadai & aman"}, parkir.MissingLabels)
}

func TestCategoryMeansTwoRowsGiveExactMean(t *testing.T) {
	catalog, err := NewCatalog([]Category{{Name: "Kantin", Questions: []string{"Harga terjangkau."}}})
	require.NoError(t, err)
	table, _, err := newTestLoader().Parse([]byte("Harga terjangkau.\n3\n5\n"), catalog)
	require.NoError(t, err)

	scores := NewAggregator(NewMatcher(DefaultFuzzyThreshold)).CategoryMeans(table, catalog, nil)
	require.Len(t, scores, 1)
	require.Equal(t, 4.0, *scores[0].Mean)
	require.Nil(t, scores[0].MissingLabels)
}

func TestCategoryMeansAllMissingValuesIsNull(t *testing.T) {
	catalog, err := NewCatalog([]Category{{Name: "Kebersihan", Questions: []string{"Tersedia P3K"}}})
	require.NoError(t, err)
	scores := NewAggregator(NewMatcher(DefaultFuzzyThreshold)).CategoryMeans(scoresTable(t), catalog, nil)
	require.Equal(t, 1, scores[0].ResolvedColumns)
	require.Nil(t, scores[0].Mean)
}

func TestCategoryMeansAppliesFilters(t *testing.T) {
	agg := NewAggregator(NewMatcher(DefaultFuzzyThreshold))
	table := scoresTable(t)

	scores := agg.CategoryMeans(table, scoresCatalog(t), Filters{"Jenis Kelamin_Normalized": GenderFemale})
	require.Equal(t, 5.0, *scores[0].Mean)
	require.Equal(t, 4.0, *scores[1].Mean)

	same := agg.CategoryMeans(table, scoresCatalog(t), Filters{"Tidak Ada": "x", "Jenis Kelamin_Normalized": AllValue})
	require.InDelta(t, 2.5, *same[0].Mean, 1e-9)
}

func TestCategoryMeansOnEmptyFilterIsNull(t *testing.T) {
	scores := NewAggregator(NewMatcher(DefaultFuzzyThreshold)).CategoryMeans(
		scoresTable(t), scoresCatalog(t), Filters{"Jenis Kelamin_Normalized": GenderUnknown},
	)
	require.Len(t, scores, 3)
	for _, s := range scores {
		require.Nil(t, s.Mean, s.Category)
	}
}

func TestQuestionMeans(t *testing.T) {
	agg := NewAggregator(NewMatcher(DefaultFuzzyThreshold))
	labels := []string{"Menu cukup bervariasi.", "Harga terjangkau", "Area makan nyaman"}

	scores, missing := agg.QuestionMeans(scoresTable(t), labels, nil)
	require.Equal(t, []string{"Area makan nyaman"}, missing)
	require.Len(t, scores, 2)

	require.Equal(t, "Menu cukup bervariasi.", scores[0].Label)
	require.Equal(t, 1, scores[0].Responses)
	require.Equal(t, 1.0, *scores[0].Mean)

	require.Equal(t, "Harga terjangkau", scores[1].Label)
	require.Equal(t, "Harga terjangkau.", scores[1].Column)
	require.Equal(t, MatchExact, scores[1].Method)
	require.Equal(t, 2, scores[1].Responses)
	require.Equal(t, 4.0, *scores[1].Mean)
}

func TestSortQuestionScores(t *testing.T) {
	two, four := 2.0, 4.0
	build := func() []QuestionScore {
		return []QuestionScore{
			{Label: "a", Mean: &two},
			{Label: "b"},
			{Label: "c", Mean: &four},
		}
	}
	labels := func(scores []QuestionScore) []string {
		out := make([]string, len(scores))
		for i, s := range scores {
			out[i] = s.Label
		}
		return out
	}

	scores := build()
	require.NoError(t, SortQuestionScores(scores, SortDescending))
	require.Equal(t, []string{"c", "a", "b"}, labels(scores))

	scores = build()
	require.NoError(t, SortQuestionScores(scores, ""))
	require.Equal(t, []string{"c", "a", "b"}, labels(scores))

	scores = build()
	require.NoError(t, SortQuestionScores(scores, SortAscending))
	require.Equal(t, []string{"a", "c", "b"}, labels(scores))

	scores = build()
	require.NoError(t, SortQuestionScores(scores, SortCatalog))
	require.Equal(t, []string{"a", "b", "c"}, labels(scores))

	require.Error(t, SortQuestionScores(build(), "random"))
}
