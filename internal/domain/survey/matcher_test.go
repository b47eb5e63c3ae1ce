package survey

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeLabel(t *testing.T) {
	cases := map[string]string{
		"Ruang kelas/kerja bersih & tertata.":              "ruang kelas kerja bersih dan tertata",
		"Apakah koleksi buku perpustakaan cukup lengkap ?": "apakah koleksi buku perpustakaan cukup lengkap",
		"\ufeffUsia ":                  "usia",
		"Wi\u2011Fi mudah diakses":     "wi-fi mudah diakses",
		"  Wi-Fi   mudah diakses  ":    "wi-fi mudah diakses",
		"\u201cPelayanan\u201d ramah": "pelayanan ramah",
		"":                             "",
	}
	for raw, want := range cases {
		require.Equal(t, want, NormalizeLabel(raw), raw)
	}
}

func TestResolveExactAfterNormalization(t *testing.T) {
	res := NewMatcher(DefaultFuzzyThreshold).Resolve(
		[]string{"Toilet bersih", "Wi-Fi mudah diakses"},
		[]string{"Toilet bersih. ", " Wi-Fi mudah diakses ", "Usia"},
	)
	require.Len(t, res.Matches, 2)
	require.Equal(t, "Toilet bersih. ", res.Matches[0].Column)
	require.Equal(t, MatchExact, res.Matches[0].Method)
	require.Equal(t, " Wi-Fi mudah diakses ", res.Matches[1].Column)
	require.Equal(t, MatchExact, res.Matches[1].Method)
	require.Empty(t, res.Missing)

	// an exact hit does not depend on the fuzzy threshold
	strict := NewMatcher(1).Resolve([]string{"Toilet bersih"}, []string{"Toilet bersih. "})
	require.Equal(t, []string{"Toilet bersih. "}, strict.Columns())
}

func TestResolveFuzzyFallback(t *testing.T) {
	res := NewMatcher(DefaultFuzzyThreshold).Resolve(
		[]string{"Kecepatan internet stabil"},
		[]string{"Kecepatan internet stabill", "Toilet bersih"},
	)
	require.Len(t, res.Matches, 1)
	m := res.Matches[0]
	require.Equal(t, "Kecepatan internet stabill", m.Column)
	require.Equal(t, MatchFuzzy, m.Method)
	require.GreaterOrEqual(t, m.Score, DefaultFuzzyThreshold)
	require.Less(t, m.Score, 1.0)

	strict := NewMatcher(0.99).Resolve([]string{"Kecepatan internet stabil"}, []string{"Kecepatan internet stabill"})
	require.Empty(t, strict.Matches)
	require.Equal(t, []string{"Kecepatan internet stabil"}, strict.Missing)
}

func TestResolveUnrelatedLabelIsMissing(t *testing.T) {
	resolved, missing := ResolveColumns(
		[]string{"Parkir memadai & aman", "Toilet bersih"},
		[]string{"Toilet bersih"},
	)
	require.Equal(t, []string{"Toilet bersih"}, resolved)
	require.Equal(t, []string{"Parkir memadai & aman"}, missing)
}

func TestResolveNeverDuplicatesColumns(t *testing.T) {
	res := NewMatcher(DefaultFuzzyThreshold).Resolve(
		[]string{"Harga terjangkau.", "Harga terjangkau", "Harga terjangkaau"},
		[]string{"Harga terjangkau"},
	)
	require.Equal(t, []string{"Harga terjangkau"}, res.Columns())
	require.Len(t, res.Shadowed, 2)
	require.Empty(t, res.Missing)
}

func TestResolveFirstSeenColumnWins(t *testing.T) {
	resolved, missing := ResolveColumns(
		[]string{"Toilet bersih"},
		[]string{"Toilet bersih", "toilet bersih.", "Toilet  bersih"},
	)
	require.Equal(t, []string{"Toilet bersih"}, resolved)
	require.Empty(t, missing)
}

func TestResolveKeepsCatalogOrder(t *testing.T) {
	labels := []string{"Menu cukup bervariasi.", "Harga terjangkau.", "Area makan nyaman"}
	columns := []string{"Area makan nyaman", "Harga terjangkau.", "Menu cukup bervariasi."}
	resolved, missing := ResolveColumns(labels, columns)
	require.Equal(t, []string{"Menu cukup bervariasi.", "Harga terjangkau.", "Area makan nyaman"}, resolved)
	require.Empty(t, missing)
}

func TestResolveSkipsLabelsThatNormalizeToNothing(t *testing.T) {
	require.Empty(t, NormalizeLabel("?"))

	res := NewMatcher(DefaultFuzzyThreshold).Resolve([]string{"?", "Toilet bersih"}, []string{"!", "Toilet bersih"})
	require.Equal(t, []string{"Toilet bersih"}, res.Columns())
	require.Equal(t, []string{"?"}, res.Missing)
	require.Empty(t, res.Shadowed)
}

func TestResolveWithNoColumns(t *testing.T) {
	resolved, missing := ResolveColumns([]string{"Toilet bersih", "Tersedia P3K"}, nil)
	require.Empty(t, resolved)
	require.Equal(t, []string{"Toilet bersih", "Tersedia P3K"}, missing)
}

func TestNewMatcherThresholdDefaults(t *testing.T) {
	require.Equal(t, DefaultFuzzyThreshold, NewMatcher(0).Threshold())
	require.Equal(t, DefaultFuzzyThreshold, NewMatcher(1.5).Threshold())
	require.Equal(t, 0.9, NewMatcher(0.9).Threshold())
	require.Equal(t, DefaultFuzzyThreshold, Matcher{}.Threshold())
}
