package survey

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Canonical age buckets in display order.
const (
	AgeUnder20 = "< 20"
	Age20To30  = "20-30"
	Age31To40  = "31-40"
	AgeOver40  = "> 40"
)

// Canonical gender values.
const (
	GenderMale    = "Laki-laki"
	GenderFemale  = "Perempuan"
	GenderUnknown = "Lainnya/Unknown"
)

// AgeBuckets lists the age vocabulary in canonical order.
func AgeBuckets() []string {
	return []string{AgeUnder20, Age20To30, Age31To40, AgeOver40}
}

// AgeSortKey positions a bucket in canonical order; unknown values sort last.
func AgeSortKey(bucket string) int {
	for i, b := range AgeBuckets() {
		if b == bucket {
			return i
		}
	}
	return len(AgeBuckets())
}

var (
	ageUnitPattern  = regexp.MustCompile(`(^|[^a-z])(tahun|thn|years|year|yrs|yr|th)\b`)
	ageDashes       = strings.NewReplacer("\u2013", "-", "\u2014", "-", "\u2010", "-", "\u2011", "-", "\u2212", "-", "~", "-")
	ageRangePattern = regexp.MustCompile(`^(\d{1,3})\s*-\s*(\d{1,3})$`)
	ageOverPattern  = regexp.MustCompile(`^(?:>=?|lebih dari|lebih|di ?atas|over|more than|above)\s*40(?:\s*\+)?$|^40\s*(?:\+|ke ?atas|or more|lebih)$`)
	ageUnderPattern = regexp.MustCompile(`^(?:<=?|kurang dari|di ?bawah|under|less than|below)\s*20$|^20\s*ke ?bawah$`)
	ageIntPattern   = regexp.MustCompile(`^\d+$`)
	ageThirties     = regexp.MustCompile(`\b3[1-9]\b`)
	ageTeens        = regexp.MustCompile(`\b1[789]\b`)
)

// ageRule is one step of the best-effort age classification. Rules are
// evaluated top to bottom against the cleaned input; the first hit wins.
type ageRule struct {
	name  string
	apply func(cleaned string) (string, bool)
}

var ageRules = []ageRule{
	{name: "range", apply: matchAgeRange},
	{name: "over_phrase", apply: func(s string) (string, bool) { return AgeOver40, ageOverPattern.MatchString(s) }},
	{name: "under_phrase", apply: func(s string) (string, bool) { return AgeUnder20, ageUnderPattern.MatchString(s) }},
	{name: "integer", apply: matchAgeInteger},
	{name: "contains_40", apply: func(s string) (string, bool) { return AgeOver40, strings.Contains(s, "40") }},
	{name: "contains_thirties", apply: func(s string) (string, bool) { return Age31To40, ageThirties.MatchString(s) }},
	{name: "contains_20_or_30", apply: func(s string) (string, bool) {
		return Age20To30, strings.Contains(s, "20") || strings.Contains(s, "30")
	}},
	{name: "contains_teens", apply: func(s string) (string, bool) { return AgeUnder20, ageTeens.MatchString(s) }},
}

// NormalizeAge maps a raw age answer onto the bucket vocabulary. Blank input
// is missing. Unrecognized input comes back trimmed but unmapped.
func NormalizeAge(raw string) (string, bool) {
	if strings.TrimSpace(raw) == "" {
		return "", false
	}
	bucket, _ := classifyAge(raw)
	return bucket, true
}

// classifyAge returns the bucket and the name of the rule that produced it;
// the rule is empty when nothing matched.
func classifyAge(raw string) (string, string) {
	cleaned := cleanAge(raw)
	for _, rule := range ageRules {
		if bucket, ok := rule.apply(cleaned); ok {
			return bucket, rule.name
		}
	}
	return strings.TrimSpace(raw), ""
}

func cleanAge(raw string) string {
	s := strings.ToLower(raw)
	s = ageDashes.Replace(s)
	s = ageUnitPattern.ReplaceAllString(s, "$1")
	return strings.Join(strings.Fields(s), " ")
}

func matchAgeRange(s string) (string, bool) {
	m := ageRangePattern.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	lo, _ := strconv.Atoi(m[1])
	hi, _ := strconv.Atoi(m[2])
	if lo > hi {
		lo, hi = hi, lo
	}
	switch {
	case hi <= 20:
		return AgeUnder20, true
	case hi <= 30:
		return Age20To30, true
	case lo >= 31 && hi <= 40:
		return Age31To40, true
	case lo > 40:
		return AgeOver40, true
	default:
		// spans two buckets: classify by midpoint
		return ageBucket((lo + hi) / 2), true
	}
}

func matchAgeInteger(s string) (string, bool) {
	if !ageIntPattern.MatchString(s) {
		return "", false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		// digits only, so the value overflowed int
		return AgeOver40, true
	}
	return ageBucket(n), true
}

func ageBucket(age int) string {
	switch {
	case age < 20:
		return AgeUnder20
	case age <= 30:
		return Age20To30
	case age <= 40:
		return Age31To40
	default:
		return AgeOver40
	}
}

var (
	genderHyphen = regexp.MustCompile(`\s*-\s*`)

	maleLabels = map[string]struct{}{
		"laki-laki": {}, "laki laki": {}, "lakilaki": {}, "laki": {}, "l": {}, "lk": {},
		"pria": {}, "cowok": {}, "cowo": {}, "male": {}, "m": {}, "man": {}, "boy": {},
	}
	femaleLabels = map[string]struct{}{
		"perempuan": {}, "wanita": {}, "cewek": {}, "cewe": {}, "p": {}, "pr": {},
		"female": {}, "f": {}, "woman": {}, "girl": {},
	}
)

// NormalizeGender is total: anything unrecognized, including blank input,
// becomes GenderUnknown.
func NormalizeGender(raw string) string {
	key := strings.Join(strings.Fields(strings.ToLower(raw)), " ")
	key = genderHyphen.ReplaceAllString(key, "-")
	if _, ok := maleLabels[key]; ok {
		return GenderMale
	}
	if _, ok := femaleLabels[key]; ok {
		return GenderFemale
	}
	return GenderUnknown
}

// Replacement rewrites a long-form program name into its short form.
type Replacement struct {
	From string
	To   string
}

// ProgramRules parameterize program/unit canonicalization.
type ProgramRules struct {
	Acronyms     []string
	Replacements []Replacement
}

// withDefaults swaps in DefaultProgramRules when no rule is configured.
func (r ProgramRules) withDefaults() ProgramRules {
	if len(r.Acronyms) == 0 && len(r.Replacements) == 0 {
		return DefaultProgramRules()
	}
	return r
}

// DefaultProgramRules returns the built-in acronym and synonym lists.
func DefaultProgramRules() ProgramRules {
	return ProgramRules{
		Acronyms: []string{
			"TI", "SI", "MI", "IT", "TIK", "ICT", "PGSD", "PAUD", "PGMI", "PAI", "PBI", "BK",
			"UKM", "BAAK", "BAU", "BAK", "LPPM", "LPM", "UPT", "FKIP", "FEB", "FT", "FH",
			"FIK", "FISIP", "MIPA", "HRD", "SDM", "K3", "UIN", "IAIN",
		},
		Replacements: []Replacement{
			{From: "Pendidikan Guru Sekolah Dasar", To: "PGSD"},
			{From: "Pendidikan Anak Usia Dini", To: "PAUD"},
			{From: "Teknik Informatika", To: "Informatika"},
			{From: "Manajemen Informatika", To: "MI"},
			{From: "Tenaga Kependidikan", To: "Tendik"},
			{From: "Biro Administrasi Akademik Dan Kemahasiswaan", To: "BAAK"},
			{From: "Lembaga Penelitian Dan Pengabdian Masyarakat", To: "LPPM"},
		},
	}
}

var (
	levelSpaced = regexp.MustCompile(`(?i)\b([sd])\s+([1-4])\b`)
	levelMarker = regexp.MustCompile(`(?i)\b([sd])([1-4])\b`)
	defaultProg = NewProgramNormalizer(DefaultProgramRules())
)

// ProgramNormalizer canonicalizes program/unit names. Passes run in a fixed
// order: separators, level markers, title case, acronyms, level markers
// again, then replacements.
type ProgramNormalizer struct {
	acronyms     map[string]struct{}
	replacements []Replacement
}

// NewProgramNormalizer compiles the rules.
func NewProgramNormalizer(rules ProgramRules) *ProgramNormalizer {
	acronyms := make(map[string]struct{}, len(rules.Acronyms))
	for _, a := range rules.Acronyms {
		if a = strings.TrimSpace(a); a != "" {
			acronyms[strings.ToUpper(a)] = struct{}{}
		}
	}
	replacements := make([]Replacement, 0, len(rules.Replacements))
	for _, r := range rules.Replacements {
		if r.From == "" {
			continue
		}
		replacements = append(replacements, r)
	}
	return &ProgramNormalizer{acronyms: acronyms, replacements: replacements}
}

// NormalizeProgram canonicalizes with the default rules.
func NormalizeProgram(raw string) (string, bool) {
	return defaultProg.Normalize(raw)
}

// Normalize canonicalizes a single program/unit value. Blank input is missing.
func (p *ProgramNormalizer) Normalize(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	s = levelSpaced.ReplaceAllString(s, "$1$2")
	s = strings.Join(strings.Fields(s), " ")
	s = cases.Title(language.Indonesian).String(s)

	words := strings.Split(s, " ")
	for i, w := range words {
		core := strings.TrimFunc(w, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) })
		if core == "" {
			continue
		}
		if _, ok := p.acronyms[strings.ToUpper(core)]; ok {
			words[i] = strings.Replace(w, core, strings.ToUpper(core), 1)
		}
	}
	s = strings.Join(words, " ")
	s = levelMarker.ReplaceAllStringFunc(s, strings.ToUpper)

	for _, r := range p.replacements {
		s = strings.ReplaceAll(s, r.From, r.To)
	}
	return s, true
}
