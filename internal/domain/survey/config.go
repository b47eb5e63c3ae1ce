package survey

import "time"

// NormalizedSuffix names the derived sibling of a normalized field.
const NormalizedSuffix = "_Normalized"

// Config holds runtime knobs for the survey service.
type Config struct {
	DefaultDataset string
	FuzzyThreshold float64
	Fields         Fields
	Program        ProgramRules
	ScoreTTL       time.Duration
}

// Fields names the raw demographic columns of a survey export.
type Fields struct {
	Age            string
	Gender         string
	Program        string
	Status         string
	ProgramAliases []string
}

// DefaultFields matches the campus facility questionnaire headers.
func DefaultFields() Fields {
	return Fields{
		Age:            "Usia",
		Gender:         "Jenis Kelamin",
		Program:        "Program/Unit",
		Status:         "Status Anda",
		ProgramAliases: []string{"program", "prodi", "unit", "jurusan", "fakultas", "bagian"},
	}
}

// NormalizedColumn returns the derived column name for a raw field.
func NormalizedColumn(raw string) string {
	return raw + NormalizedSuffix
}

func (f Fields) withDefaults() Fields {
	def := DefaultFields()
	if f.Age == "" {
		f.Age = def.Age
	}
	if f.Gender == "" {
		f.Gender = def.Gender
	}
	if f.Program == "" {
		f.Program = def.Program
	}
	if f.Status == "" {
		f.Status = def.Status
	}
	if len(f.ProgramAliases) == 0 {
		f.ProgramAliases = def.ProgramAliases
	}
	return f
}

// SourceRef locates the raw export of a dataset.
type SourceRef struct {
	Driver   string `json:"driver"`
	Location string `json:"location"`
}

// Key identifies the source for caching.
func (r SourceRef) Key() string {
	return r.Driver + ":" + r.Location
}

// Dataset is one survey revision: where its responses live and which
// catalog scores them.
type Dataset struct {
	Name    string
	Source  SourceRef
	Catalog Catalog
}
