package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yanqian/survey-dashboard/internal/domain/survey"
)

type catalogFile struct {
	Categories []survey.Category `yaml:"categories"`
}

// LoadCatalog reads a category catalog from YAML. An empty path selects the
// built-in campus catalog.
func LoadCatalog(path string) (survey.Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return survey.DefaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return survey.Catalog{}, fmt.Errorf("read catalog file: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates catalog YAML.
func ParseCatalog(data []byte) (survey.Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return survey.Catalog{}, fmt.Errorf("parse catalog file: %w", err)
	}
	if len(file.Categories) == 0 {
		return survey.Catalog{}, fmt.Errorf("catalog declares no categories")
	}
	catalog, err := survey.NewCatalog(file.Categories)
	if err != nil {
		return survey.Catalog{}, fmt.Errorf("invalid catalog: %w", err)
	}
	return catalog, nil
}

// ProgramRules merges configured program lists over the built-in defaults.
func (c ProgramConfig) ProgramRules() survey.ProgramRules {
	rules := survey.DefaultProgramRules()
	if len(c.Acronyms) > 0 {
		rules.Acronyms = c.Acronyms
	}
	if len(c.Replacements) > 0 {
		rules.Replacements = make([]survey.Replacement, 0, len(c.Replacements))
		for _, r := range c.Replacements {
			rules.Replacements = append(rules.Replacements, survey.Replacement{From: r.From, To: r.To})
		}
	}
	return rules
}

// Fields converts the configured column names into the domain shape.
func (f FieldsConfig) Fields() survey.Fields {
	return survey.Fields{
		Age:            f.Age,
		Gender:         f.Gender,
		Program:        f.Program,
		Status:         f.Status,
		ProgramAliases: f.ProgramAliases,
	}
}
