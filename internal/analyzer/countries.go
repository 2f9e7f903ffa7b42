package analyzer

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed countries.yaml
var countriesYAML []byte

type currencyGroup struct {
	Code      string   `yaml:"code"`
	Countries []string `yaml:"countries"`
	Aliases   []string `yaml:"aliases"`
}

// CountryTable infers a currency from a country name.
type CountryTable struct {
	Default string          `yaml:"default"`
	Groups  []currencyGroup `yaml:"currencies"`

	index map[string]string
}

// ParseCountryTable decodes a YAML country table.
func ParseCountryTable(data []byte) (*CountryTable, error) {
	var t CountryTable
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse country table: %w", err)
	}
	if t.Default == "" {
		return nil, fmt.Errorf("parse country table: default currency missing")
	}

	t.index = make(map[string]string)
	for _, g := range t.Groups {
		code := strings.ToUpper(g.Code)
		for _, name := range append(append([]string{}, g.Countries...), g.Aliases...) {
			t.index[countryKey(name)] = code
		}
	}
	return &t, nil
}

var defaultCountries = mustParseCountryTable(countriesYAML)

func mustParseCountryTable(data []byte) *CountryTable {
	t, err := ParseCountryTable(data)
	if err != nil {
		panic(err)
	}
	return t
}

// Currency returns the currency used in country, or the table default.
func (t *CountryTable) Currency(country string) string {
	if code, ok := t.index[countryKey(country)]; ok {
		return code
	}
	return t.Default
}

// PromptLines renders the table as "A, B -> CODE" lines for the oracle.
func (t *CountryTable) PromptLines() []string {
	lines := make([]string, 0, len(t.Groups)+1)
	for _, g := range t.Groups {
		lines = append(lines, strings.Join(g.Countries, ", ")+" -> "+g.Code)
	}
	lines = append(lines, "Default to "+t.Default+" if the country is unknown")
	return lines
}

// DefaultCurrency infers a currency from the built-in country table.
func DefaultCurrency(country string) string {
	return defaultCountries.Currency(country)
}

func countryKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
