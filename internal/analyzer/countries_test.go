package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCurrency(t *testing.T) {
	tests := map[string]string{
		"Egypt":          "EGP",
		"italy":          "EUR",
		" Ireland ":      "EUR",
		"UK":             "GBP",
		"United Kingdom": "GBP",
		"Japan":          "JPY",
		"Thailand":       "THB",
		"Turkey":         "TRY",
		"UAE":            "AED",
		"USA":            "USD",
		"Canada":         "USD",
		"Mexico":         "MXN",
		"Brazil":         "BRL",
		"Australia":      "AUD",
		"Atlantis":       "USD",
		"":               "USD",
	}

	for country, want := range tests {
		assert.Equal(t, want, DefaultCurrency(country), country)
	}
}

func TestParseCountryTable(t *testing.T) {
	table, err := ParseCountryTable([]byte("default: EUR\ncurrencies:\n  - code: chf\n    countries: [Switzerland]\n"))
	require.NoError(t, err)
	assert.Equal(t, "CHF", table.Currency("switzerland"))
	assert.Equal(t, "EUR", table.Currency("Norway"))

	_, err = ParseCountryTable([]byte("currencies: []\n"))
	assert.Error(t, err)
}
