package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validBody = `{"itemName":"taxi ride","pricePaid":80,"currency":"EUR","fairnessScore":42,"fairPriceMin":20,"fairPriceMax":40,"markupPercentage":100,"narrativeResponse":"Ah, I recognize this trick...","advice":"For taxi rides in Spain, the fair price range is 20-40 EUR."}`

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"bare", validBody},
		{"json fence", "```json\n" + validBody + "\n```"},
		{"plain fence", "```\n" + validBody + "\n```"},
		{"surrounding prose", "Here you go:\n" + validBody + "\nHope that helps."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := stripFences(tt.in)
			require.True(t, ok)
			assert.Equal(t, validBody, got)
		})
	}

	_, ok := stripFences("no json here")
	assert.False(t, ok)
}

func TestParseJudgment_Valid(t *testing.T) {
	j, err := parseJudgment(validBody)
	require.NoError(t, err)
	assert.Equal(t, "taxi ride", j.ItemName)
	assert.Equal(t, 42, j.FairnessScore)
	assert.Equal(t, "EUR", j.Currency)
	assert.Equal(t, "Ah, I recognize this trick...", j.NarrativeResponse)
}

func TestParseJudgment_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "I cannot help with that"},
		{"truncated", `{"itemName":"taxi"`},
		{"missing item", `{"pricePaid":80,"currency":"EUR","fairnessScore":42,"fairPriceMin":20,"fairPriceMax":40,"markupPercentage":1}`},
		{"zero price", `{"itemName":"taxi","pricePaid":0,"currency":"EUR","fairnessScore":42,"fairPriceMin":20,"fairPriceMax":40,"markupPercentage":1}`},
		{"bad currency", `{"itemName":"taxi","pricePaid":80,"currency":"euro","fairnessScore":42,"fairPriceMin":20,"fairPriceMax":40,"markupPercentage":1}`},
		{"missing score", `{"itemName":"taxi","pricePaid":80,"currency":"EUR","fairPriceMin":20,"fairPriceMax":40,"markupPercentage":1}`},
		{"fractional score", `{"itemName":"taxi","pricePaid":80,"currency":"EUR","fairnessScore":42.5,"fairPriceMin":20,"fairPriceMax":40,"markupPercentage":1}`},
		{"score above range", `{"itemName":"taxi","pricePaid":80,"currency":"EUR","fairnessScore":101,"fairPriceMin":20,"fairPriceMax":40,"markupPercentage":1}`},
		{"score as text", `{"itemName":"taxi","pricePaid":80,"currency":"EUR","fairnessScore":"high","fairPriceMin":20,"fairPriceMax":40,"markupPercentage":1}`},
		{"inverted range", `{"itemName":"taxi","pricePaid":80,"currency":"EUR","fairnessScore":42,"fairPriceMin":50,"fairPriceMax":40,"markupPercentage":1}`},
		{"missing markup", `{"itemName":"taxi","pricePaid":80,"currency":"EUR","fairnessScore":42,"fairPriceMin":20,"fairPriceMax":40}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseJudgment(tt.body)
			var pErr *AnalysisParseError
			require.ErrorAs(t, err, &pErr)
			assert.Equal(t, tt.body, pErr.Raw)
		})
	}
}

func TestParseJudgment_NegativeMarkupAllowed(t *testing.T) {
	j, err := parseJudgment(`{"itemName":"coffee","pricePaid":2,"currency":"EUR","fairnessScore":5,"fairPriceMin":2.5,"fairPriceMax":4,"markupPercentage":-20}`)
	require.NoError(t, err)
	assert.Equal(t, -20.0, j.MarkupPercentage)
}
