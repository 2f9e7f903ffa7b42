package analyzer

import (
	"strings"
	"text/template"
)

var promptTemplate = template.Must(template.New("analyze").Parse(`You are GnosisLens, a tourist scam detection assistant that judges whether a purchase price was fair.

USER INPUT: {{printf "%q" .Text}}
USER: {{.DisplayName}}
LOCATION: {{.City}}, {{.Country}}
HOME CURRENCY: {{.HomeCurrency}}

EXTRACTION RULES:
1. ITEM NAME: the exact item mentioned, including quantity ("bottle of water", "2 t-shirts", "taxi ride").
2. PRICE: the amount paid as a number. Expand shorthand such as 50k to 50000.
3. CURRENCY: read symbols (€, $, £, ¥) or codes (USD, EUR, EGP). When none is given, infer it from the country:
{{- range .CountryLines}}
   * {{.}}
{{- end}}

EXAMPLES:
- "bottle of water for 50k egp" -> itemName "bottle of water", pricePaid 50000, currency "EGP"
- "taxi ride cost me 80 euros" -> itemName "taxi ride", pricePaid 80, currency "EUR"

FAIRNESS SCORE (integer 0-100, higher means more overpriced):
- 0-30: fair price
- 31-69: moderately overpriced
- 70-100: severely overpriced

EGYPT PRICING GUIDELINES:
- Water bottle: 5-15 EGP fair (score 10-25), 16-30 EGP moderate (score 40-60), 31+ EGP scam (score 70-95)
- Taxi rides: 20-50 EGP fair, 51-100 EGP moderate, 101+ EGP scam
- Restaurant meals: 100-300 EGP fair, 301-500 EGP moderate, 501+ EGP scam
Other countries: price proportionally to the local economy.
CONSISTENCY: the same input must always get the same score, within 5 points.

ADVICE: always start with the fair range, in this exact form:
"For [item] in [country], the fair price range is [min]-[max] [currency]." followed by practical tips.

NARRATIVE: a short reply to the user explaining the judgment.

Respond with ONLY valid JSON in this shape:
{
  "itemName": "exact item",
  "pricePaid": number,
  "currency": "ISO code",
  "fairnessScore": integer 0-100,
  "fairPriceMin": number,
  "fairPriceMax": number,
  "markupPercentage": number,
  "narrativeResponse": "reply to the user",
  "advice": "For [item] in [country], the fair price range is [min]-[max] [currency]. ..."
}`))

type promptData struct {
	Text         string
	DisplayName  string
	City         string
	Country      string
	HomeCurrency string
	CountryLines []string
}

// BuildPrompt renders the judgment prompt for req.
func (a *Analyzer) BuildPrompt(req Request) (string, error) {
	home := req.HomeCurrency
	if home == "" {
		home = "not specified"
	}
	data := promptData{
		Text:         req.Text,
		DisplayName:  orDefault(req.DisplayName, "traveler"),
		City:         orDefault(req.City, "unknown"),
		Country:      orDefault(req.Country, "unknown"),
		HomeCurrency: home,
		CountryLines: a.countries.PromptLines(),
	}

	var sb strings.Builder
	if err := promptTemplate.Execute(&sb, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return strings.TrimSpace(s)
}
