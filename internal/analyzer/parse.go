package analyzer

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"
)

// AnalysisParseError means the oracle replied but the reply was unusable.
type AnalysisParseError struct {
	Reason string
	Raw    string
	Err    error
}

func (e *AnalysisParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("analysis parse: %s: %v", e.Reason, e.Err)
	}
	return "analysis parse: " + e.Reason
}

func (e *AnalysisParseError) Unwrap() error { return e.Err }

var fencePattern = regexp.MustCompile("```(?:json|JSON)?[ \t]*\n?|\n?```")

// stripFences removes markdown code fences and any prose around the outermost
// JSON object.
func stripFences(text string) (string, bool) {
	text = strings.TrimSpace(fencePattern.ReplaceAllString(text, ""))
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return "", false
	}
	return text[start : end+1], true
}

// judgment is the oracle reply. Pointer fields are required.
// scamScore, response and selectedGoddess are accepted as legacy names.
type judgment struct {
	ItemName          *string  `json:"itemName"`
	PricePaid         *float64 `json:"pricePaid"`
	Currency          *string  `json:"currency"`
	FairnessScore     *float64 `json:"fairnessScore"`
	ScamScore         *float64 `json:"scamScore"`
	FairPriceMin      *float64 `json:"fairPriceMin"`
	FairPriceMax      *float64 `json:"fairPriceMax"`
	MarkupPercentage  *float64 `json:"markupPercentage"`
	NarrativeResponse string   `json:"narrativeResponse"`
	Response          string   `json:"response"`
	Advice            string   `json:"advice"`
	PersonaLabel      string   `json:"personaLabel"`
	SelectedGoddess   string   `json:"selectedGoddess"`

	CurrencyConversion json.RawMessage `json:"currencyConversion"`
}

var currencyCode = regexp.MustCompile(`^[A-Z]{3}$`)

// validated holds a judgment that passed every check.
type validated struct {
	ItemName          string
	PricePaid         float64
	Currency          string
	FairnessScore     int
	FairPriceMin      float64
	FairPriceMax      float64
	MarkupPercentage  float64
	NarrativeResponse string
	Advice            string
}

func parseJudgment(raw string) (*validated, error) {
	body, ok := stripFences(raw)
	if !ok {
		return nil, &AnalysisParseError{Reason: "no JSON object in reply", Raw: raw}
	}

	var j judgment
	if err := json.Unmarshal([]byte(body), &j); err != nil {
		return nil, &AnalysisParseError{Reason: "invalid JSON", Raw: raw, Err: err}
	}

	fail := func(reason string) error {
		return &AnalysisParseError{Reason: reason, Raw: raw}
	}

	if j.ItemName == nil || strings.TrimSpace(*j.ItemName) == "" {
		return nil, fail("itemName is required")
	}
	if j.PricePaid == nil {
		return nil, fail("pricePaid is required")
	}
	if *j.PricePaid <= 0 || math.IsInf(*j.PricePaid, 0) {
		return nil, fail("pricePaid must be positive")
	}
	if j.Currency == nil {
		return nil, fail("currency is required")
	}
	currency := strings.ToUpper(strings.TrimSpace(*j.Currency))
	if !currencyCode.MatchString(currency) {
		return nil, fail(fmt.Sprintf("currency %q is not a 3-letter code", *j.Currency))
	}

	score := j.FairnessScore
	if score == nil {
		score = j.ScamScore
	}
	if score == nil {
		return nil, fail("fairnessScore is required")
	}
	if *score != math.Trunc(*score) {
		return nil, fail("fairnessScore must be an integer")
	}
	if *score < 0 || *score > 100 {
		return nil, fail("fairnessScore must be within 0-100")
	}

	if j.FairPriceMin == nil || j.FairPriceMax == nil {
		return nil, fail("fairPriceMin and fairPriceMax are required")
	}
	if *j.FairPriceMin > *j.FairPriceMax {
		return nil, fail("fairPriceMin exceeds fairPriceMax")
	}
	if j.MarkupPercentage == nil {
		return nil, fail("markupPercentage is required")
	}

	narrative := j.NarrativeResponse
	if narrative == "" {
		narrative = j.Response
	}

	return &validated{
		ItemName:          strings.TrimSpace(*j.ItemName),
		PricePaid:         *j.PricePaid,
		Currency:          currency,
		FairnessScore:     int(*score),
		FairPriceMin:      *j.FairPriceMin,
		FairPriceMax:      *j.FairPriceMax,
		MarkupPercentage:  *j.MarkupPercentage,
		NarrativeResponse: narrative,
		Advice:            j.Advice,
	}, nil
}
