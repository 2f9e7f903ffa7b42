package model

import (
	"time"

	"gnosislens-api/internal/fairness"
)

// AnonymousUserID attributes purchases made without a session.
const AnonymousUserID = "anonymous"

// UnknownLocation is stored when the caller gives no city or country.
const UnknownLocation = "unknown"

// PurchaseRecord is one user-reported transaction together with its judgment.
type PurchaseRecord struct {
	ID                 string              `json:"id" bson:"_id"`
	UserID             string              `json:"userId" bson:"userId"`
	ItemName           string              `json:"itemName" bson:"itemName"`
	PricePaid          float64             `json:"pricePaid" bson:"pricePaid"`
	Currency           string              `json:"currency" bson:"currency"`
	Country            string              `json:"country" bson:"country"`
	City               string              `json:"city" bson:"city"`
	FairnessScore      int                 `json:"fairnessScore" bson:"fairnessScore"`
	PersonaLabel       fairness.Label      `json:"personaLabel" bson:"personaLabel"`
	Persona            fairness.Persona    `json:"persona" bson:"persona"`
	FairPriceMin       float64             `json:"fairPriceMin" bson:"fairPriceMin"`
	FairPriceMax       float64             `json:"fairPriceMax" bson:"fairPriceMax"`
	MarkupPercentage   float64             `json:"markupPercentage" bson:"markupPercentage"`
	CurrencyConversion *CurrencyConversion `json:"currencyConversion,omitempty" bson:"currencyConversion,omitempty"`
	NarrativeResponse  string              `json:"narrativeResponse,omitempty" bson:"narrativeResponse,omitempty"`
	Advice             string              `json:"advice,omitempty" bson:"advice,omitempty"`
	CreatedAt          time.Time           `json:"createdAt" bson:"createdAt"`
}

// ApplyScore sets the fairness score and the labels derived from it.
func (p *PurchaseRecord) ApplyScore(score int) {
	p.FairnessScore = score
	p.PersonaLabel = fairness.Classify(score)
	p.Persona = fairness.PersonaFor(p.PersonaLabel)
}

// Rate sources recorded on a CurrencyConversion.
const (
	RateSourceLive    = "live"
	RateSourceStale   = "stale"
	RateSourceStatic  = "static"
	RateSourceNeutral = "neutral"
)

// CurrencyConversion normalises a purchase into the user's home currency.
// ConvertedAmount = OriginalAmount * ExchangeRate, rounded to 2 decimals.
type CurrencyConversion struct {
	OriginalAmount    float64 `json:"originalAmount" bson:"originalAmount"`
	OriginalCurrency  string  `json:"originalCurrency" bson:"originalCurrency"`
	ConvertedAmount   float64 `json:"convertedAmount" bson:"convertedAmount"`
	ConvertedCurrency string  `json:"convertedCurrency" bson:"convertedCurrency"`
	ExchangeRate      float64 `json:"exchangeRate" bson:"exchangeRate"`
	RateSource        string  `json:"rateSource,omitempty" bson:"rateSource,omitempty"`
}

// Degraded reports whether the conversion used a neutral placeholder rate.
func (c *CurrencyConversion) Degraded() bool {
	return c != nil && c.RateSource == RateSourceNeutral
}
