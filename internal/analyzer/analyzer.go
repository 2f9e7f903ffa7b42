// Package analyzer turns free-text purchase descriptions into judged,
// currency-normalised purchase records.
package analyzer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"gnosislens-api/internal/exchangerate"
	"gnosislens-api/internal/model"
	"gnosislens-api/internal/oracle"
)

// RateQuoter resolves exchange rates.
type RateQuoter interface {
	Quote(ctx context.Context, from, to string) exchangerate.Quote
}

// Request is one purchase to analyze.
type Request struct {
	Text         string
	Country      string
	City         string
	DisplayName  string
	HomeCurrency string
}

// Analysis is a judged purchase that has not been persisted yet.
type Analysis struct {
	Purchase *model.PurchaseRecord
	RawReply string
}

// Analyzer builds prompts, calls the oracle and validates its reply.
type Analyzer struct {
	oracle    oracle.Oracle
	rates     RateQuoter
	countries *CountryTable
	timeout   time.Duration
	log       zerolog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the analyzer logger.
func WithLogger(log zerolog.Logger) Option {
	return func(a *Analyzer) { a.log = log }
}

// WithCountryTable replaces the embedded country table.
func WithCountryTable(t *CountryTable) Option {
	return func(a *Analyzer) { a.countries = t }
}

// WithOracleTimeout bounds the whole oracle call, retries included.
func WithOracleTimeout(d time.Duration) Option {
	return func(a *Analyzer) { a.timeout = d }
}

// New creates an Analyzer.
func New(o oracle.Oracle, rates RateQuoter, opts ...Option) *Analyzer {
	a := &Analyzer{
		oracle:    o,
		rates:     rates,
		countries: defaultCountries,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.log = a.log.With().Str("component", "analyzer").Logger()
	return a
}

// Analyze judges req. Oracle failures are returned as *oracle.TransportError,
// unusable replies as *AnalysisParseError.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*Analysis, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("analyze: empty purchase text")
	}

	prompt, err := a.BuildPrompt(req)
	if err != nil {
		return nil, fmt.Errorf("build prompt: %w", err)
	}

	raw, err := a.generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}

	j, err := parseJudgment(raw)
	if err != nil {
		a.log.Warn().Err(err).Str("reply", truncate(raw, 500)).Msg("Oracle reply rejected")
		return nil, err
	}

	p := &model.PurchaseRecord{
		ItemName:          j.ItemName,
		PricePaid:         j.PricePaid,
		Currency:          j.Currency,
		Country:           orDefault(req.Country, model.UnknownLocation),
		City:              orDefault(req.City, model.UnknownLocation),
		FairPriceMin:      j.FairPriceMin,
		FairPriceMax:      j.FairPriceMax,
		MarkupPercentage:  j.MarkupPercentage,
		NarrativeResponse: j.NarrativeResponse,
		Advice:            j.Advice,
	}
	p.ApplyScore(j.FairnessScore)

	home := strings.ToUpper(strings.TrimSpace(req.HomeCurrency))
	if home != "" && home != p.Currency {
		p.CurrencyConversion = a.convert(ctx, p.PricePaid, p.Currency, home)
	}

	a.log.Debug().
		Str("item", p.ItemName).
		Int("score", p.FairnessScore).
		Str("label", string(p.PersonaLabel)).
		Msg("Purchase analyzed")

	return &Analysis{Purchase: p, RawReply: raw}, nil
}

func (a *Analyzer) generate(ctx context.Context, prompt string) (string, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	return a.oracle.Generate(ctx, prompt)
}

// convert always records a conversion, even when only the neutral rate is
// available. RateSource tells callers how trustworthy it is.
func (a *Analyzer) convert(ctx context.Context, amount float64, from, to string) *model.CurrencyConversion {
	q := a.quote(ctx, from, to)
	if q.Source == exchangerate.SourceNeutral {
		a.log.Warn().Str("from", from).Str("to", to).Msg("Conversion uses neutral rate")
	}
	return &model.CurrencyConversion{
		OriginalAmount:    amount,
		OriginalCurrency:  from,
		ConvertedAmount:   exchangerate.Convert(amount, q.Rate),
		ConvertedCurrency: to,
		ExchangeRate:      q.Rate,
		RateSource:        string(q.Source),
	}
}

// quote falls back to the static table if the provider panics.
func (a *Analyzer) quote(ctx context.Context, from, to string) (q exchangerate.Quote) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error().Interface("panic", r).Msg("Rate lookup panicked, using static table")
			q = exchangerate.Quote{From: from, To: to, Rate: 1, Source: exchangerate.SourceNeutral}
			if rate, ok := exchangerate.StaticRate(from, to); ok {
				q.Rate, q.Source = rate, exchangerate.SourceStatic
			}
		}
	}()
	return a.rates.Quote(ctx, from, to)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
