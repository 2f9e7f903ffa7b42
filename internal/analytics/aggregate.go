// Package analytics derives user, global and price statistics from stored
// purchases. All functions are pure and report false when there is no data.
package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"gnosislens-api/internal/exchangerate"
	"gnosislens-api/internal/fairness"
	"gnosislens-api/internal/model"
)

// MoneySavedPerFairDeal is the flat USD estimate credited for each fair deal.
const MoneySavedPerFairDeal = 5.0

// RecentReportLimit caps PriceStatistics.RecentReports.
const RecentReportLimit = 10

// AggregateUser summarises one user's purchases.
//
// TotalSpent adds PricePaid*ExchangeRate for purchases converted to USD and
// the native PricePaid otherwise, so it mixes currencies when a user never set
// USD as home currency.
func AggregateUser(userID string, records []model.PurchaseRecord) (*model.UserAnalytics, bool) {
	if len(records) == 0 {
		return nil, false
	}

	scores := scoresOf(records)
	spent := decimal.Zero
	for _, r := range records {
		amount := decimal.NewFromFloat(r.PricePaid)
		if r.CurrencyConversion != nil && r.CurrencyConversion.ConvertedCurrency == exchangerate.Base {
			amount = amount.Mul(decimal.NewFromFloat(r.CurrencyConversion.ExchangeRate))
		}
		spent = spent.Add(amount)
	}

	highest, lowest := extremes(records)
	scammed, fair := countTiers(records)
	avg := stat.Mean(scores, nil)

	out := &model.UserAnalytics{
		UserID:               userID,
		TotalPurchases:       len(records),
		TotalSpent:           spent.Round(2).InexactFloat64(),
		AverageFairnessScore: round2(avg),
		HighestFairnessScore: highest,
		LowestFairnessScore:  lowest,
		Countries:            distinctCountries(records),
		Personas:             distinctPersonas(records),
		TotalScammed:         scammed,
		TotalFairDeals:       fair,
	}

	out.Insights = model.Insights{
		RiskLevel:           fairness.Classify(int(math.Round(avg))),
		ScamPercentage:      percentage(scammed, len(records)),
		FairDealPercentage:  percentage(fair, len(records)),
		EstimatedMoneySaved: float64(fair) * MoneySavedPerFairDeal,
		MostScammedCountry:  mostScammedCountry(countryScores(records)),
		FavoritePersona:     favoritePersona(personaUsage(records)),
	}

	return out, true
}

// AggregateGlobal summarises every purchase.
func AggregateGlobal(records []model.PurchaseRecord) (*model.GlobalAnalytics, bool) {
	if len(records) == 0 {
		return nil, false
	}

	highest, lowest := extremes(records)
	scammed, fair := countTiers(records)
	perCountry := countryScores(records)

	return &model.GlobalAnalytics{
		TotalPurchases:       len(records),
		AverageFairnessScore: round2(stat.Mean(scoresOf(records), nil)),
		HighestFairnessScore: highest,
		LowestFairnessScore:  lowest,
		TotalScammed:         scammed,
		TotalFairDeals:       fair,
		Countries:            distinctCountries(records),
		PersonaUsage:         personaUsage(records),
		CountryScores:        perCountry,
		MostScammedCountry:   mostScammedCountry(perCountry),
	}, true
}

// PriceStatistics summarises every report across the given aggregates.
func PriceStatistics(country, itemName string, aggregates []model.MarketPriceAggregate) (*model.PriceStatistics, bool) {
	var reports []model.PriceReport
	var currency string
	var latest time.Time
	for _, agg := range aggregates {
		reports = append(reports, agg.PriceReports...)
		if currency == "" || agg.LastUpdated.After(latest) {
			currency, latest = agg.Currency, agg.LastUpdated
		}
	}
	if len(reports) == 0 {
		return nil, false
	}

	prices := make([]float64, len(reports))
	scores := make([]float64, len(reports))
	minPrice, maxPrice := math.Inf(1), math.Inf(-1)
	for i, r := range reports {
		prices[i] = r.Price
		scores[i] = float64(r.FairnessScore)
		minPrice = math.Min(minPrice, r.Price)
		maxPrice = math.Max(maxPrice, r.Price)
	}

	stddev := 0.0
	if len(prices) > 1 {
		stddev = stat.StdDev(prices, nil)
	}

	recent := make([]model.PriceReport, len(reports))
	copy(recent, reports)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].Timestamp.After(recent[j].Timestamp)
	})
	if len(recent) > RecentReportLimit {
		recent = recent[:RecentReportLimit]
	}

	return &model.PriceStatistics{
		Country:              country,
		ItemName:             itemName,
		Currency:             currency,
		AveragePrice:         round2(stat.Mean(prices, nil)),
		MinPrice:             minPrice,
		MaxPrice:             maxPrice,
		StandardDeviation:    round2(stddev),
		TotalReports:         len(reports),
		AverageFairnessScore: round2(stat.Mean(scores, nil)),
		RecentReports:        recent,
	}, true
}

func scoresOf(records []model.PurchaseRecord) []float64 {
	scores := make([]float64, len(records))
	for i, r := range records {
		scores[i] = float64(r.FairnessScore)
	}
	return scores
}

func extremes(records []model.PurchaseRecord) (highest, lowest int) {
	highest, lowest = records[0].FairnessScore, records[0].FairnessScore
	for _, r := range records[1:] {
		if r.FairnessScore > highest {
			highest = r.FairnessScore
		}
		if r.FairnessScore < lowest {
			lowest = r.FairnessScore
		}
	}
	return highest, lowest
}

func countTiers(records []model.PurchaseRecord) (scammed, fair int) {
	for _, r := range records {
		if fairness.IsScammed(r.FairnessScore) {
			scammed++
		}
		if fairness.IsFairDeal(r.FairnessScore) {
			fair++
		}
	}
	return scammed, fair
}

func distinctCountries(records []model.PurchaseRecord) []string {
	seen := make(map[string]struct{})
	for _, r := range records {
		seen[r.Country] = struct{}{}
	}
	return sortedKeys(seen)
}

// distinctPersonas is derived from scores, not from the stored persona field.
func distinctPersonas(records []model.PurchaseRecord) []string {
	seen := make(map[string]struct{})
	for _, r := range records {
		seen[string(fairness.PersonaForScore(r.FairnessScore))] = struct{}{}
	}
	return sortedKeys(seen)
}

func personaUsage(records []model.PurchaseRecord) map[string]int {
	usage := make(map[string]int)
	for _, r := range records {
		usage[string(fairness.PersonaForScore(r.FairnessScore))]++
	}
	return usage
}

func countryScores(records []model.PurchaseRecord) []model.CountryScore {
	type acc struct {
		n   int
		sum float64
	}
	byCountry := make(map[string]*acc)
	for _, r := range records {
		a, ok := byCountry[r.Country]
		if !ok {
			a = &acc{}
			byCountry[r.Country] = a
		}
		a.n++
		a.sum += float64(r.FairnessScore)
	}

	out := make([]model.CountryScore, 0, len(byCountry))
	for country, a := range byCountry {
		out = append(out, model.CountryScore{
			Country:              country,
			Purchases:            a.n,
			AverageFairnessScore: round2(a.sum / float64(a.n)),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Country < out[j].Country })
	return out
}

// mostScammedCountry picks the highest mean score; ties go to the first name
// alphabetically. scores must be sorted by country.
func mostScammedCountry(scores []model.CountryScore) string {
	best := ""
	bestScore := -1.0
	for _, s := range scores {
		if s.AverageFairnessScore > bestScore {
			best, bestScore = s.Country, s.AverageFairnessScore
		}
	}
	return best
}

func favoritePersona(usage map[string]int) fairness.Persona {
	best, bestCount := "", 0
	for _, name := range sortedKeys(usage) {
		if usage[name] > bestCount {
			best, bestCount = name, usage[name]
		}
	}
	return fairness.Persona(best)
}

func percentage(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

func round2(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return decimal.NewFromFloat(x).Round(2).InexactFloat64()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
