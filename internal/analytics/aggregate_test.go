package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gnosislens-api/internal/fairness"
	"gnosislens-api/internal/model"
)

func purchase(country string, score int, price float64, conv *model.CurrencyConversion) model.PurchaseRecord {
	p := model.PurchaseRecord{
		UserID:             "u1",
		ItemName:           "item",
		PricePaid:          price,
		Currency:           "EGP",
		Country:            country,
		CurrencyConversion: conv,
	}
	p.ApplyScore(score)
	return p
}

func TestAggregateUser_EmptyIsNoData(t *testing.T) {
	got, ok := AggregateUser("u1", nil)
	assert.False(t, ok)
	assert.Nil(t, got)

	g, ok := AggregateGlobal([]model.PurchaseRecord{})
	assert.False(t, ok)
	assert.Nil(t, g)
}

func TestAggregateUser(t *testing.T) {
	records := []model.PurchaseRecord{
		purchase("Egypt", 95, 50000, &model.CurrencyConversion{ConvertedCurrency: "USD", ExchangeRate: 0.0325}),
		purchase("Egypt", 10, 10, &model.CurrencyConversion{ConvertedCurrency: "USD", ExchangeRate: 0.0325}),
		purchase("Italy", 30, 12, nil),
		purchase("Italy", 50, 20, nil),
	}

	got, ok := AggregateUser("u1", records)
	require.True(t, ok)

	assert.Equal(t, 4, got.TotalPurchases)
	assert.InDelta(t, 1625+0.33+12+20, got.TotalSpent, 0.01)
	assert.Equal(t, 46.25, got.AverageFairnessScore)
	assert.Equal(t, 95, got.HighestFairnessScore)
	assert.Equal(t, 10, got.LowestFairnessScore)
	assert.Equal(t, []string{"Egypt", "Italy"}, got.Countries)
	assert.Equal(t, []string{"APATE", "DIKE", "NEMESIS"}, got.Personas)

	// 30 counts as neither.
	assert.Equal(t, 2, got.TotalScammed)
	assert.Equal(t, 1, got.TotalFairDeals)

	assert.Equal(t, fairness.LabelModerate, got.Insights.RiskLevel)
	assert.Equal(t, 50, got.Insights.ScamPercentage)
	assert.Equal(t, 25, got.Insights.FairDealPercentage)
	assert.Equal(t, 5.0, got.Insights.EstimatedMoneySaved)
	assert.Equal(t, "Egypt", got.Insights.MostScammedCountry)
	assert.Equal(t, fairness.PersonaDike, got.Insights.FavoritePersona)
}

func TestAggregateUser_TotalSpentOnlyConvertsToUSD(t *testing.T) {
	toEGP := purchase("Italy", 50, 100, &model.CurrencyConversion{
		OriginalCurrency:  "USD",
		ConvertedCurrency: "EGP",
		ExchangeRate:      30.8,
	})
	toUSD := purchase("Italy", 50, 20, &model.CurrencyConversion{
		OriginalCurrency:  "EUR",
		ConvertedCurrency: "USD",
		ExchangeRate:      1.1,
	})

	got, ok := AggregateUser("u1", []model.PurchaseRecord{toEGP})
	require.True(t, ok)
	assert.Equal(t, 100.0, got.TotalSpent)

	got, ok = AggregateUser("u1", []model.PurchaseRecord{toEGP, toUSD})
	require.True(t, ok)
	assert.InDelta(t, 122.0, got.TotalSpent, 0.001)
}

func TestAggregateUser_ThresholdAsymmetry(t *testing.T) {
	records := []model.PurchaseRecord{
		purchase("Spain", 29, 1, nil),
		purchase("Spain", 30, 1, nil),
		purchase("Spain", 31, 1, nil),
	}

	got, ok := AggregateUser("u1", records)
	require.True(t, ok)
	assert.Equal(t, 1, got.TotalFairDeals)
	assert.Equal(t, 1, got.TotalScammed)
	assert.Equal(t, 33, got.Insights.FairDealPercentage)
	assert.Equal(t, fairness.LabelFair, got.Insights.RiskLevel)
}

func TestAggregateUser_PersonasDerivedFromScore(t *testing.T) {
	r := purchase("Japan", 80, 1000, nil)
	r.Persona = fairness.PersonaThemis

	got, ok := AggregateUser("u1", []model.PurchaseRecord{r})
	require.True(t, ok)
	assert.Equal(t, []string{"NEMESIS"}, got.Personas)
}

func TestAggregateGlobal(t *testing.T) {
	records := []model.PurchaseRecord{
		purchase("Egypt", 80, 1, nil),
		purchase("Egypt", 60, 1, nil),
		purchase("Thailand", 20, 1, nil),
		purchase("Thailand", 90, 1, nil),
		purchase("Spain", 5, 1, nil),
	}

	got, ok := AggregateGlobal(records)
	require.True(t, ok)

	assert.Equal(t, 5, got.TotalPurchases)
	assert.Equal(t, 51.0, got.AverageFairnessScore)
	assert.Equal(t, 90, got.HighestFairnessScore)
	assert.Equal(t, 5, got.LowestFairnessScore)
	assert.Equal(t, 3, got.TotalScammed)
	assert.Equal(t, 2, got.TotalFairDeals)
	assert.Equal(t, []string{"Egypt", "Spain", "Thailand"}, got.Countries)
	assert.Equal(t, map[string]int{"NEMESIS": 2, "APATE": 1, "DIKE": 2}, got.PersonaUsage)
	require.Len(t, got.CountryScores, 3)
	assert.Equal(t, model.CountryScore{Country: "Egypt", Purchases: 2, AverageFairnessScore: 70}, got.CountryScores[0])
	assert.Equal(t, "Egypt", got.MostScammedCountry)
}

func TestPriceStatistics(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	var reports []model.PriceReport
	for i := 0; i < 12; i++ {
		reports = append(reports, model.PriceReport{
			Price:         float64(10 + i),
			FairnessScore: 20 + i,
			Timestamp:     base.Add(time.Duration(i) * time.Hour),
			UserID:        "u",
		})
	}
	aggs := []model.MarketPriceAggregate{{Country: "Italy", ItemName: "pizza", Currency: "EUR", PriceReports: reports, LastUpdated: base}}

	got, ok := PriceStatistics("Italy", "pizza", aggs)
	require.True(t, ok)

	assert.Equal(t, "EUR", got.Currency)
	assert.Equal(t, 12, got.TotalReports)
	assert.Equal(t, 15.5, got.AveragePrice)
	assert.Equal(t, 10.0, got.MinPrice)
	assert.Equal(t, 21.0, got.MaxPrice)
	assert.Equal(t, 25.5, got.AverageFairnessScore)
	assert.InDelta(t, 3.61, got.StandardDeviation, 0.01)
	require.Len(t, got.RecentReports, RecentReportLimit)
	assert.Equal(t, 21.0, got.RecentReports[0].Price)
	assert.Equal(t, 12.0, got.RecentReports[9].Price)
}

func TestPriceStatistics_NoReports(t *testing.T) {
	_, ok := PriceStatistics("Italy", "pizza", nil)
	assert.False(t, ok)

	_, ok = PriceStatistics("Italy", "pizza", []model.MarketPriceAggregate{{Country: "Italy"}})
	assert.False(t, ok)
}

func TestPriceStatistics_SingleReport(t *testing.T) {
	aggs := []model.MarketPriceAggregate{{
		Currency:     "EUR",
		PriceReports: []model.PriceReport{{Price: 9, FairnessScore: 15}},
	}}
	got, ok := PriceStatistics("Italy", "pizza", aggs)
	require.True(t, ok)
	assert.Equal(t, 0.0, got.StandardDeviation)
	assert.Equal(t, 9.0, got.AveragePrice)
}
