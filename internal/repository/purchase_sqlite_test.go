package repository

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gnosislens-api/internal/fairness"
	"gnosislens-api/internal/model"
)

func newTestSQLite(t *testing.T) *SQLitePurchaseRepository {
	t.Helper()
	repo, err := NewSQLitePurchaseRepository(filepath.Join(t.TempDir(), "data", "test.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testPurchase(userID, item string, score int, createdAt time.Time) *model.PurchaseRecord {
	p := &model.PurchaseRecord{
		UserID:           userID,
		ItemName:         item,
		PricePaid:        12.5,
		Currency:         "EUR",
		Country:          "Italy",
		City:             "Rome",
		FairPriceMin:     8,
		FairPriceMax:     14,
		MarkupPercentage: 0,
		CreatedAt:        createdAt,
	}
	p.ApplyScore(score)
	return p
}

func TestSQLite_SaveAndHistory(t *testing.T) {
	repo := newTestSQLite(t)
	ctx := context.Background()
	base := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	for i, item := range []string{"pizza", "espresso", "gelato"} {
		_, err := repo.SavePurchase(ctx, testPurchase("u1", item, 20*i, base.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
	}
	_, err := repo.SavePurchase(ctx, testPurchase("u2", "taxi", 80, base))
	require.NoError(t, err)

	history, err := repo.GetPurchaseHistory(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "gelato", history[0].ItemName)
	assert.Equal(t, "espresso", history[1].ItemName)
	assert.Equal(t, fairness.LabelModerate, history[0].PersonaLabel)
	assert.Equal(t, fairness.PersonaApate, history[0].Persona)
	assert.True(t, history[0].CreatedAt.Equal(base.Add(2*time.Minute)))

	all, err := repo.ListPurchases(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	none, err := repo.ListPurchases(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLite_ConversionRoundTrip(t *testing.T) {
	repo := newTestSQLite(t)
	ctx := context.Background()

	p := testPurchase("u1", "water", 95, time.Time{})
	p.Currency = "EGP"
	p.CurrencyConversion = &model.CurrencyConversion{
		OriginalAmount:    50000,
		OriginalCurrency:  "EGP",
		ConvertedAmount:   1625,
		ConvertedCurrency: "USD",
		ExchangeRate:      0.0325,
		RateSource:        model.RateSourceStatic,
	}

	id, err := repo.SavePurchase(ctx, p)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.False(t, p.CreatedAt.IsZero())

	got, err := repo.GetPurchaseHistory(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].ID)
	require.NotNil(t, got[0].CurrencyConversion)
	assert.Equal(t, *p.CurrencyConversion, *got[0].CurrencyConversion)
}

func TestSQLite_UpsertMarketPriceAccumulates(t *testing.T) {
	repo := newTestSQLite(t)
	ctx := context.Background()

	first := model.MarketPriceUpdate{
		Currency: "EUR", FairPriceMin: 8, FairPriceMax: 14,
		Report: model.PriceReport{Price: 12, FairnessScore: 20, UserID: "u1"},
	}
	require.NoError(t, repo.UpsertMarketPrice(ctx, "Italy", "pizza", first))

	aggs, err := repo.GetMarketPrices(ctx, "Italy", "pizza")
	require.NoError(t, err)
	require.Len(t, aggs, 1)
	assert.Equal(t, int64(1), aggs[0].ReportCount)

	second := model.MarketPriceUpdate{
		Currency: "EUR", FairPriceMin: 9, FairPriceMax: 15,
		Report: model.PriceReport{Price: 25, FairnessScore: 65},
	}
	require.NoError(t, repo.UpsertMarketPrice(ctx, "Italy", "pizza", second))

	aggs, err = repo.GetMarketPrices(ctx, "Italy", "pizza")
	require.NoError(t, err)
	require.Len(t, aggs, 1)

	agg := aggs[0]
	assert.Equal(t, int64(2), agg.ReportCount)
	assert.Equal(t, 9.0, agg.FairPriceMin)
	assert.Equal(t, 15.0, agg.FairPriceMax)
	assert.Equal(t, model.MarketDataSource, agg.DataSource)
	require.Len(t, agg.PriceReports, 2)
	assert.Equal(t, 12.0, agg.PriceReports[0].Price)
	assert.Equal(t, 25.0, agg.PriceReports[1].Price)
	assert.Equal(t, model.AnonymousUserID, agg.PriceReports[1].UserID)
}

func TestSQLite_GetMarketPricesByCountry(t *testing.T) {
	repo := newTestSQLite(t)
	ctx := context.Background()

	update := model.MarketPriceUpdate{Currency: "EUR", Report: model.PriceReport{Price: 1}}
	require.NoError(t, repo.UpsertMarketPrice(ctx, "Italy", "pizza", update))
	require.NoError(t, repo.UpsertMarketPrice(ctx, "Italy", "espresso", update))
	require.NoError(t, repo.UpsertMarketPrice(ctx, "Spain", "paella", update))

	aggs, err := repo.GetMarketPrices(ctx, "Italy", "")
	require.NoError(t, err)
	require.Len(t, aggs, 2)
	assert.Equal(t, "espresso", aggs[0].ItemName)
	assert.Len(t, aggs[0].PriceReports, 1)

	aggs, err = repo.GetMarketPrices(ctx, "France", "")
	require.NoError(t, err)
	assert.Empty(t, aggs)
}

func TestSQLite_ConcurrentUpserts(t *testing.T) {
	repo := newTestSQLite(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			update := model.MarketPriceUpdate{Currency: "EUR", Report: model.PriceReport{Price: float64(i + 1)}}
			assert.NoError(t, repo.UpsertMarketPrice(ctx, "Italy", "pizza", update))
		}(i)
	}
	wg.Wait()

	aggs, err := repo.GetMarketPrices(ctx, "Italy", "pizza")
	require.NoError(t, err)
	require.Len(t, aggs, 1)
	assert.Equal(t, int64(20), aggs[0].ReportCount)
	assert.Len(t, aggs[0].PriceReports, 20)
}

func TestSQLite_StatsAndPing(t *testing.T) {
	repo := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, repo.Ping(ctx))
	_, err := repo.SavePurchase(ctx, testPurchase("u1", "pizza", 10, time.Time{}))
	require.NoError(t, err)

	stats, err := repo.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", stats["type"])
	assert.Equal(t, int64(1), stats["total_purchases"])
	assert.Equal(t, int64(1), stats["unique_users"])
}

func TestRebind(t *testing.T) {
	s := &sqlPurchaseStore{numbered: true}
	assert.Equal(t, "SELECT a FROM t WHERE x = $1 AND y = $2", s.rebind("SELECT a FROM t WHERE x = ? AND y = ?"))

	s.numbered = false
	assert.Equal(t, "x = ?", s.rebind("x = ?"))
}
