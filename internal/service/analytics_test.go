package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gnosislens-api/internal/cache"
	"gnosislens-api/internal/model"
)

func seed(repo *memRepo, userID string, score int, at time.Time) {
	p := model.PurchaseRecord{ID: at.String(), UserID: userID, ItemName: "taxi", Country: "Egypt", PricePaid: 100, CreatedAt: at}
	p.ApplyScore(score)
	repo.purchases = append(repo.purchases, p)
}

func TestAnalyticsService_UserAnalytics(t *testing.T) {
	repo := newMemRepo()
	svc := NewAnalyticsService(repo, nil, 0, zerolog.Nop())
	ctx := context.Background()

	_, err := svc.UserAnalytics(ctx, "u1")
	assert.ErrorIs(t, err, ErrNoData)

	seed(repo, "u1", 90, time.Now())
	seed(repo, "u2", 10, time.Now())

	got, err := svc.UserAnalytics(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.TotalPurchases)
	assert.Equal(t, 1, got.TotalScammed)
}

func TestAnalyticsService_HistoryLimits(t *testing.T) {
	repo := newMemRepo()
	svc := NewAnalyticsService(repo, nil, 0, zerolog.Nop())
	base := time.Now()
	for i := 0; i < 120; i++ {
		seed(repo, "u1", 10, base.Add(time.Duration(i)*time.Second))
	}

	got, err := svc.History(context.Background(), "u1", 0)
	require.NoError(t, err)
	assert.Len(t, got, DefaultHistoryLimit)

	got, err = svc.History(context.Background(), "u1", 500)
	require.NoError(t, err)
	assert.Len(t, got, MaxHistoryLimit)

	empty, err := svc.History(context.Background(), "nobody", 5)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestAnalyticsService_GlobalStatsCached(t *testing.T) {
	repo := newMemRepo()
	mem := cache.NewMemoryCache(0)
	defer mem.Close()
	svc := NewAnalyticsService(repo, mem, time.Minute, zerolog.Nop())
	ctx := context.Background()

	_, err := svc.GlobalStats(ctx)
	assert.ErrorIs(t, err, ErrNoData)

	svc.InvalidateGlobalStats(ctx)
	seed(repo, "u1", 75, time.Now())
	seed(repo, "u2", 25, time.Now())

	got, err := svc.GlobalStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, got.TotalPurchases)
	assert.Equal(t, map[string]int{"NEMESIS": 1, "DIKE": 1}, got.PersonaUsage)

	calls := repo.listCalls
	_, err = svc.GlobalStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, calls, repo.listCalls)
}

func TestAnalyticsService_PriceStatistics(t *testing.T) {
	repo := newMemRepo()
	svc := NewAnalyticsService(repo, nil, 0, zerolog.Nop())
	ctx := context.Background()

	_, err := svc.PriceStatistics(ctx, "Italy", "pizza")
	assert.ErrorIs(t, err, ErrNoData)

	for _, price := range []float64{10, 14} {
		require.NoError(t, repo.UpsertMarketPrice(ctx, "Italy", "pizza", model.MarketPriceUpdate{
			Currency: "EUR",
			Report:   model.PriceReport{Price: price, FairnessScore: 20},
		}))
	}

	got, err := svc.PriceStatistics(ctx, "Italy", "pizza")
	require.NoError(t, err)
	assert.Equal(t, 2, got.TotalReports)
	assert.Equal(t, 12.0, got.AveragePrice)

	markets, err := svc.MarketPrices(ctx, "Italy", "")
	require.NoError(t, err)
	require.Len(t, markets, 1)
	assert.Equal(t, int64(2), markets[0].ReportCount)
}
