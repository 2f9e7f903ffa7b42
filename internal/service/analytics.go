package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"gnosislens-api/internal/analytics"
	"gnosislens-api/internal/cache"
	"gnosislens-api/internal/model"
	"gnosislens-api/internal/repository"
)

// ErrNoData means the requested scope has no recorded purchases or reports.
var ErrNoData = errors.New("no data")

const globalStatsKey = "stats:global"

// History limits.
const (
	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 100
)

// AnalyticsService serves read-side statistics over the purchase store.
type AnalyticsService struct {
	repo     repository.PurchaseRepository
	cache    cache.Cache
	cacheTTL time.Duration
	log      zerolog.Logger
}

// NewAnalyticsService creates a new analytics service. A nil cache disables
// caching of global statistics.
func NewAnalyticsService(repo repository.PurchaseRepository, c cache.Cache, cacheTTL time.Duration, log zerolog.Logger) *AnalyticsService {
	return &AnalyticsService{
		repo:     repo,
		cache:    c,
		cacheTTL: cacheTTL,
		log:      log.With().Str("service", "analytics").Logger(),
	}
}

// UserAnalytics returns ErrNoData when the user has no purchases.
func (s *AnalyticsService) UserAnalytics(ctx context.Context, userID string) (*model.UserAnalytics, error) {
	records, err := s.repo.ListPurchases(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	out, ok := analytics.AggregateUser(userID, records)
	if !ok {
		return nil, ErrNoData
	}
	return out, nil
}

// ClampHistoryLimit maps a non-positive limit to DefaultHistoryLimit and
// caps it at MaxHistoryLimit.
func ClampHistoryLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		return MaxHistoryLimit
	}
	return limit
}

// History returns the newest purchases, see ClampHistoryLimit.
func (s *AnalyticsService) History(ctx context.Context, userID string, limit int) ([]model.PurchaseRecord, error) {
	records, err := s.repo.GetPurchaseHistory(ctx, userID, ClampHistoryLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("purchase history: %w", err)
	}
	if records == nil {
		records = []model.PurchaseRecord{}
	}
	return records, nil
}

// MarketPrices returns the aggregates for country, optionally one item.
func (s *AnalyticsService) MarketPrices(ctx context.Context, country, item string) ([]model.MarketPriceAggregate, error) {
	aggs, err := s.repo.GetMarketPrices(ctx, country, item)
	if err != nil {
		return nil, fmt.Errorf("market prices: %w", err)
	}
	if aggs == nil {
		aggs = []model.MarketPriceAggregate{}
	}
	return aggs, nil
}

// PriceStatistics returns ErrNoData when the item has no reports.
func (s *AnalyticsService) PriceStatistics(ctx context.Context, country, item string) (*model.PriceStatistics, error) {
	aggs, err := s.repo.GetMarketPrices(ctx, country, item)
	if err != nil {
		return nil, fmt.Errorf("market prices: %w", err)
	}
	out, ok := analytics.PriceStatistics(country, item, aggs)
	if !ok {
		return nil, ErrNoData
	}
	return out, nil
}

type globalStatsEntry struct {
	NoData bool                   `msgpack:"no_data"`
	Stats  *model.GlobalAnalytics `msgpack:"stats"`
}

// GlobalStats returns ErrNoData when nothing has been recorded yet.
// Results are cached for the configured TTL.
func (s *AnalyticsService) GlobalStats(ctx context.Context) (*model.GlobalAnalytics, error) {
	compute := func() ([]byte, error) {
		records, err := s.repo.ListPurchases(ctx, "")
		if err != nil {
			return nil, fmt.Errorf("list purchases: %w", err)
		}
		stats, ok := analytics.AggregateGlobal(records)
		return msgpack.Marshal(globalStatsEntry{NoData: !ok, Stats: stats})
	}

	var (
		raw []byte
		err error
	)
	if s.cache != nil && s.cacheTTL > 0 {
		raw, err = s.cache.GetOrSet(ctx, globalStatsKey, s.cacheTTL, compute)
	} else {
		raw, err = compute()
	}
	if err != nil {
		return nil, err
	}

	var entry globalStatsEntry
	if err := msgpack.Unmarshal(raw, &entry); err != nil {
		s.log.Warn().Err(err).Msg("Discarding unreadable cached stats")
		if s.cache != nil {
			_ = s.cache.Delete(ctx, globalStatsKey)
		}
		return nil, fmt.Errorf("decode global stats: %w", err)
	}
	if entry.NoData || entry.Stats == nil {
		return nil, ErrNoData
	}
	return entry.Stats, nil
}

// InvalidateGlobalStats drops the cached global statistics.
func (s *AnalyticsService) InvalidateGlobalStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, globalStatsKey); err != nil {
		s.log.Warn().Err(err).Msg("Failed to invalidate global stats")
	}
}
