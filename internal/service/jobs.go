package service

import (
	"context"
	"errors"

	"gnosislens-api/internal/exchangerate"
)

// RateRefreshJob keeps the exchange-rate snapshot warm between requests.
type RateRefreshJob struct {
	provider *exchangerate.Provider
}

// NewRateRefreshJob creates a new rate refresh job.
func NewRateRefreshJob(p *exchangerate.Provider) *RateRefreshJob {
	return &RateRefreshJob{provider: p}
}

// Name implements scheduler.Job.
func (j *RateRefreshJob) Name() string { return "exchange_rate_refresh" }

// Run implements scheduler.Job.
func (j *RateRefreshJob) Run(ctx context.Context) error {
	_, err := j.provider.Refresh(ctx)
	return err
}

// StatsWarmJob recomputes the cached global statistics so public reads
// rarely pay for a full scan.
type StatsWarmJob struct {
	analytics *AnalyticsService
}

// NewStatsWarmJob creates a new stats warm-up job.
func NewStatsWarmJob(a *AnalyticsService) *StatsWarmJob {
	return &StatsWarmJob{analytics: a}
}

// Name implements scheduler.Job.
func (j *StatsWarmJob) Name() string { return "global_stats_warm" }

// Run implements scheduler.Job. An empty store is not an error.
func (j *StatsWarmJob) Run(ctx context.Context) error {
	j.analytics.InvalidateGlobalStats(ctx)
	if _, err := j.analytics.GlobalStats(ctx); err != nil && !errors.Is(err, ErrNoData) {
		return err
	}
	return nil
}
