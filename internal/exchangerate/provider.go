package exchangerate

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// Base is the currency every snapshot is expressed against.
const Base = "USD"

// DefaultTTL is how long a fetched table is served before a refetch.
const DefaultTTL = 30 * time.Minute

// DefaultFailureBackoff is how long quotes skip refreshing after a failed fetch.
const DefaultFailureBackoff = time.Minute

// Source tells which tier produced a rate.
type Source string

const (
	SourceIdentity Source = "identity"
	SourceLive     Source = "live"
	SourceStale    Source = "stale"
	SourceStatic   Source = "static"
	SourceNeutral  Source = "neutral"
)

// degradation orders sources from best to worst.
func (s Source) degradation() int {
	switch s {
	case SourceIdentity, SourceLive:
		return 0
	case SourceStale:
		return 1
	case SourceStatic:
		return 2
	default:
		return 3
	}
}

func worse(a, b Source) Source {
	if b.degradation() > a.degradation() {
		return b
	}
	return a
}

// Quote is a resolved rate: amountIn(To) = amountIn(From) * Rate.
type Quote struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Rate   float64 `json:"rate"`
	Source Source  `json:"source"`
}

// Snapshot is an immutable USD-relative rate table.
// Rates must not be modified after the snapshot is published.
type Snapshot struct {
	Rates     map[string]float64 `json:"rates"`
	FetchedAt time.Time          `json:"fetchedAt"`
}

// Provider serves rates from a cached live snapshot, falling back to the
// previous snapshot, then to the static pair table, then to 1.
type Provider struct {
	fetcher      Fetcher
	ttl          time.Duration
	fetchTimeout time.Duration
	backoff      time.Duration
	now          func() time.Time
	log          zerolog.Logger

	snapshot    atomic.Pointer[Snapshot]
	lastFailure atomic.Int64
	group       singleflight.Group
}

// Option configures a Provider.
type Option func(*Provider)

// WithFetcher replaces the default HTTP fetcher.
func WithFetcher(f Fetcher) Option {
	return func(p *Provider) { p.fetcher = f }
}

// WithTTL sets the snapshot validity window.
func WithTTL(ttl time.Duration) Option {
	return func(p *Provider) {
		if ttl > 0 {
			p.ttl = ttl
		}
	}
}

// WithFetchTimeout bounds each refresh.
func WithFetchTimeout(d time.Duration) Option {
	return func(p *Provider) {
		if d > 0 {
			p.fetchTimeout = d
		}
	}
}

// WithFailureBackoff sets how long Quote serves fallbacks without refetching
// after a failed refresh.
func WithFailureBackoff(d time.Duration) Option {
	return func(p *Provider) {
		if d >= 0 {
			p.backoff = d
		}
	}
}

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) { p.now = now }
}

// WithLogger sets the provider logger.
func WithLogger(log zerolog.Logger) Option {
	return func(p *Provider) { p.log = log }
}

// NewProvider creates a Provider. Without WithFetcher it reads DefaultURL.
func NewProvider(opts ...Option) *Provider {
	p := &Provider{
		ttl:          DefaultTTL,
		fetchTimeout: 10 * time.Second,
		backoff:      DefaultFailureBackoff,
		now:          time.Now,
		log:          zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.fetcher == nil {
		p.fetcher = NewHTTPFetcher(DefaultURL, p.fetchTimeout)
	}
	p.log = p.log.With().Str("component", "exchangerate").Logger()
	return p
}

// GetRate returns the multiplier converting an amount in from into to.
func (p *Provider) GetRate(ctx context.Context, from, to string) float64 {
	return p.Quote(ctx, from, to).Rate
}

// Quote resolves a rate and reports which tier served it.
func (p *Provider) Quote(ctx context.Context, from, to string) Quote {
	from = normalizeCode(from)
	to = normalizeCode(to)
	q := Quote{From: from, To: to}

	if from == to {
		q.Rate, q.Source = 1, SourceIdentity
		return q
	}

	snap, source := p.Current(ctx)
	if snap != nil {
		q.Rate, q.Source = snap.cross(from, to, source)
		return q
	}

	if rate, ok := StaticRate(from, to); ok {
		q.Rate, q.Source = rate, SourceStatic
		return q
	}

	p.log.Warn().Str("from", from).Str("to", to).Msg("No rate available, using neutral rate")
	q.Rate, q.Source = 1, SourceNeutral
	return q
}

// Current returns the snapshot to serve, refreshing it first when it is
// missing or expired. A nil snapshot means no live table was ever loaded.
// Within the failure backoff no refresh is attempted.
func (p *Provider) Current(ctx context.Context) (*Snapshot, Source) {
	snap := p.snapshot.Load()
	if snap != nil && p.now().Sub(snap.FetchedAt) < p.ttl {
		return snap, SourceLive
	}

	if p.backingOff() {
		if snap != nil {
			return snap, SourceStale
		}
		return nil, SourceStatic
	}

	fresh, err := p.Refresh(ctx)
	if err == nil {
		return fresh, SourceLive
	}

	if snap != nil {
		p.log.Warn().
			Err(err).
			Time("fetched_at", snap.FetchedAt).
			Msg("Rate refresh failed, serving stale snapshot")
		return snap, SourceStale
	}

	p.log.Warn().Err(err).Msg("Rate refresh failed, no snapshot available")
	return nil, SourceStatic
}

// Snapshot returns the published table without triggering a fetch.
func (p *Provider) Snapshot() *Snapshot {
	return p.snapshot.Load()
}

// Refresh fetches a new table and publishes it. Concurrent callers share one
// fetch. The fetch is detached from ctx cancellation but bounded by the fetch
// timeout.
func (p *Provider) Refresh(ctx context.Context) (*Snapshot, error) {
	v, err, _ := p.group.Do("rates", func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.fetchTimeout)
		defer cancel()

		rates, err := p.fetcher.FetchRates(fetchCtx)
		if err == nil && len(rates) == 0 {
			err = &RateFetchError{Err: errEmptyTable}
		}
		if err != nil {
			p.lastFailure.Store(p.now().UnixNano())
			return nil, err
		}

		snap := &Snapshot{Rates: rates, FetchedAt: p.now()}
		p.snapshot.Store(snap)
		p.lastFailure.Store(0)
		p.log.Info().Int("currencies", len(rates)).Msg("Exchange rates refreshed")
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

func (p *Provider) backingOff() bool {
	failed := p.lastFailure.Load()
	return failed != 0 && p.now().Sub(time.Unix(0, failed)) < p.backoff
}

// cross computes from->to through USD. Codes missing from the table are
// substituted from the static table and the returned source is downgraded to
// match. A pair with an unknown leg is neutral.
func (s *Snapshot) cross(from, to string, source Source) (float64, Source) {
	fromRate, fromSrc := s.usdRate(from, source)
	toRate, toSrc := s.usdRate(to, source)
	if fromSrc == SourceNeutral || toSrc == SourceNeutral {
		return 1, SourceNeutral
	}
	source = worse(worse(source, fromSrc), toSrc)

	switch {
	case from == Base:
		return toRate, source
	case to == Base:
		return 1 / fromRate, source
	default:
		return (1 / fromRate) * toRate, source
	}
}

func (s *Snapshot) usdRate(code string, source Source) (float64, Source) {
	if code == Base {
		return 1, source
	}
	if rate, ok := s.Rates[code]; ok && rate > 0 {
		return rate, source
	}
	if rate, ok := staticUSDRate(code); ok {
		return rate, SourceStatic
	}
	return 1, SourceNeutral
}

// Rebase expresses the snapshot relative to base. Unknown bases return nil.
func (s *Snapshot) Rebase(base string) map[string]float64 {
	base = normalizeCode(base)
	if base == Base {
		out := make(map[string]float64, len(s.Rates))
		for code, rate := range s.Rates {
			out[code] = rate
		}
		return out
	}

	baseRate, ok := s.Rates[base]
	if !ok || baseRate <= 0 {
		return nil
	}
	out := make(map[string]float64, len(s.Rates)+1)
	for code, rate := range s.Rates {
		out[code] = rate / baseRate
	}
	out[Base] = 1 / baseRate
	out[base] = 1
	return out
}

// Convert multiplies amount by rate and rounds half away from zero to cents.
func Convert(amount, rate float64) float64 {
	return decimal.NewFromFloat(amount).
		Mul(decimal.NewFromFloat(rate)).
		Round(2).
		InexactFloat64()
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
