package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"gnosislens-api/internal/analyzer"
	"gnosislens-api/internal/model"
	"gnosislens-api/internal/repository"
	"gnosislens-api/pkg/uid"
)

// Persistence operations reported in PersistenceError.Op.
const (
	OpSavePurchase      = "save_purchase"
	OpUpsertMarketPrice = "upsert_market_price"
)

// PersistenceError is a failed best-effort write. It never fails a check.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// PurchaseAnalyzer judges a purchase description.
type PurchaseAnalyzer interface {
	Analyze(ctx context.Context, req analyzer.Request) (*analyzer.Analysis, error)
}

// ScamCheckRequest is one purchase submitted by a user.
type ScamCheckRequest struct {
	Text         string
	Country      string
	City         string
	HomeCurrency string
	UserID       string
	DisplayName  string
}

// PersistenceOutcome reports what happened to the writes behind a check.
type PersistenceOutcome struct {
	Saved         bool     `json:"saved"`
	MarketUpdated bool     `json:"marketUpdated"`
	Errors        []string `json:"errors,omitempty"`

	failures []*PersistenceError
}

// Failures returns the typed persistence errors.
func (o PersistenceOutcome) Failures() []*PersistenceError {
	return o.failures
}

// ScamCheckResult is the analysis returned to the caller.
type ScamCheckResult struct {
	Purchase    *model.PurchaseRecord `json:"purchase"`
	Persistence PersistenceOutcome    `json:"persistence"`
}

// ScamCheckService runs the analysis and records the result.
type ScamCheckService struct {
	analyzer       PurchaseAnalyzer
	repo           repository.PurchaseRepository
	persistTimeout time.Duration
	now            func() time.Time
	log            zerolog.Logger
}

// NewScamCheckService creates a new scam check service.
func NewScamCheckService(a PurchaseAnalyzer, repo repository.PurchaseRepository, persistTimeout time.Duration, log zerolog.Logger) *ScamCheckService {
	if persistTimeout <= 0 {
		persistTimeout = 10 * time.Second
	}
	return &ScamCheckService{
		analyzer:       a,
		repo:           repo,
		persistTimeout: persistTimeout,
		now:            time.Now,
		log:            log.With().Str("service", "scam_check").Logger(),
	}
}

// Check analyzes req and stores the purchase and its market report. Analysis
// errors are returned unchanged; write failures only show up in the
// result's Persistence outcome.
func (s *ScamCheckService) Check(ctx context.Context, req ScamCheckRequest) (*ScamCheckResult, error) {
	analysis, err := s.analyzer.Analyze(ctx, analyzer.Request{
		Text:         req.Text,
		Country:      req.Country,
		City:         req.City,
		DisplayName:  req.DisplayName,
		HomeCurrency: req.HomeCurrency,
	})
	if err != nil {
		return nil, err
	}

	p := analysis.Purchase
	p.ID = uid.NewRecordID()
	p.UserID = strings.TrimSpace(req.UserID)
	if p.UserID == "" {
		p.UserID = model.AnonymousUserID
	}
	p.CreatedAt = s.now().UTC()

	return &ScamCheckResult{
		Purchase:    p,
		Persistence: s.persist(ctx, p),
	}, nil
}

// persist runs both writes concurrently. They outlive a cancelled request
// but not the persist timeout.
func (s *ScamCheckService) persist(ctx context.Context, p *model.PurchaseRecord) PersistenceOutcome {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.persistTimeout)
	defer cancel()

	record := *p
	update := model.MarketPriceUpdateFrom(p)

	var (
		wg                 sync.WaitGroup
		saveErr, upsertErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, saveErr = s.repo.SavePurchase(ctx, &record)
	}()
	go func() {
		defer wg.Done()
		upsertErr = s.repo.UpsertMarketPrice(ctx, p.Country, p.ItemName, update)
	}()
	wg.Wait()

	out := PersistenceOutcome{Saved: saveErr == nil, MarketUpdated: upsertErr == nil}
	for _, pe := range []*PersistenceError{
		{Op: OpSavePurchase, Err: saveErr},
		{Op: OpUpsertMarketPrice, Err: upsertErr},
	} {
		if pe.Err == nil {
			continue
		}
		s.log.Error().
			Err(pe.Err).
			Bool("persistence_failed", true).
			Str("op", pe.Op).
			Str("purchase_id", p.ID).
			Str("user_id", p.UserID).
			Msg("Persistence failed")
		out.failures = append(out.failures, pe)
		out.Errors = append(out.Errors, pe.Op)
	}
	return out
}
