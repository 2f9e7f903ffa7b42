package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"gnosislens-api/internal/model"
	"gnosislens-api/pkg/uid"
)

// sqlPurchaseStore holds the queries shared by the SQLite and PostgreSQL
// stores. Timestamps are stored as unix nanoseconds.
type sqlPurchaseStore struct {
	db     *sql.DB
	driver string
	// numbered placeholders ($1, $2) instead of ?
	numbered bool
	log      zerolog.Logger
}

const purchaseColumns = `id, user_id, item_name, price_paid, currency, country, city,
	fairness_score, persona_label, persona, fair_price_min, fair_price_max,
	markup_percentage, currency_conversion, narrative_response, advice, created_at`

func (s *sqlPurchaseStore) rebind(query string) string {
	if !s.numbered {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// SavePurchase implements PurchaseRepository.
func (s *sqlPurchaseStore) SavePurchase(ctx context.Context, p *model.PurchaseRecord) (string, error) {
	if p.ID == "" {
		p.ID = uid.NewRecordID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	var conversion sql.NullString
	if p.CurrencyConversion != nil {
		b, err := json.Marshal(p.CurrencyConversion)
		if err != nil {
			return "", fmt.Errorf("failed to encode conversion: %w", err)
		}
		conversion = sql.NullString{String: string(b), Valid: true}
	}

	query := s.rebind(`INSERT INTO purchases (` + purchaseColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := s.db.ExecContext(ctx, query,
		p.ID, p.UserID, p.ItemName, p.PricePaid, p.Currency, p.Country, p.City,
		p.FairnessScore, string(p.PersonaLabel), string(p.Persona), p.FairPriceMin, p.FairPriceMax,
		p.MarkupPercentage, conversion, p.NarrativeResponse, p.Advice, p.CreatedAt.UnixNano(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to save purchase: %w", err)
	}
	return p.ID, nil
}

// GetPurchaseHistory implements PurchaseRepository.
func (s *sqlPurchaseStore) GetPurchaseHistory(ctx context.Context, userID string, limit int) ([]model.PurchaseRecord, error) {
	query := s.rebind(`SELECT ` + purchaseColumns + ` FROM purchases
		WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`)
	return s.queryPurchases(ctx, query, userID, limit)
}

// ListPurchases implements PurchaseRepository.
func (s *sqlPurchaseStore) ListPurchases(ctx context.Context, userID string) ([]model.PurchaseRecord, error) {
	if userID == "" {
		return s.queryPurchases(ctx, `SELECT `+purchaseColumns+` FROM purchases ORDER BY created_at DESC, id DESC`)
	}
	query := s.rebind(`SELECT ` + purchaseColumns + ` FROM purchases
		WHERE user_id = ? ORDER BY created_at DESC, id DESC`)
	return s.queryPurchases(ctx, query, userID)
}

func (s *sqlPurchaseStore) queryPurchases(ctx context.Context, query string, args ...interface{}) ([]model.PurchaseRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query purchases: %w", err)
	}
	defer rows.Close()

	var out []model.PurchaseRecord
	for rows.Next() {
		var (
			p          model.PurchaseRecord
			label      string
			persona    string
			conversion sql.NullString
			narrative  sql.NullString
			advice     sql.NullString
			createdAt  int64
		)
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.ItemName, &p.PricePaid, &p.Currency, &p.Country, &p.City,
			&p.FairnessScore, &label, &persona, &p.FairPriceMin, &p.FairPriceMax,
			&p.MarkupPercentage, &conversion, &narrative, &advice, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}

		p.ApplyScore(p.FairnessScore)
		p.NarrativeResponse = narrative.String
		p.Advice = advice.String
		p.CreatedAt = time.Unix(0, createdAt).UTC()

		if conversion.Valid && conversion.String != "" {
			var c model.CurrencyConversion
			if err := json.Unmarshal([]byte(conversion.String), &c); err != nil {
				s.log.Warn().Err(err).Str("purchase_id", p.ID).Msg("Skipping unreadable conversion")
			} else {
				p.CurrencyConversion = &c
			}
		}

		out = append(out, p)
	}
	return out, rows.Err()
}

// UpsertMarketPrice implements PurchaseRepository. The aggregate row and its
// report are written in one transaction.
func (s *sqlPurchaseStore) UpsertMarketPrice(ctx context.Context, country, itemName string, update model.MarketPriceUpdate) error {
	now := time.Now().UTC()
	report := update.Report
	if report.Timestamp.IsZero() {
		report.Timestamp = now
	}
	if report.UserID == "" {
		report.UserID = model.AnonymousUserID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	upsert := s.rebind(`
		INSERT INTO market_prices (country, item_name, currency, fair_price_min, fair_price_max, last_updated, report_count, data_source)
		VALUES (?, ?, ?, ?, ?, ?, 1, ?)
		ON CONFLICT (country, item_name) DO UPDATE SET
			currency = excluded.currency,
			fair_price_min = excluded.fair_price_min,
			fair_price_max = excluded.fair_price_max,
			last_updated = excluded.last_updated,
			report_count = market_prices.report_count + 1,
			data_source = excluded.data_source`)
	if _, err := tx.ExecContext(ctx, upsert,
		country, itemName, update.Currency, update.FairPriceMin, update.FairPriceMax, now.UnixNano(), model.MarketDataSource,
	); err != nil {
		return fmt.Errorf("failed to upsert market price: %w", err)
	}

	insert := s.rebind(`
		INSERT INTO price_reports (country, item_name, price, fairness_score, reported_at, user_id)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if _, err := tx.ExecContext(ctx, insert,
		country, itemName, report.Price, report.FairnessScore, report.Timestamp.UnixNano(), report.UserID,
	); err != nil {
		return fmt.Errorf("failed to insert price report: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetMarketPrices implements PurchaseRepository.
func (s *sqlPurchaseStore) GetMarketPrices(ctx context.Context, country, itemName string) ([]model.MarketPriceAggregate, error) {
	where := ` WHERE country = ?`
	args := []interface{}{country}
	if itemName != "" {
		where += ` AND item_name = ?`
		args = append(args, itemName)
	}

	aggs, err := s.queryAggregates(ctx, s.rebind(`
		SELECT country, item_name, currency, fair_price_min, fair_price_max, last_updated, report_count, data_source
		FROM market_prices`+where+` ORDER BY item_name`), args...)
	if err != nil || len(aggs) == 0 {
		return aggs, err
	}

	reports, err := s.queryReports(ctx, s.rebind(`
		SELECT item_name, price, fairness_score, reported_at, user_id
		FROM price_reports`+where+` ORDER BY id`), args...)
	if err != nil {
		return nil, err
	}
	for i := range aggs {
		aggs[i].PriceReports = reports[aggs[i].ItemName]
		if aggs[i].PriceReports == nil {
			aggs[i].PriceReports = []model.PriceReport{}
		}
	}
	return aggs, nil
}

func (s *sqlPurchaseStore) queryAggregates(ctx context.Context, query string, args ...interface{}) ([]model.MarketPriceAggregate, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query market prices: %w", err)
	}
	defer rows.Close()

	var out []model.MarketPriceAggregate
	for rows.Next() {
		var agg model.MarketPriceAggregate
		var lastUpdated int64
		if err := rows.Scan(&agg.Country, &agg.ItemName, &agg.Currency, &agg.FairPriceMin, &agg.FairPriceMax,
			&lastUpdated, &agg.ReportCount, &agg.DataSource); err != nil {
			return nil, fmt.Errorf("failed to scan market price: %w", err)
		}
		agg.LastUpdated = time.Unix(0, lastUpdated).UTC()
		out = append(out, agg)
	}
	return out, rows.Err()
}

func (s *sqlPurchaseStore) queryReports(ctx context.Context, query string, args ...interface{}) (map[string][]model.PriceReport, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query price reports: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]model.PriceReport)
	for rows.Next() {
		var item string
		var r model.PriceReport
		var ts int64
		if err := rows.Scan(&item, &r.Price, &r.FairnessScore, &ts, &r.UserID); err != nil {
			return nil, fmt.Errorf("failed to scan price report: %w", err)
		}
		r.Timestamp = time.Unix(0, ts).UTC()
		out[item] = append(out[item], r)
	}
	return out, rows.Err()
}

// GetStats implements PurchaseRepository.
func (s *sqlPurchaseStore) GetStats(ctx context.Context) (map[string]interface{}, error) {
	stats := map[string]interface{}{"type": s.driver}
	for key, table := range map[string]string{
		"total_purchases":     "purchases",
		"total_market_prices": "market_prices",
		"total_price_reports": "price_reports",
	} {
		var n int64
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		stats[key] = n
	}

	var users int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT user_id) FROM purchases`).Scan(&users); err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	stats["unique_users"] = users
	return stats, nil
}

// Ping implements PurchaseRepository.
func (s *sqlPurchaseStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close implements PurchaseRepository.
func (s *sqlPurchaseStore) Close() error {
	return s.db.Close()
}
