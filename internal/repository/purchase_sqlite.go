package repository

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// SQLitePurchaseRepository implements PurchaseRepository using SQLite.
type SQLitePurchaseRepository struct {
	sqlPurchaseStore
}

var _ PurchaseRepository = (*SQLitePurchaseRepository)(nil)

// NewSQLitePurchaseRepository opens (and creates if needed) the database at dbPath.
func NewSQLitePurchaseRepository(dbPath string, log zerolog.Logger) (*SQLitePurchaseRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	// SQLite only supports 1 writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := createSQLiteTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log = log.With().Str("component", "sqlite_store").Logger()
	log.Info().Str("path", dbPath).Msg("SQLite purchase store initialized")

	return &SQLitePurchaseRepository{sqlPurchaseStore{db: db, driver: "sqlite", log: log}}, nil
}

func createSQLiteTables(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS purchases (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		item_name TEXT NOT NULL,
		price_paid REAL NOT NULL,
		currency TEXT NOT NULL,
		country TEXT NOT NULL,
		city TEXT NOT NULL,
		fairness_score INTEGER NOT NULL,
		persona_label TEXT NOT NULL,
		persona TEXT NOT NULL,
		fair_price_min REAL NOT NULL,
		fair_price_max REAL NOT NULL,
		markup_percentage REAL NOT NULL,
		currency_conversion TEXT,
		narrative_response TEXT,
		advice TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_purchases_user_created ON purchases(user_id, created_at);

	CREATE TABLE IF NOT EXISTS market_prices (
		country TEXT NOT NULL,
		item_name TEXT NOT NULL,
		currency TEXT NOT NULL,
		fair_price_min REAL NOT NULL,
		fair_price_max REAL NOT NULL,
		last_updated INTEGER NOT NULL,
		report_count INTEGER NOT NULL DEFAULT 0,
		data_source TEXT NOT NULL,
		PRIMARY KEY (country, item_name)
	);

	CREATE TABLE IF NOT EXISTS price_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		country TEXT NOT NULL,
		item_name TEXT NOT NULL,
		price REAL NOT NULL,
		fairness_score INTEGER NOT NULL,
		reported_at INTEGER NOT NULL,
		user_id TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_price_reports_item ON price_reports(country, item_name);
	`
	_, err := db.Exec(query)
	return err
}
