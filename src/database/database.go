package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"
)

// DBTX is the only surface the loaders and the upsert engine need from the store:
// run a parameterized command (affected rows) or a query (record set).
// *sql.DB and *sql.Tx both satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open opens the sqlite store and makes sure every table exists.
func Open(ctx context.Context, databasePath string, log *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", databasePath, err)
	}
	// sqlite serialises writers anyway; a single connection also keeps
	// in-memory databases alive across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy_timeout: %w", err)
	}

	log.Info("Checking database migrations", "databasePath", databasePath)
	if err := Migrate(ctx, db, log); err != nil {
		db.Close()
		return nil, err
	}
	log.Info("Database tables ensured/created.")
	return db, nil
}

// Migrate creates the schema and adds columns introduced after the first release.
func Migrate(ctx context.Context, db *sql.DB, log *slog.Logger) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return migrateColumns(ctx, db, log)
}

const schema = `
CREATE TABLE IF NOT EXISTS stations (
	pv TEXT PRIMARY KEY,
	description TEXT,
	promo_enabled BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS articles (
	code TEXT PRIMARY KEY,
	description TEXT
);

CREATE TABLE IF NOT EXISTS sellin_articles (
	sellin_code TEXT PRIMARY KEY,
	article_code TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS card_types (
	code TEXT PRIMARY KEY,
	description TEXT,
	tentative BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS fixed_discounts (
	pv TEXT NOT NULL,
	article_code TEXT NOT NULL,
	effective_date TEXT NOT NULL,
	fixed BOOLEAN NOT NULL DEFAULT FALSE,
	PRIMARY KEY (pv, article_code, effective_date)
);

CREATE TABLE IF NOT EXISTS competitors (
	brand TEXT NOT NULL,
	address TEXT NOT NULL,
	observatory_id TEXT,
	PRIMARY KEY (brand, address)
);

CREATE TABLE IF NOT EXISTS delivered (
	pv TEXT NOT NULL,
	sellin_code TEXT NOT NULL,
	delivery_date TEXT NOT NULL,
	article_code TEXT NOT NULL,
	quantity TEXT NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP,
	PRIMARY KEY (pv, sellin_code, delivery_date)
);

CREATE TABLE IF NOT EXISTS ordered (
	pv TEXT NOT NULL,
	article_code TEXT NOT NULL,
	order_date TEXT NOT NULL,
	quantity TEXT NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP,
	PRIMARY KEY (pv, article_code, order_date)
);

CREATE TABLE IF NOT EXISTS promo_cards (
	pv TEXT NOT NULL,
	promo_date TEXT NOT NULL,
	baptisms INTEGER,
	active_transactions INTEGER,
	eligible INTEGER,
	redeemed INTEGER,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP,
	PRIMARY KEY (pv, promo_date)
);

CREATE TABLE IF NOT EXISTS trading_area (
	area_date TEXT NOT NULL,
	pv TEXT NOT NULL,
	article_code TEXT NOT NULL,
	brand TEXT NOT NULL,
	address TEXT NOT NULL,
	is_main BOOLEAN NOT NULL DEFAULT FALSE,
	self_price TEXT,
	served_price TEXT,
	closing_price TEXT,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP,
	PRIMARY KEY (area_date, pv, article_code, brand, address)
);

CREATE TABLE IF NOT EXISTS credit_card_tx (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	load_date TEXT NOT NULL,
	transaction_type TEXT,
	transaction_ts TEXT NOT NULL,
	competence_date TEXT NOT NULL,
	pv TEXT NOT NULL,
	pv_address TEXT,
	article_code TEXT NOT NULL,
	sellin_code TEXT NOT NULL,
	product_description TEXT,
	card_type TEXT NOT NULL,
	volume TEXT,
	credited_amount TEXT,
	credited_price TEXT,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_credit_card_tx_load_date ON credit_card_tx(load_date);

CREATE TABLE IF NOT EXISTS price_list (
	list_date TEXT NOT NULL,
	pv TEXT NOT NULL,
	article_code TEXT NOT NULL,
	served_price TEXT,
	served_discount TEXT,
	self_price TEXT,
	self_discount TEXT,
	opt_price TEXT,
	opt_discount TEXT,
	cutoff_quantity TEXT,
	ordered_quantity TEXT,
	notes TEXT,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP,
	PRIMARY KEY (list_date, pv, article_code)
);
`

// addedColumns lists columns that older databases may lack, per table.
var addedColumns = map[string][]struct{ name, ddl string }{
	"stations": {
		{"promo_enabled", "ALTER TABLE stations ADD COLUMN promo_enabled BOOLEAN NOT NULL DEFAULT FALSE"},
	},
	"card_types": {
		{"tentative", "ALTER TABLE card_types ADD COLUMN tentative BOOLEAN NOT NULL DEFAULT FALSE"},
	},
	"price_list": {
		{"notes", "ALTER TABLE price_list ADD COLUMN notes TEXT"},
	},
}

func migrateColumns(ctx context.Context, db *sql.DB, log *slog.Logger) error {
	for table, cols := range addedColumns {
		existing, err := tableColumns(ctx, db, table)
		if err != nil {
			return err
		}
		for _, col := range cols {
			if existing[col.name] {
				continue
			}
			if _, err := db.ExecContext(ctx, col.ddl); err != nil {
				log.Error("Error adding column", "table", table, "column", col.name, "error", err)
				return fmt.Errorf("add column %s.%s: %w", table, col.name, err)
			}
			log.Info("Added column", "table", table, "column", col.name)
		}
	}
	return nil
}

func tableColumns(ctx context.Context, db *sql.DB, table string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("error querying table schema for %s: %w", table, err)
	}
	defer rows.Close()

	columnExists := make(map[string]bool)
	for rows.Next() {
		var cid, pk int
		var name, dataType string
		var notnullVal int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &dataType, &notnullVal, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("error scanning column info for %s: %w", table, err)
		}
		columnExists[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over column info for %s: %w", table, err)
	}
	return columnExists, nil
}

// OpenInMemory opens a private in-memory store with the full schema.
// Used by tests and dry runs.
func OpenInMemory(ctx context.Context, log *slog.Logger) (*sql.DB, error) {
	return Open(ctx, ":memory:", log)
}
