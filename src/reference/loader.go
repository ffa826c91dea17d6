// Package reference loads the lookup sets rows are validated against.
// Every loader runs exactly one query. On failure it logs and returns an
// empty set, so validation fails closed for that file.
package reference

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"github.com/username/stationetl/src/database"
	"github.com/username/stationetl/src/parsers"
)

// Set is a string membership set.
type Set map[string]struct{}

func NewSet(values ...string) Set {
	s := make(Set, len(values))
	for _, v := range values {
		s.Add(v)
	}
	return s
}

func (s Set) Has(v string) bool {
	_, ok := s[v]
	return ok
}

func (s Set) Add(v string) { s[v] = struct{}{} }

func (s Set) Len() int { return len(s) }

// BrandAddressKey joins a whitelist pair. Callers normalize both parts first.
func BrandAddressKey(brand, address string) string {
	return brand + "\x1f" + address
}

// DiscountKey joins station and article for the fixed-discount map.
func DiscountKey(station, article string) string {
	return station + "\x1f" + article
}

type Loader struct {
	db  database.DBTX
	log *slog.Logger
}

func NewLoader(db database.DBTX, log *slog.Logger) *Loader {
	return &Loader{db: db, log: log}
}

// Stations returns every known station code.
func (l *Loader) Stations(ctx context.Context) Set {
	return l.loadSet(ctx, "stations", `SELECT pv FROM stations`)
}

// PromoStations returns the stations enabled for promo cards.
func (l *Loader) PromoStations(ctx context.Context) Set {
	return l.loadSet(ctx, "promo stations", `SELECT pv FROM stations WHERE promo_enabled`)
}

// Articles returns every known article code.
func (l *Loader) Articles(ctx context.Context) Set {
	return l.loadSet(ctx, "articles", `SELECT UPPER(code) FROM articles`)
}

// CardTypes returns every known card type, tentative ones included.
func (l *Loader) CardTypes(ctx context.Context) Set {
	return l.loadSet(ctx, "card types", `SELECT UPPER(code) FROM card_types`)
}

// BrandAddresses returns the competitor whitelist keyed by BrandAddressKey.
func (l *Loader) BrandAddresses(ctx context.Context) Set {
	out := Set{}
	err := l.scan(ctx, `SELECT brand, address FROM competitors`, func(rows *sql.Rows) error {
		var brand, address string
		if err := rows.Scan(&brand, &address); err != nil {
			return err
		}
		out.Add(BrandAddressKey(parsers.NormalizeCode(brand), parsers.NormalizeAddress(address)))
		return nil
	})
	if err != nil {
		l.log.Error("Failed to load brand/address whitelist", "error", err)
		return Set{}
	}
	l.log.Debug("Reference loaded", "reference", "brand addresses", "count", len(out))
	return out
}

// SellInMap maps sell-in product codes to article codes.
func (l *Loader) SellInMap(ctx context.Context) map[string]string {
	out := map[string]string{}
	err := l.scan(ctx, `SELECT sellin_code, article_code FROM sellin_articles`, func(rows *sql.Rows) error {
		var sellIn, article string
		if err := rows.Scan(&sellIn, &article); err != nil {
			return err
		}
		out[strings.ToUpper(strings.TrimSpace(sellIn))] = strings.ToUpper(strings.TrimSpace(article))
		return nil
	})
	if err != nil {
		l.log.Error("Failed to load sell-in mapping", "error", err)
		return map[string]string{}
	}
	l.log.Debug("Reference loaded", "reference", "sell-in map", "count", len(out))
	return out
}

// FixedDiscounts returns, per (station, article), the flag of the latest
// effective row on or before asOf.
func (l *Loader) FixedDiscounts(ctx context.Context, asOf time.Time) map[string]bool {
	out := map[string]bool{}
	const q = `
		SELECT f.pv, f.article_code, f.fixed
		FROM fixed_discounts f
		WHERE f.effective_date = (
			SELECT MAX(g.effective_date) FROM fixed_discounts g
			WHERE g.pv = f.pv AND g.article_code = f.article_code AND g.effective_date <= ?
		)`
	err := l.scan(ctx, q, func(rows *sql.Rows) error {
		var pv, article string
		var fixed bool
		if err := rows.Scan(&pv, &article, &fixed); err != nil {
			return err
		}
		out[DiscountKey(pv, strings.ToUpper(article))] = fixed
		return nil
	}, database.Date(asOf))
	if err != nil {
		l.log.Error("Failed to load fixed discounts", "asOf", database.Date(asOf), "error", err)
		return map[string]bool{}
	}
	return out
}

func (l *Loader) loadSet(ctx context.Context, name, query string) Set {
	out := Set{}
	err := l.scan(ctx, query, func(rows *sql.Rows) error {
		var v string
		if err := rows.Scan(&v); err != nil {
			return err
		}
		out.Add(strings.TrimSpace(v))
		return nil
	})
	if err != nil {
		l.log.Error("Failed to load reference set", "reference", name, "error", err)
		return Set{}
	}
	l.log.Debug("Reference loaded", "reference", name, "count", len(out))
	return out
}

func (l *Loader) scan(ctx context.Context, query string, fn func(*sql.Rows) error, args ...any) error {
	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}
