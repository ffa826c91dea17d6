package database

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/username/stationetl/src/logger"
)

func TestOpenInMemoryCreatesSchema(t *testing.T) {
	ctx := context.Background()
	db, err := OpenInMemory(ctx, logger.Discard())
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	defer db.Close()

	for _, table := range []string{"stations", "articles", "sellin_articles", "card_types", "fixed_discounts",
		"competitors", "delivered", "ordered", "promo_cards", "trading_area", "credit_card_tx", "price_list"} {
		cols, err := tableColumns(ctx, db, table)
		if err != nil {
			t.Fatalf("tableColumns(%s): %v", table, err)
		}
		if len(cols) == 0 {
			t.Errorf("table %s missing", table)
		}
	}

	// Running the migration twice must be harmless.
	if err := Migrate(ctx, db, logger.Discard()); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}

func TestDec(t *testing.T) {
	if got := Dec(decimal.RequireFromString("1.5"), ScaleQuantity); got != "1.500" {
		t.Fatalf("Dec = %q", got)
	}
	if got := NullDec(decimal.NullDecimal{}, ScalePrice); got != nil {
		t.Fatalf("NullDec(null) = %v", got)
	}
	if got := NullDec(decimal.NewNullDecimal(decimal.RequireFromString("1.23456")), ScalePrice); got != "1.2346" {
		t.Fatalf("NullDec = %v", got)
	}
}
