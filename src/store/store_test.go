package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/username/stationetl/src/database"
	"github.com/username/stationetl/src/logger"
	"github.com/username/stationetl/src/models"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.OpenInMemory(context.Background(), logger.Discard())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func mustOutcome(t *testing.T, got models.Outcome, err error, want models.Outcome) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Fatalf("outcome = %s, want %s", got, want)
	}
}

func TestUpsertDeliveredIsChangeAware(t *testing.T) {
	ctx := context.Background()
	s := New(openTestDB(t))
	rec := models.DeliveredRecord{
		StationCode:  "0007",
		SellInCode:   "ABC123",
		DeliveryDate: day("2025-04-05"),
		ArticleCode:  "ART1",
		Quantity:     decimal.RequireFromString("1.5"),
	}

	o, err := s.UpsertDelivered(ctx, rec)
	mustOutcome(t, o, err, models.OutcomeModified)

	o, err = s.UpsertDelivered(ctx, rec)
	mustOutcome(t, o, err, models.OutcomeUnchanged)

	// Same value with a different textual scale is still unchanged.
	rec.Quantity = decimal.RequireFromString("1.500")
	o, err = s.UpsertDelivered(ctx, rec)
	mustOutcome(t, o, err, models.OutcomeUnchanged)

	rec.Quantity = decimal.RequireFromString("2")
	o, err = s.UpsertDelivered(ctx, rec)
	mustOutcome(t, o, err, models.OutcomeModified)

	var qty string
	if err := s.db.QueryRowContext(ctx, `SELECT quantity FROM delivered WHERE pv = '0007'`).Scan(&qty); err != nil {
		t.Fatal(err)
	}
	if qty != "2.000" {
		t.Fatalf("stored quantity = %q", qty)
	}
}

func TestUpsertOrdered(t *testing.T) {
	ctx := context.Background()
	s := New(openTestDB(t))
	rec := models.OrderedRecord{StationCode: "0705", ArticleCode: "ART1", OrderDate: day("2025-04-07"), Quantity: decimal.NewFromInt(10)}
	o, err := s.UpsertOrdered(ctx, rec)
	mustOutcome(t, o, err, models.OutcomeModified)
	o, err = s.UpsertOrdered(ctx, rec)
	mustOutcome(t, o, err, models.OutcomeUnchanged)
}

func TestUpsertPromoCounterWritesOneColumn(t *testing.T) {
	ctx := context.Background()
	s := New(openTestDB(t))
	base := models.PromoCounter{StationCode: "0007", PromoDate: day("2025-04-05")}

	b := base
	b.Type, b.Total = models.PromoBaptisms, 4
	o, err := s.UpsertPromoCounter(ctx, b)
	mustOutcome(t, o, err, models.OutcomeModified)

	r := base
	r.Type, r.Total = models.PromoRedeemed, 9
	o, err = s.UpsertPromoCounter(ctx, r)
	mustOutcome(t, o, err, models.OutcomeModified)

	o, err = s.UpsertPromoCounter(ctx, b)
	mustOutcome(t, o, err, models.OutcomeUnchanged)

	var baptisms, redeemed int
	var eligible sql.NullInt64
	err = s.db.QueryRowContext(ctx, `SELECT baptisms, redeemed, eligible FROM promo_cards WHERE pv = '0007'`).Scan(&baptisms, &redeemed, &eligible)
	if err != nil {
		t.Fatal(err)
	}
	if baptisms != 4 || redeemed != 9 || eligible.Valid {
		t.Fatalf("row = %d %d %v", baptisms, redeemed, eligible)
	}

	if o, err := s.UpsertPromoCounter(ctx, models.PromoCounter{Type: "BOGUS"}); err == nil || o != models.OutcomeError {
		t.Fatalf("expected error outcome for unknown type, got %s %v", o, err)
	}
}

func TestUpsertTradingAreaAndPriceList(t *testing.T) {
	ctx := context.Background()
	s := New(openTestDB(t))
	ta := models.TradingAreaRecord{
		AreaDate: day("2025-04-07"), StationCode: "0007", ArticleCode: "SP95", Brand: "ENI", Address: "VIA ROMA 1",
		IsMain: true, SelfPrice: decimal.NewNullDecimal(decimal.RequireFromString("1.799")),
	}
	o, err := s.UpsertTradingArea(ctx, ta)
	mustOutcome(t, o, err, models.OutcomeModified)
	o, err = s.UpsertTradingArea(ctx, ta)
	mustOutcome(t, o, err, models.OutcomeUnchanged)
	ta.IsMain = false
	o, err = s.UpsertTradingArea(ctx, ta)
	mustOutcome(t, o, err, models.OutcomeModified)

	pl := models.PriceListRecord{ListDate: day("2025-04-07"), StationCode: "0007", ArticleCode: "SP95",
		ServedPrice: decimal.NewNullDecimal(decimal.RequireFromString("1.9")), Notes: "ok"}
	o, err = s.UpsertPriceList(ctx, pl)
	mustOutcome(t, o, err, models.OutcomeModified)
	o, err = s.UpsertPriceList(ctx, pl)
	mustOutcome(t, o, err, models.OutcomeUnchanged)
	pl.Notes = "changed"
	o, err = s.UpsertPriceList(ctx, pl)
	mustOutcome(t, o, err, models.OutcomeModified)

	n, err := s.PriceListRowCount(ctx, day("2025-04-07"))
	if err != nil || n != 1 {
		t.Fatalf("PriceListRowCount = %d, %v", n, err)
	}
}

func TestCreditCardDayReplace(t *testing.T) {
	ctx := context.Background()
	s := New(openTestDB(t))
	today := day("2025-04-07")
	rec := models.CreditCardTxRecord{LoadDate: today, TransactionTime: today, CompetenceDate: today,
		StationCode: "0007", ArticleCode: "ART1", SellInCode: "S1", CardType: "VISA",
		Volume: decimal.NewFromInt(10), CreditedAmount: decimal.NewFromInt(20), CreditedPrice: decimal.NewFromInt(2)}
	for i := 0; i < 3; i++ {
		if _, err := s.InsertCreditCardTx(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}
	old := rec
	old.LoadDate = day("2025-04-06")
	if _, err := s.InsertCreditCardTx(ctx, old); err != nil {
		t.Fatal(err)
	}

	deleted, err := s.DeleteCreditCardDay(ctx, today)
	if err != nil || deleted != 3 {
		t.Fatalf("DeleteCreditCardDay = %d, %v", deleted, err)
	}
	if n, _ := s.CreditCardRowCount(ctx, day("2025-04-06")); n != 1 {
		t.Fatalf("previous day rows = %d, want 1", n)
	}

	if err := s.InsertTentativeCardType(ctx, "NEWCARD", "auto"); err != nil {
		t.Fatal(err)
	}
	if err := s.InsertTentativeCardType(ctx, "NEWCARD", "auto"); err != nil {
		t.Fatalf("second insert should be a no-op: %v", err)
	}
}

func TestOrderedHistoricalAverage(t *testing.T) {
	ctx := context.Background()
	s := New(openTestDB(t))
	target := day("2025-04-07")
	// two rows one week back, one row three weeks back
	for _, r := range []models.OrderedRecord{
		{StationCode: "0001", ArticleCode: "A", OrderDate: target.AddDate(0, 0, -7), Quantity: decimal.NewFromInt(1)},
		{StationCode: "0002", ArticleCode: "A", OrderDate: target.AddDate(0, 0, -7), Quantity: decimal.NewFromInt(1)},
		{StationCode: "0001", ArticleCode: "A", OrderDate: target.AddDate(0, 0, -21), Quantity: decimal.NewFromInt(1)},
		{StationCode: "0001", ArticleCode: "A", OrderDate: target.AddDate(0, 0, -1), Quantity: decimal.NewFromInt(1)},
	} {
		if _, err := s.UpsertOrdered(ctx, r); err != nil {
			t.Fatal(err)
		}
	}
	avg, err := s.OrderedHistoricalAverage(ctx, target, 3)
	if err != nil {
		t.Fatal(err)
	}
	if avg != 1.0 {
		t.Fatalf("avg = %v, want 1", avg)
	}
}

func TestReplaceObservatoryID(t *testing.T) {
	ctx := context.Background()
	s := New(openTestDB(t))
	if _, err := s.db.ExecContext(ctx, `INSERT INTO competitors (brand, address, observatory_id) VALUES
		('ENI', 'VIA ROMA 1', '100'), ('Q8', 'VIA PO 2', '100'), ('IP', 'VIA PO 3', '200')`); err != nil {
		t.Fatal(err)
	}
	n, err := s.ReplaceObservatoryID(ctx, "100", "300")
	if err != nil || n != 2 {
		t.Fatalf("ReplaceObservatoryID = %d, %v", n, err)
	}
	if n, _ := s.ReplaceObservatoryID(ctx, "100", "300"); n != 0 {
		t.Fatalf("second replace changed %d rows", n)
	}
}
