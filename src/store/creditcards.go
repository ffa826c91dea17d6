package store

import (
	"context"
	"fmt"
	"time"

	"github.com/username/stationetl/src/database"
	"github.com/username/stationetl/src/models"
)

// DeleteCreditCardDay removes every transaction loaded on loadDate and returns how many went.
func (s *Store) DeleteCreditCardDay(ctx context.Context, loadDate time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM credit_card_tx WHERE load_date = ?`, database.Date(loadDate))
	if err != nil {
		return 0, fmt.Errorf("delete credit_card_tx for %s: %w", database.Date(loadDate), err)
	}
	return res.RowsAffected()
}

const insertCreditCardSQL = `
INSERT INTO credit_card_tx (load_date, transaction_type, transaction_ts, competence_date, pv, pv_address,
	article_code, sellin_code, product_description, card_type, volume, credited_amount, credited_price)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// InsertCreditCardTx appends one transaction unconditionally.
func (s *Store) InsertCreditCardTx(ctx context.Context, r models.CreditCardTxRecord) (models.Outcome, error) {
	_, err := s.db.ExecContext(ctx, insertCreditCardSQL,
		database.Date(r.LoadDate), r.TransactionType, r.TransactionTime.Format("2006-01-02 15:04:05"),
		database.Date(r.CompetenceDate), r.StationCode, r.StationAddress, r.ArticleCode, r.SellInCode,
		r.ProductDescription, r.CardType,
		database.Dec(r.Volume, database.ScaleQuantity),
		database.Dec(r.CreditedAmount, database.ScaleAmount),
		database.Dec(r.CreditedPrice, database.ScalePrice))
	if err != nil {
		return models.OutcomeError, fmt.Errorf("insert credit_card_tx: %w", err)
	}
	return models.OutcomeModified, nil
}

// InsertTentativeCardType provisions an unknown card type flagged as tentative.
// An existing code is left as it is.
func (s *Store) InsertTentativeCardType(ctx context.Context, code, description string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO card_types (code, description, tentative) VALUES (?, ?, TRUE) ON CONFLICT (code) DO NOTHING`,
		code, description)
	if err != nil {
		return fmt.Errorf("insert tentative card type %s: %w", code, err)
	}
	return nil
}

// CreditCardRowCount counts transactions loaded on loadDate.
func (s *Store) CreditCardRowCount(ctx context.Context, loadDate time.Time) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM credit_card_tx WHERE load_date = ?`, database.Date(loadDate))
}
