package store

import (
	"context"
	"time"

	"github.com/username/stationetl/src/database"
	"github.com/username/stationetl/src/utils"
)

// OrderedHistoricalAverage is the mean number of ordered rows stored for the
// same weekday over the previous `weeks` weeks. Weeks with no rows count as zero.
func (s *Store) OrderedHistoricalAverage(ctx context.Context, orderDate time.Time, weeks int) (float64, error) {
	if weeks <= 0 {
		return 0, nil
	}
	total := 0
	for _, d := range utils.SameWeekdayBack(orderDate, weeks) {
		n, err := s.count(ctx, `SELECT COUNT(*) FROM ordered WHERE order_date = ?`, database.Date(d))
		if err != nil {
			return 0, err
		}
		total += n
	}
	return float64(total) / float64(weeks), nil
}

// PriceListRowCount counts stored price list rows for a list date.
func (s *Store) PriceListRowCount(ctx context.Context, listDate time.Time) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM price_list WHERE list_date = ?`, database.Date(listDate))
}

// OrderedRowCount counts stored ordered rows for an order date.
func (s *Store) OrderedRowCount(ctx context.Context, orderDate time.Time) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM ordered WHERE order_date = ?`, database.Date(orderDate))
}
