// Package store holds the change-aware merge statements for every target table.
//
// Each upsert is a single INSERT ... ON CONFLICT DO UPDATE ... WHERE <something differs>.
// sqlite reports zero changes when the WHERE guard rejects the update, which is
// how "unchanged" is told apart from "modified" without a prior SELECT.
package store

import (
	"context"
	"fmt"

	"github.com/username/stationetl/src/database"
	"github.com/username/stationetl/src/models"
)

type Store struct {
	db database.DBTX
}

func New(db database.DBTX) *Store {
	return &Store{db: db}
}

// merge runs one conditional merge and maps the affected-row count to an outcome.
func (s *Store) merge(ctx context.Context, what, query string, args ...any) (models.Outcome, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return models.OutcomeError, fmt.Errorf("upsert %s: %w", what, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return models.OutcomeError, fmt.Errorf("upsert %s rows affected: %w", what, err)
	}
	if n > 0 {
		return models.OutcomeModified, nil
	}
	return models.OutcomeUnchanged, nil
}

func (s *Store) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
