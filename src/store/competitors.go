package store

import (
	"context"
	"fmt"
)

// ReplaceObservatoryID re-points every competitor carrying actID to newID and
// returns how many rows changed.
func (s *Store) ReplaceObservatoryID(ctx context.Context, actID, newID string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE competitors SET observatory_id = ? WHERE observatory_id = ?`, newID, actID)
	if err != nil {
		return 0, fmt.Errorf("replace observatory id %s: %w", actID, err)
	}
	return res.RowsAffected()
}
