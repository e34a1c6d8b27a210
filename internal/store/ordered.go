package store

import (
	"context"
	"fmt"

	"github.com/akitl/plankaHub/internal/position"
)

// Sibling tables sharing the gap-based ordering scheme. Both carry a
// project_id parent column and a position column sorted ASC with id as the
// deterministic tie-break.
const (
	tableDebates   = "debates"
	tableInfoCards = "info_cards"
)

// lastPosition returns the maximum position among siblings of projectID in
// table, or nil when the project has no siblings yet. table must be one of
// the constants above; it is interpolated, never user input.
func (s *PostgresStore) lastPosition(ctx context.Context, table, projectID string) (*float64, error) {
	var last *float64
	query := fmt.Sprintf(`SELECT MAX(position) FROM %s WHERE project_id=$1`, table)
	if err := s.db.QueryRowContext(ctx, query, projectID).Scan(&last); err != nil {
		return nil, fmt.Errorf("last position in %s: %w", table, err)
	}
	return last, nil
}

// resolvePosition picks the position for a new sibling: an explicit value is
// used verbatim (including collisions with existing rows); nil appends at the
// tail via the gap rule. Two concurrent tail appends may read the same last
// position and collide, which the ASC-position, ASC-id list order resolves
// deterministically.
func (s *PostgresStore) resolvePosition(ctx context.Context, table, projectID string, explicit *float64) (float64, error) {
	if explicit != nil {
		return *explicit, nil
	}
	last, err := s.lastPosition(ctx, table, projectID)
	if err != nil {
		return 0, err
	}
	return position.NextTrailing(last), nil
}
