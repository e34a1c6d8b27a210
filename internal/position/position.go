// Package position implements gap-based ordering arithmetic for sibling
// entities (debates, info cards) scoped to a project. Positions are sparse:
// each new trailing sibling sits one Gap above the previous one, so inserts
// at the tail never rewrite existing rows. Deletions leave gaps permanently.
package position

// Gap is the spacing between consecutively appended siblings. Large enough
// that many between-item inserts fit before values need rebalancing, small
// enough that whole-number positions stay exact in a double.
const Gap float64 = 65536

// NextTrailing computes the position for a new trailing sibling. last is the
// current maximum position among siblings, nil when the parent has none yet.
// The result is strictly greater than every sibling position at the instant
// last was read; concurrent trailing inserts may still both observe the same
// last and collide, which callers resolve with a secondary sort key rather
// than locking.
func NextTrailing(last *float64) float64 {
	if last == nil {
		return Gap
	}
	return *last + Gap
}
