package table

// Diff describes how one displayed page turned into another, keyed by row ID.
type Diff struct {
	Added   []Row
	Removed []Row
	Changed []Row
}

// Empty reports whether no row was added, removed or changed. A reorder of
// otherwise identical rows yields an empty Diff but Equal still reports false.
func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// Equal reports whether two row lists are structurally identical, in order.
func Equal(a, b []Row) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// Compare computes the row-level difference from old to next.
func Compare(old, next []Row) Diff {
	before := make(map[string]Row, len(old))
	for _, row := range old {
		before[row.ID] = row
	}
	var diff Diff
	seen := make(map[string]struct{}, len(next))
	for _, row := range next {
		seen[row.ID] = struct{}{}
		prev, ok := before[row.ID]
		switch {
		case !ok:
			diff.Added = append(diff.Added, row)
		case !prev.Equal(row):
			diff.Changed = append(diff.Changed, row)
		}
	}
	for _, row := range old {
		if _, ok := seen[row.ID]; !ok {
			diff.Removed = append(diff.Removed, row)
		}
	}
	return diff
}

// CloneRows returns a deep copy of rows.
func CloneRows(rows []Row) []Row {
	if len(rows) == 0 {
		return nil
	}
	dup := make([]Row, len(rows))
	for i, row := range rows {
		dup[i] = row.Clone()
	}
	return dup
}
