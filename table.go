package shapesheet

import "sort"

// TableRowGroup records which rows of a table belong to one target.
type TableRowGroup struct {
	TargetIndex int // position in the target set
	ShapeID     int
	StartRow    int
	Count       int
}

// Table is a row-major grid of values with rows grouped by target.
// Lookups outside the grid panic, as slice indexing does.
type Table[T any] struct {
	rows   int
	cols   int
	groups []TableRowGroup
	values []T
}

func newTable[T any](rows, cols int, groups []TableRowGroup, values []T) *Table[T] {
	return &Table[T]{rows: rows, cols: cols, groups: groups, values: values}
}

// RowCount returns the number of rows.
func (t *Table[T]) RowCount() int { return t.rows }

// ColumnCount returns the number of columns.
func (t *Table[T]) ColumnCount() int { return t.cols }

// Groups returns the row groups in target order.
func (t *Table[T]) Groups() []TableRowGroup {
	return append([]TableRowGroup(nil), t.groups...)
}

// Get returns the value at row and column ordinal.
func (t *Table[T]) Get(row, ordinal int) T {
	if ordinal < 0 || ordinal >= t.cols {
		panic("shapesheet: column ordinal out of range")
	}
	return t.values[row*t.cols+ordinal]
}

// At returns the value at row for the given query column.
func (t *Table[T]) At(row int, col QueryColumn) T {
	return t.Get(row, col.Ordinal)
}

// Row returns a copy of one row's values.
func (t *Table[T]) Row(row int) []T {
	start := row * t.cols
	return append([]T(nil), t.values[start:start+t.cols]...)
}

// Raw returns a copy of the flat row-major values.
func (t *Table[T]) Raw() []T {
	return append([]T(nil), t.values...)
}

// GroupOf returns the group that owns row.
func (t *Table[T]) GroupOf(row int) TableRowGroup {
	return groupOf(t.groups, row)
}

// groupOf finds the group containing row. Empty groups never contain a row.
func groupOf(groups []TableRowGroup, row int) TableRowGroup {
	i := sort.Search(len(groups), func(i int) bool {
		return groups[i].StartRow+groups[i].Count > row
	})
	if i == len(groups) || row < groups[i].StartRow {
		panic("shapesheet: row out of range")
	}
	return groups[i]
}
