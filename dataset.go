package shapesheet

import (
	"iter"
	"slices"
)

// QueryDataSet pairs a formula table and/or a result table that share one row grouping.
type QueryDataSet[T any] struct {
	rows     int
	cols     int
	groups   []TableRowGroup
	formulas *Table[string]
	results  *Table[T]
}

// NewQueryDataSet validates the flat arrays against the grouping and builds
// the data set. A nil slice means that half was not requested. The checks run
// in a fixed order and the first failure is returned as a *DataSetShapeError.
func NewQueryDataSet[T any](formulas []string, results []T, targets []int, columnCount, rowCount int, groups []TableRowGroup) (*QueryDataSet[T], error) {
	if formulas == nil && results == nil {
		return nil, &DataSetShapeError{Invariant: "formulas and results cannot both be absent"}
	}
	if formulas != nil && results != nil && len(formulas) != len(results) {
		return nil, &DataSetShapeError{Invariant: "formula and result arrays must have the same length", Expected: len(formulas), Actual: len(results)}
	}
	if len(targets) != len(groups) {
		return nil, &DataSetShapeError{Invariant: "one row group per target", Expected: len(targets), Actual: len(groups)}
	}
	sum := 0
	for _, g := range groups {
		if g.Count < 0 {
			return nil, &DataSetShapeError{Invariant: "row group counts cannot be negative", Expected: 0, Actual: g.Count}
		}
		sum += g.Count
	}
	if rowCount != sum {
		return nil, &DataSetShapeError{Invariant: "row count must equal the sum of group counts", Expected: sum, Actual: rowCount}
	}
	if columnCount < 0 {
		return nil, &DataSetShapeError{Invariant: "column count cannot be negative", Expected: 0, Actual: columnCount}
	}
	total := columnCount * rowCount
	if formulas != nil && len(formulas) != total {
		return nil, &DataSetShapeError{Invariant: "formula count must equal columns*rows", Expected: total, Actual: len(formulas)}
	}
	if results != nil && len(results) != total {
		return nil, &DataSetShapeError{Invariant: "result count must equal columns*rows", Expected: total, Actual: len(results)}
	}

	normalized := make([]TableRowGroup, len(groups))
	start := 0
	for i, g := range groups {
		normalized[i] = TableRowGroup{TargetIndex: i, ShapeID: targets[i], StartRow: start, Count: g.Count}
		start += g.Count
	}

	ds := &QueryDataSet[T]{rows: rowCount, cols: columnCount, groups: normalized}
	if formulas != nil {
		ds.formulas = newTable(rowCount, columnCount, normalized, slices.Clone(formulas))
	}
	if results != nil {
		ds.results = newTable(rowCount, columnCount, normalized, slices.Clone(results))
	}
	return ds, nil
}

// RowCount returns the number of rows across all targets.
func (ds *QueryDataSet[T]) RowCount() int { return ds.rows }

// ColumnCount returns the number of columns.
func (ds *QueryDataSet[T]) ColumnCount() int { return ds.cols }

// Groups returns one row group per target, in target order.
func (ds *QueryDataSet[T]) Groups() []TableRowGroup {
	return append([]TableRowGroup(nil), ds.groups...)
}

// Formulas returns the formula table, or nil if formulas were not requested.
func (ds *QueryDataSet[T]) Formulas() *Table[string] { return ds.formulas }

// Results returns the result table, or nil if results were not requested.
func (ds *QueryDataSet[T]) Results() *Table[T] { return ds.results }

// Cell returns one cell by flat row index and column.
func (ds *QueryDataSet[T]) Cell(row int, col QueryColumn) CellData[T] {
	return ds.cellAt(row, col.Ordinal)
}

func (ds *QueryDataSet[T]) cellAt(row, ordinal int) CellData[T] {
	var cd CellData[T]
	if ds.formulas != nil {
		cd.Formula = ds.formulas.Get(row, ordinal)
		cd.HasFormula = true
	}
	if ds.results != nil {
		cd.Result = ds.results.Get(row, ordinal)
		cd.HasResult = true
	}
	return cd
}

// Row returns a view of row i.
func (ds *QueryDataSet[T]) Row(i int) QueryDataRow[T] {
	if i < 0 || i >= ds.rows {
		panic("shapesheet: row out of range")
	}
	return QueryDataRow[T]{ds: ds, index: i}
}

// Rows iterates all rows in order. The sequence may be ranged over any
// number of times; each pass re-reads the same arrays.
func (ds *QueryDataSet[T]) Rows() iter.Seq2[int, QueryDataRow[T]] {
	return func(yield func(int, QueryDataRow[T]) bool) {
		for i := 0; i < ds.rows; i++ {
			if !yield(i, QueryDataRow[T]{ds: ds, index: i}) {
				return
			}
		}
	}
}

// GroupRows returns the rows belonging to the target at targetIndex. A target
// with zero rows yields an empty slice.
func (ds *QueryDataSet[T]) GroupRows(targetIndex int) []QueryDataRow[T] {
	g := ds.groups[targetIndex]
	rows := make([]QueryDataRow[T], g.Count)
	for i := range rows {
		rows[i] = QueryDataRow[T]{ds: ds, index: g.StartRow + i}
	}
	return rows
}

// Merged returns a single table combining formula and result of every cell.
func (ds *QueryDataSet[T]) Merged() *Table[CellData[T]] {
	values := make([]CellData[T], ds.rows*ds.cols)
	for r := 0; r < ds.rows; r++ {
		for c := 0; c < ds.cols; c++ {
			values[r*ds.cols+c] = ds.cellAt(r, c)
		}
	}
	return newTable(ds.rows, ds.cols, ds.groups, values)
}

// QueryDataRow is a lightweight view of one row of a QueryDataSet.
type QueryDataRow[T any] struct {
	ds    *QueryDataSet[T]
	index int
}

// Index returns the flat row index.
func (r QueryDataRow[T]) Index() int { return r.index }

// Group returns the row group (and so the target) this row belongs to.
func (r QueryDataRow[T]) Group() TableRowGroup { return groupOf(r.ds.groups, r.index) }

// LocalIndex returns the row's position within its target's rows.
func (r QueryDataRow[T]) LocalIndex() int { return r.index - r.Group().StartRow }

// Cell returns the row's cell for col.
func (r QueryDataRow[T]) Cell(col QueryColumn) CellData[T] {
	return r.ds.cellAt(r.index, col.Ordinal)
}

// Cells returns all cells of the row in ordinal order.
func (r QueryDataRow[T]) Cells() []CellData[T] {
	out := make([]CellData[T], r.ds.cols)
	for c := range out {
		out[c] = r.ds.cellAt(r.index, c)
	}
	return out
}
