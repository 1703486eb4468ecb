package shapesheet

import "fmt"

// CellData holds one cell's formula text and/or its evaluated result. At least
// one of the two is populated in anything returned by a query.
type CellData[T any] struct {
	Formula    string
	Result     T
	HasFormula bool
	HasResult  bool
}

// NewCellData creates a CellData carrying both a formula and a result.
func NewCellData[T any](formula string, result T) CellData[T] {
	return CellData[T]{Formula: formula, Result: result, HasFormula: true, HasResult: true}
}

// FormulaOnly creates a CellData carrying just a formula, typically to feed a Writer.
func FormulaOnly[T any](formula string) CellData[T] {
	return CellData[T]{Formula: formula, HasFormula: true}
}

// String formats the cell as `"formula" = result`, omitting the missing half.
func (cd CellData[T]) String() string {
	switch {
	case cd.HasFormula && cd.HasResult:
		return fmt.Sprintf("%q = %v", cd.Formula, cd.Result)
	case cd.HasFormula:
		return fmt.Sprintf("%q", cd.Formula)
	case cd.HasResult:
		return fmt.Sprintf("%v", cd.Result)
	default:
		return "<empty>"
	}
}
