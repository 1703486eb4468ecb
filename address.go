package shapesheet

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// SectionID identifies a section of an object's property store.
type SectionID int16

// RowIndex identifies a row within a section.
type RowIndex int16

// ColumnID identifies a cell (column) within a row.
type ColumnID int16

// CellAddress identifies one cell within one object's property store.
type CellAddress struct {
	Section SectionID
	Row     RowIndex
	Column  ColumnID
}

// NewCellAddress creates a CellAddress with explicit section, row and column.
func NewCellAddress(section SectionID, row RowIndex, column ColumnID) CellAddress {
	return CellAddress{Section: section, Row: row, Column: column}
}

// ParseCellAddress parses an address written as "1,1,0" or "(1,1,0)".
func ParseCellAddress(s string) (CellAddress, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return CellAddress{}, fmt.Errorf("empty cell address")
	}
	body := strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	parts := strings.Split(body, ",")
	if len(parts) != 3 {
		return CellAddress{}, fmt.Errorf("invalid cell address %q: expected section,row,column", s)
	}

	var vals [3]int16
	for i, p := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(p), 10, 16)
		if err != nil {
			return CellAddress{}, fmt.Errorf("invalid cell address %q: %w", s, err)
		}
		vals[i] = int16(n)
	}
	return CellAddress{Section: SectionID(vals[0]), Row: RowIndex(vals[1]), Column: ColumnID(vals[2])}, nil
}

// String formats the address as "(section,row,column)".
func (a CellAddress) String() string {
	return fmt.Sprintf("(%d,%d,%d)", a.Section, a.Row, a.Column)
}

// WithRow returns a copy of the address pointing at another row of the same section.
func (a CellAddress) WithRow(row RowIndex) CellAddress {
	a.Row = row
	return a
}

// Name returns the catalog name of the address, or "" if it is not catalogued.
func (a CellAddress) Name() string {
	return addressNames[a]
}

// ShapeCell addresses a cell on a specific object. It is the logical form of one
// four-wide stream chunk (shape id, section, row, column).
type ShapeCell struct {
	ShapeID int
	Address CellAddress
}

// String formats the cell as "shape 5 (1,1,0)".
func (c ShapeCell) String() string {
	return fmt.Sprintf("shape %d %s", c.ShapeID, c.Address)
}

// shapeID16 narrows an object id to the host's 16-bit stream element.
func shapeID16(id int) (int16, error) {
	if id < 0 || id > math.MaxInt16 {
		return 0, &MalformedStreamError{Reason: fmt.Sprintf("shape id %d does not fit a stream element", id)}
	}
	return int16(id), nil
}
