package workbook

import (
	"fmt"

	"github.com/javajack/shapesheet"
)

// Shape is the single-object view of a Document. It implements
// shapesheet.ShapeHost with three-wide streams.
type Shape struct {
	doc *Document
	id  int
}

var _ shapesheet.ShapeHost = (*Shape)(nil)

// ID returns the object id.
func (s *Shape) ID() int { return s.id }

func (s *Shape) decode(stream []int16) ([]shapesheet.ShapeCell, error) {
	if len(stream)%3 != 0 {
		return nil, fmt.Errorf("%w: length %d is not a multiple of 3", ErrBadStream, len(stream))
	}
	cells := make([]shapesheet.ShapeCell, len(stream)/3)
	for i := range cells {
		c := stream[i*3:]
		cells[i] = shapesheet.ShapeCell{
			ShapeID: s.id,
			Address: shapesheet.NewCellAddress(shapesheet.SectionID(c[0]), shapesheet.RowIndex(c[1]), shapesheet.ColumnID(c[2])),
		}
	}
	return cells, nil
}

// GetFormulas implements shapesheet.ShapeHost.
func (s *Shape) GetFormulas(stream []int16) ([]string, error) {
	cells, err := s.decode(stream)
	if err != nil {
		return nil, err
	}
	s.doc.mu.Lock()
	defer s.doc.mu.Unlock()
	return s.doc.getFormulas(cells)
}

// GetResults implements shapesheet.ShapeHost.
func (s *Shape) GetResults(stream []int16, kind shapesheet.ResultKind, units []shapesheet.UnitCode) ([]any, error) {
	cells, err := s.decode(stream)
	if err != nil {
		return nil, err
	}
	s.doc.mu.Lock()
	defer s.doc.mu.Unlock()
	return s.doc.getResults(cells, kind, units)
}

// SetFormulas implements shapesheet.ShapeHost.
func (s *Shape) SetFormulas(stream []int16, formulas []string, flags shapesheet.SetFlags) (int, error) {
	cells, err := s.decode(stream)
	if err != nil {
		return 0, err
	}
	s.doc.mu.Lock()
	defer s.doc.mu.Unlock()
	return s.doc.setFormulas(cells, formulas, flags)
}

// SetResults implements shapesheet.ShapeHost.
func (s *Shape) SetResults(stream []int16, units []shapesheet.UnitCode, values []any, flags shapesheet.SetFlags) (int, error) {
	cells, err := s.decode(stream)
	if err != nil {
		return 0, err
	}
	s.doc.mu.Lock()
	defer s.doc.mu.Unlock()
	return s.doc.setResults(cells, units, values, flags)
}

// RowCount implements shapesheet.ShapeHost.
func (s *Shape) RowCount(section shapesheet.SectionID) (int, error) {
	return s.doc.RowCount(s.id, section)
}
