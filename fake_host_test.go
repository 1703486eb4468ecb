package shapesheet

import (
	"errors"
	"strconv"
)

// fakeCell is one stored cell of a fakeHost.
type fakeCell struct {
	formula string
	result  float64
}

// fakeHost is an in-memory ContainerHost that counts every call.
type fakeHost struct {
	cells map[ShapeCell]fakeCell
	rows  map[int]map[SectionID]int

	getFormulaCalls int
	getResultCalls  int
	setFormulaCalls int
	setResultCalls  int
	rowCountCalls   int

	lastStream []int16
	lastUnits  []UnitCode
	lastFlags  SetFlags

	setErr    error // returned by set calls
	shortRead bool  // answer reads with one item too few
	wrongType bool  // answer float reads with strings
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		cells: make(map[ShapeCell]fakeCell),
		rows:  make(map[int]map[SectionID]int),
	}
}

func (h *fakeHost) put(id int, addr CellAddress, formula string, result float64) {
	h.cells[ShapeCell{ShapeID: id, Address: addr}] = fakeCell{formula: formula, result: result}
}

func (h *fakeHost) setRows(id int, section SectionID, n int) {
	if h.rows[id] == nil {
		h.rows[id] = make(map[SectionID]int)
	}
	h.rows[id][section] = n
}

func (h *fakeHost) calls() int {
	return h.getFormulaCalls + h.getResultCalls + h.setFormulaCalls + h.setResultCalls + h.rowCountCalls
}

func decode4(stream []int16) []ShapeCell {
	cells := make([]ShapeCell, 0, len(stream)/4)
	for i := 0; i+3 < len(stream); i += 4 {
		cells = append(cells, ShapeCell{
			ShapeID: int(stream[i]),
			Address: NewCellAddress(SectionID(stream[i+1]), RowIndex(stream[i+2]), ColumnID(stream[i+3])),
		})
	}
	return cells
}

func (h *fakeHost) trim(n int) int {
	if h.shortRead && n > 0 {
		return n - 1
	}
	return n
}

func (h *fakeHost) readFormulas(cells []ShapeCell) []string {
	out := make([]string, h.trim(len(cells)))
	for i := range out {
		out[i] = h.cells[cells[i]].formula
	}
	return out
}

func (h *fakeHost) readResults(cells []ShapeCell, kind ResultKind) []any {
	out := make([]any, h.trim(len(cells)))
	for i := range out {
		v := h.cells[cells[i]].result
		switch {
		case kind == ResultInt:
			out[i] = int32(v)
		case kind == ResultFloat && !h.wrongType:
			out[i] = v
		default:
			out[i] = strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return out
}

func (h *fakeHost) writeFormulas(cells []ShapeCell, formulas []string, flags SetFlags) (int, error) {
	h.setFormulaCalls++
	h.lastFlags = flags
	if h.setErr != nil {
		return 0, h.setErr
	}
	for i, c := range cells {
		fc := h.cells[c]
		fc.formula = formulas[i]
		h.cells[c] = fc
	}
	return len(cells), nil
}

func (h *fakeHost) writeResults(cells []ShapeCell, units []UnitCode, values []any, flags SetFlags) (int, error) {
	h.setResultCalls++
	h.lastFlags = flags
	h.lastUnits = units
	if h.setErr != nil {
		return 0, h.setErr
	}
	for i, c := range cells {
		v, ok := values[i].(float64)
		if !ok {
			return 0, errors.New("fake host only stores float64 results")
		}
		fc := h.cells[c]
		fc.result = v
		h.cells[c] = fc
	}
	return len(cells), nil
}

func (h *fakeHost) GetFormulas(stream []int16) ([]string, error) {
	h.getFormulaCalls++
	h.lastStream = stream
	return h.readFormulas(decode4(stream)), nil
}

func (h *fakeHost) GetResults(stream []int16, kind ResultKind, units []UnitCode) ([]any, error) {
	h.getResultCalls++
	h.lastStream = stream
	h.lastUnits = units
	return h.readResults(decode4(stream), kind), nil
}

func (h *fakeHost) SetFormulas(stream []int16, formulas []string, flags SetFlags) (int, error) {
	h.lastStream = stream
	return h.writeFormulas(decode4(stream), formulas, flags)
}

func (h *fakeHost) SetResults(stream []int16, units []UnitCode, values []any, flags SetFlags) (int, error) {
	h.lastStream = stream
	return h.writeResults(decode4(stream), units, values, flags)
}

func (h *fakeHost) RowCount(shapeID int, section SectionID) (int, error) {
	h.rowCountCalls++
	return h.rows[shapeID][section], nil
}

// fakeShape is the three-wide view of one object of a fakeHost.
type fakeShape struct {
	host *fakeHost
	id   int
}

func (s *fakeShape) ID() int { return s.id }

func (s *fakeShape) decode(stream []int16) []ShapeCell {
	cells := make([]ShapeCell, 0, len(stream)/3)
	for i := 0; i+2 < len(stream); i += 3 {
		cells = append(cells, ShapeCell{
			ShapeID: s.id,
			Address: NewCellAddress(SectionID(stream[i]), RowIndex(stream[i+1]), ColumnID(stream[i+2])),
		})
	}
	return cells
}

func (s *fakeShape) GetFormulas(stream []int16) ([]string, error) {
	s.host.getFormulaCalls++
	s.host.lastStream = stream
	return s.host.readFormulas(s.decode(stream)), nil
}

func (s *fakeShape) GetResults(stream []int16, kind ResultKind, units []UnitCode) ([]any, error) {
	s.host.getResultCalls++
	s.host.lastStream = stream
	s.host.lastUnits = units
	return s.host.readResults(s.decode(stream), kind), nil
}

func (s *fakeShape) SetFormulas(stream []int16, formulas []string, flags SetFlags) (int, error) {
	s.host.lastStream = stream
	return s.host.writeFormulas(s.decode(stream), formulas, flags)
}

func (s *fakeShape) SetResults(stream []int16, units []UnitCode, values []any, flags SetFlags) (int, error) {
	s.host.lastStream = stream
	return s.host.writeResults(s.decode(stream), units, values, flags)
}

func (s *fakeShape) RowCount(section SectionID) (int, error) {
	return s.host.RowCount(s.id, section)
}

// fakeScope records how an undo scope was ended.
type fakeScope struct {
	begun    []string
	ends     []bool
	beginErr error
	endErr   error
}

type fakeScopeHandle struct{ s *fakeScope }

func (f *fakeScope) BeginUndoScope(name string) (UndoScope, error) {
	if f.beginErr != nil {
		return nil, f.beginErr
	}
	f.begun = append(f.begun, name)
	return fakeScopeHandle{f}, nil
}

func (h fakeScopeHandle) End(commit bool) error {
	h.s.ends = append(h.s.ends, commit)
	return h.s.endErr
}
