package shapesheet

import (
	"fmt"
	"math"
)

// ShapeHost is the native batch surface of a single object. Its streams are
// three wide: section, row, column.
type ShapeHost interface {
	ID() int
	GetFormulas(stream []int16) ([]string, error)
	GetResults(stream []int16, kind ResultKind, units []UnitCode) ([]any, error)
	SetFormulas(stream []int16, formulas []string, flags SetFlags) (int, error)
	SetResults(stream []int16, units []UnitCode, values []any, flags SetFlags) (int, error)
	RowCount(section SectionID) (int, error)
}

// ContainerHost is the native batch surface of a page or a master. Its
// streams are four wide: shape id, section, row, column.
type ContainerHost interface {
	GetFormulas(stream []int16) ([]string, error)
	GetResults(stream []int16, kind ResultKind, units []UnitCode) ([]any, error)
	SetFormulas(stream []int16, formulas []string, flags SetFlags) (int, error)
	SetResults(stream []int16, units []UnitCode, values []any, flags SetFlags) (int, error)
	RowCount(shapeID int, section SectionID) (int, error)
}

// target is implemented once per addressable kind: shape, page, master.
type target interface {
	kind() string
	chunkWidth() int
	encode(cells []ShapeCell) ([]int16, error)
	getFormulas(stream []int16) ([]string, error)
	getResults(stream []int16, kind ResultKind, units []UnitCode) ([]any, error)
	setFormulas(stream []int16, formulas []string, flags SetFlags) (int, error)
	setResults(stream []int16, units []UnitCode, values []any, flags SetFlags) (int, error)
	rowCount(shapeID int, section SectionID) (int, error)
	accept(shapeID int) error
}

type shapeTarget struct{ h ShapeHost }

func (t shapeTarget) kind() string    { return fmt.Sprintf("shape %d", t.h.ID()) }
func (t shapeTarget) chunkWidth() int { return 3 }

func (t shapeTarget) encode(cells []ShapeCell) ([]int16, error) {
	stream := make([]int16, 0, len(cells)*3)
	for _, c := range cells {
		if c.ShapeID != t.h.ID() {
			return nil, &InvalidQueryError{Reason: fmt.Sprintf("%s addressed through the surface of shape %d", c, t.h.ID())}
		}
		stream = append(stream, int16(c.Address.Section), int16(c.Address.Row), int16(c.Address.Column))
	}
	return stream, nil
}

func (t shapeTarget) getFormulas(stream []int16) ([]string, error) { return t.h.GetFormulas(stream) }
func (t shapeTarget) getResults(stream []int16, kind ResultKind, units []UnitCode) ([]any, error) {
	return t.h.GetResults(stream, kind, units)
}
func (t shapeTarget) setFormulas(stream []int16, formulas []string, flags SetFlags) (int, error) {
	return t.h.SetFormulas(stream, formulas, flags)
}
func (t shapeTarget) setResults(stream []int16, units []UnitCode, values []any, flags SetFlags) (int, error) {
	return t.h.SetResults(stream, units, values, flags)
}
func (t shapeTarget) rowCount(shapeID int, section SectionID) (int, error) {
	if err := t.accept(shapeID); err != nil {
		return 0, err
	}
	return t.h.RowCount(section)
}

func (t shapeTarget) accept(shapeID int) error {
	if shapeID != t.h.ID() {
		return &InvalidQueryError{Reason: fmt.Sprintf("shape %d queried through the surface of shape %d", shapeID, t.h.ID())}
	}
	return nil
}

type containerTarget struct{ h ContainerHost }

func (t containerTarget) chunkWidth() int { return 4 }

func (t containerTarget) encode(cells []ShapeCell) ([]int16, error) {
	stream := make([]int16, 0, len(cells)*4)
	for _, c := range cells {
		id, err := shapeID16(c.ShapeID)
		if err != nil {
			return nil, err
		}
		stream = append(stream, id, int16(c.Address.Section), int16(c.Address.Row), int16(c.Address.Column))
	}
	return stream, nil
}

func (t containerTarget) getFormulas(stream []int16) ([]string, error) { return t.h.GetFormulas(stream) }
func (t containerTarget) getResults(stream []int16, kind ResultKind, units []UnitCode) ([]any, error) {
	return t.h.GetResults(stream, kind, units)
}
func (t containerTarget) setFormulas(stream []int16, formulas []string, flags SetFlags) (int, error) {
	return t.h.SetFormulas(stream, formulas, flags)
}
func (t containerTarget) setResults(stream []int16, units []UnitCode, values []any, flags SetFlags) (int, error) {
	return t.h.SetResults(stream, units, values, flags)
}
func (t containerTarget) rowCount(shapeID int, section SectionID) (int, error) {
	return t.h.RowCount(shapeID, section)
}

func (containerTarget) accept(shapeID int) error {
	_, err := shapeID16(shapeID)
	return err
}

type pageTarget struct{ containerTarget }

func (pageTarget) kind() string { return "page" }

type masterTarget struct{ containerTarget }

func (masterTarget) kind() string { return "master" }

// Surface is the single narrow boundary to the host's batch primitives. It
// hides which kind of target (shape, page or master) the streams go to.
type Surface struct {
	t target
}

// NewShapeSurface creates a Surface over a single object.
func NewShapeSurface(h ShapeHost) Surface {
	return Surface{t: shapeTarget{h: h}}
}

// NewPageSurface creates a Surface over all objects of a page.
func NewPageSurface(h ContainerHost) Surface {
	return Surface{t: pageTarget{containerTarget{h: h}}}
}

// NewMasterSurface creates a Surface over all objects of a master (template).
func NewMasterSurface(h ContainerHost) Surface {
	return Surface{t: masterTarget{containerTarget{h: h}}}
}

// Kind describes the target, e.g. "page" or "shape 3".
func (s Surface) Kind() string {
	if s.t == nil {
		return "none"
	}
	return s.t.kind()
}

// ChunkWidth returns 3 for a shape surface and 4 for page or master surfaces.
func (s Surface) ChunkWidth() int {
	if s.t == nil {
		return 0
	}
	return s.t.chunkWidth()
}

// EncodeStream converts logical shape cells into the target's native stream.
func (s Surface) EncodeStream(cells []ShapeCell) ([]int16, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return s.t.encode(cells)
}

// GetFormulas reads the formula of every addressed cell.
func (s Surface) GetFormulas(stream []int16) ([]string, error) {
	n, err := s.items(stream)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return []string{}, nil
	}
	formulas, err := s.t.getFormulas(stream)
	if err != nil {
		return nil, err
	}
	if len(formulas) != n {
		return nil, &HostContractViolationError{Op: "GetFormulas", Target: s.Kind(), Expected: n, Actual: len(formulas)}
	}
	return formulas, nil
}

// GetResultsOfKind reads evaluated results converted to kind. An unsupported
// kind fails before the host is called.
func (s Surface) GetResultsOfKind(stream []int16, kind ResultKind, units []UnitCode) ([]any, error) {
	if !kind.Valid() {
		return nil, &UnsupportedResultTypeError{Kind: kind}
	}
	n, err := s.items(stream)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return []any{}, nil
	}
	if err := checkUnits(units, n); err != nil {
		return nil, err
	}
	results, err := s.t.getResults(stream, kind, units)
	if err != nil {
		return nil, err
	}
	if len(results) != n {
		return nil, &HostContractViolationError{Op: "GetResults", Target: s.Kind(), Expected: n, Actual: len(results)}
	}
	return results, nil
}

// GetResults reads evaluated results as T.
func GetResults[T ResultType](s Surface, stream []int16, units []UnitCode) ([]T, error) {
	raw, err := s.GetResultsOfKind(stream, KindOf[T](), units)
	if err != nil {
		return nil, err
	}
	out := make([]T, len(raw))
	for i, v := range raw {
		tv, ok := v.(T)
		if !ok {
			return nil, &HostContractViolationError{
				Op: "GetResults", Target: s.Kind(), Expected: len(raw), Actual: len(raw),
				Detail: fmt.Sprintf("item %d is %T, want %s", i, v, KindOf[T]()),
			}
		}
		out[i] = tv
	}
	return out, nil
}

// SetFormulas writes one formula per addressed cell and returns the number of
// cells the host set.
func (s Surface) SetFormulas(stream []int16, formulas []string, flags SetFlags) (int, error) {
	n, err := s.items(stream)
	if err != nil {
		return 0, err
	}
	if len(formulas) != n {
		return 0, &MalformedStreamError{Reason: fmt.Sprintf("%d formulas for %d addressed cells", len(formulas), n)}
	}
	if n == 0 {
		return 0, nil
	}
	count, err := s.t.setFormulas(stream, formulas, flags)
	if err != nil {
		return 0, err
	}
	if count != n {
		return count, &HostContractViolationError{Op: "SetFormulas", Target: s.Kind(), Expected: n, Actual: count}
	}
	return count, nil
}

// SetResults writes one value per addressed cell, expressed in units.
func (s Surface) SetResults(stream []int16, units []UnitCode, values []any, flags SetFlags) (int, error) {
	n, err := s.items(stream)
	if err != nil {
		return 0, err
	}
	if len(values) != n {
		return 0, &MalformedStreamError{Reason: fmt.Sprintf("%d values for %d addressed cells", len(values), n)}
	}
	if err := checkUnits(units, n); err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	count, err := s.t.setResults(stream, units, values, flags)
	if err != nil {
		return 0, err
	}
	if count != n {
		return count, &HostContractViolationError{Op: "SetResults", Target: s.Kind(), Expected: n, Actual: count}
	}
	return count, nil
}

// CheckTargets reports the first shape id the surface cannot address. It
// makes no host call.
func (s Surface) CheckTargets(targets []int) error {
	if err := s.check(); err != nil {
		return err
	}
	for _, id := range targets {
		if err := s.t.accept(id); err != nil {
			return err
		}
	}
	return nil
}

// SectionRowCount asks the host how many rows an object has in a section.
func (s Surface) SectionRowCount(shapeID int, section SectionID) (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	n, err := s.t.rowCount(shapeID, section)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, &HostContractViolationError{Op: "RowCount", Target: s.Kind(), Expected: 0, Actual: n, Detail: "negative row count"}
	}
	if n > math.MaxInt16+1 {
		return 0, &HostContractViolationError{
			Op: "RowCount", Target: s.Kind(), Expected: math.MaxInt16 + 1, Actual: n,
			Detail: fmt.Sprintf("shape %d section %d has more rows than a row index can address", shapeID, section),
		}
	}
	return n, nil
}

func (s Surface) check() error {
	if s.t == nil {
		return &InvalidQueryError{Reason: "surface has no target"}
	}
	return nil
}

// items validates the stream against the chunk width and returns the number of cells.
func (s Surface) items(stream []int16) (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	w := s.t.chunkWidth()
	if len(stream)%w != 0 {
		return 0, &MalformedStreamError{Length: len(stream), ChunkWidth: w}
	}
	return len(stream) / w, nil
}

func checkUnits(units []UnitCode, n int) error {
	if len(units) == 0 || len(units) == 1 || len(units) == n {
		return nil
	}
	return &MalformedStreamError{Reason: fmt.Sprintf("%d unit codes for %d addressed cells", len(units), n)}
}
