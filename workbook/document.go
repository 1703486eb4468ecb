// Package workbook stores object property sheets in an xlsx workbook and
// serves them through the shapesheet batch host interfaces.
//
// Each object section lives on its own worksheet named "S<id>.<section>";
// a cell's row and column map one to one onto worksheet coordinates. Cell
// formulas are kept as worksheet formulas and evaluated with expr.
package workbook

import (
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"sync"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/javajack/shapesheet"
)

var (
	ErrShapeNotFound     = errors.New("shape not found")
	ErrShapeExists       = errors.New("shape already exists")
	ErrRowNotFound       = errors.New("row not found")
	ErrCellNotFound      = errors.New("cell not found")
	ErrNotRepeating      = errors.New("section has no rows")
	ErrCellGuarded       = errors.New("cell is guarded")
	ErrCircularReference = errors.New("circular reference")
	ErrEvaluation        = errors.New("cannot evaluate formula")
	ErrBadStream         = errors.New("malformed stream")
	ErrNotShapeSheet     = errors.New("workbook has no shape registry")
)

// registrySheet lists every shape and section with its row count.
const registrySheet = "_registry"

type regKey struct {
	shape   int
	section shapesheet.SectionID
}

// Document is a page or master backed by an excelize workbook. It implements
// shapesheet.ContainerHost and shapesheet.UndoScoper. All methods are safe for
// concurrent use.
type Document struct {
	mu       sync.Mutex
	file     *excelize.File
	sections map[regKey]int // the SectionObject entry registers the shape
	regRows  int // registry rows written so far, blank ones included
	eval     *evaluator
	logger   *zap.Logger
}

var (
	_ shapesheet.ContainerHost = (*Document)(nil)
	_ shapesheet.UndoScoper    = (*Document)(nil)
)

// New creates an empty document.
func New(opts ...Option) (*Document, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", registrySheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("create registry: %w", err)
	}
	return newDocument(f, opts)
}

// Open reads a document saved with SaveAs.
func Open(path string, opts ...Option) (*Document, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open document %q: %w", path, err)
	}
	return newDocument(f, opts)
}

// OpenReader reads a document from r.
func OpenReader(r io.Reader, opts ...Option) (*Document, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	return newDocument(f, opts)
}

func newDocument(f *excelize.File, opts []Option) (*Document, error) {
	o := buildOptions(opts)
	d := &Document{
		file:   f,
		eval:   newEvaluator(),
		logger: o.Logger,
	}
	if err := d.loadRegistry(); err != nil {
		f.Close()
		return nil, err
	}
	return d, nil
}

func (d *Document) loadRegistry() error {
	idx, err := d.file.GetSheetIndex(registrySheet)
	if err != nil {
		return fmt.Errorf("read registry: %w", err)
	}
	if idx < 0 {
		return ErrNotShapeSheet
	}
	rows, err := d.file.GetRows(registrySheet)
	if err != nil {
		return fmt.Errorf("read registry: %w", err)
	}
	d.sections = make(map[regKey]int, len(rows))
	for i, row := range rows {
		if blankRow(row) {
			continue
		}
		if len(row) < 3 {
			return fmt.Errorf("%w: registry row %d has %d columns", ErrNotShapeSheet, i+1, len(row))
		}
		var vals [3]int
		for j := range vals {
			v, err := strconv.Atoi(row[j])
			if err != nil {
				return fmt.Errorf("%w: registry row %d: %v", ErrNotShapeSheet, i+1, err)
			}
			vals[j] = v
		}
		d.sections[regKey{shape: vals[0], section: shapesheet.SectionID(vals[1])}] = vals[2]
	}
	d.regRows = len(rows)
	return nil
}

func blankRow(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}

// flushRegistry rewrites the registry sheet from d.sections. Stale rows are
// blanked rather than removed: removing a row makes excelize re-tokenise the
// formulas of every other sheet, which drops their whitespace.
func (d *Document) flushRegistry() error {
	keys := d.sortedKeys()
	for i, k := range keys {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		row := []any{k.shape, int(k.section), d.sections[k]}
		if err := d.file.SetSheetRow(registrySheet, cell, &row); err != nil {
			return fmt.Errorf("write registry: %w", err)
		}
	}
	for r := len(keys) + 1; r <= d.regRows; r++ {
		cell, err := excelize.CoordinatesToCellName(1, r)
		if err != nil {
			return err
		}
		blank := []any{nil, nil, nil}
		if err := d.file.SetSheetRow(registrySheet, cell, &blank); err != nil {
			return fmt.Errorf("write registry: %w", err)
		}
	}
	d.regRows = max(d.regRows, len(keys))
	return nil
}

func (d *Document) sortedKeys() []regKey {
	keys := make([]regKey, 0, len(d.sections))
	for k := range d.sections {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b regKey) int {
		if a.shape != b.shape {
			return a.shape - b.shape
		}
		return int(a.section) - int(b.section)
	})
	return keys
}

func sheetName(id int, section shapesheet.SectionID) string {
	return fmt.Sprintf("S%d.%d", id, section)
}

// AddShape registers a new object with an empty object section.
func (d *Document) AddShape(id int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if id < 0 || id > math.MaxInt16 {
		return fmt.Errorf("shape id %d out of range", id)
	}
	key := regKey{shape: id, section: shapesheet.SectionObject}
	if _, ok := d.sections[key]; ok {
		return fmt.Errorf("%w: %d", ErrShapeExists, id)
	}
	if _, err := d.file.NewSheet(sheetName(id, shapesheet.SectionObject)); err != nil {
		return fmt.Errorf("add shape %d: %w", id, err)
	}
	d.sections[key] = 0
	d.logger.Debug("add shape", zap.Int("shape", id))
	return d.flushRegistry()
}

// DeleteShape removes an object and all of its sections.
func (d *Document) DeleteShape(id int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.hasShape(id) {
		return fmt.Errorf("%w: %d", ErrShapeNotFound, id)
	}
	for k := range d.sections {
		if k.shape != id {
			continue
		}
		if err := d.file.DeleteSheet(sheetName(k.shape, k.section)); err != nil {
			return fmt.Errorf("delete shape %d: %w", id, err)
		}
		delete(d.sections, k)
	}
	d.logger.Debug("delete shape", zap.Int("shape", id))
	return d.flushRegistry()
}

// AddSectionRow appends a row to a repeating section of an object and
// returns its index.
func (d *Document) AddSectionRow(id int, section shapesheet.SectionID) (shapesheet.RowIndex, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.hasShape(id) {
		return 0, fmt.Errorf("%w: %d", ErrShapeNotFound, id)
	}
	if !shapesheet.IsRepeatingSection(section) {
		return 0, fmt.Errorf("%w: section %d", ErrNotRepeating, section)
	}
	key := regKey{shape: id, section: section}
	row, ok := d.sections[key]
	if !ok {
		if _, err := d.file.NewSheet(sheetName(id, section)); err != nil {
			return 0, fmt.Errorf("add section %d to shape %d: %w", section, id, err)
		}
	}
	if row >= math.MaxInt16 {
		return 0, fmt.Errorf("section %d of shape %d is full", section, id)
	}
	d.sections[key] = row + 1
	if err := d.flushRegistry(); err != nil {
		return 0, err
	}
	return shapesheet.RowIndex(row), nil
}

// HasShape reports whether the object is registered.
func (d *Document) HasShape(id int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.hasShape(id)
}

func (d *Document) hasShape(id int) bool {
	_, ok := d.sections[regKey{shape: id, section: shapesheet.SectionObject}]
	return ok
}

// Shapes returns the ids of all objects in ascending order.
func (d *Document) Shapes() []int {
	d.mu.Lock()
	defer d.mu.Unlock()
	var ids []int
	for _, k := range d.sortedKeys() {
		if k.section == shapesheet.SectionObject {
			ids = append(ids, k.shape)
		}
	}
	return ids
}

// Shape returns the single-object host of a registered shape.
func (d *Document) Shape(id int) (*Shape, error) {
	if !d.HasShape(id) {
		return nil, fmt.Errorf("%w: %d", ErrShapeNotFound, id)
	}
	return &Shape{doc: d, id: id}, nil
}

// RowCount returns the number of rows of a repeating section. Sections the
// object never had count zero rows.
func (d *Document) RowCount(shapeID int, section shapesheet.SectionID) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.hasShape(shapeID) {
		return 0, fmt.Errorf("%w: %d", ErrShapeNotFound, shapeID)
	}
	if !shapesheet.IsRepeatingSection(section) {
		return 0, fmt.Errorf("%w: section %d", ErrNotRepeating, section)
	}
	return d.sections[regKey{shape: shapeID, section: section}], nil
}

// GetFormulas implements shapesheet.ContainerHost.
func (d *Document) GetFormulas(stream []int16) ([]string, error) {
	cells, err := decodeContainer(stream)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.getFormulas(cells)
}

// GetResults implements shapesheet.ContainerHost.
func (d *Document) GetResults(stream []int16, kind shapesheet.ResultKind, units []shapesheet.UnitCode) ([]any, error) {
	cells, err := decodeContainer(stream)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.getResults(cells, kind, units)
}

// SetFormulas implements shapesheet.ContainerHost.
func (d *Document) SetFormulas(stream []int16, formulas []string, flags shapesheet.SetFlags) (int, error) {
	cells, err := decodeContainer(stream)
	if err != nil {
		return 0, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.setFormulas(cells, formulas, flags)
}

// SetResults implements shapesheet.ContainerHost.
func (d *Document) SetResults(stream []int16, units []shapesheet.UnitCode, values []any, flags shapesheet.SetFlags) (int, error) {
	cells, err := decodeContainer(stream)
	if err != nil {
		return 0, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.setResults(cells, units, values, flags)
}

// Write writes the document as xlsx to w.
func (d *Document) Write(w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.file.Write(w)
}

// SaveAs writes the document to path.
func (d *Document) SaveAs(path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.file.SaveAs(path); err != nil {
		return fmt.Errorf("save document %q: %w", path, err)
	}
	return nil
}

// Close releases the underlying workbook.
func (d *Document) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.file.Close()
}

func decodeContainer(stream []int16) ([]shapesheet.ShapeCell, error) {
	if len(stream)%4 != 0 {
		return nil, fmt.Errorf("%w: length %d is not a multiple of 4", ErrBadStream, len(stream))
	}
	cells := make([]shapesheet.ShapeCell, len(stream)/4)
	for i := range cells {
		c := stream[i*4:]
		cells[i] = shapesheet.ShapeCell{
			ShapeID: int(c[0]),
			Address: shapesheet.NewCellAddress(shapesheet.SectionID(c[1]), shapesheet.RowIndex(c[2]), shapesheet.ColumnID(c[3])),
		}
	}
	return cells, nil
}

// location is a cell resolved to its worksheet coordinates.
type location struct {
	sheet, cell string
}

func (d *Document) locate(c shapesheet.ShapeCell) (location, error) {
	if !d.hasShape(c.ShapeID) {
		return location{}, fmt.Errorf("%w: %d", ErrShapeNotFound, c.ShapeID)
	}
	a := c.Address
	if a.Row < 0 || a.Column < 0 {
		return location{}, fmt.Errorf("%w: %s", ErrCellNotFound, c)
	}
	if a.Section != shapesheet.SectionObject {
		if int(a.Row) >= d.sections[regKey{shape: c.ShapeID, section: a.Section}] {
			return location{}, fmt.Errorf("%w: %s", ErrRowNotFound, c)
		}
	}
	cell, err := excelize.CoordinatesToCellName(int(a.Column)+1, int(a.Row)+1)
	if err != nil {
		return location{}, fmt.Errorf("%w: %s: %v", ErrCellNotFound, c, err)
	}
	return location{sheet: sheetName(c.ShapeID, a.Section), cell: cell}, nil
}

func (d *Document) formulaAt(c shapesheet.ShapeCell) (string, location, error) {
	loc, err := d.locate(c)
	if err != nil {
		return "", loc, err
	}
	f, err := d.file.GetCellFormula(loc.sheet, loc.cell)
	if err != nil {
		return "", loc, fmt.Errorf("read %s: %w", c, err)
	}
	return f, loc, nil
}

func (d *Document) getFormulas(cells []shapesheet.ShapeCell) ([]string, error) {
	out := make([]string, len(cells))
	for i, c := range cells {
		f, _, err := d.formulaAt(c)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

func unitAt(units []shapesheet.UnitCode, i int) shapesheet.UnitCode {
	switch len(units) {
	case 0:
		return shapesheet.UnitNoCast
	case 1:
		return units[0]
	default:
		return units[i]
	}
}

func (d *Document) getResults(cells []shapesheet.ShapeCell, kind shapesheet.ResultKind, units []shapesheet.UnitCode) ([]any, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: result kind %s", ErrEvaluation, kind)
	}
	if len(units) > 1 && len(units) != len(cells) {
		return nil, fmt.Errorf("%w: %d unit codes for %d cells", ErrBadStream, len(units), len(cells))
	}
	out := make([]any, len(cells))
	for i, c := range cells {
		v, err := d.valueOf(c, make(map[shapesheet.ShapeCell]bool))
		if err != nil {
			return nil, fmt.Errorf("evaluate %s: %w", c, err)
		}
		if out[i], err = convert(v, kind, unitAt(units, i)); err != nil {
			return nil, fmt.Errorf("convert %s: %w", c, err)
		}
	}
	return out, nil
}

// valueOf evaluates a cell. References resolve to cells of the same object.
func (d *Document) valueOf(c shapesheet.ShapeCell, visiting map[shapesheet.ShapeCell]bool) (any, error) {
	if visiting[c] {
		return nil, fmt.Errorf("%w at %s", ErrCircularReference, c)
	}
	formula, _, err := d.formulaAt(c)
	if err != nil {
		return nil, err
	}
	src := source(formula)
	if v, ok := literal(src); ok {
		return v, nil
	}
	names, err := d.eval.references(src)
	if err != nil {
		return nil, fmt.Errorf("parse formula %q: %w", src, err)
	}

	visiting[c] = true
	defer delete(visiting, c)

	env := make(map[string]any, len(names)+2)
	for _, name := range names {
		addr, _ := shapesheet.LookupCell(name)
		v, err := d.valueOf(shapesheet.ShapeCell{ShapeID: c.ShapeID, Address: addr}, visiting)
		if err != nil {
			return nil, err
		}
		env[name] = v
	}
	return d.eval.run(src, env)
}

// checkCircular follows references from c without evaluating anything.
func (d *Document) checkCircular(c shapesheet.ShapeCell, visiting, done map[shapesheet.ShapeCell]bool) error {
	if done[c] {
		return nil
	}
	if visiting[c] {
		return fmt.Errorf("%w at %s", ErrCircularReference, c)
	}
	formula, _, err := d.formulaAt(c)
	if err != nil {
		return nil
	}
	src := source(formula)
	if _, ok := literal(src); ok {
		return nil
	}
	names, err := d.eval.references(src)
	if err != nil {
		return nil
	}

	visiting[c] = true
	defer delete(visiting, c)
	for _, name := range names {
		addr, _ := shapesheet.LookupCell(name)
		if err := d.checkCircular(shapesheet.ShapeCell{ShapeID: c.ShapeID, Address: addr}, visiting, done); err != nil {
			return err
		}
	}
	done[c] = true
	return nil
}

// setFormulas writes all formulas or none.
func (d *Document) setFormulas(cells []shapesheet.ShapeCell, formulas []string, flags shapesheet.SetFlags) (int, error) {
	if len(formulas) != len(cells) {
		return 0, fmt.Errorf("%w: %d formulas for %d cells", ErrBadStream, len(formulas), len(cells))
	}
	locs := make([]location, len(cells))
	old := make([]string, len(cells))
	for i, c := range cells {
		f, loc, err := d.formulaAt(c)
		if err != nil {
			return 0, err
		}
		if isGuarded(f) && !flags.Has(shapesheet.SetBlastGuards) {
			return 0, fmt.Errorf("%w: %s holds %q", ErrCellGuarded, c, f)
		}
		locs[i], old[i] = loc, f
	}

	for i, loc := range locs {
		if err := d.file.SetCellFormula(loc.sheet, loc.cell, formulas[i]); err != nil {
			d.restore(locs[:i], old)
			return 0, fmt.Errorf("write %s: %w", cells[i], err)
		}
	}

	if flags.Has(shapesheet.SetTestCircular) {
		done := make(map[shapesheet.ShapeCell]bool)
		for _, c := range cells {
			if err := d.checkCircular(c, make(map[shapesheet.ShapeCell]bool), done); err != nil {
				d.restore(locs, old)
				return 0, err
			}
		}
	}

	d.logger.Debug("set formulas",
		zap.Int("cells", len(cells)),
		zap.Bool("blastGuards", flags.Has(shapesheet.SetBlastGuards)),
		zap.Bool("testCircular", flags.Has(shapesheet.SetTestCircular)),
	)
	return len(cells), nil
}

// restore puts back old formulas in reverse order, so a cell written twice
// ends up with its original formula.
func (d *Document) restore(locs []location, old []string) {
	for i := len(locs) - 1; i >= 0; i-- {
		if err := d.file.SetCellFormula(locs[i].sheet, locs[i].cell, old[i]); err != nil {
			d.logger.Warn("restore formula", zap.String("sheet", locs[i].sheet), zap.String("cell", locs[i].cell), zap.Error(err))
		}
	}
}

func (d *Document) setResults(cells []shapesheet.ShapeCell, units []shapesheet.UnitCode, values []any, flags shapesheet.SetFlags) (int, error) {
	if len(values) != len(cells) {
		return 0, fmt.Errorf("%w: %d values for %d cells", ErrBadStream, len(values), len(cells))
	}
	if len(units) > 1 && len(units) != len(cells) {
		return 0, fmt.Errorf("%w: %d unit codes for %d cells", ErrBadStream, len(units), len(cells))
	}
	formulas := make([]string, len(values))
	for i, v := range values {
		f, err := unitFormula(v, unitAt(units, i))
		if err != nil {
			return 0, fmt.Errorf("value for %s: %w", cells[i], err)
		}
		formulas[i] = f
	}
	return d.setFormulas(cells, formulas, flags)
}
