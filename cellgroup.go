package shapesheet

// namedCell is one member of a typed cell group.
type namedCell struct {
	label string
	addr  CellAddress
}

// groupLayout describes the query behind a typed cell group. Fixed layouts
// use addr fully; section layouts only use the column of each member.
type groupLayout struct {
	key     string
	section SectionID // 0 for a fixed group
	cells   []namedCell
}

func (g groupLayout) build() (*CellQuery, error) {
	q := NewCellQuery(g.key)
	if g.section == 0 {
		for _, c := range g.cells {
			if _, err := q.AddColumn(c.addr, c.label); err != nil {
				return nil, err
			}
		}
		return q, nil
	}
	sq, err := q.AddSection(g.section)
	if err != nil {
		return nil, err
	}
	for _, c := range g.cells {
		if _, err := sq.AddColumn(c.addr.Column, c.label); err != nil {
			return nil, err
		}
	}
	return q, nil
}

func (g groupLayout) query(e *Executor) (*CellQuery, error) {
	return e.Cache().Get(g.key, g.build)
}

// apply queues every non-empty formula (given in layout order) on w.
func (g groupLayout) apply(w *Writer, shapeID int, formulas []string) error {
	for i, c := range g.cells {
		if formulas[i] == "" {
			continue
		}
		if err := w.SetFormula(shapeID, c.addr, formulas[i]); err != nil {
			return err
		}
	}
	return nil
}

func readFixedGroup[T ResultType](e *Executor, g groupLayout, targets []int) ([][]CellData[T], error) {
	q, err := g.query(e)
	if err != nil {
		return nil, err
	}
	res, err := QueryCellData[T](e, q, targets)
	if err != nil {
		return nil, err
	}
	rows := make([][]CellData[T], len(targets))
	for i := range targets {
		rows[i] = res.Cells.Row(i).Cells()
	}
	return rows, nil
}

func formulasOf[T any](cells ...CellData[T]) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = c.Formula
	}
	return out
}

var xformLayout = groupLayout{
	key: "xform",
	cells: []namedCell{
		{"PinX", PinX}, {"PinY", PinY},
		{"LocPinX", LocPinX}, {"LocPinY", LocPinY},
		{"Width", Width}, {"Height", Height},
		{"Angle", Angle},
	},
}

// XFormCells are the position, size and rotation cells of an object.
type XFormCells struct {
	PinX    CellData[float64]
	PinY    CellData[float64]
	LocPinX CellData[float64]
	LocPinY CellData[float64]
	Width   CellData[float64]
	Height  CellData[float64]
	Angle   CellData[float64]
}

// GetXFormCells reads XFormCells for every target.
func GetXFormCells(e *Executor, targets []int) ([]XFormCells, error) {
	rows, err := readFixedGroup[float64](e, xformLayout, targets)
	if err != nil {
		return nil, err
	}
	out := make([]XFormCells, len(rows))
	for i, r := range rows {
		out[i] = XFormCells{
			PinX: r[0], PinY: r[1],
			LocPinX: r[2], LocPinY: r[3],
			Width: r[4], Height: r[5],
			Angle: r[6],
		}
	}
	return out, nil
}

// Apply queues the group's non-empty formulas for shapeID on w.
func (c XFormCells) Apply(w *Writer, shapeID int) error {
	return xformLayout.apply(w, shapeID, formulasOf(c.PinX, c.PinY, c.LocPinX, c.LocPinY, c.Width, c.Height, c.Angle))
}

var lockLayout = groupLayout{
	key: "lock",
	cells: []namedCell{
		{"LockAspect", LockAspect}, {"LockBegin", LockBegin},
		{"LockCalcWH", LockCalcWH}, {"LockCrop", LockCrop},
		{"LockDelete", LockDelete}, {"LockEnd", LockEnd},
		{"LockFormat", LockFormat}, {"LockGroup", LockGroup},
		{"LockHeight", LockHeight}, {"LockMoveX", LockMoveX},
		{"LockMoveY", LockMoveY}, {"LockRotate", LockRotate},
		{"LockSelect", LockSelect}, {"LockTextEdit", LockTextEdit},
		{"LockVtxEdit", LockVtxEdit}, {"LockWidth", LockWidth},
	},
}

// LockCells are the protection flags of an object.
type LockCells struct {
	Aspect   CellData[int32]
	Begin    CellData[int32]
	CalcWH   CellData[int32]
	Crop     CellData[int32]
	Delete   CellData[int32]
	End      CellData[int32]
	Format   CellData[int32]
	Group    CellData[int32]
	Height   CellData[int32]
	MoveX    CellData[int32]
	MoveY    CellData[int32]
	Rotate   CellData[int32]
	Select   CellData[int32]
	TextEdit CellData[int32]
	VtxEdit  CellData[int32]
	Width    CellData[int32]
}

// GetLockCells reads LockCells for every target.
func GetLockCells(e *Executor, targets []int) ([]LockCells, error) {
	rows, err := readFixedGroup[int32](e, lockLayout, targets)
	if err != nil {
		return nil, err
	}
	out := make([]LockCells, len(rows))
	for i, r := range rows {
		out[i] = LockCells{
			Aspect: r[0], Begin: r[1], CalcWH: r[2], Crop: r[3],
			Delete: r[4], End: r[5], Format: r[6], Group: r[7],
			Height: r[8], MoveX: r[9], MoveY: r[10], Rotate: r[11],
			Select: r[12], TextEdit: r[13], VtxEdit: r[14], Width: r[15],
		}
	}
	return out, nil
}

// Apply queues the group's non-empty formulas for shapeID on w.
func (c LockCells) Apply(w *Writer, shapeID int) error {
	return lockLayout.apply(w, shapeID, formulasOf(
		c.Aspect, c.Begin, c.CalcWH, c.Crop, c.Delete, c.End, c.Format, c.Group,
		c.Height, c.MoveX, c.MoveY, c.Rotate, c.Select, c.TextEdit, c.VtxEdit, c.Width))
}

var characterLayout = groupLayout{
	key:     "character",
	section: SectionCharacter,
	cells: []namedCell{
		{"Font", CharFont}, {"Color", CharColor},
		{"Style", CharStyle}, {"Case", CharCase},
		{"Size", CharSize},
	},
}

// CharacterCells are the formatting cells of one row of the Character section.
type CharacterCells struct {
	Font  CellData[int32]
	Color CellData[int32]
	Style CellData[int32]
	Case  CellData[int32]
	Size  CellData[float64]
}

// GetCharacterCells reads every Character row of every target. The outer
// slice is aligned with targets; a target without rows gets an empty slice.
func GetCharacterCells(e *Executor, targets []int) ([][]CharacterCells, error) {
	q, err := characterLayout.query(e)
	if err != nil {
		return nil, err
	}
	res, err := QueryCellData[float64](e, q, targets)
	if err != nil {
		return nil, err
	}
	out := make([][]CharacterCells, len(targets))
	for i := range targets {
		rows := res.Section.GroupRows(i)
		out[i] = make([]CharacterCells, len(rows))
		for j, row := range rows {
			r := row.Cells()
			out[i][j] = CharacterCells{
				Font: truncated(r[0]), Color: truncated(r[1]),
				Style: truncated(r[2]), Case: truncated(r[3]),
				Size: r[4],
			}
		}
	}
	return out, nil
}

// Apply queues the row's non-empty formulas for shapeID on w.
func (c CharacterCells) Apply(w *Writer, shapeID int, row RowIndex) error {
	formulas := []string{c.Font.Formula, c.Color.Formula, c.Style.Formula, c.Case.Formula, c.Size.Formula}
	for i, m := range characterLayout.cells {
		if formulas[i] == "" {
			continue
		}
		if err := w.SetFormula(shapeID, m.addr.WithRow(row), formulas[i]); err != nil {
			return err
		}
	}
	return nil
}

func truncated(cd CellData[float64]) CellData[int32] {
	return CellData[int32]{Formula: cd.Formula, Result: int32(cd.Result), HasFormula: cd.HasFormula, HasResult: cd.HasResult}
}
