package shapesheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func xformQuery() (*CellQuery, QueryColumn, QueryColumn) {
	q := NewCellQuery("position")
	x := q.MustAddColumn(PinX, "")
	y := q.MustAddColumn(PinY, "")
	return q, x, y
}

func TestExecutor_FixedRowsFollowTargetOrder(t *testing.T) {
	h := newFakeHost()
	for id := 1; id <= 3; id++ {
		h.put(id, PinX, "", float64(id))
		h.put(id, PinY, "", float64(id*10))
	}
	e := NewExecutor(NewPageSurface(h))
	q, x, y := xformQuery()

	res, err := QueryResults[float64](e, q, []int{3, 1, 2})
	require.NoError(t, err)
	require.NotNil(t, res.Cells)
	assert.Nil(t, res.Section)
	assert.Nil(t, res.Cells.Formulas(), "formulas were not requested")

	for i, id := range []int{3, 1, 2} {
		row := res.Cells.Row(i)
		assert.Equal(t, id, row.Group().ShapeID)
		assert.Equal(t, float64(id), row.Cell(x).Result)
		assert.Equal(t, float64(id*10), row.Cell(y).Result)
	}
	assert.Equal(t, 1, h.getResultCalls)
	assert.Zero(t, h.getFormulaCalls)
	assert.True(t, q.Sealed(), "execution seals the query")
}

func TestExecutor_OneCallPerDirection(t *testing.T) {
	h := newFakeHost()
	h.put(1, PinX, "1 in", 1)
	h.put(2, PinX, "Width*0.5", 3)
	h.setRows(1, SectionCharacter, 2)
	h.setRows(2, SectionCharacter, 1)
	e := NewExecutor(NewPageSurface(h))

	q := NewCellQuery("mixed")
	pin := q.MustAddColumn(PinX, "")
	q.MustAddSection(SectionCharacter).MustAddColumn(ColCharSize, "")

	res, err := QueryCellData[float64](e, q, []int{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 1, h.getFormulaCalls)
	assert.Equal(t, 1, h.getResultCalls)
	assert.Equal(t, 2, h.rowCountCalls)
	assert.Len(t, h.lastStream, 4*(2+3), "fixed and section chunks share one stream")

	assert.Equal(t, NewCellData("Width*0.5", 3.0), res.Cells.Row(1).Cell(pin))
	assert.Equal(t, 3, res.Section.RowCount())
}

func TestExecutor_SectionGroupsKeepEmptyTargets(t *testing.T) {
	h := newFakeHost()
	h.setRows(1, SectionCharacter, 2)
	h.setRows(3, SectionCharacter, 1)
	h.put(1, CharSize.WithRow(0), "8 pt", 8)
	h.put(1, CharSize.WithRow(1), "10 pt", 10)
	h.put(3, CharSize.WithRow(0), "12 pt", 12)
	e := NewExecutor(NewPageSurface(h))

	q := NewCellQuery("sizes")
	size := q.MustAddSection(SectionCharacter).MustAddColumn(ColCharSize, "")

	res, err := QueryCellData[float64](e, q, []int{1, 2, 3})
	require.NoError(t, err)
	assert.Nil(t, res.Cells, "no fixed columns")
	require.NotNil(t, res.Section)

	groups := res.Section.Groups()
	require.Len(t, groups, 3)
	assert.Equal(t, TableRowGroup{TargetIndex: 0, ShapeID: 1, StartRow: 0, Count: 2}, groups[0])
	assert.Equal(t, TableRowGroup{TargetIndex: 1, ShapeID: 2, StartRow: 2, Count: 0}, groups[1])
	assert.Equal(t, TableRowGroup{TargetIndex: 2, ShapeID: 3, StartRow: 2, Count: 1}, groups[2])

	assert.Empty(t, res.Section.GroupRows(1))
	last := res.Section.GroupRows(2)
	require.Len(t, last, 1)
	assert.Equal(t, "12 pt", last[0].Cell(size).Formula)

	shapes := res.Shapes()
	require.Len(t, shapes, 3)
	assert.Len(t, shapes[0].Rows, 2)
	assert.Empty(t, shapes[1].Rows)
	assert.Equal(t, 10.0, shapes[0].Rows[1][0].Result)
}

func TestExecutor_ZeroTargetsSkipHost(t *testing.T) {
	h := newFakeHost()
	e := NewExecutor(NewPageSurface(h))

	q := NewCellQuery("empty targets")
	q.MustAddColumn(PinX, "")
	q.MustAddSection(SectionCharacter).MustAddColumn(ColCharSize, "")

	res, err := QueryCellData[float64](e, q, nil)
	require.NoError(t, err)
	assert.Zero(t, h.calls())
	assert.Equal(t, 0, res.Len())
	require.NotNil(t, res.Cells)
	assert.Equal(t, 0, res.Cells.RowCount())
	require.NotNil(t, res.Section)
	assert.Equal(t, 0, res.Section.RowCount())
	assert.NotNil(t, res.Cells.Formulas())
	assert.NotNil(t, res.Cells.Results())
}

func TestExecutor_InvalidQuery(t *testing.T) {
	h := newFakeHost()
	e := NewExecutor(NewPageSurface(h))

	q := NewCellQuery("nothing")
	_, err := QueryFormulas(e, q, []int{1})
	var iq *InvalidQueryError
	require.ErrorAs(t, err, &iq)
	assert.Zero(t, h.calls())
	assert.False(t, q.Sealed())
}

func TestExecutor_ShapeSurface(t *testing.T) {
	h := newFakeHost()
	h.put(4, PinX, "2 in", 2)
	e := NewExecutor(NewShapeSurface(&fakeShape{host: h, id: 4}))
	q, x, _ := xformQuery()

	res, err := QueryFormulas(e, q, []int{4})
	require.NoError(t, err)
	assert.Equal(t, "2 in", res.Cells.Row(0).Cell(x).Formula)
	assert.Equal(t, []int16{1, 1, 0, 1, 1, 1}, h.lastStream)

	_, err = QueryFormulas(e, q, []int{5})
	var iq *InvalidQueryError
	assert.ErrorAs(t, err, &iq)
}

func TestExecutor_ShapeSurfaceForeignTargetBeforeHostCalls(t *testing.T) {
	h := newFakeHost()
	h.setRows(4, SectionCharacter, 2)
	e := NewExecutor(NewShapeSurface(&fakeShape{host: h, id: 4}))

	q := NewCellQuery("text")
	q.MustAddColumn(PinX, "")
	q.MustAddSection(SectionCharacter).MustAddColumn(ColCharSize, "")

	_, err := QueryCellData[float64](e, q, []int{4, 5})
	var iq *InvalidQueryError
	require.ErrorAs(t, err, &iq)
	assert.Zero(t, h.calls())
}

func TestExecutor_PageSurfaceShapeIDOutOfRange(t *testing.T) {
	h := newFakeHost()
	q, _, _ := xformQuery()

	_, err := QueryFormulas(NewExecutor(NewPageSurface(h)), q, []int{1, 40000})
	var ms *MalformedStreamError
	require.ErrorAs(t, err, &ms)
	assert.Zero(t, h.calls())
}

func TestExecutor_ResultUnits(t *testing.T) {
	h := newFakeHost()
	e := NewExecutor(NewPageSurface(h), WithResultUnits(UnitPoints))
	q, _, _ := xformQuery()

	_, err := QueryResults[float64](e, q, []int{1})
	require.NoError(t, err)
	assert.Equal(t, []UnitCode{UnitPoints}, h.lastUnits)
}

func TestExecutor_HostViolationSurfaces(t *testing.T) {
	h := newFakeHost()
	h.shortRead = true
	e := NewExecutor(NewPageSurface(h))
	q, _, _ := xformQuery()

	_, err := QueryResults[int32](e, q, []int{1, 2})
	var hv *HostContractViolationError
	assert.ErrorAs(t, err, &hv)
}

func TestExecutor_SealedQueryReused(t *testing.T) {
	h := newFakeHost()
	h.put(1, PinX, "", 1)
	h.put(2, PinX, "", 2)
	e := NewExecutor(NewPageSurface(h))
	q, x, _ := xformQuery()

	first, err := QueryResults[float64](e, q, []int{1})
	require.NoError(t, err)
	second, err := QueryResults[float64](e, q, []int{2})
	require.NoError(t, err)

	assert.Equal(t, 1.0, first.Cells.Row(0).Cell(x).Result)
	assert.Equal(t, 2.0, second.Cells.Row(0).Cell(x).Result)
}
