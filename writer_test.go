package shapesheet

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_LastWriteWinsAtFirstPosition(t *testing.T) {
	w := NewWriter()
	require.NoError(t, w.SetFormula(1, PinX, "1 in"))
	require.NoError(t, w.SetFormula(1, PinY, "2 in"))
	require.NoError(t, w.SetFormula(1, PinX, "3 in"))
	require.NoError(t, w.SetFormula(2, PinX, "4 in"))

	assert.Equal(t, 4, w.Len())
	assert.Equal(t, []PendingEdit{
		{ShapeID: 1, Address: PinX, Formula: "3 in"},
		{ShapeID: 1, Address: PinY, Formula: "2 in"},
		{ShapeID: 2, Address: PinX, Formula: "4 in"},
	}, w.Pending())

	h := newFakeHost()
	require.NoError(t, w.Commit(NewPageSurface(h)))
	assert.Equal(t, 1, h.setFormulaCalls)
	assert.Equal(t, []int16{1, 1, 1, 0, 1, 1, 1, 1, 2, 1, 1, 0}, h.lastStream)
	assert.Equal(t, "3 in", h.cells[ShapeCell{1, PinX}].formula)
}

func TestWriter_EmptyCommitSkipsHost(t *testing.T) {
	h := newFakeHost()
	w := NewWriter()
	require.NoError(t, w.Commit(NewPageSurface(h)))
	assert.Zero(t, h.calls())
	assert.True(t, w.Committed())
}

func TestWriter_OneShot(t *testing.T) {
	h := newFakeHost()
	w := NewWriter()
	require.NoError(t, w.SetFormula(1, PinX, "1"))
	require.NoError(t, w.Commit(NewPageSurface(h)))

	assert.ErrorIs(t, w.Commit(NewPageSurface(h)), ErrAlreadyCommitted)
	assert.ErrorIs(t, w.SetFormula(1, PinY, "2"), ErrAlreadyCommitted)
	assert.ErrorIs(t, w.SetResult(1, PinY, 2, UnitInches), ErrAlreadyCommitted)
	assert.Equal(t, 1, h.setFormulaCalls)
	assert.Equal(t, "writer(committed, 0 edits)", w.String())
}

func TestWriter_Flags(t *testing.T) {
	w := NewWriter()
	assert.Equal(t, SetFlags(0), w.Flags())

	w.BlastGuards = true
	assert.Equal(t, SetBlastGuards, w.Flags())
	w.TestCircular = true
	assert.Equal(t, SetBlastGuards|SetTestCircular, w.Flags())
	assert.True(t, w.Flags().Has(SetTestCircular))

	w = NewWriter(WithBlastGuards(true), WithTestCircular(true))
	assert.True(t, w.BlastGuards)
	assert.True(t, w.TestCircular)

	h := newFakeHost()
	require.NoError(t, w.SetFormula(1, PinX, "1"))
	require.NoError(t, w.Commit(NewPageSurface(h)))
	assert.Equal(t, SetFlags(6), h.lastFlags)
}

func TestWriter_HostErrorLeavesWriterCommitted(t *testing.T) {
	h := newFakeHost()
	h.setErr = errors.New("guarded")
	w := NewWriter()
	require.NoError(t, w.SetFormula(1, PinX, "1"))

	err := w.Commit(NewPageSurface(h))
	assert.Same(t, h.setErr, err)
	assert.True(t, w.Committed())
	assert.ErrorIs(t, w.Commit(NewPageSurface(h)), ErrAlreadyCommitted)
	assert.Equal(t, 1, h.setFormulaCalls, "nothing is retried")
}

func TestWriter_Results(t *testing.T) {
	h := newFakeHost()
	w := NewWriter()
	require.NoError(t, w.SetResult(1, Width, 72, UnitPoints))
	require.NoError(t, w.SetResult(1, Width, 144, UnitPoints))
	require.NoError(t, w.SetResult(1, Height, 1, UnitInches))

	require.NoError(t, w.Commit(NewPageSurface(h)))
	assert.Zero(t, h.setFormulaCalls)
	assert.Equal(t, 1, h.setResultCalls)
	assert.Equal(t, []UnitCode{UnitPoints, UnitInches}, h.lastUnits)
	assert.Equal(t, 144.0, h.cells[ShapeCell{1, Width}].result)
}

func TestWriter_ShapeSurfaceRejectsForeignShape(t *testing.T) {
	h := newFakeHost()
	w := NewWriter()
	require.NoError(t, w.SetFormula(2, PinX, "1"))

	err := w.Commit(NewShapeSurface(&fakeShape{host: h, id: 1}))
	var iq *InvalidQueryError
	assert.ErrorAs(t, err, &iq)
	assert.Zero(t, h.calls())
}

func TestWithUndoScope(t *testing.T) {
	t.Run("commit on success", func(t *testing.T) {
		s := &fakeScope{}
		require.NoError(t, WithUndoScope(s, "move", func() error { return nil }))
		assert.Equal(t, []string{"move"}, s.begun)
		assert.Equal(t, []bool{true}, s.ends)
	})

	t.Run("rollback on error", func(t *testing.T) {
		s := &fakeScope{}
		boom := errors.New("boom")
		err := WithUndoScope(s, "move", func() error { return boom })
		assert.Same(t, boom, err)
		assert.Equal(t, []bool{false}, s.ends)
	})

	t.Run("rollback on panic", func(t *testing.T) {
		s := &fakeScope{}
		assert.Panics(t, func() {
			_ = WithUndoScope(s, "move", func() error { panic("bad") })
		})
		assert.Equal(t, []bool{false}, s.ends)
	})

	t.Run("rollback failure is joined", func(t *testing.T) {
		s := &fakeScope{endErr: errors.New("cannot undo")}
		boom := errors.New("boom")
		err := WithUndoScope(s, "move", func() error { return boom })
		assert.ErrorIs(t, err, boom)
		assert.ErrorIs(t, err, s.endErr)
	})

	t.Run("begin failure", func(t *testing.T) {
		s := &fakeScope{beginErr: errors.New("locked")}
		called := false
		err := WithUndoScope(s, "move", func() error { called = true; return nil })
		assert.ErrorIs(t, err, s.beginErr)
		assert.False(t, called)
	})
}

func TestWriter_CommitInsideUndoScope(t *testing.T) {
	h := newFakeHost()
	s := &fakeScope{}
	w := NewWriter()
	require.NoError(t, w.SetFormula(1, PinX, "1 in"))

	err := WithUndoScope(s, "place", func() error {
		return w.Commit(NewPageSurface(h))
	})
	require.NoError(t, err)
	assert.Equal(t, []bool{true}, s.ends)
	assert.Equal(t, "1 in", h.cells[ShapeCell{1, PinX}].formula)
}
