package shapesheet

import (
	"fmt"

	"go.uber.org/zap"
)

// PendingEdit is one formula waiting for Commit.
type PendingEdit struct {
	ShapeID int
	Address CellAddress
	Formula string
}

type pendingResult struct {
	cell  ShapeCell
	value float64
	unit  UnitCode
}

// Writer accumulates formula edits from any number of call sites and applies
// them in a single host call. A Writer is one-shot: after Commit it rejects
// further edits and a second Commit.
//
// Commit must run inside an undo scope held by the caller (see WithUndoScope);
// the Writer neither opens nor rolls back scopes itself.
type Writer struct {
	// BlastGuards asks the host to ignore cell guards for this batch.
	BlastGuards bool
	// TestCircular asks the host to reject edits that create circular references.
	TestCircular bool

	edits     []PendingEdit
	results   []pendingResult
	committed bool
	logger    *zap.Logger
}

// NewWriter creates an open Writer.
func NewWriter(opts ...Option) *Writer {
	o := buildOptions(opts)
	return &Writer{
		BlastGuards:  o.blastGuards,
		TestCircular: o.testCircular,
		logger:       o.logger,
	}
}

// SetFormula queues formula for the cell addr of shapeID. Queuing the same
// cell again replaces the formula but keeps the cell's original position.
func (w *Writer) SetFormula(shapeID int, addr CellAddress, formula string) error {
	if w.committed {
		return ErrAlreadyCommitted
	}
	w.edits = append(w.edits, PendingEdit{ShapeID: shapeID, Address: addr, Formula: formula})
	return nil
}

// SetResult queues a numeric result, expressed in unit, for the cell addr of shapeID.
func (w *Writer) SetResult(shapeID int, addr CellAddress, value float64, unit UnitCode) error {
	if w.committed {
		return ErrAlreadyCommitted
	}
	w.results = append(w.results, pendingResult{cell: ShapeCell{ShapeID: shapeID, Address: addr}, value: value, unit: unit})
	return nil
}

// Pending returns the formula edits that Commit would apply, after
// last-write-wins deduplication.
func (w *Writer) Pending() []PendingEdit {
	return dedupeEdits(w.edits)
}

// Len returns the number of queued calls, duplicates included.
func (w *Writer) Len() int { return len(w.edits) + len(w.results) }

// Committed reports whether Commit has been called.
func (w *Writer) Committed() bool { return w.committed }

// Flags returns the host flags Commit will pass.
func (w *Writer) Flags() SetFlags {
	var f SetFlags
	if w.BlastGuards {
		f |= SetBlastGuards
	}
	if w.TestCircular {
		f |= SetTestCircular
	}
	return f
}

// Commit applies all queued formulas with one SetFormulas call (and queued
// results with one SetResults call). With nothing queued it returns without
// calling the host. Whatever the outcome, the writer is committed afterwards;
// host errors are returned unchanged and nothing is retried.
func (w *Writer) Commit(s Surface) error {
	if w.committed {
		return ErrAlreadyCommitted
	}
	w.committed = true

	edits := dedupeEdits(w.edits)
	results := dedupeResults(w.results)
	w.edits, w.results = nil, nil

	log := w.logger.With(
		zap.String("surface", s.Kind()),
		zap.Bool("blastGuards", w.BlastGuards),
		zap.Bool("testCircular", w.TestCircular),
	)
	if len(edits) == 0 && len(results) == 0 {
		log.Debug("commit skipped, no pending edits")
		return nil
	}

	if len(edits) > 0 {
		cells := make([]ShapeCell, len(edits))
		formulas := make([]string, len(edits))
		for i, e := range edits {
			cells[i] = ShapeCell{ShapeID: e.ShapeID, Address: e.Address}
			formulas[i] = e.Formula
		}
		stream, err := s.EncodeStream(cells)
		if err != nil {
			return err
		}
		if _, err := s.SetFormulas(stream, formulas, w.Flags()); err != nil {
			return err
		}
	}

	if len(results) > 0 {
		cells := make([]ShapeCell, len(results))
		units := make([]UnitCode, len(results))
		values := make([]any, len(results))
		for i, r := range results {
			cells[i] = r.cell
			units[i] = r.unit
			values[i] = r.value
		}
		stream, err := s.EncodeStream(cells)
		if err != nil {
			return err
		}
		if _, err := s.SetResults(stream, units, values, w.Flags()); err != nil {
			return err
		}
	}

	log.Debug("commit applied", zap.Int("formulas", len(edits)), zap.Int("results", len(results)))
	return nil
}

// String summarises the writer state, e.g. "writer(open, 3 edits)".
func (w *Writer) String() string {
	state := "open"
	if w.committed {
		state = "committed"
	}
	return fmt.Sprintf("writer(%s, %d edits)", state, w.Len())
}

// dedupeEdits keeps one edit per cell: the last formula, at the first position.
func dedupeEdits(edits []PendingEdit) []PendingEdit {
	out := make([]PendingEdit, 0, len(edits))
	pos := make(map[ShapeCell]int, len(edits))
	for _, e := range edits {
		key := ShapeCell{ShapeID: e.ShapeID, Address: e.Address}
		if i, ok := pos[key]; ok {
			out[i].Formula = e.Formula
			continue
		}
		pos[key] = len(out)
		out = append(out, e)
	}
	return out
}

func dedupeResults(results []pendingResult) []pendingResult {
	out := make([]pendingResult, 0, len(results))
	pos := make(map[ShapeCell]int, len(results))
	for _, r := range results {
		if i, ok := pos[r.cell]; ok {
			out[i] = r
			continue
		}
		pos[r.cell] = len(out)
		out = append(out, r)
	}
	return out
}
