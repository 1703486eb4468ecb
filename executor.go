package shapesheet

import (
	"go.uber.org/zap"
)

// fetch selects which halves of the cell data an execution reads.
type fetch int

const (
	fetchFormulas fetch = 1 << iota
	fetchResults
)

// Executor runs CellQueries against one Surface. Each execution makes at most
// one host call per requested direction, plus one row count call per target
// when the query has a section group.
//
// An Executor holds no mutable state of its own, but the host document it
// talks to is shared: callers must serialise access to one document.
type Executor struct {
	surface Surface
	opts    *options
}

// NewExecutor creates an Executor bound to s.
func NewExecutor(s Surface, opts ...Option) *Executor {
	return &Executor{surface: s, opts: buildOptions(opts)}
}

// Surface returns the surface the executor reads from.
func (e *Executor) Surface() Surface { return e.surface }

// Cache returns the query cache configured with WithQueryCache, or nil.
func (e *Executor) Cache() *QueryCache { return e.opts.cache }

// QueryFormulas reads the formulas of q's cells for every target.
func QueryFormulas(e *Executor, q *CellQuery, targets []int) (*QueryResult[string], error) {
	return execute[string](e, q, targets, fetchFormulas)
}

// QueryResults reads the evaluated results of q's cells as T for every target.
func QueryResults[T ResultType](e *Executor, q *CellQuery, targets []int) (*QueryResult[T], error) {
	return execute[T](e, q, targets, fetchResults)
}

// QueryCellData reads both formulas and results of q's cells for every target.
func QueryCellData[T ResultType](e *Executor, q *CellQuery, targets []int) (*QueryResult[T], error) {
	return execute[T](e, q, targets, fetchFormulas|fetchResults)
}

// plan is the flattened address stream of one execution.
type plan struct {
	cells         []ShapeCell
	fixedCells    int
	sectionGroups []TableRowGroup
	sectionRows   int
}

// buildPlan lays out fixed chunks target by target, then section chunks in
// target-major, row-minor order. Every target gets a section group entry, even
// one with zero rows, so rows never shift onto the wrong target.
func (e *Executor) buildPlan(q *CellQuery, targets []int) (*plan, error) {
	if err := e.surface.CheckTargets(targets); err != nil {
		return nil, err
	}
	p := &plan{}
	p.cells = make([]ShapeCell, 0, len(targets)*len(q.columns))
	for _, id := range targets {
		for _, col := range q.columns {
			p.cells = append(p.cells, ShapeCell{ShapeID: id, Address: col.Address})
		}
	}
	p.fixedCells = len(p.cells)

	if q.section == nil {
		return p, nil
	}
	p.sectionGroups = make([]TableRowGroup, len(targets))
	for i, id := range targets {
		n, err := e.surface.SectionRowCount(id, q.section.section)
		if err != nil {
			return nil, err
		}
		p.sectionGroups[i] = TableRowGroup{TargetIndex: i, ShapeID: id, Count: n}
		for row := 0; row < n; row++ {
			for _, col := range q.section.columns {
				p.cells = append(p.cells, ShapeCell{ShapeID: id, Address: col.Address.WithRow(RowIndex(row))})
			}
		}
		p.sectionRows += n
	}
	return p, nil
}

func execute[T ResultType](e *Executor, q *CellQuery, targets []int, mode fetch) (*QueryResult[T], error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	q.Seal()

	res := &QueryResult[T]{Query: q, Targets: append([]int(nil), targets...)}
	if len(targets) == 0 {
		return res, res.assemble(&plan{sectionGroups: []TableRowGroup{}}, emptyIf[string](mode&fetchFormulas != 0), emptyIf[T](mode&fetchResults != 0))
	}

	p, err := e.buildPlan(q, targets)
	if err != nil {
		return nil, err
	}
	stream, err := e.surface.EncodeStream(p.cells)
	if err != nil {
		return nil, err
	}

	var formulas []string
	var results []T
	if mode&fetchFormulas != 0 {
		if formulas, err = e.surface.GetFormulas(stream); err != nil {
			return nil, err
		}
	}
	if mode&fetchResults != 0 {
		if results, err = GetResults[T](e.surface, stream, e.opts.resultUnits); err != nil {
			return nil, err
		}
	}

	if err := res.assemble(p, formulas, results); err != nil {
		return nil, err
	}
	e.opts.logger.Debug("cell query executed",
		zap.String("query", q.Name()),
		zap.String("surface", e.surface.Kind()),
		zap.Int("targets", len(targets)),
		zap.Int("cells", len(p.cells)),
		zap.Int("sectionRows", p.sectionRows),
		zap.Bool("formulas", formulas != nil),
		zap.Bool("results", results != nil),
	)
	return res, nil
}

// emptyIf returns an empty non-nil slice when requested, nil otherwise.
func emptyIf[X any](requested bool) []X {
	if requested {
		return []X{}
	}
	return nil
}

// part slices s while keeping "not requested" (nil) distinct from "empty".
func part[X any](s []X, lo, hi int) []X {
	if s == nil {
		return nil
	}
	return s[lo:hi]
}
