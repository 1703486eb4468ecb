package shapesheet

// QueryResult is the output of one query execution.
type QueryResult[T any] struct {
	Query   *CellQuery
	Targets []int

	// Cells holds one row per target for the fixed columns; nil when the
	// query has none.
	Cells *QueryDataSet[T]

	// Section holds the repeating-section rows grouped by target; nil when
	// the query has no section group.
	Section *QueryDataSet[T]
}

// ShapeOutput is the hierarchical view of one target: its fixed cells and,
// for the section group, one slice of cells per row.
type ShapeOutput[T any] struct {
	ShapeID int
	Cells   []CellData[T]
	Rows    [][]CellData[T]
}

func (r *QueryResult[T]) assemble(p *plan, formulas []string, results []T) error {
	var err error
	if len(r.Query.columns) > 0 {
		groups := make([]TableRowGroup, len(r.Targets))
		for i, id := range r.Targets {
			groups[i] = TableRowGroup{TargetIndex: i, ShapeID: id, Count: 1}
		}
		r.Cells, err = NewQueryDataSet(
			part(formulas, 0, p.fixedCells), part(results, 0, p.fixedCells),
			r.Targets, len(r.Query.columns), len(r.Targets), groups)
		if err != nil {
			return err
		}
	}
	if r.Query.section != nil {
		end := len(p.cells)
		r.Section, err = NewQueryDataSet(
			part(formulas, p.fixedCells, end), part(results, p.fixedCells, end),
			r.Targets, len(r.Query.section.columns), p.sectionRows, p.sectionGroups)
		if err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of targets.
func (r *QueryResult[T]) Len() int { return len(r.Targets) }

// Shapes regroups the flat tables into shape → section → row → cell.
func (r *QueryResult[T]) Shapes() []ShapeOutput[T] {
	out := make([]ShapeOutput[T], len(r.Targets))
	for i, id := range r.Targets {
		out[i].ShapeID = id
		if r.Cells != nil {
			out[i].Cells = r.Cells.Row(i).Cells()
		}
		if r.Section != nil {
			rows := r.Section.GroupRows(i)
			out[i].Rows = make([][]CellData[T], len(rows))
			for j, row := range rows {
				out[i].Rows[j] = row.Cells()
			}
		}
	}
	return out
}
