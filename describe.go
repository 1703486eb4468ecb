package shapesheet

import (
	"fmt"
	"strings"
)

// Describe renders a query result as a human-readable tree of
// shape → section → row → cell. Useful for debugging queries.
func Describe[T any](r *QueryResult[T]) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Query: %s (%d targets)\n", describeName(r.Query), len(r.Targets))

	var fixed, section []QueryColumn
	if r.Query != nil {
		fixed = r.Query.columns
		if r.Query.section != nil {
			section = r.Query.section.columns
		}
	}

	for i, shape := range r.Shapes() {
		fmt.Fprintf(&b, "  shape %d\n", shape.ShapeID)
		describeCells(&b, fixed, shape.Cells, 4)
		if r.Section == nil {
			continue
		}
		g := r.Section.Groups()[i]
		fmt.Fprintf(&b, "    section %d (%d rows)\n", r.Query.section.section, g.Count)
		for j, row := range shape.Rows {
			fmt.Fprintf(&b, "      row %d\n", j)
			describeCells(&b, section, row, 8)
		}
	}
	return b.String()
}

// describeCells writes one "label: cell" line per column.
func describeCells[T any](b *strings.Builder, cols []QueryColumn, cells []CellData[T], indent int) {
	prefix := strings.Repeat(" ", indent)
	for k, cd := range cells {
		label := fmt.Sprintf("#%d", k)
		if k < len(cols) && cols[k].Label != "" {
			label = cols[k].Label
		}
		fmt.Fprintf(b, "%s%s: %s\n", prefix, label, cd)
	}
}

func describeName(q *CellQuery) string {
	if q == nil || q.name == "" {
		return "<unnamed>"
	}
	return q.name
}
