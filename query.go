package shapesheet

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// QueryColumn is one cell a query fetches. Ordinal is the column's position
// within its group and stays stable for the life of the query.
type QueryColumn struct {
	Ordinal int
	Address CellAddress
	Label   string
}

// CellQuery declares which cells to read: fixed columns (one row per object)
// and at most one repeating-section group (N rows per object).
//
// A CellQuery is built once and then sealed, either explicitly with Seal or by
// its first execution. Building is not safe for concurrent use; a sealed query
// may be shared freely between goroutines.
type CellQuery struct {
	name    string
	columns []QueryColumn
	section *SectionQuery
	sealed  atomic.Bool
}

// SectionQuery is the repeating-section column group of a CellQuery.
type SectionQuery struct {
	owner   *CellQuery
	section SectionID
	columns []QueryColumn
}

// NewCellQuery creates an empty query. The name only appears in errors and logs.
func NewCellQuery(name string) *CellQuery {
	return &CellQuery{name: name}
}

// Name returns the query name.
func (q *CellQuery) Name() string { return q.name }

// AddColumn appends a fixed column and assigns it the next ordinal.
func (q *CellQuery) AddColumn(addr CellAddress, label string) (QueryColumn, error) {
	if err := q.checkOpen(); err != nil {
		return QueryColumn{}, err
	}
	if label == "" {
		label = addr.Name()
	}
	if err := checkLabel(q.name, q.columns, label); err != nil {
		return QueryColumn{}, err
	}
	col := QueryColumn{Ordinal: len(q.columns), Address: addr, Label: label}
	q.columns = append(q.columns, col)
	return col, nil
}

// MustAddColumn is like AddColumn but panics on error. It is meant for
// queries declared at package scope.
func (q *CellQuery) MustAddColumn(addr CellAddress, label string) QueryColumn {
	col, err := q.AddColumn(addr, label)
	if err != nil {
		panic(err)
	}
	return col
}

// AddSection declares the query's repeating-section group.
func (q *CellQuery) AddSection(section SectionID) (*SectionQuery, error) {
	if err := q.checkOpen(); err != nil {
		return nil, err
	}
	if q.section != nil {
		return nil, &InvalidQueryError{Query: q.name, Reason: fmt.Sprintf("section %d already declared, a query holds at most one section group", q.section.section)}
	}
	if !IsRepeatingSection(section) {
		return nil, &InvalidQueryError{Query: q.name, Reason: fmt.Sprintf("section %d is not a repeating section", section)}
	}
	q.section = &SectionQuery{owner: q, section: section}
	return q.section, nil
}

// MustAddSection is like AddSection but panics on error.
func (q *CellQuery) MustAddSection(section SectionID) *SectionQuery {
	sq, err := q.AddSection(section)
	if err != nil {
		panic(err)
	}
	return sq
}

// Seal freezes the query. Sealing twice is harmless.
func (q *CellQuery) Seal() { q.sealed.Store(true) }

// Sealed reports whether the query is frozen.
func (q *CellQuery) Sealed() bool { return q.sealed.Load() }

// Columns returns the fixed columns in ordinal order.
func (q *CellQuery) Columns() []QueryColumn {
	return append([]QueryColumn(nil), q.columns...)
}

// Section returns the repeating-section group, or nil.
func (q *CellQuery) Section() *SectionQuery { return q.section }

// Column finds a fixed column by label.
func (q *CellQuery) Column(label string) (QueryColumn, bool) {
	return findColumn(q.columns, label)
}

// Descriptor returns a stable text form of the query shape, suitable as a cache key.
func (q *CellQuery) Descriptor() string {
	var b strings.Builder
	b.WriteString(q.name)
	for _, c := range q.columns {
		fmt.Fprintf(&b, "|%s%s", c.Label, c.Address)
	}
	if q.section != nil {
		fmt.Fprintf(&b, "|section %d", q.section.section)
		for _, c := range q.section.columns {
			fmt.Fprintf(&b, "|%s:%d", c.Label, c.Address.Column)
		}
	}
	return b.String()
}

// validate checks that an execution can be built from the query.
func (q *CellQuery) validate() error {
	if len(q.columns) == 0 && q.section == nil {
		return &InvalidQueryError{Query: q.name, Reason: "query has no columns"}
	}
	if q.section != nil && len(q.section.columns) == 0 {
		return &InvalidQueryError{Query: q.name, Reason: fmt.Sprintf("section %d has no columns", q.section.section)}
	}
	return nil
}

func (q *CellQuery) checkOpen() error {
	if q.sealed.Load() {
		return &InvalidQueryError{Query: q.name, Reason: "query is sealed, columns can no longer be added"}
	}
	return nil
}

// SectionID returns the section this group reads.
func (s *SectionQuery) SectionID() SectionID { return s.section }

// AddColumn appends a column of the section and assigns it the next ordinal
// within the section group.
func (s *SectionQuery) AddColumn(column ColumnID, label string) (QueryColumn, error) {
	if err := s.owner.checkOpen(); err != nil {
		return QueryColumn{}, err
	}
	addr := CellAddress{Section: s.section, Column: column}
	if label == "" {
		label = addr.Name()
	}
	if err := checkLabel(s.owner.name, s.columns, label); err != nil {
		return QueryColumn{}, err
	}
	col := QueryColumn{Ordinal: len(s.columns), Address: addr, Label: label}
	s.columns = append(s.columns, col)
	return col, nil
}

// MustAddColumn is like AddColumn but panics on error.
func (s *SectionQuery) MustAddColumn(column ColumnID, label string) QueryColumn {
	col, err := s.AddColumn(column, label)
	if err != nil {
		panic(err)
	}
	return col
}

// Columns returns the section columns in ordinal order.
func (s *SectionQuery) Columns() []QueryColumn {
	return append([]QueryColumn(nil), s.columns...)
}

// Column finds a section column by label.
func (s *SectionQuery) Column(label string) (QueryColumn, bool) {
	return findColumn(s.columns, label)
}

func checkLabel(query string, cols []QueryColumn, label string) error {
	if label == "" {
		return nil
	}
	if _, dup := findColumn(cols, label); dup {
		return &InvalidQueryError{Query: query, Reason: fmt.Sprintf("duplicate column label %q", label)}
	}
	return nil
}

func findColumn(cols []QueryColumn, label string) (QueryColumn, bool) {
	for _, c := range cols {
		if c.Label == label {
			return c, true
		}
	}
	return QueryColumn{}, false
}
