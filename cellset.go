package shapesheet

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// CellSet is a named list of cell formulas, typically loaded from YAML:
//
//	name: highlight
//	cells:
//	  FillForegnd: RGB(255,0,0)
//	  LineWeight: 2 pt
//	  (242,0,0): "\"note\""
//
// Keys are catalog cell names or literal addresses. Entries keep document order.
type CellSet struct {
	Name    string
	Entries []CellSetEntry
}

// CellSetEntry is one cell of a CellSet. Known is false when the key is
// neither a catalog name nor an address literal.
type CellSetEntry struct {
	Cell    string
	Address CellAddress
	Known   bool
	Formula string
	Line    int
}

type cellSetDoc struct {
	Name  string    `yaml:"name"`
	Cells yaml.Node `yaml:"cells"`
}

// ParseCellSets reads one CellSet per YAML document from r.
func ParseCellSets(r io.Reader) ([]CellSet, error) {
	dec := yaml.NewDecoder(r)
	var sets []CellSet
	for {
		var doc cellSetDoc
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode cell set %d: %w", len(sets)+1, err)
		}
		cs, err := cellSetFromDoc(doc)
		if err != nil {
			return nil, err
		}
		sets = append(sets, cs)
	}
	return sets, nil
}

func cellSetFromDoc(doc cellSetDoc) (CellSet, error) {
	cs := CellSet{Name: doc.Name}
	if doc.Cells.Kind == 0 {
		return cs, nil
	}
	if doc.Cells.Kind != yaml.MappingNode {
		return CellSet{}, fmt.Errorf("cell set %q: cells must be a mapping (line %d)", doc.Name, doc.Cells.Line)
	}
	for i := 0; i+1 < len(doc.Cells.Content); i += 2 {
		key, val := doc.Cells.Content[i], doc.Cells.Content[i+1]
		if val.Kind != yaml.ScalarNode {
			return CellSet{}, fmt.Errorf("cell set %q: formula for %q must be a scalar (line %d)", doc.Name, key.Value, val.Line)
		}
		entry := CellSetEntry{Cell: key.Value, Formula: val.Value, Line: key.Line}
		entry.Address, entry.Known = resolveCell(key.Value)
		cs.Entries = append(cs.Entries, entry)
	}
	return cs, nil
}

// resolveCell accepts a catalog name or an address literal.
func resolveCell(name string) (CellAddress, bool) {
	if addr, ok := LookupCell(name); ok {
		return addr, true
	}
	if addr, err := ParseCellAddress(name); err == nil {
		return addr, true
	}
	return CellAddress{}, false
}

// Apply queues the set's formulas for shapeID on w, in document order.
// Entries with empty formulas are skipped; unknown cells fail.
func (cs CellSet) Apply(w *Writer, shapeID int) error {
	for _, e := range cs.Entries {
		if !e.Known {
			return fmt.Errorf("cell set %q: unknown cell %q (line %d)", cs.Name, e.Cell, e.Line)
		}
		if e.Formula == "" {
			continue
		}
		if err := w.SetFormula(shapeID, e.Address, e.Formula); err != nil {
			return err
		}
	}
	return nil
}

// ApplyCellSets queues sets on w for every shape, cycling through sets:
// shape i receives sets[i % len(sets)].
func ApplyCellSets(w *Writer, shapeIDs []int, sets []CellSet) error {
	if len(sets) == 0 {
		return nil
	}
	for i, id := range shapeIDs {
		if err := sets[i%len(sets)].Apply(w, id); err != nil {
			return fmt.Errorf("apply to shape %d: %w", id, err)
		}
	}
	return nil
}
