package workbook

import (
	"bytes"
	"errors"
	"fmt"
	"maps"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/javajack/shapesheet"
)

var errScopeEnded = errors.New("undo scope already ended")

// undoScope holds a snapshot of the workbook taken when the scope began.
type undoScope struct {
	doc      *Document
	name     string
	snapshot []byte
	sections map[regKey]int
	regRows  int
	ended    bool
}

// BeginUndoScope implements shapesheet.UndoScoper. Rolling back restores the
// whole document as it was when the scope began.
func (d *Document) BeginUndoScope(name string) (shapesheet.UndoScope, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	buf, err := d.file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("snapshot document: %w", err)
	}
	d.logger.Debug("begin undo scope", zap.String("scope", name), zap.Int("bytes", buf.Len()))
	return &undoScope{
		doc:      d,
		name:     name,
		snapshot: bytes.Clone(buf.Bytes()),
		sections: maps.Clone(d.sections),
		regRows:  d.regRows,
	}, nil
}

func (u *undoScope) End(commit bool) error {
	if u.ended {
		return fmt.Errorf("%w: %q", errScopeEnded, u.name)
	}
	u.ended = true
	if commit {
		u.doc.logger.Debug("end undo scope", zap.String("scope", u.name))
		return nil
	}

	f, err := excelize.OpenReader(bytes.NewReader(u.snapshot))
	if err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}
	d := u.doc
	d.mu.Lock()
	defer d.mu.Unlock()
	old := d.file
	d.file = f
	d.sections = u.sections
	d.regRows = u.regRows
	if err := old.Close(); err != nil {
		d.logger.Warn("close replaced workbook", zap.Error(err))
	}
	d.logger.Info("rolled back undo scope", zap.String("scope", u.name))
	return nil
}
