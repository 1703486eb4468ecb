package shapesheet

import (
	"errors"
	"fmt"
)

// UndoScope is a transaction held open on the host document.
type UndoScope interface {
	// End closes the scope, keeping its changes when commit is true and
	// rolling them back otherwise.
	End(commit bool) error
}

// UndoScoper opens undo scopes on a host document.
type UndoScoper interface {
	BeginUndoScope(name string) (UndoScope, error)
}

// WithUndoScope runs fn inside a named undo scope. The scope is always ended:
// kept when fn succeeds, rolled back when fn fails or panics. fn's error is
// returned as is.
func WithUndoScope(h UndoScoper, name string, fn func() error) error {
	scope, err := h.BeginUndoScope(name)
	if err != nil {
		return fmt.Errorf("begin undo scope %q: %w", name, err)
	}

	ended := false
	defer func() {
		if !ended {
			_ = scope.End(false)
		}
	}()

	err = fn()
	ended = true
	if err != nil {
		if endErr := scope.End(false); endErr != nil {
			return errors.Join(err, fmt.Errorf("roll back undo scope %q: %w", name, endErr))
		}
		return err
	}
	if err := scope.End(true); err != nil {
		return fmt.Errorf("end undo scope %q: %w", name, err)
	}
	return nil
}
