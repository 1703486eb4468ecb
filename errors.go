package shapesheet

import (
	"errors"
	"fmt"
)

// ErrAlreadyCommitted is returned by a second Commit on the same Writer.
var ErrAlreadyCommitted = errors.New("writer already committed")

// InvalidQueryError reports misuse of a CellQuery, detected before any host call.
type InvalidQueryError struct {
	Query  string // query label, may be empty
	Reason string
}

func (e *InvalidQueryError) Error() string {
	if e.Query != "" {
		return fmt.Sprintf("invalid query %q: %s", e.Query, e.Reason)
	}
	return "invalid query: " + e.Reason
}

// UnsupportedResultTypeError reports a result kind outside int32, float64 and string.
type UnsupportedResultTypeError struct {
	Kind ResultKind
}

func (e *UnsupportedResultTypeError) Error() string {
	return fmt.Sprintf("unsupported result type: %s", e.Kind)
}

// MalformedStreamError reports an address stream the host cannot accept.
type MalformedStreamError struct {
	Length     int
	ChunkWidth int
	Reason     string
}

func (e *MalformedStreamError) Error() string {
	if e.Reason != "" {
		return "malformed stream: " + e.Reason
	}
	return fmt.Sprintf("malformed stream: length %d is not a multiple of chunk width %d", e.Length, e.ChunkWidth)
}

// DataSetShapeError reports a QueryDataSet constructed from inconsistent parts.
// It signals a programming error in whatever assembled the arrays.
type DataSetShapeError struct {
	Invariant string
	Expected  int
	Actual    int
}

func (e *DataSetShapeError) Error() string {
	return fmt.Sprintf("data set shape: %s (expected %d, got %d)", e.Invariant, e.Expected, e.Actual)
}

// HostContractViolationError reports a host response that disagrees with the
// request, such as a result array of the wrong length.
type HostContractViolationError struct {
	Op       string
	Target   string
	Expected int
	Actual   int
	Detail   string
}

func (e *HostContractViolationError) Error() string {
	msg := fmt.Sprintf("host contract violation in %s on %s: expected %d items, received %d", e.Op, e.Target, e.Expected, e.Actual)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}
