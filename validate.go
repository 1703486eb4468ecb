package shapesheet

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr/parser"
)

// Severity indicates the severity of a validation issue.
type Severity int

const (
	SeverityError   Severity = iota // Apply or Commit will fail
	SeverityWarning                 // may produce unexpected results
)

// ValidationIssue represents a single problem found in a CellSet.
type ValidationIssue struct {
	Severity Severity
	Set      string
	Cell     string
	Line     int
	Message  string
}

// String formats the issue as "[ERROR] highlight/PinX (line 3): message".
func (v ValidationIssue) String() string {
	sev := "ERROR"
	if v.Severity == SeverityWarning {
		sev = "WARN"
	}
	return fmt.Sprintf("[%s] %s/%s (line %d): %s", sev, v.Set, v.Cell, v.Line, v.Message)
}

// ValidateCellSet checks a cell set without touching any host: unknown cells,
// empty or repeated cells and formula syntax.
func ValidateCellSet(cs CellSet) []ValidationIssue {
	var issues []ValidationIssue
	seen := make(map[CellAddress]string)
	for _, e := range cs.Entries {
		issue := func(sev Severity, format string, args ...any) {
			issues = append(issues, ValidationIssue{
				Severity: sev, Set: cs.Name, Cell: e.Cell, Line: e.Line,
				Message: fmt.Sprintf(format, args...),
			})
		}

		if !e.Known {
			issue(SeverityError, "unknown cell name")
			continue
		}
		if prev, dup := seen[e.Address]; dup {
			issue(SeverityWarning, "cell %s also set as %q, the last formula wins", e.Address, prev)
		}
		seen[e.Address] = e.Cell

		if strings.TrimSpace(e.Formula) == "" {
			issue(SeverityWarning, "empty formula, cell is skipped")
			continue
		}
		if err := checkFormulaSyntax(e.Formula); err != nil {
			issue(SeverityError, "invalid formula syntax %q: %v", e.Formula, err)
		}
	}
	return issues
}

// checkFormulaSyntax parses the formula without type checking: names and
// functions are resolved by the host at evaluation time.
func checkFormulaSyntax(formula string) error {
	if _, _, ok := SplitUnitLiteral(formula); ok {
		return nil
	}
	src := strings.TrimPrefix(strings.TrimSpace(formula), "=")
	_, err := parser.Parse(src)
	return err
}
