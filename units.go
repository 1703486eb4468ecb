package shapesheet

import (
	"fmt"
	"strconv"
	"strings"
)

// UnitCode tells the host which unit a numeric result is read or written in.
type UnitCode int16

const (
	UnitNumber      UnitCode = 32  // unitless
	UnitPoints      UnitCode = 50  // typographic points
	UnitInches      UnitCode = 65  // internal length unit
	UnitFeet        UnitCode = 66  // feet
	UnitCentimeters UnitCode = 69  // centimeters
	UnitMillimeters UnitCode = 70  // millimeters
	UnitDegrees     UnitCode = 81  // angle in degrees
	UnitRadians     UnitCode = 83  // angle in radians
	UnitNoCast      UnitCode = 252 // whatever unit the cell holds
)

var unitNames = map[UnitCode]string{
	UnitNumber:      "number",
	UnitPoints:      "pt",
	UnitInches:      "in",
	UnitFeet:        "ft",
	UnitCentimeters: "cm",
	UnitMillimeters: "mm",
	UnitDegrees:     "deg",
	UnitRadians:     "rad",
	UnitNoCast:      "nocast",
}

// String returns the short unit suffix, e.g. "pt".
func (u UnitCode) String() string {
	if name, ok := unitNames[u]; ok {
		return name
	}
	return fmt.Sprintf("unit(%d)", int16(u))
}

// PerInch returns how many of u make up one inch. Non-length units return 1.
func (u UnitCode) PerInch() float64 {
	switch u {
	case UnitPoints:
		return 72
	case UnitFeet:
		return 1.0 / 12
	case UnitCentimeters:
		return 2.54
	case UnitMillimeters:
		return 25.4
	default:
		return 1
	}
}

// ParseUnit maps a unit suffix such as "pt" or "mm" to its UnitCode.
func ParseUnit(suffix string) (UnitCode, bool) {
	for code, name := range unitNames {
		if name == suffix {
			return code, true
		}
	}
	switch suffix {
	case "in.", "inch", "\"":
		return UnitInches, true
	case "deg.", "°":
		return UnitDegrees, true
	}
	return 0, false
}

// ResultKind selects the type the host converts results into.
type ResultKind int

const (
	ResultInt    ResultKind = iota + 1 // truncated int32
	ResultFloat                        // float64
	ResultString                       // formatted string
)

// String returns a human-readable name for the ResultKind.
func (k ResultKind) String() string {
	switch k {
	case ResultInt:
		return "int32"
	case ResultFloat:
		return "float64"
	case ResultString:
		return "string"
	default:
		return fmt.Sprintf("ResultKind(%d)", int(k))
	}
}

// Valid reports whether the host can produce results of this kind.
func (k ResultKind) Valid() bool {
	return k == ResultInt || k == ResultFloat || k == ResultString
}

// ResultType is the closed set of Go types results can be decoded into.
type ResultType interface {
	int32 | float64 | string
}

// KindOf returns the ResultKind matching T.
func KindOf[T ResultType]() ResultKind {
	var zero T
	switch any(zero).(type) {
	case int32:
		return ResultInt
	case float64:
		return ResultFloat
	default:
		return ResultString
	}
}

// SetFlags are passed through unchanged to the host's set primitives.
type SetFlags int16

const (
	SetBlastGuards     SetFlags = 2 // ignore cell guards for this batch
	SetTestCircular    SetFlags = 4 // reject edits that introduce circular references
	SetUniversalSyntax SetFlags = 8 // formulas use universal (locale-independent) syntax
)

// Has reports whether all bits of f2 are set in f.
func (f SetFlags) Has(f2 SetFlags) bool {
	return f&f2 == f2
}

// SplitUnitLiteral recognises a constant with a unit suffix such as "8 pt" or
// "2.5in" and returns its number and unit.
func SplitUnitLiteral(formula string) (float64, UnitCode, bool) {
	s := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(formula), "="))
	end := 0
	for end < len(s) && (s[end] == '-' || s[end] == '+' || s[end] == '.' || (s[end] >= '0' && s[end] <= '9')) {
		end++
	}
	if end == 0 || end == len(s) {
		return 0, 0, false
	}
	value, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0, 0, false
	}
	unit, ok := ParseUnit(strings.TrimSpace(s[end:]))
	if !ok {
		return 0, 0, false
	}
	return value, unit, true
}
