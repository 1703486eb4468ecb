package workbook

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
	"github.com/expr-lang/expr/vm"

	"github.com/javajack/shapesheet"
)

// evaluator compiles cell formulas with expr-lang/expr. Compiled programs and
// reference lists are cached by formula text and safe for concurrent use.
type evaluator struct {
	programs sync.Map // formula → *vm.Program
	refs     sync.Map // formula → []string
}

func newEvaluator() *evaluator {
	return &evaluator{}
}

var formulaFuncs = []expr.Option{
	expr.Function("GUARD", func(params ...any) (any, error) {
		if len(params) != 1 {
			return nil, fmt.Errorf("GUARD takes 1 argument, got %d", len(params))
		}
		return params[0], nil
	}),
	expr.Function("RGB", func(params ...any) (any, error) {
		if len(params) != 3 {
			return nil, fmt.Errorf("RGB takes 3 arguments, got %d", len(params))
		}
		var c [3]int
		for i, p := range params {
			f, err := toFloat(p)
			if err != nil {
				return nil, fmt.Errorf("RGB argument %d: %w", i+1, err)
			}
			c[i] = int(f) & 0xff
		}
		return float64(c[0] | c[1]<<8 | c[2]<<16), nil
	}),
}

// source strips the optional leading "=" of a formula.
func source(formula string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(formula), "="))
}

// isGuarded reports whether the formula protects its cell from being overwritten.
func isGuarded(formula string) bool {
	return strings.HasPrefix(strings.ToUpper(source(formula)), "GUARD(")
}

func (e *evaluator) program(src string) (*vm.Program, error) {
	if cached, ok := e.programs.Load(src); ok {
		return cached.(*vm.Program), nil
	}
	opts := append([]expr.Option{expr.AllowUndefinedVariables()}, formulaFuncs...)
	program, err := expr.Compile(src, opts...)
	if err != nil {
		return nil, err
	}
	e.programs.Store(src, program)
	return program, nil
}

// references returns the catalogued cell names a formula mentions.
func (e *evaluator) references(src string) ([]string, error) {
	if cached, ok := e.refs.Load(src); ok {
		return cached.([]string), nil
	}
	tree, err := parser.Parse(src)
	if err != nil {
		return nil, err
	}
	v := &refVisitor{seen: make(map[string]bool)}
	ast.Walk(&tree.Node, v)
	e.refs.Store(src, v.names)
	return v.names, nil
}

type refVisitor struct {
	seen  map[string]bool
	names []string
}

func (v *refVisitor) Visit(node *ast.Node) {
	id, ok := (*node).(*ast.IdentifierNode)
	if !ok || v.seen[id.Value] {
		return
	}
	if _, known := shapesheet.LookupCell(id.Value); known {
		v.seen[id.Value] = true
		v.names = append(v.names, id.Value)
	}
}

// literal evaluates formulas that need no expression engine: empty cells and
// constants with a unit suffix. Lengths come back in inches, angles in radians.
func literal(src string) (any, bool) {
	if src == "" {
		return 0.0, true
	}
	value, unit, ok := shapesheet.SplitUnitLiteral(src)
	if !ok {
		return nil, false
	}
	switch unit {
	case shapesheet.UnitDegrees:
		return value * math.Pi / 180, true
	default:
		return value / unit.PerInch(), true
	}
}

// run evaluates src with env holding the values of the referenced cells.
func (e *evaluator) run(src string, env map[string]any) (any, error) {
	program, err := e.program(src)
	if err != nil {
		return nil, fmt.Errorf("compile formula %q: %w", src, err)
	}
	env["TRUE"] = true
	env["FALSE"] = false
	out, err := expr.Run(program, env)
	if err != nil {
		return nil, fmt.Errorf("evaluate formula %q: %w", src, err)
	}
	if out == nil {
		return nil, fmt.Errorf("%w: %q has no value", ErrEvaluation, src)
	}
	return out, nil
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", ErrEvaluation, x)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: unexpected value %T", ErrEvaluation, v)
	}
}

// convert turns an evaluated value into the requested kind and unit.
func convert(v any, kind shapesheet.ResultKind, unit shapesheet.UnitCode) (any, error) {
	if kind == shapesheet.ResultString {
		if s, ok := v.(string); ok {
			return s, nil
		}
	}
	f, err := toFloat(v)
	if err != nil {
		return nil, err
	}
	switch unit {
	case shapesheet.UnitDegrees:
		f = f * 180 / math.Pi
	case shapesheet.UnitPoints, shapesheet.UnitFeet, shapesheet.UnitCentimeters, shapesheet.UnitMillimeters:
		f = f * unit.PerInch()
	}
	switch kind {
	case shapesheet.ResultInt:
		return int32(f), nil
	case shapesheet.ResultFloat:
		return f, nil
	default:
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	}
}

// unitFormula renders a value written in unit as a formula constant in
// internal units.
func unitFormula(v any, unit shapesheet.UnitCode) (string, error) {
	if s, ok := v.(string); ok {
		return strconv.Quote(s), nil
	}
	f, err := toFloat(v)
	if err != nil {
		return "", err
	}
	switch unit {
	case shapesheet.UnitDegrees:
		f = f * math.Pi / 180
	case shapesheet.UnitPoints, shapesheet.UnitFeet, shapesheet.UnitCentimeters, shapesheet.UnitMillimeters:
		f = f / unit.PerInch()
	}
	return strconv.FormatFloat(f, 'f', -1, 64), nil
}
