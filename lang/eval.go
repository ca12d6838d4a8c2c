package lang

import (
	"context"
	"log/slog"
	"math"
	"slices"
	"strings"

	"github.com/cjkunselman18/pycalphad/log"
)

// minNormal is the smallest positive normal float64. Temperatures at or
// below zero, subnormal temperatures, and non-finite temperatures are
// physically meaningless and rejected before any segment is selected.
const minNormal = 2.2250738585072014e-308

// Conditions supplies current state-variable values to evaluation.
// Implementations are queried by upper-cased symbol name.
type Conditions interface {
	StateVariable(name string) (float64, bool)
}

// StateVariables is a map-backed Conditions implementation.
type StateVariables map[string]float64

// StateVariable returns the value stored under name. Lookup is
// case-insensitive.
func (s StateVariables) StateVariable(name string) (float64, bool) {
	if v, ok := s[name]; ok {
		return v, true
	}

	for key, v := range s {
		if strings.EqualFold(key, name) {
			return v, true
		}
	}

	return 0, false
}

// validStateVariable checks a state-variable value against its physical
// domain: every variable must be finite, and temperature must also be
// positive and normal.
func validStateVariable(name string, value float64) bool {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return false
	}

	if name == "T" {
		return value >= minNormal
	}

	return true
}

// Evaluate computes the function's value under the given conditions,
// expanding named-function references through table. The table may be
// nil when the function references nothing beyond its predefined
// constants.
//
// Evaluation never mutates the function, the table, or the conditions:
// it is safe to call concurrently once the table is no longer being
// defined into.
func (f *Function) Evaluate(ctx context.Context, table *MacroTable, conds Conditions) (float64, error) {
	ec := &evalContext{
		table:  table,
		conds:  conds,
		logger: f.logger,
	}

	value, err := ec.function(ctx, f)
	if err != nil {
		return 0, err
	}

	f.logger.TraceContext(ctx, "evaluate complete",
		slog.Float64("value", value))

	return value, nil
}

// evalContext holds the state of one top-level evaluation. The chain
// tracks names currently being expanded, for cycle detection.
type evalContext struct {
	table  *MacroTable
	conds  Conditions
	chain  []string
	logger log.Logger
}

// function validates the governing state variable, selects the segment
// covering its value, and evaluates that segment's expression.
func (ec *evalContext) function(ctx context.Context, fn *Function) (float64, error) {
	value, err := ec.stateVariable(fn.opts.rangeVariable)
	if err != nil {
		return 0, err
	}

	idx := -1

	for i, seg := range fn.Segments {
		if value >= seg.Lower && value < seg.Upper {
			idx = i

			break
		}
	}

	if idx < 0 {
		lower, upper := fn.Limits()

		return 0, ErrOutOfRange.
			With(slog.String("variable", fn.opts.rangeVariable)).
			With(slog.Float64("value", value)).
			With(slog.Float64("lower", lower)).
			With(slog.Float64("upper", upper))
	}

	ec.logger.TraceContext(ctx, "segment selected",
		slog.Int("index", idx),
		slog.Float64("value", value))

	return ec.node(ctx, fn, fn.Segments[idx].Expr)
}

// stateVariable reads and validates a state variable from the
// conditions.
func (ec *evalContext) stateVariable(name string) (float64, error) {
	if ec.conds == nil {
		return 0, ErrInvalidStateVariable.
			With(slog.String("variable", name)).
			With(slog.String("issue", "no conditions supplied"))
	}

	value, ok := ec.conds.StateVariable(name)
	if !ok {
		return 0, ErrInvalidStateVariable.
			With(slog.String("variable", name)).
			With(slog.String("issue", "not set"))
	}

	if !validStateVariable(name, value) {
		return 0, ErrInvalidStateVariable.
			With(slog.String("variable", name)).
			With(slog.Float64("value", value))
	}

	return value, nil
}

// node recursively evaluates an expression tree.
func (ec *evalContext) node(ctx context.Context, fn *Function, n *Node) (float64, error) {
	if n == nil {
		return 0, ErrInvalidNode.With(slog.String("issue", "nil node"))
	}

	switch n.Kind {
	case KindLiteral:
		return n.Lit, nil

	case KindSymbol:
		return ec.stateVariable(n.Name)

	case KindMacroRef:
		return ec.macro(ctx, fn, n.Name)

	case KindUnary:
		operand, err := ec.node(ctx, fn, n.Args[0])
		if err != nil {
			return 0, err
		}

		return -operand, nil

	case KindBinary:
		return ec.binary(ctx, fn, n)

	case KindCall:
		return ec.call(ctx, fn, n)

	default:
		return 0, ErrInvalidNode.With(slog.String("kind", n.Kind.String()))
	}
}

// macro expands a named-function reference: table definitions first,
// then the referencing function's predefined constants.
func (ec *evalContext) macro(ctx context.Context, fn *Function, name string) (float64, error) {
	if slices.Contains(ec.chain, name) {
		return 0, ErrCyclicMacro.
			With(slog.String("name", name)).
			With(slog.String("chain", strings.Join(append(ec.chain, name), " -> ")))
	}

	var target *Function

	if ec.table != nil {
		if found, ok := ec.table.Lookup(name); ok {
			target = found
		}
	}

	if target == nil {
		if value, ok := fn.opts.constants[name]; ok {
			return value, nil
		}

		if ec.table != nil {
			return 0, ec.table.unknown(name)
		}

		return 0, ErrUnknownMacro.With(slog.String("name", name))
	}

	ec.chain = append(ec.chain, name)

	ec.logger.TraceContext(ctx, "expand macro",
		slog.String("name", name),
		slog.Int("depth", len(ec.chain)))

	value, err := ec.function(ctx, target)

	ec.chain = ec.chain[:len(ec.chain)-1]

	if err != nil {
		return 0, err
	}

	return value, nil
}

// binary combines child results with IEEE-754 semantics. Division by
// zero yields an infinity, not an error.
func (ec *evalContext) binary(ctx context.Context, fn *Function, n *Node) (float64, error) {
	left, err := ec.node(ctx, fn, n.Args[0])
	if err != nil {
		return 0, err
	}

	right, err := ec.node(ctx, fn, n.Args[1])
	if err != nil {
		return 0, err
	}

	switch n.Op {
	case OpAdd:
		return left + right, nil

	case OpSub:
		return left - right, nil

	case OpMul:
		return left * right, nil

	case OpDiv:
		return left / right, nil

	case OpPow:
		return math.Pow(left, right), nil

	default:
		return 0, ErrInvalidNode.With(slog.String("op", n.Op.String()))
	}
}

// call evaluates a built-in. LN and LOG are both the natural logarithm
// and reject non-positive arguments; EXP has no domain restriction.
func (ec *evalContext) call(ctx context.Context, fn *Function, n *Node) (float64, error) {
	arg, err := ec.node(ctx, fn, n.Args[0])
	if err != nil {
		return 0, err
	}

	switch n.Name {
	case "LN", "LOG":
		if arg <= 0 {
			return 0, ErrDomain.
				With(slog.String("call", n.Name)).
				With(slog.Float64("argument", arg))
		}

		return math.Log(arg), nil

	case "EXP":
		return math.Exp(arg), nil

	default:
		return 0, ErrInvalidNode.With(slog.String("call", n.Name))
	}
}
