package lang

import (
	"maps"
	"slices"
	"strings"

	"github.com/cjkunselman18/pycalphad/log"
)

// Default range limits substituted when a function body elides its
// leading lower bound or final upper bound, in kelvin by convention.
const (
	DefaultLowerLimit = 298.15
	DefaultUpperLimit = 6000.0
)

// DefaultRangeVariable is the state variable that governs segment
// selection unless overridden with WithRangeVariable.
const DefaultRangeVariable = "T"

// DefaultStateVariables lists the symbols recognized as state variables
// by default. Any other identifier in an expression is a reference to a
// named function or predefined constant.
var DefaultStateVariables = []string{"T", "P"}

// DefaultConstants maps predefined constant symbols to their values.
// R is the molar gas constant in J/(mol K).
var DefaultConstants = map[string]float64{
	"R": 8.31451,
}

// Function is the parse product of one function-language body: an
// ordered list of range segments plus the citation captured from the
// terminator tail, if any.
//
// Segments partition the governing state variable into contiguous
// half-open ranges [Lower, Upper); each carries the expression tree
// valid on its range.
type Function struct {
	Segments []Segment
	Citation string

	opts   optionsKey // configuration options
	logger log.Logger // structured logger (outside optionsKey, doesn't affect cache)
}

// Segment is one clause of a piecewise function: an expression tree
// valid on the half-open range [Lower, Upper) of the governing state
// variable.
type Segment struct {
	Expr  *Node
	Lower float64
	Upper float64
}

// Node is a single expression tree node. Kind selects the variant and
// determines which of the remaining fields are meaningful.
type Node struct {
	Name string  // symbol, reference, or call name (KindSymbol, KindMacroRef, KindCall)
	Args []*Node // operands: one for KindUnary and KindCall, two for KindBinary
	Lit  float64 // literal value (KindLiteral)
	Kind Kind
	Op   Op // operator (KindUnary, KindBinary)
}

// Kind indicates the variant of an expression node.
type Kind int

const (
	// KindLiteral is a numeric literal.
	KindLiteral Kind = iota

	// KindSymbol is a state-variable reference resolved through
	// Conditions at evaluation time.
	KindSymbol

	// KindMacroRef is a reference to a named function, resolved through
	// a MacroTable or the function's predefined constants.
	KindMacroRef

	// KindUnary is a unary operator applied to one operand.
	KindUnary

	// KindBinary is a binary operator applied to two operands.
	KindBinary

	// KindCall is a built-in function call such as LN or EXP.
	KindCall
)

// String returns a string representation of the node kind.
func (k Kind) String() string {
	switch k {
	case KindLiteral:
		return "Literal"

	case KindSymbol:
		return "Symbol"

	case KindMacroRef:
		return "MacroRef"

	case KindUnary:
		return "Unary"

	case KindBinary:
		return "Binary"

	case KindCall:
		return "Call"

	default:
		return "Unknown"
	}
}

// Op identifies an arithmetic operator.
type Op int

const (
	// OpAdd is binary addition.
	OpAdd Op = iota

	// OpSub is binary subtraction.
	OpSub

	// OpMul is binary multiplication.
	OpMul

	// OpDiv is binary division. Division by zero follows IEEE-754
	// semantics and yields an infinity rather than an error.
	OpDiv

	// OpPow is exponentiation. It is right-associative and binds
	// tighter than the multiplicative operators.
	OpPow

	// OpNeg is unary negation.
	OpNeg
)

// String returns the operator's source spelling.
func (op Op) String() string {
	switch op {
	case OpAdd:
		return "+"

	case OpSub:
		return "-"

	case OpMul:
		return "*"

	case OpDiv:
		return "/"

	case OpPow:
		return "**"

	case OpNeg:
		return "-"

	default:
		return "?"
	}
}

// optionsKey holds parse and evaluation options.
// Field values are hashed individually for cache keys.
type optionsKey struct {
	rangeVariable  string
	stateVariables []string
	constants      map[string]float64
	lowerLimit     float64
	upperLimit     float64
}

// Option is a functional option for configuring parse and evaluation
// behavior.
type Option func(*Function)

// WithRangeVariable sets the state variable that governs segment
// selection. The name is normalized to upper case.
func WithRangeVariable(name string) Option {
	return func(f *Function) {
		f.opts.rangeVariable = NormalizeName(name)
	}
}

// WithStateVariables sets the symbols recognized as state variables.
// Identifiers outside this set parse as named-function references.
// Names are normalized to upper case.
func WithStateVariables(names ...string) Option {
	return func(f *Function) {
		f.opts.stateVariables = make([]string, len(names))
		for i, name := range names {
			f.opts.stateVariables[i] = NormalizeName(name)
		}
	}
}

// WithDefaultLimits sets the bounds substituted for an elided leading
// lower bound and an elided final upper bound.
func WithDefaultLimits(lower, upper float64) Option {
	return func(f *Function) {
		f.opts.lowerLimit = lower
		f.opts.upperLimit = upper
	}
}

// WithConstants sets the predefined constant symbols available to
// evaluation, replacing DefaultConstants. Names are normalized to
// upper case.
func WithConstants(constants map[string]float64) Option {
	return func(f *Function) {
		f.opts.constants = make(map[string]float64, len(constants))
		for name, value := range constants {
			f.opts.constants[NormalizeName(name)] = value
		}
	}
}

// WithLogger sets the structured logger for trace-level debugging.
// If not provided, the logger is zero-valued and all logging is a no-op.
func WithLogger(logger log.Logger) Option {
	return func(f *Function) {
		f.logger = logger
	}
}

// applyDefaults sets default option values on a Function.
func applyDefaults(f *Function) {
	f.opts.rangeVariable = DefaultRangeVariable
	f.opts.stateVariables = slices.Clone(DefaultStateVariables)
	f.opts.constants = maps.Clone(DefaultConstants)
	f.opts.lowerLimit = DefaultLowerLimit
	f.opts.upperLimit = DefaultUpperLimit
}

// applyOptions applies functional options to a Function.
func applyOptions(f *Function, opts ...Option) {
	for _, opt := range opts {
		opt(f)
	}
}

// stateVariable reports whether name is recognized as a state variable
// under the current options.
func (f *Function) stateVariable(name string) bool {
	if name == f.opts.rangeVariable {
		return true
	}

	return slices.Contains(f.opts.stateVariables, name)
}

// RangeVariable returns the state variable governing segment selection.
func (f *Function) RangeVariable() string { return f.opts.rangeVariable }

// Limits returns the declared bounds of the whole function: the first
// segment's lower bound and the last segment's upper bound.
func (f *Function) Limits() (lower, upper float64) {
	if len(f.Segments) == 0 {
		return 0, 0
	}

	return f.Segments[0].Lower, f.Segments[len(f.Segments)-1].Upper
}

// NormalizeName upper-cases an identifier the same way the lexer
// normalizes identifiers in source.
func NormalizeName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
