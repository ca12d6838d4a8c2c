package lang

// Builder provides a programmatic API for constructing functions
// without parsing source text. This is useful for assembling synthetic
// functions in tests or for callers that compute expressions rather
// than read them from a database file.
//
// Example:
//
//	b := lang.NewBuilder()
//	fn := b.Function(
//	    b.Segment(298.15, 1000, b.Literal(1)),
//	    b.Segment(1000, 6000, b.Symbol("T")),
//	)
//
// Built functions carry the same options a parsed function would, so
// they evaluate and format identically. Segment bounds are taken as
// given; the builder does not impose the ordering checks the parser
// performs.
type Builder struct {
	opts []Option
}

// NewBuilder creates a function builder. The options are applied to
// every function the builder produces.
func NewBuilder(opts ...Option) *Builder {
	return &Builder{opts: opts}
}

// Function assembles segments into an evaluable [Function].
func (b *Builder) Function(segments ...Segment) *Function {
	fn := &Function{Segments: segments}

	applyDefaults(fn)
	applyOptions(fn, b.opts...)

	return fn
}

// Constant builds a single-segment function holding one literal over
// the builder's default range.
func (b *Builder) Constant(value float64) *Function {
	fn := b.Function()

	fn.Segments = []Segment{{
		Lower: fn.opts.lowerLimit,
		Upper: fn.opts.upperLimit,
		Expr:  NewLiteral(value),
	}}

	return fn
}

// Segment creates one range clause: expr valid on [lower, upper) of
// the governing state variable.
func (b *Builder) Segment(lower, upper float64, expr *Node) Segment {
	return Segment{Lower: lower, Upper: upper, Expr: expr}
}

// Literal creates a numeric literal node.
func (b *Builder) Literal(value float64) *Node {
	return NewLiteral(value)
}

// Symbol creates a state-variable reference node.
func (b *Builder) Symbol(name string) *Node {
	return NewSymbol(name)
}

// Ref creates a named-function reference node.
func (b *Builder) Ref(name string) *Node {
	return NewMacroRef(name)
}

// Neg creates a unary negation node.
func (b *Builder) Neg(operand *Node) *Node {
	return NewUnary(OpNeg, operand)
}

// Add chains terms with binary addition, associating left the way the
// parser does.
func (b *Builder) Add(first *Node, rest ...*Node) *Node {
	return chainBinary(OpAdd, first, rest)
}

// Sub chains terms with binary subtraction, associating left.
func (b *Builder) Sub(first *Node, rest ...*Node) *Node {
	return chainBinary(OpSub, first, rest)
}

// Mul chains factors with binary multiplication, associating left.
func (b *Builder) Mul(first *Node, rest ...*Node) *Node {
	return chainBinary(OpMul, first, rest)
}

// Div chains factors with binary division, associating left.
func (b *Builder) Div(first *Node, rest ...*Node) *Node {
	return chainBinary(OpDiv, first, rest)
}

// Pow creates an exponentiation node.
func (b *Builder) Pow(base, exponent *Node) *Node {
	return NewBinary(OpPow, base, exponent)
}

// Ln creates a natural-logarithm call node.
func (b *Builder) Ln(arg *Node) *Node {
	return NewCall("LN", arg)
}

// Exp creates an exponential call node.
func (b *Builder) Exp(arg *Node) *Node {
	return NewCall("EXP", arg)
}

// chainBinary folds operands into a left-leaning tree of op nodes.
func chainBinary(op Op, first *Node, rest []*Node) *Node {
	node := first
	for _, operand := range rest {
		node = NewBinary(op, node, operand)
	}

	return node
}
