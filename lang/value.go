package lang

import "sort"

// NewLiteral creates a numeric literal node.
//
// Examples:
//
//	NewLiteral(8.31451)     // gas constant
//	NewLiteral(1.70109e-7)  // scientific notation
func NewLiteral(value float64) *Node {
	return &Node{
		Kind: KindLiteral,
		Lit:  value,
	}
}

// NewSymbol creates a state-variable reference node. The name is
// normalized to upper case.
func NewSymbol(name string) *Node {
	return &Node{
		Kind: KindSymbol,
		Name: NormalizeName(name),
	}
}

// NewMacroRef creates a named-function reference node. The name is
// normalized to upper case.
func NewMacroRef(name string) *Node {
	return &Node{
		Kind: KindMacroRef,
		Name: NormalizeName(name),
	}
}

// NewUnary creates a unary operator node.
func NewUnary(op Op, operand *Node) *Node {
	return &Node{
		Kind: KindUnary,
		Op:   op,
		Args: []*Node{operand},
	}
}

// NewBinary creates a binary operator node.
func NewBinary(op Op, left, right *Node) *Node {
	return &Node{
		Kind: KindBinary,
		Op:   op,
		Args: []*Node{left, right},
	}
}

// NewCall creates a built-in call node. The name is normalized to
// upper case.
func NewCall(name string, args ...*Node) *Node {
	return &Node{
		Kind: KindCall,
		Name: NormalizeName(name),
		Args: args,
	}
}

// References returns the distinct function names referenced anywhere in
// the function's segments, sorted. State variables and literals are not
// references.
func (f *Function) References() []string {
	set := make(map[string]struct{})

	for _, seg := range f.Segments {
		collectRefs(seg.Expr, set)
	}

	return sortedKeys(set)
}

// collectRefs accumulates macro reference names from an expression tree.
func collectRefs(n *Node, set map[string]struct{}) {
	if n == nil {
		return
	}

	if n.Kind == KindMacroRef {
		set[n.Name] = struct{}{}
	}

	for _, arg := range n.Args {
		collectRefs(arg, set)
	}
}

// Equal reports whether two functions have the same segment bounds,
// citation, and expression structure. Options do not participate.
func (f *Function) Equal(other *Function) bool {
	if f == nil || other == nil {
		return f == other
	}

	if f.Citation != other.Citation || len(f.Segments) != len(other.Segments) {
		return false
	}

	for i := range f.Segments {
		a, b := f.Segments[i], other.Segments[i]
		if a.Lower != b.Lower || a.Upper != b.Upper || !a.Expr.Equal(b.Expr) {
			return false
		}
	}

	return true
}

// Equal reports whether two expression trees are structurally identical.
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}

	if n.Kind != other.Kind || n.Lit != other.Lit ||
		n.Name != other.Name || n.Op != other.Op ||
		len(n.Args) != len(other.Args) {
		return false
	}

	for i := range n.Args {
		if !n.Args[i].Equal(other.Args[i]) {
			return false
		}
	}

	return true
}

func sortedKeys[T any](m map[string]T) []string {
	if len(m) == 0 {
		return nil
	}

	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}
