package lang

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
)

// Format writes the function in canonical function-language syntax to
// the writer: every bound explicit, segments chained with Y, the last
// closed with N. The output parses back to an equal Function.
func (f *Function) Format(_ context.Context, w io.Writer) error {
	var buf strings.Builder

	for i, seg := range f.Segments {
		if i == 0 {
			buf.WriteString(formatNumber(seg.Lower))
			buf.WriteByte(' ')
		}

		formatNode(&buf, seg.Expr, 0)
		buf.WriteString("; ")
		buf.WriteString(formatNumber(seg.Upper))

		if i < len(f.Segments)-1 {
			buf.WriteString(" Y ")
		} else {
			buf.WriteString(" N")
		}
	}

	if f.Citation != "" {
		buf.WriteString(" REF: ")
		buf.WriteString(f.Citation)
	}

	buf.WriteString(" !")

	_, err := fmt.Fprintln(w, buf.String())

	return err
}

// String returns the canonical function-language text.
func (f *Function) String() string {
	var buf strings.Builder

	_ = f.Format(context.Background(), &buf)

	return strings.TrimSuffix(buf.String(), "\n")
}

// FormatJSON writes the function as JSON to the writer.
func (f *Function) FormatJSON(_ context.Context, w io.Writer, indent int) error {
	var (
		jsonData []byte
		err      error
	)

	if indent > 0 {
		jsonData, err = json.MarshalIndent(f, "", strings.Repeat(" ", indent))
	} else {
		jsonData, err = json.Marshal(f)
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(jsonData))

	return err
}

// FormatYAML writes the function as YAML to the writer.
func (f *Function) FormatYAML(ctx context.Context, w io.Writer, indent int) error {
	var opts []yaml.EncodeOption

	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		// Compact flow style when no indent requested
		opts = append(opts, yaml.Flow(true))
	}

	yamlData, err := yaml.MarshalContext(ctx, f.ToMap(), opts...)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(w, string(yamlData))

	return err
}

// formatNumber renders a float the shortest way that parses back to
// the same value.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Operator precedence levels for parenthesization.
const (
	precAdd = iota + 1
	precMul
	precUnary
	precPow
	precPrimary
)

// opPrec returns the precedence level of op.
func opPrec(op Op) int {
	switch op {
	case OpAdd, OpSub:
		return precAdd

	case OpMul, OpDiv:
		return precMul

	case OpNeg:
		return precUnary

	case OpPow:
		return precPow

	default:
		return precPrimary
	}
}

// formatNode writes n, parenthesizing when its precedence falls below
// the enclosing context.
func formatNode(buf *strings.Builder, n *Node, parent int) {
	if n == nil {
		return
	}

	switch n.Kind {
	case KindLiteral:
		buf.WriteString(formatNumber(n.Lit))

	case KindSymbol, KindMacroRef:
		buf.WriteString(n.Name)

	case KindUnary:
		wrap := parent > precUnary
		if wrap {
			buf.WriteByte('(')
		}

		buf.WriteString(n.Op.String())
		formatNode(buf, n.Args[0], precUnary)

		if wrap {
			buf.WriteByte(')')
		}

	case KindBinary:
		prec := opPrec(n.Op)

		wrap := prec < parent
		if wrap {
			buf.WriteByte('(')
		}

		// Left-associative operators group their right operand one
		// level tighter; exponentiation associates right and flips.
		leftPrec, rightPrec := prec, prec+1
		if n.Op == OpPow {
			leftPrec, rightPrec = prec+1, prec
		}

		formatNode(buf, n.Args[0], leftPrec)
		buf.WriteString(n.Op.String())
		formatNode(buf, n.Args[1], rightPrec)

		if wrap {
			buf.WriteByte(')')
		}

	case KindCall:
		buf.WriteString(n.Name)
		buf.WriteByte('(')
		formatNode(buf, n.Args[0], 0)
		buf.WriteByte(')')
	}
}
