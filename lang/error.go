package lang

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"
)

// Predefined errors (sentinel values). Errors derived with Wrap, With,
// and WithPosition keep the identity of their sentinel, so callers can
// always match with errors.Is.
var (
	ErrParse                = NewError("parse error")
	ErrUnknownMacro         = NewError("unknown function reference")
	ErrCyclicMacro          = NewError("cyclic function reference")
	ErrInvalidStateVariable = NewError("invalid state variable value")
	ErrOutOfRange           = NewError("state variable outside declared range")
	ErrDomain               = NewError("argument outside function domain")
	ErrInvalidNode          = NewError("invalid expression node")
	ErrReadInput            = NewError("failed to read input")
)

// Position locates a token in function-language source.
type Position struct {
	Offset int // byte offset from the start of input
	Line   int // 1-based line number
	Column int // 1-based column number
}

// String returns the position as "line L, column C".
func (p Position) String() string {
	return "line " + strconv.Itoa(p.Line) + ", column " + strconv.Itoa(p.Column)
}

// Error represents an error with optional structured logging attributes
// and source position. It implements both error and slog.LogValuer.
type Error struct {
	msg   string
	base  *Error      // Sentinel identity, preserved across Wrap/With
	err   error       // Wrapped error (for errors.Unwrap)
	attrs []slog.Attr // Attributes for structured logging
	pos   *Position   // Source position, when known
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	e := &Error{msg: msg}
	e.base = e

	return e
}

// WrapError wraps a standard error into an Error.
func WrapError(err error) *Error {
	ee := &Error{}
	if errors.As(err, &ee) {
		return ee
	}

	e := &Error{err: err}
	e.base = e

	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	// Build error message using the first available format,
	// depending on which fields are set:
	//
	//   1. "<msg> at <pos>: <err>"
	//   2. "<msg> at <pos>"
	//   3. "<msg>: <err>"
	//   4. "<msg>"
	//   5. "<err>"
	//   6. ""
	part := make([]string, 0, 2)

	if e.msg != "" {
		msg := e.msg
		if e.pos != nil {
			msg += " at " + e.pos.String()
		}

		part = append(part, msg)
	} else if e.pos != nil {
		part = append(part, e.pos.String())
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// Unwrap returns the wrapped error for errors.Is/As traversal.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target shares this error's sentinel identity.
func (e *Error) Is(target error) bool {
	t := &Error{}
	if !errors.As(target, &t) {
		return false
	}

	return e.base != nil && e.base == t.base
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+3)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.pos != nil {
		attrs = append(attrs, slog.String("position", e.pos.String()))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		msg:   e.msg,
		base:  e.base,
		err:   err,
		attrs: e.attrs, // Share attrs
		pos:   e.pos,
	}
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	return &Error{
		msg:   e.msg,
		base:  e.base,
		err:   e.err,
		attrs: newAttrs,
		pos:   e.pos,
	}
}

// WithPosition attaches a source position to the error.
// This creates a new Error instance to maintain immutability.
func (e *Error) WithPosition(pos Position) *Error {
	return &Error{
		msg:   e.msg,
		base:  e.base,
		err:   e.err,
		attrs: e.attrs,
		pos:   &pos,
	}
}

// Position returns the source position attached to the error, if any.
func (e *Error) Position() (Position, bool) {
	if e.pos == nil {
		return Position{}, false
	}

	return *e.pos, true
}

// SourceSnippet renders the offending source line for an error that
// carries a position, with a caret marking the column:
//
//	  1 | 298.15 1; 1000 X T;,,N REF: 0 !
//	                     ^
//
// It returns "" when err carries no position or the position falls
// outside source.
func SourceSnippet(err error, source string) string {
	e := &Error{}
	if !errors.As(err, &e) || e.pos == nil {
		return ""
	}

	lines := strings.Split(source, "\n")
	if e.pos.Line < 1 || e.pos.Line > len(lines) {
		return ""
	}

	line := lines[e.pos.Line-1]

	var src strings.Builder

	// Print the line with line number
	src.WriteString("  ")
	src.WriteString(strconv.Itoa(e.pos.Line))
	src.WriteString(" | ")
	src.WriteString(line)
	src.WriteRune('\n')

	// Print marker pointing to the column
	lineNumWidth := len(strconv.Itoa(e.pos.Line))
	// +5 accounts for: 2 leading spaces + " | " (3 chars)
	padding := strings.Repeat(" ", lineNumWidth+5)

	if e.pos.Column > 0 {
		padding += strings.Repeat(" ", e.pos.Column-1)
	}

	src.WriteString(padding + "^\n")

	return src.String()
}
