// Package lang parses and evaluates the piecewise function language
// used by thermodynamic database files to express temperature-dependent
// model quantities.
//
// # Philosophy
//
// A function body is a chain of range clauses. Each clause carries an
// arithmetic expression and the half-open range [lower, upper) of the
// governing state variable on which that expression holds; the upper
// bound of one clause becomes the lower bound of the next. Parsing
// produces a plain tree of tagged nodes, nothing is compiled or
// captured, so one parse product can be evaluated concurrently under
// many different conditions.
//
// No parser generator. No generated code. The grammar is small enough
// for a hand-written recursive descent parser over a pre-scanned token
// slice.
//
// # Grammar
//
// Informal EBNF:
//
//	Function    → [Lower] Expr (';' Upper 'Y' Expr)* Tail
//	Tail        → ';' Upper 'N' [Citation] '!'
//	            | ';' ',' ',' 'N' [Citation] '!'
//	            | ';' '!'
//	            | '!'
//	Citation    → 'REF' ':' <raw text, stops at '!'>
//	Expr        → Term (('+' | '-') Term)*
//	Term        → Factor (('*' | '/') Factor)*
//	Factor      → ('+' | '-') Factor | Power
//	Power       → Primary ['**' Factor]
//	Primary     → Number | Identifier | Identifier '(' Expr ')'
//	            | '(' Expr ')'
//
// Identifiers are case-insensitive and normalized to upper case; the
// citation text is the one region captured verbatim. An elided leading
// Lower or final Upper takes the configured default limit. A leading
// number is read as Lower only when the token after it can begin an
// expression, so "298.15-T" is bound 298.15 followed by expression -T.
//
// # Example
//
//	fn, err := lang.ParseString(ctx,
//	    "298.15 +2.2*T-1.1E-3*T**2; 1000 Y -5+T*LN(T);,,N REF: 91Din !")
//	if err != nil { ... }
//
//	value, err := fn.Evaluate(ctx, nil, lang.StateVariables{"T": 500})
//
// Identifiers that are not state variables refer to other named
// functions. Definitions registered in a MacroTable are expanded during
// evaluation, with reference cycles detected rather than followed:
//
//	tbl := lang.NewMacroTable()
//	tbl.Define("GHSERCR", fn)
//
//	other, _ := lang.ParseString(ctx, "GHSERCR+T;!")
//	value, err := other.Evaluate(ctx, tbl, lang.StateVariables{"T": 500})
//
// # Symbol resolution
//
// An identifier inside an expression resolves through, in order:
//
//  1. State variables (T, P by default), read from Conditions
//  2. Named functions registered in the MacroTable
//  3. Predefined constants (R by default)
//
// An identifier that resolves through none of these fails evaluation
// with ErrUnknownMacro.
//
// # Evaluation
//
// Arithmetic follows IEEE-754 double precision, left to right as
// written. Division by zero produces an infinity, not an error; only
// the logarithm enforces a domain restriction. The governing state
// variable must be a positive normal float, and every state variable
// must be finite, before any segment is selected.
package lang
