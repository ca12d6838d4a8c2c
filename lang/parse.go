package lang

import (
	"context"
	"log/slog"

	"github.com/cjkunselman18/pycalphad/log"
)

// ParseString parses a function-language body into its segment list.
// Results are cached for efficient repeated parsing of identical
// content when no options are used.
func ParseString(ctx context.Context, source string, opts ...Option) (*Function, error) {
	if len(opts) == 0 {
		return parseStringCached(ctx, source)
	}

	return parse(ctx, source, opts...)
}

// parse is the internal parsing implementation.
func parse(ctx context.Context, source string, opts ...Option) (*Function, error) {
	fn := new(Function)

	applyDefaults(fn)
	applyOptions(fn, opts...)

	fn.logger.TraceContext(ctx, "parse start",
		slog.Int("source_length", len(source)))

	toks, err := scan(source)
	if err != nil {
		return nil, err
	}

	p := &parser{toks: toks, fn: fn, logger: fn.logger}

	if err := p.parseFunction(ctx); err != nil {
		return nil, err
	}

	fn.logger.TraceContext(ctx, "parse complete",
		slog.Int("segment_count", len(fn.Segments)),
		slog.String("citation", fn.Citation))

	return fn, nil
}

// parser holds the parser state.
type parser struct {
	fn     *Function
	toks   []token
	pos    int
	logger log.Logger
}

// cur returns the current token without consuming it.
func (p *parser) cur() token { return p.toks[p.pos] }

// peek returns the token after the current one.
func (p *parser) peek() token {
	if p.pos+1 < len(p.toks) {
		return p.toks[p.pos+1]
	}

	return p.toks[len(p.toks)-1]
}

// advance consumes and returns the current token. The trailing EOF
// token is never consumed.
func (p *parser) advance() token {
	tok := p.toks[p.pos]
	if tok.kind != tokenEOF {
		p.pos++
	}

	return tok
}

// expect consumes the current token if it has the given kind, failing
// otherwise.
func (p *parser) expect(kind tokenKind) (token, error) {
	tok := p.cur()
	if tok.kind != kind {
		return tok, ErrParse.WithPosition(tok.pos).
			With(slog.String("expected", kind.String())).
			With(slog.String("found", tok.kind.String()))
	}

	return p.advance(), nil
}

// parseFunction parses: [Lower] Expr (';' Upper 'Y' Expr)* Tail.
//
// A leading number is taken as the first segment's lower bound when the
// token after it can begin an expression; otherwise the number is the
// expression and the lower bound defaults. A body like "298.15-T" is
// therefore bound 298.15 followed by expression -T, never the
// subtraction 298.15-T.
func (p *parser) parseFunction(ctx context.Context) error {
	lower := p.fn.opts.lowerLimit

	if p.cur().kind == tokenNumber && startsExpression(p.peek()) {
		lower = p.advance().val
	}

	for {
		pos := p.cur().pos

		expr, err := p.parseExpr()
		if err != nil {
			return err
		}

		p.logger.TraceContext(ctx, "segment parsed",
			slog.Int("index", len(p.fn.Segments)),
			slog.Float64("lower", lower))

		seg := Segment{Lower: lower, Expr: expr}

		switch p.cur().kind {
		case tokenBang:
			// Bare terminator: the final upper bound is implicit.
			seg.Upper = p.fn.opts.upperLimit

			if err := p.checkBounds(seg, pos); err != nil {
				return err
			}

			p.fn.Segments = append(p.fn.Segments, seg)

			return p.parseTerminator()

		case tokenSemicolon:
			p.advance()

		default:
			tok := p.cur()

			return ErrParse.WithPosition(tok.pos).
				With(slog.String("expected", ";")).
				With(slog.String("found", tok.kind.String()))
		}

		// After ';' comes an explicit upper bound, an elided one
		// (",,"), or the terminator itself.
		switch p.cur().kind {
		case tokenNumber:
			bound := p.advance()

			seg.Upper = bound.val

			if err := p.checkBounds(seg, bound.pos); err != nil {
				return err
			}

			p.fn.Segments = append(p.fn.Segments, seg)

			flag, err := p.expect(tokenIdent)
			if err != nil {
				return err
			}

			switch flag.text {
			case "Y":
				// The bound closes this segment and opens the next.
				lower = bound.val

			case "N":
				return p.parseTail()

			default:
				return ErrParse.WithPosition(flag.pos).
					With(slog.String("expected", "Y or N")).
					With(slog.String("found", flag.text))
			}

		case tokenComma:
			// ",,N" elides the final upper bound.
			p.advance()

			if _, err := p.expect(tokenComma); err != nil {
				return err
			}

			seg.Upper = p.fn.opts.upperLimit

			if err := p.checkBounds(seg, pos); err != nil {
				return err
			}

			p.fn.Segments = append(p.fn.Segments, seg)

			flag, err := p.expect(tokenIdent)
			if err != nil {
				return err
			}

			if flag.text != "N" {
				return ErrParse.WithPosition(flag.pos).
					With(slog.String("expected", "N")).
					With(slog.String("found", flag.text))
			}

			return p.parseTail()

		case tokenBang:
			// ";!" closes the function with an implicit upper bound.
			seg.Upper = p.fn.opts.upperLimit

			if err := p.checkBounds(seg, pos); err != nil {
				return err
			}

			p.fn.Segments = append(p.fn.Segments, seg)

			return p.parseTerminator()

		default:
			tok := p.cur()

			return ErrParse.WithPosition(tok.pos).
				With(slog.String("expected", "upper bound")).
				With(slog.String("found", tok.kind.String()))
		}
	}
}

// checkBounds rejects a segment whose upper bound does not strictly
// exceed its lower bound.
func (p *parser) checkBounds(seg Segment, pos Position) error {
	if !(seg.Upper > seg.Lower) {
		return ErrParse.WithPosition(pos).
			With(slog.String("issue", "range bounds not increasing")).
			With(slog.Float64("lower", seg.Lower)).
			With(slog.Float64("upper", seg.Upper))
	}

	return nil
}

// parseTail parses: [Citation] '!'.
func (p *parser) parseTail() error {
	if p.cur().kind == tokenCitation {
		p.fn.Citation = p.advance().text
	}

	return p.parseTerminator()
}

// parseTerminator parses the closing '!' and requires it to end input.
func (p *parser) parseTerminator() error {
	if _, err := p.expect(tokenBang); err != nil {
		return err
	}

	if tok := p.cur(); tok.kind != tokenEOF {
		return ErrParse.WithPosition(tok.pos).
			With(slog.String("expected", "end of input")).
			With(slog.String("found", tok.kind.String()))
	}

	return nil
}

// startsExpression reports whether a token can begin an expression.
func startsExpression(tok token) bool {
	switch tok.kind {
	case tokenNumber, tokenIdent, tokenLParen, tokenPlus, tokenMinus:
		return true

	default:
		return false
	}
}

// parseExpr parses: Term (('+' | '-') Term)*.
func (p *parser) parseExpr() (*Node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}

	for {
		var op Op

		switch p.cur().kind {
		case tokenPlus:
			op = OpAdd

		case tokenMinus:
			op = OpSub

		default:
			return left, nil
		}

		p.advance()

		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}

		left = NewBinary(op, left, right)
	}
}

// parseTerm parses: Factor (('*' | '/') Factor)*.
func (p *parser) parseTerm() (*Node, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}

	for {
		var op Op

		switch p.cur().kind {
		case tokenStar:
			op = OpMul

		case tokenSlash:
			op = OpDiv

		default:
			return left, nil
		}

		p.advance()

		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}

		left = NewBinary(op, left, right)
	}
}

// parseFactor parses: ('+' | '-') Factor | Power. Unary plus is
// dropped; unary minus becomes an OpNeg node.
func (p *parser) parseFactor() (*Node, error) {
	switch p.cur().kind {
	case tokenPlus:
		p.advance()

		return p.parseFactor()

	case tokenMinus:
		p.advance()

		operand, err := p.parseFactor()
		if err != nil {
			return nil, err
		}

		return NewUnary(OpNeg, operand), nil
	}

	return p.parsePower()
}

// parsePower parses: Primary ['**' Factor]. Exponentiation is
// right-associative and binds tighter than '*' and '/'.
func (p *parser) parsePower() (*Node, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	if p.cur().kind != tokenPower {
		return base, nil
	}

	p.advance()

	exp, err := p.parseFactor()
	if err != nil {
		return nil, err
	}

	return NewBinary(OpPow, base, exp), nil
}

// parsePrimary parses: Number | Identifier | Call | '(' Expr ')'.
// An identifier is a state variable when the options recognize it, a
// named-function reference otherwise.
func (p *parser) parsePrimary() (*Node, error) {
	tok := p.cur()

	switch tok.kind {
	case tokenNumber:
		p.advance()

		return NewLiteral(tok.val), nil

	case tokenIdent:
		p.advance()

		if p.cur().kind == tokenLParen {
			return p.parseCall(tok)
		}

		if p.fn.stateVariable(tok.text) {
			return NewSymbol(tok.text), nil
		}

		return NewMacroRef(tok.text), nil

	case tokenLParen:
		p.advance()

		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		if _, err := p.expect(tokenRParen); err != nil {
			return nil, err
		}

		return expr, nil
	}

	return nil, ErrParse.WithPosition(tok.pos).
		With(slog.String("expected", "expression")).
		With(slog.String("found", tok.kind.String()))
}

// parseCall parses: '(' Expr ')' for a named built-in. All built-ins
// take exactly one argument.
func (p *parser) parseCall(name token) (*Node, error) {
	if !builtinCall(name.text) {
		return nil, ErrParse.WithPosition(name.pos).
			With(slog.String("issue", "unknown function call")).
			With(slog.String("call", name.text))
	}

	if _, err := p.expect(tokenLParen); err != nil {
		return nil, err
	}

	arg, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(tokenRParen); err != nil {
		return nil, err
	}

	return NewCall(name.text, arg), nil
}

// builtinCall reports whether name is a recognized built-in function.
func builtinCall(name string) bool {
	switch name {
	case "LN", "LOG", "EXP":
		return true

	default:
		return false
	}
}
