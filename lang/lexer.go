package lang

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"unicode"
)

// tokenKind identifies the lexical class of a token.
type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenNumber
	tokenIdent
	tokenPlus
	tokenMinus
	tokenStar
	tokenSlash
	tokenPower
	tokenLParen
	tokenRParen
	tokenSemicolon
	tokenComma
	tokenBang
	tokenCitation
)

// String returns the token kind as it would appear in source.
func (k tokenKind) String() string {
	switch k {
	case tokenEOF:
		return "end of input"

	case tokenNumber:
		return "number"

	case tokenIdent:
		return "identifier"

	case tokenPlus:
		return "+"

	case tokenMinus:
		return "-"

	case tokenStar:
		return "*"

	case tokenSlash:
		return "/"

	case tokenPower:
		return "**"

	case tokenLParen:
		return "("

	case tokenRParen:
		return ")"

	case tokenSemicolon:
		return ";"

	case tokenComma:
		return ","

	case tokenBang:
		return "!"

	case tokenCitation:
		return "citation"

	default:
		return "unknown"
	}
}

// token is a single lexeme with its source position.
type token struct {
	text string
	val  float64 // numeric value (tokenNumber)
	pos  Position
	kind tokenKind
}

// lexer scans function-language source into tokens.
type lexer struct {
	input []byte
	pos   int
	line  int
	col   int
}

// scan tokenizes the entire input. Identifiers are normalized to upper
// case; citation text following REF: is captured verbatim. The returned
// slice always ends with a tokenEOF entry.
func scan(source string) ([]token, error) {
	lx := &lexer{input: []byte(source), line: 1, col: 1}

	var toks []token

	for {
		tok, err := lx.next()
		if err != nil {
			return nil, err
		}

		toks = append(toks, tok)

		if tok.kind == tokenEOF {
			return toks, nil
		}
	}
}

// next scans the next token.
func (lx *lexer) next() (token, error) {
	lx.skipSpace()

	pos := lx.position()

	if lx.eof() {
		return token{kind: tokenEOF, pos: pos}, nil
	}

	ch := lx.peek()

	switch {
	case isDigit(ch) || ch == '.':
		return lx.number()

	case isIdentStart(ch):
		return lx.identifier()
	}

	lx.advance()

	switch ch {
	case '+':
		return token{kind: tokenPlus, text: "+", pos: pos}, nil

	case '-':
		return token{kind: tokenMinus, text: "-", pos: pos}, nil

	case '*':
		if lx.peek() == '*' {
			lx.advance()

			return token{kind: tokenPower, text: "**", pos: pos}, nil
		}

		return token{kind: tokenStar, text: "*", pos: pos}, nil

	case '/':
		return token{kind: tokenSlash, text: "/", pos: pos}, nil

	case '(':
		return token{kind: tokenLParen, text: "(", pos: pos}, nil

	case ')':
		return token{kind: tokenRParen, text: ")", pos: pos}, nil

	case ';':
		return token{kind: tokenSemicolon, text: ";", pos: pos}, nil

	case ',':
		return token{kind: tokenComma, text: ",", pos: pos}, nil

	case '!':
		return token{kind: tokenBang, text: "!", pos: pos}, nil
	}

	return token{}, ErrParse.WithPosition(pos).
		With(slog.String("unexpected", strconv.QuoteRune(rune(ch))))
}

// number scans a numeric literal, including leading-dot and scientific
// forms such as .002623033 and 5.54714342E+08.
func (lx *lexer) number() (token, error) {
	pos := lx.position()
	start := lx.pos

	for isDigit(lx.peek()) {
		lx.advance()
	}

	if lx.peek() == '.' {
		lx.advance()

		for isDigit(lx.peek()) {
			lx.advance()
		}
	}

	if ch := lx.peek(); ch == 'e' || ch == 'E' {
		// Only an exponent when followed by [sign] digits; otherwise
		// the letter begins an adjacent identifier.
		mark, markLine, markCol := lx.pos, lx.line, lx.col

		lx.advance()

		if ch := lx.peek(); ch == '+' || ch == '-' {
			lx.advance()
		}

		if isDigit(lx.peek()) {
			for isDigit(lx.peek()) {
				lx.advance()
			}
		} else {
			lx.pos, lx.line, lx.col = mark, markLine, markCol
		}
	}

	text := string(lx.input[start:lx.pos])

	val, err := strconv.ParseFloat(text, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return token{}, ErrParse.WithPosition(pos).
				With(slog.String("number", text)).
				Wrap(errors.New("literal overflows float64"))
		}

		return token{}, ErrParse.WithPosition(pos).
			With(slog.String("number", text)).
			Wrap(errors.New("malformed number"))
	}

	return token{kind: tokenNumber, text: text, val: val, pos: pos}, nil
}

// identifier scans an identifier or, for REF, the citation tail.
func (lx *lexer) identifier() (token, error) {
	pos := lx.position()
	start := lx.pos

	for isIdentPart(lx.peek()) {
		lx.advance()
	}

	name := strings.ToUpper(string(lx.input[start:lx.pos]))

	// "REF:" introduces the citation, captured verbatim up to the
	// terminator. Citations are the one region never upper-cased.
	if name == "REF" {
		lx.skipSpace()

		if lx.peek() == ':' {
			lx.advance()

			return lx.citation(pos)
		}
	}

	return token{kind: tokenIdent, text: name, pos: pos}, nil
}

// citation captures raw text up to, but not including, the '!'
// terminator.
func (lx *lexer) citation(pos Position) (token, error) {
	start := lx.pos

	for !lx.eof() && lx.peek() != '!' {
		lx.advance()
	}

	if lx.eof() {
		return token{}, ErrParse.WithPosition(lx.position()).
			With(slog.String("expected", "!")).
			With(slog.String("found", "end of input"))
	}

	text := strings.TrimSpace(string(lx.input[start:lx.pos]))

	return token{kind: tokenCitation, text: text, pos: pos}, nil
}

// peek returns the current byte without consuming it, or 0 at EOF.
func (lx *lexer) peek() byte {
	if lx.eof() {
		return 0
	}

	return lx.input[lx.pos]
}

// advance consumes one byte, tracking line and column.
func (lx *lexer) advance() {
	if lx.eof() {
		return
	}

	if lx.input[lx.pos] == '\n' {
		lx.line++
		lx.col = 1
	} else {
		lx.col++
	}

	lx.pos++
}

func (lx *lexer) eof() bool { return lx.pos >= len(lx.input) }

// position returns the current source position.
func (lx *lexer) position() Position {
	return Position{Offset: lx.pos, Line: lx.line, Column: lx.col}
}

// skipSpace consumes whitespace, including newlines. Line breaks carry
// no meaning in function bodies.
func (lx *lexer) skipSpace() {
	for !lx.eof() && unicode.IsSpace(rune(lx.input[lx.pos])) {
		lx.advance()
	}
}

// Character classification

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}
