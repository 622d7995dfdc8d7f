package parser

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/vnykmshr/tableflow/pkg/common/validation"
)

type tokenType int

const (
	tokEOF tokenType = iota
	tokIdent
	tokString
	tokNumber
	tokLParen
	tokRParen
	tokComma
	tokEquals
)

func (t tokenType) String() string {
	switch t {
	case tokEOF:
		return "end of input"
	case tokIdent:
		return "identifier"
	case tokString:
		return "string"
	case tokNumber:
		return "number"
	case tokLParen:
		return `"("`
	case tokRParen:
		return `")"`
	case tokComma:
		return `","`
	case tokEquals:
		return `"="`
	default:
		return "unknown token"
	}
}

type token struct {
	typ    tokenType
	text   string // identifier name, unquoted string, or number literal
	offset int
}

type lexError struct {
	offset int
	detail string
}

func (e *lexError) Error() string { return e.detail }

// lexer splits a process list into tokens. Whitespace between tokens is
// ignored.
type lexer struct {
	input string
	pos   int
}

func (l *lexer) next() (token, error) {
	l.skipSpace()
	if l.pos >= len(l.input) {
		return token{typ: tokEOF, offset: l.pos}, nil
	}

	start := l.pos
	r, width := utf8.DecodeRuneInString(l.input[l.pos:])
	switch {
	case r == '(':
		l.pos += width
		return token{typ: tokLParen, offset: start}, nil
	case r == ')':
		l.pos += width
		return token{typ: tokRParen, offset: start}, nil
	case r == ',':
		l.pos += width
		return token{typ: tokComma, offset: start}, nil
	case r == '=':
		l.pos += width
		return token{typ: tokEquals, offset: start}, nil
	case r == '\'' || r == '"':
		return l.quoted(r)
	case r == '+' || r == '-' || r == '.' || isDigit(r):
		return l.number()
	case validation.IsIdentStart(r):
		return l.ident(), nil
	default:
		return token{}, &lexError{offset: start, detail: fmt.Sprintf("unexpected character %q", r)}
	}
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.input) {
		r, width := utf8.DecodeRuneInString(l.input[l.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		l.pos += width
	}
}

func (l *lexer) ident() token {
	start := l.pos
	for l.pos < len(l.input) {
		r, width := utf8.DecodeRuneInString(l.input[l.pos:])
		if !validation.IsIdentStart(r) && !isDigit(r) {
			break
		}
		l.pos += width
	}
	return token{typ: tokIdent, text: l.input[start:l.pos], offset: start}
}

func (l *lexer) quoted(q rune) (token, error) {
	start := l.pos
	l.pos++

	var sb strings.Builder
	for l.pos < len(l.input) {
		r, width := utf8.DecodeRuneInString(l.input[l.pos:])
		l.pos += width
		switch r {
		case q:
			return token{typ: tokString, text: sb.String(), offset: start}, nil
		case '\\':
			if l.pos >= len(l.input) {
				return token{}, &lexError{offset: start, detail: "unterminated string"}
			}
			esc, ewidth := utf8.DecodeRuneInString(l.input[l.pos:])
			l.pos += ewidth
			switch esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			default:
				sb.WriteRune(esc)
			}
		default:
			sb.WriteRune(r)
		}
	}
	return token{}, &lexError{offset: start, detail: "unterminated string"}
}

// number scans [+-] digits [. digits] [(e|E) [+-] digits]. At least one
// digit is required in the mantissa and in any exponent.
func (l *lexer) number() (token, error) {
	start := l.pos
	if c := l.input[l.pos]; c == '+' || c == '-' {
		l.pos++
	}
	digits := l.digits()
	if l.pos < len(l.input) && l.input[l.pos] == '.' {
		l.pos++
		digits += l.digits()
	}
	if digits == 0 {
		return token{}, &lexError{offset: start, detail: "malformed number"}
	}
	if l.pos < len(l.input) && (l.input[l.pos] == 'e' || l.input[l.pos] == 'E') {
		l.pos++
		if l.pos < len(l.input) && (l.input[l.pos] == '+' || l.input[l.pos] == '-') {
			l.pos++
		}
		if l.digits() == 0 {
			return token{}, &lexError{offset: start, detail: "malformed exponent"}
		}
	}
	return token{typ: tokNumber, text: l.input[start:l.pos], offset: start}, nil
}

func (l *lexer) digits() int {
	n := 0
	for l.pos < len(l.input) && isDigit(rune(l.input[l.pos])) {
		l.pos++
		n++
	}
	return n
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
