package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tferrors "github.com/vnykmshr/tableflow/pkg/common/errors"
	"github.com/vnykmshr/tableflow/pkg/process"
)

// Resolver reports whether a process name exists for a kind.
// *registry.Registry implements it.
type Resolver interface {
	Exists(kind process.Kind, name string) bool
}

// Parse converts a process list such as
//
//	dropIfConstant, removeIfSparse(minpres=100), makeNa('<', 0)
//
// into descriptors of the given kind, in the order written. Every name must
// exist in r; the first unknown name aborts parsing with a
// *errors.NoSuchProcessError. Input that does not match the grammar fails
// with a *errors.ParseError. Parse does not cache; use a Parser for that.
func Parse(kind process.Kind, input string, r Resolver) ([]process.Descriptor, error) {
	toks, err := tokenize(input)
	if err != nil {
		return nil, err
	}
	s := &state{input: input, toks: toks, kind: kind, resolver: r}
	return s.processList()
}

func tokenize(input string) ([]token, error) {
	l := &lexer{input: input}
	var toks []token
	for {
		tok, err := l.next()
		if err != nil {
			var le *lexError
			if errors.As(err, &le) {
				return nil, &tferrors.ParseError{Input: input, Offset: le.offset, Detail: le.detail}
			}
			return nil, err
		}
		toks = append(toks, tok)
		if tok.typ == tokEOF {
			return toks, nil
		}
	}
}

type state struct {
	input    string
	toks     []token
	pos      int
	kind     process.Kind
	resolver Resolver
}

func (s *state) peek() token {
	return s.toks[s.pos]
}

func (s *state) peekAt(n int) token {
	if s.pos+n >= len(s.toks) {
		return s.toks[len(s.toks)-1]
	}
	return s.toks[s.pos+n]
}

func (s *state) advance() token {
	tok := s.toks[s.pos]
	if tok.typ != tokEOF {
		s.pos++
	}
	return tok
}

func (s *state) errorf(offset int, format string, args ...interface{}) error {
	return &tferrors.ParseError{Input: s.input, Offset: offset, Detail: fmt.Sprintf(format, args...)}
}

func (s *state) expect(typ tokenType) (token, error) {
	tok := s.peek()
	if tok.typ != typ {
		return tok, s.errorf(tok.offset, "expected %s, found %s", typ, describe(tok))
	}
	return s.advance(), nil
}

func (s *state) processList() ([]process.Descriptor, error) {
	if s.peek().typ == tokEOF {
		return nil, s.errorf(0, "empty process list")
	}

	var out []process.Descriptor
	for {
		d, err := s.process()
		if err != nil {
			return nil, err
		}
		out = append(out, d)

		if s.peek().typ != tokComma {
			break
		}
		s.advance()
	}

	if tok := s.peek(); tok.typ != tokEOF {
		return nil, s.errorf(tok.offset, "unexpected %s after process list", describe(tok))
	}
	return out, nil
}

func (s *state) process() (process.Descriptor, error) {
	nameTok, err := s.expect(tokIdent)
	if err != nil {
		return process.Descriptor{}, err
	}
	d := process.Descriptor{Kind: s.kind, Name: nameTok.text}

	if s.peek().typ == tokLParen {
		s.advance()
		if err := s.argList(&d); err != nil {
			return process.Descriptor{}, err
		}
	}

	if s.resolver != nil && !s.resolver.Exists(s.kind, d.Name) {
		return process.Descriptor{}, &tferrors.NoSuchProcessError{Kind: s.kind.String(), Name: d.Name}
	}
	return d, nil
}

func (s *state) argList(d *process.Descriptor) error {
	if s.peek().typ == tokRParen {
		s.advance()
		return nil
	}

	for {
		tok := s.peek()
		if tok.typ == tokIdent && s.peekAt(1).typ == tokEquals {
			s.advance()
			s.advance()
			if _, dup := d.Kwarg(tok.text); dup {
				return s.errorf(tok.offset, "keyword argument %s repeated", tok.text)
			}
			v, err := s.literal()
			if err != nil {
				return err
			}
			d.Kwargs = append(d.Kwargs, process.Kwarg{Name: tok.text, Value: v})
		} else {
			if len(d.Kwargs) > 0 {
				return s.errorf(tok.offset, "positional argument follows keyword argument")
			}
			v, err := s.literal()
			if err != nil {
				return err
			}
			d.Args = append(d.Args, v)
		}

		if s.peek().typ == tokComma {
			s.advance()
			continue
		}
		_, err := s.expect(tokRParen)
		return err
	}
}

func (s *state) literal() (process.Value, error) {
	tok := s.peek()
	switch tok.typ {
	case tokString:
		s.advance()
		return process.String(tok.text), nil
	case tokNumber:
		s.advance()
		return s.number(tok)
	case tokIdent:
		switch tok.text {
		case "True":
			s.advance()
			return process.Bool(true), nil
		case "False":
			s.advance()
			return process.Bool(false), nil
		case "None":
			s.advance()
			return process.Null(), nil
		}
	}
	return process.Value{}, s.errorf(tok.offset, "expected literal, found %s", describe(tok))
}

func (s *state) number(tok token) (process.Value, error) {
	if strings.ContainsAny(tok.text, ".eE") {
		f, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return process.Value{}, s.errorf(tok.offset, "invalid number %s", tok.text)
		}
		return process.Float(f), nil
	}
	i, err := strconv.ParseInt(tok.text, 10, 64)
	if err != nil {
		return process.Value{}, s.errorf(tok.offset, "integer %s out of range", tok.text)
	}
	return process.Int(i), nil
}

func describe(tok token) string {
	switch tok.typ {
	case tokIdent, tokNumber:
		return fmt.Sprintf("%s %s", tok.typ, tok.text)
	case tokString:
		return fmt.Sprintf("string %q", tok.text)
	default:
		return tok.typ.String()
	}
}
