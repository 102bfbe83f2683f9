package compiler

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/CityOfZion/neo-ruby-sdk/errors"
)

type tokenKind int

const (
	tEOF tokenKind = iota
	tNewline
	tIdent
	tConst
	tInt
	tString
	tPunct
	tKeyword
)

var keywords = map[string]bool{
	"def": true, "end": true, "if": true, "elsif": true, "else": true,
	"unless": true, "while": true, "until": true, "return": true,
	"true": true, "false": true, "and": true, "or": true, "not": true,
	"then": true, "do": true,
}

// punctuation, longest first
var puncts = []string{
	"<<=", ">>=",
	"**", "==", "!=", "<=", ">=", "&&", "||", "<<", ">>",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=",
	"+", "-", "*", "/", "%", "&", "|", "^", "~", "!",
	"<", ">", "=", "(", ")", "[", "]", ",", ".", ";",
}

type token struct {
	kind tokenKind
	text string // identifier, punctuation, number text or decoded string
	pos  Pos
}

// continuesLine reports whether a newline after t is insignificant.
func (t token) continuesLine() bool {
	if t.kind == tKeyword {
		return t.text == "and" || t.text == "or" || t.text == "not"
	}
	if t.kind != tPunct {
		return false
	}
	switch t.text {
	case ")", "]", ";":
		return false
	}
	return true
}

type scanner struct {
	src   string
	off   int
	line  int
	col   int
	depth int // open parens and brackets
	toks  []token
}

func scan(src string) ([]token, error) {
	s := &scanner{src: src, line: 1, col: 1}
	for {
		t, err := s.next()
		if err != nil {
			return nil, err
		}
		if t.kind == tNewline {
			n := len(s.toks)
			if s.depth > 0 || n == 0 || s.toks[n-1].kind == tNewline || s.toks[n-1].continuesLine() {
				continue
			}
		}
		s.toks = append(s.toks, t)
		if t.kind == tEOF {
			return s.toks, nil
		}
	}
}

func (s *scanner) peek() rune {
	if s.off >= len(s.src) {
		return -1
	}
	r, _ := utf8.DecodeRuneInString(s.src[s.off:])
	return r
}

func (s *scanner) advance() rune {
	r, size := utf8.DecodeRuneInString(s.src[s.off:])
	s.off += size
	if r == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return r
}

func (s *scanner) errorf(pos Pos, format string, args ...interface{}) error {
	return Error{Pos: pos, Err: errors.WithDetailf(ErrSyntax, format, args...)}
}

func (s *scanner) next() (token, error) {
	for {
		r := s.peek()
		switch {
		case r == '#':
			for s.peek() != '\n' && s.peek() != -1 {
				s.advance()
			}
			continue
		case r == '\\' && strings.HasPrefix(s.src[s.off:], "\\\n"):
			s.advance()
			s.advance()
			continue
		case r == ' ' || r == '\t' || r == '\r':
			s.advance()
			continue
		}
		break
	}

	pos := Pos{s.line, s.col}
	r := s.peek()
	switch {
	case r == -1:
		return token{kind: tEOF, pos: pos}, nil

	case r == '\n':
		s.advance()
		return token{kind: tNewline, pos: pos}, nil

	case r == '_' || unicode.IsLetter(r):
		start := s.off
		for r := s.peek(); r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r); r = s.peek() {
			s.advance()
		}
		if r := s.peek(); r == '?' || r == '!' {
			if !strings.HasPrefix(s.src[s.off:], "!=") {
				s.advance()
			}
		}
		text := s.src[start:s.off]
		switch {
		case keywords[text]:
			return token{tKeyword, text, pos}, nil
		case unicode.IsUpper(rune(text[0])):
			return token{tConst, text, pos}, nil
		}
		return token{tIdent, text, pos}, nil

	case unicode.IsDigit(r):
		start := s.off
		for r := s.peek(); r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r); r = s.peek() {
			s.advance()
		}
		return token{tInt, s.src[start:s.off], pos}, nil

	case r == '\'' || r == '"':
		return s.scanString(pos)
	}

	for _, p := range puncts {
		if strings.HasPrefix(s.src[s.off:], p) {
			for range p {
				s.advance()
			}
			switch p {
			case "(", "[":
				s.depth++
			case ")", "]":
				if s.depth > 0 {
					s.depth--
				}
			}
			return token{tPunct, p, pos}, nil
		}
	}
	return token{}, s.errorf(pos, "unexpected character %q", r)
}

func (s *scanner) scanString(pos Pos) (token, error) {
	quote := s.advance()
	var b strings.Builder
	for {
		r := s.peek()
		switch r {
		case -1, '\n':
			return token{}, s.errorf(pos, "unterminated string")
		case quote:
			s.advance()
			return token{tString, b.String(), pos}, nil
		case '\\':
			s.advance()
			e := s.advance()
			if quote == '\'' {
				if e != '\'' && e != '\\' {
					b.WriteRune('\\')
				}
				b.WriteRune(e)
				continue
			}
			switch e {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '0':
				b.WriteByte(0)
			case 'x':
				if s.off+2 > len(s.src) {
					return token{}, s.errorf(pos, "short \\x escape")
				}
				v, err := strconv.ParseUint(s.src[s.off:s.off+2], 16, 8)
				if err != nil {
					return token{}, s.errorf(pos, "bad \\x escape")
				}
				s.advance()
				s.advance()
				b.WriteByte(byte(v))
			default:
				b.WriteRune(e)
			}
		default:
			b.WriteRune(s.advance())
		}
	}
}
