package compiler

import (
	"math/big"
	"strings"

	"github.com/CityOfZion/neo-ruby-sdk/errors"
)

// Parse parses contract source. The language is a small
// expression-oriented subset of Ruby: def/end functions, local
// variables, integer, boolean, string and array literals, if/elsif/
// else/unless, while/until, return, statement modifiers, and calls
// with or without parentheses.
func Parse(name string, src []byte) (*File, error) {
	toks, err := scan(string(src))
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, locals: make(map[string]bool)}
	f := &File{Name: name}
	for {
		p.skipTerminators()
		if p.at(tEOF, "") {
			return f, nil
		}
		if p.at(tKeyword, "def") {
			d, err := p.parseDef()
			if err != nil {
				return nil, err
			}
			f.Defs = append(f.Defs, d)
			continue
		}
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		f.Stmts = append(f.Stmts, s)
		if err := p.endStmt(); err != nil {
			return nil, err
		}
	}
}

type parser struct {
	toks   []token
	pos    int
	locals map[string]bool // names assigned so far in the current scope
}

func (p *parser) tok() token { return p.toks[p.pos] }

func (p *parser) at(kind tokenKind, text string) bool {
	t := p.tok()
	return t.kind == kind && (text == "" || t.text == text)
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tEOF {
		p.pos++
	}
	return t
}

func (p *parser) errorf(t token, format string, args ...interface{}) error {
	return Error{Pos: t.pos, Err: errors.WithDetailf(ErrSyntax, format, args...)}
}

func (p *parser) unexpected(want string) error {
	t := p.tok()
	switch t.kind {
	case tEOF:
		return p.errorf(t, "unexpected end of input, want %s", want)
	case tNewline:
		return p.errorf(t, "unexpected newline, want %s", want)
	}
	return p.errorf(t, "unexpected %q, want %s", t.text, want)
}

func (p *parser) expect(kind tokenKind, text string) (token, error) {
	if !p.at(kind, text) {
		return token{}, p.unexpected(text)
	}
	return p.next(), nil
}

func (p *parser) skipTerminators() {
	for p.at(tNewline, "") || p.at(tPunct, ";") {
		p.next()
	}
}

// endStmt consumes the terminator after a statement. A block
// keyword may follow directly, as in "if x then 1 else 2 end".
func (p *parser) endStmt() error {
	switch {
	case p.at(tNewline, ""), p.at(tPunct, ";"):
		p.skipTerminators()
		return nil
	case p.at(tEOF, ""), p.at(tKeyword, "end"), p.at(tKeyword, "else"), p.at(tKeyword, "elsif"):
		return nil
	}
	return p.unexpected("end of statement")
}

func (p *parser) parseDef() (*Def, error) {
	t := p.next() // def
	name := p.tok()
	if name.kind != tIdent {
		return nil, p.unexpected("function name")
	}
	p.next()
	d := &Def{Pos: t.pos, Name: name.text}

	outer := p.locals
	p.locals = make(map[string]bool)
	defer func() { p.locals = outer }()

	if p.at(tPunct, "(") {
		p.next()
		for !p.at(tPunct, ")") {
			param, err := p.expect(tIdent, "")
			if err != nil {
				return nil, err
			}
			d.Params = append(d.Params, param.text)
			p.locals[param.text] = true
			if !p.at(tPunct, ",") {
				break
			}
			p.next()
		}
		if _, err := p.expect(tPunct, ")"); err != nil {
			return nil, err
		}
	} else {
		for p.at(tIdent, "") {
			param := p.next()
			d.Params = append(d.Params, param.text)
			p.locals[param.text] = true
			if !p.at(tPunct, ",") {
				break
			}
			p.next()
		}
	}

	body, err := p.parseBlock("end")
	if err != nil {
		return nil, err
	}
	d.Body = body
	p.next() // end
	return d, nil
}

// parseBlock parses statements up to, but not including, one of
// the terminating keywords.
func (p *parser) parseBlock(terms ...string) ([]Node, error) {
	var stmts []Node
	for {
		p.skipTerminators()
		for _, term := range terms {
			if p.at(tKeyword, term) {
				return stmts, nil
			}
		}
		if p.at(tEOF, "") {
			return nil, p.unexpected(strings.Join(terms, " or "))
		}
		var (
			s   Node
			err error
		)
		if p.at(tKeyword, "def") {
			s, err = p.parseDef()
		} else {
			s, err = p.parseStmt()
		}
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
		if err := p.endStmt(); err != nil {
			return nil, err
		}
	}
}

func (p *parser) parseStmt() (Node, error) {
	t := p.tok()
	var (
		s   Node
		err error
	)
	switch {
	case t.kind == tKeyword && (t.text == "if" || t.text == "unless"):
		return p.parseIf()
	case t.kind == tKeyword && (t.text == "while" || t.text == "until"):
		return p.parseWhile()
	case t.kind == tKeyword && t.text == "return":
		p.next()
		r := &Return{Pos: t.pos}
		if !p.atStmtEnd() && !p.at(tKeyword, "if") && !p.at(tKeyword, "unless") {
			r.Value, err = p.parseExpr()
			if err != nil {
				return nil, err
			}
		}
		s = r
	default:
		s, err = p.parseSimpleStmt()
		if err != nil {
			return nil, err
		}
	}
	return p.parseModifiers(s)
}

func (p *parser) atStmtEnd() bool {
	return p.at(tNewline, "") || p.at(tPunct, ";") || p.at(tEOF, "") ||
		p.at(tKeyword, "end") || p.at(tKeyword, "else") || p.at(tKeyword, "elsif")
}

// parseModifiers handles trailing "if", "unless", "while" and
// "until" clauses.
func (p *parser) parseModifiers(s Node) (Node, error) {
	for {
		t := p.tok()
		if t.kind != tKeyword {
			return s, nil
		}
		switch t.text {
		case "if", "unless", "while", "until":
		default:
			return s, nil
		}
		p.next()
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if t.text == "unless" || t.text == "until" {
			cond = &Unary{Pos: cond.Position(), Op: "!", X: cond}
		}
		if t.text == "if" || t.text == "unless" {
			s = &If{Pos: t.pos, Cond: cond, Then: []Node{s}}
		} else {
			s = &While{Pos: t.pos, Cond: cond, Body: []Node{s}}
		}
	}
}

func (p *parser) parseSimpleStmt() (Node, error) {
	x, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	t := p.tok()
	if t.kind != tPunct || !strings.HasSuffix(t.text, "=") || t.text == "==" || t.text == "!=" || t.text == "<=" || t.text == ">=" {
		return x, nil
	}
	p.next()
	op := strings.TrimSuffix(t.text, "=")
	switch target := x.(type) {
	case *Ident:
		if op != "" && !p.locals[target.Name] {
			return nil, Error{Pos: t.pos, Node: target, Err: errors.WithDetailf(ErrUndefined, "local %s", target.Name)}
		}
		p.locals[target.Name] = true
		v, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &Assign{Pos: target.Pos, Name: target.Name, Op: op, Value: v}, nil
	case *Index:
		if op != "" {
			return nil, p.errorf(t, "compound assignment to an element")
		}
		v, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &IndexAssign{Pos: target.Pos, X: target.X, Index: target.Index, Value: v}, nil
	}
	return nil, p.errorf(t, "cannot assign to %s", x)
}

func (p *parser) parseIf() (Node, error) {
	t := p.next() // if, unless or elsif
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if t.text == "unless" {
		cond = &Unary{Pos: cond.Position(), Op: "!", X: cond}
	}
	if p.at(tKeyword, "then") {
		p.next()
	}
	n := &If{Pos: t.pos, Cond: cond}
	n.Then, err = p.parseBlock("end", "else", "elsif")
	if err != nil {
		return nil, err
	}
	switch {
	case p.at(tKeyword, "elsif"):
		if t.text == "unless" {
			return nil, p.unexpected("end or else")
		}
		elsif, err := p.parseIf()
		if err != nil {
			return nil, err
		}
		n.Else = []Node{elsif}
		return n, nil // the nested if consumed the end
	case p.at(tKeyword, "else"):
		p.next()
		n.Else, err = p.parseBlock("end")
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(tKeyword, "end"); err != nil {
		return nil, err
	}
	return n, nil
}

func (p *parser) parseWhile() (Node, error) {
	t := p.next()
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if t.text == "until" {
		cond = &Unary{Pos: cond.Position(), Op: "!", X: cond}
	}
	if p.at(tKeyword, "do") {
		p.next()
	}
	body, err := p.parseBlock("end")
	if err != nil {
		return nil, err
	}
	p.next() // end
	return &While{Pos: t.pos, Cond: cond, Body: body}, nil
}

// Binary operator precedence, loosest first.
var precedence = [][]string{
	{"or", "and"},
	{"||"},
	{"&&"},
	{"==", "!="},
	{"<", "<=", ">", ">="},
	{"|", "^"},
	{"&"},
	{"<<", ">>"},
	{"+", "-"},
	{"*", "/", "%"},
}

func (p *parser) parseExpr() (Node, error) {
	return p.parseBinary(0)
}

func (p *parser) binaryOp(level int) (token, bool) {
	t := p.tok()
	if t.kind != tPunct && t.kind != tKeyword {
		return t, false
	}
	for _, op := range precedence[level] {
		if t.text == op {
			return t, true
		}
	}
	return t, false
}

func (p *parser) parseBinary(level int) (Node, error) {
	if level == len(precedence) {
		return p.parseUnary()
	}
	x, err := p.parseBinary(level + 1)
	if err != nil {
		return nil, err
	}
	for {
		t, ok := p.binaryOp(level)
		if !ok {
			return x, nil
		}
		p.next()
		y, err := p.parseBinary(level + 1)
		if err != nil {
			return nil, err
		}
		op := t.text
		switch op {
		case "and":
			op = "&&"
		case "or":
			op = "||"
		}
		x = &Binary{Pos: t.pos, Op: op, L: x, R: y}
	}
}

func (p *parser) parseUnary() (Node, error) {
	t := p.tok()
	if t.kind == tKeyword && t.text == "not" {
		// not binds looser than equality
		p.next()
		x, err := p.parseBinary(3)
		if err != nil {
			return nil, err
		}
		return &Unary{Pos: t.pos, Op: "!", X: x}, nil
	}
	if t.kind == tPunct && (t.text == "-" || t.text == "!" || t.text == "~" || t.text == "+") {
		p.next()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if t.text == "+" {
			return x, nil
		}
		if lit, ok := x.(*IntLit); ok && t.text == "-" {
			return &IntLit{Pos: t.pos, Val: new(big.Int).Neg(lit.Val)}, nil
		}
		return &Unary{Pos: t.pos, Op: t.text, X: x}, nil
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() (Node, error) {
	x, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.at(tPunct, "."):
			p.next()
			name := p.tok()
			if name.kind != tIdent {
				return nil, p.unexpected("method name")
			}
			p.next()
			args, err := p.parseArgs(false)
			if err != nil {
				return nil, err
			}
			x = &Call{Pos: name.pos, Recv: x, Name: name.text, Args: args}
		case p.at(tPunct, "["):
			t := p.next()
			i, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(tPunct, "]"); err != nil {
				return nil, err
			}
			x = &Index{Pos: t.pos, X: x, Index: i}
		default:
			if _, ok := x.(*Const); ok {
				return nil, p.unexpected(".")
			}
			return x, nil
		}
	}
}

// parseArgs parses a parenthesized argument list, or, when the next
// token on the same line starts an expression, an unparenthesized
// one. A local variable never takes unparenthesized arguments.
func (p *parser) parseArgs(isLocal bool) ([]Node, error) {
	if p.at(tPunct, "(") {
		p.next()
		var args []Node
		for !p.at(tPunct, ")") {
			a, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, a)
			if !p.at(tPunct, ",") {
				break
			}
			p.next()
		}
		if _, err := p.expect(tPunct, ")"); err != nil {
			return nil, err
		}
		return args, nil
	}
	if isLocal || !p.startsCommandArg() {
		return nil, nil
	}
	var args []Node
	for {
		a, err := p.parseBinary(1)
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		if !p.at(tPunct, ",") {
			return args, nil
		}
		p.next()
	}
}

func (p *parser) startsCommandArg() bool {
	t := p.tok()
	switch t.kind {
	case tIdent, tConst, tInt, tString:
		return true
	case tKeyword:
		return t.text == "true" || t.text == "false"
	case tPunct:
		return t.text == "!" || t.text == "~"
	}
	return false
}

func (p *parser) parsePrimary() (Node, error) {
	t := p.tok()
	switch t.kind {
	case tInt:
		p.next()
		n, ok := new(big.Int).SetString(t.text, 0)
		if !ok {
			return nil, p.errorf(t, "bad integer %s", t.text)
		}
		return &IntLit{Pos: t.pos, Val: n}, nil

	case tString:
		p.next()
		return &StrLit{Pos: t.pos, Val: []byte(t.text)}, nil

	case tKeyword:
		switch t.text {
		case "true", "false":
			p.next()
			return &BoolLit{Pos: t.pos, Val: t.text == "true"}, nil
		}

	case tConst:
		p.next()
		return &Const{Pos: t.pos, Name: t.text}, nil

	case tIdent:
		p.next()
		isLocal := p.locals[t.text]
		args, err := p.parseArgs(isLocal)
		if err != nil {
			return nil, err
		}
		if args == nil && isLocal {
			return &Ident{Pos: t.pos, Name: t.text}, nil
		}
		if args == nil && !p.toks[p.pos-1].isCloseParen() {
			return &Ident{Pos: t.pos, Name: t.text}, nil
		}
		return &Call{Pos: t.pos, Name: t.text, Args: args}, nil

	case tPunct:
		switch t.text {
		case "(":
			p.next()
			x, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(tPunct, ")"); err != nil {
				return nil, err
			}
			return x, nil
		case "[":
			p.next()
			a := &ArrayLit{Pos: t.pos}
			for !p.at(tPunct, "]") {
				x, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				a.Elems = append(a.Elems, x)
				if !p.at(tPunct, ",") {
					break
				}
				p.next()
			}
			if _, err := p.expect(tPunct, "]"); err != nil {
				return nil, err
			}
			return a, nil
		}
	}
	return nil, p.unexpected("expression")
}

func (t token) isCloseParen() bool { return t.kind == tPunct && t.text == ")" }
