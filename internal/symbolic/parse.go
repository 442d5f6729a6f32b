package symbolic

import (
	"fmt"
	"strconv"
	"unicode"
)

// Parse reads the canonical text form produced by Expr.String.
//
//	expr  := term (('+' | '-') term)*
//	term  := unary (('*' | '/') unary)*
//	unary := '-' unary | power
//	power := atom ('^' unary)?
//	atom  := number | name | name '(' args ')' | '(' expr ')'
func Parse(s string) (Expr, error) {
	toks, err := tokenize(s)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	e, err := p.expr()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokEOF {
		return nil, p.errorf("unexpected %q", p.peek().text)
	}
	return e, nil
}

type tokKind int

const (
	tokEOF tokKind = iota
	tokNum
	tokName
	tokOp
)

type token struct {
	kind tokKind
	text string
	pos  int
}

func tokenize(s string) ([]token, error) {
	var toks []token
	rs := []rune(s)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case unicode.IsDigit(r) || r == '.':
			start := i
			for i < len(rs) && (unicode.IsDigit(rs[i]) || rs[i] == '.') {
				i++
			}
			if i < len(rs) && (rs[i] == 'e' || rs[i] == 'E') {
				j := i + 1
				if j < len(rs) && (rs[j] == '+' || rs[j] == '-') {
					j++
				}
				if j < len(rs) && unicode.IsDigit(rs[j]) {
					i = j
					for i < len(rs) && unicode.IsDigit(rs[i]) {
						i++
					}
				}
			}
			toks = append(toks, token{tokNum, string(rs[start:i]), start})
		case unicode.IsLetter(r) || r == '_':
			start := i
			for i < len(rs) && (unicode.IsLetter(rs[i]) || unicode.IsDigit(rs[i]) || rs[i] == '_') {
				i++
			}
			toks = append(toks, token{tokName, string(rs[start:i]), start})
		case r == '+' || r == '-' || r == '*' || r == '/' || r == '^' || r == '(' || r == ')' || r == ',':
			toks = append(toks, token{tokOp, string(r), i})
			i++
		default:
			return nil, fmt.Errorf("%w: unexpected character %q at %d", ErrParse, r, i)
		}
	}
	return append(toks, token{kind: tokEOF, pos: len(rs)}), nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) isOp(op string) bool {
	t := p.peek()
	return t.kind == tokOp && t.text == op
}

func (p *parser) expect(op string) error {
	if !p.isOp(op) {
		return p.errorf("expected %q", op)
	}
	p.next()
	return nil
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w at %d: %s", ErrParse, p.peek().pos, fmt.Sprintf(format, args...))
}

func (p *parser) expr() (Expr, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	terms := []Expr{left}
	for p.isOp("+") || p.isOp("-") {
		negate := p.next().text == "-"
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		if negate {
			right = Neg(right)
		}
		terms = append(terms, right)
	}
	return AddOf(terms...), nil
}

func (p *parser) term() (Expr, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	factors := []Expr{left}
	for p.isOp("*") || p.isOp("/") {
		divide := p.next().text == "/"
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		if divide {
			right = PowOf(right, N(-1))
		}
		factors = append(factors, right)
	}
	return MulOf(factors...), nil
}

func (p *parser) unary() (Expr, error) {
	if p.isOp("-") {
		p.next()
		e, err := p.unary()
		if err != nil {
			return nil, err
		}
		return Neg(e), nil
	}
	return p.power()
}

func (p *parser) power() (Expr, error) {
	base, err := p.atom()
	if err != nil {
		return nil, err
	}
	if !p.isOp("^") {
		return base, nil
	}
	p.next()
	exp, err := p.unary()
	if err != nil {
		return nil, err
	}
	return PowOf(base, exp), nil
}

func (p *parser) atom() (Expr, error) {
	t := p.next()
	switch t.kind {
	case tokNum:
		v, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad number %q: %v", ErrParse, t.text, err)
		}
		return R(v), nil
	case tokName:
		if !p.isOp("(") {
			return S(t.text), nil
		}
		p.next()
		return p.call(t.text)
	case tokOp:
		if t.text == "(" {
			e, err := p.expr()
			if err != nil {
				return nil, err
			}
			return e, p.expect(")")
		}
	}
	return nil, fmt.Errorf("%w at %d: unexpected %q", ErrParse, t.pos, t.text)
}

// call parses the arguments of name( ... ) after the opening parenthesis.
func (p *parser) call(name string) (Expr, error) {
	var args []Expr
	for {
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		args = append(args, e)
		if !p.isOp(",") {
			break
		}
		p.next()
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}

	switch name {
	case "complex":
		if len(args) != 2 {
			return nil, fmt.Errorf("%w: complex takes 2 arguments, got %d", ErrParse, len(args))
		}
		re, ok1 := args[0].(*Num)
		im, ok2 := args[1].(*Num)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("%w: complex takes numeric arguments", ErrParse)
		}
		return C(complex(real(re.val), real(im.val))), nil
	case "Integral":
		if len(args) != 4 {
			return nil, fmt.Errorf("%w: Integral takes 4 arguments, got %d", ErrParse, len(args))
		}
		v, ok := args[1].(*Sym)
		if !ok {
			return nil, fmt.Errorf("%w: Integral variable must be a name, got %s", ErrParse, args[1])
		}
		return IntegralOf(args[0], v.name, args[2], args[3]), nil
	case "sqrt":
		if len(args) != 1 {
			return nil, fmt.Errorf("%w: sqrt takes 1 argument", ErrParse)
		}
		return SqrtOf(args[0]), nil
	}
	if _, ok := funcTable[name]; !ok {
		return nil, fmt.Errorf("%w: unknown function %q", ErrParse, name)
	}
	if len(args) != 1 {
		return nil, fmt.Errorf("%w: %s takes 1 argument", ErrParse, name)
	}
	return funcOf(name, args[0]), nil
}
