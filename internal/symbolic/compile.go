package symbolic

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"
	"strings"
)

// Callable evaluates a compiled expression at the given arguments, in the
// order fixed at compilation.
type Callable func(args ...complex128) (complex128, error)

// Compile turns e into a numeric callable of the symbols in order. Every free
// symbol of e has to be listed. Unevaluated integrals are computed with q.
// The returned callable is safe for concurrent use.
func Compile(e Expr, order []string, q Quadrature) (Callable, error) {
	c := &compiler{
		slots: make(map[string]int, len(order)),
		memo:  map[string]int{},
		q:     q,
	}
	for i, name := range order {
		if _, dup := c.slots[name]; dup {
			return nil, fmt.Errorf("symbolic: duplicate argument %q", name)
		}
		c.slots[name] = i
	}
	c.nslots = len(order)

	var unbound []string
	for name := range FreeSymbols(e) {
		if _, ok := c.slots[name]; !ok {
			unbound = append(unbound, name)
		}
	}
	if len(unbound) > 0 {
		sort.Strings(unbound)
		return nil, fmt.Errorf("%w: %s", ErrUnboundSymbol, strings.Join(unbound, ", "))
	}

	root, err := c.compile(e)
	if err != nil {
		return nil, err
	}
	nargs, nslots, nmemo := len(order), c.nslots, len(c.memo)
	return func(args ...complex128) (complex128, error) {
		if len(args) != nargs {
			return 0, fmt.Errorf("symbolic: expected %d arguments, got %d", nargs, len(args))
		}
		f := &frame{vals: make([]complex128, nslots), memo: make([]memoCell, nmemo)}
		copy(f.vals, args)
		v, err := root(f)
		if err != nil {
			return 0, err
		}
		if cmplx.IsNaN(v) || cmplx.IsInf(v) {
			return 0, fmt.Errorf("%w: result is %v", ErrDomain, v)
		}
		return v, nil
	}, nil
}

type frame struct {
	vals []complex128
	memo []memoCell
}

type memoCell struct {
	done bool
	val  complex128
}

type evalFn func(f *frame) (complex128, error)

type compiler struct {
	slots  map[string]int
	nslots int
	// integration variables of the enclosing integrals
	bound []string
	memo  map[string]int
	q     Quadrature
}

func (c *compiler) compile(e Expr) (evalFn, error) {
	switch x := e.(type) {
	case *Num:
		v := x.val
		return func(*frame) (complex128, error) { return v, nil }, nil
	case *Sym:
		slot, ok := c.slots[x.name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnboundSymbol, x.name)
		}
		return func(f *frame) (complex128, error) { return f.vals[slot], nil }, nil
	case *Add:
		terms, err := c.compileAll(x.terms)
		if err != nil {
			return nil, err
		}
		return func(f *frame) (complex128, error) {
			var sum complex128
			for _, t := range terms {
				v, err := t(f)
				if err != nil {
					return 0, err
				}
				sum += v
			}
			return sum, nil
		}, nil
	case *Mul:
		factors, err := c.compileAll(x.factors)
		if err != nil {
			return nil, err
		}
		return func(f *frame) (complex128, error) {
			prod := complex128(1)
			for _, fn := range factors {
				v, err := fn(f)
				if err != nil {
					return 0, err
				}
				prod *= v
			}
			return prod, nil
		}, nil
	case *Pow:
		return c.compilePow(x)
	case *Func:
		arg, err := c.compile(x.arg)
		if err != nil {
			return nil, err
		}
		apply := funcTable[x.name]
		name := x.name
		return func(f *frame) (complex128, error) {
			a, err := arg(f)
			if err != nil {
				return 0, err
			}
			v, err := apply(a)
			if err != nil {
				return 0, fmt.Errorf("%w: %s(%v)", err, name, a)
			}
			return v, nil
		}, nil
	case *Integral:
		return c.compileIntegral(x)
	}
	return nil, fmt.Errorf("symbolic: cannot compile %T", e)
}

func (c *compiler) compileAll(es []Expr) ([]evalFn, error) {
	out := make([]evalFn, len(es))
	for i, e := range es {
		fn, err := c.compile(e)
		if err != nil {
			return nil, err
		}
		out[i] = fn
	}
	return out, nil
}

func (c *compiler) compilePow(p *Pow) (evalFn, error) {
	base, err := c.compile(p.base)
	if err != nil {
		return nil, err
	}
	if e, ok := p.exp.(*Num); ok {
		if n, integer := e.isInteger(); integer {
			return func(f *frame) (complex128, error) {
				b, err := base(f)
				if err != nil {
					return 0, err
				}
				if b == 0 && n < 0 {
					return 0, ErrDivisionByZero
				}
				return powInt(b, n), nil
			}, nil
		}
		if e.val == 0.5 {
			return func(f *frame) (complex128, error) {
				b, err := base(f)
				if err != nil {
					return 0, err
				}
				return cmplx.Sqrt(b), nil
			}, nil
		}
	}
	exp, err := c.compile(p.exp)
	if err != nil {
		return nil, err
	}
	return func(f *frame) (complex128, error) {
		b, err := base(f)
		if err != nil {
			return 0, err
		}
		x, err := exp(f)
		if err != nil {
			return 0, err
		}
		if b == 0 {
			if real(x) > 0 {
				return 0, nil
			}
			return 0, ErrDivisionByZero
		}
		return cmplx.Pow(b, x), nil
	}, nil
}

func (c *compiler) compileIntegral(in *Integral) (evalFn, error) {
	if c.q == nil {
		return nil, fmt.Errorf("symbolic: no quadrature for %s", in)
	}
	lo, err := c.compile(in.lo)
	if err != nil {
		return nil, err
	}
	hi, err := c.compile(in.hi)
	if err != nil {
		return nil, err
	}

	memo := -1
	if !c.dependsOnBound(in) {
		key := in.String()
		if slot, ok := c.memo[key]; ok {
			memo = slot
		} else {
			memo = len(c.memo)
			c.memo[key] = memo
		}
	}

	slot := c.nslots
	c.nslots++
	prev, shadowed := c.slots[in.v]
	c.slots[in.v] = slot
	c.bound = append(c.bound, in.v)
	body, err := c.compile(in.body)
	c.bound = c.bound[:len(c.bound)-1]
	if shadowed {
		c.slots[in.v] = prev
	} else {
		delete(c.slots, in.v)
	}
	if err != nil {
		return nil, err
	}

	q := c.q
	return func(f *frame) (complex128, error) {
		if memo >= 0 && f.memo[memo].done {
			return f.memo[memo].val, nil
		}
		a, err := lo(f)
		if err != nil {
			return 0, err
		}
		b, err := hi(f)
		if err != nil {
			return 0, err
		}
		if imag(a) != 0 || imag(b) != 0 {
			return 0, fmt.Errorf("%w: [%v, %v]", ErrComplexLimits, a, b)
		}
		v, err := q.Integrate(func(t float64) (complex128, error) {
			f.vals[slot] = complex(t, 0)
			return body(f)
		}, real(a), real(b))
		if err != nil {
			return 0, err
		}
		if math.IsNaN(real(v)) || math.IsNaN(imag(v)) {
			return 0, fmt.Errorf("%w: integral is NaN", ErrDomain)
		}
		if memo >= 0 {
			f.memo[memo] = memoCell{done: true, val: v}
		}
		return v, nil
	}, nil
}

func (c *compiler) dependsOnBound(e Expr) bool {
	if len(c.bound) == 0 {
		return false
	}
	free := FreeSymbols(e)
	for _, v := range c.bound {
		if _, ok := free[v]; ok {
			return true
		}
	}
	return false
}
