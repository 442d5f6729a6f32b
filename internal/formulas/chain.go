// Package formulas derives the closed-form quantities of the two-color
// saddle-point model: the electron trajectory under both field components,
// the saddle-point momentum K, the effective field, the action and the
// quantities built on them.
//
// Every node of a Chain is derived once, on first access, in the canonical
// time symbols t, t1, t2. Accessors hand the cached expression back with the
// canonical symbols replaced by the caller's arguments.
package formulas

import (
	"log/slog"
	"sync"

	"github.com/wildstyl3r/sfi/internal/symbolic"
	"github.com/wildstyl3r/sfi/internal/utils"
)

type cell[V any] struct {
	once  sync.Once
	value V
}

func materialize[V any](c *Chain, cl *cell[V], name string, build func() V) V {
	cl.once.Do(func() {
		cl.value = build()
		c.logger.Info("formula is set", "node", name)
	})
	return cl.value
}

// Chain is safe for concurrent use; each node is derived under its own once.
type Chain struct {
	envelope Envelope
	logger   *slog.Logger

	r1, r2, r, a, f, k, p cell[symbolic.Vector]
	fTmpSquare, fTmp      cell[symbolic.Expr]
	w, kappa, s, l        cell[symbolic.Expr]
}

func NewChain(envelope Envelope, logger *slog.Logger) *Chain {
	if envelope == nil {
		envelope = Fading{}
	}
	return &Chain{envelope: envelope, logger: utils.Discard(logger)}
}

var (
	t  = symbolic.S(T)
	t1 = symbolic.S(T1)
	t2 = symbolic.S(T2)
)

func at(v symbolic.Vector, x symbolic.Expr) symbolic.Vector {
	return v.SubstituteOne(T, x)
}

func atPair(v symbolic.Vector, x, y symbolic.Expr) symbolic.Vector {
	return v.SubstitutePair([2]string{T1, T2}, [2]symbolic.Expr{x, y})
}

func scalarAt(e symbolic.Expr, x, y symbolic.Expr) symbolic.Expr {
	return e.Subs(map[string]symbolic.Expr{T1: x, T2: y})
}

// Impulse is the final momentum [p cos(p_theta), p sin(p_theta)].
func (c *Chain) Impulse() symbolic.Vector {
	return symbolic.Vector{
		symbolic.MulOf(P, symbolic.CosOf(PTheta)),
		symbolic.MulOf(P, symbolic.SinOf(PTheta)),
	}
}

func (c *Chain) component(n, omega, eta symbolic.Expr) symbolic.Vector {
	factor := symbolic.MulOf(c.envelope.Envelope(t, n, omega), F, symbolic.PowOf(omega, symbolic.N(-2)))
	return symbolic.Vector{
		symbolic.MulOf(factor, symbolic.CosOf(symbolic.MulOf(omega, t))),
		symbolic.MulOf(factor, eta, symbolic.SinOf(symbolic.MulOf(omega, t))),
	}
}

// R1 is the displacement driven by the first field component.
func (c *Chain) R1(x symbolic.Expr) symbolic.Vector {
	return at(materialize(c, &c.r1, "R_1", func() symbolic.Vector {
		return c.component(N1, Omega1, Eta1)
	}), x)
}

// R2 is the displacement driven by the second component, with its own
// cycle count, frequency and ellipticity.
func (c *Chain) R2(x symbolic.Expr) symbolic.Vector {
	return at(materialize(c, &c.r2, "R_2", func() symbolic.Vector {
		return c.component(N2, Omega2, Eta2)
	}), x)
}

// R(t) = R1(t) + R2(t - T_d)
func (c *Chain) R(x symbolic.Expr) symbolic.Vector {
	return at(materialize(c, &c.r, "R", func() symbolic.Vector {
		return symbolic.VectorSum(c.R1(t), c.R2(symbolic.SubOf(t, Td)))
	}), x)
}

func (c *Chain) A(x symbolic.Expr) symbolic.Vector {
	return at(materialize(c, &c.a, "A", func() symbolic.Vector {
		return c.R(t).DiffEach(T)
	}), x)
}

func (c *Chain) F(x symbolic.Expr) symbolic.Vector {
	return at(materialize(c, &c.f, "F", func() symbolic.Vector {
		return c.A(t).DiffEach(T).Neg()
	}), x)
}

// K(t1, t2) = A(t1) - 1/(t1-t2) * integral of A from t2 to t1.
func (c *Chain) K(x, y symbolic.Expr) symbolic.Vector {
	return atPair(materialize(c, &c.k, "K", func() symbolic.Vector {
		return c.drift(c.A(t1))
	}), x, y)
}

// drift subtracts the mean of A over [t2, t1] from v.
func (c *Chain) drift(v symbolic.Vector) symbolic.Vector {
	integral := c.A(t).IntegrateEach(T, t2, t1)
	inverse := symbolic.Neg(symbolic.PowOf(symbolic.SubOf(t1, t2), symbolic.N(-1)))
	return symbolic.VectorSum(v, symbolic.Scale(inverse, integral))
}

// K1 and K2 name the same node.
func (c *Chain) K1(x, y symbolic.Expr) symbolic.Vector { return c.K(x, y) }
func (c *Chain) K2(x, y symbolic.Expr) symbolic.Vector { return c.K(x, y) }

// FTmpSquare is |K''|^2 + K.K'' with derivatives in t2.
func (c *Chain) FTmpSquare(x, y symbolic.Expr) symbolic.Expr {
	return scalarAt(materialize(c, &c.fTmpSquare, "F_tmp_square", func() symbolic.Expr {
		k := c.K(t1, t2)
		second := k.DiffEach(T2).DiffEach(T2)
		return symbolic.AddOf(second.Square(), symbolic.Dot(k, second))
	}), x, y)
}

func (c *Chain) FTmp(x, y symbolic.Expr) symbolic.Expr {
	return scalarAt(materialize(c, &c.fTmp, "F_tmp", func() symbolic.Expr {
		return symbolic.SqrtOf(c.FTmpSquare(t1, t2))
	}), x, y)
}

// W = (2 K1.K2 + F(t2).(K1 - K2)) / ((t1 - t2) F_tmp_square)
func (c *Chain) W(x, y symbolic.Expr) symbolic.Expr {
	return scalarAt(materialize(c, &c.w, "W", func() symbolic.Expr {
		k1, k2 := c.K1(t1, t2), c.K2(t1, t2)
		first := symbolic.MulOf(symbolic.N(2), symbolic.Dot(k1, k2))
		second := symbolic.Dot(c.F(t2), symbolic.VectorSum(k1, k2.Neg()))
		return symbolic.DivOf(symbolic.AddOf(first, second), symbolic.MulOf(symbolic.SubOf(t1, t2), c.FTmpSquare(t1, t2)))
	}), x, y)
}

// P(t) = impulse + A(t)
func (c *Chain) P(x symbolic.Expr) symbolic.Vector {
	return at(materialize(c, &c.p, "P", func() symbolic.Vector {
		return symbolic.VectorSum(c.Impulse(), c.A(t))
	}), x)
}

// Kappa = sqrt(2 I_p + |K|^2)
func (c *Chain) Kappa(x, y symbolic.Expr) symbolic.Expr {
	return scalarAt(materialize(c, &c.kappa, "Kappa", func() symbolic.Expr {
		return symbolic.SqrtOf(symbolic.AddOf(symbolic.MulOf(symbolic.N(2), Ip), c.K2(t1, t2).Square()))
	}), x, y)
}

// S is the action -1/2 integral_t2^t1 |A(t) - mean A|^2 dt + I_p t2^2.
func (c *Chain) S(x, y symbolic.Expr) symbolic.Expr {
	return scalarAt(materialize(c, &c.s, "S", func() symbolic.Expr {
		action := symbolic.IntegralOf(c.drift(c.A(t)).Square(), T, t2, t1)
		return symbolic.AddOf(symbolic.MulOf(symbolic.R(-0.5), action), symbolic.MulOf(Ip, symbolic.PowOf(t2, symbolic.N(2))))
	}), x, y)
}

// L = P(t1).P'(t1) - K1.K1' with derivatives in t1.
func (c *Chain) L(x, y symbolic.Expr) symbolic.Expr {
	return scalarAt(materialize(c, &c.l, "L", func() symbolic.Expr {
		p, k := c.P(t1), c.K1(t1, t2)
		return symbolic.SubOf(symbolic.Dot(p, p.DiffEach(T1)), symbolic.Dot(k, k.DiffEach(T1)))
	}), x, y)
}
