package formulas

import (
	"fmt"
	"math"

	"github.com/wildstyl3r/sfi/internal/constants"
	"github.com/wildstyl3r/sfi/internal/symbolic"
)

// Envelope is the amplitude envelope of one field component as a function
// of time, its number of cycles n and its angular frequency omega.
type Envelope interface {
	Envelope(t, n, omega symbolic.Expr) symbolic.Expr
}

type EnvelopeFunc func(t, n, omega symbolic.Expr) symbolic.Expr

func (f EnvelopeFunc) Envelope(t, n, omega symbolic.Expr) symbolic.Expr { return f(t, n, omega) }

// Fading is the Gaussian envelope exp(-2 ln2 t^2/tau^2), tau = 2 pi n/omega.
type Fading struct{}

func (Fading) Envelope(t, n, omega symbolic.Expr) symbolic.Expr {
	tau := symbolic.MulOf(symbolic.R(2*math.Pi), n, symbolic.PowOf(omega, symbolic.N(-1)))
	return symbolic.ExpOf(symbolic.MulOf(
		symbolic.R(-2*constants.Ln2),
		symbolic.PowOf(t, symbolic.N(2)),
		symbolic.PowOf(tau, symbolic.N(-2)),
	))
}

// Constant is a flat envelope.
type Constant struct{}

func (Constant) Envelope(symbolic.Expr, symbolic.Expr, symbolic.Expr) symbolic.Expr {
	return symbolic.N(1)
}

func EnvelopeByName(name string) (Envelope, error) {
	switch name {
	case "", "fading":
		return Fading{}, nil
	case "constant":
		return Constant{}, nil
	}
	return nil, fmt.Errorf("unknown envelope %q", name)
}
