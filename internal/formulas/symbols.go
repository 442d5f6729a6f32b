package formulas

import "github.com/wildstyl3r/sfi/internal/symbolic"

// Canonical time symbols the chain nodes are stored with.
const (
	T  = "t"
	T1 = "t1"
	T2 = "t2"
)

var (
	Td     = symbolic.S("T_d")
	F      = symbolic.S("F")
	Omega1 = symbolic.S("omega_1")
	Omega2 = symbolic.S("omega_2")
	Eta1   = symbolic.S("etta_1")
	Eta2   = symbolic.S("etta_2")
	N1     = symbolic.S("N_1")
	N2     = symbolic.S("N_2")
	F0     = symbolic.S("f_0")
	Ip     = symbolic.S("I_p")
	P      = symbolic.S("p")
	PTheta = symbolic.S("p_theta")
)

// ParameterOrder is the order in which compiled equations take the
// parameter values after the two solution coordinates.
var ParameterOrder = []string{
	"T_d", "F", "omega_1", "omega_2", "etta_1", "etta_2",
	"N_1", "N_2", "f_0", "I_p", "p", "p_theta",
}

// Parameter is one instance of the ionization model in atomic units.
type Parameter struct {
	Td     float64 // delay of the second field component, >= 0
	F      float64 // field amplitude
	Omega1 float64
	Omega2 float64
	Eta1   float64 // ellipticities
	Eta2   float64
	N1     float64 // cycles per pulse
	N2     float64
	F0     complex128
	Ip     float64
	P      float64
	PTheta float64
}

// Values lists the parameter in ParameterOrder.
func (p Parameter) Values() []complex128 {
	return []complex128{
		complex(p.Td, 0),
		complex(p.F, 0),
		complex(p.Omega1, 0),
		complex(p.Omega2, 0),
		complex(p.Eta1, 0),
		complex(p.Eta2, 0),
		complex(p.N1, 0),
		complex(p.N2, 0),
		p.F0,
		complex(p.Ip, 0),
		complex(p.P, 0),
		complex(p.PTheta, 0),
	}
}

func (p Parameter) WithDelay(td float64) Parameter {
	p.Td = td
	return p
}
