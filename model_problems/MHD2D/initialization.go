package MHD2D

import (
	"fmt"
	"math"
	"strings"

	"github.com/notargets/gomhd/fem"
)

type InitType uint

const (
	WAVE InitType = iota
	ISLAND
)

var (
	InitNames = map[string]InitType{
		"wave":   WAVE,
		"island": ISLAND,
	}
	InitPrintNames = []string{"Perturbed sine wave", "Fadeev magnetic island equilibrium"}
)

func NewInitType(label string) (it InitType) {
	var (
		ok  bool
		err error
	)
	if len(label) == 0 {
		err = fmt.Errorf("empty init type, must be one of %v", InitNames)
		panic(err)
	}
	label = strings.ToLower(label)
	if it, ok = InitNames[label]; !ok {
		err = fmt.Errorf("unable to use init type named %s", label)
		panic(err)
	}
	return
}

func (it InitType) Print() (txt string) {
	return InitPrintNames[it]
}

type SchemeType uint

const (
	FORWARDEULER SchemeType = iota
	RK4
	BACKWARDEULER
)

var (
	SchemeNames = map[string]SchemeType{
		"forwardeuler":  FORWARDEULER,
		"rk4":           RK4,
		"backwardeuler": BACKWARDEULER,
	}
	SchemePrintNames = []string{"Forward Euler", "Low storage Runge-Kutta 4", "Backward Euler"}
)

func NewSchemeType(label string) (st SchemeType) {
	var (
		ok  bool
		err error
	)
	label = strings.ToLower(label)
	if st, ok = SchemeNames[label]; !ok {
		err = fmt.Errorf("unable to use time scheme named \"%s\", must be one of %v", label, SchemeNames)
		panic(err)
	}
	return
}

func (st SchemeType) Print() string {
	return SchemePrintNames[st]
}

func (st SchemeType) IsImplicit() bool { return st == BACKWARDEULER }

// InitialCondition is the flux psi with its current j = Laplacian(psi). The
// equilibrium current drives the forcing that keeps the unperturbed state steady.
type InitialCondition struct {
	Psi, J, JEquilibrium fem.FunctionCoefficient
}

/*
NewWave is a two mode flux on [x0,x1]x[y0,y1] vanishing on the boundary:

	psi = Amp sin(pi X) sin(pi Y) + Eps sin(2 pi X) sin(pi Y)

with X, Y the coordinates scaled to the unit square.
*/
func NewWave(amp, eps, x0, x1, y0, y1 float64) (ic *InitialCondition) {
	var (
		lx, ly = x1 - x0, y1 - y0
		kx, ky = math.Pi / lx, math.Pi / ly
	)
	ic = &InitialCondition{
		Psi: func(x, y float64) float64 {
			sy := math.Sin(ky * (y - y0))
			return amp*math.Sin(kx*(x-x0))*sy + eps*math.Sin(2*kx*(x-x0))*sy
		},
		J: func(x, y float64) float64 {
			sy := math.Sin(ky * (y - y0))
			return -amp*(kx*kx+ky*ky)*math.Sin(kx*(x-x0))*sy -
				eps*(4*kx*kx+ky*ky)*math.Sin(2*kx*(x-x0))*sy
		},
		JEquilibrium: func(x, y float64) float64 { return 0 },
	}
	return
}

/*
NewIsland is the Fadeev equilibrium, a chain of magnetic islands of width
lambda, plus a coalescence perturbation

	psi = -lambda ln(cosh(y/lambda) + eps cos(x/lambda)) + Amp cos(pi y/Ly) cos(2 pi x/Lx)

The perturbation vanishes on y = y0, y1 for a domain centred on y = 0.
*/
func NewIsland(amp, eps, lambda, x0, x1, y0, y1 float64) (ic *InitialCondition) {
	var (
		lx, ly = x1 - x0, y1 - y0
		kx, ky = 2 * math.Pi / lx, math.Pi / ly
	)
	jEq := func(x, y float64) float64 {
		d := math.Cosh(y/lambda) + eps*math.Cos(x/lambda)
		return -(1 - eps*eps) / (lambda * d * d)
	}
	ic = &InitialCondition{
		Psi: func(x, y float64) float64 {
			return -lambda*math.Log(math.Cosh(y/lambda)+eps*math.Cos(x/lambda)) +
				amp*math.Cos(ky*y)*math.Cos(kx*x)
		},
		J: func(x, y float64) float64 {
			return jEq(x, y) - amp*(kx*kx+ky*ky)*math.Cos(ky*y)*math.Cos(kx*x)
		},
		JEquilibrium: jEq,
	}
	return
}

func NewInitialCondition(it InitType, amp, eps, lambda float64, x0, x1, y0, y1 float64) *InitialCondition {
	switch it {
	case ISLAND:
		return NewIsland(amp, eps, lambda, x0, x1, y0, y1)
	default:
		return NewWave(amp, eps, x0, x1, y0, y1)
	}
}
