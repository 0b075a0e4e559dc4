package solvers

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/notargets/gomhd/utils"
)

// NewJacobi returns the inverse diagonal of A
func NewJacobi(A *utils.CSR) (P utils.DiagonalOperator, err error) {
	if P, err = utils.NewInverseDiagonal(A.Diagonal()); err != nil {
		err = fmt.Errorf("jacobi: %w", err)
	}
	return
}

// Chebyshev is a fixed order polynomial smoother in D^-1 A started from zero,
// which makes it a symmetric positive definite preconditioner for SPD A
type Chebyshev struct {
	A          *utils.CSR
	Order      int
	LMin, LMax float64
	dinv       []float64
	r, d, w    []float64
}

// NewChebyshev estimates the largest eigenvalue of D^-1 A by power iteration,
// bounded above by Gershgorin, and targets [LMax/30, LMax]
func NewChebyshev(A *utils.CSR, order int) (ch *Chebyshev, err error) {
	var (
		n    = A.Height()
		dinv utils.DiagonalOperator
	)
	if dinv, err = NewJacobi(A); err != nil {
		return
	}
	if order < 1 {
		order = 1
	}
	ch = &Chebyshev{
		A:     A,
		Order: order,
		dinv:  dinv.D,
		r:     make([]float64, n),
		d:     make([]float64, n),
		w:     make([]float64, n),
	}
	ch.LMax = math.Min(1.1*PowerIteration(A, ch.dinv, 20), Gershgorin(A, ch.dinv))
	ch.LMin = ch.LMax / 30.
	return
}

func (ch *Chebyshev) Height() int { return ch.A.Height() }

// Mult applies the smoother to x giving y, y ~ A^-1 x
func (ch *Chebyshev) Mult(x, y []float64) {
	var (
		theta = 0.5 * (ch.LMax + ch.LMin)
		delta = 0.5 * (ch.LMax - ch.LMin)
		sigma = theta / delta
		rho   = 1. / sigma
		r, d  = ch.r, ch.d
		w     = ch.w
		dinv  = ch.dinv
	)
	copy(r, x)
	for i := range y {
		y[i] = 0
		d[i] = dinv[i] * r[i] / theta
	}
	for k := 0; k < ch.Order; k++ {
		floats.Add(y, d)
		if k == ch.Order-1 {
			break
		}
		ch.A.Mult(d, w)
		floats.Sub(r, w)
		rhoNew := 1. / (2*sigma - rho)
		for i := range d {
			d[i] = rhoNew*rho*d[i] + 2*rhoNew/delta*dinv[i]*r[i]
		}
		rho = rhoNew
	}
}

// PowerIteration estimates the spectral radius of D^-1 A
func PowerIteration(A *utils.CSR, dinv []float64, iterations int) (lambda float64) {
	var (
		n = A.Height()
		v = make([]float64, n)
		w = make([]float64, n)
	)
	if n == 0 {
		return
	}
	// A fixed, non symmetric start vector keeps the estimate reproducible
	for i := range v {
		v[i] = 1. + float64(i%7)/7.
	}
	floats.Scale(1./floats.Norm(v, 2), v)
	for it := 0; it < iterations; it++ {
		A.Mult(v, w)
		for i := range w {
			w[i] *= dinv[i]
		}
		if lambda = floats.Norm(w, 2); lambda == 0 {
			return
		}
		floats.ScaleTo(v, 1./lambda, w)
	}
	return
}

// Gershgorin bounds the eigenvalues of D^-1 A from above
func Gershgorin(A *utils.CSR, dinv []float64) (bound float64) {
	raw := A.RawMatrix()
	for i := 0; i < raw.I; i++ {
		var sum float64
		for jj := raw.Indptr[i]; jj < raw.Indptr[i+1]; jj++ {
			sum += math.Abs(raw.Data[jj])
		}
		bound = math.Max(bound, sum*math.Abs(dinv[i]))
	}
	return
}
