package solvers

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// CG is the preconditioned conjugate gradient method for symmetric positive
// definite operators. The stopping test is on the preconditioned residual,
// (B r, r) <= max(RelTol^2 (B r0, r0), AbsTol^2).
type CG struct {
	IterativeSolver
	r, z, d []float64
}

func NewCG(name string) (cg *CG) {
	cg = &CG{
		IterativeSolver: IterativeSolver{
			Name:    name,
			RelTol:  1.e-12,
			MaxIter: 1000,
		},
	}
	return
}

func (cg *CG) allocate(n int) {
	if len(cg.r) != n {
		cg.r, cg.z, cg.d = make([]float64, n), make([]float64, n), make([]float64, n)
	}
}

func (cg *CG) Mult(b, x []float64) (err error) {
	if err = cg.check(b, x); err != nil {
		return
	}
	var (
		A       = cg.A
		n       = A.Height()
		nom, r0 float64
		den     float64
	)
	cg.allocate(n)
	r, z, d := cg.r, cg.z, cg.d
	if cg.IterativeMode {
		A.Mult(x, r)
		floats.SubTo(r, b, r)
	} else {
		for i := range x {
			x[i] = 0
		}
		copy(r, b)
	}
	cg.precondition(r, z)
	copy(d, z)
	nom = floats.Dot(z, r)
	if math.IsNaN(nom) {
		return fmt.Errorf("%s: %w", cg.Name, ErrNaN)
	}
	if nom < 0 {
		return fmt.Errorf("%s: %w, initial (Br, r) = %g", cg.Name, ErrNotSPD, nom)
	}
	r0 = math.Max(nom*cg.RelTol*cg.RelTol, cg.AbsTol*cg.AbsTol)
	if nom <= r0 {
		return cg.finish(0, math.Sqrt(nom), true)
	}
	A.Mult(d, z)
	if den = floats.Dot(z, d); den <= 0 {
		return fmt.Errorf("%s: %w, (Ad, d) = %g", cg.Name, ErrNotSPD, den)
	}
	for i := 1; i <= cg.MaxIter; i++ {
		alpha := nom / den
		floats.AddScaled(x, alpha, d)
		floats.AddScaled(r, -alpha, z)
		cg.precondition(r, z)
		betanom := floats.Dot(r, z)
		if math.IsNaN(betanom) {
			return fmt.Errorf("%s: %w", cg.Name, ErrNaN)
		}
		if betanom < 0 {
			return fmt.Errorf("%s: %w, (Br, r) = %g", cg.Name, ErrNotSPD, betanom)
		}
		if cg.PrintLevel > 1 {
			fmt.Printf("   Iteration : %3d  (B r, r) = %8.5e\n", i, betanom)
		}
		if betanom <= r0 {
			return cg.finish(i, math.Sqrt(betanom), true)
		}
		if i == cg.MaxIter {
			return cg.finish(i, math.Sqrt(betanom), false)
		}
		beta := betanom / nom
		// d = z + beta*d
		floats.Scale(beta, d)
		floats.Add(d, z)
		A.Mult(d, z)
		if den = floats.Dot(d, z); den <= 0 {
			return fmt.Errorf("%s: %w, (Ad, d) = %g", cg.Name, ErrNotSPD, den)
		}
		nom = betanom
	}
	return cg.finish(cg.MaxIter, math.Sqrt(nom), false)
}
