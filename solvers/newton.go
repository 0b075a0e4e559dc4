package solvers

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/notargets/gomhd/utils"
)

// NonlinearOperator is a residual F(x) with a Jacobian for Newton's method
type NonlinearOperator interface {
	Height() int
	Mult(x, y []float64) error // y = F(x)
	GetGradient(x []float64) (utils.Operator, error)
}

// PreconditionerFactory builds a preconditioner for each new Jacobian
type PreconditionerFactory interface {
	NewPreconditioner(J utils.Operator) (utils.Operator, error)
}

// NewtonSolver solves F(x) = b with x updated in place. A linear solve that
// stops at its iteration limit still produces an update, only the outer
// residual decides convergence.
type NewtonSolver struct {
	IterativeSolver
	Oper    NonlinearOperator
	Linear  LinearSolver
	Factory PreconditionerFactory
	r, c    []float64
}

func NewNewtonSolver(name string, oper NonlinearOperator, linear LinearSolver) (ns *NewtonSolver) {
	ns = &NewtonSolver{
		IterativeSolver: IterativeSolver{
			Name:          name,
			RelTol:        1.e-8,
			AbsTol:        1.e-12,
			MaxIter:       20,
			IterativeMode: true,
		},
		Oper:   oper,
		Linear: linear,
	}
	return
}

func (ns *NewtonSolver) SetPreconditionerFactory(f PreconditionerFactory) { ns.Factory = f }

func (ns *NewtonSolver) Height() int { return ns.Oper.Height() }

// Mult solves F(x) = b, a nil b means b = 0
func (ns *NewtonSolver) Mult(b, x []float64) (err error) {
	var (
		n                     = ns.Oper.Height()
		norm, norm0, normGoal float64
		it                    int
		J                     utils.Operator
		P                     utils.Operator
	)
	if b != nil {
		if err = utils.CheckDims(ns.Name, n, b); err != nil {
			return
		}
	}
	if err = utils.CheckDims(ns.Name, n, x); err != nil {
		return
	}
	if len(ns.r) != n {
		ns.r, ns.c = make([]float64, n), make([]float64, n)
	}
	r, c := ns.r, ns.c
	if !ns.IterativeMode {
		for i := range x {
			x[i] = 0
		}
	}
	if norm, err = ns.residual(b, x, r); err != nil {
		return
	}
	norm0 = norm
	normGoal = math.Max(ns.RelTol*norm0, ns.AbsTol)
	for it = 0; ; it++ {
		if math.IsNaN(norm) {
			return fmt.Errorf("%s: %w at iteration %d", ns.Name, ErrNaN, it)
		}
		if ns.PrintLevel > 0 {
			fmt.Printf("Newton iteration %2d : ||r|| = %8.5e", it, norm)
			if it > 0 {
				fmt.Printf(", ||r||/||r_0|| = %8.5e", norm/norm0)
			}
			fmt.Printf("\n")
		}
		if norm <= normGoal {
			return ns.finish(it, norm, true)
		}
		if it >= ns.MaxIter {
			return ns.finish(it, norm, false)
		}
		if J, err = ns.Oper.GetGradient(x); err != nil {
			return fmt.Errorf("%s: gradient: %w", ns.Name, err)
		}
		ns.Linear.SetOperator(J)
		if ns.Factory != nil {
			if P, err = ns.Factory.NewPreconditioner(J); err != nil {
				return fmt.Errorf("%s: preconditioner: %w", ns.Name, err)
			}
			ns.Linear.SetPreconditioner(P)
		}
		for i := range c {
			c[i] = 0
		}
		if err = ns.Linear.Mult(r, c); err != nil {
			if !errors.Is(err, ErrNotConverged) {
				return fmt.Errorf("%s: linear solve: %w", ns.Name, err)
			}
			if ns.PrintLevel > 0 {
				fmt.Printf("%s: continuing after %v\n", ns.Name, err)
			}
			err = nil
		}
		floats.Sub(x, c)
		if norm, err = ns.residual(b, x, r); err != nil {
			return
		}
	}
}

// residual computes r = F(x) - b and its norm
func (ns *NewtonSolver) residual(b, x, r []float64) (norm float64, err error) {
	if err = ns.Oper.Mult(x, r); err != nil {
		err = fmt.Errorf("%s: residual: %w", ns.Name, err)
		return
	}
	if b != nil {
		floats.Sub(r, b)
	}
	norm = floats.Norm(r, 2)
	return
}
