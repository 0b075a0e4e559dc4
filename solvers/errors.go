package solvers

import (
	"errors"
	"fmt"

	"github.com/notargets/gomhd/utils"
)

var (
	ErrNotConverged   = errors.New("solver did not converge")
	ErrNotSPD         = errors.New("operator or preconditioner is not positive definite")
	ErrNaN            = errors.New("NaN encountered in residual")
	ErrNoOperator     = errors.New("solver used before SetOperator")
	ErrCoarseTooLarge = errors.New("coarse problem exceeds the configured size")
)

// ConvergenceError reports an iteration that stopped at its limit, it matches
// ErrNotConverged under errors.Is
type ConvergenceError struct {
	Solver     string
	Iterations int
	Residual   float64
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("%s: no convergence after %d iterations, residual norm = %8.5e",
		e.Solver, e.Iterations, e.Residual)
}

func (e *ConvergenceError) Is(target error) bool { return target == ErrNotConverged }

// Solver inverts an operator approximately: x = A^-1 b
type Solver interface {
	Height() int
	Mult(b, x []float64) error
}

// LinearSolver is a Solver whose operator and preconditioner can be swapped
type LinearSolver interface {
	Solver
	SetOperator(A utils.Operator)
	SetPreconditioner(P utils.Operator)
}

// IterativeSolver holds the controls and the outcome of the last Mult
type IterativeSolver struct {
	Name          string
	RelTol        float64
	AbsTol        float64
	MaxIter       int
	PrintLevel    int
	IterativeMode bool // Use the incoming x as the initial guess, otherwise start from zero
	A             utils.Operator
	Prec          utils.Operator
	finalIter     int
	finalNorm     float64
	converged     bool
}

func (s *IterativeSolver) SetOperator(A utils.Operator)       { s.A = A }
func (s *IterativeSolver) SetPreconditioner(P utils.Operator) { s.Prec = P }
func (s *IterativeSolver) SetTolerances(rel, abs float64, maxIter int) {
	s.RelTol, s.AbsTol, s.MaxIter = rel, abs, maxIter
}
func (s *IterativeSolver) GetNumIterations() int { return s.finalIter }
func (s *IterativeSolver) GetFinalNorm() float64 { return s.finalNorm }
func (s *IterativeSolver) GetConverged() bool    { return s.converged }

func (s *IterativeSolver) Height() int {
	if s.A == nil {
		return 0
	}
	return s.A.Height()
}

func (s *IterativeSolver) check(b, x []float64) (err error) {
	if s.A == nil {
		return fmt.Errorf("%s: %w", s.Name, ErrNoOperator)
	}
	return utils.CheckDims(s.Name, s.A.Height(), b, x)
}

// precondition computes z = P*r, or copies r without a preconditioner
func (s *IterativeSolver) precondition(r, z []float64) {
	if s.Prec == nil {
		copy(z, r)
		return
	}
	s.Prec.Mult(r, z)
}

func (s *IterativeSolver) finish(iter int, norm float64, converged bool) (err error) {
	s.finalIter, s.finalNorm, s.converged = iter, norm, converged
	if s.PrintLevel > 0 {
		fmt.Printf("%s: iterations = %d, residual norm = %8.5e, converged = %v\n", s.Name, iter, norm, converged)
	}
	if !converged {
		err = &ConvergenceError{Solver: s.Name, Iterations: iter, Residual: norm}
	}
	return
}
