package mhd

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/notargets/gomhd/fem"
	"github.com/notargets/gomhd/solvers"
)

// currentSolver recovers the current j = -M^-1 KB psi. It is shared by the
// explicit evaluator and the reduced system so both use one M solver context.
type currentSolver struct {
	KB     *fem.BilinearForm
	Mc     *fem.ConstrainedMatrix
	Solver *solvers.CG
	z, rhs []float64
}

func newCurrentSolver(KB *fem.BilinearForm, Mc *fem.ConstrainedMatrix, solver *solvers.CG) (cs *currentSolver) {
	n := KB.Height()
	cs = &currentSolver{
		KB:     KB,
		Mc:     Mc,
		Solver: solver,
		z:      make([]float64, n),
		rhs:    make([]float64, n),
	}
	return
}

// Recover overwrites J. On entry the essential entries of J are the boundary
// data and the remaining entries are the initial guess.
func (cs *currentSolver) Recover(psi, J []float64) (err error) {
	cs.KB.Mult(psi, cs.z)
	floats.Scale(-1, cs.z)
	cs.Mc.LiftRHS(J, cs.z, cs.rhs)
	if err = cs.Solver.Mult(cs.rhs, J); err != nil {
		err = fmt.Errorf("current recovery: %w", err)
	}
	return
}
