package mhd

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/notargets/gomhd/fem"
	"github.com/notargets/gomhd/solvers"
	"github.com/notargets/gomhd/utils"
)

const (
	amgTheta         = 0.08
	amgMaxCoarseSize = 3000
)

/*
ResistiveMHDOperator is the semi-discrete reduced resistive MHD system on the
state [phi | psi | w]:

	dpsi/dt = M^-1(-Nv psi - DSl psi - E0)
	dw/dt   = M^-1(-Nv w - DRe w + Nb j)
	K phi   = -M w
	j       = -M^-1 KB psi

Nv and Nb are convection operators advecting by the velocity of phi and the
magnetic field of psi, reassembled on every evaluation. Evaluations share work
buffers and solver state, an operator must not be used from more than one
goroutine at a time.
*/
type ResistiveMHDOperator struct {
	fes        *fem.FESpace
	n          int
	ess        []int
	visc, resi float64
	useAMG     bool
	verbose    bool
	// Linear operators, fixed for the lifetime of the operator
	M, K, KB *fem.BilinearForm
	DRe, DSl utils.AddMultOperator // Nil when the coefficient is zero
	Mc, Kc   *fem.ConstrainedMatrix
	// Nonlinear operators, replaced on every evaluation
	Nv, Nb    *fem.BilinearForm
	E0Vec     []float64 // Nil without forcing
	j         *fem.GridFunction
	jSet      bool
	MSolver   *solvers.CG
	KSolver   *solvers.CG
	amg       *solvers.AMG
	amgSolver *solvers.CG
	current   *currentSolver
	reduced   *ReducedSystemOperator
	newton    *solvers.NewtonSolver
	gmres     *solvers.GMRES
	z         []float64
	closed    bool
}

func NewResistiveMHDOperator(fes *fem.FESpace, essBdr []int, visc, resi float64, useAMG, verbose bool) (op *ResistiveMHDOperator, err error) {
	var (
		n        = fes.TrueVSize()
		mPrec    utils.DiagonalOperator
		kPrec    *solvers.Chebyshev
		printLvl int
	)
	if verbose {
		printLvl = 1
	}
	op = &ResistiveMHDOperator{
		fes:     fes,
		n:       n,
		ess:     fes.GetEssentialTrueDofs(essBdr),
		visc:    visc,
		resi:    resi,
		useAMG:  useAMG,
		verbose: verbose,
		j:       fem.NewGridFunction(fes),
		z:       make([]float64, n),
	}
	op.M = fem.NewBilinearForm(fes, "M").AddDomainIntegrator(fem.MassIntegrator{Q: 1})
	op.M.Assemble()
	op.K = fem.NewBilinearForm(fes, "K").AddDomainIntegrator(fem.DiffusionIntegrator{Q: 1})
	op.K.Assemble()
	op.KB = fem.NewBilinearForm(fes, "KB").
		AddDomainIntegrator(fem.DiffusionIntegrator{Q: 1}).
		AddBoundaryIntegrator(fem.BoundaryGradIntegrator{})
	op.KB.Assemble()
	if visc != 0 {
		DRe := fem.NewBilinearForm(fes, "DRe").AddDomainIntegrator(fem.DiffusionIntegrator{Q: visc})
		DRe.Assemble()
		op.DRe = DRe
	}
	if resi != 0 {
		DSl := fem.NewBilinearForm(fes, "DSl").AddDomainIntegrator(fem.DiffusionIntegrator{Q: resi})
		DSl.Assemble()
		op.DSl = DSl
	}
	op.Mc = op.M.FormConstrainedMatrix(op.ess)
	op.Kc = op.K.FormConstrainedMatrix(op.ess)

	if mPrec, err = solvers.NewJacobi(op.Mc.A); err != nil {
		return nil, err
	}
	op.MSolver = solvers.NewCG("M solver")
	op.MSolver.SetTolerances(1.e-12, 0, 2000)
	op.MSolver.IterativeMode = true
	op.MSolver.SetOperator(op.Mc.A)
	op.MSolver.SetPreconditioner(mPrec)

	if kPrec, err = solvers.NewChebyshev(op.Kc.A, 2); err != nil {
		return nil, err
	}
	op.KSolver = solvers.NewCG("K solver")
	op.KSolver.SetTolerances(1.e-7, 0, 2000)
	op.KSolver.IterativeMode = true
	op.KSolver.SetOperator(op.Kc.A)
	op.KSolver.SetPreconditioner(kPrec)

	if useAMG {
		if op.amg, err = solvers.NewAMG(op.Kc.A, amgTheta, amgMaxCoarseSize, printLvl); err != nil {
			if !errors.Is(err, solvers.ErrCoarseTooLarge) {
				return nil, err
			}
			if verbose {
				fmt.Printf("AMG unavailable, using CG with a Chebyshev smoother for UpdatePhi: %v\n", err)
			}
			op.useAMG, err = false, nil
		} else {
			op.amgSolver = solvers.NewCG("AMG PCG")
			op.amgSolver.SetTolerances(1.e-7, 0, 200)
			op.amgSolver.SetOperator(op.Kc.A)
			op.amgSolver.SetPreconditioner(op.amg)
		}
	}

	op.current = newCurrentSolver(op.KB, op.Mc, op.MSolver)
	op.reduced = NewReducedSystemOperator(op)
	op.gmres = solvers.NewGMRES("jacobian GMRES")
	op.gmres.Restart = 50
	op.gmres.SetTolerances(1.e-10, 0, 500)
	op.newton = solvers.NewNewtonSolver("newton", op.reduced, op.gmres)
	op.newton.SetTolerances(1.e-8, 1.e-12, 20)
	op.newton.PrintLevel = printLvl
	op.newton.SetPreconditionerFactory(&BlockJacobiFactory{R: op.reduced})
	if verbose {
		fmt.Printf("Resistive MHD operator: %d true dofs, %d essential, viscosity = %g, resistivity = %g, AMG = %v\n",
			n, len(op.ess), visc, resi, op.useAMG)
	}
	return
}

func (op *ResistiveMHDOperator) Height() int { return 3 * op.n }
func (op *ResistiveMHDOperator) TrueVSize() int { return op.n }
func (op *ResistiveMHDOperator) EssentialTrueDofs() []int { return op.ess }
func (op *ResistiveMHDOperator) Current() *fem.GridFunction { return op.j }
func (op *ResistiveMHDOperator) Reduced() *ReducedSystemOperator { return op.reduced }
func (op *ResistiveMHDOperator) Newton() *solvers.NewtonSolver { return op.newton }
func (op *ResistiveMHDOperator) UsingAMG() bool { return op.useAMG }

// SetPreconditionerFactory replaces the block Jacobi preconditioner of the
// Newton linear solves, nil solves without preconditioning
func (op *ResistiveMHDOperator) SetPreconditionerFactory(f solvers.PreconditionerFactory) {
	op.newton.SetPreconditionerFactory(f)
	if f == nil {
		op.gmres.SetPreconditioner(nil)
	}
}

func (op *ResistiveMHDOperator) SetNewtonTolerances(rtol, atol float64, maxIter int) {
	op.newton.SetTolerances(rtol, atol, maxIter)
}

// SetRHSEfield assembles the forcing E0 = (f, v), replacing any previous forcing
func (op *ResistiveMHDOperator) SetRHSEfield(f fem.FunctionCoefficient) {
	lf := fem.NewLinearForm(op.fes).AddDomainIntegrator(fem.DomainLFIntegrator{F: f})
	lf.Assemble()
	op.E0Vec = lf.ParallelAssemble()
	op.reduced.SetForcing(op.E0Vec)
}

// SetInitialJ interpolates the current, its boundary values become the
// boundary data of every later current recovery
func (op *ResistiveMHDOperator) SetInitialJ(f fem.FunctionCoefficient) {
	op.j.ProjectCoefficient(f)
	op.jSet = true
	op.reduced.SetCurrent(op.j.Data)
}

// SetJBdy sets the boundary value of the current
func (op *ResistiveMHDOperator) SetJBdy(jBdy float64) {
	utils.SetSubVector(op.j.Data, op.ess, jBdy)
	op.jSet = true
	op.reduced.SetCurrent(op.j.Data)
}

func (op *ResistiveMHDOperator) checkState(name string, vecs ...[]float64) (err error) {
	for _, v := range vecs {
		if len(v) != 3*op.n {
			return fmt.Errorf("%s: %w: have %d, need 3*%d", name, ErrStateSize, len(v), op.n)
		}
	}
	if !op.jSet {
		return fmt.Errorf("%s: %w", name, ErrCurrentNotSet)
	}
	return
}

// RecoverCurrent overwrites J with -M^-1 KB psi, the essential entries of J are
// kept as boundary data and the rest is the initial guess
func (op *ResistiveMHDOperator) RecoverCurrent(psi, J []float64) (err error) {
	if err = utils.CheckDims("RecoverCurrent", op.n, psi, J); err != nil {
		return
	}
	return op.current.Recover(psi, J)
}

// Mult evaluates the time derivative of x into dxdt, x is not modified
func (op *ResistiveMHDOperator) Mult(x, dxdt []float64) (err error) {
	if err = op.checkState("Mult", x, dxdt); err != nil {
		return
	}
	var (
		xs, ds = State{Data: x, N: op.n}, State{Data: dxdt, N: op.n}
		phi    = xs.Phi()
		psi    = xs.Psi()
		w      = xs.W()
		j      = op.j.Data
		z      = op.z
	)
	for _, f := range Fields {
		if f.Kind() == Algebraic {
			for i := range ds.Field(f) {
				ds.Field(f)[i] = 0
			}
		}
	}
	op.AssembleNv(phi)
	op.AssembleNb(psi)
	if err = op.current.Recover(psi, j); err != nil {
		return
	}

	dpsi := ds.Psi()
	op.Nv.Mult(psi, z)
	floats.Scale(-1, z)
	if op.resi != 0 {
		op.DSl.AddMult(psi, z, -1)
	}
	if op.E0Vec != nil {
		floats.Sub(z, op.E0Vec)
	}
	utils.SetSubVector(z, op.ess, 0)
	for i := range dpsi {
		dpsi[i] = 0
	}
	if err = op.MSolver.Mult(z, dpsi); err != nil {
		return fmt.Errorf("flux derivative: %w", err)
	}

	dw := ds.W()
	op.Nv.Mult(w, z)
	floats.Scale(-1, z)
	if op.visc != 0 {
		op.DRe.AddMult(w, z, -1)
	}
	op.Nb.AddMult(j, z, 1)
	utils.SetSubVector(z, op.ess, 0)
	for i := range dw {
		dw[i] = 0
	}
	if err = op.MSolver.Mult(z, dw); err != nil {
		return fmt.Errorf("vorticity derivative: %w", err)
	}
	return
}

// ImplicitSolve finds k with x + dt*k the backward Euler update of x
func (op *ResistiveMHDOperator) ImplicitSolve(dt float64, x, k []float64) (err error) {
	if err = op.checkState("ImplicitSolve", x, k); err != nil {
		return
	}
	if !(dt > 0) {
		return fmt.Errorf("ImplicitSolve: %w, dt = %g", ErrInvalidStep, dt)
	}
	op.reduced.SetParameters(dt, x)
	copy(k, x)
	if err = op.newton.Mult(nil, k); err != nil {
		if errors.Is(err, solvers.ErrNotConverged) || errors.Is(err, solvers.ErrNaN) {
			return fmt.Errorf("%w: %w", ErrNewtonNotConverged, err)
		}
		return fmt.Errorf("ImplicitSolve: %w", err)
	}
	if op.verbose {
		fmt.Printf("ImplicitSolve: dt = %8.5e, newton iterations = %d, residual = %8.5e\n",
			dt, op.newton.GetNumIterations(), op.newton.GetFinalNorm())
	}
	for i := range k {
		k[i] = (k[i] - x[i]) / dt
	}
	return
}

// UpdatePhi solves K phi = -M w in place on the phi block of x
func (op *ResistiveMHDOperator) UpdatePhi(x []float64) (err error) {
	if len(x) != 3*op.n {
		return fmt.Errorf("UpdatePhi: %w: have %d, need 3*%d", ErrStateSize, len(x), op.n)
	}
	var (
		xs  = State{Data: x, N: op.n}
		phi = xs.Phi()
		z   = op.z
	)
	op.Mc.A.Mult(xs.W(), z)
	floats.Scale(-1, z)
	utils.SetSubVector(z, op.ess, 0)
	if op.useAMG {
		if op.closed {
			return fmt.Errorf("UpdatePhi: %w", ErrClosed)
		}
		err = op.amgSolver.Mult(z, phi)
	} else {
		err = op.KSolver.Mult(z, phi)
	}
	if err != nil {
		err = fmt.Errorf("UpdatePhi: %w", err)
	}
	return
}

// Energies returns the kinetic and magnetic energies 1/2 phi.K.phi and 1/2 psi.K.psi
func (op *ResistiveMHDOperator) Energies(x []float64) (kinetic, magnetic float64, err error) {
	if len(x) != 3*op.n {
		err = fmt.Errorf("Energies: %w", ErrStateSize)
		return
	}
	var (
		xs = State{Data: x, N: op.n}
		z  = op.z
	)
	op.K.Mult(xs.Phi(), z)
	kinetic = 0.5 * floats.Dot(xs.Phi(), z)
	op.K.Mult(xs.Psi(), z)
	magnetic = 0.5 * floats.Dot(xs.Psi(), z)
	return
}

// Close releases the AMG hierarchy, it is safe to call more than once
func (op *ResistiveMHDOperator) Close() {
	if op.closed {
		return
	}
	if op.amg != nil && !op.amg.Destroyed() {
		op.amg.Destroy()
	}
	op.closed = true
}
