package mhd

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/notargets/gomhd/fem"
	"github.com/notargets/gomhd/utils"
)

/*
ReducedSystemOperator is the backward Euler residual F(k) for a new state
k = [phiNew | psiNew | wNew] given the state [phi | psi | w] at the start of
the step:

	y1 = K phiNew + M wNew
	y2 = M (psiNew - psi)/dt + Nv psiNew + DSl psiNew + E0
	y3 = M (wNew - w)/dt + Nv wNew + DRe wNew - Nb J

with Nv, Nb and J = -M^-1 KB psiNew recomputed from k on every call. The
essential rows of each block are zero.
*/
type ReducedSystemOperator struct {
	fes        *fem.FESpace
	n          int
	ess        []int
	visc, resi float64
	M          *fem.BilinearForm
	Mc, Kc     *fem.ConstrainedMatrix
	DRe, DSl   utils.AddMultOperator
	current    *currentSolver
	Nv, Nb     *fem.BilinearForm
	E0         []float64
	jBdy       []float64 // Current field handle, supplies the boundary data of J
	J          []float64
	dt         float64
	psi, w     []float64 // Start of step values
	paramsSet  bool
	jac        *BlockJacobian
	z          []float64
}

func NewReducedSystemOperator(op *ResistiveMHDOperator) (rs *ReducedSystemOperator) {
	n := op.n
	rs = &ReducedSystemOperator{
		fes:     op.fes,
		n:       n,
		ess:     op.ess,
		visc:    op.visc,
		resi:    op.resi,
		M:       op.M,
		Mc:      op.Mc,
		Kc:      op.Kc,
		DRe:     op.DRe,
		DSl:     op.DSl,
		current: op.current,
		J:       make([]float64, n),
		psi:     make([]float64, n),
		w:       make([]float64, n),
		z:       make([]float64, n),
	}
	return
}

func (rs *ReducedSystemOperator) Height() int { return 3 * rs.n }

// SetParameters records the step size and the start of step state
func (rs *ReducedSystemOperator) SetParameters(dt float64, x []float64) {
	xs := State{Data: x, N: rs.n}
	rs.dt = dt
	copy(rs.psi, xs.Psi())
	copy(rs.w, xs.W())
	rs.paramsSet = true
}

// SetCurrent registers the current field whose essential values are the
// boundary data for J, its contents also seed J
func (rs *ReducedSystemOperator) SetCurrent(j []float64) {
	rs.jBdy = j
	copy(rs.J, j)
}

func (rs *ReducedSystemOperator) SetForcing(E0 []float64) { rs.E0 = E0 }

func (rs *ReducedSystemOperator) check(name string, vecs ...[]float64) (err error) {
	for _, v := range vecs {
		if len(v) != 3*rs.n {
			return fmt.Errorf("%s: %w: have %d, need 3*%d", name, ErrStateSize, len(v), rs.n)
		}
	}
	if rs.jBdy == nil {
		return fmt.Errorf("%s: %w", name, ErrCurrentNotSet)
	}
	if !rs.paramsSet {
		return fmt.Errorf("%s: %w", name, ErrParametersNotSet)
	}
	return
}

func (rs *ReducedSystemOperator) Mult(k, y []float64) (err error) {
	if err = rs.check("ReducedSystemOperator.Mult", k, y); err != nil {
		return
	}
	var (
		ks, ys     = State{Data: k, N: rs.n}, State{Data: y, N: rs.n}
		phiNew     = ks.Phi()
		psiNew     = ks.Psi()
		wNew       = ks.W()
		y1, y2, y3 = ys.Phi(), ys.Psi(), ys.W()
		Mmat, Kmat = rs.Mc.A, rs.Kc.A
		z          = rs.z
	)
	rs.assembleNv(phiNew)
	rs.assembleNb(psiNew)
	for _, i := range rs.ess {
		rs.J[i] = rs.jBdy[i]
	}
	if err = rs.current.Recover(psiNew, rs.J); err != nil {
		return
	}

	Kmat.Mult(phiNew, y1)
	Mmat.AddMult(wNew, y1, 1)

	floats.SubTo(z, psiNew, rs.psi)
	Mmat.Mult(z, y2)
	floats.Scale(1./rs.dt, y2)
	rs.Nv.AddMult(psiNew, y2, 1)
	if rs.resi != 0 {
		rs.DSl.AddMult(psiNew, y2, 1)
	}
	if rs.E0 != nil {
		floats.Add(y2, rs.E0)
	}

	floats.SubTo(z, wNew, rs.w)
	Mmat.Mult(z, y3)
	floats.Scale(1./rs.dt, y3)
	rs.Nv.AddMult(wNew, y3, 1)
	if rs.visc != 0 {
		rs.DRe.AddMult(wNew, y3, 1)
	}
	rs.Nb.AddMult(rs.J, y3, -1)

	for _, yb := range [][]float64{y1, y2, y3} {
		utils.SetSubVector(yb, rs.ess, 0)
	}
	return
}

// CurrentIterate is J as recovered by the last Mult
func (rs *ReducedSystemOperator) CurrentIterate() []float64 { return rs.J }
