package mhd

import (
	"fmt"

	"github.com/notargets/gomhd/fem"
	"github.com/notargets/gomhd/utils"
)

/*
BlockJacobian is the frozen coefficient linearization of the reduced system

	[ K   0                  M                ]
	[ 0   M/dt + Nv + DSl    0                ]
	[ 0   0                  M/dt + Nv + DRe  ]

Nv, Nb and the current recovery are held fixed at the linearization point, so
the derivatives of the convection coefficients are dropped, including the whole
-Nb J coupling of w to psi. Essential rows act as the identity. Newton then
converges linearly, at a rate that degrades as dt grows. On a 12x12 wave with
viscosity and resistivity 1e-3 it takes about 6 iterations at dt = 0.01 and 10
at dt = 0.05, reaches the default cap of 20 near dt = 0.1 and diverges at
dt = 0.5.
*/
type BlockJacobian struct {
	n      int
	ess    []int
	K, M   *utils.CSR
	A2, A3 *utils.CSR
}

func (bj *BlockJacobian) Height() int { return 3 * bj.n }

func (bj *BlockJacobian) Mult(x, y []float64) {
	var (
		xs, ys = State{Data: x, N: bj.n}, State{Data: y, N: bj.n}
		x1, y1 = xs.Phi(), ys.Phi()
	)
	bj.K.Mult(x1, y1)
	bj.M.AddMult(xs.W(), y1, 1)
	for _, i := range bj.ess {
		y1[i] = x1[i]
	}
	bj.A2.Mult(xs.Psi(), ys.Psi())
	bj.A3.Mult(xs.W(), ys.W())
}

// Blocks returns the diagonal blocks
func (bj *BlockJacobian) Blocks() (K, A2, A3 *utils.CSR) { return bj.K, bj.A2, bj.A3 }

func spMat(o utils.AddMultOperator) (*utils.CSR, error) {
	switch v := o.(type) {
	case *fem.BilinearForm:
		return v.SpMat(), nil
	case *utils.CSR:
		return v, nil
	}
	return nil, fmt.Errorf("operator of type %T has no assembled matrix", o)
}

// timeBlock assembles M/dt + Nv [+ D] with the essential rows and columns eliminated
func (rs *ReducedSystemOperator) timeBlock(D utils.AddMultOperator, coef float64) (A *utils.CSR, err error) {
	A = rs.M.SpMat().Copy().Scale(1./rs.dt).AddScaled(1, rs.Nv.SpMat())
	if coef != 0 {
		var Dm *utils.CSR
		if Dm, err = spMat(D); err != nil {
			return
		}
		A.AddScaled(1, Dm)
	}
	A.EliminateRowsCols(rs.ess)
	return
}

// GetGradient rebuilds the Jacobian at k, any previously returned Jacobian is stale
func (rs *ReducedSystemOperator) GetGradient(k []float64) (J utils.Operator, err error) {
	if err = rs.check("ReducedSystemOperator.GetGradient", k); err != nil {
		return
	}
	var (
		ks     = State{Data: k, N: rs.n}
		A2, A3 *utils.CSR
	)
	rs.assembleNv(ks.Phi())
	if A2, err = rs.timeBlock(rs.DSl, rs.resi); err != nil {
		return
	}
	if A3, err = rs.timeBlock(rs.DRe, rs.visc); err != nil {
		return
	}
	rs.jac = &BlockJacobian{
		n:   rs.n,
		ess: rs.ess,
		K:   rs.Kc.A,
		M:   rs.Mc.A,
		A2:  A2,
		A3:  A3,
	}
	return rs.jac, nil
}
