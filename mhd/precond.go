package mhd

import (
	"fmt"

	"github.com/notargets/gomhd/utils"
)

// BlockJacobiFactory preconditions with the inverse diagonals of the blocks of
// the reduced system's current Jacobian
type BlockJacobiFactory struct {
	R *ReducedSystemOperator
}

func (f *BlockJacobiFactory) NewPreconditioner(J utils.Operator) (P utils.Operator, err error) {
	bj, ok := J.(*BlockJacobian)
	if !ok || bj != f.R.jac {
		return nil, ErrStaleJacobian
	}
	var (
		n         = bj.n
		d         = make([]float64, 3*n)
		K, A2, A3 = bj.Blocks()
		D         utils.DiagonalOperator
	)
	copy(d[:n], K.Diagonal())
	copy(d[n:2*n], A2.Diagonal())
	copy(d[2*n:], A3.Diagonal())
	if D, err = utils.NewInverseDiagonal(d); err != nil {
		return nil, fmt.Errorf("block jacobi: %w", err)
	}
	return D, nil
}

// IdentityFactory leaves the Newton linear solves unpreconditioned
type IdentityFactory struct{}

func (IdentityFactory) NewPreconditioner(J utils.Operator) (utils.Operator, error) {
	return utils.IdentityOperator{N: J.Height()}, nil
}
