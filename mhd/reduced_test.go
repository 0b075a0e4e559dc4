package mhd

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/notargets/gomhd/utils"
)

func TestReducedSystemEssentialRows(t *testing.T) {
	op := newTestOperator(t, 7, allBdr, 0.01, 0.02, false)
	op.SetRHSEfield(func(x, y float64) float64 { return 1 })
	x := waveState(t, op)
	rs := op.Reduced()
	var (
		n = op.TrueVSize()
		k = make([]float64, len(x))
		y = make([]float64, len(x))
	)
	{
		_, err := rs.GetGradient(k)
		assert.ErrorIs(t, err, ErrParametersNotSet)
		assert.ErrorIs(t, rs.Mult(k, y), ErrParametersNotSet)
	}
	rs.SetParameters(0.01, x)
	// Arbitrary values everywhere, including the boundary
	for i := range k {
		k[i] = math.Sin(float64(7*i)) + 2
	}
	require.NoError(t, rs.Mult(k, y))
	ys := State{Data: y, N: n}
	for _, f := range Fields {
		for _, i := range op.ess {
			assert.Equal(t, 0., ys.Field(f)[i])
		}
		assert.Greater(t, floats.Norm(ys.Field(f), 2), 0.)
	}
	assert.ErrorIs(t, rs.Mult(k, y[:n]), ErrStateSize)
}

func TestReducedSystemConsistentSolution(t *testing.T) {
	// With no flow and no forcing a static flux is advanced by diffusion only
	op := newTestOperator(t, 6, allBdr, 0, 0, false)
	x := waveState(t, op)
	xs := State{Data: x, N: op.TrueVSize()}
	for i := range xs.W() {
		xs.W()[i], xs.Phi()[i] = 0, 0
	}
	rs := op.Reduced()
	rs.SetParameters(0.1, x)
	y := make([]float64, len(x))
	require.NoError(t, rs.Mult(x, y))
	// phi = w = 0 and psi unchanged: y1 = y2 = 0 while y3 = -Nb J
	ys := State{Data: y, N: op.TrueVSize()}
	assert.Equal(t, 0., floats.Norm(ys.Phi(), 2))
	assert.Equal(t, 0., floats.Norm(ys.Psi(), 2))
}

func TestJacobian(t *testing.T) {
	op := newTestOperator(t, 6, allBdr, 0.05, 0.05, false)
	x := waveState(t, op)
	rs := op.Reduced()
	rs.SetParameters(0.01, x)
	var (
		n  = op.TrueVSize()
		N  = len(x)
		y0 = make([]float64, N)
		y1 = make([]float64, N)
		dk = make([]float64, N)
		Jd = make([]float64, N)
	)
	J, err := rs.GetGradient(x)
	require.NoError(t, err)
	assert.Equal(t, N, J.Height())
	{ // Exact for perturbations of w, on which the residual depends linearly
		isEss := make(map[int]bool)
		for _, i := range op.ess {
			isEss[i] = true
		}
		dw := State{Data: dk, N: n}.W()
		for i := range dw {
			if !isEss[i] {
				dw[i] = 1.e-3 * math.Cos(float64(3*i))
			}
		}
		require.NoError(t, rs.Mult(x, y0))
		kp := append([]float64{}, x...)
		floats.Add(kp, dk)
		require.NoError(t, rs.Mult(kp, y1))
		floats.Sub(y1, y0)
		J.Mult(dk, Jd)
		assert.InDeltaSlice(t, y1, Jd, 1.e-9*floats.Norm(Jd, math.Inf(1)))
	}
	{ // Essential rows are the identity
		for i := range dk {
			dk[i] = float64(i%5) + 1
		}
		J.Mult(dk, Jd)
		for _, i := range op.ess {
			for b := 0; b < 3; b++ {
				assert.Equal(t, dk[b*n+i], Jd[b*n+i])
			}
		}
	}
	{ // Preconditioners are only built for the current Jacobian
		f := &BlockJacobiFactory{R: rs}
		P, err := f.NewPreconditioner(J)
		require.NoError(t, err)
		assert.Equal(t, N, P.Height())
		J2, err := rs.GetGradient(x)
		require.NoError(t, err)
		_, err = f.NewPreconditioner(J)
		assert.ErrorIs(t, err, ErrStaleJacobian)
		_, err = f.NewPreconditioner(J2)
		assert.NoError(t, err)
		_, err = f.NewPreconditioner(utils.IdentityOperator{N: N})
		assert.ErrorIs(t, err, ErrStaleJacobian)
		I, err := IdentityFactory{}.NewPreconditioner(J2)
		require.NoError(t, err)
		assert.Equal(t, N, I.Height())
	}
}

func TestImplicitSolveWithIdentityPreconditioner(t *testing.T) {
	op := newTestOperator(t, 6, allBdr, 0.01, 0.01, false)
	op.SetPreconditionerFactory(IdentityFactory{})
	x := waveState(t, op)
	k := make([]float64, len(x))
	require.NoError(t, op.ImplicitSolve(0.01, x, k))
	assert.True(t, op.Newton().GetConverged())
	// The solved state satisfies the residual
	xNew := append([]float64{}, x...)
	floats.AddScaled(xNew, 0.01, k)
	y := make([]float64, len(x))
	require.NoError(t, op.Reduced().Mult(xNew, y))
	assert.Less(t, floats.Norm(y, 2), 1.e-6)
}
