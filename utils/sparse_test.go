package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 1D Laplacian, tridiagonal with 2 on the diagonal
func laplacian1D(n int) (A *CSR) {
	dok := NewDOK(n, n)
	for i := 0; i < n; i++ {
		dok.Set(i, i, 2)
		if i > 0 {
			dok.Set(i, i-1, -1)
		}
		if i < n-1 {
			dok.Set(i, i+1, -1)
		}
	}
	A = dok.ToCSR()
	return
}

func TestCSRMult(t *testing.T) {
	var (
		n = 5
		A = laplacian1D(n)
		x = []float64{1, 2, 3, 4, 5}
		y = make([]float64, n)
	)
	A.Mult(x, y)
	assert.Equal(t, []float64{0, 0, 0, 0, 6}, y)
	A.AddMult(x, y, -1)
	assert.Equal(t, []float64{0, 0, 0, 0, 0}, y)
	assert.Equal(t, []float64{2, 2, 2, 2, 2}, A.Diagonal())
	assert.Equal(t, 13, A.NNZ())
	assert.Equal(t, -1, A.Position(0, 4))
	assert.Equal(t, -1., A.At(2, 3))
	// Mult overwrites stale values, AddMult scales and accumulates
	y = []float64{9, 9, 9, 9, 9}
	A.Mult(x, y)
	assert.Equal(t, []float64{0, 0, 0, 0, 6}, y)
	A.AddMult(x, y, 0.5)
	assert.Equal(t, []float64{0, 0, 0, 0, 9}, y)
	A.AddMult(x, y, 0)
	assert.Equal(t, []float64{0, 0, 0, 0, 9}, y)
	assert.Panics(t, func() { A.Mult(x, make([]float64, 4)) })
}

func TestCSRLinearCombination(t *testing.T) {
	var (
		A = laplacian1D(4)
		B = A.Copy()
	)
	require.True(t, A.SamePattern(B))
	B.Scale(0.5).AddScaled(2, A)
	assert.Equal(t, 5., B.At(1, 1))
	assert.Equal(t, -2.5, B.At(1, 2))
	// The original is untouched
	assert.Equal(t, 2., A.At(1, 1))

	Z := A.ZeroCopy()
	for _, val := range Z.Data() {
		assert.Equal(t, 0., val)
	}

	A.SetReadOnly("A")
	assert.Panics(t, func() { A.Scale(2) })
	A.SetWritable()
	assert.NotPanics(t, func() { A.Scale(1) })
}

func TestCSREliminateRowsCols(t *testing.T) {
	var (
		n   = 5
		A   = laplacian1D(n)
		ess = []int{0, 4}
		x   = []float64{3, 0, 0, 0, 7} // Prescribed boundary values
		b   = make([]float64, n)
	)
	Ae := A.EliminateRowsCols(ess)
	// Eliminated rows and columns carry a unit diagonal only
	for i := 0; i < n; i++ {
		for _, e := range ess {
			if i == e {
				assert.Equal(t, 1., A.At(e, e))
				continue
			}
			assert.Equal(t, 0., A.At(e, i))
			assert.Equal(t, 0., A.At(i, e))
		}
	}
	// The removed couplings move the boundary values to the right hand side
	Ae.AddMult(x, b, -1)
	assert.Equal(t, []float64{0, 3, 0, 7, 0}, b)
}
