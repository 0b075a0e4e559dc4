package utils

import "fmt"

// Operator is a square linear map acting on flat slices
type Operator interface {
	Height() int
	Mult(x, y []float64) // y = A*x
}

// AddMultOperator can accumulate its action into an existing vector
type AddMultOperator interface {
	Operator
	AddMult(x, y []float64, a float64) // y += a*A*x
}

type IdentityOperator struct {
	N int
}

func (I IdentityOperator) Height() int { return I.N }
func (I IdentityOperator) Mult(x, y []float64) {
	copy(y, x)
}

// DiagonalOperator scales element by element, y = D.*x
type DiagonalOperator struct {
	D []float64
}

func (d DiagonalOperator) Height() int { return len(d.D) }
func (d DiagonalOperator) Mult(x, y []float64) {
	for i, val := range d.D {
		y[i] = val * x[i]
	}
}

// NewInverseDiagonal returns the operator y = x./diag, diag must not contain zeros
func NewInverseDiagonal(diag []float64) (d DiagonalOperator, err error) {
	d.D = make([]float64, len(diag))
	for i, val := range diag {
		if val == 0 {
			err = fmt.Errorf("zero diagonal entry at row %d", i)
			return
		}
		d.D[i] = 1. / val
	}
	return
}

func SetSubVector(v []float64, I []int, val float64) {
	for _, i := range I {
		v[i] = val
	}
}

func CheckDims(name string, n int, vecs ...[]float64) (err error) {
	for i, v := range vecs {
		if len(v) != n {
			err = fmt.Errorf("%s: dimension mismatch for argument %d, have %d, need %d", name, i, len(v), n)
			return
		}
	}
	return
}
