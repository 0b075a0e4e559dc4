package utils

import (
	"fmt"

	"github.com/james-bowman/sparse"
	"github.com/james-bowman/sparse/blas"
	"gonum.org/v1/gonum/mat"
)

// DOK collects a sparsity pattern (or values) by coordinate before compression
type DOK struct {
	M        *sparse.DOK
	readOnly bool
	name     string
}

func NewDOK(nr, nc int) (R DOK) {
	R = DOK{
		sparse.NewDOK(nr, nc),
		false,
		"unnamed - hint: pass a variable name to SetReadOnly()",
	}
	return
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m DOK) Dims() (r, c int)    { return m.M.Dims() }
func (m DOK) At(i, j int) float64 { return m.M.At(i, j) }
func (m DOK) T() mat.Matrix       { return m.M.T() }

func (m *DOK) SetReadOnly(name ...string) DOK {
	if len(name) != 0 {
		m.name = name[0]
	}
	m.readOnly = true
	return *m
}

func (m DOK) Set(i, j int, val float64) {
	m.checkWritable()
	m.M.Set(i, j, val)
}

func (m DOK) checkWritable() {
	if m.readOnly {
		err := fmt.Errorf("attempt to write to a read only matrix named: \"%v\"", m.name)
		panic(err)
	}
}

func (m DOK) ToCSR() *CSR {
	return &CSR{
		M:        m.M.ToCSR(),
		readOnly: m.readOnly,
		name:     m.name,
	}
}

// CSR is a compressed sparse row matrix. Matrices assembled on the same finite
// element space share Indptr and Ind, only the Data slice is owned.
type CSR struct {
	M        *sparse.CSR
	readOnly bool
	name     string
}

func NewCSR(nr, nc int, indptr, ind []int, data []float64) (R *CSR) {
	if len(indptr) != nr+1 {
		err := fmt.Errorf("mismatch in allocation: NewCSR nr = %v, len(indptr) = %v", nr, len(indptr))
		panic(err)
	}
	if len(ind) != len(data) {
		err := fmt.Errorf("mismatch in allocation: NewCSR len(ind) = %v, len(data) = %v", len(ind), len(data))
		panic(err)
	}
	R = &CSR{
		sparse.NewCSR(nr, nc, indptr, ind, data),
		false,
		"unnamed - hint: pass a variable name to SetReadOnly()",
	}
	return
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m *CSR) Dims() (r, c int)              { return m.M.Dims() }
func (m *CSR) At(i, j int) float64           { return m.M.At(i, j) }
func (m *CSR) T() mat.Matrix                 { return m.M.T() }
func (m *CSR) RawMatrix() *blas.SparseMatrix { return m.M.RawMatrix() }
func (m *CSR) Data() []float64 {
	return m.RawMatrix().Data
}
func (m *CSR) NNZ() int { return len(m.RawMatrix().Data) }

func (m *CSR) SetReadOnly(name ...string) *CSR {
	if len(name) != 0 {
		m.name = name[0]
	}
	m.readOnly = true
	return m
}

func (m *CSR) SetWritable() *CSR {
	m.readOnly = false
	return m
}

func (m *CSR) checkWritable() {
	if m.readOnly {
		err := fmt.Errorf("attempt to write to a read only matrix named: \"%v\"", m.name)
		panic(err)
	}
}

func (m *CSR) Height() int {
	nr, _ := m.Dims()
	return nr
}

// Mult computes y = A*x
func (m *CSR) Mult(x, y []float64) {
	for i := range y {
		y[i] = 0
	}
	m.M.MulVecTo(y, false, x)
}

// AddMult computes y += a*A*x
func (m *CSR) AddMult(x, y []float64, a float64) {
	blas.Dusmv(false, a, m.RawMatrix(), x, 1, y, 1)
}

// Position returns the offset of entry (i,j) within Data, or -1 if (i,j) is
// outside the sparsity pattern
func (m *CSR) Position(i, j int) int {
	var (
		raw = m.RawMatrix()
	)
	for jj := raw.Indptr[i]; jj < raw.Indptr[i+1]; jj++ {
		if raw.Ind[jj] == j {
			return jj
		}
	}
	return -1
}

func (m *CSR) Diagonal() (d []float64) {
	var (
		raw = m.RawMatrix()
	)
	d = make([]float64, raw.I)
	for i := range d {
		if pos := m.Position(i, i); pos >= 0 {
			d[i] = raw.Data[pos]
		}
	}
	return
}

// Copy returns a matrix sharing the sparsity pattern with its own values
func (m *CSR) Copy() (R *CSR) {
	var (
		raw  = m.RawMatrix()
		data = make([]float64, len(raw.Data))
	)
	copy(data, raw.Data)
	R = NewCSR(raw.I, raw.J, raw.Indptr, raw.Ind, data)
	return
}

// ZeroCopy returns a matrix sharing the sparsity pattern with all values zero
func (m *CSR) ZeroCopy() (R *CSR) {
	var (
		raw = m.RawMatrix()
	)
	R = NewCSR(raw.I, raw.J, raw.Indptr, raw.Ind, make([]float64, len(raw.Data)))
	return
}

func (m *CSR) SamePattern(A *CSR) bool {
	var (
		r1, r2 = m.RawMatrix(), A.RawMatrix()
	)
	if r1.I != r2.I || r1.J != r2.J || len(r1.Ind) != len(r2.Ind) {
		return false
	}
	if len(r1.Ind) != 0 && &r1.Ind[0] == &r2.Ind[0] {
		return true
	}
	for i, val := range r1.Indptr {
		if r2.Indptr[i] != val {
			return false
		}
	}
	for i, val := range r1.Ind {
		if r2.Ind[i] != val {
			return false
		}
	}
	return true
}

// AddScaled computes m += a*A, both matrices must share a sparsity pattern
func (m *CSR) AddScaled(a float64, A *CSR) *CSR {
	m.checkWritable()
	if !m.SamePattern(A) {
		panic(fmt.Errorf("sparsity pattern mismatch between \"%v\" and \"%v\"", m.name, A.name))
	}
	var (
		data  = m.Data()
		dataA = A.Data()
	)
	for i, val := range dataA {
		data[i] += a * val
	}
	return m
}

func (m *CSR) Scale(a float64) *CSR {
	m.checkWritable()
	data := m.Data()
	for i := range data {
		data[i] *= a
	}
	return m
}

// EliminateRowsCols zeroes the rows and columns listed in ess and places a unit
// on their diagonal. The eliminated off-diagonal column entries of the
// remaining rows are returned in Ae, so that a right hand side can be
// corrected with b -= Ae*x for prescribed values x.
func (m *CSR) EliminateRowsCols(ess []int) (Ae *CSR) {
	m.checkWritable()
	var (
		raw    = m.RawMatrix()
		isEss  = make([]bool, raw.I)
		dataAe []float64
	)
	Ae = m.ZeroCopy()
	dataAe = Ae.Data()
	for _, i := range ess {
		isEss[i] = true
	}
	for i := 0; i < raw.I; i++ {
		for jj := raw.Indptr[i]; jj < raw.Indptr[i+1]; jj++ {
			j := raw.Ind[jj]
			switch {
			case isEss[i]:
				if j == i {
					raw.Data[jj] = 1
				} else {
					raw.Data[jj] = 0
				}
			case isEss[j]:
				dataAe[jj] = raw.Data[jj]
				raw.Data[jj] = 0
			}
		}
	}
	return
}
