package fem

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/notargets/gomhd/utils"
)

// ElementIntegrator adds the local 3x3 matrix of element k into elmat
type ElementIntegrator interface {
	AssembleElementMatrix(fes *FESpace, k int, elmat *mat.Dense)
}

// BoundaryIntegrator adds the contribution of boundary edge e into the local
// matrix of the element owning the edge
type BoundaryIntegrator interface {
	AssembleBoundaryMatrix(fes *FESpace, e BdrEdge, elmat *mat.Dense)
}

// MassIntegrator is Q*(u,v)
type MassIntegrator struct {
	Q float64
}

func (mi MassIntegrator) AssembleElementMatrix(fes *FESpace, k int, elmat *mat.Dense) {
	var (
		scale = mi.Q * fes.Area[k] / 12.
	)
	for a := 0; a < 3; a++ {
		for b := 0; b < 3; b++ {
			val := scale
			if a == b {
				val *= 2
			}
			elmat.Set(a, b, elmat.At(a, b)+val)
		}
	}
}

// DiffusionIntegrator is Q*(grad u, grad v)
type DiffusionIntegrator struct {
	Q float64
}

func (di DiffusionIntegrator) AssembleElementMatrix(fes *FESpace, k int, elmat *mat.Dense) {
	var (
		g     = fes.Grad[k]
		scale = di.Q * fes.Area[k]
	)
	for a := 0; a < 3; a++ {
		for b := 0; b < 3; b++ {
			elmat.Set(a, b, elmat.At(a, b)+scale*(g[a][0]*g[b][0]+g[a][1]*g[b][1]))
		}
	}
}

// ConvectionIntegrator is Alpha*(Q.grad u, v) for an elementwise constant Q
type ConvectionIntegrator struct {
	Q     VectorCoefficient
	Alpha float64
}

func (ci ConvectionIntegrator) AssembleElementMatrix(fes *FESpace, k int, elmat *mat.Dense) {
	var (
		g     = fes.Grad[k]
		q     = ci.Q.ElementValue(k)
		scale = ci.Alpha * fes.Area[k] / 3.
	)
	for b := 0; b < 3; b++ {
		qg := scale * (q[0]*g[b][0] + q[1]*g[b][1])
		for a := 0; a < 3; a++ {
			elmat.Set(a, b, elmat.At(a, b)+qg)
		}
	}
}

// BoundaryGradIntegrator is -<grad u.n, v> over the boundary. Added to a
// diffusion form it cancels the boundary flux, so the result annihilates
// linear fields.
type BoundaryGradIntegrator struct{}

func (BoundaryGradIntegrator) AssembleBoundaryMatrix(fes *FESpace, e BdrEdge, elmat *mat.Dense) {
	var (
		tri            = fes.Mesh.EToV[e.Elem]
		g              = fes.Grad[e.Elem]
		nx, ny, length = fes.BoundaryNormal(e)
	)
	for _, v := range e.V {
		a := localIndex(tri, v)
		for b := 0; b < 3; b++ {
			elmat.Set(a, b, elmat.At(a, b)-0.5*length*(g[b][0]*nx+g[b][1]*ny))
		}
	}
}

var _ utils.AddMultOperator = &BilinearForm{}

// BilinearForm assembles integrators into a sparse matrix on the space's shared
// sparsity pattern. Assemble may be called repeatedly, e.g. after the
// coefficient of a convection integrator has changed.
type BilinearForm struct {
	FES      *FESpace
	Name     string
	domain   []ElementIntegrator
	boundary []BoundaryIntegrator
	mat      *utils.CSR
	bufs     [][]float64 // Per partition accumulation buffers
}

func NewBilinearForm(fes *FESpace, name string) (bf *BilinearForm) {
	bf = &BilinearForm{
		FES:  fes,
		Name: name,
	}
	return
}

func (bf *BilinearForm) AddDomainIntegrator(di ElementIntegrator) *BilinearForm {
	bf.domain = append(bf.domain, di)
	return bf
}

func (bf *BilinearForm) AddBoundaryIntegrator(bi BoundaryIntegrator) *BilinearForm {
	bf.boundary = append(bf.boundary, bi)
	return bf
}

// Assemble computes the matrix values from scratch. Each partition of elements
// accumulates into its own buffer, the buffers are then summed in partition
// order so the result does not depend on scheduling.
func (bf *BilinearForm) Assemble() {
	var (
		fes = bf.FES
		pm  = fes.Partitions
	)
	if bf.mat == nil {
		bf.mat = fes.NewMatrix()
		bf.bufs = make([][]float64, pm.ParallelDegree)
		for np := range bf.bufs {
			bf.bufs[np] = make([]float64, bf.mat.NNZ())
		}
	}
	pm.Run(func(np, kMin, kMax int) {
		var (
			buf   = bf.bufs[np]
			elmat = mat.NewDense(3, 3, nil)
		)
		for i := range buf {
			buf[i] = 0
		}
		for k := kMin; k < kMax; k++ {
			elmat.Zero()
			for _, di := range bf.domain {
				di.AssembleElementMatrix(fes, k, elmat)
			}
			scatter(buf, fes.elemPos[k], elmat)
		}
	})
	data := bf.mat.Data()
	copy(data, bf.bufs[0])
	for np := 1; np < len(bf.bufs); np++ {
		for i, val := range bf.bufs[np] {
			data[i] += val
		}
	}
	if len(bf.boundary) != 0 {
		elmat := mat.NewDense(3, 3, nil)
		for _, e := range fes.Mesh.Bdr {
			elmat.Zero()
			for _, bi := range bf.boundary {
				bi.AssembleBoundaryMatrix(fes, e, elmat)
			}
			scatter(data, fes.elemPos[e.Elem], elmat)
		}
	}
}

func scatter(data []float64, pos [9]int, elmat *mat.Dense) {
	for a := 0; a < 3; a++ {
		for b := 0; b < 3; b++ {
			data[pos[a*3+b]] += elmat.At(a, b)
		}
	}
}

// SpMat returns the assembled matrix, owned by the form
func (bf *BilinearForm) SpMat() *utils.CSR {
	if bf.mat == nil {
		panic(fmt.Errorf("bilinear form \"%s\" used before Assemble", bf.Name))
	}
	return bf.mat
}

func (bf *BilinearForm) Height() int { return bf.FES.TrueVSize() }

func (bf *BilinearForm) Mult(x, y []float64) { bf.SpMat().Mult(x, y) }

func (bf *BilinearForm) AddMult(x, y []float64, a float64) { bf.SpMat().AddMult(x, y, a) }

// ConstrainedMatrix is an assembled matrix with the essential rows and columns
// eliminated. Ae keeps the eliminated column entries for lifting right hand sides.
type ConstrainedMatrix struct {
	A, Ae *utils.CSR
	Ess   []int
}

func (bf *BilinearForm) FormConstrainedMatrix(ess []int) (cm *ConstrainedMatrix) {
	cm = &ConstrainedMatrix{
		A:   bf.SpMat().Copy(),
		Ess: ess,
	}
	cm.Ae = cm.A.EliminateRowsCols(ess)
	cm.A.SetReadOnly(bf.Name + " constrained")
	return
}

// LiftRHS computes B = b - Ae*x with B = x on the essential entries, so the
// solution of A*X = B carries the essential values of x
func (cm *ConstrainedMatrix) LiftRHS(x, b, B []float64) {
	copy(B, b)
	cm.Ae.AddMult(x, B, -1)
	for _, i := range cm.Ess {
		B[i] = x[i]
	}
}

// FormSystemMatrix returns a copy of the assembled matrix with the essential
// rows and columns eliminated
func (bf *BilinearForm) FormSystemMatrix(ess []int) (A *utils.CSR) {
	A = bf.SpMat().Copy()
	A.EliminateRowsCols(ess)
	return
}

// FormLinearSystem eliminates the essential dofs from A*X = B given the values of
// x on ess. B carries the lifted right hand side and x on the essential entries.
func (bf *BilinearForm) FormLinearSystem(ess []int, x, b []float64) (A *utils.CSR, X, B []float64) {
	var (
		n = bf.Height()
	)
	if err := utils.CheckDims("FormLinearSystem", n, x, b); err != nil {
		panic(err)
	}
	cm := bf.FormConstrainedMatrix(ess)
	A = cm.A.SetWritable()
	B = make([]float64, n)
	cm.LiftRHS(x, b, B)
	X = make([]float64, n)
	copy(X, x)
	return
}
