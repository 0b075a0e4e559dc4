package fem

import (
	"fmt"
	"math"
	"sort"

	"github.com/notargets/gomhd/utils"
)

// FESpace is the continuous piecewise linear (P1) space on a triangle mesh, one
// degree of freedom per vertex. Element geometry and the global sparsity pattern
// are computed once and shared by every form assembled on the space.
type FESpace struct {
	Mesh       *Mesh
	Partitions *utils.PartitionMap // Element partitions for parallel assembly
	Area       []float64           // Element areas
	Grad       [][3][2]float64     // Gradients of the three barycentric basis functions per element
	pattern    *utils.CSR
	elemPos    [][9]int // Offset into the pattern data of local entry (a,b) at a*3+b
}

func NewFESpace(mesh *Mesh, procLimit int) (fes *FESpace) {
	var (
		K = mesh.NumElements()
	)
	if procLimit < 1 {
		procLimit = 1
	}
	fes = &FESpace{
		Mesh:       mesh,
		Partitions: utils.NewPartitionMap(procLimit, K),
		Area:       make([]float64, K),
		Grad:       make([][3][2]float64, K),
		elemPos:    make([][9]int, K),
	}
	for k, tri := range mesh.EToV {
		fes.Area[k], fes.Grad[k] = fes.elementGeometry(tri)
	}
	fes.buildPattern()
	return
}

func (fes *FESpace) elementGeometry(tri [3]int) (area float64, grad [3][2]float64) {
	var (
		m      = fes.Mesh
		x1, y1 = m.VX[tri[0]], m.VY[tri[0]]
		x2, y2 = m.VX[tri[1]], m.VY[tri[1]]
		x3, y3 = m.VX[tri[2]], m.VY[tri[2]]
		det    = (x2-x1)*(y3-y1) - (x3-x1)*(y2-y1)
	)
	if math.Abs(det) < utils.NODETOL {
		panic(fmt.Errorf("degenerate element with vertices %v", tri))
	}
	area = 0.5 * math.Abs(det)
	// grad(lambda_a) = (y_b - y_c, x_c - x_b)/det for (a,b,c) cyclic
	grad[0] = [2]float64{(y2 - y3) / det, (x3 - x2) / det}
	grad[1] = [2]float64{(y3 - y1) / det, (x1 - x3) / det}
	grad[2] = [2]float64{(y1 - y2) / det, (x2 - x1) / det}
	return
}

func (fes *FESpace) buildPattern() {
	var (
		n   = fes.TrueVSize()
		dok = utils.NewDOK(n, n)
	)
	for _, tri := range fes.Mesh.EToV {
		for _, a := range tri {
			for _, b := range tri {
				dok.Set(a, b, 1)
			}
		}
	}
	fes.pattern = dok.ToCSR()
	raw := fes.pattern.RawMatrix()
	// Sorted columns give a deterministic ordering within each row
	for i := 0; i < raw.I; i++ {
		row := raw.Ind[raw.Indptr[i]:raw.Indptr[i+1]]
		sort.Ints(row)
	}
	for k, tri := range fes.Mesh.EToV {
		for a, va := range tri {
			for b, vb := range tri {
				fes.elemPos[k][a*3+b] = fes.pattern.Position(va, vb)
			}
		}
	}
	fes.pattern.SetReadOnly("FESpace.pattern")
}

// TrueVSize is the number of degrees of freedom
func (fes *FESpace) TrueVSize() int { return fes.Mesh.NumVertices() }

func (fes *FESpace) NumElements() int { return fes.Mesh.NumElements() }

// NewMatrix returns a zero matrix on the shared sparsity pattern
func (fes *FESpace) NewMatrix() *utils.CSR {
	return fes.pattern.ZeroCopy()
}

// GetEssentialTrueDofs returns the sorted vertices lying on a boundary edge whose
// attribute is marked in essBdr, essBdr[attr-1] != 0 marks attribute attr
func (fes *FESpace) GetEssentialTrueDofs(essBdr []int) (ess []int) {
	var (
		marked = make([]bool, fes.TrueVSize())
	)
	for _, e := range fes.Mesh.Bdr {
		if e.Attr-1 < len(essBdr) && essBdr[e.Attr-1] != 0 {
			marked[e.V[0]], marked[e.V[1]] = true, true
		}
	}
	for i, isEss := range marked {
		if isEss {
			ess = append(ess, i)
		}
	}
	return
}

// BoundaryNormal returns the outward unit normal and length of boundary edge e
func (fes *FESpace) BoundaryNormal(e BdrEdge) (nx, ny, length float64) {
	var (
		m      = fes.Mesh
		x1, y1 = m.VX[e.V[0]], m.VY[e.V[0]]
		x2, y2 = m.VX[e.V[1]], m.VY[e.V[1]]
		tri    = m.EToV[e.Elem]
		third  int
	)
	for _, v := range tri {
		if v != e.V[0] && v != e.V[1] {
			third = v
		}
	}
	length = math.Hypot(x2-x1, y2-y1)
	nx, ny = (y2-y1)/length, -(x2-x1)/length
	// Flip toward the outside, away from the third vertex
	if nx*(m.VX[third]-x1)+ny*(m.VY[third]-y1) > 0 {
		nx, ny = -nx, -ny
	}
	return
}

func (fes *FESpace) EToV(k int) [3]int { return fes.Mesh.EToV[k] }
