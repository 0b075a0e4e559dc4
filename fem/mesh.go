package fem

import (
	"fmt"
	"math"

	"github.com/notargets/gomhd/types"
)

// BdrEdge is a boundary edge of triangle Elem carrying boundary attribute Attr (1 based)
type BdrEdge struct {
	V    [2]int
	Elem int
	Attr int
}

// Mesh is a conforming triangulation, elements are stored counter clockwise
type Mesh struct {
	VX, VY   []float64
	EToV     [][3]int
	Bdr      []BdrEdge
	BdrNames []string // One per boundary attribute, used to derive essential markers
}

func (m *Mesh) NumVertices() int { return len(m.VX) }
func (m *Mesh) NumElements() int { return len(m.EToV) }

// NumBdrAttributes returns the largest boundary attribute
func (m *Mesh) NumBdrAttributes() (nAttr int) {
	for _, e := range m.Bdr {
		if e.Attr > nAttr {
			nAttr = e.Attr
		}
	}
	if len(m.BdrNames) > nAttr {
		nAttr = len(m.BdrNames)
	}
	return
}

// CheckEssentialMarkers verifies there is one marker per boundary attribute
func (m *Mesh) CheckEssentialMarkers(essBdr []int) (err error) {
	if nAttr := m.NumBdrAttributes(); len(essBdr) != nAttr {
		err = fmt.Errorf("have %d essential boundary markers, the mesh has %d boundary attributes", len(essBdr), nAttr)
	}
	return
}

// NewRectangleMesh splits each of the nx by ny cells of [x0,x1]x[y0,y1] into two
// triangles. Boundary attributes are 1 = bottom, 2 = right, 3 = top, 4 = left.
func NewRectangleMesh(nx, ny int, x0, x1, y0, y1 float64) (m *Mesh) {
	if nx < 1 || ny < 1 || !(x1 > x0) || !(y1 > y0) {
		panic(fmt.Errorf("invalid rectangle mesh: nx = %d, ny = %d, [%g,%g]x[%g,%g]", nx, ny, x0, x1, y0, y1))
	}
	var (
		Nv     = (nx + 1) * (ny + 1)
		dx, dy = (x1 - x0) / float64(nx), (y1 - y0) / float64(ny)
		vert   = func(i, j int) int { return j*(nx+1) + i }
	)
	m = &Mesh{
		VX:       make([]float64, Nv),
		VY:       make([]float64, Nv),
		EToV:     make([][3]int, 0, 2*nx*ny),
		BdrNames: []string{"dirichlet", "dirichlet", "dirichlet", "dirichlet"},
	}
	for j := 0; j <= ny; j++ {
		for i := 0; i <= nx; i++ {
			m.VX[vert(i, j)] = x0 + float64(i)*dx
			m.VY[vert(i, j)] = y0 + float64(j)*dy
		}
	}
	// Pin the far edges to the exact bounds
	for j := 0; j <= ny; j++ {
		m.VX[vert(nx, j)] = x1
	}
	for i := 0; i <= nx; i++ {
		m.VY[vert(i, ny)] = y1
	}
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			var (
				v00, v10 = vert(i, j), vert(i+1, j)
				v01, v11 = vert(i, j+1), vert(i+1, j+1)
				k1       = len(m.EToV)
				k2       = k1 + 1
			)
			m.EToV = append(m.EToV, [3]int{v00, v10, v11}, [3]int{v00, v11, v01})
			if j == 0 {
				m.Bdr = append(m.Bdr, BdrEdge{V: [2]int{v00, v10}, Elem: k1, Attr: 1})
			}
			if i == nx-1 {
				m.Bdr = append(m.Bdr, BdrEdge{V: [2]int{v10, v11}, Elem: k1, Attr: 2})
			}
			if j == ny-1 {
				m.Bdr = append(m.Bdr, BdrEdge{V: [2]int{v11, v01}, Elem: k2, Attr: 3})
			}
			if i == 0 {
				m.Bdr = append(m.Bdr, BdrEdge{V: [2]int{v01, v00}, Elem: k2, Attr: 4})
			}
		}
	}
	return
}

// Orient reorders element vertices counter clockwise and checks the boundary
// edges against their elements
func (m *Mesh) Orient() (err error) {
	for k, tri := range m.EToV {
		for _, v := range tri {
			if v < 0 || v >= len(m.VX) {
				err = fmt.Errorf("element %d references vertex %d, have %d vertices", k, v, len(m.VX))
				return
			}
		}
		area2 := m.signedArea2(tri)
		if math.Abs(area2) < 1.e-14 {
			err = fmt.Errorf("element %d is degenerate", k)
			return
		}
		if area2 < 0 {
			m.EToV[k] = [3]int{tri[0], tri[2], tri[1]}
		}
	}
	seen := make(map[types.EdgeKey]bool, len(m.Bdr))
	for n, e := range m.Bdr {
		if e.Elem < 0 || e.Elem >= len(m.EToV) {
			err = fmt.Errorf("boundary edge %d references element %d", n, e.Elem)
			return
		}
		if e.Attr < 1 {
			err = fmt.Errorf("boundary edge %d has attribute %d, attributes start at 1", n, e.Attr)
			return
		}
		if localIndex(m.EToV[e.Elem], e.V[0]) < 0 || localIndex(m.EToV[e.Elem], e.V[1]) < 0 {
			err = fmt.Errorf("boundary edge %d is not an edge of element %d", n, e.Elem)
			return
		}
		key := types.NewEdgeKey(e.V)
		if seen[key] {
			err = fmt.Errorf("boundary edge %v appears more than once", key.GetVertices())
			return
		}
		seen[key] = true
	}
	return
}

func (m *Mesh) signedArea2(tri [3]int) float64 {
	var (
		x1, y1 = m.VX[tri[0]], m.VY[tri[0]]
		x2, y2 = m.VX[tri[1]], m.VY[tri[1]]
		x3, y3 = m.VX[tri[2]], m.VY[tri[2]]
	)
	return (x2-x1)*(y3-y1) - (x3-x1)*(y2-y1)
}

func (m *Mesh) BoundingBox() (xmin, xmax, ymin, ymax float64) {
	xmin, xmax = math.Inf(1), math.Inf(-1)
	ymin, ymax = math.Inf(1), math.Inf(-1)
	for i := range m.VX {
		xmin, xmax = math.Min(xmin, m.VX[i]), math.Max(xmax, m.VX[i])
		ymin, ymax = math.Min(ymin, m.VY[i]), math.Max(ymax, m.VY[i])
	}
	return
}

func localIndex(tri [3]int, v int) int {
	for i, vv := range tri {
		if vv == v {
			return i
		}
	}
	return -1
}
