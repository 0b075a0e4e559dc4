package fem

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dot(x, y []float64) (sum float64) {
	for i := range x {
		sum += x[i] * y[i]
	}
	return
}

func ones(n int) (v []float64) {
	v = make([]float64, n)
	for i := range v {
		v[i] = 1
	}
	return
}

func TestRectangleMesh(t *testing.T) {
	m := NewRectangleMesh(3, 2, 0, 3, -1, 1)
	assert.Equal(t, 12, m.NumVertices())
	assert.Equal(t, 12, m.NumElements())
	assert.Equal(t, 10, len(m.Bdr))
	assert.Equal(t, 4, m.NumBdrAttributes())
	require.NoError(t, m.Orient())
	for _, tri := range m.EToV {
		assert.Greater(t, m.signedArea2(tri), 0.)
	}
	xmin, xmax, ymin, ymax := m.BoundingBox()
	assert.Equal(t, []float64{0, 3, -1, 1}, []float64{xmin, xmax, ymin, ymax})

	fes := NewFESpace(m, 2)
	assert.Equal(t, 10, len(fes.GetEssentialTrueDofs([]int{1, 1, 1, 1})))
	// Bottom edge only
	assert.Equal(t, []int{0, 1, 2, 3}, fes.GetEssentialTrueDofs([]int{1}))
	assert.Nil(t, fes.GetEssentialTrueDofs([]int{0, 0, 0, 0}))
	{ // Clockwise elements are reoriented
		m := NewRectangleMesh(1, 1, 0, 1, 0, 1)
		tri := m.EToV[0]
		m.EToV[0] = [3]int{tri[0], tri[2], tri[1]}
		require.NoError(t, m.Orient())
		assert.Greater(t, m.signedArea2(m.EToV[0]), 0.)
	}
	{ // Boundary edges must belong to their element
		m := NewRectangleMesh(1, 1, 0, 1, 0, 1)
		m.Bdr[0].Elem = 1
		assert.Error(t, m.Orient())
	}
	{ // Duplicate boundary edges are reported by their sorted vertices
		m := NewRectangleMesh(1, 1, 0, 1, 0, 1)
		dup := m.Bdr[1] // Right edge, vertices 1 and 3
		dup.V = [2]int{dup.V[1], dup.V[0]}
		m.Bdr = append(m.Bdr, dup)
		err := m.Orient()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "[1 3]")
	}
	{ // Essential markers must cover every boundary attribute
		m := NewRectangleMesh(2, 2, 0, 1, 0, 1)
		assert.NoError(t, m.CheckEssentialMarkers([]int{1, 0, 1, 0}))
		assert.Error(t, m.CheckEssentialMarkers([]int{1, 0}))
	}
}

func TestBoundaryNormal(t *testing.T) {
	fes := NewFESpace(NewRectangleMesh(2, 2, 0, 1, 0, 1), 1)
	expected := map[int][2]float64{1: {0, -1}, 2: {1, 0}, 3: {0, 1}, 4: {-1, 0}}
	for _, e := range fes.Mesh.Bdr {
		nx, ny, length := fes.BoundaryNormal(e)
		normal := expected[e.Attr]
		assert.InDelta(t, 0.5, length, 1.e-14)
		assert.InDeltaSlice(t, normal[:], []float64{nx, ny}, 1.e-14)
	}
}

func TestBilinearForms(t *testing.T) {
	var (
		fes  = NewFESpace(NewRectangleMesh(4, 3, 0, 2, 0, 1), 3)
		n    = fes.TrueVSize()
		area = 2.
		one  = ones(n)
		vx   = fes.Mesh.VX
		vy   = fes.Mesh.VY
		y    = make([]float64, n)
	)
	M := NewBilinearForm(fes, "M").AddDomainIntegrator(MassIntegrator{Q: 1})
	M.Assemble()
	M.Mult(one, y)
	assert.InDelta(t, area, dot(one, y), 1.e-12)
	Mone := make([]float64, n)
	copy(Mone, y)

	K := NewBilinearForm(fes, "K").AddDomainIntegrator(DiffusionIntegrator{Q: 1})
	K.Assemble()
	K.Mult(one, y)
	for _, val := range y {
		assert.InDelta(t, 0., val, 1.e-12)
	}
	K.Mult(vx, y)
	assert.InDelta(t, area, dot(vx, y), 1.e-12)

	{ // Convection with a constant field is the mass matrix applied to Q.grad u
		N := NewBilinearForm(fes, "N").
			AddDomainIntegrator(ConvectionIntegrator{Q: ConstantVectorCoefficient{1, 0}, Alpha: 1})
		N.Assemble()
		N.Mult(vx, y)
		assert.InDeltaSlice(t, Mone, y, 1.e-12)
	}
	{ // The perpendicular gradient of phi = y is (1, 0)
		phi := NewGridFunction(fes)
		phi.ProjectCoefficient(func(x, y float64) float64 { return y })
		q := PerpGradCoefficient{GF: phi}
		for k := 0; k < fes.NumElements(); k++ {
			qk := q.ElementValue(k)
			assert.InDeltaSlice(t, []float64{1, 0}, qk[:], 1.e-12)
		}
		N := NewBilinearForm(fes, "N").AddDomainIntegrator(ConvectionIntegrator{Q: q, Alpha: 1})
		N.Assemble()
		N.Mult(vx, y)
		assert.InDeltaSlice(t, Mone, y, 1.e-12)
		// Reassembly after the coefficient changes
		phi.ProjectCoefficient(func(x, y float64) float64 { return -2 * x })
		N.Assemble()
		N.Mult(vy, y)
		for i := range y {
			assert.InDelta(t, 2*Mone[i], y[i], 1.e-12)
		}
	}
	{ // Adding the boundary term annihilates linear fields
		KB := NewBilinearForm(fes, "KB").
			AddDomainIntegrator(DiffusionIntegrator{Q: 1}).
			AddBoundaryIntegrator(BoundaryGradIntegrator{})
		KB.Assemble()
		for _, u := range [][]float64{one, vx, vy} {
			KB.Mult(u, y)
			for _, val := range y {
				assert.InDelta(t, 0., val, 1.e-12)
			}
		}
		// Interior rows match the diffusion matrix
		interior := 1*5 + 1
		assert.Equal(t, K.SpMat().At(interior, interior), KB.SpMat().At(interior, interior))
	}
}

func TestParallelAssembly(t *testing.T) {
	var (
		m = NewRectangleMesh(7, 5, 0, 1, 0, 1)
	)
	assemble := func(procs int) []float64 {
		fes := NewFESpace(m, procs)
		K := NewBilinearForm(fes, "K").
			AddDomainIntegrator(DiffusionIntegrator{Q: 1}).
			AddDomainIntegrator(MassIntegrator{Q: 0.5})
		K.Assemble()
		return K.SpMat().Data()
	}
	serial := assemble(1)
	for _, procs := range []int{2, 4, 100} {
		assert.InDeltaSlice(t, serial, assemble(procs), 1.e-14)
	}
}

func TestFormLinearSystem(t *testing.T) {
	var (
		fes = NewFESpace(NewRectangleMesh(3, 3, 0, 1, 0, 1), 2)
		n   = fes.TrueVSize()
		ess = fes.GetEssentialTrueDofs([]int{1, 1, 1, 1})
		x   = make([]float64, n)
		b   = make([]float64, n)
	)
	K := NewBilinearForm(fes, "K").AddDomainIntegrator(DiffusionIntegrator{Q: 1})
	K.Assemble()
	diag := K.SpMat().Diagonal()
	for i := range x {
		x[i] = fes.Mesh.VX[i] + 2*fes.Mesh.VY[i]
	}
	A, X, B := K.FormLinearSystem(ess, x, b)
	assert.Equal(t, x, X)
	for _, i := range ess {
		assert.Equal(t, x[i], B[i])
		assert.Equal(t, 1., A.At(i, i))
		for j := 0; j < n; j++ {
			if j != i {
				assert.Equal(t, 0., A.At(i, j))
				assert.Equal(t, 0., A.At(j, i))
			}
		}
	}
	// A linear field is discretely harmonic, the lifted system is satisfied by x
	y := make([]float64, n)
	A.Mult(x, y)
	assert.InDeltaSlice(t, B, y, 1.e-12)
	// The form's own matrix is untouched, a mid-edge essential vertex keeps its stiffness
	assert.Equal(t, diag, K.SpMat().Diagonal())
	assert.InDelta(t, 2., K.SpMat().At(ess[1], ess[1]), 1.e-12)
	As := K.FormSystemMatrix(ess)
	assert.Equal(t, A.Data(), As.Data())
}

func TestLinearForm(t *testing.T) {
	fes := NewFESpace(NewRectangleMesh(4, 4, 0, 1, 0, 2), 3)
	lf := NewLinearForm(fes).AddDomainIntegrator(DomainLFIntegrator{F: func(x, y float64) float64 { return 1 }})
	lf.Assemble()
	assert.InDelta(t, 2., dot(lf.Data, ones(fes.TrueVSize())), 1.e-12)

	lf = NewLinearForm(fes).AddDomainIntegrator(DomainLFIntegrator{F: func(x, y float64) float64 { return x * y }})
	lf.Assemble()
	b := lf.ParallelAssemble()
	// int_0^1 int_0^2 xy dy dx = 1
	assert.InDelta(t, 1., dot(b, ones(fes.TrueVSize())), 1.e-12)
	// The midpoint rule is exact for quadratics: (x, x) = int x^2 = 2/3
	lf = NewLinearForm(fes).AddDomainIntegrator(DomainLFIntegrator{F: func(x, y float64) float64 { return x }})
	lf.Assemble()
	assert.InDelta(t, 2./3., dot(lf.Data, fes.Mesh.VX), 1.e-12)
}

const squareNeu = `        CONTROL INFO 2.4.6
** GAMBIT NEUTRAL FILE
square
PROGRAM:                Gambit     VERSION:  2.4.6
Oct 2026
     NUMNP     NELEM     NGRPS    NBSETS     NDFCD     NDFVL
         4         2         1         2         2         2
ENDOFSECTION
   NODAL COORDINATES 2.4.6
         1   0.0000000000e+00   0.0000000000e+00
         2   1.0000000000e+00   0.0000000000e+00
         3   1.0000000000e+00   1.0000000000e+00
         4   0.0000000000e+00   1.0000000000e+00
ENDOFSECTION
      ELEMENTS/CELLS 2.4.6
         1  3  3        1       2       3
         2  3  3        1       3       4
ENDOFSECTION
       ELEMENT GROUP 2.4.6
GROUP:           1 ELEMENTS:          2 MATERIAL:          2 NFLAGS:          1
                           fluid
       0
       1       2
ENDOFSECTION
 BOUNDARY CONDITIONS 2.4.6
                           Wall       1       2       0       6
         1       3       1
         1       3       2
ENDOFSECTION
 BOUNDARY CONDITIONS 2.4.6
                            Out       1       2       0       6
         2       3       2
         2       3       3
ENDOFSECTION
`

func TestReadGambit2D(t *testing.T) {
	m, err := ReadGambit2D(strings.NewReader(squareNeu), false)
	require.NoError(t, err)
	assert.Equal(t, 4, m.NumVertices())
	assert.Equal(t, [][3]int{{0, 1, 2}, {0, 2, 3}}, m.EToV)
	assert.Equal(t, []string{"wall", "out"}, m.BdrNames)
	assert.Equal(t, 4, len(m.Bdr))
	assert.Equal(t, BdrEdge{V: [2]int{2, 3}, Elem: 1, Attr: 2}, m.Bdr[2])
	fes := NewFESpace(m, 1)
	assert.Equal(t, []int{0, 1, 2}, fes.GetEssentialTrueDofs([]int{1, 0}))
	assert.Equal(t, []int{0, 2, 3}, fes.GetEssentialTrueDofs([]int{0, 1}))

	{ // Truncated input
		_, err := ReadGambit2D(strings.NewReader(squareNeu[:400]), false)
		assert.Error(t, err)
	}
	{ // Bad face number
		bad := strings.Replace(squareNeu, "1       3       2\nENDOFSECTION", "1       3       5\nENDOFSECTION", 1)
		_, err := ReadGambit2D(strings.NewReader(bad), false)
		assert.Error(t, err)
	}
	{
		_, err := ReadGambit2DFile("does_not_exist.neu", false)
		assert.Error(t, err)
	}
}

func TestConstrainedMatrix(t *testing.T) {
	var (
		fes = NewFESpace(NewRectangleMesh(4, 2, 0, 2, 0, 1), 2)
		n   = fes.TrueVSize()
		ess = fes.GetEssentialTrueDofs([]int{0, 1, 0, 1})
		x   = make([]float64, n)
		b   = ones(n)
		B   = make([]float64, n)
	)
	M := NewBilinearForm(fes, "M").AddDomainIntegrator(MassIntegrator{Q: 1})
	M.Assemble()
	cm := M.FormConstrainedMatrix(ess)
	for i := range x {
		x[i] = float64(i)
	}
	cm.LiftRHS(x, b, B)
	_, _, B2 := M.FormLinearSystem(ess, x, b)
	assert.Equal(t, B2, B)
	assert.Panics(t, func() { cm.A.Scale(2) })
}
