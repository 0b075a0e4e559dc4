package fem

import "fmt"

// GridFunction is a field of nodal values on an FESpace. Data may alias a slice
// of a larger block vector.
type GridFunction struct {
	FES  *FESpace
	Data []float64
}

func NewGridFunction(fes *FESpace) (gf *GridFunction) {
	gf = &GridFunction{
		FES:  fes,
		Data: make([]float64, fes.TrueVSize()),
	}
	return
}

// NewGridFunctionView wraps data without copying
func NewGridFunctionView(fes *FESpace, data []float64) (gf *GridFunction) {
	if len(data) != fes.TrueVSize() {
		panic(fmt.Errorf("grid function view length %d, space size %d", len(data), fes.TrueVSize()))
	}
	gf = &GridFunction{
		FES:  fes,
		Data: data,
	}
	return
}

// ProjectCoefficient interpolates f at the vertices
func (gf *GridFunction) ProjectCoefficient(f FunctionCoefficient) {
	var (
		m = gf.FES.Mesh
	)
	for i := range gf.Data {
		gf.Data[i] = f(m.VX[i], m.VY[i])
	}
}

// ElementGradient is the constant gradient of the field within element k
func (gf *GridFunction) ElementGradient(k int) (g [2]float64) {
	var (
		tri  = gf.FES.Mesh.EToV[k]
		grad = gf.FES.Grad[k]
	)
	for a, v := range tri {
		g[0] += gf.Data[v] * grad[a][0]
		g[1] += gf.Data[v] * grad[a][1]
	}
	return
}
