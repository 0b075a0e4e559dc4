package fem

// FunctionCoefficient is a scalar field evaluated at a point
type FunctionCoefficient func(x, y float64) float64

// VectorCoefficient supplies a vector value that is constant over each element
type VectorCoefficient interface {
	ElementValue(k int) [2]float64
}

type ConstantVectorCoefficient [2]float64

func (c ConstantVectorCoefficient) ElementValue(k int) [2]float64 { return c }

// PerpGradCoefficient is the velocity (or magnetic field) derived from a stream
// function, q = (d/dy, -d/dx) of GF, which is divergence free
type PerpGradCoefficient struct {
	GF *GridFunction
}

func (c PerpGradCoefficient) ElementValue(k int) [2]float64 {
	g := c.GF.ElementGradient(k)
	return [2]float64{g[1], -g[0]}
}
