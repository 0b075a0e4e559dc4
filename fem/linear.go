package fem

// DomainLFIntegrator is (f, v), integrated with the edge midpoint rule which is
// exact for quadratic integrands
type DomainLFIntegrator struct {
	F FunctionCoefficient
}

func (di DomainLFIntegrator) AssembleElementVector(fes *FESpace, k int, elvec *[3]float64) {
	var (
		m   = fes.Mesh
		tri = fes.EToV(k)
		mid [3]float64 // mid[c] is f at the midpoint of the edge opposite local vertex c
	)
	for c := 0; c < 3; c++ {
		a, b := tri[(c+1)%3], tri[(c+2)%3]
		mid[c] = di.F(0.5*(m.VX[a]+m.VX[b]), 0.5*(m.VY[a]+m.VY[b]))
	}
	for a := 0; a < 3; a++ {
		elvec[a] += fes.Area[k] / 6. * (mid[(a+1)%3] + mid[(a+2)%3])
	}
}

type LinearForm struct {
	FES    *FESpace
	Data   []float64
	domain []DomainLFIntegrator
}

func NewLinearForm(fes *FESpace) (lf *LinearForm) {
	lf = &LinearForm{
		FES:  fes,
		Data: make([]float64, fes.TrueVSize()),
	}
	return
}

func (lf *LinearForm) AddDomainIntegrator(di DomainLFIntegrator) *LinearForm {
	lf.domain = append(lf.domain, di)
	return lf
}

// Assemble computes the vector from scratch, partition buffers are summed in order
func (lf *LinearForm) Assemble() {
	var (
		fes  = lf.FES
		pm   = fes.Partitions
		bufs = make([][]float64, pm.ParallelDegree)
	)
	pm.Run(func(np, kMin, kMax int) {
		buf := make([]float64, fes.TrueVSize())
		for k := kMin; k < kMax; k++ {
			var elvec [3]float64
			for _, di := range lf.domain {
				di.AssembleElementVector(fes, k, &elvec)
			}
			for a, v := range fes.EToV(k) {
				buf[v] += elvec[a]
			}
		}
		bufs[np] = buf
	})
	for i := range lf.Data {
		lf.Data[i] = 0
	}
	for _, buf := range bufs {
		for i, val := range buf {
			lf.Data[i] += val
		}
	}
}

// ParallelAssemble returns a copy of the assembled true dof vector
func (lf *LinearForm) ParallelAssemble() (b []float64) {
	b = make([]float64, len(lf.Data))
	copy(b, lf.Data)
	return
}
