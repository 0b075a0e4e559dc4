package solvers

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// GMRES is the restarted generalized minimal residual method with right
// preconditioning, so the monitored residual is the true residual
// ||b - A x|| <= max(RelTol ||r0||, AbsTol).
type GMRES struct {
	IterativeSolver
	Restart int
	v, z    [][]float64 // Krylov basis and preconditioned directions
	h       [][]float64 // Hessenberg matrix stored by column
	cs, sn  []float64
	s, r    []float64
}

func NewGMRES(name string) (g *GMRES) {
	g = &GMRES{
		IterativeSolver: IterativeSolver{
			Name:    name,
			RelTol:  1.e-10,
			MaxIter: 500,
		},
		Restart: 50,
	}
	return
}

func (g *GMRES) allocate(n, m int) {
	if len(g.r) == n && len(g.v) == m+1 {
		return
	}
	g.v, g.z, g.h = make([][]float64, m+1), make([][]float64, m), make([][]float64, m)
	for i := range g.v {
		g.v[i] = make([]float64, n)
	}
	for i := 0; i < m; i++ {
		g.z[i] = make([]float64, n)
		g.h[i] = make([]float64, m+1)
	}
	g.cs, g.sn, g.s = make([]float64, m), make([]float64, m), make([]float64, m+1)
	g.r = make([]float64, n)
}

func (g *GMRES) Mult(b, x []float64) (err error) {
	if err = g.check(b, x); err != nil {
		return
	}
	var (
		A     = g.A
		n     = A.Height()
		m     = g.Restart
		iter  int
		tol   float64
		resid float64
	)
	if m < 1 {
		m = 1
	}
	g.allocate(n, m)
	if !g.IterativeMode {
		for i := range x {
			x[i] = 0
		}
	}
	for first := true; ; first = false {
		r := g.r
		A.Mult(x, r)
		floats.SubTo(r, b, r)
		beta := floats.Norm(r, 2)
		if math.IsNaN(beta) {
			return fmt.Errorf("%s: %w", g.Name, ErrNaN)
		}
		if first {
			tol = math.Max(g.RelTol*beta, g.AbsTol)
		}
		resid = beta
		if beta <= tol {
			return g.finish(iter, beta, true)
		}
		if iter >= g.MaxIter {
			return g.finish(iter, beta, false)
		}
		floats.ScaleTo(g.v[0], 1./beta, r)
		for i := range g.s {
			g.s[i] = 0
		}
		g.s[0] = beta
		var k int
		for k = 0; k < m && iter < g.MaxIter; {
			g.precondition(g.v[k], g.z[k])
			w := g.v[k+1]
			A.Mult(g.z[k], w)
			hk := g.h[k]
			// Modified Gram-Schmidt
			for j := 0; j <= k; j++ {
				hk[j] = floats.Dot(w, g.v[j])
				floats.AddScaled(w, -hk[j], g.v[j])
			}
			hk[k+1] = floats.Norm(w, 2)
			if hk[k+1] != 0 {
				floats.Scale(1./hk[k+1], w)
			}
			for j := 0; j < k; j++ {
				applyGivens(&hk[j], &hk[j+1], g.cs[j], g.sn[j])
			}
			g.cs[k], g.sn[k] = generateGivens(hk[k], hk[k+1])
			applyGivens(&hk[k], &hk[k+1], g.cs[k], g.sn[k])
			applyGivens(&g.s[k], &g.s[k+1], g.cs[k], g.sn[k])
			k++
			iter++
			resid = math.Abs(g.s[k])
			if g.PrintLevel > 1 {
				fmt.Printf("   Pass : %2d   Iteration : %3d  ||r|| = %8.5e\n", iter/m+1, iter, resid)
			}
			if resid <= tol {
				break
			}
		}
		// The recurrence residual can drift from the true residual, the restart rechecks it
		if err = g.update(x, k); err != nil {
			return
		}
	}
}

// update adds the minimizing combination of the first k directions to x
func (g *GMRES) update(x []float64, k int) (err error) {
	if k == 0 {
		return
	}
	data := make([]float64, k*k)
	for i := 0; i < k; i++ {
		for j := i; j < k; j++ {
			data[i*k+j] = g.h[j][i]
		}
	}
	var (
		H = mat.NewTriDense(k, mat.Upper, data)
		y mat.VecDense
	)
	if err = y.SolveVec(H, mat.NewVecDense(k, g.s[:k])); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return fmt.Errorf("%s: least squares update failed: %w", g.Name, err)
		}
		err = nil
	}
	for j := 0; j < k; j++ {
		floats.AddScaled(x, y.AtVec(j), g.z[j])
	}
	return
}

func generateGivens(dx, dy float64) (cs, sn float64) {
	switch {
	case dy == 0:
		cs, sn = 1, 0
	case math.Abs(dy) > math.Abs(dx):
		t := dx / dy
		sn = 1 / math.Sqrt(1+t*t)
		cs = t * sn
	default:
		t := dy / dx
		cs = 1 / math.Sqrt(1+t*t)
		sn = t * cs
	}
	return
}

func applyGivens(dx, dy *float64, cs, sn float64) {
	temp := cs**dx + sn**dy
	*dy = -sn**dx + cs**dy
	*dx = temp
}
