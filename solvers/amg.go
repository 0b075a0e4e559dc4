package solvers

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/gomhd/utils"
)

// AMG is a two level aggregation preconditioner for SPD matrices. Unknowns are
// grouped into aggregates along strong connections, the coarse space is
// piecewise constant on aggregates and the Galerkin coarse matrix is factored
// densely. Damped Jacobi is applied before and after the coarse correction.
type AMG struct {
	A          *utils.CSR
	Theta      float64 // Strength of connection threshold
	PrintLevel int
	agg        []int // Aggregate of each fine unknown
	nc         int
	coarse     *mat.Cholesky
	dinv       []float64
	omega      float64
	r          []float64
	rc, ec     *mat.VecDense
	destroyed  bool
}

// NewAMG builds the hierarchy, maxCoarse limits the size of the dense coarse
// problem
func NewAMG(A *utils.CSR, theta float64, maxCoarse, printLevel int) (amg *AMG, err error) {
	var (
		n    = A.Height()
		dinv utils.DiagonalOperator
	)
	if dinv, err = NewJacobi(A); err != nil {
		return
	}
	amg = &AMG{
		A:          A,
		Theta:      theta,
		PrintLevel: printLevel,
		dinv:       dinv.D,
		r:          make([]float64, n),
	}
	amg.omega = 4. / (3. * Gershgorin(A, amg.dinv))
	amg.aggregate()
	if amg.nc > maxCoarse {
		err = fmt.Errorf("AMG: %w, %d aggregates, limit %d", ErrCoarseTooLarge, amg.nc, maxCoarse)
		return nil, err
	}
	if err = amg.factorCoarse(); err != nil {
		return nil, err
	}
	if printLevel > 0 {
		fmt.Printf("AMG: fine size = %d, coarse size = %d, omega = %5.3f\n", n, amg.nc, amg.omega)
	}
	return
}

func (amg *AMG) strong(i, jj int) bool {
	var (
		raw = amg.A.RawMatrix()
		j   = raw.Ind[jj]
	)
	if i == j {
		return false
	}
	aii, ajj := math.Abs(1./amg.dinv[i]), math.Abs(1./amg.dinv[j])
	return math.Abs(raw.Data[jj]) >= amg.Theta*math.Sqrt(aii*ajj)
}

func (amg *AMG) aggregate() {
	var (
		raw = amg.A.RawMatrix()
		n   = raw.I
		agg = make([]int, n)
	)
	for i := range agg {
		agg[i] = -1
	}
	// Roots whose strong neighbourhood is untouched seed new aggregates
	for i := 0; i < n; i++ {
		if agg[i] >= 0 {
			continue
		}
		free := true
		for jj := raw.Indptr[i]; jj < raw.Indptr[i+1]; jj++ {
			if amg.strong(i, jj) && agg[raw.Ind[jj]] >= 0 {
				free = false
				break
			}
		}
		if !free {
			continue
		}
		agg[i] = amg.nc
		for jj := raw.Indptr[i]; jj < raw.Indptr[i+1]; jj++ {
			if amg.strong(i, jj) {
				agg[raw.Ind[jj]] = amg.nc
			}
		}
		amg.nc++
	}
	// Leftovers join a strongly connected aggregate from the first pass
	pass1 := make([]int, n)
	copy(pass1, agg)
	for i := 0; i < n; i++ {
		if agg[i] >= 0 {
			continue
		}
		for jj := raw.Indptr[i]; jj < raw.Indptr[i+1]; jj++ {
			if j := raw.Ind[jj]; amg.strong(i, jj) && pass1[j] >= 0 {
				agg[i] = pass1[j]
				break
			}
		}
		if agg[i] < 0 {
			agg[i] = amg.nc
			amg.nc++
		}
	}
	amg.agg = agg
}

func (amg *AMG) factorCoarse() (err error) {
	var (
		raw = amg.A.RawMatrix()
		Ac  = mat.NewSymDense(amg.nc, nil)
	)
	// Ac = P^T A P, both triangles are accumulated through the upper one
	for i := 0; i < raw.I; i++ {
		ci := amg.agg[i]
		for jj := raw.Indptr[i]; jj < raw.Indptr[i+1]; jj++ {
			cj := amg.agg[raw.Ind[jj]]
			if ci <= cj {
				Ac.SetSym(ci, cj, Ac.At(ci, cj)+raw.Data[jj])
			}
		}
	}
	amg.coarse = &mat.Cholesky{}
	if ok := amg.coarse.Factorize(Ac); !ok {
		return fmt.Errorf("AMG: %w, coarse matrix factorization failed", ErrNotSPD)
	}
	amg.rc = mat.NewVecDense(amg.nc, nil)
	amg.ec = mat.NewVecDense(amg.nc, nil)
	return
}

func (amg *AMG) Height() int { return amg.A.Height() }

func (amg *AMG) NumAggregates() int { return amg.nc }

// Mult applies one symmetric two level cycle to x giving y, y ~ A^-1 x
func (amg *AMG) Mult(x, y []float64) {
	if amg.destroyed {
		panic(fmt.Errorf("AMG used after Destroy"))
	}
	var (
		r = amg.r
	)
	for i := range y {
		y[i] = amg.omega * amg.dinv[i] * x[i]
	}
	amg.residual(x, y, r)
	for i := 0; i < amg.nc; i++ {
		amg.rc.SetVec(i, 0)
	}
	for i, c := range amg.agg {
		amg.rc.SetVec(c, amg.rc.AtVec(c)+r[i])
	}
	if err := amg.coarse.SolveVecTo(amg.ec, amg.rc); err != nil {
		if _, ok := err.(mat.Condition); !ok {
			panic(err)
		}
	}
	for i, c := range amg.agg {
		y[i] += amg.ec.AtVec(c)
	}
	amg.residual(x, y, r)
	for i := range y {
		y[i] += amg.omega * amg.dinv[i] * r[i]
	}
}

func (amg *AMG) residual(b, x, r []float64) {
	amg.A.Mult(x, r)
	floats.SubTo(r, b, r)
}

// Destroy releases the hierarchy, the preconditioner is unusable afterwards
func (amg *AMG) Destroy() {
	amg.coarse, amg.rc, amg.ec = nil, nil, nil
	amg.agg, amg.r = nil, nil
	amg.destroyed = true
}

func (amg *AMG) Destroyed() bool { return amg.destroyed }
