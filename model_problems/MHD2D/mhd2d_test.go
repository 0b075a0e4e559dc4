package MHD2D

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/notargets/gomhd/InputParameters"
)

func laplacian(f func(x, y float64) float64, x, y, h float64) float64 {
	return (f(x+h, y) + f(x-h, y) + f(x, y+h) + f(x, y-h) - 4*f(x, y)) / (h * h)
}

func TestInitialConditions(t *testing.T) {
	var (
		h   = 1.e-4
		pts = [][2]float64{{0.3, 0.2}, {-0.7, 0.45}, {1.1, -0.3}}
	)
	for _, ic := range []*InitialCondition{
		NewWave(1, 0.1, -1, 2, -1, 1),
		NewIsland(0.01, 0.2, 0.5, -math.Pi, math.Pi, -1, 1),
	} {
		for _, p := range pts {
			assert.InDelta(t, laplacian(ic.Psi, p[0], p[1], h), ic.J(p[0], p[1]), 1.e-4)
		}
	}
	{ // The wave vanishes on the boundary
		ic := NewWave(1, 0.1, 0, 2, 0, 1)
		assert.InDelta(t, 0, ic.Psi(0, 0.3), 1.e-14)
		assert.InDelta(t, 0, ic.Psi(2, 0.3), 1.e-14)
		assert.InDelta(t, 0, ic.Psi(1.3, 1), 1.e-14)
		assert.Equal(t, 0., ic.JEquilibrium(0.5, 0.5))
	}
	{ // Without a perturbation the island current is the equilibrium current
		ic := NewIsland(0, 0.2, 0.5, -math.Pi, math.Pi, -1, 1)
		assert.InDelta(t, ic.JEquilibrium(0.4, 0.1), ic.J(0.4, 0.1), 1.e-14)
	}
}

func TestNames(t *testing.T) {
	assert.Equal(t, ISLAND, NewInitType("Island"))
	assert.Equal(t, RK4, NewSchemeType("rk4"))
	assert.True(t, NewSchemeType("BackwardEuler").IsImplicit())
	assert.False(t, FORWARDEULER.IsImplicit())
	assert.Panics(t, func() { NewInitType("vortex") })
	assert.Panics(t, func() { NewSchemeType("leapfrog") })
}

func newTestInput(t *testing.T, scheme string) (ip *InputParameters.InputParametersMHD) {
	ip = &InputParameters.InputParametersMHD{
		FinalTime:   0.05,
		TimeStep:    0.01,
		Scheme:      scheme,
		Amplitude:   1,
		Resistivity: 0.01,
		Viscosity:   0.01,
		Nx:          8,
		ProcLimit:   2,
	}
	ip.SetDefaults()
	require.NoError(t, ip.Validate())
	return
}

func TestRun(t *testing.T) {
	for _, scheme := range []string{"ForwardEuler", "RK4", "BackwardEuler"} {
		c, err := NewMHD(newTestInput(t, scheme), "", false)
		require.NoError(t, err, scheme)
		// The rectangle mesh names every side dirichlet
		assert.Equal(t, 4*8, len(c.Op.EssentialTrueDofs()))
		kinetic0, magnetic0, err := c.Op.Energies(c.X.Data)
		require.NoError(t, err)
		assert.InDelta(t, 0, kinetic0, 1.e-20)
		require.NoError(t, c.Run(), scheme)
		assert.Equal(t, 5, c.Steps, scheme)
		assert.InDelta(t, 0.05, c.Time, 1.e-12, scheme)
		kinetic, magnetic, err := c.Op.Energies(c.X.Data)
		require.NoError(t, err)
		// A single mode flux carries no Lorentz force and decays resistively
		assert.Less(t, magnetic, magnetic0, scheme)
		assert.Greater(t, magnetic, 0.9*magnetic0, scheme)
		assert.Less(t, kinetic, 1.e-2*magnetic0, scheme)
	}
}

func TestRunLimits(t *testing.T) {
	{ // MaxIterations stops the run early
		ip := newTestInput(t, "ForwardEuler")
		ip.MaxIterations = 2
		c, err := NewMHD(ip, "", false)
		require.NoError(t, err)
		require.NoError(t, c.Run())
		assert.Equal(t, 2, c.Steps)
		assert.InDelta(t, 0.02, c.Time, 1.e-12)
	}
	{ // The last step is shortened to land on FinalTime
		ip := newTestInput(t, "ForwardEuler")
		ip.FinalTime = 0.025
		c, err := NewMHD(ip, "", false)
		require.NoError(t, err)
		require.NoError(t, c.Run())
		assert.Equal(t, 3, c.Steps)
		assert.InDelta(t, 0.025, c.Time, 1.e-12)
	}
	{
		ip := newTestInput(t, "BackwardEuler")
		ip.Preconditioner = "ILU"
		_, err := NewMHD(ip, "", false)
		assert.Error(t, err)
	}
	{
		ip := newTestInput(t, "BackwardEuler")
		ip.Preconditioner = "None"
		ip.MaxIterations = 1
		c, err := NewMHD(ip, "", false)
		require.NoError(t, err)
		require.NoError(t, c.Run())
	}
}

func TestIslandForcing(t *testing.T) {
	ip := newTestInput(t, "BackwardEuler")
	ip.InitType = "Island"
	ip.Amplitude = 0
	ip.Eps = 0.2
	ip.Lambda = 0.5
	ip.XMin, ip.XMax = -math.Pi/2, math.Pi/2
	ip.YMin, ip.YMax = -1, 1
	ip.EquilibriumForcing = true
	ip.MaxIterations = 2
	c, err := NewMHD(ip, "", false)
	require.NoError(t, err)
	require.NotNil(t, c.Op.E0Vec)
	psi0 := append([]float64{}, c.X.Psi()...)
	require.NoError(t, c.Run())
	// The forced equilibrium drifts only by discretization error
	var drift, norm float64
	for i, v := range c.X.Psi() {
		drift = math.Max(drift, math.Abs(v-psi0[i]))
		norm = math.Max(norm, math.Abs(psi0[i]))
	}
	assert.Less(t, drift, 1.e-2*norm)
}

func TestCurrentDensity(t *testing.T) {
	ip := newTestInput(t, "BackwardEuler")
	ip.MaxIterations = 2
	c, err := NewMHD(ip, "", false)
	require.NoError(t, err)
	// Before the first step it is the seeded current
	assert.Equal(t, c.Op.Current().Data, c.CurrentDensity())
	require.NoError(t, c.Run())
	j := c.CurrentDensity()
	jRef := make([]float64, len(j))
	for _, i := range c.Op.EssentialTrueDofs() {
		jRef[i] = j[i]
	}
	require.NoError(t, c.Op.RecoverCurrent(c.X.Psi(), jRef))
	scale := floats.Norm(jRef, math.Inf(1))
	require.Greater(t, scale, 0.)
	assert.InDeltaSlice(t, jRef, j, 1.e-8*scale)
}

func TestEssentialMarkers(t *testing.T) {
	ip := newTestInput(t, "ForwardEuler")
	ip.EssentialBdr = []int{1, 1}
	_, err := NewMHD(ip, "", false)
	assert.Error(t, err)
	ip.EssentialBdr = []int{1, 1, 1, 1}
	c, err := NewMHD(ip, "", false)
	require.NoError(t, err)
	assert.Equal(t, 4*8, len(c.Op.EssentialTrueDofs()))
}

func TestSetParallelDegree(t *testing.T) {
	c := &MHD{}
	c.SetParallelDegree(4, 100)
	assert.Equal(t, 4, c.ParallelDegree)
	c.SetParallelDegree(4, 2)
	assert.Equal(t, 1, c.ParallelDegree)
	c.SetParallelDegree(0, 1000000)
	assert.Greater(t, c.ParallelDegree, 0)
}
