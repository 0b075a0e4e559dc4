package InputParameters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	{
		input := []byte(`
Title: "Island coalescence"
FinalTime: 1.5
TimeStep: 0.01
Scheme: RK4
InitType: Island
Viscosity: 0.001
Resistivity: 0.001
Nx: 16
XMin: -3.14159
XMax: 3.14159
YMin: -1
YMax: 1
EssentialBdr: [1, 0, 1, 0]
UseAMG: true
Eps: 0.2
EquilibriumForcing: true
`)
		ip := &InputParametersMHD{}
		require.NoError(t, ip.Parse(input))
		assert.Equal(t, "Island coalescence", ip.Title)
		assert.Equal(t, "RK4", ip.Scheme)
		assert.Equal(t, 16, ip.Nx)
		assert.Equal(t, 16, ip.Ny)
		assert.Equal(t, []int{1, 0, 1, 0}, ip.EssentialBdr)
		assert.True(t, ip.UseAMG)
		assert.True(t, ip.EquilibriumForcing)
		assert.Equal(t, 0.2, ip.Eps)
		assert.Equal(t, 5., ip.Lambda)
		assert.Equal(t, 20, ip.NewtonMaxIter)
		assert.Equal(t, "BlockJacobi", ip.Preconditioner)
		assert.Equal(t, -1., ip.YMin)
		ip.Print()
	}
	{ // Defaults for a minimal file
		ip := &InputParametersMHD{}
		require.NoError(t, ip.Parse([]byte("FinalTime: 1\nTimeStep: 0.1\n")))
		assert.Equal(t, "BackwardEuler", ip.Scheme)
		assert.Equal(t, "Wave", ip.InitType)
		assert.Equal(t, 1., ip.XMax)
		assert.Equal(t, 32, ip.Ny)
	}
	{
		ip := &InputParametersMHD{}
		assert.Error(t, ip.Parse([]byte("FinalTime: 1\n")))
		assert.Error(t, ip.Parse([]byte("FinalTime: 1\nTimeStep: 0.1\nViscosity: -1\n")))
		assert.Error(t, ip.Parse([]byte("FinalTime: [1\n")))
	}
}
