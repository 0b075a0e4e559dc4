package mhd

import (
	"github.com/notargets/gomhd/fem"
)

// newConvection assembles (q.grad u, v) with q = (d/dy, -d/dx) of field. The form
// is built from scratch so no previous coefficient can leak into it.
func newConvection(fes *fem.FESpace, name string, field []float64) (bf *fem.BilinearForm) {
	bf = fem.NewBilinearForm(fes, name).AddDomainIntegrator(fem.ConvectionIntegrator{
		Q:     fem.PerpGradCoefficient{GF: fem.NewGridFunctionView(fes, field)},
		Alpha: 1,
	})
	bf.Assemble()
	return
}

// AssembleNv replaces Nv with advection by the velocity of stream function phi
func (op *ResistiveMHDOperator) AssembleNv(phi []float64) {
	op.Nv = newConvection(op.fes, "Nv", phi)
}

// AssembleNb replaces Nb with advection by the magnetic field of flux psi
func (op *ResistiveMHDOperator) AssembleNb(psi []float64) {
	op.Nb = newConvection(op.fes, "Nb", psi)
}

func (rs *ReducedSystemOperator) assembleNv(phi []float64) {
	rs.Nv = newConvection(rs.fes, "Nv(k)", phi)
}

func (rs *ReducedSystemOperator) assembleNb(psi []float64) {
	rs.Nb = newConvection(rs.fes, "Nb(k)", psi)
}
