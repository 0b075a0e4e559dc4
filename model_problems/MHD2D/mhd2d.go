package MHD2D

import (
	"fmt"
	"math"
	"runtime"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/notargets/gomhd/InputParameters"
	"github.com/notargets/gomhd/fem"
	"github.com/notargets/gomhd/mhd"
	"github.com/notargets/gomhd/types"
	"github.com/notargets/gomhd/utils"
)

var (
	// Low storage Runge-Kutta coefficients, Carpenter and Kennedy
	rk4a = [5]float64{
		0.0,
		-567301805773.0 / 1357537059087.0,
		-2404267990393.0 / 2016746695238.0,
		-3550918686646.0 / 2091501179385.0,
		-1275806237668.0 / 842570457699.0,
	}
	rk4b = [5]float64{
		1432997174477.0 / 9575080441755.0,
		5161836677717.0 / 13612068292357.0,
		1720146321549.0 / 2090206949498.0,
		3134564353537.0 / 4481467310338.0,
		2277821191437.0 / 14882151754819.0,
	}
)

/*
MHD advances the reduced resistive MHD equations on a triangle mesh. The state
[phi | psi | w] is integrated in psi and w. Explicit schemes recover phi from w
after every stage, backward Euler solves for all three fields together.
*/
type MHD struct {
	// Input parameters
	MeshFile       string
	FinalTime, DT  float64
	MaxIterations  int
	Scheme         SchemeType
	Case           InitType
	LogFrequency   int
	ParallelDegree int // Number of go routines to use for parallelized assembly
	FES            *fem.FESpace
	Op             *mhd.ResistiveMHDOperator
	IC             *InitialCondition
	X              mhd.State // Solution [phi | psi | w]
	Time           float64
	Steps          int
	verbose        bool
	// Work storage
	k, resid []float64
}

func NewMHD(ip *InputParameters.InputParametersMHD, meshFile string, verbose bool) (c *MHD, err error) {
	var (
		mesh   *fem.Mesh
		essBdr = ip.EssentialBdr
	)
	c = &MHD{
		MeshFile:      meshFile,
		FinalTime:     ip.FinalTime,
		DT:            ip.TimeStep,
		MaxIterations: ip.MaxIterations,
		Scheme:        NewSchemeType(ip.Scheme),
		Case:          NewInitType(ip.InitType),
		LogFrequency:  ip.LogFrequency,
		verbose:       verbose,
	}
	if c.LogFrequency < 1 {
		c.LogFrequency = 1
	}
	if len(meshFile) != 0 {
		if mesh, err = fem.ReadGambit2DFile(meshFile, verbose); err != nil {
			return nil, err
		}
	} else {
		mesh = fem.NewRectangleMesh(ip.Nx, ip.Ny, ip.XMin, ip.XMax, ip.YMin, ip.YMax)
	}
	c.SetParallelDegree(ip.ProcLimit, mesh.NumElements())
	c.FES = fem.NewFESpace(mesh, c.ParallelDegree)
	if len(essBdr) == 0 {
		essBdr = types.EssentialMarkers(mesh.BdrNames)
	} else if err = mesh.CheckEssentialMarkers(essBdr); err != nil {
		return nil, err
	}
	if c.Op, err = mhd.NewResistiveMHDOperator(c.FES, essBdr, ip.Viscosity, ip.Resistivity, ip.UseAMG, verbose); err != nil {
		return nil, err
	}
	c.Op.SetNewtonTolerances(ip.NewtonRelTol, ip.NewtonAbsTol, ip.NewtonMaxIter)
	switch ip.Preconditioner {
	case "BlockJacobi", "blockjacobi", "":
	case "None", "none":
		c.Op.SetPreconditionerFactory(mhd.IdentityFactory{})
	default:
		c.Op.Close()
		return nil, fmt.Errorf("unknown preconditioner \"%s\", must be BlockJacobi or None", ip.Preconditioner)
	}
	xmin, xmax, ymin, ymax := mesh.BoundingBox()
	c.IC = NewInitialCondition(c.Case, ip.Amplitude, ip.Eps, ip.Lambda, xmin, xmax, ymin, ymax)
	if err = c.InitializeSolution(ip.EquilibriumForcing, ip.Resistivity); err != nil {
		c.Op.Close()
		return nil, err
	}
	if verbose {
		fmt.Printf("Reduced Resistive MHD Equations in 2 Dimensions\n")
		fmt.Printf("Using %d go routines in parallel\n", c.ParallelDegree)
		fmt.Printf("Solving %s\n", c.Case.Print())
		fmt.Printf("Time scheme: %s, dt = %8.5e\n", c.Scheme.Print(), c.DT)
		fmt.Printf("Num Vertices = %d, Num Elements K = %d, Essential dofs = %d, AMG = %v\n\n",
			mesh.NumVertices(), mesh.NumElements(), len(c.Op.EssentialTrueDofs()), c.Op.UsingAMG())
	}
	return
}

func (c *MHD) SetParallelDegree(ProcLimit, Kmax int) {
	if ProcLimit != 0 {
		c.ParallelDegree = ProcLimit
	} else {
		c.ParallelDegree = runtime.NumCPU()
	}
	if c.ParallelDegree > Kmax {
		c.ParallelDegree = 1
	}
}

// InitializeSolution projects psi, starts the flow at rest and seeds the current
func (c *MHD) InitializeSolution(equilibriumForcing bool, resistivity float64) (err error) {
	var (
		n = c.FES.TrueVSize()
	)
	c.X = mhd.NewState(n)
	c.k = make([]float64, 3*n)
	c.resid = make([]float64, 3*n)
	fem.NewGridFunctionView(c.FES, c.X.Psi()).ProjectCoefficient(c.IC.Psi)
	c.Op.SetInitialJ(c.IC.J)
	if equilibriumForcing && resistivity != 0 {
		jEq := c.IC.JEquilibrium
		c.Op.SetRHSEfield(func(x, y float64) float64 { return resistivity * jEq(x, y) })
	}
	return c.Op.UpdatePhi(c.X.Data)
}

// Run integrates to FinalTime or MaxIterations steps, whichever comes first
func (c *MHD) Run() (err error) {
	var (
		start = time.Now()
		dt    float64
	)
	defer c.Op.Close()
	if c.verbose {
		c.logStep()
	}
	for c.FinalTime-c.Time > 1.e-12*c.FinalTime {
		if c.MaxIterations > 0 && c.Steps >= c.MaxIterations {
			break
		}
		dt = math.Min(c.DT, c.FinalTime-c.Time)
		if err = c.Step(dt); err != nil {
			return fmt.Errorf("step %d, time %8.5f: %w", c.Steps, c.Time, err)
		}
		c.Time += dt
		c.Steps++
		if utils.IsNan(c.X.Data) {
			return fmt.Errorf("step %d, time %8.5f: NaN in solution", c.Steps, c.Time)
		}
		if c.verbose && c.Steps%c.LogFrequency == 0 {
			c.logStep()
		}
	}
	if c.verbose {
		c.logStep()
		fmt.Printf("\nRun time = %v, %s\n", time.Since(start), utils.GetMemUsage())
	}
	return
}

// Step advances the solution by dt with the configured scheme
func (c *MHD) Step(dt float64) (err error) {
	var (
		x = c.X.Data
	)
	switch c.Scheme {
	case BACKWARDEULER:
		if err = c.Op.ImplicitSolve(dt, x, c.k); err != nil {
			return
		}
		for i, kv := range c.k {
			x[i] += dt * kv
		}
	case RK4:
		for i := range c.resid {
			c.resid[i] = 0
		}
		for s := 0; s < 5; s++ {
			if err = c.Op.Mult(x, c.k); err != nil {
				return
			}
			for i, kv := range c.k {
				c.resid[i] = rk4a[s]*c.resid[i] + dt*kv
				x[i] += rk4b[s] * c.resid[i]
			}
			if err = c.Op.UpdatePhi(x); err != nil {
				return
			}
		}
	default:
		if err = c.Op.Mult(x, c.k); err != nil {
			return
		}
		for i, kv := range c.k {
			x[i] += dt * kv
		}
		err = c.Op.UpdatePhi(x)
	}
	return
}

// CurrentDensity is the most recently recovered current. Explicit schemes
// return the current of the last evaluated stage. Backward Euler recovers it on
// every Newton residual, so after a step it belongs to the accepted state.
func (c *MHD) CurrentDensity() []float64 {
	if c.Scheme.IsImplicit() && c.Steps > 0 {
		return c.Op.Reduced().CurrentIterate()
	}
	return c.Op.Current().Data
}

func (c *MHD) logStep() {
	kinetic, magnetic, err := c.Op.Energies(c.X.Data)
	if err != nil {
		panic(err)
	}
	fmt.Printf("Step = %6d, Time = %8.5f, Kinetic = %12.5e, Magnetic = %12.5e, max|j| = %12.5e, %s\n",
		c.Steps, c.Time, kinetic, magnetic, floats.Norm(c.CurrentDensity(), math.Inf(1)), utils.GetMemUsage())
}
