package InputParameters

import (
	"fmt"

	"github.com/ghodss/yaml"
)

// Parameters obtained from the YAML input file
type InputParametersMHD struct {
	Title              string  `yaml:"Title"`
	FinalTime          float64 `yaml:"FinalTime"`
	TimeStep           float64 `yaml:"TimeStep"`
	MaxIterations      int     `yaml:"MaxIterations"`
	Scheme             string  `yaml:"Scheme"`   // ForwardEuler, RK4 or BackwardEuler
	InitType           string  `yaml:"InitType"` // Wave or Island
	Viscosity          float64 `yaml:"Viscosity"`
	Resistivity        float64 `yaml:"Resistivity"`
	Nx                 int     `yaml:"Nx"` // Structured mesh cells, ignored when a grid file is read
	Ny                 int     `yaml:"Ny"`
	XMin               float64 `yaml:"XMin"`
	XMax               float64 `yaml:"XMax"`
	YMin               float64 `yaml:"YMin"`
	YMax               float64 `yaml:"YMax"`
	EssentialBdr       []int   `yaml:"EssentialBdr"` // One marker per boundary attribute, empty derives them from the boundary names
	UseAMG             bool    `yaml:"UseAMG"`
	Amplitude          float64 `yaml:"Amplitude"`
	Eps                float64 `yaml:"Eps"`
	Lambda             float64 `yaml:"Lambda"`
	EquilibriumForcing bool    `yaml:"EquilibriumForcing"`
	ProcLimit          int     `yaml:"ProcLimit"`
	LogFrequency       int     `yaml:"LogFrequency"`
	NewtonRelTol       float64 `yaml:"NewtonRelTol"`
	NewtonAbsTol       float64 `yaml:"NewtonAbsTol"`
	NewtonMaxIter      int     `yaml:"NewtonMaxIter"`
	Preconditioner     string  `yaml:"Preconditioner"` // BlockJacobi or None
}

func (ip *InputParametersMHD) Parse(data []byte) (err error) {
	if err = yaml.Unmarshal(data, ip); err != nil {
		return
	}
	ip.SetDefaults()
	return ip.Validate()
}

// SetDefaults fills unset values
func (ip *InputParametersMHD) SetDefaults() {
	if ip.Scheme == "" {
		ip.Scheme = "BackwardEuler"
	}
	if ip.InitType == "" {
		ip.InitType = "Wave"
	}
	if ip.Nx == 0 {
		ip.Nx = 32
	}
	if ip.Ny == 0 {
		ip.Ny = ip.Nx
	}
	if ip.XMin == 0 && ip.XMax == 0 {
		ip.XMax = 1
	}
	if ip.YMin == 0 && ip.YMax == 0 {
		ip.YMax = 1
	}
	if ip.LogFrequency == 0 {
		ip.LogFrequency = 10
	}
	if ip.NewtonRelTol == 0 {
		ip.NewtonRelTol = 1.e-8
	}
	if ip.NewtonAbsTol == 0 {
		ip.NewtonAbsTol = 1.e-12
	}
	if ip.NewtonMaxIter == 0 {
		ip.NewtonMaxIter = 20
	}
	if ip.Preconditioner == "" {
		ip.Preconditioner = "BlockJacobi"
	}
	if ip.Lambda == 0 {
		ip.Lambda = 5
	}
}

func (ip *InputParametersMHD) Validate() (err error) {
	switch {
	case !(ip.FinalTime > 0):
		err = fmt.Errorf("FinalTime must be positive, have %g", ip.FinalTime)
	case !(ip.TimeStep > 0):
		err = fmt.Errorf("TimeStep must be positive, have %g", ip.TimeStep)
	case ip.Viscosity < 0 || ip.Resistivity < 0:
		err = fmt.Errorf("transport coefficients must not be negative, have viscosity %g, resistivity %g",
			ip.Viscosity, ip.Resistivity)
	case !(ip.XMax > ip.XMin) || !(ip.YMax > ip.YMin):
		err = fmt.Errorf("empty domain [%g,%g]x[%g,%g]", ip.XMin, ip.XMax, ip.YMin, ip.YMax)
	case ip.Nx < 1 || ip.Ny < 1:
		err = fmt.Errorf("Nx and Ny must be at least one, have %d, %d", ip.Nx, ip.Ny)
	}
	return
}

func (ip *InputParametersMHD) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("%8.5f\t\t= FinalTime\n", ip.FinalTime)
	fmt.Printf("%8.5f\t\t= TimeStep\n", ip.TimeStep)
	fmt.Printf("[%s]\t\t= Scheme\n", ip.Scheme)
	fmt.Printf("[%s]\t\t\t= InitType\n", ip.InitType)
	fmt.Printf("%8.5f\t\t= Viscosity\n", ip.Viscosity)
	fmt.Printf("%8.5f\t\t= Resistivity\n", ip.Resistivity)
	fmt.Printf("[%d x %d]\t\t= Mesh cells (when generated)\n", ip.Nx, ip.Ny)
	fmt.Printf("[%g,%g]x[%g,%g]\t= Domain\n", ip.XMin, ip.XMax, ip.YMin, ip.YMax)
	fmt.Printf("%v\t\t= Essential boundary markers\n", ip.EssentialBdr)
	fmt.Printf("%v\t\t\t= Use AMG\n", ip.UseAMG)
	fmt.Printf("[%s]\t\t= Newton preconditioner\n", ip.Preconditioner)
	fmt.Printf("%8.2e, %8.2e, %d\t= Newton rtol, atol, max iterations\n",
		ip.NewtonRelTol, ip.NewtonAbsTol, ip.NewtonMaxIter)
}
