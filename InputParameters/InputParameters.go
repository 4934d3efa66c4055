package InputParameters

import (
	"fmt"
	"sort"

	"github.com/ghodss/yaml"
)

// Parameters obtained from the YAML input file
type AdjointParameters struct {
	Title     string `yaml:"Title"`
	Objective string `yaml:"Objective"` // DRAG, LIFT, EQUIVALENT_AREA, ...
	Scheme    string `yaml:"Scheme"`    // JST, ROE-1ST, ROE-2ND
	TimeInt   string `yaml:"TimeInt"`   // RK, EULER-EXPLICIT, EULER-IMPLICIT

	CFL            float64 `yaml:"CFL"`
	Kappa2         float64 `yaml:"Kappa2"`
	Kappa4         float64 `yaml:"Kappa4"`
	MaxIterations  int     `yaml:"MaxIterations"`
	ConvergenceTol float64 `yaml:"ConvergenceTol"`

	LinearSolver   string  `yaml:"LinearSolver"` // SGS, LU-SGS, BCGSTAB, GMRES
	Preconditioner string  `yaml:"Preconditioner"`
	LinearTol      float64 `yaml:"LinearTol"`
	LinearIter     int     `yaml:"LinearIter"`

	Mach  float64 `yaml:"Mach"`
	Alpha float64 `yaml:"Alpha"`
	Beta  float64 `yaml:"Beta"`
	Gamma float64 `yaml:"Gamma"`

	Incompressible  bool `yaml:"Incompressible"`
	Viscous         bool `yaml:"Viscous"`
	Axisymmetric    bool `yaml:"Axisymmetric"`
	RotatingFrame   bool `yaml:"RotatingFrame"`
	DiscreteAdjoint bool `yaml:"DiscreteAdjoint"`
	SensSmoothing   bool `yaml:"SensSmoothing"`

	DualTime string  `yaml:"DualTime"` // NONE, BDF1, BDF2
	TimeStep float64 `yaml:"TimeStep"`

	FlowRestart string `yaml:"FlowRestart"`
	Restart     bool   `yaml:"Restart"` // resume from a previous adjoint restart file

	// Converged primal force totals, needed by the ratio objectives
	// (efficiency, figure of merit) and the blended nearfield objectives
	Cd       float64 `yaml:"Cd"`
	Cl       float64 `yaml:"Cl"`
	Ct       float64 `yaml:"Ct"`
	Cq       float64 `yaml:"Cq"`
	WeightCd float64 `yaml:"WeightCd"`

	// Free-surface outlet closure (incompressible runs)
	RatioDensity         float64 `yaml:"RatioDensity"`
	FreeSurfaceZero      float64 `yaml:"FreeSurfaceZero"`
	FreeSurfaceThickness float64 `yaml:"FreeSurfaceThickness"`
	Froude               float64 `yaml:"Froude"`

	// Boundary data keyed by marker tag
	Inlets  map[string]InletData  `yaml:"Inlets"`
	Outlets map[string]OutletData `yaml:"Outlets"`
	Nozzles map[string]NozzleData `yaml:"Nozzles"`
}

type InletData struct {
	Kind    string     `yaml:"Kind"` // TOTAL-CONDITIONS or MASS-FLOW
	PTotal  float64    `yaml:"PTotal"`
	TTotal  float64    `yaml:"TTotal"`
	FlowDir [3]float64 `yaml:"FlowDir"`
	Density float64    `yaml:"Density"`
	VelMag  float64    `yaml:"VelMag"`
}

type OutletData struct {
	PExit float64 `yaml:"PExit"`
}

type NozzleData struct {
	PTotal float64 `yaml:"PTotal"`
	TTotal float64 `yaml:"TTotal"`
}

func (ip *AdjointParameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, ip)
}

func (ip *AdjointParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("[%s]\t\t\t= Objective\n", ip.Objective)
	fmt.Printf("[%s]\t\t\t= Scheme\n", ip.Scheme)
	fmt.Printf("[%s]\t= TimeInt\n", ip.TimeInt)
	fmt.Printf("%8.5f\t\t= CFL\n", ip.CFL)
	fmt.Printf("%8.5f\t\t= Mach\n", ip.Mach)
	fmt.Printf("%8.5f\t\t= Alpha\n", ip.Alpha)
	fmt.Printf("[%d]\t\t\t\t= MaxIterations\n", ip.MaxIterations)
	keys := make([]string, 0, len(ip.Inlets)+len(ip.Outlets)+len(ip.Nozzles))
	for k := range ip.Inlets {
		keys = append(keys, fmt.Sprintf("Inlet[%s] = %+v", k, ip.Inlets[k]))
	}
	for k := range ip.Outlets {
		keys = append(keys, fmt.Sprintf("Outlet[%s] = %+v", k, ip.Outlets[k]))
	}
	for k := range ip.Nozzles {
		keys = append(keys, fmt.Sprintf("Nozzle[%s] = %+v", k, ip.Nozzles[k]))
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("BC %s\n", key)
	}
}
