package adjoint

import (
	"fmt"
	"math"

	"github.com/AcademicHacker/SU2/flow"
	"github.com/AcademicHacker/SU2/geometry"
	"github.com/AcademicHacker/SU2/utils"
)

type SpaceScheme uint8

const (
	JST SpaceScheme = iota
	ROE_1ST
	ROE_2ND
)

var SpaceSchemeNames = map[string]SpaceScheme{
	"JST":     JST,
	"ROE-1ST": ROE_1ST,
	"ROE-2ND": ROE_2ND,
}

func (s SpaceScheme) Print() (name string) {
	for n, v := range SpaceSchemeNames {
		if v == s {
			name = n
		}
	}
	return
}

func NewSpaceScheme(label string) SpaceScheme {
	s, ok := SpaceSchemeNames[label]
	if !ok {
		panic(fmt.Errorf("unknown space scheme %q", label))
	}
	return s
}

type TimeScheme uint8

const (
	RUNGE_KUTTA TimeScheme = iota
	EULER_EXPLICIT
	EULER_IMPLICIT
)

var TimeSchemeNames = map[string]TimeScheme{
	"RK":             RUNGE_KUTTA,
	"EULER-EXPLICIT": EULER_EXPLICIT,
	"EULER-IMPLICIT": EULER_IMPLICIT,
}

func (s TimeScheme) Print() (name string) {
	for n, v := range TimeSchemeNames {
		if v == s {
			name = n
		}
	}
	return
}

func NewTimeScheme(label string) TimeScheme {
	s, ok := TimeSchemeNames[label]
	if !ok {
		panic(fmt.Errorf("unknown time scheme %q", label))
	}
	return s
}

type LinearSolverKind uint8

const (
	SYM_GAUSS_SEIDEL LinearSolverKind = iota
	LU_SGS
	BCGSTAB
	GMRES
)

var LinearSolverNames = map[string]LinearSolverKind{
	"SGS":     SYM_GAUSS_SEIDEL,
	"LU-SGS":  LU_SGS,
	"BCGSTAB": BCGSTAB,
	"GMRES":   GMRES,
}

func NewLinearSolverKind(label string) LinearSolverKind {
	s, ok := LinearSolverNames[label]
	if !ok {
		panic(fmt.Errorf("unknown linear solver %q", label))
	}
	return s
}

type PreconKind uint8

const (
	NO_PREC PreconKind = iota
	JACOBI
	LINELET
)

var PreconNames = map[string]PreconKind{
	"NONE":    NO_PREC,
	"JACOBI":  JACOBI,
	"LINELET": LINELET,
}

func NewPreconKind(label string) PreconKind {
	s, ok := PreconNames[label]
	if !ok {
		panic(fmt.Errorf("unknown preconditioner %q", label))
	}
	return s
}

type DualTimeKind uint8

const (
	STEADY DualTimeKind = iota
	DUAL_TIME_1ST
	DUAL_TIME_2ND
)

type InletKind uint8

const (
	TOTAL_CONDITIONS InletKind = iota
	MASS_FLOW
)

var InletKindNames = map[string]InletKind{
	"TOTAL-CONDITIONS": TOTAL_CONDITIONS,
	"MASS-FLOW":        MASS_FLOW,
}

func NewInletKind(label string) InletKind {
	s, ok := InletKindNames[label]
	if !ok {
		panic(fmt.Errorf("unknown inlet kind %q", label))
	}
	return s
}

// InletSpec carries the per-marker inlet data: stagnation conditions or
// a target mass flow, plus the flow direction unit vector.
type InletSpec struct {
	Kind    InletKind
	PTotal  float64
	TTotal  float64
	FlowDir [3]float64
	// MASS_FLOW inlets specify density and velocity magnitude instead
	Density float64
	VelMag  float64
}

type OutletSpec struct {
	PExit float64
}

// NozzleSpec holds the stagnation state of a nacelle exhaust.
type NozzleSpec struct {
	PTotal float64
	TTotal float64
}

// Params collects the run controls of one adjoint solve.
type Params struct {
	Objective Objective
	Scheme    SpaceScheme
	TimeInt   TimeScheme

	Kappa2, Kappa4 float64 // JST dissipation
	CFL            float64
	RKAlpha        []float64 // stage coefficients

	LinSolver LinearSolverKind
	LinPrec   PreconKind
	LinTol    float64
	LinIter   int
	Linelets  [][]int // node chains for the linelet preconditioner

	DualTime DualTimeKind
	TimeStep float64 // physical step for dual time

	// Boundary data keyed by marker tag
	Inlets  map[string]InletSpec
	Outlets map[string]OutletSpec
	Nozzles map[string]NozzleSpec

	// Free-surface outlet closure (incompressible runs)
	RatioDensity         float64
	FreeSurfaceZero      float64
	FreeSurfaceThickness float64
	Froude               float64

	SensSmoothing bool
	Monitor       bool
}

func DefaultParams() Params {
	return Params{
		Objective: DRAG_COEFFICIENT,
		Scheme:    JST,
		TimeInt:   EULER_IMPLICIT,
		Kappa2:    0.5,
		Kappa4:    0.02,
		CFL:       4.0,
		RKAlpha:   []float64{0.66667, 0.66667, 1.0},
		LinSolver: LU_SGS,
		LinPrec:   JACOBI,
		LinTol:    1.e-6,
		LinIter:   100,
	}
}

// Solver drives the adjoint equations over a frozen primal field.
type Solver struct {
	Msh  *geometry.Mesh
	Flow *flow.Field
	Phys *flow.Physics
	Mode flow.Mode
	Par  Params

	NDim, NVar int
	S          *Store

	Jac       *utils.BlockSparse // implicit system matrix
	rhs, xsol []float64

	Exch Exchanger

	// ExtIter counts completed pseudo-time iterations.
	ExtIter int

	// Surface and far-field sensitivities, recomputed per evaluation
	CSensitivity                                             [][]float64
	SensGeo, SensMach, SensAoA, SensPress, SensTemp          []float64
	TotalSensGeo, TotalSensMach, TotalSensAoA                float64
	TotalSensPress, TotalSensTemp                            float64

	// Per-edge scratch blocks
	jacA, jacB, absA, scratch []float64
}

func NewSolver(fld *flow.Field, par Params) (sv *Solver) {
	var (
		msh  = fld.Msh
		nVar = fld.NVar
	)
	sv = &Solver{
		Msh:  msh,
		Flow: fld,
		Phys: fld.Phys,
		Mode: fld.Mode,
		Par:  par,
		NDim: msh.NDim,
		NVar: nVar,
		S:    NewStore(msh.NNodes(), nVar, msh.NDim),
		Exch: NewSerialExchange(msh, nVar),

		jacA:    make([]float64, nVar*nVar),
		jacB:    make([]float64, nVar*nVar),
		absA:    make([]float64, nVar*nVar),
		scratch: make([]float64, nVar*nVar),
	}
	if par.TimeInt == EULER_IMPLICIT || sv.Mode.DiscreteAdjoint {
		sv.Jac = utils.NewBlockSparse(msh.NNodes(), nVar, msh.BlockAddresses())
		sv.rhs = make([]float64, msh.NNodes()*nVar)
		sv.xsol = make([]float64, msh.NNodes()*nVar)
	}
	sv.CSensitivity = make([][]float64, len(msh.Markers))
	for im, m := range msh.Markers {
		sv.CSensitivity[im] = make([]float64, len(m.Vertices))
	}
	sv.SensGeo = make([]float64, len(msh.Markers))
	sv.SensMach = make([]float64, len(msh.Markers))
	sv.SensAoA = make([]float64, len(msh.Markers))
	sv.SensPress = make([]float64, len(msh.Markers))
	sv.SensTemp = make([]float64, len(msh.Markers))
	return
}

// Preprocessing readies one pseudo-time iteration: residuals cleared,
// adjoint gradients refreshed, the centered scheme's sensor and
// undivided Laplacian rebuilt, the implicit matrix zeroed.
func (sv *Solver) Preprocessing() {
	sv.S.ZeroResiduals()
	sv.ComputeGradients()
	if sv.Par.Scheme == JST {
		sv.SetUndividedLaplacian()
		sv.SetDissipationSwitch()
	}
	if sv.Jac != nil {
		sv.Jac.Zero()
	}
}

// Iterate advances one pseudo-time step and returns the density-adjoint
// RMS residual.
func (sv *Solver) Iterate() (rms float64) {
	sv.Flow.ComputeTimeStep(sv.Par.CFL)
	switch sv.Par.TimeInt {
	case RUNGE_KUTTA:
		for iStep := range sv.Par.RKAlpha {
			if iStep == 0 {
				sv.S.SetSolutionOld()
			}
			sv.Preprocessing()
			sv.SpaceIntegration(iStep == 0)
			sv.BoundaryConditions()
			sv.ExplicitRKIteration(iStep)
		}
	case EULER_EXPLICIT:
		sv.S.SetSolutionOld()
		sv.Preprocessing()
		sv.SpaceIntegration(true)
		sv.BoundaryConditions()
		sv.ExplicitEulerIteration()
	case EULER_IMPLICIT:
		sv.S.SetSolutionOld()
		sv.Preprocessing()
		sv.SpaceIntegration(true)
		sv.BoundaryConditions()
		if sv.Par.DualTime != STEADY {
			sv.DualTimeResidual()
		}
		if sv.Mode.DiscreteAdjoint {
			sv.SolveLinearSystem()
		} else {
			sv.ImplicitEulerIteration()
		}
	}
	sv.ExtIter++
	return sv.RMS(0)
}

// RMS returns the root mean square residual of variable iVar from the
// last iteration.
func (sv *Solver) RMS(iVar int) float64 {
	return math.Sqrt(sv.S.ResRMS[iVar] / float64(sv.S.NNodes))
}

// PrintUpdate writes one residual-table line.
func (sv *Solver) PrintUpdate(iter int) {
	fmt.Printf("%8d", iter)
	for iVar := 0; iVar < sv.NVar; iVar++ {
		fmt.Printf(" %12.6e", math.Log10(sv.RMS(iVar)+1.e-30))
	}
	fmt.Printf("   max %10.4e @ %d\n", sv.S.ResMax[0], sv.S.ResMaxPoint[0])
}
