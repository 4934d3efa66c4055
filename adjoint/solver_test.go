package adjoint

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AcademicHacker/SU2/flow"
	"github.com/AcademicHacker/SU2/geometry"
)

// channelMesh is a box with a wall on the bottom and far field elsewhere
func channelMesh(n int, wall geometry.BCKind) *geometry.Mesh {
	return geometry.NewCartesianMesh(geometry.CartesianSpec{
		Nx: n, Ny: n, Lx: 1, Ly: 1,
		Left:   geometry.FAR_FIELD,
		Right:  geometry.FAR_FIELD,
		Bottom: wall,
		Top:    geometry.FAR_FIELD,
	})
}

func testSolver(n int, wall geometry.BCKind, mode flow.Mode, par Params) *Solver {
	var (
		msh  = channelMesh(n, wall)
		phys = flow.NewPhysics()
		fs   = flow.NewFreeStream(phys, 2, 0.8, 0, 0)
		fld  = flow.NewField(msh, phys, mode, fs)
	)
	fld.ComputeGradients()
	return NewSolver(fld, par)
}

func TestZeroAdjointHasZeroResidual(t *testing.T) {
	sv := testSolver(6, geometry.EULER_WALL, flow.Mode{}, DefaultParams())
	sv.Preprocessing()
	sv.SpaceIntegration(true)
	for i := 0; i < sv.Msh.NNodes(); i++ {
		for iVar := 0; iVar < sv.NVar; iVar++ {
			assert.Zerof(t, sv.S.Residual(i, iVar), "node %d var %d", i, iVar)
		}
	}
}

// A constant adjoint over a constant flow state telescopes to the
// boundary: the interior residual of the linear flux part vanishes.
func TestConstantAdjointFreeStream(t *testing.T) {
	var (
		sv  = testSolver(7, geometry.EULER_WALL, flow.Mode{}, DefaultParams())
		psi = []float64{0.3, -0.1, 0.2, 0.05}
	)
	for i := 0; i < sv.Msh.NNodes(); i++ {
		copy(sv.S.Psi(i), psi)
	}
	sv.Preprocessing()
	sv.SpaceIntegration(true)
	for i := 0; i < sv.Msh.NNodes(); i++ {
		if sv.Msh.PhysicalBoundary(i) {
			continue
		}
		for iVar := 0; iVar < sv.NVar; iVar++ {
			assert.InDeltaf(t, 0., sv.S.Residual(i, iVar), 1.e-12,
				"interior node %d var %d", i, iVar)
		}
	}
}

// Every edge scatters equal and opposite linear flux contributions when
// both endpoints carry the same flow state, so the convective residual
// sums to zero over the whole mesh without dissipation.
func TestCenteredFluxAntisymmetry(t *testing.T) {
	sv := testSolver(6, geometry.EULER_WALL, flow.Mode{}, DefaultParams())
	for i := 0; i < sv.Msh.NNodes(); i++ {
		x, y := sv.Msh.Nodes[i].Coord[0], sv.Msh.Nodes[i].Coord[1]
		for iVar := 0; iVar < sv.NVar; iVar++ {
			sv.S.Psi(i)[iVar] = math.Cos(float64(iVar+1)*x) - 0.3*y
		}
	}
	sv.Preprocessing()
	sv.CenteredResidual(false)
	for iVar := 0; iVar < sv.NVar; iVar++ {
		var sum float64
		for i := 0; i < sv.Msh.NNodes(); i++ {
			sum += sv.S.Residual(i, iVar)
		}
		assert.InDeltaf(t, 0., sum, 1.e-10, "var %d", iVar)
	}
}

func TestResidualAssemblyDeterministic(t *testing.T) {
	sv := testSolver(5, geometry.EULER_WALL, flow.Mode{}, DefaultParams())
	sv.SetForceProjVector(ForceCoefficients{Cd: 0.02, Cl: 0.4, Ct: 1, Cq: 1})
	for i := 0; i < sv.Msh.NNodes(); i++ {
		x, y := sv.Msh.Nodes[i].Coord[0], sv.Msh.Nodes[i].Coord[1]
		for iVar := 0; iVar < sv.NVar; iVar++ {
			sv.S.Psi(i)[iVar] = math.Sin(float64(iVar+1)*x) + 0.5*y
		}
	}
	assemble := func() (res []float64) {
		sv.Preprocessing()
		sv.SpaceIntegration(true)
		sv.BoundaryConditions()
		res = make([]float64, sv.Msh.NNodes()*sv.NVar)
		for i := 0; i < sv.Msh.NNodes(); i++ {
			for iVar := 0; iVar < sv.NVar; iVar++ {
				res[i*sv.NVar+iVar] = sv.S.Residual(i, iVar)
			}
		}
		return
	}
	first := assemble()
	second := assemble()
	assert.Equal(t, first, second)
}

func TestImplicitIterationBounded(t *testing.T) {
	sv := testSolver(5, geometry.EULER_WALL, flow.Mode{}, DefaultParams())
	sv.SetForceProjVector(ForceCoefficients{Cd: 0.02, Cl: 0.4, Ct: 1, Cq: 1})
	var rms float64
	for iter := 0; iter < 5; iter++ {
		rms = sv.Iterate()
		assert.Falsef(t, math.IsNaN(rms) || math.IsInf(rms, 0), "rms at iteration %d", iter)
	}
	for i := range sv.S.Solution {
		v := sv.S.Solution[i]
		assert.Falsef(t, math.IsNaN(v) || math.IsInf(v, 0), "solution entry %d", i)
	}
}

// With a pure diagonal system matrix the discrete solve reduces to a
// row-wise division of the objective source.
func TestSolveLinearSystemDiagonal(t *testing.T) {
	var (
		sv   = testSolver(4, geometry.EULER_WALL, flow.Mode{DiscreteAdjoint: true}, DefaultParams())
		nVar = sv.NVar
	)
	sv.Jac.Zero()
	for i := 0; i < sv.Msh.NNodes(); i++ {
		sv.Jac.AddToDiag(i, 2.0)
		for iVar := 0; iVar < nVar; iVar++ {
			sv.S.ObjFuncSource[i*nVar+iVar] = 0.1 * float64(i+1) * float64(iVar+1)
		}
	}
	sv.S.SetSolutionOld()
	sv.SolveLinearSystem()
	for i := 0; i < sv.Msh.NNodes(); i++ {
		for iVar := 0; iVar < nVar; iVar++ {
			k := i*nVar + iVar
			assert.InDeltaf(t, 0.5*sv.S.ObjFuncSource[k], sv.S.Solution[k], 1.e-12,
				"node %d var %d", i, iVar)
		}
	}
}

// The discrete wall condition projects dP/dU onto the d vector, so a
// lift objective seeds a nonzero objective source on the lower wall.
func TestDiscreteAdjointWallSource(t *testing.T) {
	par := DefaultParams()
	par.Objective = LIFT_COEFFICIENT
	par.Scheme = ROE_1ST
	sv := testSolver(5, geometry.EULER_WALL, flow.Mode{DiscreteAdjoint: true}, par)
	sv.SetForceProjVector(ForceCoefficients{Cd: 0.02, Cl: 0.4, Ct: 1, Cq: 1})
	sv.Flow.ComputeTimeStep(sv.Par.CFL)
	sv.Preprocessing()
	sv.SpaceIntegration(true)
	sv.BoundaryConditions()
	for _, m := range sv.Msh.Markers {
		if m.Kind != geometry.EULER_WALL {
			continue
		}
		for _, v := range m.Vertices {
			assert.NotZero(t, sv.S.ObjFuncSource[v.Node*sv.NVar+sv.NVar-1])
		}
	}
	rms := sv.Iterate()
	assert.False(t, math.IsNaN(rms) || math.IsInf(rms, 0))
	for i := range sv.S.Solution {
		v := sv.S.Solution[i]
		assert.Falsef(t, math.IsNaN(v) || math.IsInf(v, 0), "solution entry %d", i)
	}
}

// Halo rows enter the implicit system with a zero right hand side, so
// the owned-node increments do not depend on whatever the halo residual
// buffers hold.
func TestImplicitHaloResidualExcluded(t *testing.T) {
	run := func(poison bool) *Solver {
		sv := testSolver(5, geometry.EULER_WALL, flow.Mode{}, DefaultParams())
		var (
			halo = sv.Msh.NNodes() / 2
			nVar = sv.NVar
		)
		sv.Msh.Nodes[halo].Domain = false
		for i := 0; i < sv.Msh.NNodes(); i++ {
			for iVar := 0; iVar < nVar; iVar++ {
				sv.S.Solution[i*nVar+iVar] = 0.01 * float64(i%7) * float64(iVar+1)
			}
		}
		if poison {
			for iVar := 0; iVar < nVar; iVar++ {
				sv.S.TruncError[halo*nVar+iVar] = 1.e6
			}
		}
		sv.Flow.ComputeTimeStep(sv.Par.CFL)
		sv.S.SetSolutionOld()
		sv.Preprocessing()
		sv.SpaceIntegration(true)
		sv.BoundaryConditions()
		sv.ImplicitEulerIteration()
		return sv
	}
	var (
		clean    = run(false)
		poisoned = run(true)
		halo     = clean.Msh.NNodes() / 2
	)
	for i := 0; i < clean.Msh.NNodes(); i++ {
		if i == halo {
			continue
		}
		for iVar := 0; iVar < clean.NVar; iVar++ {
			k := i*clean.NVar + iVar
			assert.Equalf(t, clean.S.Solution[k], poisoned.S.Solution[k], "node %d var %d", i, iVar)
		}
	}
}

func TestExplicitRKIterationBounded(t *testing.T) {
	par := DefaultParams()
	par.TimeInt = RUNGE_KUTTA
	par.CFL = 1.0
	sv := testSolver(5, geometry.EULER_WALL, flow.Mode{}, par)
	sv.SetForceProjVector(ForceCoefficients{Cd: 0.02, Cl: 0.4, Ct: 1, Cq: 1})
	for iter := 0; iter < 3; iter++ {
		rms := sv.Iterate()
		assert.Falsef(t, math.IsNaN(rms) || math.IsInf(rms, 0), "rms at iteration %d", iter)
	}
}
