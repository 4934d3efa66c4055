package adjoint

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AcademicHacker/SU2/flow"
	"github.com/AcademicHacker/SU2/geometry"
)

func TestAdjointRestartName(t *testing.T) {
	assert.Equal(t, "solution_flow_cd.dat",
		AdjointRestartName("solution_flow.dat", DRAG_COEFFICIENT))
	assert.Equal(t, "solution_flow_cl.dat",
		AdjointRestartName("solution_flow.dat", LIFT_COEFFICIENT))
	assert.Equal(t, "restart_ea.dat",
		AdjointRestartName("restart.dat", EQUIVALENT_AREA))
	assert.Panics(t, func() { AdjointRestartName("x", DRAG_COEFFICIENT) })
}

func TestRestartRoundTrip(t *testing.T) {
	var (
		flowFile = filepath.Join(t.TempDir(), "solution_flow.dat")
		sv       = testSolver(5, geometry.EULER_WALL, flow.Mode{}, DefaultParams())
	)
	for i := 0; i < sv.Msh.NNodes(); i++ {
		for iVar := 0; iVar < sv.NVar; iVar++ {
			sv.S.Psi(i)[iVar] = math.Sin(float64(i*sv.NVar+iVar)) * 1.e-3
		}
	}
	assert.NoError(t, sv.WriteRestart(flowFile))

	sv2 := testSolver(5, geometry.EULER_WALL, flow.Mode{}, DefaultParams())
	sv2.ReadRestart(flowFile)
	for i := 0; i < sv.Msh.NNodes(); i++ {
		for iVar := 0; iVar < sv.NVar; iVar++ {
			assert.InDeltaf(t, sv.S.Psi(i)[iVar], sv2.S.Psi(i)[iVar], 1.e-15,
				"node %d var %d", i, iVar)
			// ReadRestart resets the old solution as well
			assert.InDeltaf(t, sv.S.Psi(i)[iVar], sv2.S.PsiOld(i)[iVar], 1.e-15,
				"node %d var %d old", i, iVar)
		}
	}
}

func TestReadRestartMissingFileFatal(t *testing.T) {
	sv := testSolver(5, geometry.EULER_WALL, flow.Mode{}, DefaultParams())
	assert.Panics(t, func() {
		sv.ReadRestart(filepath.Join(t.TempDir(), "absent_flow.dat"))
	})
}

func TestReadRestartMalformedFatal(t *testing.T) {
	var (
		dir      = t.TempDir()
		flowFile = filepath.Join(dir, "solution_flow.dat")
		adjFile  = AdjointRestartName(flowFile, DRAG_COEFFICIENT)
		sv       = testSolver(5, geometry.EULER_WALL, flow.Mode{}, DefaultParams())
	)
	content := "header line\n0 not a number at all\n"
	assert.NoError(t, os.WriteFile(adjFile, []byte(content), 0644))
	assert.Panics(t, func() { sv.ReadRestart(flowFile) })
}
