package adjoint

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AcademicHacker/SU2/flow"
	"github.com/AcademicHacker/SU2/geometry"
)

func TestSolveTransposed(t *testing.T) {
	var (
		n  = 3
		a  = []float64{2, 1, 0, 0, 3, 1, 1, 0, 4}
		b  = []float64{1, 2, 3}
		b0 = []float64{1, 2, 3}
	)
	solveTransposed(a, b, n)
	// Check A^T x = b against the original right hand side
	for i := 0; i < n; i++ {
		var sum float64
		for j := 0; j < n; j++ {
			sum += a[j*n+i] * b[j]
		}
		assert.InDeltaf(t, b0[i], sum, 1.e-12, "row %d", i)
	}
}

// A constant surface sensitivity is a fixed point of the implicit
// Laplacian filter: the stencil row sums vanish.
func TestSmoothSensitivityConstantFixedPoint(t *testing.T) {
	sv := testSolver(12, geometry.EULER_WALL, flow.Mode{}, DefaultParams())
	const level = 0.37
	for im, m := range sv.Msh.Markers {
		if m.Kind != geometry.EULER_WALL {
			continue
		}
		for iv := range m.Vertices {
			sv.CSensitivity[im][iv] = level
		}
	}
	sv.SmoothSensitivity()
	for im, m := range sv.Msh.Markers {
		if m.Kind != geometry.EULER_WALL {
			continue
		}
		for iv := range m.Vertices {
			assert.InDeltaf(t, level, sv.CSensitivity[im][iv], 1.e-10,
				"marker %d vertex %d", im, iv)
		}
	}
}

func TestSmoothSensitivityPinsMidArc(t *testing.T) {
	sv := testSolver(12, geometry.EULER_WALL, flow.Mode{}, DefaultParams())
	for im, m := range sv.Msh.Markers {
		if m.Kind != geometry.EULER_WALL {
			continue
		}
		for iv := range m.Vertices {
			sv.CSensitivity[im][iv] = math.Pow(-1, float64(iv)) * 0.5
		}
		var (
			mid    = len(m.Vertices) / 2
			pinned = sv.CSensitivity[im][mid]
		)
		sv.SmoothSensitivity()
		assert.InDelta(t, pinned, sv.CSensitivity[im][mid], 1.e-10)
		for iv := range m.Vertices {
			v := sv.CSensitivity[im][iv]
			assert.Falsef(t, math.IsNaN(v) || math.IsInf(v, 0), "vertex %d", iv)
		}
	}
}

// The drag of a symmetric body at zero angle of attack is stationary
// in alpha: the explicit wall contributions of the two mirrored walls
// cancel and the far-field terms vanish with a zero adjoint.
func TestTotalSensAoASymmetric(t *testing.T) {
	var (
		msh = geometry.NewCartesianMesh(geometry.CartesianSpec{
			Nx: 6, Ny: 6, Lx: 1, Ly: 1,
			Left:   geometry.FAR_FIELD,
			Right:  geometry.FAR_FIELD,
			Bottom: geometry.EULER_WALL,
			Top:    geometry.EULER_WALL,
		})
		phys = flow.NewPhysics()
		fs   = flow.NewFreeStream(phys, 2, 0.8, 0, 0)
		fld  = flow.NewField(msh, phys, flow.Mode{}, fs)
	)
	fld.ComputeGradients()
	sv := NewSolver(fld, DefaultParams())
	sv.SetForceProjVector(ForceCoefficients{Cd: 0.02, Cl: 0., Ct: 1, Cq: 1})
	sv.Preprocessing()
	sv.InviscidSensitivity()
	assert.InDelta(t, 0., sv.TotalSensAoA, 1.e-12)
}

// With the adjoint at zero the surface sensitivity reduces to the force
// projection term alone, which is finite on every wall vertex.
func TestInviscidSensitivityFinite(t *testing.T) {
	sv := testSolver(6, geometry.EULER_WALL, flow.Mode{}, DefaultParams())
	sv.SetForceProjVector(ForceCoefficients{Cd: 0.02, Cl: 0.4, Ct: 1, Cq: 1})
	sv.Preprocessing()
	sv.InviscidSensitivity()
	for im, m := range sv.Msh.Markers {
		if !m.Monitored {
			continue
		}
		for iv := range m.Vertices {
			v := sv.CSensitivity[im][iv]
			assert.Falsef(t, math.IsNaN(v) || math.IsInf(v, 0),
				"marker %d vertex %d", im, iv)
		}
	}
	assert.False(t, math.IsNaN(sv.TotalSensGeo))
	assert.False(t, math.IsNaN(sv.TotalSensMach))
	assert.False(t, math.IsNaN(sv.TotalSensAoA))
}
