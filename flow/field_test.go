package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AcademicHacker/SU2/geometry"
)

func boxMesh(n int) *geometry.Mesh {
	return geometry.NewCartesianMesh(geometry.CartesianSpec{
		Nx: n, Ny: n, Lx: 1, Ly: 1,
		Left:   geometry.FAR_FIELD,
		Right:  geometry.FAR_FIELD,
		Bottom: geometry.EULER_WALL,
		Top:    geometry.FAR_FIELD,
	})
}

func TestFreeStreamState(t *testing.T) {
	var (
		phys = NewPhysics()
		fs   = NewFreeStream(phys, 2, 0.8, 1.25, 0)
	)
	// |V| = 1 by construction
	assert.InDeltaf(t, 1., fs.Velocity[0]*fs.Velocity[0]+fs.Velocity[1]*fs.Velocity[1],
		1.e-14, "free stream velocity magnitude")
	// P = 1/(Gamma M^2) recovers the free stream Mach
	assert.InDeltaf(t, 0.8, 1./(fs.SoundSpeed), 1.e-12, "mach from sound speed")

	f := NewField(boxMesh(5), phys, Mode{}, fs)
	assert.InDeltaf(t, fs.Pressure, f.Pressure(7), 1.e-14, "pressure at free stream")
	assert.InDeltaf(t, fs.SoundSpeed, f.SoundSpeed(7), 1.e-14, "sound speed at free stream")
	assert.InDeltaf(t, fs.Energy+fs.Pressure/fs.Density, f.Enthalpy(7), 1.e-14, "enthalpy")
}

func TestGreenGaussExactForLinearField(t *testing.T) {
	var (
		msh  = boxMesh(7)
		phys = NewPhysics()
		fs   = NewFreeStream(phys, 2, 0.5, 0, 0)
		f    = NewField(msh, phys, Mode{}, fs)
	)
	// U_iVar = a*x + b*y + c, different slopes per variable
	slopes := [][2]float64{{1.0, -0.5}, {0.25, 2.0}, {-1.5, 0.75}, {3.0, 1.0}}
	for i := 0; i < msh.NNodes(); i++ {
		x, y := msh.Nodes[i].Coord[0], msh.Nodes[i].Coord[1]
		for iVar := 0; iVar < f.NVar; iVar++ {
			f.U[i*f.NVar+iVar] = slopes[iVar][0]*x + slopes[iVar][1]*y + 2.0
		}
	}
	f.ComputeGradients()
	// Interior dual volumes reproduce the slopes exactly
	for i := 0; i < msh.NNodes(); i++ {
		if msh.PhysicalBoundary(i) {
			continue
		}
		for iVar := 0; iVar < f.NVar; iVar++ {
			assert.InDeltaf(t, slopes[iVar][0], f.GradCons(i, iVar, 0), 1.e-11, "d/dx var %d node %d", iVar, i)
			assert.InDeltaf(t, slopes[iVar][1], f.GradCons(i, iVar, 1), 1.e-11, "d/dy var %d node %d", iVar, i)
		}
	}
}

func TestLocalTimeStep(t *testing.T) {
	var (
		msh  = boxMesh(5)
		phys = NewPhysics()
		fs   = NewFreeStream(phys, 2, 0.5, 0, 0)
		f    = NewField(msh, phys, Mode{}, fs)
	)
	f.ComputeTimeStep(2.5)
	for i := 0; i < msh.NNodes(); i++ {
		assert.Truef(t, f.DeltaT[i] > 0, "time step at node %d", i)
	}
	// Uniform free stream on a uniform interior: interior steps agree
	var ref float64
	for i := 0; i < msh.NNodes(); i++ {
		if msh.PhysicalBoundary(i) {
			continue
		}
		if ref == 0 {
			ref = f.DeltaT[i]
			continue
		}
		assert.InDeltaf(t, ref, f.DeltaT[i], 1.e-12, "interior time step at node %d", i)
	}
}
