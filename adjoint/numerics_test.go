package adjoint

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// The Euler flux is homogeneous of degree one: F(U).n = A(U,n) U.
func TestProjJacHomogeneity(t *testing.T) {
	var (
		gamma  = 1.4
		nDim   = 2
		nVar   = nDim + 2
		u      = []float64{1.2, 0.9, -0.3, 2.6}
		normal = []float64{0.4, -1.1}
		vel    = make([]float64, nDim)
		jac    = make([]float64, nVar*nVar)
		au     = make([]float64, nVar)
	)
	density, enthalpy, _ := ConservativeState(gamma, u, vel, nDim)
	InviscidProjJac(gamma, vel, enthalpy, normal, 1.0, jac, nDim)
	Mul(jac, nVar, u, au)

	var (
		pv       float64
		pressure = density * enthalpy - u[nVar-1] // rho*H = rho*E + p
	)
	for iDim := 0; iDim < nDim; iDim++ {
		pv += vel[iDim] * normal[iDim]
	}
	assert.InDelta(t, u[0]*pv, au[0], 1.e-12)
	for iDim := 0; iDim < nDim; iDim++ {
		assert.InDeltaf(t, u[iDim+1]*pv+pressure*normal[iDim], au[iDim+1], 1.e-12,
			"momentum flux %d", iDim)
	}
	assert.InDelta(t, density*enthalpy*pv, au[nVar-1], 1.e-12)
}

// For a supersonic projected velocity every eigenvalue is positive and
// |A| collapses to A itself.
func TestAbsProjJacSupersonicLimit(t *testing.T) {
	var (
		gamma = 1.4
		nDim  = 2
		nVar  = nDim + 2
		// Mach 3 along the normal
		vel  = []float64{3.0, 0.2}
		unit = []float64{1.0, 0.0}
		area = 2.5
	)
	var (
		soundSpeed = 1.0
		sq         = vel[0]*vel[0] + vel[1]*vel[1]
		enthalpy   = soundSpeed*soundSpeed/(gamma-1) + 0.5*sq
		normal     = []float64{unit[0] * area, unit[1] * area}
		a          = make([]float64, nVar*nVar)
		absA       = make([]float64, nVar*nVar)
	)
	InviscidProjJac(gamma, vel, enthalpy, normal, 1.0, a, nDim)
	AbsProjJac(gamma, 1.0, vel, enthalpy, soundSpeed, unit, area, absA, nDim)
	for k := 0; k < nVar*nVar; k++ {
		assert.InDeltaf(t, a[k], absA[k], 1.e-10, "entry %d", k)
	}
}

func TestDUdVTransformation(t *testing.T) {
	var (
		gamma   = 1.4
		nDim    = 2
		nVar    = nDim + 2
		density = 1.3
		vel     = []float64{0.7, -0.4}
		m       = make([]float64, nVar*nVar)
	)
	DUdV(gamma, density, vel, m, nDim)
	// A density perturbation at fixed velocity and pressure
	dU := make([]float64, nVar)
	Mul(m, nVar, []float64{1, 0, 0, 0}, dU)
	assert.InDelta(t, 1., dU[0], 1.e-14)
	assert.InDelta(t, vel[0], dU[1], 1.e-14)
	assert.InDelta(t, vel[1], dU[2], 1.e-14)
	assert.InDelta(t, 0.5*(vel[0]*vel[0]+vel[1]*vel[1]), dU[3], 1.e-14)
	// A pressure perturbation feeds only the energy
	for i := range dU {
		dU[i] = 0
	}
	Mul(m, nVar, []float64{0, 0, 0, 1}, dU)
	assert.InDelta(t, 0., dU[0], 1.e-14)
	assert.InDelta(t, 1./(gamma-1.), dU[3], 1.e-14)
}

func TestMulTransposed(t *testing.T) {
	var (
		a = []float64{1, 2, 3, 4}
		x = []float64{1, -1}
		y = make([]float64, 2)
	)
	MulTransposed(a, 2, x, y)
	// A^T x = [1-3, 2-4]
	assert.InDelta(t, -2., y[0], 1.e-14)
	assert.InDelta(t, -2., y[1], 1.e-14)
}

func TestConservativeState(t *testing.T) {
	var (
		gamma = 1.4
		u     = []float64{2.0, 1.0, 0.0, 5.0}
		vel   = make([]float64, 2)
	)
	density, enthalpy, soundSpeed := ConservativeState(gamma, u, vel, 2)
	assert.InDelta(t, 2.0, density, 1.e-14)
	assert.InDelta(t, 0.5, vel[0], 1.e-14)
	var (
		energy   = u[3] / density
		pressure = (gamma - 1) * density * (energy - 0.5*vel[0]*vel[0])
	)
	assert.InDelta(t, energy+pressure/density, enthalpy, 1.e-14)
	assert.InDelta(t, math.Sqrt(gamma*pressure/density), soundSpeed, 1.e-14)
}
