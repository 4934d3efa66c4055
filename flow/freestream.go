package flow

import (
	"fmt"
	"math"
)

/*
Free-stream reference state, non-dimensionalized the usual way:
	rho_inf = 1, |V_inf| = 1, P_inf = 1/(Gamma*Mach^2)
so the free-stream Mach number survives non-dimensionalization and the
force coefficients use RefDensity = 1, RefVel2 = 1 unless a rotating
reference frame overrides them with the rotor-disk values.
*/
type FreeStream struct {
	Mach     float64
	AlphaDeg float64 // angle of attack
	BetaDeg  float64 // sideslip, 3D only

	Density     float64
	Pressure    float64
	Temperature float64
	Velocity    [3]float64
	Energy      float64
	SoundSpeed  float64
	Viscosity   float64

	// Force coefficient references
	RefArea         float64
	RefLengthMoment float64
	RefOriginMoment [3]float64
	RefDensity      float64
	RefVel2         float64

	// Equivalent-area / nearfield-pressure weighting: the objective is
	// blended with drag, WeightCd on the drag part.
	WeightCd float64
	// Constant viscous drag added to the drag force projection
	CteViscDrag float64

	// Rotating frame reference (rotor disk)
	RotRadius float64
	OmegaMag  float64
	RotOmega  [3]float64 // angular velocity vector
	RotOrigin [3]float64 // rotation axis origin
}

func (fs *FreeStream) Alpha() float64 { return fs.AlphaDeg * math.Pi / 180. }
func (fs *FreeStream) Beta() float64  { return fs.BetaDeg * math.Pi / 180. }

// NewFreeStream fills the derived quantities for a given Mach and flow
// angles. Reynolds-dependent viscosity is left at the configured value.
func NewFreeStream(phys *Physics, nDim int, mach, alphaDeg, betaDeg float64) (fs *FreeStream) {
	fs = &FreeStream{
		Mach:            mach,
		AlphaDeg:        alphaDeg,
		BetaDeg:         betaDeg,
		Density:         1.,
		RefArea:         1.,
		RefLengthMoment: 1.,
		RefDensity:      1.,
		RefVel2:         1.,
		WeightCd:        0.,
	}
	if mach <= 0. {
		panic(fmt.Errorf("free stream Mach number must be positive, got %g", mach))
	}
	fs.Pressure = 1. / (phys.Gamma * mach * mach)
	fs.SoundSpeed = math.Sqrt(phys.Gamma * fs.Pressure / fs.Density)
	alpha, beta := fs.Alpha(), fs.Beta()
	switch nDim {
	case 2:
		fs.Velocity[0] = math.Cos(alpha)
		fs.Velocity[1] = math.Sin(alpha)
	case 3:
		fs.Velocity[0] = math.Cos(alpha) * math.Cos(beta)
		fs.Velocity[1] = math.Sin(beta)
		fs.Velocity[2] = math.Sin(alpha) * math.Cos(beta)
	default:
		panic(fmt.Errorf("unsupported dimension %d", nDim))
	}
	var sqVel float64
	for i := 0; i < nDim; i++ {
		sqVel += fs.Velocity[i] * fs.Velocity[i]
	}
	fs.Energy = fs.Pressure/(fs.Density*phys.GammaM1()) + 0.5*sqVel
	return
}

// Conservative returns the free-stream conservative vector, length
// nDim+2 (compressible) or nDim+1 (incompressible).
func (fs *FreeStream) Conservative(mode Mode, nDim int) (U []float64) {
	U = make([]float64, mode.NVar(nDim))
	if mode.Incompressible {
		U[0] = fs.Pressure
		for i := 0; i < nDim; i++ {
			U[i+1] = fs.Density * fs.Velocity[i]
		}
		return
	}
	U[0] = fs.Density
	for i := 0; i < nDim; i++ {
		U[i+1] = fs.Density * fs.Velocity[i]
	}
	U[nDim+1] = fs.Density * fs.Energy
	return
}
