package flow

import "fmt"

// Gas and reference constants for the compressible model. Values are
// non-dimensional; Fill in from the config layer before constructing fields.
type Physics struct {
	Gamma        float64 // ratio of specific heats
	GasConstant  float64 // non-dimensional gas constant
	PrandtlLam   float64
	PrandtlTurb  float64
	ArtCompBeta2 float64 // artificial compressibility Beta^2 (incompressible)
}

func NewPhysics() *Physics {
	return &Physics{
		Gamma:        1.4,
		GasConstant:  287.87 / 287.87,
		PrandtlLam:   0.72,
		PrandtlTurb:  0.9,
		ArtCompBeta2: 4.1,
	}
}

func (p *Physics) GammaM1() float64 { return p.Gamma - 1. }

// Mode collects the physical regime switches consulted throughout the
// adjoint solver. Zero value is the compressible, inertial-frame,
// steady continuous adjoint.
type Mode struct {
	Incompressible  bool
	RotatingFrame   bool
	GridMovement    bool
	Axisymmetric    bool
	DiscreteAdjoint bool
	FrozenViscosity bool
	Viscous         bool
	FreeSurface     bool
}

func (m Mode) Compressible() bool { return !m.Incompressible }

// NVar is the adjoint/flow system size for a given dimension.
func (m Mode) NVar(nDim int) int {
	if m.Incompressible {
		return nDim + 1
	}
	return nDim + 2
}

func (m Mode) String() string {
	reg := "compressible"
	if m.Incompressible {
		reg = "incompressible"
	}
	kind := "continuous"
	if m.DiscreteAdjoint {
		kind = "discrete"
	}
	return fmt.Sprintf("%s %s adjoint", reg, kind)
}
