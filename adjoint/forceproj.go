package adjoint

import (
	"fmt"
	"math"
)

// ForceCoefficients are the converged primal force totals the adjoint
// of a ratio objective (efficiency, figure of merit) linearizes about.
type ForceCoefficients struct {
	Cd, Cl, Ct, Cq float64
}

// SetForceProjVector fills the d vector on every monitored boundary
// node. d carries the objective's surface integrand direction scaled by
// the force nondimensionalization, so the wall boundary condition and
// the surface sensitivity see the objective only through d.
func (sv *Solver) SetForceProjVector(coef ForceCoefficients) {
	var (
		fs    = sv.Flow.FS
		nDim  = sv.NDim
		alpha = fs.Alpha()
		beta  = fs.Beta()

		refArea         = fs.RefArea
		refLengthMoment = fs.RefLengthMoment
		refOrigin       = fs.RefOriginMoment
		refVel2         = fs.RefVel2
		refDensity      = fs.RefDensity
	)
	if sv.Par.Objective.ThreeDOnly() && nDim == 2 {
		panic(fmt.Errorf("objective %s is not possible in 2D", sv.Par.Objective.Print()))
	}
	if sv.Mode.RotatingFrame {
		// Rotor-disk reference values
		refLengthMoment = fs.RotRadius
		refArea = math.Pi * refLengthMoment * refLengthMoment
		refVel2 = (fs.OmegaMag * refLengthMoment) * (fs.OmegaMag * refLengthMoment)
	}

	Cd := coef.Cd + fs.CteViscDrag
	var (
		Cp     = 1.0 / (0.5 * refDensity * refArea * refVel2)
		invCD  = 1.0 / Cd
		CLCD2  = coef.Cl / (Cd * Cd)
		invCQ  = 1.0 / coef.Cq
		CTRCQ2 = coef.Ct / (refLengthMoment * coef.Cq * coef.Cq)
		x0, y0 = refOrigin[0], refOrigin[1]
		z0     = refOrigin[2]
	)

	d := make([]float64, nDim)
	for _, m := range sv.Msh.Markers {
		if !m.Monitored {
			continue
		}
		for _, v := range m.Vertices {
			iPoint := v.Node
			var (
				coord = sv.Msh.Nodes[iPoint].Coord
				x, y  = coord[0], coord[1]
				z     float64
			)
			if nDim == 3 {
				z = coord[2]
			}
			switch sv.Par.Objective {
			case DRAG_COEFFICIENT:
				if nDim == 2 {
					d[0] = Cp * math.Cos(alpha)
					d[1] = Cp * math.Sin(alpha)
				} else {
					d[0] = Cp * math.Cos(alpha) * math.Cos(beta)
					d[1] = Cp * math.Sin(beta)
					d[2] = Cp * math.Sin(alpha) * math.Cos(beta)
				}
			case LIFT_COEFFICIENT:
				if nDim == 2 {
					d[0] = -Cp * math.Sin(alpha)
					d[1] = Cp * math.Cos(alpha)
				} else {
					d[0] = -Cp * math.Sin(alpha)
					d[1] = 0
					d[2] = Cp * math.Cos(alpha)
				}
			case SIDEFORCE_COEFFICIENT:
				d[0] = -Cp * math.Sin(beta) * math.Cos(alpha)
				d[1] = Cp * math.Cos(beta)
				d[2] = -Cp * math.Sin(beta) * math.Sin(alpha)
			case PRESSURE_COEFFICIENT:
				var area float64
				for iDim := 0; iDim < nDim; iDim++ {
					area += v.Normal[iDim] * v.Normal[iDim]
				}
				area = math.Sqrt(area)
				for iDim := 0; iDim < nDim; iDim++ {
					d[iDim] = -Cp * v.Normal[iDim] / area
				}
			case MOMENT_X_COEFFICIENT:
				d[0] = 0
				d[1] = -Cp * (z - z0) / refLengthMoment
				d[2] = Cp * (y - y0) / refLengthMoment
			case MOMENT_Y_COEFFICIENT:
				d[0] = -Cp * (z - z0) / refLengthMoment
				d[1] = 0
				d[2] = Cp * (x - x0) / refLengthMoment
			case MOMENT_Z_COEFFICIENT:
				d[0] = -Cp * (y - y0) / refLengthMoment
				d[1] = Cp * (x - x0) / refLengthMoment
				if nDim == 3 {
					d[2] = 0
				}
			case EFFICIENCY:
				if nDim == 2 {
					d[0] = -Cp * (invCD*math.Sin(alpha) + CLCD2*math.Cos(alpha))
					d[1] = Cp * (invCD*math.Cos(alpha) - CLCD2*math.Sin(alpha))
				} else {
					d[0] = -Cp * (invCD*math.Sin(alpha) + CLCD2*math.Cos(alpha)*math.Cos(beta))
					d[1] = -Cp * CLCD2 * math.Sin(beta)
					d[2] = Cp * (invCD*math.Cos(alpha) - CLCD2*math.Sin(alpha)*math.Cos(beta))
				}
			case EQUIVALENT_AREA, NEARFIELD_PRESSURE:
				// Objective blended with WeightCd of drag
				wDrag := fs.WeightCd
				if nDim == 2 {
					d[0] = Cp * math.Cos(alpha) * wDrag
					d[1] = Cp * math.Sin(alpha) * wDrag
				} else {
					d[0] = Cp * math.Cos(alpha) * math.Cos(beta) * wDrag
					d[1] = Cp * math.Sin(beta) * wDrag
					d[2] = Cp * math.Sin(alpha) * math.Cos(beta) * wDrag
				}
			case FORCE_X_COEFFICIENT:
				for iDim := range d {
					d[iDim] = 0
				}
				d[0] = Cp
			case FORCE_Y_COEFFICIENT:
				for iDim := range d {
					d[iDim] = 0
				}
				d[1] = Cp
			case FORCE_Z_COEFFICIENT, THRUST_COEFFICIENT:
				d[0], d[1] = 0, 0
				d[2] = Cp
			case TORQUE_COEFFICIENT:
				d[0] = Cp * (y - y0) / refLengthMoment
				d[1] = -Cp * (x - x0) / refLengthMoment
				if nDim == 3 {
					d[2] = 0
				}
			case FIGURE_OF_MERIT:
				d[0] = -Cp * invCQ
				d[1] = -Cp * CTRCQ2 * (z - z0)
				d[2] = Cp * CTRCQ2 * (y - y0)
			case FREE_SURFACE, NOISE:
				for iDim := range d {
					d[iDim] = 0
				}
			}
			copy(sv.S.D(iPoint), d)
		}
	}
}
