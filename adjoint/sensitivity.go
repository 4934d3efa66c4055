package adjoint

import (
	"math"

	"github.com/AcademicHacker/SU2/geometry"
	"github.com/AcademicHacker/SU2/utils"
)

/*
InviscidSensitivity evaluates the shape sensitivity on Euler walls and
the Mach, angle-of-attack, pressure and temperature sensitivities on
the far field.

The surface term integrates
	dJ/dS = (d.grad(P) + div(v) ConsPsi + v.grad(ConsPsi)) Area
where ConsPsi = U.Psi + rho*H*PsiE is the conservative-adjoint inner
product, evaluated through its surface gradient. The far-field terms
contract Psi with the boundary flux Jacobian against the derivative of
the free-stream state with respect to each parameter.
*/
func (sv *Solver) InviscidSensitivity() {
	var (
		msh  = sv.Msh
		fld  = sv.Flow
		s    = sv.S
		nVar = sv.NVar
		nDim = sv.NDim
	)
	sv.TotalSensGeo, sv.TotalSensMach, sv.TotalSensAoA = 0, 0, 0
	sv.TotalSensPress, sv.TotalSensTemp = 0, 0

	if !sv.Mode.DiscreteAdjoint {
		// Conservative-adjoint product on wall nodes and their first
		// neighbors, then its surface gradient.
		for im := range msh.Markers {
			if msh.Markers[im].Kind != geometry.EULER_WALL {
				continue
			}
			for iv := range msh.Markers[im].Vertices {
				iPoint := msh.Markers[im].Vertices[iv].Node
				if !msh.Nodes[iPoint].Domain {
					continue
				}
				s.AuxVar[iPoint] = sv.conservativePsi(iPoint)
				for _, nb := range msh.Neighbors(iPoint) {
					s.AuxVar[nb] = sv.conservativePsi(nb)
				}
			}
		}
		sv.SetAuxVarSurfaceGradient()

		for im := range msh.Markers {
			sv.SensGeo[im] = 0
			if msh.Markers[im].Kind != geometry.EULER_WALL {
				continue
			}
			for iv := range msh.Markers[im].Vertices {
				var (
					v      = &msh.Markers[im].Vertices[iv]
					iPoint = v.Node
				)
				if !msh.Nodes[iPoint].Domain {
					continue
				}
				var (
					d      = s.D(iPoint)
					normal = v.Normal
					area   float64
				)
				for iDim := 0; iDim < nDim; iDim++ {
					area += normal[iDim] * normal[iDim]
				}
				area = math.Sqrt(area)

				var dPress, gradV, vGradConsPsi float64
				consPsi := s.AuxVar[iPoint]
				for iDim := 0; iDim < nDim; iDim++ {
					if sv.Mode.Incompressible {
						dPress += d[iDim] * fld.GradCons(iPoint, 0, iDim)
					} else {
						dPress += d[iDim] * fld.GradPrimitive(iPoint, nDim+1, iDim)
					}
					gradV += fld.GradPrimitive(iPoint, iDim+1, iDim) * consPsi
					vGradConsPsi += fld.Velocity(iPoint, iDim) * s.AuxGrad[iPoint*nDim+iDim]
					if sv.Mode.RotatingFrame {
						vGradConsPsi -= msh.Nodes[iPoint].RotVel[iDim] * s.AuxGrad[iPoint*nDim+iDim]
					}
					if sv.Mode.GridMovement {
						vGradConsPsi -= msh.Nodes[iPoint].GridVel[iDim] * s.AuxGrad[iPoint*nDim+iDim]
					}
				}
				sv.CSensitivity[im][iv] = (dPress + gradV + vGradConsPsi) * area
				sv.SensGeo[im] -= sv.CSensitivity[im][iv] * area
			}
			sv.TotalSensGeo += sv.SensGeo[im]
		}
	}

	if sv.Mode.Incompressible {
		return
	}

	var (
		gm1      = sv.Phys.GammaM1()
		machInf  = fld.FS.Mach
		gasC     = sv.Phys.GasConstant
		unit     = make([]float64, nDim)
		uSens    = make([]float64, nVar)
		jacJ     = make([]float64, nVar*nVar)
		contract = func(psi []float64) func(uSens []float64) float64 {
			return func(uSens []float64) (sens float64) {
				for iPos := 0; iPos < nVar; iPos++ {
					for jPos := 0; jPos < nVar; jPos++ {
						sens += psi[iPos] * jacJ[jPos*nVar+iPos] * uSens[jPos]
					}
				}
				return
			}
		}
	)
	for im := range msh.Markers {
		if msh.Markers[im].Kind != geometry.FAR_FIELD {
			continue
		}
		sv.SensMach[im], sv.SensAoA[im] = 0, 0
		sv.SensPress[im], sv.SensTemp[im] = 0, 0
		for iv := range msh.Markers[im].Vertices {
			var (
				v      = &msh.Markers[im].Vertices[iv]
				iPoint = v.Node
			)
			if !msh.Nodes[iPoint].Domain {
				continue
			}
			var (
				psi    = s.Psi(iPoint)
				u      = fld.Solution(iPoint)
				normal = v.Normal
				area   float64
			)
			for iDim := 0; iDim < nDim; iDim++ {
				area += normal[iDim] * normal[iDim]
			}
			area = math.Sqrt(area)
			for iDim := 0; iDim < nDim; iDim++ {
				unit[iDim] = -normal[iDim] / area
			}
			var (
				r  = u[0]
				rE = u[nVar-1]
				m2 float64
			)
			for iDim := 0; iDim < nDim; iDim++ {
				m2 += u[iDim+1] * u[iDim+1]
			}
			p := gm1 * (rE - m2/(2.*r))

			if sv.Mode.DiscreteAdjoint {
				sv.farFieldFluxJacobian(iPoint, unit, area, jacJ)
			} else {
				sv.farFieldBoundaryJacobian(u, p, unit, area, jacJ)
			}
			sum := contract(psi)

			// Mach
			uSens[0] = 0
			for iDim := 0; iDim < nDim; iDim++ {
				uSens[iDim+1] = u[iDim+1] / machInf
			}
			uSens[nVar-1] = sv.Phys.Gamma * machInf * p
			sv.SensMach[im] += sum(uSens)

			// Angle of attack: the free stream rotates in the lift plane
			for iVar := 0; iVar < nVar; iVar++ {
				uSens[iVar] = 0
			}
			if nDim == 2 {
				uSens[1] = -u[2]
				uSens[2] = u[1]
			} else {
				uSens[1] = -u[3]
				uSens[3] = u[1]
			}
			sv.SensAoA[im] += sum(uSens)

			// Pressure
			for iVar := 0; iVar < nVar; iVar++ {
				uSens[iVar] = u[iVar] / p
			}
			sv.SensPress[im] += sum(uSens)

			// Temperature
			temp := p / (r * gasC)
			uSens[0] = -r / temp
			for iDim := 0; iDim < nDim; iDim++ {
				uSens[iDim+1] = 0.5 * u[iDim+1] / temp
			}
			uSens[nVar-1] = m2 / (r * temp)
			sv.SensTemp[im] += sum(uSens)
		}
		sv.TotalSensMach -= sv.SensMach[im]
		sv.TotalSensAoA -= sv.SensAoA[im]
		sv.TotalSensPress -= sv.SensPress[im]
		sv.TotalSensTemp -= sv.SensTemp[im]
	}

	// Explicit wall contribution of the functional itself
	var dd = make([]float64, nDim)
	for im := range msh.Markers {
		if msh.Markers[im].Kind != geometry.EULER_WALL {
			continue
		}
		sv.SensMach[im], sv.SensAoA[im] = 0, 0
		sv.SensPress[im], sv.SensTemp[im] = 0, 0
		for iv := range msh.Markers[im].Vertices {
			var (
				v      = &msh.Markers[im].Vertices[iv]
				iPoint = v.Node
			)
			if !msh.Nodes[iPoint].Domain {
				continue
			}
			var (
				d      = s.D(iPoint)
				normal = v.Normal
				p      = fld.Pressure(iPoint)
				area   float64
			)
			for iDim := 0; iDim < nDim; iDim++ {
				area += normal[iDim] * normal[iDim]
			}
			area = math.Sqrt(area)
			for iDim := 0; iDim < nDim; iDim++ {
				unit[iDim] = -normal[iDim] / area
			}

			// Mach
			for iDim := 0; iDim < nDim; iDim++ {
				dd[iDim] = -(2. / machInf) * d[iDim]
				sv.SensMach[im] += p * dd[iDim] * area * unit[iDim]
			}
			// Angle of attack
			if nDim == 2 {
				dd[0] = -d[1]
				dd[1] = d[0]
			} else {
				dd[0] = -d[2]
				dd[1] = 0
				dd[2] = d[0]
			}
			for iDim := 0; iDim < nDim; iDim++ {
				sv.SensAoA[im] += p * dd[iDim] * area * unit[iDim]
			}
			// Pressure
			for iDim := 0; iDim < nDim; iDim++ {
				dd[iDim] = -d[iDim] / p
				sv.SensPress[im] += p * dd[iDim] * area * unit[iDim]
			}
			// Temperature: the force projection has no explicit dependence
		}
		sv.TotalSensMach += sv.SensMach[im]
		sv.TotalSensAoA += sv.SensAoA[im]
		sv.TotalSensPress += sv.SensPress[im]
		sv.TotalSensTemp += sv.SensTemp[im]
	}
}

// conservativePsi is the inner product of the conservative state and
// the adjoint, U.Psi + rho*H*PsiE, the scalar whose surface gradient
// carries the shape sensitivity.
func (sv *Solver) conservativePsi(iPoint int) (consPsi float64) {
	var (
		fld = sv.Flow
		psi = sv.S.Psi(iPoint)
		u   = fld.Solution(iPoint)
	)
	if sv.Mode.Incompressible {
		consPsi = fld.BetaInc2(iPoint) * psi[0]
	} else {
		consPsi = u[0]*psi[0] + u[0]*fld.Enthalpy(iPoint)*psi[sv.NDim+1]
	}
	for iDim := 0; iDim < sv.NDim; iDim++ {
		consPsi += u[iDim+1] * psi[iDim+1]
	}
	return
}

// farFieldBoundaryJacobian fills jac with the derivative of the
// boundary flux with respect to the exterior state, row-major in the
// original variable ordering.
func (sv *Solver) farFieldBoundaryJacobian(u []float64, p float64, unit []float64, area float64, jac []float64) {
	var (
		nVar = sv.NVar
		nDim = sv.NDim
		gm1  = sv.Phys.GammaM1()

		r      = u[0]
		ru, rv = u[1], u[2]
		rw, rE float64
	)
	if nDim == 2 {
		rE = u[3]
	} else {
		rw, rE = u[3], u[4]
	}
	var (
		h = (rE + p) / r

		dpDr  = gm1 * (ru*ru + rv*rv + rw*rw) / (2. * r * r)
		dpDru = -gm1 * ru / r
		dpDrv = -gm1 * rv / r
		dpDrw = -gm1 * rw / r
		dpDrE = gm1

		dhDr  = (-h + dpDr) / r
		dhDru = dpDru / r
		dhDrv = dpDrv / r
		dhDrw = dpDrw / r
		dhDrE = (1. + dpDrE) / r

		an = func(iDim int) float64 { return area * unit[iDim] }
		at = func(a, b int, val float64) { jac[a*nVar+b] = val }
	)
	if nDim == 2 {
		at(0, 0, 0)
		at(1, 0, an(0))
		at(2, 0, an(1))
		at(3, 0, 0)

		at(0, 1, (-(ru*ru)/(r*r)+dpDr)*an(0)+(-(ru*rv)/(r*r))*an(1))
		at(1, 1, (2.*ru/r+dpDru)*an(0)+(rv/r)*an(1))
		at(2, 1, dpDrv*an(0)+(ru/r)*an(1))
		at(3, 1, dpDrE*an(0))

		at(0, 2, (-(ru*rv)/(r*r))*an(0)+(-(rv*rv)/(r*r)+dpDr)*an(1))
		at(1, 2, (rv/r)*an(0)+dpDru*an(1))
		at(2, 2, (ru/r)*an(0)+(2.*rv/r+dpDrv)*an(1))
		at(3, 2, dpDrE*an(1))

		at(0, 3, ru*dhDr*an(0)+rv*dhDr*an(1))
		at(1, 3, (h+ru*dhDru)*an(0)+rv*dhDru*an(1))
		at(2, 3, ru*dhDrv*an(0)+(h+rv*dhDrv)*an(1))
		at(3, 3, ru*dhDrE*an(0)+rv*dhDrE*an(1))
		return
	}
	at(0, 0, 0)
	at(1, 0, an(0))
	at(2, 0, an(1))
	at(3, 0, an(2))
	at(4, 0, 0)

	at(0, 1, (-(ru*ru)/(r*r)+dpDr)*an(0)+(-(ru*rv)/(r*r))*an(1)+(-(ru*rw)/(r*r))*an(2))
	at(1, 1, (2.*ru/r+dpDru)*an(0)+(rv/r)*an(1)+(rw/r)*an(2))
	at(2, 1, dpDrv*an(0)+(ru/r)*an(1))
	at(3, 1, dpDrw*an(0)+(ru/r)*an(2))
	at(4, 1, dpDrE*an(0))

	at(0, 2, (-(ru*rv)/(r*r))*an(0)+(-(rv*rv)/(r*r)+dpDr)*an(1)+(-(rv*rw)/(r*r))*an(2))
	at(1, 2, (rv/r)*an(0)+dpDru*an(1))
	at(2, 2, (ru/r)*an(0)+(2.*rv/r+dpDrv)*an(1)+(rw/r)*an(2))
	at(3, 2, dpDrw*an(1)+(rv/r)*an(2))
	at(4, 2, dpDrE*an(1))

	at(0, 3, (-(ru*rw)/(r*r))*an(0)+(-(rv*rw)/(r*r))*an(1)+(-(rw*rw)/(r*r)+dpDr)*an(2))
	at(1, 3, (rw/r)*an(0)+dpDru*an(2))
	at(2, 3, (rw/r)*an(1)+dpDrv*an(2))
	at(3, 3, (ru/r)*an(0)+(rv/r)*an(1)+(2.*rw/r+dpDrw)*an(2))
	at(4, 3, dpDrE*an(2))

	at(0, 4, ru*dhDr*an(0)+rv*dhDr*an(1)+rw*dhDr*an(2))
	at(1, 4, (h+ru*dhDru)*an(0)+rv*dhDru*an(1)+rw*dhDru*an(2))
	at(2, 4, ru*dhDrv*an(0)+(h+rv*dhDrv)*an(1)+rw*dhDrv*an(2))
	at(3, 4, ru*dhDrw*an(0)+rv*dhDrw*an(1)+(h+rw*dhDrw)*an(2))
	at(4, 4, ru*dhDrE*an(0)+rv*dhDrE*an(1)+rw*dhDrE*an(2))
}

// farFieldFluxJacobian is the discrete-adjoint variant: the exterior
// Jacobian of the Roe flux between the node and the free stream,
// 0.5 (A_infty - |A~|).
func (sv *Solver) farFieldFluxJacobian(iPoint int, unit []float64, area float64, jac []float64) {
	var (
		fld    = sv.Flow
		nVar   = sv.NVar
		nDim   = sv.NDim
		uDom   = fld.Solution(iPoint)
		uInfty = fld.FS.Conservative(sv.Mode, nDim)
		velD   = make([]float64, nDim)
		velG   = make([]float64, nDim)
		roeV   = make([]float64, nDim)
		normal = make([]float64, nDim)
	)
	for iDim := 0; iDim < nDim; iDim++ {
		normal[iDim] = unit[iDim] * area
	}
	rhoD, hD, _ := ConservativeState(sv.Phys.Gamma, uDom, velD, nDim)
	rhoG, hG, _ := ConservativeState(sv.Phys.Gamma, uInfty, velG, nDim)
	var (
		r     = math.Sqrt(rhoG / rhoD)
		roeH  = (r*hG + hD) / (r + 1)
		roeSq float64
	)
	for iDim := 0; iDim < nDim; iDim++ {
		roeV[iDim] = (r*velG[iDim] + velD[iDim]) / (r + 1)
		roeSq += roeV[iDim] * roeV[iDim]
	}
	roeC := math.Sqrt((sv.Phys.Gamma - 1) * (roeH - 0.5*roeSq))
	InviscidProjJac(sv.Phys.Gamma, velG, hG, normal, 0.5, sv.jacB, nDim)
	AbsProjJac(sv.Phys.Gamma, r*rhoD, roeV, roeH, roeC, unit, 0.5*area, sv.absA, nDim)
	for k := 0; k < nVar*nVar; k++ {
		jac[k] = sv.jacB[k] - sv.absA[k]
	}
}

/*
SmoothSensitivity applies an implicit Laplacian filter along each Euler
wall, removing the point-to-point noise of the raw surface sensitivity:
	(I - eps d2/ds2) S_smooth = S
discretized on the arc length with periodic wrap, the first and last
percent of the arc flattened to kill the trailing-edge spike, and one
Dirichlet pin at mid-arc to fix the constant mode.
*/
func (sv *Solver) SmoothSensitivity() {
	const epsilon = 5.e-5
	var msh = sv.Msh
	for im := range msh.Markers {
		if msh.Markers[im].Kind != geometry.EULER_WALL {
			continue
		}
		var (
			nVertex = len(msh.Markers[im].Vertices)
			a       = make([]float64, nVertex*nVertex)
			b       = make([]float64, nVertex)
			arc     = make([]float64, nVertex)
		)
		if nVertex < 3 {
			continue
		}

		for iv := 1; iv < nVertex; iv++ {
			var (
				cb = msh.Nodes[msh.Markers[im].Vertices[iv-1].Node].Coord
				ce = msh.Nodes[msh.Markers[im].Vertices[iv].Node].Coord
			)
			arc[iv] = arc[iv-1] + math.Sqrt(math.Pow(ce[0]-cb[0], 2.)+
				math.Pow(ce[1]-cb[1], 2.))
		}

		// Flatten the arc ends
		var minNeg, minPos float64
		for iv := 0; iv < nVertex; iv++ {
			if arc[iv] > arc[nVertex-1]*0.01 {
				minNeg = sv.CSensitivity[im][iv]
				break
			}
		}
		for iv := 0; iv < nVertex; iv++ {
			if arc[iv] > arc[nVertex-1]*0.99 {
				minPos = sv.CSensitivity[im][iv]
				break
			}
		}
		for iv := 0; iv < nVertex; iv++ {
			if arc[iv] < arc[nVertex-1]*0.01 {
				sv.CSensitivity[im][iv] = minNeg
			}
			if arc[iv] > arc[nVertex-1]*0.99 {
				sv.CSensitivity[im][iv] = minPos
			}
			b[iv] = sv.CSensitivity[im][iv]
		}

		for iv := 0; iv < nVertex; iv++ {
			var backDiff, forwDiff, centDiff float64
			switch {
			case iv == 0:
				backDiff = arc[0] - arc[nVertex-1]
				forwDiff = arc[1] - arc[0]
				centDiff = arc[1] - arc[nVertex-1]
			case iv == nVertex-1:
				backDiff = arc[nVertex-1] - arc[nVertex-2]
				forwDiff = arc[0] - arc[nVertex-1]
				centDiff = arc[0] - arc[nVertex-2]
			default:
				backDiff = arc[iv] - arc[iv-1]
				forwDiff = arc[iv+1] - arc[iv]
				centDiff = arc[iv+1] - arc[iv-1]
			}
			coeff := epsilon * 2. / (backDiff * forwDiff * centDiff)
			row := iv * nVertex
			a[row+iv] = coeff * centDiff
			if iv != 0 {
				a[row+iv-1] = -coeff * forwDiff
			} else {
				a[row+nVertex-1] = -coeff * forwDiff
			}
			if iv != nVertex-1 {
				a[row+iv+1] = -coeff * backDiff
			} else {
				a[row] = -coeff * backDiff
			}
		}
		for iv := 0; iv < nVertex; iv++ {
			a[iv*nVertex+iv] += 1.
		}

		// Pin the mid-arc vertex
		mid := nVertex / 2
		a[mid*nVertex+mid] = 1.
		a[mid*nVertex+mid+1] = 0.
		a[mid*nVertex+mid-1] = 0.

		copy(sv.CSensitivity[im], utils.NewMatrix(nVertex, nVertex, a).LUSolve(b))
	}
}
