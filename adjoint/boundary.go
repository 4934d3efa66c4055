package adjoint

import (
	"math"

	"github.com/AcademicHacker/SU2/geometry"
)

// BoundaryConditions applies every marker's handler after the interior
// sweep. Periodic markers are resolved by the exchanger, not here.
func (sv *Solver) BoundaryConditions() {
	for im, m := range sv.Msh.Markers {
		switch m.Kind {
		case geometry.EULER_WALL:
			sv.BCEulerWall(im)
		case geometry.NO_SLIP_WALL:
			if sv.Mode.Viscous {
				sv.BCNSWall(im)
			} else {
				sv.BCEulerWall(im)
			}
		case geometry.SYMMETRY_PLANE:
			sv.BCSymPlane(im)
		case geometry.FAR_FIELD:
			sv.BCFarField(im)
		case geometry.INLET_FLOW:
			sv.BCInlet(im)
		case geometry.OUTLET_FLOW:
			sv.BCOutlet(im)
		case geometry.NACELLE_INFLOW:
			sv.BCNacelleInflow(im)
		case geometry.NACELLE_EXHAUST:
			sv.BCNacelleExhaust(im)
		case geometry.INTERFACE_BOUNDARY:
			sv.BCInterface(im)
		case geometry.NEARFIELD_BOUNDARY:
			sv.BCNearField(im)
		case geometry.FWH_SURFACE:
			sv.BCFWH(im)
		}
	}
	sv.Exch.ExchangeSolution(sv.S.Solution)
}

// effectiveBoundaryFlux is the projected frame flux across a boundary
// face with the outward orientation of the BC kernels.
func (sv *Solver) effectiveBoundaryFlux(iPoint int, v *geometry.Vertex) (flux float64) {
	if sv.Mode.RotatingFrame {
		flux -= v.RotFlux
	}
	if sv.Mode.GridMovement {
		for iDim := 0; iDim < sv.NDim; iDim++ {
			flux -= sv.Msh.Nodes[iPoint].GridVel[iDim] * v.Normal[iDim]
		}
	}
	return
}

/*
BCEulerWall imposes the flow-tangency adjoint condition. The normal
momentum adjoint is replaced by the force projection before the wall
flux is evaluated:
	Phi <- Phi - (phin - bcn) n,  phin = Phi.n,  bcn = d.n
and the one-sided flux of the modified state is subtracted. In the
discrete-adjoint mode only the pressure Jacobian of the wall flux and
the objective source are scattered.
*/
func (sv *Solver) BCEulerWall(im int) {
	var (
		msh      = sv.Msh
		fld      = sv.Flow
		s        = sv.S
		nVar     = sv.NVar
		nDim     = sv.NDim
		gm1      = sv.Phys.GammaM1()
		implicit = sv.Par.TimeInt == EULER_IMPLICIT

		unitNormal = make([]float64, nDim)
		vel        = make([]float64, nDim)
		psi        = make([]float64, nVar)
		res        = make([]float64, nVar)
		dPressure  = make([]float64, nVar)
		objSource  = make([]float64, nVar)
		jacII      = sv.jacA
	)
	for iv := range msh.Markers[im].Vertices {
		var (
			v      = &msh.Markers[im].Vertices[iv]
			iPoint = v.Node
			normal = v.Normal
			d      = s.D(iPoint)
			u      = fld.Solution(iPoint)
		)
		if !msh.Nodes[iPoint].Domain {
			continue
		}
		var area float64
		for iDim := 0; iDim < nDim; iDim++ {
			area += normal[iDim] * normal[iDim]
		}
		area = math.Sqrt(area)
		for iDim := 0; iDim < nDim; iDim++ {
			unitNormal[iDim] = -normal[iDim] / area
		}
		copy(psi, s.Psi(iPoint))

		if sv.Mode.Incompressible {
			var (
				densityInc = fld.DensityInc(iPoint)
				betaInc2   = fld.BetaInc2(iPoint)
			)
			for iDim := 0; iDim < nDim; iDim++ {
				vel[iDim] = u[iDim+1] / densityInc
			}
			var bcn, phin float64
			for iDim := 0; iDim < nDim; iDim++ {
				bcn += d[iDim] * unitNormal[iDim]
				phin += psi[iDim+1] * unitNormal[iDim]
			}
			for iDim := 0; iDim < nDim; iDim++ {
				psi[iDim+1] -= (phin - bcn) * unitNormal[iDim]
			}
			var (
				phis1 float64
				phis2 = psi[0] * (betaInc2 / densityInc)
			)
			for iDim := 0; iDim < nDim; iDim++ {
				phis1 -= normal[iDim] * psi[iDim+1]
				phis2 += vel[iDim] * psi[iDim+1]
			}
			res[0] = phis1
			for iDim := 0; iDim < nDim; iDim++ {
				res[iDim+1] = -phis2 * normal[iDim]
			}
			s.SubConv(iPoint, res)
			if implicit {
				for k := 0; k < nVar*nVar; k++ {
					jacII[k] = 0
				}
				for iDim := 0; iDim < nDim; iDim++ {
					jacII[iDim+1] = -normal[iDim]
					jacII[(iDim+1)*nVar] = -normal[iDim] * (betaInc2 / densityInc)
					for jDim := 0; jDim < nDim; jDim++ {
						jacII[(iDim+1)*nVar+jDim+1] = -normal[iDim] * vel[jDim]
					}
				}
				sv.Jac.SubtractBlock(iPoint, iPoint, jacII)
			}
			continue
		}

		if sv.Mode.DiscreteAdjoint {
			// dP/dU, projected on the wall face
			dPressure[0] = 0
			for iDim := 0; iDim < nDim; iDim++ {
				dPressure[0] += u[iDim+1] * u[iDim+1]
				dPressure[iDim+1] = -gm1 * u[iDim+1] / u[0]
			}
			dPressure[0] *= gm1 / (2. * u[0] * u[0])
			dPressure[nVar-1] = gm1
			for k := 0; k < nVar*nVar; k++ {
				jacII[k] = 0
			}
			for iVar := 0; iVar < nVar; iVar++ {
				for jDim := 0; jDim < nDim; jDim++ {
					jacII[iVar*nVar+jDim+1] = dPressure[iVar] * unitNormal[jDim] * area
				}
			}
			sv.Jac.AddBlock(iPoint, iPoint, jacII)
			if sv.Par.Objective.IsForce() {
				var bcn float64
				for iDim := 0; iDim < nDim; iDim++ {
					bcn += d[iDim] * unitNormal[iDim] * area
				}
				for iVar := 0; iVar < nVar; iVar++ {
					objSource[iVar] = dPressure[iVar] * bcn
				}
				copy(s.ObjFuncSource[iPoint*nVar:(iPoint+1)*nVar], objSource)
			}
			continue
		}

		var (
			enthalpy = fld.Enthalpy(iPoint)
			sqVel    = 0.5 * fld.SqVel(iPoint)
		)
		for iDim := 0; iDim < nDim; iDim++ {
			vel[iDim] = u[iDim+1] / u[0]
		}
		var projVel, bcn, vn, phin float64
		for iDim := 0; iDim < nDim; iDim++ {
			projVel -= vel[iDim] * normal[iDim]
			bcn += d[iDim] * unitNormal[iDim]
			vn += vel[iDim] * unitNormal[iDim]
			phin += psi[iDim+1] * unitNormal[iDim]
		}
		if sv.Mode.RotatingFrame {
			phin -= psi[nVar-1] * (-v.RotFlux / area)
		}
		if sv.Mode.GridMovement {
			var projGridVel float64
			for iDim := 0; iDim < nDim; iDim++ {
				projGridVel += msh.Nodes[iPoint].GridVel[iDim] * unitNormal[iDim]
			}
			phin -= psi[nVar-1] * projGridVel
		}
		for iDim := 0; iDim < nDim; iDim++ {
			psi[iDim+1] -= (phin - bcn) * unitNormal[iDim]
		}
		var (
			phis1 float64
			phis2 = psi[0] + enthalpy*psi[nVar-1]
		)
		for iDim := 0; iDim < nDim; iDim++ {
			phis1 -= normal[iDim] * psi[iDim+1]
			phis2 += vel[iDim] * psi[iDim+1]
		}
		res[0] = projVel*psi[0] - phis2*projVel + phis1*gm1*sqVel
		for iDim := 0; iDim < nDim; iDim++ {
			res[iDim+1] = projVel*psi[iDim+1] - phis2*normal[iDim] - phis1*gm1*vel[iDim]
		}
		res[nVar-1] = projVel*psi[nVar-1] + phis1*gm1

		frameFlux := sv.effectiveBoundaryFlux(iPoint, v)
		if frameFlux != 0 {
			for iVar := 0; iVar < nVar; iVar++ {
				res[iVar] -= frameFlux * psi[iVar]
			}
		}

		if implicit {
			for k := 0; k < nVar*nVar; k++ {
				jacII[k] = 0
			}
			for iDim := 0; iDim < nDim; iDim++ {
				jacII[iDim+1] = -projVel * (vel[iDim] - unitNormal[iDim]*vn)
			}
			jacII[nVar-1] = -projVel * enthalpy
			for iDim := 0; iDim < nDim; iDim++ {
				row := (iDim + 1) * nVar
				jacII[row] = -normal[iDim]
				for jDim := 0; jDim < nDim; jDim++ {
					jacII[row+jDim+1] = -projVel * (unitNormal[jDim]*unitNormal[iDim] -
						normal[iDim]*(vel[jDim]-unitNormal[jDim]*vn))
				}
				jacII[row+iDim+1] += projVel
				jacII[row+nVar-1] = -normal[iDim] * enthalpy
			}
			jacII[(nVar-1)*nVar+nVar-1] = projVel
			if frameFlux != 0 {
				for iVar := 0; iVar < nVar; iVar++ {
					jacII[iVar*nVar+iVar] -= frameFlux
				}
			}
			sv.Jac.SubtractBlock(iPoint, iPoint, jacII)
		}
		s.SubConv(iPoint, res)
	}
}

// BCSymPlane is the wall condition without the force projection: the
// normal momentum adjoint is simply reflected out.
func (sv *Solver) BCSymPlane(im int) {
	var (
		msh      = sv.Msh
		fld      = sv.Flow
		s        = sv.S
		nVar     = sv.NVar
		nDim     = sv.NDim
		gm1      = sv.Phys.GammaM1()
		implicit = sv.Par.TimeInt == EULER_IMPLICIT

		unitNormal = make([]float64, nDim)
		vel        = make([]float64, nDim)
		psi        = make([]float64, nVar)
		res        = make([]float64, nVar)
		jacII      = sv.jacA
	)
	for iv := range msh.Markers[im].Vertices {
		var (
			v      = &msh.Markers[im].Vertices[iv]
			iPoint = v.Node
			normal = v.Normal
			u      = fld.Solution(iPoint)
		)
		if !msh.Nodes[iPoint].Domain {
			continue
		}
		var area float64
		for iDim := 0; iDim < nDim; iDim++ {
			area += normal[iDim] * normal[iDim]
		}
		area = math.Sqrt(area)
		for iDim := 0; iDim < nDim; iDim++ {
			unitNormal[iDim] = -normal[iDim] / area
		}
		copy(psi, s.Psi(iPoint))

		if sv.Mode.Incompressible {
			var (
				densityInc = fld.DensityInc(iPoint)
				betaInc2   = fld.BetaInc2(iPoint)
			)
			for iDim := 0; iDim < nDim; iDim++ {
				vel[iDim] = u[iDim+1] / densityInc
			}
			var phin float64
			for iDim := 0; iDim < nDim; iDim++ {
				phin += psi[iDim+1] * unitNormal[iDim]
			}
			for iDim := 0; iDim < nDim; iDim++ {
				psi[iDim+1] -= phin * unitNormal[iDim]
			}
			var (
				phis1 float64
				phis2 = psi[0] * (betaInc2 / densityInc)
			)
			for iDim := 0; iDim < nDim; iDim++ {
				phis1 -= normal[iDim] * psi[iDim+1]
				phis2 += vel[iDim] * psi[iDim+1]
			}
			res[0] = phis1
			for iDim := 0; iDim < nDim; iDim++ {
				res[iDim+1] = -phis2 * normal[iDim]
			}
			s.SubConv(iPoint, res)
			if implicit {
				for k := 0; k < nVar*nVar; k++ {
					jacII[k] = 0
				}
				for iDim := 0; iDim < nDim; iDim++ {
					jacII[iDim+1] = -normal[iDim]
					jacII[(iDim+1)*nVar] = -normal[iDim] * (betaInc2 / densityInc)
					for jDim := 0; jDim < nDim; jDim++ {
						jacII[(iDim+1)*nVar+jDim+1] = -normal[iDim] * vel[jDim]
					}
				}
				sv.Jac.SubtractBlock(iPoint, iPoint, jacII)
			}
			continue
		}

		var (
			enthalpy = fld.Enthalpy(iPoint)
			sqVel    = 0.5 * fld.SqVel(iPoint)
		)
		for iDim := 0; iDim < nDim; iDim++ {
			vel[iDim] = u[iDim+1] / u[0]
		}
		var projVel, vn, phin float64
		for iDim := 0; iDim < nDim; iDim++ {
			projVel -= vel[iDim] * normal[iDim]
			vn += vel[iDim] * unitNormal[iDim]
			phin += psi[iDim+1] * unitNormal[iDim]
		}
		if sv.Mode.RotatingFrame {
			phin -= psi[nVar-1] * (-v.RotFlux / area)
		}
		if sv.Mode.GridMovement {
			var projGridVel float64
			for iDim := 0; iDim < nDim; iDim++ {
				projGridVel += msh.Nodes[iPoint].GridVel[iDim] * unitNormal[iDim]
			}
			phin -= psi[nVar-1] * projGridVel
		}
		for iDim := 0; iDim < nDim; iDim++ {
			psi[iDim+1] -= phin * unitNormal[iDim]
		}
		var (
			phis1 float64
			phis2 = psi[0] + enthalpy*psi[nVar-1]
		)
		for iDim := 0; iDim < nDim; iDim++ {
			phis1 -= normal[iDim] * psi[iDim+1]
			phis2 += vel[iDim] * psi[iDim+1]
		}
		res[0] = projVel*psi[0] - phis2*projVel + phis1*gm1*sqVel
		for iDim := 0; iDim < nDim; iDim++ {
			res[iDim+1] = projVel*psi[iDim+1] - phis2*normal[iDim] - phis1*gm1*vel[iDim]
		}
		res[nVar-1] = projVel*psi[nVar-1] + phis1*gm1

		frameFlux := sv.effectiveBoundaryFlux(iPoint, v)
		if frameFlux != 0 {
			for iVar := 0; iVar < nVar; iVar++ {
				res[iVar] -= frameFlux * psi[iVar]
			}
		}
		s.SubConv(iPoint, res)

		if implicit {
			for k := 0; k < nVar*nVar; k++ {
				jacII[k] = 0
			}
			for iDim := 0; iDim < nDim; iDim++ {
				jacII[iDim+1] = -projVel * (vel[iDim] - unitNormal[iDim]*vn)
			}
			jacII[nVar-1] = -projVel * enthalpy
			for iDim := 0; iDim < nDim; iDim++ {
				row := (iDim + 1) * nVar
				jacII[row] = -normal[iDim]
				for jDim := 0; jDim < nDim; jDim++ {
					jacII[row+jDim+1] = -projVel * (unitNormal[jDim]*unitNormal[iDim] -
						normal[iDim]*(vel[jDim]-unitNormal[jDim]*vn))
				}
				jacII[row+iDim+1] += projVel
				jacII[row+nVar-1] = -normal[iDim] * enthalpy
			}
			jacII[(nVar-1)*nVar+nVar-1] = projVel
			if frameFlux != 0 {
				for iVar := 0; iVar < nVar; iVar++ {
					jacII[iVar*nVar+iVar] -= frameFlux
				}
			}
			sv.Jac.SubtractBlock(iPoint, iPoint, jacII)
		}
	}
}

// BCNSWall imposes the no-slip adjoint condition strongly: the momentum
// adjoints are pinned to the force projection and their equations
// replaced by identity rows, while the energy adjoint picks up the
// convective wall term (Gamma-1) d.n.
func (sv *Solver) BCNSWall(im int) {
	var (
		msh      = sv.Msh
		s        = sv.S
		nVar     = sv.NVar
		nDim     = sv.NDim
		implicit = sv.Par.TimeInt == EULER_IMPLICIT
		seed     = make([]float64, nVar)
	)
	for iv := range msh.Markers[im].Vertices {
		var (
			v      = &msh.Markers[im].Vertices[iv]
			iPoint = v.Node
			d      = s.D(iPoint)
		)
		if !msh.Nodes[iPoint].Domain {
			continue
		}
		for iDim := 0; iDim < nDim; iDim++ {
			s.SolutionOld[iPoint*nVar+iDim+1] = d[iDim]
			s.ResConv[iPoint*nVar+iDim+1] = 0
			s.ResVisc[iPoint*nVar+iDim+1] = 0
			s.TruncError[iPoint*nVar+iDim+1] = 0
		}

		// Seed the very first residual so the convergence monitor does
		// not start from an exact zero.
		if sv.ExtIter == 0 {
			for iVar := 0; iVar < nVar; iVar++ {
				seed[iVar] = geometry.EPS
			}
			s.AddConv(iPoint, seed)
		}

		if implicit {
			for iVar := 1; iVar <= nDim; iVar++ {
				sv.Jac.DeleteValsRow(iPoint*nVar + iVar)
			}
		}

		if !sv.Mode.Incompressible {
			var l1psi float64
			for iDim := 0; iDim < nDim; iDim++ {
				l1psi += v.Normal[iDim] * d[iDim]
			}
			s.ResConv[iPoint*nVar+nVar-1] += l1psi * sv.Phys.GammaM1()
			// The temperature derivative of the viscosity is frozen, so
			// the wall stress coupling of PsiE vanishes here.
		}
	}
}

// BCFWH pins the whole adjoint vector to the acoustic coupling jump on
// the FWH surface.
func (sv *Solver) BCFWH(im int) {
	var (
		msh      = sv.Msh
		s        = sv.S
		nVar     = sv.NVar
		implicit = sv.Par.TimeInt == EULER_IMPLICIT
	)
	for iv := range msh.Markers[im].Vertices {
		iPoint := msh.Markers[im].Vertices[iv].Node
		copy(s.Psi(iPoint), s.Jump(iPoint))
		copy(s.PsiOld(iPoint), s.Jump(iPoint))
		s.ZeroRow(iPoint)
		if implicit {
			for iVar := 0; iVar < nVar; iVar++ {
				sv.Jac.DeleteValsRow(iPoint*nVar + iVar)
			}
		}
	}
}
