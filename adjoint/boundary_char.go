package adjoint

import (
	"fmt"
	"math"

	"github.com/AcademicHacker/SU2/geometry"
)

/*
boundaryUpwindFlux evaluates the one-sided adjoint Roe flux of a
boundary face against a fictitious exterior state:
	Res = 0.5 A_dom^T (Psi_dom + Psi_ghost) - 0.5 |A~|^T (Psi_ghost - Psi_dom)
with the Roe matrix averaged between the domain and ghost flow states.
normal is the OUTWARD scaled face normal. When jacII is non-nil it
receives dRes/dPsi_dom = (0.5 A_dom + 0.5 |A~|)^T.
*/
func (sv *Solver) boundaryUpwindFlux(normal, uDom, uGhost, psiDom, psiGhost, res, jacII []float64) {
	var (
		nVar  = sv.NVar
		nDim  = sv.NDim
		velD  = make([]float64, nDim)
		velG  = make([]float64, nDim)
		roeV  = make([]float64, nDim)
		unit  = make([]float64, nDim)
		sum   = make([]float64, nVar)
		diff  = make([]float64, nVar)
		dissp = make([]float64, nVar)
	)
	var area float64
	for iDim := 0; iDim < nDim; iDim++ {
		area += normal[iDim] * normal[iDim]
	}
	area = math.Sqrt(area)
	for iDim := 0; iDim < nDim; iDim++ {
		unit[iDim] = normal[iDim] / area
	}

	rhoD, hD, _ := ConservativeState(sv.Phys.Gamma, uDom, velD, nDim)
	rhoG, hG, _ := ConservativeState(sv.Phys.Gamma, uGhost, velG, nDim)

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

	InviscidProjJac(sv.Phys.Gamma, velD, hD, normal, 0.5, sv.jacA, nDim)
	AbsProjJac(sv.Phys.Gamma, r*rhoD, roeV, roeH, roeC, unit, 0.5*area, sv.absA, nDim)

	for iVar := 0; iVar < nVar; iVar++ {
		sum[iVar] = psiDom[iVar] + psiGhost[iVar]
		diff[iVar] = psiGhost[iVar] - psiDom[iVar]
		res[iVar], dissp[iVar] = 0, 0
	}
	MulTransposed(sv.jacA, nVar, sum, res)
	MulTransposed(sv.absA, nVar, diff, dissp)
	for iVar := 0; iVar < nVar; iVar++ {
		res[iVar] -= dissp[iVar]
	}

	if jacII != nil {
		for k := 0; k < nVar*nVar; k++ {
			sv.scratch[k] = sv.jacA[k] + sv.absA[k]
		}
		Transpose(sv.scratch, nVar, jacII)
	}
}

// boundaryUpwindFluxArtComp is the artificial-compressibility variant:
// the projected Jacobian of the domain state with a scalar spectral
// radius standing in for the Roe dissipation matrix.
func (sv *Solver) boundaryUpwindFluxArtComp(iPoint int, normal, uDom, uGhost, psiDom, psiGhost, res, jacII []float64) {
	var (
		nVar = sv.NVar
		nDim = sv.NDim
		fld  = sv.Flow

		densityInc = fld.DensityInc(iPoint)
		betaInc2   = fld.BetaInc2(iPoint)
		vel        = make([]float64, nDim)
	)
	var area2, pv float64
	for iDim := 0; iDim < nDim; iDim++ {
		area2 += normal[iDim] * normal[iDim]
		vel[iDim] = 0.5 * (uDom[iDim+1] + uGhost[iDim+1]) / densityInc
		pv += vel[iDim] * normal[iDim]
	}
	lambda := math.Abs(pv) + math.Sqrt(pv*pv+betaInc2/densityInc*area2)

	InviscidProjJacArtComp(betaInc2, densityInc, vel, normal, 0.5, sv.jacA, nDim)
	for iVar := 0; iVar < nVar; iVar++ {
		res[iVar] = 0
	}
	var sum = make([]float64, nVar)
	for iVar := 0; iVar < nVar; iVar++ {
		sum[iVar] = psiDom[iVar] + psiGhost[iVar]
	}
	MulTransposed(sv.jacA, nVar, sum, res)
	for iVar := 0; iVar < nVar; iVar++ {
		res[iVar] -= 0.5 * lambda * (psiGhost[iVar] - psiDom[iVar])
	}

	if jacII != nil {
		Transpose(sv.jacA, nVar, jacII)
		for iVar := 0; iVar < nVar; iVar++ {
			jacII[iVar*nVar+iVar] += 0.5 * lambda
		}
	}
}

// BCFarField closes the domain against the free stream: the exterior
// carries the free-stream conservative state and a zero adjoint.
func (sv *Solver) BCFarField(im int) {
	var (
		msh      = sv.Msh
		s        = sv.S
		nVar     = sv.NVar
		nDim     = sv.NDim
		implicit = sv.Par.TimeInt == EULER_IMPLICIT

		uInfty   = sv.Flow.FS.Conservative(sv.Mode, nDim)
		psiInfty = make([]float64, nVar)
		normal   = make([]float64, nDim)
		res      = make([]float64, nVar)
		jacII    = sv.jacB
	)
	for iv := range msh.Markers[im].Vertices {
		var (
			v      = &msh.Markers[im].Vertices[iv]
			iPoint = v.Node
		)
		if !msh.Nodes[iPoint].Domain {
			continue
		}
		for iDim := 0; iDim < nDim; iDim++ {
			normal[iDim] = -v.Normal[iDim]
		}
		uDom := sv.Flow.Solution(iPoint)
		psiDom := s.Psi(iPoint)

		if sv.Mode.Incompressible {
			sv.boundaryUpwindFluxArtComp(iPoint, normal, uDom, uInfty, psiDom, psiInfty, res, jacII)
		} else {
			sv.boundaryUpwindFlux(normal, uDom, uInfty, psiDom, psiInfty, res, jacII)
		}
		if sv.Mode.DiscreteAdjoint {
			sv.Jac.SubtractBlock(iPoint, iPoint, jacII)
			continue
		}
		s.SubConv(iPoint, res)
		if implicit {
			sv.Jac.SubtractBlock(iPoint, iPoint, jacII)
		}
	}
}

// BCInlet builds the fictitious inflow state from the marker's
// stagnation conditions or target mass flow and evaluates the adjoint
// flux against it. The adjoint inlet state is zero except for the
// energy component of a mass-flow inlet, which satisfies the inflow
// characteristic compatibility.
func (sv *Solver) BCInlet(im int) {
	var (
		msh      = sv.Msh
		fld      = sv.Flow
		s        = sv.S
		nVar     = sv.NVar
		nDim     = sv.NDim
		gamma    = sv.Phys.Gamma
		gm1      = sv.Phys.GammaM1()
		gasC     = sv.Phys.GasConstant
		implicit = sv.Par.TimeInt == EULER_IMPLICIT

		spec, ok = sv.Par.Inlets[msh.Markers[im].Tag]

		normal   = make([]float64, nDim)
		unit     = make([]float64, nDim)
		vel      = make([]float64, nDim)
		uInlet   = make([]float64, nVar)
		psiInlet = make([]float64, nVar)
		res      = make([]float64, nVar)
		jacII    = sv.jacB
	)
	if !ok {
		panic(fmt.Errorf("no inlet data for marker %q", msh.Markers[im].Tag))
	}
	for iv := range msh.Markers[im].Vertices {
		var (
			v      = &msh.Markers[im].Vertices[iv]
			iPoint = v.Node
		)
		if !msh.Nodes[iPoint].Domain {
			continue
		}
		var area float64
		for iDim := 0; iDim < nDim; iDim++ {
			normal[iDim] = -v.Normal[iDim]
			area += normal[iDim] * normal[iDim]
		}
		area = math.Sqrt(area)
		for iDim := 0; iDim < nDim; iDim++ {
			unit[iDim] = normal[iDim] / area
		}
		uDom := fld.Solution(iPoint)
		psiDom := s.Psi(iPoint)
		for iVar := 0; iVar < nVar; iVar++ {
			psiInlet[iVar] = 0
		}

		if sv.Mode.Incompressible {
			uInlet[0] = uDom[0]
			for iDim := 0; iDim < nDim; iDim++ {
				uInlet[iDim+1] = fld.FS.Density * fld.FS.Velocity[iDim]
			}
			psiInlet[0] = psiDom[0]
			sv.boundaryUpwindFluxArtComp(iPoint, normal, uDom, uInlet, psiDom, psiInlet, res, jacII)
			s.SubConv(iPoint, res)
			if implicit {
				sv.Jac.SubtractBlock(iPoint, iPoint, jacII)
			}
			continue
		}

		density, _, soundSpeed := ConservativeState(gamma, uDom, vel, nDim)
		var projVel float64
		for iDim := 0; iDim < nDim; iDim++ {
			projVel += vel[iDim] * unit[iDim]
		}
		riemann := 2.*soundSpeed/gm1 + projVel

		switch spec.Kind {
		case TOTAL_CONDITIONS:
			var (
				pressure = fld.Pressure(iPoint)
				energy   = fld.Energy(iPoint)
				sqVel    = fld.SqVel(iPoint)
				hTotal   = gamma * gasC / gm1 * spec.TTotal
				cTot2    = gm1*(hTotal-(energy+pressure/density)+0.5*sqVel) +
					soundSpeed*soundSpeed
			)
			// The inflow velocity magnitude solves a quadratic set by the
			// outgoing Riemann invariant and the stagnation state.
			var alpha float64
			for iDim := 0; iDim < nDim; iDim++ {
				alpha += unit[iDim] * spec.FlowDir[iDim]
			}
			var (
				aa = 1. + 0.5*gm1*alpha*alpha
				bb = -gm1 * alpha * riemann
				cc = 0.5*gm1*riemann*riemann - 2.*cTot2/gm1
				dd = math.Sqrt(math.Max(0., bb*bb-4.*aa*cc))

				velMag = math.Max(0., (-bb+dd)/(2.*aa))
				vel2   = velMag * velMag
				c2     = cTot2 - 0.5*gm1*vel2
				mach2  = math.Min(1., vel2/c2)
			)
			vel2 = mach2 * c2
			velMag = math.Sqrt(vel2)
			c2 = cTot2 - 0.5*gm1*vel2
			var (
				temp = c2 / (gamma * gasC)
				pres = spec.PTotal * math.Pow(temp/spec.TTotal, gamma/gm1)
				rho  = pres / (gasC * temp)
				en   = pres/(rho*gm1) + 0.5*vel2
			)
			uInlet[0] = rho
			for iDim := 0; iDim < nDim; iDim++ {
				uInlet[iDim+1] = rho * velMag * spec.FlowDir[iDim]
			}
			uInlet[nVar-1] = rho * en

		case MASS_FLOW:
			var projFict float64
			for iDim := 0; iDim < nDim; iDim++ {
				projFict += spec.VelMag * spec.FlowDir[iDim] * unit[iDim]
			}
			var (
				cFict = math.Max(0., 0.5*gm1*(riemann-projFict))
				c2    = cFict * cFict
				pres  = c2 * spec.Density / gamma
				en    = pres/(spec.Density*gm1) + 0.5*spec.VelMag*spec.VelMag
			)
			uInlet[0] = spec.Density
			for iDim := 0; iDim < nDim; iDim++ {
				uInlet[iDim+1] = spec.Density * spec.VelMag * spec.FlowDir[iDim]
			}
			uInlet[nVar-1] = spec.Density * en

			// Compatibility condition on PsiE along the incoming
			// characteristics; the remaining components ride along from
			// the domain.
			copy(psiInlet, psiDom)
			bcn := -gamma / gm1 * projFict
			if sv.Mode.RotatingFrame {
				bcn -= 1. / gm1 * (-v.RotFlux / area)
			}
			if sv.Mode.GridMovement {
				var projGridVel float64
				for iDim := 0; iDim < nDim; iDim++ {
					projGridVel += msh.Nodes[iPoint].GridVel[iDim] * unit[iDim]
				}
				bcn -= 1. / gm1 * projGridVel
			}
			var phin float64
			for iDim := 0; iDim < nDim; iDim++ {
				phin += psiDom[iDim+1] * unit[iDim]
			}
			psiInlet[nVar-1] = -phin / bcn
		}

		sv.boundaryUpwindFlux(normal, uDom, uInlet, psiDom, psiInlet, res, jacII)
		s.SubConv(iPoint, res)
		if implicit {
			sv.Jac.SubtractBlock(iPoint, iPoint, jacII)
		}
	}
}

// subsonicExitState fills uOut with the fictitious exterior state of a
// subsonic pressure outlet: density from the domain entropy at the
// imposed back pressure, normal velocity from the outgoing Riemann
// invariant. Returns the updated velocity and its normal projection.
func (sv *Solver) subsonicExitState(iPoint int, pExit float64, unit []float64, uOut, vel []float64) (projVel float64) {
	var (
		fld   = sv.Flow
		nDim  = sv.NDim
		gamma = sv.Phys.Gamma
		gm1   = sv.Phys.GammaM1()

		density  = fld.Density(iPoint)
		pressure = fld.Pressure(iPoint)
		c        = fld.SoundSpeed(iPoint)
	)
	var vn float64
	for iDim := 0; iDim < nDim; iDim++ {
		vel[iDim] = fld.Velocity(iPoint, iDim)
		vn += vel[iDim] * unit[iDim]
	}
	var (
		entropy = pressure / math.Pow(density, gamma)
		riemann = vn + 2.*c/gm1

		rhoExit = math.Pow(pExit/entropy, 1./gamma)
		cExit   = math.Sqrt(gamma * pExit / rhoExit)
		vnExit  = riemann - 2.*cExit/gm1
	)
	var sqVel float64
	for iDim := 0; iDim < nDim; iDim++ {
		vel[iDim] += (vnExit - vn) * unit[iDim]
		sqVel += vel[iDim] * vel[iDim]
		projVel += vel[iDim] * unit[iDim]
	}
	energy := pExit/(rhoExit*gm1) + 0.5*sqVel
	uOut[0] = rhoExit
	for iDim := 0; iDim < nDim; iDim++ {
		uOut[iDim+1] = rhoExit * vel[iDim]
	}
	uOut[nDim+1] = rhoExit * energy
	return
}

// BCOutlet imposes the back pressure of the marker's outlet spec. A
// supersonic exit carries the whole domain state outward with a zero
// adjoint; a subsonic exit reflects the pressure characteristic back
// into the adjoint through the a1 compatibility coefficients.
func (sv *Solver) BCOutlet(im int) {
	var (
		msh      = sv.Msh
		fld      = sv.Flow
		s        = sv.S
		nVar     = sv.NVar
		nDim     = sv.NDim
		gamma    = sv.Phys.Gamma
		gm1      = sv.Phys.GammaM1()
		implicit = sv.Par.TimeInt == EULER_IMPLICIT

		spec, ok = sv.Par.Outlets[msh.Markers[im].Tag]

		normal  = make([]float64, nDim)
		unit    = make([]float64, nDim)
		vel     = make([]float64, nDim)
		uOut    = make([]float64, nVar)
		psiOut  = make([]float64, nVar)
		res     = make([]float64, nVar)
		jacII   = sv.jacB
		incPres = sv.Flow.FS.Pressure
	)
	if !ok && !sv.Mode.Incompressible {
		panic(fmt.Errorf("no outlet data for marker %q", msh.Markers[im].Tag))
	}
	for iv := range msh.Markers[im].Vertices {
		var (
			v      = &msh.Markers[im].Vertices[iv]
			iPoint = v.Node
		)
		if !msh.Nodes[iPoint].Domain {
			continue
		}
		var area float64
		for iDim := 0; iDim < nDim; iDim++ {
			normal[iDim] = -v.Normal[iDim]
			area += normal[iDim] * normal[iDim]
		}
		area = math.Sqrt(area)
		for iDim := 0; iDim < nDim; iDim++ {
			unit[iDim] = normal[iDim] / area
		}
		uDom := fld.Solution(iPoint)
		psiDom := s.Psi(iPoint)

		if sv.Mode.Incompressible {
			jNeighbor := sv.nearestInteriorNeighbor(iPoint, v)
			if sv.Mode.FreeSurface {
				var (
					height   = msh.Nodes[iPoint].Coord[nDim-1]
					levelSet = height - sv.Par.FreeSurfaceZero
					rhoOut   = fld.DensityInc(iPoint)
				)
				if levelSet < -sv.Par.FreeSurfaceThickness {
					rhoOut = fld.FS.Density
				}
				if levelSet > sv.Par.FreeSurfaceThickness {
					rhoOut = sv.Par.RatioDensity * fld.FS.Density
				}
				uOut[0] = incPres + rhoOut*(sv.Par.FreeSurfaceZero-height)/
					(sv.Par.Froude*sv.Par.Froude)
			} else {
				uOut[0] = incPres
			}
			for iDim := 0; iDim < nDim; iDim++ {
				uOut[iDim+1] = fld.Solution(jNeighbor)[iDim+1]
			}
			// The pressure adjoint follows the streamwise momentum
			// adjoint of the interior through the exit coefficient.
			coeff := 2. * uDom[1] / fld.BetaInc2(jNeighbor)
			psiOut[nDim] = 0
			psiOut[1] = s.Psi(jNeighbor)[1]
			psiOut[0] = -coeff * psiOut[1]
			sv.boundaryUpwindFluxArtComp(iPoint, normal, uDom, uOut, psiDom, psiOut, res, jacII)
			s.SubConv(iPoint, res)
			if implicit {
				sv.Jac.SubtractBlock(iPoint, iPoint, jacII)
			}
			continue
		}

		machExit := math.Sqrt(fld.SqVel(iPoint)) / fld.SoundSpeed(iPoint)
		if machExit >= 1. {
			copy(uOut, uDom)
			for iVar := 0; iVar < nVar; iVar++ {
				psiOut[iVar] = 0
			}
		} else {
			projVel := sv.subsonicExitState(iPoint, spec.PExit, unit, uOut, vel)
			var uBn float64
			if sv.Mode.RotatingFrame {
				uBn = -v.RotFlux / area
			}
			if sv.Mode.GridMovement {
				for iDim := 0; iDim < nDim; iDim++ {
					uBn += msh.Nodes[iPoint].GridVel[iDim] * unit[iDim]
				}
			}
			var (
				rhoExit = uOut[0]
				a1      = gamma * (spec.PExit / (rhoExit * gm1)) / (projVel - uBn)
				psiE    = psiDom[nVar-1]
				sqVel   float64
			)
			for iDim := 0; iDim < nDim; iDim++ {
				sqVel += vel[iDim] * vel[iDim]
			}
			psiOut[nVar-1] = psiE
			psiOut[0] = psiE * (0.5*sqVel + a1*projVel)
			for iDim := 0; iDim < nDim; iDim++ {
				psiOut[iDim+1] = -psiE * (a1*unit[iDim] + vel[iDim])
			}
		}

		sv.boundaryUpwindFlux(normal, uDom, uOut, psiDom, psiOut, res, jacII)
		s.SubConv(iPoint, res)
		if implicit {
			sv.Jac.SubtractBlock(iPoint, iPoint, jacII)
		}
	}
}

// BCNacelleInflow treats the fan face as a subsonic outlet at the local
// fan-face pressure; the exterior adjoint is zero.
func (sv *Solver) BCNacelleInflow(im int) {
	var (
		msh      = sv.Msh
		fld      = sv.Flow
		s        = sv.S
		nVar     = sv.NVar
		nDim     = sv.NDim
		implicit = sv.Par.TimeInt == EULER_IMPLICIT

		normal = make([]float64, nDim)
		unit   = make([]float64, nDim)
		vel    = make([]float64, nDim)
		uFan   = make([]float64, nVar)
		psiFan = make([]float64, nVar)
		res    = make([]float64, nVar)
		jacII  = sv.jacB
	)
	for iv := range msh.Markers[im].Vertices {
		var (
			v      = &msh.Markers[im].Vertices[iv]
			iPoint = v.Node
		)
		if !msh.Nodes[iPoint].Domain {
			continue
		}
		for iDim := 0; iDim < nDim; iDim++ {
			normal[iDim] = -v.Normal[iDim]
		}
		var area float64
		for iDim := 0; iDim < nDim; iDim++ {
			area += normal[iDim] * normal[iDim]
		}
		area = math.Sqrt(area)
		for iDim := 0; iDim < nDim; iDim++ {
			unit[iDim] = normal[iDim] / area
		}
		pFan := fld.Pressure(iPoint)
		sv.subsonicExitState(iPoint, pFan, unit, uFan, vel)
		sv.boundaryUpwindFlux(normal, fld.Solution(iPoint), uFan, s.Psi(iPoint), psiFan, res, jacII)
		s.SubConv(iPoint, res)
		if implicit {
			sv.Jac.SubtractBlock(iPoint, iPoint, jacII)
		}
	}
}

// BCNacelleExhaust is a stagnation inflow along the inward face normal,
// fed by the nozzle totals of the marker's spec; the exterior adjoint
// is zero.
func (sv *Solver) BCNacelleExhaust(im int) {
	var (
		msh      = sv.Msh
		fld      = sv.Flow
		s        = sv.S
		nVar     = sv.NVar
		nDim     = sv.NDim
		gamma    = sv.Phys.Gamma
		gm1      = sv.Phys.GammaM1()
		gasC     = sv.Phys.GasConstant
		implicit = sv.Par.TimeInt == EULER_IMPLICIT

		spec, ok = sv.Par.Nozzles[msh.Markers[im].Tag]

		normal  = make([]float64, nDim)
		unit    = make([]float64, nDim)
		vel     = make([]float64, nDim)
		flowDir = make([]float64, nDim)
		uExh    = make([]float64, nVar)
		psiExh  = make([]float64, nVar)
		res     = make([]float64, nVar)
		jacII   = sv.jacB
	)
	if !ok {
		panic(fmt.Errorf("no nozzle data for marker %q", msh.Markers[im].Tag))
	}
	for iv := range msh.Markers[im].Vertices {
		var (
			v      = &msh.Markers[im].Vertices[iv]
			iPoint = v.Node
		)
		if !msh.Nodes[iPoint].Domain {
			continue
		}
		var area float64
		for iDim := 0; iDim < nDim; iDim++ {
			normal[iDim] = -v.Normal[iDim]
			area += normal[iDim] * normal[iDim]
		}
		area = math.Sqrt(area)
		for iDim := 0; iDim < nDim; iDim++ {
			unit[iDim] = normal[iDim] / area
			flowDir[iDim] = -unit[iDim]
		}
		uDom := fld.Solution(iPoint)
		density, _, soundSpeed := ConservativeState(gamma, uDom, vel, nDim)
		var projVel float64
		for iDim := 0; iDim < nDim; iDim++ {
			projVel += vel[iDim] * unit[iDim]
		}
		var (
			riemann  = 2.*soundSpeed/gm1 + projVel
			pressure = fld.Pressure(iPoint)
			energy   = fld.Energy(iPoint)
			sqVel    = fld.SqVel(iPoint)
			hTotal   = gamma * gasC / gm1 * spec.TTotal
			cTot2    = gm1*(hTotal-(energy+pressure/density)+0.5*sqVel) +
				soundSpeed*soundSpeed
		)
		var alpha float64
		for iDim := 0; iDim < nDim; iDim++ {
			alpha += unit[iDim] * flowDir[iDim]
		}
		var (
			aa = 1. + 0.5*gm1*alpha*alpha
			bb = -gm1 * alpha * riemann
			cc = 0.5*gm1*riemann*riemann - 2.*cTot2/gm1
			dd = math.Sqrt(math.Max(0., bb*bb-4.*aa*cc))

			velMag = math.Max(0., (-bb+dd)/(2.*aa))
			vel2   = velMag * velMag
			c2     = cTot2 - 0.5*gm1*vel2
			mach2  = math.Min(1., vel2/c2)
		)
		vel2 = mach2 * c2
		velMag = math.Sqrt(vel2)
		c2 = cTot2 - 0.5*gm1*vel2
		var (
			temp = c2 / (gamma * gasC)
			pres = spec.PTotal * math.Pow(temp/spec.TTotal, gamma/gm1)
			rho  = pres / (gasC * temp)
			en   = pres/(rho*gm1) + 0.5*vel2
		)
		uExh[0] = rho
		for iDim := 0; iDim < nDim; iDim++ {
			uExh[iDim+1] = rho * velMag * flowDir[iDim]
		}
		uExh[nVar-1] = rho * en

		sv.boundaryUpwindFlux(normal, uDom, uExh, s.Psi(iPoint), psiExh, res, jacII)
		s.SubConv(iPoint, res)
		if implicit {
			sv.Jac.SubtractBlock(iPoint, iPoint, jacII)
		}
	}
}

// BCInterface couples the two halves of a sliding interface: the ghost
// state is the owner's donor point on the opposite side.
func (sv *Solver) BCInterface(im int) {
	var (
		msh    = sv.Msh
		fld    = sv.Flow
		s      = sv.S
		nDim   = sv.NDim
		normal = make([]float64, nDim)
		res    = make([]float64, sv.NVar)
	)
	for iv := range msh.Markers[im].Vertices {
		var (
			v      = &msh.Markers[im].Vertices[iv]
			iPoint = v.Node
			jPoint = v.Donor
		)
		if !msh.Nodes[iPoint].Domain {
			continue
		}
		for iDim := 0; iDim < nDim; iDim++ {
			normal[iDim] = -v.Normal[iDim]
		}
		if sv.Mode.Incompressible {
			sv.boundaryUpwindFluxArtComp(iPoint, normal, fld.Solution(iPoint),
				fld.Solution(jPoint), s.Psi(iPoint), s.Psi(jPoint), res, nil)
		} else {
			sv.boundaryUpwindFlux(normal, fld.Solution(iPoint), fld.Solution(jPoint),
				s.Psi(iPoint), s.Psi(jPoint), res, nil)
		}
		s.SubConv(iPoint, res)
	}
}

// BCNearField matches the two sheets of the nearfield boundary. For the
// sonic-boom functionals the adjoint jumps across the boundary by the
// prescribed interior jump; otherwise the sheets couple like a plain
// interface.
func (sv *Solver) BCNearField(im int) {
	var (
		msh      = sv.Msh
		fld      = sv.Flow
		s        = sv.S
		nVar     = sv.NVar
		nDim     = sv.NDim
		normal   = make([]float64, nDim)
		psiGhost = make([]float64, nVar)
		res      = make([]float64, nVar)

		jumped = sv.Par.Objective == EQUIVALENT_AREA ||
			sv.Par.Objective == NEARFIELD_PRESSURE
	)
	for iv := range msh.Markers[im].Vertices {
		var (
			v      = &msh.Markers[im].Vertices[iv]
			iPoint = v.Node
			jPoint = v.Donor
		)
		if !msh.Nodes[iPoint].Domain {
			continue
		}
		for iDim := 0; iDim < nDim; iDim++ {
			normal[iDim] = -v.Normal[iDim]
		}
		psiDom := s.Psi(iPoint)

		if jumped {
			// The inner sheet has the vertex normal pointing down; the
			// mean adjoint plus/minus half the jump gives each side its
			// ghost state.
			pin, pout := iPoint, jPoint
			if v.Normal[nDim-1] >= 0. {
				pin, pout = jPoint, iPoint
			}
			jump := s.Jump(iPoint)
			for iVar := 0; iVar < nVar; iVar++ {
				meanPsi := 0.5 * (s.Psi(pin)[iVar] + s.Psi(pout)[iVar])
				if iPoint == pin {
					psiGhost[iVar] = 2.*meanPsi - s.Psi(pin)[iVar] - jump[iVar]
				} else {
					psiGhost[iVar] = 2.*meanPsi - s.Psi(pout)[iVar] + jump[iVar]
				}
			}
		} else {
			copy(psiGhost, s.Psi(jPoint))
		}

		sv.boundaryUpwindFlux(normal, fld.Solution(iPoint), fld.Solution(jPoint),
			psiDom, psiGhost, res, nil)
		s.SubConv(iPoint, res)
	}
}

// nearestInteriorNeighbor picks the interior point used for Neumann
// extrapolation at a boundary vertex: the neighbor reaching deepest
// into the domain along the inward vertex normal.
func (sv *Solver) nearestInteriorNeighbor(iPoint int, v *geometry.Vertex) (jPoint int) {
	var (
		msh   = sv.Msh
		nDim  = sv.NDim
		coord = msh.Nodes[iPoint].Coord
		best  = math.Inf(-1)
	)
	jPoint = iPoint
	for _, nb := range msh.Neighbors(iPoint) {
		var proj float64
		for iDim := 0; iDim < nDim; iDim++ {
			proj += (msh.Nodes[nb].Coord[iDim] - coord[iDim]) * v.Normal[iDim]
		}
		if proj > best {
			best = proj
			jPoint = nb
		}
	}
	return
}
