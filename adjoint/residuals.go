package adjoint

import (
	"math"

	"github.com/AcademicHacker/SU2/geometry"
)

// SpaceIntegration accumulates the interior residuals of one
// pseudo-time evaluation: convective (centered or upwind), viscous when
// the primal is Navier-Stokes, and the volumetric sources.
func (sv *Solver) SpaceIntegration(dissipation bool) {
	switch sv.Par.Scheme {
	case JST:
		sv.CenteredResidual(dissipation)
	case ROE_1ST, ROE_2ND:
		sv.UpwindResidual()
	}
	if sv.Mode.Viscous {
		sv.ViscousResidual()
	}
	sv.SourceResidual()
}

/*
CenteredResidual is the adjoint JST scheme. The convective part at each
edge node is the transposed projected Jacobian applied to the edge mean
of Psi:
	R_i =  A(U_i, n)^T MeanPsi
	R_j = -A(U_j, n)^T MeanPsi
both subtracted from the owner's convective residual. The scalar
dissipation blends a 2nd difference (driven by the adjoint sensor) with
a 4th difference of the undivided Laplacian, scaled by the spectral
radius and a stretching factor.
*/
func (sv *Solver) CenteredResidual(dissipation bool) {
	var (
		msh      = sv.Msh
		fld      = sv.Flow
		s        = sv.S
		nVar     = sv.NVar
		nDim     = sv.NDim
		implicit = sv.Par.TimeInt == EULER_IMPLICIT

		meanPsi  = make([]float64, nVar)
		resI     = make([]float64, nVar)
		resJ     = make([]float64, nVar)
		velI     = make([]float64, nDim)
		velJ     = make([]float64, nDim)
		diffPsi  = make([]float64, nVar)
		diffLapl = make([]float64, nVar)
	)
	for _, e := range msh.Edges {
		iPoint, jPoint := e.Nodes[0], e.Nodes[1]

		var area float64
		for iDim := 0; iDim < nDim; iDim++ {
			area += e.Normal[iDim] * e.Normal[iDim]
			velI[iDim] = fld.Velocity(iPoint, iDim)
			velJ[iDim] = fld.Velocity(jPoint, iDim)
		}
		area = math.Sqrt(area)

		for iVar := 0; iVar < nVar; iVar++ {
			meanPsi[iVar] = 0.5 * (s.Solution[iPoint*nVar+iVar] + s.Solution[jPoint*nVar+iVar])
			resI[iVar], resJ[iVar] = 0, 0
		}

		if sv.Mode.Incompressible {
			InviscidProjJacArtComp(fld.BetaInc2(iPoint), fld.DensityInc(iPoint), velI, e.Normal, 1, sv.jacA, nDim)
			InviscidProjJacArtComp(fld.BetaInc2(jPoint), fld.DensityInc(jPoint), velJ, e.Normal, 1, sv.jacB, nDim)
		} else {
			InviscidProjJac(sv.Phys.Gamma, velI, fld.Enthalpy(iPoint), e.Normal, 1, sv.jacA, nDim)
			InviscidProjJac(sv.Phys.Gamma, velJ, fld.Enthalpy(jPoint), e.Normal, 1, sv.jacB, nDim)
		}
		MulTransposed(sv.jacA, nVar, meanPsi, resI)
		MulTransposed(sv.jacB, nVar, meanPsi, resJ)
		for iVar := 0; iVar < nVar; iVar++ {
			resJ[iVar] = -resJ[iVar]
		}
		if sv.Mode.RotatingFrame {
			// The relative flux shifts the projected velocity by the
			// rotational face flux.
			for iVar := 0; iVar < nVar; iVar++ {
				resI[iVar] -= e.RotFlux * meanPsi[iVar]
				resJ[iVar] += e.RotFlux * meanPsi[iVar]
			}
		}

		s.SubConv(iPoint, resI)
		s.SubConv(jPoint, resJ)

		if implicit {
			// d(R)/dPsi: half the transposed Jacobians on all four blocks
			for k := 0; k < nVar*nVar; k++ {
				sv.scratch[k] = 0
			}
			Transpose(sv.jacA, nVar, sv.scratch)
			for k := 0; k < nVar*nVar; k++ {
				sv.scratch[k] *= 0.5
			}
			if sv.Mode.RotatingFrame {
				for iVar := 0; iVar < nVar; iVar++ {
					sv.scratch[iVar*nVar+iVar] -= 0.5 * e.RotFlux
				}
			}
			sv.Jac.SubtractBlock(iPoint, iPoint, sv.scratch)
			sv.Jac.SubtractBlock(iPoint, jPoint, sv.scratch)

			Transpose(sv.jacB, nVar, sv.scratch)
			for k := 0; k < nVar*nVar; k++ {
				sv.scratch[k] *= -0.5
			}
			if sv.Mode.RotatingFrame {
				for iVar := 0; iVar < nVar; iVar++ {
					sv.scratch[iVar*nVar+iVar] += 0.5 * e.RotFlux
				}
			}
			sv.Jac.SubtractBlock(jPoint, iPoint, sv.scratch)
			sv.Jac.SubtractBlock(jPoint, jPoint, sv.scratch)
		}

		if !dissipation {
			continue
		}

		/*
			Artificial dissipation:
				Lambda_i = |v_i.n| + c_i*Area	(spectral radius on the face)
				Phi_i = (Lambda_i / (4 MeanLambda))^p,	p = 0.3
				SF = 4 Phi_i Phi_j / (Phi_i + Phi_j)
				sc2 = 3 (N_i+N_j)/(N_i N_j), sc4 = sc2^2 / 4
				eps2 = kappa2 * 0.5 (Sensor_i+Sensor_j) * sc2
				eps4 = max(0, kappa4 - eps2) * sc4
				Residual = (eps2 DiffPsi - eps4 DiffLapl) * SF * MeanLambda
		*/
		const paramP = 0.3
		var (
			pvI = fld.ProjVel(iPoint, e.Normal)
			pvJ = fld.ProjVel(jPoint, e.Normal)
		)
		if sv.Mode.RotatingFrame {
			pvI -= e.RotFlux
			pvJ -= e.RotFlux
		}
		var lambdaI, lambdaJ float64
		if sv.Mode.Incompressible {
			lambdaI = math.Abs(pvI) + math.Sqrt(pvI*pvI+fld.BetaInc2(iPoint)/fld.DensityInc(iPoint)*area*area)
			lambdaJ = math.Abs(pvJ) + math.Sqrt(pvJ*pvJ+fld.BetaInc2(jPoint)/fld.DensityInc(jPoint)*area*area)
		} else {
			lambdaI = math.Abs(pvI) + fld.SoundSpeed(iPoint)*area
			lambdaJ = math.Abs(pvJ) + fld.SoundSpeed(jPoint)*area
		}
		var (
			meanLambda = 0.5 * (lambdaI + lambdaJ)
			phiI       = math.Pow(lambdaI/(4*meanLambda+geometry.EPS), paramP)
			phiJ       = math.Pow(lambdaJ/(4*meanLambda+geometry.EPS), paramP)
			sf         = 4 * phiI * phiJ / (phiI + phiJ + geometry.EPS)
			nI         = float64(msh.Nodes[iPoint].NNeighbors)
			nJ         = float64(msh.Nodes[jPoint].NNeighbors)
			sc2        = 3 * (nI + nJ) / (nI * nJ)
			sc4        = sc2 * sc2 / 4
			eps2       = sv.Par.Kappa2 * 0.5 * (s.Sensor[iPoint] + s.Sensor[jPoint]) * sc2
			eps4       = math.Max(0, sv.Par.Kappa4-eps2) * sc4
		)
		for iVar := 0; iVar < nVar; iVar++ {
			diffPsi[iVar] = s.Solution[iPoint*nVar+iVar] - s.Solution[jPoint*nVar+iVar]
			diffLapl[iVar] = s.UndLapl[iPoint*nVar+iVar] - s.UndLapl[jPoint*nVar+iVar]
		}
		for iVar := 0; iVar < nVar; iVar++ {
			residual := (eps2*diffPsi[iVar] - eps4*diffLapl[iVar]) * sf * meanLambda
			s.ResVisc[iPoint*nVar+iVar] += residual // SubtractRes_Visc(-Residual)
			s.ResVisc[jPoint*nVar+iVar] -= residual
		}
		if implicit {
			var (
				cte0 = (eps2 + eps4*(nI+1)) * sf * meanLambda
				cte1 = (eps2 + eps4*(nJ+1)) * sf * meanLambda
			)
			sv.Jac.AddToDiag(iPoint, cte0)
			sv.Jac.AddToDiag(jPoint, -cte1)
		}
	}
}

/*
UpwindResidual is the adjoint Roe scheme:
	R_i =  0.5 A_i^T (Psi_i+Psi_j) - 0.5 |A~|^T (Psi_j-Psi_i)
	R_j = -0.5 A_j^T (Psi_i+Psi_j) - 0.5 |A~|^T (Psi_i-Psi_j)
with the Roe-averaged dissipation matrix |A~|. In the discrete-adjoint
mode only the transposed primal Jacobian blocks are scattered, in the
transposed positions.
*/
func (sv *Solver) UpwindResidual() {
	var (
		msh       = sv.Msh
		fld       = sv.Flow
		s         = sv.S
		nVar      = sv.NVar
		nDim      = sv.NDim
		implicit  = sv.Par.TimeInt == EULER_IMPLICIT
		secondOrd = sv.Par.Scheme == ROE_2ND && !sv.Mode.DiscreteAdjoint

		psiI    = make([]float64, nVar)
		psiJ    = make([]float64, nVar)
		sumPsi  = make([]float64, nVar)
		diffPsi = make([]float64, nVar)
		resI    = make([]float64, nVar)
		resJ    = make([]float64, nVar)
		velI    = make([]float64, nDim)
		velJ    = make([]float64, nDim)
		roeVel  = make([]float64, nDim)
		unit    = make([]float64, nDim)
		absT    = make([]float64, nVar*nVar)
	)
	for _, e := range msh.Edges {
		iPoint, jPoint := e.Nodes[0], e.Nodes[1]

		var area float64
		for iDim := 0; iDim < nDim; iDim++ {
			area += e.Normal[iDim] * e.Normal[iDim]
			velI[iDim] = fld.Velocity(iPoint, iDim)
			velJ[iDim] = fld.Velocity(jPoint, iDim)
		}
		area = math.Sqrt(area)
		for iDim := 0; iDim < nDim; iDim++ {
			unit[iDim] = e.Normal[iDim] / area
		}

		copy(psiI, s.Psi(iPoint))
		copy(psiJ, s.Psi(jPoint))
		if secondOrd {
			// MUSCL half-edge reconstruction of Psi
			coordI, coordJ := msh.Nodes[iPoint].Coord, msh.Nodes[jPoint].Coord
			for iVar := 0; iVar < nVar; iVar++ {
				var projI, projJ float64
				for iDim := 0; iDim < nDim; iDim++ {
					dx := 0.5 * (coordJ[iDim] - coordI[iDim])
					projI += dx * sv.PsiGrad(iPoint, iVar, iDim)
					projJ -= dx * sv.PsiGrad(jPoint, iVar, iDim)
				}
				psiI[iVar] += projI
				psiJ[iVar] += projJ
			}
		}
		for iVar := 0; iVar < nVar; iVar++ {
			sumPsi[iVar] = psiI[iVar] + psiJ[iVar]
			diffPsi[iVar] = psiJ[iVar] - psiI[iVar]
			resI[iVar], resJ[iVar] = 0, 0
		}

		// Roe averages
		var (
			rhoI, rhoJ = fld.Density(iPoint), fld.Density(jPoint)
			r          = math.Sqrt(rhoJ / rhoI)
			hI, hJ     = fld.Enthalpy(iPoint), fld.Enthalpy(jPoint)
			roeH       = (r*hJ + hI) / (r + 1)
			roeRho     = r * rhoI
			roeSq      float64
		)
		for iDim := 0; iDim < nDim; iDim++ {
			roeVel[iDim] = (r*velJ[iDim] + velI[iDim]) / (r + 1)
			roeSq += roeVel[iDim] * roeVel[iDim]
		}
		roeC := math.Sqrt((sv.Phys.Gamma - 1) * (roeH - 0.5*roeSq))

		InviscidProjJac(sv.Phys.Gamma, velI, hI, e.Normal, 0.5, sv.jacA, nDim)
		InviscidProjJac(sv.Phys.Gamma, velJ, hJ, e.Normal, 0.5, sv.jacB, nDim)
		AbsProjJac(sv.Phys.Gamma, roeRho, roeVel, roeH, roeC, unit, 0.5*area, sv.absA, nDim)

		if sv.Mode.DiscreteAdjoint {
			// Jac_i = 0.5 (A_i + |A~|)^T, Jac_j = 0.5 (A_j - |A~|)^T,
			// scattered in the transposed block positions.
			for k := 0; k < nVar*nVar; k++ {
				sv.scratch[k] = sv.jacA[k] + sv.absA[k]
			}
			Transpose(sv.scratch, nVar, absT)
			sv.Jac.AddBlock(iPoint, iPoint, absT)
			sv.Jac.SubtractBlock(iPoint, jPoint, absT)
			for k := 0; k < nVar*nVar; k++ {
				sv.scratch[k] = sv.jacB[k] - sv.absA[k]
			}
			Transpose(sv.scratch, nVar, absT)
			sv.Jac.AddBlock(jPoint, iPoint, absT)
			sv.Jac.SubtractBlock(jPoint, jPoint, absT)
			continue
		}

		MulTransposed(sv.jacA, nVar, sumPsi, resI)
		MulTransposed(sv.absA, nVar, diffPsi, resJ) // resJ = 0.5 |A~|^T (Psi_j-Psi_i)
		for iVar := 0; iVar < nVar; iVar++ {
			resI[iVar] -= resJ[iVar]
			// R_j starts from +0.5 |A~|^T (Psi_j-Psi_i) = -0.5 |A~|^T (Psi_i-Psi_j)
			sumPsi[iVar] = -sumPsi[iVar]
		}
		MulTransposed(sv.jacB, nVar, sumPsi, resJ)

		s.SubConv(iPoint, resI)
		s.SubConv(jPoint, resJ)

		if implicit {
			// dR_i/dPsi_i = 0.5 A_i^T + 0.5 |A~|^T
			Transpose(sv.jacA, nVar, sv.scratch)
			Transpose(sv.absA, nVar, absT)
			for k := 0; k < nVar*nVar; k++ {
				sv.scratch[k] += absT[k]
			}
			sv.Jac.SubtractBlock(iPoint, iPoint, sv.scratch)
			// dR_i/dPsi_j = 0.5 A_i^T - 0.5 |A~|^T
			for k := 0; k < nVar*nVar; k++ {
				sv.scratch[k] -= 2 * absT[k]
			}
			sv.Jac.SubtractBlock(iPoint, jPoint, sv.scratch)
			// dR_j/dPsi_i = -0.5 A_j^T - 0.5 |A~|^T
			Transpose(sv.jacB, nVar, sv.scratch)
			for k := 0; k < nVar*nVar; k++ {
				sv.scratch[k] = -sv.scratch[k] - absT[k]
			}
			sv.Jac.SubtractBlock(jPoint, iPoint, sv.scratch)
			// dR_j/dPsi_j = -0.5 A_j^T + 0.5 |A~|^T
			for k := 0; k < nVar*nVar; k++ {
				sv.scratch[k] += 2 * absT[k]
			}
			sv.Jac.SubtractBlock(jPoint, jPoint, sv.scratch)
		}
	}
}

// SourceResidual adds the volumetric terms: the rotating-frame coupling
// of the momentum adjoints, the stored time-spectral source, the
// axisymmetric terms and, for viscous runs, the gradient-driven source.
func (sv *Solver) SourceResidual() {
	var (
		msh  = sv.Msh
		s    = sv.S
		nVar = sv.NVar
		res  = make([]float64, nVar)
	)
	if sv.Mode.RotatingFrame {
		// Transpose of the primal source -Omega x (rho v): the momentum
		// adjoints pick up +Omega x Phi.
		omega := sv.Flow.FS.RotOmega
		for iPoint := 0; iPoint < msh.NNodes(); iPoint++ {
			var (
				vol = msh.Nodes[iPoint].Volume
				psi = s.Psi(iPoint)
			)
			for iVar := 0; iVar < nVar; iVar++ {
				res[iVar] = 0
			}
			if sv.NDim == 2 {
				res[1] = -omega[2] * psi[2] * vol
				res[2] = omega[2] * psi[1] * vol
			} else {
				res[1] = (omega[1]*psi[3] - omega[2]*psi[2]) * vol
				res[2] = (omega[2]*psi[1] - omega[0]*psi[3]) * vol
				res[3] = (omega[0]*psi[2] - omega[1]*psi[1]) * vol
			}
			s.AddConv(iPoint, res)
		}
	}
	if s.TimeSpectralSource != nil {
		for iPoint := 0; iPoint < msh.NNodes(); iPoint++ {
			vol := msh.Nodes[iPoint].Volume
			for iVar := 0; iVar < nVar; iVar++ {
				res[iVar] = s.TimeSpectralSource[iPoint*nVar+iVar] * vol
			}
			s.AddConv(iPoint, res)
		}
	}
	if sv.Mode.Axisymmetric {
		sv.axisymmetricSource()
	}
	if sv.Mode.Viscous {
		sv.ViscousSourceResidual()
	}
}

/*
axisymmetricSource applies the transpose of the primal axisymmetric
source Jacobian to Psi. With U = (rho, m_x, m_y, e), y the radial
coordinate and S = (1/y) (m_y, u m_y, v m_y, v(e+p)), the rows of dS/dU
are
	( 0,               0,         1,              0     )
	(-u v,             v,         u,              0     )
	(-v^2,             0,         2 v,            0     )
	(-v H + v gm1 q,  -gm1 u v,   H - gm1 v^2,    g v   )
with q = 0.5 |v|^2, gm1 = Gamma-1.
*/
func (sv *Solver) axisymmetricSource() {
	var (
		msh      = sv.Msh
		fld      = sv.Flow
		s        = sv.S
		nVar     = sv.NVar
		gm1      = sv.Phys.GammaM1()
		implicit = sv.Par.TimeInt == EULER_IMPLICIT
		jac      = sv.scratch
		res      = make([]float64, nVar)
	)
	if sv.Mode.Incompressible {
		return
	}
	for iPoint := 0; iPoint < msh.NNodes(); iPoint++ {
		y := msh.Nodes[iPoint].Coord[1]
		if math.Abs(y) < geometry.EPS {
			continue
		}
		var (
			yinv = 1. / y
			vol  = msh.Nodes[iPoint].Volume
			u    = fld.Velocity(iPoint, 0)
			v    = fld.Velocity(iPoint, 1)
			h    = fld.Enthalpy(iPoint)
			q    = 0.5 * (u*u + v*v)
			psi  = s.Psi(iPoint)
		)
		// dS/dU scaled by Volume/y, row-major
		jac[0], jac[1], jac[2], jac[3] = 0, 0, 1, 0
		jac[4], jac[5], jac[6], jac[7] = -u*v, v, u, 0
		jac[8], jac[9], jac[10], jac[11] = -v*v, 0, 2*v, 0
		jac[12] = -v*h + v*gm1*q
		jac[13] = -gm1 * u * v
		jac[14] = h - gm1*v*v
		jac[15] = sv.Phys.Gamma * v
		for k := 0; k < nVar*nVar; k++ {
			jac[k] *= yinv * vol
		}
		for iVar := 0; iVar < nVar; iVar++ {
			res[iVar] = 0
		}
		MulTransposed(jac, nVar, psi, res)
		s.AddConv(iPoint, res)
		if implicit {
			Transpose(jac, nVar, sv.jacA)
			sv.Jac.AddBlock(iPoint, iPoint, sv.jacA)
		}
	}
}
