package adjoint

import (
	"math"

	"github.com/AcademicHacker/SU2/geometry"
)

/*
viscousKernel evaluates the adjoint average-gradient viscous flux at one
side of an edge. With the adjoint stress tensor
	eta_ij = ViscDens [ (dPhi_i/dx_j + dPhi_j/dx_i)
	                  + (v_i dPsiE/dx_j + v_j dPsiE/dx_i) ]
	       - (2/3) ViscDens delta_ij [ div Phi + v . grad PsiE ]
and Sigma_5 = XiDens (grad PsiE . n), the residual is
	res[0]   = - v_i eta_ij n_j + (0.5|v|^2 - e_int) Sigma_5
	res[k+1] =       eta_kj n_j - v_k Sigma_5
	res[E]   =                    Sigma_5
where ViscDens = (mu_L + mu_E)/rho and
XiDens = Gamma (mu_L/Pr_L + mu_E/Pr_T)/rho. The kernel is linear in the
adjoint gradients, which the implicit path exploits to probe the
thin-shear-layer Jacobian column by column.
*/
func viscousKernel(vel []float64, sqVelHalf, eInt, viscDens, xiDens float64,
	gradPhi, gradPsiE, normal []float64, nDim int, res []float64) {
	var (
		divPhi, vDotG5, dPsiEdn float64
	)
	for iDim := 0; iDim < nDim; iDim++ {
		divPhi += gradPhi[iDim*nDim+iDim]
		vDotG5 += vel[iDim] * gradPsiE[iDim]
		dPsiEdn += gradPsiE[iDim] * normal[iDim]
	}
	sigma5 := xiDens * dPsiEdn

	res[0] = (sqVelHalf - eInt) * sigma5
	for iDim := 0; iDim < nDim; iDim++ {
		var etaN float64 // eta_ij n_j
		for jDim := 0; jDim < nDim; jDim++ {
			eta := viscDens * (gradPhi[iDim*nDim+jDim] + gradPhi[jDim*nDim+iDim] +
				vel[iDim]*gradPsiE[jDim] + vel[jDim]*gradPsiE[iDim])
			if iDim == jDim {
				eta -= 2. / 3. * viscDens * (divPhi + vDotG5)
			}
			etaN += eta * normal[jDim]
		}
		res[0] -= vel[iDim] * etaN
		res[iDim+1] = etaN - vel[iDim]*sigma5
	}
	res[nDim+1] = sigma5
}

// ViscousResidual accumulates the adjoint viscous edge fluxes. Both edge
// nodes see the same averaged adjoint gradients but their own state and
// transport coefficients; node 0 subtracts, node 1 adds. The implicit
// Jacobian uses the thin-shear-layer approximation of the gradients,
//	grad Psi ~= (Psi_j - Psi_i) (x_j - x_i) / |x_j - x_i|^2
func (sv *Solver) ViscousResidual() {
	if sv.Mode.Incompressible {
		sv.viscousResidualArtComp()
		return
	}
	var (
		msh      = sv.Msh
		fld      = sv.Flow
		s        = sv.S
		nVar     = sv.NVar
		nDim     = sv.NDim
		implicit = sv.Par.TimeInt == EULER_IMPLICIT

		gradPhi  = make([]float64, nDim*nDim)
		gradPsiE = make([]float64, nDim)
		velI     = make([]float64, nDim)
		velJ     = make([]float64, nDim)
		edge     = make([]float64, nDim)
		resI     = make([]float64, nVar)
		resJ     = make([]float64, nVar)
		col      = make([]float64, nVar)
		dPhi     = make([]float64, nDim*nDim)
		dPsiE    = make([]float64, nDim)
		jacII    = sv.jacA
		jacJJ    = sv.jacB
	)
	for _, e := range msh.Edges {
		iPoint, jPoint := e.Nodes[0], e.Nodes[1]

		// Averaged adjoint gradients: momentum block and energy row
		for iDim := 0; iDim < nDim; iDim++ {
			for jDim := 0; jDim < nDim; jDim++ {
				gradPhi[iDim*nDim+jDim] = 0.5 * (sv.PsiGrad(iPoint, iDim+1, jDim) + sv.PsiGrad(jPoint, iDim+1, jDim))
			}
			gradPsiE[iDim] = 0.5 * (sv.PsiGrad(iPoint, nVar-1, iDim) + sv.PsiGrad(jPoint, nVar-1, iDim))
			velI[iDim] = fld.Velocity(iPoint, iDim)
			velJ[iDim] = fld.Velocity(jPoint, iDim)
		}
		var (
			viscDensI, xiDensI, sqI, eIntI = sv.viscousState(iPoint, velI)
			viscDensJ, xiDensJ, sqJ, eIntJ = sv.viscousState(jPoint, velJ)
		)
		viscousKernel(velI, sqI, eIntI, viscDensI, xiDensI, gradPhi, gradPsiE, e.Normal, nDim, resI)
		viscousKernel(velJ, sqJ, eIntJ, viscDensJ, xiDensJ, gradPhi, gradPsiE, e.Normal, nDim, resJ)

		s.SubVisc(iPoint, resI)
		s.AddVisc(jPoint, resJ)

		if !implicit {
			continue
		}

		// TSL probe: a unit Psi at node j contributes edge/dist2 to the
		// gradient, a unit Psi at node i the negative of it.
		var dist2 float64
		coordI, coordJ := msh.Nodes[iPoint].Coord, msh.Nodes[jPoint].Coord
		for iDim := 0; iDim < nDim; iDim++ {
			edge[iDim] = coordJ[iDim] - coordI[iDim]
			dist2 += edge[iDim] * edge[iDim]
		}
		dist2 += geometry.EPS
		for kVar := 0; kVar < nVar; kVar++ {
			for k := range dPhi {
				dPhi[k] = 0
			}
			for k := range dPsiE {
				dPsiE[k] = 0
			}
			switch {
			case kVar >= 1 && kVar <= nDim:
				for jDim := 0; jDim < nDim; jDim++ {
					dPhi[(kVar-1)*nDim+jDim] = edge[jDim] / dist2
				}
			case kVar == nVar-1:
				for jDim := 0; jDim < nDim; jDim++ {
					dPsiE[jDim] = edge[jDim] / dist2
				}
			default:
				// Psi_rho does not enter the viscous flux
				for iVar := 0; iVar < nVar; iVar++ {
					jacII[iVar*nVar+kVar] = 0
					jacJJ[iVar*nVar+kVar] = 0
				}
				continue
			}
			// d res_i / d Psi_j, column kVar; d/dPsi_i is its negative
			viscousKernel(velI, sqI, eIntI, viscDensI, xiDensI, dPhi, dPsiE, e.Normal, nDim, col)
			for iVar := 0; iVar < nVar; iVar++ {
				jacII[iVar*nVar+kVar] = col[iVar]
			}
			viscousKernel(velJ, sqJ, eIntJ, viscDensJ, xiDensJ, dPhi, dPsiE, e.Normal, nDim, col)
			for iVar := 0; iVar < nVar; iVar++ {
				jacJJ[iVar*nVar+kVar] = col[iVar]
			}
		}
		// Residual scatter is Sub(i)/Add(j), the Jacobian follows it:
		// Jac_ij = dres_i/dPsi_j = jacII, Jac_ii = -jacII, and the same
		// pattern with jacJJ on row j.
		sv.Jac.AddBlock(iPoint, iPoint, jacII) // subtract of -jacII
		sv.Jac.SubtractBlock(iPoint, jPoint, jacII)
		for k := 0; k < nVar*nVar; k++ {
			sv.scratch[k] = -jacJJ[k]
		}
		sv.Jac.AddBlock(jPoint, iPoint, sv.scratch)
		sv.Jac.AddBlock(jPoint, jPoint, jacJJ)
	}
}

// viscousResidualArtComp is the incompressible variant: the adjoint
// viscous flux is the plain diffusion of the momentum adjoints,
//	res[k+1] = mu_tot (mean grad Phi_k) . n
// with no pressure-adjoint coupling.
func (sv *Solver) viscousResidualArtComp() {
	var (
		msh      = sv.Msh
		fld      = sv.Flow
		s        = sv.S
		nVar     = sv.NVar
		nDim     = sv.NDim
		implicit = sv.Par.TimeInt == EULER_IMPLICIT
		res      = make([]float64, nVar)
	)
	for _, e := range msh.Edges {
		iPoint, jPoint := e.Nodes[0], e.Nodes[1]
		var (
			muI = fld.LaminarViscosity(iPoint) + fld.EddyViscosity(iPoint)
			muJ = fld.LaminarViscosity(jPoint) + fld.EddyViscosity(jPoint)
			mu  = 0.5 * (muI + muJ)
		)
		res[0] = 0
		for iDim := 0; iDim < nDim; iDim++ {
			var flux float64
			for jDim := 0; jDim < nDim; jDim++ {
				flux += 0.5 * (sv.PsiGrad(iPoint, iDim+1, jDim) + sv.PsiGrad(jPoint, iDim+1, jDim)) * e.Normal[jDim]
			}
			res[iDim+1] = mu * flux
		}
		s.SubVisc(iPoint, res)
		s.AddVisc(jPoint, res)

		if implicit {
			// TSL diffusion coupling, diagonal in the variables
			coordI, coordJ := msh.Nodes[iPoint].Coord, msh.Nodes[jPoint].Coord
			var proj, dist2 float64
			for iDim := 0; iDim < nDim; iDim++ {
				d := coordJ[iDim] - coordI[iDim]
				proj += d * e.Normal[iDim]
				dist2 += d * d
			}
			cte := mu * proj / (dist2 + geometry.EPS)
			for k := 0; k < nVar*nVar; k++ {
				sv.scratch[k] = 0
			}
			for iVar := 1; iVar < nVar; iVar++ {
				sv.scratch[iVar*nVar+iVar] = cte
			}
			// res depends on Psi_j with +cte, on Psi_i with -cte
			sv.Jac.AddBlock(iPoint, iPoint, sv.scratch)
			sv.Jac.SubtractBlock(iPoint, jPoint, sv.scratch)
			for k := 0; k < nVar*nVar; k++ {
				sv.scratch[k] = -sv.scratch[k]
			}
			sv.Jac.AddBlock(jPoint, iPoint, sv.scratch)
			for k := 0; k < nVar*nVar; k++ {
				sv.scratch[k] = -sv.scratch[k]
			}
			sv.Jac.AddBlock(jPoint, jPoint, sv.scratch)
		}
	}
}

// viscousState returns the density-scaled transport coefficients and the
// kinetic/internal energy split at node i.
func (sv *Solver) viscousState(i int, vel []float64) (viscDens, xiDens, sqVelHalf, eInt float64) {
	var (
		fld = sv.Flow
		rho = fld.Density(i)
		muL = fld.LaminarViscosity(i)
		muE = fld.EddyViscosity(i)
	)
	viscDens = (muL + muE) / rho
	xiDens = sv.Phys.Gamma * (muL/sv.Phys.PrandtlLam + muE/sv.Phys.PrandtlTurb) / rho
	for iDim := range vel {
		sqVelHalf += 0.5 * vel[iDim] * vel[iDim]
	}
	eInt = fld.Pressure(i) / (rho * sv.Phys.GammaM1())
	return
}

/*
ViscousSourceResidual adds the volumetric adjoint source of the viscous
terms. The viscous flux F_v(U, grad U) is differentiated with respect to
the conservative state at frozen conservative gradients; the source is
the contraction
	S_k = - dF_v[j][eq]/dU_k  dPsi_eq/dx_j
times the dual volume, added to the convective residual. With
D_ij = dv_i/dx_j = (dm_i/dx_j - v_i drho/dx_j)/rho the partials are
	dD_ij/drho  = (-D_ij + v_i Grho_j/rho)/rho
	dD_ij/dm_k  = -delta_ik Grho_j/rho^2
and the stress and heat-flux rows follow by the chain rule.
*/
func (sv *Solver) ViscousSourceResidual() {
	if sv.Mode.Incompressible {
		return
	}
	var (
		msh  = sv.Msh
		fld  = sv.Flow
		s    = sv.S
		nVar = sv.NVar
		nDim = sv.NDim
		gm1  = sv.Phys.GammaM1()
		rGas = sv.Phys.GasConstant

		vel   = make([]float64, nDim)
		gRho  = make([]float64, nDim)
		gE    = make([]float64, nDim)
		dV    = make([]float64, nDim*nDim) // D_ij
		dSigR = make([]float64, nDim*nDim) // dsigma_ij/drho
		aIJ   = make([]float64, nDim*nDim) // dD_ij/drho
		res   = make([]float64, nVar)
	)
	for iPoint := 0; iPoint < msh.NNodes(); iPoint++ {
		var (
			rho   = fld.Density(iPoint)
			muL   = fld.LaminarViscosity(iPoint)
			muE   = fld.EddyViscosity(iPoint)
			mu1   = muL + muE
			kHeat = sv.Phys.Gamma / gm1 * rGas * (muL/sv.Phys.PrandtlLam + muE/sv.Phys.PrandtlTurb)
			eTot  = fld.Energy(iPoint) // total energy per volume
			vol   = msh.Nodes[iPoint].Volume
			sqVel float64
		)
		for iDim := 0; iDim < nDim; iDim++ {
			vel[iDim] = fld.Velocity(iPoint, iDim)
			sqVel += vel[iDim] * vel[iDim]
			gRho[iDim] = fld.GradCons(iPoint, 0, iDim)
			gE[iDim] = fld.GradCons(iPoint, nVar-1, iDim)
		}
		var divV float64
		for iDim := 0; iDim < nDim; iDim++ {
			for jDim := 0; jDim < nDim; jDim++ {
				dV[iDim*nDim+jDim] = (fld.GradCons(iPoint, iDim+1, jDim) - vel[iDim]*gRho[jDim]) / rho
				aIJ[iDim*nDim+jDim] = (-dV[iDim*nDim+jDim] + vel[iDim]*gRho[jDim]/rho) / rho
			}
			divV += dV[iDim*nDim+iDim]
		}
		var divA float64
		for iDim := 0; iDim < nDim; iDim++ {
			divA += aIJ[iDim*nDim+iDim]
		}
		// dsigma_ij/drho
		for iDim := 0; iDim < nDim; iDim++ {
			for jDim := 0; jDim < nDim; jDim++ {
				dSigR[iDim*nDim+jDim] = mu1 * (aIJ[iDim*nDim+jDim] + aIJ[jDim*nDim+iDim])
				if iDim == jDim {
					dSigR[iDim*nDim+jDim] -= 2. / 3. * mu1 * divA
				}
			}
		}

		for iVar := 0; iVar < nVar; iVar++ {
			res[iVar] = 0
		}
		for jDim := 0; jDim < nDim; jDim++ {
			var (
				phiGradCol = func(iDim int) float64 { return sv.PsiGrad(iPoint, iDim+1, jDim) }
				psiEGrad   = sv.PsiGrad(iPoint, nVar-1, jDim)
			)
			// sigma_ij at the node, used by the energy-row partials
			sigmaJ := func(iDim int) float64 {
				sig := mu1 * (dV[iDim*nDim+jDim] + dV[jDim*nDim+iDim])
				if iDim == jDim {
					sig -= 2. / 3. * mu1 * divV
				}
				return sig
			}

			// Momentum rows: S_k -= dsigma_ij/dU_k dPhi_i/dx_j
			for iDim := 0; iDim < nDim; iDim++ {
				gp := phiGradCol(iDim)
				res[0] -= dSigR[iDim*nDim+jDim] * gp
				// dsigma_ij/dm_k = mu1 (b_ijk + b_jik - 2/3 delta_ij b_llk)
				for kDim := 0; kDim < nDim; kDim++ {
					dsig := 0.
					if kDim == iDim {
						dsig -= mu1 * gRho[jDim] / (rho * rho)
					}
					if kDim == jDim {
						dsig -= mu1 * gRho[iDim] / (rho * rho)
					}
					if iDim == jDim {
						dsig += 2. / 3. * mu1 * gRho[kDim] / (rho * rho)
					}
					res[kDim+1] -= dsig * gp
				}
			}

			// Energy row E_j = v_i sigma_ij + k dT/dx_j
			var (
				vDotDVj, vSigJ float64
			)
			for iDim := 0; iDim < nDim; iDim++ {
				vDotDVj += vel[iDim] * dV[iDim*nDim+jDim]
				vSigJ += vel[iDim] * dSigR[iDim*nDim+jDim]
			}
			// dE_j/drho
			dEdRho := vSigJ
			for iDim := 0; iDim < nDim; iDim++ {
				dEdRho -= vel[iDim] / rho * sigmaJ(iDim)
			}
			dEdRho += kHeat * gm1 / rGas * (-gE[jDim]/(rho*rho) + 2*eTot*gRho[jDim]/(rho*rho*rho) +
				(2*vDotDVj-sqVel*gRho[jDim]/rho)/rho)
			res[0] -= dEdRho * psiEGrad
			// dE_j/dm_k
			for kDim := 0; kDim < nDim; kDim++ {
				dEdM := sigmaJ(kDim) / rho
				for iDim := 0; iDim < nDim; iDim++ {
					dsig := 0.
					if kDim == iDim {
						dsig -= mu1 * gRho[jDim] / (rho * rho)
					}
					if kDim == jDim {
						dsig -= mu1 * gRho[iDim] / (rho * rho)
					}
					if iDim == jDim {
						dsig += 2. / 3. * mu1 * gRho[kDim] / (rho * rho)
					}
					dEdM += vel[iDim] * dsig
				}
				dEdM += kHeat * gm1 / rGas * (-dV[kDim*nDim+jDim]/rho + vel[kDim]*gRho[jDim]/(rho*rho))
				res[kDim+1] -= dEdM * psiEGrad
			}
			// dE_j/de
			res[nVar-1] -= kHeat * gm1 / rGas * (-gRho[jDim] / (rho * rho)) * psiEGrad
		}

		for iVar := 0; iVar < nVar; iVar++ {
			res[iVar] *= vol
		}
		s.AddConv(iPoint, res)
	}
}

// ViscousSensitivity evaluates the no-slip surface sensitivity
//	CSens = (sigma_partial - tang_psi_5) Area
// with sigma_partial = n_i Sigma_ij dv_j/dn built from the adjoint
// stress tensor and tang_psi_5 the tangential coupling of grad PsiE with
// the tangential temperature gradient.
func (sv *Solver) ViscousSensitivity() {
	var (
		msh  = sv.Msh
		fld  = sv.Flow
		nVar = sv.NVar
		nDim = sv.NDim
		cp   = sv.Phys.Gamma / sv.Phys.GammaM1() * sv.Phys.GasConstant

		unitNormal   = make([]float64, nDim)
		normGradVel  = make([]float64, nDim)
		tangPsi5Vec  = make([]float64, nDim)
		tangTVec     = make([]float64, nDim)
		sigma        = make([]float64, nDim*nDim)
	)
	sv.SetSurfaceGradient()

	sv.TotalSensGeo = 0
	for im, m := range msh.Markers {
		sv.SensGeo[im] = 0
		if m.Kind != geometry.NO_SLIP_WALL {
			continue
		}
		for iv, v := range m.Vertices {
			iPoint := v.Node
			var (
				muLam          = fld.LaminarViscosity(iPoint)
				heatFluxFactor = cp * muLam / sv.Phys.PrandtlLam
			)
			var area float64
			for iDim := 0; iDim < nDim; iDim++ {
				area += v.Normal[iDim] * v.Normal[iDim]
			}
			area = math.Sqrt(area)
			for iDim := 0; iDim < nDim; iDim++ {
				unitNormal[iDim] = v.Normal[iDim] / area
			}

			var tangPsi5 float64
			if !sv.Mode.Incompressible {
				var normGradPsi5, normGradT float64
				for iDim := 0; iDim < nDim; iDim++ {
					normGradPsi5 += sv.PsiGrad(iPoint, nVar-1, iDim) * unitNormal[iDim]
					normGradT += fld.GradPrimitive(iPoint, 0, iDim) * unitNormal[iDim]
				}
				for iDim := 0; iDim < nDim; iDim++ {
					tangPsi5Vec[iDim] = sv.PsiGrad(iPoint, nVar-1, iDim) - normGradPsi5*unitNormal[iDim]
					tangTVec[iDim] = fld.GradPrimitive(iPoint, 0, iDim) - normGradT*unitNormal[iDim]
				}
				for iDim := 0; iDim < nDim; iDim++ {
					tangPsi5 += heatFluxFactor * tangPsi5Vec[iDim] * tangTVec[iDim]
				}
			}

			var divPhi float64
			for iDim := 0; iDim < nDim; iDim++ {
				divPhi += sv.PsiGrad(iPoint, iDim+1, iDim)
				for jDim := 0; jDim < nDim; jDim++ {
					sigma[iDim*nDim+jDim] = muLam * (sv.PsiGrad(iPoint, iDim+1, jDim) + sv.PsiGrad(iPoint, jDim+1, iDim))
				}
			}
			if !sv.Mode.Incompressible {
				for iDim := 0; iDim < nDim; iDim++ {
					sigma[iDim*nDim+iDim] -= 2. / 3. * muLam * divPhi
				}
			}
			for iDim := 0; iDim < nDim; iDim++ {
				normGradVel[iDim] = 0
				for jDim := 0; jDim < nDim; jDim++ {
					normGradVel[iDim] += fld.GradPrimitive(iPoint, iDim+1, jDim) * unitNormal[jDim]
				}
			}
			var sigmaPartial float64
			for iDim := 0; iDim < nDim; iDim++ {
				for jDim := 0; jDim < nDim; jDim++ {
					sigmaPartial += unitNormal[iDim] * sigma[iDim*nDim+jDim] * normGradVel[jDim]
				}
			}

			sv.CSensitivity[im][iv] = (sigmaPartial - tangPsi5) * area
			sv.SensGeo[im] -= sv.CSensitivity[im][iv] * area
		}
		sv.TotalSensGeo += sv.SensGeo[im]
	}
}
