package adjoint

import "math"

/*
Flux-Jacobian kernels shared by the residual drivers and the boundary
handlers. Every adjoint convective kernel is the transpose of a primal
projected Jacobian evaluated at the local flow state:
	R_conv(i) ~ A(U_i, n)^T * MeanPsi
so the package carries one routine for A and applies transposed products
where the adjoint orientation is needed. Blocks are flat, row-major.
*/

// InviscidProjJac fills jac with scale * dF(U).n/dU for the compressible
// equations.
func InviscidProjJac(gamma float64, vel []float64, enthalpy float64, normal []float64, scale float64, jac []float64, nDim int) {
	var (
		nVar = nDim + 2
		gm1  = gamma - 1.
		pv   float64 // projected velocity
		sq   float64
	)
	for iDim := 0; iDim < nDim; iDim++ {
		pv += vel[iDim] * normal[iDim]
		sq += vel[iDim] * vel[iDim]
	}
	jac[0] = 0
	for jDim := 0; jDim < nDim; jDim++ {
		jac[jDim+1] = scale * normal[jDim]
	}
	jac[nVar-1] = 0
	for iDim := 0; iDim < nDim; iDim++ {
		row := (iDim + 1) * nVar
		jac[row] = scale * (0.5*gm1*sq*normal[iDim] - vel[iDim]*pv)
		for jDim := 0; jDim < nDim; jDim++ {
			jac[row+jDim+1] = scale * (vel[iDim]*normal[jDim] - gm1*vel[jDim]*normal[iDim])
		}
		jac[row+iDim+1] += scale * pv
		jac[row+nVar-1] = scale * gm1 * normal[iDim]
	}
	row := (nVar - 1) * nVar
	jac[row] = scale * (0.5*gm1*sq - enthalpy) * pv
	for jDim := 0; jDim < nDim; jDim++ {
		jac[row+jDim+1] = scale * (enthalpy*normal[jDim] - gm1*vel[jDim]*pv)
	}
	jac[row+nVar-1] = scale * gamma * pv
}

// InviscidProjJacArtComp is the artificial-compressibility counterpart,
// nVar = nDim+1 with the pressure row first.
func InviscidProjJacArtComp(beta2, densityInc float64, vel, normal []float64, scale float64, jac []float64, nDim int) {
	var (
		nVar = nDim + 1
		pv   float64
	)
	for iDim := 0; iDim < nDim; iDim++ {
		pv += vel[iDim] * normal[iDim]
	}
	jac[0] = 0
	for jDim := 0; jDim < nDim; jDim++ {
		jac[jDim+1] = scale * beta2 * normal[jDim] / densityInc
	}
	for iDim := 0; iDim < nDim; iDim++ {
		row := (iDim + 1) * nVar
		jac[row] = scale * normal[iDim]
		for jDim := 0; jDim < nDim; jDim++ {
			jac[row+jDim+1] = scale * vel[iDim] * normal[jDim]
		}
		jac[row+iDim+1] += scale * pv
	}
}

// AbsProjJac fills out with Area * |A(U).n| using the characteristic
// decomposition: for a state perturbation dU with acoustic strengths
//	alpha_pm = (dp -+/+ rho*c*du_n) / (2 c^2)
// the entropy/shear content is dU minus the acoustic part, so
//	|A| dU = |u_n| dU + (|u_n+c|-|u_n|) alpha_p r_p + (|u_n-c|-|u_n|) alpha_m r_m
// with r_pm = [1, v +- c*n, H +- c*u_n]. Columns are built by applying
// this to the unit vectors.
func AbsProjJac(gamma, density float64, vel []float64, enthalpy, soundSpeed float64, unitNormal []float64, area float64, out []float64, nDim int) {
	var (
		nVar = nDim + 2
		gm1  = gamma - 1.
		un   float64
		sq   float64
		c    = soundSpeed
		c2   = c * c
	)
	for iDim := 0; iDim < nDim; iDim++ {
		un += vel[iDim] * unitNormal[iDim]
		sq += vel[iDim] * vel[iDim]
	}
	var (
		l1 = math.Abs(un)
		lp = math.Abs(un+c) - l1
		lm = math.Abs(un-c) - l1
	)
	dMom := make([]float64, nDim)
	for k := 0; k < nVar; k++ {
		// dU = e_k
		var dRho, dE float64
		for iDim := range dMom {
			dMom[iDim] = 0
		}
		switch {
		case k == 0:
			dRho = 1
		case k == nVar-1:
			dE = 1
		default:
			dMom[k-1] = 1
		}
		dp := dE + 0.5*sq*dRho
		var dMn float64
		for iDim := 0; iDim < nDim; iDim++ {
			dp -= vel[iDim] * dMom[iDim]
			dMn += dMom[iDim] * unitNormal[iDim]
		}
		dp *= gm1
		dUn := (dMn - un*dRho) / density
		alphaP := (dp + density*c*dUn) / (2 * c2)
		alphaM := (dp - density*c*dUn) / (2 * c2)
		col := func(iVar int) (v float64) {
			switch {
			case iVar == 0:
				v = alphaP*lp + alphaM*lm
			case iVar == nVar-1:
				v = alphaP*lp*(enthalpy+c*un) + alphaM*lm*(enthalpy-c*un)
			default:
				iDim := iVar - 1
				v = alphaP*lp*(vel[iDim]+c*unitNormal[iDim]) +
					alphaM*lm*(vel[iDim]-c*unitNormal[iDim])
			}
			return
		}
		for iVar := 0; iVar < nVar; iVar++ {
			out[iVar*nVar+k] = area * col(iVar)
			if iVar == k {
				out[iVar*nVar+k] += area * l1
			}
		}
	}
}

// DUdV fills m with the conservative-from-primitive transformation
// dU/d[rho, v, p], the M matrix of the nearfield jump system.
func DUdV(gamma, density float64, vel []float64, m []float64, nDim int) {
	var (
		nVar = nDim + 2
		sq   float64
	)
	for iDim := 0; iDim < nDim; iDim++ {
		sq += vel[iDim] * vel[iDim]
	}
	for k := range m[:nVar*nVar] {
		m[k] = 0
	}
	m[0] = 1
	for iDim := 0; iDim < nDim; iDim++ {
		row := (iDim + 1) * nVar
		m[row] = vel[iDim]
		m[row+iDim+1] = density
	}
	row := (nVar - 1) * nVar
	m[row] = 0.5 * sq
	for jDim := 0; jDim < nDim; jDim++ {
		m[row+jDim+1] = density * vel[jDim]
	}
	m[row+nVar-1] = 1. / (gamma - 1.)
}

// ConservativeState unpacks a compressible conservative vector into the
// primitives the flux kernels consume. vel must have length nDim.
func ConservativeState(gamma float64, u, vel []float64, nDim int) (density, enthalpy, soundSpeed float64) {
	density = u[0]
	var sq float64
	for iDim := 0; iDim < nDim; iDim++ {
		vel[iDim] = u[iDim+1] / density
		sq += vel[iDim] * vel[iDim]
	}
	var (
		energy   = u[nDim+1] / density
		pressure = (gamma - 1.) * density * (energy - 0.5*sq)
	)
	soundSpeed = math.Sqrt(gamma * pressure / density)
	enthalpy = energy + pressure/density
	return
}

// MulTransposed accumulates y += A^T x for a flat n x n block.
func MulTransposed(a []float64, n int, x, y []float64) {
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			y[j] += a[i*n+j] * x[i]
		}
	}
}

// Mul accumulates y += A x.
func Mul(a []float64, n int, x, y []float64) {
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			y[i] += a[i*n+j] * x[j]
		}
	}
}

// Transpose writes A^T into out.
func Transpose(a []float64, n int, out []float64) {
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out[j*n+i] = a[i*n+j]
		}
	}
}
