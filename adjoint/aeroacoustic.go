package adjoint

import (
	"math"

	"github.com/AcademicHacker/SU2/geometry"
)

/*
AeroacousticCoupling turns the wave-equation adjoint on the FWH surface
into the Dirichlet jump the flow adjoint sees there. At every surface
node the coupling solves
	(A(U,n) M)^T x = b
with b built from the wave adjoint phi against the time derivative of
the primitive surface state:
	b_0      = sum_i phi (v_i - v_i^n) Normal_i / dt
	b_{i+1}  = phi (rho - rho^n) Normal_i / dt
The solve runs in primitive variables; only the 2D coupling is defined.
After each node the current flow state is pushed to the previous time
level for the next coupling step.
*/
func (sv *Solver) AeroacousticCoupling(phi []float64, dt float64) {
	var (
		msh  = sv.Msh
		fld  = sv.Flow
		s    = sv.S
		nVar = sv.NVar
		nDim = sv.NDim
	)
	if nDim != 2 {
		return
	}
	var (
		vel = make([]float64, nDim)
		a   = make([]float64, nVar*nVar)
		m   = make([]float64, nVar*nVar)
		am  = make([]float64, nVar*nVar)
		b   = make([]float64, nVar)
	)
	for im := range msh.Markers {
		if msh.Markers[im].Kind != geometry.FWH_SURFACE {
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
				u    = fld.Solution(iPoint)
				uOld = fld.UTimeN[iPoint*fld.NVar : (iPoint+1)*fld.NVar]
			)
			_, enthalpy, _ := ConservativeState(sv.Phys.Gamma, u, vel, nDim)
			InviscidProjJac(sv.Phys.Gamma, vel, enthalpy, v.Normal, 1.0, a, nDim)
			DUdV(sv.Phys.Gamma, u[0], vel, m, nDim)
			matMul(a, m, am, nVar)

			b[0] = 0
			for iDim := 0; iDim < nDim; iDim++ {
				b[0] += phi[iPoint] * (u[iDim+1]/u[0] - uOld[iDim+1]/uOld[0]) *
					v.Normal[iDim] / dt
				b[iDim+1] = phi[iPoint] * (u[0] - uOld[0]) * v.Normal[iDim] / dt
			}
			b[nVar-1] = 0
			if degenerate(am, nVar) {
				continue
			}
			solveTransposed(am, b, nVar)
			copy(s.Jump(iPoint), b)
			copy(uOld, u)
		}
	}
}

// degenerate reports a vanishing pivot column, a stagnant surface state
// the coupling solve cannot invert.
func degenerate(a []float64, n int) bool {
	for i := 0; i < n; i++ {
		var colMax float64
		for j := 0; j < n; j++ {
			colMax = math.Max(colMax, math.Abs(a[j*n+i]))
		}
		if colMax < geometry.EPS {
			return true
		}
	}
	return false
}
