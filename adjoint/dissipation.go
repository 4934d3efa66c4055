package adjoint

import "math"

// SetUndividedLaplacian accumulates the undivided Laplacian of Psi used
// by the 4th-difference JST term. Mixed interior/boundary edges only
// contribute on the interior side, which keeps the boundary stencil
// one-sided.
func (sv *Solver) SetUndividedLaplacian() {
	var (
		msh  = sv.Msh
		s    = sv.S
		nVar = sv.NVar
		diff = make([]float64, nVar)
	)
	for k := range s.UndLapl {
		s.UndLapl[k] = 0
	}
	for _, e := range msh.Edges {
		iPoint, jPoint := e.Nodes[0], e.Nodes[1]
		for iVar := 0; iVar < nVar; iVar++ {
			diff[iVar] = s.Solution[iPoint*nVar+iVar] - s.Solution[jPoint*nVar+iVar]
		}
		boundaryI := msh.PhysicalBoundary(iPoint)
		boundaryJ := msh.PhysicalBoundary(jPoint)
		switch {
		case boundaryI == boundaryJ:
			for iVar := 0; iVar < nVar; iVar++ {
				s.UndLapl[iPoint*nVar+iVar] -= diff[iVar]
				s.UndLapl[jPoint*nVar+iVar] += diff[iVar]
			}
		case !boundaryI: // jPoint on the boundary
			for iVar := 0; iVar < nVar; iVar++ {
				s.UndLapl[iPoint*nVar+iVar] -= diff[iVar]
			}
		default: // iPoint on the boundary
			for iVar := 0; iVar < nVar; iVar++ {
				s.UndLapl[jPoint*nVar+iVar] += diff[iVar]
			}
		}
	}
	sv.Exch.ExchangeLaplacian(s.UndLapl)
}

// SetDissipationSwitch builds the 2nd-difference switch from a
// Venkatakrishnan limiter on the density adjoint: Sensor = 1 - r_u, so
// smooth regions switch the 2nd difference off.
func (sv *Solver) SetDissipationSwitch() {
	const (
		dx   = 0.1
		limK = 0.03
	)
	var (
		msh  = sv.Msh
		s    = sv.S
		nVar = sv.NVar
		nDim = sv.NDim
		eps2 = math.Pow(limK*dx, 3)
	)
	for iPoint := 0; iPoint < msh.NNodes(); iPoint++ {
		var (
			solI   = s.Solution[iPoint*nVar]
			coordI = msh.Nodes[iPoint].Coord
			duMax  = 1.0e-8
			duMin  = -1.0e-8
		)
		for _, jPoint := range msh.Neighbors(iPoint) {
			du := s.Solution[jPoint*nVar] - solI
			duMax = math.Max(duMax, du)
			duMin = math.Min(duMin, du)
		}
		rU := 1.0
		for _, jPoint := range msh.Neighbors(iPoint) {
			// Unconstrained half-edge reconstruction
			uIJ := solI
			coordJ := msh.Nodes[jPoint].Coord
			for iDim := 0; iDim < nDim; iDim++ {
				uIJ += 0.5 * (coordJ[iDim] - coordI[iDim]) * sv.PsiGrad(iPoint, 0, iDim)
			}
			dp := duMin
			if uIJ-solI >= 0.0 {
				dp = duMax
			}
			dm := uIJ - solI
			rUIJ := (dp*dp + 2.0*dm*dp + eps2) / (dp*dp + 2*dm*dm + dm*dp + eps2)
			rU = math.Min(rU, rUIJ)
		}
		s.Sensor[iPoint] = 1.0 - rU
	}
	sv.Exch.ExchangeSensor(s.Sensor)
}
