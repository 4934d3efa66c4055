package adjoint

import (
	"github.com/AcademicHacker/SU2/linsolve"
)

// ExplicitRKIteration applies one Runge-Kutta stage update from the
// stage-frozen SolutionOld with the local flow time step.
func (sv *Solver) ExplicitRKIteration(iStep int) {
	var (
		msh   = sv.Msh
		s     = sv.S
		nVar  = sv.NVar
		alpha = sv.Par.RKAlpha[iStep]
	)
	s.ResetNorms()
	for iPoint := range msh.Nodes {
		if !msh.Nodes[iPoint].Domain {
			continue
		}
		delta := sv.Flow.DeltaT[iPoint] / msh.Nodes[iPoint].Volume
		for iVar := 0; iVar < nVar; iVar++ {
			res := s.Residual(iPoint, iVar)
			s.Solution[iPoint*nVar+iVar] = s.SolutionOld[iPoint*nVar+iVar] -
				res*delta*alpha
			s.TrackResidual(iPoint, iVar, res)
		}
	}
	sv.Exch.ExchangeSolution(s.Solution)
}

// ExplicitEulerIteration is the single-stage update.
func (sv *Solver) ExplicitEulerIteration() {
	var (
		msh  = sv.Msh
		s    = sv.S
		nVar = sv.NVar
	)
	s.ResetNorms()
	for iPoint := range msh.Nodes {
		if !msh.Nodes[iPoint].Domain {
			continue
		}
		delta := sv.Flow.DeltaT[iPoint] / msh.Nodes[iPoint].Volume
		for iVar := 0; iVar < nVar; iVar++ {
			res := s.Residual(iPoint, iVar)
			s.Solution[iPoint*nVar+iVar] -= res * delta
			s.TrackResidual(iPoint, iVar, res)
		}
	}
	sv.Exch.ExchangeSolution(s.Solution)
}

// ImplicitEulerIteration assembles and solves the implicit system
//	(V/dt I + dR/dPsi) dPsi = -R
// and applies the increment. The pseudo-time diagonal keeps the matrix
// diagonally dominant at any CFL.
func (sv *Solver) ImplicitEulerIteration() {
	var (
		msh  = sv.Msh
		s    = sv.S
		nVar = sv.NVar
	)
	s.ResetNorms()
	for iPoint := range msh.Nodes {
		delta := msh.Nodes[iPoint].Volume / sv.Flow.DeltaT[iPoint]
		sv.Jac.AddToDiag(iPoint, delta)
		for iVar := 0; iVar < nVar; iVar++ {
			k := iPoint*nVar + iVar
			sv.rhs[k] = 0
			sv.xsol[k] = 0
			if msh.Nodes[iPoint].Domain {
				res := s.Residual(iPoint, iVar)
				sv.rhs[k] = -res
				s.TrackResidual(iPoint, iVar, res)
			}
		}
	}

	sv.solveSystem()

	for iPoint := range msh.Nodes {
		if !msh.Nodes[iPoint].Domain {
			continue
		}
		for iVar := 0; iVar < nVar; iVar++ {
			s.Solution[iPoint*nVar+iVar] += sv.xsol[iPoint*nVar+iVar]
		}
	}
	sv.Exch.ExchangeSolution(s.Solution)
}

// SolveLinearSystem is the discrete-adjoint path: one direct solve of
// the transposed-Jacobian system against the objective source, the
// result overwriting the adjoint field.
func (sv *Solver) SolveLinearSystem() {
	var (
		msh  = sv.Msh
		s    = sv.S
		nVar = sv.NVar
	)
	for iPoint := range msh.Nodes {
		for iVar := 0; iVar < nVar; iVar++ {
			k := iPoint*nVar + iVar
			sv.rhs[k] = s.ObjFuncSource[k]
			sv.xsol[k] = 0
		}
	}
	sv.solveSystem()
	copy(s.Solution, sv.xsol)
	s.ResetNorms()
	for iPoint := range msh.Nodes {
		if !msh.Nodes[iPoint].Domain {
			continue
		}
		for iVar := 0; iVar < nVar; iVar++ {
			k := iPoint*nVar + iVar
			s.TrackResidual(iPoint, iVar, s.Solution[k]-s.SolutionOld[k])
		}
	}
	sv.Exch.ExchangeSolution(s.Solution)
}

func (sv *Solver) solveSystem() {
	switch sv.Par.LinSolver {
	case SYM_GAUSS_SEIDEL:
		linsolve.SGS(sv.Jac, sv.rhs, sv.xsol, sv.Par.LinTol, sv.Par.LinIter, sv.Par.Monitor)
	case LU_SGS:
		linsolve.LUSGS(sv.Jac, sv.rhs, sv.xsol)
	case BCGSTAB, GMRES:
		var pre linsolve.Preconditioner
		switch sv.Par.LinPrec {
		case JACOBI:
			pre = linsolve.NewJacobi(sv.Jac)
		case LINELET:
			pre = linsolve.NewLinelet(sv.Jac, sv.Par.Linelets)
		case NO_PREC:
			pre = linsolve.Identity{}
		}
		if sv.Par.LinSolver == BCGSTAB {
			linsolve.BCGStab(sv.rhs, sv.xsol, sv.Jac, pre, sv.Par.LinTol,
				sv.Par.LinIter, sv.Par.Monitor)
		} else {
			linsolve.FGMRES(sv.rhs, sv.xsol, sv.Jac, pre, sv.Par.LinTol,
				sv.Par.LinIter, sv.Par.Monitor)
		}
	}
}

// DualTimeResidual adds the physical-time derivative to the convective
// residual, BDF1 or BDF2 on the deforming volumes. The incompressible
// pressure row has no time derivative.
func (sv *Solver) DualTimeResidual() {
	var (
		msh      = sv.Msh
		s        = sv.S
		nVar     = sv.NVar
		dt       = sv.Par.TimeStep
		implicit = sv.Par.TimeInt == EULER_IMPLICIT
		res      = make([]float64, nVar)
	)
	for iPoint := range msh.Nodes {
		if !msh.Nodes[iPoint].Domain {
			continue
		}
		var (
			n      = &msh.Nodes[iPoint]
			volNP1 = n.Volume
			volN   = n.VolumeN
			volNM1 = n.VolumeN1
		)
		for iVar := 0; iVar < nVar; iVar++ {
			k := iPoint*nVar + iVar
			switch sv.Par.DualTime {
			case DUAL_TIME_1ST:
				res[iVar] = (s.Solution[k]*volNP1 - s.SolutionTimeN[k]*volN) / dt
			case DUAL_TIME_2ND:
				res[iVar] = (3.*s.Solution[k]*volNP1 - 4.*s.SolutionTimeN[k]*volN +
					s.SolutionTimeN1[k]*volNM1) / (2. * dt)
			}
		}
		if sv.Mode.Incompressible {
			res[0] = 0
		}
		s.AddConv(iPoint, res)

		if implicit {
			diag := volNP1 / dt
			if sv.Par.DualTime == DUAL_TIME_2ND {
				diag = 3. * volNP1 / (2. * dt)
			}
			blk := sv.Jac.Block(iPoint, iPoint)
			for iVar := 0; iVar < nVar; iVar++ {
				if sv.Mode.Incompressible && iVar == 0 {
					continue
				}
				blk[iVar*nVar+iVar] += diag
			}
		}
	}
}
