package adjoint

import (
	"github.com/AcademicHacker/SU2/geometry"
	"github.com/AcademicHacker/SU2/utils"
)

// ComputeGradients refreshes the Green-Gauss gradient of the adjoint
// solution, consumed by the viscous terms and the MUSCL reconstruction.
func (sv *Solver) ComputeGradients() {
	var (
		msh  = sv.Msh
		s    = sv.S
		nVar = sv.NVar
		nDim = sv.NDim
	)
	for k := range s.Grad {
		s.Grad[k] = 0
	}
	for _, e := range msh.Edges {
		iPoint, jPoint := e.Nodes[0], e.Nodes[1]
		for iVar := 0; iVar < nVar; iVar++ {
			avg := 0.5 * (s.Solution[iPoint*nVar+iVar] + s.Solution[jPoint*nVar+iVar])
			for iDim := 0; iDim < nDim; iDim++ {
				res := avg * e.Normal[iDim]
				s.Grad[(iPoint*nVar+iVar)*nDim+iDim] += res
				s.Grad[(jPoint*nVar+iVar)*nDim+iDim] -= res
			}
		}
	}
	for _, m := range msh.Markers {
		for _, v := range m.Vertices {
			iPoint := v.Node
			for iVar := 0; iVar < nVar; iVar++ {
				for iDim := 0; iDim < nDim; iDim++ {
					s.Grad[(iPoint*nVar+iVar)*nDim+iDim] -= s.Solution[iPoint*nVar+iVar] * v.Normal[iDim]
				}
			}
		}
	}
	for i := 0; i < msh.NNodes(); i++ {
		vol := msh.Nodes[i].Volume + geometry.EPS
		for k := 0; k < nVar*nDim; k++ {
			s.Grad[i*nVar*nDim+k] /= vol
		}
	}
}

// PsiGrad returns d(Psi_iVar)/dx_iDim at node i.
func (sv *Solver) PsiGrad(i, iVar, iDim int) float64 {
	return sv.S.Grad[(i*sv.NVar+iVar)*sv.NDim+iDim]
}

// SetAuxVarSurfaceGradient computes the gradient of the auxiliary
// surface scalar at the wall nodes with an inverse-distance weighted
// least-squares fit over the edge neighbors.
func (sv *Solver) SetAuxVarSurfaceGradient() {
	var (
		msh  = sv.Msh
		s    = sv.S
		nDim = sv.NDim
		smat = utils.NewMatrix(nDim, nDim)
		cvec = make([]float64, nDim)
	)
	for _, m := range msh.Markers {
		if m.Kind != geometry.EULER_WALL && m.Kind != geometry.NO_SLIP_WALL {
			continue
		}
		for _, v := range m.Vertices {
			iPoint := v.Node
			coordI := msh.Nodes[iPoint].Coord
			auxI := s.AuxVar[iPoint]
			for iDim := 0; iDim < nDim; iDim++ {
				cvec[iDim] = 0
				for jDim := 0; jDim < nDim; jDim++ {
					smat.Set(iDim, jDim, 0)
				}
			}
			for _, jPoint := range msh.Neighbors(iPoint) {
				coordJ := msh.Nodes[jPoint].Coord
				var weight float64
				for iDim := 0; iDim < nDim; iDim++ {
					d := coordJ[iDim] - coordI[iDim]
					weight += d * d
				}
				for iDim := 0; iDim < nDim; iDim++ {
					di := coordJ[iDim] - coordI[iDim]
					for jDim := 0; jDim < nDim; jDim++ {
						dj := coordJ[jDim] - coordI[jDim]
						smat.Set(iDim, jDim, smat.At(iDim, jDim)+di*dj/weight)
					}
					cvec[iDim] += di * (s.AuxVar[jPoint] - auxI) / weight
				}
			}
			grad := smat.LUSolve(cvec)
			copy(s.AuxGrad[iPoint*nDim:(iPoint+1)*nDim], grad)
		}
	}
}

// SetSurfaceGradient recomputes the adjoint gradient on the no-slip
// wall nodes with the same weighted least-squares fit, variable by
// variable, overwriting the Green-Gauss values there. The surface
// sensitivity needs these one-sided fits because the wall closes half
// of the Green-Gauss control volume.
func (sv *Solver) SetSurfaceGradient() {
	var (
		msh  = sv.Msh
		s    = sv.S
		nVar = sv.NVar
		nDim = sv.NDim
		smat = utils.NewMatrix(nDim, nDim)
		cvec = make([]float64, nDim)
	)
	for _, m := range msh.Markers {
		if m.Kind != geometry.NO_SLIP_WALL {
			continue
		}
		for _, v := range m.Vertices {
			iPoint := v.Node
			coordI := msh.Nodes[iPoint].Coord
			for iVar := 0; iVar < nVar; iVar++ {
				psiI := s.Solution[iPoint*nVar+iVar]
				for iDim := 0; iDim < nDim; iDim++ {
					cvec[iDim] = 0
					for jDim := 0; jDim < nDim; jDim++ {
						smat.Set(iDim, jDim, 0)
					}
				}
				for _, jPoint := range msh.Neighbors(iPoint) {
					coordJ := msh.Nodes[jPoint].Coord
					var weight float64
					for iDim := 0; iDim < nDim; iDim++ {
						d := coordJ[iDim] - coordI[iDim]
						weight += d * d
					}
					for iDim := 0; iDim < nDim; iDim++ {
						di := coordJ[iDim] - coordI[iDim]
						for jDim := 0; jDim < nDim; jDim++ {
							dj := coordJ[jDim] - coordI[jDim]
							smat.Set(iDim, jDim, smat.At(iDim, jDim)+di*dj/weight)
						}
						cvec[iDim] += di * (s.Solution[jPoint*nVar+iVar] - psiI) / weight
					}
				}
				grad := smat.LUSolve(cvec)
				copy(s.Grad[(iPoint*nVar+iVar)*nDim:(iPoint*nVar+iVar+1)*nDim], grad)
			}
		}
	}
}
