package linsolve

import (
	"fmt"

	"github.com/AcademicHacker/SU2/utils"
)

/*
Stationary block smoothers. Both operate on the assembled Jacobian in
place and treat each block row with the exact inverse of its diagonal
block:
	x_i <- D_i^-1 (b_i - sum_{j != i} A_ij x_j)
swept forward then backward.
*/

// SGS runs symmetric Gauss-Seidel sweeps until the residual norm drops
// below tol*|b| or maxIter sweeps are spent.
func SGS(jac *utils.BlockSparse, b, x []float64, tol float64, maxIter int, monitor bool) (res float64, iters int) {
	var (
		nVar  = jac.NVar
		r     = make([]float64, len(b))
		norm0 = norm(b)
	)
	if norm0 == 0 {
		norm0 = 1
	}
	sweep := func(forward bool) {
		for k := 0; k < jac.NBlocks; k++ {
			i := k
			if !forward {
				i = jac.NBlocks - 1 - k
			}
			rhs := make([]float64, nVar)
			copy(rhs, b[i*nVar:(i+1)*nVar])
			for _, j := range jac.RowColumns(i) {
				if j == i {
					continue
				}
				blk := jac.Block(i, j)
				for iVar := 0; iVar < nVar; iVar++ {
					for jVar := 0; jVar < nVar; jVar++ {
						rhs[iVar] -= blk[iVar*nVar+jVar] * x[j*nVar+jVar]
					}
				}
			}
			copy(x[i*nVar:(i+1)*nVar], utils.NewMatrix(nVar, nVar, jac.DiagBlock(i)).LUSolve(rhs))
		}
	}
	for iters = 1; iters <= maxIter; iters++ {
		sweep(true)
		sweep(false)
		jac.MulVec(x, r)
		for n := range r {
			r[n] = b[n] - r[n]
		}
		res = norm(r) / norm0
		if monitor {
			fmt.Printf("     SGS sweep %4d, relative residual %12.6e\n", iters, res)
		}
		if res < tol {
			return
		}
	}
	iters = maxIter
	return
}

// LUSGS is a single forward/backward substitution pass, the usual
// smoother when the system is only driven a few orders of magnitude.
func LUSGS(jac *utils.BlockSparse, b, x []float64) {
	var (
		nVar = jac.NVar
		rhs  = make([]float64, nVar)
	)
	// Forward: lower triangle uses fresh values
	for i := 0; i < jac.NBlocks; i++ {
		copy(rhs, b[i*nVar:(i+1)*nVar])
		for _, j := range jac.RowColumns(i) {
			if j >= i {
				continue
			}
			blk := jac.Block(i, j)
			for iVar := 0; iVar < nVar; iVar++ {
				for jVar := 0; jVar < nVar; jVar++ {
					rhs[iVar] -= blk[iVar*nVar+jVar] * x[j*nVar+jVar]
				}
			}
		}
		copy(x[i*nVar:(i+1)*nVar], utils.NewMatrix(nVar, nVar, jac.DiagBlock(i)).LUSolve(rhs))
	}
	// Backward: upper triangle correction
	for i := jac.NBlocks - 1; i >= 0; i-- {
		for iVar := 0; iVar < nVar; iVar++ {
			rhs[iVar] = 0
		}
		var touched bool
		for _, j := range jac.RowColumns(i) {
			if j <= i {
				continue
			}
			touched = true
			blk := jac.Block(i, j)
			for iVar := 0; iVar < nVar; iVar++ {
				for jVar := 0; jVar < nVar; jVar++ {
					rhs[iVar] += blk[iVar*nVar+jVar] * x[j*nVar+jVar]
				}
			}
		}
		if !touched {
			continue
		}
		corr := utils.NewMatrix(nVar, nVar, jac.DiagBlock(i)).LUSolve(rhs)
		for iVar := 0; iVar < nVar; iVar++ {
			x[i*nVar+iVar] -= corr[iVar]
		}
	}
}
