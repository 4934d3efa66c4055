package linsolve

import (
	"fmt"
	"math"
)

// BCGStab is the preconditioned bi-conjugate gradient stabilized method.
// Returns the final relative residual and the iteration count; a
// stagnant or non-converged solve still returns the best iterate in x.
func BCGStab(b, x []float64, op Operator, pre Preconditioner, tol float64, maxIter int, monitor bool) (res float64, iters int) {
	var (
		n     = len(b)
		r     = make([]float64, n)
		rTld  = make([]float64, n)
		p     = make([]float64, n)
		pHat  = make([]float64, n)
		s     = make([]float64, n)
		sHat  = make([]float64, n)
		v     = make([]float64, n)
		t     = make([]float64, n)
		rho   = 1.
		alpha = 1.
		omega = 1.
		norm0 float64
	)
	op.MulVec(x, r)
	for i := range r {
		r[i] = b[i] - r[i]
	}
	copy(rTld, r)
	norm0 = norm(b)
	if norm0 == 0 {
		norm0 = 1
	}
	res = norm(r) / norm0
	for iters = 0; iters < maxIter && res > tol; iters++ {
		rhoPrime := rho
		rho = dot(rTld, r)
		if rho == 0 {
			break
		}
		beta := (rho / rhoPrime) * (alpha / omega)
		for i := range p {
			p[i] = r[i] + beta*(p[i]-omega*v[i])
		}
		pre.Apply(p, pHat)
		op.MulVec(pHat, v)
		alpha = rho / dot(rTld, v)
		for i := range s {
			s[i] = r[i] - alpha*v[i]
		}
		if norm(s)/norm0 < tol {
			axpy(alpha, pHat, x)
			res = norm(s) / norm0
			iters++
			break
		}
		pre.Apply(s, sHat)
		op.MulVec(sHat, t)
		omega = dot(t, s) / (dot(t, t) + 1.e-30)
		axpy(alpha, pHat, x)
		axpy(omega, sHat, x)
		for i := range r {
			r[i] = s[i] - omega*t[i]
		}
		res = norm(r) / norm0
		if monitor {
			fmt.Printf("     BCGSTAB iteration %4d, relative residual %12.6e\n", iters+1, res)
		}
		if omega == 0 {
			break
		}
	}
	return
}

// FGMRES is flexible GMRES(m) with modified Gram-Schmidt and Givens
// rotations on the Hessenberg system. The preconditioned directions are
// stored so a nonlinear preconditioner (e.g. an SGS sweep) is legal.
func FGMRES(b, x []float64, op Operator, pre Preconditioner, tol float64, m int, monitor bool) (res float64, iters int) {
	var (
		n     = len(b)
		V     = make([][]float64, m+1)
		Z     = make([][]float64, m)
		H     = make([][]float64, m+1) // H[i][j], column-major ops below
		cs    = make([]float64, m)
		sn    = make([]float64, m)
		g     = make([]float64, m+1)
		w     = make([]float64, n)
		norm0 float64
	)
	for i := range V {
		V[i] = make([]float64, n)
		H[i] = make([]float64, m)
	}
	for i := range Z {
		Z[i] = make([]float64, n)
	}
	norm0 = norm(b)
	if norm0 == 0 {
		norm0 = 1
	}
	op.MulVec(x, w)
	for i := range w {
		V[0][i] = b[i] - w[i]
	}
	beta := norm(V[0])
	res = beta / norm0
	if res < tol {
		return
	}
	for i := range V[0] {
		V[0][i] /= beta
	}
	g[0] = beta
	var j int
	for j = 0; j < m; j++ {
		pre.Apply(V[j], Z[j])
		op.MulVec(Z[j], w)
		// Modified Gram-Schmidt
		for i := 0; i <= j; i++ {
			H[i][j] = dot(w, V[i])
			axpy(-H[i][j], V[i], w)
		}
		H[j+1][j] = norm(w)
		if H[j+1][j] > 0 {
			for i := range w {
				V[j+1][i] = w[i] / H[j+1][j]
			}
		}
		// Apply the accumulated Givens rotations to the new column
		for i := 0; i < j; i++ {
			h0 := cs[i]*H[i][j] + sn[i]*H[i+1][j]
			H[i+1][j] = -sn[i]*H[i][j] + cs[i]*H[i+1][j]
			H[i][j] = h0
		}
		// Generate the rotation eliminating H[j+1][j]
		denom := math.Sqrt(H[j][j]*H[j][j] + H[j+1][j]*H[j+1][j])
		if denom == 0 {
			cs[j], sn[j] = 1, 0
		} else {
			cs[j], sn[j] = H[j][j]/denom, H[j+1][j]/denom
		}
		H[j][j] = denom
		H[j+1][j] = 0
		g[j+1] = -sn[j] * g[j]
		g[j] = cs[j] * g[j]
		res = math.Abs(g[j+1]) / norm0
		if monitor {
			fmt.Printf("     FGMRES iteration %4d, relative residual %12.6e\n", j+1, res)
		}
		if res < tol {
			j++
			break
		}
	}
	iters = j
	// Solve the triangular system and correct x with the stored
	// preconditioned directions
	y := make([]float64, j)
	for i := j - 1; i >= 0; i-- {
		y[i] = g[i]
		for k := i + 1; k < j; k++ {
			y[i] -= H[i][k] * y[k]
		}
		y[i] /= H[i][i]
	}
	for i := 0; i < j; i++ {
		axpy(y[i], Z[i], x)
	}
	return
}
