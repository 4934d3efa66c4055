/*
Package linsolve solves the block-sparse linear systems produced by the
implicit adjoint iteration. Stationary smoothers (symmetric Gauss-Seidel,
LU-SGS) operate directly on the block matrix; the Krylov methods
(BiCGSTAB, flexible GMRES) see it through the Operator interface so the
same code serves matrix-free products in tests.

Non-convergence is not an error: every solver returns its best iterate
together with the final residual norm.
*/
package linsolve

import "math"

// Operator applies y = A*x on flat block vectors.
type Operator interface {
	MulVec(x, y []float64)
}

// Preconditioner applies z = M^-1 * r.
type Preconditioner interface {
	Apply(r, z []float64)
}

func dot(a, b []float64) (s float64) {
	for i := range a {
		s += a[i] * b[i]
	}
	return
}

func norm(a []float64) float64 { return math.Sqrt(dot(a, a)) }

// axpy: y += alpha*x
func axpy(alpha float64, x, y []float64) {
	for i := range x {
		y[i] += alpha * x[i]
	}
}
