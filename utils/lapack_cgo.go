//go:build cgo
// +build cgo

package utils

import (
	"gonum.org/v1/gonum/blas/blas64"
	netblas "gonum.org/v1/netlib/blas/netlib"
)

// With cgo available the dense kernels behind Matrix run on netlib
// BLAS, which speeds up the block LU solves of the implicit adjoint
// system on larger meshes.
func init() {
	blas64.Use(netblas.Implementation{})
}
