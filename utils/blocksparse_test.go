package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockSparseScatter(t *testing.T) {
	var (
		nVar      = 2
		addresses = [][2]int{{0, 0}, {0, 1}, {1, 0}, {1, 1}, {2, 2}}
	)
	bs := NewBlockSparse(3, nVar, addresses)

	blk := []float64{1, 2, 3, 4}
	bs.AddBlock(0, 1, blk)
	bs.AddBlock(0, 1, blk)
	bs.SubtractBlock(0, 1, blk)
	assert.Equal(t, blk, bs.Block(0, 1))

	bs.AddToDiag(2, 5)
	assert.Equal(t, []float64{5, 0, 0, 5}, bs.Block(2, 2))

	// Unallocated block access must panic
	assert.Panics(t, func() { bs.Block(0, 2) })

	bs.Zero()
	assert.Equal(t, []float64{0, 0, 0, 0}, bs.Block(0, 1))
}

func TestBlockSparseMulVec(t *testing.T) {
	var (
		nVar      = 2
		addresses = [][2]int{{0, 0}, {0, 1}, {1, 0}, {1, 1}}
	)
	bs := NewBlockSparse(2, nVar, addresses)
	// [ I  2I ]
	// [ 0   I ]  (0,1) block = 2I, diagonals identity
	bs.SetBlock(0, 0, []float64{1, 0, 0, 1})
	bs.SetBlock(0, 1, []float64{2, 0, 0, 2})
	bs.SetBlock(1, 1, []float64{1, 0, 0, 1})

	x := []float64{1, 2, 3, 4}
	y := make([]float64, 4)
	bs.MulVec(x, y)
	assert.Equal(t, []float64{7, 10, 3, 4}, y)
}

func TestBlockSparseDeleteValsRow(t *testing.T) {
	var (
		nVar      = 2
		addresses = [][2]int{{0, 0}, {0, 1}, {1, 0}, {1, 1}}
	)
	bs := NewBlockSparse(2, nVar, addresses)
	for _, a := range addresses {
		bs.SetBlock(a[0], a[1], []float64{1, 2, 3, 4})
	}
	bs.DeleteValsRow(1) // second scalar row of block row 0

	require.Equal(t, []float64{1, 2, 0, 1}, bs.Block(0, 0))
	require.Equal(t, []float64{1, 2, 0, 0}, bs.Block(0, 1))
	require.Equal(t, []float64{1, 2, 3, 4}, bs.Block(1, 0))
}

func TestMatrixLUSolve(t *testing.T) {
	A := NewMatrix(2, 2, []float64{4, 1, 1, 3})
	x := A.LUSolve([]float64{1, 2})
	// Solution of [4 1; 1 3] x = [1 2]
	assert.InDeltaf(t, 1./11., x[0], 1.e-12, "x[0]")
	assert.InDeltaf(t, 7./11., x[1], 1.e-12, "x[1]")

	xt := A.Transpose().LUSolveTransposed([]float64{1, 2})
	assert.InDeltaf(t, x[0], xt[0], 1.e-12, "transposed solve x[0]")
	assert.InDeltaf(t, x[1], xt[1], 1.e-12, "transposed solve x[1]")
}
