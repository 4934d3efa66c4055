package utils

import (
	"fmt"
	"sort"
)

// BlockSparse is a sparse block matrix with one nVar x nVar dense block
// per allocated (row, col) block coordinate. Only blocks provided via
// addresses are allocated; all other blocks are implicitly zero. Blocks
// live in one contiguous backing array, row-major within a block.
//
// It is the global Jacobian of the implicit adjoint system: assembly
// scatters per-edge blocks with AddBlock/SubtractBlock, time integration
// augments the diagonal, and the linear solvers consume it in place.
type BlockSparse struct {
	NBlocks int // square block dimension (number of mesh nodes)
	NVar    int // rows = cols of each dense block

	data      []float64
	addresses map[[2]int]int

	// rowCols[i] holds the sorted column coordinates allocated in block
	// row i, used by the sweep-based solvers and the preconditioners.
	rowCols [][]int
}

func NewBlockSparse(nBlocks, nVar int, addresses [][2]int) (bs *BlockSparse) {
	var (
		blockSize = nVar * nVar
	)
	bs = &BlockSparse{
		NBlocks:   nBlocks,
		NVar:      nVar,
		data:      make([]float64, len(addresses)*blockSize),
		addresses: make(map[[2]int]int, len(addresses)),
		rowCols:   make([][]int, nBlocks),
	}
	for n, addr := range addresses {
		if _, exists := bs.addresses[addr]; exists {
			panic(fmt.Errorf("duplicate block address %v", addr))
		}
		bs.addresses[addr] = n * blockSize
		bs.rowCols[addr[0]] = append(bs.rowCols[addr[0]], addr[1])
	}
	for i := range bs.rowCols {
		sort.Ints(bs.rowCols[i])
	}
	return
}

// Zero clears every allocated block, keeping the sparsity structure.
func (bs *BlockSparse) Zero() {
	for i := range bs.data {
		bs.data[i] = 0.
	}
}

// Block returns a mutable view of block (i, j). Panics when the block is
// not part of the sparsity structure.
func (bs *BlockSparse) Block(i, j int) []float64 {
	offset, ok := bs.addresses[[2]int{i, j}]
	if !ok {
		panic(fmt.Errorf("block (%d,%d) not allocated", i, j))
	}
	return bs.data[offset : offset+bs.NVar*bs.NVar]
}

// HasBlock reports whether (i, j) is part of the sparsity structure.
func (bs *BlockSparse) HasBlock(i, j int) bool {
	_, ok := bs.addresses[[2]int{i, j}]
	return ok
}

func (bs *BlockSparse) AddBlock(i, j int, blk []float64) {
	b := bs.Block(i, j)
	for n := range b {
		b[n] += blk[n]
	}
}

func (bs *BlockSparse) SubtractBlock(i, j int, blk []float64) {
	b := bs.Block(i, j)
	for n := range b {
		b[n] -= blk[n]
	}
}

func (bs *BlockSparse) SetBlock(i, j int, blk []float64) {
	copy(bs.Block(i, j), blk)
}

// AddToDiag adds val to every diagonal entry of the diagonal block of
// block-row i (the Vol/dt augmentation of the implicit system).
func (bs *BlockSparse) AddToDiag(i int, val float64) {
	b := bs.Block(i, i)
	for n := 0; n < bs.NVar; n++ {
		b[n*bs.NVar+n] += val
	}
}

// DeleteValsRow zeroes the scalar row `row` (global index iPoint*NVar+iVar)
// across all allocated blocks of its block-row and sets a one on the
// diagonal, turning the row into an identity equation.
func (bs *BlockSparse) DeleteValsRow(row int) {
	var (
		iBlock = row / bs.NVar
		iVar   = row % bs.NVar
	)
	for _, j := range bs.rowCols[iBlock] {
		b := bs.Block(iBlock, j)
		for n := 0; n < bs.NVar; n++ {
			b[iVar*bs.NVar+n] = 0.
		}
		if j == iBlock {
			b[iVar*bs.NVar+iVar] = 1.
		}
	}
}

// RowColumns returns the sorted block-column coordinates of block-row i.
func (bs *BlockSparse) RowColumns(i int) []int { return bs.rowCols[i] }

// MulVec computes y = A*x with x, y of length NBlocks*NVar.
func (bs *BlockSparse) MulVec(x, y []float64) {
	var (
		nVar = bs.NVar
	)
	for i := range y {
		y[i] = 0.
	}
	for i := 0; i < bs.NBlocks; i++ {
		for _, j := range bs.rowCols[i] {
			b := bs.Block(i, j)
			for r := 0; r < nVar; r++ {
				sum := 0.
				for c := 0; c < nVar; c++ {
					sum += b[r*nVar+c] * x[j*nVar+c]
				}
				y[i*nVar+r] += sum
			}
		}
	}
}

// DiagBlock returns the diagonal block of block-row i.
func (bs *BlockSparse) DiagBlock(i int) []float64 { return bs.Block(i, i) }
