package linsolve

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/AcademicHacker/SU2/utils"
)

// chainSystem builds a diagonally dominant block tridiagonal system on a
// 1D chain of nBlocks nodes, the sparsity pattern of an implicit edge
// assembly.
func chainSystem(nBlocks, nVar int, rng *rand.Rand) (jac *utils.BlockSparse, b []float64) {
	var (
		addresses [][2]int
	)
	for i := 0; i < nBlocks; i++ {
		addresses = append(addresses, [2]int{i, i})
		if i > 0 {
			addresses = append(addresses, [2]int{i, i - 1}, [2]int{i - 1, i})
		}
	}
	jac = utils.NewBlockSparse(nBlocks, nVar, addresses)
	for _, addr := range addresses {
		blk := jac.Block(addr[0], addr[1])
		for k := range blk {
			blk[k] = 0.5 * (rng.Float64() - 0.5)
		}
	}
	for i := 0; i < nBlocks; i++ {
		jac.AddToDiag(i, float64(2*nVar)) // dominance
	}
	b = make([]float64, nBlocks*nVar)
	for i := range b {
		b[i] = rng.Float64()
	}
	return
}

// denseSolve is the oracle: assemble the full matrix and LU solve.
func denseSolve(jac *utils.BlockSparse, b []float64) (x []float64) {
	var (
		n  = jac.NBlocks * jac.NVar
		A  = mat.NewDense(n, n, nil)
		lu mat.LU
	)
	for i := 0; i < jac.NBlocks; i++ {
		for _, j := range jac.RowColumns(i) {
			blk := jac.Block(i, j)
			for iVar := 0; iVar < jac.NVar; iVar++ {
				for jVar := 0; jVar < jac.NVar; jVar++ {
					A.Set(i*jac.NVar+iVar, j*jac.NVar+jVar, blk[iVar*jac.NVar+jVar])
				}
			}
		}
	}
	lu.Factorize(A)
	xv := mat.NewVecDense(n, nil)
	if err := lu.SolveVecTo(xv, false, mat.NewVecDense(n, b)); err != nil {
		panic(err)
	}
	x = make([]float64, n)
	copy(x, xv.RawVector().Data)
	return
}

func TestKrylovAgainstDenseOracle(t *testing.T) {
	var (
		rng    = rand.New(rand.NewSource(42))
		jac, b = chainSystem(24, 4, rng)
		want   = denseSolve(jac, b)
	)
	x := make([]float64, len(b))
	res, _ := BCGStab(b, x, jac, NewJacobi(jac), 1.e-12, 200, false)
	require.Less(t, res, 1.e-10)
	for i := range want {
		assert.InDeltaf(t, want[i], x[i], 1.e-8, "BCGSTAB entry %d", i)
	}

	x = make([]float64, len(b))
	res, _ = FGMRES(b, x, jac, NewJacobi(jac), 1.e-12, 200, false)
	require.Less(t, res, 1.e-10)
	for i := range want {
		assert.InDeltaf(t, want[i], x[i], 1.e-8, "FGMRES entry %d", i)
	}
}

func TestSGSConverges(t *testing.T) {
	var (
		rng    = rand.New(rand.NewSource(7))
		jac, b = chainSystem(16, 3, rng)
		want   = denseSolve(jac, b)
		x      = make([]float64, len(b))
	)
	res, iters := SGS(jac, b, x, 1.e-12, 500, false)
	require.Less(t, res, 1.e-12)
	require.Less(t, iters, 500)
	for i := range want {
		assert.InDeltaf(t, want[i], x[i], 1.e-9, "SGS entry %d", i)
	}
}

func TestLUSGSReducesResidual(t *testing.T) {
	var (
		rng    = rand.New(rand.NewSource(3))
		jac, b = chainSystem(16, 3, rng)
		x      = make([]float64, len(b))
		r      = make([]float64, len(b))
	)
	before := 0.
	for i := range b {
		before += b[i] * b[i]
	}
	LUSGS(jac, b, x)
	jac.MulVec(x, r)
	after := 0.
	for i := range b {
		d := b[i] - r[i]
		after += d * d
	}
	assert.Less(t, after, 0.25*before)
}

func TestLineletExactOnChain(t *testing.T) {
	var (
		rng    = rand.New(rand.NewSource(11))
		jac, b = chainSystem(12, 2, rng)
		want   = denseSolve(jac, b)
		line   = make([]int, 12)
	)
	for i := range line {
		line[i] = i
	}
	// The whole system is one linelet, so a single application is exact.
	p := NewLinelet(jac, [][]int{line})
	z := make([]float64, len(b))
	p.Apply(b, z)
	for i := range want {
		assert.InDeltaf(t, want[i], z[i], 1.e-9, "linelet entry %d", i)
	}
}
