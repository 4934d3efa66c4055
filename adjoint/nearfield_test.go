package adjoint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadNearFieldWeights(t *testing.T) {
	var (
		fileName = filepath.Join(t.TempDir(), "WeightNF.dat")
		content  = "coord 0 45 90\n" +
			"-1.0 0.1 0.2 0.3\n" +
			"0.0 0.4 0.5 0.6\n" +
			"1.0 0.7 0.8 0.9\n"
	)
	assert.NoError(t, os.WriteFile(fileName, []byte(content), 0644))
	w := readNearFieldWeights(fileName)
	assert.Equal(t, []float64{-1., 0., 1.}, w.coords)
	assert.Equal(t, 0, w.indexInv[0])
	assert.Equal(t, 1, w.indexInv[45])
	assert.Equal(t, 2, w.indexInv[90])
	assert.Equal(t, -1, w.indexInv[30])
	assert.InDelta(t, 0.5, w.weights[1][1], 1.e-14)
}

func TestNearFieldColumnWidening(t *testing.T) {
	w := &nearFieldWeights{}
	for i := range w.indexInv {
		w.indexInv[i] = -1
	}
	w.indexInv[45] = 1
	// Exact hit
	assert.Equal(t, 1, w.column(45))
	// Off-by-a-few angles widen into the tabulated bucket
	assert.Equal(t, 1, w.column(43))
	assert.Equal(t, 1, w.column(47))
	// Too far away, unresolved
	assert.Equal(t, -1, w.column(60))
}

func TestMatMulIdentity(t *testing.T) {
	var (
		n  = 3
		a  = []float64{2, 0, 1, 1, 3, 0, 0, 1, 4}
		id = []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}
		c  = make([]float64, n*n)
	)
	matMul(a, id, c, n)
	assert.Equal(t, a, c)
	matMul(id, a, c, n)
	assert.Equal(t, a, c)
}
