package utils

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Matrix is a thin wrapper around a gonum dense matrix. It carries the
// handful of operations the solver needs and keeps call sites terse.
type Matrix struct {
	M *mat.Dense
}

func NewMatrix(nr, nc int, dataO ...[]float64) (R Matrix) {
	var (
		data []float64
	)
	if len(dataO) != 0 {
		if len(dataO[0]) != nr*nc {
			err := fmt.Errorf("mismatch in allocation: NewMatrix nr,nc = %v,%v, len(data[0]) = %v", nr, nc, len(dataO[0]))
			panic(err)
		}
		data = dataO[0]
	} else {
		data = make([]float64, nr*nc)
	}
	R = Matrix{
		M: mat.NewDense(nr, nc, data),
	}
	return
}

func (m Matrix) Dims() (r, c int)    { return m.M.Dims() }
func (m Matrix) At(i, j int) float64 { return m.M.At(i, j) }
func (m Matrix) Data() []float64     { return m.M.RawMatrix().Data }

func (m Matrix) Set(i, j int, val float64) Matrix { // Changes receiver
	m.M.Set(i, j, val)
	return m
}

func (m Matrix) Copy() (R Matrix) { // Does not change receiver
	var (
		nr, nc = m.Dims()
	)
	R = NewMatrix(nr, nc)
	R.M.Copy(m.M)
	return
}

func (m Matrix) Transpose() (R Matrix) { // Does not change receiver
	var (
		nr, nc = m.Dims()
	)
	R = NewMatrix(nc, nr)
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			R.M.Set(j, i, m.At(i, j))
		}
	}
	return
}

func (m Matrix) Mul(A Matrix) (R Matrix) { // Does not change receiver
	var (
		nrM, _ = m.Dims()
		_, ncA = A.Dims()
	)
	R = NewMatrix(nrM, ncA)
	R.M.Mul(m.M, A.M)
	return
}

func (m Matrix) Inverse() (R Matrix) { // Does not change receiver
	var (
		nr, nc = m.Dims()
	)
	R = NewMatrix(nr, nc)
	if err := R.M.Inverse(m.M); err != nil {
		panic(err)
	}
	return
}

func (m Matrix) Subtract(A Matrix) Matrix { // Changes receiver
	m.M.Sub(m.M, A.M)
	return m
}

func (m Matrix) Scale(a float64) Matrix { // Changes receiver
	m.M.Scale(a, m.M)
	return m
}

// LUSolve solves m * x = b for a small square system using an LU
// decomposition. The same routine serves the nearfield-jump system, the
// acoustic coupling system and the sensitivity smoothing solve.
func (m Matrix) LUSolve(b []float64) (x []float64) {
	var (
		nr, nc = m.Dims()
		lu     mat.LU
	)
	if nr != nc || nr != len(b) {
		panic(fmt.Errorf("LUSolve dimension mismatch: %dx%d matrix, rhs %d", nr, nc, len(b)))
	}
	lu.Factorize(m.M)
	xVec := mat.NewVecDense(nr, nil)
	if err := lu.SolveVecTo(xVec, false, mat.NewVecDense(nr, b)); err != nil {
		panic(err)
	}
	x = make([]float64, nr)
	copy(x, xVec.RawVector().Data)
	return
}

// LUSolveTransposed solves mᵀ * x = b, used where a Jacobian is built in
// the primal orientation but the adjoint system needs its transpose.
func (m Matrix) LUSolveTransposed(b []float64) (x []float64) {
	var (
		nr, _ = m.Dims()
		lu    mat.LU
	)
	lu.Factorize(m.M)
	xVec := mat.NewVecDense(nr, nil)
	if err := lu.SolveVecTo(xVec, true, mat.NewVecDense(nr, b)); err != nil {
		panic(err)
	}
	x = make([]float64, nr)
	copy(x, xVec.RawVector().Data)
	return
}

func (m Matrix) FrobNorm() (n float64) {
	for _, v := range m.Data() {
		n += v * v
	}
	return math.Sqrt(n)
}

func (m Matrix) Print(labelO ...string) (out string) {
	var (
		label string
	)
	if len(labelO) != 0 {
		label = labelO[0]
	}
	out = fmt.Sprintf("%s = \n%8.5f\n", label, mat.Formatted(m.M, mat.Squeeze()))
	return
}
