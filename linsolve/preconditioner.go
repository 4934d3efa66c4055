package linsolve

import (
	"github.com/AcademicHacker/SU2/utils"
)

// Identity is the no-preconditioning fallback.
type Identity struct{}

func (Identity) Apply(r, z []float64) { copy(z, r) }

// Jacobi inverts the diagonal blocks once and applies z_i = D_i^-1 r_i.
type Jacobi struct {
	nVar    int
	invDiag []utils.Matrix
}

func NewJacobi(jac *utils.BlockSparse) (p *Jacobi) {
	p = &Jacobi{
		nVar:    jac.NVar,
		invDiag: make([]utils.Matrix, jac.NBlocks),
	}
	for i := 0; i < jac.NBlocks; i++ {
		p.invDiag[i] = utils.NewMatrix(jac.NVar, jac.NVar, jac.DiagBlock(i)).Inverse()
	}
	return
}

func (p *Jacobi) Apply(r, z []float64) {
	var (
		nVar = p.nVar
	)
	for i := range p.invDiag {
		blk := p.invDiag[i].Data()
		for iVar := 0; iVar < nVar; iVar++ {
			var s float64
			for jVar := 0; jVar < nVar; jVar++ {
				s += blk[iVar*nVar+jVar] * r[i*nVar+jVar]
			}
			z[i*nVar+iVar] = s
		}
	}
}

// Linelet solves a block tridiagonal system along each supplied node
// chain (Thomas algorithm) and falls back to Jacobi off the lines. The
// chains follow the strong-coupling direction of stretched meshes.
type Linelet struct {
	jac    *utils.BlockSparse
	jacobi *Jacobi
	lines  [][]int
	online []bool
}

func NewLinelet(jac *utils.BlockSparse, lines [][]int) (p *Linelet) {
	p = &Linelet{
		jac:    jac,
		jacobi: NewJacobi(jac),
		lines:  lines,
		online: make([]bool, jac.NBlocks),
	}
	for _, line := range lines {
		for _, i := range line {
			p.online[i] = true
		}
	}
	return
}

func (p *Linelet) Apply(r, z []float64) {
	p.jacobi.Apply(r, z)
	for _, line := range p.lines {
		p.solveLine(line, r, z)
	}
}

// solveLine runs block Thomas elimination on one chain, using the
// diagonal and the chain-neighbor off-diagonal blocks only.
func (p *Linelet) solveLine(line []int, r, z []float64) {
	var (
		n    = len(line)
		nVar = p.jac.NVar
		diag = make([]utils.Matrix, n)
		rhs  = make([]float64, n*nVar)
	)
	if n < 2 {
		return
	}
	for k, i := range line {
		diag[k] = utils.NewMatrix(nVar, nVar, p.jac.DiagBlock(i)).Copy()
		copy(rhs[k*nVar:(k+1)*nVar], r[i*nVar:(i+1)*nVar])
	}
	lower := func(k int) utils.Matrix { // block coupling line[k] <- line[k-1]
		return utils.NewMatrix(nVar, nVar, p.jac.Block(line[k], line[k-1]))
	}
	upper := func(k int) utils.Matrix {
		return utils.NewMatrix(nVar, nVar, p.jac.Block(line[k], line[k+1]))
	}
	// Forward elimination
	for k := 1; k < n; k++ {
		inv := diag[k-1].Inverse()
		li := lower(k).Mul(inv)
		diag[k].Subtract(li.Mul(upper(k - 1)))
		for iVar := 0; iVar < nVar; iVar++ {
			var s float64
			for jVar := 0; jVar < nVar; jVar++ {
				s += li.At(iVar, jVar) * rhs[(k-1)*nVar+jVar]
			}
			rhs[k*nVar+iVar] -= s
		}
	}
	// Back substitution
	x := diag[n-1].LUSolve(rhs[(n-1)*nVar : n*nVar])
	copy(z[line[n-1]*nVar:(line[n-1]+1)*nVar], x)
	for k := n - 2; k >= 0; k-- {
		U := upper(k)
		b := make([]float64, nVar)
		copy(b, rhs[k*nVar:(k+1)*nVar])
		for iVar := 0; iVar < nVar; iVar++ {
			for jVar := 0; jVar < nVar; jVar++ {
				b[iVar] -= U.At(iVar, jVar) * z[(line[k+1])*nVar+jVar]
			}
		}
		copy(z[line[k]*nVar:(line[k]+1)*nVar], diag[k].LUSolve(b))
	}
}
