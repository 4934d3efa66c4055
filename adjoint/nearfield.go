package adjoint

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/AcademicHacker/SU2/geometry"
	"github.com/AcademicHacker/SU2/utils"
)

// nearFieldWeights is the parsed WeightNF.dat table: the derivative of
// the equivalent-area functional with respect to the nearfield pressure
// signature, tabulated over longitudinal stations and azimuthal angles.
type nearFieldWeights struct {
	coords  []float64   // station coordinate per row
	weights [][]float64 // row-major, one column per tabulated angle
	// indexInv maps an integer azimuthal angle to its table column, -1
	// when the angle is not tabulated.
	indexInv [180]int
}

// readNearFieldWeights parses WeightNF.dat: the first row carries the
// tabulated azimuthal angles, each following row a station coordinate
// and its weights. A missing file is fatal.
func readNearFieldWeights(fileName string) (w *nearFieldWeights) {
	f, err := os.Open(fileName)
	if err != nil {
		panic(fmt.Errorf("no nearfield weight file %s: %w", fileName, err))
	}
	defer f.Close()

	w = &nearFieldWeights{}
	for i := range w.indexInv {
		w.indexInv[i] = -1
	}

	var (
		scanner = bufio.NewScanner(f)
		first   = true
	)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		if first {
			// First column is the coordinate header
			for iCol, fld := range fields[1:] {
				angle, err := strconv.Atoi(fld)
				if err != nil {
					panic(fmt.Errorf("bad azimuthal angle %q in %s: %w", fld, fileName, err))
				}
				w.indexInv[angle] = iCol
			}
			first = false
			continue
		}
		coord, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			panic(fmt.Errorf("bad station coordinate %q in %s: %w", fields[0], fileName, err))
		}
		row := make([]float64, len(fields)-1)
		for iCol, fld := range fields[1:] {
			if row[iCol], err = strconv.ParseFloat(fld, 64); err != nil {
				panic(fmt.Errorf("bad weight %q in %s: %w", fld, fileName, err))
			}
		}
		w.coords = append(w.coords, coord)
		w.weights = append(w.weights, row)
	}
	if err := scanner.Err(); err != nil {
		panic(err)
	}
	return
}

// column resolves the table column of an azimuthal angle, widening the
// search one degree at a time when the exact bucket is empty. Coarse
// multigrid levels produce angles between the tabulated ones.
func (w *nearFieldWeights) column(phiAngle int) (iColumn int) {
	iColumn = w.indexInv[phiAngle]
	if iColumn >= 0 {
		return
	}
	for off := 1; off <= 4; off++ {
		if phiAngle+off < 180 && w.indexInv[phiAngle+off] > 0 {
			return w.indexInv[phiAngle+off]
		}
		if phiAngle-off >= 0 && w.indexInv[phiAngle-off] > 0 {
			return w.indexInv[phiAngle-off]
		}
	}
	fmt.Printf("azimuthal angle %d not tabulated in the nearfield weights\n", phiAngle)
	return -1
}

/*
SetIntBoundaryJump computes the adjoint jump across the nearfield
boundary for the sonic-boom functionals. The jump solves
	(A(U,n) M)^T x = (0, ..., 0, dJ/dp)
at each nearfield node, where A is the projected flux Jacobian, M the
conservative-to-primitive transformation, and dJ/dp the derivative of
the functional with respect to the local pressure: tabulated in
WeightNF.dat for the equivalent area, (P - P_inf) weighted against the
drag blend for the nearfield pressure norm.
*/
func (sv *Solver) SetIntBoundaryJump() {
	var (
		msh  = sv.Msh
		fld  = sv.Flow
		s    = sv.S
		nVar = sv.NVar
		nDim = sv.NDim

		weights *nearFieldWeights
		unit    = make([]float64, nDim)
		vel     = make([]float64, nDim)
		a       = make([]float64, nVar*nVar)
		m       = make([]float64, nVar*nVar)
		am      = make([]float64, nVar*nVar)
		b       = make([]float64, nVar)

		weightSB = 1. - fld.FS.WeightCd
		alpha    = -fld.FS.Alpha()
	)
	if sv.Par.Objective == EQUIVALENT_AREA {
		weights = readNearFieldWeights("WeightNF.dat")
	}
	for im := range msh.Markers {
		if msh.Markers[im].Kind != geometry.NEARFIELD_BOUNDARY {
			continue
		}
		for iv := range msh.Markers[im].Vertices {
			var (
				v      = &msh.Markers[im].Vertices[iv]
				iPoint = v.Node
			)
			if !msh.Nodes[iPoint].Domain {
				continue
			}
			var area float64
			for iDim := 0; iDim < nDim; iDim++ {
				area += v.Normal[iDim] * v.Normal[iDim]
			}
			area = math.Sqrt(area)
			// The 2D nearfield sheet is horizontal; the jump is always
			// built through the vertical flux.
			if nDim == 2 {
				unit[0], unit[1] = 0, 1
			} else {
				for iDim := 0; iDim < nDim; iDim++ {
					unit[iDim] = v.Normal[iDim] / area
				}
			}

			var (
				coord        = msh.Nodes[iPoint].Coord
				derivativeOF float64
			)
			switch sv.Par.Objective {
			case EQUIVALENT_AREA:
				// Rotate the nearfield cylinder into the free-stream frame
				var xRot, yRot, zRot float64
				if nDim == 2 {
					xRot = coord[0]
				} else {
					xRot = coord[0]*math.Cos(alpha) - coord[2]*math.Sin(alpha)
					yRot = coord[1]
					zRot = coord[0]*math.Sin(alpha) + coord[2]*math.Cos(alpha)
				}
				phiAngle := 0
				if nDim == 3 {
					angle := math.Atan(-yRot/zRot) * 180. / math.Pi
					phiAngle = int(math.Floor(angle + 0.5))
					if phiAngle < 0 {
						phiAngle += 180
					}
				}
				if phiAngle <= 60 {
					iColumn := weights.column(phiAngle)
					if iColumn >= 0 {
						minDist := 1.e6
						for ip, c := range weights.coords {
							if dist := math.Abs(c - xRot); dist <= minDist {
								minDist = dist
								derivativeOF = weightSB * weights.weights[ip][iColumn]
							}
						}
						if minDist > 1.e-6 || coord[nDim-1] > 0. {
							derivativeOF = 0
						}
					}
				}
			case NEARFIELD_PRESSURE:
				derivativeOF = weightSB * (fld.Pressure(iPoint) - fld.FS.Pressure)
			}

			// (A M)^T x = (0, ..., dJ/dp)
			u := fld.Solution(iPoint)
			_, enthalpy, _ := ConservativeState(sv.Phys.Gamma, u, vel, nDim)
			InviscidProjJac(sv.Phys.Gamma, vel, enthalpy, unit, 1.0, a, nDim)
			DUdV(sv.Phys.Gamma, u[0], vel, m, nDim)
			matMul(a, m, am, nVar)
			for iVar := 0; iVar < nVar; iVar++ {
				b[iVar] = 0
			}
			b[nVar-1] = derivativeOF
			solveTransposed(am, b, nVar)
			copy(s.Jump(iPoint), b)
		}
	}
}

// matMul computes c = a b for flat n x n blocks.
func matMul(a, b, c []float64, n int) {
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			var sum float64
			for k := 0; k < n; k++ {
				sum += a[i*n+k] * b[k*n+j]
			}
			c[i*n+j] = sum
		}
	}
}

// solveTransposed solves a^T x = b in place, b overwritten with x.
func solveTransposed(a, b []float64, n int) {
	copy(b, utils.NewMatrix(n, n, a).LUSolveTransposed(b))
}
