package adjoint

import (
	"math"

	"github.com/AcademicHacker/SU2/geometry"
)

// Exchanger synchronizes per-node fields across partition or periodic
// boundaries and reduces scalars across ranks. The solver only talks to
// this interface; a serial run uses SerialExchange, which resolves
// periodic donors locally.
type Exchanger interface {
	ExchangeSolution(sol []float64)
	ExchangeLaplacian(lapl []float64)
	ExchangeSensor(sensor []float64)
	SumReduce(vals []float64)
}

type periodicPair struct {
	node, donor int
	rot         [3][3]float64
}

// SerialExchange applies the periodic rotation to the momentum
// components when a value crosses a rotated periodic marker. All other
// exchanges are no-ops in serial.
type SerialExchange struct {
	nVar, nDim int
	pairs      []periodicPair
}

func NewSerialExchange(msh *geometry.Mesh, nVar int) (x *SerialExchange) {
	x = &SerialExchange{nVar: nVar, nDim: msh.NDim}
	for _, m := range msh.Markers {
		if m.Kind != geometry.PERIODIC_BOUNDARY {
			continue
		}
		rot := rotationMatrix(m.Rotation)
		for _, v := range m.Vertices {
			if v.Donor < 0 {
				continue
			}
			x.pairs = append(x.pairs, periodicPair{node: v.Node, donor: v.Donor, rot: rot})
		}
	}
	return
}

/*
rotationMatrix composes rotations about the x, y and z axes from the
angles (theta, phi, psi). This is the transpose of the matrix used when
the periodic marker was generated, so a donor value returns to the
receiver frame.
*/
func rotationMatrix(angles [3]float64) (r [3][3]float64) {
	var (
		theta, phi, psi = angles[0], angles[1], angles[2]

		cosTheta, sinTheta = math.Cos(theta), math.Sin(theta)
		cosPhi, sinPhi     = math.Cos(phi), math.Sin(phi)
		cosPsi, sinPsi     = math.Cos(psi), math.Sin(psi)
	)
	r[0][0] = cosPhi * cosPsi
	r[1][0] = sinTheta*sinPhi*cosPsi - cosTheta*sinPsi
	r[2][0] = cosTheta*sinPhi*cosPsi + sinTheta*sinPsi
	r[0][1] = cosPhi * sinPsi
	r[1][1] = sinTheta*sinPhi*sinPsi + cosTheta*cosPsi
	r[2][1] = cosTheta*sinPhi*sinPsi - sinTheta*cosPsi
	r[0][2] = -sinPhi
	r[1][2] = sinTheta * cosPhi
	r[2][2] = cosTheta * cosPhi
	return
}

func (x *SerialExchange) rotateVector(p periodicPair, src []float64, dst []float64) {
	var (
		nDim = x.nDim
		tmp  [3]float64
	)
	for iDim := 0; iDim < nDim; iDim++ {
		tmp[iDim] = 0
		for jDim := 0; jDim < nDim; jDim++ {
			tmp[iDim] += p.rot[iDim][jDim] * src[jDim]
		}
	}
	for iDim := 0; iDim < nDim; iDim++ {
		dst[iDim] = tmp[iDim]
	}
}

// ExchangeSolution copies each donor state to its periodic receiver,
// rotating the momentum block.
func (x *SerialExchange) ExchangeSolution(sol []float64) {
	var (
		nVar = x.nVar
		nDim = x.nDim
	)
	for _, p := range x.pairs {
		src := sol[p.donor*nVar : (p.donor+1)*nVar]
		dst := sol[p.node*nVar : (p.node+1)*nVar]
		dst[0] = src[0]
		if nVar == nDim+2 {
			dst[nVar-1] = src[nVar-1]
		}
		x.rotateVector(p, src[1:1+nDim], dst[1:1+nDim])
	}
}

func (x *SerialExchange) ExchangeLaplacian(lapl []float64) { x.ExchangeSolution(lapl) }

func (x *SerialExchange) ExchangeSensor(sensor []float64) {
	for _, p := range x.pairs {
		sensor[p.node] = sensor[p.donor]
	}
}

// SumReduce is the serial identity.
func (x *SerialExchange) SumReduce(vals []float64) {}
