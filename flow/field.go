package flow

import (
	"bufio"
	"fmt"
	"math"
	"os"

	"github.com/AcademicHacker/SU2/geometry"
)

// Field is the converged primal solution the adjoint linearizes about.
// Conservative variables are stored flat, node-major; the accessors
// derive the primitives the adjoint kernels consume.
type Field struct {
	Phys *Physics
	Mode Mode
	FS   *FreeStream
	Msh  *geometry.Mesh

	NVar, NPrim int

	U      []float64 // nNodes x NVar conservative
	UTimeN []float64 // previous physical time level, unsteady couplings
	GradU    []float64 // nNodes x NVar x nDim, Green-Gauss
	GradPrim []float64 // nNodes x NPrim x nDim; rows T, v_1..v_nDim, P
	DeltaT   []float64 // local pseudo time step

	LamVisc  []float64
	EddyVisc []float64

	// Incompressible model fields (artificial compressibility)
	DensInc []float64
	Beta2   []float64
}

// NewField initializes every node to the free-stream state.
func NewField(msh *geometry.Mesh, phys *Physics, mode Mode, fs *FreeStream) (f *Field) {
	var (
		nDim   = msh.NDim
		nNodes = msh.NNodes()
	)
	f = &Field{
		Phys:     phys,
		Mode:     mode,
		FS:       fs,
		Msh:      msh,
		NVar:     mode.NVar(nDim),
		NPrim:    nDim + 2,
		DeltaT:   make([]float64, nNodes),
		LamVisc:  make([]float64, nNodes),
		EddyVisc: make([]float64, nNodes),
		DensInc:  make([]float64, nNodes),
		Beta2:    make([]float64, nNodes),
	}
	f.U = make([]float64, nNodes*f.NVar)
	f.UTimeN = make([]float64, nNodes*f.NVar)
	f.GradU = make([]float64, nNodes*f.NVar*nDim)
	f.GradPrim = make([]float64, nNodes*f.NPrim*nDim)
	Uinf := fs.Conservative(mode, nDim)
	for i := 0; i < nNodes; i++ {
		copy(f.U[i*f.NVar:(i+1)*f.NVar], Uinf)
		f.LamVisc[i] = fs.Viscosity
		f.DensInc[i] = fs.Density
		f.Beta2[i] = phys.ArtCompBeta2
	}
	return
}

// Solution returns the conservative vector at node i (aliased, not copied).
func (f *Field) Solution(i int) []float64 { return f.U[i*f.NVar : (i+1)*f.NVar] }

func (f *Field) Density(i int) float64 { return f.U[i*f.NVar] }

func (f *Field) DensityInc(i int) float64 { return f.DensInc[i] }

func (f *Field) BetaInc2(i int) float64 { return f.Beta2[i] }

func (f *Field) Velocity(i, iDim int) float64 {
	if f.Mode.Incompressible {
		return f.U[i*f.NVar+iDim+1] / f.DensInc[i]
	}
	return f.U[i*f.NVar+iDim+1] / f.U[i*f.NVar]
}

func (f *Field) SqVel(i int) (sq float64) {
	for iDim := 0; iDim < f.Msh.NDim; iDim++ {
		v := f.Velocity(i, iDim)
		sq += v * v
	}
	return
}

func (f *Field) Energy(i int) float64 {
	return f.U[i*f.NVar+f.Msh.NDim+1] / f.U[i*f.NVar]
}

func (f *Field) Pressure(i int) float64 {
	if f.Mode.Incompressible {
		return f.U[i*f.NVar]
	}
	return f.Phys.GammaM1() * f.U[i*f.NVar] * (f.Energy(i) - 0.5*f.SqVel(i))
}

func (f *Field) SoundSpeed(i int) float64 {
	return math.Sqrt(f.Phys.Gamma * f.Pressure(i) / f.Density(i))
}

func (f *Field) Enthalpy(i int) float64 {
	return f.Energy(i) + f.Pressure(i)/f.Density(i)
}

func (f *Field) Temperature(i int) float64 {
	return f.Pressure(i) / (f.Density(i) * f.Phys.GasConstant)
}

func (f *Field) LaminarViscosity(i int) float64 { return f.LamVisc[i] }

func (f *Field) EddyViscosity(i int) float64 { return f.EddyVisc[i] }

// ProjVel is the velocity projected on an area-weighted normal.
func (f *Field) ProjVel(i int, normal []float64) (pv float64) {
	for iDim := 0; iDim < f.Msh.NDim; iDim++ {
		pv += f.Velocity(i, iDim) * normal[iDim]
	}
	return
}

func (f *Field) GradCons(i, iVar, iDim int) float64 {
	return f.GradU[(i*f.NVar+iVar)*f.Msh.NDim+iDim]
}

// GradPrimitive rows: 0 temperature, 1..nDim velocity, nDim+1 pressure.
func (f *Field) GradPrimitive(i, iVar, iDim int) float64 {
	return f.GradPrim[(i*f.NPrim+iVar)*f.Msh.NDim+iDim]
}

func (f *Field) primitive(i int, prim []float64) {
	var (
		nDim = f.Msh.NDim
	)
	prim[0] = f.Temperature(i)
	for iDim := 0; iDim < nDim; iDim++ {
		prim[iDim+1] = f.Velocity(i, iDim)
	}
	prim[nDim+1] = f.Pressure(i)
}

// ComputeGradients fills the Green-Gauss gradients of the conservative
// and primitive variables. Interior dual faces contribute the edge
// average; boundary faces close each control volume with the node value
// on the stored (inward) vertex normal.
func (f *Field) ComputeGradients() {
	var (
		msh  = f.Msh
		nDim = msh.NDim
	)
	for i := range f.GradU {
		f.GradU[i] = 0
	}
	for i := range f.GradPrim {
		f.GradPrim[i] = 0
	}
	primI := make([]float64, f.NPrim)
	primJ := make([]float64, f.NPrim)
	for _, e := range msh.Edges {
		iPoint, jPoint := e.Nodes[0], e.Nodes[1]
		f.primitive(iPoint, primI)
		f.primitive(jPoint, primJ)
		for iVar := 0; iVar < f.NVar; iVar++ {
			avg := 0.5 * (f.U[iPoint*f.NVar+iVar] + f.U[jPoint*f.NVar+iVar])
			for iDim := 0; iDim < nDim; iDim++ {
				res := avg * e.Normal[iDim]
				f.GradU[(iPoint*f.NVar+iVar)*nDim+iDim] += res
				f.GradU[(jPoint*f.NVar+iVar)*nDim+iDim] -= res
			}
		}
		for iVar := 0; iVar < f.NPrim; iVar++ {
			avg := 0.5 * (primI[iVar] + primJ[iVar])
			for iDim := 0; iDim < nDim; iDim++ {
				res := avg * e.Normal[iDim]
				f.GradPrim[(iPoint*f.NPrim+iVar)*nDim+iDim] += res
				f.GradPrim[(jPoint*f.NPrim+iVar)*nDim+iDim] -= res
			}
		}
	}
	for _, m := range msh.Markers {
		for _, v := range m.Vertices {
			iPoint := v.Node
			f.primitive(iPoint, primI)
			for iVar := 0; iVar < f.NVar; iVar++ {
				for iDim := 0; iDim < nDim; iDim++ {
					f.GradU[(iPoint*f.NVar+iVar)*nDim+iDim] -= f.U[iPoint*f.NVar+iVar] * v.Normal[iDim]
				}
			}
			for iVar := 0; iVar < f.NPrim; iVar++ {
				for iDim := 0; iDim < nDim; iDim++ {
					f.GradPrim[(iPoint*f.NPrim+iVar)*nDim+iDim] -= primI[iVar] * v.Normal[iDim]
				}
			}
		}
	}
	for i := 0; i < msh.NNodes(); i++ {
		vol := msh.Nodes[i].Volume + geometry.EPS
		for k := 0; k < f.NVar*nDim; k++ {
			f.GradU[i*f.NVar*nDim+k] /= vol
		}
		for k := 0; k < f.NPrim*nDim; k++ {
			f.GradPrim[i*f.NPrim*nDim+k] /= vol
		}
	}
}

// ComputeTimeStep sets the local pseudo time step from the spectral
// radius of the convective flux over each dual volume.
func (f *Field) ComputeTimeStep(cfl float64) {
	var (
		msh    = f.Msh
		lambda = make([]float64, msh.NNodes())
	)
	spectral := func(i int, normal []float64) (lam float64) {
		var area float64
		for iDim := 0; iDim < msh.NDim; iDim++ {
			area += normal[iDim] * normal[iDim]
		}
		area = math.Sqrt(area)
		pv := f.ProjVel(i, normal)
		if f.Mode.RotatingFrame {
			for iDim := 0; iDim < msh.NDim; iDim++ {
				pv -= msh.Nodes[i].RotVel[iDim] * normal[iDim]
			}
		}
		if f.Mode.Incompressible {
			lam = math.Abs(pv) + math.Sqrt(pv*pv+f.Beta2[i]/f.DensInc[i]*area*area)
		} else {
			lam = math.Abs(pv) + f.SoundSpeed(i)*area
		}
		return
	}
	for _, e := range msh.Edges {
		iPoint, jPoint := e.Nodes[0], e.Nodes[1]
		mean := 0.5 * (spectral(iPoint, e.Normal) + spectral(jPoint, e.Normal))
		lambda[iPoint] += mean
		lambda[jPoint] += mean
	}
	for _, m := range msh.Markers {
		for _, v := range m.Vertices {
			lambda[v.Node] += spectral(v.Node, v.Normal)
		}
	}
	for i := 0; i < msh.NNodes(); i++ {
		f.DeltaT[i] = cfl * msh.Nodes[i].Volume / (lambda[i] + geometry.EPS)
	}
}

// ReadRestart loads a primal restart file: one header line, then one
// line per node with the node index followed by NVar values.
func (f *Field) ReadRestart(fileName string) (err error) {
	fd, err := os.Open(fileName)
	if err != nil {
		return fmt.Errorf("unable to open flow restart file %s: %w", fileName, err)
	}
	defer fd.Close()
	scanner := bufio.NewScanner(fd)
	if !scanner.Scan() {
		return fmt.Errorf("flow restart file %s is empty", fileName)
	}
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) == 0 {
			continue
		}
		var index int
		fields := make([]interface{}, f.NVar+1)
		vals := make([]float64, f.NVar)
		fields[0] = &index
		for iVar := 0; iVar < f.NVar; iVar++ {
			fields[iVar+1] = &vals[iVar]
		}
		if _, err = fmt.Sscan(line, fields...); err != nil {
			return fmt.Errorf("malformed line in %s: %q: %w", fileName, line, err)
		}
		copy(f.U[index*f.NVar:(index+1)*f.NVar], vals)
	}
	return scanner.Err()
}
