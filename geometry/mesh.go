package geometry

import (
	"fmt"

	"github.com/james-bowman/sparse"
)

// BCKind tags a boundary marker with the condition applied on it.
type BCKind uint8

const (
	EULER_WALL BCKind = iota
	NO_SLIP_WALL
	SYMMETRY_PLANE
	FAR_FIELD
	INLET_FLOW
	OUTLET_FLOW
	NACELLE_INFLOW
	NACELLE_EXHAUST
	NEARFIELD_BOUNDARY
	INTERFACE_BOUNDARY
	FWH_SURFACE
	PERIODIC_BOUNDARY
)

var BCKindNames = map[string]BCKind{
	"euler_wall":   EULER_WALL,
	"no_slip_wall": NO_SLIP_WALL,
	"symmetry":     SYMMETRY_PLANE,
	"far_field":    FAR_FIELD,
	"inlet":        INLET_FLOW,
	"outlet":       OUTLET_FLOW,
	"nacelle_inflow":  NACELLE_INFLOW,
	"nacelle_exhaust": NACELLE_EXHAUST,
	"nearfield":    NEARFIELD_BOUNDARY,
	"interface":    INTERFACE_BOUNDARY,
	"fwh_surface":  FWH_SURFACE,
	"periodic":     PERIODIC_BOUNDARY,
}

func (k BCKind) Print() (txt string) {
	for label, kind := range BCKindNames {
		if kind == k {
			return label
		}
	}
	return "unknown"
}

func NewBCKind(label string) (k BCKind, err error) {
	var (
		ok bool
	)
	if k, ok = BCKindNames[label]; !ok {
		err = fmt.Errorf("unknown boundary condition type: [%s]", label)
	}
	return
}

// Node is one dual control volume. Coordinates and measures are fixed for
// the duration of an adjoint run.
type Node struct {
	Coord  []float64
	Volume float64
	// Control volume measures at previous physical time levels, used by
	// the dual-time residual on deforming meshes. Equal to Volume on a
	// static mesh.
	VolumeN, VolumeN1 float64
	Domain            bool // owned by this partition (false for halo)
	Boundary          bool // touches a physical boundary
	NNeighbors        int
	WallDistance      float64
	RotVel            []float64 // rotating-frame velocity at the node
	GridVel           []float64 // mesh velocity (zero on static meshes)
}

// EPS guards divisions by degenerate volumes and spectral radii.
const EPS = 1.e-16

// Edge connects two dual volumes. Normal is area weighted and points from
// Nodes[0] to Nodes[1].
type Edge struct {
	Nodes  [2]int
	Normal []float64
	// RotFlux is the 1D rotational volume flux across the dual face, used
	// by the rotating-frame terms.
	RotFlux float64
}

// Vertex is one boundary face of a dual volume on a marker. Normal is
// area weighted and points into the domain; -Normal/Area is the outward
// unit normal.
type Vertex struct {
	Node   int
	Normal []float64
	// Donor is the paired vertex (periodic, nearfield, interface). -1
	// when the marker kind has no pairing.
	Donor int
	// RotFlux mirrors Edge.RotFlux for boundary faces.
	RotFlux float64
}

// Marker groups the boundary vertices that share one tag and condition.
type Marker struct {
	Tag      string
	Kind     BCKind
	Vertices []Vertex
	// SendReceive markers carry halo exchange pairs; Rotation holds the
	// periodic rotation angles (theta, phi, psi) when crossing this
	// marker requires a frame change.
	Rotation [3]float64
	// Monitored markers contribute to the force coefficients and carry
	// a force projection vector. Defaults to the wall markers.
	Monitored bool
}

// Mesh is the read-only dual mesh the adjoint solver operates on.
type Mesh struct {
	NDim    int
	Nodes   []Node
	Edges   []Edge
	Markers []Marker

	adjacency *sparse.CSR // node-to-node connectivity via edges
}

// NewMesh wires derived connectivity from the primitive node/edge/marker
// arrays. The adjacency structure is built once as a DOK and compressed.
func NewMesh(nDim int, nodes []Node, edges []Edge, markers []Marker) (msh *Mesh) {
	msh = &Mesh{
		NDim:    nDim,
		Nodes:   nodes,
		Edges:   edges,
		Markers: markers,
	}
	dok := sparse.NewDOK(len(nodes), len(nodes))
	for _, e := range edges {
		dok.Set(e.Nodes[0], e.Nodes[1], 1)
		dok.Set(e.Nodes[1], e.Nodes[0], 1)
	}
	msh.adjacency = dok.ToCSR()
	for i := range msh.Nodes {
		msh.Nodes[i].NNeighbors = len(msh.Neighbors(i))
		if msh.Nodes[i].VolumeN == 0 {
			msh.Nodes[i].VolumeN = msh.Nodes[i].Volume
		}
		if msh.Nodes[i].VolumeN1 == 0 {
			msh.Nodes[i].VolumeN1 = msh.Nodes[i].Volume
		}
		if msh.Nodes[i].RotVel == nil {
			msh.Nodes[i].RotVel = make([]float64, nDim)
		}
		if msh.Nodes[i].GridVel == nil {
			msh.Nodes[i].GridVel = make([]float64, nDim)
		}
	}
	for im := range msh.Markers {
		m := &msh.Markers[im]
		if m.Kind != PERIODIC_BOUNDARY && m.Kind != NEARFIELD_BOUNDARY &&
			m.Kind != INTERFACE_BOUNDARY {
			for iv := range m.Vertices {
				msh.Nodes[m.Vertices[iv].Node].Boundary = true
			}
		}
		if m.Kind == EULER_WALL || m.Kind == NO_SLIP_WALL {
			m.Monitored = true
		}
	}
	return
}

func (msh *Mesh) NNodes() int { return len(msh.Nodes) }
func (msh *Mesh) NEdges() int { return len(msh.Edges) }

// Neighbors returns the node indices adjacent to node i through an edge.
func (msh *Mesh) Neighbors(i int) (nbrs []int) {
	cols := msh.adjacency.RawMatrix()
	start, end := cols.Indptr[i], cols.Indptr[i+1]
	return cols.Ind[start:end]
}

// BlockAddresses lists the (i, j) coordinates of the Jacobian sparsity
// structure: one diagonal block per node plus one off-diagonal block per
// edge direction.
func (msh *Mesh) BlockAddresses() (addresses [][2]int) {
	addresses = make([][2]int, 0, msh.NNodes()+2*msh.NEdges())
	for i := 0; i < msh.NNodes(); i++ {
		addresses = append(addresses, [2]int{i, i})
	}
	for _, e := range msh.Edges {
		addresses = append(addresses, [2]int{e.Nodes[0], e.Nodes[1]})
		addresses = append(addresses, [2]int{e.Nodes[1], e.Nodes[0]})
	}
	return
}

// PhysicalBoundary reports whether node i lies on a physical (non
// coupling, non periodic) boundary, which changes the undivided
// Laplacian stencil there.
func (msh *Mesh) PhysicalBoundary(i int) bool { return msh.Nodes[i].Boundary }
