package geometry

// CartesianSpec describes a synthetic 2D box mesh with one marker per
// side. Used by the tests and by the demo mode of the CLI.
type CartesianSpec struct {
	Nx, Ny int
	Lx, Ly float64
	// Marker kinds, one per side
	Left, Right, Bottom, Top BCKind
}

// NewCartesianMesh builds the dual mesh of an Nx x Ny structured grid of
// nodes on [0,Lx] x [0,Ly]. Border control volumes take their clipped
// share of the cell area; edge and vertex normals carry the dual face
// areas so that the divergence of a constant field telescopes to the
// boundary exactly.
func NewCartesianMesh(spec CartesianSpec) (msh *Mesh) {
	var (
		nx, ny = spec.Nx, spec.Ny
		dx     = spec.Lx / float64(nx-1)
		dy     = spec.Ly / float64(ny-1)
	)
	id := func(i, j int) int { return j*nx + i }

	nodes := make([]Node, nx*ny)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			wx, wy := 1.0, 1.0
			if i == 0 || i == nx-1 {
				wx = 0.5
			}
			if j == 0 || j == ny-1 {
				wy = 0.5
			}
			nodes[id(i, j)] = Node{
				Coord:  []float64{float64(i) * dx, float64(j) * dy},
				Volume: wx * wy * dx * dy,
				Domain: true,
			}
		}
	}

	faceY := func(j int) (h float64) { // dual face height for x-edges
		h = dy
		if j == 0 || j == ny-1 {
			h = 0.5 * dy
		}
		return
	}
	faceX := func(i int) (w float64) {
		w = dx
		if i == 0 || i == nx-1 {
			w = 0.5 * dx
		}
		return
	}

	var edges []Edge
	for j := 0; j < ny; j++ {
		for i := 0; i < nx-1; i++ {
			edges = append(edges, Edge{
				Nodes:  [2]int{id(i, j), id(i + 1, j)},
				Normal: []float64{faceY(j), 0},
			})
		}
	}
	for j := 0; j < ny-1; j++ {
		for i := 0; i < nx; i++ {
			edges = append(edges, Edge{
				Nodes:  [2]int{id(i, j), id(i, j+1)},
				Normal: []float64{0, faceX(i)},
			})
		}
	}

	side := func(kind BCKind, tag string, pick func(k int) (node int, normal []float64), n int) Marker {
		m := Marker{Tag: tag, Kind: kind}
		for k := 0; k < n; k++ {
			node, normal := pick(k)
			m.Vertices = append(m.Vertices, Vertex{Node: node, Normal: normal, Donor: -1})
		}
		return m
	}

	markers := []Marker{
		side(spec.Left, "left", func(k int) (int, []float64) {
			return id(0, k), []float64{faceY(k), 0}
		}, ny),
		side(spec.Right, "right", func(k int) (int, []float64) {
			return id(nx-1, k), []float64{-faceY(k), 0}
		}, ny),
		side(spec.Bottom, "bottom", func(k int) (int, []float64) {
			return id(k, 0), []float64{0, faceX(k)}
		}, nx),
		side(spec.Top, "top", func(k int) (int, []float64) {
			return id(k, ny-1), []float64{0, -faceX(k)}
		}, nx),
	}

	return NewMesh(2, nodes, edges, markers)
}
