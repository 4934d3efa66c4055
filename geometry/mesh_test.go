package geometry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeshFileRoundTrip(t *testing.T) {
	msh := NewCartesianMesh(CartesianSpec{
		Nx: 4, Ny: 3, Lx: 2, Ly: 1,
		Left:   FAR_FIELD,
		Right:  OUTLET_FLOW,
		Bottom: EULER_WALL,
		Top:    FAR_FIELD,
	})
	fileName := filepath.Join(t.TempDir(), "channel.dat")
	assert.NoError(t, WriteMeshFile(fileName, msh))

	read := ReadMeshFile(fileName)
	assert.Equal(t, msh.NDim, read.NDim)
	assert.Equal(t, msh.NNodes(), read.NNodes())
	assert.Equal(t, msh.NEdges(), read.NEdges())
	for i, n := range msh.Nodes {
		for iDim := 0; iDim < msh.NDim; iDim++ {
			assert.InDelta(t, n.Coord[iDim], read.Nodes[i].Coord[iDim], 1.e-12)
		}
		assert.InDelta(t, n.Volume, read.Nodes[i].Volume, 1.e-12)
		assert.Equal(t, n.Domain, read.Nodes[i].Domain)
	}
	for ie, e := range msh.Edges {
		assert.Equal(t, e.Nodes, read.Edges[ie].Nodes)
		for iDim := 0; iDim < msh.NDim; iDim++ {
			assert.InDelta(t, e.Normal[iDim], read.Edges[ie].Normal[iDim], 1.e-12)
		}
	}
	for im, m := range msh.Markers {
		assert.Equal(t, m.Tag, read.Markers[im].Tag)
		assert.Equal(t, m.Kind, read.Markers[im].Kind)
		assert.Equal(t, len(m.Vertices), len(read.Markers[im].Vertices))
		for iv, v := range m.Vertices {
			assert.Equal(t, v.Node, read.Markers[im].Vertices[iv].Node)
			assert.Equal(t, v.Donor, read.Markers[im].Vertices[iv].Donor)
		}
	}
	// Derived flags rebuild identically from the primitive arrays
	assert.True(t, read.Markers[2].Monitored)
	assert.True(t, read.PhysicalBoundary(0))
}

func TestReadMeshMalformedFatal(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "broken.dat")
	assert.NoError(t, os.WriteFile(fileName, []byte("NDIM= two\n"), 0644))
	assert.Panics(t, func() { ReadMeshFile(fileName) })
	assert.Panics(t, func() { ReadMeshFile(filepath.Join(t.TempDir(), "missing.dat")) })
}

func TestAdjacencyNeighbors(t *testing.T) {
	msh := NewCartesianMesh(CartesianSpec{
		Nx: 3, Ny: 3, Lx: 1, Ly: 1,
		Left:   FAR_FIELD,
		Right:  FAR_FIELD,
		Bottom: EULER_WALL,
		Top:    FAR_FIELD,
	})
	// Corner, edge midpoint and center of the 3x3 grid
	assert.ElementsMatch(t, []int{1, 3}, msh.Neighbors(0))
	assert.ElementsMatch(t, []int{0, 2, 4}, msh.Neighbors(1))
	assert.ElementsMatch(t, []int{1, 3, 5, 7}, msh.Neighbors(4))
	assert.Equal(t, 4, msh.Nodes[4].NNeighbors)
}

func TestDualVolumesTileDomain(t *testing.T) {
	msh := NewCartesianMesh(CartesianSpec{
		Nx: 7, Ny: 5, Lx: 3, Ly: 2,
		Left:   FAR_FIELD,
		Right:  FAR_FIELD,
		Bottom: EULER_WALL,
		Top:    FAR_FIELD,
	})
	var total float64
	for _, n := range msh.Nodes {
		total += n.Volume
	}
	assert.InDelta(t, 6.0, total, 1.e-12)
}

// Vertex normals are area weighted and point into the domain, so each
// side's normals sum to the side length along the inward direction.
func TestVertexNormalClosure(t *testing.T) {
	msh := NewCartesianMesh(CartesianSpec{
		Nx: 6, Ny: 4, Lx: 3, Ly: 2,
		Left:   FAR_FIELD,
		Right:  FAR_FIELD,
		Bottom: EULER_WALL,
		Top:    FAR_FIELD,
	})
	sum := func(m Marker) (s [2]float64) {
		for _, v := range m.Vertices {
			s[0] += v.Normal[0]
			s[1] += v.Normal[1]
		}
		return
	}
	left, right := sum(msh.Markers[0]), sum(msh.Markers[1])
	bottom, top := sum(msh.Markers[2]), sum(msh.Markers[3])
	assert.InDelta(t, 2.0, left[0], 1.e-12)
	assert.InDelta(t, -2.0, right[0], 1.e-12)
	assert.InDelta(t, 3.0, bottom[1], 1.e-12)
	assert.InDelta(t, -3.0, top[1], 1.e-12)
	assert.InDelta(t, 0.0, left[1]+right[1]+bottom[0]+top[0], 1.e-12)
}
