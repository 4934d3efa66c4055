package geometry

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

/*
Native ASCII dual-mesh format:

	NDIM= 2
	NPOIN= 4
	<x> <y> [z] <volume> <domain 0|1>
	NEDGE= 4
	<n0> <n1> <nx> <ny> [nz]
	NMARK= 1
	TAG= wall KIND= euler_wall NVERT= 2
	<node> <nx> <ny> [nz] <donor>
*/

// ReadMeshFile loads a dual mesh from its native ASCII form. A missing or
// malformed file is fatal: the adjoint run cannot proceed without a mesh.
func ReadMeshFile(fileName string) (msh *Mesh) {
	var (
		file *os.File
		err  error
	)
	if file, err = os.Open(fileName); err != nil {
		panic(fmt.Errorf("unable to open mesh file %s: %w", fileName, err))
	}
	defer file.Close()
	return readMesh(file)
}

func readMesh(r io.Reader) (msh *Mesh) {
	var (
		reader       = bufio.NewReader(r)
		nDim, nPoin  int
		nEdge, nMark int
		err          error
	)
	mustScan := func(format string, args ...interface{}) {
		line, errl := reader.ReadString('\n')
		if errl != nil && len(line) == 0 {
			panic(fmt.Errorf("premature end of mesh file: %v", errl))
		}
		if _, err = fmt.Sscanf(line, format, args...); err != nil {
			panic(fmt.Errorf("malformed mesh line %q: %w", line, err))
		}
	}

	mustScan("NDIM= %d", &nDim)
	mustScan("NPOIN= %d", &nPoin)
	nodes := make([]Node, nPoin)
	for i := 0; i < nPoin; i++ {
		var domain int
		coord := make([]float64, nDim)
		n := &nodes[i]
		if nDim == 2 {
			mustScan("%f %f %f %d", &coord[0], &coord[1], &n.Volume, &domain)
		} else {
			mustScan("%f %f %f %f %d", &coord[0], &coord[1], &coord[2], &n.Volume, &domain)
		}
		n.Coord = coord
		n.Domain = domain != 0
	}

	mustScan("NEDGE= %d", &nEdge)
	edges := make([]Edge, nEdge)
	for i := 0; i < nEdge; i++ {
		e := &edges[i]
		normal := make([]float64, nDim)
		if nDim == 2 {
			mustScan("%d %d %f %f", &e.Nodes[0], &e.Nodes[1], &normal[0], &normal[1])
		} else {
			mustScan("%d %d %f %f %f", &e.Nodes[0], &e.Nodes[1], &normal[0], &normal[1], &normal[2])
		}
		e.Normal = normal
	}

	mustScan("NMARK= %d", &nMark)
	markers := make([]Marker, nMark)
	for im := 0; im < nMark; im++ {
		var (
			tag, kindLabel string
			nVert          int
		)
		mustScan("TAG= %s KIND= %s NVERT= %d", &tag, &kindLabel, &nVert)
		kind, errk := NewBCKind(kindLabel)
		if errk != nil {
			panic(errk)
		}
		m := Marker{Tag: tag, Kind: kind}
		for iv := 0; iv < nVert; iv++ {
			v := Vertex{Donor: -1}
			normal := make([]float64, nDim)
			if nDim == 2 {
				mustScan("%d %f %f %d", &v.Node, &normal[0], &normal[1], &v.Donor)
			} else {
				mustScan("%d %f %f %f %d", &v.Node, &normal[0], &normal[1], &normal[2], &v.Donor)
			}
			v.Normal = normal
			m.Vertices = append(m.Vertices, v)
		}
		markers[im] = m
	}

	return NewMesh(nDim, nodes, edges, markers)
}

// WriteMeshFile stores msh in the native ASCII form read by ReadMeshFile.
func WriteMeshFile(fileName string, msh *Mesh) (err error) {
	var (
		file *os.File
	)
	if file, err = os.Create(fileName); err != nil {
		return
	}
	defer file.Close()
	w := bufio.NewWriter(file)
	defer w.Flush()

	fmt.Fprintf(w, "NDIM= %d\n", msh.NDim)
	fmt.Fprintf(w, "NPOIN= %d\n", msh.NNodes())
	for _, n := range msh.Nodes {
		for _, c := range n.Coord {
			fmt.Fprintf(w, "%.15e ", c)
		}
		domain := 0
		if n.Domain {
			domain = 1
		}
		fmt.Fprintf(w, "%.15e %d\n", n.Volume, domain)
	}
	fmt.Fprintf(w, "NEDGE= %d\n", msh.NEdges())
	for _, e := range msh.Edges {
		fmt.Fprintf(w, "%d %d", e.Nodes[0], e.Nodes[1])
		for _, c := range e.Normal {
			fmt.Fprintf(w, " %.15e", c)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "NMARK= %d\n", len(msh.Markers))
	for _, m := range msh.Markers {
		fmt.Fprintf(w, "TAG= %s KIND= %s NVERT= %d\n", m.Tag, m.Kind.Print(), len(m.Vertices))
		for _, v := range m.Vertices {
			fmt.Fprintf(w, "%d", v.Node)
			for _, c := range v.Normal {
				fmt.Fprintf(w, " %.15e", c)
			}
			fmt.Fprintf(w, " %d\n", v.Donor)
		}
	}
	return
}
