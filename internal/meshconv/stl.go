package meshconv

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/unixpickle/model3d/model3d"
)

const stlHeader = "binary STL written by printforge"

// Triangles fan-triangulates every face in file order.
func (m *Mesh) Triangles() []*model3d.Triangle {
	var out []*model3d.Triangle
	for _, face := range m.Faces {
		origin := m.coord(face[0])
		for i := 1; i+1 < len(face); i++ {
			out = append(out, &model3d.Triangle{origin, m.coord(face[i]), m.coord(face[i+1])})
		}
	}
	return out
}

func (m *Mesh) coord(idx int) model3d.Coord3D {
	v := m.Vertices[idx]
	return model3d.XYZ(v[0], v[1], v[2])
}

// WriteSTL encodes triangles as binary STL. Zero-area triangles are kept
// with a zero facet normal.
func WriteSTL(w io.Writer, triangles []*model3d.Triangle) error {
	if len(triangles) == 0 {
		return fmt.Errorf("write stl: no triangles")
	}
	if uint64(len(triangles)) > math.MaxUint32 {
		return fmt.Errorf("write stl: %d triangles exceed the format limit", len(triangles))
	}

	bw := bufio.NewWriter(w)
	var header [80]byte
	copy(header[:], stlHeader)
	if _, err := bw.Write(header[:]); err != nil {
		return fmt.Errorf("write stl: %w", err)
	}

	var rec [50]byte
	binary.LittleEndian.PutUint32(rec[:4], uint32(len(triangles)))
	if _, err := bw.Write(rec[:4]); err != nil {
		return fmt.Errorf("write stl: %w", err)
	}
	for _, t := range triangles {
		putCoord(rec[0:12], facetNormal(t))
		putCoord(rec[12:24], t[0])
		putCoord(rec[24:36], t[1])
		putCoord(rec[36:48], t[2])
		binary.LittleEndian.PutUint16(rec[48:50], 0)
		if _, err := bw.Write(rec[:]); err != nil {
			return fmt.Errorf("write stl: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write stl: %w", err)
	}
	return nil
}

// facetNormal is the unit normal of t, or zero when t has no area.
func facetNormal(t *model3d.Triangle) model3d.Coord3D {
	n := t.Normal()
	for _, c := range []float64{n.X, n.Y, n.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return model3d.Coord3D{}
		}
	}
	return n
}

func putCoord(b []byte, c model3d.Coord3D) {
	binary.LittleEndian.PutUint32(b[0:4], math.Float32bits(float32(c.X)))
	binary.LittleEndian.PutUint32(b[4:8], math.Float32bits(float32(c.Y)))
	binary.LittleEndian.PutUint32(b[8:12], math.Float32bits(float32(c.Z)))
}

// ReadSTL decodes an STL stream into triangles.
func ReadSTL(r io.Reader) ([]*model3d.Triangle, error) {
	tris, err := model3d.ReadSTL(r)
	if err != nil {
		return nil, fmt.Errorf("read stl: %w", err)
	}
	return tris, nil
}
