package meshconv

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Mesh is indexed polygon geometry as read from an interchange file.
// Faces index into Vertices and hold at least three entries.
type Mesh struct {
	Vertices [][3]float64
	Faces    [][]int
}

// ReadOBJ parses the vertex and face statements of a Wavefront OBJ stream.
// Texture coordinates, normals, groups and materials are ignored.
func ReadOBJ(r io.Reader) (*Mesh, error) {
	m := &Mesh{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "v":
			v, err := parseVertex(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("obj line %d: %w", lineNo, err)
			}
			m.Vertices = append(m.Vertices, v)
		case "f":
			face, err := parseFace(fields[1:], len(m.Vertices))
			if err != nil {
				return nil, fmt.Errorf("obj line %d: %w", lineNo, err)
			}
			m.Faces = append(m.Faces, face)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read obj: %w", err)
	}

	if len(m.Faces) == 0 {
		return nil, fmt.Errorf("obj has no faces")
	}
	for i, face := range m.Faces {
		for _, idx := range face {
			if idx < 0 || idx >= len(m.Vertices) {
				return nil, fmt.Errorf("obj face %d: vertex index %d out of range (%d vertices)", i+1, idx+1, len(m.Vertices))
			}
		}
	}
	return m, nil
}

func parseVertex(fields []string) ([3]float64, error) {
	var v [3]float64
	if len(fields) < 3 {
		return v, fmt.Errorf("vertex needs 3 coordinates, got %d", len(fields))
	}
	for i := range 3 {
		f, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return v, fmt.Errorf("vertex coordinate %q: %w", fields[i], err)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return v, fmt.Errorf("vertex coordinate %q is not finite", fields[i])
		}
		v[i] = f
	}
	return v, nil
}

// parseFace resolves 1-based and negative (relative) indices to 0-based.
// Positive indices are range-checked once all vertices are known.
func parseFace(fields []string, vertexCount int) ([]int, error) {
	if len(fields) < 3 {
		return nil, fmt.Errorf("face needs at least 3 vertices, got %d", len(fields))
	}
	face := make([]int, 0, len(fields))
	for _, field := range fields {
		ref, _, _ := strings.Cut(field, "/")
		n, err := strconv.Atoi(ref)
		if err != nil {
			return nil, fmt.Errorf("face vertex %q: %w", field, err)
		}
		switch {
		case n > 0:
			face = append(face, n-1)
		case n < 0:
			idx := vertexCount + n
			if idx < 0 {
				return nil, fmt.Errorf("face vertex %q: relative index before first vertex", field)
			}
			face = append(face, idx)
		default:
			return nil, fmt.Errorf("face vertex %q: index 0 is invalid", field)
		}
	}
	return face, nil
}
