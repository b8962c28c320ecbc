package meshconv

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const cubeFaceOBJ = `# two triangles and a quad
o sample
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vn 0 0 1
usemtl none
f 1 2 3
f 1/1 3/1 4/1
f 1//1 2//1 3//1 4//1
f -4/1/1 -3/1/1 -2/1/1
`

func TestReadOBJ(t *testing.T) {
	t.Parallel()

	m, err := ReadOBJ(strings.NewReader(cubeFaceOBJ))
	if err != nil {
		t.Fatalf("ReadOBJ() error = %v", err)
	}

	wantVertices := [][3]float64{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}
	if diff := cmp.Diff(wantVertices, m.Vertices); diff != "" {
		t.Fatalf("vertices mismatch (-want +got):\n%s", diff)
	}
	wantFaces := [][]int{{0, 1, 2}, {0, 2, 3}, {0, 1, 2, 3}, {0, 1, 2}}
	if diff := cmp.Diff(wantFaces, m.Faces); diff != "" {
		t.Fatalf("faces mismatch (-want +got):\n%s", diff)
	}
}

func TestReadOBJErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		input   string
		wantErr string
	}{
		{name: "no faces", input: "v 0 0 0\nv 1 0 0\nv 0 1 0\n", wantErr: "no faces"},
		{name: "short vertex", input: "v 0 0\n", wantErr: "needs 3 coordinates"},
		{name: "bad coordinate", input: "v 0 x 0\n", wantErr: "vertex coordinate"},
		{name: "nan coordinate", input: "v nan 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n", wantErr: "obj line 1: vertex coordinate \"nan\" is not finite"},
		{name: "inf coordinate", input: "v 0 0 0\nv 1 -Inf 0\nv 0 1 0\nf 1 2 3\n", wantErr: "obj line 2"},
		{name: "short face", input: "v 0 0 0\nv 1 0 0\nf 1 2\n", wantErr: "at least 3 vertices"},
		{name: "zero index", input: "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 0 1 2\n", wantErr: "index 0"},
		{name: "out of range", input: "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 9\n", wantErr: "out of range"},
		{name: "relative before start", input: "v 0 0 0\nf -1 -2 -3\n", wantErr: "relative index"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadOBJ(strings.NewReader(tc.input))
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("ReadOBJ() error = %v, want %q", err, tc.wantErr)
			}
		})
	}
}

func TestTrianglesFanQuads(t *testing.T) {
	t.Parallel()

	m := &Mesh{
		Vertices: [][3]float64{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}, {0.5, 1.5, 0}},
		Faces:    [][]int{{0, 1, 2, 3, 4}},
	}
	tris := m.Triangles()
	if len(tris) != 3 {
		t.Fatalf("len(Triangles()) = %d, want 3", len(tris))
	}
	for i, tri := range tris {
		if tri[0] != m.coord(0) {
			t.Fatalf("triangle %d does not fan from the first vertex: %v", i, tri)
		}
	}
}
