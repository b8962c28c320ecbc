package shapegen

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

const cubeOBJ = `v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
f 1 2 3 4
`

// fakePipeline writes the given meshes into the scratch directory in order.
type fakePipeline struct {
	meshes map[string]string
	order  []string
	err    error

	requests []Request
}

func (f *fakePipeline) Run(_ context.Context, req Request) ([]Candidate, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	var out []Candidate
	for _, name := range f.order {
		path := filepath.Join(req.OutputDir, name)
		if err := os.WriteFile(path, []byte(f.meshes[name]), 0o644); err != nil {
			return nil, err
		}
		out = append(out, Candidate{Path: path})
	}
	return out, nil
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func newTestGenerator(t *testing.T, p Pipeline) (*Generator, string) {
	t.Helper()
	dir := t.TempDir()
	g := &Generator{
		Pipeline:    p,
		Backend:     "fake",
		OutputDir:   filepath.Join(dir, "output"),
		ScratchRoot: dir,
	}
	return g, dir
}
