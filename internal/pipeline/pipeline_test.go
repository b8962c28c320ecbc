package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"printforge/config"
	"printforge/internal/shapegen"
	"printforge/internal/slicer"
	"printforge/internal/telemetry"

	"github.com/google/go-cmp/cmp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

const pyramidOBJ = `v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
v 0.5 0.5 1
f 1 4 3 2
f 1 2 5
f 2 3 5
f 3 4 5
f 4 1 5
`

type meshPipeline struct{}

func (meshPipeline) Run(_ context.Context, req shapegen.Request) ([]shapegen.Candidate, error) {
	path := filepath.Join(req.OutputDir, "mesh.obj")
	if err := os.WriteFile(path, []byte(pyramidOBJ), 0o644); err != nil {
		return nil, err
	}
	return []shapegen.Candidate{{Path: path}}, nil
}

type fixedLocator string

func (l fixedLocator) Locate() (string, error) { return string(l), nil }

func writeMockSlicer(t *testing.T, dir string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("mock slicer is a shell script")
	}
	script := `#!/bin/sh
while [ $# -gt 0 ]; do
  case "$1" in
    --output) echo "; sliced" > "$2"; shift 2 ;;
    *) shift ;;
  esac
done
`
	path := filepath.Join(dir, "superslicer")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write mock slicer: %v", err)
	}
	return path
}

func newTestRunner(t *testing.T, root string) *Runner {
	t.Helper()
	cfg := config.Default()
	cfg.Directories = config.Directories{
		Meshes:        filepath.Join(root, "output"),
		SlicerConfigs: filepath.Join(root, "configs"),
		GCode:         filepath.Join(root, "gcode"),
	}
	gen := shapegen.New(cfg, meshPipeline{})
	gen.ScratchRoot = root
	sl := slicer.New(cfg)
	sl.Locator = fixedLocator(writeMockSlicer(t, root))
	return &Runner{Generator: gen, Slicer: sl}
}

func writeInputs(t *testing.T, root string) string {
	t.Helper()
	image := filepath.Join(root, "sample.jpg")
	if err := os.WriteFile(image, []byte("jpeg"), 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(root, "configs"), 0o755); err != nil {
		t.Fatalf("mkdir configs: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "configs", config.DefaultSlicerConfig), []byte("layer_height = 0.2\n"), 0o644); err != nil {
		t.Fatalf("write slicer config: %v", err)
	}
	return image
}

func TestRunEndToEnd(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	image := writeInputs(t, root)
	r := newTestRunner(t, root)

	recorder := tracetest.NewSpanRecorder()
	r.Tracer = sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)).Tracer("test")

	got, err := r.Run(context.Background(), Request{Image: image})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := Result{
		Mesh:      filepath.Join(root, "output", "sample.obj"),
		Sliceable: filepath.Join(root, "output", "sample.stl"),
		GCode:     filepath.Join(root, "gcode", "sample.gcode"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Run() mismatch (-want +got):\n%s", diff)
	}
	for _, p := range []string{want.Mesh, want.Sliceable, want.GCode} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("artifact %s: %v", p, err)
		}
	}

	artifacts := map[string]string{}
	for _, s := range recorder.Ended() {
		for _, kv := range s.Attributes() {
			if kv.Key == attribute.Key(telemetry.ArtifactKey) {
				artifacts[s.Name()] = kv.Value.AsString()
			}
		}
	}
	wantArtifacts := map[string]string{
		StageGenerate: want.Mesh,
		StageConvert:  want.Sliceable,
		StageSlice:    want.GCode,
	}
	if diff := cmp.Diff(wantArtifacts, artifacts); diff != "" {
		t.Fatalf("artifact attributes mismatch (-want +got):\n%s", diff)
	}
}

func TestRunStopsAtFailedStage(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	image := writeInputs(t, root)
	if err := os.Remove(filepath.Join(root, "configs", config.DefaultSlicerConfig)); err != nil {
		t.Fatalf("remove config: %v", err)
	}
	r := newTestRunner(t, root)

	recorder := tracetest.NewSpanRecorder()
	r.Tracer = sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)).Tracer("test")

	got, err := r.Run(context.Background(), Request{Image: image})
	var se *StageError
	if !errors.As(err, &se) {
		t.Fatalf("Run() error = %v, want *StageError", err)
	}
	if se.Stage != StageSlice {
		t.Fatalf("StageError.Stage = %q, want %q", se.Stage, StageSlice)
	}
	if !errors.Is(err, slicer.ErrMissingConfig) {
		t.Fatalf("Run() error = %v, want ErrMissingConfig", err)
	}
	if got.Mesh == "" || got.Sliceable == "" || got.GCode != "" {
		t.Fatalf("partial result = %+v, want mesh and sliceable only", got)
	}

	for _, s := range recorder.Ended() {
		if s.Name() == StageSlice && s.Status().Code != codes.Error {
			t.Fatalf("slice span status = %v, want error", s.Status().Code)
		}
	}
}

func TestRunFirstStageFailureSkipsRest(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	r := newTestRunner(t, root)
	called := false
	r.Convert = func(string) (string, error) {
		called = true
		return "", nil
	}

	_, err := r.Run(context.Background(), Request{Image: filepath.Join(root, "missing.jpg")})
	var se *StageError
	if !errors.As(err, &se) || se.Stage != StageGenerate {
		t.Fatalf("Run() error = %v, want generate StageError", err)
	}
	if !errors.Is(err, shapegen.ErrMissingImage) {
		t.Fatalf("Run() error = %v, want ErrMissingImage", err)
	}
	if called {
		t.Fatal("convert ran after generate failed")
	}
}
