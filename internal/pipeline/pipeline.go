// Package pipeline chains shape generation, format conversion and slicing
// into one image-to-G-code run.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"printforge/internal/meshconv"
	"printforge/internal/telemetry"

	"go.opentelemetry.io/otel/trace"
)

// Stage names, also used as telemetry step ids.
const (
	StageGenerate = "generate"
	StageConvert  = "convert"
	StageSlice    = "slice"
)

type Generator interface {
	Generate(ctx context.Context, imagePath string) (string, error)
}

type Slicer interface {
	Slice(ctx context.Context, meshPath, configPath string) (string, error)
}

type Request struct {
	// Image is the source picture; empty selects the configured default.
	Image string
	// SlicerConfig is an explicit slicer profile; empty selects the default.
	SlicerConfig string
}

// Result holds the artifacts produced so far. On failure the fields of the
// stages that completed are still set.
type Result struct {
	Mesh      string
	Sliceable string
	GCode     string
}

// StageError names the stage a run stopped at.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

type Runner struct {
	Generator Generator
	Slicer    Slicer
	// Tracer receives the run plan and one span per stage; nil runs untraced.
	Tracer trace.Tracer
	// Convert turns a mesh into a slicer-native file; nil means meshconv.ToSliceable.
	Convert func(path string) (string, error)
}

func (r *Runner) Plan() telemetry.Plan {
	return telemetry.Plan{Steps: []telemetry.PlannedStep{
		{ID: StageGenerate, Title: "Generate shape from image"},
		{ID: StageConvert, Title: "Convert mesh for slicing"},
		{ID: StageSlice, Title: "Slice to G-code"},
	}}
}

// Run executes the stages in order and halts at the first failure.
func (r *Runner) Run(ctx context.Context, req Request) (Result, error) {
	var (
		res Result
		op  *telemetry.Operation
		err error
	)
	if r.Tracer != nil {
		op, err = telemetry.EmitPlan(ctx, r.Tracer, "printforge.run", r.Plan())
		if err != nil {
			return res, err
		}
		ctx = op.Context()
	}

	err = r.run(ctx, op, req, &res)
	op.End(err)
	if err != nil {
		slog.Debug("Pipeline stopped.", "component", "pipeline", "err", err)
		return res, err
	}
	slog.Info("Pipeline finished.", "component", "pipeline", "gcode", res.GCode)
	return res, nil
}

func (r *Runner) run(ctx context.Context, op *telemetry.Operation, req Request, res *Result) error {
	convert := r.Convert
	if convert == nil {
		convert = meshconv.ToSliceable
	}

	steps := []struct {
		id string
		fn func(context.Context) (string, error)
		to *string
	}{
		{StageGenerate, func(ctx context.Context) (string, error) { return r.Generator.Generate(ctx, req.Image) }, &res.Mesh},
		{StageConvert, func(context.Context) (string, error) { return convert(res.Mesh) }, &res.Sliceable},
		{StageSlice, func(ctx context.Context) (string, error) { return r.Slicer.Slice(ctx, res.Sliceable, req.SlicerConfig) }, &res.GCode},
	}
	for _, s := range steps {
		path, err := op.Produce(ctx, s.id, s.fn)
		if err != nil {
			return &StageError{Stage: s.id, Err: err}
		}
		*s.to = path
	}
	return nil
}
