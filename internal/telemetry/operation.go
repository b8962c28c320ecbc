// Package telemetry describes a multi-stage run as OpenTelemetry spans.
//
// The run opens a root span carrying the JSON plan of its stages, and each
// stage executes in a child span named by its step id. Renderers subscribe
// through a span processor; stage code never talks to them directly.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	PlanEventName  = "printforge.plan"
	PlanVersion    = "1"
	PlanVersionKey = "printforge.plan.version"
	PlanJSONKey    = "printforge.plan.json"
	// ArtifactKey holds the file a step produced.
	ArtifactKey = "printforge.artifact"
)

type PlannedStep struct {
	ID       string `json:"id"`
	ParentID string `json:"parent_id,omitempty"`
	Title    string `json:"title"`
}

type Plan struct {
	Steps []PlannedStep `json:"steps"`
}

// Validate rejects empty or duplicate ids and parents missing from the plan.
func (p Plan) Validate() error {
	ids := make(map[string]bool, len(p.Steps))
	for i, step := range p.Steps {
		id := strings.TrimSpace(step.ID)
		switch {
		case id == "":
			return fmt.Errorf("step %d has empty id", i)
		case ids[id]:
			return fmt.Errorf("duplicate step id %q", id)
		}
		ids[id] = true
	}
	for i, step := range p.Steps {
		if parent := strings.TrimSpace(step.ParentID); parent != "" && !ids[parent] {
			return fmt.Errorf("step %d parent %q not found in plan", i, parent)
		}
	}
	return nil
}

func (p Plan) attributes() ([]attribute.KeyValue, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal plan: %w", err)
	}
	return []attribute.KeyValue{
		attribute.String(PlanVersionKey, PlanVersion),
		attribute.String(PlanJSONKey, string(data)),
	}, nil
}

// Operation is one traced run. A nil *Operation is valid and runs steps
// without spans.
type Operation struct {
	ctx    context.Context
	tracer trace.Tracer
	span   trace.Span
}

func EmitPlan(ctx context.Context, tracer trace.Tracer, name string, plan Plan) (*Operation, error) {
	if tracer == nil {
		return nil, fmt.Errorf("emit plan: tracer is required")
	}
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("emit plan: %w", err)
	}
	attrs, err := plan.attributes()
	if err != nil {
		return nil, fmt.Errorf("emit plan: %w", err)
	}
	if name = strings.TrimSpace(name); name == "" {
		name = "operation"
	}

	spanCtx, span := tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	span.AddEvent(PlanEventName, trace.WithAttributes(attrs...))
	return &Operation{ctx: spanCtx, tracer: tracer, span: span}, nil
}

func (o *Operation) Context() context.Context {
	if o == nil || o.ctx == nil {
		return context.Background()
	}
	return o.ctx
}

// RunStep runs fn inside the child span for step id.
func (o *Operation) RunStep(ctx context.Context, id string, fn func(context.Context) error) error {
	_, err := o.Produce(ctx, id, func(ctx context.Context) (string, error) {
		return "", fn(ctx)
	})
	return err
}

// Produce runs fn inside the child span for step id and records the path it
// returns as the step's artifact.
func (o *Operation) Produce(ctx context.Context, id string, fn func(context.Context) (string, error)) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("run step: step id is required")
	}
	if ctx == nil {
		ctx = o.Context()
	}
	if o == nil || o.tracer == nil {
		return fn(ctx)
	}

	stepCtx, span := o.tracer.Start(ctx, id)
	defer span.End()

	path, err := fn(stepCtx)
	if err != nil {
		markFailed(span, err)
		return "", err
	}
	RecordArtifact(stepCtx, path)
	return path, nil
}

// RecordArtifact attaches path to the span in ctx. Empty paths are ignored.
func RecordArtifact(ctx context.Context, path string) {
	if ctx == nil || strings.TrimSpace(path) == "" {
		return
	}
	trace.SpanFromContext(ctx).SetAttributes(attribute.String(ArtifactKey, path))
}

// End closes the root span, marking it failed when err is non-nil.
func (o *Operation) End(err error) {
	if o == nil || o.span == nil {
		return
	}
	if err != nil {
		markFailed(o.span, err)
	}
	o.span.End()
}

func markFailed(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, strings.TrimSpace(err.Error()))
}
