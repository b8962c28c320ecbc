package ui

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"printforge/internal/telemetry"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

type stepStatus string

const (
	stepPending stepStatus = "pending"
	stepRunning stepStatus = "running"
	stepDone    stepStatus = "done"
	stepFailed  stepStatus = "failed"
)

// stepState is one row of progress output, built from a span. Message is
// the artifact path on success and the failure description otherwise.
type stepState struct {
	ID       string
	ParentID string
	Title    string
	Status   stepStatus
	Message  string
}

type stepSnapshot struct {
	Steps []stepState
}

// TelemetryOutput turns pipeline spans into progress output on stderr.
type TelemetryOutput struct {
	provider *sdktrace.TracerProvider
	closeFn  func()
}

func NewTelemetryOutput() *TelemetryOutput {
	return newTelemetryOutput(os.Stderr, IsInteractive())
}

func newTelemetryOutput(out io.Writer, interactive bool) *TelemetryOutput {
	var (
		report  func(stepSnapshot)
		closeFn = func() {}
	)
	if interactive {
		checklist := NewChecklist(out)
		report, closeFn = checklist.OnSnapshot, checklist.Close
	} else {
		report = newLineTelemetry(out).OnSnapshot
	}

	processor := &stepSpanProcessor{observer: newStepObserver(report)}
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(processor))
	return &TelemetryOutput{provider: provider, closeFn: closeFn}
}

func (o *TelemetryOutput) Tracer(name string) trace.Tracer {
	if o == nil || o.provider == nil {
		return otel.Tracer(name)
	}
	return o.provider.Tracer(name)
}

func (o *TelemetryOutput) Close() {
	if o == nil {
		return
	}
	if o.provider != nil {
		_ = o.provider.Shutdown(context.Background())
	}
	if o.closeFn != nil {
		o.closeFn()
	}
}

// lineTelemetry prints one line per step transition, for logs and CI.
type lineTelemetry struct {
	out io.Writer

	mu   sync.Mutex
	seen map[string]stepState
}

func newLineTelemetry(out io.Writer) *lineTelemetry {
	return &lineTelemetry{out: out, seen: make(map[string]stepState)}
}

func (l *lineTelemetry) OnSnapshot(snapshot stepSnapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, step := range snapshot.Steps {
		if step.Status == stepPending {
			continue
		}
		if prev, ok := l.seen[step.ID]; ok && prev.Status == step.Status && prev.Message == step.Message {
			continue
		}
		l.seen[step.ID] = step
		fmt.Fprintln(l.out, formatStepLine(step))
	}
}

func formatStepLine(step stepState) string {
	prefix := "[..]"
	switch step.Status {
	case stepRunning:
		prefix = "[->]"
	case stepDone:
		prefix = "[ok]"
	case stepFailed:
		prefix = "[x]"
	}

	indent := "  "
	if step.ParentID != "" {
		indent = "    "
	}
	title := step.Title
	if title == "" {
		title = step.ID
	}
	if step.Message != "" {
		return fmt.Sprintf("%s%s %s (%s)", indent, prefix, title, step.Message)
	}
	return fmt.Sprintf("%s%s %s", indent, prefix, title)
}

// stepObserver folds plan and span events into ordered snapshots.
type stepObserver struct {
	mu     sync.Mutex
	steps  map[string]stepState
	order  []string
	report func(stepSnapshot)
}

func newStepObserver(report func(stepSnapshot)) *stepObserver {
	return &stepObserver{steps: make(map[string]stepState), report: report}
}

func (o *stepObserver) onPlan(plan telemetry.Plan) {
	o.mu.Lock()
	defer o.mu.Unlock()

	for _, planned := range plan.Steps {
		id := strings.TrimSpace(planned.ID)
		if id == "" {
			continue
		}
		step := o.stepLocked(id)
		step.ParentID = strings.TrimSpace(planned.ParentID)
		if title := strings.TrimSpace(planned.Title); title != "" {
			step.Title = title
		}
		o.steps[id] = step
	}
	o.emitLocked()
}

func (o *stepObserver) onStepStart(id string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	step := o.stepLocked(id)
	step.Status = stepRunning
	step.Message = ""
	o.steps[step.ID] = step
	o.emitLocked()
}

func (o *stepObserver) onStepEnd(id string, failed bool, message string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	step := o.stepLocked(id)
	step.Status = stepDone
	if failed {
		step.Status = stepFailed
	}
	step.Message = strings.TrimSpace(message)
	o.steps[step.ID] = step
	o.emitLocked()
}

// stepLocked returns the step for id, registering unplanned steps in
// arrival order.
func (o *stepObserver) stepLocked(id string) stepState {
	id = strings.TrimSpace(id)
	if id == "" {
		id = "unnamed"
	}
	if step, ok := o.steps[id]; ok {
		return step
	}
	o.order = append(o.order, id)
	step := stepState{ID: id, Title: id, Status: stepPending}
	o.steps[id] = step
	return step
}

func (o *stepObserver) emitLocked() {
	if o.report == nil {
		return
	}
	steps := make([]stepState, 0, len(o.order))
	for _, id := range o.order {
		steps = append(steps, o.steps[id])
	}
	o.report(stepSnapshot{Steps: steps})
}

type stepSpanProcessor struct {
	observer *stepObserver
}

func (p *stepSpanProcessor) OnStart(_ context.Context, span sdktrace.ReadWriteSpan) {
	if span.Parent().IsValid() {
		p.observer.onStepStart(span.Name())
		return
	}

	planJSON := attributeValue(span.Attributes(), telemetry.PlanJSONKey)
	if planJSON == "" {
		return
	}
	var plan telemetry.Plan
	if err := json.Unmarshal([]byte(planJSON), &plan); err != nil {
		return
	}
	p.observer.onPlan(plan)
}

func (p *stepSpanProcessor) OnEnd(span sdktrace.ReadOnlySpan) {
	if !span.Parent().IsValid() {
		return
	}
	status := span.Status()
	if status.Code == codes.Error {
		p.observer.onStepEnd(span.Name(), true, status.Description)
		return
	}
	p.observer.onStepEnd(span.Name(), false, attributeValue(span.Attributes(), telemetry.ArtifactKey))
}

func (p *stepSpanProcessor) Shutdown(context.Context) error   { return nil }
func (p *stepSpanProcessor) ForceFlush(context.Context) error { return nil }

func attributeValue(attrs []attribute.KeyValue, key string) string {
	for _, attr := range attrs {
		if string(attr.Key) == key {
			return strings.TrimSpace(attr.Value.AsString())
		}
	}
	return ""
}
