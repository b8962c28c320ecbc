package shapegen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// ExecPipeline runs the model as a local subprocess, for example a thin
// Python wrapper around the pretrained pipeline.
type ExecPipeline struct {
	Command []string
}

func (p *ExecPipeline) Run(ctx context.Context, req Request) ([]Candidate, error) {
	if len(p.Command) == 0 {
		return nil, fmt.Errorf("command is empty")
	}
	argv := expandCommand(p.Command, req.Model.Location, req.Image, req.OutputDir)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Debug("Running pipeline command.", "component", "shapegen", "run_id", req.RunID, "cmd", strings.Join(argv, " "))
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && msg != "" {
			return nil, fmt.Errorf("%s exited with code %d: %s", argv[0], exitErr.ExitCode(), msg)
		}
		return nil, fmt.Errorf("run %s: %w", argv[0], err)
	}
	if out := strings.TrimSpace(stdout.String()); out != "" {
		slog.Debug("Pipeline output.", "component", "shapegen", "run_id", req.RunID, "stdout", out)
	}

	candidates, err := collectCandidates(req.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("collect meshes: %w", err)
	}
	return candidates, nil
}
