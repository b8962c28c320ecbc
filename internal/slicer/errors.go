package slicer

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound means no slicer executable resolved on this machine.
	ErrNotFound = errors.New("slicer executable not found")
	// ErrMissingInput means the mesh or an explicitly supplied config is absent.
	ErrMissingInput = errors.New("missing input")
	// ErrMissingConfig means no config was supplied and the default is absent.
	ErrMissingConfig = errors.New("slicer config not found")
)

// ToolError is a slicer run that exited non-zero.
type ToolError struct {
	Path     string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ToolError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("%s exited with code %d", e.Path, e.ExitCode)
	}
	return fmt.Sprintf("%s exited with code %d: %s", e.Path, e.ExitCode, msg)
}

func (e *ToolError) Unwrap() error { return e.Err }
