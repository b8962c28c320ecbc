package cmdutil

import (
	"errors"
	"fmt"
	"io"

	"printforge/cmd/printforge/ui"
	"printforge/internal/pipeline"
	"printforge/internal/shapegen"
	"printforge/internal/slicer"
)

// PrintError writes the failure and, when the cause is recognised, a fix hint.
func PrintError(out io.Writer, err error) {
	if err == nil {
		return
	}
	var se *pipeline.StageError
	if errors.As(err, &se) {
		fmt.Fprintln(out, ui.ErrorMsg("%s failed: %v", se.Stage, se.Err))
	} else {
		fmt.Fprintln(out, ui.ErrorMsg("%v", err))
	}
	if hint := Hint(err); hint != "" {
		fmt.Fprintln(out, ui.Muted("  fix: "+hint))
	}
}

// Hint suggests a fix for the error classes users can act on.
func Hint(err error) string {
	var toolErr *slicer.ToolError
	switch {
	case errors.Is(err, shapegen.ErrMissingImage):
		return "pass an image path or set default_image in the config file"
	case errors.Is(err, slicer.ErrMissingConfig):
		return "place a slicer profile in the slicer_configs directory or pass --slicer-config"
	case errors.Is(err, slicer.ErrNotFound):
		return "install SuperSlicer or set slicer.path in the config file; run 'printforge locate' to see what was probed"
	case errors.As(err, &toolErr):
		return "check the slicer profile and the mesh; rerun with --debug for the full slicer output"
	case errors.Is(err, shapegen.ErrNoCandidates):
		return "the model produced no mesh; try a clearer image with a single subject"
	default:
		return ""
	}
}
