package shapegen

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingImage means no image path resolved or the file is absent.
	ErrMissingImage = errors.New("source image not found")
	// ErrNoCandidates means the pipeline finished without producing a mesh.
	ErrNoCandidates = errors.New("pipeline produced no meshes")
)

// PipelineError is a failure inside the generative model call.
type PipelineError struct {
	Backend string
	Err     error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s pipeline: %v", e.Backend, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }
