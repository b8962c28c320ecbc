package shapegen

import "context"

// ModelRef is the resolved pretrained pipeline: a local directory when
// Local is set, otherwise a registry name the backend fetches itself.
type ModelRef struct {
	Location string
	Local    bool
}

// Request is one generation call.
type Request struct {
	RunID     string
	Model     ModelRef
	Image     string
	OutputDir string
}

// Candidate is one mesh the pipeline produced, as a file in Request.OutputDir.
type Candidate struct {
	Path string
}

// Pipeline is the generative model collaborator. Implementations write
// their candidate meshes into req.OutputDir and return them in a stable order.
type Pipeline interface {
	Run(ctx context.Context, req Request) ([]Candidate, error)
}
