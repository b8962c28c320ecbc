package shapegen

import (
	"fmt"

	"printforge/config"
)

// NewPipeline constructs the backend selected by cfg.Kind. Callers close the
// result when it implements io.Closer.
func NewPipeline(cfg config.Backend) (Pipeline, error) {
	switch cfg.Kind {
	case config.BackendExec:
		return &ExecPipeline{Command: cfg.Command}, nil
	case config.BackendDocker:
		return NewDockerPipeline(cfg.Image, cfg.Command)
	case config.BackendHTTP:
		return NewHTTPPipeline(cfg.Endpoint, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown backend kind %q", cfg.Kind)
	}
}
