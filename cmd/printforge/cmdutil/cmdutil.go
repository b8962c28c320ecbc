package cmdutil

import (
	"io"
	"log/slog"

	"printforge/config"
	"printforge/internal/shapegen"
	"printforge/internal/slicer"
)

// Options are the root persistent flags shared by every subcommand.
type Options struct {
	ConfigPath    string
	Debug         bool
	NoInteraction bool
}

func (o *Options) LoadConfig() (*config.Config, error) {
	path := ""
	if o != nil {
		path = o.ConfigPath
	}
	return config.Load(path)
}

// NewGenerator builds the shape generation stage with the configured
// backend. The returned func releases backend resources.
func NewGenerator(cfg *config.Config) (*shapegen.Generator, func(), error) {
	p, err := shapegen.NewPipeline(cfg.Backend)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {}
	if c, ok := p.(io.Closer); ok {
		closeFn = func() {
			if err := c.Close(); err != nil {
				slog.Debug("Close pipeline backend failed.", "backend", cfg.Backend.Kind, "err", err)
			}
		}
	}
	return shapegen.New(cfg, p), closeFn, nil
}

func NewSlicer(cfg *config.Config) *slicer.Slicer {
	return slicer.New(cfg)
}
