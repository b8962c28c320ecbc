// Package shapegen turns a source image into a mesh file by calling a
// pretrained image-to-3D pipeline.
package shapegen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"printforge/config"
	"printforge/internal/meshconv"

	"github.com/google/uuid"
)

// Generator is the shape generation stage.
type Generator struct {
	Pipeline     Pipeline
	Backend      string
	Model        config.Model
	OutputDir    string
	DefaultImage string
	// ScratchRoot holds per-run pipeline output; empty means os.TempDir().
	ScratchRoot string
}

// New builds the stage from configuration around an already constructed pipeline.
func New(cfg *config.Config, p Pipeline) *Generator {
	return &Generator{
		Pipeline:     p,
		Backend:      cfg.Backend.Kind,
		Model:        cfg.Model,
		OutputDir:    cfg.Directories.Meshes,
		DefaultImage: cfg.DefaultImage,
	}
}

// OutputPath is where Generate writes the mesh for imagePath.
func (g *Generator) OutputPath(imagePath string) string {
	return filepath.Join(g.OutputDir, meshconv.BaseName(imagePath)+meshconv.ExtOBJ)
}

// Generate runs the pipeline on imagePath (or the configured default image)
// and writes the first candidate mesh to <OutputDir>/<image-base>.obj.
// Nothing is written to the output path unless the mesh parses.
func (g *Generator) Generate(ctx context.Context, imagePath string) (string, error) {
	image, err := g.resolveImage(imagePath)
	if err != nil {
		slog.Warn("Source image not found.", "component", "shapegen", "err", err)
		return "", err
	}

	if err := os.MkdirAll(g.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("create directory %q: %w", g.OutputDir, err)
	}

	scratch, err := os.MkdirTemp(g.ScratchRoot, "printforge-gen-")
	if err != nil {
		return "", fmt.Errorf("create scratch directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			slog.Warn("Remove scratch directory failed.", "component", "shapegen", "path", scratch, "err", err)
		}
	}()

	req := Request{
		RunID:     uuid.NewString(),
		Model:     ResolveModel(g.Model),
		Image:     image,
		OutputDir: scratch,
	}
	log := slog.With("component", "shapegen", "run_id", req.RunID)
	log.Info("Generating shape.", "image", image, "model", req.Model.Location, "local_model", req.Model.Local)

	candidates, err := g.Pipeline.Run(ctx, req)
	if err != nil {
		return "", &PipelineError{Backend: g.backendName(), Err: err}
	}
	if len(candidates) == 0 {
		return "", &PipelineError{Backend: g.backendName(), Err: ErrNoCandidates}
	}
	if len(candidates) > 1 {
		log.Debug("Pipeline returned several meshes; keeping the first.", "count", len(candidates))
	}

	out := g.OutputPath(image)
	if err := exportCandidate(candidates[0].Path, out); err != nil {
		return "", &PipelineError{Backend: g.backendName(), Err: err}
	}
	log.Info("Shape generated.", "mesh", out)
	return out, nil
}

func (g *Generator) resolveImage(imagePath string) (string, error) {
	image := strings.TrimSpace(imagePath)
	if image == "" {
		image = config.ExpandHome(g.DefaultImage)
	}
	if image == "" {
		return "", fmt.Errorf("%w: no image given and default_image is not configured", ErrMissingImage)
	}
	st, err := os.Stat(image)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrMissingImage, image)
		}
		return "", fmt.Errorf("stat image %q: %w", image, err)
	}
	if st.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrMissingImage, image)
	}
	return image, nil
}

func (g *Generator) backendName() string {
	if g.Backend == "" {
		return "generative"
	}
	return g.Backend
}

// exportCandidate validates src as an OBJ mesh and copies it to dst through
// a temporary sibling.
func exportCandidate(src, dst string) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open candidate mesh: %w", err)
	}
	defer f.Close()

	if _, err := meshconv.ReadOBJ(f); err != nil {
		return fmt.Errorf("candidate mesh %s: %w", filepath.Base(src), err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind candidate mesh: %w", err)
	}

	tmp := dst + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %q: %w", tmp, err)
	}
	if _, err := io.Copy(out, f); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("write %q: %w", tmp, err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close %q: %w", tmp, err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace %q: %w", dst, err)
	}
	return nil
}
