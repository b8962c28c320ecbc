// Package slicer prepares a mesh for printing by driving an installed
// SuperSlicer executable.
package slicer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"printforge/config"
	"printforge/internal/meshconv"
)

const ExtGCode = ".gcode"

// ExecutableLocator finds the slicer binary.
type ExecutableLocator interface {
	Locate() (string, error)
}

// Slicer is the print-preparation stage.
type Slicer struct {
	ConfigDir     string
	OutputDir     string
	DefaultConfig string
	Locator       ExecutableLocator
}

// New builds the stage from configuration.
func New(cfg *config.Config) *Slicer {
	return &Slicer{
		ConfigDir:     cfg.Directories.SlicerConfigs,
		OutputDir:     cfg.Directories.GCode,
		DefaultConfig: cfg.Slicer.DefaultConfig,
		Locator:       NewLocator(cfg.Slicer.Path, cfg.Slicer.Candidates),
	}
}

// OutputPath is where Slice writes the instructions for meshPath.
func (s *Slicer) OutputPath(meshPath string) string {
	return filepath.Join(s.OutputDir, meshconv.BaseName(meshPath)+ExtGCode)
}

// Slice converts meshPath if needed and runs the slicer on it, returning the
// G-code path. An empty configPath selects the default config in ConfigDir,
// which must already exist.
func (s *Slicer) Slice(ctx context.Context, meshPath, configPath string) (string, error) {
	log := slog.With("component", "slicer")

	for _, dir := range []string{s.ConfigDir, s.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create directory %q: %w", dir, err)
		}
	}

	if !isFile(meshPath) {
		log.Warn("Mesh file not found.", "mesh", meshPath)
		return "", fmt.Errorf("%w: mesh %q does not exist", ErrMissingInput, meshPath)
	}

	sliceable, err := meshconv.ToSliceable(meshPath)
	if err != nil {
		return "", fmt.Errorf("convert mesh: %w", err)
	}

	configPath, err = s.resolveConfig(configPath)
	if err != nil {
		log.Warn("Slicer config not found; create one before slicing.", "err", err)
		return "", err
	}

	exe, err := s.Locator.Locate()
	if err != nil {
		log.Warn("SuperSlicer executable not found; install it or set slicer.path.", "err", err)
		return "", err
	}

	gcodePath := s.OutputPath(sliceable)
	args := []string{
		"--load", configPath,
		"--output", gcodePath,
		"--export-gcode",
		sliceable,
	}
	log.Info("Running slicer.", "cmd", exe+" "+strings.Join(args, " "))

	if err := run(ctx, exe, args); err != nil {
		if rmErr := os.Remove(gcodePath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			log.Debug("Remove partial gcode failed.", "path", gcodePath, "err", rmErr)
		}
		log.Error("Slicer failed.", "err", err)
		return "", err
	}

	log.Info("Slicer finished.", "gcode", gcodePath)
	return gcodePath, nil
}

func (s *Slicer) resolveConfig(configPath string) (string, error) {
	configPath = strings.TrimSpace(configPath)
	if configPath != "" {
		if !isFile(configPath) {
			return "", fmt.Errorf("%w: slicer config %q does not exist", ErrMissingInput, configPath)
		}
		return configPath, nil
	}
	def := filepath.Join(s.ConfigDir, s.DefaultConfig)
	if !isFile(def) {
		return "", fmt.Errorf("%w: default config %q does not exist", ErrMissingConfig, def)
	}
	return def, nil
}

func run(ctx context.Context, exe string, args []string) error {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, exe, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if out := strings.TrimSpace(stdout.String()); out != "" {
		slog.Debug("Slicer output.", "component", "slicer", "stdout", out)
	}
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ToolError{
			Path:     exe,
			ExitCode: exitErr.ExitCode(),
			Stderr:   stderr.String(),
			Err:      err,
		}
	}
	return fmt.Errorf("run slicer %s: %w", exe, err)
}
