// Package meshconv normalizes generated meshes into the slicer's native format.
package meshconv

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/unixpickle/model3d/model3d"
)

const (
	ExtOBJ = ".obj"
	ExtSTL = ".stl"
)

// IsNative reports whether path already carries the slicer-native extension.
func IsNative(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ExtSTL)
}

// SiblingPath swaps the extension of path for ext.
func SiblingPath(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

// BaseName is the artifact identity: the file name without directory or extension.
func BaseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Load reads any supported mesh file as triangles, choosing the decoder by extension.
func Load(path string) ([]*model3d.Triangle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mesh: %w", err)
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ExtOBJ:
		m, err := ReadOBJ(f)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		return m.Triangles(), nil
	case ExtSTL:
		tris, err := ReadSTL(f)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		return tris, nil
	default:
		return nil, fmt.Errorf("load %s: unsupported mesh format %q", path, ext)
	}
}

// ToSliceable returns a slicer-native version of the mesh at path. Native
// files pass through untouched; anything else is re-exported as binary STL
// next to the source, which is never modified.
func ToSliceable(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("stat mesh: %w", err)
	}
	if IsNative(path) {
		return path, nil
	}

	tris, err := Load(path)
	if err != nil {
		return "", err
	}

	out := SiblingPath(path, ExtSTL)
	if err := writeSTLFile(out, tris); err != nil {
		return "", err
	}
	slog.Debug("Converted mesh.", "component", "meshconv", "from", path, "to", out, "triangles", len(tris))
	return out, nil
}

func writeSTLFile(path string, tris []*model3d.Triangle) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %q: %w", tmp, err)
	}
	if err := WriteSTL(f, tris); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close %q: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace %q: %w", path, err)
	}
	return nil
}
