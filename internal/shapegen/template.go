package shapegen

import (
	"os"
	"path/filepath"
	"strings"

	"printforge/config"
	"printforge/internal/meshconv"
)

// expandCommand substitutes the model, image and output placeholders in
// every argument of tmpl.
func expandCommand(tmpl []string, model, image, output string) []string {
	r := strings.NewReplacer(
		config.PlaceholderModel, model,
		config.PlaceholderImage, image,
		config.PlaceholderOutput, output,
	)
	out := make([]string, len(tmpl))
	for i, arg := range tmpl {
		out[i] = r.Replace(arg)
	}
	return out
}

// collectCandidates lists the OBJ meshes in dir in file name order.
func collectCandidates(dir string) ([]Candidate, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []Candidate
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), meshconv.ExtOBJ) {
			continue
		}
		out = append(out, Candidate{Path: filepath.Join(dir, e.Name())})
	}
	return out, nil
}
