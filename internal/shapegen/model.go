package shapegen

import (
	"os"
	"strings"

	"printforge/config"
)

// ResolveModel prefers the local cache directory when it exists and falls
// back to the registry name.
func ResolveModel(m config.Model) ModelRef {
	if dir := config.ExpandHome(m.CacheDir); dir != "" {
		if st, err := os.Stat(dir); err == nil && st.IsDir() {
			return ModelRef{Location: dir, Local: true}
		}
	}
	registry := strings.TrimSpace(m.Registry)
	if registry == "" {
		registry = config.DefaultRegistry
	}
	return ModelRef{Location: registry}
}
