// Package config holds the pipeline configuration shared by every stage.
//
// Config is stored at $PRINTFORGE_CONFIG when set, otherwise at
// <user config dir>/printforge/config.yaml. A missing file yields Default().
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const envConfig = "PRINTFORGE_CONFIG"

// Backend kinds understood by the shape generation stage.
const (
	BackendExec   = "exec"
	BackendDocker = "docker"
	BackendHTTP   = "http"
)

const (
	DefaultRegistry       = "tencent/Hunyuan3D-2"
	DefaultSlicerConfig   = "default_config.ini"
	DefaultBackendTimeout = 10 * time.Minute
)

// Placeholders expanded in Backend.Command.
const (
	PlaceholderModel  = "{model}"
	PlaceholderImage  = "{image}"
	PlaceholderOutput = "{output}"
)

// Directories are resolved relative to the working directory.
type Directories struct {
	Meshes        string `yaml:"meshes"`
	SlicerConfigs string `yaml:"slicer_configs"`
	GCode         string `yaml:"gcode"`
}

// Model selects the pretrained pipeline. CacheDir wins when it exists on disk.
type Model struct {
	CacheDir string `yaml:"cache_dir,omitempty"`
	Registry string `yaml:"registry"`
}

type Backend struct {
	Kind     string        `yaml:"kind"`
	Command  []string      `yaml:"command,omitempty"`
	Image    string        `yaml:"image,omitempty"`
	Endpoint string        `yaml:"endpoint,omitempty"`
	Timeout  time.Duration `yaml:"timeout,omitempty"`
}

type Slicer struct {
	Path          string   `yaml:"path,omitempty"`
	Candidates    []string `yaml:"candidates,omitempty"`
	DefaultConfig string   `yaml:"default_config"`
}

// Config is the explicit replacement for process-wide fallback literals.
type Config struct {
	Directories  Directories `yaml:"directories"`
	DefaultImage string      `yaml:"default_image,omitempty"`
	Model        Model       `yaml:"model"`
	Backend      Backend     `yaml:"backend"`
	Slicer       Slicer      `yaml:"slicer"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Directories: Directories{
			Meshes:        "output",
			SlicerConfigs: "configs",
			GCode:         "gcode",
		},
		Model: Model{Registry: DefaultRegistry},
		Backend: Backend{
			Kind: BackendExec,
			Command: []string{
				"hy3dgen",
				"--model", PlaceholderModel,
				"--image", PlaceholderImage,
				"--output-dir", PlaceholderOutput,
			},
			Timeout: DefaultBackendTimeout,
		},
		Slicer: Slicer{DefaultConfig: DefaultSlicerConfig},
	}
}

// DefaultPath returns the config file location.
func DefaultPath() string {
	if fromEnv := strings.TrimSpace(os.Getenv(envConfig)); fromEnv != "" {
		return fromEnv
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		home, homeErr := os.UserHomeDir()
		if homeErr != nil {
			return filepath.Join(".config", "printforge", "config.yaml")
		}
		return filepath.Join(home, ".config", "printforge", "config.yaml")
	}
	return filepath.Join(dir, "printforge", "config.yaml")
}

// Load reads the config file at path, layered over Default(). An empty path
// means DefaultPath(). If the file does not exist the defaults are returned.
func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath()
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}
	if len(data) == 0 {
		return cfg, nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %q: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to path, creating directories as needed.
func (c *Config) Save(path string) error {
	if c == nil {
		return fmt.Errorf("config is nil")
	}
	if strings.TrimSpace(path) == "" {
		path = DefaultPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory %q: %w", dir, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp config file %q: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace config file %q: %w", path, err)
	}
	return nil
}

// Validate reports the first structural problem in c.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config is nil")
	}
	dirs := []struct{ key, value string }{
		{"directories.meshes", c.Directories.Meshes},
		{"directories.slicer_configs", c.Directories.SlicerConfigs},
		{"directories.gcode", c.Directories.GCode},
	}
	for _, d := range dirs {
		if strings.TrimSpace(d.value) == "" {
			return fmt.Errorf("%s must not be empty", d.key)
		}
	}
	if strings.TrimSpace(c.Slicer.DefaultConfig) == "" {
		return fmt.Errorf("slicer.default_config must not be empty")
	}

	switch c.Backend.Kind {
	case BackendExec:
		if len(c.Backend.Command) == 0 {
			return fmt.Errorf("backend.command is required for the %s backend", BackendExec)
		}
	case BackendDocker:
		if strings.TrimSpace(c.Backend.Image) == "" {
			return fmt.Errorf("backend.image is required for the %s backend", BackendDocker)
		}
		if len(c.Backend.Command) == 0 {
			return fmt.Errorf("backend.command is required for the %s backend", BackendDocker)
		}
	case BackendHTTP:
		if strings.TrimSpace(c.Backend.Endpoint) == "" {
			return fmt.Errorf("backend.endpoint is required for the %s backend", BackendHTTP)
		}
	default:
		return fmt.Errorf("unknown backend kind %q", c.Backend.Kind)
	}
	if c.Backend.Timeout < 0 {
		return fmt.Errorf("backend.timeout must not be negative")
	}
	return nil
}

// DefaultSlicerConfigPath is the config used when slicing without an explicit one.
func (c *Config) DefaultSlicerConfigPath() string {
	return filepath.Join(c.Directories.SlicerConfigs, c.Slicer.DefaultConfig)
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(p string) string {
	p = strings.TrimSpace(p)
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
