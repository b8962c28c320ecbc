package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Fatalf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadLayersFileOverDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
directories:
  gcode: printer-out
default_image: ~/photos/cat.jpg
model:
  cache_dir: /models/hunyuan
backend:
  kind: http
  endpoint: http://127.0.0.1:8081/generate
  timeout: 90s
slicer:
  path: /opt/superslicer/superslicer
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := Default()
	want.Directories.GCode = "printer-out"
	want.DefaultImage = "~/photos/cat.jpg"
	want.Model.CacheDir = "/models/hunyuan"
	want.Backend.Kind = BackendHTTP
	want.Backend.Endpoint = "http://127.0.0.1:8081/generate"
	want.Backend.Timeout = 90 * time.Second
	want.Slicer.Path = "/opt/superslicer/superslicer"
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("backend:\n  kind: carrier-pigeon\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() error = nil, want unknown backend error")
	}
	if !strings.Contains(err.Error(), `unknown backend kind "carrier-pigeon"`) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Backend.Kind = BackendDocker
	cfg.Backend.Image = "ghcr.io/example/hy3dgen:latest"
	cfg.Slicer.Candidates = []string{"/opt/SuperSlicer/superslicer"}

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(cfg, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{
			name:    "empty gcode dir",
			mutate:  func(c *Config) { c.Directories.GCode = " " },
			wantErr: "directories.gcode must not be empty",
		},
		{
			name:    "docker without image",
			mutate:  func(c *Config) { c.Backend.Kind = BackendDocker },
			wantErr: "backend.image is required",
		},
		{
			name:    "exec without command",
			mutate:  func(c *Config) { c.Backend.Command = nil },
			wantErr: "backend.command is required",
		},
		{
			name:    "empty default slicer config",
			mutate:  func(c *Config) { c.Slicer.DefaultConfig = "" },
			wantErr: "slicer.default_config must not be empty",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("Validate() error = %v, want %q", err, tc.wantErr)
			}
		})
	}
}

func TestDefaultPathPrefersEnv(t *testing.T) {
	t.Setenv(envConfig, "/tmp/printforge-test.yaml")
	if got := DefaultPath(); got != "/tmp/printforge-test.yaml" {
		t.Fatalf("DefaultPath() = %q, want env override", got)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}
	if got, want := ExpandHome("~/img/a.jpg"), filepath.Join(home, "img", "a.jpg"); got != want {
		t.Fatalf("ExpandHome() = %q, want %q", got, want)
	}
	if got := ExpandHome("img/a.jpg"); got != "img/a.jpg" {
		t.Fatalf("ExpandHome() = %q, want unchanged", got)
	}
}
