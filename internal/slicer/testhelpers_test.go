package slicer

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"testing"
)

type stubLocator struct {
	path string
	err  error
}

func (s stubLocator) Locate() (string, error) { return s.path, s.err }

// writeMockSlicer creates an executable shell script standing in for
// SuperSlicer. It records its arguments to argsFile and writes the G-code
// named by --output before exiting with exitCode.
func writeMockSlicer(t *testing.T, dir, argsFile, stderr string, exitCode int) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("mock slicer is a shell script")
	}
	script := `#!/bin/sh
printf '%s\n' "$@" > "` + argsFile + `"
out=""
while [ $# -gt 0 ]; do
  case "$1" in
    --output) out="$2"; shift 2 ;;
    *) shift ;;
  esac
done
if [ -n "$out" ]; then
  echo "; sliced" > "$out"
fi
echo "slicing done"
`
	if stderr != "" {
		script += "echo '" + stderr + "' >&2\n"
	}
	script += "exit " + strconv.Itoa(exitCode) + "\n"

	path := filepath.Join(dir, "superslicer")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write mock slicer: %v", err)
	}
	return path
}

func touch(t *testing.T, path string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
