package slicer

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Strategy is how one platform finds the slicer: fixed install paths probed
// in order, then executable names queried on the process search path.
type Strategy struct {
	Candidates []string
	SearchPath []string
}

// DefaultTable maps runtime.GOOS to its lookup strategy. New installers only
// need an entry here.
var DefaultTable = map[string]Strategy{
	"darwin": {
		Candidates: []string{
			"/Applications/SuperSlicer.app/Contents/MacOS/superslicer",
			"/Applications/SuperSlicer.app/Contents/MacOS/SuperSlicer",
		},
	},
	"windows": {
		Candidates: []string{
			"C:/Program Files/SuperSlicer/superslicer_console.exe",
			"C:/Program Files (x86)/SuperSlicer/superslicer_console.exe",
		},
	},
	"linux": {
		SearchPath: []string{"superslicer"},
	},
}

// Probe sources, in resolution order.
const (
	SourceOverride  = "override"
	SourceCandidate = "candidate"
	SourcePath      = "path"
)

// Probe is one lookup attempt.
type Probe struct {
	Source string
	Query  string
	Path   string
	Found  bool
}

// Locator resolves the slicer executable.
type Locator struct {
	GOOS     string
	Table    map[string]Strategy
	Override string
	Extra    []string
	LookPath func(string) (string, error)
}

// NewLocator returns a Locator for the running platform.
func NewLocator(override string, extra []string) *Locator {
	return &Locator{
		GOOS:     runtime.GOOS,
		Table:    DefaultTable,
		Override: strings.TrimSpace(override),
		Extra:    extra,
		LookPath: exec.LookPath,
	}
}

// Probe checks every configured location and reports what exists right now.
func (l *Locator) Probe() []Probe {
	var probes []Probe
	if l.Override != "" {
		probes = append(probes, probeFile(SourceOverride, l.Override))
	}
	for _, p := range l.Extra {
		if p = strings.TrimSpace(p); p != "" {
			probes = append(probes, probeFile(SourceCandidate, p))
		}
	}

	strategy := l.Table[l.GOOS]
	for _, p := range strategy.Candidates {
		probes = append(probes, probeFile(SourceCandidate, p))
	}
	for _, name := range strategy.SearchPath {
		probes = append(probes, l.probeSearchPath(name))
	}
	return probes
}

// Locate returns the first probed path that exists, or ErrNotFound. A
// configured override must exist; a missing one is not replaced by an
// installed slicer found elsewhere.
func (l *Locator) Locate() (string, error) {
	if l.Override != "" {
		if p := probeFile(SourceOverride, l.Override); !p.Found {
			return "", fmt.Errorf("%w: configured slicer path %q does not exist", ErrNotFound, l.Override)
		}
		return l.Override, nil
	}
	probes := l.Probe()
	for _, p := range probes {
		if p.Found {
			return p.Path, nil
		}
	}
	if len(probes) == 0 {
		return "", fmt.Errorf("%w: no lookup strategy for platform %q", ErrNotFound, l.GOOS)
	}
	return "", fmt.Errorf("%w: tried %d locations", ErrNotFound, len(probes))
}

func (l *Locator) probeSearchPath(name string) Probe {
	probe := Probe{Source: SourcePath, Query: name}
	lookPath := l.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	resolved, err := lookPath(name)
	if err != nil {
		return probe
	}
	probe.Path = resolved
	probe.Found = isFile(resolved)
	return probe
}

func probeFile(source, path string) Probe {
	return Probe{Source: source, Query: path, Path: path, Found: isFile(path)}
}

func isFile(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}
