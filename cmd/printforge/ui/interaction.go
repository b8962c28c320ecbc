package ui

import (
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

const (
	envNoInteraction = "NO_INTERACTION"
	envCI            = "CI"
	envTerm          = "TERM"
)

var interaction struct {
	mu          sync.RWMutex
	configured  bool
	interactive bool
}

// ConfigureInteraction decides once per process whether progress is drawn
// as a live checklist or as plain lines, and picks the colour profile.
func ConfigureInteraction(noInteraction bool) {
	interactive := detectInteractive(noInteraction)

	interaction.mu.Lock()
	interaction.configured = true
	interaction.interactive = interactive
	interaction.mu.Unlock()

	if interactive {
		lipgloss.SetColorProfile(termenv.ColorProfile())
		return
	}
	lipgloss.SetColorProfile(termenv.Ascii)
}

func IsInteractive() bool {
	interaction.mu.RLock()
	configured, interactive := interaction.configured, interaction.interactive
	interaction.mu.RUnlock()
	if configured {
		return interactive
	}
	ConfigureInteraction(false)
	return IsInteractive()
}

func detectInteractive(noInteraction bool) bool {
	if noInteraction || envTruthy(envNoInteraction) || envTruthy(envCI) {
		return false
	}
	if strings.EqualFold(strings.TrimSpace(os.Getenv(envTerm)), "dumb") {
		return false
	}
	info, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

func envTruthy(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
