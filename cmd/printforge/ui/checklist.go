package ui

import (
	"fmt"
	"io"
	"sync"
	"time"
)

var spinFrames = [...]string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Checklist redraws the run's stages in place on a terminal. The running
// stage spins; finished stages show their artifact next to the title.
type Checklist struct {
	out io.Writer

	mu            sync.Mutex
	steps         []stepState
	renderedLines int
	frame         int
	started       bool
	closed        bool
	stop          chan struct{}
	done          chan struct{}
	once          sync.Once
}

func NewChecklist(out io.Writer) *Checklist {
	return &Checklist{out: out, stop: make(chan struct{}), done: make(chan struct{})}
}

func (c *Checklist) OnSnapshot(snap stepSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	first := c.steps == nil
	c.steps = snap.Steps
	if first {
		for _, s := range c.steps {
			fmt.Fprintln(c.out, c.line(s))
		}
		c.renderedLines = len(c.steps)
		c.started = true
		go c.spin()
		return
	}
	c.redraw()
}

// Close stops the spinner and returns once it has written its last frame.
// Later snapshots are dropped. Safe to call more than once.
func (c *Checklist) Close() {
	c.once.Do(func() {
		c.mu.Lock()
		c.closed = true
		started := c.started
		c.mu.Unlock()

		close(c.stop)
		if started {
			<-c.done
		}
	})
}

func (c *Checklist) spin() {
	defer close(c.done)
	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			c.frame = (c.frame + 1) % len(spinFrames)
			c.redraw()
			c.mu.Unlock()
		}
	}
}

// redraw moves the cursor back over the rendered lines and reprints them.
// Caller must hold c.mu.
func (c *Checklist) redraw() {
	if c.renderedLines > 0 {
		fmt.Fprintf(c.out, "\033[%dA", c.renderedLines)
	}
	for _, s := range c.steps {
		fmt.Fprintf(c.out, "\r%s\033[K\n", c.line(s))
	}
	for i := len(c.steps); i < c.renderedLines; i++ {
		fmt.Fprint(c.out, "\r\033[K\n")
	}
	c.renderedLines = len(c.steps)
}

func (c *Checklist) line(s stepState) string {
	indent := "  "
	if s.ParentID != "" {
		indent = "    "
	}

	var icon, title string
	switch s.Status {
	case stepRunning:
		icon, title = Accent(spinFrames[c.frame]), s.Title
	case stepDone:
		icon, title = Success("✓"), s.Title
	case stepFailed:
		icon, title = ErrorStyle.Render("✗"), ErrorStyle.Render(s.Title)
	default:
		icon, title = Muted("●"), Muted(s.Title)
	}

	line := indent + icon + " " + title
	if s.Message != "" {
		line += " " + Muted(s.Message)
	}
	return line
}
