// Package cli manages styled console output for the ttkeep tool.
package cli

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
)

// spinner manages the animation frames shown next to the progress line.
type spinner struct {
	frames []string
	index  int
}

func newSpinner() *spinner {
	return &spinner{
		frames: []string{"⣷", "⣯", "⣟", "⡿", "⢿", "⣻", "⣽", "⣾"},
	}
}

func (s *spinner) next() string {
	frame := s.frames[s.index]
	s.index = (s.index + 1) % len(s.frames)
	return frame
}

// Console manages styled and dynamic CLI output. A run shows at most one
// live progress line; static messages clear it before printing.
type Console struct {
	mu          sync.Mutex
	isQuiet     bool
	isRendering bool
	hasLine     bool
	progressMsg string
	spinner     *spinner
	// Colors
	Bold   *color.Color
	White  *color.Color
	Lime   *color.Color
	Yellow *color.Color
	Cyan   *color.Color
	Gray   *color.Color
	Orange *color.Color
}

// New creates a new Console.
func New(quiet bool) *Console {
	return &Console{
		isQuiet: quiet,
		spinner: newSpinner(),
		Bold:    color.New(color.Bold),
		White:   color.New(color.FgWhite),
		Lime:    color.New(color.FgHiGreen),
		Yellow:  color.New(color.FgHiYellow),
		Cyan:    color.New(color.FgCyan),
		Gray:    color.New(color.FgHiBlack),
		Orange:  color.New(color.FgYellow),
	}
}

func (c *Console) printStatic(msg string) {
	if c.isQuiet {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hasLine {
		fmt.Fprint(os.Stderr, "\033[1A\033[J")
		c.hasLine = false
	}
	fmt.Fprintln(os.Stderr, msg)
}

// Info, Success, Warn, Error print static messages above the progress line.
func (c *Console) Info(format string, a ...interface{}) { c.printStatic(fmt.Sprintf(format, a...)) }
func (c *Console) Success(format string, a ...interface{}) {
	c.printStatic(c.Lime.Sprintf("✓ %s", fmt.Sprintf(format, a...)))
}
func (c *Console) Warn(format string, a ...interface{}) {
	c.printStatic(c.Yellow.Sprintf("! %s", fmt.Sprintf(format, a...)))
}
func (c *Console) Error(format string, a ...interface{}) {
	c.printStatic(c.Orange.Sprintf("✗ %s", fmt.Sprintf(format, a...)))
}

// StartProgress begins rendering the live progress line.
func (c *Console) StartProgress(message string) {
	if c.isQuiet {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.progressMsg = message
	if !c.isRendering {
		c.isRendering = true
		go c.render()
	}
}

// UpdateProgress replaces the progress line message.
func (c *Console) UpdateProgress(message string) {
	if c.isQuiet {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.progressMsg = message
}

// StopProgress stops the renderer and clears the progress line.
func (c *Console) StopProgress() {
	if c.isQuiet {
		return
	}
	c.mu.Lock()
	wasRendering := c.isRendering
	c.isRendering = false
	c.mu.Unlock()
	if wasRendering {
		// Give the renderer a tick to clear its line and exit.
		time.Sleep(150 * time.Millisecond)
	}
}

func (c *Console) render() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		if !c.isRendering {
			if c.hasLine {
				fmt.Fprint(os.Stderr, "\033[1A\033[J")
				c.hasLine = false
			}
			c.mu.Unlock()
			return
		}
		if c.hasLine {
			fmt.Fprint(os.Stderr, "\033[1A\033[J")
		}
		fmt.Fprintf(os.Stderr, "%s %s\n", c.Cyan.Sprint(c.spinner.next()), c.White.Sprint(c.progressMsg))
		c.hasLine = true
		c.mu.Unlock()
	}
}
