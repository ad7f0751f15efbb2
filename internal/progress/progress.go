package progress

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	bubbleprogress "github.com/charmbracelet/bubbles/progress"
)

type Bar struct {
	total       int64
	current     int64
	writer      io.Writer
	mu          sync.Mutex
	currentDirs map[string]bool
	dirMu       sync.Mutex
	enabled     bool
	lastUpdate  time.Time
	view        bubbleprogress.Model
}

// New creates a bar writing to stderr, leaving stdout for the command's
// actual output.
func New(total int64) *Bar {
	return NewWithWriter(total, os.Stderr)
}

func NewWithWriter(total int64, w io.Writer) *Bar {
	return &Bar{
		total:       total,
		writer:      w,
		currentDirs: make(map[string]bool),
		enabled:     w != nil,
		lastUpdate:  time.Now(),
		view: bubbleprogress.New(
			bubbleprogress.WithDefaultGradient(),
			bubbleprogress.WithWidth(40),
			bubbleprogress.WithoutPercentage(),
		),
	}
}

func (b *Bar) SetDirectory(dir string) {
	if !b.enabled {
		return
	}

	b.dirMu.Lock()
	b.currentDirs[dir] = true
	b.dirMu.Unlock()
}

func (b *Bar) Increment() {
	if !b.enabled {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.current++

	// Update at most every 100ms to reduce flickering
	now := time.Now()
	if now.Sub(b.lastUpdate) > 100*time.Millisecond || b.current == b.total {
		b.lastUpdate = now
		b.render()
	}
}

// Current returns how many increments were recorded.
func (b *Bar) Current() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// render must be called with mu already locked
func (b *Bar) render() {
	if b.total == 0 {
		return
	}

	ratio := float64(b.current) / float64(b.total)
	if ratio > 1 {
		ratio = 1
	}

	b.dirMu.Lock()
	dirs := make([]string, 0, len(b.currentDirs))
	for dir := range b.currentDirs {
		dirs = append(dirs, filepath.Base(dir))
	}
	b.dirMu.Unlock()

	var dirDisplay string
	if len(dirs) > 0 {
		if len(dirs) > 3 {
			dirDisplay = fmt.Sprintf(" | %s, %s, %s +%d more", dirs[0], dirs[1], dirs[2], len(dirs)-3)
		} else {
			dirDisplay = " | " + strings.Join(dirs, ", ")
		}
	}

	// Clear the line and write progress
	fmt.Fprintf(b.writer, "\r\033[K%s %3d%% (%d/%d)%s",
		b.view.ViewAs(ratio), int(ratio*100), b.current, b.total, dirDisplay)
}

func (b *Bar) Finish() {
	if !b.enabled {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.current = b.total
	b.render()
	fmt.Fprintf(b.writer, "\n")
}
