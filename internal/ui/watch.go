package ui

import (
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
)

// fileChangedMsg reports a write to a file in the watched directory.
type fileChangedMsg struct{ path string }

type watchErrMsg struct{ err error }

// fileWatcher follows the directory of the open file. Watching the
// directory rather than the file survives editors that save by rename.
type fileWatcher struct {
	fs      *fsnotify.Watcher
	dir     string
	waiting bool
}

func newFileWatcher() (*fileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	return &fileWatcher{fs: w}, nil
}

// follow switches the watch to the directory holding path.
func (w *fileWatcher) follow(path string) error {
	dir := filepath.Dir(path)
	if dir == w.dir {
		return nil
	}
	if w.dir != "" {
		_ = w.fs.Remove(w.dir)
	}
	if err := w.fs.Add(dir); err != nil {
		w.dir = ""
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w.dir = dir
	return nil
}

// wait blocks until the next relevant event.
func (w *fileWatcher) wait() tea.Cmd {
	return func() tea.Msg {
		for {
			select {
			case event, ok := <-w.fs.Events:
				if !ok {
					return nil
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				return fileChangedMsg{path: filepath.Clean(event.Name)}
			case err, ok := <-w.fs.Errors:
				if !ok {
					return nil
				}
				return watchErrMsg{err: err}
			}
		}
	}
}

func (w *fileWatcher) Close() error {
	return w.fs.Close()
}
