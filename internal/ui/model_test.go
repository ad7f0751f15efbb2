package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"csvtree/internal/config"
	"csvtree/internal/tree"
	"csvtree/internal/viewer"
)

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m *Model, keys ...string) tea.Cmd {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = m.Update(keyPress(k))
	}
	return cmd
}

func typeText(m *Model, text string) {
	for _, r := range text {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

// runLoad executes the command returned by opening a file and feeds its
// result back into the model.
func runLoad(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	msg := cmd()
	loaded, ok := msg.(loadedMsg)
	require.True(t, ok, "expected loadedMsg, got %T", msg)
	m.Update(loaded)
}

type fixture struct {
	dir  string
	root *tree.Node
}

func newFixture(t *testing.T, files map[string]string) fixture {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "empty"), 0755))

	root, _, err := tree.BuildDir(dir, nil)
	require.NoError(t, err)
	return fixture{dir: dir, root: root}
}

func newModel(t *testing.T, f fixture) *Model {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.ExportDir = t.TempDir()
	m := New(Options{Root: f.root, Config: cfg})
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	t.Cleanup(func() { m.Close() })
	return m
}

// cursorTo moves the tree cursor onto the line with the given name.
func cursorTo(t *testing.T, m *Model, name string) {
	t.Helper()
	for i, l := range m.lines {
		if l.Kind != tree.LineEmpty && l.Node.Name == name {
			m.cursor = i
			return
		}
	}
	t.Fatalf("no line named %s", name)
}

func people(n int) string {
	var b strings.Builder
	b.WriteString("name,age\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "p%03d,%d\n", i, 20+i%50)
	}
	return b.String()
}

func TestNew_RootExpanded(t *testing.T) {
	f := newFixture(t, map[string]string{"a.csv": "x\n1\n"})
	m := newModel(t, f)

	// root, empty/, a.csv
	require.Len(t, m.lines, 3)
	assert.True(t, m.lines[0].Expanded)
	assert.Equal(t, viewer.Idle, m.viewer.Status())
	assert.Contains(t, m.View(), "No file open")
}

func TestTreeNavigationAndToggle(t *testing.T) {
	f := newFixture(t, map[string]string{"a.csv": "x\n1\n"})
	m := newModel(t, f)

	press(t, m, "down")
	assert.Equal(t, 1, m.cursor)
	assert.Equal(t, "empty", m.lines[1].Node.Name)

	// expanding an empty folder shows the placeholder
	press(t, m, " ")
	require.Len(t, m.lines, 4)
	assert.Equal(t, tree.LineEmpty, m.lines[2].Kind)
	assert.Contains(t, m.View(), tree.EmptyFolderText)

	press(t, m, " ")
	assert.Len(t, m.lines, 3)
	assert.Equal(t, 1, m.cursor)

	press(t, m, "up", "up", "up")
	assert.Equal(t, 0, m.cursor)
}

func TestCollapseAndExpandAll(t *testing.T) {
	f := newFixture(t, map[string]string{"sub/a.csv": "x\n1\n"})
	m := newModel(t, f)

	press(t, m, "C")
	assert.Len(t, m.lines, 1)

	press(t, m, "E")
	// root, empty/, placeholder, sub/, a.csv
	assert.Len(t, m.lines, 5)
}

func TestJumpToParent(t *testing.T) {
	f := newFixture(t, map[string]string{"sub/a.csv": "x\n1\n"})
	m := newModel(t, f)
	press(t, m, "E")

	cursorTo(t, m, "a.csv")
	press(t, m, "left")
	assert.Equal(t, "sub", m.lines[m.cursor].Node.Name)

	press(t, m, "h")
	assert.Equal(t, 0, m.cursor)

	// the root stays put
	press(t, m, "left")
	assert.Equal(t, 0, m.cursor)

	// from the placeholder, the parent is the empty folder itself
	require.Equal(t, tree.LineEmpty, m.lines[2].Kind)
	m.cursor = 2
	press(t, m, "left")
	assert.Equal(t, 1, m.cursor)
	assert.Equal(t, "empty", m.lines[1].Node.Name)
	assert.Len(t, m.lines, 5)
}

func TestOpenFile(t *testing.T) {
	f := newFixture(t, map[string]string{"people.csv": "name,age\nBob,30\nAmy,25\n"})
	m := newModel(t, f)

	cursorTo(t, m, "people.csv")
	cmd := press(t, m, "enter")

	assert.Equal(t, viewer.Loading, m.viewer.Status())
	assert.Equal(t, tablePane, m.focus)

	runLoad(t, m, cmd)
	require.Equal(t, viewer.Ready, m.viewer.Status())

	view := m.View()
	assert.Contains(t, view, "Bob")
	assert.Contains(t, view, "rows 2/2")
	assert.Contains(t, view, "page 1 of 1")
	assert.Len(t, m.table.Rows(), 2)
}

func TestOpenFile_ParseFailure(t *testing.T) {
	f := newFixture(t, map[string]string{"broken.csv": "a,b\n1,2,3\n"})
	m := newModel(t, f)

	cursorTo(t, m, "broken.csv")
	runLoad(t, m, press(t, m, "enter"))

	assert.Equal(t, viewer.Failed, m.viewer.Status())
	assert.Contains(t, m.View(), "Failed to parse file.")
}

func TestOpenFile_NotViewable(t *testing.T) {
	f := newFixture(t, map[string]string{"notes.txt": "hello"})
	m := newModel(t, f)

	cursorTo(t, m, "notes.txt")
	cmd := press(t, m, "enter")

	assert.Nil(t, cmd)
	assert.Equal(t, viewer.Idle, m.viewer.Status())
	assert.Equal(t, treePane, m.focus)
	assert.Contains(t, m.notice, "cannot view")
}

func TestStaleLoadIgnored(t *testing.T) {
	f := newFixture(t, map[string]string{
		"first.csv":  "col\nfirst\n",
		"second.csv": "col\nsecond\n",
	})
	m := newModel(t, f)

	cursorTo(t, m, "first.csv")
	firstCmd := press(t, m, "enter")

	press(t, m, "tab")
	cursorTo(t, m, "second.csv")
	secondCmd := press(t, m, "enter")

	runLoad(t, m, secondCmd)
	runLoad(t, m, firstCmd)

	assert.Equal(t, "second.csv", m.viewer.Name())
	assert.Equal(t, "second", m.table.Rows()[0][0])
}

func openPeople(t *testing.T, rows int) *Model {
	t.Helper()
	f := newFixture(t, map[string]string{"people.csv": people(rows)})
	m := newModel(t, f)
	cursorTo(t, m, "people.csv")
	runLoad(t, m, press(t, m, "enter"))
	require.Equal(t, viewer.Ready, m.viewer.Status())
	return m
}

func TestSearch(t *testing.T) {
	m := openPeople(t, 120)

	press(t, m, "/")
	require.True(t, m.searching)

	typeText(m, "p01")
	assert.Equal(t, "p01", m.viewer.Query())
	// p010..p019
	assert.Equal(t, 10, m.viewer.FilteredCount())

	// keys that are bindings elsewhere are plain text while searching
	typeText(m, "q")
	assert.Equal(t, "p01q", m.viewer.Query())
	assert.Equal(t, 0, m.viewer.FilteredCount())

	press(t, m, "esc")
	assert.False(t, m.searching)
	assert.Equal(t, "p01q", m.viewer.Query())
}

func TestSortToggle(t *testing.T) {
	f := newFixture(t, map[string]string{"people.csv": "name,age\nBob,30\nAmy,25\n"})
	m := newModel(t, f)
	cursorTo(t, m, "people.csv")
	runLoad(t, m, press(t, m, "enter"))

	press(t, m, "right", "s")
	cfg, ok := m.viewer.Sort()
	require.True(t, ok)
	assert.Equal(t, viewer.SortConfig{Column: "age", Direction: viewer.Ascending}, cfg)
	assert.Equal(t, "Amy", m.table.Rows()[0][0])
	assert.Contains(t, m.table.Columns()[1].Title, "▲")

	press(t, m, "s")
	cfg, _ = m.viewer.Sort()
	assert.Equal(t, viewer.Descending, cfg.Direction)
	assert.Equal(t, "Bob", m.table.Rows()[0][0])

	// column selection stays within bounds
	press(t, m, "right", "right", "left", "left", "left")
	assert.Equal(t, 0, m.column)
}

func TestPaging(t *testing.T) {
	m := openPeople(t, 120)

	assert.Len(t, m.table.Rows(), viewer.PageSize)

	press(t, m, "n", "n", "n", "n")
	assert.Equal(t, 3, m.viewer.CurrentPage())
	assert.Len(t, m.table.Rows(), 20)
	assert.Contains(t, m.View(), "page 3 of 3")

	press(t, m, "p", "p", "p")
	assert.Equal(t, 1, m.viewer.CurrentPage())

	// sorting returns to the first page
	press(t, m, "n", "s")
	assert.Equal(t, 1, m.viewer.CurrentPage())
}

func TestExport(t *testing.T) {
	m := openPeople(t, 5)

	press(t, m, "/")
	typeText(m, "p003")
	press(t, m, "enter", "x")

	path := filepath.Join(m.cfg.ExportDir, "filtered_people.csv")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "name,age\np003,23\n", string(data))
	assert.Contains(t, m.notice, "Exported to")
	assert.False(t, m.noticeErr)
}

func TestExport_NothingLoaded(t *testing.T) {
	f := newFixture(t, map[string]string{"a.csv": "x\n1\n"})
	m := newModel(t, f)

	press(t, m, "tab", "x")
	assert.True(t, m.noticeErr)
	assert.Contains(t, m.notice, "Export failed")
}

func TestQuit(t *testing.T) {
	f := newFixture(t, map[string]string{"a.csv": "x\n1\n"})
	m := newModel(t, f)

	cmd := press(t, m, "q")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestHelpToggle(t *testing.T) {
	f := newFixture(t, map[string]string{"a.csv": "x\n1\n"})
	m := newModel(t, f)

	press(t, m, "?")
	assert.True(t, m.help.ShowAll)
	assert.Contains(t, m.View(), "collapse all")
}

func TestWatchReloadsOpenFile(t *testing.T) {
	f := newFixture(t, map[string]string{"live.csv": "v\n1\n"})
	cfg := config.DefaultConfig()
	cfg.Watch = true
	m := New(Options{Root: f.root, Config: cfg})
	t.Cleanup(func() { m.Close() })
	require.NotNil(t, m.watcher)

	cursorTo(t, m, "live.csv")
	press(t, m, "enter")
	assert.True(t, m.watcher.waiting)

	// a change to another file in the directory is ignored
	_, cmd := m.Update(fileChangedMsg{path: filepath.Join(f.dir, "other.csv")})
	assert.NotNil(t, cmd)
	assert.Equal(t, viewer.Loading, m.viewer.Status())

	before := m.viewer.Generation()
	m.Update(fileChangedMsg{path: filepath.Join(f.dir, "live.csv")})
	assert.Greater(t, m.viewer.Generation(), before)
}

func TestWatchSkipsUnchangedContent(t *testing.T) {
	f := newFixture(t, map[string]string{"live.csv": "v\n1\n"})
	cfg := config.DefaultConfig()
	cfg.Watch = true
	m := New(Options{Root: f.root, Config: cfg})
	t.Cleanup(func() { m.Close() })

	path := filepath.Join(f.dir, "live.csv")
	cursorTo(t, m, "live.csv")
	press(t, m, "enter")
	runLoad(t, m, fetch(m.viewer.Generation(), path))
	require.Equal(t, viewer.Ready, m.viewer.Status())

	before := m.viewer.Generation()
	m.Update(fileChangedMsg{path: path})
	assert.Equal(t, before, m.viewer.Generation())
	assert.Equal(t, viewer.Ready, m.viewer.Status())

	require.NoError(t, os.WriteFile(path, []byte("v\n1\n2\n"), 0644))
	_, cmd := m.Update(fileChangedMsg{path: path})
	assert.Greater(t, m.viewer.Generation(), before)
	assert.Equal(t, viewer.Loading, m.viewer.Status())
	require.NotNil(t, cmd)
}
