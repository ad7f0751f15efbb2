// Package ui is the interactive browser: a tree pane on the left and the
// table viewer on the right. Activating a file in the tree loads it into the
// viewer.
package ui

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"csvtree/internal/config"
	"csvtree/internal/dataset"
	"csvtree/internal/hash"
	"csvtree/internal/tree"
	"csvtree/internal/viewer"
)

const (
	defaultHeight  = 24
	maxColumnWidth = 30
	minTreeWidth   = 24
)

type pane int

const (
	treePane pane = iota
	tablePane
)

// loadedMsg carries the result of a background load.
type loadedMsg struct {
	gen  viewer.Generation
	path string
	ds   *dataset.Dataset
	err  error
}

type Options struct {
	Root   *tree.Node
	Config *config.Config
	Logger *slog.Logger
}

type Model struct {
	cfg    *config.Config
	logger *slog.Logger

	tree   *tree.Tree
	lines  []tree.Line
	cursor int

	viewer    *viewer.Viewer
	table     table.Model
	search    textinput.Model
	searching bool
	column    int
	openPath  string

	focus     pane
	keys      keyMap
	help      help.Model
	width     int
	height    int
	notice    string
	noticeErr bool

	// pending is set by the activation callback during Update
	pending tea.Cmd
	watcher *fileWatcher
}

func New(opts Options) *Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "search all columns"
	search.CharLimit = 256

	m := &Model{
		cfg:    cfg,
		logger: logger,
		viewer: viewer.New(logger),
		search: search,
		keys:   defaultKeyMap(),
		help:   help.New(),
		table: table.New(
			table.WithStyles(tableStyles()),
			table.WithHeight(defaultHeight-8),
		),
	}

	m.tree = tree.New(opts.Root, m.open)
	m.tree.Toggle(tree.RootID)
	m.lines = m.tree.Lines()

	if cfg.Watch {
		w, err := newFileWatcher()
		if err != nil {
			logger.Warn("file watching disabled", "error", err)
		} else {
			m.watcher = w
		}
	}

	return m
}

func (m *Model) Init() tea.Cmd { return nil }

// Close releases the file watcher.
func (m *Model) Close() error {
	if m.watcher == nil {
		return nil
	}
	return m.watcher.Close()
}

// Viewer exposes the table state, mainly for callers that run the program
// and report on it afterwards.
func (m *Model) Viewer() *viewer.Viewer { return m.viewer }

// open is the tree's activation callback.
func (m *Model) open(n *tree.Node) {
	if n.Source == "" {
		m.setNotice(fmt.Sprintf("%s has no file behind it", n.Name), true)
		return
	}
	if !m.cfg.IsViewable(n.FileType) {
		m.setNotice(fmt.Sprintf("cannot view .%s files", n.FileType), true)
		return
	}
	m.pending = m.load(n.Source)
}

// load starts a background load of path and returns the command that
// performs it.
func (m *Model) load(path string) tea.Cmd {
	m.openPath = path
	m.notice = ""
	gen := m.viewer.Begin(path)
	m.refreshTable()

	cmd := fetch(gen, path)
	if m.watcher == nil {
		return cmd
	}

	if err := m.watcher.follow(path); err != nil {
		m.logger.Warn("cannot watch file", "file", path, "error", err)
		return cmd
	}
	if m.watcher.waiting {
		return cmd
	}
	m.watcher.waiting = true
	return tea.Batch(cmd, m.watcher.wait())
}

func fetch(gen viewer.Generation, path string) tea.Cmd {
	return func() tea.Msg {
		ds, err := viewer.Fetch(context.Background(), path)
		return loadedMsg{gen: gen, path: path, ds: ds, err: err}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.table.SetHeight(max(m.bodyHeight()-3, 3))
		return m, nil

	case loadedMsg:
		if m.viewer.Finish(msg.gen, msg.ds, msg.err) {
			m.refreshTable()
		}
		return m, nil

	case fileChangedMsg:
		var cmd tea.Cmd
		if m.openPath != "" && msg.path == filepath.Clean(m.openPath) && !m.unchanged(msg.path) {
			m.logger.Debug("open file changed, reloading", "file", msg.path)
			gen := m.viewer.Begin(m.openPath)
			m.refreshTable()
			cmd = fetch(gen, m.openPath)
		}
		return m, tea.Batch(cmd, m.watcher.wait())

	case watchErrMsg:
		m.logger.Warn("watcher error", "error", msg.err)
		return m, m.watcher.wait()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// unchanged reports whether path still holds the bytes of the loaded dataset.
// A write that leaves the bytes as they were does not reload.
func (m *Model) unchanged(path string) bool {
	ds := m.viewer.Dataset()
	if m.viewer.Status() != viewer.Ready || ds == nil {
		return false
	}
	sum, err := hash.HashFile(path)
	if err != nil {
		return false
	}
	return sum == ds.Checksum
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		return m.handleSearchKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Focus):
		if m.focus == treePane {
			m.setFocus(tablePane)
		} else {
			m.setFocus(treePane)
		}
		return m, nil
	}

	if m.focus == treePane {
		return m.handleTreeKey(msg)
	}
	return m.handleTableKey(msg)
}

func (m *Model) handleTreeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.lines)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Toggle):
		if line, ok := m.currentLine(); ok && line.Kind != tree.LineFile {
			m.tree.Toggle(line.ID)
			m.syncLines(line.ID)
		}

	case key.Matches(msg, m.keys.Open):
		line, ok := m.currentLine()
		if !ok {
			break
		}
		m.tree.Activate(line.ID)
		m.syncLines(line.ID)
		if cmd := m.pending; cmd != nil {
			m.pending = nil
			m.setFocus(tablePane)
			return m, cmd
		}

	case key.Matches(msg, m.keys.Parent):
		line, ok := m.currentLine()
		if !ok {
			break
		}
		// the placeholder shares its folder's ID
		target := line.ID.Parent()
		if line.Kind == tree.LineEmpty {
			target = line.ID
		}
		m.syncLines(target)

	case key.Matches(msg, m.keys.ExpandAll):
		id := m.currentID()
		m.tree.ExpandAll()
		m.syncLines(id)

	case key.Matches(msg, m.keys.CollapseAll):
		m.tree.CollapseAll()
		m.syncLines(tree.RootID)
	}

	return m, nil
}

func (m *Model) handleTableKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	columns := m.columns()

	switch {
	case key.Matches(msg, m.keys.Search):
		m.searching = true
		return m, m.search.Focus()

	case key.Matches(msg, m.keys.PrevColumn):
		if m.column > 0 {
			m.column--
			m.refreshTable()
		}

	case key.Matches(msg, m.keys.NextColumn):
		if m.column < len(columns)-1 {
			m.column++
			m.refreshTable()
		}

	case key.Matches(msg, m.keys.Sort):
		if len(columns) > 0 {
			m.viewer.SetSort(columns[m.column])
			m.refreshTable()
		}

	case key.Matches(msg, m.keys.PrevPage):
		m.viewer.SetPage(m.viewer.CurrentPage() - 1)
		m.refreshTable()

	case key.Matches(msg, m.keys.NextPage):
		m.viewer.SetPage(m.viewer.CurrentPage() + 1)
		m.refreshTable()

	case key.Matches(msg, m.keys.Export):
		m.export()

	default:
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	if key.Matches(msg, m.keys.Done) {
		m.searching = false
		m.search.Blur()
		return m, nil
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if q := m.search.Value(); q != before {
		m.viewer.SetSearchQuery(q)
		m.refreshTable()
	}
	return m, cmd
}

func (m *Model) export() {
	format, err := dataset.ParseFormat(m.cfg.ExportFormat)
	if err != nil {
		m.setNotice(err.Error(), true)
		return
	}

	path, err := m.viewer.WriteExport(m.cfg.ExportDir, format)
	if err != nil {
		m.setNotice("Export failed: "+err.Error(), true)
		return
	}
	m.setNotice("Exported to "+path, false)
}

func (m *Model) setNotice(text string, isErr bool) {
	m.notice = text
	m.noticeErr = isErr
}

func (m *Model) setFocus(p pane) {
	m.focus = p
	if p == tablePane {
		m.table.Focus()
	} else {
		m.table.Blur()
	}
}

func (m *Model) currentLine() (tree.Line, bool) {
	if m.cursor < 0 || m.cursor >= len(m.lines) {
		return tree.Line{}, false
	}
	return m.lines[m.cursor], true
}

func (m *Model) currentID() tree.ID {
	if line, ok := m.currentLine(); ok {
		return line.ID
	}
	return tree.RootID
}

// syncLines re-renders the tree and puts the cursor back on id.
func (m *Model) syncLines(id tree.ID) {
	m.lines = m.tree.Lines()
	for i, l := range m.lines {
		if l.ID == id && l.Kind != tree.LineEmpty {
			m.cursor = i
			return
		}
	}
	m.cursor = min(m.cursor, max(len(m.lines)-1, 0))
}

func (m *Model) columns() []string {
	if ds := m.viewer.Dataset(); ds != nil {
		return ds.Columns
	}
	return nil
}

func (m *Model) columnTitle(i int, name string) string {
	title := name
	if cfg, ok := m.viewer.Sort(); ok && cfg.Column == name {
		if cfg.Direction == viewer.Ascending {
			title += " ▲"
		} else {
			title += " ▼"
		}
	}
	if i == m.column {
		title = "›" + title
	}
	return title
}

// refreshTable copies the visible page into the table widget.
func (m *Model) refreshTable() {
	// rows go first: the widget renders existing rows against new columns
	m.table.SetRows(nil)

	columns := m.columns()
	if len(columns) == 0 {
		m.column = 0
		m.table.SetColumns(nil)
		return
	}
	m.column = min(m.column, len(columns)-1)

	titles := make([]string, len(columns))
	widths := make([]int, len(columns))
	for i, c := range columns {
		titles[i] = m.columnTitle(i, c)
		widths[i] = lipgloss.Width(titles[i])
	}

	page := m.viewer.Page()
	rows := make([]table.Row, len(page))
	for r, rec := range page {
		row := make(table.Row, len(columns))
		for i := range columns {
			cell := strings.ReplaceAll(rec.Cell(i).String(), "\n", " ")
			row[i] = cell
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
		rows[r] = row
	}

	cols := make([]table.Column, len(columns))
	for i := range columns {
		cols[i] = table.Column{Title: titles[i], Width: min(max(widths[i], 3), maxColumnWidth)}
	}

	m.table.SetColumns(cols)
	m.table.SetRows(rows)
	m.table.SetCursor(0)
}

func (m *Model) bodyHeight() int {
	h := m.height
	if h <= 0 {
		h = defaultHeight
	}
	return max(h-4, 5)
}

func (m *Model) treeWidth() int {
	return max(m.width/4, minTreeWidth)
}

func (m *Model) View() string {
	body := lipgloss.JoinHorizontal(lipgloss.Top, m.treeView(), m.tableView())

	parts := []string{body, m.statusLine()}
	if m.notice != "" {
		style := noticeStyle
		if m.noticeErr {
			style = errorStyle
		}
		parts = append(parts, style.Render(m.notice))
	}
	parts = append(parts, m.help.View(m.keys))

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *Model) treeView() string {
	height := m.bodyHeight() - 2

	start := 0
	if m.cursor >= height {
		start = m.cursor - height + 1
	}
	end := min(start+height, len(m.lines))

	var b strings.Builder
	for i := start; i < end; i++ {
		line := m.lines[i]
		text := line.Text()
		switch {
		case i == m.cursor && m.focus == treePane:
			text = cursorStyle.Render(text)
		case line.Kind == tree.LineEmpty:
			text = placeholderStyle.Render(text)
		}
		b.WriteString(text)
		if i < end-1 {
			b.WriteByte('\n')
		}
	}

	style := paneStyle
	if m.focus == treePane {
		style = focusedPaneStyle
	}
	return style.Width(m.treeWidth()).Height(height).Render(b.String())
}

func (m *Model) tableView() string {
	var content string
	switch m.viewer.Status() {
	case viewer.Idle:
		content = placeholderStyle.Render("Select a file in the tree and press enter.")
	case viewer.Loading:
		content = placeholderStyle.Render("Loading " + m.viewer.Name() + "…")
	case viewer.Failed:
		content = errorStyle.Render(m.viewer.Message())
	default:
		content = m.table.View()
	}

	if m.searching || m.viewer.Query() != "" {
		content = m.search.View() + "\n" + content
	}

	style := paneStyle
	if m.focus == tablePane {
		style = focusedPaneStyle
	}
	width := 0
	if m.width > 0 {
		width = max(m.width-m.treeWidth()-4, 20)
	}
	return style.Width(width).Height(m.bodyHeight() - 2).Render(content)
}

func (m *Model) statusLine() string {
	v := m.viewer
	switch v.Status() {
	case viewer.Idle:
		return statusStyle.Render("No file open")
	case viewer.Loading:
		return statusStyle.Render(v.Name() + "  loading")
	case viewer.Failed:
		return errorStyle.Render(v.Name() + "  " + v.Message())
	}

	ds := v.Dataset()
	if ds == nil {
		return ""
	}

	sortText := "none"
	if cfg, ok := v.Sort(); ok {
		sortText = cfg.Column + " " + cfg.Direction.String()
	}

	return statusStyle.Render(fmt.Sprintf("%s  rows %d/%d  page %d of %d  sort %s  xxh %s",
		v.Name(),
		v.FilteredCount(), len(ds.Rows),
		v.CurrentPage(), max(v.TotalPages(), 1),
		sortText,
		hash.Short(ds.Checksum)))
}
