package ui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

var (
	accent = lipgloss.Color("#7D56F4")
	muted  = lipgloss.Color("#6C6C6C")
	danger = lipgloss.Color("#E05252")

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(0, 1)

	focusedPaneStyle = paneStyle.BorderForeground(accent)

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(accent)

	placeholderStyle = lipgloss.NewStyle().
				Foreground(muted).
				Italic(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#DADADA"))

	errorStyle = lipgloss.NewStyle().
			Foreground(danger).
			Bold(true)

	noticeStyle = lipgloss.NewStyle().
			Foreground(accent)
)

func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(muted).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(accent)
	return s
}
