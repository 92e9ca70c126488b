package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorAccent = lipgloss.Color("12")  // bright blue
	colorAuthor = lipgloss.Color("10")  // bright green
	colorMuted  = lipgloss.Color("240") // gray
	colorCursor = lipgloss.Color("11")  // bright yellow
	colorFrame  = lipgloss.Color("238") // dark gray

	stylePrompt = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	styleCursor = lipgloss.NewStyle().Foreground(colorCursor).Bold(true)
	styleChange = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	styleAuthor = lipgloss.NewStyle().Foreground(colorAuthor)
	styleMuted  = lipgloss.NewStyle().Foreground(colorMuted)
	styleNotice = lipgloss.NewStyle().Foreground(colorCursor)

	styleListFrame    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorFrame)
	stylePreviewFrame = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorAccent)
)

// actionColors follow the p4 action of a file line.
var actionColors = map[string]lipgloss.Color{
	"add":       lipgloss.Color("10"),
	"branch":    lipgloss.Color("10"),
	"edit":      lipgloss.Color("12"),
	"integrate": lipgloss.Color("12"),
	"import":    lipgloss.Color("10"),
	"delete":    lipgloss.Color("9"),
	"purge":     lipgloss.Color("9"),
	"move":      lipgloss.Color("13"),
}

// actionBadge renders the action of a row; merged actions take the first
// action's color.
func actionBadge(action string) string {
	first, _, _ := strings.Cut(action, ", ")
	color, ok := actionColors[first]
	if !ok {
		color = colorMuted
	}
	return lipgloss.NewStyle().Foreground(color).Render(action)
}
