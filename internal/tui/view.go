package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/Zuo-Peng/p4-changelist-report/internal/archive"
)

const linesPerChange = 2

func (m model) View() string {
	if m.done || m.width == 0 {
		return ""
	}
	listW, previewW, h := m.layout()

	list := styleListFrame.Width(listW).Height(h).Render(m.listView(listW, h))
	m.preview.Width, m.preview.Height = previewW, h
	preview := stylePreviewFrame.Width(previewW).Height(h).Render(m.preview.View())

	return lipgloss.JoinVertical(lipgloss.Left,
		m.input.View(),
		lipgloss.JoinHorizontal(lipgloss.Top, list, preview),
		m.footer(),
	)
}

// layout splits the terminal into list width, preview width and the shared
// panel height, all without borders.
func (m model) layout() (listW, previewW, h int) {
	if m.width <= 0 || m.height <= 0 {
		return 40, 60, 20
	}
	listW = max(m.width*2/5-2, 24)
	previewW = max(m.width-listW-4, 20)
	h = max(m.height-4, linesPerChange)
	return listW, previewW, h
}

func (m model) listView(width, h int) string {
	var lines []string
	for i := m.top; i < len(m.changes) && len(lines)+linesPerChange <= h; i++ {
		lines = append(lines, changeLines(m.changes[i], width, i == m.cursor)...)
	}
	return strings.Join(lines, "\n")
}

// scrollList keeps the cursor within the visible changes.
func (m *model) scrollList(visible int) {
	if visible < 1 {
		visible = 1
	}
	if m.cursor < m.top {
		m.top = m.cursor
	}
	if m.cursor >= m.top+visible {
		m.top = m.cursor - visible + 1
	}
}

// changeLines renders one search hit: change, date, author and action on the
// first line; the matched text, or the files when nothing matched, on the
// second.
func changeLines(r archive.Result, width int, selected bool) []string {
	marker := "  "
	if selected {
		marker = styleCursor.Render("> ")
	}
	date := r.Date
	if len(date) == len("2006/01/02") {
		date = date[5:]
	}
	head := fmt.Sprintf("%s %s %s", r.Change, date, r.Author)
	head = runewidth.Truncate(head, max(width-3-runewidth.StringWidth(r.Action), 1), "…")
	change, rest, _ := strings.Cut(head, " ")
	line1 := marker + styleChange.Render(change) + " " + styleAuthor.Render(rest) + " " + actionBadge(r.Action)

	detail := strings.NewReplacer(">>>", "", "<<<", "").Replace(r.Snippet)
	if detail == "" {
		detail = r.File
	}
	line2 := "  " + styleMuted.Render(runewidth.Truncate(detail, max(width-2, 1), "…"))
	return []string{line1, line2}
}

func (m model) footer() string {
	count := styleMuted.Render(fmt.Sprintf("%d changes", len(m.changes)))
	parts := []string{count}
	if m.merged {
		parts = append(parts, styleMuted.Render("by change"))
	}
	if m.notice != "" {
		parts = append(parts, styleNotice.Render(m.notice))
	}
	parts = append(parts, m.help.View(m.keys))
	return strings.Join(parts, "  ")
}
