package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/Zuo-Peng/p4-changelist-report/internal/archive"
	"github.com/Zuo-Peng/p4-changelist-report/internal/render"
	"github.com/Zuo-Peng/p4-changelist-report/internal/report"
)

// previewKey identifies what the preview currently shows.
type previewKey struct {
	change string
	merged bool
}

type previewMsg struct {
	key     previewKey
	content string
	hit     int // first line to show
	err     error
}

// loadPreview renders the selected change unless it is already shown.
func (m model) loadPreview() tea.Cmd {
	r, ok := m.current()
	if !ok {
		return nil
	}
	k := previewKey{change: r.Change, merged: m.merged}
	if k == m.shown {
		return nil
	}
	_, width, _ := m.layout()
	return renderPreview(m.db, r, k, m.query, width)
}

func renderPreview(db *archive.DB, r archive.Result, k previewKey, query string, width int) tea.Cmd {
	return func() tea.Msg {
		rows, err := db.ChangeRows(r.Change)
		if err != nil {
			return previewMsg{key: k, err: err}
		}
		if k.merged {
			rows = mergeRows(rows)
		}
		content := render.Change(rows, render.Options{Width: width, Query: query})
		return previewMsg{key: k, content: content, hit: hitLine(content, hitTerm(r.Snippet, query))}
	}
}

// mergeRows folds the per-action rows of one change into a single row, the
// way the report's change grouping does.
func mergeRows(rows []report.Row) []report.Row {
	if len(rows) < 2 {
		return rows
	}
	merged := rows[0]
	actions := make([]string, 0, len(rows))
	files := make([]string, 0, len(rows))
	for _, r := range rows {
		actions = append(actions, r.Action)
		if r.File != "" {
			files = append(files, r.File)
		}
	}
	merged.Action = strings.Join(actions, ", ")
	merged.File = strings.Join(files, ", ")
	return []report.Row{merged}
}

// hitTerm is the text the search highlighted in the snippet, else the first
// query word.
func hitTerm(snippet, query string) string {
	if _, rest, ok := strings.Cut(snippet, ">>>"); ok {
		if term, _, ok := strings.Cut(rest, "<<<"); ok && term != "" {
			return term
		}
	}
	for _, f := range strings.Fields(query) {
		if f = strings.Trim(f, `"*`); f != "" && !isOperator(f) {
			return f
		}
	}
	return ""
}

func isOperator(word string) bool {
	switch word {
	case "AND", "OR", "NOT":
		return true
	}
	return false
}

// hitLine is the index of the first rendered line mentioning term, 0 when
// none does.
func hitLine(content, term string) int {
	if term == "" {
		return 0
	}
	term = strings.ToLower(term)
	for i, line := range strings.Split(content, "\n") {
		if strings.Contains(strings.ToLower(ansi.Strip(line)), term) {
			return i
		}
	}
	return 0
}
