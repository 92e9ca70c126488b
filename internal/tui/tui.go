// Package tui is the interactive browser over the changelist archive: a
// search box, the matching changes, and a preview of the selected change.
package tui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Zuo-Peng/p4-changelist-report/internal/archive"
	"github.com/Zuo-Peng/p4-changelist-report/internal/open"
)

const debounceDelay = 200 * time.Millisecond

// openURL is swapped in tests.
var openURL = open.URL

type resultsMsg struct {
	query   string
	changes []archive.Result
	err     error
}

type settledMsg struct {
	query string
}

type openedMsg struct {
	url string
	err error
}

type model struct {
	db      *archive.DB
	opts    archive.Options
	keys    bindings
	help    help.Model
	input   textinput.Model
	query   string
	changes []archive.Result
	cursor  int
	top     int // first change drawn in the list
	preview viewport.Model
	shown   previewKey
	merged  bool   // preview shows one row per change instead of per action
	notice  string // outcome of the last open
	width   int
	height  int
	chosen  *archive.Result
	done    bool
}

func newModel(db *archive.DB, query string, opts archive.Options) model {
	in := textinput.New()
	in.Placeholder = "change, author, file or issue key"
	in.Prompt = "p4cl> "
	in.PromptStyle = stylePrompt
	in.CharLimit = 256
	in.SetValue(query)
	in.Focus()

	return model{
		db:      db,
		opts:    opts,
		keys:    defaultBindings(),
		help:    help.New(),
		input:   in,
		query:   query,
		preview: viewport.New(0, 0),
	}
}

// Run browses the archive until the user quits. An empty query lists the most
// recent archived changes. The issue link of the change picked with enter is
// copied to the clipboard.
func Run(db *archive.DB, query string, opts archive.Options) error {
	final, err := tea.NewProgram(newModel(db, query, opts), tea.WithAltScreen()).Run()
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	if m := final.(model); m.chosen != nil {
		copySelection(os.Stdout, *m.chosen, clipboard.WriteAll)
	}
	return nil
}

// clipboardText is the first issue URL of r, or its change number when the
// description links none.
func clipboardText(r archive.Result) string {
	if first, _, _ := strings.Cut(r.JiraURL, ", "); first != "" {
		return first
	}
	return r.Change
}

// copySelection puts the selection on the clipboard, printing it instead when
// no clipboard is available.
func copySelection(w io.Writer, r archive.Result, write func(string) error) {
	text := clipboardText(r)
	if err := write(text); err != nil {
		fmt.Fprintln(w, text)
		return
	}
	fmt.Fprintf(w, "Copied to clipboard: %s\n", text)
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.search(m.query))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		_, previewW, h := m.layout()
		m.preview = viewport.New(previewW, h)
		m.shown = previewKey{}
		return m, m.loadPreview()

	case tea.KeyMsg:
		return m.handleKey(msg)

	case settledMsg:
		if msg.query != m.query {
			return m, nil
		}
		return m, m.search(msg.query)

	case resultsMsg:
		if msg.query != m.query {
			return m, nil
		}
		m.cursor, m.top = 0, 0
		m.shown = previewKey{}
		m.changes = msg.changes
		if msg.err != nil {
			m.changes = nil
			m.preview.SetContent("search failed: " + msg.err.Error())
			return m, nil
		}
		if len(m.changes) == 0 {
			m.preview.SetContent("")
			return m, nil
		}
		return m, m.loadPreview()

	case previewMsg:
		if r, ok := m.current(); !ok || r.Change != msg.key.change || msg.key.merged != m.merged {
			return m, nil
		}
		if msg.err != nil {
			m.preview.SetContent("preview failed: " + msg.err.Error())
		} else {
			m.preview.SetContent(msg.content)
			m.preview.SetYOffset(msg.hit)
		}
		m.shown = msg.key
		return m, nil

	case openedMsg:
		if msg.err != nil {
			m.notice = msg.err.Error()
		} else {
			m.notice = "opened " + msg.url
		}
		return m, nil
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	_, _, h := m.layout()
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.done = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Copy):
		if r, ok := m.current(); ok {
			m.chosen = &r
			m.done = true
			return m, tea.Quit
		}
		return m, nil

	case key.Matches(msg, m.keys.Open):
		if r, ok := m.current(); ok {
			return m, openIssue(r)
		}
		return m, nil

	case key.Matches(msg, m.keys.Group):
		m.merged = !m.merged
		return m, m.loadPreview()

	case key.Matches(msg, m.keys.Prev):
		return m.moveCursor(-1)

	case key.Matches(msg, m.keys.Next):
		return m.moveCursor(1)

	case key.Matches(msg, m.keys.ScrollUp):
		m.preview.LineUp(h / 2)
		return m, nil

	case key.Matches(msg, m.keys.ScrollDown):
		m.preview.LineDown(h / 2)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if q := m.input.Value(); q != m.query {
		m.query = q
		m.notice = ""
		return m, tea.Batch(cmd, settle(q))
	}
	return m, cmd
}

func (m model) moveCursor(delta int) (tea.Model, tea.Cmd) {
	next := m.cursor + delta
	if next < 0 || next >= len(m.changes) {
		return m, nil
	}
	m.cursor = next
	m.notice = ""
	_, _, h := m.layout()
	m.scrollList(h / linesPerChange)
	return m, m.loadPreview()
}

func (m model) current() (archive.Result, bool) {
	if m.cursor < 0 || m.cursor >= len(m.changes) {
		return archive.Result{}, false
	}
	return m.changes[m.cursor], true
}

func (m model) search(query string) tea.Cmd {
	db, opts := m.db, m.opts
	opts.Query = query
	return func() tea.Msg {
		changes, err := archive.Search(db, opts)
		return resultsMsg{query: query, changes: changes, err: err}
	}
}

func settle(query string) tea.Cmd {
	return tea.Tick(debounceDelay, func(time.Time) tea.Msg {
		return settledMsg{query: query}
	})
}

// openIssue opens the first issue link of r in the browser.
func openIssue(r archive.Result) tea.Cmd {
	return func() tea.Msg {
		url, _, _ := strings.Cut(r.JiraURL, ", ")
		if url == "" {
			return openedMsg{err: fmt.Errorf("change %s links no issue", r.Change)}
		}
		return openedMsg{url: url, err: openURL(url)}
	}
}
