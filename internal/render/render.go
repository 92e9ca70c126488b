package render

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/Zuo-Peng/p4-changelist-report/internal/report"
)

const (
	colorReset   = "\033[0m"
	colorAdd     = "\033[1;32m" // bold green
	colorEdit    = "\033[1;34m" // bold blue
	colorDelete  = "\033[1;31m" // bold red
	colorMove    = "\033[1;35m" // bold magenta
	colorLink    = "\033[4;36m" // underlined cyan
	colorDim     = "\033[2m"
	colorBoldRed = "\033[1;31m" // bold red for keyword highlights
)

type Options struct {
	Width int    // wrap width (0 = no wrap)
	Query string // search query for keyword highlighting
}

// fts5Operators are FTS5 operators that should not be highlighted as keywords.
var fts5Operators = map[string]bool{
	"AND": true, "OR": true, "NOT": true, "NEAR": true,
	"and": true, "or": true, "not": true, "near": true,
}

// highlightKeywords wraps case-insensitive matches of query terms in bold red ANSI codes.
func highlightKeywords(text, query string) string {
	var alts []string
	for _, t := range strings.Fields(query) {
		if fts5Operators[t] {
			continue
		}
		if t = strings.Trim(t, `"*`); t != "" {
			alts = append(alts, regexp.QuoteMeta(t))
		}
	}
	if len(alts) == 0 {
		return text
	}
	// one pass, so a later term never matches inside an inserted escape code
	re := regexp.MustCompile(`(?i)(?:` + strings.Join(alts, "|") + `)`)
	return re.ReplaceAllStringFunc(text, func(m string) string {
		return colorBoldRed + m + colorReset
	})
}

// indentLines prepends each line of text with the given prefix.
func indentLines(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

// wrapLine breaks a single line into multiple lines that fit within maxWidth
// visible columns, correctly skipping ANSI escape sequences when measuring width.
func wrapLine(line string, maxWidth int) []string {
	if maxWidth <= 0 {
		return []string{line}
	}

	var result []string
	var cur strings.Builder
	visW := 0

	i := 0
	for i < len(line) {
		// ESC[ ... m
		if i+1 < len(line) && line[i] == '\033' && line[i+1] == '[' {
			j := i + 2
			for j < len(line) && line[j] != 'm' {
				j++
			}
			if j < len(line) {
				j++
			}
			cur.WriteString(line[i:j])
			i = j
			continue
		}

		r, size := utf8.DecodeRuneInString(line[i:])
		rw := runewidth.RuneWidth(r)

		if visW+rw > maxWidth {
			result = append(result, cur.String())
			cur.Reset()
			visW = 0
		}

		cur.WriteRune(r)
		visW += rw
		i += size
	}

	if cur.Len() > 0 {
		result = append(result, cur.String())
	}

	if len(result) == 0 {
		return []string{""}
	}
	return result
}

func actionColor(action string) string {
	// merged rows list several actions; the first picks the color
	first, _, _ := strings.Cut(action, ", ")
	switch first {
	case "add", "branch", "import":
		return colorAdd
	case "edit", "integrate":
		return colorEdit
	case "delete", "purge":
		return colorDelete
	case "move":
		return colorMove
	default:
		return colorDim
	}
}

// Change renders the rows of one change for the terminal: a header, the
// description, the files under each action and the issue links.
func Change(rows []report.Row, opts Options) string {
	if len(rows) == 0 {
		return "(no rows)\n"
	}
	head := rows[0]

	var b strings.Builder
	writeLine := func(s string) {
		for _, wl := range wrapLine(s, opts.Width) {
			b.WriteString(wl)
			b.WriteString("\n")
		}
	}

	writeLine(fmt.Sprintf("%s--- change %s by %s  %s %s ---%s",
		colorDim, head.Change, head.Author, head.Date, head.Time, colorReset))

	desc := head.Description
	if desc == "" {
		desc = colorDim + "(no description)" + colorReset
	}
	for _, l := range strings.Split(indentLines(highlightKeywords(desc, opts.Query), "  "), "\n") {
		writeLine(l)
	}
	writeLine("")

	for _, r := range rows {
		writeLine(fmt.Sprintf("%s%s%s", actionColor(r.Action), strings.ToUpper(r.Action), colorReset))
		for _, name := range strings.Split(r.File, ", ") {
			if name == "" {
				continue
			}
			writeLine("  " + highlightKeywords(name, opts.Query))
		}
	}

	if head.JiraURL != "" {
		writeLine("")
		for _, u := range strings.Split(head.JiraURL, ", ") {
			writeLine(colorLink + u + colorReset)
		}
	}

	return b.String()
}
