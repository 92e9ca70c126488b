package archive

import (
	"database/sql"
	"fmt"
	"strings"
	"unicode"
)

type Result struct {
	Change  string
	RunID   string
	Date    string
	Time    string
	Author  string
	Action  string
	File    string
	JiraURL string
	Snippet string
	Rank    float64
}

type Options struct {
	Query  string // "" = most recent changes
	Author string // "" = all, exact match
	Since  string // "" = no filter, e.g. "2024/03/01" or "2024-03-01"
	Limit  int
}

// needsLike reports whether s holds characters the unicode61 tokenizer cannot
// split into words, so FTS would miss substring matches.
func needsLike(s string) bool {
	for _, r := range s {
		if unicode.In(r, unicode.Han, unicode.Hangul, unicode.Hiragana, unicode.Katakana) {
			return true
		}
	}
	return false
}

// indexFold returns the rune index of the first case-insensitive match of
// needle in hay, or -1. Comparing rune by rune keeps the index valid for hay
// even where lowering changes a rune's byte length.
func indexFold(hay, needle []rune) int {
	if len(needle) == 0 {
		return -1
	}
	for i := 0; i+len(needle) <= len(hay); i++ {
		match := true
		for j, r := range needle {
			if unicode.ToLower(hay[i+j]) != unicode.ToLower(r) {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// makeSnippet extracts a snippet around the first occurrence of query in text.
func makeSnippet(text, query string, contextChars int) string {
	runes := []rune(strings.Join(strings.Fields(text), " "))
	q := []rune(query)
	pos := indexFold(runes, q)
	if pos < 0 {
		if len(runes) > contextChars*2 {
			return string(runes[:contextChars*2]) + "..."
		}
		return string(runes)
	}
	start := pos - contextChars
	if start < 0 {
		start = 0
	}
	end := pos + len(q) + contextChars
	if end > len(runes) {
		end = len(runes)
	}
	prefix, suffix := "", ""
	if start > 0 {
		prefix = "..."
	}
	if end < len(runes) {
		suffix = "..."
	}
	return prefix + string(runes[start:pos]) +
		">>>" + string(runes[pos:pos+len(q)]) + "<<<" +
		string(runes[pos+len(q):end]) + suffix
}

// ftsOperators pass through to MATCH unquoted.
var ftsOperators = map[string]bool{"AND": true, "OR": true, "NOT": true}

// ftsQuery quotes every term as an FTS5 string so file names (loader.cpp)
// and issue keys (SOL-1) match as phrases instead of failing to parse. A
// trailing * keeps prefix search.
func ftsQuery(query string) string {
	terms := strings.Fields(query)
	prevOp := true
	for i, t := range terms {
		if ftsOperators[t] && !prevOp && i < len(terms)-1 {
			prevOp = true
			continue
		}
		prevOp = false
		prefix := ""
		if strings.HasSuffix(t, "*") && len(t) > 1 {
			t, prefix = strings.TrimSuffix(t, "*"), "*"
		}
		terms[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"` + prefix
	}
	return strings.Join(terms, " ")
}

// Search finds archived rows and returns at most one result per change, best
// match first.
func Search(db *DB, opts Options) ([]Result, error) {
	if opts.Limit <= 0 {
		opts.Limit = 100
	}
	opts.Since = strings.ReplaceAll(opts.Since, "-", "/")

	// fetch extra so the per-change dedup still fills the limit
	origLimit := opts.Limit
	opts.Limit = origLimit * 3

	var results []Result
	var err error
	switch {
	case strings.TrimSpace(opts.Query) == "":
		results, err = searchRecent(db, opts)
	case needsLike(opts.Query):
		results, err = searchLike(db, opts)
	default:
		results, err = searchFTS(db, opts)
	}
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var deduped []Result
	for _, r := range results {
		if seen[r.Change] {
			continue
		}
		seen[r.Change] = true
		deduped = append(deduped, r)
		if len(deduped) >= origLimit {
			break
		}
	}
	return deduped, nil
}

func filters(opts Options) ([]string, []interface{}) {
	var conditions []string
	var args []interface{}
	if opts.Author != "" {
		conditions = append(conditions, "r.author = ?")
		args = append(args, opts.Author)
	}
	if opts.Since != "" {
		conditions = append(conditions, "r.date >= ?")
		args = append(args, opts.Since)
	}
	return conditions, args
}

func searchFTS(db *DB, opts Options) ([]Result, error) {
	conditions := []string{"rows_fts MATCH ?"}
	args := []interface{}{ftsQuery(opts.Query)}
	more, moreArgs := filters(opts)
	conditions = append(conditions, more...)
	args = append(args, moreArgs...)

	query := fmt.Sprintf(`
		SELECT
			r.change_id,
			r.run_id,
			r.date,
			r.time,
			r.author,
			r.action,
			r.file,
			r.jira_url,
			snippet(rows_fts, -1, '>>>', '<<<', '...', 16) AS snip,
			bm25(rows_fts, 1.0, 0.5, 0.5) AS rank
		FROM rows_fts
		JOIN change_rows r ON rows_fts.rowid = r.rowid
		WHERE %s
		ORDER BY rank
		LIMIT ?
	`, strings.Join(conditions, " AND "))
	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

func searchLike(db *DB, opts Options) ([]Result, error) {
	pattern := "%" + opts.Query + "%"
	conditions := []string{"(r.description LIKE ? OR r.file LIKE ? OR r.author LIKE ?)"}
	args := []interface{}{pattern, pattern, pattern}
	more, moreArgs := filters(opts)
	conditions = append(conditions, more...)
	args = append(args, moreArgs...)

	return queryPlain(db, opts, conditions, args)
}

func searchRecent(db *DB, opts Options) ([]Result, error) {
	conditions, args := filters(opts)
	if len(conditions) == 0 {
		conditions = []string{"1 = 1"}
	}
	return queryPlain(db, opts, conditions, args)
}

// queryPlain runs an unranked query, newest submits first, and builds
// snippets in Go.
func queryPlain(db *DB, opts Options, conditions []string, args []interface{}) ([]Result, error) {
	query := fmt.Sprintf(`
		SELECT
			r.change_id,
			r.run_id,
			r.date,
			r.time,
			r.author,
			r.action,
			r.file,
			r.jira_url,
			r.description
		FROM change_rows r
		JOIN runs u ON r.run_id = u.run_id
		WHERE %s
		ORDER BY r.date DESC, r.time DESC, u.created_at DESC
		LIMIT ?
	`, strings.Join(conditions, " AND "))
	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var description string
		if err := rows.Scan(
			&r.Change, &r.RunID, &r.Date, &r.Time,
			&r.Author, &r.Action, &r.File, &r.JiraURL,
			&description,
		); err != nil {
			return nil, err
		}
		r.Snippet = makeSnippet(description, opts.Query, 30)
		results = append(results, r)
	}
	return results, rows.Err()
}

func scanResults(rows *sql.Rows) ([]Result, error) {
	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(
			&r.Change, &r.RunID, &r.Date, &r.Time,
			&r.Author, &r.Action, &r.File, &r.JiraURL,
			&r.Snippet, &r.Rank,
		); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
