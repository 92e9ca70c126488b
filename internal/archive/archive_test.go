package archive

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/p4-changelist-report/internal/report"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "nested", "p4cl.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

func fixtureRows() []report.Row {
	return []report.Row{
		{Change: "101", Date: "2024/03/01", Time: "19:00:00", Author: "alice",
			Description: "SOL-1 Fix crash in asset loader", Action: "edit", File: "loader.cpp",
			JiraURL: "https://acme.atlassian.net/browse/SOL-1"},
		{Change: "101", Date: "2024/03/01", Time: "19:00:00", Author: "alice",
			Description: "SOL-1 Fix crash in asset loader", Action: "add", File: "loader_test.cpp",
			JiraURL: "https://acme.atlassian.net/browse/SOL-1"},
		{Change: "102", Date: "2024/03/05", Time: "09:30:00", Author: "minsu",
			Description: "로더 크래시 수정", Action: "edit", File: "loader.h"},
		{Change: "103", Date: "2024/02/20", Time: "11:00:00", Author: "bob",
			Description: "Update build scripts", Action: "delete", File: "old.sh"},
	}
}

func TestRecordRunAndCounts(t *testing.T) {
	db := openTestDB(t)

	run := NewRun("//Sol/Dev1/...", "2024/02/20:00:00:00", "2024/03/06:00:00:00", "build_history.xlsx")
	require.NotEmpty(t, run.ID)
	require.NoError(t, db.RecordRun(run, fixtureRows()))

	runs, err := db.RunCount()
	require.NoError(t, err)
	assert.Equal(t, 1, runs)

	rows, err := db.RowCount()
	require.NoError(t, err)
	assert.Equal(t, 4, rows)

	fts, err := db.FTSCount()
	require.NoError(t, err)
	assert.Equal(t, rows, fts)
}

func TestListRunsNewestFirst(t *testing.T) {
	db := openTestDB(t)

	older := NewRun("//Sol/Dev1/...", "", "", "a.xlsx")
	older.CreatedAt = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	newer := NewRun("//Sol/Dev2/...", "", "", "b.xlsx")
	newer.CreatedAt = time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)

	require.NoError(t, db.RecordRun(older, fixtureRows()[:1]))
	require.NoError(t, db.RecordRun(newer, fixtureRows()))

	runs, err := db.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, newer.ID, runs[0].ID)
	assert.Equal(t, "//Sol/Dev2/...", runs[0].Depot)
	assert.Equal(t, 4, runs[0].RowCount)
	assert.True(t, runs[0].CreatedAt.Equal(newer.CreatedAt))
	assert.Equal(t, 1, runs[1].RowCount)

	runs, err = db.ListRuns(1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestChangeRowsUsesLatestRun(t *testing.T) {
	db := openTestDB(t)

	first := NewRun("//Sol/Dev1/...", "", "", "a.xlsx")
	first.CreatedAt = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.RecordRun(first, fixtureRows()[:1]))

	second := NewRun("//Sol/Dev1/...", "", "", "a.xlsx")
	second.CreatedAt = time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.RecordRun(second, fixtureRows()[:2]))

	rows, err := db.ChangeRows("101")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "edit", rows[0].Action)
	assert.Equal(t, "add", rows[1].Action)
	assert.Equal(t, fixtureRows()[1], rows[1])

	rows, err = db.ChangeRows("999")
	require.NoError(t, err)
	assert.Nil(t, rows)
}

func TestSearchFTS(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.RecordRun(NewRun("//Sol/Dev1/...", "", "", ""), fixtureRows()))

	results, err := Search(db, Options{Query: "crash"})
	require.NoError(t, err)
	require.Len(t, results, 1, "rows of one change collapse into one result")
	assert.Equal(t, "101", results[0].Change)
	assert.Contains(t, results[0].Snippet, ">>>crash<<<")
	assert.Equal(t, "https://acme.atlassian.net/browse/SOL-1", results[0].JiraURL)

	// file names are indexed too: loader.h tokenizes to "loader"
	results, err = Search(db, Options{Query: "loader"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"101", "102"}, changes(results))

	results, err = Search(db, Options{Query: "scripts", Author: "alice"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchFileNamesAndIssueKeys(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.RecordRun(NewRun("//Sol/Dev1/...", "", "", ""), fixtureRows()))

	for query, want := range map[string][]string{
		"loader.cpp":   {"101"},
		"SOL-1":        {"101"},
		"old.sh":       {"103"},
		"crash OR old": {"101", "103"},
		"build*":       {"103"},
	} {
		results, err := Search(db, Options{Query: query})
		require.NoError(t, err, query)
		assert.ElementsMatch(t, want, changes(results), query)
	}
}

func TestFTSQuery(t *testing.T) {
	assert.Equal(t, `"loader.cpp"`, ftsQuery("loader.cpp"))
	assert.Equal(t, `"SOL-1" AND "crash"`, ftsQuery("SOL-1 AND crash"))
	assert.Equal(t, `"AND" "x"`, ftsQuery("AND x"))
	assert.Equal(t, `"a" OR "AND" "b"`, ftsQuery("a OR AND b"))
	assert.Equal(t, `"say" """hi"""`, ftsQuery(`say "hi"`))
	assert.Equal(t, `"bui"*`, ftsQuery("bui*"))
}

func TestSearchHangulFallsBackToLike(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.RecordRun(NewRun("//Sol/Dev1/...", "", "", ""), fixtureRows()))

	results, err := Search(db, Options{Query: "크래시"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "102", results[0].Change)
	assert.Equal(t, "minsu", results[0].Author)
	assert.Contains(t, results[0].Snippet, ">>>크래시<<<")
}

func TestSearchRecentWithFilters(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.RecordRun(NewRun("//Sol/Dev1/...", "", "", ""), fixtureRows()))

	results, err := Search(db, Options{})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, []string{"102", "101", "103"}, changes(results))

	results, err = Search(db, Options{Since: "2024-03-01"})
	require.NoError(t, err)
	assert.Equal(t, []string{"102", "101"}, changes(results))

	results, err = Search(db, Options{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"102"}, changes(results))
}

func TestNeedsLike(t *testing.T) {
	assert.False(t, needsLike("crash loader"))
	assert.True(t, needsLike("크래시"))
	assert.True(t, needsLike("修正"))
	assert.True(t, needsLike("カタカナ"))
}

func TestMakeSnippet(t *testing.T) {
	assert.Equal(t, "fix >>>Crash<<< now", makeSnippet("fix\nCrash now", "crash", 10))
	assert.Equal(t, "abcd...", makeSnippet("abcdefgh", "zz", 2))
	assert.Equal(t, "...cd >>>ef<<< gh...", makeSnippet("ab cd ef gh ij", "ef", 3))

	// KELVIN SIGN lowers to a one-byte "k"; the match must stay on rune positions
	assert.Equal(t, "... fix >>>loader<<<", makeSnippet("\u212a\u212a\u212a\u212a fix loader", "loader", 5))
	assert.Equal(t, ">>>\u212a<<<", makeSnippet("\u212a", "k", 5))
}

func changes(results []Result) []string {
	var out []string
	for _, r := range results {
		out = append(out, r.Change)
	}
	return out
}
