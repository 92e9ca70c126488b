package parse

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const describeOutput = `Change 101 by alice@alice-ws on 2024/03/01 10:00:00

	Fix crash on load
	https://acme.atlassian.net/browse/SOL-12

Affected files ...

... //depot/src/foo.cpp#3 edit
... //depot/src/foo.h#2 edit
... //depot/src/new.cpp#1 add
... //depot/old/gone.cpp#7 delete
... //depot/src/bar.cpp#5 edit
`

func TestDescribeGroupsFilesByAction(t *testing.T) {
	cl := Describe("101", describeOutput)
	require.NotNil(t, cl)

	assert.Equal(t, "101", cl.ID)
	assert.Equal(t, "alice", cl.Author)
	assert.Equal(t, "2024/03/01 10:00:00", cl.Submitted)
	assert.Equal(t, "Fix crash on load\nhttps://acme.atlassian.net/browse/SOL-12", cl.Description)
	assert.True(t, cl.HasHeader)
	assert.True(t, cl.HasAffected)
	assert.Equal(t, []string{"edit", "add", "delete"}, cl.Actions)
	assert.Equal(t, 5, cl.FileCount())

	var edits []string
	for _, f := range cl.Files["edit"] {
		edits = append(edits, f.Name())
	}
	if diff := cmp.Diff([]string{"foo.cpp", "foo.h", "bar.cpp"}, edits); diff != "" {
		t.Errorf("edit files mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "//depot/old/gone.cpp", cl.Files["delete"][0].DepotPath)
	assert.Equal(t, []string{"https://acme.atlassian.net/browse/SOL-12"}, cl.IssueURLs)
}

func TestDescribeEmptyOutput(t *testing.T) {
	assert.Nil(t, Describe("1", ""))
}

func TestDescribeIgnoresLinesBeforeHeader(t *testing.T) {
	out := "warning: something\nnoise line\n" +
		"Change 7 by bob@ws on 2024/01/05\n\tdoc tweak\nAffected files ...\n... //depot/a.txt#2 edit\n"

	cl := Describe("7", out)
	require.NotNil(t, cl)
	assert.Equal(t, "bob", cl.Author)
	assert.Equal(t, "2024/01/05 00:00:00", cl.Submitted)
	assert.Equal(t, "doc tweak", cl.Description)
	assert.Equal(t, []string{"edit"}, cl.Actions)
}

func TestDescribeWithoutAffectedMarker(t *testing.T) {
	out := "Change 8 by carol@ws on 2024/01/05 09:30:00\n\n\tjust text\n\tmore text\n"

	cl := Describe("8", out)
	require.NotNil(t, cl)
	assert.True(t, cl.HasHeader)
	assert.False(t, cl.HasAffected)
	assert.Empty(t, cl.Actions)
	assert.Zero(t, cl.FileCount())
	assert.Equal(t, "just text\nmore text", cl.Description)
}

func TestDescribeWithoutHeader(t *testing.T) {
	cl := Describe("9", "Affected files ...\n... //depot/a.txt#1 add\n")
	require.NotNil(t, cl)
	assert.False(t, cl.HasHeader)
	assert.Empty(t, cl.Author)
	assert.Empty(t, cl.Description)
	assert.Empty(t, cl.Actions)
}

func TestDescribeSkipsUnparseableFileLines(t *testing.T) {
	out := "Change 10 by dave@ws on 2024/02/02 01:02:03\n\tx\nAffected files ...\n\n" +
		"... //depot/a b.txt#1 add\n" +
		"garbage\n" +
		"   ...   //depot/dir/ok.txt#12   move_add\n" +
		"... //depot/dir#hash/c.txt#4 integrate\n" +
		"... //depot/new/d.txt#1 move/add\n" +
		"... //depot/old/d.txt#3 move/delete\n"

	cl := Describe("10", out)
	require.NotNil(t, cl)
	// move/add and move/delete share the "move" action
	assert.Equal(t, []string{"move_add", "integrate", "move"}, cl.Actions)
	assert.Len(t, cl.Files["move"], 2)
	assert.Equal(t, "//depot/new/d.txt", cl.Files["move"][0].DepotPath)
	assert.Equal(t, "ok.txt", cl.Files["move_add"][0].Name())
	assert.Equal(t, "c.txt", cl.Files["integrate"][0].Name())
}

func TestDescribeAuthorStopsAtLastAt(t *testing.T) {
	cl := Describe("11", "Change 11 by svc@corp@build-ws on 2024/02/02 01:02:03 *pending*\n")
	require.NotNil(t, cl)
	assert.Equal(t, "svc@corp", cl.Author)
}

func TestDescribeCRLF(t *testing.T) {
	out := "Change 12 by erin@ws on 2024/02/02 01:02:03\r\n\r\n\tline one\r\nAffected files ...\r\n... //depot/x.cs#1 add\r\n"

	cl := Describe("12", out)
	require.NotNil(t, cl)
	assert.Equal(t, "line one", cl.Description)
	assert.Equal(t, "x.cs", cl.Files["add"][0].Name())
}
