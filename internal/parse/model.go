package parse

import "strings"

// Changelist is one parsed `p4 describe -s` block.
type Changelist struct {
	ID          string
	Author      string
	Submitted   string // "2006/01/02 15:04:05", UTC wall clock
	Description string
	IssueURLs   []string
	HasHeader   bool
	HasAffected bool     // "Affected files" marker seen
	Actions     []string // first-seen order
	Files       map[string][]AffectedFile
}

type AffectedFile struct {
	DepotPath string // "//depot/dir/name.ext"
	Action    string
}

// Name is the path component after the last "/".
func (f AffectedFile) Name() string {
	return f.DepotPath[strings.LastIndex(f.DepotPath, "/")+1:]
}

// FileCount is the number of affected files over all actions.
func (c *Changelist) FileCount() int {
	n := 0
	for _, files := range c.Files {
		n += len(files)
	}
	return n
}

func (c *Changelist) addFile(action, depotPath string) {
	if c.Files == nil {
		c.Files = make(map[string][]AffectedFile)
	}
	if _, ok := c.Files[action]; !ok {
		c.Actions = append(c.Actions, action)
	}
	c.Files[action] = append(c.Files[action], AffectedFile{DepotPath: depotPath, Action: action})
}

// splitLines splits on \n, \r\n and \r without yielding a trailing empty line.
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
