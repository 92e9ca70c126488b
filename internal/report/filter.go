package report

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/Zuo-Peng/p4-changelist-report/internal/parse"
)

// AuthorFilter reports whether a change by author should be left out.
type AuthorFilter func(author string) bool

// ExcludeAuthorPrefixes drops authors whose handle starts with any of the
// prefixes, ignoring case. With no prefixes nothing is dropped.
func ExcludeAuthorPrefixes(prefixes ...string) AuthorFilter {
	lowered := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			lowered = append(lowered, p)
		}
	}
	return func(author string) bool {
		a := strings.ToLower(author)
		for _, p := range lowered {
			if strings.HasPrefix(a, p) {
				return true
			}
		}
		return false
	}
}

// FileFilter drops affected files whose depot path matches a pattern.
type FileFilter struct {
	patterns []string
}

func NewFileFilter(patterns ...string) *FileFilter {
	return &FileFilter{patterns: patterns}
}

func (f *FileFilter) ignored(depotPath string) bool {
	if f == nil {
		return false
	}
	for _, p := range f.patterns {
		if ok, _ := doublestar.Match(p, depotPath); ok {
			return true
		}
	}
	return false
}

// Apply removes ignored files in place; actions left without files are
// removed too.
func (f *FileFilter) Apply(cl *parse.Changelist) {
	if f == nil || len(f.patterns) == 0 || cl == nil {
		return
	}
	var actions []string
	for _, action := range cl.Actions {
		var kept []parse.AffectedFile
		for _, file := range cl.Files[action] {
			if !f.ignored(file.DepotPath) {
				kept = append(kept, file)
			}
		}
		if len(kept) == 0 {
			delete(cl.Files, action)
			continue
		}
		cl.Files[action] = kept
		actions = append(actions, action)
	}
	cl.Actions = actions
}
