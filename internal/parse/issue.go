package parse

import (
	"regexp"
	"strings"
)

// nonSpace excludes Unicode spaces too (NBSP, U+3000); RE2's \S is ASCII-only.
const nonSpace = `[^\s\p{Z}\x85\v\x1c-\x1f]`

var issueURLRe = regexp.MustCompile(`https?://` + nonSpace + `+atlassian\.net` + nonSpace + `+`)

// IssueURLs returns every Atlassian URL in text, in order of appearance.
func IssueURLs(text string) []string {
	return issueURLRe.FindAllString(text, -1)
}

// JoinIssueURLs is the combined value of the Jira column.
func JoinIssueURLs(urls []string) string {
	return strings.Join(urls, ", ")
}
