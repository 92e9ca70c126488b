package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIssueURLs(t *testing.T) {
	text := "Fix SOL-1 https://acme.atlassian.net/browse/SOL-1\n" +
		"see also http://acme.atlassian.net/browse/SOL-2 and https://github.com/x/y"

	urls := IssueURLs(text)
	assert.Equal(t, []string{
		"https://acme.atlassian.net/browse/SOL-1",
		"http://acme.atlassian.net/browse/SOL-2",
	}, urls)
	assert.Equal(t, "https://acme.atlassian.net/browse/SOL-1, http://acme.atlassian.net/browse/SOL-2", JoinIssueURLs(urls))
}

func TestIssueURLsNone(t *testing.T) {
	assert.Empty(t, IssueURLs("no links here"))
	// a bare host with nothing after it is not a link to an issue
	assert.Empty(t, IssueURLs("https://acme.atlassian.net"))
	assert.Equal(t, "", JoinIssueURLs(nil))
}

func TestIssueURLsStopAtUnicodeSpace(t *testing.T) {
	text := "see https://acme.atlassian.net/browse/SOL-1\u3000참고\n" +
		"and https://acme.atlassian.net/browse/SOL-2\u00a0x"

	assert.Equal(t, []string{
		"https://acme.atlassian.net/browse/SOL-1",
		"https://acme.atlassian.net/browse/SOL-2",
	}, IssueURLs(text))
}
