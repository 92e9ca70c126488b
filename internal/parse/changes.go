package parse

import (
	"regexp"
	"strings"
)

// changeLineRe matches `p4 changes` lines:
//
//	Change 101 on 2024/03/01 by alice@ws 'fix crash'
var changeLineRe = regexp.MustCompile(`^Change\s+(\d+)\s+on\s+(\d{4}/\d{2}/\d{2}(?:\s+\d{2}:\d{2}:\d{2})?)\s+by\s+(\S+)`)

// Changes extracts change numbers from `p4 changes` output in the order they
// appear. Lines that do not match are skipped.
func Changes(output string) []string {
	var ids []string
	for _, line := range splitLines(output) {
		m := changeLineRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		ids = append(ids, m[1])
	}
	return ids
}
