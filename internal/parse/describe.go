package parse

import (
	"regexp"
	"strings"
)

var (
	// Change 101 by alice@ws on 2024/03/01 10:00:00
	headerRe = regexp.MustCompile(`^Change\s+\d+\s+by\s+(\S+)@.*\s+on\s+(\d{4}/\d{2}/\d{2}(?:\s+\d{2}:\d{2}:\d{2})?)`)
	// ... //depot/foo.cpp#3 edit
	affectedRe = regexp.MustCompile(`^\s*\.\.\.\s+(//\S+)#\d+\s+(\w+)`)
)

const affectedMarker = "Affected files"

// Describe parses `p4 describe -s` output for change id. It returns nil when
// output is empty.
//
// Lines before the header are ignored. Every line after the header is part of
// the description until the "Affected files" marker; after the marker, file
// lines are grouped by action. A change without the marker keeps an empty
// action map.
func Describe(id, output string) *Changelist {
	if output == "" {
		return nil
	}

	cl := &Changelist{ID: id}
	var desc []string
	inAffected := false

	for _, line := range splitLines(output) {
		if !cl.HasHeader {
			m := headerRe.FindStringSubmatch(strings.TrimSpace(line))
			if m != nil {
				cl.Author = m[1]
				cl.Submitted = normalizeSubmitted(m[2])
				cl.HasHeader = true
			}
			continue
		}

		if !inAffected {
			if strings.Contains(line, affectedMarker) {
				inAffected = true
				cl.HasAffected = true
				continue
			}
			desc = append(desc, strings.TrimSpace(line))
			continue
		}

		if strings.TrimSpace(line) == "" {
			continue
		}
		if m := affectedRe.FindStringSubmatch(line); m != nil {
			cl.addFile(m[2], m[1])
		}
	}

	cl.Description = strings.TrimSpace(strings.Join(desc, "\n"))
	cl.IssueURLs = IssueURLs(cl.Description)
	return cl
}

// normalizeSubmitted collapses the date/time separator to one space and
// defaults a missing time of day to midnight.
func normalizeSubmitted(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 1 {
		return fields[0] + " 00:00:00"
	}
	return strings.Join(fields, " ")
}
