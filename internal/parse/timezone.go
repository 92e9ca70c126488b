package parse

import (
	"strings"
	"time"
)

const SubmittedLayout = "2006/01/02 15:04:05"

// ShiftSubmitted adds offset to a UTC submit time. On error the raw value is
// returned together with the error.
func ShiftSubmitted(s string, offset time.Duration) (string, error) {
	t, err := time.Parse(SubmittedLayout, s)
	if err != nil {
		return s, err
	}
	return t.Add(offset).Format(SubmittedLayout), nil
}

// SplitDateTime splits "date time" on the first space; without a space the
// whole value is the date.
func SplitDateTime(s string) (date, clock string) {
	date, clock, _ = strings.Cut(s, " ")
	return date, clock
}
