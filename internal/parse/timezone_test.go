package parse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShiftSubmitted(t *testing.T) {
	got, err := ShiftSubmitted("2024/01/01 20:00:00", 9*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "2024/01/02 05:00:00", got)

	date, clock := SplitDateTime(got)
	assert.Equal(t, "2024/01/02", date)
	assert.Equal(t, "05:00:00", clock)
}

func TestShiftSubmittedYearBoundary(t *testing.T) {
	got, err := ShiftSubmitted("2023/12/31 15:30:00", 9*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "2024/01/01 00:30:00", got)
}

func TestShiftSubmittedInvalidKeepsRaw(t *testing.T) {
	got, err := ShiftSubmitted("yesterday", 9*time.Hour)
	assert.Error(t, err)
	assert.Equal(t, "yesterday", got)

	date, clock := SplitDateTime(got)
	assert.Equal(t, "yesterday", date)
	assert.Equal(t, "", clock)
}
