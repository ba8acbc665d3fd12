package executor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWhen(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 30, 0, 0, time.UTC) // a Tuesday

	cases := []struct {
		in   string
		want time.Time
	}{
		{"2025-07-01T18:00:00Z", time.Date(2025, 7, 1, 18, 0, 0, 0, time.UTC)},
		{"2025-07-01 18:00", time.Date(2025, 7, 1, 18, 0, 0, 0, time.UTC)},
		{"2025-07-01", time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)},
		{"today", time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)},
		{"tomorrow", time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC)},
		{"tomorrow 19:00", time.Date(2025, 6, 11, 19, 0, 0, 0, time.UTC)},
		{"tomorrow at 19:00", time.Date(2025, 6, 11, 19, 0, 0, 0, time.UTC)},
		{"Tomorrow 3pm", time.Date(2025, 6, 11, 15, 0, 0, 0, time.UTC)},
		{"in 14 days", time.Date(2025, 6, 24, 0, 0, 0, 0, time.UTC)},
		{"in 2 weeks", time.Date(2025, 6, 24, 0, 0, 0, 0, time.UTC)},
		{"in 1 day 10:00", time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)},
		{"next monday 10:00", time.Date(2025, 6, 16, 10, 0, 0, 0, time.UTC)},
		{"friday", time.Date(2025, 6, 13, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		got, err := parseWhen(tc.in, now)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestParseWhenSameWeekdayMeansNextWeek(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC) // Tuesday
	got, err := parseWhen("tuesday", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 17, 0, 0, 0, 0, time.UTC), got)
}

func TestParseWhenRejectsGarbage(t *testing.T) {
	now := time.Now()
	for _, in := range []string{"", "whenever", "in soon", "yesterday-ish"} {
		_, err := parseWhen(in, now)
		assert.Error(t, err, in)
	}
}
