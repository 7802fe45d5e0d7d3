package utils

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	want := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	for _, raw := range []string{"2024-03-05", "2024/03/05", "03/05/2024", "3/5/2024", "05-Mar-2024", "Mar 5, 2024", "March 5, 2024", " 2024-03-05 "} {
		t.Run(raw, func(t *testing.T) {
			got, err := ParseDate(raw)
			require.NoError(t, err)
			assert.True(t, want.Equal(got), "got %v", got)
		})
	}

	t.Run("rfc3339 keeps the time", func(t *testing.T) {
		got, err := ParseDate("2024-03-05T14:30:00Z")
		require.NoError(t, err)
		assert.Equal(t, 14, got.Hour())
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := ParseDate("next tuesday")
		assert.ErrorIs(t, err, ErrInvalidDate)
	})
}

func TestDaysBetween(t *testing.T) {
	start := time.Date(2024, 2, 28, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, DaysBetween(start, start.Add(30*time.Minute)))
	assert.Equal(t, 1, DaysBetween(start, start.Add(2*time.Hour)))
	assert.Equal(t, 2, DaysBetween(start, time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)))
	assert.Equal(t, -1, DaysBetween(start, time.Date(2024, 2, 27, 8, 0, 0, 0, time.UTC)))
}

func TestDaysBetween_DSTTransitions(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	tests := []struct {
		name       string
		start, end time.Time
		want       int
	}{
		// 2024-03-10 has 23 hours in New York
		{"spring forward", time.Date(2024, 3, 10, 0, 30, 0, 0, ny), time.Date(2024, 3, 11, 0, 30, 0, 0, ny), 1},
		{"spring forward late evening", time.Date(2024, 3, 9, 22, 0, 0, 0, ny), time.Date(2024, 3, 10, 23, 0, 0, 0, ny), 1},
		// 2024-11-03 has 25 hours
		{"fall back", time.Date(2024, 11, 3, 0, 30, 0, 0, ny), time.Date(2024, 11, 4, 0, 10, 0, 0, ny), 1},
		{"across both", time.Date(2024, 3, 1, 9, 0, 0, 0, ny), time.Date(2024, 11, 30, 9, 0, 0, 0, ny), 274},
		{"end in another zone", time.Date(2024, 3, 10, 20, 0, 0, 0, ny), time.Date(2024, 3, 11, 1, 0, 0, 0, time.UTC), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysBetween(tt.start, tt.end))
		})
	}

	now := time.Date(2024, 3, 9, 20, 0, 0, 0, ny)
	assert.Equal(t, "Tomorrow", RelativeDayLabel(now, time.Date(2024, 3, 10, 21, 0, 0, 0, ny)))
}

func TestRelativeDayLabel(t *testing.T) {
	now := time.Date(2024, 6, 10, 18, 0, 0, 0, time.UTC)

	tests := []struct {
		offsetDays int
		want       string
	}{
		{0, "Today"},
		{1, "Tomorrow"},
		{-1, "Yesterday"},
		{4, "4 days"},
		{-3, "3 days ago"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, RelativeDayLabel(now, now.AddDate(0, 0, tt.offsetDays)))
		})
	}
}
