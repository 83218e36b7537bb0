package cmd

import (
	"testing"
	"time"
)

func TestParseTime(t *testing.T) {
	now := time.Date(2024, time.March, 15, 10, 30, 0, 0, time.UTC)
	testCases := []struct {
		in   string
		want time.Time
	}{
		{"", now},
		{"now", now},
		{"0d", now},
		{"-3d", time.Date(2024, time.March, 12, 10, 30, 0, 0, time.UTC)},
		{"+1d", time.Date(2024, time.March, 16, 10, 30, 0, 0, time.UTC)},
		{"-2w", time.Date(2024, time.March, 1, 10, 30, 0, 0, time.UTC)},
		{"-1m", time.Date(2024, time.February, 15, 10, 30, 0, 0, time.UTC)},
		{"-1y", time.Date(2023, time.March, 15, 10, 30, 0, 0, time.UTC)},
		{"2024-01-02", time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC)},
		{"2024-01-02 15:04", time.Date(2024, time.January, 2, 15, 4, 0, 0, time.UTC)},
		{"2024-01-02 15:04:05", time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)},
		{"2024-01-02T15:04:05+01:00", time.Date(2024, time.January, 2, 14, 4, 5, 0, time.UTC)},
	}
	for _, tc := range testCases {
		got, err := parseTime(tc.in, now)
		if err != nil {
			t.Errorf("parseTime(%q) returned error: %v", tc.in, err)
			continue
		}
		if !got.Equal(tc.want) {
			t.Errorf("parseTime(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseTimeErrors(t *testing.T) {
	for _, in := range []string{"yesterday", "-3x", "2024-13-01", "01/02/2024"} {
		if _, err := parseTime(in, time.Now()); err == nil {
			t.Errorf("parseTime(%q) returned no error", in)
		}
	}
}
