package cmd

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var relativeRE = regexp.MustCompile(`^([+-]?)(\d+)([dwmy])$`)

var layouts = []string{time.RFC3339, time.DateTime, "2006-01-02 15:04", time.DateOnly}

// parseTime parses an absolute date and time (UTC unless an offset is
// given), "now", or a date relative to now like "-3d", "-2w", "-1m", "-1y"
// ("0d" is now).
func parseTime(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "now" {
		return now, nil
	}
	if m := relativeRE.FindStringSubmatch(s); m != nil {
		n, err := strconv.Atoi(m[2])
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid number in relative date %q: %w", s, err)
		}
		if m[1] == "-" {
			n = -n
		}
		switch m[3] {
		case "d":
			return now.AddDate(0, 0, n), nil
		case "w":
			return now.AddDate(0, 0, 7*n), nil
		case "m":
			return now.AddDate(0, n, 0), nil
		case "y":
			return now.AddDate(n, 0, 0), nil
		}
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD[ HH:MM[:SS]], RFC 3339 or a relative date like -3d", s)
}
