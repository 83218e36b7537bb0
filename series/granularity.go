package series

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Granularity is the bucket size inferred from the smallest step between two
// consecutive timestamps of a series.
type Granularity int

const (
	Second Granularity = iota
	Minute
	Hour
	Day
	Week
	Month
	Year
)

const (
	minuteSeconds = 60
	hourSeconds   = 60 * minuteSeconds
	daySeconds    = 24 * hourSeconds
)

func (g Granularity) String() string {
	switch g {
	case Second:
		return "second"
	case Minute:
		return "minute"
	case Hour:
		return "hour"
	case Day:
		return "day"
	case Week:
		return "week"
	case Month:
		return "month"
	case Year:
		return "year"
	default:
		return fmt.Sprintf("granularity(%d)", int(g))
	}
}

// ParseGranularity parses the name of a granularity, singular or adverbial ("day", "daily").
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "second", "s":
		return Second, nil
	case "minute", "m":
		return Minute, nil
	case "hour", "hourly", "h":
		return Hour, nil
	case "day", "daily", "d":
		return Day, nil
	case "week", "weekly", "w":
		return Week, nil
	case "month", "monthly":
		return Month, nil
	case "year", "yearly", "y":
		return Year, nil
	default:
		return Second, fmt.Errorf("unknown granularity %q", s)
	}
}

// Of buckets a step, in seconds, into a Granularity.
func Of(step int64) Granularity {
	switch {
	case step >= 365*daySeconds:
		return Year
	case step >= 28*daySeconds:
		return Month
	case step >= 5*daySeconds:
		return Week
	case step >= daySeconds:
		return Day
	case step >= hourSeconds:
		return Hour
	case step >= minuteSeconds:
		return Minute
	default:
		return Second
	}
}

// minStep returns the smallest delta between consecutive timestamps of an
// ascending axis. Axes with fewer than two timestamps have no step and
// report math.MaxInt64.
func minStep(times []int64) int64 {
	step := int64(math.MaxInt64)
	for i := 1; i < len(times); i++ {
		if d := times[i] - times[i-1]; d > 0 && d < step {
			step = d
		}
	}
	return step
}

// Truncate snaps a Unix timestamp to the start of its bucket, in UTC.
// Weeks start on Monday.
func (g Granularity) Truncate(t int64) int64 {
	u := time.Unix(t, 0).UTC()
	y, m, d := u.Date()
	switch g {
	case Second:
		return t
	case Minute:
		return time.Date(y, m, d, u.Hour(), u.Minute(), 0, 0, time.UTC).Unix()
	case Hour:
		return time.Date(y, m, d, u.Hour(), 0, 0, 0, time.UTC).Unix()
	case Day:
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix()
	case Week:
		offset := int(u.Weekday() - time.Monday)
		for offset < 0 {
			offset += 7
		}
		return time.Date(y, m, d-offset, 0, 0, 0, 0, time.UTC).Unix()
	case Month:
		return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC).Unix()
	case Year:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC).Unix()
	default:
		panic("unknown granularity")
	}
}
