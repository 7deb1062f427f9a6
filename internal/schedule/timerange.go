package schedule

import (
	"errors"
	"strings"
	"time"
)

// ErrBadTimeRange reports an unparseable display range. Callers treat it as
// "session closed", never as a failure.
var ErrBadTimeRange = errors.New("schedule: unparseable time range")

// TimeRange is a same-day wall-clock window with inclusive endpoints.
type TimeRange struct {
	Start time.Duration // offset from midnight
	End   time.Duration
}

// ParseTimeRange parses display strings such as "09:00-12:00". Spaces are
// stripped and a full-width colon is normalized before splitting on "-",
// or "~" when no dash is present. Each half must be HH:MM.
func ParseTimeRange(raw string) (TimeRange, error) {
	clean := strings.ReplaceAll(raw, " ", "")
	clean = strings.ReplaceAll(clean, "：", ":")
	if clean == "" {
		return TimeRange{}, ErrBadTimeRange
	}

	var startStr, endStr string
	if i := strings.Index(clean, "-"); i >= 0 {
		startStr, endStr = clean[:i], clean[i+1:]
	} else if i := strings.Index(clean, "~"); i >= 0 {
		startStr, endStr = clean[:i], clean[i+1:]
	} else {
		return TimeRange{}, ErrBadTimeRange
	}

	start, err := parseClock(startStr)
	if err != nil {
		return TimeRange{}, ErrBadTimeRange
	}
	end, err := parseClock(endStr)
	if err != nil {
		return TimeRange{}, ErrBadTimeRange
	}
	return TimeRange{Start: start, End: end}, nil
}

// Contains reports whether the wall-clock time of t falls inside the range,
// both endpoints included. A range whose end precedes its start never
// contains anything; windows do not cross midnight.
func (r TimeRange) Contains(t time.Time) bool {
	offset := time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second
	return r.Start <= offset && offset <= r.End
}

func parseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
