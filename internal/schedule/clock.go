package schedule

import "time"

// ResolveOpenSession determines which session, if any, is open at the given
// instant. Sessions are evaluated in fixed priority order (morning,
// afternoon, evening) and the first enabled session whose display range
// contains now wins; overlapping windows therefore silently prefer the
// earlier session. A row with no matching window resolves to not-open.
//
// Unparseable display ranges are treated as closed rather than surfaced as
// errors, matching how the front-desk display behaves with a misconfigured
// schedule.
func ResolveOpenSession(row WeeklySchedule, now time.Time) (Session, bool) {
	for _, s := range Sessions {
		w := row.Window(s)
		if !w.Enabled {
			continue
		}
		r, err := ParseTimeRange(w.TimeRange)
		if err != nil {
			continue
		}
		if r.Contains(now) {
			return s, true
		}
	}
	return "", false
}
