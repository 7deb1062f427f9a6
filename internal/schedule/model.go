package schedule

import "time"

// Session identifies one of the three daily clinic sessions.
type Session string

const (
	SessionMorning   Session = "morning"
	SessionAfternoon Session = "afternoon"
	SessionEvening   Session = "evening"
)

// Sessions lists the sessions in their fixed priority order. The session
// clock and every slot listing iterate in this order.
var Sessions = []Session{SessionMorning, SessionAfternoon, SessionEvening}

// Valid reports whether s is one of the three known sessions.
func (s Session) Valid() bool {
	switch s {
	case SessionMorning, SessionAfternoon, SessionEvening:
		return true
	}
	return false
}

// Weekday converts t to the schedule's weekday index, 0 = Monday through
// 6 = Sunday.
func Weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// WeeklySchedule is one weekday's recurring template: which sessions run,
// their booking capacity, and the display time-range strings.
type WeeklySchedule struct {
	Weekday           int    `json:"weekday"`
	MorningEnabled    bool   `json:"morning_enabled"`
	AfternoonEnabled  bool   `json:"afternoon_enabled"`
	EveningEnabled    bool   `json:"evening_enabled"`
	MorningCapacity   int    `json:"morning_capacity"`
	AfternoonCapacity int    `json:"afternoon_capacity"`
	EveningCapacity   int    `json:"evening_capacity"`
	MorningTime       string `json:"morning_time"`
	AfternoonTime     string `json:"afternoon_time"`
	EveningTime       string `json:"evening_time"`
}

// SessionWindow is one session's view of a WeeklySchedule row.
type SessionWindow struct {
	Session   Session `json:"session"`
	Enabled   bool    `json:"enabled"`
	Capacity  int     `json:"capacity"`
	TimeRange string  `json:"time_range"`
}

// Window returns the named session's slice of the row.
func (w WeeklySchedule) Window(s Session) SessionWindow {
	out := SessionWindow{Session: s}
	switch s {
	case SessionMorning:
		out.Enabled, out.Capacity, out.TimeRange = w.MorningEnabled, w.MorningCapacity, w.MorningTime
	case SessionAfternoon:
		out.Enabled, out.Capacity, out.TimeRange = w.AfternoonEnabled, w.AfternoonCapacity, w.AfternoonTime
	case SessionEvening:
		out.Enabled, out.Capacity, out.TimeRange = w.EveningEnabled, w.EveningCapacity, w.EveningTime
	}
	return out
}

// Windows returns all three session views in priority order.
func (w WeeklySchedule) Windows() []SessionWindow {
	out := make([]SessionWindow, 0, len(Sessions))
	for _, s := range Sessions {
		out = append(out, w.Window(s))
	}
	return out
}
