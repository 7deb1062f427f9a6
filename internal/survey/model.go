package survey

// LikertQuestion is a bounded 1-7 ordinal-scale item with custom endpoint
// labels.
type LikertQuestion struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	MinLabel string `json:"min_label"`
	MaxLabel string `json:"max_label"`
	Active   bool   `json:"active"`
}

// NumericQuestion is a free numeric-entry item with an optional unit label.
type NumericQuestion struct {
	ID       int64   `json:"id"`
	Question string  `json:"question"`
	Unit     *string `json:"unit,omitempty"`
	Active   bool    `json:"active"`
}

// Likert scores are fixed to a 1-7 scale.
const (
	LikertMin = 1
	LikertMax = 7
)

// Answers carries one appointment's complete survey submission, keyed by
// question id. Written exactly once, at booking commit.
type Answers struct {
	Likert  map[int64]int
	Numeric map[int64]string // decimal strings, one fractional digit
}
