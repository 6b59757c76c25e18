package classification

import "time"

// Record types produced by the spam classifier.
const (
	TypeLegitimate = "legitimate"
	TypeSpam       = "spam"
	TypePhishing   = "phishing"
)

// Record is one immutable classification event for a user.
type Record struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	Type       string    `json:"type"`
	Confidence float64   `json:"confidence"`
	Text       string    `json:"text"`
	Timestamp  time.Time `json:"timestamp"`
	CreatedAt  time.Time `json:"createdAt"`
}

// DailyStat is one zero-filled row of the dashboard chart.
type DailyStat struct {
	Date       string `json:"date"`
	Legitimate int    `json:"legitimate"`
	Spam       int    `json:"spam"`
	Phishing   int    `json:"phishing"`
}

// Distribution aggregates per-type counts and average confidence over a range.
type Distribution struct {
	Legitimate    int            `json:"legitimate"`
	Spam          int            `json:"spam"`
	Phishing      int            `json:"phishing"`
	Total         int            `json:"total"`
	ConfidenceAvg ConfidenceAvgs `json:"confidenceAvg"`
}

// ConfidenceAvgs holds mean confidence per record type.
type ConfidenceAvgs struct {
	Legitimate float64 `json:"legitimate"`
	Spam       float64 `json:"spam"`
	Phishing   float64 `json:"phishing"`
}
