package ratelimit

import "time"

type Severity string

const (
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

const (
	DefaultAbuseRatio = 1.5
	DefaultHighRatio  = 2.0
)

// AbuseAlert records one gross overage. Alerts are write-once.
type AbuseAlert struct {
	Identifier string    `json:"identifier"`
	Endpoint   string    `json:"endpoint"`
	Requests   int       `json:"requests"`
	Limit      int       `json:"limit"`
	Timestamp  time.Time `json:"timestamp"`
	Severity   Severity  `json:"severity"`
}

// ClassifyOverage reports whether current is abusive for limit and how bad it is.
// current must strictly exceed limit*abuseRatio; above limit*highRatio it is high.
func ClassifyOverage(current, limit int, abuseRatio, highRatio float64) (Severity, bool) {
	if limit <= 0 || float64(current) <= float64(limit)*abuseRatio {
		return "", false
	}
	if float64(current) > float64(limit)*highRatio {
		return SeverityHigh, true
	}
	return SeverityMedium, true
}
