package domain

import "time"

// AlertKey identifies an alert category and is used as the throttling key.
type AlertKey string

const (
	AlertNodeLag          AlertKey = "node-lag"
	AlertMissedSignatures AlertKey = "missed-signatures"
	AlertUnknownError     AlertKey = "unknown-error"
)

// Alert is a request to page someone.
type Alert struct {
	Key      AlertKey
	Title    string
	Details  string
	Throttle time.Duration
	RaisedAt time.Time
}

// ResolvedKey returns the alert key, falling back to title+details when the
// key is empty.
func (a Alert) ResolvedKey() AlertKey {
	if a.Key != "" {
		return a.Key
	}
	return AlertKey(a.Title + a.Details)
}
