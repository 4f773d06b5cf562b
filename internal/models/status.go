package models

// Status classifies the outcome of a call to an external provider.
type Status int

const (
	// StatusOK means the provider answered and the value is authoritative.
	StatusOK Status = iota
	// StatusDegraded means a fallback value was produced; Reason explains why.
	StatusDegraded
	// StatusFailed means no value could be produced.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusDegraded:
		return "degraded"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}
