package model

import "fmt"

// BackendStatus reports which optimizer source is authoritative for the
// current cycle.
type BackendStatus int

const (
	// StatusChecking is the entry state of every optimization cycle.
	StatusChecking BackendStatus = iota
	// StatusConnected means the remote optimizer answered the last cycle.
	StatusConnected
	// StatusFallback means the local heuristic produced the last result.
	StatusFallback
)

func (s BackendStatus) String() string {
	switch s {
	case StatusChecking:
		return "checking"
	case StatusConnected:
		return "connected"
	case StatusFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the status as its lowercase name.
func (s BackendStatus) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON decodes the lowercase name form.
func (s *BackendStatus) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"checking"`:
		*s = StatusChecking
	case `"connected"`:
		*s = StatusConnected
	case `"fallback"`:
		*s = StatusFallback
	default:
		return fmt.Errorf("unknown backend status: %s", data)
	}
	return nil
}
