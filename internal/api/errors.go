package api

import "fmt"

// NetworkError wraps a failed or rejected request against the update
// authority. Callers use errors.As to distinguish transport failures from
// integrity or contract failures.
type NetworkError struct {
	Op         string // logical operation, e.g. "check", "delta"
	URL        string
	StatusCode int   // 0 when the request never completed
	Err        error // underlying transport error, may be nil
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: unexpected status %d", e.Op, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether the error is an HTTP 404 from the authority.
// The delta planner uses this to decide when the legacy endpoint shape
// should be tried.
func (e *NetworkError) IsNotFound() bool {
	return e.StatusCode == 404
}
