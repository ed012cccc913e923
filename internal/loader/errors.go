package loader

import "fmt"

// InitError reports a failed query setup. The session is not started.
type InitError struct {
	Err error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("query init failed: %v", e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// LoadError reports an unrecoverable mid-session failure. The session is
// aborted; partial results are retained and remain exportable.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("progressive load failed: %v", e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
