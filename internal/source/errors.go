package source

import "fmt"

// AuthError reports a failed login against one source. It never aborts the
// cycle; the collector folds it into the per-source failure map.
type AuthError struct {
	SourceID string
	Err      error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("source %s: authentication failed: %v", e.SourceID, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// FetchError reports a failed alarm listing against one source.
type FetchError struct {
	SourceID string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("source %s: fetch failed: %v", e.SourceID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
