package assembly

import "fmt"

// SynthesisError is a failed synthesis call for one labeled segment.
// Segments built before the failure are untouched.
type SynthesisError struct {
	Label string
	Err   error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesize %s: %v", e.Label, e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// StateError is an operation addressing a segment that does not exist.
type StateError struct {
	Reason string
}

func (e *StateError) Error() string {
	return "assembly state: " + e.Reason
}
