package model

import "fmt"

// SynthesisError reports a failed gateway call. Op names the operation
// (briefing, draft, chat); Err is the transport or parse failure.
type SynthesisError struct {
	Op  string
	Err error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("%s synthesis: %v", e.Op, e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// missingFieldError names a required field absent from a model response.
type missingFieldError struct {
	Path string
}

func (e *missingFieldError) Error() string {
	return "missing required field " + e.Path
}
