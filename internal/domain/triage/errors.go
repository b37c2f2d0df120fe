package triage

import (
	"errors"
	"fmt"
)

// ErrRecursionLimit is returned when analysis would descend past the
// configured depth. The message is part of the output contract.
var ErrRecursionLimit = errors.New("max recursion depth exceeded")

// ErrNotExecutable marks an inspection target that is not a recognized
// executable format. Callers treat it as "no facts", not as a failure.
var ErrNotExecutable = errors.New("not a recognized executable")

// ExtractionReason enum
type ExtractionReason string

const (
	ReasonTraversal     ExtractionReason = "traversal-violation"
	ReasonCountExceeded ExtractionReason = "count-exceeded"
	ReasonBadContainer  ExtractionReason = "bad-container"
	ReasonNoExtractor   ExtractionReason = "no-extractor"
	ReasonScratchDir    ExtractionReason = "scratch-dir"
)

// ExtractionError is the typed failure of the archive safety layer. The
// caller never receives a partially populated directory alongside one.
type ExtractionError struct {
	Reason ExtractionReason
	Path   string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extraction failed (%s) for %s: %v", e.Reason, e.Path, e.Err)
	}
	return fmt.Sprintf("extraction failed (%s) for %s", e.Reason, e.Path)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// NewExtractionError constructor
func NewExtractionError(reason ExtractionReason, path string, err error) *ExtractionError {
	return &ExtractionError{Reason: reason, Path: path, Err: err}
}

// RelocationError: moving a claimed file into the processing area failed.
type RelocationError struct {
	From string
	To   string
	Err  error
}

func (e *RelocationError) Error() string {
	return fmt.Sprintf("relocation failed %s -> %s: %v", e.From, e.To, e.Err)
}

func (e *RelocationError) Unwrap() error { return e.Err }
