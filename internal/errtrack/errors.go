// Package errtrack implements the closed error taxonomy of spec.md §7 and
// the per-(hunk, stage) error tracker of §4.11, in the teacher's
// StagerError idiom: a typed error with a classification enum, Error(),
// Unwrap(), and Is().
package errtrack

import "fmt"

// Kind is the closed per-hunk/patch-level error taxonomy of spec.md §7.
type Kind int

const (
	KindUnknown Kind = iota
	KindMalformed
	KindLargeOffset
	KindLowConfidence
	KindVerificationFailed
	KindUnexpectedDuplicates
	KindPositionUndetermined
	KindAlreadyApplied
	KindFileNotFound
	KindNewFileExists
	KindTimeout
	KindPipeline
)

func (k Kind) String() string {
	switch k {
	case KindMalformed:
		return "Malformed"
	case KindLargeOffset:
		return "LargeOffset"
	case KindLowConfidence:
		return "LowConfidence"
	case KindVerificationFailed:
		return "VerificationFailed"
	case KindUnexpectedDuplicates:
		return "UnexpectedDuplicates"
	case KindPositionUndetermined:
		return "PositionUndetermined"
	case KindAlreadyApplied:
		return "AlreadyApplied"
	case KindFileNotFound:
		return "FileNotFound"
	case KindNewFileExists:
		return "NewFileExists"
	case KindTimeout:
		return "Timeout"
	case KindPipeline:
		return "Pipeline"
	default:
		return "Unknown"
	}
}

// PatchError is a structured error carrying the classification plus the
// detail a caller needs to act on it, mirroring the teacher's StagerError.
type PatchError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *PatchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *PatchError) Unwrap() error { return e.Err }

func (e *PatchError) Is(target error) bool {
	t, ok := target.(*PatchError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New constructs a PatchError of the given kind.
func New(kind Kind, message string, err error) *PatchError {
	return &PatchError{Kind: kind, Message: message, Err: err}
}
