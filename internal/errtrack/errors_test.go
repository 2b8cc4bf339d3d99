package errtrack

import (
	"errors"
	"testing"
)

func TestPatchErrorMessage(t *testing.T) {
	wrapped := errors.New("boom")
	e := New(KindVerificationFailed, "match quality too low", wrapped)

	if got, want := e.Error(), "match quality too low: boom"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(e.Unwrap(), wrapped) {
		t.Fatalf("Unwrap() did not return the wrapped error")
	}
}

func TestPatchErrorIsComparesKind(t *testing.T) {
	a := New(KindMalformed, "a", nil)
	b := New(KindMalformed, "different message", nil)
	c := New(KindTimeout, "c", nil)

	if !a.Is(b) {
		t.Fatalf("expected two PatchErrors of the same Kind to match via Is")
	}
	if a.Is(c) {
		t.Fatalf("expected PatchErrors of different Kinds not to match via Is")
	}
	if a.Is(errors.New("plain error")) {
		t.Fatalf("expected Is to reject a non-PatchError target")
	}
}

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		KindMalformed:            "Malformed",
		KindLargeOffset:          "LargeOffset",
		KindLowConfidence:        "LowConfidence",
		KindVerificationFailed:   "VerificationFailed",
		KindUnexpectedDuplicates: "UnexpectedDuplicates",
		KindPositionUndetermined: "PositionUndetermined",
		KindAlreadyApplied:       "AlreadyApplied",
		KindFileNotFound:         "FileNotFound",
		KindNewFileExists:        "NewFileExists",
		KindTimeout:              "Timeout",
		KindPipeline:             "Pipeline",
		Kind(999):                "Unknown",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", k, got, want)
		}
	}
}
