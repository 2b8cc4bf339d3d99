package errtrack

import "testing"

func floatPtr(f float32) *float32 { return &f }

func TestMostSpecificPrefersLaterStage(t *testing.T) {
	tr := NewTracker()
	tr.Record(1, Record{Stage: StageSystemPatch, Kind: KindTimeout})
	tr.Record(1, Record{Stage: StageDifflib, Kind: KindLowConfidence})
	tr.Record(1, Record{Stage: StageGitApply, Kind: KindMalformed})

	got, ok := tr.MostSpecific(1)
	if !ok {
		t.Fatalf("expected a record for hunk 1")
	}
	if got.Stage != StageDifflib || got.Kind != KindLowConfidence {
		t.Fatalf("MostSpecific = %+v, want the Difflib-stage record (highest priority)", got)
	}
}

func TestMostSpecificPrefersConfidenceThenLargerValue(t *testing.T) {
	tr := NewTracker()
	tr.Record(2, Record{Stage: StageDifflib, Kind: KindLowConfidence})
	tr.Record(2, Record{Stage: StageDifflib, Kind: KindVerificationFailed, Confidence: floatPtr(0.4)})
	tr.Record(2, Record{Stage: StageDifflib, Kind: KindUnexpectedDuplicates, Confidence: floatPtr(0.6)})

	got, ok := tr.MostSpecific(2)
	if !ok {
		t.Fatalf("expected a record for hunk 2")
	}
	if got.Kind != KindUnexpectedDuplicates {
		t.Fatalf("MostSpecific = %+v, want the record with the larger confidence", got)
	}
}

func TestMostSpecificNoRecords(t *testing.T) {
	tr := NewTracker()
	if _, ok := tr.MostSpecific(99); ok {
		t.Fatalf("expected no record for an untouched hunk")
	}
}

func TestAllMostSpecific(t *testing.T) {
	tr := NewTracker()
	tr.Record(1, Record{Stage: StageInit, Kind: KindFileNotFound})
	tr.Record(2, Record{Stage: StageDifflib, Kind: KindLargeOffset})

	all := tr.AllMostSpecific()
	if len(all) != 2 {
		t.Fatalf("len(AllMostSpecific()) = %d, want 2", len(all))
	}
	if all[1].Kind != KindFileNotFound || all[2].Kind != KindLargeOffset {
		t.Fatalf("AllMostSpecific() = %+v, unexpected contents", all)
	}
}

func TestStageString(t *testing.T) {
	cases := map[Stage]string{
		StageInit:        "Init",
		StageSystemPatch: "SystemPatch",
		StageGitApply:    "GitApply",
		StageDifflib:     "Difflib",
		StageLlmResolver: "LlmResolver",
		StageComplete:    "Complete",
		Stage(999):       "Unknown",
	}
	for s, want := range cases {
		if got := s.String(); got != want {
			t.Errorf("Stage(%d).String() = %q, want %q", s, got, want)
		}
	}
}
