package testutil

import (
	"testing"
	"time"
)

func TestHooksRecorderCapturesSignals(t *testing.T) {
	h := &HooksRecorder{}
	h.ObserveOperation("Grading.Submission.Claim", "conflict", 2*time.Millisecond)
	h.ObserveOperation("Grading.Submission.Claim", "success", time.Millisecond)
	h.IncConflict("Grading.Submission.Claim")
	h.IncRetry("Grading.Submission.Commit")
	h.IncRetry("Grading.Submission.Commit")

	if got := h.LastStatus("Grading.Submission.Claim"); got != "success" {
		t.Fatalf("want last status success got %q", got)
	}
	if h.LastStatus("Grading.Submission.Commit") != "" {
		t.Fatalf("unobserved op should have no status")
	}
	if h.ConflictCount() != 1 || h.RetryCount() != 2 {
		t.Fatalf("unexpected tallies: %s", h)
	}
}
