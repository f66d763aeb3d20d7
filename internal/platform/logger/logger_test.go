package logger

import (
	"strings"
	"testing"
)

func TestSanitizeValueRedactsSecretsAndSubmissionContent(t *testing.T) {
	if got := sanitizeValue("openai_api_key", "sk-123"); got != "[REDACTED]" {
		t.Fatalf("api key not redacted: %v", got)
	}
	if got := sanitizeValue("submission_content", "my essay"); got != "[REDACTED]" {
		t.Fatalf("content not redacted: %v", got)
	}
	if got := sanitizeValue("assignment_id", "abc"); got != "abc" {
		t.Fatalf("assignment id should pass through, got %v", got)
	}
}

func TestSanitizeValueHashesLearnerIDs(t *testing.T) {
	got, ok := sanitizeValue("student_id", "6f1c").(string)
	if !ok || !strings.HasPrefix(got, "hash:") {
		t.Fatalf("expected hashed student id, got %v", got)
	}
	again := sanitizeValue("student_id", "6f1c")
	if again != got {
		t.Fatalf("hash not stable: %v vs %v", again, got)
	}
}

func TestSanitizeKVsKeepsOddTrailingValue(t *testing.T) {
	out := sanitizeKVs([]interface{}{"status", "graded", "dangling"})
	if len(out) != 3 || out[2] != "dangling" {
		t.Fatalf("unexpected kvs: %v", out)
	}
}

func TestSanitizeKVsLeavesInputUntouched(t *testing.T) {
	in := []interface{}{"jwt_token", "abc", "meta", map[string]interface{}{"Password": "x", "route": "/api"}}
	out := sanitizeKVs(in)
	if in[1] != "abc" {
		t.Fatalf("input slice was modified: %v", in)
	}
	if out[1] != "[REDACTED]" {
		t.Fatalf("token not redacted: %v", out)
	}
	meta := out[3].(map[string]interface{})
	if meta["Password"] != "[REDACTED]" || meta["route"] != "/api" {
		t.Fatalf("nested map not sanitized: %v", meta)
	}
}
