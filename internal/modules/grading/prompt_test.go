package grading

import (
	"strings"
	"testing"

	types "github.com/yungbote/neurobridge-grading/internal/domain/grading"
)

func TestBuildSystemPrompt(t *testing.T) {
	r := testRubric()
	a := &types.Assignment{Title: "Later start", Subject: "ELA", GradeLevel: "8"}

	withGuidance, err := buildSystemPrompt("Be direct.", "Focus on citations.", r, a)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	for _, want := range []string{
		"expert K-12 teacher",
		"FEEDBACK TONE:\nBe direct.",
		"TEACHER GUIDANCE:\nFocus on citations.",
		`"maxScore":40`,
		`"title":"Later start"`,
		r.Criteria[1].ID.String(),
	} {
		if !strings.Contains(withGuidance, want) {
			t.Fatalf("system prompt missing %q", want)
		}
	}

	without, err := buildSystemPrompt("Be direct.", "  ", r, a)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if strings.Contains(without, "TEACHER GUIDANCE") {
		t.Fatalf("blank guidance should not render a section")
	}

	again, _ := buildSystemPrompt("Be direct.", "  ", r, a)
	if again != without {
		t.Fatalf("system prompt must be deterministic for prompt caching")
	}
}

func TestBuildUserPrompt(t *testing.T) {
	if got := buildUserPrompt("  my essay \n"); got != "Grade this student's work:\n\nmy essay" {
		t.Fatalf("unexpected user prompt %q", got)
	}
}

func TestGradeSchemaIsStrict(t *testing.T) {
	r := testRubric()
	s := gradeSchema(r)
	if s["additionalProperties"] != false {
		t.Fatalf("top-level schema must forbid extra keys")
	}
	props := s["properties"].(map[string]any)
	required := s["required"].([]any)
	if len(required) != len(props) {
		t.Fatalf("strict schemas require every property: %d required, %d properties", len(required), len(props))
	}
	items := props["criterionScores"].(map[string]any)["items"].(map[string]any)
	level := items["properties"].(map[string]any)["level"].(map[string]any)
	if enum, ok := level["enum"].([]any); !ok || len(enum) != 4 {
		t.Fatalf("level should be constrained to rubric levels: %v", level)
	}
	desc := props["criterionScores"].(map[string]any)["description"].(string)
	if !strings.Contains(desc, `"Thesis"`) || !strings.Contains(desc, "maxScore: 60") {
		t.Fatalf("criteria description should enumerate rubric criteria: %s", desc)
	}
}
