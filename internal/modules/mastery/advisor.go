package mastery

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yungbote/neurobridge-grading/internal/platform/logger"
	"github.com/yungbote/neurobridge-grading/internal/platform/openai"
)

type ReteachRecommendation struct {
	StandardCode     string   `json:"standardCode"`
	Activities       []string `json:"activities"`
	GroupingStrategy string   `json:"groupingStrategy"`
}

type TierActivityInput struct {
	AssignmentTitle string
	Subject         string
	GradeLevel      string
	Instructions    string
	Report          TierReport
}

// Advisor produces optional teacher-facing suggestions. Callers treat its failures as non-fatal.
type Advisor interface {
	ReteachActivities(ctx context.Context, gaps []GapReport) ([]ReteachRecommendation, error)
	TierActivities(ctx context.Context, in TierActivityInput) (map[string]TierActivity, error)
}

type openAIAdvisor struct {
	ai  openai.Client
	log *logger.Logger
}

func NewOpenAIAdvisor(ai openai.Client, log *logger.Logger) Advisor {
	if log == nil {
		log = logger.Nop()
	}
	return &openAIAdvisor{ai: ai, log: log.With("service", "MasteryAdvisor")}
}

func (a *openAIAdvisor) ReteachActivities(ctx context.Context, gaps []GapReport) ([]ReteachRecommendation, error) {
	if a.ai == nil {
		return nil, fmt.Errorf("openai client required")
	}
	var lines []string
	for _, g := range gaps {
		if !g.IsGap {
			continue
		}
		below := make([]string, 0, len(g.StudentsBelow))
		for _, s := range g.StudentsBelow {
			below = append(below, fmt.Sprintf("%s (%s, %d%%)", orUnknown(s.StudentName), s.Level, s.Score))
		}
		lines = append(lines, fmt.Sprintf("Standard %s: %q - %d/%d students below proficient (avg score: %g). Students below: %s",
			g.StandardCode, g.StandardDescription, g.BelowProficientCount, g.ClassSize, g.AverageScore, strings.Join(below, ", ")))
	}
	if len(lines) == 0 {
		return []ReteachRecommendation{}, nil
	}

	system := "You are an experienced K-12 instructional coach. Generate specific, practical reteaching activity suggestions based on standards gap data. Each activity should be classroom-ready and take 15-45 minutes. Include student grouping strategies."
	user := "Here is the standards gap analysis for my class. Please suggest reteaching activities for the standards where more than half the class is below proficient.\n\n" + strings.Join(lines, "\n")

	obj, err := a.ai.GenerateJSON(ctx, system, user, "suggest_reteach_activities", reteachSchema())
	if err != nil {
		return nil, err
	}
	var out struct {
		Recommendations []ReteachRecommendation `json:"recommendations"`
	}
	if err := remarshal(obj, &out); err != nil {
		return nil, err
	}
	return out.Recommendations, nil
}

func (a *openAIAdvisor) TierActivities(ctx context.Context, in TierActivityInput) (map[string]TierActivity, error) {
	if a.ai == nil {
		return nil, fmt.Errorf("openai client required")
	}
	system := "You are an expert K-12 differentiation specialist. Given how a class performed on an assignment, design one follow-up activity per performance tier. Below-grade activities reteach the core objective with scaffolds, on-grade activities reinforce it, and above-grade activities extend it. Every activity keeps the same learning objective."

	var b strings.Builder
	fmt.Fprintf(&b, "Assignment: %s\nSubject: %s\nGrade level: %s\n", in.AssignmentTitle, in.Subject, in.GradeLevel)
	if s := strings.TrimSpace(in.Instructions); s != "" {
		fmt.Fprintf(&b, "Instructions: %s\n", s)
	}
	b.WriteString("\nTiers:\n")
	for _, t := range in.Report.Tiers {
		fmt.Fprintf(&b, "- %s: %d students, average %d%%\n", t.Level, t.StudentCount, t.AverageScore)
	}

	obj, err := a.ai.GenerateJSON(ctx, system, b.String(), "tier_follow_up_activities", tierActivitySchema())
	if err != nil {
		return nil, err
	}
	out := map[string]TierActivity{}
	if err := remarshal(obj, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func reteachSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"recommendations": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"standardCode":     map[string]any{"type": "string"},
						"activities":       map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": "2-3 specific classroom activities."},
						"groupingStrategy": map[string]any{"type": "string", "description": "Small group, pairs, or whole class mini-lesson."},
					},
					"required":             []any{"standardCode", "activities", "groupingStrategy"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"recommendations"},
		"additionalProperties": false,
	}
}

func tierActivitySchema() map[string]any {
	activity := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":        map[string]any{"type": "string"},
			"description":  map[string]any{"type": "string"},
			"instructions": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"required":             []any{"title", "description", "instructions"},
		"additionalProperties": false,
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			TierBelowGrade: activity,
			TierOnGrade:    activity,
			TierAboveGrade: activity,
		},
		"required":             []any{TierBelowGrade, TierOnGrade, TierAboveGrade},
		"additionalProperties": false,
	}
}

func remarshal(in map[string]any, out any) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("advisor output does not match schema: %w", err)
	}
	return nil
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Unknown"
	}
	return s
}
