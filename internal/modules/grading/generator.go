package grading

import (
	"context"

	types "github.com/yungbote/neurobridge-grading/internal/domain/grading"
)

// GenerateRequest is everything the generator sees for one submission.
type GenerateRequest struct {
	SubmissionID    string
	Rubric          *types.Rubric
	Assignment      *types.Assignment
	Content         string
	Tone            string
	TeacherGuidance string

	// CacheKey lets batch callers share a cached system prompt across items.
	CacheKey string
}

type GeneratedCriterion struct {
	CriterionID   string  `json:"criterionId"`
	CriterionName string  `json:"criterionName"`
	Level         string  `json:"level"`
	Score         float64 `json:"score"`
	MaxScore      float64 `json:"maxScore"`
	Justification string  `json:"justification"`
}

// GeneratedGrade is the raw generator output before it is checked against the rubric.
type GeneratedGrade struct {
	CriterionScores []GeneratedCriterion `json:"criterionScores"`
	TotalScore      float64              `json:"totalScore"`
	MaxScore        float64              `json:"maxScore"`
	LetterGrade     string               `json:"letterGrade"`
	OverallFeedback string               `json:"overallFeedback"`
	Strengths       []string             `json:"strengths"`
	Improvements    []string             `json:"improvements"`
	NextSteps       []string             `json:"nextSteps"`
	Misconceptions  []string             `json:"misconceptions"`

	Model string `json:"-"`
}

// Generator turns a rubric, assignment context and student work into a structured grade.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (*GeneratedGrade, error)
}

// GeneratorFunc adapts a plain function to Generator.
type GeneratorFunc func(ctx context.Context, req GenerateRequest) (*GeneratedGrade, error)

func (f GeneratorFunc) Generate(ctx context.Context, req GenerateRequest) (*GeneratedGrade, error) {
	return f(ctx, req)
}
