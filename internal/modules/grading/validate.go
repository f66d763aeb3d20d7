package grading

import (
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	domainagg "github.com/yungbote/neurobridge-grading/internal/domain/aggregates"
	types "github.com/yungbote/neurobridge-grading/internal/domain/grading"
)

// scoreTolerance absorbs two-decimal rounding in generator arithmetic.
const scoreTolerance = 0.01

// ValidatedGrade is generator output that has passed every schema and rubric check.
type ValidatedGrade struct {
	Scores          []types.CriterionScore
	TotalScore      float64
	MaxScore        float64
	LetterGrade     string
	OverallFeedback string
	Strengths       []string
	Improvements    []string
	NextSteps       []string
	Misconceptions  []string
}

// Validate checks a generated grade against the rubric it was produced for.
// Any deviation is a validation error carrying every issue found; nothing is repaired.
func Validate(rubric *types.Rubric, g *GeneratedGrade) (*ValidatedGrade, error) {
	const op = "Grading.Validate"
	if rubric == nil || len(rubric.Criteria) == 0 || len(rubric.Levels) == 0 {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "rubric has no criteria or levels", nil)
	}
	if g == nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "generator returned no result", nil)
	}

	var issues domainagg.ValidationIssues
	addf := func(format string, args ...any) {
		issues = append(issues, fmt.Sprintf(format, args...))
	}

	seen := make(map[uuid.UUID]bool, len(g.CriterionScores))
	scores := make([]types.CriterionScore, 0, len(g.CriterionScores))
	sumScore, sumMax := 0.0, 0.0

	for i, cs := range g.CriterionScores {
		id, err := uuid.Parse(strings.TrimSpace(cs.CriterionID))
		if err != nil {
			addf("criterionScores[%d]: invalid criterionId %q", i, cs.CriterionID)
			continue
		}
		crit := rubric.CriterionByID(id)
		if crit == nil {
			addf("criterionScores[%d]: unknown criterion %s", i, id)
			continue
		}
		if seen[id] {
			addf("criterion %q scored more than once", crit.Name)
			continue
		}
		seen[id] = true

		level, ok := rubric.CanonicalLevel(cs.Level)
		if !ok {
			addf("criterion %q: level %q is not a rubric level", crit.Name, cs.Level)
		}
		if !finite(cs.Score) || !finite(cs.MaxScore) {
			addf("criterion %q: score and maxScore must be numbers", crit.Name)
			continue
		}
		if cs.MaxScore <= 0 {
			addf("criterion %q: maxScore must be positive", crit.Name)
		} else if math.Abs(cs.MaxScore-crit.MaxScore()) > scoreTolerance {
			addf("criterion %q: maxScore %g does not match rubric %g", crit.Name, cs.MaxScore, crit.MaxScore())
		}
		if cs.Score < 0 || cs.Score > cs.MaxScore+scoreTolerance {
			addf("criterion %q: score %g outside [0, %g]", crit.Name, cs.Score, cs.MaxScore)
		}
		if strings.TrimSpace(cs.Justification) == "" {
			addf("criterion %q: justification required", crit.Name)
		}

		sumScore += cs.Score
		sumMax += cs.MaxScore
		scores = append(scores, types.CriterionScore{
			CriterionID:   crit.ID,
			CriterionName: crit.Name,
			Level:         level,
			Score:         types.Round2(math.Min(cs.Score, cs.MaxScore)),
			MaxScore:      types.Round2(cs.MaxScore),
			Justification: strings.TrimSpace(cs.Justification),
		})
	}

	for _, c := range rubric.Criteria {
		if !seen[c.ID] {
			addf("criterion %q missing from result", c.Name)
		}
	}

	if !finite(g.TotalScore) || !finite(g.MaxScore) {
		addf("totalScore and maxScore must be numbers")
	} else {
		if math.Abs(sumMax-g.MaxScore) > scoreTolerance {
			addf("maxScore %g does not equal sum of criterion maxima %g", g.MaxScore, types.Round2(sumMax))
		}
		if math.Abs(sumScore-g.TotalScore) > scoreTolerance {
			addf("totalScore %g does not equal sum of criterion scores %g", g.TotalScore, types.Round2(sumScore))
		}
		if g.TotalScore < 0 || g.TotalScore > g.MaxScore+scoreTolerance {
			addf("totalScore %g outside [0, %g]", g.TotalScore, g.MaxScore)
		}
	}

	letter := strings.TrimSpace(g.LetterGrade)
	if !types.ValidLetterGrade(letter) {
		addf("letterGrade %q not allowed", g.LetterGrade)
	} else if finite(g.TotalScore) && finite(g.MaxScore) && g.MaxScore > 0 {
		pct := g.TotalScore / g.MaxScore * 100
		if !letterMatchesBand(letter, pct) {
			addf("letterGrade %q inconsistent with %.2f%% (band %s)", letter, pct, types.LetterForPercentage(pct))
		}
	}
	if strings.TrimSpace(g.OverallFeedback) == "" {
		addf("overallFeedback required")
	}

	if len(issues) > 0 {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "generator output failed validation", issues)
	}

	total := 0.0
	for _, s := range scores {
		total += s.Score
	}
	return &ValidatedGrade{
		Scores:          scores,
		TotalScore:      types.Round2(total),
		MaxScore:        types.Round2(sumMax),
		LetterGrade:     letter,
		OverallFeedback: strings.TrimSpace(g.OverallFeedback),
		Strengths:       cleanList(g.Strengths),
		Improvements:    cleanList(g.Improvements),
		NextSteps:       cleanList(g.NextSteps),
		Misconceptions:  cleanList(g.Misconceptions),
	}, nil
}

// letterMatchesBand accepts plus and minus variants of the band letter, on either
// side of whole-percent rounding.
func letterMatchesBand(letter string, pct float64) bool {
	for _, band := range []string{types.LetterForPercentage(pct), types.LetterForPercentage(float64(types.RoundPct(pct)))} {
		if letter[:1] == band {
			return true
		}
	}
	return false
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
