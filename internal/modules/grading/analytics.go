package grading

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	types "github.com/yungbote/neurobridge-grading/internal/domain/grading"
)

const (
	scoreBuckets            = 10
	maxCommonMisconceptions = 10
	unknownStudentName      = "Unknown Student"
	ungradedLetter          = "Ungraded"
)

type ScoreBucket struct {
	Range string `json:"range"`
	Count int    `json:"count"`
}

type CriterionAverage struct {
	CriterionID       uuid.UUID `json:"criterion_id"`
	CriterionName     string    `json:"criterion_name"`
	AverageScore      float64   `json:"average_score"`
	AverageMaxScore   float64   `json:"average_max_score"`
	AveragePercentage float64   `json:"average_percentage"`
}

type MisconceptionCount struct {
	Misconception string `json:"misconception"`
	Count         int    `json:"count"`
}

type StudentPerformance struct {
	StudentID   uuid.UUID `json:"student_id"`
	StudentName string    `json:"student_name"`
	TotalScore  float64   `json:"total_score"`
	MaxScore    float64   `json:"max_score"`
	Percentage  float64   `json:"percentage"`
	LetterGrade string    `json:"letter_grade"`
}

// AssignmentAnalytics summarises the scored submissions of one assignment.
// Averages are nil until at least one submission has a score.
type AssignmentAnalytics struct {
	AssignmentID            uuid.UUID            `json:"assignment_id"`
	AssignmentTitle         string               `json:"assignment_title"`
	TotalSubmissions        int                  `json:"total_submissions"`
	GradedCount             int                  `json:"graded_count"`
	AverageScore            *float64             `json:"average_score"`
	AveragePercentage       *float64             `json:"average_percentage"`
	ScoreDistribution       []ScoreBucket        `json:"score_distribution"`
	LetterGradeDistribution map[string]int       `json:"letter_grade_distribution"`
	CriterionAverages       []CriterionAverage   `json:"criterion_averages"`
	CommonMisconceptions    []MisconceptionCount `json:"common_misconceptions"`
	ClassPerformance        []StudentPerformance `json:"class_performance"`
}

type AnalyticsInput struct {
	Assignment  *types.Assignment
	Rubric      *types.Rubric
	Submissions []*types.Submission
	Scores      []*types.CriterionScore
	Drafts      []*types.FeedbackDraft
	Names       map[uuid.UUID]string
}

// BuildAnalytics aggregates submissions, criterion scores and feedback drafts.
// Scores and drafts of submissions without a total are ignored.
func BuildAnalytics(in AnalyticsInput) AssignmentAnalytics {
	out := AssignmentAnalytics{
		TotalSubmissions:        len(in.Submissions),
		ScoreDistribution:       emptyBuckets(),
		LetterGradeDistribution: map[string]int{},
		CriterionAverages:       []CriterionAverage{},
		CommonMisconceptions:    []MisconceptionCount{},
		ClassPerformance:        []StudentPerformance{},
	}
	if in.Assignment != nil {
		out.AssignmentID = in.Assignment.ID
		out.AssignmentTitle = in.Assignment.Title
	}

	scored := map[uuid.UUID]bool{}
	sumTotal, sumMax := 0.0, 0.0
	for _, s := range in.Submissions {
		if s == nil || s.TotalScore == nil || s.MaxScore == nil || *s.MaxScore <= 0 {
			continue
		}
		scored[s.ID] = true
		total, max := *s.TotalScore, *s.MaxScore
		sumTotal += total
		sumMax += max
		pct := total / max * 100

		out.ScoreDistribution[bucketFor(pct)].Count++
		letter := ungradedLetter
		if s.LetterGrade != nil && *s.LetterGrade != "" {
			letter = *s.LetterGrade
		}
		out.LetterGradeDistribution[letter]++

		name := in.Names[s.StudentID]
		if name == "" {
			name = unknownStudentName
		}
		out.ClassPerformance = append(out.ClassPerformance, StudentPerformance{
			StudentID:   s.StudentID,
			StudentName: name,
			TotalScore:  total,
			MaxScore:    max,
			Percentage:  types.Round2(pct),
			LetterGrade: letter,
		})
	}
	out.GradedCount = len(scored)
	if out.GradedCount == 0 {
		return out
	}

	avg := types.Round2(sumTotal / float64(out.GradedCount))
	avgPct := types.Round2(sumTotal / sumMax * 100)
	out.AverageScore, out.AveragePercentage = &avg, &avgPct
	out.CriterionAverages = criterionAverages(in.Rubric, in.Scores, scored)
	out.CommonMisconceptions = commonMisconceptions(in.Drafts, scored)
	return out
}

func emptyBuckets() []ScoreBucket {
	out := make([]ScoreBucket, scoreBuckets)
	for i := range out {
		lo := i * 10
		hi := lo + 9
		if i == scoreBuckets-1 {
			hi = 100
		}
		out[i].Range = fmt.Sprintf("%d-%d%%", lo, hi)
	}
	return out
}

func bucketFor(pct float64) int {
	i := int(pct / 10)
	switch {
	case i < 0:
		return 0
	case i >= scoreBuckets:
		return scoreBuckets - 1
	}
	return i
}

type criterionTally struct {
	name       string
	score, max float64
	n          int
}

// criterionAverages lists criteria in rubric order, then any others in first-seen order.
func criterionAverages(rubric *types.Rubric, scores []*types.CriterionScore, scored map[uuid.UUID]bool) []CriterionAverage {
	var order []uuid.UUID
	tallies := map[uuid.UUID]*criterionTally{}
	if rubric != nil {
		for _, c := range rubric.Criteria {
			order = append(order, c.ID)
			tallies[c.ID] = &criterionTally{name: c.Name}
		}
	}
	for _, s := range scores {
		if s == nil || !scored[s.SubmissionID] {
			continue
		}
		t, ok := tallies[s.CriterionID]
		if !ok {
			t = &criterionTally{name: s.CriterionName}
			tallies[s.CriterionID] = t
			order = append(order, s.CriterionID)
		}
		t.score += s.Score
		t.max += s.MaxScore
		t.n++
	}

	out := make([]CriterionAverage, 0, len(order))
	for _, id := range order {
		t := tallies[id]
		if t.n == 0 {
			continue
		}
		avg := CriterionAverage{
			CriterionID:     id,
			CriterionName:   t.name,
			AverageScore:    types.Round2(t.score / float64(t.n)),
			AverageMaxScore: types.Round2(t.max / float64(t.n)),
		}
		if t.max > 0 {
			avg.AveragePercentage = types.Round2(t.score / t.max * 100)
		}
		out = append(out, avg)
	}
	return out
}

// commonMisconceptions counts identical misconception text across drafts, most frequent first.
func commonMisconceptions(drafts []*types.FeedbackDraft, scored map[uuid.UUID]bool) []MisconceptionCount {
	counts := map[string]int{}
	for _, d := range drafts {
		if d == nil || !scored[d.SubmissionID] {
			continue
		}
		for _, m := range d.Misconceptions {
			if m = strings.TrimSpace(m); m != "" {
				counts[m]++
			}
		}
	}
	out := make([]MisconceptionCount, 0, len(counts))
	for m, n := range counts {
		out = append(out, MisconceptionCount{Misconception: m, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Misconception < out[j].Misconception
	})
	if len(out) > maxCommonMisconceptions {
		out = out[:maxCommonMisconceptions]
	}
	return out
}
