package grading

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	types "github.com/yungbote/neurobridge-grading/internal/domain/grading"
)

func scoredSubmission(total, max float64, letter string) *types.Submission {
	s := &types.Submission{ID: uuid.New(), StudentID: uuid.New(), Status: types.SubmissionStatusGraded}
	s.TotalScore, s.MaxScore = &total, &max
	if letter != "" {
		s.LetterGrade = &letter
	}
	return s
}

func TestBuildAnalyticsWithoutScores(t *testing.T) {
	asg := &types.Assignment{ID: uuid.New(), Title: "Persuasive Essay"}
	got := BuildAnalytics(AnalyticsInput{
		Assignment:  asg,
		Submissions: []*types.Submission{{ID: uuid.New(), Status: types.SubmissionStatusSubmitted}},
	})
	if got.TotalSubmissions != 1 || got.GradedCount != 0 || got.AverageScore != nil || got.AveragePercentage != nil {
		t.Fatalf("unexpected empty analytics %+v", got)
	}
	if got.AssignmentTitle != "Persuasive Essay" || len(got.ScoreDistribution) != 10 || len(got.CriterionAverages) != 0 {
		t.Fatalf("empty analytics should still carry the bucket skeleton: %+v", got)
	}
}

func TestBuildAnalytics(t *testing.T) {
	r := testRubric()
	asg := &types.Assignment{ID: uuid.New(), Title: "Argument Essay", RubricID: r.ID}
	a := scoredSubmission(95, 100, "A")
	b := scoredSubmission(85, 100, "B")
	c := scoredSubmission(40, 100, "")
	pending := &types.Submission{ID: uuid.New(), StudentID: uuid.New(), Status: types.SubmissionStatusSubmitted}
	names := map[uuid.UUID]string{a.StudentID: "Ana", b.StudentID: "Ben"}

	var scores []*types.CriterionScore
	for _, s := range []*types.Submission{a, b, c, pending} {
		scores = append(scores,
			&types.CriterionScore{SubmissionID: s.ID, CriterionID: r.Criteria[0].ID, CriterionName: "Thesis", Score: 30, MaxScore: 40},
			&types.CriterionScore{SubmissionID: s.ID, CriterionID: r.Criteria[1].ID, CriterionName: "Evidence", Score: 45, MaxScore: 60},
		)
	}
	drafts := []*types.FeedbackDraft{
		{SubmissionID: a.ID, Misconceptions: datatypes.NewJSONSlice([]string{"confuses claim with evidence"})},
		{SubmissionID: b.ID, Misconceptions: datatypes.NewJSONSlice([]string{"confuses claim with evidence", " ", "cites opinion as fact"})},
		{SubmissionID: pending.ID, Misconceptions: datatypes.NewJSONSlice([]string{"never counted"})},
	}
	for i := 0; i < 12; i++ {
		drafts = append(drafts, &types.FeedbackDraft{SubmissionID: c.ID, Misconceptions: datatypes.NewJSONSlice([]string{fmt.Sprintf("rare %02d", i)})})
	}

	got := BuildAnalytics(AnalyticsInput{
		Assignment:  asg,
		Rubric:      r,
		Submissions: []*types.Submission{a, b, c, pending},
		Scores:      scores,
		Drafts:      drafts,
		Names:       names,
	})

	if got.TotalSubmissions != 4 || got.GradedCount != 3 {
		t.Fatalf("counts: total=%d graded=%d", got.TotalSubmissions, got.GradedCount)
	}
	if *got.AverageScore != 73.33 || *got.AveragePercentage != 73.33 {
		t.Fatalf("averages: %v %v", *got.AverageScore, *got.AveragePercentage)
	}
	buckets := map[string]int{}
	for _, b := range got.ScoreDistribution {
		buckets[b.Range] = b.Count
	}
	if buckets["90-100%"] != 1 || buckets["80-89%"] != 1 || buckets["40-49%"] != 1 || got.ScoreDistribution[0].Range != "0-9%" {
		t.Fatalf("distribution: %+v", got.ScoreDistribution)
	}
	if got.LetterGradeDistribution["A"] != 1 || got.LetterGradeDistribution["B"] != 1 || got.LetterGradeDistribution["Ungraded"] != 1 {
		t.Fatalf("letters: %v", got.LetterGradeDistribution)
	}

	if len(got.CriterionAverages) != 2 || got.CriterionAverages[0].CriterionName != "Thesis" {
		t.Fatalf("criterion averages: %+v", got.CriterionAverages)
	}
	if ca := got.CriterionAverages[1]; ca.AverageScore != 45 || ca.AverageMaxScore != 60 || ca.AveragePercentage != 75 {
		t.Fatalf("evidence average: %+v", ca)
	}

	if len(got.CommonMisconceptions) != 10 {
		t.Fatalf("want top 10 misconceptions, got %d", len(got.CommonMisconceptions))
	}
	top := got.CommonMisconceptions[0]
	if top.Misconception != "confuses claim with evidence" || top.Count != 2 {
		t.Fatalf("most common first, got %+v", top)
	}
	for _, m := range got.CommonMisconceptions {
		if m.Misconception == "never counted" {
			t.Fatalf("ungraded submissions must not contribute misconceptions")
		}
	}

	if len(got.ClassPerformance) != 3 || got.ClassPerformance[0].StudentName != "Ana" || got.ClassPerformance[2].StudentName != "Unknown Student" {
		t.Fatalf("class performance: %+v", got.ClassPerformance)
	}
	if got.ClassPerformance[1].Percentage != 85 {
		t.Fatalf("percentage: %+v", got.ClassPerformance[1])
	}
}

func TestBucketForEdges(t *testing.T) {
	cases := map[float64]int{0: 0, 9.99: 0, 10: 1, 89.99: 8, 90: 9, 100: 9, 104: 9, -1: 0}
	for pct, want := range cases {
		if got := bucketFor(pct); got != want {
			t.Fatalf("bucketFor(%v) = %d, want %d", pct, got, want)
		}
	}
}
