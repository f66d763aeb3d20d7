package mastery

import (
	"testing"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/neurobridge-grading/internal/domain/mastery"
)

func history(scores ...int) []types.MasteryRecord {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]types.MasteryRecord, len(scores))
	for i, s := range scores {
		out[i] = types.MasteryRecord{Score: s, AssessedAt: base.Add(-time.Duration(i) * time.Hour)}
	}
	return out
}

func TestTrend(t *testing.T) {
	cases := []struct {
		name   string
		scores []int
		want   TrendDirection
	}{
		{"empty", nil, TrendStable},
		{"single", []int{80}, TrendStable},
		{"improving", []int{90, 60, 50}, TrendImproving},
		{"declining", []int{40, 60, 70}, TrendDeclining},
		{"within threshold", []int{75, 72, 70}, TrendStable},
		{"exactly five", []int{75, 70}, TrendStable},
		{"window ignores older", []int{80, 78, 76, 10}, TrendStable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Trend(history(tc.scores...)); got != tc.want {
				t.Fatalf("Trend(%v)=%s want %s", tc.scores, got, tc.want)
			}
		})
	}
}

func TestLatestPerStudentStandard(t *testing.T) {
	s1, s2, std := uuid.New(), uuid.New(), uuid.New()
	recs := []types.MasteryRecord{
		{StudentID: s1, StandardID: std, Score: 80},
		{StudentID: s2, StandardID: std, Score: 40},
		{StudentID: s1, StandardID: std, Score: 20},
	}
	got := LatestPerStudentStandard(recs)
	if len(got) != 2 || got[0].Score != 80 || got[1].Score != 40 {
		t.Fatalf("unexpected latest set %+v", got)
	}
}

func TestGapsUsesClassSize(t *testing.T) {
	std := uuid.New()
	var latest []types.MasteryRecord
	for i := 0; i < 6; i++ {
		latest = append(latest, types.MasteryRecord{StudentID: uuid.New(), StandardID: std, Level: types.LevelDeveloping, Score: 55})
	}
	for i := 0; i < 2; i++ {
		latest = append(latest, types.MasteryRecord{StudentID: uuid.New(), StandardID: std, Level: types.LevelProficient, Score: 76})
	}

	got := Gaps(latest, 10)
	if len(got) != 1 {
		t.Fatalf("want 1 report, got %d", len(got))
	}
	g := got[0]
	if g.ClassSize != 10 || g.AssessedCount != 8 || g.BelowProficientCount != 6 || g.ProficientOrAboveCount != 2 {
		t.Fatalf("unexpected counts %+v", g)
	}
	if g.BelowProficientPercent != 60 || !g.IsGap {
		t.Fatalf("want 60%% and gap, got %d %v", g.BelowProficientPercent, g.IsGap)
	}
	if g.AverageScore != 60.3 {
		t.Fatalf("want average 60.3, got %v", g.AverageScore)
	}
	if len(g.StudentsBelow) != 6 {
		t.Fatalf("want 6 students below, got %d", len(g.StudentsBelow))
	}
}

func TestGapsThresholdIsStrict(t *testing.T) {
	std := uuid.New()
	latest := []types.MasteryRecord{
		{StudentID: uuid.New(), StandardID: std, Level: types.LevelBeginning, Score: 30},
		{StudentID: uuid.New(), StandardID: std, Level: types.LevelAdvanced, Score: 95},
	}
	got := Gaps(latest, 2)
	if got[0].BelowProficientPercent != 50 || got[0].IsGap {
		t.Fatalf("exactly half below must not be a gap: %+v", got[0])
	}
}

func TestGapsSortedByBelowShare(t *testing.T) {
	low, high, mid := uuid.New(), uuid.New(), uuid.New()
	rec := func(std uuid.UUID, level string) types.MasteryRecord {
		return types.MasteryRecord{StudentID: uuid.New(), StandardID: std, Level: level, Score: 50}
	}
	latest := []types.MasteryRecord{
		rec(low, types.LevelProficient),
		rec(high, types.LevelBeginning), rec(high, types.LevelDeveloping), rec(high, types.LevelBeginning),
		rec(mid, types.LevelDeveloping),
	}
	got := Gaps(latest, 4)
	if len(got) != 3 {
		t.Fatalf("want 3 reports, got %d", len(got))
	}
	if got[0].StandardID != high || got[1].StandardID != mid || got[2].StandardID != low {
		t.Fatalf("unexpected order: %v %v %v", got[0].StandardID, got[1].StandardID, got[2].StandardID)
	}
}

func TestGapsEmptyClass(t *testing.T) {
	if got := Gaps([]types.MasteryRecord{{StandardID: uuid.New()}}, 0); len(got) != 0 {
		t.Fatalf("want no reports for an empty class, got %d", len(got))
	}
}
