package mastery

import (
	"testing"

	"github.com/google/uuid"
)

func TestTierBuckets(t *testing.T) {
	students := []ScoredStudent{
		{StudentID: uuid.New(), Name: "Ana", Percentage: 90},
		{StudentID: uuid.New(), Name: "Ben", Percentage: 55},
		{StudentID: uuid.New(), Name: "Cal", Percentage: 70},
		{StudentID: uuid.New(), Name: "Dee", Percentage: 97},
		{StudentID: uuid.New(), Name: "Eli", Percentage: 40},
		{StudentID: uuid.New(), Name: "Fay", Percentage: 85},
		{StudentID: uuid.New(), Name: "Gus", Percentage: 60},
	}
	report := Tier(students)
	if len(report.Tiers) != 3 {
		t.Fatalf("want 3 tiers, got %d", len(report.Tiers))
	}

	below := report.Group(TierBelowGrade)
	if below.Label != "Below Grade" || below.StudentCount != 2 || below.AverageScore != 48 {
		t.Fatalf("unexpected below tier %+v", below)
	}
	if below.Students[0].Name != "Eli" || below.Students[1].Name != "Ben" {
		t.Fatalf("below tier should list weakest first: %+v", below.Students)
	}

	on := report.Group(TierOnGrade)
	if on.StudentCount != 2 || on.Students[0].Percentage != 60 || on.AverageScore != 65 {
		t.Fatalf("unexpected on tier %+v", on)
	}

	above := report.Group(TierAboveGrade)
	if above.StudentCount != 3 || above.AverageScore != 91 {
		t.Fatalf("unexpected above tier %+v", above)
	}
	if above.Students[0].Name != "Dee" || above.Students[2].Name != "Fay" {
		t.Fatalf("above tier should list strongest first: %+v", above.Students)
	}
}

func TestTierKeepsEmptyGroups(t *testing.T) {
	report := Tier([]ScoredStudent{{StudentID: uuid.New(), Percentage: 72}})
	for _, level := range []string{TierBelowGrade, TierOnGrade, TierAboveGrade} {
		g := report.Group(level)
		if g == nil {
			t.Fatalf("missing tier %s", level)
		}
		if g.Students == nil {
			t.Fatalf("tier %s students must be non-nil", level)
		}
	}
	if report.Group(TierBelowGrade).StudentCount != 0 || report.Group(TierBelowGrade).AverageScore != 0 {
		t.Fatalf("empty tier should report zero")
	}
	if report.Group("bogus") != nil {
		t.Fatalf("unknown tier should be nil")
	}
}

func TestTierFor(t *testing.T) {
	cases := map[int]string{0: TierBelowGrade, 59: TierBelowGrade, 60: TierOnGrade, 84: TierOnGrade, 85: TierAboveGrade, 100: TierAboveGrade}
	for pct, want := range cases {
		if got := TierFor(pct); got != want {
			t.Fatalf("TierFor(%d)=%s want %s", pct, got, want)
		}
	}
}
