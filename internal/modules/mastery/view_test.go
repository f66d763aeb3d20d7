package mastery

import (
	"testing"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/neurobridge-grading/internal/domain/mastery"
)

func TestBuildStudentView(t *testing.T) {
	student := uuid.New()
	rl, w := uuid.New(), uuid.New()
	asg := uuid.New()
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	history := []types.MasteryRecord{
		{StudentID: student, StandardID: w, Level: types.LevelDeveloping, Score: 60, Source: uuid.New(), AssessedAt: base.Add(5 * time.Hour)},
		{StudentID: student, StandardID: rl, Level: types.LevelAdvanced, Score: 92, Source: asg, AssessedAt: base.Add(4 * time.Hour)},
		{StudentID: student, StandardID: rl, Level: types.LevelProficient, Score: 80, Source: asg, AssessedAt: base.Add(3 * time.Hour)},
		{StudentID: student, StandardID: rl, Level: types.LevelDeveloping, Score: 65, Source: asg, AssessedAt: base.Add(2 * time.Hour)},
		{StudentID: student, StandardID: rl, Level: types.LevelBeginning, Score: 30, Source: asg, AssessedAt: base.Add(1 * time.Hour)},
	}
	standards := map[uuid.UUID]types.Standard{
		rl: {ID: rl, Code: "RL.8.1", Description: "Cite evidence", Subject: "ELA"},
	}
	titles := map[uuid.UUID]string{asg: "Essay 1"}

	view := BuildStudentView(student, history, standards, titles)
	if view.StudentID != student || len(view.Standards) != 2 {
		t.Fatalf("unexpected view %+v", view)
	}

	// sorted by code; the unknown standard sorts after "RL".
	first := view.Standards[0]
	if first.StandardCode != "RL.8.1" || first.CurrentLevel != types.LevelAdvanced || first.CurrentScore != 92 {
		t.Fatalf("unexpected first standard %+v", first)
	}
	if first.Status != StatusGreen || first.Trend != TrendImproving {
		t.Fatalf("want green improving, got %s %s", first.Status, first.Trend)
	}
	if first.AssessmentCount != 4 || len(first.History) != 4 || len(first.RecentAssessments) != 3 {
		t.Fatalf("unexpected history sizes %d %d %d", first.AssessmentCount, len(first.History), len(first.RecentAssessments))
	}
	if first.History[0].SourceTitle != "Essay 1" || !first.LastAssessedAt.Equal(base.Add(4*time.Hour)) {
		t.Fatalf("unexpected latest assessment %+v", first.History[0])
	}

	second := view.Standards[1]
	if second.StandardCode != "Unknown" || second.Status != StatusYellow || second.Trend != TrendStable {
		t.Fatalf("unexpected fallback standard %+v", second)
	}
	if second.History[0].SourceTitle != "Unknown Assignment" {
		t.Fatalf("want fallback title, got %q", second.History[0].SourceTitle)
	}
}

func TestTrafficLight(t *testing.T) {
	cases := map[string]string{
		types.LevelAdvanced:   StatusGreen,
		types.LevelProficient: StatusGreen,
		types.LevelDeveloping: StatusYellow,
		types.LevelBeginning:  StatusRed,
		"":                    StatusRed,
	}
	for level, want := range cases {
		if got := TrafficLight(level); got != want {
			t.Fatalf("TrafficLight(%q)=%s want %s", level, got, want)
		}
	}
}

func TestBuildStudentViewEmpty(t *testing.T) {
	view := BuildStudentView(uuid.New(), nil, nil, nil)
	if view.Standards == nil || len(view.Standards) != 0 {
		t.Fatalf("want empty non-nil standards, got %+v", view.Standards)
	}
}
