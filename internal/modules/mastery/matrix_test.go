package mastery

import (
	"testing"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/neurobridge-grading/internal/domain/mastery"
)

func TestBuildClassMatrix(t *testing.T) {
	class := uuid.New()
	ana, ben, cy, outsider := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	rl, w, lost := uuid.New(), uuid.New(), uuid.New()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	members := []types.ClassMember{
		{ClassID: class, UserID: ana, Name: "Ana", Role: types.ClassRoleStudent},
		{ClassID: class, UserID: ben, Name: "Ben", Role: types.ClassRoleStudent},
		{ClassID: class, UserID: cy, Role: types.ClassRoleStudent},
	}
	history := []types.MasteryRecord{
		{StudentID: ana, StandardID: w, Level: types.LevelBeginning, Score: 35, AssessedAt: base.Add(4 * time.Hour)},
		{StudentID: ana, StandardID: rl, Level: types.LevelProficient, Score: 82, AssessedAt: base.Add(3 * time.Hour)},
		{StudentID: ana, StandardID: rl, Level: types.LevelBeginning, Score: 20, AssessedAt: base.Add(1 * time.Hour)},
		{StudentID: ben, StandardID: lost, Level: types.LevelDeveloping, Score: 55, AssessedAt: base.Add(2 * time.Hour)},
		{StudentID: outsider, StandardID: rl, Level: types.LevelAdvanced, Score: 99, AssessedAt: base},
	}
	standards := map[uuid.UUID]types.Standard{
		rl: {ID: rl, Code: "RL.8.1", Description: "Cite evidence"},
		w:  {ID: w, Code: "W.8.1", Description: "Write arguments"},
	}

	m := BuildClassMatrix(class, members, history, standards)
	if m.ClassID != class || len(m.Students) != 3 {
		t.Fatalf("want a row per member, got %+v", m.Students)
	}

	a := m.Students[0]
	if a.StudentName != "Ana" || len(a.Standards) != 2 {
		t.Fatalf("unexpected row %+v", a)
	}
	if a.Standards[0].StandardCode != "RL.8.1" || a.Standards[0].Score != 82 || a.Standards[0].Status != StatusGreen {
		t.Fatalf("latest RL record should win: %+v", a.Standards[0])
	}
	if a.Standards[1].StandardCode != "W.8.1" || a.Standards[1].Status != StatusRed {
		t.Fatalf("unexpected W cell %+v", a.Standards[1])
	}

	if b := m.Students[1]; len(b.Standards) != 1 || b.Standards[0].StandardCode != "Unknown" || b.Standards[0].Status != StatusYellow {
		t.Fatalf("unknown standard should fall back: %+v", b)
	}
	if c := m.Students[2]; c.StudentName != "Unknown" || len(c.Standards) != 0 {
		t.Fatalf("member without records keeps an empty row: %+v", c)
	}

	if len(m.Standards) != 3 || m.Standards[0].Code != "RL.8.1" || m.Standards[1].Code != "Unknown" || m.Standards[2].Code != "W.8.1" {
		t.Fatalf("standards list should cover assessed standards by code: %+v", m.Standards)
	}
}
