package mastery

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	gradingtypes "github.com/yungbote/neurobridge-grading/internal/domain/grading"
	types "github.com/yungbote/neurobridge-grading/internal/domain/mastery"
)

// LevelFor maps a raw score ratio onto a mastery level. The unrounded percentage decides the band.
func LevelFor(score, max float64) string {
	if max <= 0 {
		return types.LevelBeginning
	}
	pct := score / max * 100
	switch {
	case pct >= 90:
		return types.LevelAdvanced
	case pct >= 70:
		return types.LevelProficient
	case pct >= 50:
		return types.LevelDeveloping
	default:
		return types.LevelBeginning
	}
}

type standardTally struct {
	standardID uuid.UUID
	score      float64
	max        float64
	names      []string
}

// DeriveMastery folds a graded submission's criterion scores into one record per mapped standard.
// Criteria without a standard are ignored. Records keep the order standards first appear in scores.
func DeriveMastery(sub *gradingtypes.Submission, rubric *gradingtypes.Rubric, scores []gradingtypes.CriterionScore, now time.Time) []types.MasteryRecord {
	if sub == nil || rubric == nil || len(scores) == 0 {
		return nil
	}

	var order []*standardTally
	byStandard := map[uuid.UUID]*standardTally{}
	for _, s := range scores {
		crit := rubric.CriterionByID(s.CriterionID)
		if crit == nil || crit.StandardID == nil || *crit.StandardID == uuid.Nil {
			continue
		}
		t, ok := byStandard[*crit.StandardID]
		if !ok {
			t = &standardTally{standardID: *crit.StandardID}
			byStandard[t.standardID] = t
			order = append(order, t)
		}
		t.score += s.Score
		t.max += s.MaxScore
		name := s.CriterionName
		if name == "" {
			name = crit.Name
		}
		t.names = append(t.names, name)
	}

	out := make([]types.MasteryRecord, 0, len(order))
	for _, t := range order {
		pct := 0
		if t.max > 0 {
			pct = int(math.Round(t.score / t.max * 100))
		}
		out = append(out, types.MasteryRecord{
			StudentID:  sub.StudentID,
			StandardID: t.standardID,
			Level:      LevelFor(t.score, t.max),
			Score:      clampPct(pct),
			Source:     sub.AssignmentID,
			AssessedAt: now,
			Notes:      fmt.Sprintf("Based on criteria: %s", strings.Join(t.names, ", ")),
		})
	}
	return out
}

func clampPct(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
