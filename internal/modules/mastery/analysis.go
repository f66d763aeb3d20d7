package mastery

import (
	"math"
	"sort"

	"github.com/google/uuid"

	types "github.com/yungbote/neurobridge-grading/internal/domain/mastery"
)

type TrendDirection string

const (
	TrendImproving TrendDirection = "improving"
	TrendStable    TrendDirection = "stable"
	TrendDeclining TrendDirection = "declining"
)

const (
	trendWindow    = 3
	trendThreshold = 5
	gapThreshold   = 50.0
)

// Trend compares the newest score with the oldest of the three most recent.
// history must be ordered newest first.
func Trend(history []types.MasteryRecord) TrendDirection {
	if len(history) < 2 {
		return TrendStable
	}
	recent := history
	if len(recent) > trendWindow {
		recent = recent[:trendWindow]
	}
	delta := recent[0].Score - recent[len(recent)-1].Score
	switch {
	case delta > trendThreshold:
		return TrendImproving
	case delta < -trendThreshold:
		return TrendDeclining
	default:
		return TrendStable
	}
}

type studentStandardKey struct {
	student  uuid.UUID
	standard uuid.UUID
}

// LatestPerStudentStandard keeps the first record seen per (student, standard).
// Pass records newest first.
func LatestPerStudentStandard(records []types.MasteryRecord) []types.MasteryRecord {
	seen := make(map[studentStandardKey]bool, len(records))
	out := make([]types.MasteryRecord, 0, len(records))
	for _, r := range records {
		k := studentStandardKey{r.StudentID, r.StandardID}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
	}
	return out
}

type StudentBelow struct {
	StudentID   uuid.UUID `json:"student_id"`
	StudentName string    `json:"student_name"`
	Level       string    `json:"level"`
	Score       int       `json:"score"`
}

// GapReport is the cohort picture for one standard.
type GapReport struct {
	StandardID             uuid.UUID      `json:"standard_id"`
	StandardCode           string         `json:"standard_code"`
	StandardDescription    string         `json:"standard_description"`
	Subject                string         `json:"subject,omitempty"`
	Domain                 string         `json:"domain,omitempty"`
	ClassSize              int            `json:"class_size"`
	AssessedCount          int            `json:"assessed_count"`
	BelowProficientCount   int            `json:"below_proficient_count"`
	ProficientOrAboveCount int            `json:"proficient_or_above_count"`
	BelowProficientPercent int            `json:"below_proficient_percent"`
	AverageScore           float64        `json:"average_score"`
	StudentsBelow          []StudentBelow `json:"students_below"`
	IsGap                  bool           `json:"is_gap"`

	belowPct float64
}

// Gaps groups each student's latest record by standard. Class size, not the number assessed,
// is the denominator, so unassessed students dilute the below-proficient share.
func Gaps(latest []types.MasteryRecord, classSize int) []GapReport {
	if classSize <= 0 {
		return []GapReport{}
	}
	var order []uuid.UUID
	byStandard := map[uuid.UUID][]types.MasteryRecord{}
	for _, r := range latest {
		if _, ok := byStandard[r.StandardID]; !ok {
			order = append(order, r.StandardID)
		}
		byStandard[r.StandardID] = append(byStandard[r.StandardID], r)
	}

	out := make([]GapReport, 0, len(order))
	for _, sid := range order {
		recs := byStandard[sid]
		g := GapReport{StandardID: sid, ClassSize: classSize, AssessedCount: len(recs), StudentsBelow: []StudentBelow{}}
		sum := 0
		for _, r := range recs {
			sum += r.Score
			if types.BelowProficient(r.Level) {
				g.BelowProficientCount++
				g.StudentsBelow = append(g.StudentsBelow, StudentBelow{StudentID: r.StudentID, Level: r.Level, Score: r.Score})
			} else {
				g.ProficientOrAboveCount++
			}
		}
		g.belowPct = float64(g.BelowProficientCount) / float64(classSize) * 100
		g.BelowProficientPercent = int(math.Round(g.belowPct))
		g.AverageScore = math.Round(float64(sum)/float64(len(recs))*10) / 10
		g.IsGap = g.belowPct > gapThreshold
		out = append(out, g)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].belowPct != out[j].belowPct {
			return out[i].belowPct > out[j].belowPct
		}
		return out[i].StandardID.String() < out[j].StandardID.String()
	})
	return out
}
