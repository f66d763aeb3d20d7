package mastery

import (
	"math"
	"sort"

	"github.com/google/uuid"
)

const (
	TierBelowGrade = "below_grade"
	TierOnGrade    = "on_grade"
	TierAboveGrade = "above_grade"

	onGradeCutoff    = 60
	aboveGradeCutoff = 85
)

type ScoredStudent struct {
	StudentID  uuid.UUID `json:"student_id"`
	Name       string    `json:"name"`
	Percentage int       `json:"score"`
}

// TierActivity is optional generated follow-up work for one tier.
type TierActivity struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Instructions []string `json:"instructions"`
}

type TierGroup struct {
	Level        string          `json:"level"`
	Label        string          `json:"label"`
	StudentCount int             `json:"student_count"`
	AverageScore int             `json:"average_score"`
	Students     []ScoredStudent `json:"students"`
	Activity     *TierActivity   `json:"activity,omitempty"`
}

type TierReport struct {
	Tiers []TierGroup `json:"tiers"`
}

func (r TierReport) Group(level string) *TierGroup {
	for i := range r.Tiers {
		if r.Tiers[i].Level == level {
			return &r.Tiers[i]
		}
	}
	return nil
}

func TierFor(pct int) string {
	switch {
	case pct < onGradeCutoff:
		return TierBelowGrade
	case pct < aboveGradeCutoff:
		return TierOnGrade
	default:
		return TierAboveGrade
	}
}

// Tier buckets students by percentage. All three tiers are always present.
// Lower tiers list weakest first; the above-grade tier lists strongest first.
func Tier(students []ScoredStudent) TierReport {
	groups := []TierGroup{
		{Level: TierBelowGrade, Label: "Below Grade", Students: []ScoredStudent{}},
		{Level: TierOnGrade, Label: "On Grade", Students: []ScoredStudent{}},
		{Level: TierAboveGrade, Label: "Above Grade", Students: []ScoredStudent{}},
	}
	idx := map[string]int{TierBelowGrade: 0, TierOnGrade: 1, TierAboveGrade: 2}
	for _, s := range students {
		g := &groups[idx[TierFor(s.Percentage)]]
		g.Students = append(g.Students, s)
	}
	for i := range groups {
		g := &groups[i]
		desc := g.Level == TierAboveGrade
		sort.SliceStable(g.Students, func(a, b int) bool {
			if desc {
				return g.Students[a].Percentage > g.Students[b].Percentage
			}
			return g.Students[a].Percentage < g.Students[b].Percentage
		})
		g.StudentCount = len(g.Students)
		if g.StudentCount > 0 {
			sum := 0
			for _, s := range g.Students {
				sum += s.Percentage
			}
			g.AverageScore = int(math.Round(float64(sum) / float64(g.StudentCount)))
		}
	}
	return TierReport{Tiers: groups}
}
