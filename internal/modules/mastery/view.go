package mastery

import (
	"sort"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/neurobridge-grading/internal/domain/mastery"
)

const (
	StatusGreen  = "green"
	StatusYellow = "yellow"
	StatusRed    = "red"

	recentAssessments = 3
)

// TrafficLight maps a mastery level to the dashboard colour.
func TrafficLight(level string) string {
	switch level {
	case types.LevelAdvanced, types.LevelProficient:
		return StatusGreen
	case types.LevelDeveloping:
		return StatusYellow
	default:
		return StatusRed
	}
}

type Assessment struct {
	Level       string    `json:"level"`
	Score       int       `json:"score"`
	AssessedAt  time.Time `json:"assessed_at"`
	Source      uuid.UUID `json:"source"`
	SourceTitle string    `json:"source_title"`
	Notes       string    `json:"notes,omitempty"`
}

type StandardMastery struct {
	StandardID          uuid.UUID      `json:"standard_id"`
	StandardCode        string         `json:"standard_code"`
	StandardDescription string         `json:"standard_description"`
	Subject             string         `json:"subject,omitempty"`
	Domain              string         `json:"domain,omitempty"`
	CurrentLevel        string         `json:"current_level"`
	CurrentScore        int            `json:"current_score"`
	Status              string         `json:"status"`
	Trend               TrendDirection `json:"trend"`
	LastAssessedAt      time.Time      `json:"last_assessed_at"`
	AssessmentCount     int            `json:"assessment_count"`
	RecentAssessments   []Assessment   `json:"recent_assessments"`
	History             []Assessment   `json:"history"`
}

type StudentMastery struct {
	StudentID uuid.UUID         `json:"student_id"`
	Standards []StandardMastery `json:"mastery"`
}

// BuildStudentView summarises a student's ledger per standard. history must be newest first.
// Standards and source titles are optional lookups; missing entries render as "Unknown".
func BuildStudentView(studentID uuid.UUID, history []types.MasteryRecord, standards map[uuid.UUID]types.Standard, sourceTitles map[uuid.UUID]string) StudentMastery {
	var order []uuid.UUID
	byStandard := map[uuid.UUID][]types.MasteryRecord{}
	for _, r := range history {
		if _, ok := byStandard[r.StandardID]; !ok {
			order = append(order, r.StandardID)
		}
		byStandard[r.StandardID] = append(byStandard[r.StandardID], r)
	}

	view := StudentMastery{StudentID: studentID, Standards: make([]StandardMastery, 0, len(order))}
	for _, sid := range order {
		recs := byStandard[sid]
		latest := recs[0]
		sm := StandardMastery{
			StandardID:      sid,
			StandardCode:    "Unknown",
			CurrentLevel:    latest.Level,
			CurrentScore:    latest.Score,
			Status:          TrafficLight(latest.Level),
			Trend:           Trend(recs),
			LastAssessedAt:  latest.AssessedAt,
			AssessmentCount: len(recs),
			History:         make([]Assessment, 0, len(recs)),
		}
		if std, ok := standards[sid]; ok {
			sm.StandardCode = std.Code
			sm.StandardDescription = std.Description
			sm.Subject = std.Subject
			sm.Domain = std.Domain
		}
		for _, r := range recs {
			title, ok := sourceTitles[r.Source]
			if !ok {
				title = "Unknown Assignment"
			}
			sm.History = append(sm.History, Assessment{
				Level:       r.Level,
				Score:       r.Score,
				AssessedAt:  r.AssessedAt,
				Source:      r.Source,
				SourceTitle: title,
				Notes:       r.Notes,
			})
		}
		n := len(sm.History)
		if n > recentAssessments {
			n = recentAssessments
		}
		sm.RecentAssessments = sm.History[:n]
		view.Standards = append(view.Standards, sm)
	}
	sort.SliceStable(view.Standards, func(i, j int) bool {
		return view.Standards[i].StandardCode < view.Standards[j].StandardCode
	})
	return view
}
