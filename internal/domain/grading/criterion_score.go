package grading

import (
	"time"

	"github.com/google/uuid"
)

// CriterionScore is one scored rubric dimension for one grading attempt.
// CriterionName and MaxScore are snapshots taken at grading time.
type CriterionScore struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SubmissionID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_criterion_score_submission_criterion" json:"submission_id"`
	CriterionID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_criterion_score_submission_criterion" json:"criterion_id"`
	CriterionName string    `gorm:"column:criterion_name;not null" json:"criterion_name"`
	Level         string    `gorm:"column:level;not null" json:"level"`
	Score         float64   `gorm:"column:score;not null" json:"score"`
	MaxScore      float64   `gorm:"column:max_score;not null" json:"max_score"`
	Justification string    `gorm:"column:justification" json:"justification"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
}

func (CriterionScore) TableName() string { return "criterion_score" }
