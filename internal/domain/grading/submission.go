package grading

import (
	"time"

	"github.com/google/uuid"
)

const (
	SubmissionStatusSubmitted = "submitted"
	SubmissionStatusGrading   = "grading"
	SubmissionStatusGraded    = "graded"
	SubmissionStatusReturned  = "returned"
)

// ValidSubmissionStatus reports whether s is one of the four lifecycle states.
func ValidSubmissionStatus(s string) bool {
	switch s {
	case SubmissionStatusSubmitted, SubmissionStatusGrading, SubmissionStatusGraded, SubmissionStatusReturned:
		return true
	default:
		return false
	}
}

type Submission struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	AssignmentID uuid.UUID  `gorm:"type:uuid;not null;index:idx_submission_assignment_status" json:"assignment_id"`
	StudentID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"student_id"`
	Content      string     `gorm:"column:content;not null" json:"content"`
	Status       string     `gorm:"column:status;not null;index:idx_submission_assignment_status" json:"status"`
	TotalScore   *float64   `gorm:"column:total_score" json:"total_score,omitempty"`
	MaxScore     *float64   `gorm:"column:max_score" json:"max_score,omitempty"`
	LetterGrade  *string    `gorm:"column:letter_grade" json:"letter_grade,omitempty"`
	SubmittedAt  time.Time  `gorm:"column:submitted_at;not null" json:"submitted_at"`
	GradedAt     *time.Time `gorm:"column:graded_at" json:"graded_at,omitempty"`
	CreatedAt    time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"not null" json:"updated_at"`
}

func (Submission) TableName() string { return "submission" }

// Percentage returns round(total/max*100) for scored submissions.
func (s *Submission) Percentage() (int, bool) {
	if s == nil || s.TotalScore == nil || s.MaxScore == nil || *s.MaxScore <= 0 {
		return 0, false
	}
	return RoundPct(*s.TotalScore / *s.MaxScore * 100), true
}
