package grading

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	FeedbackStatusDraft    = "draft"
	FeedbackStatusEdited   = "edited"
	FeedbackStatusApproved = "approved"
)

// FeedbackMetadata is generation bookkeeping kept alongside the draft.
type FeedbackMetadata struct {
	Tone          string     `json:"tone,omitempty"`
	BatchGraded   bool       `json:"batch_graded"`
	Regenerated   bool       `json:"regenerated,omitempty"`
	RegeneratedAt *time.Time `json:"regenerated_at,omitempty"`
	Model         string     `json:"model,omitempty"`
}

// FeedbackDraft is the teacher-reviewable narrative produced alongside criterion scores.
type FeedbackDraft struct {
	ID             uuid.UUID                            `gorm:"type:uuid;primaryKey" json:"id"`
	SubmissionID   uuid.UUID                            `gorm:"type:uuid;not null;uniqueIndex" json:"submission_id"`
	TeacherID      uuid.UUID                            `gorm:"type:uuid;index" json:"teacher_id"`
	AIFeedback     string                               `gorm:"column:ai_feedback;not null" json:"ai_feedback"`
	TeacherEdits   *string                              `gorm:"column:teacher_edits" json:"teacher_edits,omitempty"`
	FinalFeedback  *string                              `gorm:"column:final_feedback" json:"final_feedback,omitempty"`
	Status         string                               `gorm:"column:status;not null;index" json:"status"`
	LetterGrade    string                               `gorm:"column:letter_grade" json:"letter_grade"`
	Strengths      datatypes.JSONSlice[string]          `gorm:"column:strengths" json:"strengths"`
	Improvements   datatypes.JSONSlice[string]          `gorm:"column:improvements" json:"improvements"`
	NextSteps      datatypes.JSONSlice[string]          `gorm:"column:next_steps" json:"next_steps"`
	Misconceptions datatypes.JSONSlice[string]          `gorm:"column:misconceptions" json:"misconceptions"`
	Metadata       datatypes.JSONType[FeedbackMetadata] `gorm:"column:metadata" json:"metadata"`
	CreatedAt      time.Time                            `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time                            `gorm:"not null" json:"updated_at"`
}

func (FeedbackDraft) TableName() string { return "feedback_draft" }
