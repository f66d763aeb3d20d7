package grading

import (
	"time"

	"github.com/google/uuid"
)

// Assignment is read-only context for grading.
type Assignment struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ClassID      uuid.UUID `gorm:"type:uuid;not null;index" json:"class_id"`
	TeacherID    uuid.UUID `gorm:"type:uuid;not null;index" json:"teacher_id"`
	RubricID     uuid.UUID `gorm:"type:uuid;not null;index" json:"rubric_id"`
	Title        string    `gorm:"column:title;not null" json:"title"`
	Description  string    `gorm:"column:description" json:"description,omitempty"`
	Instructions string    `gorm:"column:instructions" json:"instructions,omitempty"`
	Subject      string    `gorm:"column:subject" json:"subject,omitempty"`
	GradeLevel   string    `gorm:"column:grade_level" json:"grade_level,omitempty"`
	CreatedAt    time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}

func (Assignment) TableName() string { return "assignment" }
