package mastery

import (
	"time"

	"github.com/google/uuid"
)

// Standard is a learning standard criteria can be mapped to.
type Standard struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Code        string    `gorm:"column:code;not null;uniqueIndex" json:"code"`
	Description string    `gorm:"column:description;not null" json:"description"`
	Subject     string    `gorm:"column:subject;index" json:"subject,omitempty"`
	GradeLevel  string    `gorm:"column:grade_level" json:"grade_level,omitempty"`
	Domain      string    `gorm:"column:domain" json:"domain,omitempty"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
}

func (Standard) TableName() string { return "standard" }

const (
	ClassRoleTeacher = "teacher"
	ClassRoleStudent = "student"
)

// ClassMember links a user to a class; student rows define cohort size.
type ClassMember struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ClassID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_class_member_class_user" json:"class_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_class_member_class_user" json:"user_id"`
	Role      string    `gorm:"column:role;not null;index" json:"role"`
	Name      string    `gorm:"column:name" json:"name,omitempty"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (ClassMember) TableName() string { return "class_member" }
