package auth

import (
	"strings"

	"github.com/google/uuid"
)

const (
	RoleTeacher = "teacher"
	RoleStudent = "student"
	RoleAdmin   = "admin"
	RoleSystem  = "system"
)

// Caller is the identity handed explicitly to every pipeline entry point.
type Caller struct {
	UserID uuid.UUID
	Role   string
}

// SystemCaller identifies non-interactive callers such as the batch CLI.
func SystemCaller() Caller {
	return Caller{UserID: uuid.Nil, Role: RoleSystem}
}

func (c Caller) IsSystem() bool { return c.Role == RoleSystem }

// Valid requires a known role and, for human roles, a user id.
func (c Caller) Valid() bool {
	switch strings.ToLower(strings.TrimSpace(c.Role)) {
	case RoleSystem:
		return true
	case RoleTeacher, RoleStudent, RoleAdmin:
		return c.UserID != uuid.Nil
	default:
		return false
	}
}

// CanGrade reports whether the caller may trigger grading or review feedback.
func (c Caller) CanGrade() bool {
	switch c.Role {
	case RoleTeacher, RoleAdmin, RoleSystem:
		return true
	default:
		return false
	}
}
