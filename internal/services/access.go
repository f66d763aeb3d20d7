package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-grading/internal/data/repos"
	"github.com/yungbote/neurobridge-grading/internal/domain/auth"
	gradingtypes "github.com/yungbote/neurobridge-grading/internal/domain/grading"
	masterytypes "github.com/yungbote/neurobridge-grading/internal/domain/mastery"
	"github.com/yungbote/neurobridge-grading/internal/pkg/dbctx"
	"github.com/yungbote/neurobridge-grading/internal/platform/apierr"
)

func errUnauthorized() error {
	return apierr.Unauthorized("missing or invalid caller")
}

func errForbidden(what string) error {
	return apierr.Forbidden("not allowed to " + what)
}

func privileged(c auth.Caller) bool {
	return c.Role == auth.RoleAdmin || c.IsSystem()
}

// access answers class-membership questions for caller checks.
type access struct {
	members repos.ClassMemberRepo
}

func (a access) teachesClass(ctx context.Context, teacherID, classID uuid.UUID) (bool, error) {
	if a.members == nil || teacherID == uuid.Nil || classID == uuid.Nil {
		return false, nil
	}
	rows, err := a.members.ListByUser(dbctx.Context{Ctx: ctx}, teacherID, masterytypes.ClassRoleTeacher)
	if err != nil {
		return false, err
	}
	for _, m := range rows {
		if m.ClassID == classID {
			return true, nil
		}
	}
	return false, nil
}

func (a access) teachesStudent(ctx context.Context, teacherID, studentID uuid.UUID) (bool, error) {
	if a.members == nil || teacherID == uuid.Nil || studentID == uuid.Nil {
		return false, nil
	}
	dbc := dbctx.Context{Ctx: ctx}
	teaching, err := a.members.ListByUser(dbc, teacherID, masterytypes.ClassRoleTeacher)
	if err != nil {
		return false, err
	}
	if len(teaching) == 0 {
		return false, nil
	}
	enrolled, err := a.members.ListByUser(dbc, studentID, masterytypes.ClassRoleStudent)
	if err != nil {
		return false, err
	}
	classes := make(map[uuid.UUID]bool, len(teaching))
	for _, m := range teaching {
		classes[m.ClassID] = true
	}
	for _, m := range enrolled {
		if classes[m.ClassID] {
			return true, nil
		}
	}
	return false, nil
}

// canManageAssignment allows the owning teacher, any teacher of the class, admins and the system.
func (a access) canManageAssignment(ctx context.Context, c auth.Caller, asg *gradingtypes.Assignment) (bool, error) {
	if privileged(c) {
		return true, nil
	}
	if c.Role != auth.RoleTeacher || asg == nil {
		return false, nil
	}
	if asg.TeacherID == c.UserID {
		return true, nil
	}
	return a.teachesClass(ctx, c.UserID, asg.ClassID)
}
