package mastery_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	masteryrepo "github.com/yungbote/neurobridge-grading/internal/data/repos/mastery"
	"github.com/yungbote/neurobridge-grading/internal/data/repos/testutil"
	types "github.com/yungbote/neurobridge-grading/internal/domain/mastery"
	"github.com/yungbote/neurobridge-grading/internal/pkg/dbctx"
)

func TestMasteryRecordRepoNewestFirst(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := masteryrepo.NewMasteryRecordRepo(db, testutil.Logger(t))
	student, standard := uuid.New(), uuid.New()
	t0 := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

	_, err := repo.Append(dbctx.Context{Ctx: ctx}, []*types.MasteryRecord{
		{StudentID: student, StandardID: standard, Level: types.LevelDeveloping, Score: 60, Source: uuid.New(), AssessedAt: t0},
		{StudentID: student, StandardID: standard, Level: types.LevelAdvanced, Score: 90, Source: uuid.New(), AssessedAt: t0.Add(48 * time.Hour)},
		{StudentID: uuid.New(), StandardID: standard, Level: types.LevelBeginning, Score: 20, Source: uuid.New(), AssessedAt: t0},
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	recs, err := repo.ListByStudent(dbctx.Context{Ctx: ctx}, student)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 2 || recs[0].Score != 90 {
		t.Fatalf("want newest first, got %+v", recs)
	}
	cohort, _ := repo.ListByStudents(dbctx.Context{Ctx: ctx}, []uuid.UUID{student})
	if len(cohort) != 2 {
		t.Fatalf("cohort query leaked other students: %d", len(cohort))
	}
}

func TestClassMemberRepoFiltersRole(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := masteryrepo.NewClassMemberRepo(db, testutil.Logger(t))
	classID := uuid.New()
	testutil.SeedClassMember(t, ctx, db, classID, "Zoe", types.ClassRoleStudent)
	testutil.SeedClassMember(t, ctx, db, classID, "Ana", types.ClassRoleStudent)
	testutil.SeedClassMember(t, ctx, db, classID, "Ms. Lee", types.ClassRoleTeacher)

	students, err := repo.ListByClass(dbctx.Context{Ctx: ctx}, classID, types.ClassRoleStudent)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(students) != 2 || students[0].Name != "Ana" {
		t.Fatalf("want students sorted by name, got %+v", students)
	}
	everyone, _ := repo.ListByClass(dbctx.Context{Ctx: ctx}, classID, "")
	if len(everyone) != 3 {
		t.Fatalf("want 3 members got %d", len(everyone))
	}
}

func TestClassMemberRepoListByUser(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := masteryrepo.NewClassMemberRepo(db, testutil.Logger(t))
	teacher := testutil.SeedClassMember(t, ctx, db, uuid.New(), "Ms. Lee", types.ClassRoleTeacher)
	if _, err := repo.Create(dbctx.Context{Ctx: ctx}, []*types.ClassMember{
		{ClassID: uuid.New(), UserID: teacher.UserID, Role: types.ClassRoleTeacher, Name: "Ms. Lee"},
		{ClassID: uuid.New(), UserID: teacher.UserID, Role: types.ClassRoleStudent, Name: "Ms. Lee"},
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	teaching, err := repo.ListByUser(dbctx.Context{Ctx: ctx}, teacher.UserID, types.ClassRoleTeacher)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(teaching) != 2 {
		t.Fatalf("want 2 teaching memberships, got %d", len(teaching))
	}
	all, _ := repo.ListByUser(dbctx.Context{Ctx: ctx}, teacher.UserID, "")
	if len(all) != 3 {
		t.Fatalf("want 3 memberships, got %d", len(all))
	}
}
