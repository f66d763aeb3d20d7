package grading_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	gradingrepo "github.com/yungbote/neurobridge-grading/internal/data/repos/grading"
	"github.com/yungbote/neurobridge-grading/internal/data/repos/testutil"
	types "github.com/yungbote/neurobridge-grading/internal/domain/grading"
	"github.com/yungbote/neurobridge-grading/internal/pkg/dbctx"
)

func TestSubmissionRepoListAndCount(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := gradingrepo.NewSubmissionRepo(db, testutil.Logger(t))
	assignmentID := uuid.New()

	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	subs := []*types.Submission{
		{AssignmentID: assignmentID, StudentID: uuid.New(), Content: "a", SubmittedAt: base.Add(2 * time.Minute)},
		{AssignmentID: assignmentID, StudentID: uuid.New(), Content: "b", SubmittedAt: base},
		{AssignmentID: assignmentID, StudentID: uuid.New(), Content: "c", Status: types.SubmissionStatusGraded, SubmittedAt: base.Add(time.Minute)},
		{AssignmentID: uuid.New(), StudentID: uuid.New(), Content: "other"},
	}
	if _, err := repo.Create(dbctx.Context{Ctx: ctx}, subs); err != nil {
		t.Fatalf("create: %v", err)
	}
	if subs[0].ID == uuid.Nil || subs[0].Status != types.SubmissionStatusSubmitted {
		t.Fatalf("create should assign id and default status, got %+v", subs[0])
	}

	pending, err := repo.ListByAssignment(dbctx.Context{Ctx: ctx}, assignmentID, []string{types.SubmissionStatusSubmitted})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(pending) != 2 || pending[0].Content != "b" || pending[1].Content != "a" {
		t.Fatalf("want oldest-first pending [b a], got %d rows", len(pending))
	}
	all, _ := repo.ListByAssignment(dbctx.Context{Ctx: ctx}, assignmentID, nil)
	if len(all) != 3 {
		t.Fatalf("want 3 rows for assignment got %d", len(all))
	}

	counts, err := repo.CountByStatus(dbctx.Context{Ctx: ctx}, assignmentID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if counts[types.SubmissionStatusSubmitted] != 2 || counts[types.SubmissionStatusGraded] != 1 {
		t.Fatalf("unexpected counts %v", counts)
	}

	missing, err := repo.GetByID(dbctx.Context{Ctx: ctx}, uuid.New())
	if err != nil || missing != nil {
		t.Fatalf("missing row should be nil,nil got %v,%v", missing, err)
	}
}

func TestRubricRepoLoadsCriteriaInOrder(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := gradingrepo.NewRubricRepo(db, testutil.Logger(t))
	seeded := testutil.SeedRubric(t, ctx, db,
		testutil.CriterionSpec{Name: "Thesis", Weight: 0.25},
		testutil.CriterionSpec{Name: "Evidence", Weight: 0.25},
		testutil.CriterionSpec{Name: "Organization", Weight: 0.5},
	)

	got, err := repo.GetByID(dbctx.Context{Ctx: ctx}, seeded.ID)
	if err != nil || got == nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Criteria) != 3 || got.Criteria[2].Name != "Organization" {
		t.Fatalf("criteria not loaded in position order: %+v", got.Criteria)
	}
	if got.MaxScore() != 100 || len(got.Levels) != 4 {
		t.Fatalf("unexpected rubric max=%v levels=%v", got.MaxScore(), got.Levels)
	}
	if d := got.Criteria[0].Descriptor("proficient"); d != "Thesis at Proficient" {
		t.Fatalf("descriptor round trip failed: %q", d)
	}
}

func TestCriterionScoreRepoDelete(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := gradingrepo.NewCriterionScoreRepo(db, testutil.Logger(t))
	subID := uuid.New()
	_, err := repo.Create(dbctx.Context{Ctx: ctx}, []*types.CriterionScore{
		{SubmissionID: subID, CriterionID: uuid.New(), CriterionName: "A", Level: "Advanced", Score: 25, MaxScore: 25},
		{SubmissionID: subID, CriterionID: uuid.New(), CriterionName: "B", Level: "Beginning", Score: 0, MaxScore: 25},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	n, err := repo.DeleteBySubmissionID(dbctx.Context{Ctx: ctx}, subID)
	if err != nil || n != 2 {
		t.Fatalf("want 2 deleted got %d (%v)", n, err)
	}
}

func TestAssignmentRepoGetByIDs(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := gradingrepo.NewAssignmentRepo(db, testutil.Logger(t))
	rubric := testutil.SeedRubric(t, ctx, db, testutil.CriterionSpec{Name: "Claim", Weight: 1})
	a := testutil.SeedAssignment(t, ctx, db, rubric, uuid.New())
	b := testutil.SeedAssignment(t, ctx, db, rubric, uuid.New())

	got, err := repo.GetByIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{a.ID, b.ID, uuid.New()})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 assignments, got %d", len(got))
	}
	none, err := repo.GetByIDs(dbctx.Context{Ctx: ctx}, nil)
	if err != nil || len(none) != 0 {
		t.Fatalf("empty lookup: %v %d", err, len(none))
	}
}

func TestListBySubmissionIDs(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	log := testutil.Logger(t)
	scores := gradingrepo.NewCriterionScoreRepo(db, log)
	drafts := gradingrepo.NewFeedbackDraftRepo(db, log)
	dbc := dbctx.Context{Ctx: ctx}

	a, b, other := uuid.New(), uuid.New(), uuid.New()
	for _, sub := range []uuid.UUID{a, b, other} {
		if _, err := scores.Create(dbc, []*types.CriterionScore{
			{SubmissionID: sub, CriterionID: uuid.New(), CriterionName: "Thesis", Level: "Proficient", Score: 30, MaxScore: 40},
			{SubmissionID: sub, CriterionID: uuid.New(), CriterionName: "Evidence", Level: "Developing", Score: 20, MaxScore: 60},
		}); err != nil {
			t.Fatalf("create scores: %v", err)
		}
		if _, err := drafts.Create(dbc, &types.FeedbackDraft{SubmissionID: sub, AIFeedback: "ok"}); err != nil {
			t.Fatalf("create draft: %v", err)
		}
	}

	gotScores, err := scores.ListBySubmissionIDs(dbc, []uuid.UUID{a, b})
	if err != nil || len(gotScores) != 4 {
		t.Fatalf("want 4 scores, got %d (%v)", len(gotScores), err)
	}
	gotDrafts, err := drafts.ListBySubmissionIDs(dbc, []uuid.UUID{a, b})
	if err != nil || len(gotDrafts) != 2 {
		t.Fatalf("want 2 drafts, got %d (%v)", len(gotDrafts), err)
	}
	for _, d := range gotDrafts {
		if d.SubmissionID == other {
			t.Fatalf("draft of an unrequested submission returned")
		}
	}
	if empty, err := scores.ListBySubmissionIDs(dbc, nil); err != nil || len(empty) != 0 {
		t.Fatalf("empty id list should return nothing, got %d (%v)", len(empty), err)
	}
}
