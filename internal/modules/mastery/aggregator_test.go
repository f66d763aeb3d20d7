package mastery

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-grading/internal/data/repos"
	"github.com/yungbote/neurobridge-grading/internal/data/repos/testutil"
	domainagg "github.com/yungbote/neurobridge-grading/internal/domain/aggregates"
	gradingtypes "github.com/yungbote/neurobridge-grading/internal/domain/grading"
	types "github.com/yungbote/neurobridge-grading/internal/domain/mastery"
	"github.com/yungbote/neurobridge-grading/internal/observability"
	"github.com/yungbote/neurobridge-grading/internal/pkg/dbctx"
)

func TestAggregatorRecordLoadsScoresAndAppends(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	log := testutil.Logger(t)
	set := repos.NewSet(db, log)

	std := testutil.SeedStandard(t, ctx, db, "W.8.1")
	rubric := testutil.SeedRubric(t, ctx, db,
		testutil.CriterionSpec{Name: "Claim", Weight: 0.5, StandardID: &std.ID},
		testutil.CriterionSpec{Name: "Grammar", Weight: 0.5},
	)
	asg := testutil.SeedAssignment(t, ctx, db, rubric, uuid.New())
	sub := testutil.SeedSubmission(t, ctx, db, asg.ID, uuid.New(), gradingtypes.SubmissionStatusGraded)
	if _, err := set.CriterionScores.Create(dbctx.Context{Ctx: ctx}, []*gradingtypes.CriterionScore{
		{SubmissionID: sub.ID, CriterionID: rubric.Criteria[0].ID, CriterionName: "Claim", Level: "Proficient", Score: 37.5, MaxScore: 50, Justification: "ok"},
		{SubmissionID: sub.ID, CriterionID: rubric.Criteria[1].ID, CriterionName: "Grammar", Level: "Advanced", Score: 50, MaxScore: 50, Justification: "ok"},
	}); err != nil {
		t.Fatalf("seed scores: %v", err)
	}

	metrics := observability.NewMetrics()
	now := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)
	agg := NewAggregator(AggregatorDeps{
		Log:     log,
		Records: set.MasteryRecords,
		Scores:  set.CriterionScores,
		Metrics: metrics,
		Now:     func() time.Time { return now },
	})

	created, err := agg.Record(ctx, sub, rubric, nil)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("want 1 record, got %d", len(created))
	}
	if created[0].ID == uuid.Nil || created[0].Score != 75 || created[0].Level != types.LevelProficient {
		t.Fatalf("unexpected record %+v", created[0])
	}

	stored, err := set.MasteryRecords.ListByStudent(dbctx.Background(), sub.StudentID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(stored) != 1 || stored[0].Source != asg.ID || stored[0].Notes != "Based on criteria: Claim" {
		t.Fatalf("unexpected stored ledger %+v", stored)
	}

	// a regrade appends rather than replacing.
	if _, err := agg.Record(ctx, sub, rubric, nil); err != nil {
		t.Fatalf("second Record: %v", err)
	}
	stored, _ = set.MasteryRecords.ListByStudent(dbctx.Background(), sub.StudentID)
	if len(stored) != 2 {
		t.Fatalf("ledger must be append-only, got %d rows", len(stored))
	}
}

func TestAggregatorRecordNothingMapped(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	set := repos.NewSet(db, testutil.Logger(t))
	rubric := testutil.SeedRubric(t, ctx, db, testutil.CriterionSpec{Name: "Claim", Weight: 1})
	sub := &gradingtypes.Submission{ID: uuid.New(), StudentID: uuid.New(), AssignmentID: uuid.New()}

	agg := NewAggregator(AggregatorDeps{Records: set.MasteryRecords, Scores: set.CriterionScores})
	created, err := agg.Record(ctx, sub, rubric, []gradingtypes.CriterionScore{{CriterionID: rubric.Criteria[0].ID, Score: 80, MaxScore: 100}})
	if err != nil || created != nil {
		t.Fatalf("want nil, nil; got %v, %v", created, err)
	}
}

func TestAggregatorRecordRejectsMissingInputs(t *testing.T) {
	agg := NewAggregator(AggregatorDeps{})
	if _, err := agg.Record(context.Background(), nil, &gradingtypes.Rubric{}, nil); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("want not_found, got %v", err)
	}
	sub := &gradingtypes.Submission{ID: uuid.New()}
	if _, err := agg.Record(context.Background(), sub, &gradingtypes.Rubric{}, nil); !domainagg.IsCode(err, domainagg.CodeInternal) {
		t.Fatalf("want internal for missing repo, got %v", err)
	}
}
