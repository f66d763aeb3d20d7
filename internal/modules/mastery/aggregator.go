package mastery

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-grading/internal/data/repos"
	domainagg "github.com/yungbote/neurobridge-grading/internal/domain/aggregates"
	gradingtypes "github.com/yungbote/neurobridge-grading/internal/domain/grading"
	types "github.com/yungbote/neurobridge-grading/internal/domain/mastery"
	"github.com/yungbote/neurobridge-grading/internal/observability"
	"github.com/yungbote/neurobridge-grading/internal/pkg/dbctx"
	"github.com/yungbote/neurobridge-grading/internal/platform/logger"
)

type AggregatorDeps struct {
	Log     *logger.Logger
	Records repos.MasteryRecordRepo
	Scores  repos.CriterionScoreRepo
	Metrics *observability.Metrics
	Now     func() time.Time
}

// Aggregator appends mastery records derived from graded work. It never updates or deletes.
type Aggregator struct {
	deps AggregatorDeps
	log  *logger.Logger
}

func NewAggregator(deps AggregatorDeps) *Aggregator {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Aggregator{deps: deps, log: deps.Log.With("service", "MasteryAggregator")}
}

// Record derives and appends records for a graded submission. When scores is nil they are
// loaded from storage. It returns the appended rows, which may be empty when no criterion
// maps to a standard.
func (a *Aggregator) Record(ctx context.Context, sub *gradingtypes.Submission, rubric *gradingtypes.Rubric, scores []gradingtypes.CriterionScore) ([]*types.MasteryRecord, error) {
	const op = "Mastery.Record"
	if sub == nil || sub.ID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, "submission not found", nil)
	}
	if rubric == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, "rubric not found", nil)
	}
	if a.deps.Records == nil {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "mastery repo not configured", nil)
	}

	dbc := dbctx.Context{Ctx: ctx}
	if scores == nil {
		if a.deps.Scores == nil {
			return nil, domainagg.NewError(domainagg.CodeInternal, op, "score repo not configured", nil)
		}
		rows, err := a.deps.Scores.ListBySubmissionID(dbc, sub.ID)
		if err != nil {
			return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
		}
		scores = make([]gradingtypes.CriterionScore, 0, len(rows))
		for _, r := range rows {
			scores = append(scores, *r)
		}
	}

	derived := DeriveMastery(sub, rubric, scores, a.deps.Now())
	if len(derived) == 0 {
		return nil, nil
	}
	rows := make([]*types.MasteryRecord, len(derived))
	for i := range derived {
		rows[i] = &derived[i]
	}
	created, err := a.deps.Records.Append(dbc, rows)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, fmt.Errorf("append mastery records: %w", err))
	}
	for _, r := range created {
		a.deps.Metrics.AddMasteryRecord(r.Level)
	}
	a.log.Info("mastery records appended", "submission_id", sub.ID, "student_id", sub.StudentID, "count", len(created))
	return created, nil
}
