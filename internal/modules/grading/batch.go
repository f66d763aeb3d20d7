package grading

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/yungbote/neurobridge-grading/internal/data/repos"
	domainagg "github.com/yungbote/neurobridge-grading/internal/domain/aggregates"
	types "github.com/yungbote/neurobridge-grading/internal/domain/grading"
	"github.com/yungbote/neurobridge-grading/internal/observability"
	"github.com/yungbote/neurobridge-grading/internal/pkg/dbctx"
	"github.com/yungbote/neurobridge-grading/internal/platform/ctxutil"
	"github.com/yungbote/neurobridge-grading/internal/platform/envutil"
	"github.com/yungbote/neurobridge-grading/internal/platform/logger"
	redisclient "github.com/yungbote/neurobridge-grading/internal/platform/redis"
)

const (
	BatchItemGraded    = "graded"
	BatchItemFailed    = "failed"
	BatchItemConflict  = "conflict"
	BatchItemCancelled = "cancelled"

	defaultBatchConcurrency = 4
	defaultContextCacheTTL  = 10 * time.Minute
)

// AfterGradeFunc runs after an item commits. Its error is logged, never reported as a grading failure.
type AfterGradeFunc func(ctx context.Context, sub *types.Submission, rubric *types.Rubric, res *GradingResult) error

type CoordinatorDeps struct {
	Log          *logger.Logger
	Orchestrator *Orchestrator
	Aggregate    domainagg.SubmissionGradingAggregate

	Assignments repos.AssignmentRepo
	Rubrics     repos.RubricRepo
	Submissions repos.SubmissionRepo

	Cache    redisclient.JSONCache
	CacheTTL time.Duration

	Concurrency int
	Metrics     *observability.Metrics
	AfterGrade  AfterGradeFunc
}

type BatchOptions struct {
	Tone            string
	TeacherGuidance string
	TeacherID       uuid.UUID
}

type BatchItem struct {
	SubmissionID uuid.UUID `json:"submission_id"`
	Status       string    `json:"status"`
	Code         string    `json:"code,omitempty"`
	Error        string    `json:"error,omitempty"`
}

type BatchReport struct {
	AssignmentID uuid.UUID   `json:"assignment_id"`
	Total        int         `json:"total"`
	Graded       int         `json:"graded"`
	Failed       int         `json:"failed"`
	Skipped      int         `json:"skipped"`
	Items        []BatchItem `json:"items"`
}

// gradingContext is the per-assignment state shared by every item of a batch.
type gradingContext struct {
	Assignment types.Assignment `json:"assignment"`
	Rubric     types.Rubric     `json:"rubric"`
}

// Coordinator grades every submitted submission of an assignment with bounded concurrency.
type Coordinator struct {
	deps CoordinatorDeps
	log  *logger.Logger
}

func NewCoordinator(deps CoordinatorDeps) *Coordinator {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	if deps.Concurrency <= 0 {
		deps.Concurrency = envutil.Int("GRADING_BATCH_CONCURRENCY", defaultBatchConcurrency)
	}
	if deps.Concurrency <= 0 {
		deps.Concurrency = defaultBatchConcurrency
	}
	if deps.Cache == nil {
		deps.Cache = redisclient.NoopCache{}
	}
	if deps.CacheTTL <= 0 {
		deps.CacheTTL = envutil.Duration("GRADING_CACHE_TTL", defaultContextCacheTTL)
	}
	return &Coordinator{deps: deps, log: deps.Log.With("service", "BatchGradingCoordinator")}
}

// GradeBatch claims every submitted submission of the assignment, then grades the claimed ones.
// Only failures before dispatch return an error; per-item failures land in the report.
func (c *Coordinator) GradeBatch(ctx context.Context, assignmentID uuid.UUID, opts BatchOptions) (*BatchReport, error) {
	const op = "Grading.GradeBatch"
	if assignmentID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing assignment_id", nil)
	}
	if c.deps.Orchestrator == nil || c.deps.Aggregate == nil || c.deps.Submissions == nil {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "coordinator not configured", nil)
	}

	ctx, span := observability.StartSpan(ctx, "grading.batch", attribute.String("assignment_id", assignmentID.String()))
	report, err := c.gradeBatch(ctx, assignmentID, opts)
	if report != nil {
		span.SetAttributes(
			attribute.Int("batch.total", report.Total),
			attribute.Int("batch.graded", report.Graded),
			attribute.Int("batch.failed", report.Failed),
		)
	}
	observability.EndSpan(span, err)
	return report, err
}

func (c *Coordinator) gradeBatch(ctx context.Context, assignmentID uuid.UUID, opts BatchOptions) (*BatchReport, error) {
	const op = "Grading.GradeBatch"
	gc, err := c.loadContext(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if err := gradableRubric(op, &gc.Rubric); err != nil {
		return nil, err
	}
	subs, err := c.deps.Submissions.ListByAssignment(dbctx.Context{Ctx: ctx}, assignmentID, []string{types.SubmissionStatusSubmitted})
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}

	report := &BatchReport{AssignmentID: assignmentID, Total: len(subs), Items: make([]BatchItem, len(subs))}
	gradeOpts := GradeOptions{
		Tone:            opts.Tone,
		TeacherGuidance: opts.TeacherGuidance,
		TeacherID:       opts.TeacherID,
		Mode:            ModeBatch,
		CacheKey:        promptCacheKey(gc, opts),
	}

	// claim everything up front so a concurrent caller cannot pick up the same work
	claimed := make([]int, 0, len(subs))
	for i, sub := range subs {
		report.Items[i] = BatchItem{SubmissionID: sub.ID}
		if ctx.Err() != nil {
			report.Items[i].Status = BatchItemCancelled
			continue
		}
		if err := c.deps.Aggregate.Claim(ctx, sub.ID, []string{types.SubmissionStatusSubmitted}); err != nil {
			report.Items[i] = itemFailure(sub.ID, err)
			if domainagg.IsCode(err, domainagg.CodeConflict) || domainagg.IsCode(err, domainagg.CodeNotFound) {
				report.Items[i].Status = BatchItemConflict
			}
			continue
		}
		claimed = append(claimed, i)
	}

	sem := semaphore.NewWeighted(int64(c.deps.Concurrency))
	var g errgroup.Group
	for n, i := range claimed {
		if err := sem.Acquire(ctx, 1); err != nil {
			c.revertUndispatched(ctx, subs, claimed[n:], report)
			break
		}
		sub := subs[i]
		g.Go(func() error {
			defer sem.Release(1)
			// dispatched items run to completion even if the caller goes away
			report.Items[i] = c.gradeItem(ctxutil.Detached(ctx), sub, gc, gradeOpts)
			return nil
		})
	}
	_ = g.Wait()

	for _, item := range report.Items {
		switch item.Status {
		case BatchItemGraded:
			report.Graded++
		case BatchItemFailed:
			report.Failed++
		default:
			report.Skipped++
		}
		c.deps.Metrics.IncBatchItem(item.Status)
	}
	c.log.Info("batch grading finished",
		"assignment_id", assignmentID,
		"total", report.Total,
		"graded", report.Graded,
		"failed", report.Failed,
		"skipped", report.Skipped,
	)
	return report, nil
}

func (c *Coordinator) gradeItem(ctx context.Context, sub *types.Submission, gc *gradingContext, opts GradeOptions) BatchItem {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "grading.batch.item", attribute.String("submission_id", sub.ID.String()))
	res, err := c.deps.Orchestrator.gradeClaimed(ctx, sub, &gc.Rubric, &gc.Assignment, opts)
	observability.EndSpan(span, err)
	c.deps.Metrics.ObserveGrading(ModeBatch, outcomeOf(err), time.Since(start))
	if err != nil {
		return itemFailure(sub.ID, err)
	}
	if c.deps.AfterGrade != nil {
		if herr := c.deps.AfterGrade(ctx, sub, &gc.Rubric, res); herr != nil {
			c.log.Warn("post-grade hook failed", "submission_id", sub.ID, "error", herr)
		}
	}
	return BatchItem{SubmissionID: sub.ID, Status: BatchItemGraded}
}

func (c *Coordinator) revertUndispatched(ctx context.Context, subs []*types.Submission, idx []int, report *BatchReport) {
	rctx := ctxutil.Detached(ctx)
	for _, i := range idx {
		id := subs[i].ID
		report.Items[i] = BatchItem{SubmissionID: id, Status: BatchItemCancelled, Error: "batch cancelled before dispatch"}
		if err := c.deps.Aggregate.Release(rctx, id, types.SubmissionStatusSubmitted); err != nil {
			c.log.Error("failed to revert undispatched submission", "submission_id", id, "error", err)
		}
	}
}

func (c *Coordinator) loadContext(ctx context.Context, assignmentID uuid.UUID) (*gradingContext, error) {
	const op = "Grading.GradeBatch.LoadContext"
	key := "assignment:" + assignmentID.String()

	var cached gradingContext
	if hit, err := c.deps.Cache.Get(ctx, key, &cached); err != nil {
		c.log.Warn("grading context cache read failed", "assignment_id", assignmentID, "error", err)
	} else if hit && cached.Assignment.ID == assignmentID && len(cached.Rubric.Criteria) > 0 {
		return &cached, nil
	}

	if c.deps.Assignments == nil || c.deps.Rubrics == nil {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "context repos not configured", nil)
	}
	dbc := dbctx.Context{Ctx: ctx}
	assignment, err := c.deps.Assignments.GetByID(dbc, assignmentID)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if assignment == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, "assignment not found", nil)
	}
	rubric, err := c.deps.Rubrics.GetByID(dbc, assignment.RubricID)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if rubric == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, "rubric not found", nil)
	}

	gc := &gradingContext{Assignment: *assignment, Rubric: *rubric}
	if err := c.deps.Cache.Set(ctx, key, gc, c.deps.CacheTTL); err != nil {
		c.log.Warn("grading context cache write failed", "assignment_id", assignmentID, "error", err)
	}
	return gc, nil
}

func promptCacheKey(gc *gradingContext, opts BatchOptions) string {
	tone := opts.Tone
	if tone == "" {
		tone = ToneEncouraging
	}
	return fmt.Sprintf("grade:%s:%s:%s", gc.Assignment.ID, gc.Rubric.ID, tone)
}

func itemFailure(id uuid.UUID, err error) BatchItem {
	item := BatchItem{SubmissionID: id, Status: BatchItemFailed, Code: string(domainagg.CodeOf(err))}
	if item.Code == "" {
		item.Code = string(domainagg.CodeInternal)
	}
	if err != nil {
		item.Error = err.Error()
		var aggErr *domainagg.Error
		if errors.As(err, &aggErr) && aggErr.Message != "" {
			item.Error = aggErr.Message
			if issues := domainagg.IssuesOf(err); len(issues) > 0 {
				item.Error = aggErr.Message + ": " + domainagg.ValidationIssues(issues).Error()
			}
		}
	}
	return item
}
