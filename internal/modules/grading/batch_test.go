package grading

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-grading/internal/data/repos/testutil"
	domainagg "github.com/yungbote/neurobridge-grading/internal/domain/aggregates"
	types "github.com/yungbote/neurobridge-grading/internal/domain/grading"
	"github.com/yungbote/neurobridge-grading/internal/pkg/dbctx"
)

// memoryCache is a JSONCache that keeps values in process.
type memoryCache struct {
	values map[string]any
	gets   int
	hits   int
}

func (m *memoryCache) Get(_ context.Context, key string, dst any) (bool, error) {
	m.gets++
	v, ok := m.values[key]
	if !ok {
		return false, nil
	}
	m.hits++
	*(dst.(*gradingContext)) = *(v.(*gradingContext))
	return true, nil
}

func (m *memoryCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.values[key] = value
	return nil
}

func newCoordinator(f *orchestratorFixture, cache *memoryCache, after AfterGradeFunc) *Coordinator {
	deps := CoordinatorDeps{
		Orchestrator: f.orch,
		Aggregate:    f.agg,
		Assignments:  f.set.Assignments,
		Rubrics:      f.set.Rubrics,
		Submissions:  f.set.Submissions,
		Concurrency:  2,
		Metrics:      f.metrics,
		AfterGrade:   after,
	}
	if cache != nil {
		deps.Cache = cache
	}
	return NewCoordinator(deps)
}

func TestGradeBatchIsolatesFailures(t *testing.T) {
	f := newOrchestratorFixture(t)
	subs := make([]*types.Submission, 5)
	for i := range subs {
		subs[i] = f.submission(t, types.SubmissionStatusSubmitted)
	}
	f.gen.malformed[subs[2].ID.String()] = true

	var hooked atomic.Int32
	c := newCoordinator(f, nil, func(ctx context.Context, sub *types.Submission, r *types.Rubric, res *GradingResult) error {
		hooked.Add(1)
		return nil
	})

	report, err := c.GradeBatch(context.Background(), f.asg.ID, BatchOptions{Tone: ToneSocratic})
	if err != nil {
		t.Fatalf("GradeBatch: %v", err)
	}
	if report.Total != 5 || report.Graded != 4 || report.Failed != 1 || report.Skipped != 0 {
		t.Fatalf("unexpected counts %+v", report)
	}
	for _, item := range report.Items {
		want := BatchItemGraded
		if item.SubmissionID == subs[2].ID {
			want = BatchItemFailed
			if item.Code != string(domainagg.CodeValidation) || item.Error == "" {
				t.Fatalf("failed item should carry the validation error: %+v", item)
			}
		}
		if item.Status != want {
			t.Fatalf("submission %s: want %s got %s", item.SubmissionID, want, item.Status)
		}
	}
	if got := f.reload(t, subs[2].ID); got.Status != types.SubmissionStatusSubmitted {
		t.Fatalf("failed item should revert to submitted, got %s", got.Status)
	}
	if got := f.reload(t, subs[4].ID); got.Status != types.SubmissionStatusGraded {
		t.Fatalf("sibling should be graded, got %s", got.Status)
	}
	if hooked.Load() != 4 {
		t.Fatalf("after-grade hook should run per graded item, ran %d", hooked.Load())
	}
	if f.gen.lastReq.CacheKey == "" {
		t.Fatalf("batch items should share a prompt cache key")
	}
	draft, _ := f.set.FeedbackDrafts.GetBySubmissionID(dbctx.Background(), subs[0].ID)
	if draft == nil || !draft.Metadata.Data().BatchGraded {
		t.Fatalf("batch drafts should be flagged")
	}
	if f.metrics.GradingOutcomes(ModeBatch, "graded") != 4 || f.metrics.GradingOutcomes(ModeBatch, "validation") != 1 {
		t.Fatalf("batch outcomes not recorded")
	}
}

func TestGradeBatchSkipsNonSubmittedWork(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.submission(t, types.SubmissionStatusGraded)
	f.submission(t, types.SubmissionStatusGrading)
	open := f.submission(t, types.SubmissionStatusSubmitted)

	report, err := newCoordinator(f, nil, nil).GradeBatch(context.Background(), f.asg.ID, BatchOptions{})
	if err != nil {
		t.Fatalf("GradeBatch: %v", err)
	}
	if report.Total != 1 || report.Graded != 1 || report.Items[0].SubmissionID != open.ID {
		t.Fatalf("only submitted work should be picked up: %+v", report)
	}

	again, err := newCoordinator(f, nil, nil).GradeBatch(context.Background(), f.asg.ID, BatchOptions{})
	if err != nil {
		t.Fatalf("second batch: %v", err)
	}
	if again.Total != 0 || f.gen.calls.Load() != 1 {
		t.Fatalf("nothing should be regraded: %+v calls=%d", again, f.gen.calls.Load())
	}
}

func TestGradeBatchCancelledBeforeDispatch(t *testing.T) {
	f := newOrchestratorFixture(t)
	subs := []*types.Submission{
		f.submission(t, types.SubmissionStatusSubmitted),
		f.submission(t, types.SubmissionStatusSubmitted),
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := newCoordinator(f, nil, nil).GradeBatch(ctx, f.asg.ID, BatchOptions{})
	if err == nil {
		if report.Graded != 0 || report.Skipped != 2 {
			t.Fatalf("cancelled batch should not grade: %+v", report)
		}
	}
	if f.gen.calls.Load() != 0 {
		t.Fatalf("generator should not be called")
	}
	for _, s := range subs {
		if got := f.reload(t, s.ID); got.Status != types.SubmissionStatusSubmitted {
			t.Fatalf("cancelled batch left %s in %s", s.ID, got.Status)
		}
	}
}

func TestRevertUndispatched(t *testing.T) {
	f := newOrchestratorFixture(t)
	sub := f.submission(t, types.SubmissionStatusSubmitted)
	if err := f.agg.Claim(context.Background(), sub.ID, nil); err != nil {
		t.Fatalf("claim: %v", err)
	}
	c := newCoordinator(f, nil, nil)
	report := &BatchReport{Items: make([]BatchItem, 1)}
	c.revertUndispatched(context.Background(), []*types.Submission{sub}, []int{0}, report)

	if report.Items[0].Status != BatchItemCancelled {
		t.Fatalf("want cancelled item, got %+v", report.Items[0])
	}
	if got := f.reload(t, sub.ID); got.Status != types.SubmissionStatusSubmitted {
		t.Fatalf("undispatched item should be released, got %s", got.Status)
	}
}

func TestGradeBatchUsesCachedContext(t *testing.T) {
	f := newOrchestratorFixture(t)
	cache := &memoryCache{values: map[string]any{}}
	c := newCoordinator(f, cache, nil)

	for i := 0; i < 2; i++ {
		f.submission(t, types.SubmissionStatusSubmitted)
		if _, err := c.GradeBatch(context.Background(), f.asg.ID, BatchOptions{}); err != nil {
			t.Fatalf("batch %d: %v", i, err)
		}
	}
	if cache.gets != 2 || cache.hits != 1 {
		t.Fatalf("second batch should hit the cache: gets=%d hits=%d", cache.gets, cache.hits)
	}
}

func TestGradeBatchUnknownAssignment(t *testing.T) {
	f := newOrchestratorFixture(t)
	_, err := newCoordinator(f, nil, nil).GradeBatch(context.Background(), uuid.New(), BatchOptions{})
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("want not found, got %v", err)
	}
	if _, err := newCoordinator(f, nil, nil).GradeBatch(context.Background(), uuid.Nil, BatchOptions{}); !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("want validation, got %v", err)
	}
}

func TestGradeBatchRejectsEmptyRubricBeforeClaiming(t *testing.T) {
	f := newOrchestratorFixture(t)
	ctx := context.Background()
	rubric := testutil.SeedRubric(t, ctx, f.db)
	asg := testutil.SeedAssignment(t, ctx, f.db, rubric, uuid.New())
	sub := testutil.SeedSubmission(t, ctx, f.db, asg.ID, uuid.New(), types.SubmissionStatusSubmitted)

	_, err := newCoordinator(f, nil, nil).GradeBatch(ctx, asg.ID, BatchOptions{})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("want validation, got %v", err)
	}
	if f.gen.calls.Load() != 0 {
		t.Fatalf("generator must not run, calls=%d", f.gen.calls.Load())
	}
	if got := f.reload(t, sub.ID); got.Status != types.SubmissionStatusSubmitted {
		t.Fatalf("empty rubric changed status to %s", got.Status)
	}
}
