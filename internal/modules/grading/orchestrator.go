package grading

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"

	domainagg "github.com/yungbote/neurobridge-grading/internal/domain/aggregates"
	types "github.com/yungbote/neurobridge-grading/internal/domain/grading"
	"github.com/yungbote/neurobridge-grading/internal/observability"
	"github.com/yungbote/neurobridge-grading/internal/platform/ctxutil"
	"github.com/yungbote/neurobridge-grading/internal/platform/envutil"
	"github.com/yungbote/neurobridge-grading/internal/platform/logger"
	redisclient "github.com/yungbote/neurobridge-grading/internal/platform/redis"
)

const (
	ModeSingle = "single"
	ModeBatch  = "batch"

	defaultGeneratorTimeout = 90 * time.Second
	defaultLockTTL          = 3 * time.Minute
)

type OrchestratorDeps struct {
	Log       *logger.Logger
	Aggregate domainagg.SubmissionGradingAggregate
	Generator Generator

	// Locker is optional; the status compare-and-swap is authoritative.
	Locker  redisclient.Locker
	Metrics *observability.Metrics

	GeneratorTimeout time.Duration
	LockTTL          time.Duration
	Now              func() time.Time
}

// GradeOptions tune one grading attempt.
type GradeOptions struct {
	Tone            string
	TeacherGuidance string
	TeacherID       uuid.UUID
	Mode            string
	CacheKey        string

	// Regenerate re-grades an already graded submission instead of a submitted one.
	Regenerate bool
}

// GradingResult is what a successful attempt persisted.
type GradingResult struct {
	SubmissionID uuid.UUID              `json:"submission_id"`
	Status       string                 `json:"status"`
	TotalScore   float64                `json:"total_score"`
	MaxScore     float64                `json:"max_score"`
	Percentage   int                    `json:"percentage"`
	LetterGrade  string                 `json:"letter_grade"`
	Scores       []types.CriterionScore `json:"criterion_scores"`
	Feedback     FeedbackSummary        `json:"feedback"`
	GradedAt     time.Time              `json:"graded_at"`
}

type FeedbackSummary struct {
	OverallFeedback string   `json:"overall_feedback"`
	Strengths       []string `json:"strengths"`
	Improvements    []string `json:"improvements"`
	NextSteps       []string `json:"next_steps"`
	Misconceptions  []string `json:"misconceptions"`
}

// Orchestrator drives one submission through claim, generation, validation and commit.
type Orchestrator struct {
	deps OrchestratorDeps
	log  *logger.Logger
}

func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	if deps.GeneratorTimeout <= 0 {
		deps.GeneratorTimeout = envutil.Duration("GRADING_GENERATOR_TIMEOUT", defaultGeneratorTimeout)
	}
	if deps.LockTTL <= 0 {
		deps.LockTTL = defaultLockTTL
	}
	if deps.Locker == nil {
		deps.Locker = redisclient.NoopLocker{}
	}
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Orchestrator{deps: deps, log: deps.Log.With("service", "GradingOrchestrator")}
}

// Grade claims a submitted submission and grades it. Any failure after the claim
// puts the submission back where it was; a lost claim is a conflict with no side effects.
func (o *Orchestrator) Grade(ctx context.Context, sub *types.Submission, rubric *types.Rubric, assignment *types.Assignment, opts GradeOptions) (*GradingResult, error) {
	const op = "Grading.Grade"
	if sub == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, "submission not found", nil)
	}
	if rubric == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, "rubric not found", nil)
	}
	if err := gradableRubric(op, rubric); err != nil {
		return nil, err
	}
	if o == nil || o.deps.Aggregate == nil || o.deps.Generator == nil {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "orchestrator not configured", nil)
	}

	start := time.Now()
	mode := modeOf(opts)
	ctx, span := observability.StartSpan(ctx, "grading.grade",
		attribute.String("submission_id", sub.ID.String()),
		attribute.String("mode", mode),
		attribute.Bool("regenerate", opts.Regenerate),
	)

	res, err := o.grade(ctx, sub, rubric, assignment, opts)
	observability.EndSpan(span, err)
	o.deps.Metrics.ObserveGrading(mode, outcomeOf(err), time.Since(start))
	return res, err
}

func (o *Orchestrator) grade(ctx context.Context, sub *types.Submission, rubric *types.Rubric, assignment *types.Assignment, opts GradeOptions) (*GradingResult, error) {
	const op = "Grading.Grade"
	release, err := o.deps.Locker.Acquire(ctx, sub.ID.String(), o.deps.LockTTL)
	switch {
	case errors.Is(err, redisclient.ErrLockHeld):
		return nil, domainagg.NewError(domainagg.CodeConflict, op, "submission is already being graded", err)
	case err != nil:
		o.log.Warn("submission lock unavailable; relying on status guard", "submission_id", sub.ID, "error", err)
	case release != nil:
		defer func() {
			if rerr := release(ctxutil.Detached(ctx)); rerr != nil {
				o.log.Warn("submission lock release failed", "submission_id", sub.ID, "error", rerr)
			}
		}()
	}

	from, _ := claimTransition(opts)
	if err := o.deps.Aggregate.Claim(ctx, sub.ID, from); err != nil {
		return nil, err
	}
	return o.gradeClaimed(ctx, sub, rubric, assignment, opts)
}

// gradeClaimed runs generate, validate and commit for a submission already in grading.
// The caller owns the claim; this releases it on failure.
func (o *Orchestrator) gradeClaimed(ctx context.Context, sub *types.Submission, rubric *types.Rubric, assignment *types.Assignment, opts GradeOptions) (*GradingResult, error) {
	res, err := o.generateAndCommit(ctx, sub, rubric, assignment, opts)
	if err != nil {
		_, revertTo := claimTransition(opts)
		o.revert(ctx, sub.ID, revertTo, err)
		return nil, err
	}
	return res, nil
}

func (o *Orchestrator) generateAndCommit(ctx context.Context, sub *types.Submission, rubric *types.Rubric, assignment *types.Assignment, opts GradeOptions) (*GradingResult, error) {
	const op = "Grading.Generate"

	genCtx, cancel := context.WithTimeout(ctx, o.deps.GeneratorTimeout)
	generated, err := o.deps.Generator.Generate(genCtx, GenerateRequest{
		SubmissionID:    sub.ID.String(),
		Rubric:          rubric,
		Assignment:      assignment,
		Content:         sub.Content,
		Tone:            opts.Tone,
		TeacherGuidance: opts.TeacherGuidance,
		CacheKey:        opts.CacheKey,
	})
	cancel()
	if err != nil {
		return nil, classifyGeneratorError(op, err)
	}

	valid, err := Validate(rubric, generated)
	if err != nil {
		return nil, err
	}

	now := o.deps.Now()
	teacherID := opts.TeacherID
	if teacherID == uuid.Nil && assignment != nil {
		teacherID = assignment.TeacherID
	}
	meta := types.FeedbackMetadata{
		Tone:        opts.Tone,
		BatchGraded: modeOf(opts) == ModeBatch,
		Regenerated: opts.Regenerate,
		Model:       generated.Model,
	}
	if opts.Regenerate {
		meta.RegeneratedAt = &now
	}

	commit, err := o.deps.Aggregate.Commit(ctx, domainagg.CommitGradingInput{
		SubmissionID: sub.ID,
		Scores:       valid.Scores,
		Draft:        newDraft(teacherID, valid, meta),
		TotalScore:   valid.TotalScore,
		MaxScore:     valid.MaxScore,
		LetterGrade:  valid.LetterGrade,
		GradedAt:     now,
	})
	if err != nil {
		return nil, err
	}

	scores := make([]types.CriterionScore, len(valid.Scores))
	copy(scores, valid.Scores)
	for i := range scores {
		scores[i].SubmissionID = sub.ID
	}
	pct := 0
	if valid.MaxScore > 0 {
		pct = types.RoundPct(valid.TotalScore / valid.MaxScore * 100)
	}
	o.log.Info("submission graded", append(ctxutil.LogFields(ctx),
		"submission_id", sub.ID, "total", valid.TotalScore, "max", valid.MaxScore, "letter", valid.LetterGrade)...)
	return &GradingResult{
		SubmissionID: sub.ID,
		Status:       commit.Status,
		TotalScore:   valid.TotalScore,
		MaxScore:     valid.MaxScore,
		Percentage:   pct,
		LetterGrade:  valid.LetterGrade,
		Scores:       scores,
		Feedback: FeedbackSummary{
			OverallFeedback: valid.OverallFeedback,
			Strengths:       valid.Strengths,
			Improvements:    valid.Improvements,
			NextSteps:       valid.NextSteps,
			Misconceptions:  valid.Misconceptions,
		},
		GradedAt: commit.GradedAt,
	}, nil
}

// revert runs on a context that outlives the caller so a cancelled request
// never strands a submission in grading.
func (o *Orchestrator) revert(ctx context.Context, submissionID uuid.UUID, to string, cause error) {
	if err := o.deps.Aggregate.Release(ctxutil.Detached(ctx), submissionID, to); err != nil {
		o.log.Error("grading revert failed", "submission_id", submissionID, "to", to, "cause", cause, "error", err)
		return
	}
	o.log.Warn("grading failed; submission reverted", append(ctxutil.LogFields(ctx),
		"submission_id", submissionID, "to", to, "error", cause)...)
}

func newDraft(teacherID uuid.UUID, v *ValidatedGrade, meta types.FeedbackMetadata) types.FeedbackDraft {
	return types.FeedbackDraft{
		TeacherID:      teacherID,
		AIFeedback:     v.OverallFeedback,
		LetterGrade:    v.LetterGrade,
		Strengths:      v.Strengths,
		Improvements:   v.Improvements,
		NextSteps:      v.NextSteps,
		Misconceptions: v.Misconceptions,
		Metadata:       datatypes.NewJSONType(meta),
	}
}

// gradableRubric rejects a rubric that cannot produce a grade, before any claim or generator call.
func gradableRubric(op string, r *types.Rubric) error {
	if len(r.Criteria) == 0 || len(r.Levels) == 0 {
		return domainagg.NewError(domainagg.CodeValidation, op, "rubric has no criteria or levels", nil)
	}
	return nil
}

// claimTransition returns the statuses a claim may start from and where a failed attempt returns to.
func claimTransition(opts GradeOptions) ([]string, string) {
	if opts.Regenerate {
		return []string{types.SubmissionStatusGraded}, types.SubmissionStatusGraded
	}
	return []string{types.SubmissionStatusSubmitted}, types.SubmissionStatusSubmitted
}

func classifyGeneratorError(op string, err error) error {
	var malformed *malformedOutputError
	switch {
	case domainagg.CodeOf(err) != "":
		return err
	case errors.As(err, &malformed):
		return domainagg.NewError(domainagg.CodeValidation, op, malformed.Error(), err)
	case errors.Is(err, context.DeadlineExceeded):
		return domainagg.NewError(domainagg.CodeTransport, op, "generator timed out", err)
	default:
		return domainagg.NewError(domainagg.CodeTransport, op, "generator call failed", err)
	}
}

func modeOf(opts GradeOptions) string {
	if opts.Mode == "" {
		return ModeSingle
	}
	return opts.Mode
}

func outcomeOf(err error) string {
	if err == nil {
		return "graded"
	}
	if code := domainagg.CodeOf(err); code != "" {
		return string(code)
	}
	return string(domainagg.CodeInternal)
}
