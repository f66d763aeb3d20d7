package aggregates

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-grading/internal/data/repos"
	domainagg "github.com/yungbote/neurobridge-grading/internal/domain/aggregates"
	"github.com/yungbote/neurobridge-grading/internal/domain/grading"
	"github.com/yungbote/neurobridge-grading/internal/pkg/dbctx"
)

const submissionTable = "submission"

// scoreTolerance absorbs two-decimal rounding when per-criterion scores are summed.
const scoreTolerance = 0.01

type SubmissionGradingAggregateDeps struct {
	Base BaseDeps

	Submissions repos.SubmissionRepo
	Scores      repos.CriterionScoreRepo
	Drafts      repos.FeedbackDraftRepo
}

type submissionGradingAggregate struct {
	deps SubmissionGradingAggregateDeps
}

func NewSubmissionGradingAggregate(deps SubmissionGradingAggregateDeps) domainagg.SubmissionGradingAggregate {
	deps.Base = deps.Base.withDefaults()
	return &submissionGradingAggregate{deps: deps}
}

func (a *submissionGradingAggregate) Contract() domainagg.Contract {
	return domainagg.SubmissionGradingAggregateContract
}

func (a *submissionGradingAggregate) configured() bool {
	return a.deps.Submissions != nil && a.deps.Scores != nil && a.deps.Drafts != nil
}

func (a *submissionGradingAggregate) Claim(ctx context.Context, submissionID uuid.UUID, fromStatuses []string) error {
	const op = "Grading.Submission.Claim"
	if submissionID == uuid.Nil {
		return domainagg.NewError(domainagg.CodeValidation, op, "missing submission_id", nil)
	}
	if len(fromStatuses) == 0 {
		fromStatuses = []string{grading.SubmissionStatusSubmitted}
	}
	if !a.configured() {
		return domainagg.NewError(domainagg.CodeInternal, op, "grading aggregate repos not configured", nil)
	}
	now := a.deps.Base.Now()
	return executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		ok, err := a.swap(dbc, submissionID, fromStatuses, map[string]any{
			"status":     grading.SubmissionStatusGrading,
			"updated_at": now,
		})
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		return a.explainLostCAS(dbc, op, submissionID)
	})
}

func (a *submissionGradingAggregate) Release(ctx context.Context, submissionID uuid.UUID, toStatus string) error {
	const op = "Grading.Submission.Release"
	toStatus = strings.TrimSpace(toStatus)
	if submissionID == uuid.Nil {
		return domainagg.NewError(domainagg.CodeValidation, op, "missing submission_id", nil)
	}
	if !grading.ValidSubmissionStatus(toStatus) || toStatus == grading.SubmissionStatusGrading {
		return domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("cannot release to status %q", toStatus), nil)
	}
	if !a.configured() {
		return domainagg.NewError(domainagg.CodeInternal, op, "grading aggregate repos not configured", nil)
	}
	now := a.deps.Base.Now()
	return executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		ok, err := a.swap(dbc, submissionID, []string{grading.SubmissionStatusGrading}, map[string]any{
			"status":     toStatus,
			"updated_at": now,
		})
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		return a.explainLostCAS(dbc, op, submissionID)
	})
}

func (a *submissionGradingAggregate) Commit(ctx context.Context, in domainagg.CommitGradingInput) (domainagg.CommitGradingResult, error) {
	const op = "Grading.Submission.Commit"
	var out domainagg.CommitGradingResult
	if in.SubmissionID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing submission_id", nil)
	}
	if len(in.Scores) == 0 {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "no criterion scores", nil)
	}
	if strings.TrimSpace(in.Draft.AIFeedback) == "" {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "empty feedback", nil)
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "grading aggregate repos not configured", nil)
	}
	sum := 0.0
	for _, s := range in.Scores {
		sum += s.Score
	}
	if math.Abs(sum-in.TotalScore) > scoreTolerance {
		return out, domainagg.NewError(domainagg.CodeInvariantViolation, op,
			fmt.Sprintf("criterion scores sum to %.2f but total is %.2f", sum, in.TotalScore), nil)
	}
	gradedAt := in.GradedAt.UTC()
	if in.GradedAt.IsZero() {
		gradedAt = a.deps.Base.Now()
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		total, max, letter := in.TotalScore, in.MaxScore, in.LetterGrade
		ok, err := a.swap(dbc, in.SubmissionID, []string{grading.SubmissionStatusGrading}, map[string]any{
			"status":       grading.SubmissionStatusGraded,
			"total_score":  total,
			"max_score":    max,
			"letter_grade": letter,
			"graded_at":    gradedAt,
			"updated_at":   gradedAt,
		})
		if err != nil {
			return err
		}
		if !ok {
			return a.explainLostCAS(dbc, op, in.SubmissionID)
		}

		if _, err := a.deps.Scores.DeleteBySubmissionID(dbc, in.SubmissionID); err != nil {
			return err
		}
		if err := a.deps.Drafts.DeleteBySubmissionID(dbc, in.SubmissionID); err != nil {
			return err
		}

		rows := make([]*grading.CriterionScore, 0, len(in.Scores))
		for i := range in.Scores {
			s := in.Scores[i]
			s.ID = uuid.Nil
			s.SubmissionID = in.SubmissionID
			s.CreatedAt = gradedAt
			rows = append(rows, &s)
		}
		if _, err := a.deps.Scores.Create(dbc, rows); err != nil {
			return err
		}

		draft := in.Draft
		draft.ID = uuid.Nil
		draft.SubmissionID = in.SubmissionID
		draft.Status = grading.FeedbackStatusDraft
		draft.TeacherEdits = nil
		draft.FinalFeedback = nil
		if draft.LetterGrade == "" {
			draft.LetterGrade = in.LetterGrade
		}
		if _, err := a.deps.Drafts.Create(dbc, &draft); err != nil {
			return err
		}

		out = domainagg.CommitGradingResult{
			SubmissionID: in.SubmissionID,
			Status:       grading.SubmissionStatusGraded,
			GradedAt:     gradedAt,
			ScoreCount:   len(rows),
		}
		return nil
	})
	return out, err
}

func (a *submissionGradingAggregate) Resubmit(ctx context.Context, in domainagg.ResubmitInput) (*grading.Submission, error) {
	const op = "Grading.Submission.Resubmit"
	if in.SubmissionID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing submission_id", nil)
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "content must not be empty", nil)
	}
	if !a.configured() {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "grading aggregate repos not configured", nil)
	}
	submittedAt := in.SubmittedAt.UTC()
	if in.SubmittedAt.IsZero() {
		submittedAt = a.deps.Base.Now()
	}

	var out *grading.Submission
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		sub, err := a.deps.Submissions.GetByID(dbc, in.SubmissionID)
		if err != nil {
			return err
		}
		if sub == nil || (in.StudentID != uuid.Nil && sub.StudentID != in.StudentID) {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("submission not found: %s", in.SubmissionID), nil)
		}
		resubmittable := []string{grading.SubmissionStatusGraded, grading.SubmissionStatusReturned}
		if err := RequireStatusAllowed(sub.Status, resubmittable...); err != nil {
			return err
		}
		ok, err := a.swap(dbc, sub.ID, resubmittable, map[string]any{
			"status":       grading.SubmissionStatusSubmitted,
			"content":      content,
			"submitted_at": submittedAt,
			"total_score":  nil,
			"max_score":    nil,
			"letter_grade": nil,
			"graded_at":    nil,
			"updated_at":   submittedAt,
		})
		if err != nil {
			return err
		}
		if !ok {
			return ConflictError("submission changed status during resubmit")
		}
		if _, err := a.deps.Scores.DeleteBySubmissionID(dbc, sub.ID); err != nil {
			return err
		}
		if err := a.deps.Drafts.DeleteBySubmissionID(dbc, sub.ID); err != nil {
			return err
		}
		out, err = a.deps.Submissions.GetByID(dbc, sub.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a *submissionGradingAggregate) ReviewFeedback(ctx context.Context, in domainagg.ReviewFeedbackInput) (*grading.FeedbackDraft, error) {
	const op = "Grading.Submission.ReviewFeedback"
	if in.SubmissionID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing submission_id", nil)
	}
	action := strings.ToLower(strings.TrimSpace(in.Action))
	if action != domainagg.FeedbackActionEdit && action != domainagg.FeedbackActionApprove {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("unknown feedback action %q", in.Action), nil)
	}
	if action == domainagg.FeedbackActionEdit && trimmed(in.TeacherEdits) == "" {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "teacher_edits required for edit", nil)
	}
	if !a.configured() {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "grading aggregate repos not configured", nil)
	}
	reviewedAt := in.ReviewedAt.UTC()
	if in.ReviewedAt.IsZero() {
		reviewedAt = a.deps.Base.Now()
	}

	var out *grading.FeedbackDraft
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		draft, err := a.deps.Drafts.GetBySubmissionID(dbc, in.SubmissionID)
		if err != nil {
			return err
		}
		if draft == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("no feedback for submission %s", in.SubmissionID), nil)
		}
		if draft.Status == grading.FeedbackStatusApproved {
			return ConflictError("feedback already approved")
		}

		updates := map[string]any{"updated_at": reviewedAt}
		if in.TeacherID != uuid.Nil {
			updates["teacher_id"] = in.TeacherID
		}
		switch action {
		case domainagg.FeedbackActionEdit:
			edits := trimmed(in.TeacherEdits)
			final := edits
			if f := trimmed(in.FinalFeedback); f != "" {
				final = f
			}
			updates["teacher_edits"] = edits
			updates["final_feedback"] = final
			updates["status"] = grading.FeedbackStatusEdited
		case domainagg.FeedbackActionApprove:
			updates["final_feedback"] = approvedText(draft, in.FinalFeedback)
			updates["status"] = grading.FeedbackStatusApproved

			ok, err := a.swap(dbc, in.SubmissionID, []string{grading.SubmissionStatusGraded}, map[string]any{
				"status":     grading.SubmissionStatusReturned,
				"updated_at": reviewedAt,
			})
			if err != nil {
				return err
			}
			if !ok {
				return a.explainLostCAS(dbc, op, in.SubmissionID)
			}
		}
		if err := a.deps.Drafts.UpdateFields(dbc, in.SubmissionID, updates); err != nil {
			return err
		}
		out, err = a.deps.Drafts.GetBySubmissionID(dbc, in.SubmissionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a *submissionGradingAggregate) swap(dbc dbctx.Context, id uuid.UUID, from []string, set map[string]any) (bool, error) {
	tx, err := writeDB(dbc, a.deps.Base.DB)
	if err != nil {
		return false, err
	}
	return swapStatus(tx, submissionTable, id, from, set)
}

// explainLostCAS distinguishes a missing submission from one in the wrong state.
func (a *submissionGradingAggregate) explainLostCAS(dbc dbctx.Context, op string, submissionID uuid.UUID) error {
	sub, err := a.deps.Submissions.GetByID(dbc, submissionID)
	if err != nil {
		return err
	}
	if sub == nil {
		return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("submission not found: %s", submissionID), nil)
	}
	return ConflictError(fmt.Sprintf("submission %s is %s", submissionID, sub.Status))
}

// approvedText picks explicit final text, then teacher edits, then the generated feedback.
func approvedText(draft *grading.FeedbackDraft, final *string) string {
	if f := trimmed(final); f != "" {
		return f
	}
	if e := trimmed(draft.TeacherEdits); e != "" {
		return e
	}
	return draft.AIFeedback
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
