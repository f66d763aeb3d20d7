package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-grading/internal/domain/grading"
)

var SubmissionGradingAggregateContract = Contract{
	Name:             "Grading.SubmissionGradingAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes:            "Owns submission status transitions and the atomic replacement of criterion scores and feedback draft.",
}

// SubmissionGradingAggregate owns every write that moves a submission through its lifecycle.
//
// Status moves are compare-and-swap on the status column. Failures return *Error with codes:
// CodeValidation, CodeNotFound, CodeConflict, CodeRetryable, CodeInternal.
type SubmissionGradingAggregate interface {
	Aggregate

	// Claim moves a submission from one of fromStatuses to grading.
	Claim(ctx context.Context, submissionID uuid.UUID, fromStatuses []string) error

	// Release moves a claimed submission from grading back to toStatus.
	Release(ctx context.Context, submissionID uuid.UUID, toStatus string) error

	// Commit atomically replaces criterion scores and feedback and moves grading to graded.
	Commit(ctx context.Context, in CommitGradingInput) (CommitGradingResult, error)

	// Resubmit replaces content and resets a graded or returned submission to submitted.
	Resubmit(ctx context.Context, in ResubmitInput) (*grading.Submission, error)

	// ReviewFeedback applies a teacher edit or approval to the feedback draft.
	ReviewFeedback(ctx context.Context, in ReviewFeedbackInput) (*grading.FeedbackDraft, error)
}

type CommitGradingInput struct {
	SubmissionID uuid.UUID
	Scores       []grading.CriterionScore
	Draft        grading.FeedbackDraft
	TotalScore   float64
	MaxScore     float64
	LetterGrade  string
	GradedAt     time.Time
}

type CommitGradingResult struct {
	SubmissionID uuid.UUID
	Status       string
	GradedAt     time.Time
	ScoreCount   int
}

type ResubmitInput struct {
	SubmissionID uuid.UUID
	StudentID    uuid.UUID
	Content      string
	SubmittedAt  time.Time
}

const (
	FeedbackActionEdit    = "edit"
	FeedbackActionApprove = "approve"
)

type ReviewFeedbackInput struct {
	SubmissionID  uuid.UUID
	TeacherID     uuid.UUID
	Action        string
	TeacherEdits  *string
	FinalFeedback *string
	ReviewedAt    time.Time
}
