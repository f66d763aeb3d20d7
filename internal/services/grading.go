package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-grading/internal/data/repos"
	domainagg "github.com/yungbote/neurobridge-grading/internal/domain/aggregates"
	"github.com/yungbote/neurobridge-grading/internal/domain/auth"
	gradingtypes "github.com/yungbote/neurobridge-grading/internal/domain/grading"
	masterytypes "github.com/yungbote/neurobridge-grading/internal/domain/mastery"
	"github.com/yungbote/neurobridge-grading/internal/modules/grading"
	"github.com/yungbote/neurobridge-grading/internal/modules/mastery"
	"github.com/yungbote/neurobridge-grading/internal/pkg/dbctx"
	"github.com/yungbote/neurobridge-grading/internal/platform/ctxutil"
	"github.com/yungbote/neurobridge-grading/internal/platform/logger"
)

const FeedbackActionRegenerate = "regenerate"

// MasteryRecorder appends ledger rows for graded work. *mastery.Aggregator implements it.
type MasteryRecorder interface {
	Record(ctx context.Context, sub *gradingtypes.Submission, rubric *gradingtypes.Rubric, scores []gradingtypes.CriterionScore) ([]*masterytypes.MasteryRecord, error)
}

// MasteryAfterGrade adapts a recorder into the batch coordinator's per-item hook.
func MasteryAfterGrade(rec MasteryRecorder) grading.AfterGradeFunc {
	if rec == nil {
		return nil
	}
	return func(ctx context.Context, sub *gradingtypes.Submission, rubric *gradingtypes.Rubric, res *grading.GradingResult) error {
		var scores []gradingtypes.CriterionScore
		if res != nil {
			scores = res.Scores
		}
		_, err := rec.Record(ctx, sub, rubric, scores)
		return err
	}
}

type GradeRequest struct {
	Tone            string `json:"tone"`
	TeacherGuidance string `json:"teacher_guidance"`
}

type FeedbackReview struct {
	Action          string  `json:"action"`
	TeacherEdits    *string `json:"teacher_edits"`
	FinalFeedback   *string `json:"final_feedback"`
	Tone            string  `json:"tone"`
	TeacherGuidance string  `json:"teacher_guidance"`
}

// SubmissionGrading is the persisted grading state of one submission.
type SubmissionGrading struct {
	Submission *gradingtypes.Submission       `json:"submission"`
	Scores     []*gradingtypes.CriterionScore `json:"criterion_scores"`
	Feedback   *gradingtypes.FeedbackDraft    `json:"feedback,omitempty"`
}

type AssignmentTiers struct {
	AssignmentID    uuid.UUID           `json:"assignment_id"`
	AssignmentTitle string              `json:"assignment_title"`
	GradedCount     int                 `json:"graded_count"`
	StatusCounts    map[string]int      `json:"status_counts"`
	Tiers           []mastery.TierGroup `json:"tiers"`
}

type GradingService interface {
	GradeOne(ctx context.Context, caller auth.Caller, submissionID uuid.UUID, req GradeRequest) (*grading.GradingResult, error)
	GradeAssignmentBatch(ctx context.Context, caller auth.Caller, assignmentID uuid.UUID, req GradeRequest) (*grading.BatchReport, error)
	GetSubmissionGrading(ctx context.Context, caller auth.Caller, submissionID uuid.UUID) (*SubmissionGrading, error)
	ReviewFeedback(ctx context.Context, caller auth.Caller, submissionID uuid.UUID, in FeedbackReview) (*SubmissionGrading, error)
	Resubmit(ctx context.Context, caller auth.Caller, submissionID uuid.UUID, content string) (*gradingtypes.Submission, error)
	GetTiersForAssignment(ctx context.Context, caller auth.Caller, assignmentID uuid.UUID, withActivities bool) (*AssignmentTiers, error)
	GetAssignmentAnalytics(ctx context.Context, caller auth.Caller, assignmentID uuid.UUID) (*grading.AssignmentAnalytics, error)
}

type GradingServiceDeps struct {
	Log          *logger.Logger
	Repos        repos.Set
	Aggregate    domainagg.SubmissionGradingAggregate
	Orchestrator *grading.Orchestrator
	Coordinator  *grading.Coordinator
	Mastery      MasteryRecorder
	Advisor      mastery.Advisor
	Tones        *grading.ToneCatalog
	Now          func() time.Time
}

type gradingService struct {
	deps   GradingServiceDeps
	access access
	log    *logger.Logger
}

func NewGradingService(deps GradingServiceDeps) GradingService {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	if deps.Tones == nil {
		deps.Tones = grading.Tones(deps.Log)
	}
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}
	return &gradingService{
		deps:   deps,
		access: access{members: deps.Repos.ClassMembers},
		log:    deps.Log.With("service", "GradingService"),
	}
}

func (s *gradingService) GradeOne(ctx context.Context, caller auth.Caller, submissionID uuid.UUID, req GradeRequest) (*grading.GradingResult, error) {
	const op = "GradingService.GradeOne"
	if !caller.Valid() {
		return nil, errUnauthorized()
	}
	if !caller.CanGrade() {
		return nil, errForbidden("grade submissions")
	}
	if err := s.checkTone(op, req.Tone); err != nil {
		return nil, err
	}
	sub, asg, err := s.loadSubmission(ctx, op, submissionID)
	if err != nil {
		return nil, err
	}
	if err := s.requireManage(ctx, op, caller, asg); err != nil {
		return nil, err
	}
	rubric, err := s.loadRubric(ctx, op, asg.RubricID)
	if err != nil {
		return nil, err
	}

	res, err := s.deps.Orchestrator.Grade(ctx, sub, rubric, asg, grading.GradeOptions{
		Tone:            req.Tone,
		TeacherGuidance: req.TeacherGuidance,
		TeacherID:       teacherFor(caller, asg),
		Mode:            grading.ModeSingle,
	})
	if err != nil {
		return nil, err
	}
	s.recordMastery(ctx, sub, rubric, res)
	return res, nil
}

func (s *gradingService) GradeAssignmentBatch(ctx context.Context, caller auth.Caller, assignmentID uuid.UUID, req GradeRequest) (*grading.BatchReport, error) {
	const op = "GradingService.GradeAssignmentBatch"
	if !caller.Valid() {
		return nil, errUnauthorized()
	}
	if !caller.CanGrade() {
		return nil, errForbidden("grade submissions")
	}
	if err := s.checkTone(op, req.Tone); err != nil {
		return nil, err
	}
	asg, err := s.loadAssignment(ctx, op, assignmentID)
	if err != nil {
		return nil, err
	}
	if err := s.requireManage(ctx, op, caller, asg); err != nil {
		return nil, err
	}
	if s.deps.Coordinator == nil {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "batch coordinator not configured", nil)
	}

	report, err := s.deps.Coordinator.GradeBatch(ctx, assignmentID, grading.BatchOptions{
		Tone:            req.Tone,
		TeacherGuidance: req.TeacherGuidance,
		TeacherID:       teacherFor(caller, asg),
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("batch graded",
		"assignment_id", assignmentID,
		"total", report.Total,
		"graded", report.Graded,
		"failed", report.Failed,
		"skipped", report.Skipped,
	)
	return report, nil
}

// GetSubmissionGrading returns scores and feedback. Students see their own work and only see
// scores and feedback once the submission has been returned.
func (s *gradingService) GetSubmissionGrading(ctx context.Context, caller auth.Caller, submissionID uuid.UUID) (*SubmissionGrading, error) {
	const op = "GradingService.GetSubmissionGrading"
	if !caller.Valid() {
		return nil, errUnauthorized()
	}
	sub, asg, err := s.loadSubmission(ctx, op, submissionID)
	if err != nil {
		return nil, err
	}
	if caller.Role == auth.RoleStudent {
		if sub.StudentID != caller.UserID {
			return nil, domainagg.NewError(domainagg.CodeNotFound, op, "submission not found", nil)
		}
		if sub.Status != gradingtypes.SubmissionStatusReturned {
			return &SubmissionGrading{Submission: sub, Scores: []*gradingtypes.CriterionScore{}}, nil
		}
	} else if err := s.requireManage(ctx, op, caller, asg); err != nil {
		return nil, err
	}
	return s.detail(ctx, op, sub)
}

func (s *gradingService) ReviewFeedback(ctx context.Context, caller auth.Caller, submissionID uuid.UUID, in FeedbackReview) (*SubmissionGrading, error) {
	const op = "GradingService.ReviewFeedback"
	if !caller.Valid() {
		return nil, errUnauthorized()
	}
	if !caller.CanGrade() {
		return nil, errForbidden("review feedback")
	}
	sub, asg, err := s.loadSubmission(ctx, op, submissionID)
	if err != nil {
		return nil, err
	}
	if err := s.requireManage(ctx, op, caller, asg); err != nil {
		return nil, err
	}

	action := strings.ToLower(strings.TrimSpace(in.Action))
	switch action {
	case domainagg.FeedbackActionEdit, domainagg.FeedbackActionApprove:
		if s.deps.Aggregate == nil {
			return nil, domainagg.NewError(domainagg.CodeInternal, op, "grading aggregate not configured", nil)
		}
		if _, err := s.deps.Aggregate.ReviewFeedback(ctx, domainagg.ReviewFeedbackInput{
			SubmissionID:  sub.ID,
			TeacherID:     teacherFor(caller, asg),
			Action:        action,
			TeacherEdits:  in.TeacherEdits,
			FinalFeedback: in.FinalFeedback,
			ReviewedAt:    s.deps.Now(),
		}); err != nil {
			return nil, err
		}
	case FeedbackActionRegenerate:
		if err := s.checkTone(op, in.Tone); err != nil {
			return nil, err
		}
		rubric, err := s.loadRubric(ctx, op, asg.RubricID)
		if err != nil {
			return nil, err
		}
		res, err := s.deps.Orchestrator.Grade(ctx, sub, rubric, asg, grading.GradeOptions{
			Tone:            in.Tone,
			TeacherGuidance: in.TeacherGuidance,
			TeacherID:       teacherFor(caller, asg),
			Mode:            grading.ModeSingle,
			Regenerate:      true,
		})
		if err != nil {
			return nil, err
		}
		s.recordMastery(ctx, sub, rubric, res)
	default:
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "action must be approve, edit or regenerate", nil)
	}

	fresh, err := s.deps.Repos.Submissions.GetByID(dbctx.Context{Ctx: ctx}, sub.ID)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if fresh == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, "submission not found", nil)
	}
	return s.detail(ctx, op, fresh)
}

func (s *gradingService) Resubmit(ctx context.Context, caller auth.Caller, submissionID uuid.UUID, content string) (*gradingtypes.Submission, error) {
	const op = "GradingService.Resubmit"
	if !caller.Valid() {
		return nil, errUnauthorized()
	}
	if s.deps.Aggregate == nil {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "grading aggregate not configured", nil)
	}
	studentID := uuid.Nil
	switch {
	case caller.Role == auth.RoleStudent:
		studentID = caller.UserID
	case privileged(caller):
	default:
		return nil, errForbidden("resubmit work")
	}
	return s.deps.Aggregate.Resubmit(ctx, domainagg.ResubmitInput{
		SubmissionID: submissionID,
		StudentID:    studentID,
		Content:      content,
		SubmittedAt:  s.deps.Now(),
	})
}

func (s *gradingService) GetTiersForAssignment(ctx context.Context, caller auth.Caller, assignmentID uuid.UUID, withActivities bool) (*AssignmentTiers, error) {
	const op = "GradingService.GetTiersForAssignment"
	if !caller.Valid() {
		return nil, errUnauthorized()
	}
	asg, err := s.loadAssignment(ctx, op, assignmentID)
	if err != nil {
		return nil, err
	}
	if err := s.requireManage(ctx, op, caller, asg); err != nil {
		return nil, err
	}

	dbc := dbctx.Context{Ctx: ctx}
	subs, err := s.deps.Repos.Submissions.ListByAssignment(dbc, asg.ID, []string{
		gradingtypes.SubmissionStatusGraded,
		gradingtypes.SubmissionStatusReturned,
	})
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	counts, err := s.deps.Repos.Submissions.CountByStatus(dbc, asg.ID)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	names, err := s.studentNames(dbc, asg.ClassID)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}

	students := make([]mastery.ScoredStudent, 0, len(subs))
	for _, sub := range subs {
		pct, ok := sub.Percentage()
		if !ok {
			continue
		}
		name := names[sub.StudentID]
		if name == "" {
			name = "Unknown Student"
		}
		students = append(students, mastery.ScoredStudent{StudentID: sub.StudentID, Name: name, Percentage: pct})
	}
	report := mastery.Tier(students)

	if withActivities && s.deps.Advisor != nil && len(students) > 0 {
		acts, err := s.deps.Advisor.TierActivities(ctx, mastery.TierActivityInput{
			AssignmentTitle: asg.Title,
			Subject:         asg.Subject,
			GradeLevel:      asg.GradeLevel,
			Instructions:    asg.Instructions,
			Report:          report,
		})
		if err != nil {
			s.log.Warn("tier activities unavailable", "assignment_id", asg.ID, "error", err)
		} else {
			for i := range report.Tiers {
				if a, ok := acts[report.Tiers[i].Level]; ok {
					report.Tiers[i].Activity = &a
				}
			}
		}
	}

	return &AssignmentTiers{
		AssignmentID:    asg.ID,
		AssignmentTitle: asg.Title,
		GradedCount:     len(students),
		StatusCounts:    counts,
		Tiers:           report.Tiers,
	}, nil
}

// GetAssignmentAnalytics reports score distributions, criterion averages and recurring
// misconceptions over every scored submission of the assignment.
func (s *gradingService) GetAssignmentAnalytics(ctx context.Context, caller auth.Caller, assignmentID uuid.UUID) (*grading.AssignmentAnalytics, error) {
	const op = "GradingService.GetAssignmentAnalytics"
	if !caller.Valid() {
		return nil, errUnauthorized()
	}
	asg, err := s.loadAssignment(ctx, op, assignmentID)
	if err != nil {
		return nil, err
	}
	if err := s.requireManage(ctx, op, caller, asg); err != nil {
		return nil, err
	}
	rubric, err := s.loadRubric(ctx, op, asg.RubricID)
	if err != nil {
		return nil, err
	}

	dbc := dbctx.Context{Ctx: ctx}
	subs, err := s.deps.Repos.Submissions.ListByAssignment(dbc, asg.ID, nil)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	ids := make([]uuid.UUID, 0, len(subs))
	for _, sub := range subs {
		if _, ok := sub.Percentage(); ok {
			ids = append(ids, sub.ID)
		}
	}
	scores, err := s.deps.Repos.CriterionScores.ListBySubmissionIDs(dbc, ids)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	drafts, err := s.deps.Repos.FeedbackDrafts.ListBySubmissionIDs(dbc, ids)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	names, err := s.studentNames(dbc, asg.ClassID)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}

	out := grading.BuildAnalytics(grading.AnalyticsInput{
		Assignment:  asg,
		Rubric:      rubric,
		Submissions: subs,
		Scores:      scores,
		Drafts:      drafts,
		Names:       names,
	})
	return &out, nil
}

func (s *gradingService) studentNames(dbc dbctx.Context, classID uuid.UUID) (map[uuid.UUID]string, error) {
	names := map[uuid.UUID]string{}
	if s.deps.Repos.ClassMembers == nil {
		return names, nil
	}
	members, err := s.deps.Repos.ClassMembers.ListByClass(dbc, classID, masterytypes.ClassRoleStudent)
	if err != nil {
		return nil, err
	}
	for _, m := range members {
		names[m.UserID] = m.Name
	}
	return names, nil
}

// recordMastery never fails the grading call; the grade is already committed,
// so the append runs even if the caller has gone away.
func (s *gradingService) recordMastery(ctx context.Context, sub *gradingtypes.Submission, rubric *gradingtypes.Rubric, res *grading.GradingResult) {
	if s.deps.Mastery == nil || res == nil {
		return
	}
	if _, err := s.deps.Mastery.Record(ctxutil.Detached(ctx), sub, rubric, res.Scores); err != nil {
		s.log.Warn("mastery update failed", "submission_id", sub.ID, "error", err)
	}
}

func (s *gradingService) detail(ctx context.Context, op string, sub *gradingtypes.Submission) (*SubmissionGrading, error) {
	dbc := dbctx.Context{Ctx: ctx}
	scores, err := s.deps.Repos.CriterionScores.ListBySubmissionID(dbc, sub.ID)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if scores == nil {
		scores = []*gradingtypes.CriterionScore{}
	}
	draft, err := s.deps.Repos.FeedbackDrafts.GetBySubmissionID(dbc, sub.ID)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	return &SubmissionGrading{Submission: sub, Scores: scores, Feedback: draft}, nil
}

func (s *gradingService) loadSubmission(ctx context.Context, op string, id uuid.UUID) (*gradingtypes.Submission, *gradingtypes.Assignment, error) {
	if id == uuid.Nil {
		return nil, nil, domainagg.NewError(domainagg.CodeValidation, op, "missing submission id", nil)
	}
	sub, err := s.deps.Repos.Submissions.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if sub == nil {
		return nil, nil, domainagg.NewError(domainagg.CodeNotFound, op, "submission not found", nil)
	}
	asg, err := s.loadAssignment(ctx, op, sub.AssignmentID)
	if err != nil {
		return nil, nil, err
	}
	return sub, asg, nil
}

func (s *gradingService) loadAssignment(ctx context.Context, op string, id uuid.UUID) (*gradingtypes.Assignment, error) {
	if id == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing assignment id", nil)
	}
	asg, err := s.deps.Repos.Assignments.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if asg == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, "assignment not found", nil)
	}
	return asg, nil
}

func (s *gradingService) loadRubric(ctx context.Context, op string, id uuid.UUID) (*gradingtypes.Rubric, error) {
	rubric, err := s.deps.Repos.Rubrics.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if rubric == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, "rubric not found", nil)
	}
	return rubric, nil
}

func (s *gradingService) requireManage(ctx context.Context, op string, caller auth.Caller, asg *gradingtypes.Assignment) error {
	ok, err := s.access.canManageAssignment(ctx, caller, asg)
	if err != nil {
		return domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if !ok {
		return errForbidden("manage this assignment")
	}
	return nil
}

func (s *gradingService) checkTone(op, tone string) error {
	if strings.TrimSpace(tone) == "" || s.deps.Tones.Has(tone) {
		return nil
	}
	return domainagg.NewError(domainagg.CodeValidation, op, "unknown feedback tone", domainagg.ValidationIssues{"tone " + tone + " is not supported"})
}

func teacherFor(c auth.Caller, asg *gradingtypes.Assignment) uuid.UUID {
	if c.Role == auth.RoleTeacher {
		return c.UserID
	}
	return asg.TeacherID
}
