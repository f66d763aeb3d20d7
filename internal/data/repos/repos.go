package repos

import (
	"gorm.io/gorm"

	gradingrepo "github.com/yungbote/neurobridge-grading/internal/data/repos/grading"
	masteryrepo "github.com/yungbote/neurobridge-grading/internal/data/repos/mastery"
	"github.com/yungbote/neurobridge-grading/internal/platform/logger"
)

type RubricRepo = gradingrepo.RubricRepo
type AssignmentRepo = gradingrepo.AssignmentRepo
type SubmissionRepo = gradingrepo.SubmissionRepo
type CriterionScoreRepo = gradingrepo.CriterionScoreRepo
type FeedbackDraftRepo = gradingrepo.FeedbackDraftRepo

type MasteryRecordRepo = masteryrepo.MasteryRecordRepo
type StandardRepo = masteryrepo.StandardRepo
type ClassMemberRepo = masteryrepo.ClassMemberRepo

// Set is every table repo the service needs, built over one handle.
type Set struct {
	Rubrics         RubricRepo
	Assignments     AssignmentRepo
	Submissions     SubmissionRepo
	CriterionScores CriterionScoreRepo
	FeedbackDrafts  FeedbackDraftRepo

	MasteryRecords MasteryRecordRepo
	Standards      StandardRepo
	ClassMembers   ClassMemberRepo
}

func NewSet(db *gorm.DB, log *logger.Logger) Set {
	return Set{
		Rubrics:         gradingrepo.NewRubricRepo(db, log),
		Assignments:     gradingrepo.NewAssignmentRepo(db, log),
		Submissions:     gradingrepo.NewSubmissionRepo(db, log),
		CriterionScores: gradingrepo.NewCriterionScoreRepo(db, log),
		FeedbackDrafts:  gradingrepo.NewFeedbackDraftRepo(db, log),
		MasteryRecords:  masteryrepo.NewMasteryRecordRepo(db, log),
		Standards:       masteryrepo.NewStandardRepo(db, log),
		ClassMembers:    masteryrepo.NewClassMemberRepo(db, log),
	}
}
