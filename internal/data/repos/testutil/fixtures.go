package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	gradingtypes "github.com/yungbote/neurobridge-grading/internal/domain/grading"
	masterytypes "github.com/yungbote/neurobridge-grading/internal/domain/mastery"
)

// DefaultLevels is the four-level scale used by most fixtures.
var DefaultLevels = []string{"Beginning", "Developing", "Proficient", "Advanced"}

// CriterionSpec describes a fixture criterion; StandardID may be nil.
type CriterionSpec struct {
	Name       string
	Weight     float64
	StandardID *uuid.UUID
}

func SeedStandard(tb testing.TB, ctx context.Context, tx *gorm.DB, code string) *masterytypes.Standard {
	tb.Helper()
	s := &masterytypes.Standard{
		ID:          uuid.New(),
		Code:        code,
		Description: "standard " + code,
		Subject:     "ELA",
		GradeLevel:  "8",
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed standard: %v", err)
	}
	return s
}

func SeedRubric(tb testing.TB, ctx context.Context, tx *gorm.DB, specs ...CriterionSpec) *gradingtypes.Rubric {
	tb.Helper()
	r := &gradingtypes.Rubric{
		ID:        uuid.New(),
		TeacherID: uuid.New(),
		Title:     "Argument Essay",
		Levels:    datatypes.NewJSONSlice(DefaultLevels),
	}
	for i, spec := range specs {
		desc := map[string]string{}
		for _, l := range DefaultLevels {
			desc[l] = fmt.Sprintf("%s at %s", spec.Name, l)
		}
		r.Criteria = append(r.Criteria, gradingtypes.Criterion{
			ID:          uuid.New(),
			RubricID:    r.ID,
			Name:        spec.Name,
			Weight:      spec.Weight,
			StandardID:  spec.StandardID,
			Descriptors: datatypes.NewJSONType(desc),
			Position:    i,
		})
	}
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed rubric: %v", err)
	}
	return r
}

func SeedAssignment(tb testing.TB, ctx context.Context, tx *gorm.DB, rubric *gradingtypes.Rubric, classID uuid.UUID) *gradingtypes.Assignment {
	tb.Helper()
	a := &gradingtypes.Assignment{
		ID:           uuid.New(),
		ClassID:      classID,
		TeacherID:    rubric.TeacherID,
		RubricID:     rubric.ID,
		Title:        "Should school start later?",
		Description:  "Write an argument essay.",
		Instructions: "Use two sources.",
		Subject:      "ELA",
		GradeLevel:   "8",
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed assignment: %v", err)
	}
	return a
}

func SeedSubmission(tb testing.TB, ctx context.Context, tx *gorm.DB, assignmentID, studentID uuid.UUID, status string) *gradingtypes.Submission {
	tb.Helper()
	s := &gradingtypes.Submission{
		ID:           uuid.New(),
		AssignmentID: assignmentID,
		StudentID:    studentID,
		Content:      "School should start later because teenagers need sleep.",
		Status:       status,
		SubmittedAt:  time.Now().UTC(),
	}
	if status == gradingtypes.SubmissionStatusGraded || status == gradingtypes.SubmissionStatusReturned {
		total, max := 75.0, 100.0
		letter := "C"
		now := time.Now().UTC()
		s.TotalScore, s.MaxScore, s.LetterGrade, s.GradedAt = &total, &max, &letter, &now
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed submission: %v", err)
	}
	return s
}

func SeedScoredSubmission(tb testing.TB, ctx context.Context, tx *gorm.DB, assignmentID, studentID uuid.UUID, total, max float64) *gradingtypes.Submission {
	tb.Helper()
	letter := gradingtypes.LetterForPercentage(total / max * 100)
	now := time.Now().UTC()
	s := &gradingtypes.Submission{
		ID:           uuid.New(),
		AssignmentID: assignmentID,
		StudentID:    studentID,
		Content:      "work",
		Status:       gradingtypes.SubmissionStatusGraded,
		TotalScore:   &total,
		MaxScore:     &max,
		LetterGrade:  &letter,
		SubmittedAt:  now,
		GradedAt:     &now,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed scored submission: %v", err)
	}
	return s
}

func SeedClassMember(tb testing.TB, ctx context.Context, tx *gorm.DB, classID uuid.UUID, name, role string) *masterytypes.ClassMember {
	tb.Helper()
	m := &masterytypes.ClassMember{
		ID:      uuid.New(),
		ClassID: classID,
		UserID:  uuid.New(),
		Role:    role,
		Name:    name,
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed class member: %v", err)
	}
	return m
}

func SeedMasteryRecord(tb testing.TB, ctx context.Context, tx *gorm.DB, studentID, standardID uuid.UUID, level string, score int, at time.Time) *masterytypes.MasteryRecord {
	tb.Helper()
	rec := &masterytypes.MasteryRecord{
		ID:         uuid.New(),
		StudentID:  studentID,
		StandardID: standardID,
		Level:      level,
		Score:      score,
		Source:     uuid.New(),
		AssessedAt: at.UTC(),
	}
	if err := tx.WithContext(ctx).Create(rec).Error; err != nil {
		tb.Fatalf("seed mastery record: %v", err)
	}
	return rec
}
