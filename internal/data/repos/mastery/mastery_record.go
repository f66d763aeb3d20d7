package mastery

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/neurobridge-grading/internal/domain/mastery"
	"github.com/yungbote/neurobridge-grading/internal/pkg/dbctx"
	"github.com/yungbote/neurobridge-grading/internal/platform/logger"
)

// MasteryRecordRepo is insert-only. There is deliberately no update or delete.
type MasteryRecordRepo interface {
	Append(dbc dbctx.Context, records []*types.MasteryRecord) ([]*types.MasteryRecord, error)
	ListByStudent(dbc dbctx.Context, studentID uuid.UUID) ([]*types.MasteryRecord, error)
	ListByStudents(dbc dbctx.Context, studentIDs []uuid.UUID) ([]*types.MasteryRecord, error)
}

type masteryRecordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMasteryRecordRepo(db *gorm.DB, baseLog *logger.Logger) MasteryRecordRepo {
	return &masteryRecordRepo{
		db:  db,
		log: baseLog.With("repo", "MasteryRecordRepo"),
	}
}

func (r *masteryRecordRepo) Append(dbc dbctx.Context, records []*types.MasteryRecord) ([]*types.MasteryRecord, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(records) == 0 {
		return []*types.MasteryRecord{}, nil
	}
	for _, rec := range records {
		if rec.ID == uuid.Nil {
			rec.ID = uuid.New()
		}
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// ListByStudent returns the student's full history, newest first.
func (r *masteryRecordRepo) ListByStudent(dbc dbctx.Context, studentID uuid.UUID) ([]*types.MasteryRecord, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.MasteryRecord
	if studentID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("student_id = ?", studentID).
		Order("assessed_at DESC, created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListByStudents returns every record for the cohort, newest first.
func (r *masteryRecordRepo) ListByStudents(dbc dbctx.Context, studentIDs []uuid.UUID) ([]*types.MasteryRecord, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.MasteryRecord
	if len(studentIDs) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("student_id IN ?", studentIDs).
		Order("assessed_at DESC, created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
