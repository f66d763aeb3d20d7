package grading

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/neurobridge-grading/internal/domain/grading"
	"github.com/yungbote/neurobridge-grading/internal/pkg/dbctx"
	"github.com/yungbote/neurobridge-grading/internal/platform/logger"
)

type CriterionScoreRepo interface {
	Create(dbc dbctx.Context, scores []*types.CriterionScore) ([]*types.CriterionScore, error)
	ListBySubmissionID(dbc dbctx.Context, submissionID uuid.UUID) ([]*types.CriterionScore, error)
	ListBySubmissionIDs(dbc dbctx.Context, submissionIDs []uuid.UUID) ([]*types.CriterionScore, error)
	DeleteBySubmissionID(dbc dbctx.Context, submissionID uuid.UUID) (int64, error)
}

type criterionScoreRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCriterionScoreRepo(db *gorm.DB, baseLog *logger.Logger) CriterionScoreRepo {
	return &criterionScoreRepo{
		db:  db,
		log: baseLog.With("repo", "CriterionScoreRepo"),
	}
}

func (r *criterionScoreRepo) Create(dbc dbctx.Context, scores []*types.CriterionScore) ([]*types.CriterionScore, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(scores) == 0 {
		return []*types.CriterionScore{}, nil
	}
	for _, s := range scores {
		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&scores).Error; err != nil {
		return nil, err
	}
	return scores, nil
}

func (r *criterionScoreRepo) ListBySubmissionID(dbc dbctx.Context, submissionID uuid.UUID) ([]*types.CriterionScore, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.CriterionScore
	if submissionID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("submission_id = ?", submissionID).
		Order("created_at ASC, criterion_name ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *criterionScoreRepo) ListBySubmissionIDs(dbc dbctx.Context, submissionIDs []uuid.UUID) ([]*types.CriterionScore, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.CriterionScore
	if len(submissionIDs) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("submission_id IN ?", submissionIDs).
		Order("submission_id ASC, created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *criterionScoreRepo) DeleteBySubmissionID(dbc dbctx.Context, submissionID uuid.UUID) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if submissionID == uuid.Nil {
		return 0, nil
	}
	res := transaction.WithContext(dbc.Ctx).
		Where("submission_id = ?", submissionID).
		Delete(&types.CriterionScore{})
	return res.RowsAffected, res.Error
}
