package grading

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/neurobridge-grading/internal/domain/grading"
	"github.com/yungbote/neurobridge-grading/internal/pkg/dbctx"
	"github.com/yungbote/neurobridge-grading/internal/platform/logger"
)

type FeedbackDraftRepo interface {
	Create(dbc dbctx.Context, draft *types.FeedbackDraft) (*types.FeedbackDraft, error)
	GetBySubmissionID(dbc dbctx.Context, submissionID uuid.UUID) (*types.FeedbackDraft, error)
	ListBySubmissionIDs(dbc dbctx.Context, submissionIDs []uuid.UUID) ([]*types.FeedbackDraft, error)
	UpdateFields(dbc dbctx.Context, submissionID uuid.UUID, updates map[string]interface{}) error
	DeleteBySubmissionID(dbc dbctx.Context, submissionID uuid.UUID) error
}

type feedbackDraftRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFeedbackDraftRepo(db *gorm.DB, baseLog *logger.Logger) FeedbackDraftRepo {
	return &feedbackDraftRepo{
		db:  db,
		log: baseLog.With("repo", "FeedbackDraftRepo"),
	}
}

func (r *feedbackDraftRepo) Create(dbc dbctx.Context, draft *types.FeedbackDraft) (*types.FeedbackDraft, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if draft == nil {
		return nil, nil
	}
	if draft.ID == uuid.Nil {
		draft.ID = uuid.New()
	}
	if draft.Status == "" {
		draft.Status = types.FeedbackStatusDraft
	}
	if err := transaction.WithContext(dbc.Ctx).Create(draft).Error; err != nil {
		return nil, err
	}
	return draft, nil
}

func (r *feedbackDraftRepo) GetBySubmissionID(dbc dbctx.Context, submissionID uuid.UUID) (*types.FeedbackDraft, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if submissionID == uuid.Nil {
		return nil, nil
	}
	var out types.FeedbackDraft
	if err := transaction.WithContext(dbc.Ctx).
		Where("submission_id = ?", submissionID).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if out.ID == uuid.Nil {
		return nil, nil
	}
	return &out, nil
}

func (r *feedbackDraftRepo) ListBySubmissionIDs(dbc dbctx.Context, submissionIDs []uuid.UUID) ([]*types.FeedbackDraft, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.FeedbackDraft
	if len(submissionIDs) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("submission_id IN ?", submissionIDs).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *feedbackDraftRepo) UpdateFields(dbc dbctx.Context, submissionID uuid.UUID, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if submissionID == uuid.Nil || len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.FeedbackDraft{}).
		Where("submission_id = ?", submissionID).
		Updates(updates).Error
}

func (r *feedbackDraftRepo) DeleteBySubmissionID(dbc dbctx.Context, submissionID uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if submissionID == uuid.Nil {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Where("submission_id = ?", submissionID).
		Delete(&types.FeedbackDraft{}).Error
}
