package mastery

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/neurobridge-grading/internal/domain/mastery"
	"github.com/yungbote/neurobridge-grading/internal/pkg/dbctx"
	"github.com/yungbote/neurobridge-grading/internal/platform/logger"
)

type StandardRepo interface {
	Create(dbc dbctx.Context, standards []*types.Standard) ([]*types.Standard, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Standard, error)
}

type standardRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStandardRepo(db *gorm.DB, baseLog *logger.Logger) StandardRepo {
	return &standardRepo{
		db:  db,
		log: baseLog.With("repo", "StandardRepo"),
	}
}

func (r *standardRepo) Create(dbc dbctx.Context, standards []*types.Standard) ([]*types.Standard, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(standards) == 0 {
		return []*types.Standard{}, nil
	}
	for _, s := range standards {
		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&standards).Error; err != nil {
		return nil, err
	}
	return standards, nil
}

func (r *standardRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Standard, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Standard
	if len(ids) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
