package grading

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/neurobridge-grading/internal/domain/grading"
	"github.com/yungbote/neurobridge-grading/internal/pkg/dbctx"
	"github.com/yungbote/neurobridge-grading/internal/platform/logger"
)

type RubricRepo interface {
	Create(dbc dbctx.Context, rubric *types.Rubric) (*types.Rubric, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Rubric, error)
}

type rubricRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRubricRepo(db *gorm.DB, baseLog *logger.Logger) RubricRepo {
	return &rubricRepo{
		db:  db,
		log: baseLog.With("repo", "RubricRepo"),
	}
}

// Create inserts the rubric with its criteria. Criteria keep slice order as their position.
func (r *rubricRepo) Create(dbc dbctx.Context, rubric *types.Rubric) (*types.Rubric, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if rubric == nil {
		return nil, nil
	}
	if rubric.ID == uuid.Nil {
		rubric.ID = uuid.New()
	}
	for i := range rubric.Criteria {
		if rubric.Criteria[i].ID == uuid.Nil {
			rubric.Criteria[i].ID = uuid.New()
		}
		rubric.Criteria[i].RubricID = rubric.ID
		rubric.Criteria[i].Position = i
	}
	if err := transaction.WithContext(dbc.Ctx).Create(rubric).Error; err != nil {
		return nil, err
	}
	return rubric, nil
}

// GetByID returns nil when no rubric exists.
func (r *rubricRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Rubric, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var out types.Rubric
	err := transaction.WithContext(dbc.Ctx).
		Preload("Criteria", func(q *gorm.DB) *gorm.DB { return q.Order("position ASC") }).
		Where("id = ?", id).
		Limit(1).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	if out.ID == uuid.Nil {
		return nil, nil
	}
	return &out, nil
}
