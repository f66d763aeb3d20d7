package mastery

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/neurobridge-grading/internal/domain/mastery"
	"github.com/yungbote/neurobridge-grading/internal/pkg/dbctx"
	"github.com/yungbote/neurobridge-grading/internal/platform/logger"
)

type ClassMemberRepo interface {
	Create(dbc dbctx.Context, members []*types.ClassMember) ([]*types.ClassMember, error)
	ListByClass(dbc dbctx.Context, classID uuid.UUID, role string) ([]*types.ClassMember, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID, role string) ([]*types.ClassMember, error)
}

type classMemberRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewClassMemberRepo(db *gorm.DB, baseLog *logger.Logger) ClassMemberRepo {
	return &classMemberRepo{
		db:  db,
		log: baseLog.With("repo", "ClassMemberRepo"),
	}
}

func (r *classMemberRepo) Create(dbc dbctx.Context, members []*types.ClassMember) ([]*types.ClassMember, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(members) == 0 {
		return []*types.ClassMember{}, nil
	}
	for _, m := range members {
		if m.ID == uuid.Nil {
			m.ID = uuid.New()
		}
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// ListByClass filters by role when role is non-empty.
func (r *classMemberRepo) ListByClass(dbc dbctx.Context, classID uuid.UUID, role string) ([]*types.ClassMember, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.ClassMember
	if classID == uuid.Nil {
		return out, nil
	}
	q := transaction.WithContext(dbc.Ctx).Where("class_id = ?", classID)
	if role != "" {
		q = q.Where("role = ?", role)
	}
	if err := q.Order("name ASC, user_id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *classMemberRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, role string) ([]*types.ClassMember, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.ClassMember
	if userID == uuid.Nil {
		return out, nil
	}
	q := transaction.WithContext(dbc.Ctx).Where("user_id = ?", userID)
	if role != "" {
		q = q.Where("role = ?", role)
	}
	if err := q.Order("class_id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
