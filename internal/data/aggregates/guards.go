package aggregates

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-grading/internal/pkg/dbctx"
)

// writeDB prefers the open transaction and falls back to db for single-statement writes.
func writeDB(dbc dbctx.Context, db *gorm.DB) (*gorm.DB, error) {
	switch {
	case dbc.Tx != nil:
		return dbc.Tx.WithContext(dbc.Ctx), nil
	case db != nil:
		return db.WithContext(dbc.Ctx), nil
	}
	return nil, InvariantError("write outside a transaction with no database")
}

// swapStatus applies set to the row only while its status is one of from.
// false means another writer moved the row first.
func swapStatus(tx *gorm.DB, table string, id uuid.UUID, from []string, set map[string]any) (bool, error) {
	if id == uuid.Nil || len(from) == 0 || len(set) == 0 {
		return false, ValidationError("status swap needs an id, source statuses and updates")
	}
	res := tx.Table(table).Where("id = ? AND status IN ?", id, from).Updates(set)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// RequireStatusAllowed fails with a conflict unless current is one of allowed, ignoring case.
func RequireStatusAllowed(current string, allowed ...string) error {
	current = strings.TrimSpace(current)
	for _, s := range allowed {
		if strings.EqualFold(current, strings.TrimSpace(s)) {
			return nil
		}
	}
	return ConflictError("submission is " + current)
}
