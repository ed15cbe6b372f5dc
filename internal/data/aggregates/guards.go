package aggregates

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/pitchroom-backend/internal/platform/dbctx"
)

// RowGuard performs conditional single-row updates for aggregate writes.
type RowGuard struct {
	db *gorm.DB
}

func NewRowGuard(db *gorm.DB) RowGuard {
	return RowGuard{db: db}
}

func (g RowGuard) baseDB(dbc dbctx.Context) (*gorm.DB, error) {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx), nil
	}
	if g.db != nil {
		return g.db.WithContext(dbc.Ctx), nil
	}
	return nil, ValidationError("missing db transaction context")
}

// UpdateWhere updates the row with id only while cond still holds.
func (g RowGuard) UpdateWhere(dbc dbctx.Context, table string, id uuid.UUID, cond string, updates map[string]any) (bool, error) {
	db, err := g.baseDB(dbc)
	if err != nil {
		return false, err
	}
	table = strings.TrimSpace(table)
	if table == "" || id == uuid.Nil {
		return false, ValidationError("table and id are required for UpdateWhere")
	}
	q := db.Table(table).Where("id = ?", id)
	if strings.TrimSpace(cond) != "" {
		q = q.Where(cond)
	}
	res := q.Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// RequireGuardSuccess converts a guarded update that matched nothing into a conflict.
func RequireGuardSuccess(ok bool, message string) error {
	if ok {
		return nil
	}
	return ConflictError(strings.TrimSpace(message))
}
