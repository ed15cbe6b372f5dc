package aggregates

import (
	"context"

	"gorm.io/gorm"

	domainagg "github.com/yungbote/pitchroom-backend/internal/domain/aggregates"
	"github.com/yungbote/pitchroom-backend/internal/platform/dbctx"
)

// TxRunner opens the transaction a pitch aggregate write runs in.
type TxRunner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

type gormTxRunner struct {
	db *gorm.DB
}

func NewGormTxRunner(db *gorm.DB) TxRunner {
	return &gormTxRunner{db: db}
}

// InTx refuses to begin once ctx is done, so a cancelled request never opens a transaction.
func (r *gormTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	if r == nil || r.db == nil {
		return domainagg.NewError(domainagg.CodeInternal, "pitch.tx", "no database configured for aggregate writes", nil)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	})
}
