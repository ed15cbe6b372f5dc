package pitch

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/pitchroom-backend/internal/domain"
	"github.com/yungbote/pitchroom-backend/internal/platform/dbctx"
	"github.com/yungbote/pitchroom-backend/internal/platform/logger"
)

type FundingRepo interface {
	Create(dbc dbctx.Context, f *types.FundingRecord) (*types.FundingRecord, error)
	GetByPitch(dbc dbctx.Context, pitchID uuid.UUID) (*types.FundingRecord, error)
	Update(dbc dbctx.Context, pitchID uuid.UUID, goalCents int64, text string, endsAt *time.Time) (bool, error)
	DeleteByPitch(dbc dbctx.Context, pitchID uuid.UUID) (int64, error)
}

type PledgeRepo interface {
	Create(dbc dbctx.Context, p *types.Pledge) (*types.Pledge, error)
	GetByProviderRef(dbc dbctx.Context, ref string) (*types.Pledge, error)
	// Totals returns the summed amount and count of pledges for a pitch.
	Totals(dbc dbctx.Context, pitchID uuid.UUID) (int64, int64, error)
	DeleteByPitch(dbc dbctx.Context, pitchID uuid.UUID) (int64, error)
}

type fundingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFundingRepo(db *gorm.DB, baseLog *logger.Logger) FundingRepo {
	return &fundingRepo{db: db, log: baseLog.With("repo", "FundingRepo")}
}

func (r *fundingRepo) Create(dbc dbctx.Context, f *types.FundingRecord) (*types.FundingRecord, error) {
	if err := dbc.DB(r.db).Create(f).Error; err != nil {
		return nil, err
	}
	return f, nil
}

func (r *fundingRepo) GetByPitch(dbc dbctx.Context, pitchID uuid.UUID) (*types.FundingRecord, error) {
	if pitchID == uuid.Nil {
		return nil, nil
	}
	var out types.FundingRecord
	if err := dbc.DB(r.db).Where("pitch_id = ?", pitchID).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if out.ID == uuid.Nil {
		return nil, nil
	}
	return &out, nil
}

func (r *fundingRepo) Update(dbc dbctx.Context, pitchID uuid.UUID, goalCents int64, text string, endsAt *time.Time) (bool, error) {
	res := dbc.DB(r.db).
		Model(&types.FundingRecord{}).
		Where("pitch_id = ?", pitchID).
		Updates(map[string]any{
			"goal_cents": goalCents,
			"pitch_text": text,
			"ends_at":    endsAt,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *fundingRepo) DeleteByPitch(dbc dbctx.Context, pitchID uuid.UUID) (int64, error) {
	res := dbc.DB(r.db).Where("pitch_id = ?", pitchID).Delete(&types.FundingRecord{})
	return res.RowsAffected, res.Error
}

type pledgeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPledgeRepo(db *gorm.DB, baseLog *logger.Logger) PledgeRepo {
	return &pledgeRepo{db: db, log: baseLog.With("repo", "PledgeRepo")}
}

func (r *pledgeRepo) Create(dbc dbctx.Context, p *types.Pledge) (*types.Pledge, error) {
	if err := dbc.DB(r.db).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

func (r *pledgeRepo) GetByProviderRef(dbc dbctx.Context, ref string) (*types.Pledge, error) {
	if ref == "" {
		return nil, nil
	}
	var out types.Pledge
	if err := dbc.DB(r.db).Where("provider_ref = ?", ref).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if out.ID == uuid.Nil {
		return nil, nil
	}
	return &out, nil
}

func (r *pledgeRepo) Totals(dbc dbctx.Context, pitchID uuid.UUID) (int64, int64, error) {
	var row struct {
		Total int64
		Count int64
	}
	if err := dbc.DB(r.db).
		Model(&types.Pledge{}).
		Select("COALESCE(SUM(amount_cents), 0) AS total, COUNT(*) AS count").
		Where("pitch_id = ?", pitchID).
		Scan(&row).Error; err != nil {
		return 0, 0, err
	}
	return row.Total, row.Count, nil
}

func (r *pledgeRepo) DeleteByPitch(dbc dbctx.Context, pitchID uuid.UUID) (int64, error) {
	res := dbc.DB(r.db).Where("pitch_id = ?", pitchID).Delete(&types.Pledge{})
	return res.RowsAffected, res.Error
}
