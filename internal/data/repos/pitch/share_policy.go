package pitch

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/pitchroom-backend/internal/domain"
	"github.com/yungbote/pitchroom-backend/internal/platform/dbctx"
	"github.com/yungbote/pitchroom-backend/internal/platform/logger"
)

type SharePolicyRepo interface {
	Create(dbc dbctx.Context, p *types.SharePolicy) (*types.SharePolicy, error)
	// GetActive returns the non-revoked policy or nil.
	GetActive(dbc dbctx.Context, pitchID uuid.UUID) (*types.SharePolicy, error)
	ListByPitch(dbc dbctx.Context, pitchID uuid.UUID) ([]*types.SharePolicy, error)
	HasRevoked(dbc dbctx.Context, pitchID uuid.UUID) (bool, error)
	DeleteByPitch(dbc dbctx.Context, pitchID uuid.UUID) (int64, error)
}

type sharePolicyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSharePolicyRepo(db *gorm.DB, baseLog *logger.Logger) SharePolicyRepo {
	return &sharePolicyRepo{db: db, log: baseLog.With("repo", "SharePolicyRepo")}
}

func (r *sharePolicyRepo) Create(dbc dbctx.Context, p *types.SharePolicy) (*types.SharePolicy, error) {
	if err := dbc.DB(r.db).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

func (r *sharePolicyRepo) GetActive(dbc dbctx.Context, pitchID uuid.UUID) (*types.SharePolicy, error) {
	if pitchID == uuid.Nil {
		return nil, nil
	}
	var out types.SharePolicy
	if err := dbc.DB(r.db).
		Where("pitch_id = ? AND revoked_at IS NULL", pitchID).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if out.ID == uuid.Nil {
		return nil, nil
	}
	return &out, nil
}

func (r *sharePolicyRepo) ListByPitch(dbc dbctx.Context, pitchID uuid.UUID) ([]*types.SharePolicy, error) {
	var out []*types.SharePolicy
	if pitchID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("pitch_id = ?", pitchID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sharePolicyRepo) HasRevoked(dbc dbctx.Context, pitchID uuid.UUID) (bool, error) {
	var count int64
	if err := dbc.DB(r.db).
		Model(&types.SharePolicy{}).
		Where("pitch_id = ? AND revoked_at IS NOT NULL", pitchID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *sharePolicyRepo) DeleteByPitch(dbc dbctx.Context, pitchID uuid.UUID) (int64, error) {
	res := dbc.DB(r.db).Where("pitch_id = ?", pitchID).Delete(&types.SharePolicy{})
	return res.RowsAffected, res.Error
}
