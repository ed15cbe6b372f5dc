package pitch

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/pitchroom-backend/internal/domain"
	"github.com/yungbote/pitchroom-backend/internal/platform/dbctx"
	"github.com/yungbote/pitchroom-backend/internal/platform/logger"
)

type MediaRepo interface {
	Create(dbc dbctx.Context, m *types.PitchMedia) (*types.PitchMedia, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.PitchMedia, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.PitchMedia, error)
	ListByPitch(dbc dbctx.Context, pitchID uuid.UUID) ([]*types.PitchMedia, error)
	// IDsForPitch filters ids down to those owned by pitchID.
	IDsForPitch(dbc dbctx.Context, pitchID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error)
	// NextOrderIndex is one past the highest order_index in the section; gaps left by
	// deletes are never reused.
	NextOrderIndex(dbc dbctx.Context, pitchID uuid.UUID, sectionKey string) (int, error)
	Delete(dbc dbctx.Context, id uuid.UUID) (bool, error)
	DeleteByPitch(dbc dbctx.Context, pitchID uuid.UUID) (int64, error)
}

type mediaRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMediaRepo(db *gorm.DB, baseLog *logger.Logger) MediaRepo {
	return &mediaRepo{db: db, log: baseLog.With("repo", "MediaRepo")}
}

func (r *mediaRepo) Create(dbc dbctx.Context, m *types.PitchMedia) (*types.PitchMedia, error) {
	if err := dbc.DB(r.db).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

func (r *mediaRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.PitchMedia, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var out types.PitchMedia
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if out.ID == uuid.Nil {
		return nil, nil
	}
	return &out, nil
}

func (r *mediaRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.PitchMedia, error) {
	var out []*types.PitchMedia
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *mediaRepo) ListByPitch(dbc dbctx.Context, pitchID uuid.UUID) ([]*types.PitchMedia, error) {
	var out []*types.PitchMedia
	if pitchID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("pitch_id = ?", pitchID).
		Order("section_key ASC, order_index ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *mediaRepo) IDsForPitch(dbc dbctx.Context, pitchID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	if pitchID == uuid.Nil || len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Model(&types.PitchMedia{}).
		Where("pitch_id = ? AND id IN ?", pitchID, ids).
		Pluck("id", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *mediaRepo) NextOrderIndex(dbc dbctx.Context, pitchID uuid.UUID, sectionKey string) (int, error) {
	var next int
	if err := dbc.DB(r.db).
		Model(&types.PitchMedia{}).
		Select("COALESCE(MAX(order_index), -1) + 1").
		Where("pitch_id = ? AND section_key = ?", pitchID, sectionKey).
		Scan(&next).Error; err != nil {
		return 0, err
	}
	return next, nil
}

func (r *mediaRepo) Delete(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	res := dbc.DB(r.db).Where("id = ?", id).Delete(&types.PitchMedia{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *mediaRepo) DeleteByPitch(dbc dbctx.Context, pitchID uuid.UUID) (int64, error) {
	res := dbc.DB(r.db).Where("pitch_id = ?", pitchID).Delete(&types.PitchMedia{})
	return res.RowsAffected, res.Error
}
