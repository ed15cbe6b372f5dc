package pitch

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/pitchroom-backend/internal/domain"
	"github.com/yungbote/pitchroom-backend/internal/platform/dbctx"
	"github.com/yungbote/pitchroom-backend/internal/platform/logger"
)

type SectionRepo interface {
	ListByPitch(dbc dbctx.Context, pitchID uuid.UUID) ([]*types.PitchSection, error)
	CreateMany(dbc dbctx.Context, sections []*types.PitchSection) ([]*types.PitchSection, error)
	DeleteByPitch(dbc dbctx.Context, pitchID uuid.UUID) (int64, error)
}

type sectionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSectionRepo(db *gorm.DB, baseLog *logger.Logger) SectionRepo {
	return &sectionRepo{db: db, log: baseLog.With("repo", "SectionRepo")}
}

func (r *sectionRepo) ListByPitch(dbc dbctx.Context, pitchID uuid.UUID) ([]*types.PitchSection, error) {
	var out []*types.PitchSection
	if pitchID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("pitch_id = ?", pitchID).
		Order("order_index ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sectionRepo) CreateMany(dbc dbctx.Context, sections []*types.PitchSection) ([]*types.PitchSection, error) {
	if len(sections) == 0 {
		return []*types.PitchSection{}, nil
	}
	if err := dbc.DB(r.db).Create(&sections).Error; err != nil {
		return nil, err
	}
	return sections, nil
}

func (r *sectionRepo) DeleteByPitch(dbc dbctx.Context, pitchID uuid.UUID) (int64, error) {
	res := dbc.DB(r.db).Where("pitch_id = ?", pitchID).Delete(&types.PitchSection{})
	return res.RowsAffected, res.Error
}
