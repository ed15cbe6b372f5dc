package pitch

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/pitchroom-backend/internal/domain"
	"github.com/yungbote/pitchroom-backend/internal/platform/dbctx"
	"github.com/yungbote/pitchroom-backend/internal/platform/logger"
)

// PublicListing is one row of the public catalogue.
type PublicListing struct {
	ID                uuid.UUID `json:"id"`
	Title             string    `json:"title"`
	Logline           string    `json:"logline"`
	Category          string    `json:"category"`
	Status            string    `json:"status"`
	PasswordProtected bool      `json:"password_protected"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type PitchRepo interface {
	Create(dbc dbctx.Context, p *types.Pitch) (*types.Pitch, error)
	// GetByID returns nil when absent. Soft-deleted rows are returned only with includeDeleted.
	GetByID(dbc dbctx.Context, id uuid.UUID, includeDeleted bool) (*types.Pitch, error)
	ListByOwner(dbc dbctx.Context, ownerID uuid.UUID) ([]*types.Pitch, error)
	ListPublic(dbc dbctx.Context, limit, offset int) ([]PublicListing, error)
	// UpdateFields writes the scalar fields and bumps current_version, returning the new version.
	UpdateFields(dbc dbctx.Context, id uuid.UUID, fields types.PitchFields) (int, error)
	SoftDelete(dbc dbctx.Context, id uuid.UUID) (bool, error)
	HardDelete(dbc dbctx.Context, id uuid.UUID) error
	ListDeletedBefore(dbc dbctx.Context, cutoff time.Time) ([]*types.Pitch, error)
}

type pitchRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPitchRepo(db *gorm.DB, baseLog *logger.Logger) PitchRepo {
	return &pitchRepo{db: db, log: baseLog.With("repo", "PitchRepo")}
}

func (r *pitchRepo) Create(dbc dbctx.Context, p *types.Pitch) (*types.Pitch, error) {
	if err := dbc.DB(r.db).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

func (r *pitchRepo) GetByID(dbc dbctx.Context, id uuid.UUID, includeDeleted bool) (*types.Pitch, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	q := dbc.DB(r.db)
	if includeDeleted {
		q = q.Unscoped()
	}
	var out types.Pitch
	if err := q.Where("id = ?", id).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if out.ID == uuid.Nil {
		return nil, nil
	}
	return &out, nil
}

func (r *pitchRepo) ListByOwner(dbc dbctx.Context, ownerID uuid.UUID) ([]*types.Pitch, error) {
	var out []*types.Pitch
	if ownerID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("owner_id = ?", ownerID).
		Order("updated_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *pitchRepo) ListPublic(dbc dbctx.Context, limit, offset int) ([]PublicListing, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	var rows []struct {
		ID           uuid.UUID
		Title        string
		Logline      string
		Category     string
		Status       string
		PasswordHash *string
		UpdatedAt    time.Time
	}
	err := dbc.DB(r.db).
		Table("pitch").
		Select("pitch.id, pitch.title, pitch.logline, pitch.category, pitch.status, share_policy.password_hash, pitch.updated_at").
		Joins("JOIN share_policy ON share_policy.pitch_id = pitch.id AND share_policy.revoked_at IS NULL").
		Where("pitch.deleted_at IS NULL AND share_policy.visibility = ?", string(types.VisibilityPublic)).
		Order("pitch.updated_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]PublicListing, 0, len(rows))
	for _, row := range rows {
		out = append(out, PublicListing{
			ID:                row.ID,
			Title:             row.Title,
			Logline:           row.Logline,
			Category:          row.Category,
			Status:            row.Status,
			PasswordProtected: row.PasswordHash != nil && *row.PasswordHash != "",
			UpdatedAt:         row.UpdatedAt,
		})
	}
	return out, nil
}

func (r *pitchRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, f types.PitchFields) (int, error) {
	q := dbc.DB(r.db)
	res := q.Model(&types.Pitch{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"title":           f.Title,
			"logline":         f.Logline,
			"synopsis":        f.Synopsis,
			"category":        f.Category,
			"vision":          f.Vision,
			"cast_text":       f.Cast,
			"budget_bracket":  string(f.BudgetBracket),
			"status":          string(f.Status),
			"team":            f.Team,
			"current_version": gorm.Expr("current_version + 1"),
			"updated_at":      time.Now().UTC(),
		})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	var version int
	if err := q.Model(&types.Pitch{}).Where("id = ?", id).Pluck("current_version", &version).Error; err != nil {
		return 0, err
	}
	return version, nil
}

func (r *pitchRepo) SoftDelete(dbc dbctx.Context, id uuid.UUID) (bool, error) {
	res := dbc.DB(r.db).Where("id = ?", id).Delete(&types.Pitch{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *pitchRepo) HardDelete(dbc dbctx.Context, id uuid.UUID) error {
	return dbc.DB(r.db).Unscoped().Where("id = ?", id).Delete(&types.Pitch{}).Error
}

func (r *pitchRepo) ListDeletedBefore(dbc dbctx.Context, cutoff time.Time) ([]*types.Pitch, error) {
	var out []*types.Pitch
	if err := dbc.DB(r.db).
		Unscoped().
		Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff.UTC()).
		Order("deleted_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
