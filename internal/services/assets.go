package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	dataagg "github.com/yungbote/pitchroom-backend/internal/data/aggregates"
	"github.com/yungbote/pitchroom-backend/internal/data/repos"
	types "github.com/yungbote/pitchroom-backend/internal/domain"
	domainagg "github.com/yungbote/pitchroom-backend/internal/domain/aggregates"
	"github.com/yungbote/pitchroom-backend/internal/domain/pitch"
	"github.com/yungbote/pitchroom-backend/internal/observability"
	"github.com/yungbote/pitchroom-backend/internal/platform/dbctx"
	"github.com/yungbote/pitchroom-backend/internal/platform/logger"
	"github.com/yungbote/pitchroom-backend/internal/platform/objectstore"
)

// AssetURLTTL is how long an issued asset URL stays usable.
const AssetURLTTL = 3600 * time.Second

type SignedAsset struct {
	MediaID     uuid.UUID         `json:"media_id"`
	SectionKey  string            `json:"section_key"`
	ContentKind pitch.ContentKind `json:"content_kind"`
	ContentType string            `json:"content_type"`
	URL         string            `json:"url"`
	ExpiresAt   time.Time         `json:"expires_at"`
}

// AssetIssuer signs media URLs. A share decision only reaches media that a saved section
// references; an owner decision reaches every upload of the pitch.
type AssetIssuer interface {
	Issue(ctx context.Context, d Decision, mediaID uuid.UUID) (*SignedAsset, error)
	// IssueBatch spends one decision on every media row; rows of other pitches are rejected.
	IssueBatch(ctx context.Context, d Decision, media []*types.PitchMedia) ([]SignedAsset, error)
	// IssueForPitch issues URLs for the media of the decision's pitch that it may reach.
	IssueForPitch(ctx context.Context, d Decision) ([]SignedAsset, error)
}

type assetIssuer struct {
	log      *logger.Logger
	media    repos.MediaRepo
	sections repos.SectionRepo
	store    objectstore.Store
	mode     string
	now      func() time.Time
}

// NewAssetIssuer builds the issuer; mode labels signed-url metrics (gcs, local, ...).
func NewAssetIssuer(baseLog *logger.Logger, media repos.MediaRepo, sections repos.SectionRepo, store objectstore.Store, mode string) AssetIssuer {
	return &assetIssuer{
		log:      baseLog.With("service", "AssetIssuer"),
		media:    media,
		sections: sections,
		store:    store,
		mode:     mode,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// referenced is the set of media ids the saved sections of a pitch point at.
func (a *assetIssuer) referenced(ctx context.Context, pitchID uuid.UUID) (map[uuid.UUID]bool, error) {
	rows, err := a.sections.ListByPitch(dbctx.Context{Ctx: ctx}, pitchID)
	if err != nil {
		return nil, err
	}
	out := map[uuid.UUID]bool{}
	for _, row := range rows {
		p, err := row.Decode()
		if err != nil {
			a.log.Warn("Skipping undecodable section", "pitch_id", pitchID, "section_key", row.SectionKey, "error", err)
			continue
		}
		for _, id := range p.MediaRefs() {
			out[id] = true
		}
	}
	return out, nil
}

// reachable drops the rows a non-owner decision may not see.
func (a *assetIssuer) reachable(ctx context.Context, d Decision, media []*types.PitchMedia) ([]*types.PitchMedia, error) {
	if d.Owner {
		return media, nil
	}
	refs, err := a.referenced(ctx, d.PitchID)
	if err != nil {
		return nil, err
	}
	out := make([]*types.PitchMedia, 0, len(media))
	for _, m := range media {
		if refs[m.ID] {
			out = append(out, m)
		}
	}
	return out, nil
}

func (a *assetIssuer) Issue(ctx context.Context, d Decision, mediaID uuid.UUID) (*SignedAsset, error) {
	const op = "assets.issue"
	if !d.Allowed {
		return nil, domainagg.NotFound(op, "media")
	}
	m, err := a.media.GetByID(dbctx.Context{Ctx: ctx}, mediaID)
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	if m == nil || !d.permits(m.PitchID) {
		return nil, domainagg.NotFound(op, "media")
	}
	visible, err := a.reachable(ctx, d, []*types.PitchMedia{m})
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	if len(visible) == 0 {
		return nil, domainagg.NotFound(op, "media")
	}
	out, err := a.sign(ctx, op, visible)
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

func (a *assetIssuer) IssueBatch(ctx context.Context, d Decision, media []*types.PitchMedia) ([]SignedAsset, error) {
	const op = "assets.issue_batch"
	if !d.Allowed {
		return nil, domainagg.NotFound(op, "media")
	}
	for _, m := range media {
		if m == nil || !d.permits(m.PitchID) {
			return nil, domainagg.NotFound(op, "media")
		}
	}
	visible, err := a.reachable(ctx, d, media)
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	if len(visible) != len(media) {
		return nil, domainagg.NotFound(op, "media")
	}
	return a.sign(ctx, op, visible)
}

func (a *assetIssuer) IssueForPitch(ctx context.Context, d Decision) ([]SignedAsset, error) {
	const op = "assets.issue_for_pitch"
	if !d.Allowed || d.PitchID == uuid.Nil {
		return nil, domainagg.NotFound(op, "pitch")
	}
	media, err := a.media.ListByPitch(dbctx.Context{Ctx: ctx}, d.PitchID)
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	visible, err := a.reachable(ctx, d, media)
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	return a.sign(ctx, op, visible)
}

func (a *assetIssuer) sign(ctx context.Context, op string, media []*types.PitchMedia) ([]SignedAsset, error) {
	out := make([]SignedAsset, 0, len(media))
	expires := a.now().Add(AssetURLTTL)
	for _, m := range media {
		u, err := a.store.SignedGet(ctx, m.StoragePath, AssetURLTTL)
		if err != nil {
			a.log.Error("Signing asset url failed", "media_id", m.ID, "error", err)
			return nil, domainagg.Dependency(op, err)
		}
		out = append(out, SignedAsset{
			MediaID:     m.ID,
			SectionKey:  m.SectionKey,
			ContentKind: m.ContentKind,
			ContentType: m.ContentType,
			URL:         u,
			ExpiresAt:   expires,
		})
	}
	observability.Current().AddSignedURLs(a.mode, len(out))
	return out, nil
}
