package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	dataagg "github.com/yungbote/pitchroom-backend/internal/data/aggregates"
	"github.com/yungbote/pitchroom-backend/internal/data/repos"
	types "github.com/yungbote/pitchroom-backend/internal/domain"
	domainagg "github.com/yungbote/pitchroom-backend/internal/domain/aggregates"
	"github.com/yungbote/pitchroom-backend/internal/domain/pitch"
	"github.com/yungbote/pitchroom-backend/internal/platform/dbctx"
	"github.com/yungbote/pitchroom-backend/internal/platform/logger"
)

type ComposerConfig struct {
	// TitleCountsAsContent keeps custom sections that carry nothing but a title.
	TitleCountsAsContent bool
	Catalog              *pitch.Catalog
}

// SaveRequest is one submitted editing session.
type SaveRequest struct {
	Fields   pitch.Fields         `json:"fields"`
	Sections []pitch.SectionState `json:"sections"`
}

// Document is the editor view of a pitch: required fields plus every section state.
type Document struct {
	Pitch       *types.Pitch         `json:"pitch"`
	Sections    []pitch.SectionState `json:"sections"`
	EnabledKeys []string             `json:"enabled_keys"`
}

type DocumentComposer interface {
	Create(ctx context.Context, ownerID uuid.UUID, fields pitch.Fields) (*types.Pitch, error)
	GetForOwner(ctx context.Context, ownerID, pitchID uuid.UUID) (*types.Pitch, error)
	ListForOwner(ctx context.Context, ownerID uuid.UUID) ([]*types.Pitch, error)
	ListPublic(ctx context.Context, limit, offset int) ([]repos.PublicListing, error)
	SoftDelete(ctx context.Context, ownerID, pitchID uuid.UUID) error

	// Save replaces the pitch's fields and its whole section set.
	Save(ctx context.Context, ownerID, pitchID uuid.UUID, req SaveRequest) (*Document, error)
	// Load reads a pitch without any access check; callers authorize first.
	Load(ctx context.Context, pitchID uuid.UUID) (*Document, error)
	LoadForOwner(ctx context.Context, ownerID, pitchID uuid.UUID) (*Document, error)
}

type documentComposer struct {
	log      *logger.Logger
	cfg      ComposerConfig
	pitches  repos.PitchRepo
	sections repos.SectionRepo
	media    repos.MediaRepo
	document pitch.DocumentAggregate
}

func NewDocumentComposer(
	baseLog *logger.Logger,
	cfg ComposerConfig,
	pitches repos.PitchRepo,
	sections repos.SectionRepo,
	media repos.MediaRepo,
	document pitch.DocumentAggregate,
) DocumentComposer {
	if cfg.Catalog == nil {
		cfg.Catalog = pitch.DefaultCatalog()
	}
	return &documentComposer{
		log:      baseLog.With("service", "DocumentComposer"),
		cfg:      cfg,
		pitches:  pitches,
		sections: sections,
		media:    media,
		document: document,
	}
}

func (s *documentComposer) Create(ctx context.Context, ownerID uuid.UUID, fields pitch.Fields) (*types.Pitch, error) {
	const op = "composer.create"
	if ownerID == uuid.Nil {
		return nil, domainagg.Validation(op, "owner is required")
	}
	fields = fields.Normalize()
	if err := fields.Validate(op); err != nil {
		return nil, err
	}
	p, err := s.pitches.Create(dbctx.Context{Ctx: ctx}, &types.Pitch{OwnerID: ownerID, Fields: fields})
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	s.log.Info("Pitch created", "pitch_id", p.ID, "owner_id", ownerID)
	return p, nil
}

// ownedPitch resolves a live pitch and checks ownership against the stored owner.
// Foreign and missing pitches are indistinguishable.
func (s *documentComposer) ownedPitch(ctx context.Context, op string, ownerID, pitchID uuid.UUID) (*types.Pitch, error) {
	if ownerID == uuid.Nil || pitchID == uuid.Nil {
		return nil, domainagg.NotFound(op, "pitch")
	}
	p, err := s.pitches.GetByID(dbctx.Context{Ctx: ctx}, pitchID, false)
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	if p == nil || p.OwnerID != ownerID {
		return nil, domainagg.NotFound(op, "pitch")
	}
	return p, nil
}

func (s *documentComposer) GetForOwner(ctx context.Context, ownerID, pitchID uuid.UUID) (*types.Pitch, error) {
	return s.ownedPitch(ctx, "composer.get", ownerID, pitchID)
}

func (s *documentComposer) ListForOwner(ctx context.Context, ownerID uuid.UUID) ([]*types.Pitch, error) {
	out, err := s.pitches.ListByOwner(dbctx.Context{Ctx: ctx}, ownerID)
	if err != nil {
		return nil, dataagg.MapError("composer.list", err)
	}
	return out, nil
}

func (s *documentComposer) ListPublic(ctx context.Context, limit, offset int) ([]repos.PublicListing, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	out, err := s.pitches.ListPublic(dbctx.Context{Ctx: ctx}, limit, offset)
	if err != nil {
		return nil, dataagg.MapError("composer.list_public", err)
	}
	return out, nil
}

func (s *documentComposer) SoftDelete(ctx context.Context, ownerID, pitchID uuid.UUID) error {
	const op = "composer.soft_delete"
	if _, err := s.ownedPitch(ctx, op, ownerID, pitchID); err != nil {
		return err
	}
	ok, err := s.pitches.SoftDelete(dbctx.Context{Ctx: ctx}, pitchID)
	if err != nil {
		return dataagg.MapError(op, err)
	}
	if !ok {
		return domainagg.NotFound(op, "pitch")
	}
	s.log.Info("Pitch soft-deleted", "pitch_id", pitchID, "owner_id", ownerID)
	return nil
}

func (s *documentComposer) Save(ctx context.Context, ownerID, pitchID uuid.UUID, req SaveRequest) (*Document, error) {
	const op = "composer.save"
	fields := req.Fields.Normalize()
	if err := fields.Validate(op); err != nil {
		return nil, err
	}
	p, err := s.ownedPitch(ctx, op, ownerID, pitchID)
	if err != nil {
		return nil, err
	}

	rows, refs, err := s.reconcile(op, req.Sections)
	if err != nil {
		return nil, err
	}
	if err := s.checkMediaRefs(ctx, op, pitchID, refs); err != nil {
		return nil, err
	}

	res, err := s.document.Save(ctx, pitch.SaveInput{
		PitchID:  pitchID,
		OwnerID:  ownerID,
		Fields:   fields,
		Sections: rows,
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("Pitch saved",
		"pitch_id", pitchID,
		"version", res.Version,
		"submitted", len(req.Sections),
		"persisted", len(res.Sections),
	)

	p.Fields = fields
	p.CurrentVersion = res.Version
	p.UpdatedAt = res.SavedAt
	return s.assemble(op, p, res.Sections)
}

// reconcile turns submitted states into the rows to persist. Disabled and empty sections
// are dropped; order_index is assigned later from the position in the returned slice.
func (s *documentComposer) reconcile(op string, states []pitch.SectionState) ([]*pitch.Section, []uuid.UUID, error) {
	policy := pitch.EmptinessPolicy{TitleCountsAsContent: s.cfg.TitleCountsAsContent}
	seen := make(map[string]struct{}, len(states))
	rows := make([]*pitch.Section, 0, len(states))
	var refs []uuid.UUID

	for i, st := range states {
		key := strings.TrimSpace(st.Key)
		if key == "" {
			return nil, nil, domainagg.Validation(op, "sections[%d] has no key", i)
		}
		if _, dup := seen[key]; dup {
			return nil, nil, domainagg.Validation(op, "section %q appears more than once", key)
		}
		seen[key] = struct{}{}

		payload := st.Payload
		entry, inCatalog := s.cfg.Catalog.Lookup(key)
		switch {
		case inCatalog:
			if payload == nil {
				payload = pitch.EmptyPayload(entry.Kind)
			}
			if payload.Kind() != entry.Kind {
				return nil, nil, domainagg.Validation(op, "section %q expects a %s payload, got %s", key, entry.Kind, payload.Kind())
			}
		case pitch.IsSectionKey(key):
			if payload == nil {
				payload = pitch.CustomPayload{}
			}
		default:
			return nil, nil, domainagg.Validation(op, "section key %q is not recognised", key)
		}
		if err := pitch.ValidatePayload(op, payload); err != nil {
			return nil, nil, err
		}

		if !st.Enabled || !payload.HasContent(policy) {
			continue
		}
		payload = pitch.Normalize(payload)
		raw, err := pitch.EncodePayload(payload)
		if err != nil {
			return nil, nil, domainagg.NewError(domainagg.CodeInternal, op, fmt.Sprintf("encode section %q", key), err)
		}
		rows = append(rows, &pitch.Section{SectionKey: key, Kind: payload.Kind(), Payload: raw})
		refs = append(refs, payload.MediaRefs()...)
	}
	return rows, refs, nil
}

func (s *documentComposer) checkMediaRefs(ctx context.Context, op string, pitchID uuid.UUID, refs []uuid.UUID) error {
	if len(refs) == 0 {
		return nil
	}
	unique := make([]uuid.UUID, 0, len(refs))
	want := make(map[uuid.UUID]struct{}, len(refs))
	for _, id := range refs {
		if _, ok := want[id]; ok {
			continue
		}
		want[id] = struct{}{}
		unique = append(unique, id)
	}
	found, err := s.media.IDsForPitch(dbctx.Context{Ctx: ctx}, pitchID, unique)
	if err != nil {
		return dataagg.MapError(op, err)
	}
	for _, id := range found {
		delete(want, id)
	}
	for _, id := range unique {
		if _, missing := want[id]; missing {
			return domainagg.Validation(op, "media %s does not belong to this pitch", id)
		}
	}
	return nil
}

func (s *documentComposer) Load(ctx context.Context, pitchID uuid.UUID) (*Document, error) {
	const op = "composer.load"
	p, err := s.pitches.GetByID(dbctx.Context{Ctx: ctx}, pitchID, false)
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	if p == nil {
		return nil, domainagg.NotFound(op, "pitch")
	}
	return s.loadSections(ctx, op, p)
}

func (s *documentComposer) LoadForOwner(ctx context.Context, ownerID, pitchID uuid.UUID) (*Document, error) {
	const op = "composer.load"
	p, err := s.ownedPitch(ctx, op, ownerID, pitchID)
	if err != nil {
		return nil, err
	}
	return s.loadSections(ctx, op, p)
}

func (s *documentComposer) loadSections(ctx context.Context, op string, p *types.Pitch) (*Document, error) {
	rows, err := s.sections.ListByPitch(dbctx.Context{Ctx: ctx}, p.ID)
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	return s.assemble(op, p, rows)
}

// assemble builds the editor view: stored sections first in their persisted order, then a
// disabled empty state for every catalog key that has no row.
func (s *documentComposer) assemble(op string, p *types.Pitch, rows []*pitch.Section) (*Document, error) {
	states := make([]pitch.SectionState, 0, len(rows)+len(s.cfg.Catalog.Entries()))
	present := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		payload, err := row.Decode()
		if err != nil {
			s.log.Error("Stored section failed to decode", "pitch_id", p.ID, "section_key", row.SectionKey, "error", err)
			return nil, domainagg.NewError(domainagg.CodeDependency, op, "stored section is malformed", err)
		}
		_, inCatalog := s.cfg.Catalog.Lookup(row.SectionKey)
		states = append(states, pitch.SectionState{
			Key:     row.SectionKey,
			Enabled: true,
			Custom:  !inCatalog,
			Payload: payload,
		})
		present[row.SectionKey] = struct{}{}
	}
	for _, e := range s.cfg.Catalog.Entries() {
		if _, ok := present[e.Key]; ok {
			continue
		}
		states = append(states, pitch.SectionState{Key: e.Key, Payload: pitch.EmptyPayload(e.Kind)})
	}
	return &Document{Pitch: p, Sections: states, EnabledKeys: pitch.EnabledKeys(states)}, nil
}
