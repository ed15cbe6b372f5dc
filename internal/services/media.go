package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

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

const cleanupTimeout = 30 * time.Second

type MediaConfig struct {
	MaxUploadBytes int64
	// Concurrency bounds parallel uploads inside one batch.
	Concurrency int
	// TitleCountsAsContent decides whether a custom section survives losing its last media.
	TitleCountsAsContent bool
}

type UploadFile struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

type UploadResult struct {
	Index    int               `json:"index"`
	Filename string            `json:"filename"`
	Media    *types.PitchMedia `json:"media,omitempty"`
	Err      error             `json:"-"`
}

type MediaService interface {
	// Upload writes the object and then the record. A failed record insert deletes the object.
	Upload(ctx context.Context, ownerID, pitchID uuid.UUID, sectionKey string, f UploadFile) (*types.PitchMedia, error)
	// UploadBatch uploads files concurrently; each file succeeds or fails on its own.
	UploadBatch(ctx context.Context, ownerID, pitchID uuid.UUID, sectionKey string, files []UploadFile) ([]UploadResult, error)
	List(ctx context.Context, ownerID, pitchID uuid.UUID) ([]*types.PitchMedia, error)
	// Delete removes the object, then the record and every section reference to it, even
	// if object removal failed.
	Delete(ctx context.Context, ownerID, mediaID uuid.UUID) error
}

type mediaService struct {
	log      *logger.Logger
	cfg      MediaConfig
	catalog  *pitch.Catalog
	pitches  repos.PitchRepo
	media    repos.MediaRepo
	document pitch.DocumentAggregate
	store    objectstore.Store
}

func NewMediaService(
	baseLog *logger.Logger,
	cfg MediaConfig,
	catalog *pitch.Catalog,
	pitches repos.PitchRepo,
	media repos.MediaRepo,
	document pitch.DocumentAggregate,
	store objectstore.Store,
) MediaService {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 25 << 20
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if catalog == nil {
		catalog = pitch.DefaultCatalog()
	}
	return &mediaService{
		log:      baseLog.With("service", "MediaService"),
		cfg:      cfg,
		catalog:  catalog,
		pitches:  pitches,
		media:    media,
		document: document,
		store:    store,
	}
}

func (s *mediaService) ownedPitch(ctx context.Context, op string, ownerID, pitchID uuid.UUID) (*types.Pitch, error) {
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

func (s *mediaService) checkSectionKey(op, key string) (string, error) {
	key = strings.TrimSpace(key)
	if _, ok := s.catalog.Lookup(key); ok {
		return key, nil
	}
	if pitch.IsSectionKey(key) {
		return key, nil
	}
	return "", domainagg.Validation(op, "section key %q is not recognised", key)
}

func (s *mediaService) Upload(ctx context.Context, ownerID, pitchID uuid.UUID, sectionKey string, f UploadFile) (*types.PitchMedia, error) {
	const op = "media.upload"
	key, err := s.checkSectionKey(op, sectionKey)
	if err != nil {
		return nil, err
	}
	p, err := s.ownedPitch(ctx, op, ownerID, pitchID)
	if err != nil {
		return nil, err
	}
	order, err := s.media.NextOrderIndex(dbctx.Context{Ctx: ctx}, p.ID, key)
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	return s.upload(ctx, op, p, key, order, f)
}

func (s *mediaService) upload(ctx context.Context, op string, p *types.Pitch, sectionKey string, order int, f UploadFile) (*types.PitchMedia, error) {
	if f.Body == nil {
		return nil, domainagg.Validation(op, "file body is required")
	}
	data, err := io.ReadAll(io.LimitReader(f.Body, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, domainagg.Validation(op, "read upload: %v", err)
	}
	if len(data) == 0 {
		return nil, domainagg.Validation(op, "file is empty")
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, domainagg.Validation(op, "file exceeds %d bytes", s.cfg.MaxUploadBytes)
	}
	contentType := sniffContentType(data, f.ContentType)
	kind, ext, ok := pitch.ContentKindFor(contentType)
	if !ok {
		observability.Current().IncUpload("unknown", "rejected", int64(len(data)))
		return nil, domainagg.Validation(op, "content type %q is not supported", contentType)
	}

	path := pitch.MediaPath(p.OwnerID, p.ID, ext)
	if err := s.store.Put(ctx, path, bytes.NewReader(data), contentType); err != nil {
		observability.Current().IncUpload(string(kind), "store_failed", int64(len(data)))
		s.log.Error("Object write failed", "pitch_id", p.ID, "error", err)
		return nil, domainagg.Dependency(op, err)
	}

	created, err := s.media.Create(dbctx.Context{Ctx: ctx}, &types.PitchMedia{
		PitchID:     p.ID,
		SectionKey:  sectionKey,
		StoragePath: path,
		ContentKind: kind,
		ContentType: contentType,
		SizeBytes:   int64(len(data)),
		OrderIndex:  order,
	})
	if err != nil {
		s.compensate(path, p.ID)
		observability.Current().IncUpload(string(kind), "record_failed", int64(len(data)))
		return nil, dataagg.MapError(op, err)
	}
	observability.Current().IncUpload(string(kind), "success", int64(len(data)))
	s.log.Debug("Media uploaded", "pitch_id", p.ID, "media_id", created.ID, "section_key", sectionKey, "size", len(data))
	return created, nil
}

// compensate removes an object whose record never landed. It runs on a fresh context so a
// cancelled request still cleans up.
func (s *mediaService) compensate(path string, pitchID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()
	if err := s.store.Delete(ctx, path); err != nil && !errors.Is(err, objectstore.ErrNotFound) {
		observability.Current().IncObjectCleanup("upload_rollback", "failed")
		s.log.Error("Orphan cleanup failed", "pitch_id", pitchID, "error", err)
		return
	}
	observability.Current().IncObjectCleanup("upload_rollback", "success")
}

func (s *mediaService) UploadBatch(ctx context.Context, ownerID, pitchID uuid.UUID, sectionKey string, files []UploadFile) ([]UploadResult, error) {
	const op = "media.upload_batch"
	if len(files) == 0 {
		return nil, domainagg.Validation(op, "no files supplied")
	}
	key, err := s.checkSectionKey(op, sectionKey)
	if err != nil {
		return nil, err
	}
	p, err := s.ownedPitch(ctx, op, ownerID, pitchID)
	if err != nil {
		return nil, err
	}

	// Indices are reserved up front so order follows file position, not completion.
	base, err := s.media.NextOrderIndex(dbctx.Context{Ctx: ctx}, p.ID, key)
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}

	results := make([]UploadResult, len(files))
	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for i, f := range files {
		g.Go(func() error {
			m, err := s.upload(ctx, op, p, key, base+i, f)
			results[i] = UploadResult{Index: i, Filename: f.Filename, Media: m, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		s.log.Warn("Batch upload had failures", "pitch_id", pitchID, "files", len(files), "failed", failed)
	}
	return results, nil
}

func (s *mediaService) List(ctx context.Context, ownerID, pitchID uuid.UUID) ([]*types.PitchMedia, error) {
	const op = "media.list"
	if _, err := s.ownedPitch(ctx, op, ownerID, pitchID); err != nil {
		return nil, err
	}
	out, err := s.media.ListByPitch(dbctx.Context{Ctx: ctx}, pitchID)
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	return out, nil
}

func (s *mediaService) Delete(ctx context.Context, ownerID, mediaID uuid.UUID) error {
	const op = "media.delete"
	dbc := dbctx.Context{Ctx: ctx}
	m, err := s.media.GetByID(dbc, mediaID)
	if err != nil {
		return dataagg.MapError(op, err)
	}
	if m == nil {
		return domainagg.NotFound(op, "media")
	}
	if _, err := s.ownedPitch(ctx, op, ownerID, m.PitchID); err != nil {
		return domainagg.NotFound(op, "media")
	}

	if err := s.store.Delete(ctx, m.StoragePath); err != nil && !errors.Is(err, objectstore.ErrNotFound) {
		observability.Current().IncObjectCleanup("media_delete", "failed")
		s.log.Warn("Object delete failed; removing record anyway", "media_id", m.ID, "error", err)
	} else {
		observability.Current().IncObjectCleanup("media_delete", "success")
	}

	res, err := s.document.DetachMedia(ctx, pitch.DetachMediaInput{
		PitchID: m.PitchID,
		MediaID: m.ID,
		Policy:  pitch.EmptinessPolicy{TitleCountsAsContent: s.cfg.TitleCountsAsContent},
	})
	if err != nil {
		return dataagg.MapError(op, err)
	}
	if res.Rewritten > 0 || res.Dropped > 0 {
		s.log.Debug("Media references removed", "media_id", m.ID, "rewritten", res.Rewritten, "dropped", res.Dropped)
	}
	return nil
}

// sniffContentType trusts the bytes over the client. Office formats sniff as zip, so a
// declared OOXML type is kept when the bytes are a zip archive.
func sniffContentType(data []byte, declared string) string {
	sniffed := http.DetectContentType(data)
	if i := strings.IndexByte(sniffed, ';'); i >= 0 {
		sniffed = strings.TrimSpace(sniffed[:i])
	}
	if sniffed == "application/zip" {
		if kind, _, ok := pitch.ContentKindFor(declared); ok && kind == pitch.ContentDocument {
			d := strings.ToLower(strings.TrimSpace(declared))
			if i := strings.IndexByte(d, ';'); i >= 0 {
				d = strings.TrimSpace(d[:i])
			}
			return d
		}
	}
	return sniffed
}
