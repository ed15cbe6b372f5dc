package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	dataagg "github.com/yungbote/pitchroom-backend/internal/data/aggregates"
	"github.com/yungbote/pitchroom-backend/internal/data/repos"
	domainagg "github.com/yungbote/pitchroom-backend/internal/domain/aggregates"
	"github.com/yungbote/pitchroom-backend/internal/domain/pitch"
	"github.com/yungbote/pitchroom-backend/internal/observability"
	"github.com/yungbote/pitchroom-backend/internal/platform/dbctx"
	"github.com/yungbote/pitchroom-backend/internal/platform/logger"
	"github.com/yungbote/pitchroom-backend/internal/platform/objectstore"
)

type PurgeReport struct {
	PitchID        uuid.UUID `json:"pitch_id"`
	ObjectsDeleted int       `json:"objects_deleted"`
	ObjectsFailed  int       `json:"objects_failed"`
	DryRun         bool      `json:"dry_run"`
}

// Lifecycle hard-deletes pitches that were soft-deleted earlier.
type Lifecycle interface {
	Purge(ctx context.Context, pitchID uuid.UUID) (*PurgeReport, error)
	PurgeDeletedBefore(ctx context.Context, cutoff time.Time, dryRun bool) ([]PurgeReport, error)
}

type lifecycle struct {
	log      *logger.Logger
	pitches  repos.PitchRepo
	media    repos.MediaRepo
	store    objectstore.Store
	document pitch.DocumentAggregate
}

func NewLifecycle(baseLog *logger.Logger, pitches repos.PitchRepo, media repos.MediaRepo, store objectstore.Store, document pitch.DocumentAggregate) Lifecycle {
	return &lifecycle{
		log:      baseLog.With("service", "Lifecycle"),
		pitches:  pitches,
		media:    media,
		store:    store,
		document: document,
	}
}

func (l *lifecycle) Purge(ctx context.Context, pitchID uuid.UUID) (*PurgeReport, error) {
	const op = "lifecycle.purge"
	dbc := dbctx.Context{Ctx: ctx}
	p, err := l.pitches.GetByID(dbc, pitchID, true)
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	if p == nil {
		return nil, domainagg.NotFound(op, "pitch")
	}
	if !p.Deleted() {
		return nil, domainagg.Conflict(op, "pitch %s is not deleted", pitchID)
	}
	return l.purge(ctx, op, p.OwnerID, p.ID)
}

func (l *lifecycle) purge(ctx context.Context, op string, ownerID, pitchID uuid.UUID) (*PurgeReport, error) {
	report := &PurgeReport{PitchID: pitchID}
	media, err := l.media.ListByPitch(dbctx.Context{Ctx: ctx}, pitchID)
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	for _, m := range media {
		if err := l.store.Delete(ctx, m.StoragePath); err != nil && !errors.Is(err, objectstore.ErrNotFound) {
			report.ObjectsFailed++
			observability.Current().IncObjectCleanup("purge", "failed")
			l.log.Warn("Object delete failed during purge", "pitch_id", pitchID, "media_id", m.ID, "error", err)
			continue
		}
		report.ObjectsDeleted++
		observability.Current().IncObjectCleanup("purge", "success")
	}
	// Sweep anything a crashed upload left under the pitch prefix.
	if sweeper, ok := l.store.(objectstore.PrefixDeleter); ok {
		prefix := "pitches/" + ownerID.String() + "/" + pitchID.String() + "/"
		n, err := sweeper.DeletePrefix(ctx, prefix)
		if err != nil {
			l.log.Warn("Prefix sweep failed", "pitch_id", pitchID, "error", err)
		} else if n > 0 {
			l.log.Info("Swept stray objects", "pitch_id", pitchID, "count", n)
		}
	}
	if err := l.document.Purge(ctx, pitchID); err != nil {
		return nil, err
	}
	l.log.Info("Pitch purged", "pitch_id", pitchID, "objects_deleted", report.ObjectsDeleted, "objects_failed", report.ObjectsFailed)
	return report, nil
}

func (l *lifecycle) PurgeDeletedBefore(ctx context.Context, cutoff time.Time, dryRun bool) ([]PurgeReport, error) {
	const op = "lifecycle.purge_deleted_before"
	rows, err := l.pitches.ListDeletedBefore(dbctx.Context{Ctx: ctx}, cutoff.UTC())
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	out := make([]PurgeReport, 0, len(rows))
	for _, p := range rows {
		if err := ctx.Err(); err != nil {
			return out, domainagg.Dependency(op, err)
		}
		if dryRun {
			out = append(out, PurgeReport{PitchID: p.ID, DryRun: true})
			continue
		}
		r, err := l.purge(ctx, op, p.OwnerID, p.ID)
		if err != nil {
			l.log.Warn("Purge failed", "pitch_id", p.ID, "error", err)
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}
