package aggregates_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/pitchroom-backend/internal/data/aggregates"
	aggtestutil "github.com/yungbote/pitchroom-backend/internal/data/aggregates/testutil"
	"github.com/yungbote/pitchroom-backend/internal/data/repos"
	"github.com/yungbote/pitchroom-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/pitchroom-backend/internal/domain/aggregates"
	"github.com/yungbote/pitchroom-backend/internal/domain/pitch"
	"github.com/yungbote/pitchroom-backend/internal/platform/dbctx"
)

func newDocumentAggregate(t *testing.T, db *gorm.DB, base aggregates.BaseDeps) (pitch.DocumentAggregate, repos.SectionRepo) {
	t.Helper()
	log := testutil.Logger(t)
	base.DB = db
	base.Log = log
	sections := repos.NewSectionRepo(db, log)
	agg := aggregates.NewDocumentAggregate(aggregates.DocumentAggregateDeps{
		Base:     base,
		Pitches:  repos.NewPitchRepo(db, log),
		Sections: sections,
		Media:    repos.NewMediaRepo(db, log),
		Policies: repos.NewSharePolicyRepo(db, log),
		Funding:  repos.NewFundingRepo(db, log),
		Pledges:  repos.NewPledgeRepo(db, log),
	})
	return agg, sections
}

func textSection(t *testing.T, key, text string) *pitch.Section {
	t.Helper()
	raw, err := pitch.EncodePayload(pitch.TextPayload{Text: text})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return &pitch.Section{SectionKey: key, Kind: pitch.KindText, Payload: raw}
}

func TestDocumentAggregateSaveReplacesSections(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	hooks := &aggtestutil.HooksRecorder{}
	agg, sections := newDocumentAggregate(t, db, aggregates.BaseDeps{Hooks: hooks})
	owner := uuid.New()
	p := testutil.SeedPitch(t, ctx, db, owner, "Orbit")

	res, err := agg.Save(ctx, pitch.SaveInput{
		PitchID:  p.ID,
		OwnerID:  owner,
		Fields:   testutil.Fields("Orbit"),
		Sections: []*pitch.Section{textSection(t, "vision", "We go up"), textSection(t, "synopsis", "Long")},
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if res.Version != 2 || len(res.Sections) != 2 {
		t.Fatalf("Save: unexpected result %+v", res)
	}

	res, err = agg.Save(ctx, pitch.SaveInput{
		PitchID:  p.ID,
		OwnerID:  owner,
		Fields:   testutil.Fields("Orbit"),
		Sections: []*pitch.Section{textSection(t, "synopsis", "Shorter")},
	})
	if err != nil {
		t.Fatalf("second Save: %v", err)
	}
	stored, err := sections.ListByPitch(dbctx.Context{Ctx: ctx}, p.ID)
	if err != nil {
		t.Fatalf("ListByPitch: %v", err)
	}
	if len(stored) != 1 || stored[0].SectionKey != "synopsis" || stored[0].OrderIndex != 0 {
		t.Fatalf("sections not replaced: %+v", stored)
	}
	if res.Version != 3 {
		t.Fatalf("version = %d want 3", res.Version)
	}
	if hooks.Statuses()["Pitch.Document.Save"] != "success" {
		t.Fatalf("hooks not observed: %+v", hooks.Operations)
	}
}

func TestDocumentAggregateSaveRollsBack(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	owner := uuid.New()
	p := testutil.SeedPitch(t, ctx, db, owner, "Orbit")

	agg, sections := newDocumentAggregate(t, db, aggregates.BaseDeps{})
	if _, err := agg.Save(ctx, pitch.SaveInput{
		PitchID: p.ID, OwnerID: owner, Fields: testutil.Fields("Orbit"),
		Sections: []*pitch.Section{textSection(t, "vision", "We go up")},
	}); err != nil {
		t.Fatalf("seed Save: %v", err)
	}

	t.Run("duplicate key insert failure", func(t *testing.T) {
		_, err := agg.Save(ctx, pitch.SaveInput{
			PitchID: p.ID, OwnerID: owner, Fields: testutil.Fields("Renamed"),
			Sections: []*pitch.Section{textSection(t, "world", "a"), textSection(t, "world", "b")},
		})
		if !domainagg.IsCode(err, domainagg.CodeConflict) {
			t.Fatalf("expected conflict, got %v", err)
		}
	})

	t.Run("commit failure", func(t *testing.T) {
		runner := &aggtestutil.InjectedTxRunner{Inner: aggregates.NewGormTxRunner(db), FailCommit: errors.New("disk full")}
		failing, _ := newDocumentAggregate(t, db, aggregates.BaseDeps{Runner: runner})
		_, err := failing.Save(ctx, pitch.SaveInput{
			PitchID: p.ID, OwnerID: owner, Fields: testutil.Fields("Renamed"),
			Sections: []*pitch.Section{textSection(t, "world", "a")},
		})
		if !domainagg.IsCode(err, domainagg.CodeDependency) {
			t.Fatalf("expected dependency error, got %v", err)
		}
		if runner.RollbackCalls != 1 {
			t.Fatalf("expected rollback, counters %+v", runner)
		}
	})

	stored, _ := sections.ListByPitch(dbctx.Context{Ctx: ctx}, p.ID)
	if len(stored) != 1 || stored[0].SectionKey != "vision" {
		t.Fatalf("failed saves changed sections: %+v", stored)
	}
	var after pitch.Pitch
	if err := db.First(&after, "id = ?", p.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if after.Title != "Orbit" || after.CurrentVersion != 2 {
		t.Fatalf("failed saves changed the pitch row: title=%q version=%d", after.Title, after.CurrentVersion)
	}
}

func TestDocumentAggregateSaveRejectsForeignOwner(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	agg, _ := newDocumentAggregate(t, db, aggregates.BaseDeps{})
	p := testutil.SeedPitch(t, ctx, db, uuid.New(), "Orbit")
	_, err := agg.Save(ctx, pitch.SaveInput{PitchID: p.ID, OwnerID: uuid.New(), Fields: testutil.Fields("x")})
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDocumentAggregatePurge(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	agg, sections := newDocumentAggregate(t, db, aggregates.BaseDeps{})
	owner := uuid.New()
	p := testutil.SeedPitch(t, ctx, db, owner, "Orbit")
	testutil.SeedMedia(t, ctx, db, p.ID, "characters", "pitches/x/y/z.png")
	testutil.SeedPolicy(t, ctx, db, p.ID, pitch.VisibilityPublic, false)
	if _, err := agg.Save(ctx, pitch.SaveInput{
		PitchID: p.ID, OwnerID: owner, Fields: testutil.Fields("Orbit"),
		Sections: []*pitch.Section{textSection(t, "vision", "We go up")},
	}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := db.Delete(&pitch.Pitch{}, "id = ?", p.ID).Error; err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	if err := agg.Purge(ctx, p.ID); err != nil {
		t.Fatalf("Purge: %v", err)
	}
	if left, _ := sections.ListByPitch(dbctx.Context{Ctx: ctx}, p.ID); len(left) != 0 {
		t.Fatalf("sections survived purge")
	}
	for _, model := range []any{&pitch.Media{}, &pitch.SharePolicy{}} {
		var n int64
		db.Model(model).Where("pitch_id = ?", p.ID).Count(&n)
		if n != 0 {
			t.Fatalf("%T rows survived purge: %d", model, n)
		}
	}
	var n int64
	db.Unscoped().Model(&pitch.Pitch{}).Where("id = ?", p.ID).Count(&n)
	if n != 0 {
		t.Fatalf("pitch row survived purge")
	}
	if err := agg.Purge(ctx, p.ID); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("second purge should be not found, got %v", err)
	}
}

func encodedSection(t *testing.T, key string, p pitch.Payload) *pitch.Section {
	t.Helper()
	raw, err := pitch.EncodePayload(p)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return &pitch.Section{SectionKey: key, Kind: p.Kind(), Payload: raw}
}

func TestDocumentAggregateDetachMedia(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	agg, sections := newDocumentAggregate(t, db, aggregates.BaseDeps{})
	owner := uuid.New()
	p := testutil.SeedPitch(t, ctx, db, owner, "Orbit")
	gone := testutil.SeedMedia(t, ctx, db, p.ID, "gallery", "pitches/o/1.png")
	keep := testutil.SeedMedia(t, ctx, db, p.ID, "gallery", "pitches/o/2.png")

	if _, err := agg.Save(ctx, pitch.SaveInput{
		PitchID: p.ID, OwnerID: owner, Fields: testutil.Fields("Orbit"),
		Sections: []*pitch.Section{
			encodedSection(t, "pitch_deck", pitch.DocumentPayload{MediaIDs: []uuid.UUID{gone.ID}}),
			textSection(t, "vision", "We go up"),
			encodedSection(t, "gallery", pitch.GalleryPayload{MediaIDs: []uuid.UUID{gone.ID, keep.ID}}),
		},
	}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	res, err := agg.DetachMedia(ctx, pitch.DetachMediaInput{PitchID: p.ID, MediaID: gone.ID})
	if err != nil {
		t.Fatalf("DetachMedia: %v", err)
	}
	if res.Rewritten != 1 || res.Dropped != 1 {
		t.Fatalf("unexpected result %+v", res)
	}

	stored, err := sections.ListByPitch(dbctx.Context{Ctx: ctx}, p.ID)
	if err != nil {
		t.Fatalf("ListByPitch: %v", err)
	}
	if len(stored) != 2 || stored[0].SectionKey != "vision" || stored[1].SectionKey != "gallery" {
		t.Fatalf("unexpected sections %+v", stored)
	}
	for i, row := range stored {
		if row.OrderIndex != i {
			t.Fatalf("section %s order %d, want %d", row.SectionKey, row.OrderIndex, i)
		}
		payload, err := row.Decode()
		if err != nil {
			t.Fatalf("decode %s: %v", row.SectionKey, err)
		}
		for _, id := range payload.MediaRefs() {
			if id == gone.ID {
				t.Fatalf("section %s still references deleted media", row.SectionKey)
			}
		}
	}
	var n int64
	db.Model(&pitch.Media{}).Where("id = ?", gone.ID).Count(&n)
	if n != 0 {
		t.Fatalf("media row survived detach")
	}

	_, err = agg.DetachMedia(ctx, pitch.DetachMediaInput{PitchID: p.ID, MediaID: gone.ID})
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("second detach should be not found, got %v", err)
	}
	other := testutil.SeedPitch(t, ctx, db, owner, "Other")
	_, err = agg.DetachMedia(ctx, pitch.DetachMediaInput{PitchID: other.ID, MediaID: keep.ID})
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("detach under another pitch should be not found, got %v", err)
	}
}

func TestDisclosureAggregate(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	log := testutil.Logger(t)
	hooks := &aggtestutil.HooksRecorder{}
	agg := aggregates.NewDisclosureAggregate(aggregates.DisclosureAggregateDeps{
		Base:     aggregates.BaseDeps{DB: db, Log: log, Hooks: hooks},
		Policies: repos.NewSharePolicyRepo(db, log),
	})
	p := testutil.SeedPitch(t, ctx, db, uuid.New(), "Orbit")

	if _, err := agg.Revoke(ctx, p.ID, time.Time{}); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("revoke without policy: %v", err)
	}
	hash := "hash"
	if _, err := agg.Create(ctx, pitch.CreatePolicyInput{PitchID: p.ID, Visibility: pitch.VisibilityPrivate, PasswordHash: &hash}); !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("private+password should be validation, got %v", err)
	}

	first, err := agg.Create(ctx, pitch.CreatePolicyInput{PitchID: p.ID, Visibility: pitch.VisibilityPrivate})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := agg.Create(ctx, pitch.CreatePolicyInput{PitchID: p.ID, Visibility: pitch.VisibilityPublic}); !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("second Create should conflict, got %v", err)
	}
	if len(hooks.Conflicts) != 1 {
		t.Fatalf("conflict not recorded: %+v", hooks.Conflicts)
	}

	revoked, err := agg.Revoke(ctx, p.ID, time.Time{})
	if err != nil || revoked.ID != first.ID || revoked.RevokedAt == nil {
		t.Fatalf("Revoke: %+v %v", revoked, err)
	}
	second, err := agg.Create(ctx, pitch.CreatePolicyInput{PitchID: p.ID, Visibility: pitch.VisibilityPublic})
	if err != nil {
		t.Fatalf("Create after revoke: %v", err)
	}

	var old pitch.SharePolicy
	if err := db.First(&old, "id = ?", first.ID).Error; err != nil {
		t.Fatalf("old policy row missing: %v", err)
	}
	if old.RevokedAt == nil {
		t.Fatalf("old policy lost its revocation timestamp")
	}
	if second.ID == first.ID {
		t.Fatalf("expected a new policy row")
	}
}
