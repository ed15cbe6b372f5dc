package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	dataagg "github.com/yungbote/pitchroom-backend/internal/data/aggregates"
	"github.com/yungbote/pitchroom-backend/internal/data/repos"
	"github.com/yungbote/pitchroom-backend/internal/data/repos/testutil"
	types "github.com/yungbote/pitchroom-backend/internal/domain"
	"github.com/yungbote/pitchroom-backend/internal/domain/pitch"
	"github.com/yungbote/pitchroom-backend/internal/platform/dbctx"
	"github.com/yungbote/pitchroom-backend/internal/platform/grantstore"
	"github.com/yungbote/pitchroom-backend/internal/platform/localstore"
	"github.com/yungbote/pitchroom-backend/internal/platform/objectstore"
)

var (
	pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01")
	pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n")
)

type harness struct {
	db     *gorm.DB
	local  *localstore.Store
	store  *objectstore.Faulty
	grants *grantstore.Memory
	clock  time.Time

	pitches  repos.PitchRepo
	sections repos.SectionRepo
	media    repos.MediaRepo
	policies repos.SharePolicyRepo
	funding  repos.FundingRepo
	pledges  repos.PledgeRepo

	composer   DocumentComposer
	disclosure DisclosureService
	uploads    MediaService
	assets     AssetIssuer
	ledger     FundingLedger
	lifecycle  Lifecycle
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	h := &harness{db: db, clock: time.Now().UTC().Truncate(time.Second)}

	local, err := localstore.New(localstore.Config{
		Root:       t.TempDir(),
		SigningKey: []byte("test-signing-key-0123456789"),
	}, log, localstore.WithClock(func() time.Time { return h.clock }))
	if err != nil {
		t.Fatalf("localstore: %v", err)
	}
	h.local = local
	h.store = objectstore.NewFaulty(local)
	h.grants = grantstore.NewMemory(time.Hour)

	h.pitches = repos.NewPitchRepo(db, log)
	h.sections = repos.NewSectionRepo(db, log)
	h.media = repos.NewMediaRepo(db, log)
	h.policies = repos.NewSharePolicyRepo(db, log)
	h.funding = repos.NewFundingRepo(db, log)
	h.pledges = repos.NewPledgeRepo(db, log)

	base := dataagg.BaseDeps{DB: db, Log: log}
	document := dataagg.NewDocumentAggregate(dataagg.DocumentAggregateDeps{
		Base:     base,
		Pitches:  h.pitches,
		Sections: h.sections,
		Media:    h.media,
		Policies: h.policies,
		Funding:  h.funding,
		Pledges:  h.pledges,
	})
	disclosure := dataagg.NewDisclosureAggregate(dataagg.DisclosureAggregateDeps{Base: base, Policies: h.policies})

	h.composer = NewDocumentComposer(log, ComposerConfig{}, h.pitches, h.sections, h.media, document)
	h.disclosure = NewDisclosureService(log, DisclosureConfig{GrantTTL: time.Hour, BcryptCost: bcrypt.MinCost},
		h.pitches, h.policies, disclosure, h.grants)
	h.uploads = NewMediaService(log, MediaConfig{MaxUploadBytes: 1 << 20, Concurrency: 3}, nil, h.pitches, h.media, document, h.store)
	h.assets = NewAssetIssuer(log, h.media, h.sections, h.store, "local")
	h.ledger = NewFundingLedger(log, h.pitches, h.funding, h.pledges)
	h.lifecycle = NewLifecycle(log, h.pitches, h.media, h.local, document)
	return h
}

func (h *harness) newPitch(t *testing.T, ownerID uuid.UUID, title string) *types.Pitch {
	t.Helper()
	p, err := h.composer.Create(t.Context(), ownerID, testutil.Fields(title))
	if err != nil {
		t.Fatalf("create pitch: %v", err)
	}
	return p
}

func (h *harness) mediaCount(t *testing.T, pitchID uuid.UUID) int {
	t.Helper()
	rows, err := h.media.ListByPitch(dbctx.Context{Ctx: t.Context()}, pitchID)
	if err != nil {
		t.Fatalf("list media: %v", err)
	}
	return len(rows)
}

func strPtr(s string) *string { return &s }

func textSection(key, text string) pitch.SectionState {
	return pitch.SectionState{Key: key, Enabled: true, Payload: pitch.TextPayload{Text: text}}
}
