package services

import (
	"errors"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/pitchroom-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/pitchroom-backend/internal/domain/aggregates"
	"github.com/yungbote/pitchroom-backend/internal/domain/pitch"
	"github.com/yungbote/pitchroom-backend/internal/platform/ctxutil"
	"github.com/yungbote/pitchroom-backend/internal/platform/localstore"
)

func handleFromURL(t *testing.T, raw string) string {
	t.Helper()
	tok, err := url.PathUnescape(strings.TrimPrefix(raw, "/media/signed/"))
	if err != nil {
		t.Fatalf("unescape handle: %v", err)
	}
	return tok
}

// galleryOf saves the pitch with one world gallery pointing at ids.
func galleryOf(t *testing.T, h *harness, owner, pitchID uuid.UUID, ids ...uuid.UUID) {
	t.Helper()
	if _, err := h.composer.Save(t.Context(), owner, pitchID, SaveRequest{
		Fields: testutil.Fields("Orbit"),
		Sections: []pitch.SectionState{
			{Key: "world", Enabled: true, Payload: pitch.GalleryPayload{MediaIDs: ids}},
		},
	}); err != nil {
		t.Fatalf("save gallery: %v", err)
	}
}

func TestAssetURLHonoursTTLBoundary(t *testing.T) {
	h := newHarness(t)
	owner := uuid.New()
	p := h.newPitch(t, owner, "Orbit")
	m, err := h.uploads.Upload(t.Context(), owner, p.ID, "world", pngFile("a.png"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	galleryOf(t, h, owner, p.ID, m.ID)
	if _, err := h.disclosure.CreatePolicy(t.Context(), owner, p.ID, pitch.VisibilityPublic, nil); err != nil {
		t.Fatalf("policy: %v", err)
	}
	d, err := h.disclosure.Authorize(t.Context(), ctxutil.Viewer{}, AuthorizeRequest{PitchID: p.ID})
	if err != nil || !d.Allowed {
		t.Fatalf("authorize: %+v %v", d, err)
	}

	issuedAt := h.clock
	asset, err := h.assets.Issue(t.Context(), d, m.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if strings.Contains(asset.URL, m.StoragePath) {
		t.Fatalf("url exposes storage path: %q", asset.URL)
	}
	token := handleFromURL(t, asset.URL)

	h.clock = issuedAt.Add(3599 * time.Second)
	rc, _, err := h.local.Open(t.Context(), token)
	if err != nil {
		t.Fatalf("open at T+3599: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != string(pngBytes) {
		t.Fatalf("served bytes differ")
	}

	h.clock = issuedAt.Add(3601 * time.Second)
	if _, _, err := h.local.Open(t.Context(), token); !errors.Is(err, localstore.ErrExpiredHandle) {
		t.Fatalf("open at T+3601: %v", err)
	}
}

func TestAssetIssuanceRequiresMatchingDecision(t *testing.T) {
	h := newHarness(t)
	owner := uuid.New()
	p := h.newPitch(t, owner, "Orbit")
	other := h.newPitch(t, owner, "Other")
	m, err := h.uploads.Upload(t.Context(), owner, p.ID, "world", pngFile("a.png"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	denied := Decision{Allowed: false, Reason: ReasonPrivate, PitchID: p.ID}
	if _, err := h.assets.Issue(t.Context(), denied, m.ID); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("denied decision issued: %v", err)
	}
	wrongPitch, _ := h.disclosure.AuthorizeOwner(t.Context(), ctxutil.Viewer{UserID: owner}, other.ID)
	if _, err := h.assets.Issue(t.Context(), wrongPitch, m.ID); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("decision for another pitch issued: %v", err)
	}
	if _, err := h.assets.IssueBatch(t.Context(), wrongPitch, []*pitch.Media{m}); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("batch for another pitch issued: %v", err)
	}

	ownerDecision, _ := h.disclosure.AuthorizeOwner(t.Context(), ctxutil.Viewer{UserID: owner}, p.ID)
	if _, err := h.assets.Issue(t.Context(), ownerDecision, m.ID); err != nil {
		t.Fatalf("owner issue: %v", err)
	}
}

func TestAssetBatchIssuesOnePerMedia(t *testing.T) {
	h := newHarness(t)
	owner := uuid.New()
	p := h.newPitch(t, owner, "Orbit")
	for _, key := range []string{"world", "world", "script"} {
		f := pngFile("a.png")
		if key == "script" {
			f = UploadFile{Filename: "s.pdf", ContentType: "application/pdf", Body: strings.NewReader(string(pdfBytes))}
		}
		if _, err := h.uploads.Upload(t.Context(), owner, p.ID, key, f); err != nil {
			t.Fatalf("upload: %v", err)
		}
	}
	d, _ := h.disclosure.AuthorizeOwner(t.Context(), ctxutil.Viewer{UserID: owner}, p.ID)

	assets, err := h.assets.IssueForPitch(t.Context(), d)
	if err != nil {
		t.Fatalf("issue for pitch: %v", err)
	}
	if len(assets) != 3 {
		t.Fatalf("assets: %d", len(assets))
	}
	seen := map[string]bool{}
	for _, a := range assets {
		if seen[a.URL] {
			t.Fatalf("duplicate url")
		}
		seen[a.URL] = true
		if !a.ExpiresAt.After(time.Now().Add(59 * time.Minute)) {
			t.Fatalf("expiry too soon: %v", a.ExpiresAt)
		}
	}

	h.store.FailSignedGet(errors.New("signer down"))
	if _, err := h.assets.IssueForPitch(t.Context(), d); !domainagg.IsCode(err, domainagg.CodeDependency) {
		t.Fatalf("signer failure: %v", err)
	}
}

func TestShareDecisionOnlyReachesReferencedMedia(t *testing.T) {
	h := newHarness(t)
	owner := uuid.New()
	p := h.newPitch(t, owner, "Orbit")
	shown, err := h.uploads.Upload(t.Context(), owner, p.ID, "world", pngFile("a.png"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	draft, err := h.uploads.Upload(t.Context(), owner, p.ID, "world", pngFile("b.png"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	galleryOf(t, h, owner, p.ID, shown.ID)
	if _, err := h.disclosure.CreatePolicy(t.Context(), owner, p.ID, pitch.VisibilityPublic, nil); err != nil {
		t.Fatalf("policy: %v", err)
	}
	d, err := h.disclosure.Authorize(t.Context(), ctxutil.Viewer{}, AuthorizeRequest{PitchID: p.ID})
	if err != nil || !d.Allowed {
		t.Fatalf("authorize: %+v %v", d, err)
	}

	assets, err := h.assets.IssueForPitch(t.Context(), d)
	if err != nil {
		t.Fatalf("issue for pitch: %v", err)
	}
	if len(assets) != 1 || assets[0].MediaID != shown.ID {
		t.Fatalf("share assets: %+v", assets)
	}
	if _, err := h.assets.Issue(t.Context(), d, draft.ID); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("unreferenced draft issued to viewer: %v", err)
	}
	if _, err := h.assets.IssueBatch(t.Context(), d, []*pitch.Media{shown, draft}); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("batch with draft issued to viewer: %v", err)
	}

	ownerDecision, _ := h.disclosure.AuthorizeOwner(t.Context(), ctxutil.Viewer{UserID: owner}, p.ID)
	all, err := h.assets.IssueForPitch(t.Context(), ownerDecision)
	if err != nil || len(all) != 2 {
		t.Fatalf("owner assets: %d %v", len(all), err)
	}
}
