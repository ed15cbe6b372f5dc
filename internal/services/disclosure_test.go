package services

import (
	"fmt"
	"testing"

	"github.com/google/uuid"

	domainagg "github.com/yungbote/pitchroom-backend/internal/domain/aggregates"
	"github.com/yungbote/pitchroom-backend/internal/domain/pitch"
	"github.com/yungbote/pitchroom-backend/internal/platform/ctxutil"
	"github.com/yungbote/pitchroom-backend/internal/platform/dbctx"
)

func TestAuthorizeIsTotal(t *testing.T) {
	h := newHarness(t)
	owner := uuid.New()
	const secret = "rosebud"

	type fixture struct {
		name    string
		pitchID uuid.UUID
		setup   func(pitchID uuid.UUID)
	}
	mk := func(name string, setup func(pitchID uuid.UUID)) fixture {
		p := h.newPitch(t, owner, name)
		if setup != nil {
			setup(p.ID)
		}
		return fixture{name: name, pitchID: p.ID}
	}
	create := func(vis pitch.Visibility, pw *string) func(uuid.UUID) {
		return func(id uuid.UUID) {
			if _, err := h.disclosure.CreatePolicy(t.Context(), owner, id, vis, pw); err != nil {
				t.Fatalf("create policy: %v", err)
			}
		}
	}
	fixtures := []fixture{
		{name: "missing", pitchID: uuid.New()},
		mk("no_policy", nil),
		mk("revoked", func(id uuid.UUID) {
			create(pitch.VisibilityPublic, nil)(id)
			if _, err := h.disclosure.Revoke(t.Context(), owner, id); err != nil {
				t.Fatalf("revoke: %v", err)
			}
		}),
		mk("private", create(pitch.VisibilityPrivate, nil)),
		mk("public", create(pitch.VisibilityPublic, nil)),
		mk("protected", create(pitch.VisibilityPublic, strPtr(secret))),
	}
	viewers := map[string]ctxutil.Viewer{
		"anonymous": {},
		"stranger":  {UserID: uuid.New()},
		"owner":     {UserID: owner},
	}
	passwords := map[string]*string{"none": nil, "wrong": strPtr("nope"), "right": strPtr(secret)}

	expect := func(f, viewer, pw string) (bool, DenyReason) {
		switch f {
		case "missing", "no_policy", "revoked":
			return false, ReasonNotFound
		case "private":
			if viewer == "owner" {
				return true, ReasonNone
			}
			return false, ReasonPrivate
		case "public":
			return true, ReasonNone
		default:
			if pw == "right" {
				return true, ReasonNone
			}
			return false, ReasonPasswordRequired
		}
	}

	for _, f := range fixtures {
		for vName, v := range viewers {
			for pwName, pw := range passwords {
				t.Run(fmt.Sprintf("%s/%s/%s", f.name, vName, pwName), func(t *testing.T) {
					d, err := h.disclosure.Authorize(t.Context(), v, AuthorizeRequest{PitchID: f.pitchID, Password: pw})
					if err != nil {
						t.Fatalf("authorize: %v", err)
					}
					allowed, reason := expect(f.name, vName, pwName)
					if d.Allowed != allowed || d.Reason != reason {
						t.Fatalf("got allowed=%v reason=%q, want allowed=%v reason=%q", d.Allowed, d.Reason, allowed, reason)
					}
					if d.Allowed && d.PitchID != f.pitchID {
						t.Fatalf("decision names pitch %s", d.PitchID)
					}
				})
			}
		}
	}
}

func TestAuthorizePasswordScenario(t *testing.T) {
	h := newHarness(t)
	owner := uuid.New()
	p := h.newPitch(t, owner, "Orbit")
	policy, err := h.disclosure.CreatePolicy(t.Context(), owner, p.ID, pitch.VisibilityPublic, strPtr("correct horse"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if policy.PasswordHash == nil || *policy.PasswordHash == "correct horse" {
		t.Fatalf("password was not hashed")
	}
	viewer := ctxutil.Viewer{UserID: uuid.New()}

	d, _ := h.disclosure.Authorize(t.Context(), viewer, AuthorizeRequest{PitchID: p.ID, Password: strPtr("wrong")})
	if d.Allowed || d.Reason != ReasonPasswordRequired || d.Grant != "" {
		t.Fatalf("wrong password: %+v", d)
	}
	d, _ = h.disclosure.Authorize(t.Context(), viewer, AuthorizeRequest{PitchID: p.ID})
	if d.Allowed {
		t.Fatalf("missing password allowed")
	}
	d, _ = h.disclosure.Authorize(t.Context(), viewer, AuthorizeRequest{PitchID: p.ID, Password: strPtr("correct horse")})
	if !d.Allowed || d.Grant == "" || d.GrantExpiresAt == nil {
		t.Fatalf("right password: %+v", d)
	}

	// The grant unlocks without the password until the policy changes.
	again, _ := h.disclosure.Authorize(t.Context(), ctxutil.Viewer{}, AuthorizeRequest{PitchID: p.ID, Grant: d.Grant})
	if !again.Allowed || again.Grant != "" {
		t.Fatalf("grant reuse: %+v", again)
	}
	if _, err := h.disclosure.Revoke(t.Context(), owner, p.ID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := h.disclosure.CreatePolicy(t.Context(), owner, p.ID, pitch.VisibilityPublic, strPtr("new secret")); err != nil {
		t.Fatalf("recreate: %v", err)
	}
	stale, _ := h.disclosure.Authorize(t.Context(), ctxutil.Viewer{}, AuthorizeRequest{PitchID: p.ID, Grant: d.Grant})
	if stale.Allowed || stale.Reason != ReasonPasswordRequired {
		t.Fatalf("stale grant after recreate: %+v", stale)
	}
}

func TestRevokeThenRecreate(t *testing.T) {
	h := newHarness(t)
	owner := uuid.New()
	p := h.newPitch(t, owner, "Orbit")

	first, err := h.disclosure.CreatePolicy(t.Context(), owner, p.ID, pitch.VisibilityPublic, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := h.disclosure.CreatePolicy(t.Context(), owner, p.ID, pitch.VisibilityPrivate, nil); !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("second active policy: %v", err)
	}
	if _, err := h.disclosure.Revoke(t.Context(), owner, p.ID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	state, err := h.disclosure.State(t.Context(), owner, p.ID)
	if err != nil || state != pitch.StateRevoked {
		t.Fatalf("state after revoke: %q %v", state, err)
	}
	second, err := h.disclosure.CreatePolicy(t.Context(), owner, p.ID, pitch.VisibilityPublic, nil)
	if err != nil {
		t.Fatalf("recreate: %v", err)
	}
	if second.ID == first.ID {
		t.Fatalf("recreate reused the policy row")
	}

	history, err := h.disclosure.History(t.Context(), owner, p.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history rows: %d", len(history))
	}
	var old *pitch.SharePolicy
	for _, row := range history {
		if row.ID == first.ID {
			old = row
		}
	}
	if old == nil || old.RevokedAt == nil {
		t.Fatalf("old policy missing or not revoked: %+v", old)
	}
	active, err := h.policies.GetActive(dbctx.Context{Ctx: t.Context()}, p.ID)
	if err != nil || active == nil || active.ID != second.ID {
		t.Fatalf("active policy: %+v %v", active, err)
	}
}

func TestCreatePolicyValidation(t *testing.T) {
	h := newHarness(t)
	owner := uuid.New()
	p := h.newPitch(t, owner, "Orbit")

	cases := []struct {
		name string
		vis  pitch.Visibility
		pw   *string
		code domainagg.ErrorCode
	}{
		{"unknown visibility", "friends", nil, domainagg.CodeValidation},
		{"private with password", pitch.VisibilityPrivate, strPtr("secret"), domainagg.CodeValidation},
		{"short password", pitch.VisibilityPublic, strPtr("abc"), domainagg.CodeValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := h.disclosure.CreatePolicy(t.Context(), owner, p.ID, tc.vis, tc.pw); !domainagg.IsCode(err, tc.code) {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
		})
	}
	if _, err := h.disclosure.CreatePolicy(t.Context(), uuid.New(), p.ID, pitch.VisibilityPublic, nil); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("foreign owner: %v", err)
	}
}

func TestAuthorizeOwner(t *testing.T) {
	h := newHarness(t)
	owner := uuid.New()
	p := h.newPitch(t, owner, "Orbit")

	d, err := h.disclosure.AuthorizeOwner(t.Context(), ctxutil.Viewer{UserID: owner}, p.ID)
	if err != nil || !d.Allowed || !d.Owner {
		t.Fatalf("owner: %+v %v", d, err)
	}
	d, err = h.disclosure.AuthorizeOwner(t.Context(), ctxutil.Viewer{UserID: uuid.New()}, p.ID)
	if err != nil || d.Allowed || d.Reason != ReasonNotFound {
		t.Fatalf("stranger: %+v %v", d, err)
	}
	d, _ = h.disclosure.AuthorizeOwner(t.Context(), ctxutil.Viewer{}, p.ID)
	if d.Allowed {
		t.Fatalf("anonymous allowed")
	}
}
