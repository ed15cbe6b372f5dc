package services

import (
	"testing"

	"github.com/google/uuid"

	domainagg "github.com/yungbote/pitchroom-backend/internal/domain/aggregates"
	"github.com/yungbote/pitchroom-backend/internal/platform/ctxutil"
)

func TestFundingLedger(t *testing.T) {
	h := newHarness(t)
	owner := uuid.New()
	p := h.newPitch(t, owner, "Orbit")
	other := h.newPitch(t, owner, "Other")

	if _, err := h.ledger.Update(t.Context(), owner, p.ID, FundingInput{GoalCents: 100}); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("update before enable: %v", err)
	}
	if _, err := h.ledger.Enable(t.Context(), owner, p.ID, FundingInput{GoalCents: 0}); !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("zero goal: %v", err)
	}
	if _, err := h.ledger.Enable(t.Context(), uuid.New(), p.ID, FundingInput{GoalCents: 100}); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("foreign enable: %v", err)
	}
	if _, err := h.ledger.Enable(t.Context(), owner, p.ID, FundingInput{GoalCents: 500000, PitchText: " Help us launch. "}); err != nil {
		t.Fatalf("enable: %v", err)
	}
	if _, err := h.ledger.Enable(t.Context(), owner, p.ID, FundingInput{GoalCents: 100}); !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("second enable: %v", err)
	}
	rec, err := h.ledger.Update(t.Context(), owner, p.ID, FundingInput{GoalCents: 750000, PitchText: "Help us land."})
	if err != nil || rec.GoalCents != 750000 || rec.PitchText != "Help us land." {
		t.Fatalf("update: %+v %v", rec, err)
	}

	if _, _, err := h.ledger.RecordPledge(t.Context(), PledgeInput{PitchID: other.ID, AmountCents: 100, ProviderRef: "ch_x"}); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("pledge without funding: %v", err)
	}
	first, created, err := h.ledger.RecordPledge(t.Context(), PledgeInput{PitchID: p.ID, AmountCents: 2500, ProviderRef: "ch_1"})
	if err != nil || !created {
		t.Fatalf("pledge: %v created=%v", err, created)
	}
	replay, created, err := h.ledger.RecordPledge(t.Context(), PledgeInput{PitchID: p.ID, AmountCents: 2500, ProviderRef: "ch_1"})
	if err != nil || created || replay.ID != first.ID {
		t.Fatalf("replay: %+v created=%v %v", replay, created, err)
	}
	if _, _, err := h.ledger.RecordPledge(t.Context(), PledgeInput{PitchID: other.ID, AmountCents: 2500, ProviderRef: "ch_1"}); !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("ref reused across pitches: %v", err)
	}
	if _, _, err := h.ledger.RecordPledge(t.Context(), PledgeInput{PitchID: p.ID, AmountCents: 1000, ProviderRef: "ch_2"}); err != nil {
		t.Fatalf("second pledge: %v", err)
	}
	if _, _, err := h.ledger.RecordPledge(t.Context(), PledgeInput{PitchID: p.ID, AmountCents: -5, ProviderRef: "ch_3"}); !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("negative pledge: %v", err)
	}

	d, _ := h.disclosure.AuthorizeOwner(t.Context(), ctxutil.Viewer{UserID: owner}, p.ID)
	sum, err := h.ledger.Summary(t.Context(), d)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.RaisedCents != 3500 || sum.PledgeCount != 2 || sum.GoalCents != 750000 {
		t.Fatalf("summary: %+v", sum)
	}
	if _, err := h.ledger.Summary(t.Context(), Decision{PitchID: p.ID, Reason: ReasonPrivate}); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("denied summary: %v", err)
	}
}
