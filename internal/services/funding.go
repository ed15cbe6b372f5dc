package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	dataagg "github.com/yungbote/pitchroom-backend/internal/data/aggregates"
	"github.com/yungbote/pitchroom-backend/internal/data/repos"
	types "github.com/yungbote/pitchroom-backend/internal/domain"
	domainagg "github.com/yungbote/pitchroom-backend/internal/domain/aggregates"
	"github.com/yungbote/pitchroom-backend/internal/domain/pitch"
	"github.com/yungbote/pitchroom-backend/internal/platform/dbctx"
	"github.com/yungbote/pitchroom-backend/internal/platform/logger"
)

type FundingInput struct {
	GoalCents int64      `json:"goal_cents"`
	PitchText string     `json:"pitch_text"`
	EndsAt    *time.Time `json:"ends_at,omitempty"`
}

func (in FundingInput) validate(op string) (FundingInput, error) {
	in.PitchText = strings.TrimSpace(in.PitchText)
	if in.GoalCents <= 0 {
		return in, domainagg.Validation(op, "goal_cents must be positive")
	}
	if len(in.PitchText) > 20000 {
		return in, domainagg.Validation(op, "pitch_text is too long")
	}
	if in.EndsAt != nil {
		t := in.EndsAt.UTC()
		in.EndsAt = &t
	}
	return in, nil
}

// PledgeInput is the payment collaborator's confirmation of a verified pledge.
type PledgeInput struct {
	PitchID     uuid.UUID  `json:"pitch_id"`
	AmountCents int64      `json:"amount_cents"`
	ProviderRef string     `json:"provider_ref"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
}

type FundingLedger interface {
	Enable(ctx context.Context, ownerID, pitchID uuid.UUID, in FundingInput) (*types.FundingRecord, error)
	Update(ctx context.Context, ownerID, pitchID uuid.UUID, in FundingInput) (*types.FundingRecord, error)
	Summary(ctx context.Context, d Decision) (*pitch.FundingSummary, error)
	// RecordPledge is idempotent on ProviderRef; created is false for a replay.
	RecordPledge(ctx context.Context, in PledgeInput) (p *types.Pledge, created bool, err error)
}

type fundingLedger struct {
	log     *logger.Logger
	pitches repos.PitchRepo
	funding repos.FundingRepo
	pledges repos.PledgeRepo
	now     func() time.Time
}

func NewFundingLedger(baseLog *logger.Logger, pitches repos.PitchRepo, funding repos.FundingRepo, pledges repos.PledgeRepo) FundingLedger {
	return &fundingLedger{
		log:     baseLog.With("service", "FundingLedger"),
		pitches: pitches,
		funding: funding,
		pledges: pledges,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *fundingLedger) ownedPitch(ctx context.Context, op string, ownerID, pitchID uuid.UUID) error {
	if ownerID == uuid.Nil || pitchID == uuid.Nil {
		return domainagg.NotFound(op, "pitch")
	}
	p, err := s.pitches.GetByID(dbctx.Context{Ctx: ctx}, pitchID, false)
	if err != nil {
		return dataagg.MapError(op, err)
	}
	if p == nil || p.OwnerID != ownerID {
		return domainagg.NotFound(op, "pitch")
	}
	return nil
}

func (s *fundingLedger) Enable(ctx context.Context, ownerID, pitchID uuid.UUID, in FundingInput) (*types.FundingRecord, error) {
	const op = "funding.enable"
	in, err := in.validate(op)
	if err != nil {
		return nil, err
	}
	if err := s.ownedPitch(ctx, op, ownerID, pitchID); err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	existing, err := s.funding.GetByPitch(dbc, pitchID)
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	if existing != nil {
		return nil, domainagg.Conflict(op, "funding is already enabled for this pitch")
	}
	rec, err := s.funding.Create(dbc, &types.FundingRecord{
		PitchID:   pitchID,
		GoalCents: in.GoalCents,
		PitchText: in.PitchText,
		EndsAt:    in.EndsAt,
	})
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	s.log.Info("Funding enabled", "pitch_id", pitchID, "goal_cents", in.GoalCents)
	return rec, nil
}

func (s *fundingLedger) Update(ctx context.Context, ownerID, pitchID uuid.UUID, in FundingInput) (*types.FundingRecord, error) {
	const op = "funding.update"
	in, err := in.validate(op)
	if err != nil {
		return nil, err
	}
	if err := s.ownedPitch(ctx, op, ownerID, pitchID); err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	ok, err := s.funding.Update(dbc, pitchID, in.GoalCents, in.PitchText, in.EndsAt)
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	if !ok {
		return nil, domainagg.NotFound(op, "funding record")
	}
	rec, err := s.funding.GetByPitch(dbc, pitchID)
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	return rec, nil
}

func (s *fundingLedger) Summary(ctx context.Context, d Decision) (*pitch.FundingSummary, error) {
	const op = "funding.summary"
	if !d.Allowed || d.PitchID == uuid.Nil {
		return nil, domainagg.NotFound(op, "funding record")
	}
	dbc := dbctx.Context{Ctx: ctx}
	rec, err := s.funding.GetByPitch(dbc, d.PitchID)
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	if rec == nil {
		return nil, domainagg.NotFound(op, "funding record")
	}
	raised, count, err := s.pledges.Totals(dbc, d.PitchID)
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	return &pitch.FundingSummary{
		PitchID:     rec.PitchID,
		GoalCents:   rec.GoalCents,
		PitchText:   rec.PitchText,
		EndsAt:      rec.EndsAt,
		RaisedCents: raised,
		PledgeCount: count,
	}, nil
}

func (s *fundingLedger) RecordPledge(ctx context.Context, in PledgeInput) (*types.Pledge, bool, error) {
	const op = "funding.record_pledge"
	ref := strings.TrimSpace(in.ProviderRef)
	if ref == "" {
		return nil, false, domainagg.Validation(op, "provider_ref is required")
	}
	if in.AmountCents <= 0 {
		return nil, false, domainagg.Validation(op, "amount_cents must be positive")
	}
	if in.PitchID == uuid.Nil {
		return nil, false, domainagg.Validation(op, "pitch_id is required")
	}
	dbc := dbctx.Context{Ctx: ctx}

	if existing, err := s.replay(dbc, op, in.PitchID, ref); existing != nil || err != nil {
		return existing, false, err
	}
	rec, err := s.funding.GetByPitch(dbc, in.PitchID)
	if err != nil {
		return nil, false, dataagg.MapError(op, err)
	}
	if rec == nil {
		return nil, false, domainagg.NotFound(op, "funding record")
	}

	confirmed := s.now()
	if in.ConfirmedAt != nil {
		confirmed = in.ConfirmedAt.UTC()
	}
	created, err := s.pledges.Create(dbc, &types.Pledge{
		PitchID:     in.PitchID,
		AmountCents: in.AmountCents,
		ProviderRef: ref,
		ConfirmedAt: confirmed,
	})
	if err != nil {
		mapped := dataagg.MapError(op, err)
		if domainagg.IsCode(mapped, domainagg.CodeConflict) {
			// A concurrent delivery of the same confirmation won the insert.
			if existing, rerr := s.replay(dbc, op, in.PitchID, ref); existing != nil || rerr != nil {
				return existing, false, rerr
			}
		}
		return nil, false, mapped
	}
	s.log.Info("Pledge recorded", "pitch_id", in.PitchID, "pledge_id", created.ID, "amount_cents", in.AmountCents)
	return created, true, nil
}

func (s *fundingLedger) replay(dbc dbctx.Context, op string, pitchID uuid.UUID, ref string) (*types.Pledge, error) {
	existing, err := s.pledges.GetByProviderRef(dbc, ref)
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}
	if existing == nil {
		return nil, nil
	}
	if existing.PitchID != pitchID {
		return nil, domainagg.Conflict(op, "provider_ref already recorded for another pitch")
	}
	return existing, nil
}
