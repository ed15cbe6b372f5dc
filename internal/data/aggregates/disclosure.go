package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/pitchroom-backend/internal/data/repos"
	domainagg "github.com/yungbote/pitchroom-backend/internal/domain/aggregates"
	"github.com/yungbote/pitchroom-backend/internal/domain/pitch"
	"github.com/yungbote/pitchroom-backend/internal/platform/dbctx"
)

type DisclosureAggregateDeps struct {
	Base BaseDeps

	Policies repos.SharePolicyRepo
}

type disclosureAggregate struct {
	deps DisclosureAggregateDeps
}

func NewDisclosureAggregate(deps DisclosureAggregateDeps) pitch.DisclosureAggregate {
	deps.Base = deps.Base.withDefaults()
	return &disclosureAggregate{deps: deps}
}

func (a *disclosureAggregate) Contract() domainagg.Contract {
	return pitch.DisclosureAggregateContract
}

func (a *disclosureAggregate) Create(ctx context.Context, in pitch.CreatePolicyInput) (*pitch.SharePolicy, error) {
	const op = "Pitch.Disclosure.Create"
	if in.PitchID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing pitch_id", nil)
	}
	if !in.Visibility.Valid() {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "visibility must be private or public", nil)
	}
	if in.PasswordHash != nil && in.Visibility != pitch.VisibilityPublic {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "a password requires public visibility", nil)
	}
	if a.deps.Policies == nil {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "disclosure aggregate repos not configured", nil)
	}

	var out *pitch.SharePolicy
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		active, err := a.deps.Policies.GetActive(dbc, in.PitchID)
		if err != nil {
			return err
		}
		if active != nil {
			return ConflictError("pitch already has an active share policy")
		}
		created, err := a.deps.Policies.Create(dbc, &pitch.SharePolicy{
			PitchID:      in.PitchID,
			Visibility:   in.Visibility,
			PasswordHash: in.PasswordHash,
		})
		if err != nil {
			return err
		}
		out = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a *disclosureAggregate) Revoke(ctx context.Context, pitchID uuid.UUID, at time.Time) (*pitch.SharePolicy, error) {
	const op = "Pitch.Disclosure.Revoke"
	if pitchID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing pitch_id", nil)
	}
	if a.deps.Policies == nil {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "disclosure aggregate repos not configured", nil)
	}
	if at.IsZero() {
		at = a.deps.Base.Clock()
	}
	at = at.UTC()

	var out *pitch.SharePolicy
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		active, err := a.deps.Policies.GetActive(dbc, pitchID)
		if err != nil {
			return err
		}
		if active == nil {
			return domainagg.NotFound(op, "active share policy")
		}
		table := active.TableName()
		if !a.Contract().Owns(table) {
			return domainagg.NewError(domainagg.CodeInternal, op, "table "+table+" is outside the disclosure aggregate", nil)
		}
		ok, err := a.deps.Base.Guard.UpdateWhere(dbc, table, active.ID, "revoked_at IS NULL", map[string]any{
			"revoked_at": at,
		})
		if err != nil {
			return err
		}
		if err := RequireGuardSuccess(ok, "share policy already revoked"); err != nil {
			return err
		}
		active.RevokedAt = &at
		out = active
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
