package aggregates

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/pitchroom-backend/internal/data/repos"
	domainagg "github.com/yungbote/pitchroom-backend/internal/domain/aggregates"
	"github.com/yungbote/pitchroom-backend/internal/domain/pitch"
	"github.com/yungbote/pitchroom-backend/internal/platform/dbctx"
)

type DocumentAggregateDeps struct {
	Base BaseDeps

	Pitches  repos.PitchRepo
	Sections repos.SectionRepo
	Media    repos.MediaRepo
	Policies repos.SharePolicyRepo
	Funding  repos.FundingRepo
	Pledges  repos.PledgeRepo
}

type documentAggregate struct {
	deps DocumentAggregateDeps
}

func NewDocumentAggregate(deps DocumentAggregateDeps) pitch.DocumentAggregate {
	deps.Base = deps.Base.withDefaults()
	return &documentAggregate{deps: deps}
}

func (a *documentAggregate) Contract() domainagg.Contract {
	return pitch.DocumentAggregateContract
}

func (a *documentAggregate) Save(ctx context.Context, in pitch.SaveInput) (pitch.SaveResult, error) {
	const op = "Pitch.Document.Save"
	var out pitch.SaveResult
	if in.PitchID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing pitch_id", nil)
	}
	if in.OwnerID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing owner_id", nil)
	}
	if a.deps.Pitches == nil || a.deps.Sections == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "document aggregate repos not configured", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		p, err := a.deps.Pitches.GetByID(dbc, in.PitchID, false)
		if err != nil {
			return err
		}
		if p == nil || p.OwnerID != in.OwnerID {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("pitch not found: %s", in.PitchID), nil)
		}

		version, err := a.deps.Pitches.UpdateFields(dbc, in.PitchID, in.Fields)
		if err != nil {
			return err
		}
		removed, err := a.deps.Sections.DeleteByPitch(dbc, in.PitchID)
		if err != nil {
			return err
		}

		rows := make([]*pitch.Section, 0, len(in.Sections))
		for i, s := range in.Sections {
			if s == nil {
				continue
			}
			row := *s
			row.ID = uuid.New()
			row.PitchID = in.PitchID
			row.OrderIndex = i
			rows = append(rows, &row)
		}
		created, err := a.deps.Sections.CreateMany(dbc, rows)
		if err != nil {
			return err
		}

		out = pitch.SaveResult{
			PitchID:  in.PitchID,
			Version:  version,
			Sections: created,
			SavedAt:  a.deps.Base.Clock(),
		}
		a.deps.Base.Log.Debug("Sections replaced",
			"pitch_id", in.PitchID,
			"removed", removed,
			"inserted", len(created),
			"version", version,
		)
		return nil
	})
	if err != nil {
		return pitch.SaveResult{}, err
	}
	return out, nil
}

func (a *documentAggregate) Purge(ctx context.Context, pitchID uuid.UUID) error {
	const op = "Pitch.Document.Purge"
	if pitchID == uuid.Nil {
		return domainagg.NewError(domainagg.CodeValidation, op, "missing pitch_id", nil)
	}
	if a.deps.Pitches == nil || a.deps.Sections == nil || a.deps.Media == nil ||
		a.deps.Policies == nil || a.deps.Funding == nil || a.deps.Pledges == nil {
		return domainagg.NewError(domainagg.CodeInternal, op, "document aggregate repos not configured", nil)
	}
	return executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		p, err := a.deps.Pitches.GetByID(dbc, pitchID, true)
		if err != nil {
			return err
		}
		if p == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("pitch not found: %s", pitchID), nil)
		}
		if _, err := a.deps.Sections.DeleteByPitch(dbc, pitchID); err != nil {
			return err
		}
		if _, err := a.deps.Media.DeleteByPitch(dbc, pitchID); err != nil {
			return err
		}
		if _, err := a.deps.Policies.DeleteByPitch(dbc, pitchID); err != nil {
			return err
		}
		if _, err := a.deps.Pledges.DeleteByPitch(dbc, pitchID); err != nil {
			return err
		}
		if _, err := a.deps.Funding.DeleteByPitch(dbc, pitchID); err != nil {
			return err
		}
		return a.deps.Pitches.HardDelete(dbc, pitchID)
	})
}

func (a *documentAggregate) DetachMedia(ctx context.Context, in pitch.DetachMediaInput) (pitch.DetachMediaResult, error) {
	const op = "Pitch.Document.DetachMedia"
	var out pitch.DetachMediaResult
	if in.PitchID == uuid.Nil || in.MediaID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing pitch_id or media_id", nil)
	}
	if a.deps.Sections == nil || a.deps.Media == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "document aggregate repos not configured", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		m, err := a.deps.Media.GetByID(dbc, in.MediaID)
		if err != nil {
			return err
		}
		if m == nil || m.PitchID != in.PitchID {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("media not found: %s", in.MediaID), nil)
		}
		if _, err := a.deps.Media.Delete(dbc, m.ID); err != nil {
			return err
		}

		rows, err := a.deps.Sections.ListByPitch(dbc, in.PitchID)
		if err != nil {
			return err
		}
		kept := make([]*pitch.Section, 0, len(rows))
		var res pitch.DetachMediaResult
		for _, row := range rows {
			p, err := row.Decode()
			if err != nil {
				// Undecodable rows are left for the next save to replace.
				kept = append(kept, row)
				continue
			}
			scrubbed, changed := pitch.WithoutMedia(p, in.MediaID)
			if !changed {
				kept = append(kept, row)
				continue
			}
			if !scrubbed.HasContent(in.Policy) {
				res.Dropped++
				continue
			}
			raw, err := pitch.EncodePayload(pitch.Normalize(scrubbed))
			if err != nil {
				return domainagg.NewError(domainagg.CodeInternal, op, "encode scrubbed payload", err)
			}
			row.Payload = datatypes.JSON(raw)
			res.Rewritten++
			kept = append(kept, row)
		}
		out = res
		if res.Rewritten == 0 && res.Dropped == 0 {
			return nil
		}

		if _, err := a.deps.Sections.DeleteByPitch(dbc, in.PitchID); err != nil {
			return err
		}
		for i, row := range kept {
			row.OrderIndex = i
		}
		if _, err := a.deps.Sections.CreateMany(dbc, kept); err != nil {
			return err
		}
		a.deps.Base.Log.Debug("Media detached from sections",
			"pitch_id", in.PitchID,
			"media_id", in.MediaID,
			"rewritten", res.Rewritten,
			"dropped", res.Dropped,
		)
		return nil
	})
	if err != nil {
		return pitch.DetachMediaResult{}, err
	}
	return out, nil
}
