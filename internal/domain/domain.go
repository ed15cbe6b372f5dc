package domain

import "github.com/yungbote/pitchroom-backend/internal/domain/pitch"

type Pitch = pitch.Pitch
type PitchFields = pitch.Fields
type PitchSection = pitch.Section
type PitchMedia = pitch.Media
type SharePolicy = pitch.SharePolicy
type FundingRecord = pitch.FundingRecord
type Pledge = pitch.Pledge

// AllModels lists every persisted model in migration order.
func AllModels() []any {
	return []any{
		&pitch.Pitch{},
		&pitch.Section{},
		&pitch.Media{},
		&pitch.SharePolicy{},
		&pitch.FundingRecord{},
		&pitch.Pledge{},
	}
}

const VisibilityPublic = pitch.VisibilityPublic
