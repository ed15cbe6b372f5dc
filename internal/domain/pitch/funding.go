package pitch

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FundingRecord is the optional crowdfunding goal of a pitch.
type FundingRecord struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	PitchID   uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex" json:"pitch_id"`
	GoalCents int64      `gorm:"column:goal_cents;not null" json:"goal_cents"`
	PitchText string     `gorm:"column:pitch_text;type:text;not null" json:"pitch_text"`
	EndsAt    *time.Time `gorm:"column:ends_at" json:"ends_at,omitempty"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null" json:"updated_at"`
}

func (FundingRecord) TableName() string { return "funding_record" }

func (f *FundingRecord) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// Pledge is an externally verified contribution.
type Pledge struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PitchID     uuid.UUID `gorm:"type:uuid;not null;index" json:"pitch_id"`
	AmountCents int64     `gorm:"column:amount_cents;not null" json:"amount_cents"`
	ProviderRef string    `gorm:"column:provider_ref;not null;uniqueIndex" json:"provider_ref"`
	ConfirmedAt time.Time `gorm:"column:confirmed_at;not null" json:"confirmed_at"`
}

func (Pledge) TableName() string { return "pledge" }

func (p *Pledge) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// FundingSummary is the read model returned to viewers.
type FundingSummary struct {
	PitchID     uuid.UUID  `json:"pitch_id"`
	GoalCents   int64      `json:"goal_cents"`
	PitchText   string     `json:"pitch_text"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
	RaisedCents int64      `json:"raised_cents"`
	PledgeCount int64      `json:"pledge_count"`
}
