package pitch

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityPublic  Visibility = "public"
)

func (v Visibility) Valid() bool { return v == VisibilityPrivate || v == VisibilityPublic }

// SharePolicy governs who may read a pitch. At most one row per pitch has a nil RevokedAt.
type SharePolicy struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	PitchID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"pitch_id"`
	Visibility   Visibility `gorm:"column:visibility;not null" json:"visibility"`
	PasswordHash *string    `gorm:"column:password_hash" json:"-"`
	RevokedAt    *time.Time `gorm:"column:revoked_at;index" json:"revoked_at,omitempty"`
	CreatedAt    time.Time  `gorm:"not null" json:"created_at"`
}

func (SharePolicy) TableName() string { return "share_policy" }

func (p *SharePolicy) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (p *SharePolicy) Active() bool { return p != nil && p.RevokedAt == nil }

func (p *SharePolicy) PasswordProtected() bool {
	return p != nil && p.PasswordHash != nil && *p.PasswordHash != ""
}

type DisclosureState string

const (
	StateNoPolicy                DisclosureState = "no_policy"
	StatePrivate                 DisclosureState = "private"
	StatePublic                  DisclosureState = "public"
	StatePublicPasswordProtected DisclosureState = "public_password_protected"
	StateRevoked                 DisclosureState = "revoked"
)

// DeriveState computes the disclosure state from the active policy (if any) and whether
// any revoked policy exists in the history.
func DeriveState(active *SharePolicy, anyRevoked bool) DisclosureState {
	switch {
	case active == nil && anyRevoked:
		return StateRevoked
	case active == nil:
		return StateNoPolicy
	case active.Visibility == VisibilityPrivate:
		return StatePrivate
	case active.PasswordProtected():
		return StatePublicPasswordProtected
	default:
		return StatePublic
	}
}
