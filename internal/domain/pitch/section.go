package pitch

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Section is one persisted optional slice of a pitch. Rows are rewritten wholesale on save.
type Section struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	PitchID    uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_pitch_section_key,priority:1" json:"pitch_id"`
	SectionKey string         `gorm:"column:section_key;not null;uniqueIndex:idx_pitch_section_key,priority:2" json:"section_key"`
	Kind       Kind           `gorm:"column:kind;not null" json:"kind"`
	Payload    datatypes.JSON `gorm:"column:payload;not null" json:"payload"`
	OrderIndex int            `gorm:"column:order_index;not null" json:"order_index"`
	CreatedAt  time.Time      `gorm:"not null" json:"created_at"`
}

func (Section) TableName() string { return "pitch_section" }

func (s *Section) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Decode strictly decodes the stored payload and checks it matches the row's kind.
func (s Section) Decode() (Payload, error) {
	p, err := DecodePayload(s.Payload)
	if err != nil {
		return nil, err
	}
	if p.Kind() != s.Kind {
		return nil, fmt.Errorf("section %q stored as %s but payload is %s", s.SectionKey, s.Kind, p.Kind())
	}
	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("section %q: %w", s.SectionKey, err)
	}
	return p, nil
}

// SectionState is the editor-side view of one section.
type SectionState struct {
	Key     string  `json:"key"`
	Enabled bool    `json:"enabled"`
	Custom  bool    `json:"custom"`
	Payload Payload `json:"-"`
}

type sectionStateJSON struct {
	Key     string          `json:"key"`
	Enabled bool            `json:"enabled"`
	Custom  bool            `json:"custom"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func (s SectionState) MarshalJSON() ([]byte, error) {
	out := sectionStateJSON{Key: s.Key, Enabled: s.Enabled, Custom: s.Custom}
	if s.Payload != nil {
		raw, err := EncodePayload(s.Payload)
		if err != nil {
			return nil, err
		}
		out.Payload = raw
	}
	return json.Marshal(out)
}

func (s *SectionState) UnmarshalJSON(data []byte) error {
	var in sectionStateJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	s.Key, s.Enabled, s.Custom = in.Key, in.Enabled, in.Custom
	s.Payload = nil
	if len(in.Payload) > 0 && string(in.Payload) != "null" {
		p, err := DecodePayload(in.Payload)
		if err != nil {
			return err
		}
		s.Payload = p
	}
	return nil
}

// EnabledKeys derives the ordered list of enabled section keys.
func EnabledKeys(states []SectionState) []string {
	out := make([]string, 0, len(states))
	for _, s := range states {
		if s.Enabled {
			out = append(out, s.Key)
		}
	}
	return out
}
