package pitch

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/pitchroom-backend/internal/domain/aggregates"
)

type BudgetBracket string

const (
	BudgetMicro    BudgetBracket = "micro"
	BudgetLow      BudgetBracket = "low"
	BudgetMid      BudgetBracket = "mid"
	BudgetHigh     BudgetBracket = "high"
	BudgetTentpole BudgetBracket = "tentpole"
)

func (b BudgetBracket) Valid() bool {
	switch b {
	case BudgetMicro, BudgetLow, BudgetMid, BudgetHigh, BudgetTentpole:
		return true
	}
	return false
}

type Status string

const (
	StatusDevelopment    Status = "development"
	StatusPreProduction  Status = "pre_production"
	StatusProduction     Status = "production"
	StatusPostProduction Status = "post_production"
	StatusCompleted      Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDevelopment, StatusPreProduction, StatusProduction, StatusPostProduction, StatusCompleted:
		return true
	}
	return false
}

// Fields are the required scalar fields of a pitch. They live on the pitch row and are
// never represented as sections.
type Fields struct {
	Title         string        `gorm:"column:title;not null" json:"title"`
	Logline       string        `gorm:"column:logline;not null" json:"logline"`
	Synopsis      string        `gorm:"column:synopsis;type:text;not null" json:"synopsis"`
	Category      string        `gorm:"column:category;not null;index" json:"category"`
	Vision        string        `gorm:"column:vision;type:text;not null" json:"vision"`
	Cast          string        `gorm:"column:cast_text;type:text;not null" json:"cast"`
	BudgetBracket BudgetBracket `gorm:"column:budget_bracket;not null" json:"budget_bracket"`
	Status        Status        `gorm:"column:status;not null" json:"status"`
	Team          string        `gorm:"column:team;type:text;not null" json:"team"`
}

// Normalize trims surrounding whitespace from every text field.
func (f Fields) Normalize() Fields {
	f.Title = strings.TrimSpace(f.Title)
	f.Logline = strings.TrimSpace(f.Logline)
	f.Synopsis = strings.TrimSpace(f.Synopsis)
	f.Category = strings.TrimSpace(f.Category)
	f.Vision = strings.TrimSpace(f.Vision)
	f.Cast = strings.TrimSpace(f.Cast)
	f.Team = strings.TrimSpace(f.Team)
	f.BudgetBracket = BudgetBracket(strings.ToLower(strings.TrimSpace(string(f.BudgetBracket))))
	f.Status = Status(strings.ToLower(strings.TrimSpace(string(f.Status))))
	return f
}

// Validate reports the first missing or malformed required field.
func (f Fields) Validate(op string) error {
	required := []struct {
		name  string
		value string
	}{
		{"title", f.Title},
		{"logline", f.Logline},
		{"synopsis", f.Synopsis},
		{"category", f.Category},
		{"vision", f.Vision},
		{"cast", f.Cast},
		{"team", f.Team},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return aggregates.Validation(op, "%s is required", r.name)
		}
	}
	if len(f.Title) > 200 {
		return aggregates.Validation(op, "title is longer than 200 characters")
	}
	if len(f.Logline) > 300 {
		return aggregates.Validation(op, "logline is longer than 300 characters")
	}
	if !f.BudgetBracket.Valid() {
		return aggregates.Validation(op, "budget_bracket %q is not recognised", f.BudgetBracket)
	}
	if !f.Status.Valid() {
		return aggregates.Validation(op, "status %q is not recognised", f.Status)
	}
	return nil
}

// Pitch is one creator's project document.
type Pitch struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`

	Fields `gorm:"embedded"`

	CurrentVersion int `gorm:"column:current_version;not null;default:1" json:"current_version"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Pitch) TableName() string { return "pitch" }

func (p *Pitch) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CurrentVersion == 0 {
		p.CurrentVersion = 1
	}
	return nil
}

func (p *Pitch) Deleted() bool { return p != nil && p.DeletedAt.Valid }
