package pitch

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/pitchroom-backend/internal/domain/aggregates"
)

var DocumentAggregateContract = aggregates.Contract{
	Name: "Pitch.DocumentAggregate",
	Tables: []string{
		Pitch{}.TableName(),
		Section{}.TableName(),
		Media{}.TableName(),
		SharePolicy{}.TableName(),
		FundingRecord{}.TableName(),
		Pledge{}.TableName(),
	},
	Notes: "Owns the pitch row and its section set; sections are replaced wholesale inside one transaction and never reference a deleted media row.",
}

var DisclosureAggregateContract = aggregates.Contract{
	Name:   "Pitch.DisclosureAggregate",
	Tables: []string{SharePolicy{}.TableName()},
	Notes:  "Owns the at-most-one-active share policy rule.",
}

// DocumentAggregate owns pitch document consistency.
//
// Write failures return *aggregates.Error with CodeValidation, CodeNotFound, CodeConflict,
// CodeDependency or CodeInternal.
type DocumentAggregate interface {
	aggregates.Aggregate

	// Save updates the scalar fields, bumps the version and replaces the section set.
	Save(ctx context.Context, in SaveInput) (SaveResult, error)

	// Purge hard-deletes the pitch and every child row. Object cleanup is the caller's job.
	Purge(ctx context.Context, pitchID uuid.UUID) error

	// DetachMedia deletes one media record and removes its id from every section payload.
	// Sections left without content under Policy are dropped and the rest re-packed.
	DetachMedia(ctx context.Context, in DetachMediaInput) (DetachMediaResult, error)
}

type SaveInput struct {
	PitchID  uuid.UUID
	OwnerID  uuid.UUID
	Fields   Fields
	Sections []*Section
}

type SaveResult struct {
	PitchID  uuid.UUID
	Version  int
	Sections []*Section
	SavedAt  time.Time
}

type DetachMediaInput struct {
	PitchID uuid.UUID
	MediaID uuid.UUID
	Policy  EmptinessPolicy
}

type DetachMediaResult struct {
	Rewritten int
	Dropped   int
}

// DisclosureAggregate owns share policy transitions.
type DisclosureAggregate interface {
	aggregates.Aggregate

	// Create inserts a new active policy; it fails with CodeConflict when one already exists.
	Create(ctx context.Context, in CreatePolicyInput) (*SharePolicy, error)

	// Revoke stamps revoked_at on the active policy; CodeNotFound when there is none.
	Revoke(ctx context.Context, pitchID uuid.UUID, at time.Time) (*SharePolicy, error)
}

type CreatePolicyInput struct {
	PitchID      uuid.UUID
	Visibility   Visibility
	PasswordHash *string
}
