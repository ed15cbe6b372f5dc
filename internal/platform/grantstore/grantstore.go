// Package grantstore keeps short-lived unlock grants for password protected pitches.
// A grant maps an opaque token to the share policy it unlocked.
package grantstore

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Store interface {
	Put(ctx context.Context, grant string, policyID uuid.UUID, ttl time.Duration) error
	// Lookup returns the policy a grant unlocked. ok is false for unknown or expired grants.
	Lookup(ctx context.Context, grant string) (policyID uuid.UUID, ok bool, err error)
	Close() error
}
