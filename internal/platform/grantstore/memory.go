package grantstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

// Memory is an in-process grant store. Grants do not survive restarts and are not shared
// between replicas.
type Memory struct {
	cache *gocache.Cache
}

var _ Store = (*Memory)(nil)

func NewMemory(defaultTTL time.Duration) *Memory {
	if defaultTTL <= 0 {
		defaultTTL = time.Hour
	}
	return &Memory{cache: gocache.New(defaultTTL, defaultTTL/2)}
}

func (m *Memory) Put(ctx context.Context, grant string, policyID uuid.UUID, ttl time.Duration) error {
	grant = strings.TrimSpace(grant)
	if grant == "" {
		return fmt.Errorf("grant is required")
	}
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive")
	}
	m.cache.Set(grant, policyID, ttl)
	return nil
}

func (m *Memory) Lookup(ctx context.Context, grant string) (uuid.UUID, bool, error) {
	v, ok := m.cache.Get(strings.TrimSpace(grant))
	if !ok {
		return uuid.Nil, false, nil
	}
	id, ok := v.(uuid.UUID)
	return id, ok, nil
}

func (m *Memory) Close() error {
	m.cache.Flush()
	return nil
}
