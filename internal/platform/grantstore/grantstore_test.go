package grantstore

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/pitchroom-backend/internal/platform/logger"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	policy := uuid.New()
	grant := uuid.NewString()

	if _, ok, err := s.Lookup(ctx, grant); err != nil || ok {
		t.Fatalf("Lookup before Put: ok=%v err=%v", ok, err)
	}
	if err := s.Put(ctx, grant, policy, time.Minute); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := s.Lookup(ctx, grant)
	if err != nil || !ok || got != policy {
		t.Fatalf("Lookup: got=%s ok=%v err=%v", got, ok, err)
	}
	if err := s.Put(ctx, "", policy, time.Minute); err == nil {
		t.Fatalf("expected empty grant to be rejected")
	}
	if err := s.Put(ctx, grant, policy, 0); err == nil {
		t.Fatalf("expected zero ttl to be rejected")
	}

	short := uuid.NewString()
	if err := s.Put(ctx, short, policy, 50*time.Millisecond); err != nil {
		t.Fatalf("Put short: %v", err)
	}
	time.Sleep(1100 * time.Millisecond)
	if _, ok, _ := s.Lookup(ctx, short); ok {
		t.Fatalf("expired grant still resolves")
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemory(time.Minute)
	defer s.Close()
	exerciseStore(t, s)
}

func TestRedisStore(t *testing.T) {
	addr := strings.TrimSpace(os.Getenv("TEST_REDIS_ADDR"))
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis grant store tests")
	}
	s, err := NewRedis(context.Background(), logger.Nop(), RedisConfig{
		Addr:      addr,
		KeyPrefix: "pitchroom:test:" + uuid.NewString() + ":",
	})
	if err != nil {
		t.Fatalf("NewRedis: %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestNewRedisRequiresAddr(t *testing.T) {
	if _, err := NewRedis(context.Background(), logger.Nop(), RedisConfig{}); err == nil {
		t.Fatalf("expected missing address error")
	}
}
