package localstore

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/yungbote/pitchroom-backend/internal/platform/objectstore"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newStore(t *testing.T, clock *fakeClock) *Store {
	t.Helper()
	s, err := New(Config{
		Root:       t.TempDir(),
		SigningKey: []byte("0123456789abcdef0123"),
		BaseURL:    "http://localhost:8080/media/signed",
	}, nil, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func handleOf(t *testing.T, url string) string {
	t.Helper()
	const prefix = "http://localhost:8080/media/signed/"
	if !strings.HasPrefix(url, prefix) {
		t.Fatalf("unexpected signed url %q", url)
	}
	return strings.TrimPrefix(url, prefix)
}

func TestStorePutStatDelete(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, &fakeClock{t: time.Now().UTC()})

	if err := s.Put(ctx, "pitches/o/p/a.png", strings.NewReader("png!"), "image/png"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	attrs, err := s.Stat(ctx, "pitches/o/p/a.png")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if attrs.Size != 4 || attrs.ContentType != "image/png" {
		t.Fatalf("unexpected attrs %+v", attrs)
	}
	if err := s.Delete(ctx, "pitches/o/p/a.png"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Stat(ctx, "pitches/o/p/a.png"); !errors.Is(err, objectstore.ErrNotFound) {
		t.Fatalf("Stat after delete: %v", err)
	}
	if err := s.Delete(ctx, "pitches/o/p/a.png"); !errors.Is(err, objectstore.ErrNotFound) {
		t.Fatalf("second Delete: %v", err)
	}
	if err := s.Put(ctx, "../escape.png", strings.NewReader("x"), "image/png"); err == nil {
		t.Fatalf("expected traversal path to be rejected")
	}
}

func TestSignedHandleExpiryBoundary(t *testing.T) {
	ctx := context.Background()
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{t: issued}
	s := newStore(t, clock)
	if err := s.Put(ctx, "pitches/o/p/deck.pdf", strings.NewReader("%PDF"), "application/pdf"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	u, err := s.SignedGet(ctx, "pitches/o/p/deck.pdf", time.Hour)
	if err != nil {
		t.Fatalf("SignedGet: %v", err)
	}
	token := handleOf(t, u)

	clock.t = issued.Add(3599 * time.Second)
	rc, attrs, err := s.Open(ctx, token)
	if err != nil {
		t.Fatalf("Open at T+3599: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != "%PDF" || attrs.Path != "pitches/o/p/deck.pdf" {
		t.Fatalf("unexpected object %q %+v", body, attrs)
	}

	clock.t = issued.Add(3601 * time.Second)
	if _, _, err := s.Open(ctx, token); !errors.Is(err, ErrExpiredHandle) {
		t.Fatalf("Open at T+3601: expected expiry, got %v", err)
	}
}

func TestResolveRejectsForeignHandles(t *testing.T) {
	clock := &fakeClock{t: time.Now().UTC()}
	a := newStore(t, clock)
	b, err := New(Config{Root: t.TempDir(), SigningKey: []byte("another-key-of-length")}, nil, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	u, err := b.SignedGet(context.Background(), "pitches/o/p/a.png", time.Minute)
	if err != nil {
		t.Fatalf("SignedGet: %v", err)
	}
	token := strings.TrimPrefix(u, "/media/signed/")
	if _, err := a.Resolve(token); !errors.Is(err, ErrInvalidHandle) {
		t.Fatalf("expected invalid handle, got %v", err)
	}
	if _, err := a.Resolve("not-a-jwt"); !errors.Is(err, ErrInvalidHandle) {
		t.Fatalf("expected invalid handle for garbage, got %v", err)
	}
}

func TestDeletePrefix(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, &fakeClock{t: time.Now().UTC()})
	for _, p := range []string{"pitches/o/p/a.png", "pitches/o/p/b.pdf", "pitches/o/q/c.png"} {
		if err := s.Put(ctx, p, strings.NewReader("x"), ""); err != nil {
			t.Fatalf("Put %s: %v", p, err)
		}
	}
	n, err := s.DeletePrefix(ctx, "pitches/o/p/")
	if err != nil || n != 2 {
		t.Fatalf("DeletePrefix: n=%d err=%v", n, err)
	}
	if _, err := s.Stat(ctx, "pitches/o/q/c.png"); err != nil {
		t.Fatalf("sibling prefix was removed: %v", err)
	}
	if n, err := s.DeletePrefix(ctx, "pitches/none"); err != nil || n != 0 {
		t.Fatalf("DeletePrefix on missing prefix: n=%d err=%v", n, err)
	}
}
