package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/pitchroom-backend/internal/domain/pitch"
)

// Fields returns a complete set of required pitch fields.
func Fields(title string) pitch.Fields {
	return pitch.Fields{
		Title:         title,
		Logline:       "A crew goes up.",
		Synopsis:      "Seven astronauts and one broken station.",
		Category:      "sci-fi",
		Vision:        "Practical effects, long takes.",
		Cast:          "TBD",
		BudgetBracket: pitch.BudgetMid,
		Status:        pitch.StatusDevelopment,
		Team:          "Director, producer.",
	}
}

func SeedPitch(tb testing.TB, ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, title string) *pitch.Pitch {
	tb.Helper()
	p := &pitch.Pitch{OwnerID: ownerID, Fields: Fields(title)}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed pitch: %v", err)
	}
	return p
}

func SeedMedia(tb testing.TB, ctx context.Context, tx *gorm.DB, pitchID uuid.UUID, sectionKey, path string) *pitch.Media {
	tb.Helper()
	m := &pitch.Media{
		PitchID:     pitchID,
		SectionKey:  sectionKey,
		StoragePath: path,
		ContentKind: pitch.ContentImage,
		ContentType: "image/png",
		SizeBytes:   4,
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed media: %v", err)
	}
	return m
}

func SeedPolicy(tb testing.TB, ctx context.Context, tx *gorm.DB, pitchID uuid.UUID, vis pitch.Visibility, revoked bool) *pitch.SharePolicy {
	tb.Helper()
	p := &pitch.SharePolicy{PitchID: pitchID, Visibility: vis}
	if revoked {
		at := time.Now().UTC()
		p.RevokedAt = &at
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed policy: %v", err)
	}
	return p
}
