package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/pitchroom-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.AllModels()...); err != nil {
		return err
	}
	return EnsurePitchIndexes(db)
}

// EnsurePitchIndexes creates indexes gorm tags cannot express. Both postgres and sqlite
// support partial indexes with this syntax.
func EnsurePitchIndexes(db *gorm.DB) error {
	// At most one non-revoked policy per pitch.
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_share_policy_active
		ON share_policy (pitch_id)
		WHERE revoked_at IS NULL;
	`).Error; err != nil {
		return fmt.Errorf("create idx_share_policy_active: %w", err)
	}

	// Section load order.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_pitch_section_order
		ON pitch_section (pitch_id, order_index);
	`).Error; err != nil {
		return fmt.Errorf("create idx_pitch_section_order: %w", err)
	}

	// Owner listing.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_pitch_owner_updated
		ON pitch (owner_id, updated_at DESC);
	`).Error; err != nil {
		return fmt.Errorf("create idx_pitch_owner_updated: %w", err)
	}

	return nil
}

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...", "driver", s.driver)
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	return nil
}
