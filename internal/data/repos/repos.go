package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/pitchroom-backend/internal/data/repos/pitch"
	"github.com/yungbote/pitchroom-backend/internal/platform/logger"
)

type PitchRepo = pitch.PitchRepo
type SectionRepo = pitch.SectionRepo
type MediaRepo = pitch.MediaRepo
type SharePolicyRepo = pitch.SharePolicyRepo
type FundingRepo = pitch.FundingRepo
type PledgeRepo = pitch.PledgeRepo

type PublicListing = pitch.PublicListing

func NewPitchRepo(db *gorm.DB, baseLog *logger.Logger) PitchRepo { return pitch.NewPitchRepo(db, baseLog) }
func NewSectionRepo(db *gorm.DB, baseLog *logger.Logger) SectionRepo {
	return pitch.NewSectionRepo(db, baseLog)
}
func NewMediaRepo(db *gorm.DB, baseLog *logger.Logger) MediaRepo { return pitch.NewMediaRepo(db, baseLog) }
func NewSharePolicyRepo(db *gorm.DB, baseLog *logger.Logger) SharePolicyRepo {
	return pitch.NewSharePolicyRepo(db, baseLog)
}
func NewFundingRepo(db *gorm.DB, baseLog *logger.Logger) FundingRepo {
	return pitch.NewFundingRepo(db, baseLog)
}
func NewPledgeRepo(db *gorm.DB, baseLog *logger.Logger) PledgeRepo { return pitch.NewPledgeRepo(db, baseLog) }
