package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/pitchroom-backend/internal/data/repos"
	"github.com/yungbote/pitchroom-backend/internal/platform/logger"
)

type Repos struct {
	Pitch       repos.PitchRepo
	Section     repos.SectionRepo
	Media       repos.MediaRepo
	SharePolicy repos.SharePolicyRepo
	Funding     repos.FundingRepo
	Pledge      repos.PledgeRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Pitch:       repos.NewPitchRepo(db, log),
		Section:     repos.NewSectionRepo(db, log),
		Media:       repos.NewMediaRepo(db, log),
		SharePolicy: repos.NewSharePolicyRepo(db, log),
		Funding:     repos.NewFundingRepo(db, log),
		Pledge:      repos.NewPledgeRepo(db, log),
	}
}
