package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	dataagg "github.com/yungbote/pitchroom-backend/internal/data/aggregates"
	"github.com/yungbote/pitchroom-backend/internal/observability"
	"github.com/yungbote/pitchroom-backend/internal/platform/grantstore"
	"github.com/yungbote/pitchroom-backend/internal/platform/logger"
	"github.com/yungbote/pitchroom-backend/internal/services"
)

type Services struct {
	Composer   services.DocumentComposer
	Disclosure services.DisclosureService
	Media      services.MediaService
	Assets     services.AssetIssuer
	Funding    services.FundingLedger
	Lifecycle  services.Lifecycle
	Identity   services.IdentityVerifier

	Grants grantstore.Store
}

func wireGrantStore(ctx context.Context, log *logger.Logger, cfg Config) (grantstore.Store, error) {
	switch cfg.GrantStore {
	case GrantStoreRedis:
		return grantstore.NewRedis(ctx, log, grantstore.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	case GrantStoreMemory, "":
		log.Info("Using in-process grant store; grants are not shared across instances")
		return grantstore.NewMemory(cfg.GrantTTL), nil
	default:
		return nil, fmt.Errorf("unsupported GRANT_STORE %q (expected redis|memory)", cfg.GrantStore)
	}
}

func wireServices(ctx context.Context, db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, storage *MediaStorage, withIdentity bool) (Services, error) {
	log.Info("Wiring services...")

	base := dataagg.BaseDeps{
		DB:    db,
		Log:   log,
		Hooks: dataagg.NewObservabilityHooks(observability.Current()),
	}
	document := dataagg.NewDocumentAggregate(dataagg.DocumentAggregateDeps{
		Base:     base,
		Pitches:  repos.Pitch,
		Sections: repos.Section,
		Media:    repos.Media,
		Policies: repos.SharePolicy,
		Funding:  repos.Funding,
		Pledges:  repos.Pledge,
	})
	disclosureAgg := dataagg.NewDisclosureAggregate(dataagg.DisclosureAggregateDeps{
		Base:     base,
		Policies: repos.SharePolicy,
	})

	grants, err := wireGrantStore(ctx, log, cfg)
	if err != nil {
		return Services{}, fmt.Errorf("init grant store: %w", err)
	}

	var identity services.IdentityVerifier
	if withIdentity {
		identity, err = services.NewIdentityVerifier(log, cfg.Identity)
		if err != nil {
			_ = grants.Close()
			return Services{}, fmt.Errorf("init identity verifier: %w", err)
		}
	}

	composer := services.NewDocumentComposer(log, services.ComposerConfig{
		TitleCountsAsContent: cfg.TitleCountsAsContent,
	}, repos.Pitch, repos.Section, repos.Media, document)

	disclosure := services.NewDisclosureService(log, services.DisclosureConfig{
		GrantTTL: cfg.GrantTTL,
	}, repos.Pitch, repos.SharePolicy, disclosureAgg, grants)

	media := services.NewMediaService(log, services.MediaConfig{
		MaxUploadBytes:       cfg.MaxUploadBytes,
		Concurrency:          cfg.UploadConcurrency,
		TitleCountsAsContent: cfg.TitleCountsAsContent,
	}, nil, repos.Pitch, repos.Media, document, storage.Store)

	return Services{
		Composer:   composer,
		Disclosure: disclosure,
		Media:      media,
		Assets:     services.NewAssetIssuer(log, repos.Media, repos.Section, storage.Store, string(storage.Mode)),
		Funding:    services.NewFundingLedger(log, repos.Pitch, repos.Funding, repos.Pledge),
		Lifecycle:  services.NewLifecycle(log, repos.Pitch, repos.Media, storage.Store, document),
		Identity:   identity,
		Grants:     grants,
	}, nil
}
