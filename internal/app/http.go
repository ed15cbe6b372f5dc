package app

import (
	"gorm.io/gorm"

	apphttp "github.com/yungbote/pitchroom-backend/internal/http"
	httpH "github.com/yungbote/pitchroom-backend/internal/http/handlers"
	httpMW "github.com/yungbote/pitchroom-backend/internal/http/middleware"
	"github.com/yungbote/pitchroom-backend/internal/observability"
	"github.com/yungbote/pitchroom-backend/internal/platform/logger"
)

func wireServer(db *gorm.DB, log *logger.Logger, cfg Config, svc Services, storage *MediaStorage, metrics *observability.Metrics) *apphttp.Server {
	log.Info("Wiring handlers...")
	rc := apphttp.RouterConfig{
		Log:            log,
		Metrics:        metrics,
		ServiceName:    cfg.Otel.ServiceName,
		TracingEnabled: cfg.Otel.Enabled,
		AllowedOrigins: cfg.CORSAllowedOrigins,

		AuthMiddleware: httpMW.NewAuthMiddleware(log, svc.Identity),

		HealthHandler:  httpH.NewHealthHandler(db),
		PitchHandler:   httpH.NewPitchHandler(log, svc.Composer),
		ShareHandler:   httpH.NewShareHandler(log, svc.Composer, svc.Disclosure, svc.Assets, svc.Funding),
		MediaHandler:   httpH.NewMediaHandler(log, svc.Media, svc.Disclosure, svc.Assets),
		PolicyHandler:  httpH.NewPolicyHandler(log, svc.Disclosure),
		FundingHandler: httpH.NewFundingHandler(log, svc.Funding, svc.Disclosure, cfg.LedgerWebhookSecret),
	}
	if storage.Local != nil {
		rc.SignedMediaHandler = httpH.NewSignedMediaHandler(log, storage.Local)
	}
	if cfg.LedgerWebhookSecret == "" {
		log.Warn("LEDGER_WEBHOOK_SECRET is empty; pledge confirmations will be rejected")
	}
	return apphttp.NewServer(rc)
}
