package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/pitchroom-backend/internal/http/handlers"
	httpMW "github.com/yungbote/pitchroom-backend/internal/http/middleware"
	"github.com/yungbote/pitchroom-backend/internal/observability"
	"github.com/yungbote/pitchroom-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	TracingEnabled bool
	AllowedOrigins []string

	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler      *httpH.HealthHandler
	PitchHandler       *httpH.PitchHandler
	ShareHandler       *httpH.ShareHandler
	MediaHandler       *httpH.MediaHandler
	PolicyHandler      *httpH.PolicyHandler
	FundingHandler     *httpH.FundingHandler
	SignedMediaHandler *httpH.SignedMediaHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingEnabled {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachRequestContext())
	if cfg.Log != nil {
		r.Use(httpMW.RequestLogger(cfg.Log))
	}
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	// Local signed media
	if cfg.SignedMediaHandler != nil {
		r.GET("/media/signed/:token", cfg.SignedMediaHandler.Serve)
	}

	api := r.Group("/api")

	// Payment collaborator (shared secret, no viewer identity)
	if cfg.FundingHandler != nil {
		api.POST("/internal/pledges", cfg.FundingHandler.RecordPledge)
	}

	public := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			public.Use(cfg.AuthMiddleware.OptionalAuth())
		}
		if cfg.PitchHandler != nil {
			public.GET("/public/pitches", cfg.PitchHandler.ListPublic)
		}
		if cfg.ShareHandler != nil {
			public.GET("/share/:id", cfg.ShareHandler.View)
			public.POST("/share/:id", cfg.ShareHandler.Unlock)
		}
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Pitches
		if cfg.PitchHandler != nil {
			protected.POST("/pitches", cfg.PitchHandler.Create)
			protected.GET("/pitches", cfg.PitchHandler.List)
			protected.GET("/pitches/:id", cfg.PitchHandler.Get)
			protected.PUT("/pitches/:id", cfg.PitchHandler.Save)
			protected.DELETE("/pitches/:id", cfg.PitchHandler.Delete)
		}

		// Media
		if cfg.MediaHandler != nil {
			protected.POST("/pitches/:id/media", cfg.MediaHandler.Upload)
			protected.GET("/pitches/:id/media", cfg.MediaHandler.List)
			protected.DELETE("/media/:id", cfg.MediaHandler.Delete)
		}

		// Share policy
		if cfg.PolicyHandler != nil {
			protected.GET("/pitches/:id/policy", cfg.PolicyHandler.Get)
			protected.POST("/pitches/:id/policy", cfg.PolicyHandler.Create)
			protected.DELETE("/pitches/:id/policy", cfg.PolicyHandler.Revoke)
		}

		// Funding
		if cfg.FundingHandler != nil {
			protected.GET("/pitches/:id/funding", cfg.FundingHandler.Get)
			protected.POST("/pitches/:id/funding", cfg.FundingHandler.Enable)
			protected.PUT("/pitches/:id/funding", cfg.FundingHandler.Update)
		}
	}

	return r
}
