package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/pitchroom-backend/internal/data/db"
	apphttp "github.com/yungbote/pitchroom-backend/internal/http"
	"github.com/yungbote/pitchroom-backend/internal/observability"
	"github.com/yungbote/pitchroom-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Repos    Repos
	Services Services
	Storage  *MediaStorage
	Server   *apphttp.Server

	dbService    *db.Service
	otelShutdown func(context.Context) error
}

func NewLogger() (*logger.Logger, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.NewWithLevel(logMode, os.Getenv("LOG_LEVEL"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return log, nil
}

type options struct {
	http bool
}

type Option func(*options)

// WithoutHTTP builds the data and service layers only, for maintenance commands.
func WithoutHTTP() Option {
	return func(o *options) { o.http = false }
}

func New(ctx context.Context, log *logger.Logger, opts ...Option) (*App, error) {
	o := options{http: true}
	for _, opt := range opts {
		opt(&o)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	otelShutdown := observability.InitOTel(ctx, log, cfg.Otel)
	metrics := observability.Init()

	dbService, err := db.NewService(cfg.DB, log)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := dbService.AutoMigrateAll(); err != nil {
		_ = dbService.Close()
		return nil, fmt.Errorf("database automigrate: %w", err)
	}
	theDB := dbService.DB()

	storage, err := resolveMediaStorage(ctx, log, cfg)
	if err != nil {
		_ = dbService.Close()
		return nil, err
	}

	reposet := wireRepos(theDB, log)
	serviceset, err := wireServices(ctx, theDB, log, cfg, reposet, storage, o.http)
	if err != nil {
		_ = storage.Close()
		_ = dbService.Close()
		return nil, err
	}

	a := &App{
		Log:          log,
		DB:           theDB,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		Storage:      storage,
		dbService:    dbService,
		otelShutdown: otelShutdown,
	}
	if o.http {
		a.Server = wireServer(theDB, log, cfg, serviceset, storage, metrics)
	}
	return a, nil
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Server.Run(ctx, ":"+a.Cfg.Port)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Services.Grants != nil {
		if err := a.Services.Grants.Close(); err != nil {
			a.Log.Warn("Closing grant store failed", "error", err)
		}
	}
	if err := a.Storage.Close(); err != nil {
		a.Log.Warn("Closing object storage failed", "error", err)
	}
	if a.dbService != nil {
		if err := a.dbService.Close(); err != nil {
			a.Log.Warn("Closing database failed", "error", err)
		}
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.otelShutdown(ctx)
	}
	a.Log.Sync()
}
