package app

import (
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/pitchroom-backend/internal/data/db"
	"github.com/yungbote/pitchroom-backend/internal/observability"
	"github.com/yungbote/pitchroom-backend/internal/platform/envutil"
	"github.com/yungbote/pitchroom-backend/internal/platform/logger"
	"github.com/yungbote/pitchroom-backend/internal/services"
)

const (
	GrantStoreMemory = "memory"
	GrantStoreRedis  = "redis"
)

type Config struct {
	Port string

	DB       db.Config
	Identity services.IdentityConfig

	ObjectStorageMode      string
	StorageEmulatorHost    string
	MediaBucket            string
	LocalStorageDir        string
	LocalStorageSigningKey string
	PublicBaseURL          string

	GrantStore    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	GrantTTL      time.Duration

	LedgerWebhookSecret  string
	UploadConcurrency    int
	MaxUploadBytes       int64
	TitleCountsAsContent bool
	CORSAllowedOrigins   []string

	Otel observability.OtelConfig
}

func LoadConfig(log *logger.Logger) Config {
	sampleRatio, err := strconv.ParseFloat(envutil.String("OTEL_SAMPLE_RATIO", "1", log), 64)
	if err != nil {
		sampleRatio = 1
	}
	return Config{
		Port: envutil.String("PORT", "8080", log),
		DB: db.Config{
			Driver:           envutil.String("DB_DRIVER", db.DriverPostgres, log),
			PostgresHost:     envutil.String("POSTGRES_HOST", "localhost", log),
			PostgresPort:     envutil.String("POSTGRES_PORT", "5432", log),
			PostgresUser:     envutil.String("POSTGRES_USER", "postgres", log),
			PostgresPassword: envutil.String("POSTGRES_PASSWORD", "", log),
			PostgresName:     envutil.String("POSTGRES_NAME", "pitchroom", log),
			SQLitePath:       envutil.String("SQLITE_PATH", "pitchroom.db", log),
		},
		Identity: services.IdentityConfig{
			Secret: envutil.String("IDENTITY_JWT_SECRET", "", log),
			Issuer: envutil.String("IDENTITY_JWT_ISSUER", "", log),
			Leeway: envutil.Duration("IDENTITY_JWT_LEEWAY", 30*time.Second, log),
		},

		ObjectStorageMode:      envutil.String("OBJECT_STORAGE_MODE", "", log),
		StorageEmulatorHost:    envutil.String("STORAGE_EMULATOR_HOST", "", log),
		MediaBucket:            envutil.String("MEDIA_GCS_BUCKET_NAME", "", log),
		LocalStorageDir:        envutil.String("LOCAL_STORAGE_DIR", "./data/media", log),
		LocalStorageSigningKey: envutil.String("LOCAL_STORAGE_SIGNING_KEY", "", log),
		PublicBaseURL:          strings.TrimRight(envutil.String("PUBLIC_BASE_URL", "", log), "/"),

		GrantStore:    strings.ToLower(envutil.String("GRANT_STORE", GrantStoreMemory, log)),
		RedisAddr:     envutil.String("REDIS_ADDR", "", log),
		RedisPassword: envutil.String("REDIS_PASSWORD", "", log),
		RedisDB:       envutil.Int("REDIS_DB", 0, log),
		GrantTTL:      envutil.Duration("GRANT_TTL", time.Hour, log),

		LedgerWebhookSecret:  envutil.String("LEDGER_WEBHOOK_SECRET", "", log),
		UploadConcurrency:    envutil.Int("UPLOAD_CONCURRENCY", 4, log),
		MaxUploadBytes:       int64(envutil.Int("MAX_UPLOAD_BYTES", 25<<20, log)),
		TitleCountsAsContent: envutil.Bool("TITLE_COUNTS_AS_CONTENT", false, log),
		CORSAllowedOrigins:   envutil.List("CORS_ALLOWED_ORIGINS", nil, log),

		Otel: observability.OtelConfig{
			Enabled:     envutil.Bool("OTEL_ENABLED", false, log),
			ServiceName: envutil.String("OTEL_SERVICE_NAME", "pitchroom-backend", log),
			Environment: envutil.String("OTEL_ENVIRONMENT", "development", log),
			Version:     envutil.String("OTEL_SERVICE_VERSION", "", log),
			Exporter:    envutil.String("OTEL_TRACES_EXPORTER", "", log),
			Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", "", log),
			Headers:     observability.ParseHeaders(envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "", log)),
			Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false, log),
			SampleRatio: sampleRatio,
		},
	}
}
