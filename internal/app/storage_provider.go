package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/pitchroom-backend/internal/platform/gcp"
	"github.com/yungbote/pitchroom-backend/internal/platform/localstore"
	"github.com/yungbote/pitchroom-backend/internal/platform/logger"
	"github.com/yungbote/pitchroom-backend/internal/platform/objectstore"
)

var newMediaBucket = func(ctx context.Context, log *logger.Logger, cfg gcp.ObjectStorageConfig, publicBaseURL string) (objectstore.Store, func() error, error) {
	b, err := gcp.NewMediaBucket(ctx, log, cfg, publicBaseURL, gcp.ClientOptionsFromEnv()...)
	if err != nil {
		return nil, nil, err
	}
	return b, b.Close, nil
}

type StorageProviderBootstrapErrorCode string

const (
	StorageProviderBootstrapErrorInvalidMode         StorageProviderBootstrapErrorCode = "invalid_mode"
	StorageProviderBootstrapErrorMissingEmulatorHost StorageProviderBootstrapErrorCode = "missing_emulator_host"
	StorageProviderBootstrapErrorInvalidEmulatorHost StorageProviderBootstrapErrorCode = "invalid_emulator_host"
	StorageProviderBootstrapErrorMissingBucket       StorageProviderBootstrapErrorCode = "missing_bucket"
	StorageProviderBootstrapErrorMissingSigningKey   StorageProviderBootstrapErrorCode = "missing_signing_key"
	StorageProviderBootstrapErrorConnectFailed       StorageProviderBootstrapErrorCode = "connect_failed"
)

type StorageProviderBootstrapError struct {
	Code         StorageProviderBootstrapErrorCode
	Mode         string
	EmulatorHost string
	Cause        error
}

func (e *StorageProviderBootstrapError) Error() string {
	if e == nil {
		return "object storage bootstrap failed"
	}
	return fmt.Sprintf(
		"object storage bootstrap failed (code=%s mode=%q emulator_host=%q): %v",
		e.Code,
		e.Mode,
		e.EmulatorHost,
		e.Cause,
	)
}

func (e *StorageProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// MediaStorage is the object store selected for this process. Local is set only in local mode,
// where the HTTP layer serves signed handles itself.
type MediaStorage struct {
	Mode  gcp.ObjectStorageMode
	Store objectstore.Store
	Local *localstore.Store
	close func() error
}

func (m *MediaStorage) Close() error {
	if m == nil || m.close == nil {
		return nil
	}
	return m.close()
}

func resolveMediaStorage(ctx context.Context, log *logger.Logger, cfg Config) (*MediaStorage, error) {
	storageCfg, err := gcp.ResolveObjectStorageConfig(cfg.ObjectStorageMode, cfg.StorageEmulatorHost, cfg.MediaBucket)
	if err != nil {
		classified := classifyStorageProviderBootstrapError(storageCfg, err)
		log.Error(
			"Object storage provider selection failed",
			"mode", cfg.ObjectStorageMode,
			"emulator_host", storageCfg.EmulatorHost,
			"error_code", storageProviderBootstrapErrorCode(classified),
			"error", classified,
		)
		return nil, classified
	}

	log.Info(
		"Selecting object storage provider",
		"mode", storageCfg.Mode,
		"mode_source", storageCfg.Source(),
		"emulator_host", storageCfg.EmulatorHost,
	)

	if storageCfg.Mode == gcp.ObjectStorageModeLocal {
		return resolveLocalStorage(log, cfg, storageCfg)
	}

	store, closeFn, err := newMediaBucket(ctx, log, storageCfg, cfg.PublicBaseURL)
	if err != nil {
		classified := classifyStorageProviderBootstrapError(storageCfg, err)
		log.Error(
			"Object storage provider bootstrap failed",
			"mode", storageCfg.Mode,
			"emulator_host", storageCfg.EmulatorHost,
			"error_code", storageProviderBootstrapErrorCode(classified),
			"error", classified,
		)
		return nil, classified
	}
	if storageCfg.IsEmulatorMode() {
		log.Warn(
			"Emulator media URLs are plain object links and never expire; do not expose this deployment",
			"mode", storageCfg.Mode,
			"emulator_host", storageCfg.EmulatorHost,
		)
	}
	return &MediaStorage{Mode: storageCfg.Mode, Store: store, close: closeFn}, nil
}

func resolveLocalStorage(log *logger.Logger, cfg Config, storageCfg gcp.ObjectStorageConfig) (*MediaStorage, error) {
	key := strings.TrimSpace(cfg.LocalStorageSigningKey)
	if key == "" {
		return nil, &StorageProviderBootstrapError{
			Code:  StorageProviderBootstrapErrorMissingSigningKey,
			Mode:  string(storageCfg.Mode),
			Cause: errors.New("LOCAL_STORAGE_SIGNING_KEY is required in local mode"),
		}
	}
	baseURL := ""
	if cfg.PublicBaseURL != "" {
		baseURL = cfg.PublicBaseURL + "/media/signed"
	}
	local, err := localstore.New(localstore.Config{
		Root:       cfg.LocalStorageDir,
		SigningKey: []byte(key),
		BaseURL:    baseURL,
	}, log)
	if err != nil {
		return nil, &StorageProviderBootstrapError{
			Code:  StorageProviderBootstrapErrorConnectFailed,
			Mode:  string(storageCfg.Mode),
			Cause: err,
		}
	}
	return &MediaStorage{Mode: storageCfg.Mode, Store: local, Local: local}, nil
}

func classifyStorageProviderBootstrapError(storageCfg gcp.ObjectStorageConfig, err error) error {
	var bootstrapErr *StorageProviderBootstrapError
	if errors.As(err, &bootstrapErr) {
		return bootstrapErr
	}
	code := StorageProviderBootstrapErrorConnectFailed
	var cfgErr *gcp.ObjectStorageConfigError
	if errors.As(err, &cfgErr) {
		switch cfgErr.Code {
		case gcp.ObjectStorageConfigErrorInvalidMode:
			code = StorageProviderBootstrapErrorInvalidMode
		case gcp.ObjectStorageConfigErrorMissingEmulatorHost:
			code = StorageProviderBootstrapErrorMissingEmulatorHost
		case gcp.ObjectStorageConfigErrorInvalidEmulatorHost:
			code = StorageProviderBootstrapErrorInvalidEmulatorHost
		case gcp.ObjectStorageConfigErrorMissingBucket:
			code = StorageProviderBootstrapErrorMissingBucket
		}
	}
	return &StorageProviderBootstrapError{
		Code:         code,
		Mode:         string(storageCfg.Mode),
		EmulatorHost: storageCfg.EmulatorHost,
		Cause:        err,
	}
}

func storageProviderBootstrapErrorCode(err error) StorageProviderBootstrapErrorCode {
	var bootstrapErr *StorageProviderBootstrapError
	if errors.As(err, &bootstrapErr) {
		if bootstrapErr.Code != "" {
			return bootstrapErr.Code
		}
	}
	return StorageProviderBootstrapErrorConnectFailed
}
