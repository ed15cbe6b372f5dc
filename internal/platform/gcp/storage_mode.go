package gcp

import (
	"fmt"
	"net/url"
	"strings"
)

// ObjectStorageMode selects where pitch media bytes live.
type ObjectStorageMode string

const (
	ObjectStorageModeGCS         ObjectStorageMode = "gcs"
	ObjectStorageModeGCSEmulator ObjectStorageMode = "gcs_emulator"
	// ObjectStorageModeLocal keeps objects on local disk (see platform/localstore).
	ObjectStorageModeLocal ObjectStorageMode = "local"
)

func (m ObjectStorageMode) Valid() bool {
	switch m {
	case ObjectStorageModeGCS, ObjectStorageModeGCSEmulator, ObjectStorageModeLocal:
		return true
	}
	return false
}

// UsesBucket reports whether the mode talks to a GCS bucket, real or emulated.
func (m ObjectStorageMode) UsesBucket() bool {
	return m == ObjectStorageModeGCS || m == ObjectStorageModeGCSEmulator
}

type ObjectStorageConfig struct {
	Mode         ObjectStorageMode
	EmulatorHost string
	Bucket       string
	// Inferred is set when no mode was configured and one was picked from the environment.
	Inferred bool
}

func (cfg ObjectStorageConfig) IsEmulatorMode() bool {
	return cfg.Mode == ObjectStorageModeGCSEmulator
}

// Source labels how the mode was chosen, for startup logs.
func (cfg ObjectStorageConfig) Source() string {
	if cfg.Inferred {
		return "inferred"
	}
	return "configured"
}

type ObjectStorageConfigErrorCode string

const (
	ObjectStorageConfigErrorInvalidMode         ObjectStorageConfigErrorCode = "invalid_mode"
	ObjectStorageConfigErrorMissingEmulatorHost ObjectStorageConfigErrorCode = "missing_emulator_host"
	ObjectStorageConfigErrorInvalidEmulatorHost ObjectStorageConfigErrorCode = "invalid_emulator_host"
	ObjectStorageConfigErrorMissingBucket       ObjectStorageConfigErrorCode = "missing_bucket"
)

type ObjectStorageConfigError struct {
	Code         ObjectStorageConfigErrorCode
	Mode         string
	EmulatorHost string
	Cause        error
}

func (e *ObjectStorageConfigError) Error() string {
	if e == nil {
		return "invalid object storage config"
	}
	switch e.Code {
	case ObjectStorageConfigErrorInvalidMode:
		return fmt.Sprintf("OBJECT_STORAGE_MODE=%q is not one of gcs, gcs_emulator, local", e.Mode)
	case ObjectStorageConfigErrorMissingEmulatorHost:
		return "OBJECT_STORAGE_MODE=gcs_emulator needs STORAGE_EMULATOR_HOST"
	case ObjectStorageConfigErrorInvalidEmulatorHost:
		return fmt.Sprintf("STORAGE_EMULATOR_HOST=%q is not an absolute url such as http://fake-gcs:4443", e.EmulatorHost)
	case ObjectStorageConfigErrorMissingBucket:
		return fmt.Sprintf("OBJECT_STORAGE_MODE=%q needs MEDIA_GCS_BUCKET_NAME", e.Mode)
	}
	return "invalid object storage config"
}

func (e *ObjectStorageConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// ResolveObjectStorageConfig turns raw env values into a validated config. With no mode set,
// an emulator host selects the emulator and anything else selects GCS.
func ResolveObjectStorageConfig(rawMode, emulatorHost, bucket string) (ObjectStorageConfig, error) {
	cfg := ObjectStorageConfig{
		Mode:         ObjectStorageMode(strings.ToLower(strings.TrimSpace(rawMode))),
		EmulatorHost: strings.TrimSpace(emulatorHost),
		Bucket:       strings.TrimSpace(bucket),
	}
	if cfg.Mode == "" {
		cfg.Inferred = true
		cfg.Mode = ObjectStorageModeGCS
		if cfg.EmulatorHost != "" {
			cfg.Mode = ObjectStorageModeGCSEmulator
		}
	}
	if !cfg.Mode.Valid() {
		return cfg, &ObjectStorageConfigError{Code: ObjectStorageConfigErrorInvalidMode, Mode: rawMode}
	}
	return cfg, ValidateObjectStorageConfig(cfg)
}

func ValidateObjectStorageConfig(cfg ObjectStorageConfig) error {
	mode := string(cfg.Mode)
	switch {
	case !cfg.Mode.Valid():
		return &ObjectStorageConfigError{Code: ObjectStorageConfigErrorInvalidMode, Mode: mode}
	case !cfg.Mode.UsesBucket():
		return nil
	case cfg.Bucket == "":
		return &ObjectStorageConfigError{Code: ObjectStorageConfigErrorMissingBucket, Mode: mode}
	case !cfg.IsEmulatorMode():
		return nil
	case cfg.EmulatorHost == "":
		return &ObjectStorageConfigError{Code: ObjectStorageConfigErrorMissingEmulatorHost, Mode: mode}
	}
	u, err := url.Parse(cfg.EmulatorHost)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return &ObjectStorageConfigError{
			Code:         ObjectStorageConfigErrorInvalidEmulatorHost,
			Mode:         mode,
			EmulatorHost: cfg.EmulatorHost,
			Cause:        err,
		}
	}
	return nil
}
