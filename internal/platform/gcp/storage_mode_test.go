package gcp

import (
	"errors"
	"testing"
)

func TestResolveObjectStorageConfig(t *testing.T) {
	cases := []struct {
		name     string
		mode     string
		host     string
		bucket   string
		want     ObjectStorageMode
		inferred bool
		errCode  ObjectStorageConfigErrorCode
	}{
		{name: "default gcs", bucket: "media", want: ObjectStorageModeGCS, inferred: true},
		{name: "explicit gcs ignores host", mode: "gcs", host: "http://fake-gcs:4443", bucket: "media", want: ObjectStorageModeGCS},
		{name: "explicit emulator", mode: "gcs_emulator", host: "http://fake-gcs:4443", bucket: "media", want: ObjectStorageModeGCSEmulator},
		{name: "compat fallback", host: "http://fake-gcs:4443", bucket: "media", want: ObjectStorageModeGCSEmulator, inferred: true},
		{name: "local needs no bucket", mode: "LOCAL", want: ObjectStorageModeLocal},
		{name: "invalid mode", mode: "s3", errCode: ObjectStorageConfigErrorInvalidMode},
		{name: "missing bucket", mode: "gcs", errCode: ObjectStorageConfigErrorMissingBucket},
		{name: "missing emulator host", mode: "gcs_emulator", bucket: "media", errCode: ObjectStorageConfigErrorMissingEmulatorHost},
		{name: "invalid emulator host", mode: "gcs_emulator", host: "fake-gcs:4443", bucket: "media", errCode: ObjectStorageConfigErrorInvalidEmulatorHost},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := ResolveObjectStorageConfig(tc.mode, tc.host, tc.bucket)
			if tc.errCode != "" {
				var cfgErr *ObjectStorageConfigError
				if !errors.As(err, &cfgErr) || cfgErr.Code != tc.errCode {
					t.Fatalf("expected error code %q, got %v", tc.errCode, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveObjectStorageConfig: %v", err)
			}
			if cfg.Mode != tc.want {
				t.Fatalf("mode: want=%q got=%q", tc.want, cfg.Mode)
			}
			if cfg.Inferred != tc.inferred {
				t.Fatalf("inferred: want=%v got=%v", tc.inferred, cfg.Inferred)
			}
		})
	}
}

func TestObjectStorageConfigHelpers(t *testing.T) {
	cfg := ObjectStorageConfig{Mode: ObjectStorageModeGCS}
	if cfg.IsEmulatorMode() {
		t.Fatalf("gcs config should not be emulator mode")
	}
	if got := cfg.Source(); got != "configured" {
		t.Fatalf("Source: want=configured got=%q", got)
	}
	cfg = ObjectStorageConfig{Mode: ObjectStorageModeGCSEmulator, Inferred: true}
	if !cfg.IsEmulatorMode() || cfg.Source() != "inferred" {
		t.Fatalf("unexpected helpers for %+v", cfg)
	}
	if ObjectStorageMode("invalid").Valid() || ObjectStorageModeLocal.UsesBucket() {
		t.Fatalf("unexpected mode predicates")
	}
}

func TestMediaBucketEmulatorURLs(t *testing.T) {
	b := &MediaBucket{bucket: "media", emulatorHost: "http://fake-gcs:4443"}
	if got := b.emulatorMediaURL("pitches/o/p/a b.png"); got != "http://fake-gcs:4443/storage/v1/b/media/o/pitches%2Fo%2Fp%2Fa%20b.png?alt=media" {
		t.Fatalf("emulatorMediaURL: %q", got)
	}
	b.publicBaseURL = "http://localhost:4443"
	if got := b.emulatorMediaURL("k.png"); got != "http://localhost:4443/storage/v1/b/media/o/k.png?alt=media" {
		t.Fatalf("emulatorMediaURL with public base: %q", got)
	}
	if got := b.emulatorMetaURL("k.png"); got != "http://fake-gcs:4443/storage/v1/b/media/o/k.png" {
		t.Fatalf("emulatorMetaURL: %q", got)
	}
}
