package gcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/yungbote/pitchroom-backend/internal/platform/logger"
	"github.com/yungbote/pitchroom-backend/internal/platform/objectstore"
)

// MediaBucket is the GCS realisation of the media object store.
type MediaBucket struct {
	log           *logger.Logger
	client        *storage.Client
	bucket        string
	mode          ObjectStorageMode
	emulatorHost  string
	publicBaseURL string
	httpClient    *http.Client
	now           func() time.Time
}

var (
	_ objectstore.Store         = (*MediaBucket)(nil)
	_ objectstore.PrefixDeleter = (*MediaBucket)(nil)
)

// NewMediaBucket connects to GCS (or the emulator) for the configured bucket.
// publicBaseURL overrides the host used for emulator media URLs.
func NewMediaBucket(ctx context.Context, log *logger.Logger, cfg ObjectStorageConfig, publicBaseURL string, opts ...option.ClientOption) (*MediaBucket, error) {
	if err := ValidateObjectStorageConfig(cfg); err != nil {
		return nil, fmt.Errorf("validate object storage config: %w", err)
	}
	if cfg.Mode == ObjectStorageModeLocal {
		return nil, fmt.Errorf("media bucket does not serve %q mode", cfg.Mode)
	}
	client, err := newStorageClientForMode(ctx, cfg, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	b := &MediaBucket{
		log:           log.With("service", "MediaBucket"),
		client:        client,
		bucket:        cfg.Bucket,
		mode:          cfg.Mode,
		emulatorHost:  strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/"),
		publicBaseURL: strings.TrimRight(strings.TrimSpace(publicBaseURL), "/"),
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		now:           func() time.Time { return time.Now().UTC() },
	}
	b.log.Info(
		"Object storage initialized",
		"mode", cfg.Mode,
		"mode_source", cfg.Source(),
		"emulator_host", cfg.EmulatorHost,
		"bucket", cfg.Bucket,
	)
	return b, nil
}

func newStorageClientForMode(ctx context.Context, cfg ObjectStorageConfig, extra []option.ClientOption) (*storage.Client, error) {
	switch cfg.Mode {
	case ObjectStorageModeGCS:
		opts := append([]option.ClientOption{}, extra...)
		if len(opts) == 0 {
			opts = ClientOptionsFromEnv()
		}
		opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
		return storage.NewClient(ctx, opts...)
	case ObjectStorageModeGCSEmulator:
		endpoint := strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/")
		_ = os.Setenv("STORAGE_EMULATOR_HOST", endpoint)
		return storage.NewClient(ctx, option.WithoutAuthentication())
	default:
		return nil, &ObjectStorageConfigError{
			Code: ObjectStorageConfigErrorInvalidMode,
			Mode: string(cfg.Mode),
		}
	}
}

func (b *MediaBucket) Close() error {
	if b == nil || b.client == nil {
		return nil
	}
	return b.client.Close()
}

func (b *MediaBucket) Put(ctx context.Context, path string, r io.Reader, contentType string) error {
	key, err := objectstore.CleanPath(path)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := b.client.Bucket(b.bucket).Object(key).NewWriter(ctx)
	w.ContentType = strings.TrimSpace(contentType)
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return nil
}

func (b *MediaBucket) Delete(ctx context.Context, path string) error {
	key, err := objectstore.CleanPath(path)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := b.client.Bucket(b.bucket).Object(key).Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return objectstore.ErrNotFound
		}
		return fmt.Errorf("failed to delete GCS object %q in bucket %q: %w", key, b.bucket, err)
	}
	return nil
}

// SignedGet issues a V4 signed GET URL. The emulator cannot verify signatures, so emulator
// mode returns its plain media URL instead.
func (b *MediaBucket) SignedGet(ctx context.Context, path string, ttl time.Duration) (string, error) {
	key, err := objectstore.CleanPath(path)
	if err != nil {
		return "", err
	}
	if ttl <= 0 {
		return "", fmt.Errorf("ttl must be positive")
	}
	if b.mode == ObjectStorageModeGCSEmulator {
		return b.emulatorMediaURL(key), nil
	}
	u, err := b.client.Bucket(b.bucket).SignedURL(key, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: b.now().Add(ttl),
	})
	if err != nil {
		return "", fmt.Errorf("sign GCS url: %w", err)
	}
	return u, nil
}

func (b *MediaBucket) Stat(ctx context.Context, path string) (*objectstore.ObjectAttrs, error) {
	key, err := objectstore.CleanPath(path)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if b.mode == ObjectStorageModeGCSEmulator {
		return b.emulatorStat(ctx, key)
	}
	attrs, err := b.client.Bucket(b.bucket).Object(key).Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, objectstore.ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch GCS object attrs: %w", err)
	}
	return &objectstore.ObjectAttrs{
		Path:        key,
		Size:        attrs.Size,
		ContentType: attrs.ContentType,
		Updated:     attrs.Updated,
	}, nil
}

func (b *MediaBucket) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	prefix = strings.TrimLeft(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return 0, fmt.Errorf("refusing to delete an empty prefix")
	}
	listCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	it := b.client.Bucket(b.bucket).Objects(listCtx, &storage.Query{Prefix: prefix})
	keys := []string{}
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("list GCS prefix %q: %w", prefix, err)
		}
		keys = append(keys, attrs.Name)
	}
	removed := 0
	for _, k := range keys {
		if err := b.Delete(ctx, k); err != nil && !errors.Is(err, objectstore.ErrNotFound) {
			b.log.Warn("Prefix sweep failed to delete object", "key", k, "error", err)
			continue
		}
		removed++
	}
	return removed, nil
}

func (b *MediaBucket) emulatorBase() string {
	if b.publicBaseURL != "" {
		return b.publicBaseURL
	}
	return b.emulatorHost
}

func (b *MediaBucket) emulatorMediaURL(key string) string {
	return fmt.Sprintf(
		"%s/storage/v1/b/%s/o/%s?alt=media",
		b.emulatorBase(),
		url.PathEscape(b.bucket),
		url.PathEscape(key),
	)
}

func (b *MediaBucket) emulatorMetaURL(key string) string {
	return fmt.Sprintf(
		"%s/storage/v1/b/%s/o/%s",
		b.emulatorHost,
		url.PathEscape(b.bucket),
		url.PathEscape(key),
	)
}

func (b *MediaBucket) emulatorStat(ctx context.Context, key string) (*objectstore.ObjectAttrs, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.emulatorMetaURL(key), nil)
	if err != nil {
		return nil, fmt.Errorf("failed creating emulator attrs request: %w", err)
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed emulator attrs request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, objectstore.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("emulator attrs failed: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var payload struct {
		Size        string `json:"size"`
		ContentType string `json:"contentType"`
		Updated     string `json:"updated"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode emulator attrs: %w", err)
	}
	size, _ := strconv.ParseInt(strings.TrimSpace(payload.Size), 10, 64)
	updated := time.Time{}
	if ts := strings.TrimSpace(payload.Updated); ts != "" {
		if parsed, parseErr := time.Parse(time.RFC3339, ts); parseErr == nil {
			updated = parsed
		}
	}
	return &objectstore.ObjectAttrs{
		Path:        key,
		Size:        size,
		ContentType: payload.ContentType,
		Updated:     updated,
	}, nil
}
