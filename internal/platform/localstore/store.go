package localstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yungbote/pitchroom-backend/internal/platform/logger"
	"github.com/yungbote/pitchroom-backend/internal/platform/objectstore"
)

const handleIssuer = "pitchroom-localstore"

var (
	ErrInvalidHandle = errors.New("invalid media handle")
	ErrExpiredHandle = errors.New("media handle expired")
)

type Config struct {
	// Root is the directory objects are written under.
	Root string
	// SigningKey signs retrieval handles. It must be at least 16 bytes.
	SigningKey []byte
	// BaseURL prefixes issued handles, e.g. http://localhost:8080/media/signed.
	BaseURL string
}

type Option func(*Store)

// WithClock overrides the clock used for issuing and checking handles.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store keeps objects on local disk and serves them through signed JWT handles.
type Store struct {
	log     *logger.Logger
	root    string
	key     []byte
	baseURL string
	now     func() time.Time
}

var (
	_ objectstore.Store         = (*Store)(nil)
	_ objectstore.PrefixDeleter = (*Store)(nil)
)

type handleClaims struct {
	Path string `json:"path"`
	jwt.RegisteredClaims
}

func New(cfg Config, log *logger.Logger, opts ...Option) (*Store, error) {
	root := strings.TrimSpace(cfg.Root)
	if root == "" {
		return nil, fmt.Errorf("local storage root is required")
	}
	if len(cfg.SigningKey) < 16 {
		return nil, fmt.Errorf("local storage signing key must be at least 16 bytes")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve local storage root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create local storage root: %w", err)
	}
	if log == nil {
		log = logger.Nop()
	}
	s := &Store{
		log:     log.With("service", "LocalStore"),
		root:    abs,
		key:     append([]byte(nil), cfg.SigningKey...),
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) fullPath(p string) (string, string, error) {
	clean, err := objectstore.CleanPath(p)
	if err != nil {
		return "", "", err
	}
	return clean, filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

func (s *Store) Put(ctx context.Context, p string, r io.Reader, contentType string) error {
	_, full, err := s.fullPath(p)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create object dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp object: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close object: %w", err)
	}
	if err := os.Rename(tmpName, full); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("commit object: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, p string) error {
	_, full, err := s.fullPath(p)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return objectstore.ErrNotFound
		}
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

func (s *Store) Stat(ctx context.Context, p string) (*objectstore.ObjectAttrs, error) {
	clean, full, err := s.fullPath(p)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, objectstore.ErrNotFound
		}
		return nil, fmt.Errorf("stat object: %w", err)
	}
	if info.IsDir() {
		return nil, objectstore.ErrNotFound
	}
	return &objectstore.ObjectAttrs{
		Path:        clean,
		Size:        info.Size(),
		ContentType: mime.TypeByExtension(filepath.Ext(clean)),
		Updated:     info.ModTime().UTC(),
	}, nil
}

// SignedGet issues a JWT handle whose exp claim is exactly ttl after the store clock.
func (s *Store) SignedGet(ctx context.Context, p string, ttl time.Duration) (string, error) {
	clean, _, err := s.fullPath(p)
	if err != nil {
		return "", err
	}
	if ttl <= 0 {
		return "", fmt.Errorf("ttl must be positive")
	}
	now := s.now()
	claims := handleClaims{
		Path: clean,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    handleIssuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign media handle: %w", err)
	}
	if s.baseURL == "" {
		return "/media/signed/" + url.PathEscape(token), nil
	}
	return s.baseURL + "/" + url.PathEscape(token), nil
}

// Resolve verifies a handle and returns the object path it grants.
func (s *Store) Resolve(token string) (string, error) {
	var claims handleClaims
	parsed, err := jwt.ParseWithClaims(strings.TrimSpace(token), &claims, func(t *jwt.Token) (any, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(handleIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredHandle
		}
		return "", ErrInvalidHandle
	}
	if !parsed.Valid {
		return "", ErrInvalidHandle
	}
	clean, err := objectstore.CleanPath(claims.Path)
	if err != nil {
		return "", ErrInvalidHandle
	}
	return clean, nil
}

// Open resolves a handle and opens the object for reading.
func (s *Store) Open(ctx context.Context, token string) (io.ReadCloser, *objectstore.ObjectAttrs, error) {
	p, err := s.Resolve(token)
	if err != nil {
		return nil, nil, err
	}
	attrs, err := s.Stat(ctx, p)
	if err != nil {
		return nil, nil, err
	}
	_, full, _ := s.fullPath(p)
	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, objectstore.ErrNotFound
		}
		return nil, nil, fmt.Errorf("open object: %w", err)
	}
	return f, attrs, nil
}

func (s *Store) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	_, full, err := s.fullPath(strings.TrimRight(prefix, "/"))
	if err != nil {
		return 0, err
	}
	removed := 0
	err = filepath.WalkDir(full, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if errors.Is(walkErr, fs.ErrNotExist) {
				return nil
			}
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		removed++
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("delete prefix: %w", err)
	}
	if err := os.RemoveAll(full); err != nil {
		s.log.Warn("Failed to remove emptied prefix", "prefix", prefix, "error", err)
	}
	return removed, nil
}
