package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yungbote/pitchroom-backend/internal/platform/ctxutil"
	"github.com/yungbote/pitchroom-backend/internal/platform/logger"
)

// ErrInvalidToken is returned for any token the verifier will not accept.
var ErrInvalidToken = errors.New("invalid or expired token")

type IdentityConfig struct {
	// Secret is the HS256 key shared with the identity provider.
	Secret string
	// Issuer, when set, must match the token's iss claim.
	Issuer string
	Leeway time.Duration
}

// IdentityVerifier resolves a bearer token issued by the external identity provider.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (ctxutil.Viewer, error)
}

type identityVerifier struct {
	log    *logger.Logger
	cfg    IdentityConfig
	parser *jwt.Parser
}

func NewIdentityVerifier(baseLog *logger.Logger, cfg IdentityConfig) (IdentityVerifier, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, fmt.Errorf("identity secret is required")
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(cfg.Leeway),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	return &identityVerifier{
		log:    baseLog.With("service", "IdentityVerifier"),
		cfg:    cfg,
		parser: jwt.NewParser(opts...),
	}, nil
}

func (v *identityVerifier) Verify(ctx context.Context, token string) (ctxutil.Viewer, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return ctxutil.Viewer{}, ErrInvalidToken
	}
	claims := &jwt.RegisteredClaims{}
	parsed, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(v.cfg.Secret), nil
	})
	if err != nil || !parsed.Valid {
		v.log.Debug("Rejected bearer token", "error", err)
		return ctxutil.Viewer{}, ErrInvalidToken
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID == uuid.Nil {
		return ctxutil.Viewer{}, fmt.Errorf("%w: subject is not a user id", ErrInvalidToken)
	}
	return ctxutil.Viewer{UserID: userID, Token: token}, nil
}
