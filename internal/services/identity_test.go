package services

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yungbote/pitchroom-backend/internal/data/repos/testutil"
)

func signIdentity(t *testing.T, secret string, claims jwt.RegisteredClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func TestIdentityVerifier(t *testing.T) {
	const secret = "identity-secret-for-tests"
	v, err := NewIdentityVerifier(testutil.Logger(t), IdentityConfig{Secret: secret, Issuer: "idp"})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	user := uuid.New()
	now := time.Now()
	valid := jwt.RegisteredClaims{
		Subject:   user.String(),
		Issuer:    "idp",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}

	viewer, err := v.Verify(t.Context(), signIdentity(t, secret, valid))
	if err != nil || viewer.UserID != user || !viewer.Authenticated() {
		t.Fatalf("valid token: %+v %v", viewer, err)
	}

	expired := valid
	expired.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Minute))
	wrongIssuer := valid
	wrongIssuer.Issuer = "elsewhere"
	badSubject := valid
	badSubject.Subject = "alice"
	noExpiry := valid
	noExpiry.ExpiresAt = nil

	cases := map[string]string{
		"empty":        "",
		"garbage":      "not-a-jwt",
		"expired":      signIdentity(t, secret, expired),
		"wrong issuer": signIdentity(t, secret, wrongIssuer),
		"bad subject":  signIdentity(t, secret, badSubject),
		"no expiry":    signIdentity(t, secret, noExpiry),
		"foreign key":  signIdentity(t, "some-other-secret", valid),
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := v.Verify(t.Context(), tok); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}

	if _, err := NewIdentityVerifier(testutil.Logger(t), IdentityConfig{}); err == nil {
		t.Fatalf("expected missing secret to fail")
	}
}
