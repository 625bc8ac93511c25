package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestSignAndVerifyRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ENV", "test")

	token, err := SignJWT(Claims{Sub: "user-1", Email: "jane@example.com", Name: "Jane"})
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	claims, err := VerifyJWT(token)
	if err != nil {
		t.Fatalf("VerifyJWT: %v", err)
	}
	if claims.Sub != "user-1" || claims.Email != "jane@example.com" || claims.Name != "Jane" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.Exp-claims.Iat != int64(defaultTTL/time.Second) {
		t.Fatalf("expected default ttl, got exp=%d iat=%d", claims.Exp, claims.Iat)
	}
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ENV", "test")

	expired, err := SignJWT(Claims{Sub: "user-1", Iat: time.Now().Add(-2 * time.Hour).Unix(), Exp: time.Now().Add(-time.Hour).Unix()})
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	valid, err := SignJWT(Claims{Sub: "user-1"})
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "user-1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	cases := map[string]string{
		"garbage":      "not-a-token",
		"expired":      expired,
		"tampered":     valid[:strings.LastIndex(valid, ".")] + ".AAAA",
		"alg none":     none,
		"empty string": "",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := VerifyJWT(token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}

	t.Setenv("JWT_SECRET", "other-secret")
	if _, err := VerifyJWT(valid); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected signature mismatch to fail, got %v", err)
	}
}

func TestSecretRequiredInProduction(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("ENV", "production")
	if _, err := SignJWT(Claims{Sub: "user-1"}); !errors.Is(err, errMissingSecret) {
		t.Fatalf("expected missing secret error, got %v", err)
	}
}

func TestSignRequiresSubject(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	if _, err := SignJWT(Claims{Email: "x@example.com"}); err == nil {
		t.Fatalf("expected error for empty sub")
	}
}
