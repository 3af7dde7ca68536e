package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenRoundTrip(t *testing.T) {
	InitJWT("test-secret")

	token, err := GenerateToken("user-1", "priya_asg", "assigner")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != "user-1" || claims.Username != "priya_asg" || claims.Role != "assigner" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestTokenSignedWithConfiguredSecret(t *testing.T) {
	InitJWT("configured-secret")

	token, err := GenerateToken("user-1", "priya_asg", "assigner")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	// The token must verify against the configured key and nothing else.
	// In particular an empty key must fail: a key-resolution bug that signs
	// before configuration is loaded would produce tokens forgeable by
	// anyone holding the zero-value secret.
	parse := func(key []byte) error {
		_, err := jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (interface{}, error) {
			return key, nil
		})
		return err
	}

	if err := parse([]byte("configured-secret")); err != nil {
		t.Errorf("token does not verify against the configured secret: %v", err)
	}
	if err := parse([]byte("")); err == nil {
		t.Error("token verifies against an empty key")
	}
	if err := parse([]byte("other-secret")); err == nil {
		t.Error("token verifies against a different key")
	}
}

func TestTokenRejectedWhenSecretUnset(t *testing.T) {
	InitJWT("")

	if _, err := GenerateToken("user-1", "priya_asg", "assigner"); err == nil {
		t.Error("GenerateToken succeeded with no configured secret")
	}
	if _, err := ValidateToken("whatever"); err == nil {
		t.Error("ValidateToken succeeded with no configured secret")
	}
}

func TestValidateTokenRejectsMissingExpiry(t *testing.T) {
	InitJWT("test-secret")

	// A validly signed token that carries no exp claim must be rejected,
	// not dereferenced.
	noExpiry := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID:   "user-1",
		Username: "rahul_wrt",
		Role:     "writer",
	})
	token, err := noExpiry.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}

	if _, err := ValidateToken(token); err == nil {
		t.Error("token without expiry accepted")
	}
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	InitJWT("test-secret")

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	token, err := expired.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}

	if _, err := ValidateToken(token); err == nil {
		t.Error("expired token accepted")
	}
}
