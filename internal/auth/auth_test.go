package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"property-marketplace-api/internal/model"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2hunter2")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "hunter2hunter2" {
		t.Fatal("password stored in the clear")
	}
	if !CheckPassword(hash, "hunter2hunter2") {
		t.Error("correct password rejected")
	}
	if CheckPassword(hash, "hunter3hunter3") {
		t.Error("wrong password accepted")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	tok, err := MakeToken("u-1", model.RoleAgent, "secret", time.Minute)
	if err != nil {
		t.Fatalf("make: %v", err)
	}
	c, err := ParseToken(tok, "secret")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.UserID != "u-1" || c.Role != model.RoleAgent {
		t.Errorf("claims mismatch: %+v", c)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	tok, err := MakeToken("u-1", model.RoleClient, "secret", time.Minute)
	if err != nil {
		t.Fatalf("make: %v", err)
	}
	if _, err := ParseToken(tok, "other"); err == nil {
		t.Error("token verified with wrong secret")
	}
}

func TestTokenExpired(t *testing.T) {
	// MakeToken clamps non-positive TTLs, so build the expired token by hand
	c := Claims{
		UserID: "u-1",
		Role:   model.RoleClient,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Minute)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseToken(tok, "secret"); err == nil {
		t.Error("expired token accepted")
	}
}

func TestRefreshTokenHash(t *testing.T) {
	raw, hash, err := GenerateRefreshToken()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if raw == "" || hash == "" || raw == hash {
		t.Fatalf("bad pair: raw=%q hash=%q", raw, hash)
	}
	if HashRefreshToken(raw) != hash {
		t.Error("hash is not reproducible from the raw token")
	}

	raw2, _, err := GenerateRefreshToken()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if raw2 == raw {
		t.Error("two generated tokens collided")
	}
}
