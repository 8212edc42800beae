package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/fleetyard/partsdepot-backend/pkg/config"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "unit-test-secret",
		Issuer:            "partsdepot-test",
		ExpirationMinutes: 15,
	}
}

func TestMintAndParseActorToken(t *testing.T) {
	cfg := testJWTConfig()
	userID := uuid.New()

	signed, err := MintActorToken(cfg, time.Now(), ActorTokenPayload{UserID: userID, DisplayName: "J. Mechanic"})
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	claims, err := ParseActorToken(cfg, signed)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if claims.UserID != userID {
		t.Fatalf("expected user id %s, got %s", userID, claims.UserID)
	}
	if claims.DisplayName != "J. Mechanic" {
		t.Fatalf("unexpected display name %q", claims.DisplayName)
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("unexpected issuer %q", claims.Issuer)
	}
}

func TestMintActorTokenRequiresUserID(t *testing.T) {
	if _, err := MintActorToken(testJWTConfig(), time.Now(), ActorTokenPayload{}); err == nil {
		t.Fatal("expected error for missing user id")
	}
}

func TestParseActorTokenRejectsWrongIssuer(t *testing.T) {
	cfg := testJWTConfig()
	signed, err := MintActorToken(cfg, time.Now(), ActorTokenPayload{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	other := cfg
	other.Issuer = "someone-else"
	if _, err := ParseActorToken(other, signed); err == nil {
		t.Fatal("expected issuer mismatch error")
	}
}

func TestParseActorTokenRejectsExpired(t *testing.T) {
	cfg := testJWTConfig()
	signed, err := MintActorToken(cfg, time.Now().Add(-2*time.Hour), ActorTokenPayload{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	if _, err := ParseActorToken(cfg, signed); err == nil {
		t.Fatal("expected expiry error")
	}
}
