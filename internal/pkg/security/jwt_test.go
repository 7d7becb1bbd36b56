package security

import (
	"strings"
	"testing"
	"time"

	"Marketplace/internal/api/config"
)

func setup(t *testing.T) {
	t.Helper()
	if err := Init(config.JWTConfig{Secret: "test-secret", Issuer: "Marketplace", ExpireHour: 1}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
}

func TestInitRejectsEmptySecret(t *testing.T) {
	if err := Init(config.JWTConfig{}); err == nil {
		t.Error("Init() with empty secret should fail")
	}
}

func TestGenerateAndValidate(t *testing.T) {
	setup(t)
	token, err := GenerateToken("7d9f1c2e-0000-4000-8000-000000000001")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.UserID != "7d9f1c2e-0000-4000-8000-000000000001" {
		t.Errorf("UserID = %q", claims.UserID)
	}
	if ttl := RemainingTTL(claims); ttl <= 0 || ttl > time.Hour {
		t.Errorf("RemainingTTL() = %v, want (0, 1h]", ttl)
	}
}

func TestValidateRejects(t *testing.T) {
	setup(t)
	token, _ := GenerateToken("u1")

	sig, _ := ExtractSignature(token)
	flipped := "A"
	if sig[0] == 'A' {
		flipped = "B"
	}
	tampered := strings.TrimSuffix(token, sig) + flipped + sig[1:]
	if _, err := ValidateToken(tampered); err == nil {
		t.Error("tampered signature accepted")
	}
	if _, err := ValidateToken("not-a-token"); err == nil {
		t.Error("garbage accepted")
	}

	if err := Init(config.JWTConfig{Secret: "another-secret"}); err != nil {
		t.Fatal(err)
	}
	if _, err := ValidateToken(token); err == nil {
		t.Error("token signed with old secret accepted")
	}
}

func TestGenerateTokenRequiresUser(t *testing.T) {
	setup(t)
	if _, err := GenerateToken(""); err == nil {
		t.Error("GenerateToken(\"\") should fail")
	}
}

func TestExtractSignature(t *testing.T) {
	setup(t)
	token, _ := GenerateToken("u1")
	sig, err := ExtractSignature(token)
	if err != nil || !strings.HasSuffix(token, "."+sig) {
		t.Errorf("ExtractSignature() = %q, %v", sig, err)
	}
	for _, bad := range []string{"", "a.b", "a.b."} {
		if _, err := ExtractSignature(bad); err == nil {
			t.Errorf("ExtractSignature(%q) should fail", bad)
		}
	}
}
