package middleware

import (
	"os"
	"testing"
	"time"

	"lmsportal_go/config"
	"lmsportal_go/models"
)

func TestMain(m *testing.M) {
	config.AppConfig = &config.Config{
		JWTSecret:           "test-secret",
		JWTExpiresIn:        time.Hour,
		JWTRefreshExpiresIn: 24 * time.Hour,
	}
	os.Exit(m.Run())
}

func testUser() *models.User {
	return &models.User{
		BaseModel: models.BaseModel{ID: 42},
		Username:  "jdoe",
	}
}

func TestGenerateTokenPairRoundtrip(t *testing.T) {
	pair, err := GenerateTokenPair(testUser(), models.RoleTeacher)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pair.Access == "" || pair.Refresh == "" {
		t.Fatal("expected both tokens to be issued")
	}
	if pair.Access == pair.Refresh {
		t.Fatal("access and refresh tokens must differ")
	}

	claims, err := ParseToken(pair.Access)
	if err != nil {
		t.Fatalf("unexpected error parsing access token: %v", err)
	}
	if claims.UserID != 42 {
		t.Fatalf("expected user ID 42, got %d", claims.UserID)
	}
	if claims.Username != "jdoe" {
		t.Fatalf("expected username jdoe, got %q", claims.Username)
	}
	if claims.Role != models.RoleTeacher {
		t.Fatalf("expected role teacher, got %q", claims.Role)
	}
	if claims.TokenType != TokenTypeAccess {
		t.Fatalf("expected access token type, got %q", claims.TokenType)
	}
	if claims.ID == "" {
		t.Fatal("expected a token ID for revocation tracking")
	}

	refreshClaims, err := ParseToken(pair.Refresh)
	if err != nil {
		t.Fatalf("unexpected error parsing refresh token: %v", err)
	}
	if refreshClaims.TokenType != TokenTypeRefresh {
		t.Fatalf("expected refresh token type, got %q", refreshClaims.TokenType)
	}
	if refreshClaims.ID == claims.ID {
		t.Fatal("expected distinct token IDs")
	}
}

func TestRefreshTokenOutlivesAccessToken(t *testing.T) {
	pair, err := GenerateTokenPair(testUser(), models.RoleStudent)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	access, _ := ParseToken(pair.Access)
	refresh, _ := ParseToken(pair.Refresh)
	if !refresh.ExpiresAt.After(access.ExpiresAt.Time) {
		t.Fatal("refresh token must expire after the access token")
	}
}

func TestParseTokenRejectsTampered(t *testing.T) {
	pair, err := GenerateTokenPair(testUser(), models.RoleAdmin)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseToken(pair.Access + "x"); err == nil {
		t.Fatal("expected error for tampered token")
	}
	if _, err := ParseToken("not-a-token"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	pair, err := GenerateTokenPair(testUser(), models.RoleAdmin)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	config.AppConfig.JWTSecret = "rotated-secret"
	defer func() { config.AppConfig.JWTSecret = "test-secret" }()

	if _, err := ParseToken(pair.Access); err == nil {
		t.Fatal("expected error after secret rotation")
	}
}

// Without Redis the blacklist degrades to expiry-only: nothing is
// reported revoked and blacklisting is a no-op.
func TestBlacklistWithoutRedis(t *testing.T) {
	pair, err := GenerateTokenPair(testUser(), models.RoleStudent)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	claims, err := ParseToken(pair.Access)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	BlacklistToken(claims)
	if IsTokenBlacklisted(claims) {
		t.Fatal("expected token to not be blacklisted without Redis")
	}
}
