package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestGenerateAndParse(t *testing.T) {
	m := NewJWTManager(testSecret, time.Minute)

	token, err := m.GenerateAccessToken(42, "adm_access", []string{"viewer"})
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	claims, err := m.ParseAndValidate(token)
	if err != nil {
		t.Fatalf("ParseAndValidate: %v", err)
	}
	if claims.SubjectID() != "42" {
		t.Fatalf("subject = %s", claims.SubjectID())
	}
	roles := claims.AllRoles()
	if len(roles) != 2 || roles[0] != "adm_access" || roles[1] != "viewer" {
		t.Fatalf("roles = %v", roles)
	}
}

func TestParseRejectsOtherSecret(t *testing.T) {
	token, err := NewJWTManager(strings.Repeat("x", 32), time.Minute).GenerateAccessToken(1, "viewer", nil)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	if _, err := NewJWTManager(testSecret, time.Minute).ParseAndValidate(token); err == nil {
		t.Fatal("token com outro segredo foi aceito")
	}
}

func TestParseRejectsExpired(t *testing.T) {
	m := NewJWTManager(testSecret, -time.Minute)
	token, err := m.GenerateAccessToken(1, "viewer", nil)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	if _, err := m.ParseAndValidate(token); err == nil {
		t.Fatal("token expirado foi aceito")
	}
}

func TestUserIDFallbackSubject(t *testing.T) {
	claims := Claims{
		UserID: 7,
		Role:   "adm_access",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	parsed, err := NewJWTManager(testSecret, time.Minute).ParseAndValidate(signed)
	if err != nil {
		t.Fatalf("ParseAndValidate: %v", err)
	}
	if parsed.SubjectID() != "7" {
		t.Fatalf("subject = %s", parsed.SubjectID())
	}
}
