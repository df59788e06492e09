package api

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"taskhub/domain"
)

func signTestToken(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func testAuth(secret []byte) *Auth {
	return &Auth{
		Audience:   "api://aud",
		Issuer:     "https://issuer/",
		TestMode:   true,
		TestSecret: secret,
		parser:     jwt.NewParser(jwt.WithValidMethods([]string{"HS256"})),
	}
}

func baseClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub": "user-123",
		"aud": "api://aud",
		"iss": "https://issuer/",
		"exp": time.Now().Add(5 * time.Minute).Unix(),
		"nbf": time.Now().Add(-time.Minute).Unix(),
		"iat": time.Now().Add(-time.Minute).Unix(),
	}
}

func TestActorFromBearerWithRole(t *testing.T) {
	secret := []byte("test-secret")
	claims := baseClaims()
	claims["role"] = "admin"

	actor, err := testAuth(secret).ActorFromBearer(signTestToken(t, secret, claims))
	if err != nil {
		t.Fatalf("unexpected error verifying token: %v", err)
	}
	if actor.ID != "user-123" {
		t.Fatalf("unexpected actor id: %s", actor.ID)
	}
	if actor.Role != domain.RoleAdmin {
		t.Fatalf("unexpected role: %s", actor.Role)
	}
}

func TestActorRoleDefaultsToUser(t *testing.T) {
	secret := []byte("test-secret")
	actor, err := testAuth(secret).ActorFromBearer(signTestToken(t, secret, baseClaims()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if actor.Role != domain.RoleUser {
		t.Fatalf("expected default role user, got %s", actor.Role)
	}
}

func TestActorUnknownRoleRejected(t *testing.T) {
	secret := []byte("test-secret")
	claims := baseClaims()
	claims["role"] = "superuser"
	if _, err := testAuth(secret).ActorFromBearer(signTestToken(t, secret, claims)); err == nil {
		t.Fatal("expected unknown role to be rejected")
	}
}

func TestActorExpiredTokenRejected(t *testing.T) {
	secret := []byte("test-secret")
	claims := baseClaims()
	claims["exp"] = time.Now().Add(-5 * time.Minute).Unix()
	if _, err := testAuth(secret).ActorFromBearer(signTestToken(t, secret, claims)); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestActorFromAuthHeader(t *testing.T) {
	secret := []byte("test-secret")
	auth := testAuth(secret)

	if _, err := auth.ActorFromAuthHeader(""); err != errMissingAuthorization {
		t.Fatalf("expected missing header error, got %v", err)
	}
	if _, err := auth.ActorFromAuthHeader("Basic abc"); err != errBadAuthorization {
		t.Fatalf("expected bad header error, got %v", err)
	}

	actor, err := auth.ActorFromAuthHeader("Bearer " + signTestToken(t, secret, baseClaims()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if actor.ID != "user-123" {
		t.Fatalf("unexpected actor id: %s", actor.ID)
	}
}
