package services

import (
	"testing"

	"layeredge/internal/models"
)

func TestAuthenticationRoundTrip(t *testing.T) {
	authentication, err := NewAuthentication("test-secret")
	if err != nil {
		t.Fatalf("new authentication: %v", err)
	}

	user := &models.UserFromAuth{
		TwitterID:   "100",
		Username:    "alice",
		DisplayName: "Alice",
		Avatar:      "https://example.com/a.png",
	}

	token, err := authentication.CreateToken(user)
	if err != nil {
		t.Fatalf("create token: %v", err)
	}

	got, err := authentication.Validate(token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if *got != *user {
		t.Fatalf("claims mismatch: got %+v, want %+v", got, user)
	}
}

func TestAuthenticationWrongSecret(t *testing.T) {
	issuer, _ := NewAuthentication("secret-a")
	verifier, _ := NewAuthentication("secret-b")

	token, err := issuer.CreateToken(&models.UserFromAuth{TwitterID: "100", Username: "alice"})
	if err != nil {
		t.Fatalf("create token: %v", err)
	}

	if _, err := verifier.Validate(token); err == nil {
		t.Fatal("token signed with another secret must not validate")
	}
}

func TestAuthenticationGarbageToken(t *testing.T) {
	authentication, _ := NewAuthentication("test-secret")
	if _, err := authentication.Validate("not-a-jwt"); err == nil {
		t.Fatal("garbage token must not validate")
	}
}
