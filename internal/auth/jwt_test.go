package auth_test

import (
	"strings"
	"testing"
	"time"

	"github.com/quizlearner/backend/internal/auth"
)

func TestTokenService_IssueAndParse(t *testing.T) {
	svc := auth.NewTokenService("test-secret", time.Hour)

	token, err := svc.Issue("user1", "ada@example.com", "user")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := svc.Parse(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.UserID != "user1" {
		t.Errorf("expected user1, got %q", claims.UserID)
	}
	if claims.Email != "ada@example.com" {
		t.Errorf("expected ada@example.com, got %q", claims.Email)
	}
	if claims.Role != "user" {
		t.Errorf("expected user, got %q", claims.Role)
	}
}

func TestTokenService_Expired(t *testing.T) {
	svc := auth.NewTokenService("test-secret", -time.Minute)

	token, err := svc.Issue("user1", "ada@example.com", "user")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.Parse(token); err == nil {
		t.Error("expected error for expired token")
	}
}

func TestTokenService_WrongSecret(t *testing.T) {
	issuer := auth.NewTokenService("secret-a", time.Hour)
	parser := auth.NewTokenService("secret-b", time.Hour)

	token, err := issuer.Issue("user1", "ada@example.com", "user")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := parser.Parse(token); err == nil {
		t.Error("expected error for mismatched secret")
	}
}

func TestTokenService_Garbage(t *testing.T) {
	svc := auth.NewTokenService("test-secret", time.Hour)
	if _, err := svc.Parse("not.a.token"); err == nil {
		t.Error("expected error for malformed token")
	}
	if _, err := svc.Parse(strings.Repeat("x", 40)); err == nil {
		t.Error("expected error for garbage input")
	}
}
