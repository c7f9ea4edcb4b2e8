package jwt

import (
	"testing"
)

func useTestSecret(t *testing.T) {
	t.Helper()
	SetSecret([]byte("test-secret"))
	t.Cleanup(func() { SetSecret(nil) })
}

func TestCreateAndParseAnonymousToken(t *testing.T) {
	useTestSecret(t)

	token, identity, err := CreateAnonymousToken("app-1")
	if err != nil {
		t.Fatalf("CreateAnonymousToken error: %v", err)
	}
	if token == "" || identity.UserID == "" {
		t.Fatal("expected non-empty token and player id")
	}

	parsed, err := ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken error: %v", err)
	}
	if parsed.UserID != identity.UserID {
		t.Fatalf("expected user %q, got %q", identity.UserID, parsed.UserID)
	}
	if parsed.AppID != "app-1" {
		t.Fatalf("expected app id preserved, got %q", parsed.AppID)
	}
}

func TestParseTokenRejectsTampering(t *testing.T) {
	useTestSecret(t)

	token, _, err := CreateAnonymousToken("app-1")
	if err != nil {
		t.Fatalf("CreateAnonymousToken error: %v", err)
	}

	if _, err := ParseToken(token + "x"); err == nil {
		t.Fatal("expected error for tampered token")
	}
	if _, err := ParseToken(""); err == nil {
		t.Fatal("expected error for empty token")
	}
}

func TestParseTokenRequiresSecret(t *testing.T) {
	SetSecret(nil)
	if _, _, err := CreateAnonymousToken("app-1"); err == nil {
		t.Fatal("expected error without configured secret")
	}
}
