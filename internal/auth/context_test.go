package auth

import (
	"context"
	"testing"
)

func TestWithAuthAndFromContext(t *testing.T) {
	ac := AuthContext{
		UserID:    "user-1",
		Email:     "alice@example.com",
		Scopes:    []string{"admin"},
		SessionID: "sess-1",
	}

	ctx := WithAuth(context.Background(), ac)
	got, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected AuthContext in context")
	}
	if got.UserID != "user-1" {
		t.Errorf("UserID = %q, want user-1", got.UserID)
	}
	if got.Email != "alice@example.com" {
		t.Errorf("Email = %q, want alice@example.com", got.Email)
	}
	if got.SessionID != "sess-1" {
		t.Errorf("SessionID = %q, want sess-1", got.SessionID)
	}
}

func TestFromContextMissing(t *testing.T) {
	_, ok := FromContext(context.Background())
	if ok {
		t.Error("expected false for missing AuthContext")
	}
}

func TestUserID(t *testing.T) {
	ctx := WithAuth(context.Background(), AuthContext{UserID: "user-7"})
	if UserID(ctx) != "user-7" {
		t.Errorf("UserID = %q, want user-7", UserID(ctx))
	}
	if UserID(context.Background()) != "" {
		t.Error("expected empty for missing context")
	}
}

func TestHasScope(t *testing.T) {
	ctx := WithAuth(context.Background(), AuthContext{Scopes: []string{"admin", "backup"}})
	if !HasScope(ctx, "backup") {
		t.Error("expected backup scope")
	}
	if HasScope(ctx, "billing") {
		t.Error("unexpected billing scope")
	}
}

func TestIsAdmin(t *testing.T) {
	if !IsAdmin(WithAuth(context.Background(), AuthContext{Scopes: []string{"admin"}})) {
		t.Error("expected IsAdmin = true for admin scope")
	}
	if IsAdmin(WithAuth(context.Background(), AuthContext{Scopes: []string{"member"}})) {
		t.Error("expected IsAdmin = false without admin scope")
	}
	if IsAdmin(context.Background()) {
		t.Error("expected IsAdmin = false for missing context")
	}
}
