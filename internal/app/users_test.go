package app

import (
	"testing"

	"unishelf/pkg/domain"
)

func TestRegisterValidatesInput(t *testing.T) {
	a, _, _ := newTestApp(t)

	_, err := a.Register("", "pw", "Name", domain.RoleStudent)
	assertKind(t, err, KindValidation)

	_, err = a.Register("a@example.edu", "pw", "Name", "superuser")
	assertKind(t, err, KindValidation)

	user, err := a.Register("A@Example.EDU", "pw", "Name", domain.RoleStudent)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Email != "a@example.edu" {
		t.Fatalf("expected normalized email, got %q", user.Email)
	}
	if user.PasswordHash == "pw" || user.PasswordHash == "" {
		t.Fatalf("expected hashed password")
	}

	// Same email again, any casing, conflicts.
	_, err = a.Register("a@example.edu", "pw2", "Other", domain.RoleStudent)
	assertKind(t, err, KindConflict)
}

func TestLoginAndTokenResolution(t *testing.T) {
	a, _, _ := newTestApp(t)
	registered := registerUser(t, a, "stu@example.edu", domain.RoleStudent)

	user, pair, err := a.Login("stu@example.edu", "passw0rd")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.ID != registered.ID || pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("unexpected login result")
	}

	_, _, err = a.Login("stu@example.edu", "wrong")
	assertKind(t, err, KindUnauthenticated)
	_, _, err = a.Login("nobody@example.edu", "passw0rd")
	assertKind(t, err, KindUnauthenticated)

	principal, ok := a.UserFromToken(pair.AccessToken)
	if !ok || principal.ID != registered.ID {
		t.Fatalf("expected token to resolve to user")
	}
	if _, ok := a.UserFromToken("garbage"); ok {
		t.Fatalf("expected invalid token rejected")
	}
	// Refresh tokens are not access tokens.
	if _, ok := a.UserFromToken(pair.RefreshToken); ok {
		t.Fatalf("expected refresh token rejected on access path")
	}
}

func TestRefreshRotatesTokens(t *testing.T) {
	a, _, _ := newTestApp(t)
	registerUser(t, a, "stu@example.edu", domain.RoleStudent)
	_, pair, err := a.Login("stu@example.edu", "passw0rd")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	user, rotated, err := a.Refresh(pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if user.Email != "stu@example.edu" || rotated.AccessToken == "" {
		t.Fatalf("unexpected refresh result")
	}

	_, _, err = a.Refresh(pair.AccessToken)
	assertKind(t, err, KindUnauthenticated)
	_, _, err = a.Refresh("garbage")
	assertKind(t, err, KindUnauthenticated)
}
