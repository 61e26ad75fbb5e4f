package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"unishelf/pkg/auth"
	"unishelf/pkg/domain"
)

// Register creates a new account. Role is immutable after creation.
func (a *App) Register(email, password, fullName string, role domain.UserRole) (domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	fullName = strings.TrimSpace(fullName)
	if email == "" || password == "" || fullName == "" || role == "" {
		return domain.User{}, validationf("email, password, fullName, and role are required")
	}
	if !domain.ValidRole(role) {
		return domain.User{}, validationf("role must be one of student, lecturer, admin")
	}
	exists, err := a.store.HasUserEmail(email)
	if err != nil {
		return domain.User{}, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return domain.User{}, conflict("user already exists")
	}
	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()
	user := domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     fullName,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.store.SaveUser(user); err != nil {
		return domain.User{}, fmt.Errorf("save user: %w", err)
	}
	return user, nil
}

// Login validates credentials and issues a token pair.
func (a *App) Login(email, password string) (domain.User, auth.TokenPair, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	user, ok, err := a.store.GetUserByEmail(email)
	if err != nil {
		return domain.User{}, auth.TokenPair{}, fmt.Errorf("fetch user: %w", err)
	}
	if !ok || !auth.CheckPassword(password, user.PasswordHash) {
		return domain.User{}, auth.TokenPair{}, unauthenticated("incorrect email address or password")
	}
	pair, err := a.sessions.Issue(user.ID)
	if err != nil {
		return domain.User{}, auth.TokenPair{}, fmt.Errorf("issue tokens: %w", err)
	}
	return user, pair, nil
}

// Refresh rotates a refresh token into a fresh token pair.
func (a *App) Refresh(refreshToken string) (domain.User, auth.TokenPair, error) {
	userID, err := a.sessions.VerifyRefresh(refreshToken)
	if err != nil {
		return domain.User{}, auth.TokenPair{}, unauthenticated("invalid refresh token")
	}
	user, ok, err := a.store.GetUserByID(userID)
	if err != nil {
		return domain.User{}, auth.TokenPair{}, fmt.Errorf("fetch user: %w", err)
	}
	if !ok {
		return domain.User{}, auth.TokenPair{}, unauthenticated("invalid refresh token")
	}
	pair, err := a.sessions.Issue(user.ID)
	if err != nil {
		return domain.User{}, auth.TokenPair{}, fmt.Errorf("issue tokens: %w", err)
	}
	return user, pair, nil
}

// UserFromToken resolves the principal from an access token. The role comes
// from the persisted record, not the token payload.
func (a *App) UserFromToken(token string) (domain.User, bool) {
	userID, err := a.sessions.VerifyAccess(token)
	if err != nil {
		return domain.User{}, false
	}
	user, ok, err := a.store.GetUserByID(userID)
	if err != nil || !ok {
		return domain.User{}, false
	}
	return user, true
}

// ListUsers returns all users. Callers gate this to admins.
func (a *App) ListUsers() ([]domain.User, error) {
	return a.store.ListUsers()
}
