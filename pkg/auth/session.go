package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	defaultAccessTTL  = 30 * 24 * time.Hour
	defaultRefreshTTL = 90 * 24 * time.Hour

	refreshTokenType = "refresh"
)

// ErrInvalidToken is returned for tokens that fail signature or claim checks.
var ErrInvalidToken = errors.New("invalid or expired token")

// TokenPair is the result of issuing a session.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"` // access token lifetime in seconds
}

// SessionManager issues and validates HS256 JWT token pairs. Tokens carry
// only the user ID as subject; the caller's role is always re-read from the
// user record, never trusted from the token.
type SessionManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

type sessionClaims struct {
	Type string `json:"type,omitempty"`
	jwt.RegisteredClaims
}

// NewSessionManager builds a manager from a shared secret.
// Zero TTLs fall back to 30-day access / 90-day refresh lifetimes.
func NewSessionManager(secret string, accessTTL, refreshTTL time.Duration) (*SessionManager, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("session secret is required")
	}
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTTL
	}
	return &SessionManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

// Issue returns a fresh access/refresh token pair for the user.
func (m *SessionManager) Issue(userID string) (TokenPair, error) {
	access, err := m.sign(userID, "", m.accessTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := m.sign(userID, refreshTokenType, m.refreshTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(m.accessTTL.Seconds()),
	}, nil
}

// VerifyAccess validates an access token and returns its subject.
func (m *SessionManager) VerifyAccess(token string) (string, error) {
	claims, err := m.parse(token)
	if err != nil {
		return "", err
	}
	if claims.Type != "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// VerifyRefresh validates a refresh token and returns its subject.
func (m *SessionManager) VerifyRefresh(token string) (string, error) {
	claims, err := m.parse(token)
	if err != nil {
		return "", err
	}
	if claims.Type != refreshTokenType {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

func (m *SessionManager) sign(userID, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := sessionClaims{
		Type: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

func (m *SessionManager) parse(token string) (*sessionClaims, error) {
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
