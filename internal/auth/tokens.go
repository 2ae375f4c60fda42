// Package auth signs and parses the access/refresh credential pair.
//
// Access and refresh tokens are HS256 JWTs signed with two different secrets, so a
// leaked access secret cannot mint refresh tokens and vice versa. Whether a refresh
// token is still the live one for its user is decided by the caller against the
// user store; this package only checks signature, algorithm and expiry.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// AccessTTL is the lifetime of an access token and its cookie.
	AccessTTL = 15 * time.Minute
	// RefreshTTL is the lifetime of a refresh token and its cookie.
	RefreshTTL = 7 * 24 * time.Hour
)

// ErrInvalidToken is returned for any token that fails parsing or verification.
var ErrInvalidToken = errors.New("invalid token")

// Claims carries the user identity. ID (jti) makes every issued token unique.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// TokenPair is the result of a successful login or signup.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenIssuer issues and parses both token kinds.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	now           func() time.Time
}

// NewTokenIssuer requires two non-empty, distinct secrets.
func NewTokenIssuer(accessSecret, refreshSecret string) (*TokenIssuer, error) {
	return NewTokenIssuerWithClock(accessSecret, refreshSecret, time.Now)
}

// NewTokenIssuerWithClock is used by tests to control issue and expiry times.
func NewTokenIssuerWithClock(accessSecret, refreshSecret string, now func() time.Time) (*TokenIssuer, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, fmt.Errorf("access and refresh secrets are required")
	}
	if accessSecret == refreshSecret {
		return nil, fmt.Errorf("access and refresh secrets must differ")
	}
	return &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		now:           now,
	}, nil
}

// IssuePair signs a fresh access and refresh token for userID.
func (i *TokenIssuer) IssuePair(userID string) (TokenPair, error) {
	access, err := i.IssueAccess(userID)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := i.sign(userID, i.refreshSecret, RefreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// IssueAccess signs an access token only.
func (i *TokenIssuer) IssueAccess(userID string) (string, error) {
	return i.sign(userID, i.accessSecret, AccessTTL)
}

// ParseAccess returns the user id carried by a valid access token.
func (i *TokenIssuer) ParseAccess(token string) (string, error) {
	return i.parse(token, i.accessSecret)
}

// ParseRefresh returns the user id carried by a valid refresh token.
func (i *TokenIssuer) ParseRefresh(token string) (string, error) {
	return i.parse(token, i.refreshSecret)
}

func (i *TokenIssuer) sign(userID string, secret []byte, ttl time.Duration) (string, error) {
	now := i.now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (i *TokenIssuer) parse(raw string, secret []byte) (string, error) {
	if raw == "" {
		return "", ErrInvalidToken
	}
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return "", ErrInvalidToken
	}
	return claims.UserID, nil
}
