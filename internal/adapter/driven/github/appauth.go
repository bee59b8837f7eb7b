package github

import (
	"crypto/rsa"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ericfisherdev/reviewdash/internal/apperror"
)

const (
	// jwtBackdate absorbs clock drift between us and GitHub.
	jwtBackdate = 60 * time.Second
	// jwtLifetime stays under GitHub's 10 minute ceiling once backdated.
	jwtLifetime = 600 * time.Second
)

// AppAuth signs GitHub App JWTs with the App's RSA private key.
type AppAuth struct {
	appID string
	key   *rsa.PrivateKey
	now   func() time.Time
}

// NewAppAuth parses the PEM-encoded privateKey and returns an AppAuth for
// appID. Missing inputs yield a configuration error.
func NewAppAuth(appID, privateKey string) (*AppAuth, error) {
	if strings.TrimSpace(appID) == "" {
		return nil, apperror.Configuration("github app id is not configured")
	}
	if strings.TrimSpace(privateKey) == "" {
		return nil, apperror.Configuration("github app private key is not configured")
	}

	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(privateKey))
	if err != nil {
		return nil, &apperror.AppError{
			Err:     apperror.ErrConfiguration,
			Message: fmt.Sprintf("parse github app private key: %v", err),
		}
	}

	return &AppAuth{
		appID: strings.TrimSpace(appID),
		key:   key,
		now:   time.Now,
	}, nil
}

// SetClock overrides the time source used for iat and exp.
func (a *AppAuth) SetClock(now func() time.Time) {
	a.now = now
}

// CreateAppJWT returns an RS256 token identifying the App itself. It is only
// good for App-level endpoints such as minting installation tokens.
func (a *AppAuth) CreateAppJWT() (string, error) {
	if a == nil || a.key == nil || a.appID == "" {
		return "", apperror.Configuration("github app credentials are not configured")
	}

	now := a.now()
	claims := jwt.RegisteredClaims{
		Issuer:    a.appID,
		IssuedAt:  jwt.NewNumericDate(now.Add(-jwtBackdate)),
		ExpiresAt: jwt.NewNumericDate(now.Add(jwtLifetime)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(a.key)
	if err != nil {
		return "", fmt.Errorf("signing app jwt: %w", err)
	}
	return signed, nil
}
