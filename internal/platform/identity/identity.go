// Package identity resolves the caller address of an HTTP request from an
// HS256 bearer token whose subject is the address.
package identity

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingCredentials = errors.New("missing credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
)

const bearerSchema = "Bearer "

// Authenticator verifies bearer tokens. With an empty secret it trusts the
// X-User-Id header instead, which is only meant for local runs.
type Authenticator struct {
	secret []byte
	now    func() time.Time
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{
		secret: []byte(strings.TrimSpace(secret)),
		now:    time.Now,
	}
}

func (a *Authenticator) TokensEnabled() bool {
	return len(a.secret) > 0
}

// Caller returns the normalized caller address for r.
func (a *Authenticator) Caller(r *http.Request) (string, error) {
	if !a.TokensEnabled() {
		caller := strings.ToLower(strings.TrimSpace(r.Header.Get("X-User-Id")))
		if caller == "" {
			return "", ErrMissingCredentials
		}
		return caller, nil
	}

	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", ErrMissingCredentials
	}
	if !strings.HasPrefix(header, bearerSchema) {
		return "", ErrInvalidToken
	}
	return a.Verify(strings.TrimSpace(header[len(bearerSchema):]))
}

// Verify checks the signature and expiry and returns the subject.
func (a *Authenticator) Verify(raw string) (string, error) {
	if !a.TokensEnabled() {
		return "", fmt.Errorf("%w: no signing secret configured", ErrInvalidToken)
	}
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return "", ErrInvalidToken
	}
	subject := strings.ToLower(strings.TrimSpace(claims.Subject))
	if subject == "" {
		return "", fmt.Errorf("%w: empty subject", ErrInvalidToken)
	}
	return subject, nil
}

// Issue signs a token for subject valid for ttl. prizectl uses it to mint
// operator tokens.
func (a *Authenticator) Issue(subject string, ttl time.Duration) (string, error) {
	if !a.TokensEnabled() {
		return "", fmt.Errorf("%w: no signing secret configured", ErrInvalidToken)
	}
	subject = strings.ToLower(strings.TrimSpace(subject))
	if subject == "" {
		return "", fmt.Errorf("%w: empty subject", ErrInvalidToken)
	}
	now := a.now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:  subject,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}
