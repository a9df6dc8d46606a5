// Package auth validates the HS256 bearer tokens issued by the auth
// frontend.
package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoSubject is returned for a structurally valid token whose subject
// claim is missing or empty.
var ErrNoSubject = errors.New("token has no subject")

// Config holds the validation parameters. An empty Issuer disables the
// issuer check.
type Config struct {
	Secret string
	Issuer string
}

// Validator checks bearer tokens and extracts the user ID.
type Validator struct {
	key       []byte
	parseOpts []jwt.ParserOption
}

// NewValidator creates a token validator. Only HS256 is accepted; tokens
// signed with any other method fail validation.
func NewValidator(cfg Config) *Validator {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	return &Validator{
		key:       []byte(cfg.Secret),
		parseOpts: opts,
	}
}

// Validate parses and verifies the token and returns its subject claim,
// the user ID.
func (v *Validator) Validate(token string) (string, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return v.key, nil
	}, v.parseOpts...)
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}
	if !parsed.Valid {
		return "", errors.New("invalid token")
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return "", ErrNoSubject
	}
	return subject, nil
}
