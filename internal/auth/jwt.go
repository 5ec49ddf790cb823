// Package auth verifies and mints the bearer tokens of API callers.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"velorent/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrUnknownRole  = errors.New("unknown role")
)

// Claims carry the caller identity. Subject holds the numeric user id.
type Claims struct {
	Role  string `json:"role"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

type Verifier struct {
	secret []byte
	issuer string
}

func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer}
}

// Parse validates an HS256 token and returns its principal.
func (v *Verifier) Parse(raw string) (models.Principal, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return models.Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return models.Principal{}, fmt.Errorf("%w: bad subject %q", ErrInvalidToken, claims.Subject)
	}
	if !validRole(claims.Role) {
		return models.Principal{}, fmt.Errorf("%w: %q", ErrUnknownRole, claims.Role)
	}

	return models.Principal{UserID: id, Role: claims.Role, Email: claims.Email, Name: claims.Name}, nil
}

// Mint signs a token for p valid for ttl.
func (v *Verifier) Mint(p models.Principal, ttl time.Duration) (string, error) {
	if !validRole(p.Role) {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, p.Role)
	}
	now := time.Now()
	claims := Claims{
		Role:  p.Role,
		Email: p.Email,
		Name:  p.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(p.UserID, 10),
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

func validRole(role string) bool {
	switch role {
	case models.RoleAdmin, models.RoleVendor, models.RoleUser:
		return true
	}
	return false
}
