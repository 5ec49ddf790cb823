package auth

import (
	"testing"
	"time"

	"velorent/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMintAndParse(t *testing.T) {
	v := NewVerifier("secret", "velorent")
	p := models.Principal{UserID: 42, Role: models.RoleVendor, Email: "v@example.com", Name: "Vera"}

	token, err := v.Mint(p, time.Hour)
	require.NoError(t, err)

	got, err := v.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestParseRejects(t *testing.T) {
	v := NewVerifier("secret", "velorent")
	p := models.Principal{UserID: 1, Role: models.RoleUser}

	expired, err := v.Mint(p, -time.Minute)
	require.NoError(t, err)
	_, err = v.Parse(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	foreign, err := NewVerifier("other", "velorent").Mint(p, time.Hour)
	require.NoError(t, err)
	_, err = v.Parse(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongIssuer, err := NewVerifier("secret", "elsewhere").Mint(p, time.Hour)
	require.NoError(t, err)
	_, err = v.Parse(wrongIssuer)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = v.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = v.Mint(models.Principal{UserID: 1, Role: "root"}, time.Hour)
	assert.ErrorIs(t, err, ErrUnknownRole)
}

func TestParseRejectsBadSubjectAndAlg(t *testing.T) {
	v := NewVerifier("secret", "")

	claims := Claims{Role: models.RoleUser, RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = v.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)

	claims.Subject = "5"
	raw, err = jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = v.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noExp := Claims{Role: models.RoleUser, RegisteredClaims: jwt.RegisteredClaims{Subject: "5"}}
	raw, err = jwt.NewWithClaims(jwt.SigningMethodHS256, noExp).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = v.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
