package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"nexus-gateway/errors"
)

var secret = []byte("unit-test-secret")

func TestToken_RoundTrip(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken(secret, "u1", time.Hour)
	req.NoError(err)
	req.NotEmpty(token)

	claims, err := ValidateToken(secret, token)
	req.NoError(err)
	req.Equal("u1", claims.UserID)
}

func TestToken_RejectsWrongSecret(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken(secret, "u1", time.Hour)
	req.NoError(err)

	_, err = ValidateToken([]byte("another-secret"), token)
	req.ErrorIs(err, errors.ErrInvalidToken)
}

func TestToken_RejectsExpired(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken(secret, "u1", -time.Minute)
	req.NoError(err)

	_, err = ValidateToken(secret, token)
	req.ErrorIs(err, errors.ErrInvalidToken)
}

func TestToken_RejectsGarbage(t *testing.T) {
	req := require.New(t)

	_, err := ValidateToken(secret, "not-a-jwt")
	req.ErrorIs(err, errors.ErrInvalidToken)
}

func TestToken_RejectsMissingUserID(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken(secret, "", time.Hour)
	req.NoError(err)

	_, err = ValidateToken(secret, token)
	req.ErrorIs(err, errors.ErrInvalidToken)
}
