package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"partner-hub/errors"
)

const testSecret = "my_strong_and_long_secret_key_2026"

func TestGenerateAndValidateToken(t *testing.T) {
	req := require.New(t)
	manager := NewTokenManager(testSecret, time.Hour)

	token, err := manager.GenerateToken("organizer-42", []string{"organizer"})
	req.NoError(err)
	req.NotEmpty(token)

	claims, err := manager.ValidateToken(token)
	req.NoError(err)
	req.Equal("organizer-42", claims.UserID)
	req.Equal([]string{"organizer"}, claims.Roles)
	req.Equal("partner-hub", claims.Issuer)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	req := require.New(t)
	issuer := NewTokenManager(testSecret, time.Hour)
	verifier := NewTokenManager("another_secret_entirely_1234567890", time.Hour)

	token, err := issuer.GenerateToken("sponsor-7", nil)
	req.NoError(err)

	_, err = verifier.ValidateToken(token)
	req.ErrorIs(err, errors.ErrInvalidToken)
}

func TestValidateToken_Expired(t *testing.T) {
	req := require.New(t)
	manager := NewTokenManager(testSecret, -time.Minute)

	token, err := manager.GenerateToken("sponsor-7", nil)
	req.NoError(err)

	_, err = manager.ValidateToken(token)
	req.ErrorIs(err, errors.ErrInvalidToken)
}

func TestValidateToken_Missing(t *testing.T) {
	req := require.New(t)
	manager := NewTokenManager(testSecret, time.Hour)

	_, err := manager.ValidateToken("")
	req.ErrorIs(err, errors.ErrMissingToken)
}

func TestBearerToken(t *testing.T) {
	req := require.New(t)
	req.Equal("abc", BearerToken("Bearer abc"))
	req.Equal("abc", BearerToken("abc"))
}
