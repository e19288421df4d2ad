package server

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokens_Rejects(t *testing.T) {
	_, err := NewTokens("", time.Minute, nil)
	assert.Error(t, err)

	_, err = NewTokens("s3cret", 0, nil)
	assert.Error(t, err)
}

func TestTokens_IssueVerify(t *testing.T) {
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	tokens, err := NewTokens("s3cret", 15*time.Minute, func() time.Time { return now })
	require.NoError(t, err)

	tok, exp, err := tokens.Issue("ACC001001")
	require.NoError(t, err)
	assert.Equal(t, now.Add(15*time.Minute), exp)

	account, err := tokens.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "ACC001001", account)
}

func TestTokens_Expired(t *testing.T) {
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	tokens, err := NewTokens("s3cret", time.Minute, func() time.Time { return now })
	require.NoError(t, err)

	tok, _, err := tokens.Issue("ACC001001")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = tokens.Verify(tok)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestTokens_WrongSecret(t *testing.T) {
	a, err := NewTokens("one", time.Minute, nil)
	require.NoError(t, err)
	b, err := NewTokens("two", time.Minute, nil)
	require.NoError(t, err)

	tok, _, err := a.Issue("ACC001001")
	require.NoError(t, err)
	_, err = b.Verify(tok)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestTokens_RejectsOtherAlgorithms(t *testing.T) {
	tokens, err := NewTokens("s3cret", time.Minute, nil)
	require.NoError(t, err)

	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   "ACC001001",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	_, err = tokens.Verify(tok)
	assert.Error(t, err)
}
