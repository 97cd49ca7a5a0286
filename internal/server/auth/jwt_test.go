package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/compliancebinder/internal/common"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestTokenManager_IssueAndVerify(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := NewTokenManager("super-secret", time.Hour).WithClock(fixedClock(now))

	tok, exp, err := m.Issue("42")
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), exp)

	sub, err := m.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "42", sub)
}

func TestTokenManager_Expired(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := NewTokenManager("secret", time.Minute).WithClock(fixedClock(now))

	tok, _, err := m.Issue("7")
	require.NoError(t, err)

	m.WithClock(fixedClock(now.Add(2 * time.Minute)))
	_, err = m.Verify(tok)
	assert.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestTokenManager_NegativeTTL(t *testing.T) {
	t.Parallel()

	m := NewTokenManager("secret", time.Hour)
	tok, _, err := m.IssueWithTTL("7", -time.Second)
	require.NoError(t, err)

	_, err = m.Verify(tok)
	assert.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestTokenManager_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, _, err := NewTokenManager("right-secret", time.Hour).Issue("u2")
	require.NoError(t, err)

	_, err = NewTokenManager("wrong-secret", time.Hour).Verify(tok)
	assert.ErrorIs(t, err, common.ErrInvalidSignature)
}

func TestTokenManager_TamperedPayload(t *testing.T) {
	t.Parallel()

	m := NewTokenManager("secret", time.Hour)
	tok, _, err := m.Issue("1")
	require.NoError(t, err)
	other, _, err := m.Issue("2")
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	otherParts := strings.Split(other, ".")
	forged := parts[0] + "." + otherParts[1] + "." + parts[2]

	_, err = m.Verify(forged)
	assert.ErrorIs(t, err, common.ErrInvalidSignature)
}

func TestTokenManager_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	m := NewTokenManager("secret", time.Hour)
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = m.Verify(tok)
	assert.ErrorIs(t, err, common.ErrInvalidSignature)
}

func TestTokenManager_Malformed(t *testing.T) {
	t.Parallel()

	m := NewTokenManager("k", time.Hour)

	_, err := m.Verify("not.a.jwt")
	assert.ErrorIs(t, err, common.ErrMalformedToken)

	_, err = m.Verify("")
	assert.ErrorIs(t, err, common.ErrMissingToken)
}

func TestTokenManager_MissingSubject(t *testing.T) {
	t.Parallel()

	m := NewTokenManager("k", time.Hour)
	tok, _, err := m.Issue("")
	require.NoError(t, err)

	_, err = m.Verify(tok)
	assert.ErrorIs(t, err, common.ErrMalformedToken)
}
