package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isdelr/notes-be/internal/apperrors"
)

func newManager(t *testing.T) *TokenManager {
	t.Helper()
	m, err := NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)
	return m
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	m := newManager(t)

	token, err := m.Issue(7)
	require.NoError(t, err)

	userID, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), userID)
}

func TestVerify_FlippedSignature(t *testing.T) {
	m := newManager(t)
	token, err := m.Issue(7)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	_, err = m.Verify(tampered)
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}

func TestVerify_Expired(t *testing.T) {
	m := newManager(t)
	issuedAt := time.Now().Add(-2 * time.Hour)
	m.now = func() time.Time { return issuedAt }
	token, err := m.Issue(7)
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Rejects(t *testing.T) {
	m := newManager(t)

	other, err := NewTokenManager("another-secret", time.Hour)
	require.NoError(t, err)
	foreign, err := other.Issue(7)
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{UserID: 7}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, &Claims{
		UserID:           7,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	noUser, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	tests := map[string]string{
		"empty":           "",
		"garbage":         "not-a-token",
		"other secret":    foreign,
		"no expiry":       noExp,
		"wrong algorithm": hs512,
		"no user id":      noUser,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := m.Verify(token)
			assert.Equal(t, ErrInvalidToken, err)
		})
	}
}

func TestNewTokenManager_RandomSecret(t *testing.T) {
	a, err := NewTokenManager("", time.Hour)
	require.NoError(t, err)
	b, err := NewTokenManager("", time.Hour)
	require.NoError(t, err)

	token, err := a.Issue(1)
	require.NoError(t, err)
	_, err = b.Verify(token)
	assert.Error(t, err)
}
