package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	m, err := NewManager("secret", time.Hour)
	require.NoError(t, err)

	tok, exp, err := m.Issue(42, "ADMIN")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := m.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "ADMIN", claims.Role)
	assert.Equal(t, "42", claims.Subject)
}

func TestParseRejectsExpiredAndForeignTokens(t *testing.T) {
	m, err := NewManager("secret", time.Minute)
	require.NoError(t, err)
	tok, _, err := m.Issue(1, "CLIENT")
	require.NoError(t, err)

	m.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = m.Parse(tok)
	assert.True(t, errors.Is(err, ErrInvalidToken))

	other, err := NewManager("other", time.Minute)
	require.NoError(t, err)
	_, err = other.Parse(tok)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestNewManagerEmptySecret(t *testing.T) {
	_, err := NewManager("  ", time.Hour)
	assert.ErrorIs(t, err, ErrEmptySecret)
}

func TestBearerToken(t *testing.T) {
	tok, err := BearerToken("Bearer abc.def")
	require.NoError(t, err)
	assert.Equal(t, "abc.def", tok)

	tok, err = BearerToken("bearer xyz")
	require.NoError(t, err)
	assert.Equal(t, "xyz", tok)

	for _, h := range []string{"", "Token abc", "Bearer ", "Bear"} {
		_, err := BearerToken(h)
		assert.ErrorIs(t, err, ErrBadAuthScheme, h)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("motdepasse")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "motdepasse"))
	assert.False(t, CheckPassword(hash, "autre"))
}
