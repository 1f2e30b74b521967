package auth

import (
	"bytes"
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwise/shelfwise-server/internal/domain"
)

func newTestTokenService(t *testing.T, d time.Duration) *TokenService {
	t.Helper()
	key := make([]byte, keyLength)
	_, err := rand.Read(key)
	require.NoError(t, err)

	svc, err := NewTokenService(key, d)
	require.NoError(t, err)
	return svc
}

func TestTokenService_RoundTrip(t *testing.T) {
	svc := newTestTokenService(t, time.Hour)
	user := &domain.User{ID: "user-abc", Username: "alice"}

	token, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)
	assert.Contains(t, token, "v4.local.")

	claims, err := svc.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-abc", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "user-abc", claims.Subject)
	assert.Equal(t, tokenIssuer, claims.Issuer)
	assert.NotEmpty(t, claims.TokenID)
	assert.WithinDuration(t, claims.IssuedAt.Add(time.Hour), claims.Expiration, time.Second)
}

func TestTokenService_Expired(t *testing.T) {
	svc := newTestTokenService(t, time.Minute)
	token, err := svc.GenerateAccessToken(&domain.User{ID: "user-1", Username: "u"})
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = svc.VerifyAccessToken(token)
	assert.Error(t, err)
}

func TestTokenService_WrongKey(t *testing.T) {
	a := newTestTokenService(t, time.Hour)
	b := newTestTokenService(t, time.Hour)

	token, err := a.GenerateAccessToken(&domain.User{ID: "user-1", Username: "u"})
	require.NoError(t, err)

	_, err = b.VerifyAccessToken(token)
	assert.Error(t, err)

	_, err = a.VerifyAccessToken("v4.local.garbage")
	assert.Error(t, err)
}

func TestNewTokenService_KeyLength(t *testing.T) {
	_, err := NewTokenService(make([]byte, 16), time.Hour)
	assert.Error(t, err)
}

func TestLoadOrGenerateKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "auth.key")

	first, err := LoadOrGenerateKey(path)
	require.NoError(t, err)
	assert.Len(t, first, keyLength)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	second, err := LoadOrGenerateKey(path)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(first, second), "existing key is reused")
}

func TestLoadOrGenerateKey_Corrupt(t *testing.T) {
	dir := t.TempDir()

	short := filepath.Join(dir, "short.key")
	require.NoError(t, os.WriteFile(short, []byte("abcd"), 0o600))
	_, err := LoadOrGenerateKey(short)
	assert.Error(t, err)

	notHex := filepath.Join(dir, "nothex.key")
	require.NoError(t, os.WriteFile(notHex, bytes.Repeat([]byte("z"), keyHexLength), 0o600))
	_, err = LoadOrGenerateKey(notHex)
	assert.Error(t, err)
}
