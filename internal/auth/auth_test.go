package auth

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeJWT(payload string) string {
	enc := base64.RawURLEncoding.EncodeToString
	return enc([]byte(`{"alg":"none"}`)) + "." + enc([]byte(payload)) + ".sig"
}

func TestSetGetDelete(t *testing.T) {
	t.Setenv(EnvVar, "")
	s := Store{Dir: filepath.Join(t.TempDir(), ".tada")}

	ti, err := s.Get()
	require.NoError(t, err)
	assert.Nil(t, ti, "no credentials before login")

	require.NoError(t, s.Set("Bearer abc123", nil))

	info, err := os.Stat(filepath.Join(s.Dir, credFileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	ti, err = s.Get()
	require.NoError(t, err)
	require.NotNil(t, ti)
	assert.Equal(t, "abc123", ti.Token)
	assert.Equal(t, "file", ti.Source)
	assert.Nil(t, ti.ExpiresAt)
	assert.Equal(t, "abc123", s.Token())

	require.NoError(t, s.Delete())
	require.NoError(t, s.Delete(), "deleting twice is fine")
	assert.Equal(t, "", s.Token())
}

func TestEnvOverride(t *testing.T) {
	s := Store{Dir: t.TempDir()}
	require.NoError(t, s.Set("from-file", nil))

	t.Setenv(EnvVar, "bearer from-env")
	ti, err := s.Get()
	require.NoError(t, err)
	assert.Equal(t, "from-env", ti.Token)
	assert.Equal(t, "env", ti.Source)
}

func TestSetRejectsEmpty(t *testing.T) {
	s := Store{Dir: t.TempDir()}
	assert.Error(t, s.Set("   ", nil))
}

func TestJWTExpiry(t *testing.T) {
	t.Setenv(EnvVar, "")
	s := Store{Dir: t.TempDir()}

	require.NoError(t, s.Set(fakeJWT(`{"sub":"idil","exp":1893456000}`), nil))
	ti, err := s.Get()
	require.NoError(t, err)
	require.NotNil(t, ti.ExpiresAt)
	assert.True(t, ti.ExpiresAt.Equal(time.Unix(1893456000, 0)))
}

func TestJWTPayload(t *testing.T) {
	p, ok := JWTPayload(fakeJWT(`{"sub":"idil"}`))
	assert.True(t, ok)
	assert.Equal(t, `{"sub":"idil"}`, p)

	_, ok = JWTPayload("opaque-token")
	assert.False(t, ok)
}
