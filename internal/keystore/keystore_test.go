package keystore

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naveenspark/tempo/pkg/domain"
)

func TestStore_EmptyState(t *testing.T) {
	s := New(t.TempDir())

	state, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, state.Token)
	assert.Empty(t, state.Extra)

	token, user, err := s.LoadSession()
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.Nil(t, user)
}

func TestStore_SessionRoundTrip(t *testing.T) {
	s := New(t.TempDir())
	u := domain.User{
		ID:        "u1",
		Email:     "demo@example.com",
		Name:      "Demo User",
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	require.NoError(t, s.SaveSession("tok-123", u))

	token, got, err := s.LoadSession()
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)
	require.NotNil(t, got)
	assert.Equal(t, u.Email, got.Email)
	assert.Equal(t, u.Name, got.Name)
	assert.True(t, u.CreatedAt.Equal(got.CreatedAt))

	info, err := os.Stat(s.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestStore_ClearSessionKeepsOtherKeys(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, s.Set("theme", "dark"))
	require.NoError(t, s.SaveSession("tok", domain.User{ID: "u1"}))

	require.NoError(t, s.ClearSession())

	state, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, state.Token)
	assert.Nil(t, state.User)

	theme, err := s.GetString("theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", theme)
}

func TestStore_SaveSessionRejectsEmptyToken(t *testing.T) {
	s := New(t.TempDir())
	assert.Error(t, s.SaveSession("", domain.User{ID: "u1"}))
}

func TestStore_SetRejectsSessionKeys(t *testing.T) {
	s := New(t.TempDir())
	assert.Error(t, s.Set(KeyToken, "tok"))
}

func TestStore_Delete(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, s.Set("k", "v"))
	require.NoError(t, s.Delete("k"))

	v, err := s.GetString("k")
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestStore_CorruptFile(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, os.WriteFile(s.Path(), []byte("token: [unclosed"), 0o600))

	_, err := s.Load()
	assert.Error(t, err)
}
