package auth

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

const testURL = "http://localhost:8000"

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(envVarName, "")
	return home
}

func TestAccountFor(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://localhost:8000", "http://localhost:8000"},
		{"http://localhost:8000/", "http://localhost:8000"},
		{"HTTPS://Dash.Example.com/base/", "https://dash.example.com/base"},
		{"not a url", "not a url"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, accountFor(tt.in))
		})
	}
}

func TestSession_Keyring(t *testing.T) {
	isolate(t)
	keyring.MockInit()

	source, s := GetSession(testURL)
	assert.Equal(t, SourceNone, source)
	assert.Empty(t, s)

	stored, err := StoreSession(testURL, "abc123")
	require.NoError(t, err)
	assert.Equal(t, SourceKeyring, stored)

	source, s = GetSession(testURL + "/")
	assert.Equal(t, SourceKeyring, source)
	assert.Equal(t, "abc123", s)

	other, _ := GetSession("http://other:8000")
	assert.Equal(t, SourceNone, other, "sessions are per backend")

	require.NoError(t, DeleteSession(testURL))
	source, _ = GetSession(testURL)
	assert.Equal(t, SourceNone, source)
}

func TestSession_FileFallback(t *testing.T) {
	home := isolate(t)
	keyring.MockInitWithError(errors.New("no secret service"))
	t.Cleanup(keyring.MockInit)

	stored, err := StoreSession(testURL, "file-session")
	require.NoError(t, err)
	assert.Equal(t, SourceFile, stored)

	path := sessionFilePath(accountFor(testURL))
	assert.True(t, filepath.IsAbs(path))
	assert.Contains(t, path, filepath.Join(home, ".config", "aidash", "sessions"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	source, s := GetSession(testURL)
	assert.Equal(t, SourceFile, source)
	assert.Equal(t, "file-session", s)

	require.NoError(t, DeleteSession(testURL))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestSession_EnvWins(t *testing.T) {
	isolate(t)
	keyring.MockInit()
	_, err := StoreSession(testURL, "stored")
	require.NoError(t, err)

	t.Setenv(envVarName, " from-env ")
	source, s := GetSession(testURL)
	assert.Equal(t, SourceEnv, source)
	assert.Equal(t, "from-env", s)
}

func TestDeleteSession_NothingStored(t *testing.T) {
	isolate(t)
	keyring.MockInit()

	err := DeleteSession(testURL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no stored session")
}

func TestKeyringAvailable(t *testing.T) {
	keyring.MockInit()
	assert.NoError(t, KeyringAvailable())

	keyring.MockInitWithError(errors.New("no secret service"))
	t.Cleanup(keyring.MockInit)
	assert.EqualError(t, KeyringAvailable(), "no secret service")
}
