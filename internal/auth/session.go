// Package auth stores the dashboard session cookie between runs.
//
// Sessions are sourced in the following priority order:
//  1. Environment variable: AIDASH_SESSION
//  2. OS Keyring (macOS Keychain, Windows Credential Manager, Linux Secret Service)
//  3. File fallback: ~/.config/aidash/sessions/<backend> (for headless machines)
//
// Sessions are keyed by backend URL so logging into a second dashboard
// does not replace the first.
package auth

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// keyringService is the service name used in OS keyring storage.
	keyringService = "aidash"
	// envVarName overrides any stored session.
	envVarName = "AIDASH_SESSION"
	// sessionsDir holds file fallback sessions, relative to home.
	sessionsDir = ".config/aidash/sessions"
)

// SessionSource indicates where a session was found or stored.
type SessionSource string

// Session source constants identify where sessions were loaded from.
const (
	SourceEnv     SessionSource = "environment variable"
	SourceKeyring SessionSource = "keyring"
	SourceFile    SessionSource = "session file"
	SourceNone    SessionSource = ""
)

// GetSession returns the stored session id for baseURL and its source.
// Returns empty values if no session is stored.
func GetSession(baseURL string) (SessionSource, string) {
	if s := strings.TrimSpace(os.Getenv(envVarName)); s != "" {
		return SourceEnv, s
	}

	account := accountFor(baseURL)
	if s, err := keyring.Get(keyringService, account); err == nil && s != "" {
		return SourceKeyring, s
	}

	if s := readSessionFile(account); s != "" {
		return SourceFile, s
	}

	return SourceNone, ""
}

// StoreSession saves the session id for baseURL in the OS keyring, falling
// back to a file when no keyring is available.
func StoreSession(baseURL, session string) (SessionSource, error) {
	account := accountFor(baseURL)

	if err := keyring.Set(keyringService, account, session); err == nil {
		return SourceKeyring, nil
	}

	if err := writeSessionFile(account, session); err != nil {
		return SourceNone, err
	}
	return SourceFile, nil
}

// DeleteSession removes the stored session for baseURL from both stores.
func DeleteSession(baseURL string) error {
	account := accountFor(baseURL)

	keyringErr := keyring.Delete(keyringService, account)
	fileErr := deleteSessionFile(account)

	// Return error only if both failed and nothing was deleted
	if keyringErr != nil && fileErr != nil {
		return fmt.Errorf("no stored session for %s", account)
	}

	return nil
}

// KeyringAvailable returns nil when the OS keyring can be read. A missing
// entry counts as available.
func KeyringAvailable() error {
	_, err := keyring.Get(keyringService, "aidash-doctor-probe")
	if err == nil || errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// accountFor normalizes a base URL to the keyring account name,
// e.g. "https://dash.example.com:8443/".
func accountFor(baseURL string) string {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Host == "" {
		return strings.TrimRight(strings.TrimSpace(baseURL), "/")
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host) + strings.TrimRight(u.Path, "/")
}

// sessionFilePath returns the fallback file for an account.
func sessionFilePath(account string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	name := strings.NewReplacer("://", "_", "/", "_", ":", "_").Replace(account)
	return filepath.Join(home, sessionsDir, filepath.Clean(name))
}

func readSessionFile(account string) string {
	path := sessionFilePath(account)
	if path == "" {
		return ""
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}

	return strings.TrimSpace(string(data))
}

func writeSessionFile(account, session string) error {
	path := sessionFilePath(account)
	if path == "" {
		return fmt.Errorf("could not determine home directory")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create sessions directory: %w", err)
	}

	// owner read/write only
	if err := os.WriteFile(path, []byte(session+"\n"), 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	return nil
}

func deleteSessionFile(account string) error {
	path := sessionFilePath(account)
	if path == "" {
		return fmt.Errorf("could not determine home directory")
	}

	err := os.Remove(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("session file not found")
	}
	if err != nil {
		return fmt.Errorf("remove session file: %w", err)
	}

	return nil
}
