package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = appName
	keyringUser    = "token"
	tokenFileName  = ".token"
	userFileName   = "userData.json"
)

// DataDir returns the path to the data directory for secure storage.
// Uses XDG_DATA_HOME or defaults to ~/.local/share/todoify/
func DataDir() (string, error) {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		dataHome = filepath.Join(homeDir, ".local", "share")
	}

	dataDir := filepath.Join(dataHome, appName)
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}

	return dataDir, nil
}

// CredentialStore persists the session: the bearer token goes to the system
// keyring (or a 0600 file when no keyring is available) and the cached user
// record to a JSON file next to it. Both are always cleared together.
type CredentialStore struct {
	dir string
}

// NewCredentialStore returns a store rooted in DataDir.
func NewCredentialStore() (*CredentialStore, error) {
	dir, err := DataDir()
	if err != nil {
		return nil, err
	}
	return &CredentialStore{dir: dir}, nil
}

// NewCredentialStoreAt returns a store rooted in dir.
func NewCredentialStoreAt(dir string) *CredentialStore {
	return &CredentialStore{dir: dir}
}

func (s *CredentialStore) tokenPath() string { return filepath.Join(s.dir, tokenFileName) }
func (s *CredentialStore) userPath() string  { return filepath.Join(s.dir, userFileName) }

// Token retrieves the stored token. Priority: system keyring, then the
// credentials file. Returns "" when nothing is stored.
func (s *CredentialStore) Token() (string, error) {
	token, err := keyring.Get(keyringService, keyringUser)
	if err == nil && token != "" {
		return strings.TrimSpace(token), nil
	}

	data, err := os.ReadFile(s.tokenPath())
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read credentials file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// UserData returns the cached user record, or nil when none is stored.
func (s *CredentialStore) UserData() ([]byte, error) {
	data, err := os.ReadFile(s.userPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read user data: %w", err)
	}
	return data, nil
}

// Save stores the token and the user record. An empty token only stores the
// user record and removes any previous token.
func (s *CredentialStore) Save(token string, userData []byte) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	token = strings.TrimSpace(token)
	if token == "" {
		if err := s.clearToken(); err != nil {
			return err
		}
	} else if err := s.saveToken(token); err != nil {
		return err
	}

	if err := os.WriteFile(s.userPath(), userData, 0600); err != nil {
		return fmt.Errorf("failed to write user data: %w", err)
	}
	return nil
}

// saveToken tries the system keyring first, falls back to the credentials file.
func (s *CredentialStore) saveToken(token string) error {
	if err := keyring.Set(keyringService, keyringUser, token); err == nil {
		// Drop a stale file token from an earlier fallback.
		if err := os.Remove(s.tokenPath()); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove credentials file: %w", err)
		}
		return nil
	}

	if err := os.WriteFile(s.tokenPath(), []byte(token), 0600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	return nil
}

func (s *CredentialStore) clearToken() error {
	// Try to delete from keyring (ignore errors)
	_ = keyring.Delete(keyringService, keyringUser)

	if err := os.Remove(s.tokenPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove credentials file: %w", err)
	}
	return nil
}

// Clear removes the token and the user record from all locations.
func (s *CredentialStore) Clear() error {
	if err := s.clearToken(); err != nil {
		return err
	}
	if err := os.Remove(s.userPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove user data: %w", err)
	}
	return nil
}
