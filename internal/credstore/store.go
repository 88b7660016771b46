// Package credstore adapts the OS credential manager for the two secrets the
// client persists: the per-target refresh token and the encryption
// passphrase. Nothing else ever touches disk.
package credstore

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"

	"github.com/datavault/dvcli/internal/constants"
)

// Keyring errors of the taxonomy. Absence is reported, never fabricated.
var (
	ErrNotFound       = errors.New("credential not found")
	ErrStorageFailed  = errors.New("credential storage failed")
	ErrDeletionFailed = errors.New("credential deletion failed")
)

// Store wraps one opened OS keyring.
type Store struct {
	ring keyring.Keyring
}

// Open opens the platform keyring for this application.
func Open() (*Store, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: constants.AppName,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}
	return &Store{ring: ring}, nil
}

// NewWithKeyring wraps an existing keyring, used by tests with an in-memory
// backend.
func NewWithKeyring(ring keyring.Keyring) *Store {
	return &Store{ring: ring}
}

// RefreshTokenKey returns the keyring key holding the refresh token for a
// target URL.
func RefreshTokenKey(targetURL string) string {
	return constants.AppName + "::" + targetURL
}

// PassphraseKey returns the keyring key holding the encryption passphrase
// for a target URL.
func PassphraseKey(targetURL string) string {
	return constants.AppName + "::" + targetURL + "-crypto"
}

// Set stores a secret under key.
func (s *Store) Set(key, secret string) error {
	err := s.ring.Set(keyring.Item{
		Key:  key,
		Data: []byte(secret),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}
	return nil
}

// Get returns the secret stored under key, or ErrNotFound.
func (s *Store) Get(key string) (string, error) {
	item, err := s.ring.Get(key)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}
	return string(item.Data), nil
}

// Delete removes the secret stored under key. Deleting a missing key
// reports ErrNotFound.
func (s *Store) Delete(key string) error {
	if _, err := s.ring.Get(key); err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: %v", ErrDeletionFailed, err)
	}
	if err := s.ring.Remove(key); err != nil {
		return fmt.Errorf("%w: %v", ErrDeletionFailed, err)
	}
	return nil
}

// SetRefreshToken persists the refresh token for a target.
func (s *Store) SetRefreshToken(targetURL, token string) error {
	return s.Set(RefreshTokenKey(targetURL), token)
}

// RefreshToken returns the persisted refresh token for a target.
func (s *Store) RefreshToken(targetURL string) (string, error) {
	return s.Get(RefreshTokenKey(targetURL))
}

// DeleteRefreshToken removes the persisted refresh token for a target.
func (s *Store) DeleteRefreshToken(targetURL string) error {
	return s.Delete(RefreshTokenKey(targetURL))
}

// SetPassphrase persists the encryption passphrase for a target.
func (s *Store) SetPassphrase(targetURL, passphrase string) error {
	return s.Set(PassphraseKey(targetURL), passphrase)
}

// Passphrase returns the persisted encryption passphrase for a target.
func (s *Store) Passphrase(targetURL string) (string, error) {
	return s.Get(PassphraseKey(targetURL))
}

// DeletePassphrase removes the persisted encryption passphrase for a target.
func (s *Store) DeletePassphrase(targetURL string) error {
	return s.Delete(PassphraseKey(targetURL))
}
