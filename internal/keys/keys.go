// Package keys derives and remembers per-wallet encryption keys. Keys are
// derived from a password and a persisted per-wallet salt; the derived key
// lives only in process memory and is handed to the engine, which never
// sees the password.
package keys

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Key derivation constants.
const (
	// SaltSize is the length of a per-wallet salt.
	SaltSize = 32
	// KeySize is the length of a derived encryption key.
	KeySize = 32
)

// Argon2id parameters. Fixed for the life of the on-disk format: changing
// any of them changes every derived key.
const (
	argonMemory      = 64 * 1024 // KiB
	argonIterations  = 3
	argonParallelism = 4
)

// NewSalt generates a fresh random salt.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}

// DeriveKey derives a KeySize-byte encryption key from password and salt
// using Argon2id. A nil salt generates a fresh one. Deterministic for a
// given (password, salt) pair.
func DeriveKey(password, salt []byte) (key, outSalt []byte, err error) {
	if len(password) == 0 {
		return nil, nil, fmt.Errorf("empty password")
	}
	if salt == nil {
		salt, err = NewSalt()
		if err != nil {
			return nil, nil, err
		}
	}
	if len(salt) != SaltSize {
		return nil, nil, fmt.Errorf("salt must be %d bytes, got %d", SaltSize, len(salt))
	}

	key = argon2.IDKey(password, salt, argonIterations, argonMemory, argonParallelism, KeySize)
	return key, salt, nil
}

// Store holds the in-memory encryption sessions: one derived key per
// currently loaded wallet. Never persisted.
type Store struct {
	sessions map[string][]byte
}

// NewStore creates an empty credential store.
func NewStore() *Store {
	return &Store{sessions: make(map[string][]byte)}
}

// Remember records the derived key for a loaded wallet.
func (s *Store) Remember(walletID string, key []byte) {
	k := make([]byte, len(key))
	copy(k, key)
	s.sessions[walletID] = k
}

// Lookup returns the derived key for a wallet, if loaded.
func (s *Store) Lookup(walletID string) ([]byte, bool) {
	k, ok := s.sessions[walletID]
	return k, ok
}

// Loaded reports whether a wallet has an active encryption session.
func (s *Store) Loaded(walletID string) bool {
	_, ok := s.sessions[walletID]
	return ok
}

// Forget zeroes and drops the session for a wallet. No-op if absent.
func (s *Store) Forget(walletID string) {
	if k, ok := s.sessions[walletID]; ok {
		zero(k)
		delete(s.sessions, walletID)
	}
}

// ForgetAll zeroes and drops every session. Called on shutdown.
func (s *Store) ForgetAll() {
	for id, k := range s.sessions {
		zero(k)
		delete(s.sessions, id)
	}
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
