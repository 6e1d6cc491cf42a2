package credentials

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	kerrors "github.com/PolarWolf314/pagelock/internal/errors"
)

const (
	// DocumentScope is the scope of a credential unlocking a whole document.
	DocumentScope = "*"

	passphraseKey = "pagelock_passphrase"
	expirationKey = "pagelock_expiration"
)

// StorageKeys returns the key and expiration entry names for scope.
func StorageKeys(scope string) (keyEntry, expirationEntry string) {
	if scope == DocumentScope || scope == "" {
		return passphraseKey, expirationKey
	}
	return passphraseKey + "_" + scope, expirationKey + "_" + scope
}

// Clock returns the current time.
type Clock func() time.Time

// Store remembers derived keys per scope on top of a Storage.
// Recall reads and evicts under one lock, so no caller ever sees an expired key.
type Store struct {
	mu        sync.Mutex
	storage   Storage
	now       Clock
	namespace string
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock replaces time.Now, for tests.
func WithClock(c Clock) StoreOption {
	return func(s *Store) {
		s.now = c
	}
}

// WithNamespace keeps the store's entries apart from those of other pages
// sharing the same Storage. Entry names inside the namespace are still the
// ones StorageKeys returns.
func WithNamespace(ns string) StoreOption {
	return func(s *Store) {
		s.namespace = ns
	}
}

// NewStore returns a Store writing to storage.
func NewStore(storage Storage, opts ...StoreOption) *Store {
	s := &Store{storage: storage, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Remember stores keyHex for scope. A positive durationDays sets an expiry of
// now + durationDays*24h; otherwise the credential never expires and stays
// until it is forgotten. An existing credential for scope is replaced.
func (s *Store) Remember(scope, keyHex string, durationDays int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	keyEntry, expEntry := s.keys(scope)

	if err := s.storage.Set(keyEntry, keyHex); err != nil {
		return fmt.Errorf("failed to remember credential: %w", err)
	}

	if durationDays <= 0 {
		if err := s.storage.Remove(expEntry); err != nil {
			return fmt.Errorf("failed to clear credential expiry: %w", err)
		}
		return nil
	}

	expiresAt := s.now().Add(time.Duration(durationDays) * 24 * time.Hour)
	if err := s.storage.Set(expEntry, strconv.FormatInt(expiresAt.UnixMilli(), 10)); err != nil {
		return fmt.Errorf("failed to store credential expiry: %w", err)
	}
	return nil
}

// Recall returns the remembered key for scope.
//
// It returns ErrCredentialNotFound when nothing is stored, and
// ErrExpiredCredential when the stored credential has expired; in that case
// the entry has already been removed.
func (s *Store) Recall(scope string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keyEntry, expEntry := s.keys(scope)

	keyHex, ok, err := s.storage.Get(keyEntry)
	if err != nil {
		return "", fmt.Errorf("failed to read credential: %w", err)
	}
	if !ok || keyHex == "" {
		return "", kerrors.ErrCredentialNotFound
	}

	raw, ok, err := s.storage.Get(expEntry)
	if err != nil {
		return "", fmt.Errorf("failed to read credential expiry: %w", err)
	}
	if !ok {
		return keyHex, nil
	}

	expiresAt, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || !s.now().Before(time.UnixMilli(expiresAt)) {
		if err := s.forget(scope); err != nil {
			return "", err
		}
		return "", kerrors.ErrExpiredCredential
	}

	return keyHex, nil
}

// Forget removes the credential for scope. Forgetting an absent scope is not an error.
func (s *Store) Forget(scope string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.forget(scope)
}

// ForgetAll removes the credentials of every scope given.
func (s *Store) ForgetAll(scopes []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, scope := range scopes {
		if err := s.forget(scope); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) forget(scope string) error {
	keyEntry, expEntry := s.keys(scope)
	if err := s.storage.Remove(keyEntry); err != nil {
		return fmt.Errorf("failed to forget credential: %w", err)
	}
	if err := s.storage.Remove(expEntry); err != nil {
		return fmt.Errorf("failed to forget credential expiry: %w", err)
	}
	return nil
}

func (s *Store) keys(scope string) (string, string) {
	keyEntry, expEntry := StorageKeys(scope)
	if s.namespace == "" {
		return keyEntry, expEntry
	}
	return s.namespace + "." + keyEntry, s.namespace + "." + expEntry
}
