package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/fsonnyboy/medcare/pkg/logger"
	"github.com/fsonnyboy/medcare/pkg/storage"
)

const (
	sessionKey = "session"
	userKey    = "user"
)

// Store owns the durable keys for the session record and the cached user
// profile. No other component reads those keys directly. Reads fail closed:
// a malformed or unreadable value surfaces as an absent session so the
// client falls back to re-login instead of crashing.
type Store struct {
	backend storage.Storage
	log     logger.Logger
}

func NewStore(backend storage.Storage, log logger.Logger) *Store {
	if log == nil {
		log = logger.Nop{}
	}
	return &Store{backend: backend, log: log}
}

// Load reads the persisted session. Backend errors are logged and mapped to
// an absent session.
func (s *Store) Load(ctx context.Context) *Session {
	raw, err := s.backend.Get(ctx, sessionKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.log.Error("failed to load session", logger.Field{Key: "error", Value: err.Error()})
		}
		return nil
	}

	sess := ParseStored(raw)
	if sess == nil {
		s.log.Warn("discarding unparseable stored session")
	}
	return sess
}

// Save persists the session. A nil session clears the stored record.
// Concurrent saves are last-write-wins.
func (s *Store) Save(ctx context.Context, sess *Session) error {
	if sess == nil {
		if err := s.backend.Delete(ctx, sessionKey); err != nil {
			return fmt.Errorf("session: failed to clear: %w", err)
		}
		return nil
	}

	raw, err := Encode(sess)
	if err != nil {
		return fmt.Errorf("session: failed to encode: %w", err)
	}
	if err := s.backend.Set(ctx, sessionKey, raw); err != nil {
		return fmt.Errorf("session: failed to persist: %w", err)
	}
	return nil
}

// LoadUser returns the serialized cached profile, or nil when absent or
// unreadable.
func (s *Store) LoadUser(ctx context.Context) []byte {
	raw, err := s.backend.Get(ctx, userKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.log.Error("failed to load cached user", logger.Field{Key: "error", Value: err.Error()})
		}
		return nil
	}
	return []byte(raw)
}

// SaveUser persists the serialized profile. Nil clears it.
func (s *Store) SaveUser(ctx context.Context, data []byte) error {
	if data == nil {
		if err := s.backend.Delete(ctx, userKey); err != nil {
			return fmt.Errorf("session: failed to clear user: %w", err)
		}
		return nil
	}
	if err := s.backend.Set(ctx, userKey, string(data)); err != nil {
		return fmt.Errorf("session: failed to persist user: %w", err)
	}
	return nil
}

// Clear removes both durable keys. Used on logout.
func (s *Store) Clear(ctx context.Context) error {
	errSession := s.Save(ctx, nil)
	errUser := s.SaveUser(ctx, nil)
	return errors.Join(errSession, errUser)
}
