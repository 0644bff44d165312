// Package session owns the single authenticated identity of a dashboard
// profile: how it is obtained, persisted, restored and torn down.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"baches/internal/kv"
	"baches/internal/models"
)

const Key = "baches-auth"

// Store persists the session in one kv slot.
type Store struct {
	kv  kv.Store
	log zerolog.Logger
}

func NewStore(store kv.Store, log zerolog.Logger) *Store {
	return &Store{kv: store, log: log}
}

// Read never fails: an absent, unreadable or malformed slot is no session.
func (s *Store) Read(ctx context.Context) *models.Session {
	raw, err := s.kv.Get(ctx, Key)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			s.log.Warn().Err(err).Str("key", Key).Msg("read session slot")
		}
		return nil
	}

	var sess models.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		s.log.Warn().Err(err).Str("key", Key).Msg("malformed session slot")
		return nil
	}
	if sess.Token == "" || sess.User == "" {
		s.log.Warn().Str("key", Key).Msg("incomplete session slot")
		return nil
	}
	return &sess
}

func (s *Store) Write(ctx context.Context, sess models.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.kv.Set(ctx, Key, raw)
}

func (s *Store) Clear(ctx context.Context) error {
	return s.kv.Delete(ctx, Key)
}
