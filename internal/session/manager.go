package session

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"baches/internal/apperr"
	"baches/internal/models"
)

// Manager holds the one active session of a profile. Handlers and commands
// receive it explicitly; there is no package-level session.
type Manager struct {
	store *Store
	auth  Authenticator
	log   zerolog.Logger

	// ops serializes login, register and logout.
	ops     sync.Mutex
	mu      sync.RWMutex
	current *models.Session
}

func NewManager(store *Store, auth Authenticator, log zerolog.Logger) *Manager {
	return &Manager{store: store, auth: auth, log: log}
}

// Restore loads the persisted session. Call it once at startup.
func (m *Manager) Restore(ctx context.Context) *models.Session {
	sess := m.store.Read(ctx)
	m.set(sess)
	if sess != nil {
		m.log.Info().Str("user", sess.User).Msg("session restored")
	}
	return m.Current()
}

func (m *Manager) Login(ctx context.Context, identifier, secret string) (models.Session, error) {
	identifier = strings.TrimSpace(identifier)

	verr := &apperr.ValidationError{}
	if identifier == "" {
		verr.Add("username", "required")
	}
	if secret == "" {
		verr.Add("password", "required")
	}
	if !verr.Empty() {
		return models.Session{}, verr
	}

	m.ops.Lock()
	defer m.ops.Unlock()

	sess, err := m.auth.Login(ctx, identifier, secret)
	if err != nil {
		m.log.Info().Err(err).Str("user", identifier).Msg("login rejected")
		return models.Session{}, err
	}
	if err := m.persist(ctx, sess); err != nil {
		return models.Session{}, err
	}
	m.log.Info().Str("user", sess.User).Msg("logged in")
	return sess, nil
}

// Register validates before touching storage or the network, then behaves as
// a login.
func (m *Manager) Register(ctx context.Context, input RegisterInput) (models.Session, error) {
	input.Identifier = strings.TrimSpace(input.Identifier)

	verr := &apperr.ValidationError{}
	if input.Identifier == "" {
		verr.Add("username", "required")
	}
	if input.Secret == "" {
		verr.Add("password", "required")
	}
	if input.Secret != input.Confirm {
		verr.Add("confirm", "passwords do not match")
	}
	if !verr.Empty() {
		return models.Session{}, verr
	}

	m.ops.Lock()
	defer m.ops.Unlock()

	sess, err := m.auth.Register(ctx, input)
	if err != nil {
		m.log.Info().Err(err).Str("user", input.Identifier).Msg("registration rejected")
		return models.Session{}, err
	}
	if err := m.persist(ctx, sess); err != nil {
		return models.Session{}, err
	}
	m.log.Info().Str("user", sess.User).Msg("registered")
	return sess, nil
}

// Logout always drops the in-memory session, even if the slot cannot be
// cleared.
func (m *Manager) Logout(ctx context.Context) error {
	m.ops.Lock()
	defer m.ops.Unlock()

	prev := m.Current()
	m.set(nil)
	if err := m.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	if prev != nil {
		m.log.Info().Str("user", prev.User).Msg("logged out")
	}
	return nil
}

func (m *Manager) Current() *models.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return nil
	}
	cp := *m.current
	return &cp
}

// Authorize matches a presented token against the active session.
func (m *Manager) Authorize(token string) (models.Session, bool) {
	sess := m.Current()
	if sess == nil || token == "" {
		return models.Session{}, false
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(sess.Token)) != 1 {
		return models.Session{}, false
	}
	return *sess, true
}

func (m *Manager) persist(ctx context.Context, sess models.Session) error {
	if err := m.store.Write(ctx, sess); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	m.set(&sess)
	return nil
}

func (m *Manager) set(sess *models.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess == nil {
		m.current = nil
		return
	}
	cp := *sess
	m.current = &cp
}
