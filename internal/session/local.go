package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"baches/internal/apperr"
	"baches/internal/kv"
	"baches/internal/models"
	"baches/internal/security"
)

const UsersKey = "baches-users"

// LocalAuthenticator checks credentials against the user list kept in the
// profile itself.
type LocalAuthenticator struct {
	kv     kv.Store
	secret string
	log    zerolog.Logger

	// mu serializes read-modify-write of the user list.
	mu sync.Mutex
}

func NewLocalAuthenticator(store kv.Store, tokenSecret string, log zerolog.Logger) *LocalAuthenticator {
	return &LocalAuthenticator{kv: store, secret: tokenSecret, log: log}
}

func (a *LocalAuthenticator) Login(ctx context.Context, identifier, secret string) (models.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	// an unreadable list means nobody can log in, nothing is rewritten
	users, err := a.readUsers(ctx)
	if err != nil {
		a.log.Warn().Err(err).Str("key", UsersKey).Msg("read user list")
	}

	idx := findUser(users, identifier)
	if idx < 0 {
		return models.Session{}, fmt.Errorf("%w: user not found", apperr.ErrInvalidCredentials)
	}

	ok, err := security.VerifyPassword(secret, users[idx].Hash)
	if err != nil {
		a.log.Warn().Err(err).Str("user", identifier).Msg("stored hash unreadable")
	}
	if err != nil || !ok {
		return models.Session{}, fmt.Errorf("%w: password mismatch", apperr.ErrInvalidCredentials)
	}

	if security.NeedsRehash(users[idx].Hash) {
		a.upgradeHash(ctx, users, idx, secret)
	}

	return a.issue(identifier)
}

func (a *LocalAuthenticator) Register(ctx context.Context, input RegisterInput) (models.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	users, err := a.readUsers(ctx)
	if err != nil {
		return models.Session{}, err
	}
	if findUser(users, input.Identifier) >= 0 {
		return models.Session{}, apperr.ErrUserExists
	}

	hash, err := security.HashPassword(input.Secret)
	if err != nil {
		return models.Session{}, err
	}

	users = append(users, models.LocalUser{Username: input.Identifier, Hash: hash})
	if err := a.writeUsers(ctx, users); err != nil {
		return models.Session{}, err
	}

	return a.issue(input.Identifier)
}

func (a *LocalAuthenticator) issue(user string) (models.Session, error) {
	token, err := security.IssueSessionToken(a.secret, user)
	if err != nil {
		return models.Session{}, err
	}
	return models.Session{Token: token, User: user}, nil
}

// upgradeHash replaces a legacy digest with argon2id once the plain secret is
// known to be right. Failures leave the legacy digest in place.
func (a *LocalAuthenticator) upgradeHash(ctx context.Context, users []models.LocalUser, idx int, secret string) {
	hash, err := security.HashPassword(secret)
	if err != nil {
		a.log.Warn().Err(err).Msg("rehash password")
		return
	}
	users[idx].Hash = hash
	if err := a.writeUsers(ctx, users); err != nil {
		a.log.Warn().Err(err).Str("user", users[idx].Username).Msg("store upgraded hash")
	}
}

// readUsers treats an absent or malformed list as empty and returns store
// failures.
func (a *LocalAuthenticator) readUsers(ctx context.Context) ([]models.LocalUser, error) {
	raw, err := a.kv.Get(ctx, UsersKey)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", apperr.ErrStorage, UsersKey, err)
	}

	var users []models.LocalUser
	if err := json.Unmarshal(raw, &users); err != nil {
		a.log.Warn().Err(err).Str("key", UsersKey).Msg("malformed user list")
		return nil, nil
	}
	return users, nil
}

func (a *LocalAuthenticator) writeUsers(ctx context.Context, users []models.LocalUser) error {
	raw, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("encode users: %w", err)
	}
	if err := a.kv.Set(ctx, UsersKey, raw); err != nil {
		return fmt.Errorf("%w: write %s: %w", apperr.ErrStorage, UsersKey, err)
	}
	return nil
}

func findUser(users []models.LocalUser, username string) int {
	for i, u := range users {
		if u.Username == username {
			return i
		}
	}
	return -1
}
