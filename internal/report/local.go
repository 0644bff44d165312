package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"baches/internal/apperr"
	"baches/internal/kv"
	"baches/internal/models"
)

const (
	// LegacyKey held every user's reports in one collection. It is dropped at
	// startup and never read.
	LegacyKey = "baches-reports"

	CollectionPrefix = LegacyKey + ":"
)

func CollectionKey(user string) string {
	return CollectionPrefix + user
}

// LocalRepository keeps one whole-collection blob per user, newest first.
// Writes are read-modify-write, serialized within the process but not across
// processes sharing the store.
type LocalRepository struct {
	kv  kv.Store
	log zerolog.Logger

	mu sync.Mutex
}

func NewLocalRepository(store kv.Store, log zerolog.Logger) *LocalRepository {
	return &LocalRepository{kv: store, log: log}
}

func (r *LocalRepository) List(ctx context.Context, sess models.Session) ([]models.Report, error) {
	return r.load(ctx, sess.User), nil
}

func (r *LocalRepository) Create(ctx context.Context, sess models.Session, report models.Report) (models.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reports, err := r.read(ctx, sess.User)
	if err != nil {
		return models.Report{}, err
	}
	reports = append([]models.Report{report}, reports...)
	if err := r.save(ctx, sess.User, reports); err != nil {
		return models.Report{}, err
	}
	return report, nil
}

func (r *LocalRepository) Delete(ctx context.Context, sess models.Session, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reports, err := r.read(ctx, sess.User)
	if err != nil {
		return err
	}
	kept := reports[:0]
	found := false
	for _, rep := range reports {
		if rep.ID == id {
			found = true
			continue
		}
		kept = append(kept, rep)
	}
	if !found {
		return ErrReportNotFound
	}
	return r.save(ctx, sess.User, kept)
}

// Get finds one report of a user.
func (r *LocalRepository) Get(ctx context.Context, user, id string) (models.Report, error) {
	reports, err := r.read(ctx, user)
	if err != nil {
		return models.Report{}, err
	}
	for _, rep := range reports {
		if rep.ID == id {
			return rep, nil
		}
	}
	return models.Report{}, ErrReportNotFound
}

// Annotate fills the address of a stored report. It is the only mutation of
// an existing report and is done by the enrichment worker.
func (r *LocalRepository) Annotate(ctx context.Context, user, id string, addr models.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reports, err := r.read(ctx, user)
	if err != nil {
		return err
	}
	for i := range reports {
		if reports[i].ID == id {
			reports[i].ApplyAddress(addr)
			return r.save(ctx, user, reports)
		}
	}
	return ErrReportNotFound
}

// Users lists the owners of stored collections.
func (r *LocalRepository) Users(ctx context.Context) ([]string, error) {
	keys, err := r.kv.Keys(ctx, CollectionPrefix)
	if err != nil {
		return nil, err
	}
	users := make([]string, 0, len(keys))
	for _, k := range keys {
		if user := strings.TrimPrefix(k, CollectionPrefix); user != "" {
			users = append(users, user)
		}
	}
	return users, nil
}

// RemoveLegacy deletes the pre-per-user collection.
func (r *LocalRepository) RemoveLegacy(ctx context.Context) error {
	return r.kv.Delete(ctx, LegacyKey)
}

// load is read for display: a store failure shows as an empty collection.
func (r *LocalRepository) load(ctx context.Context, user string) []models.Report {
	reports, err := r.read(ctx, user)
	if err != nil {
		r.log.Warn().Err(err).Str("user", user).Msg("read report collection")
		return []models.Report{}
	}
	return reports
}

// read treats an absent or malformed collection as empty. Store failures
// are returned so a following write cannot clobber data it never saw.
func (r *LocalRepository) read(ctx context.Context, user string) ([]models.Report, error) {
	key := CollectionKey(user)
	raw, err := r.kv.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return []models.Report{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", apperr.ErrStorage, key, err)
	}

	var records []map[string]any
	if err := json.Unmarshal(raw, &records); err != nil {
		r.log.Warn().Err(err).Str("key", key).Msg("malformed report collection")
		return []models.Report{}, nil
	}

	reports := make([]models.Report, 0, len(records))
	for _, rec := range records {
		if rec == nil {
			continue
		}
		reports = append(reports, Normalize(rec))
	}
	return reports, nil
}

func (r *LocalRepository) save(ctx context.Context, user string, reports []models.Report) error {
	raw, err := json.Marshal(reports)
	if err != nil {
		return fmt.Errorf("encode reports: %w", err)
	}
	if err := r.kv.Set(ctx, CollectionKey(user), raw); err != nil {
		return fmt.Errorf("%w: write reports of %s: %w", apperr.ErrStorage, user, err)
	}
	return nil
}
