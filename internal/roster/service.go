package roster

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"baches/internal/metrics"
	"baches/internal/models"
)

// Source is the hosted API's read-only staff endpoints.
type Source interface {
	ListWorkers(ctx context.Context, token string) ([]map[string]any, error)
	ListVehicles(ctx context.Context, token string) ([]map[string]any, error)
}

type Roster struct {
	Workers  []models.Worker  `json:"workers"`
	Vehicles []models.Vehicle `json:"vehicles"`
}

type Service struct {
	source Source
	log    zerolog.Logger
}

func NewService(source Source, log zerolog.Logger) *Service {
	return &Service{source: source, log: log}
}

// Load fetches workers and vehicles together. If either call fails both lists
// come back empty alongside the error.
func (s *Service) Load(ctx context.Context, sess models.Session) (Roster, error) {
	var workers, vehicles []map[string]any

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		workers, err = s.source.ListWorkers(gctx, sess.Token)
		if err != nil {
			metrics.RemoteErrorsTotal.WithLabelValues("workers").Inc()
		}
		return err
	})
	g.Go(func() error {
		var err error
		vehicles, err = s.source.ListVehicles(gctx, sess.Token)
		if err != nil {
			metrics.RemoteErrorsTotal.WithLabelValues("vehicles").Inc()
		}
		return err
	})

	empty := Roster{Workers: []models.Worker{}, Vehicles: []models.Vehicle{}}
	if err := g.Wait(); err != nil {
		s.log.Warn().Err(err).Str("user", sess.User).Msg("load roster")
		return empty, err
	}

	out := empty
	for _, raw := range workers {
		out.Workers = append(out.Workers, NormalizeWorker(raw))
	}
	for _, raw := range vehicles {
		out.Vehicles = append(out.Vehicles, NormalizeVehicle(raw))
	}
	return out, nil
}

func (s *Service) Workers(ctx context.Context, sess models.Session, query string) ([]models.Worker, error) {
	r, err := s.Load(ctx, sess)
	if err != nil {
		return r.Workers, err
	}
	return SearchWorkers(r.Workers, query), nil
}

func (s *Service) Vehicles(ctx context.Context, sess models.Session, query string) ([]models.Vehicle, error) {
	r, err := s.Load(ctx, sess)
	if err != nil {
		return r.Vehicles, err
	}
	return SearchVehicles(r.Vehicles, query), nil
}
