package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"baches/internal/metrics"
	"baches/internal/models"
	"baches/internal/queue"
	"baches/internal/report"
)

// ReportStore is the part of the local report repository the worker needs.
type ReportStore interface {
	Get(ctx context.Context, user, id string) (models.Report, error)
	List(ctx context.Context, sess models.Session) ([]models.Report, error)
	Annotate(ctx context.Context, user, id string, addr models.Address) error
	Users(ctx context.Context) ([]string, error)
}

type Processor struct {
	reports  ReportStore
	geocoder report.Reverser
	logger   zerolog.Logger
}

func NewProcessor(reports ReportStore, geocoder report.Reverser, logger zerolog.Logger) *Processor {
	return &Processor{
		reports:  reports,
		geocoder: geocoder,
		logger:   logger,
	}
}

func (p *Processor) Handle(ctx context.Context, msg redis.XMessage) error {
	task, err := queue.DecodeTask(msg.Values)
	if err != nil {
		// A malformed task will never succeed; acknowledge it.
		p.logger.Warn().Err(err).Str("message_id", msg.ID).Msg("drop malformed task")
		return nil
	}
	return p.Run(ctx, task)
}

func (p *Processor) Run(ctx context.Context, task queue.Task) error {
	var err error
	switch task.Type {
	case queue.TaskGeocode:
		err = p.handleGeocode(ctx, task)
	case queue.TaskSweep:
		err = p.handleSweep(ctx)
	default:
		p.logger.Warn().Str("type", task.Type).Msg("unknown task type")
		return nil
	}
	metrics.TasksProcessedTotal.WithLabelValues(task.Type, metrics.Result(err)).Inc()
	return err
}

func (p *Processor) handleGeocode(ctx context.Context, task queue.Task) error {
	log := p.logger.With().Str("user", task.User).Str("report_id", task.ReportID).Logger()

	r, err := p.reports.Get(ctx, task.User, task.ReportID)
	if errors.Is(err, report.ErrReportNotFound) {
		log.Info().Msg("report gone before geocoding")
		return nil
	}
	if err != nil {
		return err
	}

	annotated, err := p.enrich(ctx, task.User, r)
	if err != nil {
		return err
	}
	if annotated {
		log.Info().Msg("report address filled")
	}
	return nil
}

// handleSweep fills every located report that still lacks an address. Per
// report failures are logged and skipped.
func (p *Processor) handleSweep(ctx context.Context) error {
	users, err := p.reports.Users(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	filled, failed := 0, 0
	for _, user := range users {
		reports, err := p.reports.List(ctx, models.Session{User: user})
		if err != nil {
			p.logger.Warn().Err(err).Str("user", user).Msg("sweep list")
			continue
		}
		for _, r := range reports {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			ok, err := p.enrich(ctx, user, r)
			switch {
			case err != nil:
				failed++
				p.logger.Warn().Err(err).Str("user", user).Str("report_id", r.ID).Msg("sweep geocode")
			case ok:
				filled++
			}
		}
	}

	p.logger.Info().Int("users", len(users)).Int("filled", filled).Int("failed", failed).Msg("sweep done")
	return nil
}

func (p *Processor) enrich(ctx context.Context, user string, r models.Report) (bool, error) {
	if p.geocoder == nil || r.Location == nil || r.Street != "" {
		return false, nil
	}

	addr, err := p.geocoder.Reverse(ctx, r.Location.Lat, r.Location.Lng)
	if err != nil {
		return false, err
	}
	if addr.Empty() {
		return false, nil
	}

	err = p.reports.Annotate(ctx, user, r.ID, addr)
	if errors.Is(err, report.ErrReportNotFound) {
		return false, nil
	}
	return err == nil, err
}
