package report

import (
	"context"
	"errors"

	"baches/internal/models"
)

var ErrReportNotFound = errors.New("report not found")

// Repository stores the reports visible to one session. The local and the
// remote backends are both behind it.
type Repository interface {
	List(ctx context.Context, sess models.Session) ([]models.Report, error)
	Create(ctx context.Context, sess models.Session, r models.Report) (models.Report, error)
	Delete(ctx context.Context, sess models.Session, id string) error
}
