package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang/geo/s2"
	geojson "github.com/paulmach/go.geojson"
	"github.com/rs/zerolog"

	"baches/internal/apperr"
	"baches/internal/ids"
	"baches/internal/media/sniffer"
	"baches/internal/media/svg"
	"baches/internal/metrics"
	"baches/internal/models"
)

type PhotoStore interface {
	Put(ctx context.Context, id, contentType string, data []byte) (string, error)
}

type Reverser interface {
	Reverse(ctx context.Context, lat, lng float64) (models.Address, error)
}

// EnrichQueue hands address lookups to the worker.
type EnrichQueue interface {
	EnqueueGeocode(ctx context.Context, user, reportID string) error
}

type Options struct {
	Photos        PhotoStore
	Geocoder      Reverser
	Queue         EnrichQueue
	MaxPhotoBytes int64
	Now           func() time.Time
}

type Service struct {
	repo Repository
	opts Options
	log  zerolog.Logger
}

func NewService(repo Repository, opts Options, log zerolog.Logger) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{repo: repo, opts: opts, log: log}
}

type Photo struct {
	ContentType string
	Data        []byte
}

type SubmitInput struct {
	Description string
	Severity    string
	Comments    string
	Location    *models.Location
	Photo       *Photo
}

// Submit validates a new report, stores its photo and persists it. Nothing is
// written when validation fails.
func (s *Service) Submit(ctx context.Context, sess models.Session, in SubmitInput) (models.Report, error) {
	description := strings.TrimSpace(in.Description)

	verr := &apperr.ValidationError{}
	if description == "" {
		verr.Add("description", "required")
	}
	if in.Location != nil && !s2.LatLngFromDegrees(in.Location.Lat, in.Location.Lng).IsValid() {
		verr.Add("location", "coordinates out of range")
	}

	var photo *Photo
	if in.Photo != nil {
		p, msg := s.checkPhoto(*in.Photo)
		if msg != "" {
			verr.Add("photo", msg)
		}
		photo = p
	}
	if !verr.Empty() {
		return models.Report{}, verr
	}

	severity := strings.TrimSpace(in.Severity)
	if severity == "" {
		severity = string(models.SeverityMedium)
	}

	report := models.Report{
		ID:          ids.New(),
		Description: description,
		Severity:    severity,
		Comments:    strings.TrimSpace(in.Comments),
		CreatedAt:   s.opts.Now().UTC().Format(TimeLayout),
	}
	if in.Location != nil {
		loc := *in.Location
		report.Location = &loc
	}
	if photo != nil {
		report.Photo = s.storePhoto(ctx, report.ID, *photo)
	}

	log := s.log.With().Str("user", sess.User).Str("report_id", report.ID).Logger()

	if s.opts.Queue == nil && s.opts.Geocoder != nil && report.Location != nil {
		addr, err := s.opts.Geocoder.Reverse(ctx, report.Location.Lat, report.Location.Lng)
		if err != nil {
			log.Warn().Err(err).Msg("reverse geocode failed")
		} else {
			report.ApplyAddress(addr)
		}
	}

	created, err := s.repo.Create(ctx, sess, report)
	if err != nil {
		return models.Report{}, err
	}

	if s.opts.Queue != nil && created.Location != nil {
		if err := s.opts.Queue.EnqueueGeocode(ctx, sess.User, created.ID); err != nil {
			log.Warn().Err(err).Msg("enqueue geocode")
		}
	}

	bucket, ok := NormalizeSeverity(created.Severity)
	if !ok {
		bucket = "unknown"
	}
	metrics.ReportsSubmittedTotal.WithLabelValues(string(bucket)).Inc()
	log.Info().Str("severity", created.Severity).Msg("report submitted")

	return created, nil
}

// checkPhoto returns the photo ready to store or a message for the caller.
func (s *Service) checkPhoto(p Photo) (*Photo, string) {
	if len(p.Data) == 0 {
		return nil, "empty file"
	}
	if s.opts.MaxPhotoBytes > 0 && int64(len(p.Data)) > s.opts.MaxPhotoBytes {
		return nil, fmt.Sprintf("larger than %d bytes", s.opts.MaxPhotoBytes)
	}

	res, err := sniffer.Check(p.ContentType, p.Data)
	if err != nil {
		return nil, err.Error()
	}

	data := p.Data
	if res.Type == sniffer.TypeSVG {
		clean, err := svg.Sanitize(data)
		if err != nil {
			return nil, err.Error()
		}
		data = clean
	}
	return &Photo{ContentType: res.MIME, Data: data}, ""
}

// storePhoto uploads to the object store when one is configured and falls
// back to an inline data URI.
func (s *Service) storePhoto(ctx context.Context, id string, p Photo) string {
	if s.opts.Photos != nil {
		url, err := s.opts.Photos.Put(ctx, id, p.ContentType, p.Data)
		if err == nil {
			return url
		}
		s.log.Warn().Err(err).Str("report_id", id).Msg("photo upload failed, storing inline")
	}
	return sniffer.EncodeDataURI(p.ContentType, p.Data)
}

// List returns the session's reports filtered and ordered. On failure the
// collection is empty, never stale.
func (s *Service) List(ctx context.Context, sess models.Session, filter FilterKey, sort SortKey) ([]models.Report, error) {
	reports, err := s.repo.List(ctx, sess)
	if err != nil {
		s.log.Warn().Err(err).Str("user", sess.User).Msg("list reports")
		return []models.Report{}, err
	}
	return Query(reports, filter, sort), nil
}

func (s *Service) Delete(ctx context.Context, sess models.Session, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperr.NewValidation("id", "required")
	}
	if err := s.repo.Delete(ctx, sess, id); err != nil {
		return err
	}
	s.log.Info().Str("user", sess.User).Str("report_id", id).Msg("report deleted")
	return nil
}

// Markers renders located reports as GeoJSON points for the map.
func (s *Service) Markers(ctx context.Context, sess models.Session, filter FilterKey) (*geojson.FeatureCollection, error) {
	fc := geojson.NewFeatureCollection()
	reports, err := s.List(ctx, sess, filter, SortDateDesc)
	if err != nil {
		return fc, err
	}
	for _, r := range reports {
		if r.Location == nil {
			continue
		}
		f := geojson.NewPointFeature([]float64{r.Location.Lng, r.Location.Lat})
		f.ID = r.ID
		f.SetProperty("description", r.Description)
		f.SetProperty("severity", r.Severity)
		f.SetProperty("createdAt", r.CreatedAt)
		if sev, ok := NormalizeSeverity(r.Severity); ok {
			f.SetProperty("bucket", string(sev))
		}
		if r.Street != "" {
			f.SetProperty("street", r.Street)
		}
		fc.AddFeature(f)
	}
	return fc, nil
}
