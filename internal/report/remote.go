package report

import (
	"context"

	"baches/internal/models"
	"baches/internal/remote"
)

type RemoteRepository struct {
	client *remote.Client
}

func NewRemoteRepository(client *remote.Client) *RemoteRepository {
	return &RemoteRepository{client: client}
}

func (r *RemoteRepository) List(ctx context.Context, sess models.Session) ([]models.Report, error) {
	records, err := r.client.ListReports(ctx, sess.Token)
	if err != nil {
		return nil, err
	}
	reports := make([]models.Report, 0, len(records))
	for _, rec := range records {
		reports = append(reports, Normalize(rec))
	}
	return reports, nil
}

// Create posts the report and returns the server's copy. Fields the server
// leaves out of its answer are kept from the submitted report.
func (r *RemoteRepository) Create(ctx context.Context, sess models.Session, report models.Report) (models.Report, error) {
	created, err := r.client.CreateReport(ctx, sess.Token, Payload(report))
	if err != nil {
		return models.Report{}, err
	}
	if len(created) == 0 {
		return report, nil
	}

	out := Normalize(created)
	if _, ok := created["id"]; !ok {
		if _, ok := created["_id"]; !ok {
			out.ID = report.ID
		}
	}
	if out.Location == nil {
		out.Location = report.Location
	}
	if out.Photo == "" {
		out.Photo = report.Photo
	}
	if firstString(created, "createdAt", "date") == "" {
		out.CreatedAt = report.CreatedAt
	}
	return out, nil
}

func (r *RemoteRepository) Delete(ctx context.Context, sess models.Session, id string) error {
	return r.client.DeleteReport(ctx, sess.Token, id)
}

// Payload is the body the hosted API accepts for a new report.
func Payload(r models.Report) map[string]any {
	status := r.Status
	if status == "" {
		status = "pending"
	}
	p := map[string]any{
		"description": r.Description,
		"severity":    r.Severity,
		"date":        r.CreatedAt,
		"status":      status,
		"comments":    r.Comments,
	}
	if r.Location != nil {
		p["latitude"] = r.Location.Lat
		p["longitude"] = r.Location.Lng
	}
	if r.HasAddress() || r.State != "" || r.PostalCode != "" {
		p["street"] = r.Street
		p["neighborhood"] = r.Neighborhood
		p["city"] = r.City
		p["state"] = r.State
		p["postalCode"] = r.PostalCode
	}
	if r.Photo != "" {
		p["images"] = []string{r.Photo}
	}
	return p
}
