package roster

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"baches/internal/apperr"
	"baches/internal/models"
)

type fakeSource struct {
	workers    []map[string]any
	vehicles   []map[string]any
	vehicleErr error
}

func (f fakeSource) ListWorkers(context.Context, string) ([]map[string]any, error) {
	return f.workers, nil
}

func (f fakeSource) ListVehicles(context.Context, string) ([]map[string]any, error) {
	return f.vehicles, f.vehicleErr
}

func TestNormalizeWorkerFallbacks(t *testing.T) {
	w := NormalizeWorker(map[string]any{"_id": "w1", "fullname": "Ana Pérez", "position": "chofer", "vehicleId": "v9", "created_at": "2024-01-01"})
	assert.Equal(t, models.Worker{ID: "w1", Name: "Ana Pérez", Role: "chofer", AssignedVehicleID: "v9", CreatedAt: "2024-01-01"}, w)

	w = NormalizeWorker(map[string]any{"id": "w2"})
	assert.Equal(t, "Sin nombre", w.Name)
	assert.Equal(t, "trabajador", w.Role)
}

func TestNormalizeVehicleFallbacks(t *testing.T) {
	v := NormalizeVehicle(map[string]any{"_id": "v1", "matricula": "YUC-123", "make": "Nissan", "assignedTo": "w1"})
	assert.Equal(t, models.Vehicle{ID: "v1", Plate: "YUC-123", Brand: "Nissan", Status: "active", DriverID: "w1"}, v)

	v = NormalizeVehicle(map[string]any{"id": 7.0, "licensePlate": "ABC", "status": "maintenance"})
	assert.Equal(t, "7", v.ID)
	assert.Equal(t, "maintenance", v.Status)
}

func TestSearch(t *testing.T) {
	workers := []models.Worker{{Name: "Ana", Email: "ana@muni.mx"}, {Name: "Beto", Email: "beto@muni.mx"}}
	assert.Len(t, SearchWorkers(workers, ""), 2)
	assert.Len(t, SearchWorkers(workers, "ANA"), 1)
	assert.Len(t, SearchWorkers(workers, "muni"), 2)
	assert.Empty(t, SearchWorkers(workers, "carla"))

	vehicles := []models.Vehicle{{Plate: "YUC-1", Brand: "Nissan"}, {Plate: "YUC-2", Brand: "Ford"}}
	assert.Len(t, SearchVehicles(vehicles, "yuc"), 2)
	assert.Len(t, SearchVehicles(vehicles, "ford"), 1)
}

func TestLoad(t *testing.T) {
	src := fakeSource{
		workers:  []map[string]any{{"id": "w1", "name": "Ana"}},
		vehicles: []map[string]any{{"id": "v1", "plate": "YUC-1"}},
	}
	svc := NewService(src, zerolog.Nop())

	r, err := svc.Load(context.Background(), models.Session{Token: "t"})
	require.NoError(t, err)
	assert.Len(t, r.Workers, 1)
	assert.Len(t, r.Vehicles, 1)

	workers, err := svc.Workers(context.Background(), models.Session{Token: "t"}, "an")
	require.NoError(t, err)
	assert.Len(t, workers, 1)
}

func TestLoadFailureEmptiesBoth(t *testing.T) {
	src := fakeSource{
		workers:    []map[string]any{{"id": "w1"}},
		vehicleErr: errors.Join(apperr.ErrNetwork, errors.New("503")),
	}
	svc := NewService(src, zerolog.Nop())

	r, err := svc.Load(context.Background(), models.Session{Token: "t"})
	assert.ErrorIs(t, err, apperr.ErrNetwork)
	assert.NotNil(t, r.Workers)
	assert.Empty(t, r.Workers)
	assert.Empty(t, r.Vehicles)

	workers, err := svc.Workers(context.Background(), models.Session{Token: "t"}, "")
	assert.Error(t, err)
	assert.Empty(t, workers)
}
