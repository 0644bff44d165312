package roster

import (
	"strconv"
	"strings"

	"baches/internal/models"
)

const (
	defaultWorkerName   = "Sin nombre"
	defaultWorkerRole   = "trabajador"
	defaultVehicleState = "active"
)

func NormalizeWorker(raw map[string]any) models.Worker {
	return models.Worker{
		ID:                first(raw, "id", "_id"),
		Name:              orDefault(first(raw, "name", "fullname", "username"), defaultWorkerName),
		Role:              orDefault(first(raw, "role", "position"), defaultWorkerRole),
		Email:             first(raw, "email"),
		Phone:             first(raw, "phone"),
		AssignedVehicleID: first(raw, "assignedVehicleId", "vehicleId"),
		CreatedAt:         first(raw, "createdAt", "created_at"),
	}
}

func NormalizeVehicle(raw map[string]any) models.Vehicle {
	return models.Vehicle{
		ID:        first(raw, "id", "_id"),
		Plate:     first(raw, "plate", "licensePlate", "matricula"),
		Brand:     first(raw, "brand", "make"),
		Model:     first(raw, "model"),
		Status:    orDefault(first(raw, "status"), defaultVehicleState),
		DriverID:  first(raw, "driverId", "assignedTo"),
		CreatedAt: first(raw, "createdAt", "created_at"),
	}
}

func first(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := raw[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// SearchWorkers matches name or email, case-insensitively. An empty query
// returns everything.
func SearchWorkers(workers []models.Worker, query string) []models.Worker {
	q := strings.ToLower(query)
	out := make([]models.Worker, 0, len(workers))
	for _, w := range workers {
		if strings.Contains(strings.ToLower(w.Name), q) || strings.Contains(strings.ToLower(w.Email), q) {
			out = append(out, w)
		}
	}
	return out
}

// SearchVehicles matches plate or brand, case-insensitively.
func SearchVehicles(vehicles []models.Vehicle, query string) []models.Vehicle {
	q := strings.ToLower(query)
	out := make([]models.Vehicle, 0, len(vehicles))
	for _, v := range vehicles {
		if strings.Contains(strings.ToLower(v.Plate), q) || strings.Contains(strings.ToLower(v.Brand), q) {
			out = append(out, v)
		}
	}
	return out
}
