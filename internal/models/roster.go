package models

type Worker struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Role              string `json:"role"`
	Email             string `json:"email,omitempty"`
	Phone             string `json:"phone,omitempty"`
	AssignedVehicleID string `json:"assignedVehicleId,omitempty"`
	CreatedAt         string `json:"createdAt,omitempty"`
}

type Vehicle struct {
	ID        string `json:"id"`
	Plate     string `json:"plate,omitempty"`
	Brand     string `json:"brand,omitempty"`
	Model     string `json:"model,omitempty"`
	Status    string `json:"status"`
	DriverID  string `json:"driverId,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}
