package models

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Report struct {
	ID           string    `json:"id"`
	Description  string    `json:"description"`
	Severity     string    `json:"severity"`
	Location     *Location `json:"location,omitempty"`
	Photo        string    `json:"photo,omitempty"`
	CreatedAt    string    `json:"createdAt"`
	Status       string    `json:"status,omitempty"`
	Comments     string    `json:"comments,omitempty"`
	Street       string    `json:"street,omitempty"`
	Neighborhood string    `json:"neighborhood,omitempty"`
	City         string    `json:"city,omitempty"`
	State        string    `json:"state,omitempty"`
	PostalCode   string    `json:"postalCode,omitempty"`
}

func (r Report) HasAddress() bool {
	return r.Street != "" || r.Neighborhood != "" || r.City != ""
}

// Address is the reverse-geocoded form of a Location.
type Address struct {
	Road          string `json:"road"`
	Neighbourhood string `json:"neighbourhood"`
	City          string `json:"city"`
	State         string `json:"state"`
	Postcode      string `json:"postcode"`
}

func (a Address) Empty() bool {
	return a == Address{}
}

func (r *Report) ApplyAddress(a Address) {
	r.Street = a.Road
	r.Neighborhood = a.Neighbourhood
	r.City = a.City
	r.State = a.State
	r.PostalCode = a.Postcode
}
