package report

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"baches/internal/models"
)

var fixedNow = time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC)

func TestNormalizeRemoteRecord(t *testing.T) {
	raw := map[string]any{
		"comments":  "pothole",
		"latitude":  20.9,
		"longitude": -89.6,
		"images":    []any{"data:image/png;base64,AAAA"},
	}
	r := NormalizeAt(raw, fixedNow)

	assert.Equal(t, "pothole", r.Description)
	require.NotNil(t, r.Location)
	assert.Equal(t, models.Location{Lat: 20.9, Lng: -89.6}, *r.Location)
	assert.Equal(t, "data:image/png;base64,AAAA", r.Photo)
	assert.Equal(t, "medium", r.Severity)
	assert.Equal(t, "2024-03-05T10:30:00.000Z", r.CreatedAt)
	assert.NotEmpty(t, r.ID)
}

func TestNormalizePriorities(t *testing.T) {
	raw := map[string]any{
		"_id":           "abc",
		"description":   "hole",
		"comments":      "ignored for description",
		"severity":      "Alta",
		"location":      map[string]any{"lat": 1.5, "lng": 2.5},
		"latitude":      9.0,
		"longitude":     9.0,
		"images":        []any{},
		"photo":         "https://cdn/x.jpg",
		"date":          "2024-01-01T00:00:00Z",
		"neighbourhood": "Centro",
		"town":          "Mérida",
		"postal_code":   "97000",
		"road":          "Calle 60",
	}
	r := NormalizeAt(raw, fixedNow)

	assert.Equal(t, "abc", r.ID)
	assert.Equal(t, "hole", r.Description)
	assert.Equal(t, "Alta", r.Severity)
	assert.Equal(t, &models.Location{Lat: 1.5, Lng: 2.5}, r.Location)
	assert.Equal(t, "https://cdn/x.jpg", r.Photo)
	assert.Equal(t, "2024-01-01T00:00:00Z", r.CreatedAt)
	assert.Equal(t, "Calle 60", r.Street)
	assert.Equal(t, "Centro", r.Neighborhood)
	assert.Equal(t, "Mérida", r.City)
	assert.Equal(t, "97000", r.PostalCode)
}

func TestNormalizeStringCoordinates(t *testing.T) {
	r := NormalizeAt(map[string]any{"latitude": "20.97", "longitude": " -89.62 "}, fixedNow)
	require.NotNil(t, r.Location)
	assert.Equal(t, -89.62, r.Location.Lng)

	r = NormalizeAt(map[string]any{"latitude": "north", "longitude": 1.0}, fixedNow)
	assert.Nil(t, r.Location)

	r = NormalizeAt(map[string]any{"location": "somewhere", "latitude": 1.0}, fixedNow)
	assert.Nil(t, r.Location)
}

func TestNormalizeNumericID(t *testing.T) {
	r := NormalizeAt(map[string]any{"id": 42.0}, fixedNow)
	assert.Equal(t, "42", r.ID)
}

// Every decoded JSON object, however odd, normalizes to a complete report.
func TestNormalizeIsTotal(t *testing.T) {
	inputs := []string{
		`{}`,
		`{"id":null,"description":null,"severity":null,"location":null,"images":null,"createdAt":null}`,
		`{"images":[null],"photo":7,"location":{"lat":"x"},"latitude":true}`,
		`{"images":"not-a-list","location":[1,2],"date":{"$date":1}}`,
		`{"description":["a"],"comments":{"text":"b"},"severity":3}`,
	}
	for _, in := range inputs {
		var raw map[string]any
		require.NoError(t, json.Unmarshal([]byte(in), &raw))

		var r models.Report
		require.NotPanics(t, func() { r = NormalizeAt(raw, fixedNow) }, in)
		assert.NotEmpty(t, r.ID, in)
		assert.NotEmpty(t, r.Severity, in)
		assert.NotEmpty(t, r.CreatedAt, in)
	}

	require.NotPanics(t, func() { NormalizeAt(nil, fixedNow) })
}

func TestNormalizeSeverity(t *testing.T) {
	cases := map[string]models.Severity{
		"low":    models.SeverityLow,
		"Baja":   models.SeverityLow,
		"BAJO":   models.SeverityLow,
		"medium": models.SeverityMedium,
		"Media":  models.SeverityMedium,
		"alta":   models.SeverityHigh,
		"HIGH":   models.SeverityHigh,
	}
	for raw, want := range cases {
		got, ok := NormalizeSeverity(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got, raw)

		again, ok := NormalizeSeverity(string(got))
		assert.True(t, ok)
		assert.Equal(t, got, again, "idempotent for %s", raw)
	}

	for _, raw := range []string{"", "urgent", "critical", "3"} {
		_, ok := NormalizeSeverity(raw)
		assert.False(t, ok, raw)
		assert.Equal(t, 2, Rank(raw), raw)
	}

	assert.Equal(t, 1, Rank("baja"))
	assert.Equal(t, 3, Rank("High"))
}
