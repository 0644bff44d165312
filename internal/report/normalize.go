package report

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"baches/internal/ids"
	"baches/internal/models"
)

// TimeLayout is the timestamp format written for new reports.
const TimeLayout = "2006-01-02T15:04:05.000Z"

// Normalize maps a record from any report source onto the canonical shape.
// It is total: any JSON-decoded object yields a report.
func Normalize(raw map[string]any) models.Report {
	return NormalizeAt(raw, time.Now())
}

// NormalizeAt is Normalize with an explicit clock for the createdAt fallback.
func NormalizeAt(raw map[string]any, now time.Time) models.Report {
	r := models.Report{
		ID:          firstString(raw, "id", "_id"),
		Description: firstString(raw, "description", "comments"),
		Severity:    firstString(raw, "severity"),
		Location:    location(raw),
		Photo:       photo(raw),
		CreatedAt:   firstString(raw, "createdAt", "date"),

		Status:       firstString(raw, "status"),
		Comments:     firstString(raw, "comments"),
		Street:       firstString(raw, "street", "road"),
		Neighborhood: firstString(raw, "neighborhood", "neighbourhood", "suburb"),
		City:         firstString(raw, "city", "town"),
		State:        firstString(raw, "state"),
		PostalCode:   firstString(raw, "postalCode", "postal_code", "postcode"),
	}

	if r.ID == "" {
		r.ID = ids.New()
	}
	if r.Severity == "" {
		r.Severity = string(models.SeverityMedium)
	}
	if r.CreatedAt == "" {
		r.CreatedAt = now.UTC().Format(TimeLayout)
	}
	return r
}

func location(raw map[string]any) *models.Location {
	if obj, ok := raw["location"].(map[string]any); ok {
		lat, latOK := number(obj["lat"])
		lng, lngOK := number(obj["lng"])
		if !lngOK {
			lng, lngOK = number(obj["lon"])
		}
		if latOK && lngOK {
			return &models.Location{Lat: lat, Lng: lng}
		}
	}

	lat, latOK := number(raw["latitude"])
	lng, lngOK := number(raw["longitude"])
	if latOK && lngOK {
		return &models.Location{Lat: lat, Lng: lng}
	}
	return nil
}

func photo(raw map[string]any) string {
	switch images := raw["images"].(type) {
	case []any:
		if len(images) > 0 {
			if s, ok := text(images[0]); ok && s != "" {
				return s
			}
		}
	case []string:
		if len(images) > 0 && images[0] != "" {
			return images[0]
		}
	}
	return firstString(raw, "photo")
}

func firstString(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := text(raw[k]); ok && s != "" {
			return s
		}
	}
	return ""
}

// text renders scalar JSON values; objects and arrays are not text.
func text(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), true
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return "", false
		}
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case json.Number:
		return t.String(), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return "", false
}

func number(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
