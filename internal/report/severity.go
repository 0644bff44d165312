package report

import (
	"strings"

	"baches/internal/models"
)

// NormalizeSeverity collapses free-text severities, Spanish or English in any
// case, into the three buckets. Unknown values report false.
func NormalizeSeverity(raw string) (models.Severity, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case s == "":
		return "", false
	case strings.Contains(s, "baj"), strings.Contains(s, "low"):
		return models.SeverityLow, true
	case strings.Contains(s, "med"):
		return models.SeverityMedium, true
	case strings.Contains(s, "alt"), strings.Contains(s, "high"):
		return models.SeverityHigh, true
	}
	return "", false
}

// Rank orders severities for sorting; unrecognized values rank as medium.
func Rank(raw string) int {
	sev, ok := NormalizeSeverity(raw)
	if !ok {
		return 2
	}
	switch sev {
	case models.SeverityLow:
		return 1
	case models.SeverityHigh:
		return 3
	}
	return 2
}
